package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

const (
	CategoryVacation   GoalCategory = "vacation"
	CategoryEducation  GoalCategory = "education"
	CategoryEmergency  GoalCategory = "emergency"
	CategoryInvestment GoalCategory = "investment"
	CategoryOther      GoalCategory = "other"
)

const (
	StatusActive    GoalStatus = "active"
	StatusCompleted GoalStatus = "completed"
	StatusPaused    GoalStatus = "paused"
)

const (
	ContributionManual ContributionType = "manual"
	ContributionAuto   ContributionType = "auto"
)

const (
	TransactionIncome  TransactionKind = "income"
	TransactionExpense TransactionKind = "expense"
)

type (
	Frequency        string
	GoalCategory     string
	GoalStatus       string
	ContributionType string
	TransactionKind  string

	Money struct {
		Cents int64
	}

	// AutoContribute holds the scheduled-contribution configuration embedded
	// in a savings goal. Disabling preserves Amount and Frequency so the
	// goal can be re-enabled with its previous settings.
	AutoContribute struct {
		Enabled              bool
		Amount               Money
		Frequency            Frequency
		LastContributionDate time.Time
		NextContributionDate time.Time
	}

	// Contribution is one entry in a goal's append-only ledger.
	Contribution struct {
		ID     int64
		GoalID string
		Amount Money
		Type   ContributionType
		Date   time.Time
		Note   string
	}

	// SavingsGoal is a user-defined savings target. CurrentAmount is a
	// denormalized sum of the contribution ledger and never exceeds
	// TargetAmount. Version guards concurrent read-modify-write cycles:
	// every persisted update bumps it, and a stale write is rejected.
	SavingsGoal struct {
		ID             string
		OwnerID        string
		GoalName       string
		Description    string
		Icon           string
		Category       GoalCategory
		TargetAmount   Money
		CurrentAmount  Money
		Status         GoalStatus
		TargetDate     time.Time
		AutoContribute AutoContribute
		Version        int64
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	// Transaction is a single income or expense record.
	Transaction struct {
		ID        string
		OwnerID   string
		Kind      TransactionKind
		Icon      string
		Source    string
		Amount    Money
		Date      time.Time
		CreatedAt time.Time
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrGoalCompleted    = errors.New("goal already completed")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrEmptyGoalName    = errors.New("empty goal name")
	ErrEmptyOwner       = errors.New("empty owner id")
	ErrEmptySource      = errors.New("empty source")
	ErrTargetBelowSaved = errors.New("target amount below saved amount")
	ErrVersionConflict  = errors.New("version conflict")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) LessThan(other Money) bool {
	return m.Cents < other.Cents
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

func (c GoalCategory) Valid() bool {
	switch c {
	case CategoryVacation, CategoryEducation, CategoryEmergency, CategoryInvestment, CategoryOther:
		return true
	}
	return false
}

func (g *SavingsGoal) Validate() error {
	if strings.TrimSpace(g.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(g.GoalName) == "" {
		return ErrEmptyGoalName
	}
	if len(g.GoalName) > 200 {
		return errors.New("goal name too long (max 200 characters)")
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	// CurrentAmount can never exceed TargetAmount; a target patch that would
	// leave the goal over-saved is rejected before it is persisted.
	if g.CurrentAmount.Cents > g.TargetAmount.Cents {
		return ErrTargetBelowSaved
	}
	if !g.Category.Valid() {
		return ErrInvalidCategory
	}
	if g.AutoContribute.Enabled {
		if err := g.AutoContribute.Amount.Validate(); err != nil {
			return err
		}
		if !g.AutoContribute.Frequency.Valid() {
			return ErrInvalidFrequency
		}
	}
	return nil
}

// Progress returns the goal's completion percentage, rounded to the nearest
// whole number. A zero target reports zero progress.
func (g *SavingsGoal) Progress() int {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	return int((g.CurrentAmount.Cents*100 + g.TargetAmount.Cents/2) / g.TargetAmount.Cents)
}

// ApplyContribution appends a ledger entry and advances CurrentAmount.
// The applied amount is clamped so CurrentAmount never exceeds TargetAmount;
// the returned entry records the clamped amount actually applied, keeping the
// ledger sum equal to CurrentAmount. Reaching the target flips the goal to
// completed, and completed goals reject further contributions. A goal with
// nothing left to save is rejected the same way even if its status says
// otherwise, so the ledger can never receive a non-positive entry.
func (g *SavingsGoal) ApplyContribution(amount Money, ctype ContributionType, note string, at time.Time) (Contribution, error) {
	if amount.Cents <= 0 {
		return Contribution{}, ErrInvalidAmount
	}
	remaining := g.TargetAmount.Cents - g.CurrentAmount.Cents
	if g.Status == StatusCompleted || remaining <= 0 {
		return Contribution{}, ErrGoalCompleted
	}

	applied := amount
	if applied.Cents >= remaining {
		applied = Money{Cents: remaining}
		g.CurrentAmount = g.TargetAmount
		g.Status = StatusCompleted
	} else {
		g.CurrentAmount = g.CurrentAmount.Add(applied)
	}
	g.UpdatedAt = at

	return Contribution{
		GoalID: g.ID,
		Amount: applied,
		Type:   ctype,
		Date:   at,
		Note:   note,
	}, nil
}

func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(t.Source) == "" {
		return ErrEmptySource
	}
	if t.Kind != TransactionIncome && t.Kind != TransactionExpense {
		return errors.New("invalid transaction kind")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}
