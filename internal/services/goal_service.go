package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tabungan/internal/core"

	"github.com/google/uuid"
)

const defaultGoalIcon = "💰"

// Goal event kinds published to the event stream.
const (
	EventContributionRecorded = "contribution_recorded"
	EventGoalCompleted        = "goal_completed"
)

// GoalService implements the synchronous goal lifecycle operations consumed
// by the HTTP layer: create, read, update, delete, manual contributions,
// auto-contribute toggling, and ledger history.
type GoalService struct {
	store  GoalStore
	events GoalEventPublisher
	now    func() time.Time
}

func NewGoalService(store GoalStore, events GoalEventPublisher) *GoalService {
	return &GoalService{
		store:  store,
		events: events,
		now:    time.Now,
	}
}

// CreateGoalInput carries the user-supplied fields for a new goal.
type CreateGoalInput struct {
	OwnerID        string
	GoalName       string
	Description    string
	Icon           string
	Category       core.GoalCategory
	TargetAmount   core.Money
	TargetDate     time.Time
	AutoContribute bool
	AutoAmount     core.Money
	Frequency      core.Frequency
}

// GoalPatch carries a partial update; nil fields are left untouched.
type GoalPatch struct {
	GoalName     *string
	Description  *string
	Icon         *string
	Category     *core.GoalCategory
	TargetAmount *core.Money
	TargetDate   *time.Time
}

// GoalSummary aggregates an owner's goals for the list view.
type GoalSummary struct {
	TotalGoals     int
	TotalTarget    core.Money
	TotalSaved     core.Money
	CompletedGoals int
}

func (s *GoalService) CreateGoal(ctx context.Context, in CreateGoalInput) (*core.SavingsGoal, error) {
	now := s.now()

	goal := &core.SavingsGoal{
		ID:           uuid.NewString(),
		OwnerID:      in.OwnerID,
		GoalName:     strings.TrimSpace(in.GoalName),
		Description:  in.Description,
		Icon:         in.Icon,
		Category:     in.Category,
		TargetAmount: in.TargetAmount,
		Status:       core.StatusActive,
		TargetDate:   in.TargetDate,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if goal.Icon == "" {
		goal.Icon = defaultGoalIcon
	}
	if goal.Category == "" {
		goal.Category = core.CategoryOther
	}
	if in.AutoContribute {
		goal.AutoContribute = core.AutoContribute{
			Enabled:              true,
			Amount:               in.AutoAmount,
			Frequency:            in.Frequency,
			NextContributionDate: core.NextContributionDate(in.Frequency, now),
		}
	}

	if err := goal.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	slog.InfoContext(ctx, "Savings goal created",
		"goal_id", goal.ID,
		"owner_id", goal.OwnerID,
		"goal_name", goal.GoalName,
		"target_cents", goal.TargetAmount.Cents,
		"auto_contribute", goal.AutoContribute.Enabled)

	return goal, nil
}

// GetGoal returns one goal with its progress percentage.
func (s *GoalService) GetGoal(ctx context.Context, ownerID, id string) (*core.SavingsGoal, int, error) {
	goal, err := s.store.GetGoal(ctx, ownerID, id)
	if err != nil {
		return nil, 0, err
	}
	return goal, goal.Progress(), nil
}

// ListGoals returns an owner's goals, newest first, with summary totals.
func (s *GoalService) ListGoals(ctx context.Context, ownerID string) ([]core.SavingsGoal, GoalSummary, error) {
	goals, err := s.store.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, GoalSummary{}, fmt.Errorf("list goals: %w", err)
	}

	summary := GoalSummary{TotalGoals: len(goals)}
	for _, g := range goals {
		summary.TotalTarget = summary.TotalTarget.Add(g.TargetAmount)
		summary.TotalSaved = summary.TotalSaved.Add(g.CurrentAmount)
		if g.Status == core.StatusCompleted {
			summary.CompletedGoals++
		}
	}
	return goals, summary, nil
}

// UpdateGoal applies a partial field patch. Only descriptive fields and the
// target amount can change this way; amounts saved so far move exclusively
// through contributions. Lowering the target below the saved amount is
// rejected with core.ErrTargetBelowSaved; lowering it to exactly the saved
// amount completes the goal.
func (s *GoalService) UpdateGoal(ctx context.Context, ownerID, id string, patch GoalPatch) (*core.SavingsGoal, error) {
	goal, err := s.store.GetGoal(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.GoalName != nil {
		goal.GoalName = strings.TrimSpace(*patch.GoalName)
	}
	if patch.Description != nil {
		goal.Description = *patch.Description
	}
	if patch.Icon != nil {
		goal.Icon = *patch.Icon
	}
	if patch.Category != nil {
		goal.Category = *patch.Category
	}
	if patch.TargetAmount != nil {
		goal.TargetAmount = *patch.TargetAmount
	}
	if patch.TargetDate != nil {
		goal.TargetDate = *patch.TargetDate
	}
	goal.UpdatedAt = s.now()

	if err := goal.Validate(); err != nil {
		return nil, err
	}
	if goal.Status == core.StatusActive && goal.CurrentAmount.Cents >= goal.TargetAmount.Cents {
		goal.Status = core.StatusCompleted
	}

	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteGoal(ctx, ownerID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Savings goal deleted", "goal_id", id, "owner_id", ownerID)
	return nil
}

// Contribute records a manual contribution against the latest persisted
// state of the goal.
func (s *GoalService) Contribute(ctx context.Context, ownerID, goalID string, amount core.Money, note string) (*core.SavingsGoal, *core.Contribution, error) {
	goal, err := s.store.GetGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, nil, err
	}

	entry, err := goal.ApplyContribution(amount, core.ContributionManual, note, s.now())
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.UpdateGoal(ctx, goal, entry); err != nil {
		return nil, nil, fmt.Errorf("persist contribution: %w", err)
	}

	slog.InfoContext(ctx, "Manual contribution recorded",
		"goal_id", goal.ID,
		"owner_id", goal.OwnerID,
		"amount_cents", entry.Amount.Cents,
		"current_cents", goal.CurrentAmount.Cents,
		"goal_status", goal.Status)

	s.publishEvent(ctx, goal, entry.Amount.Cents)

	return goal, &entry, nil
}

// ToggleAutoContribute enables or disables scheduled contributions.
// Enabling requires a positive amount and a valid frequency and schedules
// the first contribution one period from now. Disabling only clears the
// flag, keeping amount and frequency for a later re-enable.
func (s *GoalService) ToggleAutoContribute(ctx context.Context, ownerID, goalID string, enabled bool, amount core.Money, frequency core.Frequency) (*core.SavingsGoal, error) {
	goal, err := s.store.GetGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if enabled {
		if err := amount.Validate(); err != nil {
			return nil, err
		}
		if !frequency.Valid() {
			return nil, core.ErrInvalidFrequency
		}
		goal.AutoContribute = core.AutoContribute{
			Enabled:              true,
			Amount:               amount,
			Frequency:            frequency,
			LastContributionDate: goal.AutoContribute.LastContributionDate,
			NextContributionDate: core.NextContributionDate(frequency, now),
		}
	} else {
		goal.AutoContribute.Enabled = false
	}
	goal.UpdatedAt = now

	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("toggle auto-contribute: %w", err)
	}

	slog.InfoContext(ctx, "Auto-contribute toggled",
		"goal_id", goal.ID,
		"owner_id", goal.OwnerID,
		"enabled", enabled,
		"frequency", goal.AutoContribute.Frequency,
		"next_contribution", goal.AutoContribute.NextContributionDate)

	return goal, nil
}

// ContributionHistory returns the goal's ledger, newest first.
func (s *GoalService) ContributionHistory(ctx context.Context, ownerID, goalID string) (*core.SavingsGoal, []core.Contribution, error) {
	goal, err := s.store.GetGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.store.ListContributions(ctx, goalID)
	if err != nil {
		return nil, nil, fmt.Errorf("contribution history: %w", err)
	}
	return goal, entries, nil
}

func (s *GoalService) publishEvent(ctx context.Context, goal *core.SavingsGoal, amountCents int64) {
	if s.events == nil {
		return
	}

	kind := EventContributionRecorded
	if goal.Status == core.StatusCompleted {
		kind = EventGoalCompleted
	}
	if err := s.events.PublishGoalEvent(ctx, goal.ID, goal.OwnerID, kind, amountCents); err != nil {
		// Messaging is best-effort: the contribution is already durable.
		slog.WarnContext(ctx, "Failed to publish goal event",
			"goal_id", goal.ID, "kind", kind, "error", err)
	}
}
