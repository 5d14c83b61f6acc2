package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tabungan/internal/core"

	"github.com/google/uuid"
)

const recentTransactionLimit = 10

// TransactionService records income and expense transactions and derives
// the dashboard aggregates from them.
type TransactionService struct {
	store TransactionStore
	now   func() time.Time
}

func NewTransactionService(store TransactionStore) *TransactionService {
	return &TransactionService{
		store: store,
		now:   time.Now,
	}
}

// WindowSummary is a time-bounded slice of one transaction kind.
type WindowSummary struct {
	Total        core.Money
	Transactions []core.Transaction
}

// Dashboard aggregates an owner's financial position.
type Dashboard struct {
	TotalBalance       core.Money
	TotalIncome        core.Money
	TotalExpense       core.Money
	Last7DaysIncome    WindowSummary
	Last7DaysExpense   WindowSummary
	Last30DaysIncome   WindowSummary
	Last30DaysExpense  WindowSummary
	RecentTransactions []core.Transaction
}

func (s *TransactionService) AddTransaction(ctx context.Context, t core.Transaction) (*core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	if t.Date.IsZero() {
		t.Date = t.CreatedAt
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateTransaction(ctx, &t); err != nil {
		return nil, fmt.Errorf("add transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"transaction_id", t.ID,
		"owner_id", t.OwnerID,
		"kind", t.Kind,
		"source", t.Source,
		"amount_cents", t.Amount.Cents)

	return &t, nil
}

// ListTransactions returns an owner's transactions of one kind, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, ownerID string, kind core.TransactionKind) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, ownerID, kind, time.Time{})
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteTransaction(ctx, ownerID, id)
}

// Dashboard computes the balance, all-time totals, 7- and 30-day windows,
// and the most recent transactions across both kinds.
func (s *TransactionService) Dashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	now := s.now()
	since7 := now.AddDate(0, 0, -7)
	since30 := now.AddDate(0, 0, -30)

	totalIncome, err := s.store.SumTransactions(ctx, ownerID, core.TransactionIncome, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("dashboard income total: %w", err)
	}
	totalExpense, err := s.store.SumTransactions(ctx, ownerID, core.TransactionExpense, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("dashboard expense total: %w", err)
	}

	d := &Dashboard{
		TotalBalance: core.Money{Cents: totalIncome.Cents - totalExpense.Cents},
		TotalIncome:  totalIncome,
		TotalExpense: totalExpense,
	}

	if d.Last7DaysIncome, err = s.window(ctx, ownerID, core.TransactionIncome, since7); err != nil {
		return nil, err
	}
	if d.Last7DaysExpense, err = s.window(ctx, ownerID, core.TransactionExpense, since7); err != nil {
		return nil, err
	}
	if d.Last30DaysIncome, err = s.window(ctx, ownerID, core.TransactionIncome, since30); err != nil {
		return nil, err
	}
	if d.Last30DaysExpense, err = s.window(ctx, ownerID, core.TransactionExpense, since30); err != nil {
		return nil, err
	}

	if d.RecentTransactions, err = s.store.ListRecentTransactions(ctx, ownerID, recentTransactionLimit); err != nil {
		return nil, fmt.Errorf("dashboard recent transactions: %w", err)
	}

	return d, nil
}

func (s *TransactionService) window(ctx context.Context, ownerID string, kind core.TransactionKind, since time.Time) (WindowSummary, error) {
	transactions, err := s.store.ListTransactions(ctx, ownerID, kind, since)
	if err != nil {
		return WindowSummary{}, fmt.Errorf("dashboard %s window: %w", kind, err)
	}

	var total core.Money
	for _, t := range transactions {
		total = total.Add(t.Amount)
	}
	return WindowSummary{Total: total, Transactions: transactions}, nil
}
