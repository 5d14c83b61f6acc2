package services

import (
	"context"
	"time"

	"tabungan/internal/core"
)

// GoalStore is the persistence contract consumed by the goal service and the
// auto-contribution engine. Implementations must make UpdateGoal atomic per
// goal: the field changes and the appended ledger entries are persisted
// together, and a write against stale state fails with
// core.ErrVersionConflict.
type GoalStore interface {
	CreateGoal(ctx context.Context, g *core.SavingsGoal) error
	GetGoal(ctx context.Context, ownerID, id string) (*core.SavingsGoal, error)
	GetGoalByID(ctx context.Context, id string) (*core.SavingsGoal, error)
	ListGoals(ctx context.Context, ownerID string) ([]core.SavingsGoal, error)
	ListAutoContributeCandidates(ctx context.Context) ([]string, error)
	UpdateGoal(ctx context.Context, g *core.SavingsGoal, entries ...core.Contribution) error
	DeleteGoal(ctx context.Context, ownerID, id string) error
	ListContributions(ctx context.Context, goalID string) ([]core.Contribution, error)
}

// TransactionStore is the persistence contract for income/expense records.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *core.Transaction) error
	ListTransactions(ctx context.Context, ownerID string, kind core.TransactionKind, since time.Time) ([]core.Transaction, error)
	ListRecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error)
	SumTransactions(ctx context.Context, ownerID string, kind core.TransactionKind, since time.Time) (core.Money, error)
	DeleteTransaction(ctx context.Context, ownerID, id string) error
}

// GoalEventPublisher pushes goal activity to downstream consumers (the
// report worker). A nil publisher is tolerated everywhere: persistence never
// depends on messaging being up.
type GoalEventPublisher interface {
	PublishGoalEvent(ctx context.Context, goalID, ownerID string, kind string, amountCents int64) error
}
