package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tabungan/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testGoal(id string) *core.SavingsGoal {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return &core.SavingsGoal{
		ID:            id,
		OwnerID:       "owner-1",
		GoalName:      "Goal " + id,
		Icon:          "💰",
		Category:      core.CategoryOther,
		TargetAmount:  core.Money{Cents: 100000},
		CurrentAmount: core.Money{Cents: 0},
		Status:        core.StatusActive,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestCreateAndGetGoal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	g := testGoal("g1")
	g.AutoContribute = core.AutoContribute{
		Enabled:              true,
		Amount:               core.Money{Cents: 5000},
		Frequency:            core.Weekly,
		NextContributionDate: time.Date(2024, 1, 22, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateGoal(ctx, g); err != nil {
		t.Fatalf("CreateGoal() error: %v", err)
	}

	got, err := repo.GetGoal(ctx, "owner-1", "g1")
	if err != nil {
		t.Fatalf("GetGoal() error: %v", err)
	}

	if got.GoalName != g.GoalName || got.TargetAmount != g.TargetAmount {
		t.Errorf("got %+v, want %+v", got, g)
	}
	if !got.AutoContribute.Enabled || got.AutoContribute.Frequency != core.Weekly {
		t.Errorf("auto config = %+v", got.AutoContribute)
	}
	if !got.AutoContribute.NextContributionDate.Equal(g.AutoContribute.NextContributionDate) {
		t.Errorf("next = %v, want %v", got.AutoContribute.NextContributionDate, g.AutoContribute.NextContributionDate)
	}
	if !got.AutoContribute.LastContributionDate.IsZero() {
		t.Errorf("last = %v, want zero", got.AutoContribute.LastContributionDate)
	}
	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}
}

func TestGetGoalOwnerScoping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateGoal(ctx, testGoal("g1")); err != nil {
		t.Fatalf("CreateGoal() error: %v", err)
	}

	if _, err := repo.GetGoal(ctx, "someone-else", "g1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetGoal() with wrong owner: error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetGoalByID(ctx, "g1"); err != nil {
		t.Errorf("GetGoalByID() error: %v, want unscoped read to succeed", err)
	}
}

func TestUpdateGoalVersionGuard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateGoal(ctx, testGoal("g1")); err != nil {
		t.Fatalf("CreateGoal() error: %v", err)
	}

	first, _ := repo.GetGoal(ctx, "owner-1", "g1")
	second, _ := repo.GetGoal(ctx, "owner-1", "g1")

	first.CurrentAmount = core.Money{Cents: 1000}
	if err := repo.UpdateGoal(ctx, first); err != nil {
		t.Fatalf("first UpdateGoal() error: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("version after update = %d, want 2", first.Version)
	}

	// The second copy was read at version 1 and must lose the race.
	second.CurrentAmount = core.Money{Cents: 2000}
	if err := repo.UpdateGoal(ctx, second); !errors.Is(err, core.ErrVersionConflict) {
		t.Fatalf("stale UpdateGoal() error = %v, want ErrVersionConflict", err)
	}

	got, _ := repo.GetGoal(ctx, "owner-1", "g1")
	if got.CurrentAmount.Cents != 1000 {
		t.Errorf("CurrentAmount = %d, want first writer's 1000", got.CurrentAmount.Cents)
	}
}

func TestUpdateGoalPersistsLedgerEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateGoal(ctx, testGoal("g1")); err != nil {
		t.Fatalf("CreateGoal() error: %v", err)
	}

	g, _ := repo.GetGoal(ctx, "owner-1", "g1")
	entry, err := g.ApplyContribution(core.Money{Cents: 2500}, core.ContributionManual, "first", time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ApplyContribution() error: %v", err)
	}
	if err := repo.UpdateGoal(ctx, g, entry); err != nil {
		t.Fatalf("UpdateGoal() error: %v", err)
	}

	entries, err := repo.ListContributions(ctx, "g1")
	if err != nil {
		t.Fatalf("ListContributions() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Amount.Cents != 2500 || entries[0].Type != core.ContributionManual || entries[0].Note != "first" {
		t.Errorf("entry = %+v", entries[0])
	}

	got, _ := repo.GetGoal(ctx, "owner-1", "g1")
	if got.CurrentAmount.Cents != 2500 {
		t.Errorf("CurrentAmount = %d, want 2500", got.CurrentAmount.Cents)
	}
}

func TestListAutoContributeCandidates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	enabled := testGoal("enabled")
	enabled.AutoContribute = core.AutoContribute{Enabled: true, Amount: core.Money{Cents: 100}, Frequency: core.Daily}

	disabled := testGoal("disabled")

	completed := testGoal("completed")
	completed.AutoContribute = core.AutoContribute{Enabled: true, Amount: core.Money{Cents: 100}, Frequency: core.Daily}
	completed.Status = core.StatusCompleted

	for _, g := range []*core.SavingsGoal{enabled, disabled, completed} {
		if err := repo.CreateGoal(ctx, g); err != nil {
			t.Fatalf("CreateGoal(%s) error: %v", g.ID, err)
		}
	}

	ids, err := repo.ListAutoContributeCandidates(ctx)
	if err != nil {
		t.Fatalf("ListAutoContributeCandidates() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "enabled" {
		t.Errorf("candidates = %v, want [enabled]", ids)
	}
}

func TestDeleteGoal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateGoal(ctx, testGoal("g1")); err != nil {
		t.Fatalf("CreateGoal() error: %v", err)
	}

	if err := repo.DeleteGoal(ctx, "someone-else", "g1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("delete by wrong owner: error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteGoal(ctx, "owner-1", "g1"); err != nil {
		t.Fatalf("DeleteGoal() error: %v", err)
	}
	if _, err := repo.GetGoal(ctx, "owner-1", "g1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetGoal() after delete: error = %v, want ErrNotFound", err)
	}
}

func TestTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	add := func(id string, kind core.TransactionKind, cents int64, day int) {
		t.Helper()
		err := repo.CreateTransaction(ctx, &core.Transaction{
			ID:        id,
			OwnerID:   "owner-1",
			Kind:      kind,
			Source:    "test",
			Amount:    core.Money{Cents: cents},
			Date:      base.AddDate(0, 0, day),
			CreatedAt: base,
		})
		if err != nil {
			t.Fatalf("CreateTransaction(%s) error: %v", id, err)
		}
	}

	add("i1", core.TransactionIncome, 50000, 1)
	add("i2", core.TransactionIncome, 30000, 10)
	add("e1", core.TransactionExpense, 20000, 5)

	income, err := repo.ListTransactions(ctx, "owner-1", core.TransactionIncome, time.Time{})
	if err != nil {
		t.Fatalf("ListTransactions() error: %v", err)
	}
	if len(income) != 2 || income[0].ID != "i2" {
		t.Errorf("income = %+v, want [i2 i1]", income)
	}

	// Date filter keeps only transactions on or after the cutoff.
	recentIncome, err := repo.ListTransactions(ctx, "owner-1", core.TransactionIncome, base.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("ListTransactions(since) error: %v", err)
	}
	if len(recentIncome) != 1 || recentIncome[0].ID != "i2" {
		t.Errorf("recent income = %+v, want [i2]", recentIncome)
	}

	total, err := repo.SumTransactions(ctx, "owner-1", core.TransactionIncome, time.Time{})
	if err != nil {
		t.Fatalf("SumTransactions() error: %v", err)
	}
	if total.Cents != 80000 {
		t.Errorf("income total = %d, want 80000", total.Cents)
	}

	recent, err := repo.ListRecentTransactions(ctx, "owner-1", 2)
	if err != nil {
		t.Fatalf("ListRecentTransactions() error: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "i2" || recent[1].ID != "e1" {
		t.Errorf("recent = %+v, want [i2 e1]", recent)
	}

	if err := repo.DeleteTransaction(ctx, "owner-1", "e1"); err != nil {
		t.Fatalf("DeleteTransaction() error: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "owner-1", "e1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}
