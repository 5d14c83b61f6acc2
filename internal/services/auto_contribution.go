// Package services provides business logic and orchestration services.
//
// This file implements the auto-contribution engine: the periodic process
// that applies scheduled contributions to every due savings goal.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tabungan/internal/core"

	"golang.org/x/sync/errgroup"
)

// ErrTickInProgress is returned when a tick fires while the previous one is
// still running. The overlapping tick is skipped, not queued.
var ErrTickInProgress = errors.New("previous tick still in progress")

// AutoContributionEngine applies due auto-contributions across all goals.
// One Tick processes every enabled, non-completed goal whose next
// contribution time has passed. The engine keeps no state between ticks
// beyond what the store persists: dueness is always decided against a fresh
// read, so an early, late, or duplicate trigger cannot double-apply.
type AutoContributionEngine struct {
	store       GoalStore
	events      GoalEventPublisher
	concurrency int

	ticking sync.Mutex
}

func NewAutoContributionEngine(store GoalStore, events GoalEventPublisher, concurrency int) *AutoContributionEngine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AutoContributionEngine{
		store:       store,
		events:      events,
		concurrency: concurrency,
	}
}

// TickResult summarizes one engine run.
type TickResult struct {
	Candidates int
	Applied    int
	Completed  int
	Failed     int
}

// Tick processes all goals due at now. Goals are handled independently and
// concurrently up to the configured limit; a failure on one goal is logged
// and counted but never aborts the others. Ticks are serialized: if the
// previous tick is still running, this invocation returns ErrTickInProgress
// without touching any goal.
func (e *AutoContributionEngine) Tick(ctx context.Context, now time.Time) (TickResult, error) {
	if !e.ticking.TryLock() {
		return TickResult{}, ErrTickInProgress
	}
	defer e.ticking.Unlock()

	ids, err := e.store.ListAutoContributeCandidates(ctx)
	if err != nil {
		return TickResult{}, fmt.Errorf("list candidates: %w", err)
	}

	slog.InfoContext(ctx, "Processing auto-contributions",
		"candidates", len(ids),
		"processing_date", now.Format("2006-01-02"))

	var applied, completed, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			done, err := e.processGoal(gctx, id, now)
			if err != nil {
				failed.Add(1)
				slog.ErrorContext(gctx, "Auto-contribution failed",
					"goal_id", id, "error", err)
				return nil // keep processing the remaining goals
			}
			switch done {
			case goalContributed:
				applied.Add(1)
			case goalCompleted:
				applied.Add(1)
				completed.Add(1)
			}
			return nil
		})
	}
	// Workers never return errors; Wait only closes the group.
	_ = g.Wait()

	result := TickResult{
		Candidates: len(ids),
		Applied:    int(applied.Load()),
		Completed:  int(completed.Load()),
		Failed:     int(failed.Load()),
	}

	slog.InfoContext(ctx, "Auto-contribution processing complete",
		"candidates", result.Candidates,
		"applied", result.Applied,
		"completed", result.Completed,
		"failed", result.Failed)

	return result, nil
}

type goalOutcome int

const (
	goalSkipped goalOutcome = iota
	goalContributed
	goalCompleted
)

// processGoal re-reads one goal, decides dueness against the persisted next
// contribution time, and applies the contribution atomically. A version
// conflict means another writer (a manual contribution, or a duplicate
// trigger) got there first; the goal is left for the next tick rather than
// retried in a loop.
func (e *AutoContributionEngine) processGoal(ctx context.Context, id string, now time.Time) (goalOutcome, error) {
	goal, err := e.store.GetGoalByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted between the candidate scan and now.
			return goalSkipped, nil
		}
		return goalSkipped, fmt.Errorf("load goal: %w", err)
	}

	if !goal.AutoContribute.Enabled || goal.Status == core.StatusCompleted {
		return goalSkipped, nil
	}
	if !core.ContributionDue(goal.AutoContribute.NextContributionDate, now) {
		return goalSkipped, nil
	}

	note := fmt.Sprintf("Auto-contribution (%s)", goal.AutoContribute.Frequency)
	entry, err := goal.ApplyContribution(goal.AutoContribute.Amount, core.ContributionAuto, note, now)
	if err != nil {
		return goalSkipped, fmt.Errorf("apply contribution: %w", err)
	}

	goal.AutoContribute.LastContributionDate = now
	goal.AutoContribute.NextContributionDate = core.NextContributionDate(goal.AutoContribute.Frequency, now)

	if err := e.store.UpdateGoal(ctx, goal, entry); err != nil {
		if errors.Is(err, core.ErrVersionConflict) {
			slog.WarnContext(ctx, "Goal changed concurrently, deferring to next tick",
				"goal_id", goal.ID)
			return goalSkipped, nil
		}
		return goalSkipped, fmt.Errorf("persist contribution: %w", err)
	}

	slog.InfoContext(ctx, "Auto-contribution applied",
		"goal_id", goal.ID,
		"owner_id", goal.OwnerID,
		"goal_name", goal.GoalName,
		"amount_cents", entry.Amount.Cents,
		"frequency", goal.AutoContribute.Frequency,
		"next_contribution", goal.AutoContribute.NextContributionDate,
		"goal_status", goal.Status)

	e.publishEvent(ctx, goal, entry.Amount.Cents)

	if goal.Status == core.StatusCompleted {
		return goalCompleted, nil
	}
	return goalContributed, nil
}

func (e *AutoContributionEngine) publishEvent(ctx context.Context, goal *core.SavingsGoal, amountCents int64) {
	if e.events == nil {
		return
	}

	kind := EventContributionRecorded
	if goal.Status == core.StatusCompleted {
		kind = EventGoalCompleted
	}
	if err := e.events.PublishGoalEvent(ctx, goal.ID, goal.OwnerID, kind, amountCents); err != nil {
		slog.WarnContext(ctx, "Failed to publish goal event",
			"goal_id", goal.ID, "kind", kind, "error", err)
	}
}
