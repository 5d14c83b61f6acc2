package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tabungan/internal/core"
)

// fakeGoalStore is an in-memory GoalStore mirroring the SQLite repository's
// optimistic concurrency contract: UpdateGoal fails with
// core.ErrVersionConflict unless the caller holds the current version.
type fakeGoalStore struct {
	mu            sync.Mutex
	goals         map[string]core.SavingsGoal
	contributions map[string][]core.Contribution
	nextEntryID   int64

	// failUpdates maps goal ids to an error every UpdateGoal call returns.
	failUpdates map[string]error
}

func newFakeGoalStore() *fakeGoalStore {
	return &fakeGoalStore{
		goals:         make(map[string]core.SavingsGoal),
		contributions: make(map[string][]core.Contribution),
		failUpdates:   make(map[string]error),
	}
}

func (f *fakeGoalStore) put(g core.SavingsGoal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.Version == 0 {
		g.Version = 1
	}
	f.goals[g.ID] = g
}

func (f *fakeGoalStore) get(id string) core.SavingsGoal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.goals[id]
}

func (f *fakeGoalStore) entries(goalID string) []core.Contribution {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Contribution(nil), f.contributions[goalID]...)
}

func (f *fakeGoalStore) CreateGoal(_ context.Context, g *core.SavingsGoal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.goals[g.ID]; exists {
		return fmt.Errorf("goal %s already exists", g.ID)
	}
	f.goals[g.ID] = *g
	return nil
}

func (f *fakeGoalStore) GetGoal(_ context.Context, ownerID, id string) (*core.SavingsGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.goals[id]
	if !ok || g.OwnerID != ownerID {
		return nil, core.ErrNotFound
	}
	copied := g
	return &copied, nil
}

func (f *fakeGoalStore) GetGoalByID(_ context.Context, id string) (*core.SavingsGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.goals[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := g
	return &copied, nil
}

func (f *fakeGoalStore) ListGoals(_ context.Context, ownerID string) ([]core.SavingsGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var goals []core.SavingsGoal
	for _, g := range f.goals {
		if g.OwnerID == ownerID {
			goals = append(goals, g)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].CreatedAt.After(goals[j].CreatedAt) })
	return goals, nil
}

func (f *fakeGoalStore) ListAutoContributeCandidates(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, g := range f.goals {
		if g.AutoContribute.Enabled && g.Status != core.StatusCompleted {
			ids = append(ids, g.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeGoalStore) UpdateGoal(_ context.Context, g *core.SavingsGoal, entries ...core.Contribution) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failUpdates[g.ID]; err != nil {
		return err
	}

	stored, ok := f.goals[g.ID]
	if !ok {
		return core.ErrNotFound
	}
	if stored.Version != g.Version {
		return core.ErrVersionConflict
	}

	updated := *g
	updated.Version++
	f.goals[g.ID] = updated
	g.Version = updated.Version

	for _, e := range entries {
		f.nextEntryID++
		e.ID = f.nextEntryID
		f.contributions[e.GoalID] = append(f.contributions[e.GoalID], e)
	}
	return nil
}

func (f *fakeGoalStore) DeleteGoal(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.goals[id]
	if !ok || g.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(f.goals, id)
	delete(f.contributions, id)
	return nil
}

func (f *fakeGoalStore) ListContributions(_ context.Context, goalID string) ([]core.Contribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := append([]core.Contribution(nil), f.contributions[goalID]...)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date.Equal(entries[j].Date) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].Date.After(entries[j].Date)
	})
	return entries, nil
}

// recordingPublisher captures published goal events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	GoalID      string
	OwnerID     string
	Kind        string
	AmountCents int64
}

func (p *recordingPublisher) PublishGoalEvent(_ context.Context, goalID, ownerID, kind string, amountCents int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{GoalID: goalID, OwnerID: ownerID, Kind: kind, AmountCents: amountCents})
	return nil
}

func (p *recordingPublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

func autoGoal(id string, current, target, autoAmount int64, freq core.Frequency, next time.Time) core.SavingsGoal {
	return core.SavingsGoal{
		ID:            id,
		OwnerID:       "owner-1",
		GoalName:      "Goal " + id,
		Category:      core.CategoryOther,
		TargetAmount:  core.Money{Cents: target},
		CurrentAmount: core.Money{Cents: current},
		Status:        core.StatusActive,
		AutoContribute: core.AutoContribute{
			Enabled:              true,
			Amount:               core.Money{Cents: autoAmount},
			Frequency:            freq,
			NextContributionDate: next,
		},
		Version:   1,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
