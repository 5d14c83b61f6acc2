package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tabungan/internal/amqp"
	"tabungan/internal/core"
	"tabungan/internal/sheets"
)

// GoalReader is the slice of the goal store the report worker needs.
type GoalReader interface {
	GetGoalByID(ctx context.Context, id string) (*core.SavingsGoal, error)
}

// ReportWorker exports savings activity to the report sheet. Each goal event
// consumed from the queue triggers a fresh read of the goal so the exported
// row reflects current state, not the state at publish time.
type ReportWorker struct {
	store  GoalReader
	writer sheets.ReportWriter
}

func NewReportWorker(store GoalReader, writer sheets.ReportWriter) *ReportWorker {
	return &ReportWorker{
		store:  store,
		writer: writer,
	}
}

// HandleGoalEvent processes a single goal event message. A goal deleted
// between publish and consume is logged and dropped, not requeued.
func (w *ReportWorker) HandleGoalEvent(ctx context.Context, msg *amqp.GoalEventMessage) error {
	slog.InfoContext(ctx, "Processing goal event",
		"goal_id", msg.GoalID,
		"kind", msg.Kind,
		"amount_cents", msg.AmountCents)

	goal, err := w.store.GetGoalByID(ctx, msg.GoalID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Goal no longer exists, dropping event",
			"goal_id", msg.GoalID, "kind", msg.Kind)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get goal from storage: %w", err)
	}

	row := sheets.ReportRow{
		Date:            msg.Timestamp,
		OwnerID:         goal.OwnerID,
		GoalName:        goal.GoalName,
		EventKind:       msg.Kind,
		AmountCents:     msg.AmountCents,
		CurrentCents:    goal.CurrentAmount.Cents,
		TargetCents:     goal.TargetAmount.Cents,
		ProgressPercent: goal.Progress(),
		Status:          string(goal.Status),
	}

	ref, err := w.writer.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append report row: %w", err)
	}

	slog.InfoContext(ctx, "Report row exported",
		"goal_id", msg.GoalID,
		"kind", msg.Kind,
		"sheets_ref", ref)

	return nil
}
