package sheets

import (
	"context"
	"time"
)

// ReportRow is one exported line of the savings report: a snapshot of a goal
// taken when a contribution event is processed.
type ReportRow struct {
	Date            time.Time
	OwnerID         string
	GoalName        string
	EventKind       string
	AmountCents     int64
	CurrentCents    int64
	TargetCents     int64
	ProgressPercent int
	Status          string
}

// ReportWriter is the outbound port for the savings report.
type ReportWriter interface {
	Append(ctx context.Context, row ReportRow) (rowRef string, err error)
}
