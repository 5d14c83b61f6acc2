package memory

import (
	"context"
	"fmt"
	"sync"

	"tabungan/internal/sheets"
)

// Store is an in-memory ReportWriter used in tests and when the report
// worker runs without Google credentials.
type Store struct {
	mu   sync.Mutex
	rows []sheets.ReportRow
}

func New() *Store {
	return &Store{}
}

var _ sheets.ReportWriter = (*Store)(nil)

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row sheets.ReportRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.ReportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.ReportRow(nil), s.rows...)
}
