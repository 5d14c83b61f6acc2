package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tabungan/internal/core"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteRepository is the durable store for goals, their contribution
// ledgers, and income/expense transactions. Goal updates are optimistic:
// the UPDATE is guarded by the version read earlier, and the ledger rows
// belonging to the update are inserted in the same SQL transaction, so the
// amount delta, status flip, and ledger append land together or not at all.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// runMigrations brings the schema up to date through golang-migrate's iofs
// source over the embedded SQL files. It opens its own short-lived
// connection so the repository's pool never sees a half-migrated schema.
func runMigrations(dbPath string) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const goalColumns = `id, owner_id, goal_name, description, icon, category,
	target_amount_cents, current_amount_cents, status, target_date,
	auto_enabled, auto_amount_cents, auto_frequency,
	last_contribution_at, next_contribution_at,
	version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*core.SavingsGoal, error) {
	var (
		g          core.SavingsGoal
		targetDate sql.NullTime
		lastAt     sql.NullTime
		nextAt     sql.NullTime
	)

	err := row.Scan(
		&g.ID, &g.OwnerID, &g.GoalName, &g.Description, &g.Icon, &g.Category,
		&g.TargetAmount.Cents, &g.CurrentAmount.Cents, &g.Status, &targetDate,
		&g.AutoContribute.Enabled, &g.AutoContribute.Amount.Cents, &g.AutoContribute.Frequency,
		&lastAt, &nextAt,
		&g.Version, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("scan goal: %w", err)
	}

	if targetDate.Valid {
		g.TargetDate = targetDate.Time
	}
	if lastAt.Valid {
		g.AutoContribute.LastContributionDate = lastAt.Time
	}
	if nextAt.Valid {
		g.AutoContribute.NextContributionDate = nextAt.Time
	}

	return &g, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g *core.SavingsGoal) error {
	query := `INSERT INTO goals (` + goalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		g.ID, g.OwnerID, g.GoalName, g.Description, g.Icon, g.Category,
		g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Status, nullableTime(g.TargetDate),
		g.AutoContribute.Enabled, g.AutoContribute.Amount.Cents, g.AutoContribute.Frequency,
		nullableTime(g.AutoContribute.LastContributionDate), nullableTime(g.AutoContribute.NextContributionDate),
		g.Version, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal scoped to its owner. A goal that exists but
// belongs to someone else is reported as not found.
func (r *SQLiteRepository) GetGoal(ctx context.Context, ownerID, id string) (*core.SavingsGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = ? AND owner_id = ?`
	return scanGoal(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// GetGoalByID retrieves a goal without owner scoping. Used by the engine
// and the report worker, which act across all owners.
func (r *SQLiteRepository) GetGoalByID(ctx context.Context, id string) (*core.SavingsGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = ?`
	return scanGoal(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID string) ([]core.SavingsGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE owner_id = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// ListAutoContributeCandidates returns the ids of goals with auto-contribute
// enabled that are not yet completed. The engine re-reads each goal before
// deciding dueness, so only ids are returned here.
func (r *SQLiteRepository) ListAutoContributeCandidates(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM goals WHERE auto_enabled = 1 AND status != ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, core.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list auto-contribute candidates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateGoal persists a modified goal together with any new ledger entries.
// The write succeeds only if the stored version still matches the version
// the goal was read at; a concurrent writer winning the race surfaces as
// core.ErrVersionConflict and the caller retries against fresh state.
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g *core.SavingsGoal, entries ...core.Contribution) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin goal update: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE goals SET
			goal_name = ?, description = ?, icon = ?, category = ?,
			target_amount_cents = ?, current_amount_cents = ?, status = ?, target_date = ?,
			auto_enabled = ?, auto_amount_cents = ?, auto_frequency = ?,
			last_contribution_at = ?, next_contribution_at = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	res, err := tx.ExecContext(ctx, query,
		g.GoalName, g.Description, g.Icon, g.Category,
		g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Status, nullableTime(g.TargetDate),
		g.AutoContribute.Enabled, g.AutoContribute.Amount.Cents, g.AutoContribute.Frequency,
		nullableTime(g.AutoContribute.LastContributionDate), nullableTime(g.AutoContribute.NextContributionDate),
		g.UpdatedAt,
		g.ID, g.Version,
	)
	if err != nil {
		return fmt.Errorf("update goal %s: %w", g.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal %s rows affected: %w", g.ID, err)
	}
	if affected == 0 {
		return core.ErrVersionConflict
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO contributions (goal_id, amount_cents, type, note, created_at) VALUES (?, ?, ?, ?, ?)`,
			e.GoalID, e.Amount.Cents, e.Type, e.Note, e.Date,
		)
		if err != nil {
			return fmt.Errorf("append contribution for goal %s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit goal update: %w", err)
	}

	g.Version++
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal %s rows affected: %w", id, err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListContributions returns a goal's ledger, newest first.
func (r *SQLiteRepository) ListContributions(ctx context.Context, goalID string) ([]core.Contribution, error) {
	query := `SELECT id, goal_id, amount_cents, type, note, created_at
		FROM contributions WHERE goal_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var entries []core.Contribution
	for rows.Next() {
		var c core.Contribution
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Amount.Cents, &c.Type, &c.Note, &c.Date); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		entries = append(entries, c)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	query := `INSERT INTO transactions (id, owner_id, kind, icon, source, amount_cents, tx_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OwnerID, t.Kind, t.Icon, t.Source, t.Amount.Cents, t.Date, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// ListTransactions returns an owner's transactions of one kind, newest first.
// A zero since lists everything; a non-zero since filters to tx_date >= since.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string, kind core.TransactionKind, since time.Time) ([]core.Transaction, error) {
	query := `SELECT id, owner_id, kind, icon, source, amount_cents, tx_date, created_at
		FROM transactions WHERE owner_id = ? AND kind = ?`
	args := []any{ownerID, kind}
	if !since.IsZero() {
		query += ` AND tx_date >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY tx_date DESC`

	return r.queryTransactions(ctx, query, args...)
}

// ListRecentTransactions returns an owner's latest transactions across both
// kinds, newest first.
func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	query := `SELECT id, owner_id, kind, icon, source, amount_cents, tx_date, created_at
		FROM transactions WHERE owner_id = ? ORDER BY tx_date DESC LIMIT ?`
	return r.queryTransactions(ctx, query, ownerID, limit)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []core.Transaction
	for rows.Next() {
		var t core.Transaction
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Kind, &t.Icon, &t.Source, &t.Amount.Cents, &t.Date, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// SumTransactions totals an owner's transactions of one kind. A zero since
// sums everything.
func (r *SQLiteRepository) SumTransactions(ctx context.Context, ownerID string, kind core.TransactionKind, since time.Time) (core.Money, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE owner_id = ? AND kind = ?`
	args := []any{ownerID, kind}
	if !since.IsZero() {
		query += ` AND tx_date >= ?`
		args = append(args, since)
	}

	var cents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %s rows affected: %w", id, err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}
