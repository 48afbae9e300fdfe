/*
Package sqlite provides a SQLite-backed implementation of review.Store.

PURPOSE:
  Keeps review batches across server restarts. A batch is written as a whole
  on every save: the batch row is upserted and its reports and holiday flags
  are replaced inside one transaction.

KEY TABLES:
  batches:  One row per uploaded file, plus the free-text form fields
  reports:  Ordered report rows of a batch, including the selection flag
  holidays: Dates flagged as holidays within a batch

  reports and holidays cascade on batch deletion.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./overtime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := review.NewService(store)

SEE ALSO:
  - review/batch.go: Store interface
  - review/memory.go: In-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/review"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements review.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ review.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		source_name TEXT NOT NULL,
		work_location TEXT NOT NULL DEFAULT '',
		remarks TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batches_created_at
		ON batches(created_at DESC);

	-- Rows are addressed by (employee_id, date), which may repeat in a raw
	-- export; edits apply to every repeat. position only keeps batch order
	-- and makes the primary key unique
	CREATE TABLE IF NOT EXISTS reports (
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		employee_id TEXT NOT NULL,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		attendance_type TEXT NOT NULL DEFAULT '',
		leave_quantity TEXT NOT NULL DEFAULT '0',
		clock_in TEXT NOT NULL DEFAULT '',
		clock_out TEXT NOT NULL DEFAULT '',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		meal_allowance INTEGER NOT NULL DEFAULT 0,
		overtime_range TEXT NOT NULL DEFAULT '',
		overtime_reason TEXT NOT NULL DEFAULT '',
		is_holiday INTEGER NOT NULL DEFAULT 0,
		selected INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (batch_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_reports_batch_key
		ON reports(batch_id, employee_id, date);

	CREATE TABLE IF NOT EXISTS holidays (
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		PRIMARY KEY (batch_id, date)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BATCH STORE (review.Store interface)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveBatch inserts or replaces a batch atomically.
func (s *Store) SaveBatch(ctx context.Context, b *review.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(timeLayout)
	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO batches (id, source_name, work_location, remarks, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_name = excluded.source_name,
			work_location = excluded.work_location,
			remarks = excluded.remarks,
			updated_at = excluded.updated_at
	`, b.ID, b.SourceName, b.WorkLocation, b.Remarks, b.CreatedAt.UTC().Format(timeLayout), now)
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}

	if err := replaceReports(ctx, sqlTx, b); err != nil {
		return err
	}
	if err := replaceHolidays(ctx, sqlTx, b); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func replaceReports(ctx context.Context, db execer, b *review.Batch) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM reports WHERE batch_id = ?", b.ID); err != nil {
		return fmt.Errorf("failed to clear reports: %w", err)
	}

	query := `
		INSERT INTO reports
		(batch_id, position, employee_id, name, date, attendance_type, leave_quantity,
		 clock_in, clock_out, overtime_hours, meal_allowance, overtime_range,
		 overtime_reason, is_holiday, selected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, r := range b.Reports {
		_, err := db.ExecContext(ctx, query,
			b.ID, i,
			r.EmployeeID, r.Name, r.Date,
			string(r.AttendanceType), r.LeaveQuantity,
			r.ClockIn, r.ClockOut,
			r.OvertimeHours, r.MealAllowance, r.OvertimeRange,
			r.OvertimeReason, r.IsHoliday, b.Selected[r.Key()],
		)
		if err != nil {
			return fmt.Errorf("failed to save report %s: %w", r.Key(), err)
		}
	}
	return nil
}

func replaceHolidays(ctx context.Context, db execer, b *review.Batch) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM holidays WHERE batch_id = ?", b.ID); err != nil {
		return fmt.Errorf("failed to clear holidays: %w", err)
	}
	for date, flagged := range b.Holidays {
		if !flagged {
			continue
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO holidays (batch_id, date) VALUES (?, ?)", b.ID, date); err != nil {
			return fmt.Errorf("failed to save holiday %s: %w", date, err)
		}
	}
	return nil
}

// GetBatch loads a batch with its reports and holidays.
func (s *Store) GetBatch(ctx context.Context, id string) (*review.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := &review.Batch{
		Holidays: make(map[string]bool),
		Selected: make(map[attendance.Key]bool),
	}
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, source_name, work_location, remarks, created_at FROM batches WHERE id = ?",
		id,
	).Scan(&b.ID, &b.SourceName, &b.WorkLocation, &b.Remarks, &createdAt)
	if err == sql.ErrNoRows {
		return nil, attendance.ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	b.CreatedAt, _ = time.Parse(timeLayout, createdAt)

	if err := s.loadReports(ctx, b); err != nil {
		return nil, err
	}
	if err := s.loadHolidays(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) loadReports(ctx context.Context, b *review.Batch) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, name, date, attendance_type, leave_quantity, clock_in, clock_out,
		       overtime_hours, meal_allowance, overtime_range, overtime_reason, is_holiday, selected
		FROM reports WHERE batch_id = ? ORDER BY position
	`, b.ID)
	if err != nil {
		return fmt.Errorf("failed to load reports: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, selected, err := scanReport(rows)
		if err != nil {
			return err
		}
		b.Reports = append(b.Reports, r)
		b.Selected[r.Key()] = selected
	}
	return rows.Err()
}

func scanReport(rows *sql.Rows) (attendance.Report, bool, error) {
	var r attendance.Report
	var kind string
	var qty, hours decimal.Decimal
	var selected bool

	err := rows.Scan(
		&r.EmployeeID, &r.Name, &r.Date, &kind, &qty, &r.ClockIn, &r.ClockOut,
		&hours, &r.MealAllowance, &r.OvertimeRange, &r.OvertimeReason, &r.IsHoliday, &selected,
	)
	if err != nil {
		return attendance.Report{}, false, fmt.Errorf("failed to scan report: %w", err)
	}
	r.AttendanceType = attendance.AttendanceType(kind)
	r.LeaveQuantity = qty
	r.OvertimeHours = hours
	return r, selected, nil
}

func (s *Store) loadHolidays(ctx context.Context, b *review.Batch) error {
	rows, err := s.db.QueryContext(ctx, "SELECT date FROM holidays WHERE batch_id = ?", b.ID)
	if err != nil {
		return fmt.Errorf("failed to load holidays: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return err
		}
		b.Holidays[date] = true
	}
	return rows.Err()
}

// ListBatches returns batch summaries, newest first.
func (s *Store) ListBatches(ctx context.Context) ([]review.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.source_name, b.created_at, COUNT(r.position)
		FROM batches b
		LEFT JOIN reports r ON r.batch_id = b.id
		GROUP BY b.id
		ORDER BY b.created_at DESC, b.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []review.Summary
	for rows.Next() {
		var sum review.Summary
		var createdAt string
		if err := rows.Scan(&sum.ID, &sum.SourceName, &createdAt, &sum.ReportCount); err != nil {
			return nil, err
		}
		sum.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		result = append(result, sum)
	}
	return result, rows.Err()
}

// DeleteBatch removes a batch and, by cascade, its rows.
func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM batches WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return attendance.ErrBatchNotFound
	}
	return nil
}

// Reset removes all data (for testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"holidays", "reports", "batches"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}
