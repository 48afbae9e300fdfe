/*
Package review holds the state of one uploaded attendance file while a user
reviews it: which rows are selected, which dates are flagged as holidays and
what reasons were typed in.

PURPOSE:
  The pure pipeline (parser -> overtime -> layout) has no memory. A review
  Batch is the mutable envelope around it. Every mutation goes through the
  Service, which re-derives reports with overtime.Recompute so the computed
  fields never drift from the flags.

STATE MODEL:
  Reports   - Ordered, only rows with at least half an hour of overtime
  Holidays  - Keyed by date string; one flag covers every row of that date
  Selected  - Keyed by (employee, date); leave rows start deselected

STORES:
  - review.Memory: in-process, for the CLI and tests
  - store/sqlite: durable, for the HTTP server

SEE ALSO:
  - service.go: Operations on batches
  - overtime/report.go: Recompute
*/
package review

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/warp/overtime-engine/attendance"
)

// =============================================================================
// BATCH
// =============================================================================

type Batch struct {
	ID           string
	SourceName   string
	CreatedAt    time.Time
	Reports      []attendance.Report
	Holidays     map[string]bool
	Selected     map[attendance.Key]bool
	WorkLocation string
	Remarks      string
}

// Clone returns a deep copy. Stores hand out clones so callers never mutate
// stored state.
func (b *Batch) Clone() *Batch {
	c := *b
	c.Reports = slices.Clone(b.Reports)
	c.Holidays = maps.Clone(b.Holidays)
	c.Selected = maps.Clone(b.Selected)
	if c.Holidays == nil {
		c.Holidays = make(map[string]bool)
	}
	if c.Selected == nil {
		c.Selected = make(map[attendance.Key]bool)
	}
	return &c
}

// Index returns the position of the report with key k, or -1.
func (b *Batch) Index(k attendance.Key) int {
	return slices.IndexFunc(b.Reports, func(r attendance.Report) bool { return r.Key() == k })
}

// IsSelected reports whether the row with key k is selected.
func (b *Batch) IsSelected(k attendance.Key) bool { return b.Selected[k] }

// SelectedReports returns the selected rows in original order.
func (b *Batch) SelectedReports() []attendance.Report {
	return attendance.Filter(b.Reports, func(r attendance.Report) bool { return b.Selected[r.Key()] })
}

// Summary is the listing view of a batch.
type Summary struct {
	ID          string
	SourceName  string
	CreatedAt   time.Time
	ReportCount int
}

func (b *Batch) Summary() Summary {
	return Summary{ID: b.ID, SourceName: b.SourceName, CreatedAt: b.CreatedAt, ReportCount: len(b.Reports)}
}

// =============================================================================
// STORE - Persistence interface for batches
// =============================================================================

// Store persists review batches. GetBatch and DeleteBatch return
// attendance.ErrBatchNotFound for unknown IDs.
type Store interface {
	// SaveBatch inserts or replaces the batch with the same ID.
	SaveBatch(ctx context.Context, b *Batch) error

	GetBatch(ctx context.Context, id string) (*Batch, error)

	// ListBatches returns summaries, newest first.
	ListBatches(ctx context.Context) ([]Summary, error)

	DeleteBatch(ctx context.Context, id string) error
}
