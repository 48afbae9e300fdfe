package review

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/overtime"
)

// MinPreviewHours is the smallest overtime a row needs to be reviewed.
var MinPreviewHours = decimal.NewFromFloat(0.5)

// =============================================================================
// SERVICE
// =============================================================================

// Service mutates review batches. Mutations are read-modify-write against
// the store and are serialized per service.
type Service struct {
	store Store
	mu    sync.Mutex

	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

func NewService(store Store) *Service {
	return &Service{
		store:  store,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

// Import computes reports for parsed records and stores them as a new batch.
// Rows under MinPreviewHours are dropped. Leave rows start deselected.
func (s *Service) Import(ctx context.Context, sourceName string, records []attendance.Record) (*Batch, error) {
	reports := attendance.Filter(overtime.ComputeAll(records), func(r attendance.Report) bool {
		return r.OvertimeHours.GreaterThanOrEqual(MinPreviewHours)
	})

	b := &Batch{
		ID:         s.NewID(),
		SourceName: sourceName,
		CreatedAt:  s.Now().UTC(),
		Reports:    reports,
		Holidays:   make(map[string]bool),
		Selected:   make(map[attendance.Key]bool, len(reports)),
	}
	for _, r := range reports {
		b.Selected[r.Key()] = !r.IsLeaveDay()
	}

	if err := s.store.SaveBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}
	s.Logger.Info("batch imported",
		slog.String("batch", b.ID),
		slog.String("source", sourceName),
		slog.Int("records", len(records)),
		slog.Int("reports", len(reports)))
	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Batch, error) {
	return s.store.GetBatch(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.store.ListBatches(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteBatch(ctx, id)
}

// update loads a batch, applies fn and saves the result.
func (s *Service) update(ctx context.Context, id string, fn func(*Batch) error) (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.store.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	if err := s.store.SaveBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}
	return b, nil
}

// SetHoliday flags or unflags a date. Every row on that date is recomputed;
// edited reasons survive.
func (s *Service) SetHoliday(ctx context.Context, id, date string, isHoliday bool) (*Batch, error) {
	return s.update(ctx, id, func(b *Batch) error {
		found := false
		for i, r := range b.Reports {
			if r.Date != date {
				continue
			}
			found = true
			b.Reports[i] = overtime.Recompute(r, isHoliday)
			s.Logger.Debug("report recomputed",
				slog.String("batch", id),
				slog.String("key", r.Key().String()),
				slog.Bool("holiday", isHoliday),
				slog.String("hours", b.Reports[i].HoursText()))
		}
		if !found {
			return fmt.Errorf("%w: no report on %s", attendance.ErrReportNotFound, date)
		}
		if isHoliday {
			b.Holidays[date] = true
		} else {
			delete(b.Holidays, date)
		}
		return nil
	})
}

// SetReason sets the reason on every row with the given key. A raw export
// may repeat (employee, date); those rows share one reason as they share
// one selection flag.
func (s *Service) SetReason(ctx context.Context, id string, key attendance.Key, reason string) (*Batch, error) {
	return s.update(ctx, id, func(b *Batch) error {
		found := false
		for i := range b.Reports {
			if b.Reports[i].Key() == key {
				b.Reports[i].OvertimeReason = reason
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", attendance.ErrReportNotFound, key)
		}
		return nil
	})
}

func (s *Service) SetSelected(ctx context.Context, id string, key attendance.Key, selected bool) (*Batch, error) {
	return s.update(ctx, id, func(b *Batch) error {
		if b.Index(key) < 0 {
			return fmt.Errorf("%w: %s", attendance.ErrReportNotFound, key)
		}
		b.Selected[key] = selected
		return nil
	})
}

// SetFormFields stores the free-text fields printed in the form header.
func (s *Service) SetFormFields(ctx context.Context, id, workLocation, remarks string) (*Batch, error) {
	return s.update(ctx, id, func(b *Batch) error {
		b.WorkLocation = workLocation
		b.Remarks = remarks
		return nil
	})
}

// Selected returns the selected rows split into weekday and rest-day
// sections, each in original order.
func (s *Service) Selected(ctx context.Context, id string) (weekday, restDay []attendance.Report, err error) {
	b, err := s.store.GetBatch(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	weekday, restDay = overtime.SplitSections(b.SelectedReports())
	return weekday, restDay, nil
}

// =============================================================================
// EXPORT VALIDATION
// =============================================================================

// NeedsReason reports whether a row must carry a reason before export:
// overtime rows that are not leave days.
func NeedsReason(r attendance.Report) bool {
	return !r.IsLeaveDay() && r.OvertimeHours.GreaterThanOrEqual(MinPreviewHours)
}

// Validate checks a batch is ready for export. Missing reasons are reported
// by 1-based position among the selected rows.
func Validate(b *Batch) error {
	if strings.TrimSpace(b.WorkLocation) == "" {
		return attendance.ErrMissingWorkLocation
	}

	selected := b.SelectedReports()
	var missing []int
	for i, r := range selected {
		if NeedsReason(r) && strings.TrimSpace(r.OvertimeReason) == "" {
			missing = append(missing, i+1)
		}
	}
	if len(missing) > 0 {
		return &attendance.MissingReasonError{Positions: missing}
	}
	if len(selected) == 0 {
		return attendance.ErrNothingSelected
	}
	return nil
}

// Prepare validates a batch and returns it with its selected sections.
func (s *Service) Prepare(ctx context.Context, id string) (b *Batch, weekday, restDay []attendance.Report, err error) {
	b, err = s.store.GetBatch(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := Validate(b); err != nil {
		return nil, nil, nil, err
	}
	weekday, restDay = overtime.SplitSections(b.SelectedReports())
	return b, weekday, restDay, nil
}
