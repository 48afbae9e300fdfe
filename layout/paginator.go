/*
Package layout splits report rows into printable pages.

PURPOSE:
  The application form prints on A4. Rows have variable height (long reasons
  wrap) and the first and last pages carry extra chrome, so the number of rows
  per page cannot be fixed. The paginator renders candidate pages and asks a
  measurement engine how tall they are.

ALGORITHM (greedy measured bin-packing):
  1. For each row, tentatively append it to the current page
  2. Render the whole candidate page, chrome included, and measure it
  3. Too tall and the page already had a row: close the page without the
     row and start the next page with it. Otherwise keep the row (a single
     oversized row gets a page to itself, never an empty page)
  4. Close the final page
  5. Back-fill TotalPages and recompute IsLastPage

  Header (employee, location, remarks) prints on the first page only and the
  signature footer on the last page only, so every measurement re-renders the
  candidate page instead of summing per-row heights.

RESOURCES:
  Each Paginate call opens its own measurement Surface and closes it on every
  exit path. Surfaces are never shared between calls.

SECTIONS:
  Weekday and rest-day rows paginate independently, each numbered from 1.

SEE ALSO:
  - render.go: The page template
  - measure.go: The measurement engine
  - export/: Document writers consuming []Page
*/
package layout

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/warp/overtime-engine/attendance"
)

// =============================================================================
// PAGE MODEL
// =============================================================================

// Section is one independently numbered group of rows.
type Section string

const (
	SectionWeekday Section = "平日加班"
	SectionRestDay Section = "例假日加班"
)

// PageMeta is everything a renderer needs to know about a page's position.
type PageMeta struct {
	Section     Section
	PageNumber  int
	TotalPages  int
	IsFirstPage bool
	IsLastPage  bool
}

// Page is an ordered slice of rows plus its position in the section.
type Page struct {
	Section     Section
	PageNumber  int
	TotalPages  int
	Rows        []attendance.Report
	IsFirstPage bool
	IsLastPage  bool
}

func (p Page) Meta() PageMeta {
	return PageMeta{
		Section:     p.Section,
		PageNumber:  p.PageNumber,
		TotalPages:  p.TotalPages,
		IsFirstPage: p.IsFirstPage,
		IsLastPage:  p.IsLastPage,
	}
}

// RenderFunc renders a candidate page to markup.
type RenderFunc func(rows []attendance.Report, meta PageMeta) (string, error)

// =============================================================================
// MEASUREMENT CONTRACT
// =============================================================================

// Surface measures rendered markup in page-height units. A Surface belongs
// to exactly one Paginate call.
type Surface interface {
	Measure(markup string) (float64, error)
	Close() error
}

// Engine creates scratch surfaces.
type Engine interface {
	NewSurface() (Surface, error)
}

// ErrSurfaceClosed is returned when measuring on a disposed surface.
var ErrSurfaceClosed = errors.New("measurement surface closed")

// =============================================================================
// PAGINATOR
// =============================================================================

const (
	// DefaultMaxPageHeight is the A4 budget: 297mm minus 40mm of margins is
	// about 970px at 96dpi, less a safety allowance.
	DefaultMaxPageHeight = 950.0

	// provisionalTotalPages stands in for the unknown total while measuring.
	// It is wide enough that the final total never renders taller.
	provisionalTotalPages = 999
)

type Paginator struct {
	engine    Engine
	maxHeight float64
	Logger    *slog.Logger
}

// NewPaginator creates a paginator. A non-positive maxHeight selects
// DefaultMaxPageHeight.
func NewPaginator(engine Engine, maxHeight float64) *Paginator {
	if maxHeight <= 0 {
		maxHeight = DefaultMaxPageHeight
	}
	return &Paginator{engine: engine, maxHeight: maxHeight, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (p *Paginator) MaxHeight() float64 { return p.maxHeight }

// Paginate splits rows into pages no taller than the budget.
// An empty section yields no pages.
func (p *Paginator) Paginate(section Section, rows []attendance.Report, render RenderFunc) (pages []Page, err error) {
	if len(rows) == 0 {
		return nil, nil
	}

	surface, err := p.engine.NewSurface()
	if err != nil {
		return nil, fmt.Errorf("failed to open measurement surface: %w", err)
	}
	defer func() {
		if cerr := surface.Close(); cerr != nil && err == nil {
			pages, err = nil, fmt.Errorf("failed to close measurement surface: %w", cerr)
		}
	}()

	// Pass 1: provisional split
	var current []attendance.Report
	pageIndex := 0

	closePage := func() {
		pages = append(pages, Page{
			Section:     section,
			PageNumber:  pageIndex + 1,
			Rows:        current,
			IsFirstPage: pageIndex == 0,
		})
	}

	for i, row := range rows {
		candidate := append(current[:len(current):len(current)], row)
		meta := PageMeta{
			Section:     section,
			PageNumber:  pageIndex + 1,
			TotalPages:  provisionalTotalPages,
			IsFirstPage: pageIndex == 0,
			IsLastPage:  i == len(rows)-1,
		}

		markup, err := render(candidate, meta)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s page %d: %w", section, meta.PageNumber, err)
		}
		height, err := surface.Measure(markup)
		if err != nil {
			return nil, fmt.Errorf("failed to measure %s page %d: %w", section, meta.PageNumber, err)
		}

		if height > p.maxHeight && len(current) > 0 {
			p.Logger.Debug("page break",
				slog.String("section", string(section)),
				slog.Int("page", meta.PageNumber),
				slog.Int("rows", len(current)),
				slog.Float64("height", height))
			closePage()
			current = []attendance.Report{row}
			pageIndex++
			continue
		}
		current = candidate
	}
	if len(current) > 0 {
		closePage()
	}

	// Pass 2: back-fill totals
	total := len(pages)
	for i := range pages {
		pages[i].TotalPages = total
		pages[i].IsLastPage = pages[i].PageNumber == total
	}
	return pages, nil
}

// Sections holds the independently paginated weekday and rest-day pages.
type Sections struct {
	Weekday []Page
	RestDay []Page
}

// All returns weekday pages followed by rest-day pages.
func (s Sections) All() []Page {
	out := make([]Page, 0, len(s.Weekday)+len(s.RestDay))
	out = append(out, s.Weekday...)
	return append(out, s.RestDay...)
}

// PaginateSections paginates both sections with the same renderer.
func (p *Paginator) PaginateSections(weekday, restDay []attendance.Report, render RenderFunc) (Sections, error) {
	var s Sections
	var err error
	if s.Weekday, err = p.Paginate(SectionWeekday, weekday, render); err != nil {
		return Sections{}, err
	}
	if s.RestDay, err = p.Paginate(SectionRestDay, restDay, render); err != nil {
		return Sections{}, err
	}
	return s, nil
}
