package review

import (
	"fmt"
	"strings"

	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/calendar"
)

// =============================================================================
// FILTER - Narrow the review table by name and date range
// =============================================================================

// Filter narrows a report list for display. The zero Filter matches
// everything. Bounds are inclusive.
type Filter struct {
	Name string
	From calendar.Date
	To   calendar.Date
}

// ParseFilter builds a Filter from raw text. Dates may be ROC tokens or any
// generic layout calendar.ParseAttendanceDate accepts; empty means unbounded.
func ParseFilter(name, from, to string) (Filter, error) {
	f := Filter{Name: strings.TrimSpace(name)}
	var err error
	if f.From, err = parseBound("from", from); err != nil {
		return Filter{}, err
	}
	if f.To, err = parseBound("to", to); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func parseBound(field, s string) (calendar.Date, error) {
	if strings.TrimSpace(s) == "" {
		return calendar.Date{}, nil
	}
	d, ok := calendar.ParseAttendanceDate(s)
	if !ok {
		return calendar.Date{}, fmt.Errorf("%w: %s %q is not a date", attendance.ErrInvalidFilter, field, s)
	}
	return d, nil
}

func (f Filter) IsZero() bool {
	return f.Name == "" && f.From.IsZero() && f.To.IsZero()
}

// Match reports whether r passes the filter. With a date bound set, a row
// whose date cannot be parsed never matches.
func (f Filter) Match(r attendance.Report) bool {
	if f.Name != "" && !strings.Contains(r.Name, f.Name) {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	d, ok := calendar.ParseAttendanceDate(r.Date)
	if !ok {
		return false
	}
	if !f.From.IsZero() && d.Time.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && d.Time.After(f.To.Time) {
		return false
	}
	return true
}

// Apply returns the matching reports in original order.
func (f Filter) Apply(reports []attendance.Report) []attendance.Report {
	if f.IsZero() {
		return reports
	}
	return attendance.Filter(reports, f.Match)
}
