/*
Package calendar provides the date and clock primitives of the overtime engine.

PURPOSE:
  Attendance exports mix two date spellings and free-form punch times. This
  package turns them into comparable values so the rules in package overtime
  never touch raw strings.

KEY CONCEPTS:
  - ClockTime: minutes since midnight, parsed from "HH:mm"
  - Date: a calendar day, parsed from a 7-digit ROC token (1141001) or a
    generic date string (2025-10-01)
  - ROC calendar: Gregorian year = ROC year + 1911

FAILURE POLICY:
  Parsing never returns an error. An unparseable value yields ok == false and
  callers treat it as "cannot compute" (zero overtime), so one bad row never
  aborts a batch.

SEE ALSO:
  - overtime/rules.go: Day classification and alignment
  - parser/text.go: Produces the raw date and punch strings
*/
package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CLOCK TIME - Time of day at minute granularity
// =============================================================================

// ClockTime is a time of day expressed as minutes since midnight.
type ClockTime int

const (
	MinutesPerHour = 60
	minutesPerDay  = 24 * MinutesPerHour
)

var clockPattern = regexp.MustCompile(`^(\d{2}):(\d{2})$`)

func NewClockTime(hour, minute int) ClockTime { return ClockTime(hour*MinutesPerHour + minute) }

// ParseClockTime parses exactly "HH:mm". Hours must be 0-23 and minutes
// 0-59; any other shape, surrounding whitespace included, is invalid.
func ParseClockTime(s string) (ClockTime, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, false
	}
	return NewClockTime(hour, minute), true
}

func (c ClockTime) Hour() int      { return int(c) / MinutesPerHour }
func (c ClockTime) Minute() int    { return int(c) % MinutesPerHour }
func (c ClockTime) Minutes() int   { return int(c) }
func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

// =============================================================================
// DATE - Calendar day with ROC support
// =============================================================================

// Date is a calendar day at midnight UTC.
type Date struct {
	Time time.Time
}

// ROCYearOffset converts a Republic of China year to a Gregorian year.
const ROCYearOffset = 1911

var rocPattern = regexp.MustCompile(`^\d{7}$`)

// genericLayouts are tried in order for anything that is not a ROC token.
var genericLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
	"2006/1/2",
	time.RFC3339,
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseAttendanceDate parses a 7-digit ROC token (YYYMMDD) or a generic date.
// A date that does not exist on the calendar is invalid.
func ParseAttendanceDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}

	if rocPattern.MatchString(s) {
		rocYear, _ := strconv.Atoi(s[0:3])
		month, _ := strconv.Atoi(s[3:5])
		day, _ := strconv.Atoi(s[5:7])
		return exactDate(rocYear+ROCYearOffset, month, day)
	}

	for _, layout := range genericLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), true
		}
	}
	return Date{}, false
}

// exactDate rejects values time.Date would silently normalize (Feb 30 -> Mar 2).
func exactDate(year, month, day int) (Date, bool) {
	if month < 1 || month > 12 || day < 1 {
		return Date{}, false
	}
	d := NewDate(year, time.Month(month), day)
	if d.Time.Month() != time.Month(month) || d.Time.Day() != day {
		return Date{}, false
	}
	return d, true
}

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsWeekend() bool       { wd := d.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) ROCYear() int          { return d.Year() - ROCYearOffset }
func (d Date) String() string        { return d.Time.Format("2006-01-02") }

// ROCYearMonth renders the form's application month, e.g. "114年10月".
func (d Date) ROCYearMonth() string {
	return fmt.Sprintf("%d年%02d月", d.ROCYear(), int(d.Month()))
}

// =============================================================================
// DISPLAY
// =============================================================================

var weekdayNames = [...]string{"日", "一", "二", "三", "四", "五", "六"}

// WeekdayName returns the single-character Chinese weekday name.
func WeekdayName(wd time.Weekday) string { return weekdayNames[wd] }

// FormatDisplayDate renders an attendance date as "2025/10/01 週三".
// Unparseable input is returned unchanged.
func FormatDisplayDate(s string) string {
	d, ok := ParseAttendanceDate(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%s 週%s", d.Time.Format("2006/01/02"), WeekdayName(d.Weekday()))
}

// ApplicationMonth returns the ROC year-month label for a raw attendance date,
// or "" when the date cannot be parsed.
func ApplicationMonth(s string) string {
	d, ok := ParseAttendanceDate(s)
	if !ok {
		return ""
	}
	return d.ROCYearMonth()
}
