/*
rules.go - Overtime and meal-allowance rules

PURPOSE:
  Computes payable overtime hours and the meal stipend for one attendance
  day. All functions are pure: the only inputs are the record and an
  externally supplied holiday flag.

DAY CLASSIFICATION:
  RestDay:      Saturday, Sunday, or flagged as holiday
  Weekday:      Monday-Friday, not flagged
  Unclassified: date cannot be parsed (zero overtime, zero allowance)

ALIGNMENT (punches round toward the employer):
  AlignStartUp:   08:56 -> 09:00, 09:00 -> 09:00   (rest-day starts only)
  AlignEndDown:   19:45 -> 19:30, 17:04 -> 17:00
  RoundHoursDown: < 0.5 -> 0, otherwise floor to a 0.5 multiple

WEEKDAY:
  Window opens at 18:00. hours = RoundHoursDown((AlignEndDown(out) - 18:00) / 60)
  Meal stipend of 50 when the raw clock-out is 19:30 or later.

REST DAY:
  hours = RoundHoursDown((AlignEndDown(out) - AlignStartUp(in)) / 60)
  No meal stipend.

DISPLAY RANGE:
  Built from the raw punches, not the aligned ones:
    Weekday "18:00 - 19:45", RestDay "08:56 - 17:10". Empty when hours are 0.

SEE ALSO:
  - report.go: Record -> Report, recompute on holiday toggle
  - calendar/time.go: Parsing
*/
package overtime

import (
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/calendar"
)

// =============================================================================
// CONSTANTS
// =============================================================================

var (
	// WeekdayThreshold is when weekday overtime starts.
	WeekdayThreshold = calendar.NewClockTime(18, 0)

	// MealCutoff is the earliest weekday clock-out that earns the stipend.
	MealCutoff = calendar.NewClockTime(19, 30)

	halfHour = decimal.NewFromFloat(0.5)
	two      = decimal.NewFromInt(2)
	sixty    = decimal.NewFromInt(60)
)

// =============================================================================
// DAY CLASSIFICATION
// =============================================================================

type DayClass int

const (
	Unclassified DayClass = iota
	Weekday
	RestDay
)

func (c DayClass) String() string {
	switch c {
	case Weekday:
		return "weekday"
	case RestDay:
		return "rest_day"
	default:
		return "unclassified"
	}
}

// Classify derives the regime for a raw date. A holiday flag cannot rescue
// an unparseable date.
func Classify(date string, isHoliday bool) DayClass {
	d, ok := calendar.ParseAttendanceDate(date)
	if !ok {
		return Unclassified
	}
	if d.IsWeekend() || isHoliday {
		return RestDay
	}
	return Weekday
}

// =============================================================================
// ALIGNMENT PRIMITIVES
// =============================================================================

// AlignStartUp rounds a start time up to the next full hour.
func AlignStartUp(t calendar.ClockTime) calendar.ClockTime {
	rem := t.Minutes() % calendar.MinutesPerHour
	if rem == 0 {
		return t
	}
	return t + calendar.ClockTime(calendar.MinutesPerHour-rem)
}

// AlignEndDown rounds an end time down to :00 or :30.
func AlignEndDown(t calendar.ClockTime) calendar.ClockTime {
	return t - calendar.ClockTime(t.Minutes()%30)
}

// RoundHoursDown discards durations under half an hour and floors the rest
// to a multiple of 0.5.
func RoundHoursDown(h decimal.Decimal) decimal.Decimal {
	if h.LessThan(halfHour) {
		return decimal.Zero
	}
	return h.Mul(two).Floor().Div(two)
}

func minutesToHours(m int) decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Div(sixty)
}

// =============================================================================
// COMPUTATION
// =============================================================================

// Hours computes payable overtime for one record.
func Hours(r attendance.Record, isHoliday bool) decimal.Decimal {
	in, okIn := calendar.ParseClockTime(r.ClockIn)
	out, okOut := calendar.ParseClockTime(r.ClockOut)
	if !okIn || !okOut || in >= out {
		return decimal.Zero
	}

	switch Classify(r.Date, isHoliday) {
	case RestDay:
		start, end := AlignStartUp(in), AlignEndDown(out)
		if start >= end {
			return decimal.Zero
		}
		return RoundHoursDown(minutesToHours(end.Minutes() - start.Minutes()))

	case Weekday:
		end := AlignEndDown(out)
		if end <= WeekdayThreshold {
			return decimal.Zero
		}
		return RoundHoursDown(minutesToHours(end.Minutes() - WeekdayThreshold.Minutes()))
	}
	return decimal.Zero
}

// MealAllowance returns the stipend for weekday clock-outs at or after 19:30.
// Only the raw clock-out is consulted.
func MealAllowance(r attendance.Record, isHoliday bool) int {
	out, ok := calendar.ParseClockTime(r.ClockOut)
	if !ok || Classify(r.Date, isHoliday) != Weekday {
		return 0
	}
	if out >= MealCutoff {
		return attendance.MealStipend
	}
	return 0
}

// Range builds the display window from the raw punch strings.
func Range(r attendance.Record, class DayClass, hours decimal.Decimal) string {
	if !hours.IsPositive() {
		return ""
	}
	switch class {
	case Weekday:
		return WeekdayThreshold.String() + " - " + r.ClockOut
	case RestDay:
		return r.ClockIn + " - " + r.ClockOut
	}
	return ""
}
