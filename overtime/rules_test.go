package overtime_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/calendar"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func record(date, in, out string) attendance.Record {
	return attendance.Record{
		EmployeeID: "100057",
		Name:       "王小明",
		Date:       date,
		ClockIn:    in,
		ClockOut:   out,
	}
}

func assertHours(t *testing.T, want float64, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.NewFromFloat(want).Equal(got), "hours: want %v, got %s", want, got)
}

func clock(s string) calendar.ClockTime {
	c, ok := calendar.ParseClockTime(s)
	if !ok {
		panic("bad clock " + s)
	}
	return c
}

// =============================================================================
// ALIGNMENT PRIMITIVES
// =============================================================================

func TestAlignStartUp(t *testing.T) {
	assert.Equal(t, clock("09:00"), overtime.AlignStartUp(clock("08:56")))
	assert.Equal(t, clock("09:00"), overtime.AlignStartUp(clock("09:00")))
	assert.Equal(t, clock("10:00"), overtime.AlignStartUp(clock("09:01")))
}

func TestAlignEndDown(t *testing.T) {
	assert.Equal(t, clock("17:00"), overtime.AlignEndDown(clock("17:04")))
	assert.Equal(t, clock("19:30"), overtime.AlignEndDown(clock("19:45")))
	assert.Equal(t, clock("19:30"), overtime.AlignEndDown(clock("19:30")))
	assert.Equal(t, clock("18:00"), overtime.AlignEndDown(clock("18:29")))
}

func TestRoundHoursDown_DiscardBranch(t *testing.T) {
	// Anything under half an hour is discarded outright.
	assertHours(t, 0, overtime.RoundHoursDown(decimal.Zero))
	assertHours(t, 0, overtime.RoundHoursDown(decimal.NewFromFloat(0.25)))
	assertHours(t, 0, overtime.RoundHoursDown(decimal.NewFromFloat(0.4999)))
}

func TestRoundHoursDown_FloorBranch(t *testing.T) {
	assertHours(t, 0.5, overtime.RoundHoursDown(decimal.NewFromFloat(0.5)))
	assertHours(t, 0.5, overtime.RoundHoursDown(decimal.NewFromFloat(0.75)))
	assertHours(t, 1.0, overtime.RoundHoursDown(decimal.NewFromFloat(1.25)))
	assertHours(t, 1.5, overtime.RoundHoursDown(decimal.NewFromFloat(1.75)))
	assertHours(t, 8.0, overtime.RoundHoursDown(decimal.NewFromInt(8)))
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestClassify(t *testing.T) {
	assert.Equal(t, overtime.Weekday, overtime.Classify("1141001", false))
	assert.Equal(t, overtime.RestDay, overtime.Classify("1141001", true))
	assert.Equal(t, overtime.RestDay, overtime.Classify("1141004", false))
	assert.Equal(t, overtime.RestDay, overtime.Classify("2025-10-05", false))
	assert.Equal(t, overtime.Unclassified, overtime.Classify("1140230", false))
	assert.Equal(t, overtime.Unclassified, overtime.Classify("1140230", true))
}

// =============================================================================
// WEEKDAY OVERTIME
// =============================================================================

func TestHours_Weekday(t *testing.T) {
	tests := []struct {
		name string
		date string
		out  string
		want float64
	}{
		{"leaves before threshold", "2025-10-09", "17:00", 0},
		{"exactly at threshold", "2025-10-09", "18:00", 0},
		{"25 minutes discarded", "2025-10-06", "18:25", 0},
		{"29 minutes discarded", "2025-10-07", "18:29", 0},
		{"30 minutes counts", "2025-10-07", "18:30", 0.5},
		{"45 minutes floors", "2025-10-06", "18:45", 0.5},
		{"1h", "2025-10-06", "19:00", 1.0},
		{"1h15m floors", "2025-10-07", "19:15", 1.0},
		{"1h30m", "2025-10-07", "19:30", 1.5},
		{"1h45m floors", "2025-10-08", "19:45", 1.5},
		{"2h", "2025-10-08", "20:00", 2.0},
		{"ROC date", "1141001", "21:10", 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertHours(t, tt.want, overtime.Hours(record(tt.date, "09:00", tt.out), false))
		})
	}
}

func TestHours_InvalidPunches(t *testing.T) {
	// GIVEN: Records whose punches cannot produce a window
	// THEN: Overtime is zero, never an error

	assertHours(t, 0, overtime.Hours(record("2025-10-10", "18:00", "09:00"), false))
	assertHours(t, 0, overtime.Hours(record("2025-10-10", "19:00", "19:00"), false))
	assertHours(t, 0, overtime.Hours(record("2025-10-13", "09:00", ""), false))
	assertHours(t, 0, overtime.Hours(record("2025-10-13", "", "20:00"), false))
	assertHours(t, 0, overtime.Hours(record("2025-10-13", "09:00", "25:00"), false))
	assertHours(t, 0, overtime.Hours(record("not-a-date", "09:00", "21:00"), false))
	assertHours(t, 0, overtime.Hours(record("not-a-date", "09:00", "21:00"), true))
}

// =============================================================================
// REST DAY OVERTIME
// =============================================================================

func TestHours_RestDay(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		in, out string
		want    float64
	}{
		{"saturday full day", "2025-10-04", "09:00", "17:00", 8.0},
		{"sunday full day", "2025-10-05", "10:00", "18:00", 8.0},
		{"aligned to zero", "2025-10-04", "08:56", "09:20", 0},
		{"aligned to 30 minutes", "2025-10-04", "08:56", "09:45", 0.5},
		{"start after end once aligned", "1141004", "09:10", "09:50", 0},
		{"ROC saturday", "1141004", "08:50", "12:40", 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertHours(t, tt.want, overtime.Hours(record(tt.date, tt.in, tt.out), false))
		})
	}
}

func TestHours_HolidayFlagUsesRestDayRules(t *testing.T) {
	// Wednesday 08:56-17:10 flagged as holiday: 09:00-17:00 = 8h
	r := record("1141001", "08:56", "17:10")
	assertHours(t, 0, overtime.Hours(r, false))
	assertHours(t, 8.0, overtime.Hours(r, true))
}

// =============================================================================
// MEAL ALLOWANCE
// =============================================================================

func TestMealAllowance(t *testing.T) {
	assert.Equal(t, 0, overtime.MealAllowance(record("2025-10-06", "09:00", "19:00"), false))
	assert.Equal(t, 0, overtime.MealAllowance(record("2025-10-06", "09:00", "19:29"), false))
	assert.Equal(t, 50, overtime.MealAllowance(record("2025-10-07", "09:00", "19:30"), false))
	assert.Equal(t, 50, overtime.MealAllowance(record("2025-10-08", "09:00", "20:00"), false))

	// Rest days never earn the stipend
	assert.Equal(t, 0, overtime.MealAllowance(record("2025-10-04", "09:00", "21:00"), false))
	assert.Equal(t, 0, overtime.MealAllowance(record("2025-10-08", "09:00", "21:00"), true))

	// Invalid clock-out or date
	assert.Equal(t, 0, overtime.MealAllowance(record("2025-10-08", "09:00", ""), false))
	assert.Equal(t, 0, overtime.MealAllowance(record("garbage", "09:00", "21:00"), false))
}

// =============================================================================
// DISPLAY RANGE
// =============================================================================

func TestRange_UsesRawPunches(t *testing.T) {
	weekday := record("2025-10-08", "08:47", "19:45")
	assert.Equal(t, "18:00 - 19:45", overtime.Range(weekday, overtime.Weekday, decimal.NewFromFloat(1.5)))

	rest := record("2025-10-04", "08:56", "17:10")
	assert.Equal(t, "08:56 - 17:10", overtime.Range(rest, overtime.RestDay, decimal.NewFromInt(8)))

	assert.Equal(t, "", overtime.Range(rest, overtime.RestDay, decimal.Zero))
	assert.Equal(t, "", overtime.Range(rest, overtime.Unclassified, decimal.NewFromInt(1)))
}

func TestHours_MalformedPunchIsZero(t *testing.T) {
	// GIVEN: A rest-day record whose clock-in lacks the leading zero
	rest := record("2025-10-04", "8:56", "17:10")

	// WHEN
	hours := overtime.Hours(rest, false)

	// THEN: The punch is invalid, so nothing is payable and no range leaks out
	assertHours(t, 0, hours)
	assert.Equal(t, "", overtime.Range(rest, overtime.RestDay, hours))
}
