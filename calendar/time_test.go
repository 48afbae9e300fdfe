package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/calendar"
)

// =============================================================================
// CLOCK TIME
// =============================================================================

func TestParseClockTime_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"08:56", 8*60 + 56},
		{"18:00", 18 * 60},
		{"23:59", 23*60 + 59},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := calendar.ParseClockTime(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Minutes())
		})
	}
}

func TestParseClockTime_Invalid(t *testing.T) {
	for _, in := range []string{"", "24:00", "12:60", "1200", "12:5", "ab:cd", "12:00:00", "-1:00", "9:05", " 19:30 ", "19:30\n"} {
		t.Run(in, func(t *testing.T) {
			_, ok := calendar.ParseClockTime(in)
			assert.False(t, ok, "%q should be invalid", in)
		})
	}
}

func TestClockTime_String(t *testing.T) {
	assert.Equal(t, "09:05", calendar.NewClockTime(9, 5).String())
	assert.Equal(t, "18:30", calendar.NewClockTime(18, 30).String())
}

// =============================================================================
// DATES
// =============================================================================

func TestParseAttendanceDate_ROC(t *testing.T) {
	// GIVEN: The ROC token for 2025-10-01
	// WHEN: Parsing it
	// THEN: The Gregorian date is a Wednesday

	d, ok := calendar.ParseAttendanceDate("1141001")
	require.True(t, ok)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.October, d.Month())
	assert.Equal(t, 1, d.Day())
	assert.Equal(t, time.Wednesday, d.Weekday())
	assert.False(t, d.IsWeekend())
}

func TestParseAttendanceDate_Generic(t *testing.T) {
	for _, in := range []string{"2025-10-04", "2025/10/04", "2025-10-4", "2025/10/4", "2025-10-04T09:00:00Z"} {
		t.Run(in, func(t *testing.T) {
			d, ok := calendar.ParseAttendanceDate(in)
			require.True(t, ok)
			assert.Equal(t, calendar.NewDate(2025, time.October, 4), d)
			assert.True(t, d.IsWeekend(), "2025-10-04 is a Saturday")
		})
	}
}

func TestParseAttendanceDate_NonexistentDay(t *testing.T) {
	// Feb 30 must not roll over into March.
	for _, in := range []string{"1140230", "1141301", "1141000", "1140100", "2025-02-30", "", "abc", "114100"} {
		t.Run(in, func(t *testing.T) {
			_, ok := calendar.ParseAttendanceDate(in)
			assert.False(t, ok)
		})
	}
}

func TestParseAttendanceDate_LeapDay(t *testing.T) {
	// 113 = 2024, a leap year
	_, ok := calendar.ParseAttendanceDate("1130229")
	assert.True(t, ok)

	_, ok = calendar.ParseAttendanceDate("1140229")
	assert.False(t, ok)
}

func TestDate_ROCYearMonth(t *testing.T) {
	d, ok := calendar.ParseAttendanceDate("1141001")
	require.True(t, ok)
	assert.Equal(t, 114, d.ROCYear())
	assert.Equal(t, "114年10月", d.ROCYearMonth())
	assert.Equal(t, "114年03月", calendar.ApplicationMonth("2025-03-15"))
	assert.Equal(t, "", calendar.ApplicationMonth("not a date"))
}

func TestFormatDisplayDate(t *testing.T) {
	assert.Equal(t, "2025/10/01 週三", calendar.FormatDisplayDate("1141001"))
	assert.Equal(t, "2025/10/05 週日", calendar.FormatDisplayDate("2025-10-05"))
	assert.Equal(t, "garbage", calendar.FormatDisplayDate("garbage"))
}
