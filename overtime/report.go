package overtime

import (
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/calendar"
)

// =============================================================================
// RECORD -> REPORT
// =============================================================================

// Compute builds the report for a record with the holiday flag off.
// Leave days get their reason pre-filled ("請事假").
func Compute(r attendance.Record) attendance.Report {
	report := attendance.Report{
		Record:         r,
		OvertimeReason: r.AttendanceType.ReasonSeed(),
	}
	return derive(report, false)
}

// ComputeAll maps Compute over records, preserving order.
func ComputeAll(records []attendance.Record) []attendance.Report {
	reports := make([]attendance.Report, len(records))
	for i, r := range records {
		reports[i] = Compute(r)
	}
	return reports
}

// Recompute re-derives hours, allowance, range and the holiday flag.
// Every other field, including an edited reason, is preserved.
func Recompute(report attendance.Report, isHoliday bool) attendance.Report {
	return derive(report, isHoliday)
}

func derive(report attendance.Report, isHoliday bool) attendance.Report {
	class := Classify(report.Date, isHoliday)
	hours := Hours(report.Record, isHoliday)

	report.OvertimeHours = hours
	report.MealAllowance = MealAllowance(report.Record, isHoliday)
	report.OvertimeRange = Range(report.Record, class, hours)
	report.IsHoliday = isHoliday
	return report
}

// =============================================================================
// SECTIONS
// =============================================================================

// IsRestDay decides which report section a row belongs to: flagged holidays
// and weekend dates go to the rest-day section. Unparseable dates stay in the
// weekday section.
func IsRestDay(report attendance.Report) bool {
	if report.IsHoliday {
		return true
	}
	d, ok := calendar.ParseAttendanceDate(report.Date)
	return ok && d.IsWeekend()
}

// SplitSections partitions reports into weekday and rest-day sections,
// preserving the original order inside each.
func SplitSections(reports []attendance.Report) (weekday, restDay []attendance.Report) {
	for _, r := range reports {
		if IsRestDay(r) {
			restDay = append(restDay, r)
		} else {
			weekday = append(weekday, r)
		}
	}
	return weekday, restDay
}
