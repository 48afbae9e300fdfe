package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/calendar"
	"github.com/warp/overtime-engine/layout"
	"github.com/warp/overtime-engine/parser"
)

// =============================================================================
// CSV
// =============================================================================

// WriteCSV writes records in the 7-column ingestion format, so the output
// of the TXT converter can be uploaded again.
func WriteCSV(w io.Writer, records []attendance.Record) error {
	rows := make([]parser.CSVRow, len(records))
	for i, r := range records {
		rows[i] = parser.NewCSVRow(r)
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ReportRow is one printed row, flattened for spreadsheets.
type ReportRow struct {
	Section        string `csv:"區段"`
	Page           int    `csv:"頁碼"`
	EmployeeID     string `csv:"員工編號"`
	Name           string `csv:"姓名"`
	Date           string `csv:"日期"`
	AttendanceType string `csv:"考勤別"`
	OvertimeRange  string `csv:"時間"`
	OvertimeReason string `csv:"加班理由"`
	OvertimeHours  string `csv:"加班時數"`
	MealAllowance  int    `csv:"誤餐費"`
	IsHoliday      bool   `csv:"國定假日"`
}

func newReportRow(p layout.Page, r attendance.Report) ReportRow {
	return ReportRow{
		Section:        string(p.Section),
		Page:           p.PageNumber,
		EmployeeID:     r.EmployeeID,
		Name:           r.Name,
		Date:           calendar.FormatDisplayDate(r.Date),
		AttendanceType: string(r.AttendanceType),
		OvertimeRange:  r.OvertimeRange,
		OvertimeReason: r.OvertimeReason,
		OvertimeHours:  r.HoursText(),
		MealAllowance:  r.MealAllowance,
		IsHoliday:      r.IsHoliday,
	}
}

// WriteReportCSV writes every paginated row, weekday section first.
func WriteReportCSV(w io.Writer, doc Document) error {
	var rows []ReportRow
	for _, p := range doc.Sections.All() {
		for _, r := range p.Rows {
			rows = append(rows, newReportRow(p, r))
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
