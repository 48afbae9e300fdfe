package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/attendance"
)

// =============================================================================
// CSV ROW - Tabular attendance format
// =============================================================================

// CSVHeader is the required header, in order.
var CSVHeader = []string{"員工編號", "姓名", "歸屬日期", "考勤別", "數量", "上班時間", "下班時間"}

// CSVRow is one line of the tabular format. It is also what the TXT to CSV
// converter writes.
type CSVRow struct {
	EmployeeID     string `csv:"員工編號"`
	Name           string `csv:"姓名"`
	Date           string `csv:"歸屬日期"`
	AttendanceType string `csv:"考勤別"`
	Quantity       string `csv:"數量"`
	ClockIn        string `csv:"上班時間"`
	ClockOut       string `csv:"下班時間"`
}

// NewCSVRow flattens a record into the tabular format. No leave is written
// as an empty cell and quantities without leave as 0.
func NewCSVRow(r attendance.Record) CSVRow {
	return CSVRow{
		EmployeeID:     r.EmployeeID,
		Name:           r.Name,
		Date:           r.Date,
		AttendanceType: string(r.AttendanceType),
		Quantity:       r.LeaveQuantity.String(),
		ClockIn:        r.ClockIn,
		ClockOut:       r.ClockOut,
	}
}

// Record converts the row, enforcing the attendance-type allow-list.
func (row CSVRow) Record() (attendance.Record, error) {
	kind, ok := attendance.ParseAttendanceType(strings.TrimSpace(row.AttendanceType))
	if !ok {
		return attendance.Record{}, fmt.Errorf("%w: %q", attendance.ErrUnknownAttendanceType, row.AttendanceType)
	}

	qty, err := decimal.NewFromString(strings.TrimSpace(row.Quantity))
	if err != nil || qty.IsNegative() {
		qty = decimal.Zero
	}

	return attendance.Record{
		EmployeeID:     strings.TrimSpace(row.EmployeeID),
		Name:           strings.TrimSpace(row.Name),
		Date:           strings.TrimSpace(row.Date),
		AttendanceType: kind,
		LeaveQuantity:  qty,
		ClockIn:        strings.TrimSpace(row.ClockIn),
		ClockOut:       strings.TrimSpace(row.ClockOut),
	}, nil
}

// =============================================================================
// PARSING
// =============================================================================

// ParseCSV reads the tabular format.
//
// The header must match CSVHeader exactly. Rows with the wrong column count
// or only blank cells are skipped. An attendance type outside the allow-list
// fails the whole file.
func ParseCSV(r io.Reader) ([]attendance.Record, error) {
	data, err := readContent(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, csvError(0, attendance.ErrEmptyInput, "CSV 檔案內容為空，請確認檔案格式是否正確。")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	filter := &rowFilter{r: reader}

	var rows []CSVRow
	if err := gocsv.UnmarshalCSV(filter, &rows); err != nil {
		var fe *attendance.FormatError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, csvError(0, nil, fmt.Sprintf("讀取 CSV 檔案時發生錯誤: %v", err))
	}

	records := make([]attendance.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := row.Record()
		if err != nil {
			return nil, csvError(filter.lines[i], attendance.ErrUnknownAttendanceType,
				fmt.Sprintf("CSV 檔案中包含不合法的考勤別: %s。請確認考勤別為 事假, 病假, 請年休假, 公假, 空 之一。", row.AttendanceType))
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, csvError(0, attendance.ErrNoRecords, "CSV 檔案中沒有找到有效的出勤記錄。請確認檔案內容是否正確。")
	}
	return records, nil
}

func csvError(line int, sentinel error, msg string) error {
	return &attendance.FormatError{Source: string(FormatCSV), Line: line, Message: msg, Err: sentinel}
}

// rowFilter feeds gocsv only the header and well-formed data rows, and
// remembers the source line of every data row it lets through.
type rowFilter struct {
	r     *csv.Reader
	lines []int
}

func (f *rowFilter) Read() ([]string, error) {
	return f.r.Read()
}

func (f *rowFilter) ReadAll() ([][]string, error) {
	header, err := f.r.Read()
	if err != nil {
		return nil, csvError(1, attendance.ErrMissingHeader, fmt.Sprintf("無法讀取 CSV 標頭: %v", err))
	}
	if !headerMatches(header) {
		return nil, csvError(1, attendance.ErrMissingHeader,
			"CSV 檔案格式不正確，請確認標頭是否符合「"+strings.Join(CSVHeader, ",")+"」的順序。")
	}

	out := [][]string{CSVHeader}
	for {
		rec, err := f.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != len(CSVHeader) || isBlankRow(rec) {
			continue
		}
		line, _ := f.r.FieldPos(0)
		f.lines = append(f.lines, line)
		out = append(out, rec)
	}
	return out, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(CSVHeader) {
		return false
	}
	for i, h := range header {
		if strings.TrimSpace(h) != CSVHeader[i] {
			return false
		}
	}
	return true
}

func isBlankRow(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
