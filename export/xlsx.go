package export

import (
	"fmt"
	"io"

	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/calendar"
	"github.com/warp/overtime-engine/layout"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// XLSX - One worksheet per section
// =============================================================================

var (
	tableHeader  = []string{"日期", "時間", "加班理由", "加班時數", "誤餐費", "合計"}
	columnWidths = []float64{12, 18, 30, 12, 10, 10}
)

const firstTableRow = 5

// WriteXLSX writes the form as a workbook. Sheets for empty sections are
// left out.
func WriteXLSX(w io.Writer, doc Document) error {
	if doc.isEmpty() {
		return attendance.ErrNothingSelected
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newSheetStyles(f)
	if err != nil {
		return err
	}

	var first string
	for _, section := range []struct {
		name  layout.Section
		pages []layout.Page
	}{
		{layout.SectionWeekday, doc.Sections.Weekday},
		{layout.SectionRestDay, doc.Sections.RestDay},
	} {
		if len(section.pages) == 0 {
			continue
		}
		name := string(section.name)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, doc.Form, SectionRows(section.pages), styles); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", name, err)
		}
		if first == "" {
			first = name
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if idx, err := f.GetSheetIndex(first); err == nil {
		f.SetActiveSheet(idx)
	}

	return f.Write(w)
}

type sheetStyles struct {
	title, yearMonth, left, header, cell int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	left := &excelize.Alignment{Horizontal: "left", Vertical: "center"}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	thin := []excelize.Border{
		{Type: "top", Color: "000000", Style: 1},
		{Type: "left", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}, Alignment: center}},
		{&s.yearMonth, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}, Alignment: center}},
		{&s.left, &excelize.Style{Alignment: left}},
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"F0F0F0"}, Pattern: 1},
			Border:    thin,
			Alignment: left,
		}},
		{&s.cell, &excelize.Style{Border: thin, Alignment: left}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("failed to create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

func writeSheet(f *excelize.File, sheet string, form layout.Form, rows []attendance.Report, st sheetStyles) error {
	set := func(cell string, value any, style int) error {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
		return f.SetCellStyle(sheet, cell, cell, style)
	}
	merge := func(from, to string) error { return f.MergeCell(sheet, from, to) }

	// Form header
	steps := []func() error{
		func() error { return merge("A1", "F1") },
		func() error { return set("A1", form.CompanyName+form.Title, st.title) },
		func() error { return f.SetRowHeight(sheet, 1, 30) },
		func() error { return merge("A2", "F2") },
		func() error { return set("A2", form.YearMonth, st.yearMonth) },
		func() error { return f.SetRowHeight(sheet, 2, 20) },
		func() error { return merge("A3", "C3") },
		func() error { return set("A3", "員工姓名："+form.EmployeeName, st.left) },
		func() error { return merge("D3", "F3") },
		func() error { return set("D3", "工作地點："+form.WorkLocation, st.left) },
		func() error { return merge("A4", "F4") },
		func() error { return set("A4", "備註："+form.Remarks, st.left) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	// Table
	row := firstTableRow
	for i, h := range tableHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := set(cell, h, st.header); err != nil {
			return err
		}
	}
	for _, r := range rows {
		row++
		values := []any{
			calendar.FormatDisplayDate(r.Date),
			r.OvertimeRange,
			r.OvertimeReason,
			r.HoursText(),
			r.MealAllowance,
			"",
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := set(cell, v, st.cell); err != nil {
				return err
			}
		}
	}

	// Signatures
	row++
	dept, _ := excelize.CoordinatesToCellName(1, row)
	deptEnd, _ := excelize.CoordinatesToCellName(3, row)
	boss, _ := excelize.CoordinatesToCellName(4, row)
	bossEnd, _ := excelize.CoordinatesToCellName(6, row)
	for _, step := range []func() error{
		func() error { return merge(dept, deptEnd) },
		func() error { return merge(boss, bossEnd) },
		func() error { return set(dept, "部門主管：", st.left) },
		func() error { return set(boss, "公司主管：", st.left) },
		func() error { return f.SetRowHeight(sheet, row, 25) },
	} {
		if err := step(); err != nil {
			return err
		}
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}
