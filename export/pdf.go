package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/warp/overtime-engine/calendar"
	"github.com/warp/overtime-engine/layout"
)

// =============================================================================
// PDF - One page per layout page
// =============================================================================

// Geometry in millimetres, font sizes in points (CSS px * 0.75).
const (
	pdfMargin     = 20.0
	pdfLineFactor = 0.3528 * 1.4 // pt to mm, times line height
	pdfCellPadX   = 2.0
	pdfCellPadY   = 1.5
	pdfFontFamily = "form"
)

// columnShares are the table column widths as fractions of the content width.
var columnShares = []float64{0.20, 0.18, 0.30, 0.12, 0.10, 0.10}

type pdfWriter struct {
	pdf     *gofpdf.Fpdf
	unicode bool
	tr      func(string) string
	width   float64
}

// WritePDF draws every page of doc. Without fontPath the core Helvetica font
// is used, which has no CJK glyphs.
func WritePDF(w io.Writer, doc Document, fontPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", filepath.Dir(fontPath))
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(doc.Form.Title, true)

	pw := &pdfWriter{pdf: pdf, tr: func(s string) string { return s }}
	pw.width, _ = pdf.GetPageSize()
	pw.width -= 2 * pdfMargin

	if fontPath != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", filepath.Base(fontPath))
		if pdf.Err() {
			return fmt.Errorf("failed to load font %s: %w", fontPath, pdf.Error())
		}
		pw.unicode = true
	} else {
		pw.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	for _, page := range doc.Sections.All() {
		pw.page(doc.Form, page)
		if pdf.Err() {
			return fmt.Errorf("failed to draw %s page %d: %w", page.Section, page.PageNumber, pdf.Error())
		}
	}
	return pdf.Output(w)
}

func (pw *pdfWriter) font(px float64, style string) {
	if pw.unicode {
		// Only the regular face is registered.
		style = strings.ReplaceAll(strings.ReplaceAll(style, "B", ""), "U", "")
		pw.pdf.SetFont(pdfFontFamily, style, px*0.75)
		return
	}
	pw.pdf.SetFont("Helvetica", style, px*0.75)
}

func lineHeight(px float64) float64 { return px * 0.75 * pdfLineFactor }

func (pw *pdfWriter) text(w, h float64, s, align string, border string, fill bool) {
	pw.pdf.CellFormat(w, h, pw.tr(s), border, 0, align, fill, 0, "")
}

func (pw *pdfWriter) page(form layout.Form, page layout.Page) {
	pdf := pw.pdf
	pdf.AddPage()
	x := pdfMargin

	// Company and title rows
	pw.font(20, "B")
	pdf.SetX(x)
	pw.text(pw.width, lineHeight(20), form.CompanyName, "C", "", false)
	pdf.Ln(lineHeight(20) + 1.3)

	third := pw.width / 3
	pdf.SetX(x + third)
	pw.font(20, "BU")
	pw.text(third, lineHeight(20), form.Title, "C", "", false)
	pw.font(14, "")
	pw.text(third, lineHeight(20), "申請年月："+form.YearMonth, "R", "", false)
	pdf.Ln(lineHeight(20) + 5.3)

	if page.IsFirstPage {
		pw.font(14, "")
		for _, line := range []string{
			"員工姓名：" + form.EmployeeName,
			"工作地點：" + form.WorkLocation,
			"備註：" + form.Remarks,
		} {
			pdf.SetX(x)
			pw.text(pw.width, lineHeight(14), line, "L", "", false)
			pdf.Ln(lineHeight(14) + 1.3)
		}
		pdf.Ln(2.7)
	}

	// Table
	widths := make([]float64, len(columnShares))
	for i, share := range columnShares {
		widths[i] = pw.width * share
	}
	pw.font(12, "B")
	pdf.SetFillColor(0xF0, 0xF0, 0xF0)
	pw.row(widths, tableHeader, true)

	pw.font(12, "")
	for _, r := range page.Rows {
		pw.row(widths, []string{
			calendar.FormatDisplayDate(r.Date),
			r.OvertimeRange,
			r.OvertimeReason,
			r.HoursText(),
			strconv.Itoa(r.MealAllowance),
			"",
		}, false)
	}

	if page.IsLastPage {
		pdf.Ln(5.3)
		pw.font(14, "")
		pdf.SetX(x)
		pw.text(pw.width/2, lineHeight(14), "部門主管：", "L", "", false)
		pw.text(pw.width/2, lineHeight(14), "公司主管：", "L", "", false)
		pdf.Ln(lineHeight(14))
	}

	pdf.Ln(2.6)
	pw.font(12, "")
	pdf.SetTextColor(0x66, 0x66, 0x66)
	pdf.SetX(x)
	pw.text(pw.width, lineHeight(12), fmt.Sprintf("頁碼：%d / %d", page.PageNumber, page.TotalPages), "R", "", false)
	pdf.SetTextColor(0, 0, 0)
}

// row draws one table row; the tallest wrapped cell sets the row height.
func (pw *pdfWriter) row(widths []float64, cells []string, fill bool) {
	pdf := pw.pdf
	lh := lineHeight(12)

	wrapped := make([][]string, len(cells))
	lines := 1
	for i, c := range cells {
		wrapped[i] = pw.wrap(c, widths[i]-2*pdfCellPadX)
		if len(wrapped[i]) > lines {
			lines = len(wrapped[i])
		}
	}
	h := float64(lines)*lh + 2*pdfCellPadY

	x, y := pdfMargin, pdf.GetY()
	for i, w := range widths {
		style := "D"
		if fill {
			style = "FD"
		}
		pdf.Rect(x, y, w, h, style)
		for j, line := range wrapped[i] {
			pdf.SetXY(x+pdfCellPadX, y+pdfCellPadY+float64(j)*lh)
			pw.text(w-2*pdfCellPadX, lh, line, "L", "", false)
		}
		x += w
	}
	pdf.SetXY(pdfMargin, y+h)
}

// wrap breaks s into lines no wider than width at the current font.
func (pw *pdfWriter) wrap(s string, width float64) []string {
	if s == "" {
		return nil
	}
	var lines []string
	var line []rune
	var x float64
	for _, r := range s {
		w := pw.pdf.GetStringWidth(pw.tr(string(r)))
		if len(line) > 0 && x+w > width {
			lines = append(lines, string(line))
			line, x = line[:0:0], 0
		}
		line = append(line, r)
		x += w
	}
	return append(lines, string(line))
}
