/*
Package export writes the overtime application form.

PURPOSE:
  Turns paginated sections into downloadable files. Every writer consumes
  the same Document so the spreadsheet, the PDF and the print page agree on
  rows, header fields and file name.

FORMATS:
  xlsx - One sheet per non-empty section (excelize)
  pdf  - One PDF page per layout page (gofpdf)
  html - Print-ready A4 document built from the page template
  csv  - Flattened report rows (gocsv)

  The attendance CSV written by WriteCSV is the ingestion format, not a
  report; it backs the TXT to CSV converter.

SEE ALSO:
  - layout/paginator.go: Produces the pages
  - layout/render.go: Form fields and the page template
*/
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/layout"
)

// Format is a downloadable document type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
)

var contentTypes = map[Format]string{
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatPDF:  "application/pdf",
	FormatHTML: "text/html; charset=utf-8",
	FormatCSV:  "text/csv; charset=utf-8",
}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", attendance.ErrUnsupportedFormat, s)
	}
	return f, nil
}

func (f Format) ContentType() string { return contentTypes[f] }

// Document is a fully paginated application form.
type Document struct {
	Form     layout.Form
	Sections layout.Sections
}

// FileName is the download name, "員工加班申請表-100057 王小明-114年10月.xlsx".
func (d Document) FileName(f Format) string {
	return d.Form.FileName() + "." + string(f)
}

// SectionRows returns the rows of one section in page order.
func SectionRows(pages []layout.Page) []attendance.Report {
	var rows []attendance.Report
	for _, p := range pages {
		rows = append(rows, p.Rows...)
	}
	return rows
}

func (d Document) isEmpty() bool {
	return len(d.Sections.Weekday) == 0 && len(d.Sections.RestDay) == 0
}

// Options tune document writers.
type Options struct {
	// FontPath names a TTF with CJK glyphs for PDF output.
	FontPath string
}

// Write renders doc in the requested format.
func Write(w io.Writer, f Format, doc Document, opts Options) error {
	if doc.isEmpty() {
		return attendance.ErrNothingSelected
	}
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, doc)
	case FormatPDF:
		return WritePDF(w, doc, opts.FontPath)
	case FormatHTML:
		return WriteHTML(w, doc)
	case FormatCSV:
		return WriteReportCSV(w, doc)
	}
	return fmt.Errorf("%w: %q", attendance.ErrUnsupportedFormat, f)
}

// Compose paginates both sections with the form's page template.
func Compose(p *layout.Paginator, form layout.Form, weekday, restDay []attendance.Report) (Document, error) {
	sections, err := p.PaginateSections(weekday, restDay, layout.NewPageRenderer(form).Render)
	if err != nil {
		return Document{}, err
	}
	return Document{Form: form, Sections: sections}, nil
}
