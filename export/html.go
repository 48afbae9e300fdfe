package export

import (
	"fmt"
	"html/template"
	"io"

	"github.com/warp/overtime-engine/layout"
)

// =============================================================================
// HTML - Print-ready document
// =============================================================================

const printTemplate = `<!DOCTYPE html>
<html lang="zh-Hant">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: A4; margin: 20mm; }
body { font-family: "Microsoft JhengHei", "Heiti TC", sans-serif; margin: 0; padding: 0; }
.sheet { page-break-after: always; }
.sheet:last-child { page-break-after: auto; }
@media print {
  body { -webkit-print-color-adjust: exact; print-color-adjust: exact; }
}
</style>
</head>
<body>
{{- range .Pages}}
<div class="sheet" data-section="{{.Section}}" data-page="{{.Number}}">{{.Markup}}</div>
{{- end}}
</body>
</html>
`

var printTmpl = template.Must(template.New("print").Parse(printTemplate))

type printPage struct {
	Section layout.Section
	Number  int
	Markup  template.HTML
}

// WriteHTML renders every page with the page template, one printed sheet
// per page, weekday section first.
func WriteHTML(w io.Writer, doc Document) error {
	renderer := layout.NewPageRenderer(doc.Form)

	var pages []printPage
	for _, p := range doc.Sections.All() {
		markup, err := renderer.RenderPage(p)
		if err != nil {
			return err
		}
		// The page template escapes its own fields.
		pages = append(pages, printPage{Section: p.Section, Number: p.PageNumber, Markup: template.HTML(markup)})
	}

	err := printTmpl.Execute(w, struct {
		Title string
		Pages []printPage
	}{Title: doc.Form.FileName(), Pages: pages})
	if err != nil {
		return fmt.Errorf("failed to write html: %w", err)
	}
	return nil
}
