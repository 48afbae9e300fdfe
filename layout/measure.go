/*
measure.go - Offscreen measurement of rendered pages

PURPOSE:
  Implements Engine without a browser. The rendered markup is parsed with
  goquery and laid out with a small block model that understands exactly the
  inline styles the page template emits. Glyph advances come from gofpdf
  font metrics so a wrapped reason line breaks where the PDF writer breaks it.

LAYOUT MODEL:
  - Block elements stack vertically: margin + border + padding + content
  - display:flex lays children side by side, equal width, height = tallest
  - Tables: column widths from the first row's width percentages, row
    height = tallest cell, collapsed borders counted once per row
  - Inline text wraps greedily rune by rune at the containing width

  Units are CSS pixels at 96dpi. The default content width is A4 (210mm)
  minus 20mm margins on both sides.

SEE ALSO:
  - paginator.go: The Engine/Surface contract
  - render.go: The template whose styles are understood here
*/
package layout

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/jung-kurt/gofpdf"
)

const (
	// DefaultContentWidth is 170mm at 96dpi.
	DefaultContentWidth = 170.0 / 25.4 * 96

	defaultFontSize   = 16.0
	defaultLineHeight = 1.2

	// metricSize is the font size used when sampling glyph advances.
	metricSize   = 100.0
	metricFamily = "measure"
)

// FlowEngine measures markup against font metrics.
type FlowEngine struct {
	ContentWidth float64
	// FontPath optionally names a TTF used for glyph metrics. Without it the
	// core Helvetica metrics are used and wide (CJK) runes count as one em.
	FontPath string
}

func NewFlowEngine(contentWidth float64, fontPath string) *FlowEngine {
	if contentWidth <= 0 {
		contentWidth = DefaultContentWidth
	}
	return &FlowEngine{ContentWidth: contentWidth, FontPath: fontPath}
}

// NewSurface opens a scratch PDF document used only for metrics.
func (e *FlowEngine) NewSurface() (Surface, error) {
	pdf := gofpdf.New("P", "pt", "A4", filepath.Dir(e.FontPath))
	s := &flowSurface{pdf: pdf, width: e.ContentWidth, advances: make(map[rune]float64)}

	if e.FontPath != "" {
		pdf.AddUTF8Font(metricFamily, "", filepath.Base(e.FontPath))
		if pdf.Err() {
			return nil, fmt.Errorf("failed to load font %s: %w", e.FontPath, pdf.Error())
		}
		pdf.SetFont(metricFamily, "", metricSize)
		s.unicode = true
	} else {
		pdf.SetFont("Helvetica", "", metricSize)
	}
	if pdf.Err() {
		return nil, fmt.Errorf("failed to set measurement font: %w", pdf.Error())
	}
	return s, nil
}

// =============================================================================
// SURFACE
// =============================================================================

type flowSurface struct {
	pdf      *gofpdf.Fpdf
	unicode  bool
	width    float64
	advances map[rune]float64 // em fraction per rune
	closed   bool
}

func (s *flowSurface) Close() error {
	s.pdf = nil
	s.advances = nil
	s.closed = true
	return nil
}

// Measure returns the laid-out height of markup in pixels.
func (s *flowSurface) Measure(markup string) (float64, error) {
	if s.closed {
		return 0, ErrSurfaceClosed
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return 0, fmt.Errorf("failed to parse markup: %w", err)
	}

	root := box{width: s.width, fontSize: defaultFontSize, lineHeight: defaultLineHeight}
	return s.flow(doc.Find("body").First(), root), nil
}

// box is the inherited layout context.
type box struct {
	width      float64
	fontSize   float64
	lineHeight float64 // multiple of fontSize
}

func (b box) line() float64 { return b.fontSize * b.lineHeight }

// flow lays out the children of sel stacked vertically.
func (s *flowSurface) flow(sel *goquery.Selection, ctx box) float64 {
	var height float64
	var inline strings.Builder

	flushInline := func() {
		height += s.textHeight(inline.String(), ctx)
		inline.Reset()
	}

	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		switch name := goquery.NodeName(child); {
		case name == "#text":
			inline.WriteString(child.Text())
			inline.WriteByte(' ')
		case isInline(name):
			inline.WriteString(child.Text())
		case name == "#comment":
		default:
			flushInline()
			height += s.block(child, ctx)
		}
	})
	flushInline()
	return height
}

func (s *flowSurface) block(sel *goquery.Selection, parent box) float64 {
	st := parseStyle(sel.AttrOr("style", ""), parent)
	if st.hidden {
		return 0
	}
	ctx := st.box
	ctx.width = st.outerWidth(parent.width) - 2*(st.padX+st.border)

	var content float64
	switch {
	case goquery.NodeName(sel) == "table":
		content = s.table(sel, ctx)
	case st.flex:
		content = s.flex(sel, ctx)
	default:
		content = s.flow(sel, ctx)
	}
	return st.marginTop + st.marginBottom + 2*(st.padY+st.border) + content
}

func (s *flowSurface) flex(sel *goquery.Selection, ctx box) float64 {
	items := sel.Children()
	n := items.Length()
	if n == 0 {
		return 0
	}
	item := ctx
	item.width = ctx.width / float64(n)

	var tallest float64
	items.Each(func(_ int, child *goquery.Selection) {
		if h := s.block(child, item); h > tallest {
			tallest = h
		}
	})
	return tallest
}

func (s *flowSurface) table(sel *goquery.Selection, ctx box) float64 {
	rows := sel.Find("tr")
	if rows.Length() == 0 {
		return 0
	}

	// Column widths come from the first row.
	var widths []float64
	rows.First().Children().Each(func(_ int, cell *goquery.Selection) {
		st := parseStyle(cell.AttrOr("style", ""), ctx)
		widths = append(widths, st.outerWidth(ctx.width))
	})

	var height, border float64
	rows.Each(func(_ int, row *goquery.Selection) {
		rowCtx := parseStyle(row.AttrOr("style", ""), ctx).box
		var tallest float64
		row.Children().Each(func(i int, cell *goquery.Selection) {
			st := parseStyle(cell.AttrOr("style", ""), rowCtx)
			w := ctx.width
			if i < len(widths) {
				w = widths[i]
			}
			inner := st.box
			inner.width = w - 2*(st.padX+st.border)
			h := 2*st.padY + st.border + s.flow(cell, inner)
			if h > tallest {
				tallest = h
			}
			if st.border > border {
				border = st.border
			}
		})
		height += tallest
	})
	return height + border
}

// =============================================================================
// TEXT
// =============================================================================

func (s *flowSurface) textHeight(text string, ctx box) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	return float64(s.lines(strings.Join(words, " "), ctx.width, ctx.fontSize)) * ctx.line()
}

// lines counts wrapped lines, breaking at any rune.
func (s *flowSurface) lines(text string, width, fontSize float64) int {
	n, x := 1, 0.0
	for _, r := range text {
		w := s.advance(r) * fontSize
		if x > 0 && x+w > width {
			n++
			x = 0
			if r == ' ' {
				continue
			}
		}
		x += w
	}
	return n
}

// advance returns the width of r as a fraction of the font size.
func (s *flowSurface) advance(r rune) float64 {
	if w, ok := s.advances[r]; ok {
		return w
	}
	var w float64
	switch {
	case r < unicode.MaxASCII || s.unicode:
		w = s.pdf.GetStringWidth(string(r)) / metricSize
	case isWide(r):
		w = 1
	default:
		w = 0.6
	}
	s.advances[r] = w
	return w
}

func isWide(r rune) bool {
	return unicode.Is(unicode.Han, r) || (r >= 0x3000 && r <= 0x30ff) || (r >= 0xff00 && r <= 0xffef)
}

func isInline(name string) bool {
	switch name {
	case "span", "b", "strong", "i", "em", "u", "a", "small", "br":
		return true
	}
	return false
}

// =============================================================================
// INLINE STYLE
// =============================================================================

type style struct {
	box
	widthPct     float64
	marginTop    float64
	marginBottom float64
	padY, padX   float64
	border       float64
	flex         bool
	hidden       bool
}

func (st style) outerWidth(parent float64) float64 {
	if st.widthPct > 0 {
		return parent * st.widthPct / 100
	}
	return parent
}

// parseStyle reads the declarations the layout model understands and
// ignores the rest. Font size and line height inherit from parent.
func parseStyle(attr string, parent box) style {
	st := style{box: parent}
	for _, decl := range strings.Split(attr, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(strings.ToLower(prop))
		value = strings.TrimSpace(strings.ToLower(value))

		switch prop {
		case "font-size":
			if v, ok := pixels(value, parent.fontSize); ok {
				st.fontSize = v
			}
		case "line-height":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				st.lineHeight = v
			} else if v, ok := pixels(value, st.fontSize); ok && st.fontSize > 0 {
				st.lineHeight = v / st.fontSize
			}
		case "width":
			if pct, ok := strings.CutSuffix(value, "%"); ok {
				if v, err := strconv.ParseFloat(pct, 64); err == nil {
					st.widthPct = v
				}
			}
		case "margin":
			top, _, bottom, _ := shorthand(value, st.fontSize)
			st.marginTop, st.marginBottom = top, bottom
		case "margin-top":
			st.marginTop, _ = pixels(value, st.fontSize)
		case "margin-bottom":
			st.marginBottom, _ = pixels(value, st.fontSize)
		case "padding":
			top, right, _, _ := shorthand(value, st.fontSize)
			st.padY, st.padX = top, right
		case "border":
			for _, part := range strings.Fields(value) {
				if v, ok := pixels(part, st.fontSize); ok {
					st.border = v
					break
				}
			}
		case "display":
			st.flex = value == "flex"
			st.hidden = value == "none"
		}
	}
	return st
}

// shorthand expands a one to four value box shorthand.
func shorthand(value string, em float64) (top, right, bottom, left float64) {
	var v []float64
	for _, part := range strings.Fields(value) {
		px, _ := pixels(part, em)
		v = append(v, px)
	}
	switch len(v) {
	case 1:
		return v[0], v[0], v[0], v[0]
	case 2:
		return v[0], v[1], v[0], v[1]
	case 3:
		return v[0], v[1], v[2], v[1]
	case 4:
		return v[0], v[1], v[2], v[3]
	}
	return 0, 0, 0, 0
}

func pixels(value string, em float64) (float64, bool) {
	units := []struct {
		suffix string
		scale  float64
	}{
		{"px", 1},
		{"pt", 96.0 / 72},
		{"mm", 96 / 25.4},
		{"em", em},
	}
	for _, u := range units {
		if num, ok := strings.CutSuffix(value, u.suffix); ok {
			v, err := strconv.ParseFloat(num, 64)
			return v * u.scale, err == nil
		}
	}
	if value == "0" {
		return 0, true
	}
	return 0, false
}
