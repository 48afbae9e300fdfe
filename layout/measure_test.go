package layout_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/layout"
)

func measure(t *testing.T, s layout.Surface, markup string) float64 {
	t.Helper()
	h, err := s.Measure(markup)
	require.NoError(t, err)
	return h
}

func newSurface(t *testing.T) layout.Surface {
	t.Helper()
	s, err := layout.NewFlowEngine(0, "").NewSurface()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFlowEngine_BlockBoxModel(t *testing.T) {
	s := newSurface(t)

	// 10px font, unitless line-height 2 => one 20px line
	assert.InDelta(t, 20, measure(t, s, `<div style="font-size: 10px; line-height: 2;">x</div>`), 0.001)

	// Margins, padding and borders stack around the content
	h := measure(t, s, `<div style="font-size: 10px; line-height: 2; margin-top: 5px; margin-bottom: 7px; padding: 3px 4px; border: 1px solid black;">x</div>`)
	assert.InDelta(t, 20+5+7+6+2, h, 0.001)

	// Empty blocks collapse to their chrome
	assert.InDelta(t, 0, measure(t, s, `<div></div>`), 0.001)
	assert.InDelta(t, 0, measure(t, s, `<div style="display: none;">hidden</div>`), 0.001)
}

func TestFlowEngine_TextWraps(t *testing.T) {
	s := newSurface(t)

	short := measure(t, s, `<div style="width: 10%; font-size: 12px;">加班</div>`)
	long := measure(t, s, `<div style="width: 10%; font-size: 12px;">`+strings.Repeat("加班", 20)+`</div>`)

	assert.Greater(t, long, short)
	// 64px wide at 12px per wide rune: 5 per line, 40 runes => 8 lines
	assert.InDelta(t, 8*12*1.2, long, 0.001)
}

func TestFlowEngine_FlexTakesTallestChild(t *testing.T) {
	s := newSurface(t)
	h := measure(t, s, `<div style="display: flex; font-size: 10px; line-height: 1;">
<div>one</div>
<div style="padding: 10px;">two</div>
</div>`)
	assert.InDelta(t, 30, h, 0.001)
}

func TestFlowEngine_TableRows(t *testing.T) {
	s := newSurface(t)
	table := func(n int) string {
		var b strings.Builder
		b.WriteString(`<table style="width: 100%; font-size: 10px; line-height: 1;"><tr><th style="width: 50%; padding: 5px; border: 1px solid;">a</th><th style="width: 50%; padding: 5px; border: 1px solid;">b</th></tr>`)
		for i := 0; i < n; i++ {
			b.WriteString(`<tr><td style="padding: 5px; border: 1px solid;">x</td><td style="padding: 5px; border: 1px solid;">y</td></tr>`)
		}
		b.WriteString(`</table>`)
		return b.String()
	}

	one := measure(t, s, table(1))
	three := measure(t, s, table(3))
	// Each row: 10px line + 10px padding + 1px collapsed border
	assert.InDelta(t, 2*21, three-one, 0.001)
	assert.InDelta(t, 2*21+1, one, 0.001)
}

func TestFlowEngine_ClosedSurface(t *testing.T) {
	s, err := layout.NewFlowEngine(0, "").NewSurface()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Measure("<div>x</div>")
	assert.ErrorIs(t, err, layout.ErrSurfaceClosed)
}

func TestFlowEngine_MissingFont(t *testing.T) {
	_, err := layout.NewFlowEngine(0, "/nonexistent/font.ttf").NewSurface()
	assert.Error(t, err)
}

// =============================================================================
// RENDERED PAGES
// =============================================================================

func report(date, reason string) attendance.Report {
	return attendance.Report{
		Record: attendance.Record{
			EmployeeID: "100057",
			Name:       "王小明",
			Date:       date,
			ClockIn:    "08:47",
			ClockOut:   "19:45",
		},
		OvertimeHours:  decimal.NewFromFloat(1.5),
		MealAllowance:  attendance.MealStipend,
		OvertimeRange:  "18:00 - 19:45",
		OvertimeReason: reason,
	}
}

func TestPageRenderer_Chrome(t *testing.T) {
	reports := []attendance.Report{report("1141001", "系統維護")}
	form := layout.NewForm("", "", reports, nil, "台北", "無")
	r := layout.NewPageRenderer(form)

	first, err := r.Render(reports, layout.PageMeta{PageNumber: 1, TotalPages: 2, IsFirstPage: true})
	require.NoError(t, err)
	assert.Contains(t, first, "海灣國際股份有限公司")
	assert.Contains(t, first, "員工姓名：100057 王小明")
	assert.Contains(t, first, "工作地點：台北")
	assert.Contains(t, first, "申請年月：114年10月")
	assert.Contains(t, first, "2025/10/01 週三")
	assert.Contains(t, first, "1.50")
	assert.Contains(t, first, "頁碼：1 / 2")
	assert.NotContains(t, first, "部門主管")

	last, err := r.Render(reports, layout.PageMeta{PageNumber: 2, TotalPages: 2, IsLastPage: true})
	require.NoError(t, err)
	assert.NotContains(t, last, "員工姓名")
	assert.Contains(t, last, "部門主管：")
	assert.Contains(t, last, "公司主管：")
}

func TestPageRenderer_EscapesReason(t *testing.T) {
	reports := []attendance.Report{report("1141001", "<script>x</script>")}
	r := layout.NewPageRenderer(layout.NewForm("", "", reports, nil, "", ""))

	out, err := r.Render(reports, layout.PageMeta{PageNumber: 1, TotalPages: 1})
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestForm_FileName(t *testing.T) {
	reports := []attendance.Report{report("1141001", "")}
	form := layout.NewForm("", "", nil, reports, "", "")
	assert.Equal(t, "員工加班申請表-100057 王小明-114年10月", form.FileName())
}

func TestFlowEngine_RenderedPageGrowsWithRows(t *testing.T) {
	// GIVEN: The real template and the real engine
	s := newSurface(t)
	reports := make([]attendance.Report, 0, 10)
	for i := 0; i < 10; i++ {
		reports = append(reports, report("1141001", "系統維護"))
	}
	r := layout.NewPageRenderer(layout.NewForm("", "", reports, nil, "台北", ""))
	height := func(rows []attendance.Report, meta layout.PageMeta) float64 {
		markup, err := r.Render(rows, meta)
		require.NoError(t, err)
		return measure(t, s, markup)
	}
	firstMeta := layout.PageMeta{PageNumber: 1, TotalPages: 999, IsFirstPage: true}
	midMeta := layout.PageMeta{PageNumber: 2, TotalPages: 999}

	// THEN: More rows are taller, the first page carries the header
	assert.Greater(t, height(reports[:5], firstMeta), height(reports[:4], firstMeta))
	assert.Greater(t, height(reports[:4], firstMeta), height(reports[:4], midMeta))

	// A long reason wraps and makes its row taller
	long := []attendance.Report{report("1141001", strings.Repeat("伺服器搬遷與系統維護", 6))}
	assert.Greater(t, height(long, midMeta), height(reports[:1], midMeta))
}

func TestFlowEngine_PaginatesRealPages(t *testing.T) {
	reports := make([]attendance.Report, 0, 60)
	for i := 0; i < 60; i++ {
		reports = append(reports, report("1141001", "系統維護"))
	}
	r := layout.NewPageRenderer(layout.NewForm("", "", reports, nil, "台北", ""))
	p := layout.NewPaginator(layout.NewFlowEngine(0, ""), 0)

	pages, err := p.Paginate(layout.SectionWeekday, reports, r.Render)

	require.NoError(t, err)
	assert.Greater(t, len(pages), 1)
	total := 0
	for _, page := range pages {
		total += len(page.Rows)
		assert.Equal(t, len(pages), page.TotalPages)
	}
	assert.Equal(t, 60, total)
}
