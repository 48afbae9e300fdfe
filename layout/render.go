package layout

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/calendar"
)

// =============================================================================
// FORM - Fields printed around the table
// =============================================================================

const (
	DefaultCompanyName = "海灣國際股份有限公司"
	DefaultFormTitle   = "員工加班申請表"
)

// Form holds the per-document fields of the application form.
type Form struct {
	CompanyName  string
	Title        string
	EmployeeName string // "100057 王小明"
	YearMonth    string // "114年10月"
	WorkLocation string
	Remarks      string
}

// NewForm derives the employee label and application month from the first
// report of the weekday section, falling back to the rest-day section.
func NewForm(companyName, title string, weekday, restDay []attendance.Report, workLocation, remarks string) Form {
	f := Form{
		CompanyName:  companyName,
		Title:        title,
		WorkLocation: workLocation,
		Remarks:      remarks,
	}
	if f.CompanyName == "" {
		f.CompanyName = DefaultCompanyName
	}
	if f.Title == "" {
		f.Title = DefaultFormTitle
	}

	var first *attendance.Report
	switch {
	case len(weekday) > 0:
		first = &weekday[0]
	case len(restDay) > 0:
		first = &restDay[0]
	}
	if first != nil {
		f.EmployeeName = first.EmployeeID + " " + first.Name
		f.YearMonth = calendar.ApplicationMonth(first.Date)
	}
	return f
}

// FileName is the download name without extension.
func (f Form) FileName() string {
	return fmt.Sprintf("%s-%s-%s", f.Title, f.EmployeeName, f.YearMonth)
}

// =============================================================================
// PAGE RENDERER
// =============================================================================

// Inline styles carry every dimension the measurement engine reads.
const pageTemplate = `<div class="page" style="font-size: 12px; line-height: 1.4;">
<div class="company" style="text-align: center; font-size: 20px; font-weight: bold; margin-bottom: 5px;">{{.Form.CompanyName}}</div>
<div class="title-row" style="display: flex; font-size: 20px; margin-bottom: 20px;">
<div style="flex: 1;"></div>
<div style="flex: 1; text-align: center; font-weight: bold; text-decoration: underline;">{{.Form.Title}}</div>
<div style="flex: 1; text-align: right; font-size: 14px;">申請年月：{{.Form.YearMonth}}</div>
</div>
{{- if .Meta.IsFirstPage}}
<div class="form-header" style="font-size: 14px; margin-bottom: 15px;">
<div style="margin-bottom: 5px;">員工姓名：{{.Form.EmployeeName}}</div>
<div style="margin-bottom: 5px;">工作地點：{{.Form.WorkLocation}}</div>
<div>備註：{{.Form.Remarks}}</div>
</div>
{{- end}}
<table style="width: 100%; border-collapse: collapse; font-size: 12px;">
<thead>
<tr style="background-color: #f0f0f0;">
<th style="width: 20%; border: 1px solid black; padding: 6px 8px; text-align: left;">日期</th>
<th style="width: 18%; border: 1px solid black; padding: 6px 8px; text-align: left;">時間</th>
<th style="width: 30%; border: 1px solid black; padding: 6px 8px; text-align: left;">加班理由</th>
<th style="width: 12%; border: 1px solid black; padding: 6px 8px; text-align: left;">加班時數</th>
<th style="width: 10%; border: 1px solid black; padding: 6px 8px; text-align: left;">誤餐費</th>
<th style="width: 10%; border: 1px solid black; padding: 6px 8px; text-align: left;">合計</th>
</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr>
<td style="border: 1px solid black; padding: 6px 8px;">{{displayDate .Date}}</td>
<td style="border: 1px solid black; padding: 6px 8px;">{{.OvertimeRange}}</td>
<td style="border: 1px solid black; padding: 6px 8px;">{{.OvertimeReason}}</td>
<td style="border: 1px solid black; padding: 6px 8px;">{{.HoursText}}</td>
<td style="border: 1px solid black; padding: 6px 8px;">{{.MealAllowance}}</td>
<td style="border: 1px solid black; padding: 6px 8px;"></td>
</tr>
{{- end}}
</tbody>
</table>
{{- if .Meta.IsLastPage}}
<div class="signatures" style="display: flex; margin-top: 20px; font-size: 14px;">
<div style="flex: 1;">部門主管：</div>
<div style="flex: 1;">公司主管：</div>
</div>
{{- end}}
<div class="page-number" style="text-align: right; margin-top: 10px; font-size: 12px; color: #666;">頁碼：{{.Meta.PageNumber}} / {{.Meta.TotalPages}}</div>
</div>`

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"displayDate": calendar.FormatDisplayDate,
}).Parse(pageTemplate))

// PageRenderer renders one form page as an HTML fragment.
type PageRenderer struct {
	Form Form
}

func NewPageRenderer(form Form) *PageRenderer {
	return &PageRenderer{Form: form}
}

type pageView struct {
	Form Form
	Meta PageMeta
	Rows []attendance.Report
}

// Render renders rows with the given page metadata. It satisfies RenderFunc.
func (r *PageRenderer) Render(rows []attendance.Report, meta PageMeta) (string, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, pageView{Form: r.Form, Meta: meta, Rows: rows}); err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return buf.String(), nil
}

// RenderPage renders a finished page.
func (r *PageRenderer) RenderPage(p Page) (string, error) {
	return r.Render(p.Rows, p.Meta())
}
