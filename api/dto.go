/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal review model from the external API contract:
  - Keys and flags flattened onto each report row
  - Decimal hours rendered as numbers
  - Dates shown both raw and for display

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Batch:
    BatchDTO, BatchSummaryDTO, ReportDTO

  Mutations:
    SetHolidayRequest, SetReasonRequest, SetSelectedRequest, SetFormRequest

  Preview:
    PagesDTO, PageDTO

VALIDATION:
  Validation is done in handlers and the review service, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - review/batch.go: Batch model
*/
package api

import (
	"sort"
	"time"

	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/calendar"
	"github.com/warp/overtime-engine/layout"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/review"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ReportDTO is one reviewed row.
type ReportDTO struct {
	EmployeeID     string  `json:"employee_id"`
	Name           string  `json:"name"`
	Date           string  `json:"date"`
	DisplayDate    string  `json:"display_date"`
	AttendanceType string  `json:"attendance_type"`
	LeaveQuantity  float64 `json:"leave_quantity"`
	ClockIn        string  `json:"clock_in"`
	ClockOut       string  `json:"clock_out"`
	OvertimeHours  float64 `json:"overtime_hours"`
	MealAllowance  int     `json:"meal_allowance"`
	OvertimeRange  string  `json:"overtime_range"`
	OvertimeReason string  `json:"overtime_reason"`
	IsHoliday      bool    `json:"is_holiday"`
	IsRestDay      bool    `json:"is_rest_day"`
	IsLeave        bool    `json:"is_leave"`
	Selected       bool    `json:"selected"`
	NeedsReason    bool    `json:"needs_reason"`
}

// BatchDTO is a review batch with all of its rows.
type BatchDTO struct {
	ID           string      `json:"id"`
	SourceName   string      `json:"source_name"`
	CreatedAt    string      `json:"created_at"`
	WorkLocation string      `json:"work_location"`
	Remarks      string      `json:"remarks"`
	Holidays     []string    `json:"holidays"`
	Reports      []ReportDTO `json:"reports"`
}

// BatchSummaryDTO is a batch in listings.
type BatchSummaryDTO struct {
	ID          string `json:"id"`
	SourceName  string `json:"source_name"`
	CreatedAt   string `json:"created_at"`
	ReportCount int    `json:"report_count"`
}

// SetHolidayRequest flags or unflags one date.
type SetHolidayRequest struct {
	IsHoliday bool `json:"is_holiday"`
}

// SetReasonRequest replaces the reason of one row.
type SetReasonRequest struct {
	Reason string `json:"reason"`
}

// SetSelectedRequest selects or deselects one row.
type SetSelectedRequest struct {
	Selected bool `json:"selected"`
}

// SetFormRequest sets the free-text form fields.
type SetFormRequest struct {
	WorkLocation string `json:"work_location"`
	Remarks      string `json:"remarks"`
}

// PageDTO is one paginated page of the preview.
type PageDTO struct {
	Section     string      `json:"section"`
	PageNumber  int         `json:"page_number"`
	TotalPages  int         `json:"total_pages"`
	IsFirstPage bool        `json:"is_first_page"`
	IsLastPage  bool        `json:"is_last_page"`
	Rows        []ReportDTO `json:"rows"`
	HTML        string      `json:"html,omitempty"`
}

// PagesDTO is the paginated preview of the selected rows.
type PagesDTO struct {
	Weekday       []PageDTO `json:"weekday"`
	RestDay       []PageDTO `json:"rest_day"`
	TotalHours    float64   `json:"total_hours"`
	TotalMeal     int       `json:"total_meal"`
	FileName      string    `json:"file_name"`
	ValidationErr *string   `json:"validation_error,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toReportDTO(r attendance.Report, selected bool) ReportDTO {
	hours, _ := r.OvertimeHours.Float64()
	qty, _ := r.LeaveQuantity.Float64()
	return ReportDTO{
		EmployeeID:     r.EmployeeID,
		Name:           r.Name,
		Date:           r.Date,
		DisplayDate:    calendar.FormatDisplayDate(r.Date),
		AttendanceType: string(r.AttendanceType),
		LeaveQuantity:  qty,
		ClockIn:        r.ClockIn,
		ClockOut:       r.ClockOut,
		OvertimeHours:  hours,
		MealAllowance:  r.MealAllowance,
		OvertimeRange:  r.OvertimeRange,
		OvertimeReason: r.OvertimeReason,
		IsHoliday:      r.IsHoliday,
		IsRestDay:      overtime.IsRestDay(r),
		IsLeave:        r.IsLeaveDay(),
		Selected:       selected,
		NeedsReason:    review.NeedsReason(r),
	}
}

func toBatchDTO(b *review.Batch) BatchDTO {
	dto := BatchDTO{
		ID:           b.ID,
		SourceName:   b.SourceName,
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
		WorkLocation: b.WorkLocation,
		Remarks:      b.Remarks,
		Holidays:     []string{},
	}
	for date, flagged := range b.Holidays {
		if flagged {
			dto.Holidays = append(dto.Holidays, date)
		}
	}
	sort.Strings(dto.Holidays)
	dto.Reports = toReportDTOs(b, b.Reports)
	return dto
}

// toReportDTOs converts a subset of b's reports, keeping b's selection flags.
func toReportDTOs(b *review.Batch, reports []attendance.Report) []ReportDTO {
	dtos := make([]ReportDTO, len(reports))
	for i, r := range reports {
		dtos[i] = toReportDTO(r, b.IsSelected(r.Key()))
	}
	return dtos
}

func toSummaryDTOs(summaries []review.Summary) []BatchSummaryDTO {
	dtos := make([]BatchSummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = BatchSummaryDTO{
			ID:          s.ID,
			SourceName:  s.SourceName,
			CreatedAt:   s.CreatedAt.Format(time.RFC3339),
			ReportCount: s.ReportCount,
		}
	}
	return dtos
}

func toPageDTOs(pages []layout.Page, render func(layout.Page) (string, error)) ([]PageDTO, error) {
	dtos := make([]PageDTO, len(pages))
	for i, p := range pages {
		rows := make([]ReportDTO, len(p.Rows))
		for j, r := range p.Rows {
			rows[j] = toReportDTO(r, true)
		}
		dtos[i] = PageDTO{
			Section:     string(p.Section),
			PageNumber:  p.PageNumber,
			TotalPages:  p.TotalPages,
			IsFirstPage: p.IsFirstPage,
			IsLastPage:  p.IsLastPage,
			Rows:        rows,
		}
		if render != nil {
			markup, err := render(p)
			if err != nil {
				return nil, err
			}
			dtos[i].HTML = markup
		}
	}
	return dtos, nil
}
