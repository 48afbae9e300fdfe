/*
Package attendance defines the data model shared by every stage of the pipeline.

PURPOSE:
  Parsers emit Records, the rules engine turns each Record into a Report, the
  review session edits Reports, and the paginator and document writers consume
  them. Keeping the types here lets those packages depend on data only.

KEY CONCEPTS IN THIS FILE (types.go):
  - AttendanceType: the leave kind recorded for a day (or none)
  - Record: one employee-day as read from an attendance export
  - Report: a Record plus computed overtime, meal allowance and reason
  - Key: (EmployeeID, Date), the stable identity of a record

DESIGN PRINCIPLES:
  1. Identity by Key, never by list position
  2. Precision: quantities use decimal.Decimal
  3. Reports never change AttendanceType or LeaveQuantity after creation

SEE ALSO:
  - errors.go: Error taxonomy
  - overtime/rules.go: Record -> Report
*/
package attendance

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ATTENDANCE TYPE - Leave kind recorded for the day
// =============================================================================

type AttendanceType string

const (
	TypeNone     AttendanceType = ""
	TypePersonal AttendanceType = "事假"
	TypeSick     AttendanceType = "病假"
	TypeAnnual   AttendanceType = "請年休假"
	TypeOfficial AttendanceType = "公假"
)

// NoneLabel is how tabular exports spell "no leave".
const NoneLabel = "空"

// LeaveTypes lists the recognized leave kinds in display order.
var LeaveTypes = []AttendanceType{TypePersonal, TypeSick, TypeAnnual, TypeOfficial}

// ParseAttendanceType maps an export value onto the allow-list.
// "空" and "" both mean no leave.
func ParseAttendanceType(s string) (AttendanceType, bool) {
	switch s {
	case "", NoneLabel:
		return TypeNone, true
	}
	for _, t := range LeaveTypes {
		if string(t) == s {
			return t, true
		}
	}
	return TypeNone, false
}

// IsLeave reports whether t is one of LeaveTypes.
func (t AttendanceType) IsLeave() bool {
	for _, l := range LeaveTypes {
		if t == l {
			return true
		}
	}
	return false
}

// ReasonSeed is the overtime reason pre-filled for leave days ("請病假").
func (t AttendanceType) ReasonSeed() string {
	if !t.IsLeave() {
		return ""
	}
	return "請" + string(t)
}

// =============================================================================
// RECORD - One employee-day from an attendance export
// =============================================================================

// Key identifies a record across edits and re-filtering.
type Key struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
}

func (k Key) String() string { return k.EmployeeID + "@" + k.Date }

// Record is a raw attendance day. ClockIn/ClockOut are "HH:mm" or empty.
type Record struct {
	EmployeeID     string
	Name           string
	Date           string
	AttendanceType AttendanceType
	LeaveQuantity  decimal.Decimal
	ClockIn        string
	ClockOut       string
}

func (r Record) Key() Key { return Key{EmployeeID: r.EmployeeID, Date: r.Date} }

// HasPunches reports whether both punch fields carry a value.
func (r Record) HasPunches() bool { return r.ClockIn != "" && r.ClockOut != "" }

// =============================================================================
// REPORT - Computed overtime for one record
// =============================================================================

// MealStipend is the fixed meal allowance in currency units.
const MealStipend = 50

type Report struct {
	Record

	OvertimeHours  decimal.Decimal // Multiple of 0.5, never negative
	MealAllowance  int             // 0 or MealStipend
	OvertimeRange  string          // Display window built from raw punches
	OvertimeReason string
	IsHoliday      bool
}

// HoursText renders hours with two decimals, as printed on the form.
func (r Report) HoursText() string { return r.OvertimeHours.StringFixed(2) }

// IsLeaveDay reports whether the day carries a leave attendance type.
func (r Report) IsLeaveDay() bool { return r.AttendanceType.IsLeave() }

// Filter returns the reports for which keep returns true, preserving order.
func Filter(reports []Report, keep func(Report) bool) []Report {
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Totals sums hours and allowance over a slice of reports.
func Totals(reports []Report) (decimal.Decimal, int) {
	hours := decimal.Zero
	meal := 0
	for _, r := range reports {
		hours = hours.Add(r.OvertimeHours)
		meal += r.MealAllowance
	}
	return hours, meal
}
