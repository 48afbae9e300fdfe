package review_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/review"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func fixture() []attendance.Record {
	return []attendance.Record{
		{EmployeeID: "100057", Name: "王小明", Date: "1141001", ClockIn: "08:47", ClockOut: "19:45"},
		{EmployeeID: "100057", Name: "王小明", Date: "1141002", AttendanceType: attendance.TypeSick,
			LeaveQuantity: decimal.NewFromFloat(0.5), ClockIn: "13:30", ClockOut: "20:05"},
		{EmployeeID: "100057", Name: "王小明", Date: "1141003", ClockIn: "08:50", ClockOut: "18:10"},
		{EmployeeID: "100057", Name: "王小明", Date: "1141004", ClockIn: "08:56", ClockOut: "17:40"},
		{EmployeeID: "100057", Name: "王小明", Date: "1141006", ClockIn: "09:00", ClockOut: "20:40"},
	}
}

func key(date string) attendance.Key {
	return attendance.Key{EmployeeID: "100057", Date: date}
}

func newTestService(t *testing.T) *review.Service {
	t.Helper()
	svc := review.NewService(review.NewMemory())
	svc.Now = func() time.Time { return time.Date(2025, 11, 5, 9, 0, 0, 0, time.UTC) }
	return svc
}

func importFixture(t *testing.T, svc *review.Service) *review.Batch {
	t.Helper()
	b, err := svc.Import(context.Background(), "ATTEND.TXT", fixture())
	require.NoError(t, err)
	return b
}

func dates(reports []attendance.Report) []string {
	var out []string
	for _, r := range reports {
		out = append(out, r.Date)
	}
	return out
}

// =============================================================================
// IMPORT
// =============================================================================

func TestImport_FiltersAndSelects(t *testing.T) {
	// GIVEN: Five records, one with under half an hour of overtime
	svc := newTestService(t)

	// WHEN
	b := importFixture(t, svc)

	// THEN: The short day is dropped, leave days start deselected
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "ATTEND.TXT", b.SourceName)
	assert.Equal(t, []string{"1141001", "1141002", "1141004", "1141006"}, dates(b.Reports))

	assert.True(t, b.IsSelected(key("1141001")))
	assert.False(t, b.IsSelected(key("1141002")), "leave rows are deselected")
	assert.True(t, b.IsSelected(key("1141004")))

	sick := b.Reports[1]
	assert.Equal(t, "請病假", sick.OvertimeReason)
	assert.Empty(t, b.Reports[0].OvertimeReason)

	stored, err := svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Reports, stored.Reports)
}

func TestImport_ListAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	b := importFixture(t, svc)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].ReportCount)

	require.NoError(t, svc.Delete(ctx, b.ID))
	_, err = svc.Get(ctx, b.ID)
	assert.ErrorIs(t, err, attendance.ErrBatchNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, b.ID), attendance.ErrBatchNotFound)
}

// =============================================================================
// MUTATIONS
// =============================================================================

func TestSetHoliday_RecomputesAndPreservesReason(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	b := importFixture(t, svc)

	// GIVEN: A weekday row with a typed reason
	_, err := svc.SetReason(ctx, b.ID, key("1141006"), "月底結帳")
	require.NoError(t, err)

	// WHEN: The date is flagged as a holiday
	b, err = svc.SetHoliday(ctx, b.ID, "1141006", true)
	require.NoError(t, err)

	// THEN: Rest-day rules apply, no meal allowance, reason kept
	r := b.Reports[b.Index(key("1141006"))]
	assert.True(t, r.IsHoliday)
	assert.True(t, decimal.NewFromFloat(11.5).Equal(r.OvertimeHours), "got %s", r.OvertimeHours)
	assert.Zero(t, r.MealAllowance)
	assert.Equal(t, "09:00 - 20:40", r.OvertimeRange)
	assert.Equal(t, "月底結帳", r.OvertimeReason)
	assert.True(t, b.Holidays["1141006"])

	// WHEN: Unflagged again
	b, err = svc.SetHoliday(ctx, b.ID, "1141006", false)
	require.NoError(t, err)

	// THEN: Back to weekday values
	r = b.Reports[b.Index(key("1141006"))]
	assert.False(t, r.IsHoliday)
	assert.True(t, decimal.NewFromFloat(2.5).Equal(r.OvertimeHours))
	assert.Equal(t, attendance.MealStipend, r.MealAllowance)
	assert.Equal(t, "18:00 - 20:40", r.OvertimeRange)
	assert.NotContains(t, b.Holidays, "1141006")
}

func TestSetHoliday_UnknownDate(t *testing.T) {
	svc := newTestService(t)
	b := importFixture(t, svc)

	_, err := svc.SetHoliday(context.Background(), b.ID, "1141031", true)
	assert.ErrorIs(t, err, attendance.ErrReportNotFound)
	assert.True(t, attendance.IsNotFound(err))
}

func TestMutations_UnknownBatchOrKey(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	b := importFixture(t, svc)

	_, err := svc.SetReason(ctx, "missing", key("1141001"), "x")
	assert.ErrorIs(t, err, attendance.ErrBatchNotFound)

	_, err = svc.SetSelected(ctx, b.ID, key("1141003"), true)
	assert.ErrorIs(t, err, attendance.ErrReportNotFound, "filtered rows are not addressable")
}

func TestSetReason_AppliesToRepeatedKey(t *testing.T) {
	// GIVEN: A raw export that repeats the same employee and date
	svc := newTestService(t)
	ctx := context.Background()
	rec := attendance.Record{EmployeeID: "100057", Name: "王小明", Date: "1141001", ClockIn: "08:47", ClockOut: "19:45"}
	b, err := svc.Import(ctx, "ATTEND.TXT", []attendance.Record{rec, rec})
	require.NoError(t, err)
	require.Len(t, b.Reports, 2)
	_, err = svc.SetFormFields(ctx, b.ID, "台北總部", "")
	require.NoError(t, err)

	// WHEN: The reason is set once through the shared key
	b, err = svc.SetReason(ctx, b.ID, key("1141001"), "趕工")
	require.NoError(t, err)

	// THEN: Both rows carry it and the batch can be exported
	assert.Equal(t, "趕工", b.Reports[0].OvertimeReason)
	assert.Equal(t, "趕工", b.Reports[1].OvertimeReason)
	_, weekday, _, err := svc.Prepare(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, weekday, 2)
}

func TestSelected_SplitsSections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	b := importFixture(t, svc)

	_, err := svc.SetSelected(ctx, b.ID, key("1141002"), true)
	require.NoError(t, err)
	_, err = svc.SetHoliday(ctx, b.ID, "1141006", true)
	require.NoError(t, err)

	weekday, restDay, err := svc.Selected(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1141001", "1141002"}, dates(weekday))
	assert.Equal(t, []string{"1141004", "1141006"}, dates(restDay))
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_ExportRules(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	b := importFixture(t, svc)

	// GIVEN: No work location
	assert.ErrorIs(t, review.Validate(b), attendance.ErrMissingWorkLocation)

	// GIVEN: Location set, three selected rows without reasons
	b, err := svc.SetFormFields(ctx, b.ID, "台北總部", "")
	require.NoError(t, err)
	err = review.Validate(b)
	var missing *attendance.MissingReasonError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []int{1, 2, 3}, missing.Positions)

	// GIVEN: Two reasons filled in
	_, err = svc.SetReason(ctx, b.ID, key("1141001"), "系統上線")
	require.NoError(t, err)
	b, err = svc.SetReason(ctx, b.ID, key("1141006"), "   ")
	require.NoError(t, err)
	_, err = svc.SetReason(ctx, b.ID, key("1141004"), "機房搬遷")
	require.NoError(t, err)

	// THEN: Blank reasons still count as missing, positions among selected rows
	_, _, _, err = svc.Prepare(ctx, b.ID)
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []int{3}, missing.Positions)
	assert.Contains(t, err.Error(), "未填寫的記錄：第 3 筆")
	assert.True(t, attendance.IsValidationError(err))

	// WHEN: Everything is filled in
	_, err = svc.SetReason(ctx, b.ID, key("1141006"), "月底結帳")
	require.NoError(t, err)
	b, weekday, restDay, err := svc.Prepare(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "台北總部", b.WorkLocation)
	assert.Len(t, weekday, 2)
	assert.Len(t, restDay, 1)
}

func TestValidate_LeaveRowsNeedNoReason(t *testing.T) {
	b := &review.Batch{
		WorkLocation: "台北",
		Reports: []attendance.Report{{
			Record:        attendance.Record{EmployeeID: "1", Date: "1141002", AttendanceType: attendance.TypeSick},
			OvertimeHours: decimal.NewFromInt(2),
		}},
		Selected: map[attendance.Key]bool{{EmployeeID: "1", Date: "1141002"}: true},
	}
	assert.NoError(t, review.Validate(b))
}

func TestValidate_NothingSelected(t *testing.T) {
	b := &review.Batch{WorkLocation: "台北"}
	assert.ErrorIs(t, review.Validate(b), attendance.ErrNothingSelected)
}
