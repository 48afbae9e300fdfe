package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/parser"
)

// =============================================================================
// FIXTURES
// =============================================================================

const sampleDump = `                       出勤刷卡記錄表
列印日期：1141105                                           第 1 頁
員工姓名          歸屬日期      考勤別                      刷卡記錄
==========================================================================
100057 王小明     1141001       空                          1141001 08:47    正常
                                                            1141001 19:45    正常
--------------------------------------------------------------------------
100057 王小明     1141002/1     病假/0.5日//1141002 - 1141002  1141002 13:30    正常
                                                            1141002 20:05    異常
--------------------------------------------------------------------------
100057 王小明     1141004       空                          1141004 08:56    正常
                                                            1141004 12:10    正常
                                                            1141004 13:02    正常
                                                            1141004 17:40    正常
                               ... 接下頁 ...
員工姓名          歸屬日期      考勤別                      刷卡記錄
==========================================================================
100058 李美玲     1141001       請年休假/1日//1141001 - 1141001
--------------------------------------------------------------------------
`

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestParseText_ExtractsBlocks(t *testing.T) {
	records, err := parser.ParseTextString(sampleDump)
	require.NoError(t, err)
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, "100057", first.EmployeeID)
	assert.Equal(t, "王小明", first.Name)
	assert.Equal(t, "1141001", first.Date)
	assert.Equal(t, attendance.TypeNone, first.AttendanceType)
	assert.True(t, first.LeaveQuantity.IsZero())
	assert.Equal(t, "08:47", first.ClockIn)
	assert.Equal(t, "19:45", first.ClockOut)

	leave := records[1]
	assert.Equal(t, "1141002", leave.Date, "the /1 suffix is not part of the date")
	assert.Equal(t, attendance.TypeSick, leave.AttendanceType)
	assert.True(t, leave.LeaveQuantity.Equal(decimal.NewFromFloat(0.5)))
	assert.Equal(t, "13:30", leave.ClockIn)
	assert.Equal(t, "20:05", leave.ClockOut, "abnormal punches still count")

	noPunch := records[3]
	assert.Equal(t, "100058", noPunch.EmployeeID)
	assert.Equal(t, "李美玲", noPunch.Name)
	assert.Equal(t, attendance.TypeAnnual, noPunch.AttendanceType)
	assert.True(t, noPunch.LeaveQuantity.Equal(decimal.NewFromInt(1)))
	assert.Empty(t, noPunch.ClockIn)
	assert.Empty(t, noPunch.ClockOut)
}

func TestParseText_OnlyFirstTwoPunchesUsed(t *testing.T) {
	// GIVEN: A block with four punch tokens
	// THEN: The first two become clock-in and clock-out

	records, err := parser.ParseTextString(sampleDump)
	require.NoError(t, err)

	sat := records[2]
	assert.Equal(t, "1141004", sat.Date)
	assert.Equal(t, "08:56", sat.ClockIn)
	assert.Equal(t, "12:10", sat.ClockOut)
}

func TestParseText_Idempotent(t *testing.T) {
	a, err := parser.ParseTextString(sampleDump)
	require.NoError(t, err)
	b, err := parser.ParseTextString(sampleDump)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseText_CRLFAndBOM(t *testing.T) {
	crlf := "\ufeff" + strings.ReplaceAll(sampleDump, "\n", "\r\n")
	records, err := parser.ParseText(strings.NewReader(crlf))
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "19:45", records[0].ClockOut)
}

// =============================================================================
// BLOCK BOUNDARIES
// =============================================================================

func TestParseText_NewIdentifierClosesBlock(t *testing.T) {
	// No separator between the two employees
	dump := `員工姓名 歸屬日期
100057 王小明 1141001 空 1141001 08:47 正常
1141001 19:45 正常
100058 李美玲 1141001 空 1141001 09:02 正常
1141001 18:40 正常
`
	records, err := parser.ParseTextString(dump)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "19:45", records[0].ClockOut)
	assert.Equal(t, "09:02", records[1].ClockIn)
	assert.Equal(t, "18:40", records[1].ClockOut)
}

func TestParseText_BlankLineTerminatesBlock(t *testing.T) {
	// The punch after the blank line belongs to no block
	dump := "員工姓名 歸屬日期\n100057 王小明 1141001 空 1141001 08:47 正常\n\n1141001 19:45 正常\n"
	records, err := parser.ParseTextString(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "08:47", records[0].ClockIn)
	assert.Empty(t, records[0].ClockOut)
}

func TestParseText_EOFFinalizesOpenBlock(t *testing.T) {
	dump := "員工姓名 歸屬日期\n100057 王小明 1141001 空 1141001 08:47 正常\n1141001 19:45 正常"
	records, err := parser.ParseTextString(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "19:45", records[0].ClockOut)
}

func TestParseText_IdentifiersBeforeHeaderIgnored(t *testing.T) {
	dump := `100001 測試 1141001 1141001 08:00 正常
員工姓名 歸屬日期
100057 王小明 1141001 空 1141001 08:47 正常
`
	records, err := parser.ParseTextString(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "100057", records[0].EmployeeID)
}

func TestParseText_SevenDigitRunIsNotAnIdentifier(t *testing.T) {
	// "1141001 王" must not be read as ID 141001
	dump := "員工姓名 歸屬日期\n1141001 王小明 備註\n100057 王小明 1141001\n"
	records, err := parser.ParseTextString(dump)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "100057", records[0].EmployeeID)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestParseText_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   \n\t\n"} {
		records, err := parser.ParseTextString(in)
		assert.Nil(t, records)
		assert.ErrorIs(t, err, attendance.ErrEmptyInput)
		assert.ErrorIs(t, err, attendance.ErrInvalidFormat)
	}
}

func TestParseText_MissingHeader(t *testing.T) {
	// GIVEN: Text with identifier lines but no header
	// THEN: FormatError, no records

	dump := "100057 王小明 1141001 空 1141001 08:47 正常\n1141001 19:45 正常\n"
	records, err := parser.ParseTextString(dump)

	assert.Nil(t, records)
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrMissingHeader)
	var fe *attendance.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "txt", fe.Source)
	assert.Contains(t, fe.Message, "找不到必要的標題行")
}

func TestParseText_HeaderNeedsBothMarkers(t *testing.T) {
	_, err := parser.ParseTextString("員工姓名 only\n100057 王小明 1141001\n")
	assert.ErrorIs(t, err, attendance.ErrMissingHeader)
}

func TestParseText_NoRecords(t *testing.T) {
	// Header present, every block is noise
	dump := "員工姓名 歸屬日期\n=====\n-----------\n 1141001 08:47 正常\n"
	records, err := parser.ParseTextString(dump)
	assert.Nil(t, records)
	assert.ErrorIs(t, err, attendance.ErrNoRecords)
	assert.NotErrorIs(t, err, attendance.ErrMissingHeader)
}
