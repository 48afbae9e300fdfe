package parser

import (
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/attendance"
)

// =============================================================================
// FIXED-WIDTH TEXT DUMP
// =============================================================================
//
// A dump looks like this (columns abbreviated):
//
//   員工姓名        歸屬日期      考勤別          刷卡記錄
//   ==========================================================
//   100057 王小明   1141001       空              1141001 08:47  正常
//                                                 1141001 19:45  正常
//   ----------------------------------------------------------
//   100057 王小明   1141002/1     病假/0.5日//... 1141002 13:30  正常
//   ...                ... 接下頁 ...
//
// Each employee-day is a block starting at an identifier line. The parser is a
// two-state machine: scanning (no open block) and accumulating.

const (
	headerNameMarker = "員工姓名"
	headerDateMarker = "歸屬日期"
	pageSeparator    = "===="
	nextPageMarker   = "接下頁"
	recordSeparator  = "---------"
)

var (
	identifierPattern = regexp.MustCompile(`\b(\d{6})[\s\x{3000}]+([\x{4e00}-\x{9fa5}]+)`)
	datePattern       = regexp.MustCompile(`(\d{7})(?:/\d)?`)
	leavePattern      = regexp.MustCompile(`(事假|病假|請年休假|公假)/(\d+(?:\.\d+)?)日`)
	punchPattern      = regexp.MustCompile(`\d{7}[\s\x{3000}]+(\d{2}:\d{2})[\s\x{3000}]+(?:正常|異常)`)
)

type parseState int

const (
	stateScanning parseState = iota
	stateAccumulating
)

type textParser struct {
	state      parseState
	headerSeen bool
	block      []string
	records    []attendance.Record
}

// ParseText parses a fixed-width attendance dump.
func ParseText(r io.Reader) ([]attendance.Record, error) {
	data, err := readContent(r)
	if err != nil {
		return nil, err
	}
	return ParseTextString(string(data))
}

// ParseTextString parses a fixed-width attendance dump held in memory.
//
// Errors are *attendance.FormatError wrapping ErrEmptyInput, ErrMissingHeader
// or ErrNoRecords. Blocks without an employee ID are dropped silently.
func ParseTextString(content string) ([]attendance.Record, error) {
	if strings.TrimSpace(content) == "" {
		return nil, textError(attendance.ErrEmptyInput, "TXT 檔案內容為空，請確認檔案格式是否正確。")
	}

	p := &textParser{}
	for _, line := range strings.Split(content, "\n") {
		p.feed(strings.TrimSuffix(line, "\r"))
	}
	p.flush()

	if !p.headerSeen {
		return nil, textError(attendance.ErrMissingHeader,
			"TXT 檔案格式錯誤：找不到必要的標題行（員工姓名、歸屬日期）。請確認這是正確的出勤刷卡記錄檔案。")
	}
	if len(p.records) == 0 {
		return nil, textError(attendance.ErrNoRecords, "TXT 檔案中沒有找到有效的出勤記錄。請確認檔案內容是否正確。")
	}
	return p.records, nil
}

func textError(sentinel error, msg string) error {
	return &attendance.FormatError{Source: string(FormatText), Message: msg, Err: sentinel}
}

func (p *textParser) feed(line string) {
	switch {
	case isHeaderLine(line):
		p.headerSeen = true

	case isTerminator(line):
		p.flush()

	case p.headerSeen && identifierPattern.MatchString(line):
		// A new identifier implicitly closes the previous block
		p.flush()
		p.block = []string{line}
		p.state = stateAccumulating

	case p.state == stateAccumulating && strings.Contains(line, recordSeparator):
		p.flush()

	case p.state == stateAccumulating:
		p.block = append(p.block, line)
	}
}

// flush closes the open block, if any, and keeps it when it has an employee ID.
func (p *textParser) flush() {
	if p.state == stateAccumulating {
		if rec, ok := extractRecord(p.block); ok {
			p.records = append(p.records, rec)
		}
	}
	p.block = nil
	p.state = stateScanning
}

func isHeaderLine(line string) bool {
	return strings.Contains(line, headerNameMarker) && strings.Contains(line, headerDateMarker)
}

func isTerminator(line string) bool {
	return strings.TrimSpace(line) == "" ||
		strings.Contains(line, pageSeparator) ||
		strings.Contains(line, nextPageMarker)
}

// =============================================================================
// BLOCK EXTRACTION
// =============================================================================

// extractRecord reads identity, date and leave from the first line and the
// punches from every line. Only the first two punches are modeled.
func extractRecord(block []string) (attendance.Record, bool) {
	if len(block) == 0 {
		return attendance.Record{}, false
	}
	first := block[0]

	m := identifierPattern.FindStringSubmatch(first)
	if m == nil {
		return attendance.Record{}, false
	}
	rec := attendance.Record{
		EmployeeID:    m[1],
		Name:          m[2],
		LeaveQuantity: decimal.Zero,
	}

	// The ID has six digits, so the first 7-digit run is the date
	if dm := datePattern.FindStringSubmatch(first); dm != nil {
		rec.Date = dm[1]
	}

	if lm := leavePattern.FindStringSubmatch(first); lm != nil {
		rec.AttendanceType = attendance.AttendanceType(lm[1])
		if q, err := decimal.NewFromString(lm[2]); err == nil {
			rec.LeaveQuantity = q
		}
	}

	var punches []string
	for _, line := range block {
		for _, pm := range punchPattern.FindAllStringSubmatch(line, -1) {
			punches = append(punches, pm[1])
		}
	}
	if len(punches) > 0 {
		rec.ClockIn = punches[0]
	}
	if len(punches) > 1 {
		rec.ClockOut = punches[1]
	}
	return rec, true
}
