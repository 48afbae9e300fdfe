/*
Package parser converts attendance exports into attendance.Record values.

PURPOSE:
  The time clock produces two formats: a fixed-width text dump meant for
  printing, and a 7-column CSV. Both become the same []attendance.Record so
  the rules engine never knows where a day came from.

FORMATS:
  .txt  Fixed-width dump, see text.go for the block state machine
  .csv  員工編號,姓名,歸屬日期,考勤別,數量,上班時間,下班時間

KEY FEATURES:
  - Deterministic: identical input yields an identical ordered slice
  - Only malformed files fail (attendance.FormatError); noisy blocks and
    short CSV rows are skipped
  - Tolerates a UTF-8 BOM and CRLF line endings

USAGE:
  records, err := parser.Parse(header.Filename, file)
  if errors.Is(err, attendance.ErrInvalidFormat) {
      // show err to the user
  }

SEE ALSO:
  - attendance/errors.go: FormatError
  - overtime/report.go: Next stage
*/
package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/warp/overtime-engine/attendance"
)

// Format identifies an attendance export format.
type Format string

const (
	FormatText Format = "txt"
	FormatCSV  Format = "csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat picks the format from a file name, case-insensitively.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return FormatText, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q (請上傳 TXT 或 CSV 格式的檔案)", attendance.ErrUnsupportedFormat, filename)
}

// Parse reads r according to the format implied by filename.
func Parse(filename string, r io.Reader) ([]attendance.Record, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	default:
		return ParseText(r)
	}
}

func readContent(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return bytes.TrimPrefix(data, utf8BOM), nil
}
