/*
errors.go - Error taxonomy for the overtime pipeline

PURPOSE:
  All error types in one place. Only malformed input is fatal; everything
  else degrades locally so a large batch survives isolated bad rows.

ERROR CATEGORIES:
  1. FormatError - Malformed file or header. Aborts that file, no partial output.
  2. ClassificationFallback - Unparseable date/time. Not an error value at all:
     overtime and allowance silently become zero.
  3. NoisyBlockDiscard - Text block without an employee ID. Dropped silently.
  4. Review errors - Missing batch/report, export validation.

USAGE:
    records, err := parser.ParseText(r)
    if errors.Is(err, attendance.ErrMissingHeader) {
        ...
    }

SEE ALSO:
  - parser/text.go, parser/csv.go: Raise FormatError
  - review/service.go: Raises review errors
  - api/handlers.go: Maps errors to HTTP status
*/
package attendance

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidFormat is the root of every FormatError.
	ErrInvalidFormat = errors.New("invalid attendance file format")

	// ErrEmptyInput is returned when the uploaded content is blank.
	ErrEmptyInput = errors.New("input is empty")

	// ErrMissingHeader is returned when no header line was found.
	ErrMissingHeader = errors.New("header line not found")

	// ErrNoRecords is returned when parsing succeeded but nothing was extracted.
	ErrNoRecords = errors.New("no attendance records found")

	// ErrUnknownAttendanceType is returned for a value outside the allow-list.
	ErrUnknownAttendanceType = errors.New("unknown attendance type")

	// ErrUnsupportedFormat is returned for files that are neither TXT nor CSV.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrBatchNotFound is returned when a review batch doesn't exist.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrReportNotFound is returned when no report matches a Key.
	ErrReportNotFound = errors.New("report not found")

	// ErrMissingWorkLocation is returned when exporting without a work location.
	ErrMissingWorkLocation = errors.New("work location is required")

	// ErrMissingReason is returned when a selected overtime row has no reason.
	ErrMissingReason = errors.New("overtime reason is required")

	// ErrNothingSelected is returned when exporting an empty selection.
	ErrNothingSelected = errors.New("no reports selected")

	// ErrInvalidFilter is returned for a report filter bound that is not a date.
	ErrInvalidFilter = errors.New("invalid report filter")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FormatError describes malformed input. Message is user facing.
type FormatError struct {
	Source  string // "txt" or "csv"
	Line    int    // 1-based, 0 when not tied to a line
	Message string
	Err     error // Sentinel, e.g. ErrMissingHeader
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %s", e.Source, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// Unwrap exposes both the specific sentinel and ErrInvalidFormat.
func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidFormat}
	}
	return []error{e.Err, ErrInvalidFormat}
}

// MissingReasonError lists the 1-based positions of selected rows lacking a reason.
type MissingReasonError struct {
	Positions []int
}

func (e *MissingReasonError) Error() string {
	parts := make([]string, len(e.Positions))
	for i, p := range e.Positions {
		parts[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("請先填寫所有記錄的加班原因。未填寫的記錄：第 %s 筆", strings.Join(parts, ", "))
}

func (e *MissingReasonError) Unwrap() error {
	return ErrMissingReason
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrInvalidFilter) ||
		IsValidationError(err)
}

// IsValidationError returns true if an export was refused for incomplete review.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingWorkLocation) ||
		errors.Is(err, ErrMissingReason) ||
		errors.Is(err, ErrNothingSelected)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBatchNotFound) ||
		errors.Is(err, ErrReportNotFound)
}
