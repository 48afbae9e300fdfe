/*
handlers.go - HTTP API handlers for the overtime review workflow

PURPOSE:
  Exposes the review pipeline via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the review service, the paginator
  and the document writers.

ENDPOINTS:
  Batches:
    POST   /api/batches                    Upload a TXT or CSV attendance file
    GET    /api/batches                    List batches, newest first
    GET    /api/batches/{id}               Get batch, rows filtered by ?name=&from=&to=
    DELETE /api/batches/{id}               Delete batch

  Review:
    PUT    /api/batches/{id}/holidays/{date}                        Flag a national holiday
    PUT    /api/batches/{id}/reports/{employeeId}/{date}/reason     Edit a reason
    PUT    /api/batches/{id}/reports/{employeeId}/{date}/selected   Select or deselect a row
    PUT    /api/batches/{id}/form                                   Work location and remarks

  Output:
    GET    /api/batches/{id}/pages         Paginated preview of the selection
    GET    /api/batches/{id}/export        Download ?format=xlsx|pdf|html|csv
    POST   /api/convert                    TXT upload to attendance CSV

  Admin:
    POST   /api/reset                      Drop all batches (dev only)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed upload, unsupported format
  - 404: Batch or row not found
  - 422: Export refused, review incomplete
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/export"
	"github.com/warp/overtime-engine/layout"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/parser"
	"github.com/warp/overtime-engine/review"
)

// DefaultMaxUploadBytes caps attendance uploads.
const DefaultMaxUploadBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// ReportSettings are the fixed texts and assets of the printed form.
type ReportSettings struct {
	CompanyName string
	Title       string
	FontPath    string
}

// Resetter drops all stored data.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *review.Service
	Engine    layout.Engine
	MaxHeight float64
	Report    ReportSettings
	Logger    *slog.Logger

	// Resetter is optional; without it /api/reset answers 404.
	Resetter       Resetter
	MaxUploadBytes int64
}

// NewHandler creates a handler over a review service and a measurement engine.
func NewHandler(service *review.Service, engine layout.Engine) *Handler {
	return &Handler{
		Service:        service,
		Engine:         engine,
		MaxHeight:      layout.DefaultMaxPageHeight,
		Report:         ReportSettings{CompanyName: layout.DefaultCompanyName, Title: layout.DefaultFormTitle},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

// =============================================================================
// BATCH HANDLERS
// =============================================================================

// UploadBatch parses the "file" form field and imports it as a new batch.
func (h *Handler) UploadBatch(w http.ResponseWriter, r *http.Request) {
	name, records, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	b, err := h.Service.Import(r.Context(), name, records)
	if err != nil {
		h.fail(w, "Failed to import batch", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBatchDTO(b))
}

// ListBatches returns batch summaries, newest first.
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Service.List(r.Context())
	if err != nil {
		h.fail(w, "Failed to list batches", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTOs(summaries))
}

// GetBatch returns a batch. The optional ?name=&from=&to= query narrows
// the rows shown; selection and export still cover the whole batch.
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := review.ParseFilter(q.Get("name"), q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, "Invalid filter", err)
		return
	}

	b, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get batch", err)
		return
	}
	dto := toBatchDTO(b)
	dto.Reports = toReportDTOs(b, filter.Apply(b.Reports))
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete batch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REVIEW HANDLERS
// =============================================================================

// SetHoliday flags a date as a national holiday and recomputes its rows.
func (h *Handler) SetHoliday(w http.ResponseWriter, r *http.Request) {
	var req SetHolidayRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.Service.SetHoliday(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "date"), req.IsHoliday)
	if err != nil {
		h.fail(w, "Failed to set holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTO(b))
}

func (h *Handler) SetReason(w http.ResponseWriter, r *http.Request) {
	var req SetReasonRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.Service.SetReason(r.Context(), chi.URLParam(r, "id"), reportKey(r), req.Reason)
	if err != nil {
		h.fail(w, "Failed to set reason", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTO(b))
}

func (h *Handler) SetSelected(w http.ResponseWriter, r *http.Request) {
	var req SetSelectedRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.Service.SetSelected(r.Context(), chi.URLParam(r, "id"), reportKey(r), req.Selected)
	if err != nil {
		h.fail(w, "Failed to update selection", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTO(b))
}

func (h *Handler) SetForm(w http.ResponseWriter, r *http.Request) {
	var req SetFormRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.Service.SetFormFields(r.Context(), chi.URLParam(r, "id"), req.WorkLocation, req.Remarks)
	if err != nil {
		h.fail(w, "Failed to update form", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTO(b))
}

// =============================================================================
// OUTPUT HANDLERS
// =============================================================================

// GetPages paginates the current selection without export validation, so
// the preview works while the review is still incomplete.
func (h *Handler) GetPages(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get batch", err)
		return
	}

	weekday, restDay := overtime.SplitSections(b.SelectedReports())
	doc, err := h.paginate(b, weekday, restDay)
	if err != nil {
		h.fail(w, "Failed to paginate", err)
		return
	}

	renderer := layout.NewPageRenderer(doc.Form)
	resp := PagesDTO{FileName: doc.Form.FileName()}
	if resp.Weekday, err = toPageDTOs(doc.Sections.Weekday, renderer.RenderPage); err == nil {
		resp.RestDay, err = toPageDTOs(doc.Sections.RestDay, renderer.RenderPage)
	}
	if err != nil {
		h.fail(w, "Failed to render pages", err)
		return
	}

	hours, meal := attendance.Totals(b.SelectedReports())
	resp.TotalHours, _ = hours.Float64()
	resp.TotalMeal = meal
	if err := review.Validate(b); err != nil {
		resp.ValidationErr = strPtr(err.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

// Export validates the batch and streams the requested document.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, "Unsupported export format", err)
		return
	}

	b, weekday, restDay, err := h.Service.Prepare(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Batch is not ready for export", err)
		return
	}

	doc, err := h.paginate(b, weekday, restDay)
	if err != nil {
		h.fail(w, "Failed to paginate", err)
		return
	}

	// Buffer so a failed writer can still answer with a JSON error.
	var buf bytes.Buffer
	if err := export.Write(&buf, format, doc, export.Options{FontPath: h.Report.FontPath}); err != nil {
		h.fail(w, "Failed to export", err)
		return
	}

	h.Logger.Info("batch exported",
		slog.String("batch", b.ID),
		slog.String("format", string(format)),
		slog.Int("weekday_pages", len(doc.Sections.Weekday)),
		slog.Int("rest_day_pages", len(doc.Sections.RestDay)))
	writeAttachment(w, doc.FileName(format), format.ContentType(), buf.Bytes())
}

// Convert turns an uploaded TXT dump into the attendance CSV.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	name, records, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		h.fail(w, "Failed to convert", err)
		return
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	writeAttachment(w, base+".csv", export.FormatCSV.ContentType(), buf.Bytes())
}

// ResetDatabase clears all batches.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if h.Resetter == nil {
		writeError(w, http.StatusNotFound, "Reset is not available", nil)
		return
	}
	if err := h.Resetter.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) paginate(b *review.Batch, weekday, restDay []attendance.Report) (export.Document, error) {
	form := layout.NewForm(h.Report.CompanyName, h.Report.Title, weekday, restDay, b.WorkLocation, b.Remarks)

	p := layout.NewPaginator(h.Engine, h.MaxHeight)
	p.Logger = h.Logger
	return export.Compose(p, form, weekday, restDay)
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, []attendance.Record, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing upload field \"file\"", err)
		return "", nil, false
	}
	defer file.Close()

	records, err := parser.Parse(header.Filename, file)
	if err != nil {
		h.fail(w, "Failed to parse attendance file", err)
		return "", nil, false
	}
	return header.Filename, records, true
}

func reportKey(r *http.Request) attendance.Key {
	return attendance.Key{EmployeeID: chi.URLParam(r, "employeeId"), Date: chi.URLParam(r, "date")}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// fail maps domain errors to HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	var missing *attendance.MissingReasonError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   err.Error(),
			Code:    "missing_reason",
			Details: missing.Positions,
		})
	case attendance.IsValidationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Code:  "validation_failed",
		})
	case attendance.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case attendance.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeAttachment sends body as a download. The file name is CJK, so it
// goes out as RFC 5987 filename* with an ASCII fallback.
func writeAttachment(w http.ResponseWriter, filename, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(
		"attachment; filename=\"export%s\"; filename*=UTF-8''%s",
		filepath.Ext(filename), url.PathEscape(filename)))
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func strPtr(s string) *string {
	return &s
}
