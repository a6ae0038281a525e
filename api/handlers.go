/*
handlers.go - Shared handler plumbing for the HR dashboard API

PURPOSE:
  Exposes the domain services over REST. Handlers parse the request, call
  one service method, and serialise the result. No business rule lives in
  this package: validation, workflow and compliance classification all
  happen in the services so the CLI and seed loader get the same behaviour.

ENDPOINTS:
  Grouped by file:
    employees.go    /api/employees, /api/branches
    compliance.go   /api/trackers, /api/records, /api/compliance
    documents.go    /api/documents
    leave.go        /api/leave, /api/holidays, leave balances
    recruitment.go  /api/applications (intake is public)
    admin.go        /api/users, /api/me, /api/settings, /api/audit
    changes.go      /api/changes

REQUEST FLOW:
  1. Auth middleware resolves the user and puts the actor on the context
  2. Permission guard checks the route's permission
  3. Handler decodes, calls the service, encodes
  4. Service errors are mapped to statuses by writeServiceError

ERROR HANDLING:
  Errors are returned as JSON {"error", "details"} with:
  - 400: Validation errors, insufficient leave balance
  - 401: Missing or wrong credentials
  - 403: Role lacks the permission
  - 404: Row not found
  - 409: Uniqueness conflict or disallowed status transition
  - 500: Anything else (details withheld, logged server side)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - changes.go: X-Data-Version generation tokens
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/hrdesk/documents"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
	"github.com/warp/hrdesk/recruitment"
	"github.com/warp/hrdesk/settings"
	"github.com/warp/hrdesk/sheets"
	"github.com/warp/hrdesk/timeoff"
	"github.com/warp/hrdesk/tracking"
	"github.com/warp/hrdesk/users"
	"go.uber.org/zap"
)

// maxUpload caps spreadsheet uploads.
const maxUpload = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Services are the domain services the API exposes.
type Services struct {
	Employees   *employees.Service
	Tracking    *tracking.Service
	Documents   *documents.Service
	Expiry      *documents.ExpiryScheduler // optional; built from Documents when nil
	Leave       *timeoff.Service
	Recruitment *recruitment.Service
	Users       *users.Service
	Settings    *settings.Service
	Audit       generic.AuditLog
	Bus         notify.Bus
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Services
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a handler. logger may be nil.
func NewHandler(s Services, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.Expiry == nil && s.Documents != nil {
		s.Expiry = documents.NewExpiryScheduler(s.Documents, s.Bus, s.Audit, logger, 0)
	}
	return &Handler{Services: s, logger: logger.Named("api"), now: time.Now}
}

// WithClock replaces the clock used for query defaults such as "now".
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// =============================================================================
// RESPONSES
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, details any) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generic.ErrValidation), errors.Is(err, generic.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, generic.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, generic.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, generic.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrConflict), errors.Is(err, generic.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports err with the status its category maps to.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		h.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, status, "Internal server error", nil)
		return
	case http.StatusUnauthorized:
		challenge(w)
	}

	var verr *generic.ValidationError
	if errors.As(err, &verr) {
		writeError(w, status, "Validation failed", verr.Fields)
		return
	}
	var berr *generic.InsufficientBalanceError
	if errors.As(err, &berr) {
		writeError(w, status, "Insufficient balance", BalanceShortfallDTO{
			LeaveType: berr.LeaveType,
			Available: berr.Available.Value.String(),
			Requested: berr.Requested.Value.String(),
		})
		return
	}
	writeError(w, status, http.StatusText(status), err.Error())
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

// decode reads a JSON body into v. It writes the 400 itself and reports false
// on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

func pathID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, generic.NewValidationError(name, "must be a whole number")
	}
	return n, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (generic.TimePoint, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return generic.TimePoint{}, nil
	}
	tp, err := generic.ParseDate(raw)
	if err != nil {
		return generic.TimePoint{}, generic.NewValidationError(name, "must be a date (YYYY-MM-DD)")
	}
	return tp, nil
}

// upload reads the "file" part of a multipart form into a table.
func upload(w http.ResponseWriter, r *http.Request) (*sheets.Table, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, generic.NewValidationError("file", "a spreadsheet upload named \"file\" is required")
	}
	defer file.Close()

	t, err := sheets.Read(header.Filename, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generic.ErrValidation, err)
	}
	return t, nil
}

// writeTable streams a table as CSV or XLSX depending on ?format=.
func (h *Handler) writeTable(w http.ResponseWriter, r *http.Request, name string, t *sheets.Table) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
		if err := sheets.WriteCSV(w, t); err != nil {
			h.logger.Warn("csv export interrupted", zap.Error(err))
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
		if err := sheets.WriteXLSX(w, name, t); err != nil {
			h.logger.Warn("xlsx export interrupted", zap.Error(err))
		}
	default:
		writeError(w, http.StatusBadRequest, "Validation failed",
			[]generic.FieldError{{Field: "format", Message: "must be one of: csv xlsx"}})
	}
}
