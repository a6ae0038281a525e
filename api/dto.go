/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the external API contract: dates are plain
  YYYY-MM-DD strings, decimals are strings, and password hashes never leave
  the server.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients that have no service input
  - *Response: Complex response wrappers

  Most request bodies are the service input types themselves
  (employees.Input, tracking.RecordInput, ...). They carry validator tags
  and are checked by the service, not here.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/hrdesk/compliance"
	"github.com/warp/hrdesk/documents"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/recruitment"
	"github.com/warp/hrdesk/timeoff"
	"github.com/warp/hrdesk/tracking"
	"github.com/warp/hrdesk/users"
)

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// BalanceShortfallDTO details a rejected leave request.
type BalanceShortfallDTO struct {
	LeaveType string `json:"leave_type"`
	Available string `json:"available"`
	Requested string `json:"requested"`
}

func dateString(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.String()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Branch    string    `json:"branch"`
	JobTitle  string    `json:"job_title"`
	HireDate  string    `json:"hire_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toEmployeeDTO(e employees.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		Branch:    e.Branch,
		JobTitle:  e.JobTitle,
		HireDate:  dateString(e.HireDate),
		Status:    string(e.Status),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// =============================================================================
// COMPLIANCE
// =============================================================================

// TrackerDTO represents a compliance tracker.
type TrackerDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Frequency      string    `json:"frequency"`
	CurrentPeriod  string    `json:"current_period"`
	PeriodsPerYear int       `json:"periods_per_year"`
	CreatedAt      time.Time `json:"created_at"`
}

func toTrackerDTO(t tracking.Tracker, now time.Time) TrackerDTO {
	return TrackerDTO{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Frequency:      string(t.Frequency),
		CurrentPeriod:  string(compliance.CurrentPeriod(t.Frequency, now)),
		PeriodsPerYear: t.Frequency.PeriodsPerYear(),
		CreatedAt:      t.CreatedAt,
	}
}

// RecordDTO represents a stored completion record.
type RecordDTO struct {
	ID         string    `json:"id"`
	TrackerID  string    `json:"tracker_id"`
	EmployeeID string    `json:"employee_id"`
	Period     string    `json:"period"`
	Completion string    `json:"completion"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toRecordDTO(r tracking.Record) RecordDTO {
	return RecordDTO{
		ID:         r.ID,
		TrackerID:  r.TrackerID,
		EmployeeID: r.EmployeeID,
		Period:     string(r.Period),
		Completion: r.Completion,
		Status:     string(r.Status),
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// BoundsDTO is the calendar range of a period.
type BoundsDTO struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Fallback bool   `json:"fallback"`
}

func toBoundsDTO(b compliance.Bounds) BoundsDTO {
	return BoundsDTO{
		Start:    b.Start.Format("2006-01-02"),
		End:      b.End.Format("2006-01-02"),
		Fallback: b.Fallback,
	}
}

// RecordResponse is a written record plus the range it was checked against.
type RecordResponse struct {
	Record  RecordDTO `json:"record"`
	Bounds  BoundsDTO `json:"bounds"`
	Warning string    `json:"warning,omitempty"`
}

func toRecordResponse(res *tracking.RecordResult) RecordResponse {
	return RecordResponse{Record: toRecordDTO(res.Record), Bounds: toBoundsDTO(res.Bounds), Warning: res.Warning}
}

// RosterRowDTO is one employee's standing for a period.
type RosterRowDTO struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Branch     string `json:"branch"`
	Status     string `json:"status"`
	RecordID   string `json:"record_id,omitempty"`
	Completion string `json:"completion,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// BranchSummaryDTO is one branch's completion.
type BranchSummaryDTO struct {
	Branch    string `json:"branch"`
	Total     int    `json:"total"`
	Compliant int    `json:"compliant"`
	Percent   string `json:"percent"`
}

// RosterSummaryDTO tallies a roster.
type RosterSummaryDTO struct {
	Total     int                `json:"total"`
	Compliant int                `json:"compliant"`
	Overdue   int                `json:"overdue"`
	Due       int                `json:"due"`
	Pending   int                `json:"pending"`
	Percent   string             `json:"percent"`
	Branches  []BranchSummaryDTO `json:"branches"`
}

// RosterResponse is a classified roster.
type RosterResponse struct {
	Tracker TrackerDTO       `json:"tracker"`
	Period  string           `json:"period"`
	Bounds  BoundsDTO        `json:"bounds"`
	Overdue bool             `json:"overdue"`
	Rows    []RosterRowDTO   `json:"rows"`
	Summary RosterSummaryDTO `json:"summary"`
}

func toRosterResponse(r *tracking.Roster, recordIDs map[string]string, now time.Time) RosterResponse {
	rows := make([]RosterRowDTO, len(r.Statuses))
	for i, rs := range r.Statuses {
		row := RosterRowDTO{
			EmployeeID: rs.Person.ID,
			Name:       rs.Person.Name,
			Branch:     rs.Person.Branch,
			Status:     string(rs.Status),
			RecordID:   recordIDs[rs.Person.ID],
		}
		if rs.Record != nil {
			row.Completion = rs.Record.Completion.String()
			row.Notes = rs.Record.Notes
		}
		rows[i] = row
	}

	branches := make([]BranchSummaryDTO, len(r.Summary.Branches))
	for i, b := range r.Summary.Branches {
		branches[i] = BranchSummaryDTO{Branch: b.Branch, Total: b.Total, Compliant: b.Compliant, Percent: b.Percent.String()}
	}

	return RosterResponse{
		Tracker: toTrackerDTO(r.Tracker, now),
		Period:  string(r.Period),
		Bounds:  toBoundsDTO(r.Bounds),
		Overdue: r.Overdue,
		Rows:    rows,
		Summary: RosterSummaryDTO{
			Total:     r.Summary.Total,
			Compliant: r.Summary.Compliant,
			Overdue:   r.Summary.Overdue,
			Due:       r.Summary.Due,
			Pending:   r.Summary.Pending,
			Percent:   r.Summary.CompletionPercent().String(),
			Branches:  branches,
		},
	}
}

// PeriodDTO is one row of a tracker's period listing.
type PeriodDTO struct {
	Period            string `json:"period"`
	Year              int    `json:"year"`
	RecordCount       int    `json:"record_count"`
	CompletedCount    int    `json:"completed_count"`
	CompletionRate    string `json:"completion_rate"`
	IsCurrent         bool   `json:"is_current"`
	ArchiveDue        string `json:"archive_due,omitempty"`
	DownloadAvailable bool   `json:"download_available"`
}

func toPeriodDTO(p compliance.PeriodSummary) PeriodDTO {
	dto := PeriodDTO{
		Period:            string(p.Period),
		Year:              p.Year,
		RecordCount:       p.RecordCount,
		CompletedCount:    p.CompletedCount,
		CompletionRate:    p.CompletionRate.String(),
		IsCurrent:         p.IsCurrent,
		DownloadAvailable: p.DownloadAvailable,
	}
	if p.ArchiveDue != nil {
		dto.ArchiveDue = p.ArchiveDue.Format("2006-01-02")
	}
	return dto
}

// CurrentPeriodDTO answers GET /api/compliance/current.
type CurrentPeriodDTO struct {
	Frequency string    `json:"frequency"`
	Period    string    `json:"period"`
	Bounds    BoundsDTO `json:"bounds"`
	AsOf      string    `json:"as_of"`
}

// PeriodBoundsDTO answers GET /api/compliance/bounds.
type PeriodBoundsDTO struct {
	Frequency string    `json:"frequency"`
	Period    string    `json:"period"`
	Valid     bool      `json:"valid"`
	Bounds    BoundsDTO `json:"bounds"`
	Overdue   bool      `json:"overdue"`
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// DocumentDTO is a document with its expiry standing.
type DocumentDTO struct {
	ID              string    `json:"id"`
	EmployeeID      string    `json:"employee_id"`
	Type            string    `json:"type"`
	Reference       string    `json:"reference"`
	IssuedOn        string    `json:"issued_on"`
	ExpiresOn       string    `json:"expires_on"`
	Notes           string    `json:"notes"`
	Status          string    `json:"status"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toDocumentDTO(d documents.Document, status documents.ExpiryStatus, days int) DocumentDTO {
	return DocumentDTO{
		ID:              d.ID,
		EmployeeID:      d.EmployeeID,
		Type:            string(d.Type),
		Reference:       d.Reference,
		IssuedOn:        dateString(d.IssuedOn),
		ExpiresOn:       dateString(d.ExpiresOn),
		Notes:           d.Notes,
		Status:          string(status),
		DaysUntilExpiry: days,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toDocumentDTOs(entries []documents.Entry) []DocumentDTO {
	out := make([]DocumentDTO, len(entries))
	for i, e := range entries {
		out[i] = toDocumentDTO(e.Document, e.Status, e.DaysUntilExpiry)
	}
	return out
}

// =============================================================================
// LEAVE
// =============================================================================

// LeaveRequestDTO represents a leave request.
type LeaveRequestDTO struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employee_id"`
	Type         string     `json:"type"`
	StartDate    string     `json:"start_date"`
	EndDate      string     `json:"end_date"`
	Days         string     `json:"days"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	DecidedBy    string     `json:"decided_by,omitempty"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	DecisionNote string     `json:"decision_note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toLeaveRequestDTO(r timeoff.LeaveRequest) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		Type:         string(r.Type),
		StartDate:    r.StartDate.String(),
		EndDate:      r.EndDate.String(),
		Days:         r.Days.Value.String(),
		Reason:       r.Reason,
		Status:       string(r.Status),
		DecidedBy:    r.DecidedBy,
		DecidedAt:    r.DecidedAt,
		DecisionNote: r.DecisionNote,
		CreatedAt:    r.CreatedAt,
	}
}

// LeaveBalanceDTO is an allowance standing for one leave year.
type LeaveBalanceDTO struct {
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
	YearStart  string `json:"year_start"`
	YearEnd    string `json:"year_end"`
	Unlimited  bool   `json:"unlimited"`
	Allowance  string `json:"allowance"`
	Taken      string `json:"taken"`
	Pending    string `json:"pending"`
	Remaining  string `json:"remaining"`
}

func toLeaveBalanceDTO(b *timeoff.Balance) LeaveBalanceDTO {
	return LeaveBalanceDTO{
		EmployeeID: b.EmployeeID,
		Type:       string(b.Type),
		YearStart:  b.Year.Start.String(),
		YearEnd:    b.Year.End.String(),
		Unlimited:  b.Unlimited,
		Allowance:  b.Allowance.Value.String(),
		Taken:      b.Taken.Value.String(),
		Pending:    b.Pending.Value.String(),
		Remaining:  b.Remaining.Value.String(),
	}
}

// DecisionRequest carries an optional note for approve/reject/cancel.
type DecisionRequest struct {
	Note string `json:"note"`
}

// HolidayDTO represents a holiday.
type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Branch    string `json:"branch"`
	Recurring bool   `json:"recurring"`
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name, Branch: h.Branch, Recurring: h.Recurring}
}

// DefaultHolidaysRequest selects the year to add bank holidays for.
type DefaultHolidaysRequest struct {
	Year int `json:"year"`
}

// =============================================================================
// RECRUITMENT
// =============================================================================

// ApplicationDTO represents a job application.
type ApplicationDTO struct {
	ID          string    `json:"id"`
	Position    string    `json:"position"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Branch      string    `json:"branch"`
	CoverLetter string    `json:"cover_letter"`
	Source      string    `json:"source"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes"`
	EmployeeID  string    `json:"employee_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toApplicationDTO(a recruitment.Application) ApplicationDTO {
	return ApplicationDTO{
		ID:          a.ID,
		Position:    a.Position,
		Name:        a.Name,
		Email:       a.Email,
		Phone:       a.Phone,
		Branch:      a.Branch,
		CoverLetter: a.CoverLetter,
		Source:      a.Source,
		Status:      string(a.Status),
		Notes:       a.Notes,
		EmployeeID:  a.EmployeeID,
		SubmittedAt: a.SubmittedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// ApplicationReceiptDTO is all the public intake form gets back.
type ApplicationReceiptDTO struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// HireResponse is the hired application and the new employee.
type HireResponse struct {
	Application ApplicationDTO `json:"application"`
	Employee    EmployeeDTO    `json:"employee"`
}

// =============================================================================
// USERS, SETTINGS, AUDIT
// =============================================================================

// UserDTO represents a dashboard account. The password hash is never sent.
type UserDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserDTO(u users.User) UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role), Active: u.Active, CreatedAt: u.CreatedAt}
}

// PasswordRequest sets a new password.
type PasswordRequest struct {
	Password string `json:"password"`
}

// SettingRequest sets one setting.
type SettingRequest struct {
	Value string `json:"value"`
}

// AuditEntryDTO represents one audit entry.
type AuditEntryDTO struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Subject   string         `json:"subject"`
	SubjectID string         `json:"subject_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func toAuditEntryDTO(e generic.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		ActorID:   e.ActorID,
		Action:    string(e.Action),
		Subject:   e.Subject,
		SubjectID: e.SubjectID,
		Payload:   e.Payload,
	}
}

// ChangesResponse reports every topic's version.
type ChangesResponse struct {
	Versions map[string]int64 `json:"versions"`
	Total    int64            `json:"total"`
}

// mapSlice converts a slice with fn.
func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
