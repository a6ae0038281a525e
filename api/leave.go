package api

import (
	"context"
	"net/http"

	"github.com/warp/hrdesk/notify"
	"github.com/warp/hrdesk/timeoff"
)

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// ListLeave handles GET /api/leave?employee_id=&type=&status=&from=&to=
func (h *Handler) ListLeave(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicLeave)
	q := r.URL.Query()
	from, err := queryDate(r, "from")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	list, err := h.Leave.List(r.Context(), timeoff.Filter{
		EmployeeID: q.Get("employee_id"),
		Type:       timeoff.LeaveType(q.Get("type")),
		Status:     timeoff.RequestStatus(q.Get("status")),
		From:       from,
		To:         to,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toLeaveRequestDTO))
}

// SubmitLeave handles POST /api/leave
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var in timeoff.SubmitInput
	if !decode(w, r, &in) {
		return
	}
	req, err := h.Leave.Submit(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(*req))
}

// GetLeave handles GET /api/leave/{id}
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	req, err := h.Leave.Get(r.Context(), pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*req))
}

// ApproveLeave handles POST /api/leave/{id}/approve
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Leave.Approve)
}

// RejectLeave handles POST /api/leave/{id}/reject
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Leave.Reject)
}

// CancelLeave handles POST /api/leave/{id}/cancel
func (h *Handler) CancelLeave(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Leave.Cancel)
}

type decision func(ctx context.Context, id, note string) (*timeoff.LeaveRequest, error)

// decide applies a decision. The body is optional.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn decision) {
	var body DecisionRequest
	if r.ContentLength != 0 && !decode(w, r, &body) {
		return
	}
	req, err := fn(r.Context(), pathID(r), body.Note)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(*req))
}

// GetLeaveBalance handles GET /api/employees/{id}/leave/balance?type=&year=
// type defaults to annual, year to the leave year containing today.
func (h *Handler) GetLeaveBalance(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicLeave)
	leaveType := timeoff.LeaveType(r.URL.Query().Get("type"))
	if leaveType == "" {
		leaveType = timeoff.LeaveAnnual
	}
	year, err := queryInt(r, "year", h.Leave.CurrentYear())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	bal, err := h.Leave.Balance(r.Context(), pathID(r), leaveType, year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveBalanceDTO(bal))
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// ListHolidays handles GET /api/holidays?branch=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicLeave)
	list, err := h.Leave.ListHolidays(r.Context(), r.URL.Query().Get("branch"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toHolidayDTO))
}

// CreateHoliday handles POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var in timeoff.HolidayInput
	if !decode(w, r, &in) {
		return
	}
	hol, err := h.Leave.CreateHoliday(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(*hol))
}

// AddDefaultHolidays handles POST /api/holidays/defaults with {"year": 2025}.
// A missing year means the current one.
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	var body DefaultHolidaysRequest
	if r.ContentLength != 0 && !decode(w, r, &body) {
		return
	}
	if body.Year == 0 {
		body.Year = h.now().Year()
	}
	added, err := h.Leave.AddDefaults(r.Context(), body.Year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"year": body.Year, "added": added})
}

// DeleteHoliday handles DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Leave.DeleteHoliday(r.Context(), pathID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
