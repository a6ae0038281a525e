package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/warp/hrdesk/compliance"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
	"github.com/warp/hrdesk/tracking"
)

// =============================================================================
// TRACKERS
// =============================================================================

// ListTrackers handles GET /api/trackers
func (h *Handler) ListTrackers(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicCompliance)
	list, err := h.Tracking.ListTrackers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	now := h.now()
	writeJSON(w, http.StatusOK, mapSlice(list, func(t tracking.Tracker) TrackerDTO { return toTrackerDTO(t, now) }))
}

// CreateTracker handles POST /api/trackers
func (h *Handler) CreateTracker(w http.ResponseWriter, r *http.Request) {
	var in tracking.TrackerInput
	if !decode(w, r, &in) {
		return
	}
	t, err := h.Tracking.CreateTracker(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTrackerDTO(*t, h.now()))
}

// GetTracker handles GET /api/trackers/{id}
func (h *Handler) GetTracker(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tracking.GetTracker(r.Context(), pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrackerDTO(*t, h.now()))
}

// DeleteTracker handles DELETE /api/trackers/{id}. Records go with it.
func (h *Handler) DeleteTracker(w http.ResponseWriter, r *http.Request) {
	if err := h.Tracking.DeleteTracker(r.Context(), pathID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPeriods handles GET /api/trackers/{id}/periods
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicCompliance, notify.TopicEmployees)
	periods, err := h.Tracking.Periods(r.Context(), pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(periods, toPeriodDTO))
}

// GetRoster handles GET /api/trackers/{id}/roster?period=&branch=
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicCompliance, notify.TopicEmployees)
	roster, ids, err := h.roster(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRosterResponse(roster, ids, h.now()))
}

// ExportRoster handles GET /api/trackers/{id}/roster/export?period=&format=
func (h *Handler) ExportRoster(w http.ResponseWriter, r *http.Request) {
	roster, _, err := h.roster(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeTable(w, r, "roster-"+string(roster.Period), tracking.ExportTable(roster))
}

func (h *Handler) roster(r *http.Request) (*tracking.Roster, map[string]string, error) {
	q := r.URL.Query()
	roster, err := h.Tracking.Roster(r.Context(), pathID(r), tracking.RosterQuery{
		Period: compliance.PeriodID(strings.TrimSpace(q.Get("period"))),
		Branch: q.Get("branch"),
	})
	if err != nil {
		return nil, nil, err
	}
	ids, err := h.Tracking.RecordIDs(r.Context(), roster.Tracker.ID, roster.Period)
	if err != nil {
		return nil, nil, err
	}
	return roster, ids, nil
}

// =============================================================================
// RECORDS
// =============================================================================

// ListRecords handles GET /api/trackers/{id}/records?period=&employee_id=
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicCompliance)
	q := r.URL.Query()
	list, err := h.Tracking.ListRecords(r.Context(), pathID(r), tracking.RecordFilter{
		Period:     compliance.PeriodID(q.Get("period")),
		EmployeeID: q.Get("employee_id"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toRecordDTO))
}

// AddRecord handles POST /api/trackers/{id}/records
func (h *Handler) AddRecord(w http.ResponseWriter, r *http.Request) {
	var in tracking.RecordInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.Tracking.AddRecord(r.Context(), pathID(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordResponse(res))
}

// UpdateRecord handles PUT /api/records/{id}
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var in tracking.RecordUpdate
	if !decode(w, r, &in) {
		return
	}
	res, err := h.Tracking.UpdateRecord(r.Context(), pathID(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(res))
}

// DeleteRecord handles DELETE /api/records/{id}
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.Tracking.DeleteRecord(r.Context(), pathID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportRecords handles POST /api/trackers/{id}/records/import?period=
// (multipart "file"). period is used for rows without a period column.
func (h *Handler) ImportRecords(w http.ResponseWriter, r *http.Request) {
	table, err := upload(w, r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	period := compliance.PeriodID(strings.TrimSpace(r.URL.Query().Get("period")))
	res, err := h.Tracking.ImportRecords(r.Context(), pathID(r), table, period)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// PERIOD CALCULATOR
// =============================================================================

// CurrentPeriod handles GET /api/compliance/current?frequency=&now=
func (h *Handler) CurrentPeriod(w http.ResponseWriter, r *http.Request) {
	freq, err := queryFrequency(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	now, err := h.queryNow(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	id := compliance.CurrentPeriod(freq, now)
	writeJSON(w, http.StatusOK, CurrentPeriodDTO{
		Frequency: string(freq),
		Period:    string(id),
		Bounds:    toBoundsDTO(compliance.PeriodBounds(freq, id, now)),
		AsOf:      now.Format("2006-01-02"),
	})
}

// PeriodBounds handles GET /api/compliance/bounds?frequency=&period=&now=
// Unresolvable periods answer 200 with the fallback range and valid=false.
func (h *Handler) PeriodBounds(w http.ResponseWriter, r *http.Request) {
	freq, err := queryFrequency(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	now, err := h.queryNow(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	id := compliance.PeriodID(strings.TrimSpace(r.URL.Query().Get("period")))
	if id == "" {
		h.writeServiceError(w, r, generic.NewValidationError("period", "is required"))
		return
	}
	writeJSON(w, http.StatusOK, PeriodBoundsDTO{
		Frequency: string(freq),
		Period:    string(id),
		Valid:     compliance.ValidPeriod(freq, id),
		Bounds:    toBoundsDTO(compliance.PeriodBounds(freq, id, now)),
		Overdue:   compliance.IsOverdue(id, freq, now),
	})
}

func queryFrequency(r *http.Request) (compliance.Frequency, error) {
	freq, err := compliance.ParseFrequency(r.URL.Query().Get("frequency"))
	if err != nil {
		return "", generic.NewValidationError("frequency", "must be one of: annual monthly quarterly bi-annual weekly")
	}
	return freq, nil
}

// queryNow reads ?now= as a date or RFC 3339 timestamp, defaulting to the
// handler clock.
func (h *Handler) queryNow(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("now"))
	if raw == "" {
		return h.now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	tp, err := generic.ParseDate(raw)
	if err != nil {
		return time.Time{}, generic.NewValidationError("now", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	return tp.Time, nil
}
