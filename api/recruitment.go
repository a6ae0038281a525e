package api

import (
	"net/http"

	"github.com/warp/hrdesk/notify"
	"github.com/warp/hrdesk/recruitment"
)

// SubmitApplication handles the public POST /api/applications. The response
// only acknowledges receipt; applicants never see the stored record.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var in recruitment.SubmitInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.Recruitment.Submit(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ApplicationReceiptDTO{ID: a.ID, SubmittedAt: a.SubmittedAt})
}

// ListApplications handles GET /api/applications?status=&position=&branch=
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicApplications)
	q := r.URL.Query()
	list, err := h.Recruitment.List(r.Context(), recruitment.Filter{
		Status:   recruitment.Status(q.Get("status")),
		Position: q.Get("position"),
		Branch:   q.Get("branch"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toApplicationDTO))
}

// GetApplication handles GET /api/applications/{id}
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	a, err := h.Recruitment.Get(r.Context(), pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*a))
}

// DeleteApplication handles DELETE /api/applications/{id}
func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := h.Recruitment.Delete(r.Context(), pathID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransitionApplication handles POST /api/applications/{id}/transition
func (h *Handler) TransitionApplication(w http.ResponseWriter, r *http.Request) {
	var in recruitment.TransitionInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.Recruitment.Transition(r.Context(), pathID(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*a))
}

// HireApplication handles POST /api/applications/{id}/hire
func (h *Handler) HireApplication(w http.ResponseWriter, r *http.Request) {
	var in recruitment.HireInput
	if !decode(w, r, &in) {
		return
	}
	a, e, err := h.Recruitment.Hire(r.Context(), pathID(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HireResponse{Application: toApplicationDTO(*a), Employee: toEmployeeDTO(*e)})
}
