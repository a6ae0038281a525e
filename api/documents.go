package api

import (
	"net/http"

	"github.com/warp/hrdesk/documents"
	"github.com/warp/hrdesk/notify"
)

// ListDocuments handles GET /api/documents?employee_id=&type=&status=
// status=attention returns expired and expiring documents, soonest first.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicDocuments, notify.TopicSettings)
	q := r.URL.Query()

	var (
		list []documents.Entry
		err  error
	)
	if q.Get("status") == "attention" {
		list, err = h.Documents.Expiring(r.Context())
	} else {
		list, err = h.Documents.List(r.Context(), documents.Filter{
			EmployeeID: q.Get("employee_id"),
			Type:       documents.Type(q.Get("type")),
			Status:     documents.ExpiryStatus(q.Get("status")),
		})
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTOs(list))
}

// ListEmployeeDocuments handles GET /api/employees/{id}/documents
func (h *Handler) ListEmployeeDocuments(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicDocuments, notify.TopicSettings)
	if _, err := h.Employees.Get(r.Context(), pathID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	list, err := h.Documents.List(r.Context(), documents.Filter{EmployeeID: pathID(r)})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTOs(list))
}

// DocumentSummary handles GET /api/documents/summary
func (h *Handler) DocumentSummary(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicDocuments, notify.TopicSettings)
	sum, err := h.Documents.Summary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// CreateDocument handles POST /api/documents
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var in documents.Input
	if !decode(w, r, &in) {
		return
	}
	d, err := h.Documents.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.documentDTO(r, *d))
}

// UpdateDocument handles PUT /api/documents/{id}
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var in documents.Input
	if !decode(w, r, &in) {
		return
	}
	d, err := h.Documents.Update(r.Context(), pathID(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.documentDTO(r, *d))
}

// DeleteDocument handles DELETE /api/documents/{id}
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.Documents.Delete(r.Context(), pathID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SweepDocuments handles POST /api/documents/sweep. It runs the expiry
// sweep now instead of waiting for the next tick.
func (h *Handler) SweepDocuments(w http.ResponseWriter, r *http.Request) {
	res, err := h.Expiry.RunNow(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) documentDTO(r *http.Request, d documents.Document) DocumentDTO {
	today := h.Documents.Today()
	return toDocumentDTO(d, d.Status(today, h.Documents.WarningDays(r.Context())), d.DaysUntilExpiry(today))
}
