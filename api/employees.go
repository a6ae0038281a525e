package api

import (
	"net/http"

	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/notify"
)

// ListEmployees handles GET /api/employees?branch=&status=&q=
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicEmployees)
	q := r.URL.Query()
	list, err := h.Employees.List(r.Context(), employees.Filter{
		Branch: q.Get("branch"),
		Status: employees.Status(q.Get("status")),
		Search: q.Get("q"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toEmployeeDTO))
}

// CreateEmployee handles POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var in employees.Input
	if !decode(w, r, &in) {
		return
	}
	e, err := h.Employees.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*e))
}

// GetEmployee handles GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Employees.Get(r.Context(), pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*e))
}

// UpdateEmployee handles PUT /api/employees/{id}. The body replaces every
// writable field.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var in employees.Input
	if !decode(w, r, &in) {
		return
	}
	e, err := h.Employees.Update(r.Context(), pathID(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*e))
}

// DeleteEmployee handles DELETE /api/employees/{id}
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Employees.Delete(r.Context(), pathID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBranches handles GET /api/branches
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicEmployees)
	branches, err := h.Employees.Branches(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if branches == nil {
		branches = []string{}
	}
	writeJSON(w, http.StatusOK, branches)
}

// ExportEmployees handles GET /api/employees/export?format=csv|xlsx
func (h *Handler) ExportEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Employees.List(r.Context(), employees.Filter{
		Branch: q.Get("branch"),
		Status: employees.Status(q.Get("status")),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeTable(w, r, "employees", employees.ExportTable(list))
}

// ImportEmployees handles POST /api/employees/import (multipart "file").
// Rows are upserted by email; rejected rows are listed in the response.
func (h *Handler) ImportEmployees(w http.ResponseWriter, r *http.Request) {
	table, err := upload(w, r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	rows, err := employees.FromTable(table)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unrecognised spreadsheet", err.Error())
		return
	}
	res, err := h.Employees.Import(r.Context(), rows)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
