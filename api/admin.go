package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
	"github.com/warp/hrdesk/settings"
	"github.com/warp/hrdesk/users"
)

// =============================================================================
// USERS
// =============================================================================

// Me handles GET /api/me. The frontend hides what the role cannot do.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	dto := toUserDTO(*u)
	for _, p := range u.Role.Permissions() {
		dto.Permissions = append(dto.Permissions, string(p))
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListUsers handles GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicUsers)
	list, err := h.Users.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toUserDTO))
}

// CreateUser handles POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in users.CreateInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.Users.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(*u))
}

// UpdateUser handles PUT /api/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in users.UpdateInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.Users.Update(r.Context(), pathID(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*u))
}

// DeleteUser handles DELETE /api/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), pathID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetUserPassword handles PUT /api/users/{id}/password
func (h *Handler) SetUserPassword(w http.ResponseWriter, r *http.Request) {
	var body PasswordRequest
	if !decode(w, r, &body) {
		return
	}
	if err := h.Users.SetPassword(r.Context(), pathID(r), body.Password); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SETTINGS
// =============================================================================

// ListSettings handles GET /api/settings
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	h.stamp(w, r, notify.TopicSettings)
	all, err := h.Settings.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// UpdateSetting handles PUT /api/settings/{key}
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	var body SettingRequest
	if !decode(w, r, &body) {
		return
	}
	key := settings.Key(chi.URLParam(r, "key"))
	if err := h.Settings.Set(r.Context(), key, body.Value); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	value, err := h.Settings.Get(r.Context(), key)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": string(key), "value": value})
}

// =============================================================================
// AUDIT
// =============================================================================

// ListAudit handles GET /api/audit?subject=&subject_id=&actor_id=&limit=
// Newest first; limit defaults to 100 and is capped at 1000.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	q := r.URL.Query()
	entries, err := h.Audit.QueryAudit(r.Context(), generic.AuditFilter{
		Subject:   q.Get("subject"),
		SubjectID: q.Get("subject_id"),
		ActorID:   q.Get("actor_id"),
		Limit:     limit,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(entries, toAuditEntryDTO))
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
