package api

import (
	"context"
	"net/http"

	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/users"
)

type userKey struct{}

// UserFrom returns the authenticated user, if any.
func UserFrom(ctx context.Context) (*users.User, bool) {
	u, ok := ctx.Value(userKey{}).(*users.User)
	return u, ok
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="hrdesk", charset="UTF-8"`)
}

// authenticate resolves HTTP basic credentials to an active user and records
// them as the actor for audit entries.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok {
			challenge(w)
			writeError(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		u, err := h.Users.Authenticate(r.Context(), email, password)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, u)
		ctx = generic.WithActor(ctx, u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission rejects users whose role lacks any of perms.
func RequirePermission(perms ...users.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFrom(r.Context())
			if !ok {
				challenge(w)
				writeError(w, http.StatusUnauthorized, "Authentication required", nil)
				return
			}
			for _, p := range perms {
				if !u.Can(p) {
					writeError(w, http.StatusForbidden, "Forbidden", "missing permission "+string(p))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
