/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers and guards.

MIDDLEWARE STACK:
  1. RequestID:   Unique ID per request for tracing
  2. RealIP:      Client address from X-Forwarded-For (rate limiting, logs)
  3. Logger:      zap request log
  4. Recoverer:   Panic recovery (500 instead of crash)
  5. Secure:      Browser hardening headers (unrolled/secure)
  6. CORS:        Cross-origin requests for the frontend dev server

ROUTE GROUPS:
  /api/health             Liveness, public
  /api/applications POST  Careers form intake, public and rate limited per IP
  /api/*                  Everything else: basic auth + per-route permission
  /*                      Static files (frontend)

STATIC FILE SERVING:
  In production, serves the built React app from web/dist/.
  Falls back to index.html for client-side routing.

SEE ALSO:
  - handlers.go: Handler plumbing and error mapping
  - auth.go: Basic auth and permission guards
  - cmd/hrdesk/serve.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/hrdesk/users"
)

// Options configure the router.
type Options struct {
	CORSOrigins     []string
	IntakeRateLimit int // public applications per IP per minute
	Production      bool
	StaticDir       string // empty means ./web/dist or next to the executable
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders(opts.Production))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{VersionHeader},
		AllowCredentials: true,
	}))

	perm := RequirePermission

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.With(intakeLimiter(opts.IntakeRateLimit)).Post("/applications", h.SubmitApplication)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/me", h.Me)
			r.Get("/changes", h.Changes)

			// Employee routes
			r.Route("/employees", func(r chi.Router) {
				r.With(perm(users.PermEmployeesRead)).Get("/", h.ListEmployees)
				r.With(perm(users.PermEmployeesWrite)).Post("/", h.CreateEmployee)
				r.With(perm(users.PermEmployeesRead)).Get("/export", h.ExportEmployees)
				r.With(perm(users.PermEmployeesWrite)).Post("/import", h.ImportEmployees)
				r.With(perm(users.PermEmployeesRead)).Get("/{id}", h.GetEmployee)
				r.With(perm(users.PermEmployeesWrite)).Put("/{id}", h.UpdateEmployee)
				r.With(perm(users.PermEmployeesWrite)).Delete("/{id}", h.DeleteEmployee)
				r.With(perm(users.PermDocumentsRead)).Get("/{id}/documents", h.ListEmployeeDocuments)
				r.With(perm(users.PermLeaveRead)).Get("/{id}/leave/balance", h.GetLeaveBalance)
			})
			r.With(perm(users.PermEmployeesRead)).Get("/branches", h.ListBranches)

			// Compliance tracker routes
			r.Route("/trackers", func(r chi.Router) {
				r.With(perm(users.PermComplianceRead)).Get("/", h.ListTrackers)
				r.With(perm(users.PermComplianceWrite)).Post("/", h.CreateTracker)
				r.With(perm(users.PermComplianceRead)).Get("/{id}", h.GetTracker)
				r.With(perm(users.PermComplianceWrite)).Delete("/{id}", h.DeleteTracker)
				r.With(perm(users.PermComplianceRead)).Get("/{id}/periods", h.ListPeriods)
				r.With(perm(users.PermComplianceRead)).Get("/{id}/roster", h.GetRoster)
				r.With(perm(users.PermComplianceRead)).Get("/{id}/roster/export", h.ExportRoster)
				r.With(perm(users.PermComplianceRead)).Get("/{id}/records", h.ListRecords)
				r.With(perm(users.PermComplianceWrite)).Post("/{id}/records", h.AddRecord)
				r.With(perm(users.PermComplianceWrite)).Post("/{id}/records/import", h.ImportRecords)
			})
			r.Route("/records", func(r chi.Router) {
				r.Use(perm(users.PermComplianceWrite))
				r.Put("/{id}", h.UpdateRecord)
				r.Delete("/{id}", h.DeleteRecord)
			})
			r.Route("/compliance", func(r chi.Router) {
				r.Use(perm(users.PermComplianceRead))
				r.Get("/current", h.CurrentPeriod)
				r.Get("/bounds", h.PeriodBounds)
			})

			// Document routes
			r.Route("/documents", func(r chi.Router) {
				r.With(perm(users.PermDocumentsRead)).Get("/", h.ListDocuments)
				r.With(perm(users.PermDocumentsWrite)).Post("/", h.CreateDocument)
				r.With(perm(users.PermDocumentsRead)).Get("/summary", h.DocumentSummary)
				r.With(perm(users.PermDocumentsWrite)).Post("/sweep", h.SweepDocuments)
				r.With(perm(users.PermDocumentsWrite)).Put("/{id}", h.UpdateDocument)
				r.With(perm(users.PermDocumentsWrite)).Delete("/{id}", h.DeleteDocument)
			})

			// Leave routes
			r.Route("/leave", func(r chi.Router) {
				r.With(perm(users.PermLeaveRead)).Get("/", h.ListLeave)
				r.With(perm(users.PermLeaveWrite)).Post("/", h.SubmitLeave)
				r.With(perm(users.PermLeaveRead)).Get("/{id}", h.GetLeave)
				r.With(perm(users.PermLeaveApprove)).Post("/{id}/approve", h.ApproveLeave)
				r.With(perm(users.PermLeaveApprove)).Post("/{id}/reject", h.RejectLeave)
				r.With(perm(users.PermLeaveWrite)).Post("/{id}/cancel", h.CancelLeave)
			})

			// Holiday routes
			r.Route("/holidays", func(r chi.Router) {
				r.With(perm(users.PermLeaveRead)).Get("/", h.ListHolidays)
				r.With(perm(users.PermSettingsWrite)).Post("/", h.CreateHoliday)
				r.With(perm(users.PermSettingsWrite)).Post("/defaults", h.AddDefaultHolidays)
				r.With(perm(users.PermSettingsWrite)).Delete("/{id}", h.DeleteHoliday)
			})

			// Recruitment routes. Registered flat because POST /applications
			// is public and lives outside this group.
			r.With(perm(users.PermRecruitmentRead)).Get("/applications", h.ListApplications)
			r.With(perm(users.PermRecruitmentRead)).Get("/applications/{id}", h.GetApplication)
			r.With(perm(users.PermRecruitmentWrite)).Delete("/applications/{id}", h.DeleteApplication)
			r.With(perm(users.PermRecruitmentWrite)).Post("/applications/{id}/transition", h.TransitionApplication)
			r.With(perm(users.PermRecruitmentWrite, users.PermEmployeesWrite)).Post("/applications/{id}/hire", h.HireApplication)

			// Admin routes
			r.Route("/users", func(r chi.Router) {
				r.Use(perm(users.PermUsersManage))
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Put("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
				r.Put("/{id}/password", h.SetUserPassword)
			})
			r.Get("/settings", h.ListSettings)
			r.With(perm(users.PermSettingsWrite)).Put("/settings/{key}", h.UpdateSetting)
			r.With(perm(users.PermAuditRead)).Get("/audit", h.ListAudit)
		})
	})

	serveStatic(r, opts.StaticDir)
	return r
}

// serveStatic serves the built frontend with an index.html fallback for
// client-side routes.
func serveStatic(r chi.Router, staticDir string) {
	if staticDir == "" {
		staticDir = "./web/dist"
		if _, err := os.Stat(staticDir); os.IsNotExist(err) {
			// Try relative to executable
			exe, _ := os.Executable()
			staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
		}
	}

	if _, err := os.Stat(staticDir); err != nil {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>HR Desk</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>HR Desk API</h1>
<p>The frontend is not built yet. Run <code>cd web && npm install && npm run build</code></p>
<p>The API lives under <code>/api</code> and uses HTTP basic authentication.</p>
</body>
</html>`))
		})
		return
	}

	fileServer := http.FileServer(http.Dir(staticDir))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		fullPath := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			// SPA routing: serve index.html
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
