package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrdesk/api"
	"github.com/warp/hrdesk/documents"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/notify"
	"github.com/warp/hrdesk/recruitment"
	"github.com/warp/hrdesk/settings"
	"github.com/warp/hrdesk/store/sqldb"
	"github.com/warp/hrdesk/timeoff"
	"github.com/warp/hrdesk/tracking"
	"github.com/warp/hrdesk/users"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail  = "admin@example.com"
	viewerEmail = "viewer@example.com"
	password    = "password1"
)

type fixture struct {
	t      *testing.T
	router http.Handler
	store  *sqldb.Store
	bus    *notify.Memory
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := sqldb.Open(ctx, sqldb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := notify.NewMemory()
	clock := func() time.Time { return time.Date(2025, time.January, 2, 12, 0, 0, 0, time.UTC) }

	staff := employees.NewService(store, store, bus).WithClock(clock)
	prefs := settings.NewService(store, store, bus, map[settings.Key]string{
		settings.KeyCompanyName:         "Acme Care",
		settings.KeyDocumentWarningDays: "30",
	})
	accounts := users.NewService(store, store, bus).WithCost(bcrypt.MinCost)
	_, err = accounts.Create(ctx, users.CreateInput{Email: adminEmail, Name: "Admin", Role: "admin", Password: password})
	require.NoError(t, err)
	_, err = accounts.Create(ctx, users.CreateInput{Email: viewerEmail, Name: "Viewer", Role: "viewer", Password: password})
	require.NoError(t, err)

	warnDays := func(ctx context.Context) int {
		return prefs.Int(ctx, settings.KeyDocumentWarningDays, documents.DefaultWarningDays)
	}
	h := api.NewHandler(api.Services{
		Employees:   staff,
		Tracking:    tracking.NewService(store, store, store, bus).WithClock(clock),
		Documents:   documents.NewService(store, store, bus, warnDays).WithClock(clock),
		Leave:       timeoff.NewService(store, store, store, bus, timeoff.Options{}).WithClock(clock),
		Recruitment: recruitment.NewService(store, staff, store, bus).WithClock(clock),
		Users:       accounts,
		Settings:    prefs,
		Audit:       store,
		Bus:         bus,
	}, nil).WithClock(clock)

	router := api.NewRouter(h, api.Options{
		CORSOrigins:     []string{"http://localhost:5173"},
		IntakeRateLimit: 2,
		StaticDir:       t.TempDir(),
	})
	return &fixture{t: t, router: router, store: store, bus: bus}
}

// do sends a JSON request as the given user ("" for anonymous).
func (f *fixture) do(method, path, user string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(f.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.SetBasicAuth(user, password)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) admin(method, path string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	return f.do(method, path, adminEmail, body)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (f *fixture) createEmployee(name, branch string) api.EmployeeDTO {
	f.t.Helper()
	rec := f.admin(http.MethodPost, "/api/employees", map[string]string{"name": name, "branch": branch})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[api.EmployeeDTO](f.t, rec)
}

// =============================================================================
// AUTH
// =============================================================================

func TestAuth(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/employees", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	req.SetBasicAuth(adminEmail, "wrong password")
	wrong := httptest.NewRecorder()
	f.router.ServeHTTP(wrong, req)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	rec = f.do(http.MethodGet, "/api/employees", viewerEmail, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/employees", viewerEmail, map[string]string{"name": "X"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/users", viewerEmail, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMe_ListsPermissions(t *testing.T) {
	f := setup(t)
	rec := f.do(http.MethodGet, "/api/me", viewerEmail, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decodeBody[api.UserDTO](t, rec)
	assert.Equal(t, "viewer", me.Role)
	assert.Contains(t, me.Permissions, string(users.PermEmployeesRead))
	assert.NotContains(t, me.Permissions, string(users.PermEmployeesWrite))
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSecureHeaders(t *testing.T) {
	f := setup(t)
	rec := f.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CRUDAndErrors(t *testing.T) {
	f := setup(t)

	rec := f.admin(http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before, err := strconv.Atoi(rec.Header().Get(api.VersionHeader))
	require.NoError(t, err)

	amy := f.createEmployee("Amy Ash", "Leeds")
	assert.Equal(t, "active", amy.Status)

	rec = f.admin(http.MethodGet, "/api/employees?branch=Leeds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	after, _ := strconv.Atoi(rec.Header().Get(api.VersionHeader))
	assert.Greater(t, after, before)
	assert.Len(t, decodeBody[[]api.EmployeeDTO](t, rec), 1)

	// Validation failure names the field
	rec = f.admin(http.MethodPost, "/api/employees", map[string]string{"name": "B", "email": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"email"`)

	// Unknown JSON fields are rejected
	rec = f.admin(http.MethodPost, "/api/employees", map[string]string{"name": "B", "salary": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.admin(http.MethodPut, "/api/employees/"+amy.ID, map[string]string{"name": "Amy Ash", "branch": "York"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "York", decodeBody[api.EmployeeDTO](t, rec).Branch)

	rec = f.admin(http.MethodGet, "/api/branches", nil)
	assert.Equal(t, []string{"York"}, decodeBody[[]string](t, rec))

	rec = f.admin(http.MethodDelete, "/api/employees/"+amy.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.admin(http.MethodGet, "/api/employees/"+amy.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmployees_DuplicateEmailConflicts(t *testing.T) {
	f := setup(t)
	rec := f.admin(http.MethodPost, "/api/employees", map[string]string{"name": "A", "email": "a@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.admin(http.MethodPost, "/api/employees", map[string]string{"name": "B", "email": "A@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEmployees_ImportAndExport(t *testing.T) {
	f := setup(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "staff.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("Name,Email,Branch\nAMY ASH,amy@example.com,Leeds\nBen Birch,bad,Leeds\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/employees/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(adminEmail, password)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeBody[employees.ImportResult](t, rec)
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Line)

	rec = f.admin(http.MethodGet, "/api/employees/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "employees.csv")
	assert.Contains(t, rec.Body.String(), "Name,Email,Branch")
	assert.Contains(t, rec.Body.String(), "Amy Ash,amy@example.com,Leeds")

	rec = f.admin(http.MethodGet, "/api/employees/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PK", rec.Body.String()[:2])

	rec = f.admin(http.MethodGet, "/api/employees/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// COMPLIANCE
// =============================================================================

func TestCompliance_TrackerRecordRoster(t *testing.T) {
	// GIVEN: A quarterly tracker and two Leeds employees, today 2025-01-02
	// WHEN: One employee records a 2024-Q4 completion
	// THEN: The 2024-Q4 roster shows one compliant and one overdue

	f := setup(t)
	amy := f.createEmployee("Amy Ash", "Leeds")
	f.createEmployee("Ben Birch", "Leeds")

	rec := f.admin(http.MethodPost, "/api/trackers", map[string]string{"name": "Supervision", "frequency": "quarterly"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tracker := decodeBody[api.TrackerDTO](t, rec)
	assert.Equal(t, "2025-Q1", tracker.CurrentPeriod)

	base := "/api/trackers/" + tracker.ID
	rec = f.admin(http.MethodPost, base+"/records", map[string]string{
		"employee_id": amy.ID, "period": "2024-Q4", "completion": "2024-11-05",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	record := decodeBody[api.RecordResponse](t, rec)
	assert.Equal(t, "2024-10-01", record.Bounds.Start)
	assert.Equal(t, "2024-12-31", record.Bounds.End)

	// Completion outside the quarter is rejected
	rec = f.admin(http.MethodPost, base+"/records", map[string]string{
		"employee_id": amy.ID, "period": "2024-Q3", "completion": "2024-11-05",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Second record for the same employee and period conflicts
	rec = f.admin(http.MethodPost, base+"/records", map[string]string{
		"employee_id": amy.ID, "period": "2024-Q4", "completion": "N/A",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.admin(http.MethodGet, base+"/roster?period=2024-Q4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	roster := decodeBody[api.RosterResponse](t, rec)
	assert.True(t, roster.Overdue)
	require.Len(t, roster.Rows, 2)
	assert.Equal(t, "compliant", roster.Rows[0].Status)
	assert.Equal(t, record.Record.ID, roster.Rows[0].RecordID)
	assert.Equal(t, "overdue", roster.Rows[1].Status)
	assert.Equal(t, "50", roster.Summary.Percent)

	rec = f.admin(http.MethodGet, base+"/periods", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	periods := decodeBody[[]api.PeriodDTO](t, rec)
	require.NotEmpty(t, periods)
	assert.Equal(t, "2025-Q1", periods[0].Period)
	assert.True(t, periods[0].IsCurrent)

	rec = f.admin(http.MethodGet, base+"/roster/export?period=2024-Q4&format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Amy Ash")

	rec = f.admin(http.MethodPut, "/api/records/"+record.Record.ID, map[string]string{"notes": "signed off"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "signed off", decodeBody[api.RecordResponse](t, rec).Record.Notes)

	rec = f.admin(http.MethodDelete, "/api/records/"+record.Record.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCompliance_PeriodCalculator(t *testing.T) {
	f := setup(t)

	rec := f.admin(http.MethodGet, "/api/compliance/current?frequency=bi-annual&now=2024-07-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cur := decodeBody[api.CurrentPeriodDTO](t, rec)
	assert.Equal(t, "2024-H2", cur.Period)
	assert.Equal(t, "2024-07-01", cur.Bounds.Start)
	assert.Equal(t, "2024-12-31", cur.Bounds.End)

	// Defaults to the handler clock
	rec = f.admin(http.MethodGet, "/api/compliance/current?frequency=yearly", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025", decodeBody[api.CurrentPeriodDTO](t, rec).Period)

	rec = f.admin(http.MethodGet, "/api/compliance/bounds?frequency=monthly&period=2024-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decodeBody[api.PeriodBoundsDTO](t, rec)
	assert.True(t, b.Valid)
	assert.Equal(t, "2024-02-29", b.Bounds.End)
	assert.True(t, b.Overdue)

	rec = f.admin(http.MethodGet, "/api/compliance/bounds?frequency=weekly&period=2025-W01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	b = decodeBody[api.PeriodBoundsDTO](t, rec)
	assert.True(t, b.Bounds.Fallback)
	assert.Equal(t, "2025-01-01", b.Bounds.Start)
	assert.False(t, b.Overdue)

	rec = f.admin(http.MethodGet, "/api/compliance/current?frequency=fortnightly", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.admin(http.MethodGet, "/api/compliance/current?frequency=annual&now=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func TestDocuments_SummaryAndSweep(t *testing.T) {
	f := setup(t)
	amy := f.createEmployee("Amy Ash", "Leeds")

	rec := f.admin(http.MethodPost, "/api/documents", map[string]string{
		"employee_id": amy.ID, "type": "visa", "expires_on": "2025-01-20",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decodeBody[api.DocumentDTO](t, rec)
	assert.Equal(t, "expiring", doc.Status)
	assert.Equal(t, 18, doc.DaysUntilExpiry)

	rec = f.admin(http.MethodGet, "/api/employees/"+amy.ID+"/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]api.DocumentDTO](t, rec), 1)

	rec = f.admin(http.MethodGet, "/api/documents/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decodeBody[documents.Summary](t, rec)
	assert.Equal(t, 1, sum.ByStatus[documents.StatusExpiring])

	rec = f.admin(http.MethodPost, "/api/documents/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sweep := decodeBody[documents.SweepResult](t, rec)
	assert.True(t, sweep.Changed)
	assert.Equal(t, 1, sweep.Expiring)

	// Narrowing the warning window reclassifies without touching the document
	rec = f.admin(http.MethodPut, "/api/settings/document_warning_days", map[string]string{"value": "7"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.admin(http.MethodGet, "/api/documents?status=valid", nil)
	assert.Len(t, decodeBody[[]api.DocumentDTO](t, rec), 1)
}

// =============================================================================
// LEAVE
// =============================================================================

func TestLeave_SubmitApproveBalance(t *testing.T) {
	f := setup(t)
	amy := f.createEmployee("Amy Ash", "Leeds")

	rec := f.admin(http.MethodPost, "/api/leave", map[string]string{
		"employee_id": amy.ID, "type": "annual", "start_date": "2025-01-06", "end_date": "2025-01-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decodeBody[api.LeaveRequestDTO](t, rec)
	assert.Equal(t, "5", req.Days)
	assert.Equal(t, "pending", req.Status)

	rec = f.do(http.MethodPost, "/api/leave/"+req.ID+"/approve", viewerEmail, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.admin(http.MethodPost, "/api/leave/"+req.ID+"/approve", map[string]string{"note": "enjoy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decodeBody[api.LeaveRequestDTO](t, rec)
	assert.Equal(t, "approved", approved.Status)
	assert.NotEmpty(t, approved.DecidedBy)

	rec = f.admin(http.MethodPost, "/api/leave/"+req.ID+"/reject", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.admin(http.MethodGet, "/api/employees/"+amy.ID+"/leave/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bal := decodeBody[api.LeaveBalanceDTO](t, rec)
	assert.Equal(t, "2025-01-01", bal.YearStart)
	assert.Equal(t, "5", bal.Taken)
	assert.Equal(t, "15", bal.Remaining)

	// 16 workdays exceed the 15 left
	rec = f.admin(http.MethodPost, "/api/leave", map[string]string{
		"employee_id": amy.ID, "type": "annual", "start_date": "2025-02-03", "end_date": "2025-02-24",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":"15"`)
}

func TestHolidays_Defaults(t *testing.T) {
	f := setup(t)
	rec := f.admin(http.MethodPost, "/api/holidays/defaults", map[string]int{"year": 2025})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"year":2025,"added":8}`, rec.Body.String())

	rec = f.admin(http.MethodGet, "/api/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]api.HolidayDTO](t, rec), 8)
}

// =============================================================================
// RECRUITMENT
// =============================================================================

func TestApplications_PublicIntakeIsRateLimited(t *testing.T) {
	f := setup(t)
	form := map[string]string{"position": "Carer", "name": "Cal Cedar", "email": "cal@example.com"}

	rec := f.do(http.MethodPost, "/api/applications", "", form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt := decodeBody[api.ApplicationReceiptDTO](t, rec)
	assert.NotEmpty(t, receipt.ID)
	assert.NotContains(t, rec.Body.String(), "cal@example.com")

	rec = f.do(http.MethodPost, "/api/applications", "", form)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(http.MethodPost, "/api/applications", "", form)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = f.do(http.MethodGet, "/api/applications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApplications_TransitionAndHire(t *testing.T) {
	f := setup(t)
	rec := f.do(http.MethodPost, "/api/applications", "", map[string]string{
		"position": "Carer", "name": "Cal Cedar", "email": "cal@example.com", "branch": "York",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[api.ApplicationReceiptDTO](t, rec).ID

	rec = f.admin(http.MethodPost, "/api/applications/"+id+"/transition", map[string]string{"status": "interview"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "interview", decodeBody[api.ApplicationDTO](t, rec).Status)

	rec = f.admin(http.MethodPost, "/api/applications/"+id+"/transition", map[string]string{"status": "new"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.admin(http.MethodPost, "/api/applications/"+id+"/hire", map[string]string{"hire_date": "2025-02-01", "job_title": "Carer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	hired := decodeBody[api.HireResponse](t, rec)
	assert.Equal(t, "hired", hired.Application.Status)
	assert.Equal(t, hired.Employee.ID, hired.Application.EmployeeID)
	assert.Equal(t, "York", hired.Employee.Branch)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestUsers_ManageAndAudit(t *testing.T) {
	f := setup(t)

	rec := f.admin(http.MethodPost, "/api/users", map[string]string{
		"email": "hr@example.com", "name": "Hana", "role": "hr", "password": "password2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	hr := decodeBody[api.UserDTO](t, rec)

	rec = f.admin(http.MethodPut, "/api/users/"+hr.ID+"/password", map[string]string{"password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.admin(http.MethodPut, "/api/users/"+hr.ID, map[string]any{"active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[api.UserDTO](t, rec).Active)

	rec = f.admin(http.MethodGet, "/api/audit?subject=user&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeBody[[]api.AuditEntryDTO](t, rec)
	require.NotEmpty(t, entries)
	assert.Equal(t, hr.ID, entries[0].SubjectID)

	rec = f.admin(http.MethodPut, "/api/settings/unknown_key", map[string]string{"value": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// CHANGES
// =============================================================================

func TestChanges_LongPoll(t *testing.T) {
	f := setup(t)

	rec := f.admin(http.MethodGet, "/api/changes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	start := decodeBody[api.ChangesResponse](t, rec)
	assert.Contains(t, start.Versions, "employees")

	// Nothing new: the poll waits out its window and reports the same total
	rec = f.admin(http.MethodGet, "/api/changes?since="+strconv.FormatInt(start.Total, 10)+"&wait=20ms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, start.Total, decodeBody[api.ChangesResponse](t, rec).Total)

	// A write during the poll releases it early
	done := make(chan api.ChangesResponse)
	go func() {
		rec := f.admin(http.MethodGet, "/api/changes?since="+strconv.FormatInt(start.Total, 10)+"&wait=5s", nil)
		done <- decodeBody[api.ChangesResponse](t, rec)
	}()
	require.Eventually(t, func() bool {
		_, err := f.bus.Publish(context.Background(), notify.TopicEmployees)
		require.NoError(t, err)
		select {
		case resp := <-done:
			return resp.Total > start.Total
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
}
