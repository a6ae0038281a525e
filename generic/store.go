package generic

import (
	"context"
	"time"
)

// =============================================================================
// AUDIT LOG - Tracks who did what when
// =============================================================================

// AuditEntry records who did what when.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	ActorID   string // who performed the action; "system" for background jobs
	Action    AuditAction
	Subject   string // kind of record touched, e.g. "employee"
	SubjectID string
	Payload   map[string]any // action-specific data
}

type AuditAction string

const (
	AuditCreated         AuditAction = "created"
	AuditUpdated         AuditAction = "updated"
	AuditDeleted         AuditAction = "deleted"
	AuditImported        AuditAction = "imported"
	AuditRequestApproved AuditAction = "request_approved"
	AuditRequestRejected AuditAction = "request_rejected"
	AuditRequestCanceled AuditAction = "request_canceled"
	AuditStatusChanged   AuditAction = "status_changed"
	AuditExpirySweep     AuditAction = "expiry_sweep"
)

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

// AuditFilter narrows an audit query. Zero values match everything.
type AuditFilter struct {
	Subject   string
	SubjectID string
	ActorID   string
	Limit     int
}

// =============================================================================
// ACTOR - Who is calling a service
// =============================================================================

type actorKey struct{}

// SystemActor is recorded for background jobs and CLI imports.
const SystemActor = "system"

// WithActor attaches the acting user's ID to ctx.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFrom returns the acting user's ID, or SystemActor.
func ActorFrom(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey{}).(string); ok && id != "" {
		return id
	}
	return SystemActor
}

// Record appends an audit entry if log is non-nil. Audit failures never
// fail the caller's operation.
func Record(ctx context.Context, log AuditLog, action AuditAction, subject, subjectID string, payload map[string]any) {
	if log == nil {
		return
	}
	_ = log.AppendAudit(ctx, AuditEntry{
		Timestamp: time.Now().UTC(),
		ActorID:   ActorFrom(ctx),
		Action:    action,
		Subject:   subject,
		SubjectID: subjectID,
		Payload:   payload,
	})
}
