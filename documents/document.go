/*
Package documents tracks employee documents that expire.

PURPOSE:
  Right-to-work checks, DBS certificates, visas, driving licences and
  training certificates all lapse. Each document carries an optional expiry
  date and is classified against today:

    no_expiry  no expiry date recorded
    expired    expiry date is before today
    expiring   expiry within the warning window (default 30 days, inclusive)
    valid      otherwise

  A background sweep recomputes the expiring/expired set and tells open
  dashboards when it changes, so a document crossing into "expired" at
  midnight shows up without anyone touching it.

SEE ALSO:
  - documents/scheduler.go: ExpiryScheduler
  - settings/: document_warning_days overrides the window
*/
package documents

import (
	"context"
	"time"

	"github.com/warp/hrdesk/generic"
)

// Type is a kind of document.
type Type string

const (
	TypePassport            Type = "passport"
	TypeVisa                Type = "visa"
	TypeRightToWork         Type = "right_to_work"
	TypeDBS                 Type = "dbs"
	TypeDrivingLicence      Type = "driving_licence"
	TypeTrainingCertificate Type = "training_certificate"
	TypeContract            Type = "contract"
	TypeOther               Type = "other"
)

// Types lists every document type.
var Types = []Type{
	TypePassport, TypeVisa, TypeRightToWork, TypeDBS,
	TypeDrivingLicence, TypeTrainingCertificate, TypeContract, TypeOther,
}

// Document is one stored document.
type Document struct {
	ID         string
	EmployeeID string
	Type       Type
	Reference  string
	IssuedOn   generic.TimePoint // zero when unknown
	ExpiresOn  generic.TimePoint // zero when the document never expires
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ExpiryStatus is a document's standing on a given day.
type ExpiryStatus string

const (
	StatusValid    ExpiryStatus = "valid"
	StatusExpiring ExpiryStatus = "expiring"
	StatusExpired  ExpiryStatus = "expired"
	StatusNoExpiry ExpiryStatus = "no_expiry"
)

// DefaultWarningDays is the expiring window when no setting overrides it.
const DefaultWarningDays = 30

// Status classifies the document on today.
func (d Document) Status(today generic.TimePoint, warnDays int) ExpiryStatus {
	if d.ExpiresOn.IsZero() {
		return StatusNoExpiry
	}
	switch left := d.DaysUntilExpiry(today); {
	case left < 0:
		return StatusExpired
	case left <= warnDays:
		return StatusExpiring
	default:
		return StatusValid
	}
}

// DaysUntilExpiry is negative once expired. Zero when there is no expiry.
func (d Document) DaysUntilExpiry(today generic.TimePoint) int {
	if d.ExpiresOn.IsZero() {
		return 0
	}
	return generic.DaysBetween(today, d.ExpiresOn)
}

// Filter narrows List. Status is applied after loading since it depends on today.
type Filter struct {
	EmployeeID string
	Type       Type
	Status     ExpiryStatus
}

// Repository persists documents.
type Repository interface {
	SaveDocument(ctx context.Context, d Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	// ListDocuments orders by expiry date, documents without one last.
	ListDocuments(ctx context.Context, employeeID string, docType Type) ([]Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// Input is the writable part of a document.
type Input struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=passport visa right_to_work dbs driving_licence training_certificate contract other"`
	Reference  string `json:"reference" validate:"max=200"`
	IssuedOn   string `json:"issued_on" validate:"omitempty,datetime=2006-01-02"`
	ExpiresOn  string `json:"expires_on" validate:"omitempty,datetime=2006-01-02"`
	Notes      string `json:"notes" validate:"max=2000"`
}
