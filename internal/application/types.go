package application

import (
	"errors"
	"time"
)

// Status is the closed application lifecycle. Accepted and rejected are
// terminal; they never revert.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Application is a single job application: one applicant applying to work one
// site. The name/email/phone triple is a snapshot of the applicant's contact
// details at application time.
type Application struct {
	ID          string `json:"id"`
	SiteID      string `json:"site_id"`
	ApplicantID string `json:"applicant_id"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	Status Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Tombstone. Deleted rows are retained but filtered from every read.
	DeletedAt *time.Time `json:"-"`
	DeletedBy string     `json:"-"`
}

// Deleted reports whether the record carries a tombstone.
func (a *Application) Deleted() bool { return a.DeletedAt != nil }

var (
	ErrNotFound = errors.New("no application found with this ID")

	// ErrSiteNotFound is returned when the referenced site does not exist.
	ErrSiteNotFound = errors.New("no site found with this ID")

	// ErrCapacityExceeded means the site already holds as many non-deleted
	// applications as its required headcount.
	ErrCapacityExceeded = errors.New("the maximum number of applications for this site has been reached")

	// ErrDuplicateApplication means the applicant already holds a non-deleted
	// application for the site.
	ErrDuplicateApplication = errors.New("you have already applied for this site")

	// ErrNoPending is returned by bulk approval when nothing is pending.
	ErrNoPending = errors.New("no applications pending found")

	// ErrAlreadyDecided guards terminal statuses against re-approval.
	ErrAlreadyDecided = errors.New("application has already been decided")

	// ErrNotificationFailed reports an email failure after the state change
	// was durably committed.
	ErrNotificationFailed = errors.New("failed to send approval email")

	ErrInvalidInput = errors.New("invalid application input")
)
