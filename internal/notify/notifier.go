package notify

import (
	"context"
	"errors"
)

// Kind selects the email template.
type Kind string

const (
	// KindWelcome greets a new signup and carries the verification link.
	KindWelcome Kind = "welcome"
	// KindReset carries a password reset link.
	KindReset Kind = "reset"
	// KindApproved tells an applicant their site application was accepted.
	KindApproved Kind = "approved"
)

// Message is a single transactional email. ActionURL is only set for welcome
// and reset messages; SiteTitle only for approvals.
type Message struct {
	To        string
	FirstName string
	Kind      Kind
	ActionURL string
	SiteTitle string
}

// ErrSendFailed wraps any delivery failure. Callers treat it as reportable,
// never as fatal to state already committed.
var ErrSendFailed = errors.New("failed to send email")

// Notifier delivers transactional email. Implementations must not retry
// indefinitely; a single reported failure is the contract.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
