package workflow

import "errors"

// Decision is a guard outcome: allowed, or denied with a typed reason.
// Guards never panic or return bare errors; Fire turns the first denial
// into its returned error.
type Decision struct {
	reason error
}

var errDenied = errors.New("transition denied")

func Allow() Decision { return Decision{} }

// Deny rejects the transition. A nil reason is replaced by a generic one so
// a denial can never read as allowed.
func Deny(reason error) Decision {
	if reason == nil {
		reason = errDenied
	}
	return Decision{reason: reason}
}

func (d Decision) Allowed() bool { return d.reason == nil }

// Reason is nil for allowed decisions.
func (d Decision) Reason() error { return d.reason }
