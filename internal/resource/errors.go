package resource

import "errors"

var (
	// ErrNoSuchRecord indicates the id does not match any loaded record.
	ErrNoSuchRecord = errors.New("no such record")
	// ErrBusy indicates the controller is in a state that does not accept
	// the requested transition.
	ErrBusy = errors.New("operation not allowed in current state")
	// ErrNoDraft indicates submit was called with nothing to send.
	ErrNoDraft = errors.New("no form draft to submit")
)
