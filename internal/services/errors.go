package services

import (
	"errors"
	"fmt"
)

// GuardRejection is an expected, user-facing refusal: wrong role, wrong
// state, unauthorized. It is relayed to the invoking user ephemerally and
// never escalated to operators.
type GuardRejection struct {
	Reason string
}

func (e *GuardRejection) Error() string { return e.Reason }

func rejectf(format string, args ...interface{}) *GuardRejection {
	return &GuardRejection{Reason: fmt.Sprintf(format, args...)}
}

// AsGuardRejection unwraps err to a GuardRejection if there is one.
func AsGuardRejection(err error) (*GuardRejection, bool) {
	var gr *GuardRejection
	if errors.As(err, &gr) {
		return gr, true
	}
	return nil, false
}

// CollaboratorError wraps a chat-platform or spreadsheet API failure.
// Already-committed state transitions are not rolled back on these; they
// are logged and escalated to the operator channel.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
