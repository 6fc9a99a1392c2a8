package corpus

import (
	"errors"
	"fmt"
)

// ErrCorpusUnavailable means the corpus is missing, unreadable, malformed, or
// empty at a point where examples are required.
var ErrCorpusUnavailable = errors.New("corpus unavailable")

// UnavailableError describes why a corpus could not be used.
type UnavailableError struct {
	Path   string
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	msg := "corpus unavailable"
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is makes every UnavailableError match ErrCorpusUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrCorpusUnavailable
}
