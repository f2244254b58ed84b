package detector

import (
	"fmt"
	"strings"
	"time"
)

// TimeoutError means a detection backend did not answer within the client's
// enforced bound. The server side imposes no deadline of its own, so this is
// the only way a hung backend call ends.
type TimeoutError struct {
	Bound time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("detection backend did not respond within %v", e.Bound)
}

// BackendError is a non-success HTTP response from a detection backend
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("detection backend returned %v", e.Status)
	}
	return fmt.Sprintf("detection backend returned %v: %v", e.Status, e.Body)
}

// Attempt records one failed detector in a chain run
type Attempt struct {
	Detector string
	Err      error
}

// FallbackError means every detector in the chain failed
type FallbackError struct {
	Attempts []Attempt
}

func (e *FallbackError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%v: %v", a.Detector, a.Err))
	}
	return "all detectors failed (" + strings.Join(parts, "; ") + ")"
}

// Unwrap exposes the final attempt's error, which is what callers usually
// want to inspect.
func (e *FallbackError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
