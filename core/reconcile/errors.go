package reconcile

import "fmt"

// StatusError is a non-success response from a platform API. It is
// always fatal for the run; the body excerpt gives the operator enough
// context to diagnose without re-running in a debug mode.
type StatusError struct {
	Platform   string
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s %s returned %d", e.Platform, e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}
