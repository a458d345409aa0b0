package basis

import (
	"errors"
	"fmt"
)

// ErrNotAvailable is returned for data the legislature has not digitized, eg. the members of the
// 2nd legislature. It is expected and should be treated as zero rows.
var ErrNotAvailable = errors.New("basis: data is not available for this session")

// ServerError is a fault reported by the basis server itself, it is transient.
type ServerError struct {
	Url  string
	Body string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("basis: server fault for %s: %s", e.Url, truncate(e.Body, 300))
}

// MalformedResponseError is a response that could not be decoded, it carries the full payload.
type MalformedResponseError struct {
	Url     string
	Payload string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("basis: malformed response for %s: %v: %s", e.Url, e.Err, truncate(e.Payload, 300))
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// StatusError is an unexpected http status.
type StatusError struct {
	Url    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("basis: unexpected status %d for %s", e.Status, e.Url)
}

// Transient reports whether an error may succeed if the request is made again.
func Transient(err error) bool {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 500 || statusErr.Status == 429
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) || errors.Is(err, ErrNotAvailable) {
		return false
	}
	// network errors
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
