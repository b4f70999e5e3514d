package syncclient

import "github.com/pkg/errors"

// Error is a failed seating call.  Status is zero when the request never
// got a response.  Rejected is set when the payload itself said
// "ok": false, whatever the status.
type Error struct {
	Status   int
	Message  string
	Rejected bool
	Err      error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// IsRejected reports whether err is an application-level rejection.
func IsRejected(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Rejected
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var se *Error
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
