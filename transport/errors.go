package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
)

// Error kinds. Concrete errors match these with errors.Is.
var (
	ErrDisposed   = errors.New("session disposed")
	ErrTimeout    = errors.New("no response from device")
	ErrValidation = errors.New("response check failed")
	ErrLinkLost   = errors.New("link lost")
)

// TimeoutError indicates that the device never answered a request, including
// all resends.
type TimeoutError struct {
	Resends int
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no response from device after %d resend attempts (%s)",
		e.Resends, e.Elapsed.Round(time.Millisecond))
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// ValidationError indicates a response that does not start with the expected
// pattern, or is too short to hold the expected payload.
type ValidationError struct {
	Expected []byte
	Got      []byte

	// Reason overrides the default message (optional)
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("response check failed: %s (got [% X])", e.Reason, e.Got)
	}
	return fmt.Sprintf("response check failed: expected prefix [% X], got [% X]", e.Expected, e.Got)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LinkError indicates that the stream failed during an exchange.
type LinkError struct {
	Op  string
	Err error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *LinkError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrLinkLost.
func (e *LinkError) Is(target error) bool {
	return target == ErrLinkLost
}

// CheckPrefix returns a *ValidationError unless resp starts with pattern.
// A response shorter than the pattern never matches.
func CheckPrefix(resp, pattern []byte) error {
	if len(resp) < len(pattern) || !bytes.Equal(resp[:len(pattern)], pattern) {
		return &ValidationError{Expected: pattern, Got: resp}
	}
	return nil
}

// ErrorKind classifies exchange failures.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindDisposed
	KindCancelled
	KindTimeout
	KindValidation
	KindLink
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindDisposed:
		return "disposed"
	case KindCancelled:
		return "cancelled"
	case KindTimeout:
		return "timeout"
	case KindValidation:
		return "validation"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// Classify returns the kind of err. A nil error is KindUnknown.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrDisposed):
		return KindDisposed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrLinkLost):
		return KindLink
	default:
		return KindUnknown
	}
}

// IsCancelled reports whether err comes from cooperative cancellation.
func IsCancelled(err error) bool {
	return Classify(err) == KindCancelled
}
