package core

import "github.com/pkg/errors"

// sentinel errors shared across transports; mailers wrap these so the sender
// can pick a retry policy without knowing the provider.
var (
	// ErrAuthFailed means the provider rejected our credentials. Retrying
	// cannot help; the send fails immediately.
	ErrAuthFailed = errors.New("provider authentication failed")

	// ErrRelayNotReady means the relay account is not provisioned yet. This
	// condition can take tens of minutes to self-resolve, so retries back off
	// much longer than for generic transient failures.
	ErrRelayNotReady = errors.New("relay not yet provisioned")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
