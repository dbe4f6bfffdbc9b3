package errors

import "fmt"

type DriverError interface {
	error
	WithMessage(message string) DriverError
	Wrap(err error) DriverError
}

// -----------------------------------------------------------------------------

type customDriverError struct {
	message       string
	originalError error
	// kind is the DiskoError this error was raised as, so errors.Is can match
	// against the sentinel even after WithMessage/Wrap has boxed it.
	kind DiskoError
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
		kind:          e.kind,
	}
}

func (e customDriverError) Wrap(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
		kind:          e.kind,
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}

// Is lets errors.Is(err, errors.ErrNotFound) succeed against a customDriverError
// produced by ErrNotFound.WithMessage(...) or ErrNotFound.Wrap(...), without
// walking all the way down the Unwrap chain to the original DiskoError value.
func (e customDriverError) Is(target error) bool {
	other, ok := target.(DiskoError)
	return ok && e.kind != "" && other == e.kind
}
