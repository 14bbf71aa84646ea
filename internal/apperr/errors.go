package apperr

import "errors"

// Error kinds. Callers match them with errors.Is; the HTTP layer maps each
// kind to a status code and writes the message as {"error": ...}.
var (
	ErrValidation        = errors.New("validation failed")
	ErrCredentialSigning = errors.New("credential signing failed")
	ErrUpstream          = errors.New("upstream request failed")
	ErrUnavailable       = errors.New("service not configured")
	ErrRateLimited       = errors.New("rate limited")
)

// Error carries a kind plus the message surfaced to clients.
// Msg wins over Err when both are set.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

// Upstream wraps a collaborator failure; the collaborator's message is kept verbatim.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrUpstream, Err: err}
}

func Signing(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrCredentialSigning, Err: err}
}

func Unavailable(msg string) error {
	return &Error{Kind: ErrUnavailable, Msg: msg}
}

func RateLimited(msg string) error {
	return &Error{Kind: ErrRateLimited, Msg: msg}
}
