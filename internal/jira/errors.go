package jira

import "fmt"

// Kind classifies an Error for retry and presentation decisions.
type Kind int

const (
	// KindNetwork covers transport-level failures: DNS, TLS, refused
	// connections, broken bodies.
	KindNetwork Kind = iota
	// KindAuthentication covers 401/403 responses and credential
	// problems. Never retried.
	KindAuthentication
	// KindValidation covers caller-supplied input rejected before a
	// request is made. Never retried.
	KindValidation
	// KindAPI covers non-2xx server responses other than auth failures.
	KindAPI
	// KindConfig covers configuration problems discovered at runtime.
	KindConfig
	// KindParse covers response decoding failures; the message names
	// the offending field.
	KindParse
	// KindInternal covers not-yet-implemented paths.
	KindInternal
	// KindIO covers local I/O failures, treated as transient.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindAPI:
		return "api"
	case KindConfig:
		return "config"
	case KindParse:
		return "parse"
	case KindInternal:
		return "internal"
	case KindIO:
		return "io"
	}
	return "unknown"
}

// Error is the one error type the API layer produces. StatusCode is
// populated for KindAPI and KindAuthentication errors that came from an
// HTTP response.
type Error struct {
	Kind       Kind
	Msg        string
	StatusCode int
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.cause }

// ErrKind returns the Kind of err when it is an *Error, or KindInternal
// otherwise.
func ErrKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternal
}

func errNetwork(msg string, cause error) *Error {
	return &Error{Kind: KindNetwork, Msg: msg, cause: cause}
}

func errAuth(msg string) *Error {
	return &Error{Kind: KindAuthentication, Msg: msg}
}

func errValidation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func errAPI(status int, body string) *Error {
	return &Error{
		Kind:       KindAPI,
		Msg:        fmt.Sprintf("unexpected response (%d): %s", status, body),
		StatusCode: status,
	}
}

func errConfig(msg string) *Error {
	return &Error{Kind: KindConfig, Msg: msg}
}

func errParse(msg string) *Error {
	return &Error{Kind: KindParse, Msg: msg}
}

func errParsef(format string, args ...any) *Error {
	return &Error{Kind: KindParse, Msg: fmt.Sprintf(format, args...)}
}

func errInternal(msg string) *Error {
	return &Error{Kind: KindInternal, Msg: msg}
}

func errIO(msg string, cause error) *Error {
	return &Error{Kind: KindIO, Msg: msg, cause: cause}
}
