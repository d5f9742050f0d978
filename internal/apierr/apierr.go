package apierr

import "fmt"

// Kind classifies a failure of the client core.
type Kind string

const (
	KindValidation    Kind = "validation"     // client-side, request never sent
	KindNetwork       Kind = "network"        // no response obtained
	KindHTTPStatus    Kind = "http_status"    // non-2xx with an unparseable body
	KindServerMessage Kind = "server_message" // server answered with a mapped message
	KindAuthExpired   Kind = "auth_expired"   // server rejected the credential
	KindParseFailure  Kind = "parse_failure"  // response body was not the expected envelope
	KindTimeout       Kind = "timeout"        // polling ceiling reached
)

// Error is the single failure shape surfaced by the request client,
// submitter and poller.
type Error struct {
	Kind   Kind
	Detail string
	Status int // HTTP status code, when a response was received
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Validation reports a pre-flight validation failure.
func Validation(detail string) *Error {
	return &Error{Kind: KindValidation, Detail: detail}
}

// Network reports a transport-level failure with no response.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Detail: err.Error()}
}

// HTTPStatus reports a non-2xx response whose body carried no usable envelope.
func HTTPStatus(status int, detail string) *Error {
	return &Error{Kind: KindHTTPStatus, Detail: detail, Status: status}
}

// ServerMessage reports a server-provided error message, already mapped
// through the fixed phrase table.
func ServerMessage(detail string) *Error {
	return &Error{Kind: KindServerMessage, Detail: detail}
}

// AuthExpired reports a server-declared invalid or expired credential.
func AuthExpired(detail string) *Error {
	return &Error{Kind: KindAuthExpired, Detail: detail}
}

// ParseFailure reports a response body that could not be decoded.
func ParseFailure(status int, detail string) *Error {
	return &Error{Kind: KindParseFailure, Detail: detail, Status: status}
}

// Timeout reports an exhausted polling budget.
func Timeout(detail string) *Error {
	return &Error{Kind: KindTimeout, Detail: detail}
}

// IsAuthExpired reports whether err carries the auth-expired kind.
func IsAuthExpired(err *Error) bool {
	return err != nil && err.Kind == KindAuthExpired
}
