package model

import "encoding/json"

// Envelope is the response shape shared by every endpoint:
// {code, message?, error?, data?}.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Success reports whether the envelope carries a success sentinel.
// The service answers 0 on some endpoints and 200 on others; both
// must be accepted.
func (e *Envelope) Success() bool {
	return e.Code == 0 || e.Code == 200
}

// ErrorText returns the server's error wording, preferring message over
// the bare error field.
func (e *Envelope) ErrorText() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// LoginData is the payload of a successful login.
type LoginData struct {
	Token string `json:"token"`
}

// CreateTaskData is the payload of a successful job submission.
type CreateTaskData struct {
	JobID string `json:"job_id"`
}
