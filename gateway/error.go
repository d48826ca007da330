// client/gateway/error.go
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches any *Error whose Kind is KindNotFound.
var ErrNotFound = errors.New("gateway: not found")

// Kind classifies a gateway failure.
type Kind int

const (
	// KindTransport means no response reached the client (network, timeout).
	KindTransport Kind = iota
	// KindResponse is a non-2xx status or an undecodable response body.
	KindResponse
	// KindNotFound is a 404 response.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindResponse:
		return "response"
	case KindNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the single failure type returned by Client. Its message prefers
// the backend-provided detail over the underlying error text.
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Op, e.reason())
}

func (e *Error) reason() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Err != nil:
		return e.Err.Error()
	case e.StatusCode != 0:
		return fmt.Sprintf("request failed with status code %d", e.StatusCode)
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Kind == KindNotFound
}

// Message returns the display-ready text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Error()
	}
	return err.Error()
}

func transportError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindTransport, Err: err}
}

func decodeError(op string, status int, err error) *Error {
	return &Error{Op: op, Kind: KindResponse, StatusCode: status, Err: fmt.Errorf("malformed response: %w", err)}
}

func responseError(op string, status int, body []byte) *Error {
	kind := KindResponse
	if status == http.StatusNotFound {
		kind = KindNotFound
	}
	return &Error{Op: op, Kind: kind, StatusCode: status, Detail: detailFrom(body)}
}

// detailFrom extracts a string "detail" field from a JSON error body.
// FastAPI validation errors carry a list there; the first message is used.
func detailFrom(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}
