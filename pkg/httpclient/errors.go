package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// RequestError is the single error kind returned by APIClient. Network
// failures, non-2xx responses and undecodable bodies all surface as one.
type RequestError struct {
	Method string
	URL    string

	// StatusCode is 0 when the request failed before a response arrived.
	StatusCode int
	// Status is the status text, e.g. "Not Found".
	Status string

	// Message is the human-readable reason, also returned by Error.
	Message string

	// Body is the decoded error body of a non-2xx response, if it was JSON.
	Body any

	Err error
}

func (e *RequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "request failed"
}

func (e *RequestError) Unwrap() error { return e.Err }

// AsRequestError extracts a *RequestError from err.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	re, ok := AsRequestError(err)
	return ok && re.StatusCode == code
}

// newStatusError builds the error for a non-2xx response. The message is,
// in order: the JSON body's "message" field, the status text when the body
// is not JSON, otherwise "HTTP error <code>".
func newStatusError(method, url string, code int, statusLine string, body []byte) *RequestError {
	text := statusText(code, statusLine)
	re := &RequestError{
		Method:     method,
		URL:        url,
		StatusCode: code,
		Status:     text,
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		parsed = map[string]any{"message": text}
	} else {
		re.Body = parsed
	}

	if msg := messageField(parsed); msg != "" {
		re.Message = msg
	} else {
		re.Message = fmt.Sprintf("HTTP error %d", code)
	}
	return re
}

// messageField returns the "message" member of a JSON object when it holds a
// non-empty value.
func messageField(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	switch m := obj["message"].(type) {
	case string:
		return m
	case float64:
		if m != 0 {
			return strconv.FormatFloat(m, 'f', -1, 64)
		}
	case bool:
		if m {
			return "true"
		}
	case nil:
	default:
		if raw, err := json.Marshal(m); err == nil {
			return string(raw)
		}
	}
	return ""
}

// statusText strips the numeric code from a status line like "404 Not Found".
func statusText(code int, statusLine string) string {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(statusLine), strconv.Itoa(code)))
	if text == "" {
		text = http.StatusText(code)
	}
	return text
}
