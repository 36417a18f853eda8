package api

import (
	"fmt"
)

// UpstreamError reports a request the CBC side refused or never answered:
// transport failures, non-2xx statuses and stream descriptors carrying an
// error code. Geo-blocking is the usual cause.
type UpstreamError struct {
	Method     string
	URL        string
	StatusCode int    // HTTP status, zero for transport failures
	ErrorCode  int    // backend error code from a stream descriptor
	Message    string // backend message, if any
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.ErrorCode != 0:
		msg := fmt.Sprintf("stream unavailable (error code %d)", e.ErrorCode)
		if e.Message != "" {
			msg += ": " + e.Message
		}
		return msg
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: server returned status %d", e.Method, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// SchemaError reports a response whose shape no longer matches what the
// client expects, including a missing loader, asset or document element.
type SchemaError struct {
	URL  string
	What string
	Err  error
}

func (e *SchemaError) Error() string {
	msg := e.What
	if e.URL != "" {
		msg = fmt.Sprintf("%s: %s", e.URL, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

func schemaErrorf(url string, format string, args ...any) *SchemaError {
	return &SchemaError{URL: url, What: fmt.Sprintf(format, args...)}
}
