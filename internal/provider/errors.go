package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies a provider failure for failover.
type Kind int

const (
	// Transient failures (rate limit, timeout, 5xx, network) may succeed elsewhere.
	Transient Kind = iota + 1
	// Fatal failures (auth, invalid request, malformed response) abort failover.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a classified provider failure.
type Error struct {
	Kind       Kind
	Provider   string
	Model      string
	StatusCode int
	Message    string
	// Raw holds the offending payload for malformed responses.
	Raw string
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s: %s error", e.Provider, e.Model, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil && (e.Message == "" || !strings.Contains(e.Message, e.Err.Error())) {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether failover may try another candidate.
func (e *Error) Transient() bool { return e.Kind == Transient }

// IsTransient reports whether err is a transient provider error.
func IsTransient(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == Transient
}

// IsFatal reports whether err is a fatal provider error.
func IsFatal(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == Fatal
}

// KindForStatus maps an HTTP status to a failure kind.
func KindForStatus(status int) Kind {
	switch {
	case status == 408, status == 409, status == 425, status == 429:
		return Transient
	case status >= 500: // includes 529 overloaded
		return Transient
	default:
		return Fatal
	}
}

// StatusError builds a classified error from an HTTP response status.
func StatusError(provider, model string, status int, message string) *Error {
	return &Error{
		Kind:       KindForStatus(status),
		Provider:   provider,
		Model:      model,
		StatusCode: status,
		Message:    message,
	}
}

// MalformedToolCall builds the fatal error for unparseable tool arguments.
func MalformedToolCall(provider, model, tool, raw string, err error) *Error {
	return &Error{
		Kind:     Fatal,
		Provider: provider,
		Model:    model,
		Message:  fmt.Sprintf("malformed arguments for tool %q", tool),
		Raw:      raw,
		Err:      err,
	}
}

var transientMarkers = []string{
	"rate limit",
	"rate_limit",
	"quota",
	"throttl",
	"timeout",
	"timed out",
	"overloaded",
	"temporarily unavailable",
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"tls handshake",
	"unexpected eof",
	"eof",
}

// Classify wraps a transport-level error. Caller cancellation is returned
// unchanged so it is never mistaken for a provider failure. Errors that are
// already classified pass through.
func Classify(ctx context.Context, provider, model string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}

	kind := Fatal
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = Transient
	case errors.As(err, &netErr):
		kind = Transient
	default:
		msg := strings.ToLower(err.Error())
		for _, marker := range transientMarkers {
			if strings.Contains(msg, marker) {
				kind = Transient
				break
			}
		}
	}
	return &Error{Kind: kind, Provider: provider, Model: model, Err: err}
}
