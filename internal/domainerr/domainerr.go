// Package domainerr provides the structured error type shared by every module.
package domainerr

import (
	"fmt"
	"net/http"
)

// DomainError is a structured, self-describing domain error used across modules.
// It carries HTTP/RFC7807-friendly metadata so a shared formatter can convert any domain
// error into a Problem response without enumerating error types.
type DomainError struct {
	// Code is a stable, machine-readable business code (e.g., "ErrOtpExpired").
	Code string

	// HTTPStatus is the HTTP status suggested for this error (e.g., 400, 404, 409, 500).
	HTTPStatus int

	// Title is a short human summary; if empty the formatter will default to StatusText(HTTPStatus).
	Title string

	// Message is a human-readable message primarily for logs. When Detail is empty,
	// this is used as the public detail.
	Message string

	// Detail is a user-friendly, safe explanation for clients. If empty, Message is used.
	Detail string

	// TypeURI is an RFC7807 type URI, e.g. "urn:problem:otp/err-otp-expired".
	TypeURI string

	// Context is an optional extension payload for clients.
	Context any

	cause error
}

// New builds a sentinel error. The type URI is derived from the module and code.
func New(module, code string, status int, message string) *DomainError {
	return &DomainError{
		Code:       code,
		HTTPStatus: status,
		Title:      http.StatusText(status),
		Message:    message,
		TypeURI:    "urn:problem:" + module + "/" + kebab(code),
	}
}

func (e *DomainError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap provides compatibility for errors.Is and errors.As on the cause chain.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches on the stable Code rather than pointer identity, so copies created via
// WithCause still match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy wrapping the provided cause.
func (e *DomainError) WithCause(err error) *DomainError {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

// WithDetail returns a copy with a public-friendly detail message.
func (e *DomainError) WithDetail(detail string) *DomainError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithContext returns a copy carrying an extension payload for clients.
func (e *DomainError) WithContext(ctx any) *DomainError {
	cp := *e
	cp.Context = ctx
	return &cp
}

// --- RFC7807 mapping accessors (satisfy httpx.DomainProblem) ---

func (e *DomainError) ProblemCode() string { return e.Code }
func (e *DomainError) ProblemStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}
func (e *DomainError) ProblemTitle() string { return e.Title }
func (e *DomainError) ProblemDetail() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}
func (e *DomainError) ProblemTypeURI() string { return e.TypeURI }
func (e *DomainError) ProblemContext() any    { return e.Context }

// kebab turns ErrOtpExpired into err-otp-expired.
func kebab(code string) string {
	out := make([]rune, 0, len(code)+4)
	for i, r := range code {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out = append(out, '-')
			}
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
