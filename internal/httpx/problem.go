package httpx

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"
)

// Problem is an RFC 9457 problem+json body with extensions:
//   - code: stable business code (e.g., ErrOtpExpired)
//   - context: extra payload (e.g., the validation fields map)
//   - requestId: propagated from chi middleware.RequestID
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Errors []*huma.ErrorDetail `json:"errors,omitempty"`

	Code      string `json:"code,omitempty"`
	Context   any    `json:"context,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (p *Problem) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	if p.Title != "" {
		return p.Title
	}
	return http.StatusText(p.GetStatus())
}

// GetStatus implements huma.StatusError.
func (p *Problem) GetStatus() int {
	if p.Status == 0 {
		return http.StatusInternalServerError
	}
	return p.Status
}

// ContentType implements huma.ContentTypeFilter.
func (p *Problem) ContentType(ct string) string {
	switch ct {
	case "application/json":
		return "application/problem+json"
	case "application/cbor":
		return "application/problem+cbor"
	}
	return ct
}

// DomainProblem is satisfied by domainerr.DomainError and validation.ValidationError.
type DomainProblem interface {
	ProblemCode() string
	ProblemStatus() int
	ProblemTitle() string
	ProblemDetail() string
	ProblemTypeURI() string
	ProblemContext() any
}

// fieldProblem is implemented by validation errors to expose per-field messages.
type fieldProblem interface {
	Fields() map[string][]string
}

// ToProblem converts any error into a Problem:
//   - huma.StatusError values pass through unchanged.
//   - DomainProblem values are mapped field by field.
//   - context deadline errors become 504, cancellations 499.
//   - anything else becomes a generic 500.
func ToProblem(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if _, ok := err.(huma.StatusError); ok {
		return err
	}

	var dp DomainProblem
	if errors.As(err, &dp) {
		status := dp.ProblemStatus()
		p := &Problem{
			Type:      dp.ProblemTypeURI(),
			Title:     dp.ProblemTitle(),
			Status:    status,
			Detail:    dp.ProblemDetail(),
			Code:      dp.ProblemCode(),
			Context:   dp.ProblemContext(),
			RequestID: middleware.GetReqID(ctx),
		}
		if p.Title == "" {
			p.Title = http.StatusText(status)
		}
		if p.Detail == "" {
			p.Detail = http.StatusText(status)
		}
		if fp, ok := dp.(fieldProblem); ok {
			p.Errors = fieldErrors(fp.Fields())
		}
		return p
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Problem{
			Type:      "urn:problem:timeout",
			Title:     http.StatusText(http.StatusGatewayTimeout),
			Status:    http.StatusGatewayTimeout,
			Detail:    "The request timed out. Please try again.",
			Code:      "ErrTimeout",
			RequestID: middleware.GetReqID(ctx),
		}
	case errors.Is(err, context.Canceled):
		return &Problem{
			Type:      "urn:problem:cancelled",
			Title:     "Client Closed Request",
			Status:    499,
			Detail:    "The request was cancelled.",
			Code:      "ErrCancelled",
			RequestID: middleware.GetReqID(ctx),
		}
	}

	return InternalProblem(ctx, "")
}

// InternalProblem builds a generic 500 problem. An empty detail uses a safe default.
func InternalProblem(ctx context.Context, detail string) *Problem {
	if detail == "" {
		detail = "Something went wrong. Please try again later."
	}
	return &Problem{
		Type:      "urn:problem:internal",
		Title:     http.StatusText(http.StatusInternalServerError),
		Status:    http.StatusInternalServerError,
		Detail:    detail,
		Code:      "ErrInternal",
		RequestID: middleware.GetReqID(ctx),
	}
}

// UnauthorizedProblem builds the 401 returned for a missing or invalid bearer token.
func UnauthorizedProblem(ctx context.Context, detail string) *Problem {
	return &Problem{
		Type:      "urn:problem:session/err-unauthorized",
		Title:     http.StatusText(http.StatusUnauthorized),
		Status:    http.StatusUnauthorized,
		Detail:    detail,
		Code:      "ErrUnauthorized",
		RequestID: middleware.GetReqID(ctx),
	}
}

func fieldErrors(fields map[string][]string) []*huma.ErrorDetail {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []*huma.ErrorDetail
	for _, name := range names {
		for _, msg := range fields[name] {
			out = append(out, &huma.ErrorDetail{Location: "body." + name, Message: msg})
		}
	}
	return out
}
