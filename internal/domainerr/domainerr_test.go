package domainerr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesTypeURIAndTitle(t *testing.T) {
	err := New("otp", "ErrOtpExpired", http.StatusGone, "otp has expired")

	assert.Equal(t, "urn:problem:otp/err-otp-expired", err.ProblemTypeURI())
	assert.Equal(t, "Gone", err.ProblemTitle())
	assert.Equal(t, http.StatusGone, err.ProblemStatus())
	assert.Equal(t, "otp has expired", err.ProblemDetail())
}

func TestDomainError_IsMatchesCopies(t *testing.T) {
	sentinel := New("user", "ErrNotFound", http.StatusNotFound, "user not found")
	cause := errors.New("no rows")

	wrapped := sentinel.WithCause(cause).WithDetail("No account found")

	require.ErrorIs(t, wrapped, sentinel)
	require.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "No account found: no rows", wrapped.Error())
	assert.Equal(t, "user not found", sentinel.Error(), "sentinel must stay untouched")
}

func TestDomainError_WithCauseNil(t *testing.T) {
	sentinel := New("user", "ErrNotFound", http.StatusNotFound, "user not found")
	assert.Same(t, sentinel, sentinel.WithCause(nil))
}

func TestDomainError_ZeroStatusIsInternal(t *testing.T) {
	e := &DomainError{Code: "ErrX"}
	assert.Equal(t, http.StatusInternalServerError, e.ProblemStatus())
}
