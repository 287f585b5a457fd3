package otp

import (
	"errors"
	"net/http"

	"github.com/delordemm1/go-otp-chat/internal/domainerr"
)

var (
	ErrNotFound = domainerr.New("otp", "ErrOtpNotFound", http.StatusNotFound,
		"No OTP found. Please request a new one.")

	ErrExpired = domainerr.New("otp", "ErrOtpExpired", http.StatusGone,
		"OTP has expired. Please request a new one.")

	ErrMismatch = domainerr.New("otp", "ErrOtpMismatch", http.StatusBadRequest,
		"Invalid OTP. Please try again.")

	ErrTooManyAttempts = domainerr.New("otp", "ErrTooManyAttempts", http.StatusTooManyRequests,
		"Too many invalid attempts. Please request a new one.")

	ErrInternal = domainerr.New("otp", "ErrInternal", http.StatusInternalServerError,
		"internal server error")
)

// MustResend reports whether err requires a new code rather than another try.
func MustResend(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) || errors.Is(err, ErrTooManyAttempts)
}
