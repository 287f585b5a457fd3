package auth

import (
	"net/http"

	"github.com/delordemm1/go-otp-chat/internal/domainerr"
)

var (
	ErrUserNotFound = domainerr.New("auth", "ErrUserNotFound", http.StatusNotFound,
		"No account found with this phone number")

	ErrUserExists = domainerr.New("auth", "ErrUserExists", http.StatusConflict,
		"Account already exists with this phone number")

	ErrWrongStep = domainerr.New("auth", "ErrWrongStep", http.StatusConflict,
		"This action is not available at the current step")

	ErrRequestInFlight = domainerr.New("auth", "ErrRequestInFlight", http.StatusConflict,
		"A request is already in progress")

	ErrFlowCancelled = domainerr.New("auth", "ErrFlowCancelled", http.StatusConflict,
		"The flow changed before the request completed")

	ErrFlowNotFound = domainerr.New("auth", "ErrFlowNotFound", http.StatusNotFound,
		"Flow not found or expired")

	ErrInvalidMode = domainerr.New("auth", "ErrInvalidMode", http.StatusBadRequest,
		"mode must be login or signup")
)

// Fallback notices used when a failure carries no user-facing message.
const (
	msgSendFailed     = "Failed to send OTP"
	msgVerifyFailed   = "OTP verification failed"
	msgResendFailed   = "Failed to resend OTP"
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"

	msgLoginSucceeded = "Login successful!"
	msgAccountCreated = "Account created successfully!"
)
