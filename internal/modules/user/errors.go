package user

import (
	"net/http"

	"github.com/delordemm1/go-otp-chat/internal/domainerr"
)

var (
	ErrNotFound = domainerr.New("user", "ErrNotFound", http.StatusNotFound,
		"No account found with this phone number")

	ErrDuplicateUser = domainerr.New("user", "ErrDuplicateUser", http.StatusConflict,
		"Account already exists with this phone number")

	ErrInternal = domainerr.New("user", "ErrInternal", http.StatusInternalServerError,
		"internal server error")
)
