package chat

import (
	"net/http"

	"github.com/delordemm1/go-otp-chat/internal/domainerr"
)

var (
	ErrRoomNotFound = domainerr.New("chat", "ErrRoomNotFound", http.StatusNotFound,
		"Chatroom not found")

	ErrRoomNameRequired = domainerr.New("chat", "ErrRoomNameRequired", http.StatusBadRequest,
		"Room name is required")

	ErrNotRoomOwner = domainerr.New("chat", "ErrNotRoomOwner", http.StatusForbidden,
		"You can only delete rooms you created")

	ErrEmptyMessage = domainerr.New("chat", "ErrEmptyMessage", http.StatusBadRequest,
		"Message cannot be empty")

	ErrImageTooLarge = domainerr.New("chat", "ErrImageTooLarge", http.StatusRequestEntityTooLarge,
		"Image size should be less than 5MB")
)
