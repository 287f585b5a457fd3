// Package chat holds the chat rooms directory, the mock room history and the
// client-side pagination controller with its simulated assistant.
package chat

import "time"

type MessageType string

const (
	TypeText   MessageType = "text"
	TypeImage  MessageType = "image"
	TypeTyping MessageType = "typing"
)

// Sender identifies the author of a message.
type Sender struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	IsSelf      bool   `json:"isCurrentUser"`
}

// Image is an attached picture.
type Image struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Message is one entry of a room. A room's messages are kept sorted by
// Timestamp ascending.
type Message struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Sender    Sender      `json:"sender"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type" enum:"text,image,typing"`
	Image     *Image      `json:"image,omitempty"`
}

// Assistant is the simulated participant that answers messages.
var Assistant = Sender{ID: "gemini", DisplayName: "Gemini"}

// TypingText is the placeholder content shown while the assistant "thinks".
const TypingText = "Gemini is typing..."
