package notification

import (
	"context"
	"log/slog"
	"sync"
)

// Kind classifies a user-facing notice.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Sink receives user-facing notices. It is fire-and-forget: callers never
// branch on the outcome.
type Sink interface {
	Notify(ctx context.Context, kind Kind, message string)
}

// Notice is a delivered notice.
type Notice struct {
	Kind    Kind   `json:"kind" enum:"success,error,info"`
	Message string `json:"message"`
}

// LogSink writes notices to a structured logger.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Notify(ctx context.Context, kind Kind, message string) {
	s.Log.InfoContext(ctx, "notice", "kind", kind, "message", message)
}

// Buffer collects notices until drained. The HTTP layer uses one per flow to
// return notices alongside the flow view.
type Buffer struct {
	mu      sync.Mutex
	notices []Notice
}

func (b *Buffer) Notify(_ context.Context, kind Kind, message string) {
	b.mu.Lock()
	b.notices = append(b.notices, Notice{Kind: kind, Message: message})
	b.mu.Unlock()
}

// Drain returns and clears the collected notices.
func (b *Buffer) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	return out
}

// Multi fans a notice out to several sinks.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, kind Kind, message string) {
	for _, s := range m {
		s.Notify(ctx, kind, message)
	}
}
