package chat

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
)

// DefaultPageSize is the number of messages per history page.
const DefaultPageSize = 20

// Page is a slice of a room's history. Page 0 is the newest.
type Page struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"hasMore"`
}

// HistorySource serves a room's history newest page first.
type HistorySource interface {
	Page(ctx context.Context, roomID string, page, size int) (Page, error)
}

// PageBounds returns the [start, end) indices of page within a history of
// total messages. Pages past the start of the history, and negative pages,
// are empty.
func PageBounds(total, page, size int) (start, end int) {
	if total <= 0 || size <= 0 || page < 0 || page >= (total+size-1)/size {
		return 0, 0
	}
	end = total - page*size
	start = max(0, total-(page+1)*size)
	return start, end
}

// SlicePage cuts page out of an ascending history.
func SlicePage(all []Message, page, size int) Page {
	start, end := PageBounds(len(all), page, size)
	out := make([]Message, end-start)
	copy(out, all[start:end])
	return Page{Messages: out, Total: len(all), HasMore: start > 0}
}

// HistoryCount is the size of a mock room's history.
func HistoryCount(roomID string) int {
	if roomID == "4" {
		return 100
	}
	return 50
}

// MockHistory generates a deterministic conversation per room, three minutes
// apart and ending when the room is first read.
type MockHistory struct {
	clock clock.Clock
	delay time.Duration

	mu    sync.Mutex
	rooms map[string][]Message
}

// NewMockHistory returns a history that waits delay before every page.
func NewMockHistory(c clock.Clock, delay time.Duration) *MockHistory {
	if c == nil {
		c = clock.Real{}
	}
	return &MockHistory{clock: c, delay: delay, rooms: make(map[string][]Message)}
}

func (h *MockHistory) Page(ctx context.Context, roomID string, page, size int) (Page, error) {
	if err := clock.Sleep(ctx, h.delay); err != nil {
		return Page{}, err
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return SlicePage(h.all(roomID), page, size), nil
}

func (h *MockHistory) all(roomID string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs, ok := h.rooms[roomID]
	if !ok {
		msgs = generate(roomID, HistoryCount(roomID), h.clock.Now())
		h.rooms[roomID] = msgs
	}
	return msgs
}

var (
	you = Sender{ID: "user-1", DisplayName: "You", IsSelf: true}

	userLines = []string{
		"Hey everyone! How's it going?",
		"Just finished working on a new project 🎉",
		"Anyone tried the new Go release yet?",
		"This chat interface looks really nice!",
		"Working late tonight, anyone else?",
		"Quick question about context cancellation",
		"Thanks for the help yesterday!",
		"Can someone help me with this type error?",
		"What's your favorite editor plugin?",
		"Just deployed my app!",
		"Coffee break time ☕",
		"Anyone up for a code review?",
		"Just finished debugging that issue 🐛",
		"What's everyone working on?",
		"Anyone good with database design?",
		"This optimization improved performance by 50%!",
		"Anyone using Docker for development?",
		"This refactoring made the code so clean",
	}

	assistantLines = []string{
		"Hello! I'm Gemini, your AI assistant. How can I help you today?",
		"That's an interesting question! Let me think about that for a moment.",
		"I'm here to help with any coding questions you might have.",
		"Working on projects can be really rewarding. What are you building?",
		"I'm glad I could help! Feel free to ask if you have more questions.",
		"Congratulations on the deployment!",
		"Coffee is essential for good code! ☕ What's your favorite blend?",
		"Code reviews are valuable for learning and improving code quality.",
		"Debugging victories are always satisfying! What was the root cause?",
		"Database design is crucial! Are you working with SQL or NoSQL?",
		"50% performance improvement is impressive! What optimization did you make?",
		"Docker is excellent for development consistency across environments.",
	}
)

// generate builds count messages ending just before now. The same room id
// always yields the same conversation.
func generate(roomID string, count int, now time.Time) []Message {
	sum := fnv.New64a()
	_, _ = sum.Write([]byte(roomID))
	seed := sum.Sum64()
	r := rand.New(rand.NewPCG(seed, seed>>1|1))

	msgs := make([]Message, 0, count)
	for i := count; i >= 1; i-- {
		n := count - i + 1
		m := Message{
			ID:        fmt.Sprintf("msg-%d", n),
			Timestamp: now.Add(-time.Duration(i) * 3 * time.Minute),
			Type:      TypeText,
		}
		if r.Float64() > 0.4 {
			m.Sender = you
			m.Content = userLines[r.IntN(len(userLines))]
			if r.Float64() < 0.05 {
				m.Type = TypeImage
				m.Content = "Check out this cool design!"
				m.Image = &Image{URL: fmt.Sprintf("https://picsum.photos/400/300?random=%d", n)}
			}
		} else {
			m.Sender = Assistant
			m.Content = assistantLines[r.IntN(len(assistantLines))]
		}
		msgs = append(msgs, m)
	}
	return msgs
}
