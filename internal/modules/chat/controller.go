package chat

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/google/uuid"
)

const (
	DefaultBottomThreshold = 50
	DefaultMaxImageBytes   = 5 << 20
	DefaultResponderDelay  = 500 * time.Millisecond
	DefaultThinkMin        = time.Second
	DefaultThinkMax        = 3 * time.Second
)

var replies = []string{
	"That's a great question! Let me help you with that.",
	"I understand what you're looking for. Here's my thoughts on that topic.",
	"Interesting point! I'd approach this from a few different angles.",
	"Thanks for sharing that. I can definitely provide some insights.",
	"That's a common challenge. Here's what I'd recommend.",
	"Great observation! Let me expand on that idea.",
	"I see what you mean. That's definitely worth exploring further.",
	"That makes sense! Here's how I'd tackle that problem.",
	"Excellent question! Let me break this down for you.",
	"I appreciate you bringing that up. Here's my perspective.",
}

// ControllerConfig holds the collaborators of a Controller. History,
// Viewport and Self are required.
type ControllerConfig struct {
	History  HistorySource
	Viewport Viewport
	Self     Sender
	Clock    clock.Scheduler
	Rand     *rand.Rand
	Logger   *slog.Logger

	PageSize        int
	BottomThreshold int
	MaxImageBytes   int64
	ResponderDelay  time.Duration
	ThinkMin        time.Duration
	ThinkMax        time.Duration

	// OnChange is called after every change to the window, outside the lock.
	OnChange func()
}

// Controller shows a window over one room's history that grows backwards a
// page at a time, keeps the reader's position while older messages are
// prepended, and follows new messages to the bottom.
type Controller struct {
	cfg ControllerConfig

	mu      sync.Mutex
	roomID  string
	window  []Message
	page    int
	hasMore bool
	loading bool
	// epoch changes when the room changes; delayed work from an older
	// epoch is dropped.
	epoch  uint64
	timers map[clock.Timer]struct{}
}

func NewController(cfg ControllerConfig) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.BottomThreshold <= 0 {
		cfg.BottomThreshold = DefaultBottomThreshold
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}
	if cfg.ResponderDelay <= 0 {
		cfg.ResponderDelay = DefaultResponderDelay
	}
	if cfg.ThinkMin <= 0 {
		cfg.ThinkMin = DefaultThinkMin
	}
	if cfg.ThinkMax < cfg.ThinkMin {
		cfg.ThinkMax = max(cfg.ThinkMin, DefaultThinkMax)
	}
	return &Controller{cfg: cfg, timers: make(map[clock.Timer]struct{})}
}

// Messages returns a copy of the loaded window, oldest first.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.window...)
}

func (c *Controller) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

func (c *Controller) LoadingOlder() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LoadInitial opens roomID with its newest page and scrolls to the bottom.
// Pending replies for the previous room are dropped.
func (c *Controller) LoadInitial(ctx context.Context, roomID string) error {
	c.mu.Lock()
	c.stopTimersLocked()
	c.epoch++
	epoch := c.epoch
	c.roomID = roomID
	c.window = nil
	c.page = 0
	c.hasMore = false
	c.loading = false
	c.mu.Unlock()

	p, err := c.cfg.History.Page(ctx, roomID, 0, c.cfg.PageSize)
	if err != nil {
		c.cfg.Logger.Error("history load failed", "room_id", roomID, "error", err)
		return err
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return nil
	}
	c.window = p.Messages
	c.page = 1
	c.hasMore = p.Total > c.cfg.PageSize
	c.renderLocked(true)
	c.mu.Unlock()

	c.changed()
	return nil
}

// LoadOlder prepends the next older page. It is ignored while another load
// is running or once the history is exhausted. The content visible before the
// load stays where it was on screen.
func (c *Controller) LoadOlder(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || !c.hasMore || c.roomID == "" {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	epoch, roomID, page := c.epoch, c.roomID, c.page
	c.mu.Unlock()

	p, err := c.cfg.History.Page(ctx, roomID, page, c.cfg.PageSize)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	if err != nil {
		c.mu.Unlock()
		c.cfg.Logger.Error("older history load failed", "room_id", roomID, "page", page, "error", err)
		return err
	}
	if len(p.Messages) == 0 {
		c.hasMore = false
		c.mu.Unlock()
		c.changed()
		return nil
	}

	before := c.cfg.Viewport.Metrics()
	c.window = append(append(make([]Message, 0, len(p.Messages)+len(c.window)), p.Messages...), c.window...)
	c.page++
	c.cfg.Viewport.Render(c.window)
	after := c.cfg.Viewport.Metrics()
	c.cfg.Viewport.SetOffset(before.Offset + after.Extent - before.Extent)
	c.mu.Unlock()

	c.changed()
	return nil
}

// OnScroll reports the reader's new offset. Near the top it loads older
// messages, the same as an explicit request.
func (c *Controller) OnScroll(ctx context.Context, offset int) error {
	c.cfg.Viewport.SetOffset(offset)
	if c.cfg.Viewport.Metrics().Offset <= c.cfg.BottomThreshold {
		return c.LoadOlder(ctx)
	}
	c.changed()
	return nil
}

// Send appends the reader's message and scrolls to it. Text messages get a
// simulated reply.
func (c *Controller) Send(_ context.Context, content string, img *Image) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && img == nil {
		return Message{}, ErrEmptyMessage
	}
	if img != nil && img.Size > c.cfg.MaxImageBytes {
		return Message{}, ErrImageTooLarge
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Message{}, err
	}

	self := c.cfg.Self
	self.IsSelf = true
	m := Message{
		ID:        id.String(),
		Content:   content,
		Sender:    self,
		Timestamp: c.cfg.Clock.Now(),
		Type:      TypeText,
		Image:     img,
	}
	if img != nil {
		m.Type = TypeImage
	}

	c.mu.Lock()
	c.window = append(c.window, m)
	c.renderLocked(true)
	if content != "" {
		epoch := c.epoch
		c.scheduleLocked(c.cfg.ResponderDelay, func() { c.startTyping(epoch) })
	}
	c.mu.Unlock()

	c.changed()
	return m, nil
}

// Close cancels pending replies.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimersLocked()
	c.epoch++
}

func (c *Controller) startTyping(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	typing := Message{
		ID:        "typing-" + uuid.NewString(),
		Content:   TypingText,
		Sender:    Assistant,
		Timestamp: c.cfg.Clock.Now(),
		Type:      TypeTyping,
	}
	c.window = append(c.window, typing)
	c.renderLocked(true)

	span := c.cfg.ThinkMax - c.cfg.ThinkMin
	think := c.cfg.ThinkMin
	if span > 0 {
		think += time.Duration(c.cfg.Rand.Int64N(int64(span)))
	}
	reply := replies[c.cfg.Rand.IntN(len(replies))]
	c.scheduleLocked(think, func() { c.reply(epoch, typing.ID, reply) })
	c.mu.Unlock()

	c.changed()
}

func (c *Controller) reply(epoch uint64, typingID, content string) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	idx := -1
	for i, m := range c.window {
		if m.ID == typingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	id, err := uuid.NewV7()
	if err != nil {
		c.window = append(c.window[:idx], c.window[idx+1:]...)
		c.renderLocked(false)
		c.mu.Unlock()
		c.changed()
		return
	}
	// The reply takes the indicator's slot and time so the window stays
	// sorted when the reader sent more while it was pending.
	c.window[idx] = Message{
		ID:        id.String(),
		Content:   content,
		Sender:    Assistant,
		Timestamp: c.window[idx].Timestamp,
		Type:      TypeText,
	}
	c.renderLocked(true)
	c.mu.Unlock()

	c.changed()
}

// renderLocked lays out the window and scrolls to the bottom when forced or
// when the reader was already near it.
func (c *Controller) renderLocked(force bool) {
	near := c.cfg.Viewport.Metrics().DistanceFromBottom() <= c.cfg.BottomThreshold
	c.cfg.Viewport.Render(c.window)
	if force || near {
		m := c.cfg.Viewport.Metrics()
		c.cfg.Viewport.SetOffset(max(0, m.Extent-m.Height))
	}
}

func (c *Controller) scheduleLocked(d time.Duration, fn func()) {
	var t clock.Timer
	t = c.cfg.Clock.AfterFunc(d, func() {
		c.mu.Lock()
		delete(c.timers, t)
		c.mu.Unlock()
		fn()
	})
	c.timers[t] = struct{}{}
}

func (c *Controller) stopTimersLocked() {
	for t := range c.timers {
		t.Stop()
	}
	clear(c.timers)
}

func (c *Controller) changed() {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange()
	}
}
