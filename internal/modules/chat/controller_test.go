package chat

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/delordemm1/go-otp-chat/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	clock   *clock.Fake
	history *MockHistory
	vp      *LineViewport
	c       *Controller
}

func newHarness(t *testing.T, history HistorySource) *harness {
	t.Helper()
	fc := clock.NewFake(start)
	mock := NewMockHistory(fc, 0)
	if history == nil {
		history = mock
	}
	vp := NewLineViewport(80, 10)
	c := NewController(ControllerConfig{
		History:  history,
		Viewport: vp,
		Self:     Sender{ID: "u-1", DisplayName: "Ada"},
		Clock:    fc,
		Rand:     rand.New(rand.NewPCG(1, 2)),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		// A few lines, so a screenful of messages is far from both ends.
		BottomThreshold: 5,
	})
	t.Cleanup(c.Close)
	return &harness{clock: fc, history: mock, vp: vp, c: c}
}

func ids(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		total, page, size int
		start, end        int
	}{
		{100, 0, 20, 80, 100},
		{100, 4, 20, 0, 20},
		{100, 5, 20, 0, 0},
		{50, 2, 20, 0, 10},
		{50, 3, 20, 0, 0},
		{0, 0, 20, 0, 0},
		{50, -1, 20, 0, 0},
		{50, 922337203685477580, 20, 0, 0},
		{50, math.MaxInt, 20, 0, 0},
	}
	for _, tc := range tests {
		s, e := PageBounds(tc.total, tc.page, tc.size)
		assert.LessOrEqual(t, s, e)
		assert.Equal(t, tc.start, s, "start of page %d/%d", tc.page, tc.total)
		assert.Equal(t, tc.end, e, "end of page %d/%d", tc.page, tc.total)
	}
}

func TestLoadOlder_GrowsUntilExhausted(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.c.LoadInitial(ctx, "4"))
	assert.Len(t, h.c.Messages(), 20)
	assert.True(t, h.c.HasMore())

	for _, want := range []int{40, 60, 80, 100} {
		require.NoError(t, h.c.LoadOlder(ctx))
		assert.Len(t, h.c.Messages(), want)
		assert.True(t, h.c.HasMore())
	}

	require.NoError(t, h.c.LoadOlder(ctx))
	assert.Len(t, h.c.Messages(), 100)
	assert.False(t, h.c.HasMore())

	require.NoError(t, h.c.LoadOlder(ctx), "further calls are ignored")
	assert.Len(t, h.c.Messages(), 100)
}

func TestLoadOlder_PrependsThePrecedingPage(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	all := h.history.all("1")
	require.Len(t, all, 50)

	require.NoError(t, h.c.LoadInitial(ctx, "1"))
	assert.Equal(t, ids(all[30:]), ids(h.c.Messages()))

	require.NoError(t, h.c.LoadOlder(ctx))
	window := h.c.Messages()
	require.Len(t, window, 40)
	assert.Equal(t, ids(all[10:30]), ids(window[:20]))

	seen := map[string]bool{}
	for i, m := range window {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
		if i > 0 {
			assert.False(t, m.Timestamp.Before(window[i-1].Timestamp), "window is sorted by time")
		}
	}
}

func TestLoadInitial_ScrollsToBottom(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.c.LoadInitial(context.Background(), "2"))

	m := h.vp.Metrics()
	assert.Greater(t, m.Extent, m.Height)
	assert.Equal(t, 0, m.DistanceFromBottom())
}

func TestLoadOlder_KeepsVisibleContentInPlace(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.c.LoadInitial(ctx, "4"))

	h.vp.SetOffset(3)
	before := h.vp.Visible()
	extentBefore := h.vp.Metrics().Extent

	require.NoError(t, h.c.LoadOlder(ctx))

	after := h.vp.Metrics()
	assert.Equal(t, 3+after.Extent-extentBefore, after.Offset)
	assert.Equal(t, before, h.vp.Visible())
}

func TestOnScroll_NearTopLoadsOlder(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.c.LoadInitial(ctx, "4"))

	require.NoError(t, h.c.OnScroll(ctx, h.vp.Metrics().Extent-h.vp.Metrics().Height-5))
	assert.Len(t, h.c.Messages(), 20)

	require.NoError(t, h.c.OnScroll(ctx, 0))
	assert.Len(t, h.c.Messages(), 40)
}

// gatedHistory blocks older pages until released.
type gatedHistory struct {
	HistorySource
	calls   chan int
	release chan struct{}
}

func (g *gatedHistory) Page(ctx context.Context, roomID string, page, size int) (Page, error) {
	if page > 0 {
		g.calls <- page
		<-g.release
	}
	return g.HistorySource.Page(ctx, roomID, page, size)
}

func TestLoadOlder_OnlyOneLoadAtATime(t *testing.T) {
	fc := clock.NewFake(start)
	gated := &gatedHistory{HistorySource: NewMockHistory(fc, 0), calls: make(chan int, 4), release: make(chan struct{})}
	h := newHarness(t, gated)
	ctx := context.Background()
	require.NoError(t, h.c.LoadInitial(ctx, "4"))

	done := make(chan error, 1)
	go func() { done <- h.c.LoadOlder(ctx) }()
	assert.Equal(t, 1, <-gated.calls)
	assert.True(t, h.c.LoadingOlder())

	require.NoError(t, h.c.LoadOlder(ctx))
	require.NoError(t, h.c.OnScroll(ctx, 0))

	close(gated.release)
	require.NoError(t, <-done)
	assert.Len(t, h.c.Messages(), 40)
	assert.Empty(t, gated.calls, "the overlapping requests never reached the history")
}

func TestSend_ForceScrollsAndGetsAReply(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.c.LoadInitial(ctx, "1"))
	h.vp.SetOffset(0)

	m, err := h.c.Send(ctx, "  hello  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Content)
	assert.True(t, m.Sender.IsSelf)
	assert.Equal(t, TypeText, m.Type)

	msgs := h.c.Messages()
	require.Len(t, msgs, 21)
	assert.Equal(t, m.ID, msgs[20].ID)
	assert.Equal(t, 0, h.vp.Metrics().DistanceFromBottom(), "own messages always scroll")

	h.clock.Advance(400 * time.Millisecond)
	assert.Len(t, h.c.Messages(), 21)

	h.clock.Advance(100 * time.Millisecond)
	msgs = h.c.Messages()
	require.Len(t, msgs, 22)
	typing := msgs[21]
	assert.Equal(t, TypeTyping, typing.Type)
	assert.Equal(t, TypingText, typing.Content)

	h.vp.SetOffset(0)
	h.clock.Advance(3 * time.Second)
	msgs = h.c.Messages()
	require.Len(t, msgs, 22, "the indicator is replaced, not joined")
	last := msgs[21]
	assert.Equal(t, TypeText, last.Type)
	assert.Equal(t, Assistant.ID, last.Sender.ID)
	assert.NotEqual(t, typing.ID, last.ID)
	assert.Contains(t, replies, last.Content)
	for _, msg := range msgs {
		assert.NotEqual(t, TypeTyping, msg.Type)
	}
	assert.Equal(t, 0, h.vp.Metrics().DistanceFromBottom())
	assert.Zero(t, h.clock.Pending())
}

func TestSend_RepliesKeepTheWindowSorted(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.c.LoadInitial(ctx, "1"))

	_, err := h.c.Send(ctx, "a", nil)
	require.NoError(t, err)
	h.clock.Advance(600 * time.Millisecond)
	_, err = h.c.Send(ctx, "b", nil)
	require.NoError(t, err)
	h.clock.Advance(10 * time.Second)

	msgs := h.c.Messages()
	require.Len(t, msgs, 24)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp),
			"%q at %d is older than %q", msgs[i].Content, i, msgs[i-1].Content)
		assert.NotEqual(t, TypeTyping, msgs[i].Type)
	}
	assert.Equal(t, start.Add(500*time.Millisecond), msgs[21].Timestamp)
	assert.Equal(t, Assistant.ID, msgs[21].Sender.ID)
	assert.Equal(t, "b", msgs[22].Content)
	assert.Equal(t, Assistant.ID, msgs[23].Sender.ID)
}

func TestSend_Validation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.c.LoadInitial(ctx, "1"))

	_, err := h.c.Send(ctx, "   ", nil)
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = h.c.Send(ctx, "", &Image{URL: "file:///big.png", Size: 5<<20 + 1})
	require.ErrorIs(t, err, ErrImageTooLarge)
	assert.Len(t, h.c.Messages(), 20)

	m, err := h.c.Send(ctx, "", &Image{URL: "file:///small.png", Size: 1024})
	require.NoError(t, err)
	assert.Equal(t, TypeImage, m.Type)

	h.clock.Advance(5 * time.Second)
	assert.Len(t, h.c.Messages(), 21, "image-only messages get no reply")
}

func TestLoadInitial_DropsPendingReplies(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.c.LoadInitial(ctx, "1"))
	_, err := h.c.Send(ctx, "hello", nil)
	require.NoError(t, err)

	require.NoError(t, h.c.LoadInitial(ctx, "2"))
	assert.Zero(t, h.clock.Pending())
	h.clock.Advance(5 * time.Second)

	for _, m := range h.c.Messages() {
		assert.NotEqual(t, TypeTyping, m.Type)
	}
	assert.Len(t, h.c.Messages(), 20)
}

func TestRender_FollowsOnlyWhenNearBottom(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.c.LoadInitial(context.Background(), "1"))
	extra := Message{ID: "x", Content: "late", Sender: Assistant, Timestamp: start, Type: TypeText}

	h.vp.SetOffset(0)
	h.c.mu.Lock()
	h.c.window = append(h.c.window, extra)
	h.c.renderLocked(false)
	h.c.mu.Unlock()
	assert.Equal(t, 0, h.vp.Metrics().Offset, "a reader far from the bottom stays put")

	m := h.vp.Metrics()
	h.vp.SetOffset(m.Extent - m.Height - 3)
	h.c.mu.Lock()
	h.c.window = append(h.c.window, extra)
	h.c.renderLocked(false)
	h.c.mu.Unlock()
	assert.Equal(t, 0, h.vp.Metrics().DistanceFromBottom(), "a reader near the bottom follows")
}

func TestLineViewport(t *testing.T) {
	vp := NewLineViewport(20, 3)
	msgs := []Message{
		{ID: "1", Content: "short", Sender: Sender{DisplayName: "A"}, Timestamp: start},
		{ID: "2", Content: "a message that needs wrapping", Sender: Sender{DisplayName: "B"}, Timestamp: start},
	}
	vp.Render(msgs)

	m := vp.Metrics()
	assert.Equal(t, 5, m.Extent)
	assert.Equal(t, 3, m.Height)

	vp.SetOffset(100)
	assert.Equal(t, 2, vp.Metrics().Offset)
	assert.Len(t, vp.Visible(), 3)

	vp.SetOffset(-4)
	assert.Equal(t, 0, vp.Metrics().Offset)
}
