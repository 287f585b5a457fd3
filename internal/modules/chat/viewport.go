package chat

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// Metrics describes a scrollable message list. Offset is the distance from
// the top of the content to the top of the visible area.
type Metrics struct {
	Extent int
	Offset int
	Height int
}

// DistanceFromBottom is how far the visible area is from the end of the content.
func (m Metrics) DistanceFromBottom() int {
	return max(0, m.Extent-m.Height-m.Offset)
}

// Viewport lays out messages and exposes their scroll geometry. After Render
// returns, Metrics reflects the new content.
type Viewport interface {
	Render(msgs []Message)
	Metrics() Metrics
	SetOffset(offset int)
}

// LineViewport measures content in terminal lines: a header line per message
// followed by its content wrapped to Width.
type LineViewport struct {
	mu     sync.Mutex
	width  int
	height int
	lines  []string
	offset int
}

func NewLineViewport(width, height int) *LineViewport {
	return &LineViewport{width: max(width, 10), height: max(height, 1)}
}

// Resize changes the visible area, keeping the offset within bounds.
func (v *LineViewport) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width = max(width, 10)
	v.height = max(height, 1)
	v.clampLocked()
}

func (v *LineViewport) Render(msgs []Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	lines := make([]string, 0, len(msgs)*2)
	for _, m := range msgs {
		lines = append(lines, layout(m, v.width)...)
	}
	v.lines = lines
	v.clampLocked()
}

func (v *LineViewport) Metrics() Metrics {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Metrics{Extent: len(v.lines), Offset: v.offset, Height: v.height}
}

func (v *LineViewport) SetOffset(offset int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.offset = offset
	v.clampLocked()
}

// Visible returns the lines inside the visible area.
func (v *LineViewport) Visible() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	end := min(len(v.lines), v.offset+v.height)
	return append([]string(nil), v.lines[v.offset:end]...)
}

func (v *LineViewport) clampLocked() {
	v.offset = min(v.offset, max(0, len(v.lines)-v.height))
	v.offset = max(v.offset, 0)
}

func layout(m Message, width int) []string {
	who := m.Sender.DisplayName
	if m.Sender.IsSelf {
		who += " (you)"
	}
	out := []string{m.Timestamp.Format("15:04") + " " + who + ":"}
	out = append(out, wrap("  "+m.Content, width)...)
	if m.Image != nil {
		out = append(out, wrap("  [image] "+m.Image.URL, width)...)
	}
	return out
}

func wrap(s string, width int) []string {
	if utf8.RuneCountInString(s) <= width {
		return []string{s}
	}
	var (
		out  []string
		line strings.Builder
		n    int
	)
	for _, r := range s {
		if n == width {
			out = append(out, line.String())
			line.Reset()
			n = 0
		}
		line.WriteRune(r)
		n++
	}
	if n > 0 {
		out = append(out, line.String())
	}
	return out
}
