// Package navigation abstracts moving the client to another screen.
package navigation

import (
	"context"
	"sync"
)

const (
	HomePath  = "/"
	LoginPath = "/login"
)

// Navigator moves the client to path.
type Navigator interface {
	GoTo(ctx context.Context, path string)
}

// Func adapts a function to Navigator.
type Func func(ctx context.Context, path string)

func (f Func) GoTo(ctx context.Context, path string) { f(ctx, path) }

// Recorder remembers every navigation. Servers use it to report the redirect
// target back to the client; tests use it to assert on navigation.
type Recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *Recorder) GoTo(_ context.Context, path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

// Last returns the most recent path, or "" if none.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return ""
	}
	return r.paths[len(r.paths)-1]
}

// Paths returns all recorded paths in order.
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
