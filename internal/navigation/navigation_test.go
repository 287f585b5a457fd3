package navigation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	assert.Empty(t, r.Last())

	var nav Navigator = &r
	nav.GoTo(context.Background(), LoginPath)
	nav.GoTo(context.Background(), HomePath)

	assert.Equal(t, HomePath, r.Last())
	assert.Equal(t, []string{LoginPath, HomePath}, r.Paths())
}

func TestFunc(t *testing.T) {
	var got string
	Func(func(_ context.Context, p string) { got = p }).GoTo(context.Background(), "/chat/1")
	assert.Equal(t, "/chat/1", got)
}
