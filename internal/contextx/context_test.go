package contextx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	_, ok := UserID(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), "u1", "s1")
	uid, ok := UserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", uid)
	sid, ok := SessionID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "s1", sid)
}
