package timeouts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestTimeout(t *testing.T) {
	assert.Equal(t, DefaultRequestTimeout, RequestTimeout(0))
	assert.Equal(t, DefaultRequestTimeout, RequestTimeout(-time.Second))
	assert.Equal(t, 10*time.Second, RequestTimeout(10*time.Second))
	assert.Equal(t, MaxRequestTimeout, RequestTimeout(time.Hour))
}

func TestWithRunTimeout(t *testing.T) {
	t.Run("no timeout keeps parent without deadline", func(t *testing.T) {
		ctx, cancel := WithRunTimeout(context.Background(), 0)
		defer cancel()
		_, ok := ctx.Deadline()
		assert.False(t, ok)
	})

	t.Run("applies timeout", func(t *testing.T) {
		ctx, cancel := WithRunTimeout(context.Background(), time.Minute)
		defer cancel()
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	})

	t.Run("parent deadline wins", func(t *testing.T) {
		parent, parentCancel := context.WithTimeout(context.Background(), time.Second)
		defer parentCancel()
		want, _ := parent.Deadline()

		ctx, cancel := WithRunTimeout(parent, time.Hour)
		defer cancel()
		got, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("cancel func stops the run", func(t *testing.T) {
		ctx, cancel := WithRunTimeout(context.Background(), 0)
		cancel()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})
}
