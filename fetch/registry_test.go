package fetch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefetchRegistry(t *testing.T) {
	t.Run("drain waits for every prefetch", func(t *testing.T) {
		reg := NewPrefetchRegistry()
		var done atomic.Int32
		for i := 0; i < 3; i++ {
			d := time.Duration(i*10) * time.Millisecond
			reg.Register(func() error {
				time.Sleep(d)
				done.Add(1)
				return nil
			})
		}
		assert.Equal(t, 3, reg.Len())

		failures, err := reg.Drain(context.Background())
		require.NoError(t, err)
		assert.Empty(t, failures)
		assert.Equal(t, int32(3), done.Load())
		assert.Zero(t, reg.Len())
	})

	t.Run("failures are collected", func(t *testing.T) {
		reg := NewPrefetchRegistry()
		boom := errors.New("boom")
		reg.Register(func() error { return nil })
		reg.Register(func() error { return boom })

		failures, err := reg.Drain(context.Background())
		require.NoError(t, err)
		require.Len(t, failures, 1)
		assert.Same(t, boom, failures[0])
	})

	t.Run("empty drain", func(t *testing.T) {
		failures, err := NewPrefetchRegistry().Drain(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, failures)
	})

	t.Run("context ends first", func(t *testing.T) {
		reg := NewPrefetchRegistry()
		release := make(chan struct{})
		defer close(release)
		reg.Register(func() error {
			<-release
			return nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := reg.Drain(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Zero(t, reg.Len(), "registry is cleared even when the wait is abandoned")
	})

	t.Run("registrations after drain start a new batch", func(t *testing.T) {
		reg := NewPrefetchRegistry()
		reg.Register(func() error { return nil })
		_, err := reg.Drain(context.Background())
		require.NoError(t, err)

		reg.Register(func() error { return errors.New("late") })
		assert.Equal(t, 1, reg.Len())

		failures, err := reg.Drain(context.Background())
		require.NoError(t, err)
		assert.Len(t, failures, 1)
	})
}
