package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Cancel(t *testing.T) {
	g := New()
	assert.True(t, g.ShouldContinue())
	assert.False(t, g.Stopped())

	g.Cancel()
	g.Cancel()
	assert.False(t, g.ShouldContinue())
	assert.True(t, g.Stopped())
}

func TestGate_ZeroValueIsOpen(t *testing.T) {
	var g Gate
	var s Signal = &g
	assert.True(t, s.ShouldContinue())
}

func TestGate_ConcurrentCancel(t *testing.T) {
	g := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.ShouldContinue()
			g.Cancel()
		}()
	}
	wg.Wait()
	assert.False(t, g.ShouldContinue())
}

func TestGate_Bind(t *testing.T) {
	t.Run("context cancellation closes the gate", func(t *testing.T) {
		g := New()
		ctx, cancel := context.WithCancel(context.Background())
		g.Bind(ctx)
		cancel()
		require.Eventually(t, g.Stopped, time.Second, time.Millisecond)
	})

	t.Run("release keeps the gate open", func(t *testing.T) {
		g := New()
		ctx, cancel := context.WithCancel(context.Background())
		release := g.Bind(ctx)
		assert.True(t, release())
		cancel()
		time.Sleep(10 * time.Millisecond)
		assert.True(t, g.ShouldContinue())
	})
}

func TestGroup_Cancel(t *testing.T) {
	a, b := New(), New()
	group := NewGroup(a)
	group.Add(b)
	assert.False(t, group.Cancelled())

	group.Cancel()
	assert.True(t, group.Cancelled())
	assert.True(t, a.Stopped())
	assert.True(t, b.Stopped())

	late := New()
	group.Add(late)
	assert.True(t, late.Stopped())
}
