package hue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amimof/huego"
	"github.com/stretchr/testify/assert"
)

type call struct {
	id    int
	state huego.State
}

type fakeBridge struct {
	mu      sync.Mutex
	calls   []call
	gate    chan struct{}
	waiting atomic.Int32
	err     error
}

func (b *fakeBridge) SetLightState(id int, state huego.State) (*huego.Response, error) {
	if b.gate != nil {
		b.waiting.Add(1)
		<-b.gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call{id: id, state: state})
	return &huego.Response{}, b.err
}

func (b *fakeBridge) snapshot() []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]call(nil), b.calls...)
}

func startRenderer(t *testing.T, r *Renderer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRenderer_SendsStates(t *testing.T) {
	bridge := &fakeBridge{}
	r := NewRenderer(bridge, 3, 7)
	startRenderer(t, r)

	r.ApplyLightState(true)
	assert.Eventually(t, func() bool { return len(bridge.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	r.ApplyCurtainTarget(false)
	assert.Eventually(t, func() bool { return len(bridge.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	calls := bridge.snapshot()
	assert.Equal(t, 3, calls[0].id)
	assert.True(t, calls[0].state.On)
	assert.Equal(t, 7, calls[1].id)
	assert.False(t, calls[1].state.On)
	assert.Equal(t, uint8(0), calls[1].state.Bri)
}

func TestRenderer_LatestStateWins(t *testing.T) {
	bridge := &fakeBridge{gate: make(chan struct{})}
	r := NewRenderer(bridge, 1, 0)
	startRenderer(t, r)

	r.ApplyLightState(true)
	assert.Eventually(t, func() bool { return bridge.waiting.Load() == 1 }, time.Second, time.Millisecond)
	r.ApplyLightState(false)
	r.ApplyLightState(true)
	r.ApplyLightState(false)
	close(bridge.gate)

	assert.Eventually(t, func() bool { return len(bridge.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return len(bridge.snapshot()) > 2 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.False(t, bridge.snapshot()[1].state.On)
}

func TestRenderer_DisabledDevices(t *testing.T) {
	bridge := &fakeBridge{}
	r := NewRenderer(bridge, 0, 0)
	startRenderer(t, r)

	r.ApplyLightState(true)
	r.ApplyCurtainTarget(true)

	assert.Never(t, func() bool { return len(bridge.snapshot()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestRenderer_BridgeErrorsAreNotFatal(t *testing.T) {
	bridge := &fakeBridge{err: errors.New("link button not pressed")}
	r := NewRenderer(bridge, 1, 2)
	startRenderer(t, r)

	r.ApplyLightState(true)
	assert.Eventually(t, func() bool { return len(bridge.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	r.ApplyCurtainTarget(true)
	assert.Eventually(t, func() bool { return len(bridge.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
}
