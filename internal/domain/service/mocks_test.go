package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/ports"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) FetchConfig(ctx context.Context) (model.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Snapshot), args.Error(1)
}

func (m *MockBackend) CreateRule(ctx context.Context, conditionText, actionID string) (model.Rule, error) {
	args := m.Called(ctx, conditionText, actionID)
	return args.Get(0).(model.Rule), args.Error(1)
}

func (m *MockBackend) DeleteRule(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) ApplyLightState(on bool)      { m.Called(on) }
func (m *MockRenderer) ApplyCurtainTarget(open bool) { m.Called(open) }

// slowBackend assigns sequential ids after a short delay so adds interleave.
type slowBackend struct {
	delay time.Duration
	seq   atomic.Int64
}

func (b *slowBackend) FetchConfig(context.Context) (model.Snapshot, error) {
	return model.Snapshot{}, nil
}

func (b *slowBackend) CreateRule(_ context.Context, conditionText, actionID string) (model.Rule, error) {
	time.Sleep(b.delay)
	n := b.seq.Add(1)
	return model.Rule{ID: fmt.Sprintf("srv-%d", n), ConditionText: conditionText, ActionID: actionID}, nil
}

func (b *slowBackend) DeleteRule(context.Context, string) error { return nil }

type fakeSource struct {
	ready atomic.Bool
	fail  atomic.Bool
}

func newFakeSource(ready bool) *fakeSource {
	s := &fakeSource{}
	s.ready.Store(ready)
	return s
}

func (s *fakeSource) Ready() bool { return s.ready.Load() }

func (s *fakeSource) Frame() (image.Image, error) {
	if s.fail.Load() {
		return nil, errors.New("camera unplugged")
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img, nil
}

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (u *fakeUploader) UploadFrame(_ context.Context, dataURL string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, dataURL)
	return u.err
}

func (u *fakeUploader) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.calls)
}

func (u *fakeUploader) first() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.calls) == 0 {
		return ""
	}
	return u.calls[0]
}

// fakeCapture tracks how many loops are active at once.
type fakeCapture struct {
	mu        sync.Mutex
	active    int
	maxActive int
	starts    int
	stops     int
}

func (c *fakeCapture) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	if c.active == 0 {
		c.active = 1
	}
	if c.active > c.maxActive {
		c.maxActive = c.active
	}
}

func (c *fakeCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	c.active = 0
}

func (c *fakeCapture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active > 0
}

type recordingRunner struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRunner) Execute(actionID, source string) model.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, source+"/"+actionID)
	return model.Outcome{ActionID: actionID, Source: source}
}

func (r *recordingRunner) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type staticRules map[string]model.Rule

func (s staticRules) Get(id string) (model.Rule, bool) {
	r, ok := s[id]
	return r, ok
}

type fakeConn struct {
	in          chan []byte
	out         chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	closed      atomic.Bool
	ignoreClose bool

	mu  sync.Mutex
	err error
}

func newFakeConn(ignoreClose bool) *fakeConn {
	c := &fakeConn{
		in:          make(chan []byte, 16),
		out:         make(chan []byte),
		done:        make(chan struct{}),
		ignoreClose: ignoreClose,
	}
	go func() {
		defer close(c.out)
		for {
			select {
			case <-c.done:
				return
			case m, ok := <-c.in:
				if !ok {
					return
				}
				select {
				case c.out <- m:
				case <-c.done:
					return
				}
			}
		}
	}()
	return c
}

func (c *fakeConn) Messages() <-chan []byte { return c.out }

func (c *fakeConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	if !c.ignoreClose {
		c.closeOnce.Do(func() { close(c.done) })
	}
	return nil
}

func (c *fakeConn) send(payload string) { c.in <- []byte(payload) }

// drop simulates the server going away.
func (c *fakeConn) drop(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	close(c.in)
}

type fakeFeed struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
	leaky bool
}

func (f *fakeFeed) Open(context.Context) (ports.FeedConn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c := newFakeConn(f.leaky)
	f.conns = append(f.conns, c)
	return c, nil
}

func (f *fakeFeed) conn(i int) *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns[i]
}

func (f *fakeFeed) opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}
