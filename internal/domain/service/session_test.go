package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/ports"
)

type sessionFixture struct {
	feed    *fakeFeed
	capture *fakeCapture
	runner  *recordingRunner
	session *SessionController
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		feed:    &fakeFeed{},
		capture: &fakeCapture{},
		runner:  &recordingRunner{},
	}
	f.session = NewSessionController(f.feed, f.capture, f.runner, staticRules{"rule-1": {ID: "rule-1"}})
	t.Cleanup(f.session.Stop)
	return f
}

func (f *sessionFixture) status() ports.StreamStatus {
	s, _, _ := f.session.Status()
	return s
}

func decision(window int, actions ...string) string {
	ids := ""
	for i, a := range actions {
		if i > 0 {
			ids += ","
		}
		ids += fmt.Sprintf("%q", a)
	}
	return fmt.Sprintf(`{"window_index":%d,"t_start_sec":%d,"t_end_sec":%d,"triggered_action_ids":[%s]}`,
		window, window*2, window*2+2, ids)
}

func TestSession_StartAndDeduplicate(t *testing.T) {
	f := newSessionFixture(t)
	assert.Equal(t, ports.StreamIdle, f.status())

	require.NoError(t, f.session.Start(context.Background()))
	assert.Equal(t, ports.StreamOpen, f.status())
	assert.True(t, f.capture.Running())

	f.feed.conn(0).send(decision(0, model.ActionTurnLightsOn, model.ActionTurnLightsOn, model.ActionTurnLightsOff))

	assert.Eventually(t, func() bool { return len(f.runner.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{
		SourceStream + "/" + model.ActionTurnLightsOn,
		SourceStream + "/" + model.ActionTurnLightsOff,
	}, f.runner.snapshot())
}

func TestSession_MalformedMessageKeepsStreaming(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Start(context.Background()))
	conn := f.feed.conn(0)

	conn.send(`{"window_index":`)
	conn.send(`{"t_start_sec":1,"t_end_sec":2}`)
	conn.send(decision(1, model.ActionOpenCurtains))

	assert.Eventually(t, func() bool { return len(f.runner.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, ports.StreamOpen, f.status())
	_, _, entries := f.session.Status()
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].WindowIndex)
}

func TestSession_ConnectionLost(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Start(context.Background()))
	conn := f.feed.conn(0)

	conn.drop(errors.New("unexpected EOF"))

	assert.Eventually(t, func() bool { return f.status() == ports.StreamConnectionLost }, time.Second, 5*time.Millisecond)
	_, msg, _ := f.session.Status()
	assert.Contains(t, msg, "stream ended")
	assert.Contains(t, msg, "unexpected EOF")
	assert.False(t, f.capture.Running())
	assert.True(t, conn.closed.Load())
}

func TestSession_StopIsDistinctFromConnectionLoss(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Start(context.Background()))
	conn := f.feed.conn(0)

	f.session.Stop()

	assert.Equal(t, ports.StreamStopped, f.status())
	assert.False(t, f.capture.Running())
	assert.True(t, conn.closed.Load())
	assert.Never(t, func() bool { return f.status() == ports.StreamConnectionLost }, 50*time.Millisecond, 5*time.Millisecond)

	// stopping again changes nothing
	f.session.Stop()
	assert.Equal(t, ports.StreamStopped, f.status())
}

func TestSession_RestartReplacesSession(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Start(context.Background()))
	first := f.feed.conn(0)

	require.NoError(t, f.session.Start(context.Background()))

	assert.True(t, first.closed.Load())
	assert.Equal(t, 2, f.feed.opened())
	assert.Equal(t, ports.StreamOpen, f.status())
	f.capture.mu.Lock()
	assert.Equal(t, 1, f.capture.maxActive)
	f.capture.mu.Unlock()

	f.feed.conn(1).send(decision(0, model.ActionTurnLightsOn))
	assert.Eventually(t, func() bool { return len(f.runner.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestSession_LateMessagesAreDiscarded(t *testing.T) {
	f := newSessionFixture(t)
	f.feed.leaky = true
	require.NoError(t, f.session.Start(context.Background()))
	conn := f.feed.conn(0)

	f.session.Stop()
	conn.send(decision(5, model.ActionTurnLightsOn))

	assert.Never(t, func() bool { return len(f.runner.snapshot()) > 0 }, 100*time.Millisecond, 5*time.Millisecond)
	_, _, entries := f.session.Status()
	assert.Empty(t, entries)
	assert.Equal(t, ports.StreamStopped, f.status())
}

func TestSession_OpenFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.feed.err = errors.New("connection refused")

	err := f.session.Start(context.Background())

	require.Error(t, err)
	assert.Equal(t, ports.StreamConnectionLost, f.status())
	assert.False(t, f.capture.Running())
}

func TestSession_LogNewestFirst(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Start(context.Background()))
	conn := f.feed.conn(0)

	for i := 0; i < 3; i++ {
		conn.send(decision(i))
	}

	assert.Eventually(t, func() bool {
		_, _, entries := f.session.Status()
		return len(entries) == 3
	}, time.Second, 5*time.Millisecond)
	_, _, entries := f.session.Status()
	assert.Equal(t, []int{2, 1, 0}, []int{entries[0].WindowIndex, entries[1].WindowIndex, entries[2].WindowIndex})
	assert.Empty(t, f.runner.snapshot())
}

func TestSession_StaleRuleIDsDoNotBlockActions(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Start(context.Background()))

	f.feed.conn(0).send(`{"window_index":0,"t_start_sec":0,"t_end_sec":2,"triggered_rule_ids":["rule-gone"],"triggered_action_ids":["turn_lights_on"]}`)

	assert.Eventually(t, func() bool { return len(f.runner.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}
