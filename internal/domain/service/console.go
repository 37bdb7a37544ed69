package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/ports"
)

var log = logrus.WithField("prefix", "console")

// ConsoleDeps are the collaborators the console is assembled from.
type ConsoleDeps struct {
	Backend  ports.ConfigBackend
	Uploader ports.FrameUploader
	Feed     ports.DecisionFeed
	Frames   ports.FrameSource
	Renderer ports.RoomRenderer
	FPS      float64
	Quality  int
}

// Console is the application context: it owns the device state, the rule
// registry, the vocabulary and the live stream session.
type Console struct {
	vocabulary atomic.Pointer[model.Vocabulary]
	executor   *Executor
	registry   *Registry
	capture    *CaptureLoop
	session    *SessionController
	backend    ports.ConfigBackend
}

func NewConsole(deps ConsoleDeps) *Console {
	c := &Console{
		executor: NewExecutor(model.DefaultDeviceState(), deps.Renderer),
		registry: NewRegistry(deps.Backend),
		capture:  NewCaptureLoop(deps.Frames, deps.Uploader, deps.FPS, deps.Quality),
		backend:  deps.Backend,
	}
	c.vocabulary.Store(model.NewVocabulary(nil))
	c.session = NewSessionController(deps.Feed, c.capture, c.executor, c.registry)
	return c
}

// Bootstrap loads the vocabulary and rules. Failures leave both empty.
func (c *Console) Bootstrap(ctx context.Context) {
	snap := NewBootstrapper(c.backend).LoadInitial(ctx)
	c.vocabulary.Store(model.NewVocabulary(snap.Actions))
	c.registry.Seed(snap.Rules)
}

func (c *Console) Actions() []model.Action { return c.vocabulary.Load().Actions() }

func (c *Console) Rules() []model.Rule { return c.registry.List() }

func (c *Console) AddRule(ctx context.Context, conditionText, actionID string) (model.Rule, error) {
	return c.registry.Add(ctx, conditionText, actionID)
}

func (c *Console) DeleteRule(ctx context.Context, id string) error {
	return c.registry.Delete(ctx, id)
}

// RunRule executes the action of rule id as if its condition had matched.
func (c *Console) RunRule(id string) (model.Outcome, error) {
	rule, ok := c.registry.Get(id)
	if !ok {
		return model.Outcome{}, fmt.Errorf("rule %s: %w", id, ports.ErrRuleNotFound)
	}
	return c.executor.Execute(rule.ActionID, RuleSource(id)), nil
}

func (c *Console) Execute(actionID, source string) model.Outcome {
	return c.executor.Execute(actionID, source)
}

func (c *Console) StartStream(ctx context.Context) error { return c.session.Start(ctx) }

func (c *Console) StopStream() { c.session.Stop() }

func (c *Console) Status() ports.ConsoleStatus {
	status, message, entries := c.session.Status()
	return ports.ConsoleStatus{
		State:         c.executor.State(),
		Stream:        status,
		StreamMessage: message,
		Capturing:     c.capture.Running(),
		LastOutcome:   c.executor.LastOutcome(),
		Log:           entries,
	}
}

// CaptureStats exposes the capture loop counters.
func (c *Console) CaptureStats() CaptureStats { return c.capture.Stats() }

var _ ports.ConsolePort = (*Console)(nil)
