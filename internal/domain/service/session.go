package service

import (
	"context"
	"fmt"
	"sync"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/ports"
)

const maxLogEntries = 100

// Capturer is the part of the capture loop the session drives.
type Capturer interface {
	Start()
	Stop()
	Running() bool
}

// ActionRunner executes an action on behalf of a source.
type ActionRunner interface {
	Execute(actionID, source string) model.Outcome
}

// RuleLookup resolves rule ids named by the decision feed.
type RuleLookup interface {
	Get(id string) (model.Rule, bool)
}

// SessionController owns one live stream: the capture loop and the decision
// feed start and end together. Every start and stop bumps the generation; work
// tagged with an older generation is discarded.
type SessionController struct {
	feed     ports.DecisionFeed
	capture  Capturer
	executor ActionRunner
	rules    RuleLookup

	mu         sync.Mutex
	generation uint64
	status     ports.StreamStatus
	message    string
	conn       ports.FeedConn
	cancel     context.CancelFunc
	entries    []model.LogEntry
}

func NewSessionController(feed ports.DecisionFeed, capture Capturer, executor ActionRunner, rules RuleLookup) *SessionController {
	return &SessionController{
		feed:     feed,
		capture:  capture,
		executor: executor,
		rules:    rules,
		status:   ports.StreamIdle,
		message:  "stream idle",
	}
}

// Start opens a new session, closing the current one first.
func (s *SessionController) Start(ctx context.Context) error {
	s.mu.Lock()
	s.teardownLocked()
	s.generation++
	gen := s.generation
	s.entries = nil
	s.status = ports.StreamConnecting
	s.message = "connecting to decision feed"
	s.capture.Start()
	feedCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.mu.Unlock()

	conn, err := s.feed.Open(feedCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// stopped or restarted while connecting
		if conn != nil {
			conn.Close()
		}
		return nil
	}
	if err != nil {
		log.WithError(err).Warn("could not open decision feed")
		s.endLocked(ports.StreamConnectionLost, fmt.Sprintf("stream ended: %v", err))
		return fmt.Errorf("open decision feed: %w", err)
	}
	s.conn = conn
	s.status = ports.StreamOpen
	s.message = "streaming"
	go s.pump(gen, conn)
	log.Info("live stream started")
	return nil
}

// Stop ends the session on user request. Safe to call in any state.
func (s *SessionController) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == ports.StreamConnecting || s.status == ports.StreamOpen {
		s.endLocked(ports.StreamStopped, "stream stopped")
		log.Info("live stream stopped")
		return
	}
	s.generation++
	s.teardownLocked()
}

// Status returns the stream status and a copy of the decision log, newest first.
func (s *SessionController) Status() (ports.StreamStatus, string, []model.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]model.LogEntry, len(s.entries))
	copy(entries, s.entries)
	return s.status, s.message, entries
}

func (s *SessionController) pump(gen uint64, conn ports.FeedConn) {
	for data := range conn.Messages() {
		s.handle(gen, data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	msg := "stream ended: connection lost"
	if err := conn.Err(); err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, err)
	}
	log.Warn(msg)
	s.endLocked(ports.StreamConnectionLost, msg)
}

func (s *SessionController) handle(gen uint64, data []byte) {
	ev, err := model.ParseDecisionEvent(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	if err != nil {
		log.WithError(err).Warn("dropping decision message")
		return
	}

	s.entries = append([]model.LogEntry{{WindowIndex: ev.WindowIndex, Text: ev.Summary()}}, s.entries...)
	if len(s.entries) > maxLogEntries {
		s.entries = s.entries[:maxLogEntries]
	}

	for _, id := range ev.TriggeredRuleIDs {
		if _, ok := s.rules.Get(id); !ok {
			log.WithField("rule", id).Info("decision names a rule that is no longer registered")
		}
	}
	for _, id := range ev.UniqueActionIDs() {
		out := s.executor.Execute(id, SourceStream)
		log.WithField("window", ev.WindowIndex).Debug(out.Message)
	}
}

// endLocked tears the session down and records the terminal status.
func (s *SessionController) endLocked(status ports.StreamStatus, message string) {
	s.generation++
	s.teardownLocked()
	s.status = status
	s.message = message
}

func (s *SessionController) teardownLocked() {
	s.capture.Stop()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.WithError(err).Debug("closing decision feed")
		}
		s.conn = nil
	}
}
