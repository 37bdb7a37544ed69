package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"liquid-home-console/internal/ports"
)

// Event is one server-sent event.
type Event struct {
	Type string
	Data string
}

// EventScanner reads server-sent events. Data lines of one event are joined
// with newlines; comments and unknown fields are skipped.
type EventScanner struct {
	reader  *bufio.Reader
	current Event
	err     error
}

func NewEventScanner(r io.Reader) *EventScanner {
	return &EventScanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next event. It returns false at end of stream or on a
// read error, see Err.
func (s *EventScanner) Next() bool {
	if s.err != nil {
		return false
	}
	s.current = Event{}
	var data []string
	eventType := ""

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			s.err = err
			if err == io.EOF && len(data) > 0 {
				s.current = Event{Type: eventType, Data: strings.Join(data, "\n")}
				return true
			}
			return false
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if len(data) > 0 {
				s.current = Event{Type: eventType, Data: strings.Join(data, "\n")}
				return true
			}
			eventType = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			data = append(data, value)
		case "event":
			eventType = value
		}
	}
}

func (s *EventScanner) Event() Event { return s.current }

// Err returns the read error that ended the scan, nil on a clean EOF.
func (s *EventScanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// Open connects to the decision stream.
func (c *Client) Open(ctx context.Context) (ports.FeedConn, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+"/api/stream", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("open stream: %w", statusError(resp))
	}

	conn := &streamConn{
		ctx:      ctx,
		cancel:   cancel,
		body:     resp.Body,
		messages: make(chan []byte),
	}
	go conn.read()
	log.Debug("decision stream connected")
	return conn, nil
}

type streamConn struct {
	ctx      context.Context
	cancel   context.CancelFunc
	body     io.ReadCloser
	messages chan []byte

	mu  sync.Mutex
	err error
}

func (c *streamConn) read() {
	defer close(c.messages)
	defer c.body.Close()

	scanner := NewEventScanner(c.body)
	for scanner.Next() {
		ev := scanner.Event()
		if ev.Type != "" && ev.Type != "message" {
			log.Tracef("ignoring %q event", ev.Type)
			continue
		}
		select {
		case c.messages <- []byte(ev.Data):
		case <-c.ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && c.ctx.Err() == nil {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
	}
}

func (c *streamConn) Messages() <-chan []byte { return c.messages }

func (c *streamConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close cancels the request. It does not wait for the reader to finish.
func (c *streamConn) Close() error {
	c.cancel()
	return nil
}
