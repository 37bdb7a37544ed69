package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/ports"
)

var log = logrus.WithField("prefix", "backend")

// StatusError is a non-2xx reply from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Code)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
}

// Client talks to the vision pipeline backend: config and rules, frame
// ingestion and the decision stream.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
	// streamClient has no overall timeout, the decision stream stays open.
	streamClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
	}
	c.Configure(baseURL)
	return c
}

func (c *Client) Configure(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimSuffix(baseURL, "/")
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) FetchConfig(ctx context.Context) (model.Snapshot, error) {
	var cfg configDTO
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, &cfg); err != nil {
		return model.Snapshot{}, fmt.Errorf("fetch config: %w", err)
	}
	return cfg.toModel(), nil
}

func (c *Client) CreateRule(ctx context.Context, conditionText, actionID string) (model.Rule, error) {
	req := createRuleRequest{ConditionText: conditionText, ActionID: actionID}
	var created ruleDTO
	if err := c.do(ctx, http.MethodPost, "/api/config/rules", req, &created); err != nil {
		return model.Rule{}, fmt.Errorf("create rule: %w", err)
	}
	rule := created.toModel()
	if rule.ConditionText == "" {
		rule.ConditionText = conditionText
	}
	if rule.ActionID == "" {
		rule.ActionID = actionID
	}
	return rule, nil
}

func (c *Client) DeleteRule(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/config/rules/"+url.PathEscape(id), nil, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return fmt.Errorf("delete rule %s: %w", id, ports.ErrRuleNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	return nil
}

// UploadFrame posts one frame. A 503 queue_full reply is reported as
// ports.ErrFrameDropped.
func (c *Client) UploadFrame(ctx context.Context, dataURL string) error {
	err := c.do(ctx, http.MethodPost, "/api/live_frame", liveFrameRequest{ImageBase64: dataURL}, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusServiceUnavailable {
		return fmt.Errorf("upload frame: %s: %w", se.Message, ports.ErrFrameDropped)
	}
	if err != nil {
		return fmt.Errorf("upload frame: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(resp *http.Response) *StatusError {
	se := &StatusError{Code: resp.StatusCode}
	var reply errorReply
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &reply) == nil {
		se.Message = reply.text()
	}
	return se
}

var (
	_ ports.ConfigBackend = (*Client)(nil)
	_ ports.FrameUploader = (*Client)(nil)
	_ ports.DecisionFeed  = (*Client)(nil)
)
