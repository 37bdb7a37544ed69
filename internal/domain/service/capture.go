package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"time"

	"liquid-home-console/internal/ports"
)

const (
	uploadTimeout     = 5 * time.Second
	compensateTimeout = 5 * time.Second
)

// CaptureStats counts what the capture loop did since it was created.
type CaptureStats struct {
	Ticks    uint64 `json:"ticks"`
	Skipped  uint64 `json:"skipped"`
	Uploaded uint64 `json:"uploaded"`
	Dropped  uint64 `json:"dropped"`
	Failed   uint64 `json:"failed"`
}

// CaptureLoop grabs a frame every period and uploads it without waiting for
// the previous upload. Frames are never queued: a tick with no ready source is
// skipped and a failed upload is only logged.
type CaptureLoop struct {
	source   ports.FrameSource
	uploader ports.FrameUploader
	period   time.Duration
	quality  int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	ticks, skipped, uploaded, dropped, failed atomic.Uint64
}

// NewCaptureLoop creates an idle loop ticking fps times per second.
func NewCaptureLoop(source ports.FrameSource, uploader ports.FrameUploader, fps float64, quality int) *CaptureLoop {
	return &CaptureLoop{
		source:   source,
		uploader: uploader,
		period:   time.Duration(float64(time.Second) / fps),
		quality:  quality,
	}
}

func (c *CaptureLoop) Period() time.Duration { return c.period }

// Start is a no-op when the loop is already running. The first frame is
// captured immediately.
func (c *CaptureLoop) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
	log.Debugf("capture loop started, period %s", c.period)
}

// Stop cancels the timer and waits until no further tick can fire. Uploads
// already in flight are left to finish. Safe to call when idle.
func (c *CaptureLoop) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Debug("capture loop stopped")
}

func (c *CaptureLoop) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *CaptureLoop) Stats() CaptureStats {
	return CaptureStats{
		Ticks:    c.ticks.Load(),
		Skipped:  c.skipped.Load(),
		Uploaded: c.uploaded.Load(),
		Dropped:  c.dropped.Load(),
		Failed:   c.failed.Load(),
	}
}

func (c *CaptureLoop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	c.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *CaptureLoop) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	c.ticks.Add(1)
	if !c.source.Ready() {
		c.skipped.Add(1)
		log.Trace("frame source not ready, skipping tick")
		return
	}
	img, err := c.source.Frame()
	if err != nil {
		c.skipped.Add(1)
		log.WithError(err).Warn("could not grab frame")
		return
	}
	dataURL, err := EncodeFrame(img, c.quality)
	if err != nil {
		c.skipped.Add(1)
		log.WithError(err).Warn("could not encode frame")
		return
	}
	go c.upload(dataURL)
}

func (c *CaptureLoop) upload(dataURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	err := c.uploader.UploadFrame(ctx, dataURL)
	if errors.Is(err, ports.ErrFrameDropped) {
		c.dropped.Add(1)
		log.Debug("backend queue full, frame dropped")
		return
	}
	if err != nil {
		c.failed.Add(1)
		log.WithError(err).Warn("frame upload failed")
		return
	}
	c.uploaded.Add(1)
}

// EncodeFrame encodes img as a JPEG data URL.
func EncodeFrame(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
