package frames

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"liquid-home-console/internal/ports"
)

var log = logrus.WithField("prefix", "frames")

// DirSource replays the still images of a directory in name order, looping
// forever. It is never ready when the directory holds no images.
type DirSource struct {
	paths []string

	mu   sync.Mutex
	next int
}

// NewDirSource lists the .jpg, .jpeg and .png files of dir.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		log.Warnf("no images in %s, every capture tick will be skipped", dir)
	} else {
		log.Infof("replaying %d frames from %s", len(paths), dir)
	}
	return &DirSource{paths: paths}, nil
}

func (s *DirSource) Len() int { return len(s.paths) }

func (s *DirSource) Ready() bool { return len(s.paths) > 0 }

// Frame decodes the next image.
func (s *DirSource) Frame() (image.Image, error) {
	if len(s.paths) == 0 {
		return nil, fmt.Errorf("no frames available")
	}
	s.mu.Lock()
	path := s.paths[s.next]
	s.next = (s.next + 1) % len(s.paths)
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// PatternSource renders a moving bar on a grey background. Used when no
// frames directory is configured.
type PatternSource struct {
	width, height int

	mu    sync.Mutex
	frame int
}

func NewPatternSource(width, height int) *PatternSource {
	return &PatternSource{width: width, height: height}
}

func (s *PatternSource) Ready() bool { return s.width > 0 && s.height > 0 }

func (s *PatternSource) Frame() (image.Image, error) {
	s.mu.Lock()
	n := s.frame
	s.frame++
	s.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	barWidth := s.width / 8
	if barWidth == 0 {
		barWidth = 1
	}
	start := (n * barWidth) % s.width
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			c := color.RGBA{R: 96, G: 96, B: 96, A: 255}
			if x >= start && x < start+barWidth {
				c = color.RGBA{R: 240, G: 200, B: 40, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

var (
	_ ports.FrameSource = (*DirSource)(nil)
	_ ports.FrameSource = (*PatternSource)(nil)
)
