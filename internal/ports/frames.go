package ports

import "image"

// FrameSource is the video input the capture loop samples.
type FrameSource interface {
	// Ready reports whether a frame can be grabbed right now.
	Ready() bool
	Frame() (image.Image, error)
}
