package renderer

import (
	"github.com/sirupsen/logrus"

	"liquid-home-console/internal/ports"
)

var log = logrus.WithField("prefix", "room")

// Multi forwards every change to each renderer in order.
type Multi []ports.RoomRenderer

func (m Multi) ApplyLightState(on bool) {
	for _, r := range m {
		r.ApplyLightState(on)
	}
}

func (m Multi) ApplyCurtainTarget(open bool) {
	for _, r := range m {
		r.ApplyCurtainTarget(open)
	}
}

// Log is the status line: it writes every change to the log.
type Log struct{}

func (Log) ApplyLightState(on bool) {
	if on {
		log.Info("lights ON")
		return
	}
	log.Info("lights OFF")
}

func (Log) ApplyCurtainTarget(open bool) {
	if open {
		log.Info("curtains OPEN")
		return
	}
	log.Info("curtains CLOSED")
}

var (
	_ ports.RoomRenderer = Multi(nil)
	_ ports.RoomRenderer = Log{}
)
