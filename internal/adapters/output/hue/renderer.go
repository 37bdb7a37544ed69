package hue

import (
	"context"
	"sync"

	"github.com/amimof/huego"
	"github.com/sirupsen/logrus"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/domain/translator"
	"liquid-home-console/internal/ports"
)

var log = logrus.WithField("prefix", "hue")

// LightSetter is the part of *huego.Bridge the renderer uses.
type LightSetter interface {
	SetLightState(id int, state huego.State) (*huego.Response, error)
}

// Renderer mirrors the room onto a Hue bridge: one light for the room lights
// and one window covering for the curtain blinds. An id of 0 disables that
// device. Only the latest requested state is sent; intermediate states are
// overwritten while the bridge is busy.
type Renderer struct {
	bridge    LightSetter
	lightID   int
	curtainID int
	factory   *translator.Factory

	mu      sync.Mutex
	light   *bool
	curtain *bool
	wake    chan struct{}
}

// NewBridgeRenderer connects to the bridge at host with an already paired user.
func NewBridgeRenderer(host, user string, lightID, curtainID int) *Renderer {
	return NewRenderer(huego.New(host, user), lightID, curtainID)
}

func NewRenderer(bridge LightSetter, lightID, curtainID int) *Renderer {
	return &Renderer{
		bridge:    bridge,
		lightID:   lightID,
		curtainID: curtainID,
		factory:   translator.NewFactory(),
		wake:      make(chan struct{}, 1),
	}
}

func (r *Renderer) ApplyLightState(on bool) {
	if r.lightID == 0 {
		return
	}
	r.mu.Lock()
	r.light = &on
	r.mu.Unlock()
	r.notify()
}

func (r *Renderer) ApplyCurtainTarget(open bool) {
	if r.curtainID == 0 {
		return
	}
	r.mu.Lock()
	r.curtain = &open
	r.mu.Unlock()
	r.notify()
}

func (r *Renderer) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run sends pending states to the bridge until ctx is done.
func (r *Renderer) Run(ctx context.Context) error {
	log.Infof("mirroring room to Hue lights %d (lights) and %d (curtains)", r.lightID, r.curtainID)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.wake:
			r.flush()
		}
	}
}

func (r *Renderer) flush() {
	r.mu.Lock()
	light, curtain := r.light, r.curtain
	r.light, r.curtain = nil, nil
	r.mu.Unlock()

	if light != nil {
		r.send(r.lightID, model.FlagLights, *light)
	}
	if curtain != nil {
		r.send(r.curtainID, model.FlagCurtains, *curtain)
	}
}

func (r *Renderer) send(id int, flag model.Flag, value bool) {
	state := r.factory.GetTranslator(flag).ToHue(value)
	// reachable is read-only on the bridge
	state.Reachable = false
	if _, err := r.bridge.SetLightState(id, *state); err != nil {
		log.WithError(err).WithField("light", id).Warnf("could not update %s", flag)
		return
	}
	log.WithField("light", id).Debugf("%s set to %v", flag, value)
}

var _ ports.RoomRenderer = (*Renderer)(nil)
