package translator

import (
	"github.com/amimof/huego"

	"liquid-home-console/internal/domain/model"
)

// CoverStrategy presents the curtain blinds as a window covering whose
// brightness is the open position: 254 fully open, 0 closed.
type CoverStrategy struct{}

func (s *CoverStrategy) ToHue(open bool) *huego.State {
	state := &huego.State{On: open, Reachable: true}
	if open {
		state.Bri = 254
	}
	return state
}

// FromHue treats any position above half open as open. A plain "on" with no
// brightness opens the blinds.
func (s *CoverStrategy) FromHue(state *huego.State) bool {
	if !state.On {
		return false
	}
	if state.Bri == 0 {
		return true
	}
	return int(float64(state.Bri)/2.54) >= 50
}

func (s *CoverStrategy) GetMetadata() model.HueMetadata {
	return model.HueMetadata{
		Type:             "Window covering device",
		ModelID:          "LCT001",
		ManufacturerName: "Philips",
	}
}
