package translator

import (
	"github.com/amimof/huego"

	"liquid-home-console/internal/domain/model"
)

type LightStrategy struct{}

func (s *LightStrategy) ToHue(on bool) *huego.State {
	return &huego.State{
		On:        on,
		Bri:       254,
		Reachable: true,
	}
}

func (s *LightStrategy) FromHue(state *huego.State) bool {
	return state.On
}

func (s *LightStrategy) GetMetadata() model.HueMetadata {
	return model.HueMetadata{
		Type:             "Dimmable light",
		ModelID:          "LWB010",
		ManufacturerName: "Philips",
	}
}
