package translator

import (
	"github.com/amimof/huego"

	"liquid-home-console/internal/domain/model"
)

// Translator converts one device flag of the room to and from a Hue light state.
type Translator interface {
	ToHue(value bool) *huego.State
	FromHue(state *huego.State) bool
	GetMetadata() model.HueMetadata
}
