package model

// HueMetadata describes how a room device presents itself as a Hue light.
type HueMetadata struct {
	Type             string
	ModelID          string
	ManufacturerName string
}
