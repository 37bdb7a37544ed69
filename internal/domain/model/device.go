package model

// DeviceState is the binary home state the console owns.
type DeviceState struct {
	LightsOn     bool `json:"lights_on"`
	CurtainsOpen bool `json:"curtains_open"`
}

// DefaultDeviceState returns the state a fresh session starts in: lights off, curtains open.
func DefaultDeviceState() DeviceState {
	return DeviceState{LightsOn: false, CurtainsOpen: true}
}

// Flag names one of the two booleans in DeviceState.
type Flag string

const (
	FlagLights   Flag = "lights"
	FlagCurtains Flag = "curtains"
)

// Get returns the current value of flag f.
func (s DeviceState) Get(f Flag) bool {
	if f == FlagCurtains {
		return s.CurtainsOpen
	}
	return s.LightsOn
}

// With returns a copy of s with flag f set to v.
func (s DeviceState) With(f Flag, v bool) DeviceState {
	switch f {
	case FlagLights:
		s.LightsOn = v
	case FlagCurtains:
		s.CurtainsOpen = v
	}
	return s
}

func (s DeviceState) String() string {
	lights := "OFF"
	if s.LightsOn {
		lights = "ON"
	}
	curtains := "CLOSED"
	if s.CurtainsOpen {
		curtains = "OPEN"
	}
	return "lights " + lights + ", curtains " + curtains
}
