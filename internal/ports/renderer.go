package ports

// RoomRenderer is told about every effective change of the device state.
// Calls must not block for long; they happen while the state is locked.
type RoomRenderer interface {
	ApplyLightState(on bool)
	ApplyCurtainTarget(open bool)
}
