package joystick

// HatMode selects how a target device represents its hat switch.
type HatMode int

const (
	// HatDiscrete is a 4-way hat: N/E/S/W plus centered.
	HatDiscrete HatMode = iota
	// HatContinuous is a 360 degree hat with 1/100 degree resolution.
	HatContinuous
)

// FourWay is a discrete 4-way hat direction.
type FourWay int

const (
	HatCentered FourWay = iota
	HatNorth
	HatEast
	HatSouth
	HatWest
)

// ContinuousCentered is the reserved neutral value for continuous hats.
const ContinuousCentered uint32 = 0xFFFFFFFF

// FourWayFromXY collapses a hat (x, y) pair (each -1..1, y=-1 is up) onto a
// 4-way direction. Diagonals resolve to the vertical component; this matches
// the wire producer's convention and is kept as the single policy rather
// than being configurable.
func FourWayFromXY(x, y int8) FourWay {
	x, y = clampHat(int32(x)), clampHat(int32(y))
	switch {
	case y == -1:
		return HatNorth
	case y == 1:
		return HatSouth
	case x == 1:
		return HatEast
	case x == -1:
		return HatWest
	default:
		return HatCentered
	}
}

// ContinuousFromXY maps a hat (x, y) pair onto a centi-degree angle with the
// eight 45 degree directions, 0 = North, clockwise. Centered yields
// ContinuousCentered.
func ContinuousFromXY(x, y int8) uint32 {
	x, y = clampHat(int32(x)), clampHat(int32(y))
	var deg uint32
	switch {
	case x == 0 && y == -1:
		deg = 0
	case x == 1 && y == -1:
		deg = 45
	case x == 1 && y == 0:
		deg = 90
	case x == 1 && y == 1:
		deg = 135
	case x == 0 && y == 1:
		deg = 180
	case x == -1 && y == 1:
		deg = 225
	case x == -1 && y == 0:
		deg = 270
	case x == -1 && y == -1:
		deg = 315
	default:
		return ContinuousCentered
	}
	return deg * 100
}
