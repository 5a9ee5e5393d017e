package coolproto

import "fmt"

// Curve is a list of duty points in percent, indexed by temperature
// step. The number of points and their temperature spacing are device
// specific.
type Curve []uint8

// Validate checks the point count and that duty cycles never decrease
// as temperature rises. The devices apply whatever they are given, so a
// malformed curve is rejected here instead of being clamped or
// reordered.
func (c Curve) Validate(points int) error {
	if len(c) != points {
		return fmt.Errorf("%w: curve has %d points, want %d", ErrInvalidValue, len(c), points)
	}
	for i, p := range c {
		if p > 100 {
			return fmt.Errorf("%w: curve point %d is %d%%", ErrInvalidValue, i, p)
		}
		if i > 0 && p < c[i-1] {
			return fmt.Errorf("%w: curve point %d (%d%%) below point %d (%d%%)",
				ErrInvalidValue, i, p, i-1, c[i-1])
		}
	}
	return nil
}

// FlatCurve returns a fixed-duty curve with every point at percent,
// except the last which is forced to 100% so the device still ramps up
// above the critical liquid temperature.
func FlatCurve(points int, percent uint8) Curve {
	c := make(Curve, points)
	for i := range c {
		c[i] = percent
	}
	c[points-1] = 100
	return c
}
