package geometry

import "math"

// CompassSlots is the number of evenly spaced directions around a hub.
const CompassSlots = 8

// SlotAngle returns the angle of compass slot i: 0°, 45°, …, 315°.
func SlotAngle(i int) float64 {
	return float64(i) * 2 * math.Pi / CompassSlots
}

// NearestSlot returns the compass slot closest to angle theta.
func NearestSlot(theta float64) int {
	step := 2 * math.Pi / CompassSlots
	i := int(math.Round(theta/step)) % CompassSlots
	if i < 0 {
		i += CompassSlots
	}
	return i
}

// NearestFreeSlot returns the free compass slot closest to theta, or -1 when
// every slot is taken. Ties go to the lower slot index.
func NearestFreeSlot(theta float64, taken [CompassSlots]bool) int {
	best, bestDiff := -1, math.Inf(1)
	for i := 0; i < CompassSlots; i++ {
		if taken[i] {
			continue
		}
		if d := AngleDiff(theta, SlotAngle(i)); d < bestDiff-1e-12 {
			best, bestDiff = i, d
		}
	}
	return best
}
