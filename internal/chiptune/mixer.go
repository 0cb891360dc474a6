package chiptune

import "math"

// Sample is an output sample format. Both formats mix additively into the
// destination and saturate instead of wrapping.
type Sample interface {
	int16 | float32
}

// Mix renders len(dst) samples of a note into dst. The format mixer is
// chosen once per call.
func Mix[T Sample](dst []T, osc *Oscillator, step uint32, volume uint8) {
	switch d := any(dst).(type) {
	case []int16:
		for i := range d {
			d[i] = addInt16(d[i], osc.next(step, volume))
		}
	case []float32:
		for i := range d {
			d[i] = addFloat32(d[i], float32(osc.next(step, volume))/32768)
		}
	}
}

// Accumulate mixes src into dst sample by sample with the same saturation
// rules as Mix. dst must be at least as long as src.
func Accumulate[T Sample](dst, src []T) {
	switch d := any(dst).(type) {
	case []int16:
		s := any(src).([]int16)
		for i, v := range s {
			d[i] = addInt16(d[i], int32(v))
		}
	case []float32:
		s := any(src).([]float32)
		for i, v := range s {
			d[i] = addFloat32(d[i], v)
		}
	}
}

func addInt16(dst int16, v int32) int16 {
	sum := int32(dst) + v
	if sum < math.MinInt16 {
		return math.MinInt16
	}
	if sum > math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(sum)
}

func addFloat32(dst, v float32) float32 {
	sum := dst + v
	if sum < -1 {
		return -1
	}
	if sum > 1 {
		return 1
	}
	return sum
}
