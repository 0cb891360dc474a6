package chiptune

// PhaseBits is the width of the oscillator accumulator (5.27 fixed point
// with the integer part discarded).
const PhaseBits = 27

const phaseMask = 1<<PhaseBits - 1

// Oscillator is a wrapping phase accumulator shared by every note of a track.
type Oscillator struct {
	phase uint32
}

// Phase returns the current accumulator value.
func (o *Oscillator) Phase() uint32 { return o.phase }

// Reset restarts the waveform; called when a new note replaces the current one.
func (o *Oscillator) Reset() { o.phase = 0 }

// Advance skips n samples without producing them.
func (o *Oscillator) Advance(n int, step uint32) {
	o.phase = (o.phase + uint32(n)*step) & phaseMask
}

// next returns the raw sample at the current phase and steps the accumulator.
// The top eight bits of the phase form a sawtooth centred on zero.
func (o *Oscillator) next(step uint32, volume uint8) int32 {
	w := int32((o.phase >> 19) & 0xFF)
	o.phase = (o.phase + step) & phaseMask
	return ((w - 128) * int32(volume)) >> 4
}
