package mml

// MaxNote is the highest chromatic index: eight octaves of twelve notes.
const MaxNote = 95

// MaxOctave is the highest octave selectable with o, < and >.
const MaxOctave = 7

// 5.27 fixed point frequencies of C0..B0, equal temperament.
var freqTable = [12]uint32{
	0x82d01286, 0x8a976073, 0x92d5171d, 0x9b904100, 0xa4d053c8, 0xae9d36b0,
	0xb8ff493e, 0xc3ff6a72, 0xcfa70054, 0xdc000000, 0xe914f623, 0xf6f11004,
}

const noteNames = "cdefgabh"

var semitones = [len(noteNames)]int{0, 2, 4, 5, 7, 9, 11, 11}

// PhaseStep returns the per-sample oscillator increment for a chromatic index.
func PhaseStep(index int, sampleRate uint32) uint32 {
	return (freqTable[index%12] / sampleRate) << uint(index/12)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
