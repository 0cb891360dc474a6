package sequencer

const (
	// TickScale keeps tick counters inside 32 bits across the supported
	// tempo and sample rate range.
	TickScale = 4096

	DefaultBPM = 120
	MinBPM     = 32
)

// Tempo holds the timing constants derived from the current bpm.
type Tempo struct {
	BPM            uint8
	TicksPer16th   uint32
	TicksPerSample uint32
}

// Change switches to a new bpm and re-expresses every length in lengths in
// the new tick basis. Before the first tempo is set the old basis is zero and
// the lengths come out as zero.
func (t *Tempo) Change(bpm uint8, sampleRate uint32, lengths ...*uint32) {
	if bpm == 0 {
		bpm = DefaultBPM
	} else if bpm < MinBPM {
		bpm = MinBPM
	}

	ratio := t.TicksPer16th / TickScale
	for _, l := range lengths {
		if ratio == 0 {
			*l = 0
		} else {
			*l /= ratio
		}
	}

	t.BPM = bpm
	t.TicksPer16th = TickScale * ((60 * sampleRate) / uint32(bpm))
	t.TicksPerSample = (uint32(bpm) * TickScale) / (sampleRate / 1600)

	ratio = t.TicksPer16th / TickScale
	for _, l := range lengths {
		*l *= ratio
	}
}

// Length returns the ticks of a note with the given divisor (4 = quarter).
func (t Tempo) Length(divisor uint32) uint32 {
	return (t.TicksPer16th * 16) / divisor
}
