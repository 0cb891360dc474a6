package sequencer

import (
	"errors"
	"fmt"

	"github.com/cbegin/blip-go/internal/chiptune"
	"github.com/cbegin/blip-go/internal/mml"
)

const (
	// MinSampleRate is the lowest rate with a non-zero tick divisor.
	MinSampleRate = 1600
	// MaxSampleRate keeps ticks per 16th inside 32 bits at the slowest tempo.
	MaxSampleRate = 384000

	defaultOctave = 4
	defaultVolume = 127
	maxVolume     = 127
	maxTempo      = 255
)

var ErrSampleRate = errors.New("sample rate out of range")

// Sequencer decodes one notation string and renders it sample by sample.
// Rendering can stop at any buffer boundary and resume on the next call.
// A Sequencer must not be used from more than one goroutine at a time.
type Sequencer struct {
	cursor        mml.Cursor
	sampleRate    uint32
	tempo         Tempo
	octave        uint8
	volume        uint8
	defaultLength uint32
	tie           bool
	note          mml.Note // Length counts the ticks still to play
	osc           chiptune.Oscillator
}

// State is a snapshot of a sequencer, for diagnostics.
type State struct {
	Offset         int
	SampleRate     uint32
	BPM            uint8
	TicksPer16th   uint32
	TicksPerSample uint32
	Octave         uint8
	Volume         uint8
	DefaultLength  uint32
	Tie            bool
	RemainingTicks uint32
	PhaseStep      uint32
	Phase          uint32
}

// New starts a song at 120 bpm, octave 4, full volume and default length l4.
func New(notation string, sampleRate int) (*Sequencer, error) {
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return nil, fmt.Errorf("%w: %d (want %d..%d)", ErrSampleRate, sampleRate, MinSampleRate, MaxSampleRate)
	}
	s := &Sequencer{
		cursor:     mml.NewCursor(notation),
		sampleRate: uint32(sampleRate),
	}
	s.tempo.Change(DefaultBPM, s.sampleRate, &s.defaultLength, &s.note.Length)
	s.octave = defaultOctave
	s.volume = defaultVolume
	s.defaultLength = s.tempo.Length(4)
	return s, nil
}

// Process mixes samples into dst until dst is full or the current track ends.
// It returns the number of samples written; on a decode error the samples
// written before the failing command are counted.
func Process[T chiptune.Sample](s *Sequencer, dst []T) (int, error) {
	return s.run(len(dst), func(at, n int) {
		chiptune.Mix(dst[at:at+n], &s.osc, s.note.PhaseStep, s.volume)
	})
}

// Skip advances like Process over at most limit samples without producing them.
func (s *Sequencer) Skip(limit int) (int, error) {
	return s.run(limit, func(_, n int) {
		s.osc.Advance(n, s.note.PhaseStep)
	})
}

func (s *Sequencer) run(limit int, render func(at, n int)) (int, error) {
	total := 0
	for limit > 0 {
		ch, at := s.cursor.Current()
		s.cursor = at

		if ch == '&' {
			s.tie = true
			s.cursor = at.Advance()
			continue
		}

		if !s.tie {
			if n := s.samples(limit); n > 0 {
				render(total, n)
				limit -= n
				total += n
			}
			if limit == 0 {
				break
			}
		}

		if mml.IsSeparator(ch) {
			if s.tie {
				return total, &mml.SyntaxError{Offset: at.Offset(), Char: at.Peek(), Reason: "tie without a following note"}
			}
			if s.note.Length == 0 {
				break
			}
		}

		s.cursor = at.Advance()
		if err := s.dispatch(ch, at); err != nil {
			return total, err
		}
	}
	return total, nil
}

// samples consumes the ticks of at most limit samples of the active note and
// returns how many samples that is.
func (s *Sequencer) samples(limit int) int {
	tps := s.tempo.TicksPerSample
	n := int((s.note.Length + tps - 1) / tps)
	if n > limit {
		n = limit
	}
	consumed := uint32(n) * tps
	if consumed > s.note.Length {
		consumed = s.note.Length
	}
	s.note.Length -= consumed
	return n
}

// dispatch executes the command ch found at cursor position at. The
// sequencer cursor has already moved past ch.
func (s *Sequencer) dispatch(ch byte, at mml.Cursor) error {
	switch ch {
	case 't':
		bpm, next, err := mml.DecodeUint(s.cursor, maxTempo)
		s.cursor = next
		if err != nil {
			return err
		}
		s.tempo.Change(uint8(bpm), s.sampleRate, &s.defaultLength, &s.note.Length)
	case 'v':
		vol, next, err := mml.DecodeUint(s.cursor, maxVolume)
		s.cursor = next
		if err != nil {
			return err
		}
		s.volume = uint8(vol)
	case 'o':
		oct, next, err := mml.DecodeUint(s.cursor, mml.MaxOctave)
		s.cursor = next
		if err != nil {
			return err
		}
		s.octave = uint8(oct)
	case '<':
		if s.octave > 0 {
			s.octave--
		}
	case '>':
		if s.octave < mml.MaxOctave {
			s.octave++
		}
	case 'l':
		length, next, err := mml.DecodeLength(s.cursor, s.tempo.TicksPer16th, s.defaultLength)
		s.cursor = next
		if err != nil {
			return err
		}
		s.defaultLength = length
	case 'r', 'p':
		length, next, err := mml.DecodeLength(s.cursor, s.tempo.TicksPer16th, s.defaultLength)
		s.cursor = next
		if err != nil {
			return err
		}
		if s.tie {
			// the rest extends the sounding note
			s.note.Length += length
			s.tie = false
		} else {
			s.note = mml.Note{Length: length}
		}
	default:
		// not a command: decode a note starting at ch itself
		note, next, err := mml.DecodeNote(at, s.noteContext())
		s.cursor = next
		if err != nil {
			return err
		}
		if s.tie {
			s.note.Length += note.Length
			s.tie = false
		} else {
			s.note = note
			s.osc.Reset()
		}
	}
	return nil
}

func (s *Sequencer) noteContext() mml.NoteContext {
	return mml.NoteContext{
		Octave:        s.octave,
		TicksPer16th:  s.tempo.TicksPer16th,
		DefaultLength: s.defaultLength,
		SampleRate:    s.sampleRate,
	}
}

// NextTrack steps over the separator that ended the current track. It
// returns false at the end of the song or while the track is still playing.
// Tempo, octave, volume and default length carry over into the next track.
func (s *Sequencer) NextTrack() bool {
	if s.note.Length != 0 || s.tie {
		return false
	}
	ch, at := s.cursor.Current()
	s.cursor = at
	if ch != ',' && ch != ';' {
		return false
	}
	s.cursor = at.Advance()
	return true
}

// AtEnd reports whether the whole notation has been played.
func (s *Sequencer) AtEnd() bool {
	return s.note.Length == 0 && s.cursor.SkipSpace().AtEnd()
}

// Offset returns the byte offset of the decoder within the notation.
func (s *Sequencer) Offset() int { return s.cursor.Offset() }

// Clone returns an independent copy that continues from the same position.
func (s *Sequencer) Clone() *Sequencer {
	c := *s
	return &c
}

func (s *Sequencer) State() State {
	return State{
		Offset:         s.cursor.Offset(),
		SampleRate:     s.sampleRate,
		BPM:            s.tempo.BPM,
		TicksPer16th:   s.tempo.TicksPer16th,
		TicksPerSample: s.tempo.TicksPerSample,
		Octave:         s.octave,
		Volume:         s.volume,
		DefaultLength:  s.defaultLength,
		Tie:            s.tie,
		RemainingTicks: s.note.Length,
		PhaseStep:      s.note.PhaseStep,
		Phase:          s.osc.Phase(),
	}
}
