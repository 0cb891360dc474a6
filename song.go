// Package blip renders Music Macro Language (MML) notation to mono PCM
// audio with a single sawtooth voice per track.
//
// Notation summary (case-insensitive, whitespace ignored):
//
//	c d e f g a b h   note in the current octave (h = b), followed by
//	                  accidentals # + - and an optional length
//	n<0-95>           note by chromatic index
//	r, p              rest
//	<1-128>[.]        length divisor (4 = quarter) with optional dots
//	t<0-255>          tempo in bpm (0 = 120, below 32 = 32)
//	v<0-127>          volume
//	o<0-7> < >        octave
//	l<length>         default length
//	&                 tie the next note or rest onto the current one
//	, ;               track separator
package blip

import (
	"errors"
	"fmt"

	"github.com/cbegin/blip-go/internal/chiptune"
	"github.com/cbegin/blip-go/internal/mml"
	"github.com/cbegin/blip-go/internal/sequencer"
)

const (
	MinSampleRate = sequencer.MinSampleRate
	MaxSampleRate = sequencer.MaxSampleRate
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformed is matched by every *SyntaxError.
	ErrMalformed = mml.ErrMalformed
)

// SyntaxError reports the byte offset where decoding failed.
type SyntaxError = mml.SyntaxError

// Sample is an output sample format: int16 or float32.
type Sample = chiptune.Sample

// State is a diagnostic snapshot of a song.
type State = sequencer.State

// Format selects an output sample format at run time.
type Format int

const (
	FormatFloat32 Format = iota
	FormatInt16
)

func (f Format) String() string {
	switch f {
	case FormatFloat32:
		return "float32"
	case FormatInt16:
		return "int16"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Song is one playback instance of a notation string. A Song is not safe for
// concurrent use; independent Songs may be driven from separate goroutines.
type Song struct {
	seq *sequencer.Sequencer
}

// NewSong starts a song at 120 bpm, octave 4, volume 127 and default length l4.
func NewSong(notation string, sampleRate int) (*Song, error) {
	seq, err := sequencer.New(notation, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return &Song{seq: seq}, nil
}

// Generate mixes samples into dst, adding to what dst already holds. It
// returns len(dst) while the current track has more to play, and fewer once
// the track ended; a call at the end of a track returns 0. Decode errors are
// *SyntaxError values.
func Generate[T Sample](song *Song, dst []T) (int, error) {
	if song == nil || song.seq == nil {
		return 0, ErrInvalidArgument
	}
	if len(dst) == 0 {
		return 0, nil
	}
	return sequencer.Process(song.seq, dst)
}

func (s *Song) MixFloat32(dst []float32) (int, error) { return Generate(s, dst) }

func (s *Song) MixInt16(dst []int16) (int, error) { return Generate(s, dst) }

// NextTrack moves past the separator that ended the current track. It
// returns false at the end of the song.
func (s *Song) NextTrack() bool { return s.seq.NextTrack() }

// AtEnd reports whether every track has been played.
func (s *Song) AtEnd() bool { return s.seq.AtEnd() }

// Offset returns the decoder position in bytes, e.g. for reporting where a
// decode error happened.
func (s *Song) Offset() int { return s.seq.Offset() }

// State returns a snapshot of the decoder and note state.
func (s *Song) State() State { return s.seq.State() }

func (s *Song) clone() *Song { return &Song{seq: s.seq.Clone()} }
