package mml

import (
	"fmt"
	"strings"
)

// MaxDivisor is the largest length divisor: a 128th note.
const MaxDivisor = 128

// Note is a fully resolved note or rest.
type Note struct {
	Length    uint32 // ticks
	PhaseStep uint32 // 0 for rests
}

// NoteContext carries the performance state a note is resolved against.
type NoteContext struct {
	Octave        uint8
	TicksPer16th  uint32
	DefaultLength uint32
	SampleRate    uint32
}

// DecodeUint parses a run of decimal digits no larger than max. On failure the
// returned cursor points at the offending lexeme.
func DecodeUint(c Cursor, max uint32) (uint32, Cursor, error) {
	c = c.SkipSpace()
	start := c
	if !isDigit(c.Peek()) {
		return 0, start, syntaxError(start, "expected number")
	}
	var v uint64
	for isDigit(c.Peek()) {
		if v <= uint64(max) {
			v = v*10 + uint64(c.Peek()-'0')
		}
		c = c.Advance()
	}
	if v > uint64(max) {
		return 0, start, syntaxError(start, fmt.Sprintf("number exceeds %d", max))
	}
	return uint32(v), c, nil
}

// DecodeLength parses an optional divisor followed by any number of dots.
// Without a divisor the length is defaultLength.
func DecodeLength(c Cursor, ticksPer16th, defaultLength uint32) (uint32, Cursor, error) {
	ch, c := c.Current()
	length := defaultLength
	if isDigit(ch) {
		n, next, err := DecodeUint(c, MaxDivisor)
		if err != nil {
			return 0, next, err
		}
		if n == 0 {
			return 0, c, syntaxError(c, "zero length divisor")
		}
		length = (ticksPer16th * 16) / n
		ch, c = next.Current()
	}
	dot := length
	for ch == '.' {
		dot >>= 1
		length += dot
		ch, c = c.Advance().Current()
	}
	if length == 0 {
		return 0, c, syntaxError(c, "zero length")
	}
	return length, c, nil
}

// DecodeNote resolves a pitch (n<index> or a note letter), its accidentals
// and its length.
func DecodeNote(c Cursor, nc NoteContext) (Note, Cursor, error) {
	ch, c := c.Current()
	var index int
	if ch == 'n' {
		v, next, err := DecodeUint(c.Advance(), MaxNote)
		if err != nil {
			return Note{}, next, err
		}
		index = int(v)
		c = next
	} else {
		degree := strings.IndexByte(noteNames, ch)
		if ch == 0 || degree < 0 {
			return Note{}, c, syntaxError(c, "unknown command")
		}
		index = 12*int(nc.Octave) + semitones[degree]
		c = c.Advance()
	}

	// accidentals clamp after every step
	ch, c = c.Current()
	for ch == '#' || ch == '+' || ch == '-' {
		if ch == '-' {
			index--
		} else {
			index++
		}
		index = clampInt(index, 0, MaxNote)
		ch, c = c.Advance().Current()
	}

	length, c, err := DecodeLength(c, nc.TicksPer16th, nc.DefaultLength)
	if err != nil {
		return Note{}, c, err
	}
	return Note{Length: length, PhaseStep: PhaseStep(index, nc.SampleRate)}, c, nil
}
