package mml

// Cursor is a read position over a notation string. Cursor values are
// immutable; every movement returns a new Cursor.
type Cursor struct {
	text string
	pos  int
}

// NewCursor returns a cursor at the start of text.
func NewCursor(text string) Cursor { return Cursor{text: text} }

// Offset returns the byte offset of the cursor within the notation.
func (c Cursor) Offset() int { return c.pos }

// Peek returns the byte under the cursor, or 0 past the end of the text.
func (c Cursor) Peek() byte {
	if c.pos >= len(c.text) {
		return 0
	}
	return c.text[c.pos]
}

// Advance moves one byte forward. It never moves past the end of the text.
func (c Cursor) Advance() Cursor {
	if c.pos < len(c.text) {
		c.pos++
	}
	return c
}

// SkipSpace skips control characters and spaces (every byte <= 32 except
// the NUL terminator).
func (c Cursor) SkipSpace() Cursor {
	for c.pos < len(c.text) && c.text[c.pos] != 0 && c.text[c.pos] <= ' ' {
		c.pos++
	}
	return c
}

// Current skips whitespace and returns the lower-cased byte found there
// together with the new position.
func (c Cursor) Current() (byte, Cursor) {
	c = c.SkipSpace()
	return lower(c.Peek()), c
}

// AtEnd reports whether the cursor reached the end of the notation.
func (c Cursor) AtEnd() bool { return c.Peek() == 0 }

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// IsSeparator reports whether b ends a track: end of stream, ',' or ';'.
func IsSeparator(b byte) bool { return b == 0 || b == ',' || b == ';' }
