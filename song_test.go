package blip

import (
	"errors"
	"testing"
)

func TestNewSongRejectsSampleRate(t *testing.T) {
	for _, rate := range []int{0, 1000, MaxSampleRate + 1} {
		if _, err := NewSong("c", rate); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("NewSong(rate=%d) err = %v, want ErrInvalidArgument", rate, err)
		}
	}
}

func TestGenerateNilSong(t *testing.T) {
	var song *Song
	if _, err := song.MixFloat32(make([]float32, 16)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("MixFloat32 on nil song err = %v, want ErrInvalidArgument", err)
	}
	if _, err := Generate[int16](nil, make([]int16, 16)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Generate(nil) err = %v, want ErrInvalidArgument", err)
	}
}

func TestGenerateEmptyBuffer(t *testing.T) {
	song, err := NewSong("c", 48000)
	if err != nil {
		t.Fatalf("new song: %v", err)
	}
	if n, err := song.MixInt16(nil); n != 0 || err != nil {
		t.Fatalf("MixInt16(nil) = %d, %v; want 0, nil", n, err)
	}
	if n, err := song.MixFloat32([]float32{}); n != 0 || err != nil {
		t.Fatalf("MixFloat32(empty) = %d, %v; want 0, nil", n, err)
	}
}

func TestSingleNoteLength(t *testing.T) {
	song, err := NewSong("c", 48000)
	if err != nil {
		t.Fatalf("new song: %v", err)
	}
	st := song.State()
	want := int((st.DefaultLength + st.TicksPerSample - 1) / st.TicksPerSample)
	buf := make([]float32, 96000)
	n, err := song.MixFloat32(buf)
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if n != want {
		t.Fatalf("samples = %d, want %d", n, want)
	}
	if n, _ := song.MixFloat32(buf); n != 0 || !song.AtEnd() {
		t.Fatalf("expected end of song after %d more samples", n)
	}
}

func TestTwoTracksStopAtSeparator(t *testing.T) {
	song, err := NewSong("c,d", 48000)
	if err != nil {
		t.Fatalf("new song: %v", err)
	}
	buf := make([]float32, 96000)
	first, _ := song.MixFloat32(buf)
	if first == 0 {
		t.Fatalf("first track produced no samples")
	}
	if n, _ := song.MixFloat32(buf); n != 0 {
		t.Fatalf("call at the separator = %d samples, want 0", n)
	}
	if !song.NextTrack() {
		t.Fatalf("NextTrack = false at the separator")
	}
	if n, _ := song.MixFloat32(buf); n != first {
		t.Fatalf("second track = %d samples, want %d", n, first)
	}
}

func TestMixInt16Saturates(t *testing.T) {
	song, err := NewSong("a", 48000)
	if err != nil {
		t.Fatalf("new song: %v", err)
	}
	buf := make([]int16, 24000)
	for i := range buf {
		buf[i] = 32000
	}
	if _, err := song.MixInt16(buf); err != nil {
		t.Fatalf("mix: %v", err)
	}
	saturated := 0
	for i, v := range buf {
		if v < 32000-1016 {
			t.Fatalf("sample %d = %d wrapped around", i, v)
		}
		if v == 32767 {
			saturated++
		}
	}
	if saturated == 0 {
		t.Fatalf("expected saturated samples")
	}
}

func TestMalformedReportsOffset(t *testing.T) {
	song, err := NewSong("cde o9 c", 48000)
	if err != nil {
		t.Fatalf("new song: %v", err)
	}
	buf := make([]float32, 1<<20)
	n, err := song.MixFloat32(buf)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	var se *SyntaxError
	if !errors.As(err, &se) || se.Offset != 5 || song.Offset() != 5 {
		t.Fatalf("error = %v at cursor %d, want offset 5", err, song.Offset())
	}
	if n != 3*24000 {
		t.Fatalf("samples before the error = %d, want %d", n, 3*24000)
	}
}

func TestFormatString(t *testing.T) {
	if FormatFloat32.String() != "float32" || FormatInt16.String() != "int16" {
		t.Fatalf("unexpected format names %v %v", FormatFloat32, FormatInt16)
	}
}
