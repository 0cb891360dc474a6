package blip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

const demoSong = "t140 o5 l8 cdefgab>c<c, t140 o3 l4 c g c g r2 c1; v40 o6 l16 n70&n70 r4 e-.."

// sequentialRender renders the way a single-song command line loop would: every track is
// mixed into the same growing buffer starting from sample zero.
func sequentialRender[T Sample](t *testing.T, notation string, rate int) ([]T, int) {
	t.Helper()
	song, err := NewSong(notation, rate)
	if err != nil {
		t.Fatalf("new song: %v", err)
	}
	var samples []T
	n, length, tracks := 0, 0, 0
	for {
		remaining := len(samples) - n
		if remaining == 0 {
			grown := make([]T, len(samples)*3/2+rate)
			copy(grown, samples)
			remaining = len(grown) - len(samples)
			samples = grown
		}
		generated, err := Generate(song, samples[n:])
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		n += generated
		if generated == 0 && remaining > 0 {
			length = max(length, n)
			tracks++
			if !song.NextTrack() {
				break
			}
			n = 0
		}
	}
	return samples[:length], tracks
}

func TestRenderMatchesSequentialLoop(t *testing.T) {
	songs := []string{demoSong, "c", "c,d", "c,,e2", "r,c", "t200 l32 cdefgab>cdefgab<<<c"}
	for _, song := range songs {
		want, tracks := sequentialRender[float32](t, song, 44100)
		got, err := Render[float32](song, 44100)
		if err != nil {
			t.Fatalf("render %q: %v", song, err)
		}
		if got.Tracks != tracks {
			t.Fatalf("%q: %d tracks, want %d", song, got.Tracks, tracks)
		}
		if len(got.Samples) != len(want) {
			t.Fatalf("%q: %d samples, want %d", song, len(got.Samples), len(want))
		}
		for i := range want {
			if got.Samples[i] != want[i] {
				t.Fatalf("%q: sample %d = %v, want %v", song, i, got.Samples[i], want[i])
			}
		}

		want16, _ := sequentialRender[int16](t, song, 44100)
		got16, err := Render[int16](song, 44100)
		if err != nil {
			t.Fatalf("render %q: %v", song, err)
		}
		if !equalSamples(got16.Samples, want16) {
			t.Fatalf("%q: int16 rendering differs from the sequential loop", song)
		}
	}
}

func TestRenderLengthIsLongestTrack(t *testing.T) {
	r, err := Render[float32]("c,c2,c4", 48000)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(r.Samples) != 48000 || r.Tracks != 3 {
		t.Fatalf("rendered %d samples in %d tracks, want 48000 in 3", len(r.Samples), r.Tracks)
	}
	if got := r.Duration().Seconds(); got != 1 {
		t.Fatalf("duration = %vs, want 1s", got)
	}
}

func TestTracks(t *testing.T) {
	cases := []struct {
		song   string
		tracks int
	}{
		{"", 1},
		{"c", 1},
		{"c,", 2},
		{"c,d;e", 3},
		{" , ; ", 3},
	}
	for _, tc := range cases {
		tracks, err := Tracks(tc.song, 48000)
		if err != nil {
			t.Fatalf("Tracks(%q): %v", tc.song, err)
		}
		if len(tracks) != tc.tracks {
			t.Fatalf("Tracks(%q) = %d tracks, want %d", tc.song, len(tracks), tc.tracks)
		}
	}
}

func TestTracksCarryState(t *testing.T) {
	tracks, err := Tracks("t60 o2 v9 c, d", 48000)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	st := tracks[1].State()
	if st.BPM != 60 || st.Octave != 2 || st.Volume != 9 {
		t.Fatalf("second track state = %+v", st)
	}
	if tracks[0].State().Offset != 0 {
		t.Fatalf("first track should start at offset 0")
	}
}

func TestTracksReportSyntaxError(t *testing.T) {
	_, err := Tracks("c,z", 48000)
	var se *SyntaxError
	if !errors.As(err, &se) || se.Offset != 2 {
		t.Fatalf("err = %v, want syntax error at 2", err)
	}
	for song, offset := range map[string]int{"&,d": 1, "c,&,d": 3, "c,d&;e": 4} {
		tracks, err := Tracks(song, 48000)
		if !errors.As(err, &se) || se.Offset != offset {
			t.Fatalf("Tracks(%q) = %d tracks, err %v; want syntax error at %d", song, len(tracks), err, offset)
		}
	}
	if _, err := Render[int16]("l0", 48000); !errors.Is(err, ErrMalformed) {
		t.Fatalf("render err = %v, want ErrMalformed", err)
	}
}

func TestEncodeWAVFloat32(t *testing.T) {
	samples := []float32{0, 0.5, -1}
	wav := EncodeWAV(samples, 48000, 1)
	if len(wav) != 44+12 {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+12)
	}
	if !bytes.Equal(wav[0:4], []byte("RIFF")) || !bytes.Equal(wav[8:16], []byte("WAVEfmt ")) || !bytes.Equal(wav[36:40], []byte("data")) {
		t.Fatalf("bad chunk ids")
	}
	le := binary.LittleEndian
	if le.Uint32(wav[4:]) != 36+12 || le.Uint16(wav[20:]) != 3 || le.Uint16(wav[22:]) != 1 {
		t.Fatalf("bad header fields")
	}
	if le.Uint32(wav[24:]) != 48000 || le.Uint32(wav[28:]) != 48000*4 || le.Uint16(wav[32:]) != 4 || le.Uint16(wav[34:]) != 32 {
		t.Fatalf("bad rate fields")
	}
	if le.Uint32(wav[40:]) != 12 || math.Float32frombits(le.Uint32(wav[48:])) != 0.5 {
		t.Fatalf("bad data chunk")
	}
}

func TestEncodeWAVInt16(t *testing.T) {
	samples := []int16{1, -2, 32767, -32768}
	wav := EncodeWAV(samples, 44100, 2)
	le := binary.LittleEndian
	if len(wav) != 44+8 {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+8)
	}
	if le.Uint16(wav[20:]) != 1 || le.Uint16(wav[22:]) != 2 || le.Uint16(wav[34:]) != 16 {
		t.Fatalf("bad format fields")
	}
	if le.Uint32(wav[28:]) != 44100*2*2 || le.Uint16(wav[32:]) != 4 {
		t.Fatalf("bad rate fields")
	}
	for i, want := range samples {
		if got := int16(le.Uint16(wav[44+i*2:])); got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func equalSamples[T Sample](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
