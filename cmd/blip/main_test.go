package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputPath(t *testing.T) {
	cases := []struct {
		output, input, want string
	}{
		{"", "", "blip.wav"},
		{"", "songs/tune.yaml", "songs/tune.wav"},
		{"out.wav", "songs/tune.mml", "out.wav"},
		{"-", "", "-"},
	}
	for _, tc := range cases {
		if got := outputPath(tc.output, tc.input); got != tc.want {
			t.Fatalf("outputPath(%q, %q) = %q, want %q", tc.output, tc.input, got, tc.want)
		}
	}
}

func TestResolveSong(t *testing.T) {
	if _, err := resolveSong("", nil); err == nil {
		t.Fatalf("expected error without notation")
	}
	song, err := resolveSong("", []string{"t90", "cde"})
	if err != nil || song.Notation() != "t90 cde" {
		t.Fatalf("inline song = %+v, %v", song, err)
	}

	path := filepath.Join(t.TempDir(), "song.yml")
	if err := os.WriteFile(path, []byte("sample_rate: 22050\ntracks: [c, e]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	song, err = resolveSong(path, []string{"o5"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if song.Notation() != "o5 c,e" || song.SampleRate != 22050 {
		t.Fatalf("file song = %+v", song)
	}
}

func TestFailureState(t *testing.T) {
	state, ok := failureState("c, d o9", 48000)
	if !ok || state.Offset != 6 || state.Octave != 4 {
		t.Fatalf("failure state = %+v, %v", state, ok)
	}
	if _, ok := failureState("c, d", 48000); ok {
		t.Fatalf("expected no failure state for a valid song")
	}
}
