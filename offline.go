package blip

import (
	"encoding/binary"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/blip-go/internal/chiptune"
)

// Tracks splits a song into one independent Song per track. Each track
// starts with the tempo, octave, volume and default length left by the
// tracks before it. The whole notation is decoded, so any syntax error is
// reported here.
func Tracks(notation string, sampleRate int) ([]*Song, error) {
	song, err := NewSong(notation, sampleRate)
	if err != nil {
		return nil, err
	}
	var tracks []*Song
	for {
		tracks = append(tracks, song.clone())
		if _, err := song.seq.Skip(math.MaxInt); err != nil {
			return nil, err
		}
		if !song.NextTrack() {
			return tracks, nil
		}
	}
}

// Rendering is a fully rendered song.
type Rendering[T Sample] struct {
	Samples    []T
	SampleRate int
	Tracks     int
	Elapsed    time.Duration // time spent rendering
}

// Duration is the playing time of the rendered samples.
func (r *Rendering[T]) Duration() time.Duration {
	if r.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(r.Samples)) * time.Second / time.Duration(r.SampleRate)
}

// Render renders every track of a song and mixes them into one buffer as
// long as the longest track. Tracks render concurrently.
func Render[T Sample](notation string, sampleRate int) (*Rendering[T], error) {
	start := time.Now()
	tracks, err := Tracks(notation, sampleRate)
	if err != nil {
		return nil, err
	}
	buffers := make([][]T, len(tracks))
	var g errgroup.Group
	for i, track := range tracks {
		g.Go(func() error {
			buf, err := drain[T](track, sampleRate)
			buffers[i] = buf
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	length := 0
	for _, buf := range buffers {
		length = max(length, len(buf))
	}
	out := make([]T, length)
	for _, buf := range buffers {
		chiptune.Accumulate(out, buf)
	}
	return &Rendering[T]{
		Samples:    out,
		SampleRate: sampleRate,
		Tracks:     len(tracks),
		Elapsed:    time.Since(start),
	}, nil
}

// drain renders one track into a buffer grown by half plus a second of
// audio whenever it fills up.
func drain[T Sample](track *Song, sampleRate int) ([]T, error) {
	var buf []T
	n := 0
	for {
		if n == len(buf) {
			grown := make([]T, len(buf)*3/2+sampleRate)
			copy(grown, buf)
			buf = grown
		}
		generated, err := Generate(track, buf[n:])
		n += generated
		if err != nil {
			return nil, err
		}
		if n < len(buf) {
			return buf[:n], nil
		}
	}
}

// EncodeWAV wraps samples in a RIFF/WAVE container: IEEE float for float32
// samples, 16-bit PCM for int16 samples.
func EncodeWAV[T Sample](samples []T, sampleRate int, channels int) []byte {
	format, width := uint16(3), 4
	if _, ok := any(samples).([]int16); ok {
		format, width = 1, 2
	}
	dataSize := len(samples) * width
	byteRate := sampleRate * channels * width
	blockAlign := channels * width
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], format)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], uint16(8*width))
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	switch s := any(samples).(type) {
	case []float32:
		for i, v := range s {
			binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(v))
		}
	case []int16:
		for i, v := range s {
			binary.LittleEndian.PutUint16(out[44+i*2:], uint16(v))
		}
	}
	return out
}
