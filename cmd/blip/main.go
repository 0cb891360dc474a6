package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/cbegin/blip-go"
)

const defaultSampleRate = 48000

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "", log.Ldate|log.Ltime)

	var (
		input      = pflag.StringP("input", "i", "", "input file: MML text, or a .yml/.yaml song document")
		output     = pflag.StringP("output", "o", "", `output WAV file, "-" for standard output (default blip.wav or the input name)`)
		sampleRate = pflag.IntP("sample-rate", "s", 0, "sample rate (default 48000, or the song document's)")
		pcm16      = pflag.BoolP("pcm16", "c", false, "write 16-bit signed PCM instead of 32-bit float")
		play       = pflag.BoolP("play", "p", false, "play the song; no file is written unless -o is given")
		loop       = pflag.Bool("loop", false, "loop playback (with --play)")
		loops      = pflag.Int("loops", 0, "with --loop, stop after N loops (0 = loop forever)")
		dump       = pflag.Bool("dump", false, "dump the decoder state when the notation is malformed")
	)
	pflag.Usage = printUsage
	pflag.Parse()

	song, err := resolveSong(*input, pflag.Args())
	if err != nil {
		logger.Fatal(err)
	}
	rate := defaultSampleRate
	if song.SampleRate != 0 {
		rate = song.SampleRate
	}
	if *sampleRate != 0 {
		rate = *sampleRate
	}
	notation := song.Notation()

	if !*play || *output != "" {
		path := outputPath(*output, *input)
		format := blip.FormatFloat32
		if *pcm16 {
			format = blip.FormatInt16
		}
		logger.Printf("Rendering %d Hz %v", rate, format)
		if err := render(notation, rate, format, path); err != nil {
			reportError(err, notation, rate, *dump)
		}
	}
	if *play {
		if err := playSong(notation, rate, *loop, *loops); err != nil {
			reportError(err, notation, rate, *dump)
		}
	}
}

// resolveSong combines an inline MML argument with the input file. The
// inline notation comes first, so it can set up tempo or octave for the file.
func resolveSong(path string, args []string) (*blip.SongFile, error) {
	inline := strings.TrimSpace(strings.Join(args, " "))
	if strings.TrimSpace(path) == "" {
		if inline == "" {
			return nil, errors.New("missing MML string or input file, use -h for more info")
		}
		return &blip.SongFile{Title: "blip", Tracks: []string{inline}}, nil
	}
	song, err := blip.LoadSongFile(path)
	if err != nil {
		return nil, err
	}
	if inline != "" {
		song.Tracks[0] = inline + " " + song.Tracks[0]
	}
	return song, nil
}

func outputPath(output, input string) string {
	if output != "" {
		return output
	}
	if input == "" {
		return "blip.wav"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".wav"
}

func render(notation string, rate int, format blip.Format, path string) error {
	if path == "-" && term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("refusing to write WAV data to a terminal")
	}
	var (
		wav     []byte
		stats   string
		seconds int
	)
	if format == blip.FormatInt16 {
		r, err := blip.Render[int16](notation, rate)
		if err != nil {
			return err
		}
		wav = blip.EncodeWAV(r.Samples, rate, 1)
		seconds, stats = int(r.Duration().Seconds()), renderStats(r.Tracks, r.Elapsed.Seconds())
	} else {
		r, err := blip.Render[float32](notation, rate)
		if err != nil {
			return err
		}
		wav = blip.EncodeWAV(r.Samples, rate, 1)
		seconds, stats = int(r.Duration().Seconds()), renderStats(r.Tracks, r.Elapsed.Seconds())
	}
	logger.Printf("Duration: %d:%02d min", seconds/60, seconds%60)
	logger.Print(stats)

	if path == "-" {
		_, err := os.Stdout.Write(wav)
		return err
	}
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return fmt.Errorf("could not write file %v: %w", path, err)
	}
	logger.Printf("Wrote %v", path)
	return nil
}

func renderStats(tracks int, seconds float64) string {
	return fmt.Sprintf("Channels: %d, rendered in %.3f ms", tracks, seconds*1000)
}

func playSong(notation string, rate int, loop bool, maxLoops int) error {
	pl, err := blip.NewPlayer(rate, blip.WithLoopPlayback(loop))
	if err != nil {
		return err
	}
	ch := pl.Watch()
	if err := pl.PlayMML(notation); err != nil {
		return err
	}
	loops := 0
	for event := range ch {
		switch event.Kind {
		case blip.EventLoopCompleted:
			loops++
			logger.Printf("loop %d completed", loops)
			if maxLoops > 0 && loops >= maxLoops {
				logPlayed(pl.PlaybackPosition(), rate)
				return pl.Stop()
			}
		case blip.EventPlaybackEnded:
			pl.Wait()
			if err := pl.Err(); err != nil {
				return err
			}
			for pl.IsPlaying() {
				time.Sleep(50 * time.Millisecond)
			}
			logPlayed(pl.PlaybackPosition(), rate)
			return nil
		}
	}
	return nil
}

func logPlayed(samples int64, rate int) {
	seconds := samples / int64(rate)
	logger.Printf("Played %d:%02d min", seconds/60, seconds%60)
}

func reportError(err error, notation string, rate int, dump bool) {
	var se *blip.SyntaxError
	if !errors.As(err, &se) {
		logger.Fatal(err)
	}
	logger.Printf("error after character %d: %v", se.Offset, err)
	if dump {
		if state, ok := failureState(notation, rate); ok {
			spew.Fdump(os.Stderr, state)
		}
	}
	os.Exit(1)
}

// failureState replays the song track by track up to the failing command
// and returns the decoder state found there.
func failureState(notation string, rate int) (blip.State, bool) {
	song, err := blip.NewSong(notation, rate)
	if err != nil {
		return blip.State{}, false
	}
	buf := make([]float32, rate)
	for {
		n, err := song.MixFloat32(buf)
		if err != nil {
			return song.State(), true
		}
		if n < len(buf) && !song.NextTrack() {
			return blip.State{}, false
		}
		clear(buf)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "blip renders MML notation to a WAV file.\nUsage: %s [flags] [MML string]\n\nFlags:\n", os.Args[0])
	pflag.PrintDefaults()
}
