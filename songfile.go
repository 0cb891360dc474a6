package blip

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SongFile is a song loaded from disk. Plain text files hold the notation
// directly; .yml and .yaml files hold a document such as
//
//	title: Demo
//	sample_rate: 44100
//	tracks:
//	  - t140 o5 l8 cdefgab>c
//	  - t140 o3 l4 c g c g
type SongFile struct {
	Title      string   `yaml:"title"`
	Author     string   `yaml:"author"`
	SampleRate int      `yaml:"sample_rate"` // 0 leaves the choice to the caller
	Tracks     []string `yaml:"tracks"`
}

// Notation joins the tracks into a single notation string.
func (f *SongFile) Notation() string {
	return strings.Join(f.Tracks, ",")
}

// LoadSongFile reads and parses the song file at path.
func LoadSongFile(path string) (*SongFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSongFile(path, data)
}

// ParseSongFile decodes a song file; name selects the format by extension.
func ParseSongFile(name string, data []byte) (*SongFile, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		var f SongFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("could not parse %v: %w", name, err)
		}
		if len(f.Tracks) == 0 {
			return nil, fmt.Errorf("%v has no tracks", name)
		}
		if f.SampleRate != 0 && (f.SampleRate < MinSampleRate || f.SampleRate > MaxSampleRate) {
			return nil, fmt.Errorf("%v: %w: sample_rate %d", name, ErrInvalidArgument, f.SampleRate)
		}
		return &f, nil
	default:
		base := filepath.Base(name)
		return &SongFile{
			Title:  strings.TrimSuffix(base, filepath.Ext(base)),
			Tracks: []string{string(data)},
		}, nil
	}
}
