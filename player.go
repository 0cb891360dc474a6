package blip

import (
	"fmt"
	"sync"
	"sync/atomic"

	intaudio "github.com/cbegin/blip-go/internal/audio"
)

// PlaybackEvent carries playback events from Watch().
type PlaybackEvent struct {
	Kind int // EventLoopCompleted or EventPlaybackEnded
}

const (
	EventLoopCompleted int = iota
	EventPlaybackEnded
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	loopPlayback bool
	sampleTap    func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{}
}

// WithLoopPlayback restarts the song from the top when its longest track ends.
func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.loopPlayback = enabled
	}
}

// WithSampleTap installs a callback invoked with each generated mono buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// Player streams songs to the audio device, generating samples on demand.
type Player struct {
	mu           sync.Mutex
	sampleRate   int
	audio        *intaudio.Player
	mixer        *trackMixer
	loopPlayback bool
	sampleTap    func([]float32)
	done         chan struct{}
	eventCh      chan PlaybackEvent
	eventChMu    sync.Mutex
}

// NewPlayer returns an idle player for the given output sample rate.
func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidArgument, sampleRate)
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Player{
		sampleRate:   sampleRate,
		loopPlayback: cfg.loopPlayback,
		sampleTap:    cfg.sampleTap,
	}, nil
}

// PlayMML decodes the whole notation up front, so syntax errors are
// returned here rather than during playback.
func (p *Player) PlayMML(notation string) error {
	tracks, err := Tracks(notation, p.sampleRate)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Signal any existing Wait() that the previous playback was replaced
	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})

	mixer := newTrackMixer(tracks, p.loopPlayback)
	mixer.sampleTap = p.sampleTap
	mixer.onEvent = func(kind int) {
		p.sendEvent(PlaybackEvent{Kind: kind})
		if kind == EventPlaybackEnded {
			p.signalDone()
		}
	}

	backend, err := intaudio.NewPlayer(p.sampleRate, mixer)
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	p.mixer = mixer
	p.audio.Play()
	return nil
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

func (p *Player) signalDone() {
	p.mu.Lock()
	done := p.done
	p.done = nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	done := p.done
	p.done = nil
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	if done != nil {
		close(done)
	}
	return err
}

// Wait blocks until the current playback ends. When loop playback is enabled,
// Wait blocks until Stop is called.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events. The channel is
// buffered (cap 8) and only the most recent Watch() channel receives events;
// call Watch before PlayMML.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// IsPlaying reports whether the audio device is still playing. It stays true
// after EventPlaybackEnded until the buffered samples have been heard.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audio != nil && p.audio.IsPlaying()
}

// PlaybackPosition returns the current output position of the audio driver
// in samples. Returns 0 if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	pos := a.Position()
	return int64(pos.Seconds() * float64(p.sampleRate))
}

// Err returns the error that stopped the current playback, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	m := p.mixer
	p.mu.Unlock()
	if m == nil {
		return nil
	}
	return m.Err()
}

// trackMixer plays every track of a song at once, mixing them into the
// buffers the audio stream asks for.
type trackMixer struct {
	start     []*Song // untouched copies for looping
	tracks    []*Song
	live      []bool
	played    int // samples since the last (re)start
	loop      bool
	finished  atomic.Bool
	onEvent   func(kind int)
	sampleTap func([]float32)

	errMu sync.Mutex
	err   error
}

func newTrackMixer(tracks []*Song, loop bool) *trackMixer {
	m := &trackMixer{start: tracks, loop: loop}
	m.restart()
	return m
}

func (m *trackMixer) restart() {
	m.tracks = make([]*Song, len(m.start))
	m.live = make([]bool, len(m.start))
	for i, t := range m.start {
		m.tracks[i] = t.clone()
		m.live[i] = true
	}
	m.played = 0
}

func (m *trackMixer) Process(dst []float32) {
	buf := dst
	for len(buf) > 0 && !m.finished.Load() {
		n, err := m.mix(buf)
		m.played += n
		if err != nil {
			m.fail(err)
			break
		}
		if n == len(buf) {
			break
		}
		if !m.loop || m.played == 0 {
			m.finish()
			break
		}
		m.restart()
		m.emit(EventLoopCompleted)
		buf = buf[n:]
	}
	if m.sampleTap != nil {
		m.sampleTap(dst)
	}
}

// mix adds every live track to dst and returns how much of dst now holds
// audio: len(dst) while any track is still playing, otherwise the length of
// the longest track within dst. On a decode error it stops early and counts
// what the tracks mixed so far wrote.
func (m *trackMixer) mix(dst []float32) (int, error) {
	longest := 0
	for i, t := range m.tracks {
		if !m.live[i] {
			continue
		}
		n, err := t.MixFloat32(dst)
		if n < len(dst) {
			m.live[i] = false
		}
		longest = max(longest, n)
		if err != nil {
			return longest, err
		}
	}
	return longest, nil
}

func (m *trackMixer) finish() {
	m.finished.Store(true)
	m.emit(EventPlaybackEnded)
}

func (m *trackMixer) fail(err error) {
	m.errMu.Lock()
	m.err = err
	m.errMu.Unlock()
	m.finish()
}

func (m *trackMixer) emit(kind int) {
	if m.onEvent != nil {
		m.onEvent(kind)
	}
}

func (m *trackMixer) Finished() bool {
	return m.finished.Load()
}

func (m *trackMixer) Err() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.err
}
