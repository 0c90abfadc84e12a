// Package ambience plays a looping background track once the visitor first interacts with the gallery.
package ambience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// DefaultVolume is the linear gain applied to the track.
const DefaultVolume = 0.28

// ErrNoSource is returned by Start when the player has no track configured.
var ErrNoSource = errors.New("ambience: no source")

// Decoder turns an encoded track into a seekable stream.
type Decoder func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// Output starts playback of a stream at the given format and can silence everything it plays.
type Output interface {
	Play(format beep.Format, s beep.Streamer) error
	Clear()
}

// speakerOutput plays through the default audio device. The device is opened on first use.
type speakerOutput struct {
	once    sync.Once
	initErr error
}

func (o *speakerOutput) Play(format beep.Format, s beep.Streamer) error {
	o.once.Do(func() {
		o.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if o.initErr != nil {
		return fmt.Errorf("ambience: speaker: %w", o.initErr)
	}
	speaker.Play(s)
	return nil
}

func (o *speakerOutput) Clear() {
	if o.initErr == nil {
		speaker.Clear()
	}
}

// Player fetches a track once and loops it at a fixed volume.
type Player struct {
	mu      sync.Mutex
	source  string
	volume  float64
	http    *http.Client
	decode  Decoder
	output  Output
	stream  beep.StreamSeekCloser
	ctrl    *beep.Ctrl
	started bool
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithVolume sets the linear gain in (0, 1].
func WithVolume(v float64) PlayerOption {
	return func(p *Player) {
		if v > 0 {
			p.volume = v
		}
	}
}

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) PlayerOption {
	return func(p *Player) {
		p.http = c
	}
}

// WithDecoder replaces the MP3 decoder.
func WithDecoder(d Decoder) PlayerOption {
	return func(p *Player) {
		p.decode = d
	}
}

// WithOutput replaces the speaker.
func WithOutput(o Output) PlayerOption {
	return func(p *Player) {
		p.output = o
	}
}

// NewPlayer creates a Player for an MP3 at source, an http(s) URL or a file path.
//
// Parameters:
//   - source: the track location; empty makes Start return ErrNoSource
//   - options: volume, HTTP client, decoder and output overrides
//
// Returns:
//   - *Player: the player
func NewPlayer(source string, options ...PlayerOption) *Player {
	p := &Player{
		source: strings.TrimSpace(source),
		volume: DefaultVolume,
		http:   &http.Client{Timeout: 30 * time.Second},
		decode: mp3.Decode,
		output: &speakerOutput{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Gain converts a linear volume into the base-2 exponent effects.Volume expects.
func Gain(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}
	return math.Log2(linear)
}

// readSeekNopCloser keeps the reader seekable so the decoder can rewind for looping.
type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

// Start fetches, decodes and starts looping the track. Only the first call does any work;
// later calls return nil. A failed first attempt may be retried.
//
// Parameters:
//   - ctx: cancels the fetch
//
// Returns:
//   - error: ErrNoSource, a fetch or decode error, or an output error
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}
	if p.source == "" {
		return ErrNoSource
	}

	data, err := p.fetch(ctx)
	if err != nil {
		return err
	}
	stream, format, err := p.decode(readSeekNopCloser{bytes.NewReader(data)})
	if err != nil {
		return fmt.Errorf("ambience: decode: %w", err)
	}

	looped := beep.Loop(-1, stream)
	vol := &effects.Volume{Streamer: looped, Base: 2, Volume: Gain(p.volume)}
	ctrl := &beep.Ctrl{Streamer: vol}
	if err := p.output.Play(format, ctrl); err != nil {
		stream.Close()
		return err
	}

	p.stream, p.ctrl, p.started = stream, ctrl, true
	log.Printf("[Ambience] looping %s (%s, %d Hz) at volume %.2f", p.source, humanize.Bytes(uint64(len(data))), format.SampleRate, p.volume)
	return nil
}

func (p *Player) fetch(ctx context.Context) ([]byte, error) {
	if !strings.HasPrefix(p.source, "http://") && !strings.HasPrefix(p.source, "https://") {
		data, err := os.ReadFile(p.source)
		if err != nil {
			return nil, fmt.Errorf("ambience: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.source, nil)
	if err != nil {
		return nil, fmt.Errorf("ambience: %w", err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ambience: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ambience: fetch %s: status %d", p.source, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("ambience: fetch: %w", err)
	}
	return data, nil
}

// Started reports whether the track is playing.
func (p *Player) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// Stop silences the track and releases the decoder. The player cannot be restarted.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.stream == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.output.Clear()
	p.stream.Close()
	p.stream = nil
}
