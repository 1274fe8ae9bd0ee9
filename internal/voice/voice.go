package voice

import (
	"errors"
	"io"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"quaver/internal/session"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// AudioSession drives one guild's voice connection and implements
// session.AudioSession. Play replaces whatever is streaming; Stop signals
// the active stream down. Either way, every started track reports its end
// exactly once through the completion callback, tagged with the generation
// it was started under. The session uses that tag to drop callbacks for
// tracks it has already superseded.
type AudioSession struct {
	mu         sync.Mutex
	vc         *discordgo.VoiceConnection
	onComplete func(gen uint64)
	stop       chan struct{} // nil when nothing is streaming
	log        zerolog.Logger
}

func New(vc *discordgo.VoiceConnection, onComplete func(gen uint64), log zerolog.Logger) *AudioSession {
	return &AudioSession{
		vc:         vc,
		onComplete: onComplete,
		log:        log.With().Str("component", "voice").Logger(),
	}
}

// Play starts streaming the track. Never blocks: the session calls this
// with its lock held.
func (a *AudioSession) Play(t session.Track, gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stop != nil {
		close(a.stop)
	}
	stop := make(chan struct{})
	a.stop = stop
	go a.run(t, gen, stop)
}

// Stop signals the active stream down without waiting for it. The stream
// goroutine fires the completion callback on its way out.
func (a *AudioSession) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
}

// ChannelID reports the connected voice channel.
func (a *AudioSession) ChannelID() string {
	return a.vc.ChannelID
}

// Disconnect leaves the voice channel.
func (a *AudioSession) Disconnect() {
	a.Stop()
	if err := a.vc.Disconnect(); err != nil {
		a.log.Warn().Err(err).Msg("voice disconnect failed")
	}
}

func (a *AudioSession) run(t session.Track, gen uint64, stop chan struct{}) {
	defer func() {
		a.mu.Lock()
		if a.stop == stop {
			a.stop = nil
		}
		// The callback takes the session lock; a.mu must be free first.
		a.mu.Unlock()
		a.onComplete(gen)
	}()

	pcm, cleanup, err := openPCM(t.StreamURL)
	if err != nil {
		a.log.Error().Str("track", t.Title).Err(err).Msg("failed to open stream")
		return
	}
	defer cleanup()

	if err := a.vc.Speaking(true); err != nil {
		a.log.Warn().Err(err).Msg("speaking(true) failed")
	}
	defer func() { _ = a.vc.Speaking(false) }()

	if err := a.encodeLoop(pcm, stop); err != nil &&
		!errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		a.log.Error().Str("track", t.Title).Err(err).Msg("stream error")
		return
	}
	a.log.Debug().Str("track", t.Title).Uint64("gen", gen).Msg("stream finished")
}
