package discord

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"quaver/internal/panel"
	"quaver/internal/voice"
)

func newTestBot() *Bot {
	return &Bot{
		log:    zerolog.Nop(),
		panels: make(map[string]*panel.Panel),
		audio:  make(map[string]*voice.AudioSession),
	}
}

func TestStoreAudioKeepsFirstConnection(t *testing.T) {
	b := newTestBot()
	first := voice.New(nil, nil, zerolog.Nop())
	second := voice.New(nil, nil, zerolog.Nop())

	assert.Same(t, first, b.storeAudio("g1", first))
	assert.Same(t, first, b.storeAudio("g1", second), "losing a join race must not replace the live connection")

	got, ok := b.audioFor("g1")
	assert.True(t, ok)
	assert.Same(t, first, got)
}

func TestStoreAudioConcurrentJoinsConvergeOnOneSession(t *testing.T) {
	b := newTestBot()

	var wg sync.WaitGroup
	winners := make([]*voice.AudioSession, 16)
	for i := range winners {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			winners[i] = b.storeAudio("g1", voice.New(nil, nil, zerolog.Nop()))
		}(i)
	}
	wg.Wait()

	for _, w := range winners[1:] {
		assert.Same(t, winners[0], w)
	}
}

func TestAudioForMissesUnknownGuild(t *testing.T) {
	b := newTestBot()
	_, ok := b.audioFor("nope")
	assert.False(t, ok)
}
