package session

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAudio records Play/Stop calls in place of a voice connection.
type fakeAudio struct {
	mu     sync.Mutex
	played []Track
	gens   []uint64
	stops  int
}

func (f *fakeAudio) Play(t Track, gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, t)
	f.gens = append(f.gens, gen)
}

func (f *fakeAudio) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeAudio) lastGen() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gens[len(f.gens)-1]
}

func (f *fakeAudio) playedTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, t := range f.played {
		out = append(out, t.Title)
	}
	return out
}

func newTestSession() (*Session, *fakeAudio) {
	s := New("guild-1", 20, zerolog.Nop())
	audio := &fakeAudio{}
	s.AttachAudio(audio)
	return s, audio
}

func TestEnqueueThenAdvancePlays(t *testing.T) {
	s, audio := newTestSession()

	s.Enqueue(track("trackA"))
	assert.False(t, s.IsPlaying(), "enqueue alone never starts playback")

	snap := s.Advance(SoftNext)
	require.NotNil(t, snap.NowPlaying)
	assert.Equal(t, "trackA", snap.NowPlaying.Title)
	assert.True(t, s.IsPlaying())
	assert.Equal(t, []string{"trackA"}, audio.playedTitles())
}

func TestHardNextWalksQueueThenGoesIdle(t *testing.T) {
	s, audio := newTestSession()
	for _, title := range []string{"A", "B", "C"} {
		s.Enqueue(track(title))
	}

	var seen []string
	for i := 0; i < 3; i++ {
		snap := s.Advance(HardNext)
		require.NotNil(t, snap.NowPlaying)
		seen = append(seen, snap.NowPlaying.Title)
	}
	assert.Equal(t, []string{"A", "B", "C"}, seen)

	snap := s.Advance(HardNext)
	assert.Nil(t, snap.NowPlaying)
	assert.False(t, s.IsPlaying())
	assert.Equal(t, 2, audio.stops, "each skip of an active track stops the transport")
}

func TestPreviousStepsBack(t *testing.T) {
	s, _ := newTestSession()
	for _, title := range []string{"A", "B", "C"} {
		s.Enqueue(track(title))
	}
	s.Advance(SoftNext) // playing A, cursor 1
	s.Advance(HardNext) // playing B, cursor 2

	snap := s.Advance(Previous)
	require.NotNil(t, snap.NowPlaying)
	assert.Equal(t, "A", snap.NowPlaying.Title)
}

func TestPreviousClampsAtStart(t *testing.T) {
	s, _ := newTestSession()
	s.Enqueue(track("A"))
	s.Advance(SoftNext)

	snap := s.Advance(Previous)
	require.NotNil(t, snap.NowPlaying)
	assert.Equal(t, "A", snap.NowPlaying.Title, "rewind never moves before the first item")
}

func TestLoopWrapsToStart(t *testing.T) {
	s, _ := newTestSession()
	s.Enqueue(track("A"))
	s.Enqueue(track("B"))
	s.ToggleLoop()

	var seen []string
	for i := 0; i < 4; i++ {
		snap := s.Advance(SoftNext)
		require.NotNil(t, snap.NowPlaying)
		seen = append(seen, snap.NowPlaying.Title)
	}
	assert.Equal(t, []string{"A", "B", "A", "B"}, seen)
}

func TestToggleLoopRestartsWindow(t *testing.T) {
	s, _ := newTestSession()
	for _, title := range []string{"A", "B", "C"} {
		s.Enqueue(track(title))
	}
	s.Advance(SoftNext)
	s.Advance(SoftNext) // cursor 2, history A B

	snap := s.ToggleLoop()
	assert.True(t, snap.Looping)
	assert.Nil(t, snap.NowPlaying, "state change leaves the media display alone")
	require.Len(t, snap.Upcoming, 1)
	assert.Equal(t, "C", snap.Upcoming[0].Title)
	assert.Equal(t, 0, snap.Upcoming[0].Index)
}

func TestToggleShuffleIsStateChangeOnly(t *testing.T) {
	s, _ := newTestSession()
	s.Enqueue(track("A"))

	snap := s.ToggleShuffle()
	assert.True(t, snap.Shuffling)
	assert.Nil(t, snap.NowPlaying)

	snap = s.ToggleShuffle()
	assert.False(t, snap.Shuffling)
}

func TestStopClearsQueueAndGoesIdle(t *testing.T) {
	s, audio := newTestSession()
	for _, title := range []string{"A", "B"} {
		s.Enqueue(track(title))
	}
	s.Advance(SoftNext)

	snap := s.Stop()
	assert.Nil(t, snap.NowPlaying)
	assert.Empty(t, snap.Upcoming)
	assert.False(t, s.IsPlaying())
	assert.Equal(t, 1, audio.stops)
}

func TestStaleGenerationCallbackIsDropped(t *testing.T) {
	s, audio := newTestSession()
	for _, title := range []string{"A", "B", "C"} {
		s.Enqueue(track(title))
	}

	s.Advance(SoftNext) // playing A
	staleGen := audio.lastGen()
	s.Advance(HardNext) // playing B, generation bumped

	_, ok := s.HandleTrackEnd(staleGen)
	assert.False(t, ok, "completion for a superseded track must not mutate state")
	assert.True(t, s.IsPlaying())
	assert.Equal(t, []string{"A", "B"}, audio.playedTitles())
}

func TestCurrentGenerationCallbackAdvances(t *testing.T) {
	s, audio := newTestSession()
	s.Enqueue(track("A"))
	s.Enqueue(track("B"))

	s.Advance(SoftNext) // playing A
	snap, ok := s.HandleTrackEnd(audio.lastGen())
	require.True(t, ok)
	require.NotNil(t, snap.NowPlaying)
	assert.Equal(t, "B", snap.NowPlaying.Title)
}

func TestAdvanceWithoutTransportStaysIdle(t *testing.T) {
	s := New("guild-1", 20, zerolog.Nop())
	s.Enqueue(track("A"))

	snap := s.Advance(SoftNext)
	assert.Nil(t, snap.NowPlaying)
	assert.False(t, s.IsPlaying())
}

func TestSelectedNextIgnoresShuffle(t *testing.T) {
	s, _ := newTestSession()
	for _, title := range []string{"A", "B", "C", "D"} {
		s.Enqueue(track(title))
	}
	s.Advance(SoftNext) // playing A, cursor 1
	s.ToggleShuffle()

	require.NoError(t, s.Promote(3))
	snap := s.Advance(SelectedNext)
	require.NotNil(t, snap.NowPlaying)
	assert.Equal(t, "D", snap.NowPlaying.Title, "an explicit pick bypasses shuffle")
}

func TestStartIfIdleOnlyStartsOnce(t *testing.T) {
	sess, audio := newTestSession()
	sess.Enqueue(track("a"))
	sess.Enqueue(track("b"))

	snap, started := sess.StartIfIdle()
	require.True(t, started)
	require.NotNil(t, snap.NowPlaying)
	assert.Equal(t, "a", snap.NowPlaying.Title)

	_, started = sess.StartIfIdle()
	assert.False(t, started, "a playing session must not be advanced")
	assert.Equal(t, []string{"a"}, audio.playedTitles())
}

func TestPromoteKeepsMultiset(t *testing.T) {
	s, _ := newTestSession()
	for _, title := range []string{"A", "B", "C", "D"} {
		s.Enqueue(track(title))
	}
	s.Advance(SoftNext) // cursor 1

	before := s.Snapshot().Upcoming
	require.NoError(t, s.Promote(3))
	after := s.Snapshot().Upcoming

	count := func(entries []QueueEntry) map[string]int {
		m := make(map[string]int)
		for _, e := range entries {
			m[e.Title]++
		}
		return m
	}
	assert.Equal(t, count(before), count(after))
	assert.Equal(t, "D", after[0].Title)
}
