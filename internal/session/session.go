package session

import (
	"sync"

	"github.com/rs/zerolog"
)

// QueueAction is an external trigger for a session transition.
type QueueAction int

const (
	// SoftNext advances because the current track ran out on its own.
	SoftNext QueueAction = iota
	// HardNext is a user-driven skip; the active track is stopped first.
	HardNext
	// Previous steps back to the track before the current one.
	Previous
	// SelectedNext jumps to a queue entry the user picked explicitly.
	SelectedNext
	// StateChange is a loop/shuffle toggle with no track change.
	StateChange
)

func (a QueueAction) String() string {
	switch a {
	case SoftNext:
		return "soft-next"
	case HardNext:
		return "hard-next"
	case Previous:
		return "previous"
	case SelectedNext:
		return "selected-next"
	case StateChange:
		return "state-change"
	}
	return "unknown"
}

// ActionFromCustomID maps panel button custom IDs onto queue actions.
func ActionFromCustomID(id string) QueueAction {
	switch id {
	case "next":
		return HardNext
	case "prev":
		return Previous
	default:
		return SoftNext
	}
}

// Snapshot is the immutable post-transition state and the sole input to
// rendering. NowPlaying is nil both when playback ran out and on renders
// that must leave the current media display untouched.
type Snapshot struct {
	NowPlaying *Track
	Upcoming   []QueueEntry
	Total      int // upcoming count before the picker cap
	Looping    bool
	Shuffling  bool
}

// AudioSession is the voice transport a Session drives. Play and Stop must
// not block; both are called with the session mutex held. The transport
// reports the end of every started track, natural or stopped, exactly once
// through its completion callback, tagged with the generation the track
// was started under.
type AudioSession interface {
	Play(t Track, gen uint64)
	Stop()
}

// Session is the per-guild playback state machine. Every mutating entry
// point takes the session mutex; rendering happens after release, fed by
// the returned snapshot, so a slow gateway edit never stalls other events.
type Session struct {
	mu        sync.Mutex
	guildID   string
	queue     *Queue
	audio     AudioSession // nil until a voice channel is joined
	playing   bool
	looping   bool
	shuffling bool
	gen       uint64
	log       zerolog.Logger
}

func New(guildID string, historyLimit int, log zerolog.Logger) *Session {
	return &Session{
		guildID: guildID,
		queue:   NewQueue(historyLimit),
		log:     log.With().Str("guild", guildID).Logger(),
	}
}

func (s *Session) GuildID() string { return s.guildID }

// AttachAudio hands the session its voice transport. The transport's
// completion callback is expected to feed HandleTrackEnd.
func (s *Session) AttachAudio(a AudioSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = a
}

func (s *Session) HasAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio != nil
}

func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Enqueue appends an already-resolved track. Resolution happens before the
// lock is taken; enqueue itself never starts playback.
func (s *Session) Enqueue(t Track) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Enqueue(t)
	s.log.Debug().Str("track", t.Title).Int("queue_len", s.queue.Len()).Msg("track enqueued")
	return s.snapshotLocked(nil)
}

// Advance runs one state transition and returns the resulting snapshot.
// It never fails: an exhausted queue is a normal terminal state.
func (s *Session) Advance(action QueueAction) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked(action)
}

// StartIfIdle advances only when nothing is playing. The check and the
// transition share one critical section so concurrent queue requests
// cannot both start playback.
func (s *Session) StartIfIdle() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return s.snapshotLocked(nil), false
	}
	return s.advanceLocked(SoftNext), true
}

func (s *Session) advanceLocked(action QueueAction) Snapshot {
	s.gen++

	if s.audio == nil {
		// No voice transport yet; the triggering command is a no-op.
		s.playing = false
		return s.snapshotLocked(nil)
	}

	switch action {
	case HardNext, SelectedNext:
		if s.playing {
			// Stopping surfaces a completion callback later. It carries the
			// superseded generation and HandleTrackEnd drops it.
			s.audio.Stop()
		}
	case Previous:
		// One step undoes the current track, one more lands on the prior.
		s.queue.Rewind(2)
	}

	shuffled := s.shuffling && action != SelectedNext
	next, ok := s.queue.PeekNext(shuffled, s.looping)
	if !ok {
		s.playing = false
		s.log.Debug().Stringer("action", action).Msg("queue exhausted, going idle")
		return s.snapshotLocked(nil)
	}

	track := s.queue.TrackAt(next)
	s.queue.CommitNext(next)
	s.playing = true
	s.audio.Play(track, s.gen)
	s.log.Info().
		Str("track", track.Title).
		Uint64("gen", s.gen).
		Stringer("action", action).
		Msg("track started")
	return s.snapshotLocked(&track)
}

// HandleTrackEnd is the completion callback sink. A callback tagged with a
// generation older than the session's current one belongs to a track that
// a later transition already superseded; it is dropped and ok is false.
func (s *Session) HandleTrackEnd(gen uint64) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.Debug().
			Uint64("gen", gen).
			Uint64("current", s.gen).
			Msg("stale completion callback dropped")
		return Snapshot{}, false
	}
	return s.advanceLocked(SoftNext), true
}

// ToggleLoop flips looping. Turning it on restarts the loop window so only
// the remaining upcoming items cycle.
func (s *Session) ToggleLoop() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.looping = !s.looping
	if s.looping {
		s.queue.RestartLoopWindow()
	}
	return s.snapshotLocked(nil)
}

// ToggleShuffle flips shuffling.
func (s *Session) ToggleShuffle() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuffling = !s.shuffling
	return s.snapshotLocked(nil)
}

// Stop clears the queue entirely and settles the session into idle.
func (s *Session) Stop() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Clear()
	return s.advanceLocked(HardNext)
}

// Promote moves the queue item at absolute index k to the front of the
// upcoming range. A bad index is logged as a stale-picker race and
// reported to the caller, never surfaced to the end user.
func (s *Session) Promote(k int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.queue.Promote(k); err != nil {
		s.log.Warn().Int("index", k).Err(err).Msg("promote rejected, queue picker was stale")
		return err
	}
	return nil
}

// Snapshot returns the current state without running a transition.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(nil)
}

func (s *Session) snapshotLocked(now *Track) Snapshot {
	return Snapshot{
		NowPlaying: now,
		Upcoming:   s.queue.UpcomingView(s.shuffling),
		Total:      s.queue.UpcomingTotal(s.shuffling),
		Looping:    s.looping,
		Shuffling:  s.shuffling,
	}
}
