package session

import "sync"

// Registry maps guild IDs to their live session and guarantees at most one
// session per guild for the process lifetime. Its own lock covers only
// lookup and insert; a session's mutex is acquired separately and held for
// the duration of a transition, so distinct guilds never contend here.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the guild's session, atomically creating it through
// factory on first use.
func (r *Registry) GetOrCreate(guildID string, factory func() *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[guildID]; ok {
		return s
	}
	s := factory()
	r.sessions[guildID] = s
	return s
}

// Get returns the guild's session if one exists; it never creates.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// Each visits every live session outside the registry lock. Used by the
// periodic persistence job; fn takes each session's own lock like any
// other consumer and must not hold onto it.
func (r *Registry) Each(fn func(*Session)) {
	r.mu.Lock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.Unlock()

	for _, s := range list {
		fn(s)
	}
}
