package session

import "time"

// Track is a resolved playable item with display metadata. It is immutable
// once built; two tracks are the same track iff their source IDs match,
// never by pointer identity.
type Track struct {
	ID        string        // resolved source identifier (e.g. video ID)
	Title     string
	Artist    string
	Duration  time.Duration
	Thumbnail string
	SourceURL string // canonical page URL
	StreamURL string // direct media URL handed to the transport
}

// Equal reports whether both tracks refer to the same source.
func (t Track) Equal(other Track) bool {
	return t.ID == other.ID
}
