package session

import (
	"errors"
	"math/rand"
)

// ErrIndexOutOfRange reports a promote target outside the upcoming range.
// In practice this is a race between a stale queue picker and a queue that
// has already moved on.
var ErrIndexOutOfRange = errors.New("queue index out of range")

// maxUpcomingView caps the queue picker at the component option limit.
const maxUpcomingView = 25

// QueueEntry is one row of the rendered queue picker.
type QueueEntry struct {
	Index int // absolute index into the queue
	Title string
}

// Queue is an ordered run of tracks with a play cursor. Items at or after
// the cursor are upcoming; items before it are history, kept only for
// backwards navigation and bounded by historyLimit. Queue is not safe for
// concurrent use on its own; Session serializes access.
type Queue struct {
	items        []Track
	cursor       int
	historyLimit int
}

func NewQueue(historyLimit int) *Queue {
	return &Queue{historyLimit: historyLimit}
}

func (q *Queue) Len() int    { return len(q.items) }
func (q *Queue) Cursor() int { return q.cursor }

// Enqueue appends a track, first trimming history so the cursor keeps
// pointing at the same logical upcoming item.
func (q *Queue) Enqueue(t Track) {
	q.trimHistory()
	q.items = append(q.items, t)
}

func (q *Queue) trimHistory() {
	for q.cursor > q.historyLimit {
		q.items = q.items[1:]
		q.cursor--
	}
}

// Promote moves the item at absolute index k to immediately precede the
// cursor, making it the very next upcoming item. Only upcoming items may
// be promoted; history indices are rejected.
func (q *Queue) Promote(k int) error {
	if k < q.cursor || k >= len(q.items) {
		return ErrIndexOutOfRange
	}
	item := q.items[k]
	q.items = append(q.items[:k], q.items[k+1:]...)
	q.items = append(q.items[:q.cursor], append([]Track{item}, q.items[q.cursor:]...)...)
	return nil
}

// PeekNext picks the absolute index that would play next under the given
// policy, without mutating the queue. Shuffle draws uniformly and, for
// queues longer than one item, resamples until it lands off the index that
// just played; a repeat is possible only on a single-item queue. The
// linear path wraps to zero at the end of the queue when looping.
func (q *Queue) PeekNext(shuffling, looping bool) (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	if shuffling {
		last := q.cursor - 1
		next := rand.Intn(len(q.items))
		for len(q.items) > 1 && next == last {
			next = rand.Intn(len(q.items))
		}
		return next, true
	}
	next := q.cursor
	if next >= len(q.items) {
		if !looping {
			return 0, false
		}
		next = 0
	}
	return next, true
}

// TrackAt returns the item at absolute index i.
func (q *Queue) TrackAt(i int) Track { return q.items[i] }

// CommitNext repositions the cursor just past the item chosen by PeekNext.
func (q *Queue) CommitNext(i int) { q.cursor = i + 1 }

// Rewind moves the cursor back n upcoming positions, clamped at zero.
func (q *Queue) Rewind(n int) {
	q.cursor -= n
	if q.cursor < 0 {
		q.cursor = 0
	}
}

// RestartLoopWindow drops all history so a freshly enabled loop cycles
// only the remaining upcoming items.
func (q *Queue) RestartLoopWindow() {
	q.items = append([]Track(nil), q.items[q.cursor:]...)
	q.cursor = 0
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.items = nil
	q.cursor = 0
}

// UpcomingView lists entries for the queue picker, starting at the cursor,
// or at zero under shuffle where order carries no meaning. At most
// maxUpcomingView entries are returned; the renderer elides the rest.
func (q *Queue) UpcomingView(shuffling bool) []QueueEntry {
	start := q.cursor
	if shuffling {
		start = 0
	}
	var view []QueueEntry
	for i := start; i < len(q.items) && len(view) < maxUpcomingView; i++ {
		view = append(view, QueueEntry{Index: i, Title: q.items[i].Title})
	}
	return view
}

// UpcomingTotal counts every entry UpcomingView would cover before the cap.
func (q *Queue) UpcomingTotal(shuffling bool) int {
	if shuffling {
		return len(q.items)
	}
	return len(q.items) - q.cursor
}
