package relay

import (
	"sync"
	"time"
)

// Kind identifies which capture channel a record belongs to.
// The app issues two distinct API calls per note view, so the two
// channels are correlated independently under the same note ID.
type Kind string

const (
	// KindNote is the primary content capture channel (imagefeed API).
	KindNote Kind = "note"

	// KindCommentList is the comment list capture channel.
	KindCommentList Kind = "comment_list"
)

// Record is one captured request signature. The URL carries time-limited
// auth/signature query parameters, so replay should happen promptly after
// capture.
type Record struct {
	NoteID  string            `json:"note_id"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`

	publishedAt time.Time
}

// Empty reports whether the record is the zero "nothing pending" value.
func (r Record) Empty() bool {
	return r.URL == "" && len(r.Headers) == 0
}

type storeKey struct {
	noteID string
	kind   Kind
}

// Store holds at most one pending capture record per (note ID, kind) key.
// Publish and Consume are called from different execution contexts (the
// interception stream vs request pollers), so a single mutex guards the
// whole map. Volume is a handful of records at a time.
type Store struct {
	mu      sync.Mutex
	records map[storeKey]Record

	ttl  time.Duration
	done chan struct{}
}

// NewStore creates an empty store. ttl of zero disables expiry: a
// published-but-never-consumed record then persists until process restart,
// matching the observed low-volume deployment. With a positive ttl,
// StartJanitor sweeps out stale records.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		records: make(map[storeKey]Record),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
}

// Publish stores a record under (noteID, kind), unconditionally replacing
// any pending record for that key. At most one capture per key is in
// flight at a time, so last-write-wins is the intended overwrite behavior.
// An empty noteID is a no-op: the interceptor may observe traffic without
// an extractable ID.
func (s *Store) Publish(noteID string, kind Kind, url string, headers map[string]string) {
	if noteID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[storeKey{noteID, kind}] = Record{
		NoteID:      noteID,
		URL:         url,
		Headers:     headers,
		publishedAt: time.Now(),
	}
}

// Consume atomically reads and removes the record for (noteID, kind).
// A miss returns the zero Record, never an error: arriving before the
// producer is the expected state and callers retry on their own schedule.
func (s *Store) Consume(noteID string, kind Kind) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey{noteID, kind}
	rec, ok := s.records[key]
	if !ok {
		return Record{}
	}
	delete(s.records, key)
	return rec
}

// Len returns the number of pending records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// StartJanitor begins periodic expiry of records older than the store TTL.
// No-op when the TTL is zero.
func (s *Store) StartJanitor(interval time.Duration) {
	if s.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(time.Now())
			case <-s.done:
				return
			}
		}
	}()
}

// Close stops the janitor, if one is running.
func (s *Store) Close() {
	close(s.done)
}

func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, rec := range s.records {
		if now.Sub(rec.publishedAt) > s.ttl {
			delete(s.records, key)
		}
	}
}
