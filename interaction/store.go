package interaction

import (
	"sort"
	"sync"
	"time"
)

// DefaultRecencyWindow is how long a background refresh is ignored for a
// target after the viewer edited it.
const DefaultRecencyWindow = 3 * time.Second

// Store holds the interaction state of every target shown in a view. It is
// shared by the Coordinator and by background refreshes, and is discarded with
// the view.
type Store struct {
	mu       sync.Mutex
	targets  map[string]*entry
	revision uint64

	window time.Duration
	now    func() time.Time
}

type entry struct {
	target   Target
	revision uint64
	// confirmed is the last state the server reported or a refresh brought.
	confirmed Target
	// inflight holds the edits awaiting the server, oldest first.
	inflight []Edit
}

// settle removes edit from the in-flight list and reports whether it was
// there.
func (e *entry) settle(edit Edit) bool {
	for i, f := range e.inflight {
		if f.revision == edit.revision {
			e.inflight = append(e.inflight[:i], e.inflight[i+1:]...)
			return true
		}
	}
	return false
}

// newestInFlight reports whether the edit owning the current state still
// awaits the server.
func (e *entry) newestInFlight() bool {
	n := len(e.inflight)
	return n > 0 && e.inflight[n-1].revision == e.revision
}

// An Option configures a Store.
type Option func(*Store)

// WithRecencyWindow sets the recency window of the store.
func WithRecencyWindow(d time.Duration) Option {
	return func(s *Store) {
		s.window = d
	}
}

// WithClock replaces time.Now as the source of edit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		targets: make(map[string]*entry),
		window:  DefaultRecencyWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current state of the target with the given id. The state
// may be an optimistic one that the server has not confirmed yet.
func (s *Store) Get(id string) (Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.targets[id]
	if !ok {
		return Target{}, false
	}
	return e.target, true
}

// Seed adds t to the store unless a target with the same id is already known,
// and returns the stored target.
func (s *Store) Seed(t Target) Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.seed(t).target
}

func (s *Store) seed(t Target) *entry {
	e, ok := s.targets[t.ID]
	if !ok {
		if t.Score < 0 {
			t.Score = 0
		}
		e = &entry{target: t, confirmed: t}
		s.targets[t.ID] = e
	}
	return e
}

// Pending reports whether an optimistic edit of the target awaits the server.
func (s *Store) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.targets[id]
	return ok && len(e.inflight) > 0
}

// List returns all targets sorted by id.
func (s *Store) List() []Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Target, 0, len(s.targets))
	for _, e := range s.targets {
		out = append(out, e.target)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of known targets.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

// Forget removes the target from the store. Responses for edits still in
// flight are discarded when they arrive.
func (s *Store) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, id)
}

// Refresh writes a background snapshot into the store. A target is left
// untouched while an edit of it is in flight, when the snapshot was fetched
// before the target's last edit, or when that edit is younger than the
// recency window. A zero FetchedAt means the snapshot is fresh.
func (s *Store) Refresh(snap Snapshot) RefreshReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	fetchedAt := snap.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = now
	}

	var report RefreshReport
	for _, t := range snap.Targets {
		if t.ID == "" {
			continue
		}
		e, ok := s.targets[t.ID]
		if !ok {
			t.AppliedAt = time.Time{}
			s.seed(t)
			report.Created = append(report.Created, t.ID)
			continue
		}
		if s.guarded(e, fetchedAt, now) {
			report.Skipped = append(report.Skipped, t.ID)
			continue
		}
		e.target.Score = t.Score
		e.target.Acted = t.Acted
		if t.Kind != "" {
			e.target.Kind = t.Kind
		}
		if t.OwnerID != "" {
			e.target.OwnerID = t.OwnerID
		}
		e.confirmed = e.target
		report.Applied = append(report.Applied, t.ID)
	}
	return report
}

// guarded reports whether data fetched at fetchedAt must not overwrite e.
func (s *Store) guarded(e *entry, fetchedAt, now time.Time) bool {
	if len(e.inflight) > 0 {
		return true
	}
	appliedAt := e.target.AppliedAt
	if appliedAt.IsZero() {
		return false
	}
	if fetchedAt.Before(appliedAt) {
		return true
	}
	return now.Sub(appliedAt) < s.window
}

// apply flips the current state of the target and records the edit. The seed
// is only used when the target is unknown.
func (s *Store) apply(seed Target) (Edit, Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.seed(seed)
	s.revision++
	edit := Edit{
		TargetID:  seed.ID,
		Previous:  e.target,
		AppliedAt: s.now(),
		revision:  s.revision,
	}

	e.target = opposite(e.target)
	e.target.AppliedAt = edit.AppliedAt
	e.revision = edit.revision
	e.inflight = append(e.inflight, edit)
	return edit, e.target
}

// current returns the entry of the edit if no newer edit replaced it.
func (s *Store) current(edit Edit) (*entry, bool) {
	e, ok := s.targets[edit.TargetID]
	if !ok || e.revision != edit.revision || e.target.AppliedAt.After(edit.AppliedAt) {
		return nil, false
	}
	return e, true
}

// reconcile writes the server state of edit. A superseded edit only updates
// the confirmed state, and only while the newest edit still awaits the
// server, so that a failure of the newest edit falls back to it.
func (s *Store) reconcile(edit Edit, res Result) (Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.targets[edit.TargetID]
	if !ok || !e.settle(edit) {
		return Target{}, false
	}
	if _, ok := s.current(edit); !ok {
		if e.newestInFlight() {
			e.confirmed.Acted = res.Acted
			e.confirmed.Score = res.Score
		}
		return Target{}, false
	}
	e.target.Acted = res.Acted
	e.target.Score = res.Score
	e.confirmed = e.target
	return e.target, true
}

// rollback undoes edit if it owns the current state. While older edits are
// still in flight the state goes back to what it was before edit and the
// newest of them owns it again. Otherwise the state goes back to the last
// confirmed one, which also drops the optimistic values of older edits that
// failed while edit was in flight.
func (s *Store) rollback(edit Edit) (Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.targets[edit.TargetID]
	if !ok || !e.settle(edit) {
		return Target{}, false
	}
	if _, ok := s.current(edit); !ok {
		return Target{}, false
	}
	if n := len(e.inflight); n > 0 {
		e.target = edit.Previous
		e.revision = e.inflight[n-1].revision
		return e.target, true
	}
	e.target = e.confirmed
	return e.target, true
}
