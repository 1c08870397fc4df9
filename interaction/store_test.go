package interaction

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type testclock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testclock {
	return &testclock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testclock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testclock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"post", "comment", "skill"} {
		k, err := ParseKind(s)
		if err != nil {
			t.Errorf("ParseKind(%q) returned error %v", s, err)
		}
		if string(k) != s {
			t.Errorf("Got kind %q, want %q", k, s)
		}
	}
	if _, err := ParseKind("story"); err == nil {
		t.Error("ParseKind(story) expected error but got none")
	}
}

func TestStore_Seed(t *testing.T) {
	s := NewStore()

	got := s.Seed(Target{ID: "p1", Kind: KindPost, Score: -3})
	if got.Score != 0 {
		t.Errorf("Got score %d, want 0", got.Score)
	}

	got = s.Seed(Target{ID: "p1", Kind: KindPost, Score: 10, Acted: true})
	if got.Score != 0 || got.Acted {
		t.Errorf("Seed overwrote a known target: %+v", got)
	}
	if s.Len() != 1 {
		t.Errorf("Got %d targets, want 1", s.Len())
	}

	s.Forget("p1")
	if _, ok := s.Get("p1"); ok {
		t.Error("Get returned a forgotten target")
	}
}

func TestStore_Refresh(t *testing.T) {
	tests := []struct {
		name      string
		prepare   func(s *Store, c *testclock)
		fetchedAt func(c *testclock) time.Time
		want      Target
		wantRep   RefreshReport
	}{
		{
			name: "Unknown",
			fetchedAt: func(c *testclock) time.Time {
				return c.Now()
			},
			want:    Target{ID: "p1", Kind: KindPost, Score: 7, Acted: true},
			wantRep: RefreshReport{Created: []string{"p1"}},
		},
		{
			name: "NeverEdited",
			prepare: func(s *Store, c *testclock) {
				s.Seed(Target{ID: "p1", Kind: KindPost, Score: 2})
			},
			fetchedAt: func(c *testclock) time.Time {
				return c.Now()
			},
			want:    Target{ID: "p1", Kind: KindPost, Score: 7, Acted: true},
			wantRep: RefreshReport{Applied: []string{"p1"}},
		},
		{
			name: "FetchedBeforeEdit",
			prepare: func(s *Store, c *testclock) {
				s.Seed(Target{ID: "p1", Kind: KindPost, Score: 2})
				cmd := NewToggleCommand(s, Target{ID: "p1"})
				cmd.Apply()
				cmd.Reconcile(Result{Acted: true, Score: 3})
				c.Advance(time.Minute)
			},
			fetchedAt: func(c *testclock) time.Time {
				return c.Now().Add(-2 * time.Minute)
			},
			want: Target{
				ID: "p1", Kind: KindPost, Score: 3, Acted: true,
				AppliedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			},
			wantRep: RefreshReport{Skipped: []string{"p1"}},
		},
		{
			name: "InsideWindow",
			prepare: func(s *Store, c *testclock) {
				s.Seed(Target{ID: "p1", Kind: KindPost, Score: 2})
				cmd := NewToggleCommand(s, Target{ID: "p1"})
				cmd.Apply()
				cmd.Reconcile(Result{Acted: true, Score: 3})
				c.Advance(time.Second)
			},
			fetchedAt: func(c *testclock) time.Time {
				return c.Now()
			},
			want: Target{
				ID: "p1", Kind: KindPost, Score: 3, Acted: true,
				AppliedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			},
			wantRep: RefreshReport{Skipped: []string{"p1"}},
		},
		{
			name: "OutsideWindow",
			prepare: func(s *Store, c *testclock) {
				s.Seed(Target{ID: "p1", Kind: KindPost, Score: 2})
				cmd := NewToggleCommand(s, Target{ID: "p1"})
				cmd.Apply()
				cmd.Reconcile(Result{Acted: true, Score: 3})
				c.Advance(time.Minute)
			},
			fetchedAt: func(c *testclock) time.Time {
				return c.Now()
			},
			want: Target{
				ID: "p1", Kind: KindPost, Score: 7, Acted: true,
				AppliedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			},
			wantRep: RefreshReport{Applied: []string{"p1"}},
		},
		{
			name: "EditInFlight",
			prepare: func(s *Store, c *testclock) {
				s.Seed(Target{ID: "p1", Kind: KindPost, Score: 2})
				NewToggleCommand(s, Target{ID: "p1"}).Apply()
				c.Advance(time.Hour)
			},
			fetchedAt: func(c *testclock) time.Time {
				return c.Now()
			},
			want: Target{
				ID: "p1", Kind: KindPost, Score: 3, Acted: true,
				AppliedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			},
			wantRep: RefreshReport{Skipped: []string{"p1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClock()
			s := NewStore(WithClock(c.Now), WithRecencyWindow(3*time.Second))
			if tt.prepare != nil {
				tt.prepare(s, c)
			}

			rep := s.Refresh(Snapshot{
				FetchedAt: tt.fetchedAt(c),
				Targets: []Target{
					{ID: "p1", Kind: KindPost, Score: 7, Acted: true},
					{ID: ""},
				},
			})
			if diff := cmp.Diff(tt.wantRep, rep); diff != "" {
				t.Errorf("Refresh report mismatch (-want +got):\n%s", diff)
			}

			got, ok := s.Get("p1")
			if !ok {
				t.Fatal("Target p1 missing after refresh")
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Target mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToggleCommand(t *testing.T) {
	s := NewStore()
	s.Seed(Target{ID: "c1", Kind: KindComment, Score: 0})

	first := NewToggleCommand(s, Target{ID: "c1"})
	if got := first.Apply(); !got.Acted || got.Score != 1 {
		t.Errorf("Got optimistic state %+v, want acted with score 1", got)
	}
	if !s.Pending("c1") {
		t.Error("Expected an edit in flight")
	}

	second := NewToggleCommand(s, Target{ID: "c1"})
	if got := second.Apply(); got.Acted || got.Score != 0 {
		t.Errorf("Got optimistic state %+v, want not acted with score 0", got)
	}

	// The server accepted the first edit but the second owns the state.
	if _, ok := first.Reconcile(Result{Acted: true, Score: 1}); ok {
		t.Error("Reconcile of a superseded edit reported success")
	}
	if got, _ := s.Get("c1"); got.Acted || got.Score != 0 {
		t.Errorf("Got %+v after a superseded reconcile, want the optimistic state kept", got)
	}
	if _, ok := first.Rollback(); ok {
		t.Error("Rollback of a settled edit reported success")
	}

	got, ok := second.Rollback()
	if !ok {
		t.Fatal("Rollback of the newest edit failed")
	}
	if !got.Acted || got.Score != 1 {
		t.Errorf("Got rolled back state %+v, want the state the server accepted", got)
	}
	if s.Pending("c1") {
		t.Error("Expected no edit in flight after rollback")
	}

	var unapplied ToggleCommand
	if _, ok := unapplied.Reconcile(Result{}); ok {
		t.Error("Reconcile before Apply reported success")
	}
}

func TestToggleCommand_RollbackChain(t *testing.T) {
	tests := []struct {
		name        string
		newestFirst bool
	}{
		{name: "OldestFailsFirst"},
		{name: "NewestFailsFirst", newestFirst: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.Seed(Target{ID: "p1", Kind: KindPost, Score: 5})

			like := NewToggleCommand(s, Target{ID: "p1"})
			like.Apply()
			unlike := NewToggleCommand(s, Target{ID: "p1"})
			unlike.Apply()

			if tt.newestFirst {
				got, ok := unlike.Rollback()
				if !ok || !got.Acted || got.Score != 6 {
					t.Errorf("Got %+v, %v, want the like still shown while it is in flight", got, ok)
				}
				if !s.Pending("p1") {
					t.Error("Expected the like to stay in flight")
				}
				like.Rollback()
			} else {
				if _, ok := like.Rollback(); ok {
					t.Error("Rollback of a superseded edit reported success")
				}
				unlike.Rollback()
			}

			got, _ := s.Get("p1")
			if got.Acted || got.Score != 5 {
				t.Errorf("Got %+v, want the seeded state with score 5", got)
			}
			if s.Pending("p1") {
				t.Error("Expected no edit in flight")
			}
		})
	}
}
