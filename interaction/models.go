package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// A Kind identifies what an interaction target is.
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
	KindSkill   Kind = "skill"
)

// ErrUnknownKind is returned when a target kind is not one of the known kinds.
var ErrUnknownKind = errors.New("unknown target kind")

// ParseKind converts s into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPost, KindComment, KindSkill:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// A Target is something the viewer can like or endorse. Score is the total
// number of likes or endorsements, Acted reports whether the viewer is one of
// them.
type Target struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Score int    `json:"score"`
	Acted bool   `json:"acted"`
	// OwnerID is the user a skill belongs to. Empty for posts and comments.
	OwnerID string `json:"owner_id,omitempty"`
	// AppliedAt is the time of the last local edit, zero if there was none.
	AppliedAt time.Time `json:"applied_at"`
}

// A Result is the authoritative state returned by the server after a toggle.
type Result struct {
	Acted bool
	Score int
}

// A RemoteCall performs the toggle on the server.
type RemoteCall func(ctx context.Context) (Result, error)

// An Edit is the snapshot taken before an optimistic change, kept until the
// change is confirmed or rolled back.
type Edit struct {
	TargetID  string
	Previous  Target
	AppliedAt time.Time

	revision uint64
}

// A Snapshot is a batch of target states fetched from the server in the
// background.
type Snapshot struct {
	FetchedAt time.Time
	Targets   []Target
}

// RefreshReport lists what a Refresh did with each target of a snapshot.
type RefreshReport struct {
	Created []string
	Applied []string
	Skipped []string
}

// opposite returns t as it would look after the viewer toggled it.
func opposite(t Target) Target {
	t.Acted = !t.Acted
	if t.Acted {
		t.Score++
	} else {
		t.Score--
	}
	if t.Score < 0 {
		t.Score = 0
	}
	return t
}
