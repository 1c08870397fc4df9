package mention

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"
)

// ProfileRoute is the route of the viewer's own profile. Other users live
// under UserRoute followed by their id.
const (
	ProfileRoute = "/profile"
	UserRoute    = "/users/"
)

// A Searcher looks up users by a partial name. Results are ordered by
// relevance.
type Searcher interface {
	SearchUsers(ctx context.Context, keyword string) ([]Candidate, error)
}

// Resolver turns activated mentions into navigation targets.
type Resolver struct {
	Searcher Searcher
	Viewer   Viewer
	Logger   *slog.Logger
	// Strict disables the first candidate fallback, so that a mention no
	// strategy matches is reported as not found.
	Strict bool

	group singleflight.Group
}

// Resolve returns where activating tok leads. Pending tokens trigger a user
// search, retried with fewer words while no strategy matches; concurrent
// activations of the same name share it. The first candidate fallback only
// applies once every prefix was searched. A failed search is reported as
// ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, tok Token) (Resolution, error) {
	switch tok.State {
	case Inert:
		return Resolution{}, fmt.Errorf("resolve %q: %w", tok.Raw, ErrNotFound)
	case Resolved:
		if tok.UserID == "" {
			return Resolution{}, fmt.Errorf("resolve %q: %w", tok.Raw, ErrNotFound)
		}
		return r.resolution(Candidate{ID: tok.UserID}, ""), nil
	}

	words := strings.Fields(tok.Name())
	if len(words) == 0 {
		return Resolution{}, fmt.Errorf("resolve %q: %w", tok.Raw, ErrNotFound)
	}

	// Without candidates a mention keeps the words after the name, so
	// shorter prefixes are searched until a strategy matches.
	var fallback []Candidate
	for n := len(words); n > 0; n-- {
		name := strings.Join(words[:n], " ")
		pool, err := r.search(ctx, name)
		if err != nil {
			r.logger().Error("Could not search users", "keyword", name, "error", err.Error())
			return Resolution{}, fmt.Errorf("search %q: %w: %w", name, ErrNotFound, err)
		}
		if c, strategy, ok := Rank(name, pool, true); ok {
			r.logger().Debug("Resolved mention", "mention", tok.Raw, "user_id", c.ID, "strategy", strategy)
			return r.resolution(c, strategy), nil
		}
		if fallback == nil && len(pool) > 0 {
			fallback = pool
		}
	}

	if r.Strict || len(fallback) == 0 {
		return Resolution{}, fmt.Errorf("resolve %q: %w", tok.Raw, ErrNotFound)
	}
	r.logger().Debug("Resolved mention", "mention", tok.Raw, "user_id", fallback[0].ID, "strategy", FallbackStrategy)
	return r.resolution(fallback[0], FallbackStrategy), nil
}

func (r *Resolver) search(ctx context.Context, name string) ([]Candidate, error) {
	// The search outlives a cancelled caller, since others may share it.
	v, err, _ := r.group.Do(strings.ToLower(name), func() (any, error) {
		return r.Searcher.SearchUsers(context.WithoutCancel(ctx), name)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Candidate), nil
}

func (r *Resolver) resolution(c Candidate, strategy string) Resolution {
	if r.isSelf(c) {
		return Resolution{UserID: r.Viewer.ID, IsSelf: true, Route: ProfileRoute, Strategy: strategy}
	}
	return Resolution{UserID: c.ID, Route: UserRoute + c.ID, Strategy: strategy}
}

func (r *Resolver) isSelf(c Candidate) bool {
	if c.ID != "" {
		return r.Viewer.ID != "" && c.ID == r.Viewer.ID
	}
	name := c.DisplayName()
	return name != "" && strings.EqualFold(name, strings.TrimSpace(r.Viewer.FullName))
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
