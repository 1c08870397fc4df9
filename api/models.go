package api

import (
	"context"
	"sync"

	"github.com/GetStream/social-interaction-engine/comment"
	"github.com/GetStream/social-interaction-engine/interaction"
	"github.com/GetStream/social-interaction-engine/mention"
)

// A Backend is the remote social service.
type Backend interface {
	ToggleLike(ctx context.Context, kind interaction.Kind, targetID string) (interaction.Result, error)
	ToggleEndorsement(ctx context.Context, skillID, userID string) (interaction.Result, error)
	SearchUsers(ctx context.Context, keyword string) ([]mention.Candidate, error)
	ListComments(ctx context.Context, postID string) ([]comment.Comment, error)
}

// A Cache keeps recent comment batches and user searches. The bool results
// report a hit.
type Cache interface {
	ListComments(ctx context.Context, postID string) ([]comment.Comment, bool, error)
	InsertComments(ctx context.Context, postID string, comments []comment.Comment) error
	SearchUsers(ctx context.Context, keyword string) ([]mention.Candidate, bool, error)
	InsertSearch(ctx context.Context, keyword string, candidates []mention.Candidate) error
}

// A view is the state of one screen: the targets it shows and the viewer
// looking at them. It lives until the screen is torn down.
type view struct {
	ID          string
	Viewer      mention.Viewer
	Store       *interaction.Store
	Coordinator *interaction.Coordinator
	Resolver    *mention.Resolver
}

type views struct {
	mu    sync.Mutex
	views map[string]*view
}

func (vs *views) get(id string) (*view, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v, ok := vs.views[id]
	return v, ok
}

func (vs *views) put(v *view) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.views == nil {
		vs.views = make(map[string]*view)
	}
	vs.views[v.ID] = v
}

func (vs *views) remove(id string) bool {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if _, ok := vs.views[id]; !ok {
		return false
	}
	delete(vs.views, id)
	return true
}

// nopCache is used when no cache is configured.
type nopCache struct{}

func (nopCache) ListComments(context.Context, string) ([]comment.Comment, bool, error) {
	return nil, false, nil
}

func (nopCache) InsertComments(context.Context, string, []comment.Comment) error { return nil }

func (nopCache) SearchUsers(context.Context, string) ([]mention.Candidate, bool, error) {
	return nil, false, nil
}

func (nopCache) InsertSearch(context.Context, string, []mention.Candidate) error { return nil }
