package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/GetStream/social-interaction-engine/api/validator"
	"github.com/GetStream/social-interaction-engine/comment"
	"github.com/GetStream/social-interaction-engine/interaction"
	"github.com/GetStream/social-interaction-engine/mention"
	"github.com/google/uuid"
)

// API provides the REST endpoints for the application.
type API struct {
	Logger  *slog.Logger
	Backend Backend
	Cache   Cache
	Val     *validator.Validator

	// RecencyWindow is passed to the store of every new view. Zero means
	// interaction.DefaultRecencyWindow.
	RecencyWindow time.Duration
	// StrictMentions disables the first candidate fallback when resolving
	// mentions.
	StrictMentions bool

	once  sync.Once
	mux   *http.ServeMux
	views views
}

func (a *API) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /views", a.createView)
	mux.HandleFunc("DELETE /views/{viewID}", a.deleteView)
	mux.HandleFunc("GET /views/{viewID}/targets", a.listTargets)
	mux.HandleFunc("POST /views/{viewID}/targets/{targetID}/toggle", a.toggleTarget)
	mux.HandleFunc("POST /views/{viewID}/refresh", a.refresh)
	mux.HandleFunc("GET /views/{viewID}/posts/{postID}/comments", a.listComments)
	mux.HandleFunc("POST /views/{viewID}/mentions/parse", a.parseMentions)
	mux.HandleFunc("POST /views/{viewID}/mentions/resolve", a.resolveMention)

	a.mux = mux
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.once.Do(a.setupRoutes)
	a.Logger.Info("Request received", "method", r.Method, "path", r.URL.Path)
	a.mux.ServeHTTP(w, r)
}

func (a *API) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

func (a *API) respondError(w http.ResponseWriter, status int, err error, msg string) {
	type response struct {
		Error string `json:"error"`
	}
	a.Logger.Error("Error", "error", err.Error())
	a.respond(w, status, response{Error: msg})
}

func (a *API) validateBody(w http.ResponseWriter, s any) bool {
	errs := a.Val.ValidateStruct(s)
	type response struct {
		Errors []validator.ValidationError `json:"errors"`
	}

	if len(errs) > 0 {
		a.respond(w, http.StatusBadRequest, &response{
			Errors: errs,
		})
		return false
	}
	return true
}

// decodeBody decodes and validates the JSON request body into dst. It
// responds and returns false when the body is unusable.
func (a *API) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return false
	}
	return a.validateBody(w, dst)
}

func (a *API) cache() Cache {
	if a.Cache == nil {
		return nopCache{}
	}
	return a.Cache
}

// validatePath checks the named path value against tag, responding 400 when
// it does not pass.
func (a *API) validatePath(w http.ResponseWriter, r *http.Request, name, tag string) (string, bool) {
	value := r.PathValue(name)
	errs := a.Val.Validate(value, tag)
	type response struct {
		Errors []validator.ValidationError `json:"errors"`
	}

	if len(errs) > 0 {
		for i := range errs {
			errs[i].Field = name
		}
		a.respond(w, http.StatusBadRequest, &response{
			Errors: errs,
		})
		return "", false
	}
	return value, true
}

// view returns the view named in the request path, responding 400 when the
// id is not a UUID and 404 when there is no such view.
func (a *API) view(w http.ResponseWriter, r *http.Request) (*view, bool) {
	id, ok := a.validatePath(w, r, "viewID", "uuid")
	if !ok {
		return nil, false
	}
	v, ok := a.views.get(id)
	if !ok {
		a.respondError(w, http.StatusNotFound, errors.New("unknown view "+id), "View not found")
		return nil, false
	}
	return v, true
}

func (a *API) createView(w http.ResponseWriter, r *http.Request) {
	type (
		request struct {
			ViewerID   string `json:"viewer_id" validate:"required"`
			ViewerName string `json:"viewer_name"`
		}
		response struct {
			ID       string `json:"id"`
			ViewerID string `json:"viewer_id"`
		}
	)

	var body request
	if ok := a.decodeBody(w, r, &body); !ok {
		return
	}

	var opts []interaction.Option
	if a.RecencyWindow > 0 {
		opts = append(opts, interaction.WithRecencyWindow(a.RecencyWindow))
	}
	id := uuid.NewString()
	logger := a.Logger.With("view_id", id)
	store := interaction.NewStore(opts...)
	viewer := mention.Viewer{ID: body.ViewerID, FullName: body.ViewerName}

	a.views.put(&view{
		ID:          id,
		Viewer:      viewer,
		Store:       store,
		Coordinator: interaction.NewCoordinator(store, logger),
		Resolver: &mention.Resolver{
			Searcher: cachedSearcher{api: a},
			Viewer:   viewer,
			Logger:   logger,
			Strict:   a.StrictMentions,
		},
	})
	a.Logger.Info("View created", "view_id", id, "viewer_id", body.ViewerID)

	a.respond(w, http.StatusCreated, response{ID: id, ViewerID: body.ViewerID})
}

func (a *API) deleteView(w http.ResponseWriter, r *http.Request) {
	id, ok := a.validatePath(w, r, "viewID", "uuid")
	if !ok {
		return
	}
	if !a.views.remove(id) {
		a.respondError(w, http.StatusNotFound, errors.New("unknown view "+id), "View not found")
		return
	}
	a.Logger.Info("View deleted", "view_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listTargets(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Targets []interaction.Target `json:"targets"`
	}

	v, ok := a.view(w, r)
	if !ok {
		return
	}
	a.respond(w, http.StatusOK, response{Targets: v.Store.List()})
}

func (a *API) toggleTarget(w http.ResponseWriter, r *http.Request) {
	type (
		request struct {
			Kind    string `json:"kind" validate:"required,kind"`
			Score   int    `json:"score" validate:"gte=0"`
			Acted   bool   `json:"acted"`
			OwnerID string `json:"owner_id" validate:"required_if=Kind skill"`
		}
		response struct {
			Error  string             `json:"error,omitempty"`
			Target interaction.Target `json:"target"`
		}
	)

	v, ok := a.view(w, r)
	if !ok {
		return
	}
	var body request
	if ok := a.decodeBody(w, r, &body); !ok {
		return
	}

	targetID, ok := a.validatePath(w, r, "targetID", "required,max=128")
	if !ok {
		return
	}
	kind := interaction.Kind(body.Kind)
	seed := interaction.Target{
		ID:      targetID,
		Kind:    kind,
		Score:   body.Score,
		Acted:   body.Acted,
		OwnerID: body.OwnerID,
	}

	call := func(ctx context.Context) (interaction.Result, error) {
		if kind == interaction.KindSkill {
			return a.Backend.ToggleEndorsement(ctx, targetID, body.OwnerID)
		}
		return a.Backend.ToggleLike(ctx, kind, targetID)
	}

	err := v.Coordinator.Toggle(r.Context(), seed, call)
	target, _ := v.Store.Get(targetID)
	if err != nil {
		a.Logger.Error("Could not toggle target", "view_id", v.ID, "target_id", targetID, "error", err.Error())
		a.respond(w, http.StatusBadGateway, response{Error: "Could not toggle " + body.Kind, Target: target})
		return
	}
	a.respond(w, http.StatusOK, response{Target: target})
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	type (
		target struct {
			ID      string `json:"id" validate:"required"`
			Kind    string `json:"kind" validate:"required,kind"`
			Score   int    `json:"score" validate:"gte=0"`
			Acted   bool   `json:"acted"`
			OwnerID string `json:"owner_id"`
		}
		request struct {
			FetchedAt time.Time `json:"fetched_at"`
			Targets   []target  `json:"targets" validate:"dive"`
		}
		response struct {
			Created []string `json:"created"`
			Applied []string `json:"applied"`
			Skipped []string `json:"skipped"`
		}
	)

	v, ok := a.view(w, r)
	if !ok {
		return
	}
	var body request
	if ok := a.decodeBody(w, r, &body); !ok {
		return
	}

	snap := interaction.Snapshot{FetchedAt: body.FetchedAt}
	for _, t := range body.Targets {
		snap.Targets = append(snap.Targets, interaction.Target{
			ID:      t.ID,
			Kind:    interaction.Kind(t.Kind),
			Score:   t.Score,
			Acted:   t.Acted,
			OwnerID: t.OwnerID,
		})
	}
	report := v.Store.Refresh(snap)
	a.Logger.Info("Refreshed view", "view_id", v.ID,
		"created", len(report.Created), "applied", len(report.Applied), "skipped", len(report.Skipped))

	a.respond(w, http.StatusOK, response{
		Created: nonNil(report.Created),
		Applied: nonNil(report.Applied),
		Skipped: nonNil(report.Skipped),
	})
}

func (a *API) listComments(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Comments []*comment.Node `json:"comments"`
		Count    int             `json:"count"`
		Cached   bool            `json:"cached"`
	}

	v, ok := a.view(w, r)
	if !ok {
		return
	}
	postID, ok := a.validatePath(w, r, "postID", "required,max=128")
	if !ok {
		return
	}
	fetchedAt := time.Now()

	comments, hit, err := a.cache().ListComments(r.Context(), postID)
	if err != nil {
		a.Logger.Error("Could not read cached comments", "post_id", postID, "error", err.Error())
		hit = false
	}
	if hit {
		a.Logger.Info("Got comments from cache", "post_id", postID, "count", len(comments))
		// Cached state may be older than any edit, so it only fills gaps.
		for _, c := range comments {
			v.Store.Seed(commentTarget(c))
		}
	} else {
		comments, err = a.Backend.ListComments(r.Context(), postID)
		if err != nil {
			a.respondError(w, http.StatusBadGateway, err, "Could not list comments")
			return
		}
		a.Logger.Info("Got comments from backend", "post_id", postID, "count", len(comments))
		if err := a.cache().InsertComments(r.Context(), postID, comments); err != nil {
			a.Logger.Error("Could not cache comments", "post_id", postID, "error", err.Error())
		}

		snap := interaction.Snapshot{FetchedAt: fetchedAt}
		for _, c := range comments {
			snap.Targets = append(snap.Targets, commentTarget(c))
		}
		v.Store.Refresh(snap)
	}

	tree := comment.BuildTree(comments)
	comment.Walk(tree, func(n *comment.Node, _ int) {
		if t, ok := v.Store.Get(n.ID); ok {
			n.LikeCount = t.Score
			n.LikedByMe = t.Acted
		}
	})

	a.respond(w, http.StatusOK, response{
		Comments: tree,
		Count:    comment.Count(tree),
		Cached:   hit,
	})
}

func (a *API) parseMentions(w http.ResponseWriter, r *http.Request) {
	type (
		request struct {
			Text string `json:"text"`
			// Candidates, when present, resolves mentions right away. An
			// empty list makes every mention inert.
			Candidates *[]mention.Candidate `json:"candidates"`
		}
		response struct {
			Segments []mention.Segment `json:"segments"`
		}
	)

	if _, ok := a.view(w, r); !ok {
		return
	}
	var body request
	if ok := a.decodeBody(w, r, &body); !ok {
		return
	}

	var segs []mention.Segment
	if body.Candidates != nil {
		segs = mention.ParseWithCandidates(body.Text, *body.Candidates)
	} else {
		segs = mention.Parse(body.Text)
	}
	a.respond(w, http.StatusOK, response{Segments: nonNil(segs)})
}

func (a *API) resolveMention(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Raw    string `json:"raw" validate:"required,startswith=@"`
		State  string `json:"state" validate:"omitempty,oneof=pending resolved inert"`
		UserID string `json:"user_id" validate:"required_if=State resolved"`
	}

	v, ok := a.view(w, r)
	if !ok {
		return
	}
	var body request
	if ok := a.decodeBody(w, r, &body); !ok {
		return
	}

	tok := mention.Token{
		Raw:    body.Raw,
		State:  mention.State(body.State),
		UserID: body.UserID,
	}
	if tok.State == "" {
		tok.State = mention.Pending
	}

	res, err := v.Resolver.Resolve(r.Context(), tok)
	if errors.Is(err, mention.ErrNotFound) {
		a.respondError(w, http.StatusNotFound, err, "User not found")
		return
	}
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not resolve mention")
		return
	}
	a.respond(w, http.StatusOK, res)
}

// cachedSearcher searches users through the cache, falling back to the
// backend on a miss.
type cachedSearcher struct {
	api *API
}

func (s cachedSearcher) SearchUsers(ctx context.Context, keyword string) ([]mention.Candidate, error) {
	a := s.api
	pool, hit, err := a.cache().SearchUsers(ctx, keyword)
	if err != nil {
		a.Logger.Error("Could not read cached search", "keyword", keyword, "error", err.Error())
	}
	if hit {
		return pool, nil
	}

	pool, err = a.Backend.SearchUsers(ctx, keyword)
	if err != nil {
		return nil, err
	}
	if err := a.cache().InsertSearch(ctx, keyword, pool); err != nil {
		a.Logger.Error("Could not cache search", "keyword", keyword, "error", err.Error())
	}
	return pool, nil
}

func commentTarget(c comment.Comment) interaction.Target {
	return interaction.Target{
		ID:    c.ID,
		Kind:  interaction.KindComment,
		Score: c.LikeCount,
		Acted: c.LikedByMe,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
