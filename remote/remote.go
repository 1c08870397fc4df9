// Package remote is the client of the social network API.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/GetStream/social-interaction-engine/comment"
	"github.com/GetStream/social-interaction-engine/interaction"
	"github.com/GetStream/social-interaction-engine/mention"
	"github.com/go-resty/resty/v2"
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Client calls the social network API on behalf of the viewer.
type Client struct {
	cli *resty.Client
}

// New returns a Client for the API at baseURL, authenticated with token. A
// zero timeout leaves requests bounded by their context only.
func New(baseURL, token string, timeout time.Duration) *Client {
	cli := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if token != "" {
		cli.SetAuthToken(token)
	}
	if timeout > 0 {
		cli.SetTimeout(timeout)
	}
	return &Client{
		cli: cli,
	}
}

// ToggleLike likes or unlikes a post or comment and returns the resulting
// state.
func (c *Client) ToggleLike(ctx context.Context, kind interaction.Kind, targetID string) (interaction.Result, error) {
	var out likeState
	err := c.do(ctx, http.MethodPost, "/targets/{kind}/{id}/like", func(r *resty.Request) {
		r.SetPathParams(map[string]string{
			"kind": string(kind),
			"id":   targetID,
		}).SetResult(&out)
	})
	if err != nil {
		return interaction.Result{}, fmt.Errorf("toggle like: %w", err)
	}
	return out.Result(), nil
}

// ToggleEndorsement endorses the skill of a user, or withdraws the
// endorsement, and returns the resulting state.
func (c *Client) ToggleEndorsement(ctx context.Context, skillID, userID string) (interaction.Result, error) {
	var out endorsementState
	err := c.do(ctx, http.MethodPost, "/skills/{skill}/endorsements", func(r *resty.Request) {
		r.SetPathParam("skill", skillID).
			SetBody(map[string]string{"user_id": userID}).
			SetResult(&out)
	})
	if err != nil {
		return interaction.Result{}, fmt.Errorf("toggle endorsement: %w", err)
	}
	return out.Result(), nil
}

// SearchUsers returns the users whose name starts with or contains keyword,
// most relevant first.
func (c *Client) SearchUsers(ctx context.Context, keyword string) ([]mention.Candidate, error) {
	var users []user
	err := c.do(ctx, http.MethodGet, "/users/search", func(r *resty.Request) {
		r.SetQueryParam("keyword", keyword).SetResult(&users)
	})
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	out := make([]mention.Candidate, len(users))
	for i, u := range users {
		out[i] = u.Candidate()
	}
	return out, nil
}

// ListComments returns all comments of a post, unordered.
func (c *Client) ListComments(ctx context.Context, postID string) ([]comment.Comment, error) {
	var comments []apiComment
	err := c.do(ctx, http.MethodGet, "/posts/{post}/comments", func(r *resty.Request) {
		r.SetPathParam("post", postID).SetResult(&comments)
	})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	out := make([]comment.Comment, len(comments))
	for i, cm := range comments {
		out[i] = cm.Comment()
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, url string, build func(r *resty.Request)) error {
	var errBody errorBody
	req := c.cli.R().
		SetContext(ctx).
		SetError(&errBody)
	build(req)

	resp, err := req.Execute(method, url)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	if resp.IsError() {
		return &StatusError{Status: resp.StatusCode(), Message: errBody.message()}
	}
	return nil
}
