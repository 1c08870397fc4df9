package remote

import (
	"time"

	"github.com/GetStream/social-interaction-engine/comment"
	"github.com/GetStream/social-interaction-engine/interaction"
	"github.com/GetStream/social-interaction-engine/mention"
)

// likeState is the answer to a like toggle.
type likeState struct {
	IsLiked bool `json:"is_liked"`
	Score   int  `json:"score"`
}

// endorsementState is the answer to an endorsement toggle.
type endorsementState struct {
	Score        int  `json:"score"`
	EndorsedByMe bool `json:"endorsed_by_me"`
}

// user is a user search hit.
type user struct {
	ID       string `json:"id"`
	FName    string `json:"fname"`
	LName    string `json:"lname"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// apiComment is a comment as the server sends it.
type apiComment struct {
	ID        string    `json:"id"`
	ParentID  *string   `json:"parent_id"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	Content   string    `json:"content"`
	MediaRef  string    `json:"media_ref"`
	LikeCount int       `json:"like_count"`
	LikedByMe bool      `json:"liked_by_me"`
}

// errorBody is the body of a failed request.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (l likeState) Result() interaction.Result {
	return interaction.Result{Acted: l.IsLiked, Score: l.Score}
}

func (e endorsementState) Result() interaction.Result {
	return interaction.Result{Acted: e.EndorsedByMe, Score: e.Score}
}

func (u user) Candidate() mention.Candidate {
	return mention.Candidate{
		ID:        u.ID,
		FirstName: u.FName,
		LastName:  u.LName,
		Username:  u.Username,
		Avatar:    u.Avatar,
	}
}

func (c apiComment) Comment() comment.Comment {
	out := comment.Comment{
		ID:        c.ID,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
		Content:   c.Content,
		MediaRef:  c.MediaRef,
		LikeCount: c.LikeCount,
		LikedByMe: c.LikedByMe,
	}
	if c.ParentID != nil {
		out.ParentID = *c.ParentID
	}
	return out
}

func (e errorBody) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
