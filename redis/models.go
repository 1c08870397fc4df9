package redis

import (
	"time"

	"github.com/GetStream/social-interaction-engine/comment"
)

// A cachedComment represents a comment stored in a Redis hash.
type cachedComment struct {
	ID        string    `redis:"id"`
	ParentID  string    `redis:"parent_id"`
	AuthorID  string    `redis:"author_id"`
	CreatedAt time.Time `redis:"created_at"`
	Content   string    `redis:"content"`
	MediaRef  string    `redis:"media_ref"`
	LikeCount int       `redis:"like_count"`
	LikedByMe bool      `redis:"liked_by_me"`
}

func newCachedComment(c comment.Comment) *cachedComment {
	return &cachedComment{
		ID:        c.ID,
		ParentID:  c.ParentID,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
		Content:   c.Content,
		MediaRef:  c.MediaRef,
		LikeCount: c.LikeCount,
		LikedByMe: c.LikedByMe,
	}
}

func (c cachedComment) Comment() comment.Comment {
	return comment.Comment{
		ID:        c.ID,
		ParentID:  c.ParentID,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
		Content:   c.Content,
		MediaRef:  c.MediaRef,
		LikeCount: c.LikeCount,
		LikedByMe: c.LikedByMe,
	}
}
