package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GetStream/social-interaction-engine/comment"
	"github.com/GetStream/social-interaction-engine/mention"
	"github.com/redis/go-redis/v9"
)

// Redis caches comment batches and user searches in Redis.
type Redis struct {
	cli *redis.Client
	ttl time.Duration
}

// Connect connects to the Redis server at url and pings the server to ensure
// the connection is working. Cached entries expire after ttl, or never when
// ttl is zero.
func Connect(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(cli, ttl), nil
}

// New returns a cache using an existing client.
func New(cli *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		cli: cli,
		ttl: ttl,
	}
}

// Close closes the connection.
func (r *Redis) Close() error {
	return r.cli.Close()
}

const (
	postsKey     = "comments"
	searchPrefix = "users:search"
	maxPosts     = 100
)

func postKey(postID string) string {
	return fmt.Sprintf("%s:%s", postsKey, postID)
}

func commentKey(postID, commentID string) string {
	return fmt.Sprintf("%s:%s", postKey(postID), commentID)
}

func searchKey(keyword string) string {
	return fmt.Sprintf("%s:%s", searchPrefix, strings.ToLower(strings.TrimSpace(keyword)))
}

// ListComments returns the cached comments of a post sorted by creation time.
// It reports false when the post is not cached.
func (r *Redis) ListComments(ctx context.Context, postID string) ([]comment.Comment, bool, error) {
	vals, err := r.cli.ZRangeByScore(ctx, postKey(postID), &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, false, fmt.Errorf("zrange: %w", err)
	}
	if len(vals) == 0 {
		return nil, false, nil
	}

	out := make([]comment.Comment, 0, len(vals))
	for _, key := range vals {
		var c cachedComment
		res := r.cli.HGetAll(ctx, key)
		if len(res.Val()) == 0 && res.Err() == nil {
			// The hash expired before the set; treat the post as missing.
			return nil, false, nil
		}
		if err := res.Scan(&c); err != nil {
			return nil, false, fmt.Errorf("hgetall: %w", err)
		}
		out = append(out, c.Comment())
	}
	return out, true, nil
}

// InsertComments replaces the cached comments of a post. Each comment is
// stored as a hash under comments:POST_ID:COMMENT_ID and indexed in a sorted
// set scored by creation time.
func (r *Redis) InsertComments(ctx context.Context, postID string, comments []comment.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	set := postKey(postID)
	_, err := r.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, set)
		for _, c := range comments {
			key := commentKey(postID, c.ID)
			pipe.HSet(ctx, key, newCachedComment(c))
			if r.ttl > 0 {
				pipe.Expire(ctx, key, r.ttl)
			}
			pipe.ZAdd(ctx, set, redis.Z{
				Score:  float64(c.CreatedAt.UnixNano()),
				Member: key,
			})
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, set, r.ttl)
		}
		pipe.ZAdd(ctx, postsKey, redis.Z{
			Score:  float64(time.Now().UnixNano()),
			Member: set,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis insert comments: %w", err)
	}

	if err := r.evictOldest(ctx); err != nil {
		return fmt.Errorf("evict oldest: %w", err)
	}
	return nil
}

// SearchUsers returns a cached user search. It reports false on a miss.
func (r *Redis) SearchUsers(ctx context.Context, keyword string) ([]mention.Candidate, bool, error) {
	data, err := r.cli.Get(ctx, searchKey(keyword)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get search: %w", err)
	}

	var out []mention.Candidate
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("unmarshal search: %w", err)
	}
	return out, true, nil
}

// InsertSearch caches the result of a user search.
func (r *Redis) InsertSearch(ctx context.Context, keyword string, candidates []mention.Candidate) error {
	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("marshal search: %w", err)
	}
	if err := r.cli.Set(ctx, searchKey(keyword), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set search: %w", err)
	}
	return nil
}

// evictOldest drops the posts cached longest ago once more than maxPosts are
// cached.
func (r *Redis) evictOldest(ctx context.Context) error {
	vals, err := r.cli.ZRange(ctx, postsKey, 0, int64(-maxPosts-1)).Result()
	if err != nil {
		return fmt.Errorf("zrange: %w", err)
	}

	for _, set := range vals {
		keys, _ := r.cli.ZRange(ctx, set, 0, -1).Result()
		_ = r.cli.ZRem(ctx, postsKey, set).Err()
		_ = r.cli.Del(ctx, append(keys, set)...).Err()
	}
	return nil
}
