package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"interview-coach/domain"
)

// RedisStatusCache keeps terminal feedback records so repeated polls of a
// finished job skip the database. Read and write errors are logged and
// treated as a miss.
type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

var _ domain.StatusCache = (*RedisStatusCache)(nil)

func NewRedisStatusCache(ctx context.Context, url string, ttl time.Duration, log logrus.FieldLogger) (*RedisStatusCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStatusCache{client: client, ttl: ttl, log: log}, nil
}

// attemptTTL bounds how long a pair remembers its current attempt. Once it
// expires every Put for the pair is dropped, which only costs cache misses.
const attemptTTL = 24 * time.Hour

// putIfCurrent stores ARGV[2] under KEYS[2] only while KEYS[1] holds ARGV[1].
var putIfCurrent = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
end
return false
`)

func feedbackCacheKey(interviewID, userID string) string {
	return fmt.Sprintf("feedback:%s:%s", interviewID, userID)
}

func attemptKey(interviewID, userID string) string {
	return fmt.Sprintf("feedback:%s:%s:attempt", interviewID, userID)
}

func (c *RedisStatusCache) Get(ctx context.Context, interviewID, userID string) (*domain.Feedback, bool) {
	raw, err := c.client.Get(ctx, feedbackCacheKey(interviewID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.WithError(err).Warn("feedback cache read failed")
		return nil, false
	}
	var f domain.Feedback
	if err := json.Unmarshal(raw, &f); err != nil {
		c.log.WithError(err).Warn("feedback cache entry is corrupt")
		return nil, false
	}
	return &f, true
}

// Put stores only terminal records of the pair's current attempt; a reader
// that loaded a row just before a resubmission cannot bring it back.
func (c *RedisStatusCache) Put(ctx context.Context, f *domain.Feedback) {
	if f == nil || !f.Status.Terminal() || f.JobToken == "" {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	keys := []string{attemptKey(f.InterviewID, f.UserID), feedbackCacheKey(f.InterviewID, f.UserID)}
	err = putIfCurrent.Run(ctx, c.client, keys, f.JobToken, raw, c.ttl.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.WithError(err).Warn("feedback cache write failed")
	}
}

func (c *RedisStatusCache) StartAttempt(ctx context.Context, interviewID, userID, token string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, attemptKey(interviewID, userID), token, attemptTTL)
		pipe.Del(ctx, feedbackCacheKey(interviewID, userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset feedback cache: %w", err)
	}
	return nil
}

func (c *RedisStatusCache) Close() error {
	return c.client.Close()
}
