package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/mindbridge/internal/models"
	"github.com/soaringjerry/mindbridge/internal/services"
)

const (
	keyPrefix  = "mindbridge:latest:"
	genPrefix  = "mindbridge:gen:"
	anyType    = "*"
	DefaultTTL = 10 * time.Minute
)

// ResultCache fronts a ResultStore with a read-through cache for
// LatestResult, the companion's hot path.
//
// Entries are keyed by a per-user generation that CreateResultOnce bumps.
// A reader that loaded the previous latest row before the bump fills a key
// no later reader asks for, so a superseded result is never served once
// the new one is committed. Cache failures are logged and the call falls
// through to the store.
type ResultCache struct {
	next services.ResultStore
	kv   KV
	ttl  time.Duration
	log  *zap.Logger
}

var _ services.ResultStore = (*ResultCache)(nil)

func NewResultCache(next services.ResultStore, kv KV, ttl time.Duration, log *zap.Logger) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultCache{next: next, kv: kv, ttl: ttl, log: log.Named("cache")}
}

func genKey(userID string) string { return genPrefix + userID }

func latestKey(userID string, gen int64, testType string) string {
	if testType == "" {
		testType = anyType
	}
	return keyPrefix + userID + ":" + strconv.FormatInt(gen, 10) + ":" + testType
}

// generation reads the user's counter; an absent counter is 0.
func (c *ResultCache) generation(ctx context.Context, userID string) (int64, error) {
	raw, ok, err := c.kv.Get(ctx, genKey(userID))
	if err != nil || !ok {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *ResultCache) CreateResultOnce(ctx context.Context, r *models.Result) (*models.Result, bool, error) {
	stored, created, err := c.next.CreateResultOnce(ctx, r)
	if err != nil || !created {
		return stored, created, err
	}
	if _, err := c.kv.Incr(ctx, genKey(r.UserID)); err != nil {
		// Without the bump the old generation's entries stay live until
		// they expire; drop the ones we can name.
		c.log.Warn("bump result generation", zap.String("user_id", r.UserID), zap.Error(err))
		if gen, gerr := c.generation(ctx, r.UserID); gerr == nil {
			_ = c.kv.Del(ctx, latestKey(r.UserID, gen, ""), latestKey(r.UserID, gen, r.TestType))
		}
	}
	return stored, created, nil
}

func (c *ResultCache) GetResultBySession(ctx context.Context, sessionID string) (*models.Result, error) {
	return c.next.GetResultBySession(ctx, sessionID)
}

func (c *ResultCache) LatestResult(ctx context.Context, userID, testType string) (*models.Result, error) {
	gen, err := c.generation(ctx, userID)
	if err != nil {
		c.log.Warn("cache generation", zap.String("user_id", userID), zap.Error(err))
		return c.next.LatestResult(ctx, userID, testType)
	}
	key := latestKey(userID, gen, testType)
	raw, ok, err := c.kv.Get(ctx, key)
	switch {
	case err != nil:
		c.log.Warn("cache get", zap.String("key", key), zap.Error(err))
	case ok:
		var r models.Result
		if err := json.Unmarshal([]byte(raw), &r); err == nil {
			return &r, nil
		}
		c.log.Warn("cache entry corrupt", zap.String("key", key))
	}

	r, err := c.next.LatestResult(ctx, userID, testType)
	if err != nil || r == nil {
		return r, err
	}
	if b, err := json.Marshal(r); err == nil {
		if err := c.kv.Set(ctx, key, string(b), c.ttl); err != nil {
			c.log.Warn("cache set", zap.String("key", key), zap.Error(err))
		}
	}
	return r, nil
}

func (c *ResultCache) ListResults(ctx context.Context, userID string) ([]*models.Result, error) {
	return c.next.ListResults(ctx, userID)
}
