package store

import (
	"context"
	"encoding/json"
	"time"

	jww "github.com/spf13/jwalterweatherman"

	"github.com/hanish78780/skillbridge-chat/internal/cache"
	"github.com/hanish78780/skillbridge-chat/internal/models"
)

// Directory resolves user ids to display summaries.
type Directory interface {
	Summary(ctx context.Context, id string) (models.UserSummary, error)
}

// CachedDirectory fronts a Directory with a cache. Cache failures fall back
// to the source; misses for unknown users are not cached.
type CachedDirectory struct {
	source Directory
	cache  cache.Cache
	ttl    time.Duration
}

func NewCachedDirectory(source Directory, c cache.Cache, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{source: source, cache: c, ttl: ttl}
}

func summaryKey(id string) string { return "user:summary:" + id }

func (d *CachedDirectory) Summary(ctx context.Context, id string) (models.UserSummary, error) {
	raw, err := d.cache.Get(ctx, summaryKey(id))
	if err == nil {
		var sum models.UserSummary
		if jerr := json.Unmarshal([]byte(raw), &sum); jerr == nil {
			return sum, nil
		}
	} else if err != cache.ErrMiss {
		jww.WARN.Printf("user cache get %s: %v", id, err)
	}

	sum, err := d.source.Summary(ctx, id)
	if err != nil {
		return sum, err
	}
	if b, jerr := json.Marshal(sum); jerr == nil {
		if serr := d.cache.Set(ctx, summaryKey(id), string(b), d.ttl); serr != nil {
			jww.WARN.Printf("user cache set %s: %v", id, serr)
		}
	}
	return sum, nil
}

// Invalidate drops a cached summary after the user's profile changed.
func (d *CachedDirectory) Invalidate(ctx context.Context, id string) error {
	_, err := d.cache.Del(ctx, summaryKey(id))
	return err
}
