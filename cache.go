package identity

import (
	"context"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a resolved identity snapshot stays usable.
const DefaultCacheTTL = 300 * time.Second

// Cache is a read-through cache mapping a subject email to a Snapshot.
// On miss it performs exactly one backing-store load per key regardless
// of how many callers miss concurrently; all of them share the result.
// Entries expire at write-time + TTL, reads do not extend them.
type Cache struct {
	store         IdentityStore
	backend       CacheBackend
	ttl           time.Duration
	logger        Logger
	group         singleflight.Group
	cacheNegative bool
}

// NewCache creates a read-through cache over the given store. A ttl of
// zero uses DefaultCacheTTL; a nil backend uses the in-memory one.
func NewCache(store IdentityStore, backend CacheBackend, ttl time.Duration) *Cache {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		store:   store,
		backend: backend,
		ttl:     ttl,
		logger:  defLogger{},
	}
}

// WithLogger overrides the logger used by the cache.
func (c *Cache) WithLogger(logger Logger) *Cache {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithNegativeCaching makes not-found results cacheable too. Off by
// default so a fresh signup is visible immediately after a miss.
func (c *Cache) WithNegativeCaching() *Cache {
	c.cacheNegative = true
	return c
}

// Get resolves the email to a snapshot, loading through to the store on
// a miss. Concurrent misses for the same key share one load.
func (c *Cache) Get(ctx context.Context, email string) (*Snapshot, error) {
	raw, hit, err := c.backend.Get(ctx, email)
	if err != nil {
		c.logger.Warn("cache backend read failed, falling through to store", "key", email, "error", err)
	} else if hit {
		var snap *Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			c.logger.Warn("cache entry corrupt, discarding", "key", email, "error", err)
			if err := c.backend.Delete(ctx, email); err != nil {
				c.logger.Warn("cache delete failed", "key", email, "error", err)
			}
		} else {
			if snap == nil {
				// cached negative result
				return nil, ErrUserNotFound
			}
			return snap, nil
		}
	}

	result, err, _ := c.group.Do(email, func() (any, error) {
		return c.load(ctx, email)
	})
	if err != nil {
		return nil, err
	}

	return result.(*Snapshot), nil
}

// load performs the single backing-store fetch for a missed key and
// writes the result back to the backend.
func (c *Cache) load(ctx context.Context, email string) (*Snapshot, error) {
	user, err := c.store.FindByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) || HasTextCode(err, TextCodeUserNotFound) {
			if c.cacheNegative {
				if err := c.backend.Set(ctx, email, []byte("null"), c.ttl); err != nil {
					c.logger.Warn("cache negative write failed", "key", email, "error", err)
				}
			}
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "identity cache load failed").
			WithTextCode(TextCodeCacheLoadFailed).
			WithCode(goerrors.CodeInternal)
	}

	snap := user.Snapshot()
	if err := c.Put(ctx, email, snap, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", email, "error", err)
	}

	return snap, nil
}

// Put stores a snapshot wholesale under the key. Existing entries are
// replaced, never patched.
func (c *Cache) Put(ctx context.Context, email string, snap *Snapshot, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize snapshot")
	}

	return c.backend.Set(ctx, email, raw, ttl)
}

// Invalidate drops the entry for the key so the next Get reloads.
func (c *Cache) Invalidate(ctx context.Context, email string) error {
	return c.backend.Delete(ctx, email)
}
