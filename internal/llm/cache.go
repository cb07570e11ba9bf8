package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Cache defaults.
const (
	DefaultCacheSize     = 1000
	DefaultCacheTTL      = time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

// CacheConfig bounds the response cache.
type CacheConfig struct {
	MaxSize       int
	TTL           time.Duration
	SweepInterval time.Duration
}

type cacheEntry struct {
	data      []byte
	timestamp time.Time
	ttl       time.Duration
}

func (e cacheEntry) expired(now time.Time) bool {
	return !now.Before(e.timestamp.Add(e.ttl))
}

// ResponseCache holds validated responses keyed by request fingerprint.
// Entries expire after TTL; when full, the oldest-inserted entry is evicted.
type ResponseCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	sweepInterval time.Duration
	stopOnce      sync.Once
	stop          chan struct{}
}

// NewResponseCache creates a cache. Call Start to run the sweeper.
func NewResponseCache(cfg CacheConfig, logger *zap.Logger) (*ResponseCache, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultCacheSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := lru.New[string, cacheEntry](cfg.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("creating response cache: %w", err)
	}

	return &ResponseCache{
		entries:       entries,
		ttl:           cfg.TTL,
		now:           time.Now,
		logger:        logger,
		sweepInterval: cfg.SweepInterval,
		stop:          make(chan struct{}),
	}, nil
}

// Get returns a copy of the cached response. Expired entries are removed and
// reported as absent. Reads do not refresh an entry's position.
func (c *ResponseCache) Get(key string) (*Response, bool) {
	entry, ok := c.entries.Peek(key)
	if !ok {
		return nil, false
	}
	if entry.expired(c.now()) {
		if c.entries.Remove(key) {
			CacheEvictions.WithLabelValues("expired").Inc()
		}
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(entry.data, &resp); err != nil {
		c.logger.Warn("dropping undecodable cache entry", zap.Error(err))
		c.entries.Remove(key)
		return nil, false
	}
	return &resp, true
}

// Set stores a response. Storing an existing key restarts its TTL.
func (c *ResponseCache) Set(key string, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if c.entries.Add(key, cacheEntry{data: data, timestamp: c.now(), ttl: c.ttl}) {
		CacheEvictions.WithLabelValues("capacity").Inc()
	}
	return nil
}

// Sweep removes every expired entry and returns how many were removed.
func (c *ResponseCache) Sweep() int {
	now := c.now()
	removed := 0
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if !ok || !entry.expired(now) {
			continue
		}
		if c.entries.Remove(key) {
			removed++
		}
	}
	if removed > 0 {
		CacheEvictions.WithLabelValues("expired").Add(float64(removed))
		c.logger.Debug("swept expired cache entries", zap.Int("removed", removed))
	}
	return removed
}

// Len reports the number of stored entries, expired or not.
func (c *ResponseCache) Len() int {
	return c.entries.Len()
}

// Start runs the periodic sweeper until Close.
func (c *ResponseCache) Start() {
	go func() {
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-c.stop:
				return
			}
		}
	}()
}

// Close stops the sweeper. It is safe to call more than once, and safe to
// call when Start was never called.
func (c *ResponseCache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// CacheKey fingerprints everything that influences the upstream reply.
func CacheKey(req *Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// WithCache serves repeated requests from c. Only successful responses are
// stored; errors pass through untouched.
func WithCache(c *ResponseCache) Middleware {
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, req *Request) (*Response, error) {
			key, err := CacheKey(req)
			if err != nil {
				return next.Send(ctx, req)
			}
			if resp, ok := c.Get(key); ok {
				CacheHits.Inc()
				return resp, nil
			}
			CacheMisses.Inc()

			resp, err := next.Send(ctx, req)
			if err != nil {
				return nil, err
			}
			if err := c.Set(key, resp); err != nil {
				c.logger.Warn("failed to cache response", zap.Error(err))
			}
			return resp, nil
		})
	}
}
