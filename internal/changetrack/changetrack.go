// Package changetrack detects whether a page's content changed between
// peels. Baselines are keyed by normalized URL and kept in Redis when one
// is configured, falling back to an in-process map otherwise.
package changetrack

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"webpeel/internal/content"
	"webpeel/internal/model"
)

const (
	keyPrefix   = "webpeel:baseline:"
	baselineTTL = 30 * 24 * time.Hour
)

// Fingerprint is the first 16 hex chars of the content's SHA-256.
func Fingerprint(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])[:16]
}

// Tracker stores and compares content fingerprints.
type Tracker struct {
	rdb *redis.Client

	mu  sync.Mutex
	mem map[string]string
}

// New builds a Tracker. redisURL may be empty; the tracker then keeps
// baselines in memory for the life of the process.
func New(redisURL string) *Tracker {
	t := &Tracker{mem: make(map[string]string)}
	if redisURL == "" {
		return t
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("invalid redis url, change tracking falls back to memory")
		return t
	}
	t.rdb = redis.NewClient(opt)
	return t
}

// Check fingerprints body, compares it against the stored baseline for
// the URL, and stores the new fingerprint. The first observation of a URL
// reports FirstSeen with Changed=false.
func (t *Tracker) Check(ctx context.Context, rawURL, body string) model.ChangeTracking {
	fp := Fingerprint(body)
	key := content.NormalizeURL(rawURL)

	prev := t.load(ctx, key)
	t.store(ctx, key, fp)

	return model.ChangeTracking{
		Fingerprint:     fp,
		PrevFingerprint: prev,
		Changed:         prev != "" && prev != fp,
		FirstSeen:       prev == "",
		CheckedAt:       time.Now().UTC().Format(time.RFC3339),
	}
}

func (t *Tracker) load(ctx context.Context, key string) string {
	if t.rdb != nil {
		val, err := t.rdb.Get(ctx, keyPrefix+key).Result()
		if err == nil {
			return val
		}
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("baseline read failed, using memory")
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mem[key]
}

func (t *Tracker) store(ctx context.Context, key, fp string) {
	if t.rdb != nil {
		err := t.rdb.Set(ctx, keyPrefix+key, fp, baselineTTL).Err()
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("key", key).Msg("baseline write failed, using memory")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.mem[key] = fp
}

// Close releases the redis connection if one was opened.
func (t *Tracker) Close() error {
	if t.rdb != nil {
		return t.rdb.Close()
	}
	return nil
}
