// README: Redis-backed hot-reloadable loyalty rate.
package loyalty

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateKey = "loyalty:points_per_unit"

// cacheTTL bounds how stale a locally cached rate may be. Operators
// change the rate rarely; a few seconds of staleness is acceptable.
const cacheTTL = 5 * time.Second

// Store reads the points-per-currency-unit setting from Redis so it can
// be changed at runtime without a redeploy. A short-lived local cache
// keeps the hot path off the network.
type Store struct {
	redis *redis.Client
	def   int
	log   *zap.Logger

	mu        sync.Mutex
	cached    int
	fetchedAt time.Time
}

func NewStore(redis *redis.Client, def int, log *zap.Logger) *Store {
	if def <= 0 {
		def = DefaultRate
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{redis: redis, def: def, log: log}
}

// Rate returns the current rate, falling back to the configured default
// when the key is absent or Redis is unreachable.
func (s *Store) Rate(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < cacheTTL {
		return s.cached
	}

	rate := s.def
	val, err := s.redis.Get(ctx, rateKey).Result()
	switch {
	case err == redis.Nil:
		// unset: keep the default
	case err != nil:
		s.log.Warn("loyalty rate fetch failed, using default", zap.Error(err))
	default:
		if n, perr := strconv.Atoi(val); perr == nil && n > 0 {
			rate = n
		}
	}

	s.cached = rate
	s.fetchedAt = time.Now()
	return rate
}

// SetRate writes a new rate; used by the admin surface.
func (s *Store) SetRate(ctx context.Context, rate int) error {
	if err := s.redis.Set(ctx, rateKey, strconv.Itoa(rate), 0).Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cached = rate
	s.fetchedAt = time.Now()
	s.mu.Unlock()
	return nil
}
