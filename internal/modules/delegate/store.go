// README: Delegate availability store backed by Redis.
package delegate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gswash/internal/types"
)

const (
	availableSetKey = "delegates:available"
	heartbeatPrefix = "delegates:%s:heartbeat"
	// heartbeatTTL expires a delegate that stops pinging, so a crashed
	// app does not stay listed as available.
	heartbeatTTL = 2 * time.Minute
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) MarkAvailable(ctx context.Context, id types.ID) error {
	pipe := s.redis.Pipeline()
	pipe.SAdd(ctx, availableSetKey, string(id))
	pipe.Set(ctx, heartbeatKey(id), time.Now().UTC().Format(time.RFC3339), heartbeatTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) MarkUnavailable(ctx context.Context, id types.ID) error {
	pipe := s.redis.Pipeline()
	pipe.SRem(ctx, availableSetKey, string(id))
	pipe.Del(ctx, heartbeatKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

// ListAvailable returns delegates with a live heartbeat; stale members
// are pruned from the set as a side effect.
func (s *Store) ListAvailable(ctx context.Context) ([]types.ID, error) {
	members, err := s.redis.SMembers(ctx, availableSetKey).Result()
	if err != nil {
		return nil, err
	}

	var alive []types.ID
	for _, m := range members {
		_, err := s.redis.Get(ctx, heartbeatKey(types.ID(m))).Result()
		if err == redis.Nil {
			_ = s.redis.SRem(ctx, availableSetKey, m).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		alive = append(alive, types.ID(m))
	}
	return alive, nil
}

func heartbeatKey(id types.ID) string {
	return fmt.Sprintf(heartbeatPrefix, string(id))
}
