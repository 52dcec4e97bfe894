package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const joinPrefix = "hitrun:join:"

// JoinRepo keeps the join time of members tracked by the hit-and-run policy.
type JoinRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewJoinRepo(client *goredis.Client, ttl time.Duration) *JoinRepo {
	return &JoinRepo{client: client, ttl: ttl}
}

// Put overwrites any previous join record of the pair.
func (r *JoinRepo) Put(ctx context.Context, spaceID, userID int64, joinedAt time.Time) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	value := strconv.FormatInt(joinedAt.UTC().UnixNano(), 10)
	if err := r.client.Set(ctx, joinKey(spaceID, userID), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("set join record: %w", err)
	}
	return nil
}

// Take reads and deletes the join record in one command, so two leave
// events for the same pair cannot both observe it.
func (r *JoinRepo) Take(ctx context.Context, spaceID, userID int64) (time.Time, bool, error) {
	if r.client == nil {
		return time.Time{}, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.GetDel(ctx, joinKey(spaceID, userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("take join record: %w", err)
	}

	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse join record: %w", err)
	}
	return time.Unix(0, nanos).UTC(), true, nil
}

func joinKey(spaceID, userID int64) string {
	return joinPrefix + strconv.FormatInt(spaceID, 10) + ":" + strconv.FormatInt(userID, 10)
}
