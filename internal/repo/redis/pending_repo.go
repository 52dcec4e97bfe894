package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const pendingPrefix = "panel:pending:"

// PendingRepo stores at most one supervisor-add request per requester.
type PendingRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewPendingRepo(client *goredis.Client, ttl time.Duration) *PendingRepo {
	return &PendingRepo{client: client, ttl: ttl}
}

func (r *PendingRepo) Put(ctx context.Context, requesterID, spaceID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Set(ctx, pendingKey(requesterID), strconv.FormatInt(spaceID, 10), r.ttl).Err(); err != nil {
		return fmt.Errorf("set pending request: %w", err)
	}
	return nil
}

func (r *PendingRepo) Take(ctx context.Context, requesterID int64) (int64, bool, error) {
	if r.client == nil {
		return 0, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.GetDel(ctx, pendingKey(requesterID)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("take pending request: %w", err)
	}

	spaceID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse pending request: %w", err)
	}
	return spaceID, true, nil
}

func pendingKey(requesterID int64) string {
	return pendingPrefix + strconv.FormatInt(requesterID, 10)
}
