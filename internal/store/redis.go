package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// tallyTTL keeps daily scan tallies around long enough for the dashboard to
// read yesterday's numbers, then lets them expire.
const tallyTTL = 48 * time.Hour

func tallyKey(kind string, day time.Time) string {
	return "campus:scans:" + kind + ":" + day.UTC().Format("2006-01-02")
}

// IncrScanTally bumps the daily counter for a scan kind.
func (r *Redis) IncrScanTally(ctx context.Context, kind string, day time.Time) error {
	key := tallyKey(kind, day)
	if err := r.Client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return r.Client.Expire(ctx, key, tallyTTL).Err()
}

// ScanTally reads the daily counter for a scan kind; missing keys read as 0.
func (r *Redis) ScanTally(ctx context.Context, kind string, day time.Time) (int64, error) {
	n, err := r.Client.Get(ctx, tallyKey(kind, day)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
