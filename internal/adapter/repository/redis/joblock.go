package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobLock implements usecase.JobLocker using Redis. SetNX with a TTL
// guarantees a named job runs on at most one instance cluster-wide;
// the TTL bounds how long a crashed holder can block the next run.
type JobLock struct {
	client *redis.Client
	prefix string
}

// NewJobLock creates a new JobLock.
func NewJobLock(client *redis.Client) *JobLock {
	return &JobLock{
		client: client,
		prefix: "joblock:",
	}
}

// Acquire takes the named lock. Returns false when another instance
// holds it.
func (l *JobLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+name, "locked", ttl).Result()
}

// Release frees the named lock. Releasing a lock that expired or was
// never held is not an error.
func (l *JobLock) Release(ctx context.Context, name string) error {
	return l.client.Del(ctx, l.prefix+name).Err()
}
