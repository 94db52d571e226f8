// Copyright 2026 David Meisner. All Rights Reserved.
//
// Created: July 2026
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package distribution

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// Source hydrates a Distribution from somewhere other than a local flat
// file, so a fleet of load generators can share one popularity distribution
// without redistributing it to every host.
type Source interface {
	// FetchEntries returns the CDF-ordered entry set backing a
	// Distribution. Callers pass the result to New.
	FetchEntries(ctx context.Context, key string) ([]Entry, error)
}

// LoggingSource is a no-op demo source: it logs the fetch and returns a
// single-entry distribution. It implements Source without a real Redis
// instance, mirroring the teacher's LoggingRedisEvaler; cmd/cachebash does
// not select it (-distribution_redis always uses RedisSource). Not for
// production use.
type LoggingSource struct{}

func (LoggingSource) FetchEntries(ctx context.Context, key string) ([]Entry, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	fmt.Printf("[distribution-redis-demo] FETCH key=%s\n", key)
	return []Entry{{CDF: 1.0, Size: 1024, Key: "demo"}}, nil
}

// RedisSource is a production-ready Source backed by a Redis sorted set:
// ZADD key <cdf> <size>:<keyname> populates it, FetchEntries reads the set
// back out in score (CDF) order via ZRANGE WITHSCORES. This mirrors the
// teacher's GoRedisEvaler wrapper around github.com/redis/go-redis/v9.
type RedisSource struct {
	client *redis.Client
}

// NewRedisSource constructs a RedisSource connected to addr (e.g.
// "127.0.0.1:6379").
func NewRedisSource(addr string) *RedisSource {
	return &RedisSource{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// FetchEntries reads every member of the sorted set named key, parsing each
// member as "<size>:<keyname>" and using its Redis score as the CDF. The
// sorted set's own ordering guarantee (by score) satisfies the
// non-decreasing-CDF precondition Distribution.Sample requires.
func (r *RedisSource) FetchEntries(ctx context.Context, key string) ([]Entry, error) {
	zs, err := r.client.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("distribution: redis ZRANGE %s: %w", key, err)
	}
	if len(zs) == 0 {
		return nil, fmt.Errorf("distribution: redis key %s has no members", key)
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("distribution: redis member %v is not a string", z.Member)
		}
		var size uint32
		var name string
		if n, scanErr := fmt.Sscanf(member, "%d:%s", &size, &name); scanErr != nil || n != 2 {
			return nil, fmt.Errorf("distribution: malformed redis member %q", member)
		}
		entries = append(entries, Entry{CDF: float32(z.Score), Size: size, Key: name})
	}
	return entries, nil
}

// Close releases the underlying Redis connection pool.
func (r *RedisSource) Close() error {
	return r.client.Close()
}
