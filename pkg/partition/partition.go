package partition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the partition
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

const (
	// registryKey is the Redis set holding all existing partition names.
	registryKey = "sitecache:partitions"

	// entryPrefix namespaces partition entries in Redis:
	// sitecache:cache:<partition>:<request key>
	entryPrefix = "sitecache:cache:"
)

// Partition is a named cache region holding request identity to response
// snapshot mappings. Partitions are created on first write and destroyed
// only by Drop.
type Partition struct {
	name  string
	redis *redis.Client
}

// Open returns a handle to the named partition. The partition itself is
// materialized on first write.
func Open(redisClient *redis.Client, name string) *Partition {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if name == "" {
		panic("partition name cannot be empty")
	}
	return &Partition{
		name:  name,
		redis: redisClient,
	}
}

// Name returns the partition name.
func (p *Partition) Name() string { return p.name }

func (p *Partition) entryKey(key string) string {
	return entryPrefix + p.name + ":" + key
}

// Get retrieves a snapshot by request key.
// Returns ErrCacheMiss if the key doesn't exist.
func (p *Partition) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := p.redis.Get(ctx, p.entryKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues(p.name).Inc()
	return &entry, nil
}

// Put stores a snapshot, overwriting any previous entry for the same key.
// The partition name is registered on first write. No TTL is applied.
func (p *Partition) Put(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	pipe := p.redis.TxPipeline()
	pipe.SAdd(ctx, registryKey, p.name)
	pipe.Set(ctx, p.entryKey(key), data, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a single snapshot.
func (p *Partition) Delete(ctx context.Context, key string) error {
	if err := p.redis.Del(ctx, p.entryKey(key)).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Len returns the number of snapshots currently held by the partition.
func (p *Partition) Len(ctx context.Context) (int, error) {
	count := 0
	iter := p.redis.Scan(ctx, 0, entryPrefix+p.name+":*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return count, nil
}

// Names enumerates all existing partition names.
func Names(ctx context.Context, redisClient *redis.Client) ([]string, error) {
	names, err := redisClient.SMembers(ctx, registryKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	return names, nil
}

// Drop deletes a whole partition: every snapshot it holds plus its registry
// entry. Dropping a partition that does not exist is not an error.
func Drop(ctx context.Context, redisClient *redis.Client, name string) error {
	var keys []string
	iter := redisClient.Scan(ctx, 0, entryPrefix+name+":*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("drop").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}

	pipe := redisClient.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.SRem(ctx, registryKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		CacheErrors.WithLabelValues("drop").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	PartitionDrops.Inc()
	return nil
}

// DropAll deletes every partition unconditionally. Idempotent: an empty
// cache layer stays empty.
func DropAll(ctx context.Context, redisClient *redis.Client) error {
	names, err := Names(ctx, redisClient)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := Drop(ctx, redisClient, name); err != nil {
			return err
		}
	}
	return nil
}
