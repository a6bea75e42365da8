// Package partition provides named response-snapshot caching with Redis
// backend for the interception worker.
//
// The worker owns two versioned partitions: one for same-origin static
// assets, one for cross-origin dynamic assets. Entries have no expiry and
// no size cap; they are overwritten in place on successful revalidation.
// The only eviction mechanism is version-based: during worker activation,
// every partition whose name is not one of the two current versioned names
// is dropped wholesale.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Open the static partition
//	static := partition.Open(redisClient, "elrayan-static-v1")
//
//	// Snapshot a response and store it
//	entry, err := partition.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//	key := partition.Key(resp.Request.URL)
//	if err := static.Put(ctx, key, entry); err != nil {
//		return err
//	}
//
//	// Answer a later request from cache
//	entry, err = static.Get(ctx, key)
//	if err == partition.ErrCacheMiss {
//		// fall through to the network
//	}
//	resp = entry.Response()
//
// # Version-based Eviction
//
//	names, _ := partition.Names(ctx, redisClient)
//	for _, name := range names {
//		if name != currentStatic && name != currentDynamic {
//			partition.Drop(ctx, redisClient, name)
//		}
//	}
package partition
