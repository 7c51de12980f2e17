// Package sharding assigns tenants to storage shards and owns the
// per-shard connection pools.
//
// Routing is a pure function of the tenant identifier: a tenant never
// changes shard while the shard count is fixed, and the assignment is
// recomputed identically on every process restart. There is no persisted
// tenant-to-shard mapping and no rebalancing.
package sharding

import "hash/fnv"

// ShardOf maps a tenant identifier to a shard index in [0, shardCount).
// Deterministic and uniform: FNV-1a over the identifier bytes, reduced
// modulo the shard count. Every routing decision in the service goes
// through this function.
func ShardOf(tenantID string, shardCount int) int {
	if shardCount < 1 {
		panic("sharding: shard count must be at least 1")
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(tenantID))
	return int(h.Sum64() % uint64(shardCount))
}
