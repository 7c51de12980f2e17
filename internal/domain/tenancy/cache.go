package tenancy

import (
	"context"
	"time"
)

// EvaluationCache caches license evaluations so the authorization gate can
// suspend a request before any shard connection is checked out. Entries are
// short-lived; staleness is bounded by the TTL chosen at setup.
//
// Implementations return (nil, nil) on a miss. Cache failures should degrade
// to a miss rather than fail the request.
type EvaluationCache interface {
	Get(ctx context.Context, tenantID string) (*Evaluation, error)
	Set(ctx context.Context, tenantID string, eval *Evaluation, ttl time.Duration) error
	Delete(ctx context.Context, tenantID string) error
	Close() error
}
