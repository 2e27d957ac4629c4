package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/betledger-sync/internal/domain/fixture"
)

// FixtureSource lists upcoming fixtures for one league inside a forward
// horizon measured in whole days from now.
type FixtureSource interface {
	FetchUpcoming(ctx context.Context, leagueID int, horizonDays int) ([]fixture.Fixture, error)
}

// ScoreSource resolves the current score and status for a single
// fixture by its provider identifier. A nil result with a nil error
// means the provider has no record of the fixture.
type ScoreSource interface {
	FetchScore(ctx context.Context, externalID string) (*fixture.ScoreResult, error)
}

// QuotaSource reports how many provider calls remain in the current
// billing window.
type QuotaSource interface {
	RemainingCalls(ctx context.Context) (int, error)
}

// SnapshotStore persists small opaque blobs with a TTL, keyed by name.
type SnapshotStore interface {
	Put(ctx context.Context, key string, blob []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}
