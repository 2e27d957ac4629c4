package ledger

import "context"

// Reader exposes the ledger's read surface.
type Reader interface {
	// NextMatchID returns the exclusive upper bound of assigned ids.
	NextMatchID(ctx context.Context) (uint64, error)
	MatchByID(ctx context.Context, id uint64) (Match, error)
}

// Writer exposes the two write transactions this worker ever issues.
type Writer interface {
	CreateMatch(ctx context.Context, home, away string, matchTime int64, externalMatchID string) error
	SettleMatch(ctx context.Context, id uint64, homeScore, awayScore uint8) error
}

// Ledger is the full contract surface the worker consumes.
type Ledger interface {
	Reader
	Writer
}
