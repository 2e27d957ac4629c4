package fixture

import (
	"strconv"
	"strings"
	"time"
)

// Provider short status codes, API-Football style.
const (
	StatusNotStarted = "NS"
	StatusFullTime   = "FT"
	StatusExtraTime  = "AET"
	StatusPenalties  = "PEN"
	StatusPostponed  = "PST"
	StatusCancelled  = "CANC"
	StatusAbandoned  = "ABD"
)

// Fixture is one scheduled real-world match as reported by the data
// provider, before it is registered on the ledger.
type Fixture struct {
	ExternalID string
	LeagueID   int
	HomeTeam   string
	AwayTeam   string
	KickoffAt  time.Time
	Status     string
}

// Registrable reports whether the fixture may be turned into a ledger
// match. Only not-started fixtures with both team names are eligible;
// anything else is silently skipped by the registrar.
func (f Fixture) Registrable() bool {
	if NormalizeStatus(f.Status) != StatusNotStarted {
		return false
	}
	if strings.TrimSpace(f.HomeTeam) == "" || strings.TrimSpace(f.AwayTeam) == "" {
		return false
	}
	return strings.TrimSpace(f.ExternalID) != "" && !f.KickoffAt.IsZero()
}

// ScoreResult is the provider's answer for one external match id.
// HasGoals records whether the provider returned both goal counts;
// zero scores with HasGoals false mean missing data, not a 0-0 final.
type ScoreResult struct {
	Status    string
	HomeScore int
	AwayScore int
	HasGoals  bool
}

// Finished reports whether the provider explicitly marked the match
// complete and supplied both final goal counts. Anything less stays
// pending.
func (s ScoreResult) Finished() bool {
	return IsFullTimeStatus(s.Status) && s.HasGoals
}

func NormalizeStatus(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// IsFullTimeStatus reports whether the provider status explicitly marks
// full-time completion. Anything ambiguous must stay not-finished: a
// wrong settlement is an irreversible ledger write.
func IsFullTimeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFullTime, StatusExtraTime, StatusPenalties:
		return true
	default:
		return false
	}
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusPostponed, StatusCancelled, StatusAbandoned:
		return true
	default:
		return false
	}
}

// ParseProviderTime normalizes a provider kickoff value to UTC. Accepts
// RFC3339 variants, the provider's space-separated layout, and a bare
// Unix epoch second count.
func ParseProviderTime(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	if epoch, err := strconv.ParseInt(value, 10, 64); err == nil && epoch > 0 {
		return time.Unix(epoch, 0).UTC(), true
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}
