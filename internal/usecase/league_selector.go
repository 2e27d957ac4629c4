package usecase

import "time"

// LeagueSelector decides which configured leagues a run should cover.
// Implementations must be pure so runs stay reproducible for a given
// instant.
type LeagueSelector func(now time.Time, configured []int) []int

// AllLeagues covers every configured league on every run.
func AllLeagues(_ time.Time, configured []int) []int {
	out := make([]int, len(configured))
	copy(out, configured)
	return out
}

// DailyRotation walks the rotation list one league per UTC day. With an
// empty rotation it behaves like AllLeagues.
func DailyRotation(rotation []int) LeagueSelector {
	return func(now time.Time, configured []int) []int {
		if len(rotation) == 0 {
			return AllLeagues(now, configured)
		}
		idx := now.UTC().YearDay() % len(rotation)
		return []int{rotation[idx]}
	}
}
