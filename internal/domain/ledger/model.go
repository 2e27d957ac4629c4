package ledger

import "time"

// OutcomePending is the only outcome value this worker treats as "not
// yet settled". Any non-zero encoding is owned by the contract.
const OutcomePending uint8 = 0

// Match is the ledger's record of a registered match. The contract
// assigns ids sequentially starting at 1; ExternalMatchID joins the
// record back to the data provider's fixture.
type Match struct {
	ID              uint64
	Home            string
	Away            string
	MatchTime       int64
	Outcome         uint8
	Exists          bool
	Deleted         bool
	ExternalMatchID string
}

// Pending reports whether the match is a valid, unsettled record.
func (m Match) Pending() bool {
	return m.Exists && !m.Deleted && m.Outcome == OutcomePending
}

// SettleableAt reports whether the match's play window has elapsed:
// kickoff plus the grace window is in the past at the given instant.
func (m Match) SettleableAt(now time.Time, grace time.Duration) bool {
	if !m.Pending() {
		return false
	}
	return m.MatchTime+int64(grace/time.Second) <= now.Unix()
}
