package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/betledger-sync/internal/domain/fixture"
	"github.com/riskibarqy/betledger-sync/internal/domain/ledger"
)

func newSettlementFixture(t *testing.T, scores *fakeScoreSource, ldgr ledger.Ledger, cfg SettlementConfig, at time.Time) *SettlementService {
	t.Helper()

	svc := NewSettlementService(scores, ldgr, cfg, nil)
	svc.now = func() time.Time { return at }
	svc.sleep = noSleep
	return svc
}

func TestSettlement_SettlesOnlyElapsedPendingMatches(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC)
	old := now.Add(-6 * time.Hour).Unix()

	ldgr := newScriptLedger()
	ldgr.add(ledger.Match{ID: 1, Exists: true, Outcome: 1, MatchTime: old, ExternalMatchID: "100"})
	ldgr.add(ledger.Match{ID: 2, Exists: true, Deleted: true, MatchTime: old, ExternalMatchID: "101"})
	ldgr.add(ledger.Match{ID: 3, Exists: true, MatchTime: now.Add(-30 * time.Minute).Unix(), ExternalMatchID: "102"})
	ldgr.add(ledger.Match{ID: 4, Exists: true, MatchTime: old, ExternalMatchID: "103"})
	ldgr.add(ledger.Match{ID: 5, Exists: true, MatchTime: old, ExternalMatchID: "104"})

	scores := &fakeScoreSource{scores: map[string]*fixture.ScoreResult{
		"103": {Status: fixture.StatusFullTime, HomeScore: 2, AwayScore: 1, HasGoals: true},
		"104": {Status: fixture.StatusPenalties, HomeScore: 3, AwayScore: 3},
	}}

	svc := newSettlementFixture(t, scores, ldgr, SettlementConfig{Grace: 2 * time.Hour}, now)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Scanned != 5 {
		t.Fatalf("expected five ids scanned, got %d", report.Scanned)
	}
	if report.NotPending != 2 {
		t.Fatalf("expected settled and deleted matches skipped, got %d", report.NotPending)
	}
	if report.TooRecent != 1 {
		t.Fatalf("expected one match inside grace window, got %d", report.TooRecent)
	}
	if report.Settled != 2 {
		t.Fatalf("expected two settlements, got %d", report.Settled)
	}

	// Matches that cannot be settled must not cost provider calls.
	if len(scores.calls) != 2 {
		t.Fatalf("expected two score fetches, got %v", scores.calls)
	}
	if len(ldgr.settles) != 2 || ldgr.settles[0] != 4 || ldgr.settles[1] != 5 {
		t.Fatalf("expected ids 4 and 5 settled in order, got %v", ldgr.settles)
	}
}

func TestSettlement_NeverWritesUnfinishedScores(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC)
	old := now.Add(-3 * time.Hour).Unix()

	ldgr := newScriptLedger()
	ldgr.add(ledger.Match{ID: 1, Exists: true, MatchTime: old, ExternalMatchID: "200"})
	ldgr.add(ledger.Match{ID: 2, Exists: true, MatchTime: old, ExternalMatchID: "201"})
	ldgr.add(ledger.Match{ID: 3, Exists: true, MatchTime: old, ExternalMatchID: "202"})
	ldgr.add(ledger.Match{ID: 4, Exists: true, MatchTime: old, ExternalMatchID: "203"})

	scores := &fakeScoreSource{scores: map[string]*fixture.ScoreResult{
		"200": {Status: "2H", HomeScore: 1, AwayScore: 0, HasGoals: true},
		// 201 has no provider record at all.
		"202": {Status: fixture.StatusCancelled},
		// 203 reports full time but the provider lost the goal counts;
		// settling it 0-0 would be fabrication.
		"203": {Status: fixture.StatusFullTime},
	}}

	svc := newSettlementFixture(t, scores, ldgr, SettlementConfig{}, now)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.NotFinished != 3 {
		t.Fatalf("expected three unfinished skips, got %d", report.NotFinished)
	}
	if report.NoRecord != 1 {
		t.Fatalf("expected one missing-record skip, got %d", report.NoRecord)
	}
	if len(ldgr.settles) != 0 {
		t.Fatalf("expected no settlement writes, got %v", ldgr.settles)
	}
}

func TestSettlement_OneBadFixtureDoesNotStopScan(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC)
	old := now.Add(-5 * time.Hour).Unix()

	ldgr := newScriptLedger()
	for id := uint64(1); id <= 5; id++ {
		ldgr.add(ledger.Match{ID: id, Exists: true, MatchTime: old, ExternalMatchID: string(rune('0'+id)) + "00"})
	}
	ldgr.readErrs[2] = errors.New("rpc flake")
	ldgr.settleErrs[4] = errors.New("execution reverted")

	scores := &fakeScoreSource{
		scores: map[string]*fixture.ScoreResult{
			"100": {Status: fixture.StatusFullTime, HomeScore: 1, AwayScore: 0, HasGoals: true},
			"400": {Status: fixture.StatusFullTime, HomeScore: 0, AwayScore: 0, HasGoals: true},
			"500": {Status: fixture.StatusExtraTime, HomeScore: 2, AwayScore: 2},
		},
		errs: map[string]error{"300": errors.New("provider timeout")},
	}

	svc := newSettlementFixture(t, scores, ldgr, SettlementConfig{}, now)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Failed != 3 {
		t.Fatalf("expected three isolated failures, got %d", report.Failed)
	}
	if report.Settled != 2 {
		t.Fatalf("expected two settlements despite failures, got %d", report.Settled)
	}
	if len(ldgr.settles) != 2 || ldgr.settles[0] != 1 || ldgr.settles[1] != 5 {
		t.Fatalf("expected ids 1 and 5 settled, got %v", ldgr.settles)
	}
}

func TestSettlement_GraceBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC)

	ldgr := newScriptLedger()
	// Kickoff exactly grace seconds ago is eligible.
	ldgr.add(ledger.Match{ID: 1, Exists: true, MatchTime: now.Add(-2 * time.Hour).Unix(), ExternalMatchID: "600"})
	// One second inside the window is not.
	ldgr.add(ledger.Match{ID: 2, Exists: true, MatchTime: now.Add(-2*time.Hour + time.Second).Unix(), ExternalMatchID: "601"})

	scores := &fakeScoreSource{scores: map[string]*fixture.ScoreResult{
		"600": {Status: fixture.StatusFullTime, HomeScore: 1, AwayScore: 1, HasGoals: true},
	}}

	svc := newSettlementFixture(t, scores, ldgr, SettlementConfig{Grace: 2 * time.Hour}, now)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Settled != 1 || report.TooRecent != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSettlement_ScanFloorSkipsHistoricIDs(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC)
	old := now.Add(-4 * time.Hour).Unix()

	ldgr := newScriptLedger()
	ldgr.add(ledger.Match{ID: 1, Exists: true, MatchTime: old, ExternalMatchID: "700"})
	ldgr.add(ledger.Match{ID: 2, Exists: true, MatchTime: old, ExternalMatchID: "701"})

	scores := &fakeScoreSource{scores: map[string]*fixture.ScoreResult{
		"701": {Status: fixture.StatusFullTime, HomeScore: 4, AwayScore: 0, HasGoals: true},
	}}

	svc := newSettlementFixture(t, scores, ldgr, SettlementConfig{ScanFloor: 2}, now)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Scanned != 1 || report.Settled != 1 {
		t.Fatalf("expected only id 2 scanned and settled, got %+v", report)
	}
}

func TestSettlement_NextIDFailureSurfaces(t *testing.T) {
	t.Parallel()

	ldgr := newScriptLedger()
	ldgr.nextIDErr = errors.New("rpc unavailable")

	svc := newSettlementFixture(t, &fakeScoreSource{}, ldgr, SettlementConfig{}, time.Now())

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error when the id range cannot be read")
	}
}
