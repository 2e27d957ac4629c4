package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/betledger-sync/internal/domain/fixture"
	"github.com/riskibarqy/betledger-sync/internal/domain/ledger"
	"github.com/stretchr/testify/require"
)

func newRunFixture(quota QuotaSource, source *fakeFixtureSource, scores *fakeScoreSource, ldgr ledger.Ledger, cfg RunConfig, store SnapshotStore) *RunService {
	registrar := NewRegistrarService(source, ldgr, RegistrarConfig{}, nil)
	registrar.sleep = noSleep

	settler := NewSettlementService(scores, ldgr, SettlementConfig{}, nil)
	settler.sleep = noSleep

	var snapshots *SnapshotService
	if store != nil {
		snapshots = NewSnapshotService(store, SnapshotConfig{}, nil)
	}

	return NewRunService(quota, registrar, settler, nil, snapshots, cfg, nil)
}

func TestRun_FullCycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC)
	kickoff := now.Add(48 * time.Hour)

	ldgr := newScriptLedger()
	ldgr.add(ledger.Match{ID: 1, Exists: true, MatchTime: now.Add(-5 * time.Hour).Unix(), ExternalMatchID: "900"})

	source := &fakeFixtureSource{byLeague: map[int][]fixture.Fixture{
		39: {openFixture("901", 39, "Arsenal", "Chelsea", kickoff)},
	}}
	scores := &fakeScoreSource{scores: map[string]*fixture.ScoreResult{
		"900": {Status: fixture.StatusFullTime, HomeScore: 2, AwayScore: 0, HasGoals: true},
	}}
	quota := &fakeQuotaSource{remaining: 80}
	store := newMemSnapshotStore()

	svc := newRunFixture(quota, source, scores, ldgr, RunConfig{Leagues: []int{39}, QuotaGuard: true, QuotaFloor: 10}, store)
	svc.now = func() time.Time { return now }

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, RunStateDone, report.State)
	require.NotEmpty(t, report.RunID)
	require.Empty(t, report.SkipReason)
	require.Equal(t, 80, report.QuotaRemaining)
	require.Equal(t, []int{39}, report.Leagues)
	require.Equal(t, 1, report.Registration.Created)
	require.Equal(t, 1, report.Settlement.Settled)

	last, ok := svc.LastReport()
	require.True(t, ok)
	require.Equal(t, report.Registration, last.Registration)

	snapshots := NewSnapshotService(store, SnapshotConfig{}, nil)
	published, ok, err := snapshots.Latest(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, published.Registration.Created)
}

func TestRun_QuotaExhaustedSkipsWithoutError(t *testing.T) {
	t.Parallel()

	source := &fakeFixtureSource{}
	scores := &fakeScoreSource{}
	quota := &fakeQuotaSource{remaining: 2}

	svc := newRunFixture(quota, source, scores, newScriptLedger(), RunConfig{Leagues: []int{39}, QuotaGuard: true, QuotaFloor: 10}, nil)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, "provider quota exhausted", report.SkipReason)
	require.Equal(t, RunStateDone, report.State)
	require.Empty(t, source.calls)
	require.Empty(t, scores.calls)
}

func TestRun_QuotaCheckFailureDoesNotBlockRun(t *testing.T) {
	t.Parallel()

	quota := &fakeQuotaSource{err: errors.New("status endpoint down")}
	source := &fakeFixtureSource{}
	scores := &fakeScoreSource{}

	svc := newRunFixture(quota, source, scores, newScriptLedger(), RunConfig{Leagues: []int{39}, QuotaGuard: true}, nil)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.SkipReason)
	require.Equal(t, []int{39}, source.calls)
}

func TestRun_RejectsOverlappingTrigger(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})

	source := &blockingFixtureSource{started: started, release: release}
	svc := newRunFixture(nil, &fakeFixtureSource{}, &fakeScoreSource{}, newScriptLedger(), RunConfig{Leagues: []int{39}}, nil)
	svc.registrar.fixtures = source

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.Run(context.Background())
	}()

	<-started
	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, ErrRunInProgress)
	require.True(t, svc.Running())

	close(release)
	wg.Wait()
	require.False(t, svc.Running())
}

func TestRun_LedgerReadFailureDoesNotSkipSettlement(t *testing.T) {
	t.Parallel()

	elapsed := time.Now().Add(-6 * time.Hour).Unix()

	ldgr := newScriptLedger()
	ldgr.add(ledger.Match{ID: 1, Exists: true, MatchTime: elapsed, ExternalMatchID: "100"})
	ldgr.add(ledger.Match{ID: 2, Exists: true, MatchTime: elapsed, ExternalMatchID: "101"})
	ldgr.readErrs[1] = errors.New("rpc unavailable")

	scores := &fakeScoreSource{scores: map[string]*fixture.ScoreResult{
		"101": {Status: fixture.StatusFullTime, HomeScore: 1, AwayScore: 0, HasGoals: true},
	}}

	svc := newRunFixture(nil, &fakeFixtureSource{}, scores, ldgr, RunConfig{Leagues: []int{39}}, nil)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, RunStateDone, report.State)
	require.Empty(t, report.Error)
	require.Equal(t, 1, report.Settlement.Settled)
	require.Equal(t, []uint64{2}, ldgr.settles)
}

type blockingFixtureSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingFixtureSource) FetchUpcoming(_ context.Context, _ int, _ int) ([]fixture.Fixture, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil, nil
}
