package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/betledger-sync/internal/domain/fixture"
	"github.com/riskibarqy/betledger-sync/internal/domain/ledger"
)

type fakeFixtureSource struct {
	byLeague map[int][]fixture.Fixture
	errs     map[int]error
	calls    []int
}

func (f *fakeFixtureSource) FetchUpcoming(_ context.Context, leagueID int, _ int) ([]fixture.Fixture, error) {
	f.calls = append(f.calls, leagueID)
	if err := f.errs[leagueID]; err != nil {
		return nil, err
	}
	return f.byLeague[leagueID], nil
}

type fakeScoreSource struct {
	scores map[string]*fixture.ScoreResult
	errs   map[string]error
	calls  []string
}

func (f *fakeScoreSource) FetchScore(_ context.Context, externalID string) (*fixture.ScoreResult, error) {
	f.calls = append(f.calls, externalID)
	if err := f.errs[externalID]; err != nil {
		return nil, err
	}
	return f.scores[externalID], nil
}

type fakeQuotaSource struct {
	remaining int
	err       error
	calls     int
}

func (f *fakeQuotaSource) RemainingCalls(_ context.Context) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.remaining, nil
}

type memSnapshotStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{blobs: make(map[string][]byte)}
}

func (m *memSnapshotStore) Put(_ context.Context, key string, blob []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (m *memSnapshotStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blobs[key], nil
}

// createCall records one accepted or attempted ledger write.
type createCall struct {
	home, away string
	matchTime  int64
	externalID string
}

// scriptLedger is a hand-rolled ledger with injectable failures.
type scriptLedger struct {
	nextID     uint64
	nextIDErr  error
	matches    map[uint64]ledger.Match
	readErrs   map[uint64]error
	createErrs map[string]error
	settleErrs map[uint64]error

	creates []createCall
	settles []uint64
}

func newScriptLedger() *scriptLedger {
	return &scriptLedger{
		nextID:     1,
		matches:    make(map[uint64]ledger.Match),
		readErrs:   make(map[uint64]error),
		createErrs: make(map[string]error),
		settleErrs: make(map[uint64]error),
	}
}

func (l *scriptLedger) add(m ledger.Match) {
	l.matches[m.ID] = m
	if m.ID >= l.nextID {
		l.nextID = m.ID + 1
	}
}

func (l *scriptLedger) NextMatchID(_ context.Context) (uint64, error) {
	if l.nextIDErr != nil {
		return 0, l.nextIDErr
	}
	return l.nextID, nil
}

func (l *scriptLedger) MatchByID(_ context.Context, id uint64) (ledger.Match, error) {
	if err := l.readErrs[id]; err != nil {
		return ledger.Match{}, err
	}
	item, ok := l.matches[id]
	if !ok {
		return ledger.Match{ID: id}, nil
	}
	return item, nil
}

func (l *scriptLedger) CreateMatch(_ context.Context, home, away string, matchTime int64, externalMatchID string) error {
	if err := l.createErrs[externalMatchID]; err != nil {
		return err
	}
	l.creates = append(l.creates, createCall{home: home, away: away, matchTime: matchTime, externalID: externalMatchID})
	l.add(ledger.Match{
		ID:              l.nextID,
		Home:            home,
		Away:            away,
		MatchTime:       matchTime,
		Exists:          true,
		ExternalMatchID: externalMatchID,
	})
	return nil
}

func (l *scriptLedger) SettleMatch(_ context.Context, id uint64, homeScore, awayScore uint8) error {
	if err := l.settleErrs[id]; err != nil {
		return err
	}
	item := l.matches[id]
	if homeScore > awayScore {
		item.Outcome = 1
	} else if awayScore > homeScore {
		item.Outcome = 2
	} else {
		item.Outcome = 3
	}
	l.matches[id] = item
	l.settles = append(l.settles, id)
	return nil
}

func openFixture(externalID string, leagueID int, home, away string, kickoff time.Time) fixture.Fixture {
	return fixture.Fixture{
		ExternalID: externalID,
		LeagueID:   leagueID,
		HomeTeam:   home,
		AwayTeam:   away,
		KickoffAt:  kickoff,
		Status:     fixture.StatusNotStarted,
	}
}

func noSleep(_ context.Context, _ time.Duration) {}
