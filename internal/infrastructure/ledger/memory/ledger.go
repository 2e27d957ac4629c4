// Package memory holds an in-process ledger used by tests and local
// runs. It mirrors the contract's semantics: sequential ids starting at
// one, duplicate external ids rejected, settlement only once.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/betledger-sync/internal/domain/ledger"
	"github.com/riskibarqy/betledger-sync/internal/usecase"
)

type Ledger struct {
	mu         sync.RWMutex
	nextID     uint64
	matches    map[uint64]ledger.Match
	byExternal map[string]uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		nextID:     1,
		matches:    make(map[uint64]ledger.Match),
		byExternal: make(map[string]uint64),
	}
}

func (l *Ledger) NextMatchID(_ context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.nextID, nil
}

func (l *Ledger) MatchByID(_ context.Context, id uint64) (ledger.Match, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	item, ok := l.matches[id]
	if !ok {
		return ledger.Match{ID: id}, nil
	}
	return item, nil
}

func (l *Ledger) CreateMatch(_ context.Context, home, away string, matchTime int64, externalMatchID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byExternal[externalMatchID]; ok {
		return fmt.Errorf("%w: match with external id %s already exists", usecase.ErrWriteRejected, externalMatchID)
	}

	id := l.nextID
	l.nextID++
	l.matches[id] = ledger.Match{
		ID:              id,
		Home:            home,
		Away:            away,
		MatchTime:       matchTime,
		Outcome:         ledger.OutcomePending,
		Exists:          true,
		ExternalMatchID: externalMatchID,
	}
	l.byExternal[externalMatchID] = id
	return nil
}

func (l *Ledger) SettleMatch(_ context.Context, id uint64, homeScore, awayScore uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.matches[id]
	if !ok || !item.Exists || item.Deleted {
		return fmt.Errorf("%w: match %d does not exist", usecase.ErrWriteRejected, id)
	}
	if item.Outcome != ledger.OutcomePending {
		return fmt.Errorf("%w: match %d already settled", usecase.ErrWriteRejected, id)
	}

	item.Outcome = outcomeFor(homeScore, awayScore)
	l.matches[id] = item
	return nil
}

// MarkDeleted flags a match as removed, matching the contract's soft
// delete. Test helper.
func (l *Ledger) MarkDeleted(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if item, ok := l.matches[id]; ok {
		item.Deleted = true
		l.matches[id] = item
	}
}

func outcomeFor(homeScore, awayScore uint8) uint8 {
	switch {
	case homeScore > awayScore:
		return 1
	case awayScore > homeScore:
		return 2
	default:
		return 3
	}
}
