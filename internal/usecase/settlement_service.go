package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/betledger-sync/internal/domain/fixture"
	"github.com/riskibarqy/betledger-sync/internal/domain/ledger"
	"github.com/riskibarqy/betledger-sync/internal/platform/logging"
)

type SettlementConfig struct {
	// Grace is how long after kickoff a match must wait before a
	// settlement attempt. It covers regular time plus stoppage.
	Grace time.Duration
	// ScanFloor is the lowest ledger id the scan considers. Ids below
	// it are assumed long settled.
	ScanFloor uint64
	// WriteDelay is the pause after each accepted settlement write.
	WriteDelay time.Duration
}

// SettlementReport summarises one settlement pass.
type SettlementReport struct {
	Scanned     int      `json:"scanned"`
	Settled     int      `json:"settled"`
	NotPending  int      `json:"not_pending"`
	TooRecent   int      `json:"too_recent"`
	NoRecord    int      `json:"no_record"`
	NotFinished int      `json:"not_finished"`
	Failed      int      `json:"failed"`
	SettledIDs  []uint64 `json:"settled_ids,omitempty"`
}

// SettlementService walks the ledger's assigned id range and records
// final scores for matches whose fixture has finished. A match is only
// written when the provider reports a completed result; in-play or
// missing fixtures are left for a later run.
type SettlementService struct {
	scores ScoreSource
	ledger ledger.Ledger
	cfg    SettlementConfig
	logger *logging.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration)
}

func NewSettlementService(scores ScoreSource, ldgr ledger.Ledger, cfg SettlementConfig, logger *logging.Logger) *SettlementService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 2 * time.Hour
	}
	if cfg.ScanFloor < 1 {
		cfg.ScanFloor = 1
	}

	return &SettlementService{
		scores: scores,
		ledger: ldgr,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Run scans ids ascending from the floor up to the ledger's next id.
// One bad id never stops the scan.
func (s *SettlementService) Run(ctx context.Context) (SettlementReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Settlement.Run")
	defer span.End()

	var report SettlementReport

	next, err := s.ledger.NextMatchID(ctx)
	if err != nil {
		return report, err
	}

	now := s.now().UTC()
	for id := s.cfg.ScanFloor; id < next; id++ {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Scanned++

		item, err := s.ledger.MatchByID(ctx, id)
		if err != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "read match failed", "match_id", id, "error", err)
			continue
		}
		if !item.Pending() {
			report.NotPending++
			continue
		}
		if !item.SettleableAt(now, s.cfg.Grace) {
			report.TooRecent++
			continue
		}

		score, err := s.scores.FetchScore(ctx, item.ExternalMatchID)
		if err != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "fetch score failed", "match_id", id, "external_match_id", item.ExternalMatchID, "error", err)
			continue
		}
		if score == nil {
			report.NoRecord++
			s.logger.WarnContext(ctx, "provider has no record for match", "match_id", id, "external_match_id", item.ExternalMatchID)
			continue
		}
		if !score.Finished() {
			report.NotFinished++
			if fixture.IsCancelledLikeStatus(score.Status) {
				// The match will never reach full time; it stays
				// pending until an operator resolves the slot.
				s.logger.WarnContext(ctx, "match cancelled upstream",
					"match_id", id,
					"external_match_id", item.ExternalMatchID,
					"status", score.Status,
				)
			}
			continue
		}
		if score.HomeScore < 0 || score.HomeScore > 255 || score.AwayScore < 0 || score.AwayScore > 255 {
			report.Failed++
			s.logger.WarnContext(ctx, "score outside storable range", "match_id", id, "home_score", score.HomeScore, "away_score", score.AwayScore)
			continue
		}

		if err := s.ledger.SettleMatch(ctx, id, uint8(score.HomeScore), uint8(score.AwayScore)); err != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "settle match rejected", "match_id", id, "error", err)
			continue
		}

		report.Settled++
		report.SettledIDs = append(report.SettledIDs, id)
		s.logger.InfoContext(ctx, "match settled",
			"match_id", id,
			"external_match_id", item.ExternalMatchID,
			"home_score", score.HomeScore,
			"away_score", score.AwayScore,
		)
		s.sleep(ctx, s.cfg.WriteDelay)
	}

	return report, nil
}
