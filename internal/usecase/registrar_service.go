package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/betledger-sync/internal/domain/ledger"
	"github.com/riskibarqy/betledger-sync/internal/platform/logging"
)

type RegistrarConfig struct {
	// HorizonDays bounds how far ahead fixtures are fetched.
	HorizonDays int
	// CreateCap bounds successful match creations per run. Zero means
	// no cap.
	CreateCap int
	// WriteDelay is the pause after each accepted ledger write, so a
	// burst of creations does not race the transaction pool nonce.
	WriteDelay time.Duration
}

// RegistrationReport summarises one registration pass.
type RegistrationReport struct {
	Leagues         int      `json:"leagues"`
	LeaguesFailed   int      `json:"leagues_failed"`
	FixturesSeen    int      `json:"fixtures_seen"`
	Created         int      `json:"created"`
	SkippedExisting int      `json:"skipped_existing"`
	SkippedNotOpen  int      `json:"skipped_not_open"`
	SkippedByCap    int      `json:"skipped_by_cap"`
	Failed          int      `json:"failed"`
	CreatedIDs      []string `json:"created_ids,omitempty"`
}

// RegistrarService mirrors upcoming provider fixtures onto the ledger.
// Fixtures already present on the ledger, matched by external id, are
// never created twice.
type RegistrarService struct {
	fixtures FixtureSource
	ledger   ledger.Ledger
	cfg      RegistrarConfig
	logger   *logging.Logger
	sleep    func(ctx context.Context, d time.Duration)
}

func NewRegistrarService(fixtures FixtureSource, ldgr ledger.Ledger, cfg RegistrarConfig, logger *logging.Logger) *RegistrarService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HorizonDays < 1 {
		cfg.HorizonDays = 7
	}
	if cfg.CreateCap < 0 {
		cfg.CreateCap = 0
	}

	return &RegistrarService{
		fixtures: fixtures,
		ledger:   ldgr,
		cfg:      cfg,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Run registers unseen open fixtures for the given leagues. A league
// whose fetch fails is logged and skipped; the remaining leagues still
// run. Only ledger-accepted creations count against the cap, and once
// the cap is reached no further leagues are fetched.
func (s *RegistrarService) Run(ctx context.Context, leagueIDs []int) (RegistrationReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Registrar.Run")
	defer span.End()

	report := RegistrationReport{Leagues: len(leagueIDs)}

	known, err := s.knownExternalIDs(ctx)
	if err != nil {
		// The contract rejects duplicate external ids, so a failed
		// pre-scan costs rejected writes, not correctness. The run
		// continues with an empty dedupe set.
		s.logger.WarnContext(ctx, "known-id scan failed, relying on ledger duplicate rejection", "error", err)
		known = make(map[string]struct{})
	}

	capReached := func() bool {
		return s.cfg.CreateCap > 0 && report.Created >= s.cfg.CreateCap
	}

	for _, leagueID := range leagueIDs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if capReached() {
			s.logger.InfoContext(ctx, "creation cap reached, remaining leagues deferred to the next run", "cap", s.cfg.CreateCap)
			break
		}

		fixtures, err := s.fixtures.FetchUpcoming(ctx, leagueID, s.cfg.HorizonDays)
		if err != nil {
			report.LeaguesFailed++
			s.logger.WarnContext(ctx, "skip league after fixture fetch failure", "league_id", leagueID, "error", err)
			continue
		}
		report.FixturesSeen += len(fixtures)

		for _, item := range fixtures {
			if !item.Registrable() {
				report.SkippedNotOpen++
				continue
			}
			if _, ok := known[item.ExternalID]; ok {
				report.SkippedExisting++
				continue
			}
			if capReached() {
				report.SkippedByCap++
				continue
			}

			if err := s.ledger.CreateMatch(ctx, item.HomeTeam, item.AwayTeam, item.KickoffAt.Unix(), item.ExternalID); err != nil {
				report.Failed++
				s.logger.WarnContext(ctx, "create match rejected",
					"league_id", leagueID,
					"external_match_id", item.ExternalID,
					"error", err,
				)
				continue
			}

			known[item.ExternalID] = struct{}{}
			report.Created++
			report.CreatedIDs = append(report.CreatedIDs, item.ExternalID)
			s.logger.InfoContext(ctx, "match registered",
				"league_id", leagueID,
				"external_match_id", item.ExternalID,
				"home", item.HomeTeam,
				"away", item.AwayTeam,
				"kickoff_at", item.KickoffAt,
			)
			s.sleep(ctx, s.cfg.WriteDelay)
		}
	}

	return report, nil
}

// knownExternalIDs walks every assigned ledger id and collects the
// external ids of live matches. Deleted slots do not block
// re-registration.
func (s *RegistrarService) knownExternalIDs(ctx context.Context) (map[string]struct{}, error) {
	next, err := s.ledger.NextMatchID(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, next)
	for id := uint64(1); id < next; id++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		item, err := s.ledger.MatchByID(ctx, id)
		if err != nil {
			// Best effort: the contract still rejects duplicates for
			// ids the scan could not read.
			s.logger.WarnContext(ctx, "read match during known-id scan failed", "match_id", id, "error", err)
			continue
		}
		if item.Exists && !item.Deleted && item.ExternalMatchID != "" {
			known[item.ExternalMatchID] = struct{}{}
		}
	}
	return known, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
