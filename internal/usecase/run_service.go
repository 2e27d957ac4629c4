package usecase

import (
	"context"
	"sync"
	"time"

	idgen "github.com/riskibarqy/betledger-sync/internal/platform/id"
	"github.com/riskibarqy/betledger-sync/internal/platform/logging"
	"github.com/riskibarqy/betledger-sync/internal/platform/runlock"
)

type RunState string

const (
	RunStateIdle          RunState = "idle"
	RunStateCheckingQuota RunState = "checking_quota"
	RunStateRegistering   RunState = "registering"
	RunStateSettling      RunState = "settling"
	RunStateDone          RunState = "done"
)

type RunConfig struct {
	// Leagues is the full configured league set the selector picks from.
	Leagues []int
	// QuotaGuard enables the pre-run provider quota check.
	QuotaGuard bool
	// QuotaFloor is the minimum remaining calls required to start a
	// run when the guard is on.
	QuotaFloor int
}

// RunReport is the durable record of one sync run.
type RunReport struct {
	RunID          string             `json:"run_id,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	State          RunState           `json:"state"`
	SkipReason     string             `json:"skip_reason,omitempty"`
	QuotaRemaining int                `json:"quota_remaining"`
	Leagues        []int              `json:"leagues"`
	Registration   RegistrationReport `json:"registration"`
	Settlement     SettlementReport   `json:"settlement"`
	Error          string             `json:"error,omitempty"`
}

// RunService drives one full sync cycle: quota check, registration of
// upcoming fixtures, then settlement of elapsed matches. Runs never
// overlap; a trigger that arrives while a run is active is rejected.
type RunService struct {
	quota     QuotaSource
	registrar *RegistrarService
	settler   *SettlementService
	selector  LeagueSelector
	snapshots *SnapshotService
	cfg       RunConfig
	logger    *logging.Logger
	now       func() time.Time
	ids       idgen.Generator

	lock runlock.Lock

	mu   sync.RWMutex
	last *RunReport
}

func NewRunService(
	quota QuotaSource,
	registrar *RegistrarService,
	settler *SettlementService,
	selector LeagueSelector,
	snapshots *SnapshotService,
	cfg RunConfig,
	logger *logging.Logger,
) *RunService {
	if selector == nil {
		selector = AllLeagues
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.QuotaFloor < 1 {
		cfg.QuotaFloor = 1
	}

	return &RunService{
		quota:     quota,
		registrar: registrar,
		settler:   settler,
		selector:  selector,
		snapshots: snapshots,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		ids:       idgen.NewRandomGenerator(),
	}
}

// Run executes one sync cycle. Quota exhaustion is not an error: the
// run is skipped, logged and reported. Registration and settlement
// failures inside the cycle are absorbed into the report; only scan or
// trigger failures surface as errors.
func (s *RunService) Run(ctx context.Context) (RunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Run")
	defer span.End()

	if !s.lock.TryAcquire() {
		s.logger.WarnContext(ctx, "run trigger rejected, previous run still active")
		return RunReport{State: RunStateIdle, SkipReason: "run in progress"}, ErrRunInProgress
	}
	defer s.lock.Release()

	runID, err := s.ids.NewID()
	if err != nil {
		// A run without a correlation id is still worth running.
		s.logger.WarnContext(ctx, "generate run id failed", "error", err)
	}

	report := RunReport{
		RunID:     runID,
		StartedAt: s.now().UTC(),
		State:     RunStateCheckingQuota,
	}

	if s.cfg.QuotaGuard && s.quota != nil {
		remaining, err := s.quota.RemainingCalls(ctx)
		switch {
		case err != nil:
			// Guard failure must not block the run.
			s.logger.WarnContext(ctx, "quota check failed, continuing without guard", "error", err)
		case remaining < s.cfg.QuotaFloor:
			report.QuotaRemaining = remaining
			report.SkipReason = "provider quota exhausted"
			s.logger.WarnContext(ctx, "run skipped, provider quota exhausted", "remaining", remaining, "floor", s.cfg.QuotaFloor)
			return s.finish(ctx, report), nil
		default:
			report.QuotaRemaining = remaining
		}
	}

	report.Leagues = s.selector(report.StartedAt, s.cfg.Leagues)

	report.State = RunStateRegistering
	registration, err := s.registrar.Run(ctx, report.Leagues)
	report.Registration = registration
	if err != nil {
		report.Error = err.Error()
		return s.finish(ctx, report), err
	}

	report.State = RunStateSettling
	settlement, err := s.settler.Run(ctx)
	report.Settlement = settlement
	if err != nil {
		report.Error = err.Error()
		return s.finish(ctx, report), err
	}

	done := s.finish(ctx, report)
	s.logger.InfoContext(ctx, "sync run finished",
		"run_id", done.RunID,
		"leagues", done.Leagues,
		"created", done.Registration.Created,
		"settled", done.Settlement.Settled,
		"duration", done.FinishedAt.Sub(done.StartedAt),
	)
	return done, nil
}

// LastReport returns the most recent run's report, if any run has
// completed since the process started.
func (s *RunService) LastReport() (RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return RunReport{}, false
	}
	return *s.last, true
}

// Running reports whether a run is active right now.
func (s *RunService) Running() bool {
	return s.lock.Held()
}

func (s *RunService) finish(ctx context.Context, report RunReport) RunReport {
	report.State = RunStateDone
	report.FinishedAt = s.now().UTC()

	s.mu.Lock()
	saved := report
	s.last = &saved
	s.mu.Unlock()

	if s.snapshots != nil {
		if err := s.snapshots.Publish(ctx, report); err != nil {
			s.logger.WarnContext(ctx, "publish run snapshot failed", "error", err)
		}
	}
	return report
}
