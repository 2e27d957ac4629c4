package usecase

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/betledger-sync/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
)

const defaultSnapshotKey = "betledger:sync:last_run"

type SnapshotConfig struct {
	Key string
	TTL time.Duration
}

// SnapshotService publishes the latest run report to a blob store so
// dashboards can read sync state without querying the chain.
type SnapshotService struct {
	store  SnapshotStore
	cfg    SnapshotConfig
	logger *logging.Logger
}

func NewSnapshotService(store SnapshotStore, cfg SnapshotConfig, logger *logging.Logger) *SnapshotService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Key == "" {
		cfg.Key = defaultSnapshotKey
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 48 * time.Hour
	}

	return &SnapshotService{store: store, cfg: cfg, logger: logger}
}

func (s *SnapshotService) Publish(ctx context.Context, report RunReport) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(report); err != nil {
		return fmt.Errorf("encode run snapshot: %w", err)
	}

	blob := make([]byte, buf.Len())
	copy(blob, buf.B)
	if err := s.store.Put(ctx, s.cfg.Key, blob, s.cfg.TTL); err != nil {
		return fmt.Errorf("publish run snapshot: %w", err)
	}
	return nil
}

// Latest returns the last published report, or false when none exists.
func (s *SnapshotService) Latest(ctx context.Context) (RunReport, bool, error) {
	blob, err := s.store.Get(ctx, s.cfg.Key)
	if err != nil {
		return RunReport{}, false, err
	}
	if len(blob) == 0 {
		return RunReport{}, false, nil
	}

	var report RunReport
	if err := sonic.Unmarshal(blob, &report); err != nil {
		return RunReport{}, false, fmt.Errorf("decode run snapshot: %w", err)
	}
	return report, true, nil
}
