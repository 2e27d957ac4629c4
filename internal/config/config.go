package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/betledger-sync/internal/platform/logging"
)

// Config stores runtime configuration for the worker.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	APIFootballBaseURL               string
	APIFootballToken                 string
	APIFootballTimeout               time.Duration
	APIFootballMaxRetries            int
	APIFootballCacheTTL              time.Duration
	APIFootballCircuitEnabled        bool
	APIFootballCircuitFailureCount   int
	APIFootballCircuitOpenTimeout    time.Duration
	APIFootballCircuitHalfOpenMaxReq int
	QuotaGuardEnabled                bool
	QuotaFloor                       int

	ChainRPCURL          string
	ChainContractAddress string
	ChainPrivateKey      string
	ChainID              int64
	ChainGasLimit        uint64

	LeagueIDs             []int
	LeagueRotationEnabled bool
	LeagueRotation        []int
	HorizonDays           int
	CreateCapPerRun       int
	SettleGrace           time.Duration
	SettleScanFloor       uint64
	WriteDelay            time.Duration

	RunCron    string
	RunOnStart bool
	RunTimeout time.Duration

	SnapshotEnabled bool
	SnapshotKey     string
	SnapshotTTL     time.Duration
	RedisAddr       string
	RedisUser       string
	RedisPassword   string
	RedisDB         int
	RedisTLS        bool

	InternalJobToken string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled bool
	PprofAddr    string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	apiTimeout, err := time.ParseDuration(getEnv("APIFOOTBALL_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_TIMEOUT: %w", err)
	}
	if apiTimeout <= 0 {
		return Config{}, fmt.Errorf("APIFOOTBALL_TIMEOUT must be > 0")
	}
	apiMaxRetries, err := getEnvAsInt("APIFOOTBALL_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_MAX_RETRIES: %w", err)
	}
	if apiMaxRetries < 0 {
		return Config{}, fmt.Errorf("APIFOOTBALL_MAX_RETRIES must be >= 0")
	}
	apiCacheTTL, err := time.ParseDuration(getEnv("APIFOOTBALL_CACHE_TTL", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_CACHE_TTL: %w", err)
	}
	if apiCacheTTL < 0 {
		return Config{}, fmt.Errorf("APIFOOTBALL_CACHE_TTL must be >= 0")
	}
	apiCircuitEnabled, err := strconv.ParseBool(getEnv("APIFOOTBALL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_CIRCUIT_ENABLED: %w", err)
	}
	apiCircuitFailureCount, err := getEnvAsInt("APIFOOTBALL_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if apiCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("APIFOOTBALL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	apiCircuitOpenTimeout, err := time.ParseDuration(getEnv("APIFOOTBALL_CIRCUIT_OPEN_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if apiCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("APIFOOTBALL_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	apiCircuitHalfOpenMaxReq, err := getEnvAsInt("APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if apiCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	apiToken := strings.TrimSpace(getEnv("APIFOOTBALL_TOKEN", ""))
	if apiToken == "" {
		return Config{}, fmt.Errorf("APIFOOTBALL_TOKEN is required")
	}

	quotaGuardEnabled, err := strconv.ParseBool(getEnv("APIFOOTBALL_QUOTA_GUARD", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_QUOTA_GUARD: %w", err)
	}
	quotaFloor, err := getEnvAsInt("APIFOOTBALL_QUOTA_FLOOR", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse APIFOOTBALL_QUOTA_FLOOR: %w", err)
	}
	if quotaFloor < 1 {
		return Config{}, fmt.Errorf("APIFOOTBALL_QUOTA_FLOOR must be >= 1")
	}

	chainRPCURL := strings.TrimSpace(getEnv("CHAIN_RPC_URL", ""))
	if chainRPCURL == "" {
		return Config{}, fmt.Errorf("CHAIN_RPC_URL is required")
	}
	chainContractAddress := strings.TrimSpace(getEnv("CHAIN_CONTRACT_ADDRESS", ""))
	if chainContractAddress == "" {
		return Config{}, fmt.Errorf("CHAIN_CONTRACT_ADDRESS is required")
	}
	chainPrivateKey := strings.TrimSpace(getEnv("CHAIN_PRIVATE_KEY", ""))
	if chainPrivateKey == "" {
		return Config{}, fmt.Errorf("CHAIN_PRIVATE_KEY is required")
	}
	chainID, err := getEnvAsInt64("CHAIN_ID", 11155111)
	if err != nil {
		return Config{}, fmt.Errorf("parse CHAIN_ID: %w", err)
	}
	if chainID <= 0 {
		return Config{}, fmt.Errorf("CHAIN_ID must be > 0")
	}
	chainGasLimit, err := getEnvAsInt64("CHAIN_GAS_LIMIT", 300000)
	if err != nil {
		return Config{}, fmt.Errorf("parse CHAIN_GAS_LIMIT: %w", err)
	}
	if chainGasLimit < 0 {
		return Config{}, fmt.Errorf("CHAIN_GAS_LIMIT must be >= 0")
	}

	leagueIDs, err := parseIntList(getEnv("LEAGUE_IDS", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUE_IDS: %w", err)
	}
	if len(leagueIDs) == 0 {
		return Config{}, fmt.Errorf("LEAGUE_IDS is required")
	}
	leagueRotationEnabled, err := strconv.ParseBool(getEnv("LEAGUE_ROTATION_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUE_ROTATION_ENABLED: %w", err)
	}
	leagueRotation, err := parseIntList(getEnv("LEAGUE_ROTATION", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEAGUE_ROTATION: %w", err)
	}
	if leagueRotationEnabled && len(leagueRotation) == 0 {
		leagueRotation = leagueIDs
	}

	horizonDays, err := getEnvAsInt("HORIZON_DAYS", 7)
	if err != nil {
		return Config{}, fmt.Errorf("parse HORIZON_DAYS: %w", err)
	}
	if horizonDays < 1 {
		return Config{}, fmt.Errorf("HORIZON_DAYS must be >= 1")
	}
	createCapPerRun, err := getEnvAsInt("CREATE_CAP_PER_RUN", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse CREATE_CAP_PER_RUN: %w", err)
	}
	if createCapPerRun < 0 {
		return Config{}, fmt.Errorf("CREATE_CAP_PER_RUN must be >= 0")
	}
	settleGrace, err := time.ParseDuration(getEnv("SETTLE_GRACE", "2h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SETTLE_GRACE: %w", err)
	}
	if settleGrace <= 0 {
		return Config{}, fmt.Errorf("SETTLE_GRACE must be > 0")
	}
	settleScanFloor, err := getEnvAsInt64("SETTLE_SCAN_FLOOR", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse SETTLE_SCAN_FLOOR: %w", err)
	}
	if settleScanFloor < 1 {
		return Config{}, fmt.Errorf("SETTLE_SCAN_FLOOR must be >= 1")
	}
	writeDelay, err := time.ParseDuration(getEnv("WRITE_DELAY", "2s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WRITE_DELAY: %w", err)
	}
	if writeDelay < 0 {
		return Config{}, fmt.Errorf("WRITE_DELAY must be >= 0")
	}

	runOnStart, err := strconv.ParseBool(getEnv("RUN_ON_START", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RUN_ON_START: %w", err)
	}
	runTimeout, err := time.ParseDuration(getEnv("RUN_TIMEOUT", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RUN_TIMEOUT: %w", err)
	}
	if runTimeout <= 0 {
		return Config{}, fmt.Errorf("RUN_TIMEOUT must be > 0")
	}

	snapshotEnabled, err := strconv.ParseBool(getEnv("SNAPSHOT_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SNAPSHOT_ENABLED: %w", err)
	}
	snapshotTTL, err := time.ParseDuration(getEnv("SNAPSHOT_TTL", "48h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SNAPSHOT_TTL: %w", err)
	}
	if snapshotTTL <= 0 {
		return Config{}, fmt.Errorf("SNAPSHOT_TTL must be > 0")
	}
	redisAddr := strings.TrimSpace(getEnv("REDIS_ADDR", ""))
	if snapshotEnabled && redisAddr == "" {
		return Config{}, fmt.Errorf("REDIS_ADDR is required when SNAPSHOT_ENABLED=true")
	}
	redisDB, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	redisTLS, err := strconv.ParseBool(getEnv("REDIS_TLS", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_TLS: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "betledger-sync-worker"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		APIFootballBaseURL:               strings.TrimSpace(getEnv("APIFOOTBALL_BASE_URL", "https://v3.football.api-sports.io")),
		APIFootballToken:                 apiToken,
		APIFootballTimeout:               apiTimeout,
		APIFootballMaxRetries:            apiMaxRetries,
		APIFootballCacheTTL:              apiCacheTTL,
		APIFootballCircuitEnabled:        apiCircuitEnabled,
		APIFootballCircuitFailureCount:   apiCircuitFailureCount,
		APIFootballCircuitOpenTimeout:    apiCircuitOpenTimeout,
		APIFootballCircuitHalfOpenMaxReq: apiCircuitHalfOpenMaxReq,
		QuotaGuardEnabled:                quotaGuardEnabled,
		QuotaFloor:                       quotaFloor,

		ChainRPCURL:          chainRPCURL,
		ChainContractAddress: chainContractAddress,
		ChainPrivateKey:      chainPrivateKey,
		ChainID:              chainID,
		ChainGasLimit:        uint64(chainGasLimit),

		LeagueIDs:             leagueIDs,
		LeagueRotationEnabled: leagueRotationEnabled,
		LeagueRotation:        leagueRotation,
		HorizonDays:           horizonDays,
		CreateCapPerRun:       createCapPerRun,
		SettleGrace:           settleGrace,
		SettleScanFloor:       uint64(settleScanFloor),
		WriteDelay:            writeDelay,

		RunCron:    strings.TrimSpace(getEnv("RUN_CRON", "0 */6 * * *")),
		RunOnStart: runOnStart,
		RunTimeout: runTimeout,

		SnapshotEnabled: snapshotEnabled,
		SnapshotKey:     strings.TrimSpace(getEnv("SNAPSHOT_KEY", "betledger:sync:last_run")),
		SnapshotTTL:     snapshotTTL,
		RedisAddr:       redisAddr,
		RedisUser:       strings.TrimSpace(getEnv("REDIS_USER", "")),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         redisDB,
		RedisTLS:        redisTLS,

		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if cfg.RunCron == "" {
		return Config{}, fmt.Errorf("RUN_CRON cannot be empty")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsInt64(key string, fallback int64) (int64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseIntList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		value, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("invalid list item %q: %w", item, err)
		}
		if value <= 0 {
			return nil, fmt.Errorf("list item must be > 0, got %q", item)
		}
		out = append(out, value)
	}
	return out, nil
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
