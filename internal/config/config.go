package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Logging  LoggingConfig
	Economy  EconomyConfig
	Jobs     JobsConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	CORSOrigins     []string
	Environment     string
	RateLimitRPS    int
	RateLimitBurst  int
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BCryptCost         int
}

// RedisConfig contains Redis configuration. Redis is only used for the
// distribution lock; when disabled an in-process lock is used instead.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	LockTTL  time.Duration
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// EconomyConfig holds the token economy parameters
type EconomyConfig struct {
	// TokensCost is charged when an NFT is minted and contributed to the pool
	// when it is burned.
	TokensCost                int64
	TargetTokens              int64
	CharityPercentage         int
	TopContributorsPercentage int
	MaxTopContributors        int
	Charities                 []string
	DistributionInterval      time.Duration
	TrialDuration             time.Duration
	PremiumPeriod             time.Duration
	PendingTimeout            time.Duration
	MaxPayoutAttempts         int
	MaxEvolutionLevel         int
	Rewards                   map[string]int64
}

// JobsConfig contains cron specs for background jobs
type JobsConfig struct {
	Enabled              bool
	DistributionSchedule string
	ReconcileSchedule    string
	SweepSchedule        string
	Timeout              time.Duration
}

// DefaultEconomy returns the stock economy parameters
func DefaultEconomy() EconomyConfig {
	return EconomyConfig{
		TokensCost:                350,
		TargetTokens:              10000,
		CharityPercentage:         15,
		TopContributorsPercentage: 85,
		MaxTopContributors:        10,
		Charities:                 []string{"MoodLync Mental Health Fund"},
		DistributionInterval:      7 * 24 * time.Hour,
		TrialDuration:             7 * 24 * time.Hour,
		PremiumPeriod:             30 * 24 * time.Hour,
		PendingTimeout:            15 * time.Minute,
		MaxPayoutAttempts:         5,
		MaxEvolutionLevel:         10,
		Rewards: map[string]int64{
			"daily_login":        10,
			"mood_entry":         5,
			"challenge_complete": 50,
			"referral":           100,
			"video_upload":       25,
		},
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	econ := DefaultEconomy()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			CORSOrigins:     getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
			Environment:     getEnv("ENVIRONMENT", "development"),
			RateLimitRPS:    getEnvAsInt("RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 200),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "moodlync"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./moodlync.db"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			AccessTokenExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
			BCryptCost:         getEnvAsInt("BCRYPT_COST", 12),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			LockTTL:  getEnvAsDuration("REDIS_LOCK_TTL", 2*time.Minute),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", ""),
		},
		Economy: EconomyConfig{
			TokensCost:                getEnvAsInt64("NFT_TOKENS_COST", econ.TokensCost),
			TargetTokens:              getEnvAsInt64("POOL_TARGET_TOKENS", econ.TargetTokens),
			CharityPercentage:         getEnvAsInt("POOL_CHARITY_PERCENTAGE", econ.CharityPercentage),
			TopContributorsPercentage: getEnvAsInt("POOL_TOP_CONTRIBUTORS_PERCENTAGE", econ.TopContributorsPercentage),
			MaxTopContributors:        getEnvAsInt("POOL_MAX_TOP_CONTRIBUTORS", econ.MaxTopContributors),
			Charities:                 getEnvAsSlice("POOL_CHARITIES", econ.Charities),
			DistributionInterval:      getEnvAsDuration("POOL_DISTRIBUTION_INTERVAL", econ.DistributionInterval),
			TrialDuration:             getEnvAsDuration("TRIAL_DURATION", econ.TrialDuration),
			PremiumPeriod:             getEnvAsDuration("PREMIUM_PERIOD", econ.PremiumPeriod),
			PendingTimeout:            getEnvAsDuration("PENDING_TIMEOUT", econ.PendingTimeout),
			MaxPayoutAttempts:         getEnvAsInt("POOL_MAX_PAYOUT_ATTEMPTS", econ.MaxPayoutAttempts),
			MaxEvolutionLevel:         getEnvAsInt("NFT_MAX_EVOLUTION_LEVEL", econ.MaxEvolutionLevel),
			Rewards:                   getEnvAsRewardMap("REWARD_SCHEDULE", econ.Rewards),
		},
		Jobs: JobsConfig{
			Enabled:              getEnvAsBool("JOBS_ENABLED", true),
			DistributionSchedule: getEnv("JOB_DISTRIBUTION_SCHEDULE", "*/5 * * * *"),
			ReconcileSchedule:    getEnv("JOB_RECONCILE_SCHEDULE", "0 3 * * *"),
			SweepSchedule:        getEnv("JOB_SWEEP_SCHEDULE", "*/10 * * * *"),
			Timeout:              getEnvAsDuration("JOB_TIMEOUT", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		c.Auth.JWTSecret = "moodlync-dev-secret"
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if err := c.Economy.Validate(); err != nil {
		return err
	}

	if c.Jobs.Enabled {
		for name, spec := range map[string]string{
			"JOB_DISTRIBUTION_SCHEDULE": c.Jobs.DistributionSchedule,
			"JOB_RECONCILE_SCHEDULE":    c.Jobs.ReconcileSchedule,
			"JOB_SWEEP_SCHEDULE":        c.Jobs.SweepSchedule,
		} {
			if _, err := cron.ParseStandard(spec); err != nil {
				return fmt.Errorf("invalid %s %q: %w", name, spec, err)
			}
		}
	}

	return nil
}

// Validate checks the economy parameters
func (e EconomyConfig) Validate() error {
	if e.TokensCost <= 0 {
		return fmt.Errorf("NFT_TOKENS_COST must be positive, got %d", e.TokensCost)
	}
	if e.TargetTokens <= 0 {
		return fmt.Errorf("POOL_TARGET_TOKENS must be positive, got %d", e.TargetTokens)
	}
	if e.CharityPercentage < 0 || e.TopContributorsPercentage < 0 ||
		e.CharityPercentage+e.TopContributorsPercentage != 100 {
		return fmt.Errorf("pool percentages must be non-negative and sum to 100, got %d+%d",
			e.CharityPercentage, e.TopContributorsPercentage)
	}
	if e.MaxTopContributors < 1 {
		return fmt.Errorf("POOL_MAX_TOP_CONTRIBUTORS must be at least 1")
	}
	if len(e.Charities) == 0 {
		return fmt.Errorf("POOL_CHARITIES must name at least one charity")
	}
	if e.PendingTimeout <= 0 {
		return fmt.Errorf("PENDING_TIMEOUT must be positive")
	}
	if e.MaxEvolutionLevel < 1 {
		return fmt.Errorf("NFT_MAX_EVOLUTION_LEVEL must be at least 1")
	}
	for activity, amount := range e.Rewards {
		if amount <= 0 {
			return fmt.Errorf("reward for %s must be positive, got %d", activity, amount)
		}
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvAsRewardMap parses "daily_login:10,mood_entry:5". Entries override the
// defaults one by one; malformed entries are ignored.
func getEnvAsRewardMap(key string, defaultValue map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(defaultValue))
	for k, v := range defaultValue {
		out[k] = v
	}

	valueStr := os.Getenv(key)
	if valueStr == "" {
		return out
	}
	for _, part := range strings.Split(valueStr, ",") {
		name, amount, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(name)] = n
	}
	return out
}
