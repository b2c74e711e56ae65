package config

import (
	"testing"
	"time"
)

func TestEconomyConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *EconomyConfig)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(e *EconomyConfig) {},
			wantErr: false,
		},
		{
			name:    "percentages must sum to 100",
			mutate:  func(e *EconomyConfig) { e.CharityPercentage = 20 },
			wantErr: true,
		},
		{
			name:    "tokens cost must be positive",
			mutate:  func(e *EconomyConfig) { e.TokensCost = 0 },
			wantErr: true,
		},
		{
			name:    "at least one charity",
			mutate:  func(e *EconomyConfig) { e.Charities = nil },
			wantErr: true,
		},
		{
			name:    "rewards must be positive",
			mutate:  func(e *EconomyConfig) { e.Rewards["daily_login"] = 0 },
			wantErr: true,
		},
		{
			name:    "pending timeout must be positive",
			mutate:  func(e *EconomyConfig) { e.PendingTimeout = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := DefaultEconomy()
			tt.mutate(&e)
			err := e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("NFT_TOKENS_COST", "400")
	t.Setenv("POOL_CHARITIES", "Fund A, Fund B")
	t.Setenv("REWARD_SCHEDULE", "daily_login:20,bogus")
	t.Setenv("PENDING_TIMEOUT", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Economy.TokensCost != 400 {
		t.Errorf("Economy.TokensCost = %d, want 400", cfg.Economy.TokensCost)
	}
	if len(cfg.Economy.Charities) != 2 || cfg.Economy.Charities[1] != "Fund B" {
		t.Errorf("Economy.Charities = %v, want [Fund A Fund B]", cfg.Economy.Charities)
	}
	if cfg.Economy.Rewards["daily_login"] != 20 {
		t.Errorf("Rewards[daily_login] = %d, want 20", cfg.Economy.Rewards["daily_login"])
	}
	if cfg.Economy.Rewards["mood_entry"] != 5 {
		t.Errorf("Rewards[mood_entry] = %d, want default 5", cfg.Economy.Rewards["mood_entry"])
	}
	if cfg.Economy.PendingTimeout != 30*time.Minute {
		t.Errorf("Economy.PendingTimeout = %v, want 30m", cfg.Economy.PendingTimeout)
	}
	if cfg.Auth.JWTSecret == "" {
		t.Error("Auth.JWTSecret should fall back to a development secret")
	}
}

func TestConfig_Validate_RejectsBadCron(t *testing.T) {
	t.Setenv("JOB_SWEEP_SCHEDULE", "every ten minutes")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid cron spec")
	}
}

func TestConfig_Validate_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error when JWT_SECRET is missing in production")
	}
}
