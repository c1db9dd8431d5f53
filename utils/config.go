package utils

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every knob the orchestration core consumes. All numeric
// knobs have safe defaults; only the endpoint and the source key must be
// supplied.
type Config struct {
	Rpc              string
	SourcePrivateKey string

	BatchSize             int
	Concurrency           int
	PollInterval          time.Duration
	MaxPollAttempts       int
	MaxRetryRounds        int
	BatchPause            time.Duration
	ReturnFractionPercent int64
	GasLimit              uint64
	GasPriceGwei          float64 // 0 means ask the node once per batch
	TargetTPS             int     // 0 means no submission rate limit
}

// LoadConfig reads a JSON config file and applies defaults plus
// BOOMERANG_-prefixed environment overrides (e.g. BOOMERANG_SOURCEPRIVATEKEY).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("boomerang")
	v.AutomaticEnv()

	v.SetDefault("batchSize", 20)
	v.SetDefault("concurrency", 5)
	v.SetDefault("pollIntervalMs", 3000)
	v.SetDefault("maxPollAttempts", 20)
	v.SetDefault("maxRetryRounds", 3)
	v.SetDefault("batchPauseMs", 5000)
	v.SetDefault("returnFractionPercent", 95)
	v.SetDefault("gasLimit", 21000)
	v.SetDefault("gasPriceGwei", 0)
	v.SetDefault("targetTPS", 0)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{
		Rpc:                   v.GetString("rpc"),
		SourcePrivateKey:      v.GetString("sourcePrivateKey"),
		BatchSize:             v.GetInt("batchSize"),
		Concurrency:           v.GetInt("concurrency"),
		PollInterval:          time.Duration(v.GetInt("pollIntervalMs")) * time.Millisecond,
		MaxPollAttempts:       v.GetInt("maxPollAttempts"),
		MaxRetryRounds:        v.GetInt("maxRetryRounds"),
		BatchPause:            time.Duration(v.GetInt("batchPauseMs")) * time.Millisecond,
		ReturnFractionPercent: v.GetInt64("returnFractionPercent"),
		GasLimit:              v.GetUint64("gasLimit"),
		GasPriceGwei:          v.GetFloat64("gasPriceGwei"),
		TargetTPS:             v.GetInt("targetTPS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the core cannot run with.
func (c *Config) Validate() error {
	if c.Rpc == "" {
		return fmt.Errorf("rpc endpoint must be set")
	}
	if c.SourcePrivateKey == "" {
		return fmt.Errorf("sourcePrivateKey must be set")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batchSize must be positive, got %d", c.BatchSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("pollIntervalMs must be positive")
	}
	if c.MaxPollAttempts <= 0 {
		return fmt.Errorf("maxPollAttempts must be positive, got %d", c.MaxPollAttempts)
	}
	if c.MaxRetryRounds <= 0 {
		return fmt.Errorf("maxRetryRounds must be positive, got %d", c.MaxRetryRounds)
	}
	if c.ReturnFractionPercent <= 0 || c.ReturnFractionPercent > 100 {
		return fmt.Errorf("returnFractionPercent must be in (0,100], got %d", c.ReturnFractionPercent)
	}
	if c.GasLimit == 0 {
		return fmt.Errorf("gasLimit must be positive")
	}
	return nil
}
