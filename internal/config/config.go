package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds configuration values loaded from env or config file.
type Config struct {
	RPCURL            string
	TokenFactory      string
	PairFactory       string
	Router            string
	PrivateKey        string
	RedisAddr         string
	Port              string
	LogLevel          string
	SlippageBps       uint64
	RatioToleranceBps uint64
	MaxInputBps       uint64
	Deadline          time.Duration
	TxGrace           time.Duration
}

// Load merges config file and environment variables into Config. Every
// key is overridable via the DEXGW_ env prefix (dashes become
// underscores, e.g. DEXGW_RPC_URL).
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEXGW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rpc-url", "http://localhost:8545")
	v.SetDefault("port", "8080")
	v.SetDefault("log-level", "info")
	v.SetDefault("slippage-bps", uint64(100))
	v.SetDefault("ratio-tolerance-bps", uint64(10))
	v.SetDefault("max-input-bps", uint64(9000))
	v.SetDefault("deadline", 15*time.Minute)
	v.SetDefault("tx-grace", 10*time.Second)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc-url"),
		TokenFactory:      v.GetString("token-factory"),
		PairFactory:       v.GetString("pair-factory"),
		Router:            v.GetString("router"),
		PrivateKey:        v.GetString("private-key"),
		RedisAddr:         v.GetString("redis-addr"),
		Port:              v.GetString("port"),
		LogLevel:          v.GetString("log-level"),
		SlippageBps:       v.GetUint64("slippage-bps"),
		RatioToleranceBps: v.GetUint64("ratio-tolerance-bps"),
		MaxInputBps:       v.GetUint64("max-input-bps"),
		Deadline:          v.GetDuration("deadline"),
		TxGrace:           v.GetDuration("tx-grace"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc-url is required")
	}
	if c.SlippageBps > 10000 {
		return fmt.Errorf("slippage-bps must be 0-10000, got %d", c.SlippageBps)
	}
	if c.MaxInputBps == 0 || c.MaxInputBps > 10000 {
		return fmt.Errorf("max-input-bps must be 1-10000, got %d", c.MaxInputBps)
	}
	return nil
}
