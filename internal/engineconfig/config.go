// Package engineconfig loads the venue's configurable booleans and
// optional price/quantity bounds from flags/env/file with viper +
// pflag, the way 0xtitan6-polymarket-mm's internal/config loads its
// YAML-backed settings, and builds a request-rate limiter from
// golang.org/x/time/rate.
package engineconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/rishav/matching-core/internal/marketdata/cache"
	"github.com/rishav/matching-core/internal/phase"
	"github.com/rishav/matching-core/internal/validation"
)

// Config is the venue's full configurable surface.
type Config struct {
	Timezone string `mapstructure:"timezone"`

	PriceTick    string `mapstructure:"price_tick"`
	QuantityTick int64  `mapstructure:"quantity_tick"`
	MinQuantity  int64  `mapstructure:"min_quantity"`
	MaxQuantity  int64  `mapstructure:"max_quantity"`

	EnableCancelOnDisconnect         bool `mapstructure:"enable_cancel_on_disconnect"`
	EnableTradesStreaming            bool `mapstructure:"enable_trades_streaming"`
	ReportTradeVolume                bool `mapstructure:"report_trade_volume"`
	ReportTradeParties               bool `mapstructure:"report_trade_parties"`
	ReportTradeAggressorSide         bool `mapstructure:"report_trade_aggressor_side"`
	SupportMarketDataOrdersExclusion bool `mapstructure:"support_market_data_orders_exclusion"`

	AllowCancelsUnderHalt bool `mapstructure:"allow_cancels_under_halt"`
	LimitedDepthWindow    int  `mapstructure:"limited_depth_window"`

	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	RequestBurst      int     `mapstructure:"request_burst"`
}

// Load reads config from an optional file plus flags/env, with env vars
// prefixed MATCHING_ and "." replaced by "_" in keys, mirroring the
// polymarket bot's POLY_ prefix convention.
func Load(flags *pflag.FlagSet, configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MATCHING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timezone", "UTC")
	v.SetDefault("enable_trades_streaming", true)
	v.SetDefault("report_trade_volume", true)
	v.SetDefault("requests_per_second", 1000.0)
	v.SetDefault("request_burst", 2000)
}

// Location resolves the configured timezone, falling back to UTC on a
// bad name rather than failing startup over a clock-display detail.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validation builds the validator bounds this config implies.
func (c *Config) Validation() (validation.Config, error) {
	out := validation.Config{
		QuantityTick:    c.QuantityTick,
		HasQuantityTick: c.QuantityTick > 0,
		MinQuantity:     c.MinQuantity,
		HasMinQuantity:  c.MinQuantity > 0,
		MaxQuantity:     c.MaxQuantity,
		HasMaxQuantity:  c.MaxQuantity > 0,
	}
	if c.PriceTick != "" {
		tick, err := decimal.NewFromString(c.PriceTick)
		if err != nil {
			return validation.Config{}, fmt.Errorf("price_tick: %w", err)
		}
		out.PriceTick = tick
		out.HasPriceTick = true
	}
	return out, nil
}

// PhaseSettings builds the phase gate settings this config implies.
func (c *Config) PhaseSettings() phase.Settings {
	return phase.Settings{AllowCancelsUnderHalt: c.AllowCancelsUnderHalt}
}

// MarketDataCache builds the cache manager config this config implies.
func (c *Config) MarketDataCache() cache.Config {
	return cache.Config{
		ReportTradeVolume:                c.ReportTradeVolume,
		ReportTradeParties:               c.ReportTradeParties,
		ReportTradeAggressorSide:         c.ReportTradeAggressorSide,
		SupportMarketDataOrdersExclusion: c.SupportMarketDataOrdersExclusion,
		LimitedDepthWindow:               c.LimitedDepthWindow,
	}
}

// NewRequestLimiter builds the inbound request-rate limiter, shared
// across sessions since the engine's single matching loop is the
// actual bottleneck, not any one client.
func (c *Config) NewRequestLimiter() *rate.Limiter {
	rps := c.RequestsPerSecond
	if rps <= 0 {
		rps = 1000
	}
	burst := c.RequestBurst
	if burst <= 0 {
		burst = int(rps) * 2
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
