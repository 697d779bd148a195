package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"treasury-monitor/internal/alerting"
	"treasury-monitor/internal/logging"
	"treasury-monitor/internal/responsibility"
)

// Config materialises application configuration.
type Config struct {
	App          AppConfig                 `mapstructure:"app"`
	Logging      logging.Config            `mapstructure:"logging"`
	Fluid        FluidConfig               `mapstructure:"fluid"`
	Solscan      SolscanConfig             `mapstructure:"solscan"`
	Treasury     TreasuryConfig            `mapstructure:"treasury"`
	Rewards      RewardsConfig             `mapstructure:"rewards"`
	Transactions TransactionsConfig        `mapstructure:"transactions"`
	Pricing      PricingConfig             `mapstructure:"pricing"`
	Mappings     responsibility.Tables     `mapstructure:"mappings"`
	Rebalance    alerting.RebalanceOptions `mapstructure:"rebalance"`
	Alerting     AlertingConfig            `mapstructure:"alerting"`
	Export       ExportConfig              `mapstructure:"export"`
	Scheduler    SchedulerConfig           `mapstructure:"scheduler"`
	Telemetry    TelemetryConfig           `mapstructure:"telemetry"`
	Secrets      SecretsConfig             `mapstructure:"secrets"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// FluidConfig covers the vault/lending snapshot API.
type FluidConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SolscanConfig covers the transfer-history API.
type SolscanConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	APIKeyEnv         string        `mapstructure:"api_key_env"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	BalancePageSize   int           `mapstructure:"balance_page_size"`
}

// TreasuryConfig identifies the monitored wallet.
type TreasuryConfig struct {
	Address string `mapstructure:"address"`
}

// RewardsConfig tunes delta reporting.
type RewardsConfig struct {
	NoiseFloor decimal.Decimal     `mapstructure:"noise_floor"`
	Thresholds alerting.Thresholds `mapstructure:"thresholds"`
}

// TransactionsConfig tunes transfer fetching.
type TransactionsConfig struct {
	MinValueUSD   decimal.Decimal `mapstructure:"min_value_usd"`
	MaxPages      int             `mapstructure:"max_pages"`
	PageSize      int             `mapstructure:"page_size"`
	CachePath     string          `mapstructure:"cache_path"`
	StableSymbols []string        `mapstructure:"stable_symbols"`
}

// PricingConfig drives native and balance valuation.
type PricingConfig struct {
	NativeSymbols   []string        `mapstructure:"native_symbols"`
	WrappedNative   string          `mapstructure:"wrapped_native"`
	NativeFallback  decimal.Decimal `mapstructure:"native_fallback"`
	ExcludedSymbols []string        `mapstructure:"excluded_symbols"`
	StableSymbols   []string        `mapstructure:"stable_symbols"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	MinPriority string         `mapstructure:"min_priority"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	Dir         string            `mapstructure:"dir"`
	ObjectStore ObjectStoreConfig `mapstructure:"object_store"`
}

// ObjectStoreConfig points at an S3-compatible bucket for uploads.
type ObjectStoreConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// SchedulerConfig governs the watch cadence.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
	RunOnStart    bool          `mapstructure:"run_on_start"`
}

// TelemetryConfig toggles span export.
type TelemetryConfig struct {
	TraceStdout bool   `mapstructure:"trace_stdout"`
	ServiceName string `mapstructure:"service_name"`
}

// SecretsConfig names secrets held in GCP Secret Manager.
type SecretsConfig struct {
	GCPProject    string `mapstructure:"gcp_project"`
	SolscanAPIKey string `mapstructure:"solscan_api_key"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("TREASURYWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyTableDefaults()
	if cfg.Solscan.APIKey == "" && cfg.Solscan.APIKeyEnv != "" {
		cfg.Solscan.APIKey = strings.TrimSpace(os.Getenv(cfg.Solscan.APIKeyEnv))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "treasurywatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("fluid.base_url", "https://api.solana.fluid.io/v1")
	v.SetDefault("fluid.request_timeout", "30s")

	v.SetDefault("solscan.base_url", "https://pro-api.solscan.io/v2.0")
	v.SetDefault("solscan.api_key_env", "SOLSCAN_API_KEY")
	v.SetDefault("solscan.request_timeout", "30s")
	v.SetDefault("solscan.requests_per_minute", 60)
	v.SetDefault("solscan.balance_page_size", 20)

	v.SetDefault("treasury.address", "Cvnta5ecoiCgNbLEXYm6kvhJMmRv3JM3ksKgTLVPg4hk")

	v.SetDefault("rewards.noise_floor", "100")
	v.SetDefault("rewards.thresholds.vault_supply.high", "300000")
	v.SetDefault("rewards.thresholds.vault_supply.medium", "100000")
	v.SetDefault("rewards.thresholds.vault_borrow.high", "100000")
	v.SetDefault("rewards.thresholds.vault_borrow.medium", "50000")
	v.SetDefault("rewards.thresholds.lending.high", "300000")
	v.SetDefault("rewards.thresholds.lending.medium", "100000")

	v.SetDefault("transactions.min_value_usd", "1000")
	v.SetDefault("transactions.max_pages", 5)
	v.SetDefault("transactions.page_size", 40)
	v.SetDefault("transactions.cache_path", "transaction_cache.json")
	v.SetDefault("transactions.stable_symbols", []string{"USDC", "USDT", "USDS", "USDG", "EURC"})

	v.SetDefault("pricing.native_symbols", []string{"SOL", "WSOL"})
	v.SetDefault("pricing.wrapped_native", "WSOL")
	v.SetDefault("pricing.native_fallback", "150")
	v.SetDefault("pricing.excluded_symbols", []string{"MNDE", "JTO"})
	v.SetDefault("pricing.stable_symbols", []string{"USDC", "USDT", "USDS", "USDG"})

	v.SetDefault("rebalance.native_bucket", "SOL")
	v.SetDefault("rebalance.wrapped_native", "WSOL")
	v.SetDefault("rebalance.borrow_buckets", []string{"USDC", "USDG", "EURC", "SOL"})
	v.SetDefault("rebalance.lending_buckets", []string{"USDC", "USDG", "USDT", "EURC", "USDS"})

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.min_priority", "high")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.request_timeout", "10s")

	v.SetDefault("export.dir", "exports")
	v.SetDefault("export.object_store.enabled", false)
	v.SetDefault("export.object_store.use_ssl", true)
	v.SetDefault("export.object_store.prefix", "treasurywatch/")

	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.run_on_start", true)

	v.SetDefault("telemetry.trace_stdout", false)
	v.SetDefault("telemetry.service_name", "treasurywatch")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			decimalHook(),
		)
	}
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func decimalHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != decimalType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return decimal.NewFromString(strings.TrimSpace(v))
		case float64:
			return decimal.NewFromFloat(v), nil
		case float32:
			return decimal.NewFromFloat32(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		case uint64:
			return decimal.NewFromUint64(v), nil
		}
		return data, nil
	}
}

// applyTableDefaults fills mapping tables the file left empty. A table that
// lists any entry replaces the default wholesale.
func (c *Config) applyTableDefaults() {
	defaults := responsibility.DefaultTables()
	if len(c.Mappings.Vaults) == 0 {
		c.Mappings.Vaults = defaults.Vaults
	}
	if len(c.Mappings.Lending) == 0 {
		c.Mappings.Lending = defaults.Lending
	}
	if len(c.Mappings.Addresses) == 0 {
		c.Mappings.Addresses = defaults.Addresses
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Fluid.RequestTimeout <= 0 {
		return fmt.Errorf("fluid.request_timeout must be greater than zero")
	}
	if c.Solscan.RequestTimeout <= 0 {
		return fmt.Errorf("solscan.request_timeout must be greater than zero")
	}
	if c.Solscan.RequestsPerMinute <= 0 {
		return fmt.Errorf("solscan.requests_per_minute must be greater than zero")
	}
	if c.Transactions.MaxPages <= 0 {
		return fmt.Errorf("transactions.max_pages must be greater than zero")
	}
	if c.Transactions.PageSize <= 0 {
		return fmt.Errorf("transactions.page_size must be greater than zero")
	}
	if c.Transactions.CachePath == "" {
		return fmt.Errorf("transactions.cache_path must be set")
	}
	if c.Transactions.MinValueUSD.IsNegative() {
		return fmt.Errorf("transactions.min_value_usd cannot be negative")
	}
	if c.Rewards.NoiseFloor.IsNegative() {
		return fmt.Errorf("rewards.noise_floor cannot be negative")
	}
	for name, tier := range map[string]alerting.Tier{
		"vault_supply": c.Rewards.Thresholds.VaultSupply,
		"vault_borrow": c.Rewards.Thresholds.VaultBorrow,
		"lending":      c.Rewards.Thresholds.Lending,
	} {
		if tier.High.IsNegative() || tier.Medium.IsNegative() {
			return fmt.Errorf("rewards.thresholds.%s cannot be negative", name)
		}
		if tier.Medium.GreaterThan(tier.High) {
			return fmt.Errorf("rewards.thresholds.%s: medium exceeds high", name)
		}
	}
	if c.Pricing.NativeFallback.IsNegative() {
		return fmt.Errorf("pricing.native_fallback cannot be negative")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}

	if _, err := solana.PublicKeyFromBase58(c.Treasury.Address); err != nil {
		return fmt.Errorf("treasury.address %q: %w", c.Treasury.Address, err)
	}
	for _, tag := range c.Mappings.Addresses {
		if _, err := solana.PublicKeyFromBase58(tag.Address); err != nil {
			return fmt.Errorf("mappings.addresses %q: %w", tag.Address, err)
		}
	}
	if _, err := responsibility.NewResolver(c.Mappings); err != nil {
		return fmt.Errorf("mappings: %w", err)
	}

	if _, err := alerting.ParsePriority(c.Alerting.MinPriority); err != nil {
		return fmt.Errorf("alerting.min_priority: %w", err)
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	if c.Export.ObjectStore.Enabled {
		if c.Export.ObjectStore.Endpoint == "" || c.Export.ObjectStore.Bucket == "" {
			return fmt.Errorf("export.object_store requires endpoint and bucket")
		}
	}
	return nil
}

// Responsibility builds the immutable lookup tables.
func (c *Config) Responsibility() (*responsibility.Resolver, error) {
	return responsibility.NewResolver(c.Mappings)
}

// MinPriority returns the parsed alerting floor.
func (c *Config) MinPriority() alerting.Priority {
	p, err := alerting.ParsePriority(c.Alerting.MinPriority)
	if err != nil {
		return alerting.PriorityHigh
	}
	return p
}
