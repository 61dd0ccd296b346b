package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Cron   CronConfig   `mapstructure:"cron"`

	Sources       SourcesConfig       `mapstructure:"sources"`
	Ingest        IngestConfig        `mapstructure:"ingest"`
	WalletSignals WalletSignalsConfig `mapstructure:"wallet_signals"`
	Feed          FeedConfig          `mapstructure:"feed"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
}

type CronConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	SourceSync  string `mapstructure:"source_sync"`
	ExpirySweep string `mapstructure:"expiry_sweep"`
}

type SourcesConfig struct {
	SupportedChains []string `mapstructure:"supported_chains"`

	DeFiLlama SourceConfig `mapstructure:"defillama"`
	Galxe     SourceConfig `mapstructure:"galxe"`
	Admin     SourceConfig `mapstructure:"admin"`
}

type SourceConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
}

type IngestConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	MinTVLUSD    float64       `mapstructure:"min_tvl_usd"`
}

type WalletSignalsConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type FeedConfig struct {
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.source_sync", "@every 30m")
	v.SetDefault("cron.expiry_sweep", "@every 10m")

	v.SetDefault("sources.supported_chains", []string{"ethereum", "arbitrum", "base", "optimism", "polygon"})

	v.SetDefault("sources.defillama.enabled", true)
	v.SetDefault("sources.defillama.base_url", "https://yields.llama.fi")
	v.SetDefault("sources.defillama.timeout", "15s")
	v.SetDefault("sources.defillama.cache_ttl", "30m")
	v.SetDefault("sources.defillama.rate_per_sec", 2)

	v.SetDefault("sources.galxe.enabled", true)
	v.SetDefault("sources.galxe.base_url", "https://graphigo.prd.galaxy.eco")
	v.SetDefault("sources.galxe.timeout", "15s")
	v.SetDefault("sources.galxe.cache_ttl", "30m")
	v.SetDefault("sources.galxe.rate_per_sec", 2)

	v.SetDefault("sources.admin.enabled", false)
	v.SetDefault("sources.admin.base_url", "")
	v.SetDefault("sources.admin.timeout", "10s")
	v.SetDefault("sources.admin.cache_ttl", "30m")
	v.SetDefault("sources.admin.rate_per_sec", 5)

	v.SetDefault("ingest.fetch_timeout", "20s")
	v.SetDefault("ingest.min_tvl_usd", 100000)

	v.SetDefault("wallet_signals.base_url", "")
	v.SetDefault("wallet_signals.timeout", "10s")
	v.SetDefault("wallet_signals.cache_ttl", "5m")

	v.SetDefault("feed.page_size", 20)
	v.SetDefault("feed.max_page_size", 100)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
