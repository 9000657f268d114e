package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	DB           DBConfig           `mapstructure:"db"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Contracts    ContractsConfig    `mapstructure:"contracts"`
	Rounds       RoundsConfig       `mapstructure:"rounds"`
	Betting      BettingConfig      `mapstructure:"betting"`
	PriceFeed    PriceFeedConfig    `mapstructure:"price_feed"`
	ContentStore ContentStoreConfig `mapstructure:"content_store"`
	Schedule     ScheduleConfig     `mapstructure:"schedule"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Audit        AuditConfig        `mapstructure:"audit"`
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
	// Output is a zap sink: stdout, stderr or a file path.
	Output string `mapstructure:"output"`
}

// DBConfig is optional for the oracle; an empty DSN disables the round journal.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type LedgerConfig struct {
	RPCURL          string   `mapstructure:"rpc_url"`
	ChainID         int64    `mapstructure:"chain_id"`
	OwnerKey        string   `mapstructure:"owner_key"`
	ParticipantKeys []string `mapstructure:"participant_keys"`
}

type ContractsConfig struct {
	BetHouse      string `mapstructure:"bet_house"`
	Collateral    string `mapstructure:"collateral"`
	ReportStorage string `mapstructure:"report_storage"`
}

type RoundsConfig struct {
	Count         int           `mapstructure:"count"`
	RoundSeconds  int64         `mapstructure:"round_seconds"`
	WindowSeconds int64         `mapstructure:"window_seconds"`
	TickInterval  time.Duration `mapstructure:"tick_interval"`
}

type BettingConfig struct {
	StakeAmount     string `mapstructure:"stake_amount"`
	HeartbeatAmount string `mapstructure:"heartbeat_amount"`
	BatchPerSide    int    `mapstructure:"batch_per_side"`
	YesPoolSize     int    `mapstructure:"yes_pool_size"`
	Participants    int    `mapstructure:"participants"`
}

type PriceFeedConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	Asset            string        `mapstructure:"asset"`
	Currency         string        `mapstructure:"currency"`
	Timeout          time.Duration `mapstructure:"timeout"`
	SeedFromExternal bool          `mapstructure:"seed_from_external"`
	RandomSeed       uint64        `mapstructure:"random_seed"`
	WalkStart        string        `mapstructure:"walk_start"`
	WalkStep         string        `mapstructure:"walk_step"`
	WalkFloor        string        `mapstructure:"walk_floor"`
	WalkDecimals     int32         `mapstructure:"walk_decimals"`
}

type ContentStoreConfig struct {
	APIURL     string        `mapstructure:"api_url"`
	GatewayURL string        `mapstructure:"gateway_url"`
	ReportDir  string        `mapstructure:"report_dir"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ScheduleConfig runs a session of Rounds.Count rounds on each cron tick when Spec is set.
type ScheduleConfig struct {
	Spec string `mapstructure:"spec"`
}

type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type AuditConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Agent    string        `mapstructure:"agent"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Disabled bool          `mapstructure:"disabled"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ORACLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	// Deployment scripts export these unprefixed.
	_ = v.BindEnv("contracts.bet_house", "ORACLE_CONTRACTS_BET_HOUSE", "BET_HOUSE_ADDRESS")
	_ = v.BindEnv("contracts.collateral", "ORACLE_CONTRACTS_COLLATERAL", "COLLATERAL_ADDRESS")
	_ = v.BindEnv("contracts.report_storage", "ORACLE_CONTRACTS_REPORT_STORAGE", "IPFS_STORAGE_ADDRESS")

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("log.output", "stdout")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("ledger.rpc_url", "http://127.0.0.1:8545")
	v.SetDefault("ledger.chain_id", 0)
	v.SetDefault("ledger.owner_key", "")
	v.SetDefault("ledger.participant_keys", []string{})
	v.SetDefault("contracts.bet_house", "")
	v.SetDefault("contracts.collateral", "")
	v.SetDefault("contracts.report_storage", "")

	v.SetDefault("rounds.count", 20)
	v.SetDefault("rounds.round_seconds", 40)
	v.SetDefault("rounds.window_seconds", 20)
	v.SetDefault("rounds.tick_interval", "1s")

	v.SetDefault("betting.stake_amount", "10")
	v.SetDefault("betting.heartbeat_amount", "1")
	v.SetDefault("betting.batch_per_side", 3)
	v.SetDefault("betting.yes_pool_size", 10)
	v.SetDefault("betting.participants", 20)

	v.SetDefault("price_feed.endpoint", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("price_feed.asset", "bitcoin")
	v.SetDefault("price_feed.currency", "usd")
	v.SetDefault("price_feed.timeout", "5s")
	v.SetDefault("price_feed.seed_from_external", false)
	v.SetDefault("price_feed.random_seed", 0)
	v.SetDefault("price_feed.walk_start", "90000")
	v.SetDefault("price_feed.walk_step", "500")
	v.SetDefault("price_feed.walk_floor", "1000")
	v.SetDefault("price_feed.walk_decimals", 2)

	v.SetDefault("content_store.api_url", "http://127.0.0.1:5001")
	v.SetDefault("content_store.gateway_url", "http://127.0.0.1:8080")
	v.SetDefault("content_store.report_dir", "/round-reports")
	v.SetDefault("content_store.timeout", "0s")

	v.SetDefault("schedule.spec", "")

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("audit.base_url", "")
	v.SetDefault("audit.agent", "bethouse-oracle")
	v.SetDefault("audit.timeout", "5s")
	v.SetDefault("audit.disabled", false)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Ledger.ParticipantKeys = splitKeys(cfg.Ledger.ParticipantKeys)

	return cfg, nil
}

// Validate checks the settings the oracle needs before it touches the ledger.
func (c Config) Validate() error {
	r := c.Rounds
	b := c.Betting
	var errs []error
	if r.Count <= 0 {
		errs = append(errs, errors.New("rounds.count must be positive"))
	}
	if r.RoundSeconds <= 0 {
		errs = append(errs, errors.New("rounds.round_seconds must be positive"))
	}
	if r.WindowSeconds < 0 || r.WindowSeconds > r.RoundSeconds {
		errs = append(errs, fmt.Errorf("rounds.window_seconds must be within [0, %d]", r.RoundSeconds))
	}
	if r.TickInterval <= 0 {
		errs = append(errs, errors.New("rounds.tick_interval must be positive"))
	}
	if b.BatchPerSide <= 0 {
		errs = append(errs, errors.New("betting.batch_per_side must be positive"))
	}
	if b.Participants < 2 {
		errs = append(errs, errors.New("betting.participants must be at least 2"))
	}
	if b.YesPoolSize < 0 || b.YesPoolSize > b.Participants {
		errs = append(errs, fmt.Errorf("betting.yes_pool_size must be within [0, %d]", b.Participants))
	}
	if len(c.Ledger.ParticipantKeys) > 0 && len(c.Ledger.ParticipantKeys) < b.Participants {
		errs = append(errs, fmt.Errorf("ledger.participant_keys has %d keys, need %d", len(c.Ledger.ParticipantKeys), b.Participants))
	}
	for _, amt := range []struct{ name, raw string }{
		{"betting.stake_amount", b.StakeAmount},
		{"betting.heartbeat_amount", b.HeartbeatAmount},
	} {
		d, err := decimal.NewFromString(strings.TrimSpace(amt.raw))
		if err != nil || d.Sign() <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive number, got %q", amt.name, amt.raw))
		}
	}
	if strings.TrimSpace(c.Ledger.RPCURL) == "" {
		errs = append(errs, errors.New("ledger.rpc_url is required"))
	}
	if strings.TrimSpace(c.ContentStore.APIURL) == "" {
		errs = append(errs, errors.New("content_store.api_url is required"))
	}
	return errors.Join(errs...)
}

// splitKeys accepts both a YAML list and a single comma separated env value.
func splitKeys(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
