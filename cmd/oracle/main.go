package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sergiovriv/bc-p2/internal/auditlog"
	"github.com/sergiovriv/bc-p2/internal/config"
	"github.com/sergiovriv/bc-p2/internal/contentstore"
	cronrunner "github.com/sergiovriv/bc-p2/internal/cron"
	"github.com/sergiovriv/bc-p2/internal/db"
	"github.com/sergiovriv/bc-p2/internal/ledger"
	"github.com/sergiovriv/bc-p2/internal/logger"
	"github.com/sergiovriv/bc-p2/internal/oracle"
	"github.com/sergiovriv/bc-p2/internal/pricefeed"
	gormrepository "github.com/sergiovriv/bc-p2/internal/repository/gorm"
)

func main() {
	cfgPath := os.Getenv("ORACLE_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ORACLE_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New("oracle", cfg.App, cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	contracts, err := config.ResolveContracts(cfg.Contracts, config.NewTerminalPrompter())
	if err != nil {
		log.Fatal("contract addresses", zap.Error(err))
	}
	owner, err := cfg.Ledger.Owner()
	if err != nil {
		log.Fatal("owner key", zap.Error(err))
	}
	participants, err := cfg.Ledger.Participants(cfg.Betting.Participants)
	if err != nil {
		log.Fatal("participant keys", zap.Error(err))
	}
	stake, err := ledger.ParseUnits(cfg.Betting.StakeAmount)
	if err != nil {
		log.Fatal("betting.stake_amount", zap.Error(err))
	}
	beat, err := ledger.ParseUnits(cfg.Betting.HeartbeatAmount)
	if err != nil {
		log.Fatal("betting.heartbeat_amount", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, chainID, err := ledger.Dial(ctx, cfg.Ledger.RPCURL, cfg.Ledger.ChainID)
	if err != nil {
		log.Fatal("ledger dial failed", zap.String("rpc_url", cfg.Ledger.RPCURL), zap.Error(err))
	}
	defer client.Close()

	gateway, err := ledger.NewGateway(client, chainID, contracts, owner)
	if err != nil {
		log.Fatal("ledger gateway", zap.Error(err))
	}
	clock := &ledger.Clock{Headers: client}
	log.Info("ledger ready",
		zap.String("chain_id", chainID.String()),
		zap.String("oracle", owner.Address.Hex()),
		zap.String("bet_house", contracts.BetHouse.Hex()),
		zap.String("collateral", contracts.Collateral.Hex()),
		zap.String("report_storage", contracts.ReportStorage.Hex()),
		zap.Int("participants", len(participants)),
	)

	var journal oracle.Journal
	if cfg.DB.DSN != "" {
		dbConn, err := db.OpenJournal(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal("journal db unavailable", zap.Error(err))
		}
		defer db.Close(dbConn)
		journal = gormrepository.New(dbConn.Gorm)
	} else {
		log.Info("round journal disabled (db.dsn empty)")
	}

	var auditClient *auditlog.Client
	if cfg.Audit.BaseURL != "" && !cfg.Audit.Disabled {
		auditClient = &auditlog.Client{BaseURL: cfg.Audit.BaseURL, APIKey: cfg.Audit.APIKey}
	}

	feed := &pricefeed.Feed{
		HTTP:             &http.Client{},
		Logger:           log,
		Endpoint:         cfg.PriceFeed.Endpoint,
		Asset:            cfg.PriceFeed.Asset,
		Currency:         cfg.PriceFeed.Currency,
		Timeout:          cfg.PriceFeed.Timeout,
		Walk:             pricefeed.NewWalk(walkConfig(cfg.PriceFeed), seededRand(cfg.PriceFeed.RandomSeed)),
		SeedFromExternal: cfg.PriceFeed.SeedFromExternal,
	}
	kubo := &contentstore.Kubo{
		BaseURL: cfg.ContentStore.APIURL,
		HTTP:    &http.Client{Timeout: cfg.ContentStore.Timeout},
	}

	runSession := func(ctx context.Context) error {
		session := uuid.NewString()
		slog := log.With(zap.String("session", session))
		sim, err := oracle.NewBettingSimulator(gateway, participants, cfg.Betting.YesPoolSize, stake, cfg.Betting.BatchPerSide, slog)
		if err != nil {
			return err
		}
		orch, err := oracle.New(oracle.Deps{
			Ledger:    gateway,
			Clock:     clock,
			Prices:    feed,
			Store:     kubo,
			Simulator: sim,
			Heartbeat: oracle.NewHeartbeat(gateway, participants, beat, nil, slog),
			Journal:   journal,
			Audit:     auditlog.NewSink(auditClient, cfg.Audit.Agent, session, contracts.BetHouse.Hex(), cfg.Audit.Timeout, slog),
			Logger:    slog,
			SessionID: session,
		}, oracle.Settings{
			RoundSeconds:  cfg.Rounds.RoundSeconds,
			WindowSeconds: cfg.Rounds.WindowSeconds,
			TickInterval:  cfg.Rounds.TickInterval,
			ReportDir:     cfg.ContentStore.ReportDir,
		})
		if err != nil {
			return err
		}
		slog.Info("session started", zap.Int("rounds", cfg.Rounds.Count))
		_, err = orch.Run(ctx, cfg.Rounds.Count)
		return err
	}

	if cfg.Schedule.Spec == "" {
		if err := runSession(ctx); err != nil {
			log.Fatal("session failed", zap.Error(err))
		}
		return
	}

	runner := cronrunner.New(log, ctx)
	if _, err := runner.Add(cfg.Schedule.Spec, func(ctx context.Context) {
		if err := runSession(ctx); err != nil {
			var re *oracle.RoundError
			if errors.As(err, &re) {
				log.Error("scheduled session failed",
					zap.Int("round", re.RoundIndex),
					zap.Uint64("round_id", re.RoundID),
					zap.String("state", re.State.String()),
					zap.Error(re.Err),
				)
				return
			}
			log.Error("scheduled session failed", zap.Error(err))
		}
	}); err != nil {
		log.Fatal("schedule.spec", zap.String("spec", cfg.Schedule.Spec), zap.Error(err))
	}
	runner.Start()
	<-ctx.Done()
	log.Info("shutting down")
	runner.Stop()
}

func walkConfig(cfg config.PriceFeedConfig) pricefeed.WalkConfig {
	out := pricefeed.DefaultWalkConfig()
	if d, err := decimal.NewFromString(cfg.WalkStart); err == nil {
		out.Start = d
	}
	if d, err := decimal.NewFromString(cfg.WalkStep); err == nil {
		out.Step = d
	}
	if d, err := decimal.NewFromString(cfg.WalkFloor); err == nil {
		out.Floor = d
	}
	// Zero rounds to whole units; the config default supplies 2.
	if cfg.WalkDecimals >= 0 {
		out.Decimals = cfg.WalkDecimals
	}
	return out
}

func seededRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(seed, seed))
}
