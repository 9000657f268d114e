package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sergiovriv/bc-p2/internal/cache"
	"github.com/sergiovriv/bc-p2/internal/config"
	"github.com/sergiovriv/bc-p2/internal/contentstore"
	"github.com/sergiovriv/bc-p2/internal/db"
	"github.com/sergiovriv/bc-p2/internal/handler"
	"github.com/sergiovriv/bc-p2/internal/ledger"
	"github.com/sergiovriv/bc-p2/internal/logger"
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

	log, err := logger.New("explorer", cfg.App, cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// The explorer never prompts; every address must come from config or env.
	contracts, err := config.ResolveContracts(cfg.Contracts, nil)
	if err != nil {
		log.Fatal("contract addresses", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, chainID, err := ledger.Dial(ctx, cfg.Ledger.RPCURL, cfg.Ledger.ChainID)
	if err != nil {
		log.Fatal("ledger dial failed", zap.String("rpc_url", cfg.Ledger.RPCURL), zap.Error(err))
	}
	defer client.Close()

	gateway, err := ledger.NewGateway(client, chainID, contracts, ledger.Participant{})
	if err != nil {
		log.Fatal("ledger gateway", zap.Error(err))
	}

	var gdb *gorm.DB
	var journal *gormrepository.Store
	if cfg.DB.DSN != "" {
		dbConn, err := db.OpenJournal(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal("journal db unavailable", zap.Error(err))
		}
		defer db.Close(dbConn)
		gdb = dbConn.Gorm
		journal = gormrepository.New(dbConn.Gorm)
	}

	var store cache.Store = cache.NewMemoryStore()
	if cfg.Cache.RedisAddr != "" {
		rs := cache.NewRedisStore(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer rs.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rs.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, using in-memory report cache", zap.Error(err))
		} else {
			store = rs
		}
		cancel()
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: gdb, Ledger: gateway}
	healthHandler.Register(engine)
	if journal != nil {
		roundHandler := &handler.RoundHandler{Repo: journal, BetHouse: strings.ToLower(contracts.BetHouse.Hex())}
		roundHandler.Register(engine)
	} else {
		(&handler.RoundHandler{}).Register(engine)
	}
	reportHandler := &handler.ReportHandler{
		Pointers: gateway,
		Content: &contentstore.Gateway{
			BaseURL: cfg.ContentStore.GatewayURL,
			HTTP:    &http.Client{Timeout: 15 * time.Second},
		},
		Cache:  &cache.Content{Store: store, TTL: cfg.Cache.TTL, Prefix: "bethouse:report:", Logger: log},
		Logger: log,
	}
	reportHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("explorer listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("http server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
