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
	"go.uber.org/zap"

	"rumble/internal/config"
	cronrunner "rumble/internal/cron"
	"rumble/internal/db"
	"rumble/internal/handler"
	"rumble/internal/ledger"
	"rumble/internal/logger"
	"rumble/internal/payout"
	gormrepository "rumble/internal/repository/gorm"
	"rumble/internal/service"
	"rumble/internal/solana"
)

func main() {
	cfgPath := os.Getenv("RMB_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("RMB_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		logger.Warn("init default system switches failed", zap.Error(err))
	}

	programID, err := solana.PublicKeyFromBase58(cfg.Ledger.ProgramID)
	if err != nil {
		logger.Fatal("invalid ledger program id", zap.Error(err))
	}
	rpcClient := solana.NewClient(cfg.Ledger.RPCURL, cfg.Ledger.Timeout)
	ledgerReader := &ledger.Reader{
		Client:  rpcClient,
		Program: programID,
		Timeout: cfg.Ledger.ReadTimeout,
		Logger:  logger,
	}

	inference := &payout.Inference{Repo: store, Logger: logger}
	reconciler := &payout.Reconciler{
		Selector:      &payout.Selector{Repo: store},
		Ledger:        ledgerReader,
		Inference:     inference,
		DefaultWindow: cfg.Payouts.DefaultWindow,
		MaxWindow:     cfg.Payouts.MaxWindow,
		Fanout:        cfg.Payouts.Fanout,
		Logger:        logger,
	}

	hintIngest := &service.HintIngestService{
		Repo:   store,
		Ledger: ledgerReader,
		Config: cfg.HintIngest,
		Logger: logger,
		Flags:  settingsSvc,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	payoutHandler := &handler.PayoutHandler{Reconciler: reconciler}
	payoutHandler.Register(engine)
	rumbleHandler := &handler.RumbleHandler{Repo: store}
	rumbleHandler.Register(engine)
	settingsHandler := &handler.SettingsHandler{Repo: store, Settings: settingsSvc}
	settingsHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled && cfg.HintIngest.Enabled {
		_, err := cronRunner.Add(cfg.HintIngest.Schedule, func(ctx context.Context) {
			if err := hintIngest.RunOnceIfEnabled(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("cron hint ingest failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register hint ingest failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
