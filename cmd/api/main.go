package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bimakw/dex-gateway/internal/config"
	"github.com/bimakw/dex-gateway/internal/domain/services"
	"github.com/bimakw/dex-gateway/internal/infrastructure/dex"
	"github.com/bimakw/dex-gateway/internal/infrastructure/ethereum"
	"github.com/bimakw/dex-gateway/internal/infrastructure/store"
	"github.com/bimakw/dex-gateway/internal/presentation/handlers"
)

const (
	version = "0.1.0"
)

func main() {
	cfg, err := config.Load(os.Getenv("DEXGW_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Ethereum client
	ethClient, err := ethereum.NewClient(cfg.RPCURL)
	if err != nil {
		logger.Fatal("connect to Ethereum", zap.Error(err))
	}
	defer ethClient.Close()
	chainID := ethClient.ChainID()
	logger.Info("connected to Ethereum", zap.String("chainId", chainID.String()))

	// Signing is optional: without a key the service runs read-only and
	// every submitting endpoint fails with a submission error.
	var submitter dex.TxSubmitter
	if cfg.PrivateKey != "" {
		signer, err := ethereum.NewLocalSigner(cfg.PrivateKey, chainID)
		if err != nil {
			logger.Fatal("load signing key", zap.Error(err))
		}
		submitter = ethereum.NewSubmittingClient(ethClient, signer)
		logger.Info("signer loaded", zap.String("account", signer.Address().Hex()))
	} else {
		logger.Warn("no signing key configured, running read-only")
	}

	// Transaction store: Redis when configured, in-memory otherwise.
	var txStore store.TxStore
	if cfg.RedisAddr != "" {
		redisStore, err := store.NewRedisStore(cfg.RedisAddr, "", 0)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory store", zap.Error(err))
			txStore = store.NewMemoryStore()
		} else {
			txStore = redisStore
			logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		txStore = store.NewMemoryStore()
		logger.Info("using in-memory transaction store")
	}

	// Contract clients
	tokenFactory := dex.NewTokenFactory(ethClient, submitter, common.HexToAddress(cfg.TokenFactory))
	pairFactory := dex.NewPairFactory(ethClient, common.HexToAddress(cfg.PairFactory))
	erc20 := dex.NewERC20(ethClient, submitter)
	pair := dex.NewPair(ethClient)
	router := dex.NewRouter(submitter, common.HexToAddress(cfg.Router))

	// Services
	registry := services.NewRegistryService(tokenFactory, erc20, logger)
	pairs := services.NewPairService(pairFactory, pair, logWatcher{ethClient}, logger)
	defer pairs.Close()
	tracker := services.NewTrackerService(txStore, cfg.TxGrace, logger)
	defer tracker.Close()

	orchestrator := services.NewOrchestrator(
		services.OrchestratorConfig{
			ChainID:           chainID.Int64(),
			SlippageBps:       cfg.SlippageBps,
			RatioToleranceBps: cfg.RatioToleranceBps,
			MaxInputBps:       cfg.MaxInputBps,
			Deadline:          cfg.Deadline,
		},
		registry, pairs, pair, erc20, router, tokenFactory, ethClient, tracker, logger,
	)

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := tracker.Load(startupCtx); err != nil {
		logger.Warn("restore transaction records", zap.Error(err))
	}
	tracker.Reconcile(startupCtx, ethClient)
	if _, err := registry.Discover(startupCtx); err != nil {
		logger.Warn("initial token discovery", zap.Error(err))
	}
	cancel()

	// Handlers
	healthHandler := handlers.NewHealthHandler(version, chainID.Int64())
	tokenHandler := handlers.NewTokenHandler(registry, orchestrator)
	pairHandler := handlers.NewPairHandler(pairs)
	quoteHandler := handlers.NewQuoteHandler(pairs, cfg.SlippageBps, cfg.MaxInputBps)
	actionHandler := handlers.NewActionHandler(orchestrator)
	txHandler := handlers.NewTxHandler(tracker)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tokens", tokenHandler.ListTokens)
		r.Post("/tokens", tokenHandler.CreateToken)
		r.Post("/tokens/discover", tokenHandler.Discover)
		r.Get("/pair", pairHandler.GetPair)
		r.Get("/quote", quoteHandler.GetQuote)
		r.Post("/actions/swap", actionHandler.Swap)
		r.Post("/actions/liquidity/add", actionHandler.AddLiquidity)
		r.Post("/actions/liquidity/remove", actionHandler.RemoveLiquidity)
		r.Get("/actions/status", actionHandler.Status)
		r.Get("/transactions", txHandler.ListTransactions)
		r.Delete("/transactions/{hash}", txHandler.ClearTransaction)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting DEX gateway API",
			zap.String("version", version),
			zap.String("port", cfg.Port),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// logWatcher adapts the ethereum client's WatchLogs to the services
// LogWatcher interface; the two LogSubscription interfaces are
// structurally identical but distinct named types.
type logWatcher struct {
	c *ethereum.Client
}

func (w logWatcher) WatchLogs(ctx context.Context, addr common.Address, eventSig string, handler func(types.Log)) (services.LogSubscription, error) {
	return w.c.WatchLogs(ctx, addr, eventSig, handler)
}
