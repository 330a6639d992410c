package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pointledger/internal/auth"
	"pointledger/internal/config"
	"pointledger/internal/handler"
	"pointledger/internal/infrastructure/cache"
	"pointledger/internal/infrastructure/database"
	"pointledger/internal/infrastructure/lock"
	"pointledger/internal/infrastructure/mq"
	"pointledger/internal/job"
	"pointledger/internal/service"
	"pointledger/pkg/idgen"
	"pointledger/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	workerID := flag.Int64("worker-id", 1, "snowflake worker id, unique per instance")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.Auth.JWTSecret == "" {
		log.Fatal().Msg("auth.jwt_secret is required (LEDGER_AUTH_JWT_SECRET)")
	}

	if err := idgen.Init(*workerID); err != nil {
		log.Fatal().Err(err).Msg("init id generator")
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer database.Close(db)

	redisClient, err := cache.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer cache.Close(redisClient)

	publisher, err := mq.New(&cfg.Kafka)
	if err != nil {
		log.Fatal().Err(err).Msg("create event publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("close event publisher")
		}
	}()

	locker := lock.New(redisClient, cfg.Business.LockTTL(), cfg.Business.LockRetryInterval(), cfg.Business.LockMaxRetries)
	ledger := service.NewLedgerService(db, locker, cfg)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TTL())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var jobs sync.WaitGroup
	for _, start := range []func(context.Context){
		job.NewOutboxSender(db, publisher, cfg).Start,
		job.NewReconcileJob(db, ledger, cfg).Start,
	} {
		jobs.Add(1)
		go func(start func(context.Context)) {
			defer jobs.Done()
			start(ctx)
		}(start)
	}

	router := handler.SetupRouter(db, ledger, tokens, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	// the deferred closes of the database and publisher must run after the jobs exit
	cancel()
	jobs.Wait()

	log.Info().Msg("server stopped")
}
