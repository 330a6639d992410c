package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"pointledger/internal/auth"
	"pointledger/internal/config"
	"pointledger/internal/infrastructure/database"
	"pointledger/internal/service"
	"pointledger/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// seed migrates the schema and credits the opening balances listed under
// seed.accounts. Every credit goes through AdminAdjust, so the ledger and the
// cached balances stay consistent. Running it twice credits twice.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	printToken := flag.Bool("print-admin-token", false, "print a dev access token for seed.admin_id")
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

	if cfg.Seed.AdminID <= 0 {
		log.Fatal().Msg("seed.admin_id must be set")
	}

	cfg.Database.AutoMigrate = true
	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer database.Close(db)

	ledger := service.NewLedgerService(db, nil, cfg)
	ctx := context.Background()

	credited := 0
	for _, acc := range cfg.Seed.Accounts {
		if acc.Balance == 0 {
			continue
		}
		desc := acc.Description
		if desc == "" {
			desc = "opening balance"
		}
		trans, err := ledger.AdminAdjust(ctx, acc.UserID, acc.Balance, cfg.Seed.AdminID, desc)
		if err != nil {
			log.Error().Err(err).Int64("user_id", acc.UserID).Msg("seed account")
			continue
		}
		credited++
		log.Info().
			Int64("user_id", acc.UserID).
			Int64("balance", trans.BalanceAfter).
			Str("transaction_no", trans.TransactionNo).
			Msg("seeded")
	}
	log.Info().Int("accounts", credited).Msg("seed finished")

	if *printToken {
		if cfg.Auth.JWTSecret == "" {
			log.Fatal().Msg("auth.jwt_secret is required to print a token")
		}
		tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TTL())
		tok, err := tokens.Issue(auth.Identity{UserID: cfg.Seed.AdminID, Role: auth.RoleAdmin})
		if err != nil {
			log.Fatal().Err(err).Msg("issue token")
		}
		fmt.Println(tok)
	}
}
