package main

// Out-of-band repair tool. Runs the backfill + recompute pass from the
// command line, for operators fixing historical data without going through
// the API. The pass is atomic and NOT undoable once committed.
//
// Usage:
//   reconcile                 bulk mode — all facilities, all sessions
//   reconcile <facility-id>   one facility, touched sessions only

import (
	"context"
	"flag"
	"os"
	"time"

	"courtpos/internal/config"
	"courtpos/internal/infra"
	"courtpos/internal/repository"
	"courtpos/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	flag.Parse()

	var facilityID *uuid.UUID
	if flag.NArg() > 0 {
		id, err := uuid.Parse(flag.Arg(0))
		if err != nil {
			log.Fatal().Str("arg", flag.Arg(0)).Msg("expected a facility UUID")
		}
		facilityID = &id
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	registerRepo := repository.NewRegisterRepository(db)
	paymentRepo := repository.NewPaymentSourceRepository(db)
	aggregator := service.NewAggregator(registerRepo)
	svc := service.NewReconcileService(
		registerRepo, paymentRepo, aggregator, rdb,
		time.Duration(cfg.ReconcileLockTTLMinutes)*time.Minute,
	)

	report, err := svc.Reconcile(context.Background(), facilityID)
	if err != nil {
		log.Fatal().Err(err).Msg("reconciliation failed — nothing was committed")
	}

	log.Info().
		Int("movements_created", report.MovementsCreated).
		Int("skipped_no_register", report.SkippedNoRegister).
		Int("sessions_recomputed", report.SessionsRecomputed).
		Msg("reconciliation complete")
}
