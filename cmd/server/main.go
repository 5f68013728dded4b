package main // Entry point package

import (
	"context"
	"math/rand"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/spin-wheel-redemption/internal/config"
	"github.com/iliyamo/spin-wheel-redemption/internal/database"
	"github.com/iliyamo/spin-wheel-redemption/internal/handler"
	"github.com/iliyamo/spin-wheel-redemption/internal/middleware"
	"github.com/iliyamo/spin-wheel-redemption/internal/prize"
	"github.com/iliyamo/spin-wheel-redemption/internal/queue"
	"github.com/iliyamo/spin-wheel-redemption/internal/repository"
	"github.com/iliyamo/spin-wheel-redemption/internal/router"
	"github.com/iliyamo/spin-wheel-redemption/internal/service"
	"github.com/iliyamo/spin-wheel-redemption/pkg/logger"
)

func main() {
	_ = godotenv.Load() // local .env is optional; real deployments set env directly

	cfg := config.Load()
	logger.Init(cfg.Env != "prod")

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("ensure schema")
	}
	cancel()

	codes := repository.NewCodeRepo(db)
	attempts := repository.NewAttemptRepo(db)
	spins := repository.NewSpinRepo(db)

	wheel := prize.NewWheel(prize.DefaultSegments, rand.New(rand.NewSource(time.Now().UnixNano())))

	redeemer := &service.Redeemer{
		Codes:    codes,
		Attempts: attempts,
		Awards:   spins,
		Wheel:    wheel,
		Salt:     cfg.IPSalt,
		Window:   cfg.AttemptWindow,
		Limit:    cfg.AttemptLimit,
		Publish:  queue.PublishPrizeAwarded,
	}
	issuer := &service.Issuer{Codes: codes}

	// Background consumer archiving awarded prizes from the broker.  Runs a
	// reconnect loop of its own; a missing broker only costs the archive.
	go queue.StartPrizeConsumer()

	e := echo.New()
	e.HideBanner = true

	guard := middleware.NewTokenBucket(config.LoadRateLimitConfig(), config.NewRedisClient())
	router.RegisterRoutes(e, handler.NewBackend(cfg, issuer, redeemer, spins), guard)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")

	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
