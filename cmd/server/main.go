package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"seatfinder-backend/lib/serviceutil"
	"seatfinder-backend/lib/sessionstore"
	"seatfinder-backend/lib/telemetry"
	"seatfinder-backend/services/seatfinder"
	"seatfinder-backend/services/seatfinder/server"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", "err", err)
	}

	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(*verbose)
	instrument, err := telemetry.SetupFromEnv(ctx, "seatfinder")
	if err != nil {
		serviceutil.Fatal("init telemetry", err)
	}
	defer instrument.Shutdown(context.Background())
	if *verbose {
		telemetry.InstrumentPerfStats(ctx)
	}

	cfg := seatfinder.ConfigFromEnv()
	slog.InfoContext(ctx, "resolved deployment tier",
		"description", cfg.Description,
		"workers", cfg.Workers,
		"batch_timeout", cfg.BatchTimeout,
	)

	store := sessionstore.FromEnv(ctx, cfg.SessionTTL)
	service := seatfinder.NewService(store, cfg)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	server.New(service).Register(e)

	port := 5000
	if raw := os.Getenv("PORT"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &port); err != nil {
			serviceutil.Fatal("parse PORT", err)
		}
	}

	go func() {
		slog.Info("listening...", "port", port, "storage", service.StorageBackend())
		err := e.Start(fmt.Sprintf("0.0.0.0:%d", port))
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceutil.Fatal(fmt.Sprintf("failed to listen on port %d", port), err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "err", err)
	}
}
