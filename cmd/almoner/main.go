package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlmonerProjects/almoner"
	"github.com/AlmonerProjects/almoner/api"
	"github.com/AlmonerProjects/almoner/integrations/prometheus"
	"github.com/AlmonerProjects/almoner/internal/config"
	"github.com/AlmonerProjects/almoner/sudoapi"
	"github.com/AlmonerProjects/almoner/sudoapi/flags"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

var (
	confPath = flag.String("config", "./config.toml", "Config path")
	flagPath = flag.String("flags", "./flags.json", "Flag configuration path")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	// .env is optional, deployments usually inject real environment variables.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.WarnContext(ctx, "Couldn't load .env file", slog.Any("err", err))
	}

	if err := config.Load(*confPath); err != nil {
		slog.ErrorContext(ctx, "Couldn't load config", slog.Any("err", err))
		os.Exit(1)
	}
	config.SetFlagsPath(*flagPath)
	if err := config.LoadFlags(ctx); err != nil {
		slog.ErrorContext(ctx, "Couldn't load flags", slog.Any("err", err))
		os.Exit(1)
	}

	slog.SetDefault(slog.New(almoner.GetSlogHandler(config.Common.Debug, os.Stdout)))

	if err := Almoner(ctx); err != nil {
		slog.ErrorContext(ctx, "Server run failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func Almoner(ctx context.Context) error {
	slog.InfoContext(ctx, "Starting Almoner", slog.String("version", almoner.Version))

	base, err := sudoapi.InitializeBaseAPI(ctx)
	if err != nil {
		return err
	}
	defer base.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	base.Start(ctx)
	go prometheus.InitMetrics()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/api", api.New(base).Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", flags.ListenHost.Value(), flags.ListenPort.Value()),
		Handler: r,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "Could not serve", slog.Any("err", err))
			cancel()
		}
	}()

	slog.InfoContext(ctx, "Successfully started", slog.String("addr", server.Addr))
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("Shutting Down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
