package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"notesrelay/internal/adapter/repo"
	"notesrelay/internal/domain"
	"notesrelay/internal/http/handlers"
	httpapi "notesrelay/internal/http/httpapi"
	"notesrelay/internal/infra"
	"notesrelay/internal/infra/credentials"
	"notesrelay/internal/infra/geoip"
	"notesrelay/internal/middleware"
	"notesrelay/internal/processor"
	"notesrelay/internal/providers/completion"
)

func main() {
	// Optional .env
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	var (
		store  domain.NoteStore
		runner *infra.SQLRunner
	)
	limits := domain.TierLimits{
		domain.TierFree:    cfg.FreeMonthlyNoteLimit,
		domain.TierPremium: cfg.PremiumMonthlyNoteLimit,
	}
	switch cfg.StoreBackend {
	case infra.StoreBackendPostgres:
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		runner = infra.NewSQLRunner(dbpool, logger.With().Str("component", "sql").Logger())
		store = repo.NewNoteRepository(runner, limits)
	default:
		store = repo.NewMemoryNoteStore(limits)
		logger.Warn().Msg("using in-memory note store; data is lost on restart")
	}

	if cfg.OpenAIAPIKey == "" && runner != nil && cfg.CompletionBackend != infra.CompletionBackendSimulated {
		lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		key, err := credentials.NewStore(runner).OpenAIAPIKey(lookupCtx)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load openai key from integration tokens")
		}
		cfg.OpenAIAPIKey = key
	}

	completer, err := newCompleter(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure completion backend")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip disabled")
		resolver, _ = geoip.NewResolver("")
	}
	defer resolver.Close()
	var lookup middleware.CountryLookup
	if resolver.Enabled() {
		lookup = resolver.CountryCode
	}

	proc := processor.New(store, completer, logger, processor.Options{
		MaxTokens:  cfg.OpenAIMaxTokens,
		StaleAfter: cfg.ProcessingStaleAfter,
	})
	app := handlers.NewApp(cfg, logger, proc, store, completer)
	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("store", store.Backend()).
			Str("completion", completer.Provider()).
			Str("model", completer.Model()).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newCompleter(cfg *infra.Config, logger infra.Logger) (completion.Completer, error) {
	backend := cfg.CompletionBackend
	if backend == "" {
		backend = infra.CompletionBackendSimulated
		if cfg.OpenAIAPIKey != "" {
			backend = infra.CompletionBackendOpenAI
		}
	}
	switch backend {
	case infra.CompletionBackendOpenAI:
		log := logger.With().Str("component", "openai").Logger()
		c, err := completion.NewOpenAICompleter(completion.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			MaxTokens:    cfg.OpenAIMaxTokens,
			HTTPClient:   infra.NewHTTPClient(cfg.OpenAITimeout),
			OnWarning: func(reason, detail string) {
				log.Warn().Str("reason", reason).Str("detail", detail).Msg("openai configuration adjusted")
			},
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		logger.Warn().Msg("using simulated completion backend; responses are fabricated")
		return completion.NewSimulatedCompleter(cfg.OpenAIModel, cfg.SimulatedLatency), nil
	}
}
