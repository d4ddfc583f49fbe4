package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/soaringjerry/mindbridge/internal/api"
	"github.com/soaringjerry/mindbridge/internal/cache"
	"github.com/soaringjerry/mindbridge/internal/catalog"
	"github.com/soaringjerry/mindbridge/internal/config"
	"github.com/soaringjerry/mindbridge/internal/db"
	"github.com/soaringjerry/mindbridge/internal/llm"
	"github.com/soaringjerry/mindbridge/internal/middleware"
	"github.com/soaringjerry/mindbridge/internal/services"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// openStore returns the configured Store and a function releasing it.
func openStore(ctx context.Context) (api.Store, func(), error) {
	if cfg.Storage.Driver == "memory" {
		logger.Warn("using in-memory storage; data is lost on restart")
		return api.NewMemoryStore(), func() {}, nil
	}
	conn, err := db.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(ctx, conn, cfg.Storage.MigrationsDir); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	store, err := db.NewSQLStore(conn, cfg.Storage.Driver)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return store, func() {
		if err := conn.Close(); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}, nil
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var results services.ResultStore = store
	if cfg.Cache.ValkeyAddr != "" {
		kv, err := cache.DialValkey(cfg.Cache.ValkeyAddr)
		if err != nil {
			return err
		}
		defer kv.Close()
		results = cache.NewResultCache(store, kv, cfg.Cache.TTL, logger)
		logger.Info("latest-result cache enabled", zap.String("addr", cfg.Cache.ValkeyAddr))
	}

	provider, err := llm.NewProvider(llm.Config{
		Provider:  cfg.Companion.Provider,
		OpenAI:    llm.OpenAIConfig{APIKey: cfg.Companion.APIKey, Model: cfg.Companion.Model, BaseURL: cfg.Companion.BaseURL},
		Anthropic: llm.AnthropicConfig{APIKey: cfg.Companion.APIKey, Model: cfg.Companion.Model, BaseURL: cfg.Companion.BaseURL},
	}, logger)
	if err != nil {
		return err
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret not set; using the development secret")
	}
	auth := middleware.NewAuth(cfg.Auth.JWTSecret)

	mux := http.NewServeMux()
	api.NewRouter(store, api.Options{
		Catalog:   cat,
		Results:   results,
		Provider:  provider,
		Signer:    auth.SignToken,
		TokenTTL:  cfg.Auth.TokenTTL,
		Companion: services.CompanionOptions{MaxTokens: cfg.Companion.MaxTokens, Temperature: &cfg.Companion.Temperature},
		Log:       logger,
	}).Register(mux)
	api.RegisterHealth(mux, api.BuildInfo{Commit: cfg.Build.Commit, BuildTime: cfg.Build.Time})
	if err := mountFrontend(mux, cfg.Frontend); err != nil {
		return err
	}

	handler := middleware.ResponseHeaders(
		middleware.CORS(
			auth.WithAuth(
				middleware.AccessLog(logger.Named("http"))(
					middleware.LocaleMiddleware(mux)))))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("MindBridge server listening",
			zap.String("addr", cfg.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("companion", provider.ModelID()),
			zap.Int("tests", cat.Len()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// mountFrontend serves the web client from a build directory, or proxies
// to a dev server. API routes registered on mux take precedence.
func mountFrontend(mux *http.ServeMux, fc config.FrontendConfig) error {
	if fc.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(fc.StaticDir)))
		return nil
	}
	if fc.DevURL == "" {
		return nil
	}
	u, err := url.Parse(fc.DevURL)
	if err != nil {
		return fmt.Errorf("frontend.dev_url: %w", err)
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	// dev servers set their own caching headers
	rp.ModifyResponse = func(res *http.Response) error {
		middleware.SetNoStore(res.Header)
		return nil
	}
	mux.Handle("/", rp)
	return nil
}
