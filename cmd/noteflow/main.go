package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "noteflow/internal/adapter/http"
	"noteflow/internal/adapter/memory"
	"noteflow/internal/adapter/postgres"
	"noteflow/internal/adapter/sqlite"
	"noteflow/internal/app"
	"noteflow/internal/config"
	"noteflow/internal/domain"
	"noteflow/internal/jobs"
	"noteflow/internal/logging"

	"github.com/sirupsen/logrus"
)

// store is the set of ports every backend provides.
type store struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	entries  domain.EntryRepository
	logs     domain.LogRepository
	closer   io.Closer
}

func main() {
	dotenvErr := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if dotenvErr != nil {
		logger.WithError(dotenvErr).Warn("could not read .env file")
	}

	st, err := openStore(cfg)
	if err != nil {
		logger.WithError(err).WithField("store", cfg.Store).Fatal("open store")
	}
	defer func() { _ = st.closer.Close() }()
	logger.WithField("store", cfg.Store).Info("store ready")

	insightSvc := app.NewInsightService(st.entries, st.logs, cfg.SummaryCacheTTL)
	authSvc := app.NewAuthService(st.users, st.sessions, cfg.SessionTTL)
	svc := adapthttp.Services{
		Journal:    app.NewJournalService(st.entries, insightSvc),
		Substances: app.NewSubstanceService(st.logs, insightSvc),
		Insights:   insightSvc,
		Data:       app.NewDataService(st.entries, st.logs, insightSvc),
		Auth:       authSvc,
	}

	srv := adapthttp.New(svc, cfg.WebDir).
		WithLogger(logger).
		WithRateLimit(cfg.InsightsRate, cfg.InsightsBurst)

	if cfg.OIDCEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("configure sso")
		}
		srv = srv.WithOIDC(oidcCfg)
		logger.WithField("issuer", cfg.OIDCIssuer).Info("sso enabled")
	}

	scheduler := jobs.NewScheduler(logger)
	if err := scheduler.AddSessionCleanup(cfg.SessionCleanupSchedule, authSvc); err != nil {
		logger.WithError(err).Fatal("schedule session cleanup")
	}
	scheduler.Start()

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("addr", cfg.Addr).Info("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown")
	}
	scheduler.Stop(shutdownCtx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openStore(cfg *config.Config) (*store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &store{users: db, sessions: postgres.NewSessionRepo(db), entries: db, logs: db, closer: db}, nil
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &store{users: db, sessions: sqlite.NewSessionRepo(db), entries: db, logs: db, closer: db}, nil
	default:
		db := memory.New()
		return &store{users: db, sessions: db.NewSessionRepo(), entries: db, logs: db, closer: nopCloser{}}, nil
	}
}
