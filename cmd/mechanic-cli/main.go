package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RektefeMaster/mechanic-client/internal/api"
	"github.com/RektefeMaster/mechanic-client/internal/client"
	"github.com/RektefeMaster/mechanic-client/internal/config"
	"github.com/RektefeMaster/mechanic-client/internal/creds"
	"github.com/RektefeMaster/mechanic-client/internal/metrics"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting mechanic-cli", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	store, err := newStore(cfg.Creds)
	if err != nil {
		log.Error("creds_store_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn("creds_store_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	met := metrics.New(reg)

	// Аналог редиректа на экран логина в мобильном приложении:
	// CLI при завершении сессии просто останавливается.
	onExpired := func() {
		log.Warn("session_expired_login_required")
		rootCancel()
	}

	cl, err := client.New(rootCtx, client.Config{
		BaseURL:          cfg.API.BaseURL,
		RefreshPath:      cfg.API.RefreshPath,
		Timeout:          cfg.API.Timeout,
		UserAgent:        cfg.API.UserAgent,
		Store:            store,
		OnSessionExpired: onExpired,
		Metrics:          met,
	})
	if err != nil {
		log.Error("client_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	app := api.New(cl)

	if cl.UserID(rootCtx) == "" {
		if cfg.Auth.Email == "" || cfg.Auth.Password == "" {
			log.Error("no_stored_session_and_no_credentials",
				slog.String("hint", "set MECHANIC_EMAIL and MECHANIC_PASSWORD"),
			)
			os.Exit(1)
		}

		if _, err := app.Login(rootCtx, cfg.Auth.Email, cfg.Auth.Password); err != nil {
			log.Error("login_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}

	demoFlow(rootCtx, log, app)

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	metricsAddr := cfg.Metrics.Addr()
	metricsSrv := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", metricsAddr)
	if err != nil {
		log.Error("metrics_listen_failed", slog.String("addr", metricsAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("metrics_listen_start", slog.String("addr", metricsAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := metricsSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("mechanic_cli_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("metrics_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics_shutdown_incomplete", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

// demoFlow — демонстрационный прогон фичевых вызовов.
func demoFlow(ctx context.Context, log *slog.Logger, app *api.API) {
	if profile, err := app.Profile(ctx); err != nil {
		log.Warn("profile_fetch_failed", slog.String("err", err.Error()))
	} else {
		log.Info("profile_loaded",
			slog.String("shop", profile.ShopName),
			slog.Float64("rating", profile.Rating),
		)
	}

	if appts, err := app.Appointments(ctx); err != nil {
		log.Warn("appointments_fetch_failed", slog.String("err", err.Error()))
	} else {
		log.Info("appointments_loaded", slog.Int("count", len(appts)))
	}

	if jobs, err := app.WashJobs(ctx); err != nil {
		log.Warn("wash_jobs_fetch_failed", slog.String("err", err.Error()))
	} else {
		log.Info("wash_jobs_loaded", slog.Int("count", len(jobs)))
	}

	if jobs, err := app.TireJobs(ctx); err != nil {
		log.Warn("tire_jobs_fetch_failed", slog.String("err", err.Error()))
	} else {
		log.Info("tire_jobs_loaded", slog.Int("count", len(jobs)))
	}

	if jobs, err := app.TowingJobs(ctx); err != nil {
		log.Warn("towing_jobs_fetch_failed", slog.String("err", err.Error()))
	} else {
		log.Info("towing_jobs_loaded", slog.Int("count", len(jobs)))
	}
}

// newStore выбирает бэкенд хранилища учётных данных.
func newStore(cfg config.CredsConfig) (creds.Store, error) {
	switch cfg.Backend {
	case "redis":
		return creds.NewRedisStore(cfg.RedisURL, cfg.RedisPrefix)
	default:
		return creds.NewFileStore(cfg.FilePath)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
