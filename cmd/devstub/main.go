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
	"syscall"
	"time"

	"github.com/RektefeMaster/mechanic-client/internal/devstub"
)

func main() {
	var (
		addr   string
		secret string
		flaky  bool
	)
	flag.StringVar(&addr, "addr", "127.0.0.1:50099", "listen address")
	flag.StringVar(&secret, "secret", "devstub-secret", "jwt signing secret")
	flag.BoolVar(&flaky, "flaky-auth", false, "first use of every access token gets 401")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(log)
	log.Info("starting devstub", "addr", addr, "flaky_auth", flaky)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	stub := devstub.New(devstub.Options{
		Logger:    log,
		JWTSecret: secret,
		FlakyAuth: flaky,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           stub.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("listen_failed", slog.String("addr", addr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	serveErrCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	log.Info("devstub_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("serve_failed", slog.String("err", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown_incomplete", slog.String("err", err.Error()))
	}

	log.Info("devstub_stopped")
}
