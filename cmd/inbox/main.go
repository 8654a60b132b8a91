package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saransh1220/notify-relay/internal/gateway"
	"github.com/saransh1220/notify-relay/internal/gateway/middleware"
	"github.com/saransh1220/notify-relay/internal/modules/inbox"
	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	"github.com/saransh1220/notify-relay/internal/modules/inbox/infrastructure/console"
	"github.com/saransh1220/notify-relay/internal/modules/inbox/infrastructure/restapi"
	"github.com/saransh1220/notify-relay/internal/modules/inbox/infrastructure/wsfeed"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/config"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
	"github.com/saransh1220/notify-relay/internal/shared/utils"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("inbox exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.Inbox.Token == "" {
		return errors.New("INBOX_TOKEN is required")
	}
	userID := cfg.Inbox.UserID
	if userID == "" {
		id, err := utils.UnverifiedUserID(cfg.Inbox.Token)
		if err != nil {
			return err
		}
		userID = id
	}

	transport, err := wsfeed.NewTransport(cfg.Inbox.ServerURL, cfg.Inbox.Token, logger)
	if err != nil {
		return err
	}
	api := restapi.NewClient(cfg.Inbox.ServerURL, cfg.Inbox.Token, &http.Client{Timeout: 15 * time.Second}, logger)

	module := inbox.NewModule(inbox.Deps{
		Transport: transport,
		API:       api,
		Profiles:  api,
		Actions:   api,
		View:      console.NewView(logger),
		Navigator: console.NewNavigator(logger),
		Clock:     domain.SystemClock(),
	}, cfg.Inbox, logger)
	defer module.Stop()

	logger.Info("starting inbox", "server", cfg.Inbox.ServerURL, "user_id", userID)
	if err := module.Start(ctx, userID); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	module.HTTPHandler().Register(mux)

	return gateway.NewServer(cfg.Inbox.BridgeAddr, middleware.PrometheusMiddleware(mux), logger).Start(ctx)
}
