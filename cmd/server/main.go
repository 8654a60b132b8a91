package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/saransh1220/notify-relay/internal/gateway"
	"github.com/saransh1220/notify-relay/internal/gateway/middleware"
	"github.com/saransh1220/notify-relay/internal/modules/notification"
	"github.com/saransh1220/notify-relay/internal/modules/notification/infrastructure/pushqueue"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/config"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/database"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
	"github.com/saransh1220/notify-relay/migrations"
	"github.com/saransh1220/notify-relay/pkg/migration"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("connecting to database", "host", cfg.Database.Host, "db", cfg.Database.DBName)
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	migrationCfg := &migration.Config{
		MigrationsPath: cfg.Server.MigrationsPath,
		Source:         migrations.FS,
		DatabaseURL:    cfg.Database.URL(),
		Logger:         logger,
	}
	if _, err := os.Stat(cfg.Server.MigrationsPath); err != nil {
		// fall back to the migrations compiled into the binary
		migrationCfg.MigrationsPath = ""
	}
	if err := migration.AutoMigrate(migrationCfg); err != nil {
		return err
	}

	var opts []notification.Option
	if cfg.Redis.Enabled {
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		logger.Info("redis enabled", "addr", cfg.Redis.Addr())
		opts = append(opts, notification.WithRedis(rdb, cfg.Inbox.ProfileCacheTTL))
	}
	if cfg.AMQP.URL != "" {
		publisher, conn, err := pushqueue.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer publisher.Close()
		logger.Info("push dispatch enabled", "exchange", cfg.AMQP.Exchange)
		opts = append(opts, notification.WithPush(publisher))
	}

	notificationModule := notification.NewModule(db, logger, opts...)
	defer notificationModule.Shutdown()

	handler := gateway.NewHandler(gateway.RouterConfig{
		AuthMiddleware:      middleware.NewAuthMiddleware(cfg.JWT.Secret),
		NotificationHandler: notificationModule.HTTPHandler(),
	}, cfg.Server.AllowedOrigins)

	return gateway.NewServer(cfg.Server.Port, handler, logger).Start(ctx)
}
