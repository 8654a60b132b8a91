package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/notify-relay/internal/modules/notification/application"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/modules/notification/infrastructure/persistence/postgres"
	"github.com/saransh1220/notify-relay/internal/modules/notification/infrastructure/profilecache"
	"github.com/saransh1220/notify-relay/internal/modules/notification/infrastructure/redisfeed"
	"github.com/saransh1220/notify-relay/internal/modules/notification/infrastructure/websocket"
	notification_http "github.com/saransh1220/notify-relay/internal/modules/notification/interfaces/http"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

type options struct {
	redis      *redis.Client
	profileTTL time.Duration
	push       domain.PushDispatcher
}

type Option func(*options)

// WithRedis fans change events out across instances and caches profile lookups.
func WithRedis(client *redis.Client, profileTTL time.Duration) Option {
	return func(o *options) {
		o.redis = client
		o.profileTTL = profileTTL
	}
}

// WithPush hands every created notification to a push dispatcher.
func WithPush(push domain.PushDispatcher) Option {
	return func(o *options) { o.push = push }
}

type Module struct {
	service *application.NotificationService
	handler *notification_http.NotificationHandler
	hub     *websocket.Hub

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewModule(db *sqlx.DB, logger *slog.Logger, opts ...Option) *Module {
	logger = logging.OrDefault(logger)
	o := options{profileTTL: 10 * time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	repo := postgres.NewPgNotificationRepository(db)
	hub := websocket.NewHub(logger)
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	m := &Module{hub: hub, cancel: cancel}

	var feed domain.ChangeFeed = hub
	var profiles domain.ProfileDirectory = postgres.NewPgProfileDirectory(db)
	if o.redis != nil {
		rf := redisfeed.NewFeed(o.redis, redisfeed.DefaultChannel, hub, logger)
		feed = rf
		profiles = profilecache.NewDirectory(profiles, o.redis, o.profileTTL, logger)

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := rf.Run(ctx); err != nil {
				logger.Error("change feed relay stopped", "error", err)
			}
		}()
	}

	m.service = application.NewNotificationService(repo, profiles, feed, o.push, logger)
	m.handler = notification_http.NewNotificationHandler(m.service, hub, logger)
	return m
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

func (m *Module) Service() *application.NotificationService {
	return m.service
}

// Shutdown stops the relay and closes every live subscription. Safe to call twice.
func (m *Module) Shutdown() {
	m.once.Do(func() {
		m.cancel()
		m.wg.Wait()
		m.hub.Stop()
	})
}
