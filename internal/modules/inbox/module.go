package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/application"
	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	inbox_http "github.com/saransh1220/notify-relay/internal/modules/inbox/interfaces/http"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/config"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

// Deps are the collaborators the inbox core runs against.
type Deps struct {
	Transport domain.Transport
	API       domain.NotificationAPI
	Profiles  domain.ProfileLookup
	Actions   domain.ActionService
	View      domain.BannerView
	Navigator domain.Navigator
	Clock     domain.Clock
}

// Module is one client session of the real-time inbox. The stores it owns
// are created once and reset between sessions.
type Module struct {
	api      domain.NotificationAPI
	cacheMax int
	logger   *slog.Logger

	presence     *application.RoomPresence
	ledger       *application.Ledger
	profiles     *application.CachedProfiles
	normalizer   *application.Normalizer
	enricher     *application.Enricher
	gateway      *application.MutationGateway
	banner       *application.BannerController
	delivery     *application.Delivery
	subscription *application.SubscriptionManager
	handler      *inbox_http.Handler

	// session serialises Start and Stop end to end; mu guards userID only.
	session sync.Mutex
	mu      sync.Mutex
	userID  string
}

func NewModule(deps Deps, cfg config.InboxConfig, logger *slog.Logger) *Module {
	logger = logging.OrDefault(logger)

	m := &Module{api: deps.API, cacheMax: cfg.CacheMaxItems, logger: logger.With("component", "inbox")}

	m.presence = application.NewRoomPresence()
	m.ledger = application.NewLedger(
		application.NewCache(deps.Clock, cfg.CacheTTL, cfg.CacheMaxItems),
		application.NewUnreadCounter(),
	)
	suppressor := application.NewSuppressor(m.presence, logger)

	m.profiles = application.NewCachedProfiles(deps.Profiles, deps.Clock, cfg.ProfileCacheTTL)
	m.normalizer = application.NewNormalizer(logger)
	m.enricher = application.NewEnricher(m.profiles, m.ledger, cfg.EnrichTimeout, logger)
	m.gateway = application.NewMutationGateway(deps.API, m.ledger, deps.Clock, application.DefaultReconcileDelay, logger)
	m.banner = application.NewBannerController(application.BannerConfig{
		Clock:         deps.Clock,
		Timeout:       cfg.BannerTimeout,
		ExitAnimation: cfg.ExitAnimation,
		Suppressor:    suppressor,
		View:          deps.View,
		Gateway:       m.gateway,
		Cache:         m.ledger.Cache(),
		Actions:       deps.Actions,
		Navigator:     deps.Navigator,
		Logger:        logger,
	})
	m.delivery = application.NewDelivery(m.normalizer, suppressor, m.ledger, m.enricher, m.banner, deps.API, logger)
	m.subscription = application.NewSubscriptionManager(deps.Transport, m.delivery, deps.Clock, cfg.RetryDelays, logger)

	m.handler = inbox_http.NewHandler(inbox_http.Deps{
		Session:      m,
		Delivery:     m.delivery,
		Presence:     m.presence,
		Ledger:       m.ledger,
		Banner:       m.banner,
		Gateway:      m.gateway,
		Subscription: m.subscription,
	}, logger)
	return m
}

// Start begins a session for userID. The counter is seeded from the server
// and the change feed is opened; a failed seed or connect degrades instead
// of failing. Starting the running user again is a no-op.
func (m *Module) Start(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("start inbox: %w", domain.ErrUnauthorized)
	}

	m.session.Lock()
	defer m.session.Unlock()

	current := m.UserID()
	if current == userID {
		return nil
	}
	if current != "" {
		m.stopLocked()
	}

	m.mu.Lock()
	m.userID = userID
	m.mu.Unlock()

	m.gateway.Resume()
	m.ledger.Cache().Bind(userID, m.load)
	if count, err := m.api.UnreadCount(ctx); err != nil {
		m.logger.Warn("could not seed unread count", "user_id", userID, "error", err)
	} else {
		m.ledger.Sync(count)
	}

	m.subscription.Open(ctx, userID)
	m.logger.Info("inbox session started", "user_id", userID)
	return nil
}

// Stop ends the session: the feed is closed, pending timers are cancelled and
// every store is reset. Safe to call when not started and to call twice.
func (m *Module) Stop() {
	m.session.Lock()
	defer m.session.Unlock()
	m.stopLocked()
}

func (m *Module) stopLocked() {
	m.mu.Lock()
	userID := m.userID
	m.userID = ""
	m.mu.Unlock()

	m.subscription.Close()
	if userID == "" {
		return
	}
	m.subscription.Wait()
	m.gateway.Close()
	m.gateway.Wait()
	m.enricher.Wait()
	m.banner.Reset()
	m.ledger.Reset()
	m.profiles.Purge()
	m.presence.Leave("")
	m.logger.Info("inbox session stopped", "user_id", userID)
}

// UserID is the session user, empty when no session is running.
func (m *Module) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

func (m *Module) load(ctx context.Context) ([]domain.Notification, error) {
	recs, err := m.api.List(ctx, notif.Filter{Limit: m.cacheMax})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(recs))
	for _, rec := range recs {
		out = append(out, m.normalizer.Normalize(rec))
	}
	return out, nil
}

func (m *Module) HTTPHandler() *inbox_http.Handler { return m.handler }

func (m *Module) Banner() *application.BannerController { return m.banner }

func (m *Module) Gateway() *application.MutationGateway { return m.gateway }

func (m *Module) Delivery() *application.Delivery { return m.delivery }

func (m *Module) Presence() *application.RoomPresence { return m.presence }

func (m *Module) Ledger() *application.Ledger { return m.ledger }

func (m *Module) Subscription() *application.SubscriptionManager { return m.subscription }
