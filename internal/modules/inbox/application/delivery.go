package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

// Presenter accepts notifications for banner display.
type Presenter interface {
	Show(n domain.Notification)
}

// Delivery turns change feed events and push fallbacks into cache, counter
// and banner updates. It implements Listener.
type Delivery struct {
	normalizer *Normalizer
	suppressor *Suppressor
	ledger     *Ledger
	enricher   *Enricher
	presenter  Presenter
	api        domain.NotificationAPI
	logger     *slog.Logger
}

func NewDelivery(
	normalizer *Normalizer,
	suppressor *Suppressor,
	ledger *Ledger,
	enricher *Enricher,
	presenter Presenter,
	api domain.NotificationAPI,
	logger *slog.Logger,
) *Delivery {
	return &Delivery{
		normalizer: normalizer,
		suppressor: suppressor,
		ledger:     ledger,
		enricher:   enricher,
		presenter:  presenter,
		api:        api,
		logger:     logging.OrDefault(logger).With("component", "delivery"),
	}
}

func (d *Delivery) OnInsert(ctx context.Context, rec notif.Record) {
	n := d.normalizer.Normalize(rec)
	if d.suppressor.Suppressed(n, SiteDelivery) {
		return
	}
	d.accept(ctx, n)
}

func (d *Delivery) OnUpdate(ctx context.Context, rec notif.Record, old *notif.Record) {
	var oldRead *bool
	if old != nil {
		v := old.IsRead
		oldRead = &v
	}
	d.ledger.ApplyRemoteRead(rec.ID, oldRead, rec.IsRead)
}

// OnPushReceived fetches the newest unread notification in case the change
// feed missed it. The payload itself is only a trigger.
func (d *Delivery) OnPushReceived(ctx context.Context, payload domain.PushPayload) error {
	unread := false
	recs, err := d.api.List(ctx, notif.Filter{IsRead: &unread, Limit: 1})
	if err != nil {
		d.logger.Warn("push fallback fetch failed", "title", payload.Title, "error", err)
		return fmt.Errorf("fetch latest notification: %w", err)
	}
	if len(recs) == 0 {
		return nil
	}

	n := d.normalizer.Normalize(recs[0])
	if d.suppressor.Suppressed(n, SiteFallback) {
		return nil
	}
	d.accept(ctx, n)
	return nil
}

// accept inserts n before showing it so the banner never runs ahead of the
// list and badge. Enrichment is started last and patches the cached copy.
func (d *Delivery) accept(ctx context.Context, n domain.Notification) {
	inserted := d.ledger.Insert(n)
	d.presenter.Show(n)
	if inserted {
		d.enricher.EnrichAsync(ctx, n)
	}
}
