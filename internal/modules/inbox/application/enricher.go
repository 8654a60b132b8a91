package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

// enrichableTypes need a live profile lookup for their sender. Legacy
// accepted/rejected wire types normalize onto invitation and application.
var enrichableTypes = map[domain.Type]bool{
	notif.TypeInvitation:  true,
	notif.TypeMessage:     true,
	notif.TypeApplication: true,
	notif.TypeWithdrawal:  true,
	notif.TypeFollow:      true,
	notif.TypeLike:        true,
	notif.TypeQuestion:    true,
	notif.TypeAnswer:      true,
}

// Enricher fills in sender display fields after a notification has already
// been delivered. Failures leave the defaults in place.
type Enricher struct {
	profiles domain.ProfileLookup
	ledger   *Ledger
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewEnricher(profiles domain.ProfileLookup, ledger *Ledger, timeout time.Duration, logger *slog.Logger) *Enricher {
	return &Enricher{
		profiles: profiles,
		ledger:   ledger,
		timeout:  timeout,
		logger:   logging.OrDefault(logger).With("component", "enricher"),
	}
}

// NeedsProfile reports whether n is enriched at all.
func NeedsProfile(n domain.Notification) bool {
	return n.SenderID != "" && enrichableTypes[n.Type]
}

// EnrichAsync starts the lookup in the background and returns immediately.
func (e *Enricher) EnrichAsync(ctx context.Context, n domain.Notification) {
	if !NeedsProfile(n) {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.Enrich(context.WithoutCancel(ctx), n)
	}()
}

// Enrich looks up the sender and patches the cached copy of n.
func (e *Enricher) Enrich(ctx context.Context, n domain.Notification) {
	if !NeedsProfile(n) {
		return
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	display, err := e.profiles.Display(ctx, n.SenderID)
	if err != nil {
		enrichFailuresTotal.Inc()
		e.logger.Warn("profile lookup failed", "notification_id", n.ID, "sender_id", n.SenderID, "error", err)
		return
	}

	description := n.Description
	if !n.IsFollowOrLike() {
		description = domain.BuildDescription(n.Type, n.Action, display.Name, domain.TargetTitle(n.Metadata), n.Metadata, n.Description)
	}

	e.ledger.Patch(n.ID, func(p *domain.Notification) {
		p.SenderName = firstNonEmpty(display.Name, p.SenderName)
		p.SenderAvatar = display.Avatar
		p.Description = description
	})
}

// Wait blocks until every background lookup has finished.
func (e *Enricher) Wait() {
	e.wg.Wait()
}
