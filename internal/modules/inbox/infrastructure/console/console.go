// Package console renders banners and navigation as structured log lines for
// the headless inbox agent.
package console

import (
	"context"
	"log/slog"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

type View struct {
	logger *slog.Logger
}

func NewView(logger *slog.Logger) *View {
	return &View{logger: logging.OrDefault(logger).With("component", "banner_view")}
}

func (v *View) Present(n domain.Notification) {
	v.logger.Info("banner",
		"notification_id", n.ID,
		"type", string(n.Type),
		"title", n.Title,
		"description", n.Description,
		"sender", n.SenderName,
	)
}

func (v *View) Remove(id string, reason domain.DismissReason) {
	v.logger.Info("banner dismissed", "notification_id", id, "reason", string(reason))
}

type Navigator struct {
	logger *slog.Logger
}

func NewNavigator(logger *slog.Logger) *Navigator {
	return &Navigator{logger: logging.OrDefault(logger).With("component", "navigator")}
}

func (n *Navigator) Navigate(_ context.Context, dest domain.Destination) error {
	n.logger.Info("navigate", "kind", string(dest.Kind), "to", dest.String())
	return nil
}
