package application

import (
	"log/slog"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

// Normalizer maps change feed rows to canonical notifications. It never
// rejects a row; missing or malformed fields fall back to defaults.
type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logging.OrDefault(logger).With("component", "normalizer")}
}

func (n *Normalizer) Normalize(rec notif.Record) domain.Notification {
	typ, legacyAction, known := notif.ParseType(rec.Type)
	if !known {
		n.logger.Debug("unknown notification type", "notification_id", rec.ID, "type", rec.Type)
	}

	md, err := domain.DecodeMetadata(typ, rec.Metadata)
	if err != nil {
		n.logger.Warn("malformed metadata", "notification_id", rec.ID, "type", rec.Type, "error", err)
	}
	base := md.Base()

	out := domain.Notification{
		ID:          rec.ID,
		Type:        typ,
		Action:      firstNonEmpty(legacyAction, base.Action),
		Title:       rec.Title,
		Description: rec.Content,
		RelatedID:   rec.RelatedID,
		ReceiverID:  rec.ReceiverID,
		IsRead:      rec.IsRead,
		IsStarred:   base.Starred,
		CreatedAt:   rec.CreatedAt,
		Metadata:    md,

		SenderName:   firstNonEmpty(base.SenderName, domain.DefaultSenderName),
		SenderAvatar: base.SenderAvatar,
		ActivityID:   rec.RelatedID,
		Status:       base.Status,
	}
	if rec.RelatedType != nil {
		out.ActivityType = *rec.RelatedType
	}

	// follow and like point related_id at the acting user.
	if out.IsFollowOrLike() {
		out.SenderID = rec.RelatedID
	} else {
		out.SenderID = base.SenderID
		if out.SenderID == "" && rec.SenderID != nil {
			out.SenderID = *rec.SenderID
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
