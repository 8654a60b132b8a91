package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

// CreateInput carries an internally produced notification.
type CreateInput struct {
	Type        string
	Title       string
	Content     string
	RelatedID   string
	RelatedType string
	SenderID    string
	ReceiverID  string
	Metadata    map[string]interface{}
}

type NotificationService struct {
	repo     domain.NotificationRepository
	profiles domain.ProfileDirectory
	feed     domain.ChangeFeed
	push     domain.PushDispatcher
	logger   *slog.Logger
	now      func() time.Time
}

// NewNotificationService wires the service. push may be nil when no push worker is configured.
func NewNotificationService(
	repo domain.NotificationRepository,
	profiles domain.ProfileDirectory,
	feed domain.ChangeFeed,
	push domain.PushDispatcher,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		repo:     repo,
		profiles: profiles,
		feed:     feed,
		push:     push,
		logger:   logging.OrDefault(logger).With("component", "notification_service"),
		now:      time.Now,
	}
}

// Create persists the notification and fans it out. Delivery failures are logged; the row is the source of truth.
func (s *NotificationService) Create(ctx context.Context, in CreateInput) (*domain.Record, error) {
	if strings.TrimSpace(in.ReceiverID) == "" || strings.TrimSpace(in.Type) == "" {
		return nil, fmt.Errorf("%w: receiver and type are required", domain.ErrInvalidNotification)
	}
	if _, _, ok := domain.ParseType(in.Type); !ok {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidNotification, in.Type)
	}

	record := &domain.Record{
		ID:         uuid.NewString(),
		Type:       in.Type,
		Title:      in.Title,
		Content:    in.Content,
		RelatedID:  in.RelatedID,
		ReceiverID: in.ReceiverID,
		Metadata:   domain.JSONMap(in.Metadata),
		CreatedAt:  s.now().UTC(),
	}
	if in.RelatedType != "" {
		record.RelatedType = &in.RelatedType
	}
	if in.SenderID != "" {
		record.SenderID = &in.SenderID
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	createdTotal.WithLabelValues(record.Type).Inc()

	if err := s.feed.Publish(ctx, record.ReceiverID, domain.ChangeEvent{Event: domain.EventInsert, New: record}); err != nil {
		s.logger.Warn("change feed publish failed", "notification_id", record.ID, "error", err)
	}
	s.dispatchPush(ctx, record)

	return record, nil
}

func (s *NotificationService) dispatchPush(ctx context.Context, record *domain.Record) {
	if s.push == nil {
		return
	}
	job := domain.PushJob{
		NotificationID: record.ID,
		ReceiverID:     record.ReceiverID,
		Title:          record.Title,
		Body:           record.Content,
		Data: map[string]string{
			"notification_id": record.ID,
			"type":            record.Type,
			"related_id":      record.RelatedID,
		},
	}
	if err := s.push.Dispatch(ctx, job); err != nil {
		pushFailuresTotal.Inc()
		s.logger.Warn("push dispatch failed", "notification_id", record.ID, "error", err)
	}
}

func (s *NotificationService) List(ctx context.Context, receiverID string, filter domain.Filter) ([]domain.Record, error) {
	return s.repo.ListByReceiver(ctx, receiverID, filter)
}

// Latest returns the newest unread notification, or nil when there is none.
func (s *NotificationService) Latest(ctx context.Context, receiverID string) (*domain.Record, error) {
	unread := false
	rows, err := s.repo.ListByReceiver(ctx, receiverID, domain.Filter{IsRead: &unread, Limit: 1})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// MarkAsRead flips is_read and publishes the UPDATE with the before and after rows.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, receiverID string) error {
	old, err := s.repo.GetByID(ctx, id, receiverID)
	if err != nil {
		return err
	}
	if err := s.repo.MarkAsRead(ctx, id, receiverID); err != nil {
		return err
	}
	if old.IsRead {
		return nil
	}

	updated := *old
	updated.IsRead = true
	s.publishUpdate(ctx, old, &updated)
	return nil
}

// MarkAllAsRead marks every unread notification of the receiver and publishes an UPDATE per row.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, receiverID string) (int64, error) {
	ids, err := s.repo.MarkAllAsRead(ctx, receiverID)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.publishRead(ctx, &domain.Record{ID: id, ReceiverID: receiverID})
	}
	return int64(len(ids)), nil
}

// MarkRoomMessagesAsRead marks the receiver's unread messages for roomID and returns how many changed.
func (s *NotificationService) MarkRoomMessagesAsRead(ctx context.Context, receiverID, roomID string) (int, error) {
	if roomID == "" {
		return 0, fmt.Errorf("%w: room id is required", domain.ErrInvalidNotification)
	}
	ids, err := s.repo.MarkRoomMessagesAsRead(ctx, receiverID, roomID)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.publishRead(ctx, &domain.Record{ID: id, Type: string(domain.TypeMessage), RelatedID: roomID, ReceiverID: receiverID})
	}
	return len(ids), nil
}

// publishRead announces an unread to read flip for a row known only by its key fields.
func (s *NotificationService) publishRead(ctx context.Context, old *domain.Record) {
	updated := *old
	updated.IsRead = true
	s.publishUpdate(ctx, old, &updated)
}

func (s *NotificationService) publishUpdate(ctx context.Context, old, updated *domain.Record) {
	ev := domain.ChangeEvent{Event: domain.EventUpdate, New: updated, Old: old}
	if err := s.feed.Publish(ctx, updated.ReceiverID, ev); err != nil {
		s.logger.Warn("change feed publish failed", "notification_id", updated.ID, "error", err)
	}
}

func (s *NotificationService) UnreadCount(ctx context.Context, receiverID string) (int, error) {
	return s.repo.UnreadCount(ctx, receiverID)
}

func (s *NotificationService) ProfileDisplay(ctx context.Context, userID string) (*domain.ProfileDisplay, error) {
	return s.profiles.Display(ctx, userID)
}
