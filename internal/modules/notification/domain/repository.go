package domain

import (
	"context"
)

type NotificationRepository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id, receiverID string) (*Record, error)
	ListByReceiver(ctx context.Context, receiverID string, filter Filter) ([]Record, error)
	MarkAsRead(ctx context.Context, id, receiverID string) error
	MarkAllAsRead(ctx context.Context, receiverID string) ([]string, error)
	MarkRoomMessagesAsRead(ctx context.Context, receiverID, roomID string) ([]string, error)
	UnreadCount(ctx context.Context, receiverID string) (int, error)
}

type ProfileDirectory interface {
	Display(ctx context.Context, userID string) (*ProfileDisplay, error)
}

// ChangeFeed delivers change events to every live subscription of a receiver
type ChangeFeed interface {
	Publish(ctx context.Context, receiverID string, event ChangeEvent) error
}

type PushDispatcher interface {
	Dispatch(ctx context.Context, job PushJob) error
}
