// Package domain holds the client side model of a user's notification inbox.
package domain

import (
	"errors"
	"time"

	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
)

// Type is shared with the backing store so both sides agree on the wire values.
type Type = notif.Type

// DefaultSenderName is shown until the sender's profile has been resolved.
const DefaultSenderName = "사용자"

// Notification is the canonical in-app notification.
type Notification struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Action      string    `json:"action,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RelatedID   string    `json:"related_id,omitempty"`
	SenderID    string    `json:"sender_id,omitempty"`
	ReceiverID  string    `json:"receiver_id"`
	IsRead      bool      `json:"is_read"`
	IsStarred   bool      `json:"is_starred"` // user_notifications has no column; set from metadata
	CreatedAt   time.Time `json:"created_at"`
	Metadata    Metadata  `json:"metadata,omitempty"`

	SenderName   string `json:"sender_name"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
	ActivityID   string `json:"activity_id,omitempty"`
	ActivityType string `json:"activity_type,omitempty"`
	Status       string `json:"status,omitempty"`
}

// RoomID is the chat room a message notification belongs to.
func (n Notification) RoomID() string {
	if n.RelatedID != "" {
		return n.RelatedID
	}
	return n.ActivityID
}

// IsFollowOrLike reports whether the related id points at the sender rather than an entity.
func (n Notification) IsFollowOrLike() bool {
	return n.Type == notif.TypeFollow || n.Type == notif.TypeLike
}

var (
	ErrTransportClosed    = errors.New("transport closed")
	ErrSessionNotStarted  = errors.New("inbox session not started")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNoCurrentBanner    = errors.New("no banner is showing")
	ErrEmptyReply         = errors.New("reply text is empty")
	ErrUnsupportedAction  = errors.New("action not supported for this notification")
	ErrProfileUnavailable = errors.New("profile unavailable")
)
