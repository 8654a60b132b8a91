package domain

import (
	"context"

	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
)

// ChannelStatus is a lifecycle signal from a realtime channel.
type ChannelStatus int

const (
	StatusNone ChannelStatus = iota
	StatusSubscribed
	StatusTimedOut
	StatusChannelError
	StatusClosed
)

func (s ChannelStatus) String() string {
	switch s {
	case StatusSubscribed:
		return "SUBSCRIBED"
	case StatusTimedOut:
		return "TIMED_OUT"
	case StatusChannelError:
		return "CHANNEL_ERROR"
	case StatusClosed:
		return "CLOSED"
	default:
		return "NONE"
	}
}

// Terminal reports whether the channel is finished after this status.
func (s ChannelStatus) Terminal() bool {
	return s == StatusTimedOut || s == StatusChannelError || s == StatusClosed
}

// Frame is one item from a channel: either a change event or a status.
type Frame struct {
	Event  *notif.ChangeEvent
	Status ChannelStatus
	Err    error
}

// Channel is one live change feed subscription. Frames is closed when the
// channel ends; a terminal status frame normally precedes that.
type Channel interface {
	Frames() <-chan Frame
	Close() error
}

// Transport opens change feed channels scoped to a receiver.
type Transport interface {
	Open(ctx context.Context, userID string) (Channel, error)
}

// ProfileLookup resolves a user's display name and avatar.
type ProfileLookup interface {
	Display(ctx context.Context, userID string) (notif.ProfileDisplay, error)
}

// NotificationAPI is the backing store as seen by the client.
type NotificationAPI interface {
	List(ctx context.Context, filter notif.Filter) ([]notif.Record, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	MarkRoomMessagesAsRead(ctx context.Context, userID, roomID string) (int, error)
}

// ActionService performs the side effects behind banner buttons.
type ActionService interface {
	AcceptInvitation(ctx context.Context, invitationID string) error
	RejectInvitation(ctx context.Context, invitationID string) error
	ReplyToMessage(ctx context.Context, roomID, text string) error
}

// Navigator opens a destination resolved by Route.
type Navigator interface {
	Navigate(ctx context.Context, dest Destination) error
}

// PushPayload is what a native push delivers to the app.
type PushPayload struct {
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}
