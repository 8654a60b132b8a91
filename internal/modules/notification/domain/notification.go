package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record is a user_notifications row. It is also the payload of change feed frames.
type Record struct {
	ID          string    `json:"id" db:"id"`
	Type        string    `json:"type" db:"type"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	RelatedID   string    `json:"related_id" db:"related_id"`
	RelatedType *string   `json:"related_type,omitempty" db:"related_type"`
	SenderID    *string   `json:"sender_id,omitempty" db:"sender_id"`
	ReceiverID  string    `json:"receiver_id" db:"receiver_id"`
	IsRead      bool      `json:"is_read" db:"is_read"`
	Metadata    JSONMap   `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// JSONMap is a jsonb column holding the type dependent metadata object.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

// String returns the metadata value under key when it is a non-empty string.
func (m JSONMap) String(key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// EventKind names a change feed frame
type EventKind string

const (
	EventSubscribed EventKind = "SUBSCRIBED"
	EventInsert     EventKind = "INSERT"
	EventUpdate     EventKind = "UPDATE"
)

// ChangeEvent is a single change feed frame scoped to one receiver.
type ChangeEvent struct {
	Event EventKind `json:"event"`
	New   *Record   `json:"new,omitempty"`
	Old   *Record   `json:"old,omitempty"`
}

// Filter narrows a receiver's notification listing
type Filter struct {
	Type   string
	IsRead *bool
	Limit  int
	Offset int
}

// ProfileDisplay is the public display identity of a user
type ProfileDisplay struct {
	UserID string `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
	Avatar string `json:"avatar,omitempty" db:"avatar"`
}

// PushJob is handed to the native push dispatcher for each created notification
type PushJob struct {
	NotificationID string            `json:"notification_id"`
	ReceiverID     string            `json:"receiver_id"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data,omitempty"`
}

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrInvalidNotification  = errors.New("invalid notification")
)
