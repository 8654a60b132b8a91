package application

import (
	"log/slog"
	"sync"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

const messageType = notif.TypeMessage

// Suppression call sites.
const (
	SiteDelivery = "delivery"
	SiteEnqueue  = "enqueue"
	SiteDrain    = "drain"
	SiteFallback = "fallback"
)

// RoomPresence tracks which chat room the user currently has open.
type RoomPresence struct {
	mu     sync.RWMutex
	roomID string
}

func NewRoomPresence() *RoomPresence {
	return &RoomPresence{}
}

func (p *RoomPresence) Enter(roomID string) {
	p.mu.Lock()
	p.roomID = roomID
	p.mu.Unlock()
}

// Leave clears the open room if it is still roomID. An empty roomID always clears.
func (p *RoomPresence) Leave(roomID string) {
	p.mu.Lock()
	if roomID == "" || p.roomID == roomID {
		p.roomID = ""
	}
	p.mu.Unlock()
}

func (p *RoomPresence) Current() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.roomID
}

// Suppressor drops message notifications for the room the user is looking at.
// The same rule runs at every call site so counting and display cannot drift.
type Suppressor struct {
	presence *RoomPresence
	logger   *slog.Logger
}

func NewSuppressor(presence *RoomPresence, logger *slog.Logger) *Suppressor {
	return &Suppressor{presence: presence, logger: logging.OrDefault(logger)}
}

func (s *Suppressor) Suppressed(n domain.Notification, site string) bool {
	if n.Type != messageType {
		return false
	}
	room := s.presence.Current()
	if room == "" || n.RoomID() != room {
		return false
	}
	suppressedTotal.WithLabelValues(site).Inc()
	s.logger.Debug("suppressed message for open room", "notification_id", n.ID, "room_id", room, "site", site)
	return true
}
