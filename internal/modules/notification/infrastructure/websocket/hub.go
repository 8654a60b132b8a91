package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

var connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "notification_feed_connected_clients",
	Help: "Number of live change feed connections.",
})

type UnicastMessage struct {
	UserID  string
	Message []byte
}

// Hub maintains the set of active change feed clients and routes frames to
// the clients of a single receiver.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Unicast messages
	unicast chan UnicastMessage

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	logger *slog.Logger

	// Channel to signal termination
	stop     chan struct{}
	stopOnce sync.Once
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		unicast:    make(chan UnicastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),

		clients: make(map[*Client]bool),
		logger:  logging.OrDefault(logger).With("component", "feed_hub"),
		stop:    make(chan struct{}),
	}
}

var subscribedFrame, _ = json.Marshal(domain.ChangeEvent{Event: domain.EventSubscribed})

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			connectedClients.Inc()
			// The join acknowledgement is the first frame a client ever sees.
			select {
			case client.send <- subscribedFrame:
			default:
			}
			h.logger.Info("client registered", "addr", client.addr(), "user_id", client.userID)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Info("client unregistered", "addr", client.addr(), "user_id", client.userID)
			}
		case msg := <-h.unicast:
			for client := range h.clients {
				if client.userID != msg.UserID {
					continue
				}
				select {
				case client.send <- msg.Message:
				default:
					h.logger.Warn("dropping slow client", "user_id", client.userID)
					h.drop(client)
				}
			}
		case <-h.stop:
			h.logger.Info("stopping hub")
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	connectedClients.Dec()
}

func (h *Hub) SendToUser(userID string, message []byte) {
	select {
	case h.unicast <- UnicastMessage{UserID: userID, Message: message}:
	case <-h.stop:
	}
}

// Publish implements domain.ChangeFeed for a single process.
func (h *Hub) Publish(_ context.Context, receiverID string, event domain.ChangeEvent) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.SendToUser(receiverID, msg)
	return nil
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}
