package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

const (
	// The server pings every 54s; a silent connection past this is timed out.
	pongWait = 60 * time.Second

	writeWait      = 10 * time.Second
	frameBuffer    = 64
	maxMessageSize = 1 << 20
)

// Transport dials the server change feed over a websocket.
type Transport struct {
	endpoint string
	token    string
	dialer   *websocket.Dialer
	logger   *slog.Logger
}

// NewTransport builds a transport for serverURL (http, https, ws or wss).
// The feed lives at /ws on that server.
func NewTransport(serverURL, token string, logger *slog.Logger) (*Transport, error) {
	endpoint, err := feedURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Transport{
		endpoint: endpoint,
		token:    token,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logging.OrDefault(logger).With("component", "wsfeed"),
	}, nil
}

func feedURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Open dials the feed. Frames for receivers other than userID are dropped.
func (t *Transport) Open(ctx context.Context, userID string) (domain.Channel, error) {
	header := http.Header{}
	if t.token != "" {
		header.Set("Authorization", "Bearer "+t.token)
	}

	conn, resp, err := t.dialer.DialContext(ctx, t.endpoint, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("dial change feed: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("dial change feed: %w", err)
	}

	ch := &channel{
		conn:   conn,
		userID: userID,
		frames: make(chan domain.Frame, frameBuffer),
		done:   make(chan struct{}),
		logger: t.logger.With("user_id", userID),
	}
	go ch.readLoop()
	return ch, nil
}

type channel struct {
	conn      *websocket.Conn
	userID    string
	frames    chan domain.Frame
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func (c *channel) Frames() <-chan domain.Frame { return c.frames }

// Close sends a normal close frame and drops the connection. The frame
// stream ends without a status so the close is not mistaken for a failure.
func (c *channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

func (c *channel) readLoop() {
	defer close(c.frames)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPingHandler(func(data string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		err := c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.emit(domain.Frame{Status: classify(err), Err: err})
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev notif.ChangeEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			c.logger.Warn("dropping malformed frame", "error", err)
			continue
		}
		frame, ok := c.toFrame(ev)
		if !ok {
			continue
		}
		if !c.emit(frame) {
			return
		}
	}
}

func (c *channel) toFrame(ev notif.ChangeEvent) (domain.Frame, bool) {
	switch ev.Event {
	case notif.EventSubscribed:
		return domain.Frame{Status: domain.StatusSubscribed}, true
	case notif.EventInsert, notif.EventUpdate:
		if ev.New == nil {
			c.logger.Warn("dropping change without row", "event", string(ev.Event))
			return domain.Frame{}, false
		}
		if ev.New.ReceiverID != "" && ev.New.ReceiverID != c.userID {
			c.logger.Warn("dropping change for another receiver", "notification_id", ev.New.ID)
			return domain.Frame{}, false
		}
		return domain.Frame{Event: &ev}, true
	default:
		c.logger.Debug("ignoring frame", "event", string(ev.Event))
		return domain.Frame{}, false
	}
}

// emit delivers f unless the channel was closed locally.
func (c *channel) emit(f domain.Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.frames <- f:
		return true
	case <-c.done:
		return false
	}
}

func classify(err error) domain.ChannelStatus {
	var netErr net.Error
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		return domain.StatusClosed
	case errors.As(err, &netErr) && netErr.Timeout():
		return domain.StatusTimedOut
	default:
		return domain.StatusChannelError
	}
}
