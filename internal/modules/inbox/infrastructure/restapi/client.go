package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to the notification server REST API on behalf of the session
// user. It serves as NotificationAPI, ProfileLookup and ActionService.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, token string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    httpClient,
		logger:  logging.OrDefault(logger).With("component", "restapi"),
	}
}

func (c *Client) List(ctx context.Context, filter notif.Filter) ([]notif.Record, error) {
	q := url.Values{}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}
	if filter.IsRead != nil {
		q.Set("is_read", strconv.FormatBool(*filter.IsRead))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	path := "/notifications"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []notif.Record
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &out); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return out.Count, nil
}

func (c *Client) MarkAsRead(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil, nil); err != nil {
		return fmt.Errorf("mark as read: %w", err)
	}
	return nil
}

// MarkAllAsRead acts on the token's user; userID is only logged.
func (c *Client) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := c.do(ctx, http.MethodPatch, "/notifications/read-all", nil, nil); err != nil {
		return fmt.Errorf("mark all as read: %w", err)
	}
	c.logger.Debug("marked all read", "user_id", userID)
	return nil
}

func (c *Client) MarkRoomMessagesAsRead(ctx context.Context, userID, roomID string) (int, error) {
	var out struct {
		Updated int `json:"updated"`
	}
	if err := c.do(ctx, http.MethodPatch, "/notifications/rooms/"+url.PathEscape(roomID)+"/read", nil, &out); err != nil {
		return 0, fmt.Errorf("mark room as read: %w", err)
	}
	c.logger.Debug("marked room read", "user_id", userID, "room_id", roomID, "updated", out.Updated)
	return out.Updated, nil
}

func (c *Client) Display(ctx context.Context, userID string) (notif.ProfileDisplay, error) {
	var out notif.ProfileDisplay
	err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(userID)+"/display", nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return notif.ProfileDisplay{}, fmt.Errorf("profile %s: %w", userID, notif.ErrProfileNotFound)
	}
	if err != nil {
		return notif.ProfileDisplay{}, fmt.Errorf("profile %s: %w", userID, err)
	}
	return out, nil
}

func (c *Client) AcceptInvitation(ctx context.Context, invitationID string) error {
	return c.do(ctx, http.MethodPost, "/invitations/"+url.PathEscape(invitationID)+"/accept", nil, nil)
}

func (c *Client) RejectInvitation(ctx context.Context, invitationID string) error {
	return c.do(ctx, http.MethodPost, "/invitations/"+url.PathEscape(invitationID)+"/reject", nil, nil)
}

func (c *Client) ReplyToMessage(ctx context.Context, roomID, text string) error {
	body := map[string]string{"content": text}
	return c.do(ctx, http.MethodPost, "/chat/rooms/"+url.PathEscape(roomID)+"/messages", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
