package restapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seen struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]string
}

func newServer(t *testing.T, status int, response interface{}) (*Client, *seen) {
	t.Helper()
	s := &seen{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.method, s.path, s.query = r.Method, r.URL.Path, r.URL.RawQuery
		s.auth = r.Header.Get("Authorization")
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&s.body)
		}
		if response == nil {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "tok", srv.Client(), nil), s
}

func TestClient_List(t *testing.T) {
	c, s := newServer(t, http.StatusOK, []notif.Record{{ID: "n1", Type: "invitation"}})
	unread := false

	recs, err := c.List(context.Background(), notif.Filter{IsRead: &unread, Limit: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "n1", recs[0].ID)
	assert.Equal(t, http.MethodGet, s.method)
	assert.Equal(t, "/notifications", s.path)
	assert.Equal(t, "is_read=false&limit=1", s.query)
	assert.Equal(t, "Bearer tok", s.auth)
}

func TestClient_UnreadCount(t *testing.T) {
	c, _ := newServer(t, http.StatusOK, map[string]int{"count": 4})
	n, err := c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestClient_MarkAsRead(t *testing.T) {
	c, s := newServer(t, http.StatusNoContent, nil)
	require.NoError(t, c.MarkAsRead(context.Background(), "n1"))
	assert.Equal(t, http.MethodPatch, s.method)
	assert.Equal(t, "/notifications/n1/read", s.path)
}

func TestClient_MarkAsReadError(t *testing.T) {
	c, _ := newServer(t, http.StatusNotFound, map[string]string{"error": "notification not found"})
	err := c.MarkAsRead(context.Background(), "n1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "notification not found", apiErr.Message)
}

func TestClient_Unauthorized(t *testing.T) {
	c, _ := newServer(t, http.StatusUnauthorized, nil)
	_, err := c.UnreadCount(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestClient_MarkAllAndRoom(t *testing.T) {
	c, s := newServer(t, http.StatusOK, map[string]int{"updated": 3})

	require.NoError(t, c.MarkAllAsRead(context.Background(), "me"))
	assert.Equal(t, "/notifications/read-all", s.path)

	n, err := c.MarkRoomMessagesAsRead(context.Background(), "me", "room 1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "/notifications/rooms/room 1/read", s.path)
}

func TestClient_Display(t *testing.T) {
	c, s := newServer(t, http.StatusOK, notif.ProfileDisplay{UserID: "u1", Name: "Mina"})
	d, err := c.Display(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Mina", d.Name)
	assert.Equal(t, "/profiles/u1/display", s.path)

	missing, _ := newServer(t, http.StatusNotFound, map[string]string{"error": "profile not found"})
	_, err = missing.Display(context.Background(), "ghost")
	assert.ErrorIs(t, err, notif.ErrProfileNotFound)
}

func TestClient_Actions(t *testing.T) {
	c, s := newServer(t, http.StatusNoContent, nil)

	require.NoError(t, c.AcceptInvitation(context.Background(), "inv-1"))
	assert.Equal(t, "/invitations/inv-1/accept", s.path)

	require.NoError(t, c.RejectInvitation(context.Background(), "inv-1"))
	assert.Equal(t, "/invitations/inv-1/reject", s.path)

	require.NoError(t, c.ReplyToMessage(context.Background(), "room-1", "hi"))
	assert.Equal(t, http.MethodPost, s.method)
	assert.Equal(t, "/chat/rooms/room-1/messages", s.path)
	assert.Equal(t, "hi", s.body["content"])
}
