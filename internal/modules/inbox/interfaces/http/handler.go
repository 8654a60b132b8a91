package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/application"
	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
	"github.com/saransh1220/notify-relay/internal/shared/utils"
)

// Session reports the user of the running inbox session.
type Session interface {
	UserID() string
}

type Deps struct {
	Session      Session
	Delivery     *application.Delivery
	Presence     *application.RoomPresence
	Ledger       *application.Ledger
	Banner       *application.BannerController
	Gateway      *application.MutationGateway
	Subscription *application.SubscriptionManager
}

// Handler is the loopback bridge the host app uses to feed native push and
// chat presence into the inbox and to drive the banner.
type Handler struct {
	Deps
	logger *slog.Logger
}

func NewHandler(deps Deps, logger *slog.Logger) *Handler {
	return &Handler{Deps: deps, logger: logging.OrDefault(logger).With("component", "inbox_bridge")}
}

// Register mounts the bridge routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /push-received", h.PushReceived)
	mux.HandleFunc("PUT /presence", h.EnterRoom)
	mux.HandleFunc("DELETE /presence", h.LeaveRoom)
	mux.HandleFunc("GET /state", h.State)
	mux.HandleFunc("GET /notifications", h.Notifications)
	mux.HandleFunc("POST /notifications/{id}/read", h.MarkAsRead)
	mux.HandleFunc("POST /notifications/read-all", h.MarkAllAsRead)
	mux.HandleFunc("POST /rooms/{roomId}/read", h.MarkRoomAsRead)
	mux.HandleFunc("POST /banner/interaction", h.Interaction)
	mux.HandleFunc("POST /banner/swipe", h.Swipe)
	mux.HandleFunc("POST /banner/close", h.CloseBanner)
	mux.HandleFunc("POST /banner/open", h.OpenBanner)
	mux.HandleFunc("POST /banner/accept", h.Accept)
	mux.HandleFunc("POST /banner/reject", h.Reject)
	mux.HandleFunc("POST /banner/reply", h.Reply)
}

type bannerState struct {
	Phase   string               `json:"phase"`
	Current *domain.Notification `json:"current,omitempty"`
	Queue   []string             `json:"queue"`
}

type stateResponse struct {
	UserID       string      `json:"user_id"`
	Subscription string      `json:"subscription"`
	Unread       int         `json:"unread"`
	CachedUnread int         `json:"cached_unread"`
	OpenRoom     string      `json:"open_room,omitempty"`
	Banner       bannerState `json:"banner"`
}

func (h *Handler) PushReceived(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	var payload domain.PushPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}
	if err := h.Delivery.OnPushReceived(r.Context(), payload); err != nil {
		utils.WriteError(w, http.StatusBadGateway, "fallback fetch failed", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) EnterRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID string `json:"room_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.RoomID == "" {
		h.Presence.Leave("")
	} else {
		h.Presence.Enter(req.RoomID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	h.Presence.Leave(r.URL.Query().Get("room_id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{
		UserID:       h.Session.UserID(),
		Subscription: h.Subscription.State().String(),
		Unread:       h.Ledger.Counter().Value(),
		CachedUnread: h.Ledger.Cache().UnreadCount(),
		OpenRoom:     h.Presence.Current(),
		Banner: bannerState{
			Phase: h.Banner.Phase().String(),
			Queue: h.Banner.QueueIDs(),
		},
	}
	if cur, ok := h.Banner.Current(); ok {
		resp.Banner.Current = &cur
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	items, err := h.Ledger.Cache().List(r.Context())
	if err != nil {
		h.logger.Warn("serving stale notification list", "error", err)
	}
	utils.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	if err := h.Gateway.MarkAsRead(r.Context(), r.PathValue("id")); err != nil {
		utils.WriteError(w, http.StatusBadGateway, "mark as read failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	if err := h.Gateway.MarkAllAsRead(r.Context(), h.Session.UserID()); err != nil {
		utils.WriteError(w, http.StatusBadGateway, "mark all as read failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkRoomAsRead(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w) {
		return
	}
	n, err := h.Gateway.MarkRoomMessagesAsRead(r.Context(), h.Session.UserID(), r.PathValue("roomId"))
	if err != nil {
		utils.WriteError(w, http.StatusBadGateway, "mark room as read failed", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (h *Handler) Interaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind   domain.Interaction `json:"kind"`
		Active bool               `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Kind == "" {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Active {
		h.Banner.InteractionStart(req.Kind)
	} else {
		h.Banner.InteractionEnd(req.Kind)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Swipe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Offset   float64 `json:"offset"`
		Velocity float64 `json:"velocity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	decision, err := h.Banner.Swipe(req.Offset, req.Velocity)
	if err != nil {
		h.writeBannerError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dismiss":   decision.Dismiss,
		"direction": decision.Direction,
	})
}

func (h *Handler) CloseBanner(w http.ResponseWriter, r *http.Request) {
	if err := h.Banner.Close(); err != nil {
		h.writeBannerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) OpenBanner(w http.ResponseWriter, r *http.Request) {
	dest, err := h.Banner.Open(r.Context())
	if err != nil && errors.Is(err, domain.ErrNoCurrentBanner) {
		h.writeBannerError(w, err)
		return
	}
	if err != nil {
		h.logger.Warn("open banner", "error", err)
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"destination": dest.String()})
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.writeActionResult(w, h.Banner.Accept(r.Context()))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.writeActionResult(w, h.Banner.Reject(r.Context()))
}

func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	h.writeActionResult(w, h.Banner.Reply(r.Context(), req.Text))
}

func (h *Handler) writeActionResult(w http.ResponseWriter, err error) {
	if err != nil {
		h.writeBannerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeBannerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoCurrentBanner):
		utils.WriteError(w, http.StatusConflict, "no banner is showing", nil)
	case errors.Is(err, domain.ErrUnsupportedAction):
		utils.WriteError(w, http.StatusUnprocessableEntity, "action not supported", nil)
	case errors.Is(err, domain.ErrEmptyReply):
		utils.WriteError(w, http.StatusBadRequest, "reply text is empty", nil)
	default:
		utils.WriteError(w, http.StatusBadGateway, "action failed", err)
	}
}

func (h *Handler) requireSession(w http.ResponseWriter) bool {
	if h.Session.UserID() == "" {
		utils.WriteError(w, http.StatusConflict, "no inbox session", domain.ErrSessionNotStarted)
		return false
	}
	return true
}
