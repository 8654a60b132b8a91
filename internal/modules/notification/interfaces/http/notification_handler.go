package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/saransh1220/notify-relay/internal/gateway/middleware"
	"github.com/saransh1220/notify-relay/internal/modules/notification/application"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/modules/notification/infrastructure/websocket"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
	"github.com/saransh1220/notify-relay/internal/shared/utils"
)

type NotificationHandler struct {
	service *application.NotificationService
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewNotificationHandler(service *application.NotificationService, hub *websocket.Hub, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		hub:     hub,
		logger:  logging.OrDefault(logger).With("component", "notification_handler"),
	}
}

type createRequest struct {
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Content     string                 `json:"content"`
	RelatedID   string                 `json:"related_id"`
	RelatedType string                 `json:"related_type"`
	SenderID    string                 `json:"sender_id"`
	ReceiverID  string                 `json:"receiver_id"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// Subscribe upgrades to the change feed for the authenticated user.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	websocket.ServeWs(h.hub, w, r, userID)
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	q := r.URL.Query()
	filter := domain.Filter{Type: q.Get("type"), Limit: 20}
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			filter.Limit = v
		}
	}
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			filter.Offset = v
		}
	}
	if s := q.Get("is_read"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "invalid is_read", err)
			return
		}
		filter.IsRead = &v
	}

	rows, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("list notifications failed", "user_id", userID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch notifications", nil)
		return
	}
	if rows == nil {
		rows = []domain.Record{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}

// Latest returns the newest unread notification; data is null when there is none.
func (h *NotificationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	rec, err := h.service.Latest(r.Context(), userID)
	if err != nil {
		h.logger.Error("latest notification failed", "user_id", userID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch notification", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": rec})
}

func (h *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rec, err := h.service.Create(r.Context(), application.CreateInput{
		Type:        req.Type,
		Title:       req.Title,
		Content:     req.Content,
		RelatedID:   req.RelatedID,
		RelatedType: req.RelatedType,
		SenderID:    req.SenderID,
		ReceiverID:  req.ReceiverID,
		Metadata:    req.Metadata,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidNotification) {
			utils.WriteError(w, http.StatusBadRequest, "invalid notification", err)
			return
		}
		h.logger.Error("create notification failed", "receiver_id", req.ReceiverID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to create notification", nil)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, rec)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "invalid notification id", nil)
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	if err := h.service.MarkAsRead(r.Context(), id, userID); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			utils.WriteError(w, http.StatusNotFound, "notification not found", nil)
			return
		}
		h.logger.Error("mark as read failed", "notification_id", id, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to mark notification as read", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	n, err := h.service.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		h.logger.Error("mark all as read failed", "user_id", userID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to mark all notifications as read", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *NotificationHandler) MarkRoomAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	n, err := h.service.MarkRoomMessagesAsRead(r.Context(), userID, r.PathValue("roomId"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidNotification) {
			utils.WriteError(w, http.StatusBadRequest, "invalid room id", nil)
			return
		}
		h.logger.Error("mark room as read failed", "user_id", userID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to mark room as read", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to get unread count", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *NotificationHandler) ProfileDisplay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	display, err := h.service.ProfileDisplay(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			utils.WriteError(w, http.StatusNotFound, "profile not found", nil)
			return
		}
		h.logger.Error("profile display failed", "profile_id", id, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load profile", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, display)
}
