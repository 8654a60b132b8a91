package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saransh1220/notify-relay/internal/gateway/middleware"
	notification_http "github.com/saransh1220/notify-relay/internal/modules/notification/interfaces/http"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleWare
	NotificationHandler *notification_http.NotificationHandler
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()
	auth := config.AuthMiddleware.RequireAuth
	h := config.NotificationHandler

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Notification Routes
	mux.Handle("GET /notifications", auth(http.HandlerFunc(h.ListNotifications)))
	mux.Handle("GET /notifications/latest", auth(http.HandlerFunc(h.Latest)))
	mux.Handle("GET /notifications/unread-count", auth(http.HandlerFunc(h.UnreadCount)))
	mux.Handle("PATCH /notifications/{id}/read", auth(http.HandlerFunc(h.MarkAsRead)))
	mux.Handle("PATCH /notifications/read-all", auth(http.HandlerFunc(h.MarkAllAsRead)))
	mux.Handle("PATCH /notifications/rooms/{roomId}/read", auth(http.HandlerFunc(h.MarkRoomAsRead)))
	mux.Handle("POST /notifications", auth(config.AuthMiddleware.RequireRole("service", "admin")(http.HandlerFunc(h.CreateNotification))))

	// Profile Routes
	mux.Handle("GET /profiles/{id}/display", auth(http.HandlerFunc(h.ProfileDisplay)))

	// Change feed
	mux.Handle("GET /ws", auth(http.HandlerFunc(h.Subscribe)))

	return mux
}

// NewHandler wraps the routes with the shared middleware chain.
func NewHandler(config RouterConfig, allowedOrigins string) http.Handler {
	return middleware.CORSMiddleware(middleware.PrometheusMiddleware(SetupRoutes(config)), allowedOrigins)
}
