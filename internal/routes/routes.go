package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bishalstha/chat-api/internal/handlers"
)

// NewRouter sets up the API routes
func NewRouter(auth *handlers.AuthHandler, users *handlers.UserHandler, messages *handlers.MessageHandler) *mux.Router {
	router := mux.NewRouter()

	// Health check and metrics
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Public auth endpoints
	router.HandleFunc("/api/register", auth.Register).Methods(http.MethodPost)
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)

	// Authenticated endpoints
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)
	api.HandleFunc("/users", users.List).Methods(http.MethodGet)
	api.HandleFunc("/messages", messages.List).Methods(http.MethodGet)
	api.HandleFunc("/messages", messages.Create).Methods(http.MethodPost)
	api.HandleFunc("/messages/{messageID}", messages.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/messages/{messageID}/read", messages.MarkRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/test", messages.TestNotify).Methods(http.MethodPost)

	return router
}
