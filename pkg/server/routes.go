package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/careline/careline/pkg/auth"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/careline/careline/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/viper"
)

const ReadHeaderTimeout = 5 * time.Second

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) *http.Server {
	serverPort := viper.GetInt("server.port")
	router := setupRouter(appState)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", serverPort),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

func setupRouter(appState *models.AppState) *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.Heartbeat("/healthz"))

	if appState.Config.Auth.Required {
		log.Info("JWT authentication required")
		router.Use(auth.JWTVerifier(appState.Config))
		router.Use(jwtauth.Authenticator)
	}

	router.Route("/api/v1", func(r chi.Router) {
		// Chat-related routes
		r.Route("/chat/{callerId}", func(r chi.Router) {
			r.Post("/", PostChatHandler(appState))
			r.Route("/history", func(r chi.Router) {
				r.Get("/", GetChatHistoryHandler(appState))
				r.Delete("/", DeleteChatHistoryHandler(appState))
			})
		})
		// Caller-related routes
		r.Post("/caller", CreateCallerHandler(appState))
		r.Get("/caller", ListAllCallersHandler(appState))
		r.Route("/caller/{callerId}", func(r chi.Router) {
			r.Get("/", GetCallerHandler(appState))
			r.Patch("/", UpdateCallerHandler(appState))
			r.Delete("/", DeleteCallerHandler(appState))
			r.Get("/attributes", GetCallerAttributesHandler(appState))
		})
		// Rule-related routes
		r.Route("/rules", func(r chi.Router) {
			r.Post("/refresh", RefreshRulesHandler(appState))
			r.Get("/intents", GetIntentsHandler(appState))
		})
	})

	return router
}
