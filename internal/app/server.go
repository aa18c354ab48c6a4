package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"clauselens/internal/api/handlers"
	appMiddleware "clauselens/internal/api/middlewares"
	"clauselens/internal/config"
	"clauselens/internal/core"
	"clauselens/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.SugaredLogger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, analysis *services.AnalysisService, history *services.HistoryService, account *services.AccountService, chat core.ChatProvider, log *zap.SugaredLogger) *Server {
	authHandler := handlers.NewAuthHandler(db, account, cfg.JWTSecret, log)
	docHandler := handlers.NewDocumentHandler(analysis, cfg, log)
	chatHandler := handlers.NewChatHandler(history, analysis, chat)
	historyHandler := handlers.NewHistoryHandler(history, db, log)
	prefsHandler := handlers.NewPrefsHandler(db)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// The page shell and fragments are static assets.
	fileServer := http.FileServer(http.Dir(cfg.WebDir))
	r.Handle("/*", fileServer)

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)
		api.Get("/languages", prefsHandler.Languages)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
			protected.Use(middleware.Timeout(2 * time.Minute))

			protected.Post("/documents/analyze", docHandler.AnalyzeDocument)
			protected.Get("/history", historyHandler.List)
			protected.Get("/history/{id}", historyHandler.Get)
			protected.Post("/chat/ask", chatHandler.Ask)
			protected.Get("/checklist", prefsHandler.GetChecklist)
			protected.Post("/checklist/toggle", prefsHandler.ToggleChecklist)
			protected.Get("/preferences/theme", prefsHandler.GetTheme)
			protected.Put("/preferences/theme", prefsHandler.SetTheme)
			protected.Delete("/account", authHandler.DeleteAccount)
		})

		// SSE stays open past the request timeout window
		api.Group(func(stream chi.Router) {
			stream.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
			stream.Get("/history/stream", historyHandler.Stream)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	s.log.Infow("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Fatalw("server error", "error", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Infow("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
