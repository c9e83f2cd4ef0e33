package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"golang.org/x/time/rate"

	"github.com/ewhitfield/questboard/internal/config"
	"github.com/ewhitfield/questboard/internal/handler"
	"github.com/ewhitfield/questboard/internal/middleware"
	"github.com/ewhitfield/questboard/internal/notify"
	"github.com/ewhitfield/questboard/internal/store"
	ws "github.com/ewhitfield/questboard/internal/websocket"
)

type Server struct {
	db            *sql.DB
	cfg           *config.Config
	hub           *ws.Hub
	authH         *handler.AuthHandler
	householdH    *handler.HouseholdHandler
	memberH       *handler.MemberHandler
	questH        *handler.QuestHandler
	leaderboardH  *handler.LeaderboardHandler
	notificationH *handler.NotificationHandler
	userStore     *store.UserStore
	sessionStore  *store.SessionStore
	scheduler     *notify.Scheduler
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	memberStore := store.NewMemberStore(db)
	questStore := store.NewQuestStore(db)
	notificationStore := store.NewNotificationStore(db)
	sessionStore := store.NewSessionStore(db)

	scheduler := notify.NewScheduler(questStore, notificationStore, hub,
		logger.With("component", "notify"), cfg.NotifyInterval, cfg.DueSoonWindow)

	// Per-IP token bucket sized so a client gets cfg.LoginRatePerMinute
	// attempts per minute on the auth routes.
	perSecond := rate.Limit(float64(cfg.LoginRatePerMinute) / 60.0)
	rateLimiter := middleware.NewRateLimiter(perSecond, cfg.LoginRatePerMinute)

	return &Server{
		db:            db,
		cfg:           cfg,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		householdH:    handler.NewHouseholdHandler(householdStore, memberStore, hub, logger.With("component", "household")),
		memberH:       handler.NewMemberHandler(memberStore, userStore, hub, logger.With("component", "member")),
		questH:        handler.NewQuestHandler(questStore, memberStore, hub, logger.With("component", "quest")),
		leaderboardH:  handler.NewLeaderboardHandler(memberStore, logger.With("component", "leaderboard")),
		notificationH: handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		userStore:     userStore,
		sessionStore:  sessionStore,
		scheduler:     scheduler,
		rateLimiter:   rateLimiter,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Scheduler returns the notification scheduler.
func (s *Server) Scheduler() *notify.Scheduler {
	return s.scheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	limited := middleware.RateLimit(s.rateLimiter, middleware.RealIP)
	outerMux.Handle("POST /api/auth/register", limited(http.HandlerFunc(s.authH.Register)))
	outerMux.Handle("POST /api/auth/login", limited(http.HandlerFunc(s.authH.Login)))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", middleware.MetricsHandler(s.cfg.MetricsUser, s.cfg.MetricsPass))

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	var h http.Handler = outerMux
	if len(s.cfg.AllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.cfg.AllowedOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
			handlers.AllowCredentials(),
		)(h)
	}

	h = middleware.Metrics()(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Auth
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Households
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("PATCH /api/households/{id}", s.householdH.Update)

	// Members
	mux.HandleFunc("GET /api/households/{id}/members", s.memberH.List)
	mux.HandleFunc("POST /api/households/{id}/members", s.memberH.Add)
	mux.HandleFunc("PATCH /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Remove)

	// Quests
	mux.HandleFunc("GET /api/households/{id}/quests", s.questH.List)
	mux.HandleFunc("POST /api/households/{id}/quests", s.questH.Create)
	mux.HandleFunc("PATCH /api/quests/{id}", s.questH.Update)
	mux.HandleFunc("DELETE /api/quests/{id}", s.questH.Delete)
	mux.HandleFunc("POST /api/quests/{id}/claim", s.questH.Claim)
	mux.HandleFunc("POST /api/quests/{id}/complete", s.questH.Complete)

	// Leaderboard
	mux.HandleFunc("GET /api/households/{id}/leaderboard", s.leaderboardH.Get)

	// Notifications
	mux.HandleFunc("GET /api/households/{id}/notifications", s.notificationH.List)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)

	// Real-time sync
	mux.Handle("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
