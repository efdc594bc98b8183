package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/auth"
	"github.com/prem-prasad1710/ritualos/internal/handler"
	"github.com/prem-prasad1710/ritualos/internal/metrics"
	"github.com/prem-prasad1710/ritualos/internal/middleware"
	"github.com/prem-prasad1710/ritualos/internal/store"
	ws "github.com/prem-prasad1710/ritualos/internal/websocket"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type Config struct {
	Issuer *auth.TokenIssuer
	// Clock defaults to time.Now.
	Clock handler.Clock
	// AllowedOrigins lists cross-origin hosts allowed to open websockets.
	AllowedOrigins []string
	Logger         *slog.Logger
}

type Server struct {
	db      *sql.DB
	hub     *ws.Hub
	metrics *metrics.Metrics

	authH        *handler.AuthHandler
	ritualH      *handler.RitualHandler
	loopH        *handler.LoopHandler
	stackH       *handler.HabitStackHandler
	sessionH     *handler.SessionHandler
	achievementH *handler.AchievementHandler
	challengeH   *handler.ChallengeHandler
	circleH      *handler.CircleHandler
	marketH      *handler.MarketplaceHandler
	moodH        *handler.MoodHandler
	journalH     *handler.JournalHandler

	issuer         *auth.TokenIssuer
	userStore      *store.UserStore
	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
	logger         *slog.Logger
}

func New(db *sql.DB, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	m := metrics.New()

	userStore := store.NewUserStore(db)
	circleStore := store.NewCircleStore(db)

	return &Server{
		db:      db,
		hub:     hub,
		metrics: m,

		authH:        handler.NewAuthHandler(userStore, cfg.Issuer, logger.With("component", "auth")),
		ritualH:      handler.NewRitualHandler(store.NewRitualStore(db), logger.With("component", "ritual")),
		loopH:        handler.NewLoopHandler(store.NewLoopStore(db), logger.With("component", "loop")),
		stackH:       handler.NewHabitStackHandler(store.NewHabitStackStore(db), logger.With("component", "habit_stack")),
		sessionH:     handler.NewSessionHandler(store.NewSessionStore(db), circleStore, hub, m, logger.With("component", "session"), now),
		achievementH: handler.NewAchievementHandler(store.NewAchievementStore(db), logger.With("component", "achievement")),
		challengeH:   handler.NewChallengeHandler(store.NewChallengeStore(db), m, logger.With("component", "challenge"), now),
		circleH:      handler.NewCircleHandler(circleStore, hub, m, logger.With("component", "circle"), now),
		marketH:      handler.NewMarketplaceHandler(store.NewCommunityStore(db), hub, m, logger.With("component", "marketplace")),
		moodH:        handler.NewMoodHandler(store.NewMoodStore(db), logger.With("component", "mood"), now),
		journalH:     handler.NewJournalHandler(store.NewJournalStore(db), logger.With("component", "journal"), now),

		issuer:         cfg.Issuer,
		userStore:      userStore,
		rateLimiter:    middleware.NewRateLimiter(),
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	s.handle(outerMux, "POST /api/auth/register", s.rateLimited(s.authH.Register))
	s.handle(outerMux, "POST /api/auth/login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", s.metrics.Handler())

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.issuer, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

// handle registers h under pattern with request metrics labelled by the
// pattern, since nested muxes hide it from outer middleware.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.metrics.Instrument(pattern, h))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, authRateLimit, authRateWindow)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	s.handle(mux, "GET /api/me", s.authH.Me)
	s.handle(mux, "PUT /api/me", s.authH.UpdateMe)

	s.handle(mux, "GET /api/rituals", s.ritualH.List)
	s.handle(mux, "POST /api/rituals", s.ritualH.Create)
	s.handle(mux, "PUT /api/rituals/{id}", s.ritualH.Update)
	s.handle(mux, "DELETE /api/rituals/{id}", s.ritualH.Delete)

	s.handle(mux, "GET /api/loops", s.loopH.List)
	s.handle(mux, "POST /api/loops", s.loopH.Create)
	s.handle(mux, "GET /api/loops/{id}", s.loopH.Get)
	s.handle(mux, "PUT /api/loops/{id}", s.loopH.Update)
	s.handle(mux, "DELETE /api/loops/{id}", s.loopH.Delete)

	s.handle(mux, "GET /api/habit-stacks", s.stackH.List)
	s.handle(mux, "POST /api/habit-stacks", s.stackH.Create)
	s.handle(mux, "PUT /api/habit-stacks/{id}", s.stackH.Update)
	s.handle(mux, "DELETE /api/habit-stacks/{id}", s.stackH.Delete)
	s.handle(mux, "POST /api/habit-stacks/{id}/toggle", s.stackH.Toggle)

	s.handle(mux, "GET /api/sessions", s.sessionH.List)
	s.handle(mux, "POST /api/sessions", s.sessionH.Start)
	s.handle(mux, "POST /api/sessions/{id}/complete", s.sessionH.Complete)

	s.handle(mux, "GET /api/achievements", s.achievementH.List)

	s.handle(mux, "GET /api/challenges", s.challengeH.List)
	s.handle(mux, "POST /api/challenges", s.challengeH.Create)
	s.handle(mux, "POST /api/challenges/join", s.challengeH.Join)
	s.handle(mux, "POST /api/challenges/checkin", s.challengeH.CheckIn)

	s.handle(mux, "GET /api/circles", s.circleH.List)
	s.handle(mux, "POST /api/circles", s.circleH.Create)
	s.handle(mux, "POST /api/circles/join", s.circleH.Join)
	s.handle(mux, "POST /api/circles/{id}/leave", s.circleH.Leave)

	s.handle(mux, "GET /api/marketplace", s.marketH.List)
	s.handle(mux, "POST /api/marketplace", s.marketH.Create)
	s.handle(mux, "POST /api/marketplace/{id}/use", s.marketH.Use)
	s.handle(mux, "POST /api/marketplace/{id}/rate", s.marketH.Rate)

	s.handle(mux, "GET /api/mood", s.moodH.List)
	s.handle(mux, "POST /api/mood", s.moodH.Create)
	s.handle(mux, "GET /api/mood/insights", s.moodH.Insights)

	s.handle(mux, "GET /api/journal", s.journalH.List)
	s.handle(mux, "POST /api/journal", s.journalH.Create)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.allowedOrigins))
}
