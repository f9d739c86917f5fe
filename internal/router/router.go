package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studyhall-backend/internal/handlers"
	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/signal"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	sessionHandler *handlers.SessionHandler,
	progressHandler *handlers.ProgressHandler,
	roomHandler *handlers.RoomHandler,
	rtcHandler *handlers.RTCHandler,
	backupHandler *handlers.BackupHandler,
	hub *signal.Hub,
	frontendURL string,
	authRateLimit int,
	authRateWindow time.Duration,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	authLimiter := middleware.NewRateLimiter(authRateLimit, authRateWindow)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		// ──── Study Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", sessionHandler.List)
			r.Post("/", sessionHandler.Create)
			r.Get("/{id}", sessionHandler.Get)
			r.Put("/{id}", sessionHandler.Update)
			r.Delete("/{id}", sessionHandler.Delete)
			r.Post("/{id}/join", sessionHandler.Join)
			r.Post("/{id}/leave", sessionHandler.Leave)
			r.Post("/{id}/redeem", sessionHandler.RedeemCode)
		})

		// ──── Progress Routes ────
		r.Route("/progress", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/stats", progressHandler.Stats)
			r.Get("/history", progressHandler.History)
			r.Get("/achievements", progressHandler.Achievements)
			r.Post("/complete", progressHandler.CompleteSession)
			r.Put("/weekly-goal", progressHandler.SetWeeklyGoal)
		})

		// ──── Room Timer Routes ────
		r.Route("/rooms", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/durations", roomHandler.SuggestedDurations)
			r.Post("/{id}/timer/start", roomHandler.StartTimer)
			r.Post("/{id}/timer/pause", roomHandler.PauseTimer)
			r.Post("/{id}/timer/resume", roomHandler.ResumeTimer)
			r.Post("/{id}/timer/stop", roomHandler.StopTimer)
			r.Get("/{id}/timer", roomHandler.TimerState)
		})

		// ──── WebRTC Routes (manual connection-string path) ────
		r.Route("/rtc", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/join", rtcHandler.JoinRoom)
			r.Post("/leave", rtcHandler.LeaveRoom)
			r.Post("/offer", rtcHandler.CreateOffer)
			r.Post("/accept", rtcHandler.AcceptOffer)
			r.Post("/answer", rtcHandler.HandleAnswer)
			r.Post("/ice", rtcHandler.AddICECandidate)
			r.Post("/camera", rtcHandler.ToggleCamera)
			r.Post("/microphone", rtcHandler.ToggleMicrophone)
		})

		// ──── Backup Routes ────
		r.Route("/data", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/export", backupHandler.Export)
			r.Post("/import", backupHandler.Import)
		})

		// ──── WebSocket Signaling ────
		r.Get("/ws", hub.HandleWebSocket)
	})

	return r
}
