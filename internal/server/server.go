package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/psicopps/ppsadmin/internal/auth"
	"github.com/psicopps/ppsadmin/internal/backup"
	"github.com/psicopps/ppsadmin/internal/config"
	"github.com/psicopps/ppsadmin/internal/handler"
	"github.com/psicopps/ppsadmin/internal/middleware"
	"github.com/psicopps/ppsadmin/internal/notify"
	"github.com/psicopps/ppsadmin/internal/seleccion"
	"github.com/psicopps/ppsadmin/internal/store"
	ws "github.com/psicopps/ppsadmin/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	launchH       *handler.LaunchHandler
	enrollmentH   *handler.EnrollmentHandler
	penaltyH      *handler.PenaltyHandler
	studentH      *handler.StudentHandler
	pushH         *handler.PushHandler
	backupH       *handler.BackupHandler
	issuer        *auth.TokenIssuer
	cronSecret    string
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	launchStore := store.NewLaunchStore(db)
	enrollmentStore := store.NewEnrollmentStore(db)
	studentStore := store.NewStudentStore(db)
	practiceStore := store.NewPracticeStore(db)
	penaltyStore := store.NewPenaltyStore(db)
	userStore := store.NewUserStore(db)
	pushStore := store.NewPushStore(db)
	tableStore := store.NewTableStore(db)
	backupConfigStore := store.NewBackupConfigStore(db)
	backupHistoryStore := store.NewBackupHistoryStore(db)

	var pushSvc *notify.PushService
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = notify.NewPushService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subscriber)
	}
	emailClient := notify.NewEmailClient(cfg.Email.ServerToken, cfg.Email.FromAddress)
	notifier := notify.NewSelectionNotifier(pushSvc, emailClient, pushStore, logger.With("component", "notify"))

	engine := seleccion.NewEngine(
		launchStore, enrollmentStore, studentStore, practiceStore, penaltyStore,
		notifier, hub, logger.With("component", "seleccion"),
	)

	backupMgr := backup.NewManager(
		backup.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
		},
		backupConfigStore, backupHistoryStore, tableStore,
		hub, logger.With("component", "backup"),
		nil,
	)

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenHours)*time.Hour)

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, issuer, logger.With("component", "auth")),
		launchH:       handler.NewLaunchHandler(launchStore, engine, logger.With("component", "launch")),
		enrollmentH:   handler.NewEnrollmentHandler(engine, logger.With("component", "enrollment")),
		penaltyH:      handler.NewPenaltyHandler(engine, penaltyStore, logger.With("component", "penalty")),
		studentH:      handler.NewStudentHandler(studentStore, practiceStore, penaltyStore, logger.With("component", "student")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push")),
		backupH:       handler.NewBackupHandler(backupMgr, backupConfigStore, backupHistoryStore, logger.With("component", "backup_handler")),
		issuer:        issuer,
		cronSecret:    cfg.Auth.CronSecret,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// BackupManager returns the backup manager so main can run its scheduler.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// The backup trigger accepts the cron secret so the external scheduler
	// can fire automatic backups without a user token.
	cronAuth := middleware.RequireAuthOrCronKey(s.issuer, s.cronSecret)
	outerMux.Handle("POST /api/backups/run", cronAuth(http.HandlerFunc(s.backupH.Run)))

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.issuer)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Launch and candidate routes
	mux.HandleFunc("GET /api/lanzamientos", s.launchH.List)
	mux.HandleFunc("POST /api/lanzamientos", s.launchH.Create)
	mux.HandleFunc("GET /api/lanzamientos/{id}/candidatos", s.launchH.Candidates)
	mux.HandleFunc("POST /api/lanzamientos/{id}/cerrar", s.launchH.Close)

	// Enrollment routes
	mux.HandleFunc("POST /api/convocatorias/{id}/seleccion", s.enrollmentH.ToggleSelection)
	mux.HandleFunc("PUT /api/convocatorias/{id}/horario", s.enrollmentH.AssignSchedule)

	// Penalty routes
	mux.HandleFunc("POST /api/penalizaciones", s.penaltyH.Create)
	mux.HandleFunc("DELETE /api/penalizaciones/{id}", s.penaltyH.Deactivate)

	// Student routes
	mux.HandleFunc("GET /api/estudiantes/{id}", s.studentH.Get)
	mux.HandleFunc("GET /api/estudiantes/{id}/practicas", s.studentH.Practices)
	mux.HandleFunc("GET /api/estudiantes/{id}/penalizaciones", s.studentH.Penalties)

	// Push notification routes
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscribe", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)

	// Backup routes (the trigger itself lives on the outer mux)
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("GET /api/backups/history", s.backupH.History)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backups/restore", s.backupH.Restore)
	mux.HandleFunc("GET /api/backups/config", s.backupH.GetConfig)
	mux.HandleFunc("PUT /api/backups/config", s.backupH.UpdateConfig)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
