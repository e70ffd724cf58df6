// Package server contains the browser and JSON HTTP surfaces and the notification feed.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "mentorbridge/docs" // swagger docs
	"mentorbridge/internal/config"
	"mentorbridge/internal/featureflags"
	"mentorbridge/internal/middleware"
	"mentorbridge/internal/notifications"
	"mentorbridge/internal/repository"
	"mentorbridge/internal/service"
	"mentorbridge/internal/session"
	"mentorbridge/internal/token"
	"mentorbridge/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Deps are the already-initialized collaborators a Server is built from.
type Deps struct {
	Users   repository.UserRepository
	Matches repository.MatchRepository
	// Redis is optional: without it sessions and limits are in-memory and
	// the notification feed is unavailable.
	Redis *redis.Client
	// StorePing reports primary store health for the readiness probe.
	StorePing func(ctx context.Context) error
	// BcryptCost overrides bcrypt.DefaultCost when non-zero.
	BcryptCost int
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	redis          *redis.Client
	storePing      func(ctx context.Context) error
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	keyring      *token.Keyring
	sessions     *fibersession.Store
	cookieKey    string
	oldCookieKey []string
	featureFlags *featureflags.Manager
	notifier     *notifications.Notifier

	authService    *service.AuthService
	profileService *service.ProfileService
	matchService   *service.MatchService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Users == nil || deps.Matches == nil {
		return nil, fmt.Errorf("server needs user and match repositories")
	}

	if cfg.IsProduction() && !token.StrongEnough(cfg.JWTSecret) {
		return nil, fmt.Errorf("JWT_SECRET is too short for %s", cfg.Env)
	}

	keyID := cfg.JWTKeyID
	if keyID == "" {
		keyID = token.DefaultKeyID
	}
	previous, err := token.ParsePreviousSecrets(cfg.JWTPreviousSecrets)
	if err != nil {
		return nil, fmt.Errorf("JWT_PREVIOUS_SECRETS: %w", err)
	}
	keyring, err := token.NewKeyring(
		token.Key{ID: keyID, Secret: []byte(cfg.JWTSecret)},
		previous,
		time.Duration(cfg.JWTTTLHoursOrDefault())*time.Hour,
	)
	if err != nil {
		return nil, fmt.Errorf("token keyring: %w", err)
	}

	cookieKey, oldCookieKeys, err := session.ResolveKeys(cfg.SessionCookieKey, cfg.SessionPreviousCookieKeys, cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	var sessionStorage fiber.Storage
	if deps.Redis != nil {
		sessionStorage = session.NewRedisStorage(deps.Redis, "sess:")
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	notifier := notifications.NewNotifier(deps.Redis, flags)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:         cfg,
		redis:          deps.Redis,
		storePing:      deps.StorePing,
		promMiddleware: middleware.InitMetrics("mentorbridge"),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		keyring:        keyring,
		sessions: session.NewStore(session.StoreConfig{
			Storage: sessionStorage,
			TTL:     time.Duration(cfg.SessionTTLHoursOrDefault()) * time.Hour,
			Secure:  cfg.IsProduction(),
		}),
		cookieKey:      cookieKey,
		oldCookieKey:   oldCookieKeys,
		featureFlags:   flags,
		notifier:       notifier,
		authService:    service.NewAuthService(deps.Users, deps.BcryptCost),
		profileService: service.NewProfileService(deps.Users),
		matchService:   service.NewMatchService(deps.Users, deps.Matches, notifier),
	}
	return s, nil
}

// App builds the Fiber application once and returns it.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "Mentor Bridge",
		Views:        views.New(),
		ErrorHandler: s.ErrorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagates request id and user id into the logging context.
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := strings.Join(s.config.AllowedOriginsList(), ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		// Fiber refuses credentials with a wildcard origin.
		AllowCredentials: origins != "*" && origins != "",
		MaxAge:           86400,
	}))

	app.Use(session.EncryptCookies(s.cookieKey, s.oldCookieKey))

	limiterCfg := limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests, please try again later.",
			})
		},
	}
	if s.redis != nil {
		limiterCfg.Storage = session.NewRedisStorage(s.redis, "limiter:")
	}
	app.Use(limiter.New(limiterCfg))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Browser surface
	app.Get("/", s.Home)
	app.Get("/login", s.LoginPage)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.LoginSubmit)
	app.Get("/register", s.RegisterPage)
	app.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.RegisterSubmit)
	app.Get("/logout", s.Logout)

	app.Get("/dashboard", s.SessionRequired(), s.Dashboard)
	app.Get("/profile", s.SessionRequired(), s.ProfilePage)
	app.Post("/profile", s.SessionRequired(), s.ProfileSubmit)
	app.Get("/admin", s.SessionRequired(), s.AdminRequired(), s.AdminPage)

	// Specific /:id/:action routes before the generic /:id route
	app.Post("/match/:id/accept", s.SessionRequired(), s.AcceptMatchSubmit)
	app.Post("/match/:id/decline", s.SessionRequired(), s.DeclineMatchSubmit)
	app.Post("/match/:id", s.SessionRequired(),
		middleware.RateLimit(s.redis, 20, time.Hour, "match_request"), s.RequestMatchSubmit)

	// JSON surface. Public routes are registered before the token group so
	// they match first.
	users := app.Group("/users")
	users.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.APIRegister)
	users.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.APILogin)

	protected := users.Group("", middleware.TokenRequired(s.keyring))
	protected.Get("/profile", s.APIGetProfile)
	protected.Put("/profile", s.APIUpdateProfile)
	protected.Get("/matches/mine", s.APIMyMatches)
	protected.Get("/matches", s.APIRecommendations)
	protected.Post("/matches", middleware.RateLimit(s.redis, 20, time.Hour, "match_request"), s.APIRequestMatch)
	protected.Put("/matches/:id/accept", s.APIAcceptMatch)
	protected.Put("/matches/:id/decline", s.APIDeclineMatch)
	protected.Post("/notifications/ticket", s.IssueNotificationTicket)

	app.Get("/ws/notifications", s.NotificationsUpgrade, s.NotificationsFeed())

	app.Use(s.NotFound)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the primary store and Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if s.storePing != nil {
		if err := s.storePing(ctx); err != nil {
			storeStatus = "unhealthy"
		}
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	app := s.App()
	slog.Info("server starting", "port", s.config.Port, "env", s.config.Env, "store", s.config.DBDriver)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and closes open notification feeds.
// Store and Redis connections belong to the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
	}
	slog.Info("server shutdown complete")
	return nil
}
