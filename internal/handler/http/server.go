package http

import (
	"Shortlytics-Backend/internal/auth"
	"Shortlytics-Backend/internal/ratelimit"
	"Shortlytics-Backend/internal/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Services прикладные сервисы, которые обслуживает HTTP слой
type Services struct {
	Registrar *service.Registrar
	Resolver  *service.Resolver
	Reports   *service.Reports
}

// Server HTTP сервер с обработчиками
type Server struct {
	linksHandler     *LinksHandler
	redirectHandler  *RedirectHandler
	analyticsHandler *AnalyticsHandler
	healthHandler    *HealthHandler
	authMiddleware   *auth.Middleware
	rateLimiter      *ratelimit.Limiter
	allowAnonymous   bool
	log              *zap.Logger
}

// NewServer создает новый HTTP сервер. rateLimiter может быть nil, тогда лимит не применяется.
func NewServer(
	services Services,
	authMiddleware *auth.Middleware,
	rateLimiter *ratelimit.Limiter,
	checks HealthChecks,
	allowAnonymous bool,
	log *zap.Logger,
) *Server {
	return &Server{
		linksHandler:     NewLinksHandler(services.Registrar, services.Reports, allowAnonymous, log),
		redirectHandler:  NewRedirectHandler(services.Resolver, log),
		analyticsHandler: NewAnalyticsHandler(services.Reports, log),
		healthHandler:    NewHealthHandler(checks, log),
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		allowAnonymous:   allowAnonymous,
		log:              log,
	}
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks (без аутентификации и лимитов)
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)
	mux.HandleFunc("GET /metrics", s.healthHandler.Metrics)

	// Swagger документация
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Создание ссылки: анонимно только если разрешено конфигурацией
	createAuth := s.authMiddleware.RequireAuth
	if s.allowAnonymous {
		createAuth = s.authMiddleware.OptionalAuth
	}
	mux.Handle("POST /api/shorten", s.limited(createAuth(s.linksHandler.CreateLink)))
	mux.Handle("GET /api/shorten", s.limited(s.authMiddleware.RequireAuth(s.linksHandler.ListLinks)))
	mux.Handle("GET /api/home", s.limited(s.authMiddleware.RequireAuth(s.linksHandler.Home)))

	// Redirect endpoint (без аутентификации)
	mux.Handle("GET /api/shorten/{alias}", s.limited(s.authMiddleware.OptionalAuth(s.redirectHandler.HandleRedirect)))

	// Analytics endpoints
	mux.Handle("GET /api/analytics/topic/{topic}", s.limited(s.analyticsHandler.GetTopicAnalytics))
	mux.Handle("GET /api/analytics/{alias}", s.limited(s.analyticsHandler.GetAliasAnalytics))
	mux.Handle("GET /api/overallAnalytics", s.limited(s.analyticsHandler.GetOverallAnalytics))

	return s.authMiddleware.CORS(mux)
}

// limited применяет лимит запросов по IP
func (s *Server) limited(handler http.HandlerFunc) http.Handler {
	if s.rateLimiter == nil {
		return handler
	}
	return s.rateLimiter.Middleware(handler)
}
