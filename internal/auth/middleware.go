package auth

import (
	"Shortlytics-Backend/internal/domain"
	"context"
	"errors"
	"net/http"
	"slices"

	"go.uber.org/zap"
)

// ContextKey тип для ключей контекста
type ContextKey string

const (
	// UserIDKey ключ для получения ID пользователя из контекста
	UserIDKey ContextKey = "user_id"
)

var errNoCredentials = errors.New("authorization required")

// UserStore находит или заводит локального пользователя по данным токена
type UserStore interface {
	FindOrCreateUser(ctx context.Context, externalID, email, name string) (*domain.User, error)
}

// Middleware JWT middleware для HTTP обработчиков
type Middleware struct {
	jwtService     *JWTService
	users          UserStore
	allowedOrigins []string
	log            *zap.Logger
}

// NewMiddleware создает новый JWT middleware
func NewMiddleware(jwtService *JWTService, users UserStore, allowedOrigins []string, log *zap.Logger) *Middleware {
	return &Middleware{
		jwtService:     jwtService,
		users:          users,
		allowedOrigins: allowedOrigins,
		log:            log,
	}
}

// RequireAuth middleware для проверки JWT токена
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticate(r)
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(ctx))
		case errors.Is(err, errNoCredentials):
			http.Error(w, "Authorization required", http.StatusUnauthorized)
		case errors.Is(err, ErrExpiredToken):
			http.Error(w, "Token expired", http.StatusUnauthorized)
		case errors.Is(err, ErrInvalidToken):
			http.Error(w, "Invalid token", http.StatusUnauthorized)
		default:
			m.log.Error("failed to resolve authenticated user", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

// OptionalAuth middleware для опциональной проверки JWT токена
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticate(r)
		if err != nil {
			// Для опционального middleware запрос продолжается анонимно
			if !errors.Is(err, errNoCredentials) {
				m.log.Debug("optional auth: request continues anonymously", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (m *Middleware) authenticate(r *http.Request) (context.Context, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errNoCredentials
	}

	tokenString := ExtractTokenFromBearer(authHeader)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims, err := m.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := m.users.FindOrCreateUser(r.Context(), claims.Subject, claims.Email, claims.Name)
	if err != nil {
		return nil, err
	}

	m.log.Debug("authenticated user",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email))

	// Добавляем информацию о пользователе в контекст
	return context.WithValue(r.Context(), UserIDKey, user.ID), nil
}

// GetUserIDFromContext извлекает ID пользователя из контекста
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// CORS middleware для обработки CORS запросов
func (m *Middleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && slices.Contains(m.allowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		// Обработка preflight OPTIONS запросов
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
