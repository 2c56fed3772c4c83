package http

import (
	"Shortlytics-Backend/internal/auth"
	"Shortlytics-Backend/internal/service"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RedirectHandler обработчик редиректов
type RedirectHandler struct {
	resolver *service.Resolver
	log      *zap.Logger
}

// NewRedirectHandler создает новый обработчик редиректов
func NewRedirectHandler(resolver *service.Resolver, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		resolver: resolver,
		log:      log,
	}
}

// HandleRedirect обрабатывает редирект по alias
//
//	@Summary		Redirect to the original URL
//	@Description	Resolves a short alias and redirects to the original URL, counting the click
//	@Tags			Redirect
//	@Param			alias	path	string	true	"Short URL alias"
//	@Success		302		"Redirect to the original URL"
//	@Failure		404		{object}	ErrorResponse	"Alias not found"
//	@Failure		503		{object}	ErrorResponse	"Store temporarily unavailable"
//	@Router			/api/shorten/{alias} [get]
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("alias")
	if alias == "" {
		writeError(w, h.log, "Alias is required", http.StatusBadRequest)
		return
	}

	// Извлекаем информацию для аналитики
	req := service.RequestContext{
		IP:        extractIPAddress(r),
		UserAgent: r.UserAgent(),
	}
	if userID, ok := auth.GetUserIDFromContext(r.Context()); ok {
		req.UserID = &userID
	}

	outcome, err := h.resolver.Resolve(r.Context(), requestKey(r), alias, req)
	if errors.Is(err, context.Canceled) {
		h.log.Debug("client went away before redirect", zap.String("alias", alias))
		return
	}
	if err != nil {
		h.log.Error("failed to process redirect", zap.String("alias", alias), zap.Error(err))
		if errors.Is(err, service.ErrTransientStore) {
			writeError(w, h.log, "Service temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		writeError(w, h.log, "Internal server error", http.StatusInternalServerError)
		return
	}

	if outcome.Status == service.StatusNotFound {
		h.log.Debug("alias not found", zap.String("alias", alias))
		writeError(w, h.log, "Short URL not found", http.StatusNotFound)
		return
	}

	h.log.Debug("redirect",
		zap.String("alias", alias),
		zap.String("location", outcome.Location),
		zap.String("ip", req.IP))

	http.Redirect(w, r, outcome.Location, http.StatusFound)
}

// requestKey восстанавливает полный короткий URL, по которому пришел клиент; он же ключ кэша
func requestKey(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// extractIPAddress извлекает IP адрес из запроса с учетом прокси
func extractIPAddress(r *http.Request) string {
	// Проверяем заголовки прокси в порядке приоритета
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For может содержать список IP через запятую
		first, _, _ := strings.Cut(ip, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	// Fallback к RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ClientIP возвращает IP клиента, по нему считается лимит запросов
func ClientIP(r *http.Request) string {
	return extractIPAddress(r)
}
