package http

import (
	"Shortlytics-Backend/internal/auth"
	"Shortlytics-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LinksHandler обработчик для работы со ссылками
type LinksHandler struct {
	registrar      *service.Registrar
	reports        *service.Reports
	allowAnonymous bool
	log            *zap.Logger
}

// NewLinksHandler создает новый обработчик ссылок
func NewLinksHandler(registrar *service.Registrar, reports *service.Reports, allowAnonymous bool, log *zap.Logger) *LinksHandler {
	return &LinksHandler{
		registrar:      registrar,
		reports:        reports,
		allowAnonymous: allowAnonymous,
		log:            log,
	}
}

// CreateLinkRequest структура запроса создания ссылки
type CreateLinkRequest struct {
	FullURL     string `json:"fullUrl" example:"https://example.com/some/long/path"`
	CustomAlias string `json:"customAlias,omitempty" example:"ex1"`
	Topic       string `json:"topic,omitempty" example:"news"`
}

// CreateLinkResponse структура ответа создания ссылки
type CreateLinkResponse struct {
	ShortURL  string    `json:"shortUrl" example:"http://localhost:3000/api/shorten/ex1"`
	CreatedAt time.Time `json:"createdAt"`
}

// HomeResponse приветствие для авторизованного пользователя
type HomeResponse struct {
	Message string `json:"message"`
}

// CreateLink создает новую короткую ссылку
//
//	@Summary		Create a short link
//	@Description	Create a new shortened URL, optionally with a custom alias and topic
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateLinkRequest	true	"Link creation request"
//	@Success		201		{object}	CreateLinkResponse	"Link created successfully"
//	@Failure		400		{object}	ErrorResponse		"Invalid request data"
//	@Failure		401		{object}	ErrorResponse		"Authentication required"
//	@Failure		409		{object}	ErrorResponse		"Alias already exists"
//	@Router			/api/shorten [post]
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	// Получаем ID пользователя из контекста (установлен JWT middleware)
	userID, authenticated := auth.GetUserIDFromContext(r.Context())
	if !authenticated && !h.allowAnonymous {
		writeError(w, h.log, "Authorization required", http.StatusUnauthorized)
		return
	}

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create link request", zap.Error(err))
		writeError(w, h.log, "Invalid request format", http.StatusBadRequest)
		return
	}

	in := service.CreateInput{
		FullURL:     req.FullURL,
		CustomAlias: req.CustomAlias,
		Topic:       req.Topic,
		CreatorIP:   extractIPAddress(r),
	}
	if authenticated {
		in.OwnerID = &userID
	}

	record, err := h.registrar.Create(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			writeError(w, h.log, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrConflict):
			writeError(w, h.log, "This short URL already exists. Please try again.", http.StatusConflict)
		default:
			h.log.Error("failed to create link", zap.Error(err))
			writeError(w, h.log, "Failed to create link", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, h.log, CreateLinkResponse{
		ShortURL:  record.ShortURL,
		CreatedAt: record.CreatedAt,
	}, http.StatusCreated)
}

// ListLinks возвращает список ссылок пользователя
//
//	@Summary		List own links
//	@Description	List the caller's short URLs with their OS and device breakdowns
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		domain.URLRecord
//	@Failure		401	{object}	ErrorResponse	"Authentication required"
//	@Router			/api/shorten [get]
func (h *LinksHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.log, "Authorization required", http.StatusUnauthorized)
		return
	}

	records, err := h.reports.ListRecords(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list user links", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, h.log, "Failed to retrieve links", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, h.log, records, http.StatusOK)
}

// Home приветствие для авторизованного пользователя
//
//	@Summary	Welcome message
//	@Tags		Links
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	HomeResponse
//	@Failure	401	{object}	ErrorResponse	"Authentication required"
//	@Router		/api/home [get]
func (h *LinksHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, HomeResponse{Message: "Welcome to the Shortener!"}, http.StatusOK)
}
