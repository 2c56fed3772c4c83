package http

import (
	"Shortlytics-Backend/internal/service"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// AnalyticsHandler отдает агрегированную статистику переходов
type AnalyticsHandler struct {
	reports *service.Reports
	log     *zap.Logger
}

// NewAnalyticsHandler создает обработчик аналитики
func NewAnalyticsHandler(reports *service.Reports, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		reports: reports,
		log:     log,
	}
}

// GetAliasAnalytics статистика одной ссылки
//
//	@Summary		Analytics of a short URL
//	@Tags			Analytics
//	@Produce		json
//	@Param			alias	path		string	true	"Short URL alias"
//	@Success		200		{object}	service.AliasReport
//	@Failure		404		{object}	ErrorResponse	"Alias not found"
//	@Router			/api/analytics/{alias} [get]
func (h *AnalyticsHandler) GetAliasAnalytics(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("alias")

	report, err := h.reports.AliasAnalytics(r.Context(), alias)
	if err != nil {
		h.writeReportError(w, err, zap.String("alias", alias))
		return
	}

	writeJSON(w, h.log, report, http.StatusOK)
}

// GetTopicAnalytics статистика ссылок одной темы
//
//	@Summary		Analytics of a topic
//	@Tags			Analytics
//	@Produce		json
//	@Param			topic	path		string	true	"Topic"
//	@Success		200		{object}	service.TopicReport
//	@Router			/api/analytics/topic/{topic} [get]
func (h *AnalyticsHandler) GetTopicAnalytics(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")

	report, err := h.reports.TopicAnalytics(r.Context(), topic)
	if err != nil {
		h.writeReportError(w, err, zap.String("topic", topic))
		return
	}

	writeJSON(w, h.log, report, http.StatusOK)
}

// GetOverallAnalytics статистика по всем ссылкам
//
//	@Summary		Overall analytics
//	@Tags			Analytics
//	@Produce		json
//	@Success		200	{object}	service.OverallReport
//	@Router			/api/overallAnalytics [get]
func (h *AnalyticsHandler) GetOverallAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.OverallAnalytics(r.Context())
	if err != nil {
		h.writeReportError(w, err)
		return
	}

	writeJSON(w, h.log, report, http.StatusOK)
}

func (h *AnalyticsHandler) writeReportError(w http.ResponseWriter, err error, fields ...zap.Field) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, h.log, "Short URL not found", http.StatusNotFound)
	case errors.Is(err, service.ErrTransientStore):
		h.log.Error("failed to build analytics report", append(fields, zap.Error(err))...)
		writeError(w, h.log, "Service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		h.log.Error("failed to build analytics report", append(fields, zap.Error(err))...)
		writeError(w, h.log, "Internal server error", http.StatusInternalServerError)
	}
}
