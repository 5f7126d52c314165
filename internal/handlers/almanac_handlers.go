package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"westmarch-almanac/internal/models"
	"westmarch-almanac/internal/services"
	"westmarch-almanac/pkg/logging"
	"westmarch-almanac/pkg/metrics"
)

// AlmanacHandler handles almanac API endpoints
type AlmanacHandler struct {
	almanacService *services.AlmanacService
	reportService  *services.ReportService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector

	now func() time.Time // stubbed in tests
}

// NewAlmanacHandler creates a new almanac handler
func NewAlmanacHandler(
	almanacService *services.AlmanacService,
	reportService *services.ReportService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *AlmanacHandler {
	return &AlmanacHandler{
		almanacService: almanacService,
		reportService:  reportService,
		logger:         logger,
		metrics:        metricsCollector,
		now:            time.Now,
	}
}

// maxReportPageLimit caps report-log page size at a year of daily posts.
const maxReportPageLimit = 365

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// GetDate handles GET /api/guilds/{guild_id}/date
func (h *AlmanacHandler) GetDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint := "/api/guilds/{guild_id}/date"
	defer h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint)).ObserveDuration()

	guildID := mux.Vars(r)["guild_id"]
	offset, ok := h.parseIntParam(w, r, "offset", 0)
	if !ok {
		return
	}

	settings, err := h.almanacService.Settings(ctx, guildID)
	if err != nil {
		h.serviceError(w, r, endpoint, "failed to load guild settings", err)
		return
	}

	d, err := h.almanacService.DateFor(settings, h.now(), offset)
	if err != nil {
		h.serviceError(w, r, endpoint, "failed to resolve date", err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, h.almanacService.DateCard(settings, d), http.StatusOK)
}

// GetWeather handles GET /api/guilds/{guild_id}/weather
func (h *AlmanacHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint := "/api/guilds/{guild_id}/weather"
	defer h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint)).ObserveDuration()

	guildID := mux.Vars(r)["guild_id"]
	offset, ok := h.parseIntParam(w, r, "offset", 0)
	if !ok {
		return
	}

	settings, err := h.almanacService.Settings(ctx, guildID)
	if err != nil {
		h.serviceError(w, r, endpoint, "failed to load guild settings", err)
		return
	}

	card, err := h.almanacService.WeatherFor(settings, h.now(), offset)
	if err != nil {
		h.serviceError(w, r, endpoint, "failed to generate weather", err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, card, http.StatusOK)
}

// GetForecast handles GET /api/guilds/{guild_id}/forecast
func (h *AlmanacHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint := "/api/guilds/{guild_id}/forecast"
	defer h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint)).ObserveDuration()

	guildID := mux.Vars(r)["guild_id"]
	days, ok := h.parseIntParam(w, r, "days", services.MaxForecastDays)
	if !ok {
		return
	}

	settings, err := h.almanacService.Settings(ctx, guildID)
	if err != nil {
		h.serviceError(w, r, endpoint, "failed to load guild settings", err)
		return
	}

	lines, err := h.almanacService.ForecastRange(settings, h.now(), days)
	if err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			h.sendError(w, r, validation.Message, http.StatusBadRequest)
			return
		}
		h.serviceError(w, r, endpoint, "failed to build forecast", err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, lines, http.StatusOK)
}

// GetReport handles GET /api/guilds/{guild_id}/report. It builds today's
// report on demand; by construction the result matches what the scheduler
// publishes for the same real date.
func (h *AlmanacHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint := "/api/guilds/{guild_id}/report"
	defer h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint)).ObserveDuration()

	guildID := mux.Vars(r)["guild_id"]

	settings, err := h.almanacService.Settings(ctx, guildID)
	if err != nil {
		h.serviceError(w, r, endpoint, "failed to load guild settings", err)
		return
	}

	report, err := h.almanacService.BuildDailyReport(ctx, settings, h.now())
	if err != nil {
		h.serviceError(w, r, endpoint, "failed to build report", err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, report, http.StatusOK)
}

// ListReports handles GET /api/guilds/{guild_id}/reports, the published
// report log.
func (h *AlmanacHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint := "/api/guilds/{guild_id}/reports"
	defer h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint)).ObserveDuration()

	guildID := mux.Vars(r)["guild_id"]

	page, ok := h.parseIntParam(w, r, "page", 1)
	if !ok {
		return
	}
	limit, ok := h.parseIntParam(w, r, "limit", 30)
	if !ok {
		return
	}
	if page < 1 {
		h.sendError(w, r, "page must be >= 1", http.StatusBadRequest)
		return
	}
	if limit < 1 || limit > maxReportPageLimit {
		h.sendError(w, r, fmt.Sprintf("limit must be between 1 and %d", maxReportPageLimit), http.StatusBadRequest)
		return
	}
	offset := (page - 1) * limit

	logs, total, err := h.reportService.ListReports(ctx, guildID, limit, offset)
	if err != nil {
		h.serviceError(w, r, endpoint, "failed to list reports", err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, PaginatedResponse{
		Data:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, http.StatusOK)
}

// GetSettings handles GET /api/guilds/{guild_id}/settings
func (h *AlmanacHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint := "/api/guilds/{guild_id}/settings"
	defer h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint)).ObserveDuration()

	guildID := mux.Vars(r)["guild_id"]

	settings, err := h.almanacService.Settings(ctx, guildID)
	if err != nil {
		h.serviceError(w, r, endpoint, "failed to load guild settings", err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, settings, http.StatusOK)
}

// PutSettings handles PUT /api/guilds/{guild_id}/settings
func (h *AlmanacHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endpoint := "/api/guilds/{guild_id}/settings"
	defer h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint)).ObserveDuration()

	guildID := mux.Vars(r)["guild_id"]

	var settings models.GuildSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		h.sendError(w, r, "invalid settings payload", http.StatusBadRequest)
		return
	}
	// The path, not the payload, names the guild.
	settings.GuildID = guildID

	if err := settings.Validate(); err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.almanacService.SaveSettings(ctx, &settings); err != nil {
		h.serviceError(w, r, endpoint, "failed to save settings", err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "PUT", "200")
	h.sendJSON(w, settings, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *AlmanacHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// parseIntParam reads an optional integer query parameter, writing a 400
// and returning ok=false on garbage.
func (h *AlmanacHandler) parseIntParam(w http.ResponseWriter, r *http.Request, name string, defaultValue int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		h.sendError(w, r, "invalid "+name+", expected integer", http.StatusBadRequest)
		return 0, false
	}
	return value, true
}

// serviceError logs and reports a 500.
func (h *AlmanacHandler) serviceError(w http.ResponseWriter, r *http.Request, endpoint, message string, err error) {
	h.logger.Error(r.Context(), "[API_ERROR] "+message, logging.Fields{
		"endpoint": endpoint,
	}, err)
	h.metrics.RecordAPIError("internal_error", endpoint)
	h.sendError(w, r, message, http.StatusInternalServerError)
}

// sendJSON sends a JSON response
func (h *AlmanacHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *AlmanacHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all almanac API routes
func (h *AlmanacHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/guilds/{guild_id}/date", h.GetDate).Methods("GET")
	router.HandleFunc("/api/guilds/{guild_id}/weather", h.GetWeather).Methods("GET")
	router.HandleFunc("/api/guilds/{guild_id}/forecast", h.GetForecast).Methods("GET")
	router.HandleFunc("/api/guilds/{guild_id}/report", h.GetReport).Methods("GET")
	router.HandleFunc("/api/guilds/{guild_id}/reports", h.ListReports).Methods("GET")
	router.HandleFunc("/api/guilds/{guild_id}/settings", h.GetSettings).Methods("GET")
	router.HandleFunc("/api/guilds/{guild_id}/settings", h.PutSettings).Methods("PUT")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
}
