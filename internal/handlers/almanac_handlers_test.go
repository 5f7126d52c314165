package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"westmarch-almanac/internal/models"
	"westmarch-almanac/internal/repository"
	"westmarch-almanac/internal/services"
	"westmarch-almanac/pkg/logging"
	"westmarch-almanac/pkg/metrics"
)

type fakeRepo struct {
	settings map[string]*models.GuildSettings
	reports  []*models.ReportLog
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{settings: make(map[string]*models.GuildSettings)}
}

func (f *fakeRepo) GetSettings(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	if s, ok := f.settings[guildID]; ok {
		return s, nil
	}
	return nil, &repository.NotFoundError{Resource: "guild_settings", ID: guildID}
}

func (f *fakeRepo) UpsertSettings(ctx context.Context, settings *models.GuildSettings) error {
	f.settings[settings.GuildID] = settings
	return nil
}

func (f *fakeRepo) ListAutopostEnabled(ctx context.Context) ([]*models.GuildSettings, error) {
	return nil, nil
}

func (f *fakeRepo) DeleteSettings(ctx context.Context, guildID string) error {
	delete(f.settings, guildID)
	return nil
}

func (f *fakeRepo) InsertReportLog(ctx context.Context, log *models.ReportLog) error {
	f.reports = append(f.reports, log)
	return nil
}

func (f *fakeRepo) ListReportLogs(ctx context.Context, guildID string, limit, offset int) ([]*models.ReportLog, int, error) {
	return f.reports, len(f.reports), nil
}

func (f *fakeRepo) HealthCheck(ctx context.Context) error { return nil }

var (
	testLogger    = logging.NewStructuredLogger("handlers-test", "test", logging.FatalLevel)
	testCollector = metrics.NewCollector("almanac_handlers_test")
)

// newTestRouter wires a full handler stack over an in-memory repo with the
// clock pinned to 2026-02-09, two real weeks past the stock epoch.
func newTestRouter(repo *fakeRepo) *mux.Router {
	almanac := services.NewAlmanacService(repo, testLogger, testCollector, time.UTC)
	reports := services.NewReportService(repo, testLogger, testCollector)

	h := NewAlmanacHandler(almanac, reports, testLogger, testCollector)
	h.now = func() time.Time {
		return time.Date(2026, time.February, 9, 12, 0, 0, 0, time.UTC)
	}

	router := mux.NewRouter()
	router.Use(RequestID)
	h.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router *mux.Router, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetDate(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, "GET", "/api/guilds/g1/date", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var card models.DateCard
	if err := json.NewDecoder(rec.Body).Decode(&card); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// 2026-02-09 is 14 days past the 2026-01-26 epoch, so day 15 of month 1.
	if card.Year != 1 || card.Month != 1 || card.Day != 15 {
		t.Errorf("date = %d-%d-%d, want 1-1-15", card.Year, card.Month, card.Day)
	}
	if card.MonthName != "Icehold" {
		t.Errorf("MonthName = %q", card.MonthName)
	}
	if card.Holiday == "" {
		t.Error("day 15 of month 1 should carry a holiday")
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestGetDateOffset(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, "GET", "/api/guilds/g1/date?offset=16", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var card models.DateCard
	if err := json.NewDecoder(rec.Body).Decode(&card); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if card.Month != 2 || card.Day != 1 {
		t.Errorf("offset 16 gave %d-%d-%d, want month 2 day 1", card.Year, card.Month, card.Day)
	}
}

func TestGetDateRejectsGarbageOffset(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, "GET", "/api/guilds/g1/date?offset=tomorrow", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetWeatherDeterministic(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	first := doRequest(t, router, "GET", "/api/guilds/g1/weather", nil)
	second := doRequest(t, router, "GET", "/api/guilds/g1/weather", nil)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("status = %d / %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("same guild and day gave different weather")
	}

	var card models.WeatherCard
	if err := json.NewDecoder(first.Body).Decode(&card); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if card.Weather == "" {
		t.Error("empty weather description")
	}
	if card.Location != "Coast" {
		t.Errorf("Location = %q", card.Location)
	}
}

func TestGetForecast(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, "GET", "/api/guilds/g1/forecast?days=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var lines []models.ForecastLine
	if err := json.NewDecoder(rec.Body).Decode(&lines); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("len = %d, want 3", len(lines))
	}
	if lines[0].LeadDays != 0 || lines[0].Confidence != "Likely" {
		t.Errorf("lead 0 line = %+v", lines[0])
	}
}

func TestGetForecastRejectsZeroDays(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, "GET", "/api/guilds/g1/forecast?days=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetReport(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, "GET", "/api/guilds/g1/report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var report models.DailyReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.GuildID != "g1" {
		t.Errorf("GuildID = %q", report.GuildID)
	}
	if report.RealDate != "2026-02-09" {
		t.Errorf("RealDate = %q", report.RealDate)
	}
	if len(report.Forecast) != services.MaxForecastDays {
		t.Errorf("forecast lines = %d, want %d", len(report.Forecast), services.MaxForecastDays)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	// Unconfigured guilds read back defaults.
	rec := doRequest(t, router, "GET", "/api/guilds/g1/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var defaults models.GuildSettings
	if err := json.NewDecoder(rec.Body).Decode(&defaults); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if defaults.Location != "Coast" || defaults.EpochDayNumber != 1 {
		t.Errorf("defaults = %+v", defaults)
	}

	defaults.Location = "Highlands"
	body, _ := json.Marshal(defaults)
	rec = doRequest(t, router, "PUT", "/api/guilds/g1/settings", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, "GET", "/api/guilds/g1/settings", nil)
	var stored models.GuildSettings
	if err := json.NewDecoder(rec.Body).Decode(&stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored.Location != "Highlands" {
		t.Errorf("Location = %q after update", stored.Location)
	}
}

func TestPutSettingsRejectsInvalid(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	settings := models.NewGuildSettings("g1")
	settings.EpochDayNumber = 0
	body, _ := json.Marshal(settings)

	rec := doRequest(t, router, "PUT", "/api/guilds/g1/settings", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPutSettingsIgnoresPayloadGuildID(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	settings := models.NewGuildSettings("spoofed")
	body, _ := json.Marshal(settings)

	rec := doRequest(t, router, "PUT", "/api/guilds/g1/settings", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := repo.settings["g1"]; !ok {
		t.Error("settings not stored under path guild id")
	}
	if _, ok := repo.settings["spoofed"]; ok {
		t.Error("payload guild id overrode the path")
	}
}

func TestListReports(t *testing.T) {
	repo := newFakeRepo()
	repo.reports = []*models.ReportLog{
		{ID: 1, GuildID: "g1", RealDate: "2026-02-08", Payload: []byte(`{}`)},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, "GET", "/api/guilds/g1/reports", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var page PaginatedResponse
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || page.Page != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestListReportsRejectsOutOfRangePaging(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	for _, path := range []string{
		"/api/guilds/g1/reports?page=0",
		"/api/guilds/g1/reports?page=-3",
		"/api/guilds/g1/reports?limit=0",
		"/api/guilds/g1/reports?limit=400",
	} {
		rec := doRequest(t, router, "GET", path, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(newFakeRepo())

	rec := doRequest(t, router, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var status map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status["status"] != "healthy" {
		t.Errorf("status = %q", status["status"])
	}
}
