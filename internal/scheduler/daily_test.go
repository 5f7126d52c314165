package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"westmarch-almanac/internal/models"
	"westmarch-almanac/internal/repository"
	"westmarch-almanac/internal/services"
	"westmarch-almanac/pkg/logging"
	"westmarch-almanac/pkg/metrics"
)

type fakeMarker struct {
	posted map[string]string
	fail   bool
}

func newFakeMarker() *fakeMarker {
	return &fakeMarker{posted: make(map[string]string)}
}

func (m *fakeMarker) AlreadyPosted(ctx context.Context, guildID, dateKey string) (bool, error) {
	if m.fail {
		return false, errors.New("marker store down")
	}
	return m.posted[guildID] == dateKey, nil
}

func (m *fakeMarker) MarkPosted(ctx context.Context, guildID, dateKey string) error {
	m.posted[guildID] = dateKey
	return nil
}

type fakePublisher struct {
	published []*models.DailyReport
	fail      bool
}

func (p *fakePublisher) Publish(ctx context.Context, report *models.DailyReport) error {
	if p.fail {
		return errors.New("broker unreachable")
	}
	p.published = append(p.published, report)
	return nil
}

type stubRepo struct {
	guilds  []*models.GuildSettings
	reports []*models.ReportLog
}

func (s *stubRepo) GetSettings(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	return nil, &repository.NotFoundError{Resource: "guild_settings", ID: guildID}
}

func (s *stubRepo) UpsertSettings(ctx context.Context, settings *models.GuildSettings) error {
	return nil
}

func (s *stubRepo) ListAutopostEnabled(ctx context.Context) ([]*models.GuildSettings, error) {
	return s.guilds, nil
}

func (s *stubRepo) DeleteSettings(ctx context.Context, guildID string) error { return nil }

func (s *stubRepo) InsertReportLog(ctx context.Context, log *models.ReportLog) error {
	s.reports = append(s.reports, log)
	return nil
}

func (s *stubRepo) ListReportLogs(ctx context.Context, guildID string, limit, offset int) ([]*models.ReportLog, int, error) {
	return s.reports, len(s.reports), nil
}

func (s *stubRepo) HealthCheck(ctx context.Context) error { return nil }

var (
	testLogger    = logging.NewStructuredLogger("scheduler-test", "test", logging.FatalLevel)
	testCollector = metrics.NewCollector("almanac_scheduler_test")
)

func autopostGuild(id string) *models.GuildSettings {
	s := models.NewGuildSettings(id)
	channel := "chan-" + id
	s.AutopostChannelID = &channel
	return s
}

func newTestRunner(repo repository.SettingsRepository, marker MarkerStore, pub Publisher) *Runner {
	almanac := services.NewAlmanacService(repo, testLogger, testCollector, time.UTC)
	reports := services.NewReportService(repo, testLogger, testCollector)
	r := NewRunner(almanac, reports, repo, marker, pub, testLogger, testCollector, time.UTC, 7*time.Hour)
	r.now = func() time.Time {
		return time.Date(2026, time.March, 3, 7, 0, 0, 0, time.UTC)
	}
	return r
}

func TestRunOncePublishesAndMarks(t *testing.T) {
	repo := &stubRepo{guilds: []*models.GuildSettings{autopostGuild("g1"), autopostGuild("g2")}}
	marker := newFakeMarker()
	pub := &fakePublisher{}

	runner := newTestRunner(repo, marker, pub)
	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(pub.published) != 2 {
		t.Fatalf("published %d reports, want 2", len(pub.published))
	}
	if pub.published[0].RealDate != "2026-03-03" {
		t.Errorf("RealDate = %q", pub.published[0].RealDate)
	}
	if marker.posted["g1"] != "2026-03-03" || marker.posted["g2"] != "2026-03-03" {
		t.Errorf("markers not written: %v", marker.posted)
	}
	if len(repo.reports) != 2 {
		t.Errorf("report log rows = %d, want 2", len(repo.reports))
	}
}

func TestRunOnceSkipsAlreadyPosted(t *testing.T) {
	repo := &stubRepo{guilds: []*models.GuildSettings{autopostGuild("g1")}}
	marker := newFakeMarker()
	marker.posted["g1"] = "2026-03-03"
	pub := &fakePublisher{}

	runner := newTestRunner(repo, marker, pub)
	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(pub.published) != 0 {
		t.Errorf("published %d reports for an already-posted guild", len(pub.published))
	}
}

func TestRunOncePublishFailureLeavesMarkerUnset(t *testing.T) {
	repo := &stubRepo{guilds: []*models.GuildSettings{autopostGuild("g1")}}
	marker := newFakeMarker()
	pub := &fakePublisher{fail: true}

	runner := newTestRunner(repo, marker, pub)
	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if _, ok := marker.posted["g1"]; ok {
		t.Error("marker written despite publish failure; report would be lost")
	}
}

func TestRunOnceMarkerFailureSkipsGuild(t *testing.T) {
	repo := &stubRepo{guilds: []*models.GuildSettings{autopostGuild("g1")}}
	marker := newFakeMarker()
	marker.fail = true
	pub := &fakePublisher{}

	runner := newTestRunner(repo, marker, pub)
	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(pub.published) != 0 {
		t.Error("published despite marker read failure; risk of double post")
	}
}

func TestNextFireTime(t *testing.T) {
	postTime := 7 * time.Hour

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before today's fire time",
			now:  time.Date(2026, time.March, 3, 6, 59, 0, 0, time.UTC),
			want: time.Date(2026, time.March, 3, 7, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at fire time rolls to tomorrow",
			now:  time.Date(2026, time.March, 3, 7, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.March, 4, 7, 0, 0, 0, time.UTC),
		},
		{
			name: "after fire time rolls to tomorrow",
			now:  time.Date(2026, time.March, 3, 19, 30, 0, 0, time.UTC),
			want: time.Date(2026, time.March, 4, 7, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextFireTime(tt.now, postTime); !got.Equal(tt.want) {
				t.Errorf("nextFireTime = %v, want %v", got, tt.want)
			}
		})
	}
}
