package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/workouts/internal/entities"
	"github.com/mrlokans/workouts/internal/exporters"
	"github.com/mrlokans/workouts/internal/metrics"
	"github.com/mrlokans/workouts/internal/planner"
)

type fakePlanner struct {
	plan  *planner.Plan
	err   error
	asked []time.Time
}

func (f *fakePlanner) PlanFor(_ context.Context, date time.Time) (*planner.Plan, error) {
	f.asked = append(f.asked, date)
	if f.err != nil {
		return nil, f.err
	}
	plan := *f.plan
	plan.Date = date
	return &plan, nil
}

type memSettings map[string]string

func (m memSettings) SetSetting(_ context.Context, key, value string) error {
	m[key] = value
	return nil
}

func TestDailyDigestTaskConfig(t *testing.T) {
	cfg := DailyDigestTask{}.Config()

	assert.Equal(t, "daily_digest", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestDailyDigestTask_Day(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 20:00 UTC on June 3 is already June 4 in Tokyo.
	now := time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC)

	day, err := DailyDigestTask{}.Day(now, tokyo)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), day)

	day, err = DailyDigestTask{}.Day(now, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), day)

	day, err = DailyDigestTask{Date: "2024-12-31"}.Day(now, tokyo)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), day)

	_, err = DailyDigestTask{Date: "31/12/2024"}.Day(now, nil)
	assert.Error(t, err)
}

func TestDailyDigestProcessor(t *testing.T) {
	now := time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC)
	m := metrics.NewTestManager()

	t.Run("records the summary of a planned day", func(t *testing.T) {
		p := &fakePlanner{plan: &planner.Plan{Entries: []planner.Entry{
			{Workout: entities.Workout{Name: "Pull"}},
		}}}
		settings := memSettings{}
		process := DailyDigestProcessor(DigestDeps{Planner: p, Settings: settings, Digests: m.CounterDigests, Now: func() time.Time { return now }})

		require.NoError(t, process(context.Background(), DailyDigestTask{}))
		require.Len(t, p.asked, 1)
		assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), p.asked[0])

		assert.Equal(t, "1 planned, 0 done: Pull", settings[entities.SettingKeyDigestLastSummary])
		assert.Equal(t, "2024-06-03", settings[entities.SettingKeyDigestLastDate])
		assert.Equal(t, "2024-06-03T07:00:00Z", settings[entities.SettingKeyDigestLastAt])
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterDigests.WithLabelValues("planned")))
	})

	t.Run("rest day", func(t *testing.T) {
		settings := memSettings{}
		process := DailyDigestProcessor(DigestDeps{Planner: &fakePlanner{plan: &planner.Plan{}}, Settings: settings, Digests: m.CounterDigests})

		require.NoError(t, process(context.Background(), DailyDigestTask{Date: "2024-06-09"}))
		assert.Equal(t, "rest day", settings[entities.SettingKeyDigestLastSummary])
		assert.Equal(t, "2024-06-09", settings[entities.SettingKeyDigestLastDate])
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterDigests.WithLabelValues("rest")))
	})

	t.Run("planner failure is retried", func(t *testing.T) {
		settings := memSettings{}
		process := DailyDigestProcessor(DigestDeps{Planner: &fakePlanner{err: errors.New("disk I/O error")}, Settings: settings, Digests: m.CounterDigests})

		err := process(context.Background(), DailyDigestTask{})
		require.Error(t, err)
		assert.Empty(t, settings)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterDigests.WithLabelValues("failed")))
	})

	t.Run("not configured", func(t *testing.T) {
		err := DailyDigestProcessor(DigestDeps{})(context.Background(), DailyDigestTask{})
		assert.EqualError(t, err, "daily digest not configured")
	})
}

type fakeExporter struct {
	body string
	err  error
}

func (f fakeExporter) Export(_ context.Context, w io.Writer) (exporters.ExportResult, error) {
	if f.err != nil {
		return exporters.ExportResult{}, f.err
	}
	_, err := io.WriteString(w, f.body)
	return exporters.ExportResult{WorkoutsProcessed: 1}, err
}

func TestExportSnapshotProcessor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	var formats []exporters.Format
	process := ExportSnapshotProcessor(dir, func(format exporters.Format) exporters.Exporter {
		formats = append(formats, format)
		return fakeExporter{body: "workouts: []\n"}
	})

	require.NoError(t, process(context.Background(), ExportSnapshotTask{Format: "yaml"}))
	assert.Equal(t, []exporters.Format{exporters.FormatYAML}, formats)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".yaml", filepath.Ext(entries[0].Name()))

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.True(t, bytes.Equal([]byte("workouts: []\n"), content))

	assert.Error(t, process(context.Background(), ExportSnapshotTask{Format: "xml"}))

	failing := ExportSnapshotProcessor(t.TempDir(), func(exporters.Format) exporters.Exporter {
		return fakeExporter{err: errors.New("boom")}
	})
	assert.Error(t, failing(context.Background(), ExportSnapshotTask{}))
}

func TestSnapshotFileName(t *testing.T) {
	at := time.Date(2024, 6, 3, 7, 5, 9, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "workouts-20240603T060509Z.json", SnapshotFileName(at, exporters.FormatJSON))
}

type chanSettings chan [2]string

func (c chanSettings) SetSetting(_ context.Context, key, value string) error {
	c <- [2]string{key, value}
	return nil
}
