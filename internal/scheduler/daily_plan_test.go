package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mrlokans/workouts/internal/settingsstore"
)

type staticSettings struct {
	config settingsstore.ReminderConfig
	err    error
}

func (s *staticSettings) GetReminderConfig(context.Context) (settingsstore.ReminderConfig, error) {
	return s.config, s.err
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	dates []string
}

func (r *recordingEnqueuer) EnqueueDailyDigest(_ context.Context, date string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dates = append(r.dates, date)
	return "task-1", nil
}

func TestDailyPlanScheduler_Disabled(t *testing.T) {
	s := NewDailyPlanScheduler(&staticSettings{config: settingsstore.ReminderConfig{Enabled: false, Schedule: "0 7 * * *"}}, nil, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
	s.Stop()
}

func TestDailyPlanScheduler_InvalidSchedule(t *testing.T) {
	s := NewDailyPlanScheduler(&staticSettings{config: settingsstore.ReminderConfig{Enabled: true, Schedule: "daily"}}, nil, nil)
	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())

	s = NewDailyPlanScheduler(&staticSettings{err: errors.New("database is locked")}, nil, nil)
	assert.Error(t, s.Start(context.Background()))
}

func TestDailyPlanScheduler_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	settings := &staticSettings{config: settingsstore.ReminderConfig{Enabled: true, Schedule: "0 7 * * *"}}
	s := NewDailyPlanScheduler(settings, &recordingEnqueuer{}, time.UTC)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(context.Background()), "starting twice is a no-op")

	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 7, next.Hour())
	assert.Equal(t, 0, next.Minute())

	settings.config.Schedule = "30 6 * * *"
	require.NoError(t, s.Reschedule(context.Background()))
	assert.True(t, s.IsRunning(), "a stale cancellation must not stop the new run")
	next = s.GetNextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 6, next.Hour())
	assert.Equal(t, 30, next.Minute())

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestDailyPlanScheduler_StopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewDailyPlanScheduler(&staticSettings{config: settingsstore.ReminderConfig{Enabled: true, Schedule: "0 7 * * *"}}, nil, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestDailyPlanScheduler_RunNow(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	enqueuer := &recordingEnqueuer{}
	s := NewDailyPlanScheduler(&staticSettings{}, enqueuer, tokyo)
	s.now = func() time.Time { return time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC) }

	assert.Equal(t, "2024-06-04", s.Today())

	id, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
	assert.Equal(t, []string{"2024-06-04"}, enqueuer.dates)

	s.runDigest(context.Background())
	assert.Len(t, enqueuer.dates, 2)

	_, err = NewDailyPlanScheduler(&staticSettings{}, nil, nil).RunNow(context.Background())
	assert.Error(t, err)
}
