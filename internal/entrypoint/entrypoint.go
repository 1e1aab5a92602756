package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/mrlokans/workouts/internal/config"
	"github.com/mrlokans/workouts/internal/demo"
	http_controllers "github.com/mrlokans/workouts/internal/http"
	"github.com/mrlokans/workouts/internal/metrics"
	"github.com/mrlokans/workouts/internal/scheduler"
	"github.com/mrlokans/workouts/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context) error

// Serve runs srv until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts it down within timeout.
func Serve(ctx context.Context, srv *http.Server, timeout time.Duration, onShutdown ShutdownFunc) error {
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if serveErr == nil {
			return nil
		}
		serveErr = fmt.Errorf("listen: %w", serveErr)
	}
	logrus.WithField("timeout", timeout).Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// In-flight requests drain first, then the background workers stop.
	err := multierr.Append(serveErr, srv.Shutdown(shutdownCtx))
	if onShutdown != nil {
		err = multierr.Append(err, onShutdown(shutdownCtx))
	}

	logrus.Info("server exiting")
	return err
}

// Run wires the whole service on top of app and serves the HTTP API.
func Run(ctx context.Context, app *App, version string) error {
	cfg := app.Config
	logrus.WithField("version", version).Info("starting workouts")

	var (
		manager  *metrics.Manager
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		manager = metrics.NewManager(cfg.Metrics.Namespace, cfg.Metrics.Subsystem, prometheus.DefaultRegisterer)
		gatherer = prometheus.DefaultGatherer
		app.DB.Hub.SetObserver(manager)
	}

	routerCfg := http_controllers.RouterConfig{
		Exercises:   app.Exercises,
		Workouts:    app.Workouts,
		Schedules:   app.Schedules,
		Completions: app.Completions,
		Planner:     app.Planner,
		Hub:         app.DB.Hub,
		Database:    app.DB,
		Reminders:   app.Reminders,
		NewExporter: app.NewExporter,
		Metrics:     manager,
		Gatherer:    gatherer,
		Clock:       app.Clock(),
		Version:     version,
	}

	if cfg.Demo.Enabled {
		logrus.Info("demo mode enabled, write requests are blocked")
		routerCfg.Demo = demo.NewMiddleware(true)
	}

	var (
		taskClient *tasks.Client
		taskCancel context.CancelFunc
		planSched  *scheduler.DailyPlanScheduler
	)
	if cfg.Tasks.Enabled {
		var err error
		taskClient, err = tasks.NewClient(cfg.Database.Path, cfg.Tasks.Queue)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}

		digestDeps := tasks.DigestDeps{
			Planner:  app.Planner,
			Settings: app.Settings,
			Location: app.Location,
		}
		if manager != nil {
			digestDeps.Digests = manager.CounterDigests
		}
		taskClient.Register(
			tasks.NewDailyDigestQueue(digestDeps),
			tasks.NewExportSnapshotQueue(cfg.Export.Dir, app.NewExporter),
		)

		var taskCtx context.Context
		taskCtx, taskCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		planSched = scheduler.NewDailyPlanScheduler(app.Reminders, taskClient, app.Location)
		if err := planSched.Start(context.Background()); err != nil {
			logrus.WithError(err).Warn("daily plan scheduler not started")
		}

		routerCfg.Tasks = taskClient
		routerCfg.Scheduler = planSched
	} else {
		logrus.Info("task queue disabled, digests and background exports are off")
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := http_controllers.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	onShutdown := func(ctx context.Context) error {
		var err error
		if planSched != nil {
			planSched.Stop()
		}
		if taskClient != nil {
			if !taskClient.Stop(ctx) {
				err = multierr.Append(err, errors.New("task queue did not stop before the deadline"))
			}
			taskCancel()
			err = multierr.Append(err, taskClient.Close())
		}
		return err
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	return Serve(ctx, srv, timeout, onShutdown)
}

// LoadConfig reads .env, builds the configuration and sets up logging.
func LoadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := config.NewConfig()
	SetupLogging(cfg)
	if _, err := os.Stat(cfg.Export.Dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).WithField("dir", cfg.Export.Dir).Warn("export directory is not accessible")
	}
	return cfg, nil
}
