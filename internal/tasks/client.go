package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

// Client wraps backlite to provide task queue functionality.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config

	mu      sync.RWMutex
	started bool
}

// NewClient creates a new task queue client with a dedicated SQLite database.
// The database is stored alongside the main database with a "-tasks" suffix.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	tasksDBPath := TasksDBPath(mainDBPath)

	// Open dedicated SQLite connection for tasks with WAL mode
	db, err := sql.Open("sqlite3", tasksDBPath+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}

	// Configure connection pool for concurrent workers
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	// Create backlite client
	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &logrusLogger{entry: logrus.WithField("component", "tasks")},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}

	// Install schema
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"path":          tasksDBPath,
		"release_after": cfg.ReleaseAfter,
	}).Debug("task queue database ready")

	return &Client{
		client: client,
		db:     db,
		config: cfg,
	}, nil
}

// Register registers task queues with the client.
// Must be called before Start().
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing tasks. This is non-blocking and should be called
// in a goroutine. Use Stop() for graceful shutdown.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	logrus.WithField("workers", c.config.Workers).Info("task queue started")
	c.client.Start(ctx)
}

// Stop gracefully shuts down the task queue, waiting for active tasks to complete.
// Returns true if all workers finished before the context deadline.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	logrus.Info("stopping task queue")
	success := c.client.Stop(ctx)
	if success {
		logrus.Info("task queue stopped gracefully")
	} else {
		logrus.Warn("task queue stopped with timeout, some tasks may not have completed")
	}
	return success
}

// Close releases all resources. Should be called after Stop().
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// Status returns the status of a task by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

// DB returns the underlying database connection for use with backlite UI.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Config returns the sizing the client runs with, defaults applied.
func (c *Client) Config() Config {
	return c.config
}

// TasksDBPath returns where the queue database for mainDBPath lives.
func TasksDBPath(mainDBPath string) string {
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	return filepath.Join(dir, name+"-tasks"+ext)
}

// logrusLogger implements backlite.Logger on top of logrus. backlite passes
// params as alternating key/value pairs.
type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Info(message string, params ...any) {
	l.entry.WithFields(fieldsOf(params)).Info("[TASK] " + message)
}

func (l *logrusLogger) Error(message string, params ...any) {
	l.entry.WithFields(fieldsOf(params)).Error("[TASK] " + message)
}

func fieldsOf(params []any) logrus.Fields {
	fields := make(logrus.Fields, len(params)/2)
	for i := 0; i < len(params); i += 2 {
		key := fmt.Sprint(params[i])
		if i+1 == len(params) {
			fields["extra"] = params[i]
			break
		}
		fields[key] = params[i+1]
	}
	return fields
}

// EnqueueDailyDigest adds a digest task for date, YYYY-MM-DD or empty for
// today, and returns its ID.
func (c *Client) EnqueueDailyDigest(ctx context.Context, date string) (string, error) {
	ids, err := c.client.Add(DailyDigestTask{Date: date}).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue daily digest: %w", err)
	}
	return ids[0], nil
}

// EnqueueExportSnapshot adds a snapshot export task and returns its ID.
func (c *Client) EnqueueExportSnapshot(ctx context.Context, format string) (string, error) {
	ids, err := c.client.Add(ExportSnapshotTask{Format: format}).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue snapshot export: %w", err)
	}
	return ids[0], nil
}
