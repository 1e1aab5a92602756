package tasks

import "time"

// Config sizes the queue that runs daily digests and snapshot exports.
// Zero fields take their value from DefaultConfig.
type Config struct {
	// Workers bounds how many digests and exports run at once.
	Workers int

	// ReleaseAfter hands a claimed task back to the queue when its worker
	// has not reported back in time. Never shorter than the slowest queue's
	// timeout.
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks past their queue's
	// retention are purged.
	CleanupInterval time.Duration
}

// DefaultConfig is the queue sizing used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}

// slowestTimeout is the longest per-task timeout among the registered
// queue kinds.
func slowestTimeout() time.Duration {
	slowest := DailyDigestTask{}.Config().Timeout
	if t := (ExportSnapshotTask{}).Config().Timeout; t > slowest {
		slowest = t
	}
	return slowest
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = d.ReleaseAfter
	}
	if slowest := slowestTimeout(); c.ReleaseAfter < slowest {
		c.ReleaseAfter = slowest
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}
