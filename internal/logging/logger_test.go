package logging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, GetLevel("error"))
	assert.Equal(t, logrus.InfoLevel, GetLevel("nonsense"))
}

func TestOutput(t *testing.T) {
	assert.Equal(t, os.Stdout, Output(LoggerSetupParams{}))

	name := filepath.Join(t.TempDir(), "workouts")
	out := Output(LoggerSetupParams{LogFileName: name})
	rotating, ok := out.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, name+".log", rotating.Filename)
	assert.Equal(t, 50, rotating.MaxSize)

	_, ok = Output(LoggerSetupParams{LogFileName: name, LogToStdout: true}).(*lumberjack.Logger)
	assert.False(t, ok)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevLevel := logrus.StandardLogger().Out, logrus.GetLevel()
	logrus.SetOutput(&buf)
	logrus.SetLevel(logrus.TraceLevel)
	t.Cleanup(func() {
		logrus.SetOutput(prevOut)
		logrus.SetLevel(prevLevel)
	})
	return &buf
}

func TestGormLogger_Trace(t *testing.T) {
	buf := captureLogs(t)
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l := NewGormLogger(gormlogger.Warn, 10*time.Millisecond)

	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), fc, errors.New("disk I/O error"))
	assert.Contains(t, buf.String(), "query failed")
	buf.Reset()

	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "slow query")
	buf.Reset()

	l.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), fc, errors.New("ignored"))
	assert.Empty(t, buf.String())
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
}
