package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
)

func newTestScheduler(t *testing.T) *Service {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.ResultsDir = t.TempDir()
	cfg.Debug.Dir = t.TempDir()

	return NewService(cfg, nil, arbor.NewLogger())
}

func TestRetention(t *testing.T) {
	s := newTestScheduler(t)

	s.config.Debug.Retention = "48h"
	assert.Equal(t, 48*time.Hour, s.retention())

	s.config.Debug.Retention = "not-a-duration"
	assert.Equal(t, 24*time.Hour, s.retention())

	s.config.Debug.Retention = ""
	assert.Equal(t, 24*time.Hour, s.retention())
}

func writeAgedFile(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
	return path
}

func TestPurgeDir(t *testing.T) {
	s := newTestScheduler(t)
	dir := s.config.Storage.ResultsDir

	stale := writeAgedFile(t, dir, "bulk_old.json", 48*time.Hour)
	fresh := writeAgedFile(t, dir, "bulk_new.json", time.Minute)

	// Subdirectories are left alone
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	removed := s.purgeDir(dir, 24*time.Hour)

	assert.Equal(t, 1, removed)
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "nested"))
	assert.NoError(t, err)
}

func TestPurgeDirMissingDirectory(t *testing.T) {
	s := newTestScheduler(t)
	assert.Equal(t, 0, s.purgeDir(filepath.Join(t.TempDir(), "gone"), time.Hour))
	assert.Equal(t, 0, s.purgeDir("", time.Hour))
}

func TestRunCleanup(t *testing.T) {
	s := newTestScheduler(t)
	s.config.Debug.Retention = "24h"

	stale := writeAgedFile(t, s.config.Storage.ResultsDir, "bulk_old.json", 48*time.Hour)
	staleDump := writeAgedFile(t, s.config.Debug.Dir, "crawl_failure_old.json", 48*time.Hour)

	s.runCleanup()

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(staleDump)
	assert.True(t, os.IsNotExist(err))
}

func TestStartDisabled(t *testing.T) {
	s := newTestScheduler(t)
	s.config.Cleanup.Enabled = false

	require.NoError(t, s.Start())
	assert.False(t, s.running)
	s.Stop()
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler(t)
	s.config.Cleanup.Enabled = true
	s.config.Cleanup.Schedule = "0 * * * *"

	require.NoError(t, s.Start())
	assert.True(t, s.running)

	assert.Error(t, s.Start())

	s.Stop()
	assert.False(t, s.running)
}

func TestStartInvalidSchedule(t *testing.T) {
	s := newTestScheduler(t)
	s.config.Cleanup.Enabled = true
	s.config.Cleanup.Schedule = "not a schedule"

	assert.Error(t, s.Start())
}
