package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/interfaces"
)

// Manager bundles the Badger-backed storages behind one lifecycle
type Manager struct {
	db      *BadgerDB
	jobs    interfaces.JobStorage
	cache   interfaces.CacheStorage
	sweeper *CacheStorage
	logger  arbor.ILogger
}

// NewManager opens the database and wires the storages
func NewManager(cfg *common.Config, logger arbor.ILogger) (*Manager, error) {
	db, err := NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, err
	}

	cache := NewCacheStorage(db, logger)

	return &Manager{
		db:      db,
		jobs:    NewJobStorage(db, logger),
		cache:   cache,
		sweeper: cache.(*CacheStorage),
		logger:  logger,
	}, nil
}

// JobStorage returns the job store
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.jobs
}

// CacheStorage returns the result cache
func (m *Manager) CacheStorage() interfaces.CacheStorage {
	return m.cache
}

// CacheSweeper returns the cache with its purge surface for the cleanup
// scheduler
func (m *Manager) CacheSweeper() *CacheStorage {
	return m.sweeper
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
