package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/interfaces"
	"github.com/ternarybob/scout/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// cachedResult is the stored form of one cache entry
type cachedResult struct {
	URL       string `badgerhold:"key"`
	Result    *models.CrawlResult
	ExpiresAt time.Time
}

// CacheStorage implements the TTL result cache on Badger. Expired entries
// are dropped lazily on read and swept by PurgeExpired.
type CacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCacheStorage creates a new CacheStorage instance
func NewCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CacheStorage {
	return &CacheStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CacheStorage) Get(ctx context.Context, url string) (*models.CrawlResult, bool) {
	var entry cachedResult
	if err := s.db.Store().Get(url, &entry); err != nil {
		if err != badgerhold.ErrNotFound {
			s.logger.Warn().Str("url", url).Err(err).Msg("Cache read failed")
		}
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		if err := s.db.Store().Delete(url, &cachedResult{}); err != nil && err != badgerhold.ErrNotFound {
			s.logger.Warn().Str("url", url).Err(err).Msg("Failed to drop expired cache entry")
		}
		return nil, false
	}

	return entry.Result, true
}

func (s *CacheStorage) Set(ctx context.Context, url string, result *models.CrawlResult, ttl time.Duration) error {
	if url == "" || result == nil {
		return fmt.Errorf("cache entry requires url and result")
	}

	entry := cachedResult{
		URL:       url,
		Result:    result,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.db.Store().Upsert(url, &entry); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

func (s *CacheStorage) Delete(ctx context.Context, url string) error {
	if err := s.db.Store().Delete(url, &cachedResult{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// PurgeExpired removes every entry past its TTL. Called by the cleanup
// scheduler.
func (s *CacheStorage) PurgeExpired(ctx context.Context) (int, error) {
	query := badgerhold.Where("ExpiresAt").Lt(time.Now())

	var expired []*cachedResult
	if err := s.db.Store().Find(&expired, query); err != nil {
		return 0, fmt.Errorf("failed to scan cache: %w", err)
	}

	removed := 0
	for _, entry := range expired {
		if err := s.db.Store().Delete(entry.URL, &cachedResult{}); err == nil {
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Expired cache entries purged")
	}
	return removed, nil
}
