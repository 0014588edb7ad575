package interfaces

import (
	"github.com/ternarybob/scout/internal/models"
)

// ProgressPublisher fans job-scoped events out to subscribed connections.
// Publishing never blocks the caller; slow subscribers are dropped.
type ProgressPublisher interface {
	PublishProgress(event models.ProgressEvent)
	PublishComplete(jobID string, result interface{})
	PublishError(jobID string, errMsg string)
}

// NopPublisher discards all events. Used where progress reporting is optional.
type NopPublisher struct{}

func (NopPublisher) PublishProgress(models.ProgressEvent)  {}
func (NopPublisher) PublishComplete(string, interface{})   {}
func (NopPublisher) PublishError(string, string)           {}
