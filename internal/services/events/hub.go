package events

import (
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

// subscriberBuffer bounds each subscription channel; a subscriber that
// falls this far behind starts losing intermediate progress updates
const subscriberBuffer = 32

// Hub fans job-scoped events out to subscriber channels. Each subscription
// owns one buffered channel; publishing drops on a full buffer instead of
// blocking the crawl path.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan models.WSMessage // jobID -> connID -> channel
	logger      arbor.ILogger
}

// NewHub creates the progress hub
func NewHub(logger arbor.ILogger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[string]chan models.WSMessage),
		logger:      logger,
	}
}

// Subscribe registers connID for events of jobID and returns the channel
// to read from. Resubscribing the same pair replaces the old channel.
func (h *Hub) Subscribe(jobID, connID string) <-chan models.WSMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[jobID]; !ok {
		h.subscribers[jobID] = make(map[string]chan models.WSMessage)
	}
	if old, ok := h.subscribers[jobID][connID]; ok {
		close(old)
	}

	ch := make(chan models.WSMessage, subscriberBuffer)
	h.subscribers[jobID][connID] = ch

	h.logger.Debug().
		Str("job_id", jobID).
		Str("connection_id", connID).
		Msg("Subscription added")

	return ch
}

// Unsubscribe removes one subscription and closes its channel
func (h *Hub) Unsubscribe(jobID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(jobID, connID)
}

// UnsubscribeAll removes every subscription held by connID. Called when a
// connection closes.
func (h *Hub) UnsubscribeAll(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for jobID := range h.subscribers {
		h.removeLocked(jobID, connID)
	}
}

func (h *Hub) removeLocked(jobID, connID string) {
	conns, ok := h.subscribers[jobID]
	if !ok {
		return
	}
	if ch, ok := conns[connID]; ok {
		close(ch)
		delete(conns, connID)
	}
	if len(conns) == 0 {
		delete(h.subscribers, jobID)
	}
}

// publish fans a message out to every subscriber of its job
func (h *Hub) publish(jobID string, msg models.WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID, ch := range h.subscribers[jobID] {
		select {
		case ch <- msg:
		default:
			h.logger.Warn().
				Str("job_id", jobID).
				Str("connection_id", connID).
				Msg("Subscriber buffer full, dropping event")
		}
	}
}

// PublishProgress pushes a progress_update event
func (h *Hub) PublishProgress(event models.ProgressEvent) {
	h.publish(event.JobID, models.WSMessage{
		Type:     models.WSTypeProgressUpdate,
		JobID:    event.JobID,
		Step:     event.Step,
		Progress: event.Progress,
		Message:  event.Message,
		Data:     event.Data,
	})
}

// PublishComplete pushes a crawling_complete event carrying the result
func (h *Hub) PublishComplete(jobID string, result interface{}) {
	h.publish(jobID, models.WSMessage{
		Type:     models.WSTypeCrawlingComplete,
		JobID:    jobID,
		Progress: 100,
		Result:   result,
	})
}

// PublishError pushes a crawling_error event
func (h *Hub) PublishError(jobID string, errMsg string) {
	h.publish(jobID, models.WSMessage{
		Type:  models.WSTypeCrawlingError,
		JobID: jobID,
		Error: errMsg,
	})
}
