package events

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/models"
)

func newTestHub() *Hub {
	return NewHub(arbor.NewLogger())
}

func TestHubSubscribeAndPublish(t *testing.T) {
	h := newTestHub()

	ch := h.Subscribe("job-1", "conn-1")

	h.PublishProgress(models.ProgressEvent{
		JobID:    "job-1",
		Step:     "processing",
		Progress: 42,
		Message:  "3/10",
	})

	msg := <-ch
	assert.Equal(t, models.WSTypeProgressUpdate, msg.Type)
	assert.Equal(t, "job-1", msg.JobID)
	assert.Equal(t, "processing", msg.Step)
	assert.Equal(t, 42, msg.Progress)
	assert.Equal(t, "3/10", msg.Message)
}

func TestHubPublishOnlyReachesJobSubscribers(t *testing.T) {
	h := newTestHub()

	ch1 := h.Subscribe("job-1", "conn-1")
	ch2 := h.Subscribe("job-2", "conn-2")

	h.PublishProgress(models.ProgressEvent{JobID: "job-1", Progress: 10})

	assert.Len(t, ch1, 1)
	assert.Len(t, ch2, 0)
}

func TestHubResubscribeReplacesChannel(t *testing.T) {
	h := newTestHub()

	old := h.Subscribe("job-1", "conn-1")
	replacement := h.Subscribe("job-1", "conn-1")

	// The old channel is closed; only the replacement receives
	_, open := <-old
	assert.False(t, open)

	h.PublishProgress(models.ProgressEvent{JobID: "job-1", Progress: 10})
	assert.Len(t, replacement, 1)
}

func TestHubDropsOnFullBuffer(t *testing.T) {
	h := newTestHub()

	ch := h.Subscribe("job-1", "conn-1")

	// Nothing drains the channel; overflow events are dropped, publishing
	// never blocks
	for i := 0; i < subscriberBuffer+10; i++ {
		h.PublishProgress(models.ProgressEvent{
			JobID:    "job-1",
			Progress: i,
			Message:  fmt.Sprintf("event %d", i),
		})
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestHubUnsubscribe(t *testing.T) {
	h := newTestHub()

	ch := h.Subscribe("job-1", "conn-1")
	h.Unsubscribe("job-1", "conn-1")

	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe is a no-op
	h.PublishProgress(models.ProgressEvent{JobID: "job-1", Progress: 10})
}

func TestHubUnsubscribeAll(t *testing.T) {
	h := newTestHub()

	ch1 := h.Subscribe("job-1", "conn-1")
	ch2 := h.Subscribe("job-2", "conn-1")
	other := h.Subscribe("job-1", "conn-2")

	h.UnsubscribeAll("conn-1")

	_, open := <-ch1
	assert.False(t, open)
	_, open = <-ch2
	assert.False(t, open)

	// Other connections keep their subscriptions
	h.PublishProgress(models.ProgressEvent{JobID: "job-1", Progress: 10})
	assert.Len(t, other, 1)
}

func TestHubPublishComplete(t *testing.T) {
	h := newTestHub()

	ch := h.Subscribe("job-1", "conn-1")
	h.PublishComplete("job-1", map[string]int{"total": 3})

	msg := <-ch
	assert.Equal(t, models.WSTypeCrawlingComplete, msg.Type)
	assert.Equal(t, 100, msg.Progress)
	require.NotNil(t, msg.Result)
}

func TestHubPublishError(t *testing.T) {
	h := newTestHub()

	ch := h.Subscribe("job-1", "conn-1")
	h.PublishError("job-1", "engine failure")

	msg := <-ch
	assert.Equal(t, models.WSTypeCrawlingError, msg.Type)
	assert.Equal(t, "engine failure", msg.Error)
}
