package models

// WebSocket message types pushed by the progress hub
const (
	WSTypeProgressUpdate        = "progress_update"
	WSTypeCrawlingComplete      = "crawling_complete"
	WSTypeCrawlingError         = "crawling_error"
	WSTypePong                  = "pong"
	WSTypeSubscriptionConfirmed = "subscription_confirmed"
)

// ProgressEvent is one job-scoped progress notification.
// Progress is monotonic non-decreasing per job: 5 queued, 10-90 in flight,
// 95 saving, 100 complete.
type ProgressEvent struct {
	JobID    string      `json:"job_id"`
	Step     string      `json:"step"`
	Progress int         `json:"progress"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data,omitempty"`
}

// WSMessage is the wire envelope for every hub push
type WSMessage struct {
	Type     string      `json:"type"`
	JobID    string      `json:"job_id,omitempty"`
	Step     string      `json:"step,omitempty"`
	Progress int         `json:"progress,omitempty"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Result   interface{} `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// WSClientMessage is what subscribers send: subscribe or ping
type WSClientMessage struct {
	Type  string `json:"type"` // "subscribe" or "ping"
	JobID string `json:"job_id,omitempty"`
}
