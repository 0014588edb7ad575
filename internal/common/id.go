package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewJobID generates a unique bulk-job ID with the "job_" prefix.
// Format: job_<short-uuid>
func NewJobID() string {
	return "job_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// NewConnectionID generates a unique WebSocket connection ID
// Format: conn_<uuid>
func NewConnectionID() string {
	return "conn_" + uuid.New().String()
}
