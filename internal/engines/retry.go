package engines

import (
	"strings"
	"time"
)

// permanentErrorMarkers are substrings identifying failures that retrying
// the same engine cannot fix. The orchestrator may still try other engines;
// a browser or premium engine can succeed where plain HTTP got a 403.
var permanentErrorMarkers = []string{
	"404",
	"not found",
	"403",
	"forbidden",
	"dns",
	"name resolution failed",
	"connection refused",
	"invalid url",
	"malformed url",
	"ssl certificate",
	"certificate verify failed",
}

// IsPermanentError classifies an error message by substring match.
// Classification is deterministic: the same message always yields the
// same verdict.
func IsPermanentError(errMsg string) bool {
	if errMsg == "" {
		return false
	}
	lower := strings.ToLower(errMsg)
	for _, marker := range permanentErrorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Backoff returns wait * 2^attempt, capped at 30s. Attempt is 0-based.
func Backoff(wait time.Duration, attempt int) time.Duration {
	if wait <= 0 {
		wait = time.Second
	}
	backoff := wait << uint(attempt)
	if backoff > 30*time.Second || backoff <= 0 {
		backoff = 30 * time.Second
	}
	return backoff
}
