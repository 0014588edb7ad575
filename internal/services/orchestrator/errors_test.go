package orchestrator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatErrorPatterns(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		expected string
	}{
		{"timeout", "navigation timed out after 30s", "웹사이트 응답 시간이 초과되었습니다"},
		{"connection refused", "dial tcp: connection refused", "웹사이트에 연결할 수 없습니다"},
		{"dns", "lookup example.invalid: no such host", "웹사이트 주소를 찾을 수 없습니다"},
		{"404", "server returned HTTP 404", "요청한 페이지를 찾을 수 없습니다"},
		{"forbidden", "HTTP 403 Forbidden", "페이지 접근이 거부되었습니다"},
		{"500", "internal server error", "웹사이트 서버에 오류가 발생했습니다"},
		{"bad gateway", "502 bad gateway", "웹사이트 서버가 일시적으로 사용할 수 없습니다"},
		{"service unavailable", "503 service unavailable", "웹사이트 서비스가 일시적으로 중단되었습니다"},
		{"ssl", "ssl certificate problem: expired", "웹사이트의 보안 인증서에 문제가 있습니다"},
		{"bot detection", "blocked by cloudflare challenge", "웹사이트에서 자동화된 접근을 차단했습니다"},
		{"navigation", "page.goto: navigation failed", "페이지를 불러올 수 없습니다"},
		{"unmatched", "some unexpected condition", "페이지를 처리하는 중 오류가 발생했습니다"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatted := FormatError(tt.errMsg, nil)
			assert.Equal(t, tt.expected, formatted.UserMessage)
			assert.NotEmpty(t, formatted.Suggestion)
			assert.NotEmpty(t, formatted.Timestamp)
		})
	}
}

func TestFormatErrorFirstPatternWins(t *testing.T) {
	// A message matching both timeout and connection patterns takes the
	// timeout message because it comes first in the table
	formatted := FormatError("connection timeout while dialing", nil)
	assert.Equal(t, "웹사이트 응답 시간이 초과되었습니다", formatted.UserMessage)
}

func TestFormatErrorEmptyMessage(t *testing.T) {
	formatted := FormatError("", []string{"requests"})
	assert.Equal(t, "페이지를 처리하는 중 오류가 발생했습니다", formatted.UserMessage)
}

func TestFormatErrorEngineInfo(t *testing.T) {
	formatted := FormatError("timed out", []string{"requests", "playwright"})

	assert.Contains(t, formatted.EngineInfo, "시도한 방법:")
	assert.Contains(t, formatted.EngineInfo, "requests(기본 HTTP 크롤러)")
	assert.Contains(t, formatted.EngineInfo, "playwright(브라우저 자동화)")

	formatted = FormatError("timed out", nil)
	assert.Equal(t, "크롤링 엔진 정보 없음", formatted.EngineInfo)
}

func TestFormatErrorUnknownEngine(t *testing.T) {
	formatted := FormatError("timed out", []string{"custom-engine"})
	assert.Contains(t, formatted.EngineInfo, "custom-engine(custom-engine)")
}

func TestFormatErrorTechnicalSummary(t *testing.T) {
	formatted := FormatError("connection reset by peer", []string{"requests", "crawl4ai"})
	assert.Contains(t, formatted.TechnicalSummary, "시도한 엔진: 2개")
	assert.Contains(t, formatted.TechnicalSummary, "타입: 연결 오류")

	formatted = FormatError("HTTP 404", nil)
	assert.Contains(t, formatted.TechnicalSummary, "타입: 페이지 없음")
}

func TestSanitizeError(t *testing.T) {
	raw := "crawl failed in /home/user/project/internal/engines/requests.go at line 42\ngoroutine 17 [running]:\nmain.crawl(0x0)"
	clean := sanitizeError(raw)

	assert.NotContains(t, clean, "requests.go")
	assert.NotContains(t, clean, "goroutine")
	assert.NotContains(t, clean, "at line 42")
	assert.Contains(t, clean, "[파일]")
}

func TestFormatCrawlError(t *testing.T) {
	msg := FormatCrawlError("navigation timed out", []string{"requests", "playwright"})

	lines := strings.Split(msg, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "웹사이트 응답 시간이 초과되었습니다", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "💡 "))
	assert.True(t, strings.HasPrefix(lines[2], "🔧 "))
}

func TestFormatCrawlErrorNoEngines(t *testing.T) {
	msg := FormatCrawlError("navigation timed out", nil)
	assert.NotContains(t, msg, "🔧")
}
