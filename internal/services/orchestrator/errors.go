package orchestrator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/scout/internal/models"
)

// errorPattern maps a technical failure to a user-facing Korean message.
// Order matters: the first matching pattern wins.
type errorPattern struct {
	re         *regexp.Regexp
	message    string
	suggestion string
}

var errorPatterns = []errorPattern{
	{
		re:         regexp.MustCompile(`timeout.*exceeded|timed out|connection timeout`),
		message:    "웹사이트 응답 시간이 초과되었습니다",
		suggestion: "잠시 후 다시 시도해보세요",
	},
	{
		re:         regexp.MustCompile(`connection.*refused|connection.*failed|network.*unreachable`),
		message:    "웹사이트에 연결할 수 없습니다",
		suggestion: "인터넷 연결을 확인하거나 잠시 후 다시 시도해보세요",
	},
	{
		re:         regexp.MustCompile(`name.*resolution.*failed|dns.*error|host.*not.*found|no such host`),
		message:    "웹사이트 주소를 찾을 수 없습니다",
		suggestion: "URL이 올바른지 확인해보세요",
	},
	{
		re:         regexp.MustCompile(`404|not found`),
		message:    "요청한 페이지를 찾을 수 없습니다",
		suggestion: "URL이 올바른지 확인해보세요",
	},
	{
		re:         regexp.MustCompile(`403|forbidden|access.*denied`),
		message:    "페이지 접근이 거부되었습니다",
		suggestion: "해당 웹사이트에서 크롤링을 허용하지 않을 수 있습니다",
	},
	{
		re:         regexp.MustCompile(`500|internal.*server.*error`),
		message:    "웹사이트 서버에 오류가 발생했습니다",
		suggestion: "잠시 후 다시 시도해보세요",
	},
	{
		re:         regexp.MustCompile(`502|bad.*gateway`),
		message:    "웹사이트 서버가 일시적으로 사용할 수 없습니다",
		suggestion: "잠시 후 다시 시도해보세요",
	},
	{
		re:         regexp.MustCompile(`503|service.*unavailable`),
		message:    "웹사이트 서비스가 일시적으로 중단되었습니다",
		suggestion: "잠시 후 다시 시도해보세요",
	},
	{
		re:         regexp.MustCompile(`ssl.*certificate|certificate.*verify.*failed|ssl.*error`),
		message:    "웹사이트의 보안 인증서에 문제가 있습니다",
		suggestion: "해당 웹사이트의 보안 설정을 확인해보세요",
	},
	{
		re:         regexp.MustCompile(`bot.*detected|captcha|cloudflare|access.*denied.*bot`),
		message:    "웹사이트에서 자동화된 접근을 차단했습니다",
		suggestion: "해당 웹사이트는 크롤링을 허용하지 않을 수 있습니다",
	},
	{
		re:         regexp.MustCompile(`page.*goto.*failed|navigation.*failed|load.*failed`),
		message:    "페이지를 불러올 수 없습니다",
		suggestion: "웹사이트가 일시적으로 접근하기 어려울 수 있습니다",
	},
	{
		re:         regexp.MustCompile(`javascript.*error|script.*error`),
		message:    "페이지의 동적 콘텐츠를 처리하는 중 오류가 발생했습니다",
		suggestion: "해당 페이지는 복잡한 구조를 가지고 있을 수 있습니다",
	},
	{
		re:         regexp.MustCompile(`memory.*error|out.*of.*memory`),
		message:    "페이지가 너무 복잡하여 처리할 수 없습니다",
		suggestion: "더 간단한 페이지로 시도해보세요",
	},
	{
		re:         regexp.MustCompile(`crawling.*failed|scraping.*failed`),
		message:    "페이지 내용을 추출할 수 없습니다",
		suggestion: "다른 크롤링 방식을 시도하거나 잠시 후 다시 시도해보세요",
	},
}

var engineDescriptions = map[string]string{
	models.EngineRequests:   "기본 HTTP 크롤러",
	models.EngineFirecrawl:  "고급 크롤링 서비스",
	models.EngineCrawl4AI:   "AI 기반 크롤러",
	models.EnginePlaywright: "브라우저 자동화",
}

var (
	filePathRe   = regexp.MustCompile(`[/\\][a-zA-Z0-9_\-./\\]+?\.go`)
	lineRefRe    = regexp.MustCompile(`(?:at line \d+|line \d+:)`)
	stackTraceRe = regexp.MustCompile(`(?s)goroutine \d+ \[.*`)
	blankRunsRe  = regexp.MustCompile(`\n\s*\n`)
)

// FormattedError is a user-facing rendering of a crawl failure with the
// technical detail stripped
type FormattedError struct {
	UserMessage      string `json:"user_message"`
	Suggestion       string `json:"suggestion"`
	TechnicalSummary string `json:"technical_summary"`
	EngineInfo       string `json:"engine_info"`
	Timestamp        string `json:"timestamp"`
}

// FormatError converts a raw crawl error into the user-facing form
func FormatError(errMsg string, attemptedEngines []string) FormattedError {
	if errMsg == "" {
		errMsg = "알 수 없는 오류가 발생했습니다"
	}

	clean := sanitizeError(errMsg)
	message, suggestion := matchErrorPattern(clean)

	return FormattedError{
		UserMessage:      message,
		Suggestion:       suggestion,
		TechnicalSummary: technicalSummary(clean, attemptedEngines),
		EngineInfo:       formatEngineInfo(attemptedEngines),
		Timestamp:        time.Now().Format("2006-01-02 15:04:05"),
	}
}

// FormatCrawlError renders the failure as a single user-facing string
func FormatCrawlError(errMsg string, attemptedEngines []string) string {
	formatted := FormatError(errMsg, attemptedEngines)

	parts := []string{formatted.UserMessage}
	if formatted.Suggestion != "" {
		parts = append(parts, "💡 "+formatted.Suggestion)
	}
	if len(attemptedEngines) > 0 {
		parts = append(parts, "🔧 "+formatted.EngineInfo)
	}
	return strings.Join(parts, "\n")
}

// sanitizeError strips file paths, line references and stack traces
func sanitizeError(errMsg string) string {
	clean := stackTraceRe.ReplaceAllString(errMsg, "")
	clean = filePathRe.ReplaceAllString(clean, "[파일]")
	clean = lineRefRe.ReplaceAllString(clean, "")
	clean = blankRunsRe.ReplaceAllString(clean, "\n")
	return strings.TrimSpace(clean)
}

func matchErrorPattern(errMsg string) (message, suggestion string) {
	lower := strings.ToLower(errMsg)
	for _, pattern := range errorPatterns {
		if pattern.re.MatchString(lower) {
			return pattern.message, pattern.suggestion
		}
	}
	return "페이지를 처리하는 중 오류가 발생했습니다", "다른 URL로 시도하거나 잠시 후 다시 시도해보세요"
}

func formatEngineInfo(attemptedEngines []string) string {
	if len(attemptedEngines) == 0 {
		return "크롤링 엔진 정보 없음"
	}

	described := make([]string, 0, len(attemptedEngines))
	for _, engine := range attemptedEngines {
		desc, ok := engineDescriptions[engine]
		if !ok {
			desc = engine
		}
		described = append(described, fmt.Sprintf("%s(%s)", engine, desc))
	}
	return "시도한 방법: " + strings.Join(described, ", ")
}

func technicalSummary(errMsg string, attemptedEngines []string) string {
	var parts []string
	if len(attemptedEngines) > 0 {
		parts = append(parts, fmt.Sprintf("시도한 엔진: %d개", len(attemptedEngines)))
	}

	lower := strings.ToLower(errMsg)
	switch {
	case strings.Contains(lower, "timeout"):
		parts = append(parts, "타입: 타임아웃")
	case strings.Contains(lower, "connection"):
		parts = append(parts, "타입: 연결 오류")
	case strings.Contains(lower, "404") || strings.Contains(lower, "not found"):
		parts = append(parts, "타입: 페이지 없음")
	case strings.Contains(lower, "403") || strings.Contains(lower, "forbidden"):
		parts = append(parts, "타입: 접근 거부")
	default:
		parts = append(parts, "타입: 일반 오류")
	}

	return strings.Join(parts, " | ")
}
