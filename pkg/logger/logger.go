package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var levelRank = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	UserID    *string                `json:"user_id,omitempty"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

type Logger struct {
	mu       sync.Mutex
	output   io.Writer
	minLevel LogLevel
	color    bool
}

var globalLogger *Logger

func New(output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{output: output, minLevel: LevelInfo, color: output == os.Stdout}
}

// Init installs the process-wide logger writing to stdout. LOG_LEVEL
// raises or lowers the threshold.
func Init() {
	l := New(os.Stdout)
	if level, ok := ParseLevel(os.Getenv("LOG_LEVEL")); ok {
		l.minLevel = level
	}
	globalLogger = l
}

// SetOutput replaces the global logger, mostly so tests can capture entries.
func SetOutput(w io.Writer) {
	globalLogger = New(w)
}

func ParseLevel(value string) (LogLevel, bool) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(value)))
	_, ok := levelRank[level]
	return level, ok
}

func (l *Logger) log(level LogLevel, action string, userID *string, details map[string]interface{}, err error) {
	if levelRank[level] < levelRank[l.minLevel] {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		UserID:    userID,
		Action:    action,
		Details:   details,
		Caller:    caller(),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	data, _ := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.color {
		fmt.Fprintf(l.output, "%s\n", string(data))
		return
	}

	var colorCode string
	switch level {
	case LevelError:
		colorCode = "\033[31m"
	case LevelWarn:
		colorCode = "\033[33m"
	case LevelDebug:
		colorCode = "\033[90m"
	default:
		colorCode = "\033[36m"
	}
	fmt.Fprintf(l.output, "%s%s\033[0m\n", colorCode, string(data))
}

func Debug(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelDebug, action, nil, details, nil)
	}
}

func Info(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelInfo, action, nil, details, nil)
	}
}

func InfoWithUser(userID string, action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelInfo, action, &userID, details, nil)
	}
}

func Warn(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelWarn, action, nil, details, nil)
	}
}

func WarnWithUser(userID string, action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelWarn, action, &userID, details, nil)
	}
}

func Error(action string, err error, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelError, action, nil, details, err)
	}
}

func ErrorWithUser(userID string, action string, err error, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelError, action, &userID, details, err)
	}
}

func GetUserIDFromContext(c *fiber.Ctx) *string {
	if userID := c.Locals("userID"); userID != nil {
		if id, ok := userID.(string); ok {
			return &id
		}
	}
	return nil
}

// caller skips log, the package-level helper and this function.
func caller() string {
	if _, file, line, ok := runtime.Caller(3); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return ""
}

var sensitiveFields = []string{"token", "code", "state", "clientSecret", "idToken", "accessToken", "refreshToken"}

func redactSensitiveFields(jsonMap map[string]interface{}) {
	for _, field := range sensitiveFields {
		if _, exists := jsonMap[field]; exists {
			jsonMap[field] = "[REDACTED]"
		}
	}
}

func GetRequestBodySummary(c *fiber.Ctx) string {
	body := c.Body()
	if len(body) == 0 {
		return "empty"
	}

	if len(body) > 1024 {
		return fmt.Sprintf("large (%d bytes)", len(body))
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(body, &jsonMap); err == nil {
		redactSensitiveFields(jsonMap)
		if jsonBytes, err := json.Marshal(jsonMap); err == nil {
			if len(jsonBytes) > 200 {
				return string(jsonBytes[:200]) + "..."
			}
			return string(jsonBytes)
		}
	}

	return fmt.Sprintf("binary (%d bytes)", len(body))
}

func GetResponseSizeSummary(c *fiber.Ctx) string {
	body := c.Response().Body()
	if len(body) == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d bytes", len(body))
}

func GenerateRequestID() string {
	return uuid.New().String()
}
