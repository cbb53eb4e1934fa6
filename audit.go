package provision

import (
	"sync"
	"time"
)

// LogLevel is the severity of an audit entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Audit contexts used by this package. Callers may log under any
// free-form context string; these are the ones the core emits.
const (
	ContextTenant      = "tenant"
	ContextProfile     = "profile"
	ContextSecurity    = "security"
	ContextPerformance = "performance"
)

// MaxLogEntries caps the audit buffer; the oldest entries are evicted
// once the cap is reached.
const MaxLogEntries = 1000

// DefaultLogLimit is how many entries GetLogs returns when no limit is given
const DefaultLogLimit = 100

// timestampLayout renders UTC timestamps with millisecond precision,
// e.g. 2026-08-28T10:30:00.000Z.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// slowCallThreshold is the duration past which LogPerformance records a warning
const slowCallThreshold = time.Second

// LogEntry is a single structured audit event. Every entry carries a
// timestamp, level, context, action, message and non-nil metadata.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Context   string         `json:"context"`
	Action    string         `json:"action"`
	Message   string         `json:"message"`
	UserID    string         `json:"user_id,omitempty"`
	Metadata  map[string]any `json:"metadata"`
	Duration  int64          `json:"duration,omitempty"`
}

// AuditLog is an append-only, capacity-bounded in-process event log.
// It is safe for concurrent use; entries survive only for the lifetime
// of the process. Construct one at startup and pass it by reference.
type AuditLog struct {
	mu      sync.Mutex
	entries []LogEntry
	logger  Logger
	now     func() time.Time
}

// AuditOption configures an AuditLog
type AuditOption func(*AuditLog)

// WithAuditLogger forwards every appended entry to a console logger
func WithAuditLogger(l Logger) AuditOption {
	return func(a *AuditLog) {
		a.logger = l
	}
}

// WithAuditClock overrides the clock, mostly for tests
func WithAuditClock(now func() time.Time) AuditOption {
	return func(a *AuditLog) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAuditLog creates an empty audit log
func NewAuditLog(opts ...AuditOption) *AuditLog {
	a := &AuditLog{
		entries: make([]LogEntry, 0, 64),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Log appends an entry with the current timestamp. Metadata may be nil;
// the stored entry always carries a non-nil metadata map.
func (a *AuditLog) Log(level LogLevel, context, action, message string, metadata map[string]any) {
	a.append(LogEntry{
		Level:    level,
		Context:  context,
		Action:   action,
		Message:  message,
		Metadata: metadata,
	})
}

// LogUser is Log with the acting or affected user attached
func (a *AuditLog) LogUser(level LogLevel, context, action, message, userID string, metadata map[string]any) {
	a.append(LogEntry{
		Level:    level,
		Context:  context,
		Action:   action,
		Message:  message,
		UserID:   userID,
		Metadata: metadata,
	})
}

// Debug logs at debug level
func (a *AuditLog) Debug(context, action, message string, metadata map[string]any) {
	a.Log(LevelDebug, context, action, message, metadata)
}

// Info logs at info level
func (a *AuditLog) Info(context, action, message string, metadata map[string]any) {
	a.Log(LevelInfo, context, action, message, metadata)
}

// Warn logs at warn level
func (a *AuditLog) Warn(context, action, message string, metadata map[string]any) {
	a.Log(LevelWarn, context, action, message, metadata)
}

// Error logs at error level
func (a *AuditLog) Error(context, action, message string, metadata map[string]any) {
	a.Log(LevelError, context, action, message, metadata)
}

// LogPerformance records a timing sample under the "performance"
// context: warn when the call exceeded one second, debug otherwise.
// metadata.duration always carries the duration in milliseconds.
func (a *AuditLog) LogPerformance(context, action string, duration time.Duration, metadata map[string]any) {
	level := LevelDebug
	if duration > slowCallThreshold {
		level = LevelWarn
	}

	ms := duration.Milliseconds()
	md := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		md[k] = v
	}
	md["context"] = context
	md["duration"] = ms

	a.append(LogEntry{
		Level:    level,
		Context:  ContextPerformance,
		Action:   action,
		Message:  "operation timing",
		Metadata: md,
		Duration: ms,
	})
}

func (a *AuditLog) append(entry LogEntry) {
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}

	a.mu.Lock()
	entry.Timestamp = a.now().UTC().Format(timestampLayout)
	a.entries = append(a.entries, entry)
	if overflow := len(a.entries) - MaxLogEntries; overflow > 0 {
		a.entries = append(a.entries[:0], a.entries[overflow:]...)
	}
	logger := a.logger
	a.mu.Unlock()

	if logger != nil {
		switch entry.Level {
		case LevelError:
			logger.Error("[%s] %s: %s", entry.Context, entry.Action, entry.Message)
		case LevelDebug:
			logger.Debug("[%s] %s: %s", entry.Context, entry.Action, entry.Message)
		default:
			logger.Info("[%s] %s: %s", entry.Context, entry.Action, entry.Message)
		}
	}
}

// GetLogs returns the most recent entries matching the optional level
// and context filters, in insertion order. A zero level or empty
// context matches everything; limit <= 0 defaults to DefaultLogLimit.
func (a *AuditLog) GetLogs(level LogLevel, context string, limit int) []LogEntry {
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	matched := make([]LogEntry, 0, limit)
	for _, entry := range a.entries {
		if level != "" && entry.Level != level {
			continue
		}
		if context != "" && entry.Context != context {
			continue
		}
		matched = append(matched, entry)
	}

	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	return copyEntries(matched)
}

// GetRecentErrors returns the most recent error-level entries across
// all contexts; limit <= 0 defaults to 50.
func (a *AuditLog) GetRecentErrors(limit int) []LogEntry {
	if limit <= 0 {
		limit = 50
	}
	return a.GetLogs(LevelError, "", limit)
}

// Count returns the number of buffered entries
func (a *AuditLog) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// ClearLogs empties the buffer
func (a *AuditLog) ClearLogs() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = a.entries[:0]
}

// ExportLogs returns a value-equal, reference-distinct copy of the
// whole buffer in insertion order.
func (a *AuditLog) ExportLogs() []LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyEntries(a.entries)
}

func copyEntries(entries []LogEntry) []LogEntry {
	out := make([]LogEntry, len(entries))
	for i, entry := range entries {
		md := make(map[string]any, len(entry.Metadata))
		for k, v := range entry.Metadata {
			md[k] = v
		}
		entry.Metadata = md
		out[i] = entry
	}
	return out
}
