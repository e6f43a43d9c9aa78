package testutils

import "sync"

// LogEntry is a single call captured by RecordingLogger
type LogEntry struct {
	Level  string
	Msg    string
	Fields []any
}

// RecordingLogger captures log calls for assertions. It satisfies logging.Logger.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewRecordingLogger creates an empty recorder
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (r *RecordingLogger) record(level, msg string, fields []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, LogEntry{Level: level, Msg: msg, Fields: fields})
}

func (r *RecordingLogger) Debug(msg string, fields ...any) { r.record("DEBUG", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...any)  { r.record("INFO", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...any)  { r.record("WARN", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...any) { r.record("ERROR", msg, fields) }

// Entries returns a copy of everything recorded so far
func (r *RecordingLogger) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.entries...)
}

// HasEntry reports whether a call with the given level and message was recorded
func (r *RecordingLogger) HasEntry(level, msg string) bool {
	for _, entry := range r.Entries() {
		if entry.Level == level && entry.Msg == msg {
			return true
		}
	}
	return false
}
