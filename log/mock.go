package log

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
)

// NewMock returns a Logger that records every message for inspection by
// tests instead of writing it anywhere.
func NewMock() *Mock {
	return &Mock{impl: impl{slog.New(&mockHandler{})}}
}

// Mock is a Logger whose output can be examined with GetAll and
// GetAllMatching.
type Mock struct {
	impl
}

// LogMessage is a log entry that has been sent to a Mock.
type LogMessage struct {
	Level   slog.Level
	Message string
}

var levelName = map[slog.Level]string{
	slog.LevelError: "ERR",
	slog.LevelWarn:  "WARNING",
	slog.LevelInfo:  "INFO",
	slog.LevelDebug: "DEBUG",
}

func (lm *LogMessage) String() string {
	name, ok := levelName[lm.Level]
	if !ok {
		name = fmt.Sprintf("LEVEL(%d)", lm.Level)
	}
	return name + ": " + lm.Message
}

// mockHandler is a slog.Handler that keeps every record at every level.
// Records are shared between handlers derived via WithAttrs and WithGroup.
type mockHandler struct {
	sync.Mutex
	logged []*LogMessage
}

func (h *mockHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *mockHandler) Handle(_ context.Context, r slog.Record) error {
	h.Lock()
	defer h.Unlock()
	h.logged = append(h.logged, &LogMessage{Level: r.Level, Message: r.Message})
	return nil
}

func (h *mockHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *mockHandler) WithGroup(string) slog.Handler { return h }

func (m *Mock) handler() *mockHandler {
	return m.slogger.Handler().(*mockHandler)
}

// GetAll returns all LogMessages logged (since the last call to
// Clear(), if applicable).
//
// The caller must not modify the elements of the returned slice.
func (m *Mock) GetAll() []*LogMessage {
	h := m.handler()
	h.Lock()
	defer h.Unlock()
	return append([]*LogMessage(nil), h.logged...)
}

// GetAllMatching returns all LogMessages logged (since the last
// Clear()) whose text matches the given regexp. The regexp is
// accepted as a string and compiled on the fly, because convenience
// is more important than performance.
func (m *Mock) GetAllMatching(reString string) []*LogMessage {
	re := regexp.MustCompile(reString)
	var matches []*LogMessage
	for _, logMsg := range m.GetAll() {
		if re.MatchString(logMsg.String()) {
			matches = append(matches, logMsg)
		}
	}
	return matches
}

// Clear resets the log buffer.
func (m *Mock) Clear() {
	h := m.handler()
	h.Lock()
	defer h.Unlock()
	h.logged = nil
}
