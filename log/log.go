package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// A Logger logs messages with explicit priority levels. It is
// implemented by a logging back-end as provided by New() or
// NewMock().
type Logger interface {
	Err(msg string)
	Errf(format string, a ...interface{})
	Warning(msg string)
	Warningf(format string, a ...interface{})
	Info(msg string)
	Infof(format string, a ...interface{})
	Debug(msg string)
	Debugf(format string, a ...interface{})
	AuditInfo(msg string)
	AuditInfof(format string, a ...interface{})
	AuditObject(string, interface{})
	AuditErr(string)
	AuditErrf(format string, a ...interface{})
}

// The constant used to identify audit-specific messages
const auditTag = "[AUDIT]"

// Config defines where log lines go and which levels are emitted. The
// level meanings are as follows:
//
//	-1: suppress all output
//	0: default, which is 6
//	1: meaningless
//	2: meaningless
//	3: log errors
//	4: log warnings and above
//	5: meaningless
//	6: log info and above
//	7: log debug and above
type Config struct {
	StdoutLevel int `yaml:"stdoutLevel" validate:"min=-1,max=7"`
	// TextFormat causes logs to be output via slog's TextHandler instead of
	// the default JSONHandler. This is useful for log readability in local
	// dev.
	TextFormat bool `yaml:"textFormat"`
}

// configToSlogLevel maps the integers used in our log config (which
// originally come from syslog levels) to the values used by slog.
func configToSlogLevel(l int) slog.Level {
	switch l {
	case 1, 2, 3:
		return slog.LevelError
	case 4, 5:
		return slog.LevelWarn
	case 6:
		return slog.LevelInfo
	case 7:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// impl implements Logger on top of a slog.Logger.
type impl struct {
	slogger *slog.Logger
}

// New returns a Logger which writes checksummed lines to w. Lines are JSON
// unless conf.TextFormat is set.
func New(w io.Writer, conf Config) Logger {
	if conf.StdoutLevel < 0 {
		w = io.Discard
	}
	writer := NewChecksumWriter(w)
	opts := &slog.HandlerOptions{Level: configToSlogLevel(conf.StdoutLevel)}
	var handler slog.Handler
	if conf.TextFormat {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}
	return &impl{slog.New(handler)}
}

func (log *impl) logAtLevel(level slog.Level, msg string) {
	log.slogger.Log(context.Background(), level, msg)
}

func (log *impl) auditAtLevel(level slog.Level, msg string) {
	log.logAtLevel(level, fmt.Sprintf("%s %s", auditTag, msg))
}

// Err level messages are always marked with the audit tag, for special handling
// at the upstream system logger.
func (log *impl) Err(msg string) {
	log.auditAtLevel(slog.LevelError, msg)
}

// Errf level messages are always marked with the audit tag, for special handling
// at the upstream system logger.
func (log *impl) Errf(format string, a ...interface{}) {
	log.Err(fmt.Sprintf(format, a...))
}

// Warning level messages pass through normally.
func (log *impl) Warning(msg string) {
	log.logAtLevel(slog.LevelWarn, msg)
}

// Warningf level messages pass through normally.
func (log *impl) Warningf(format string, a ...interface{}) {
	log.Warning(fmt.Sprintf(format, a...))
}

// Info level messages pass through normally.
func (log *impl) Info(msg string) {
	log.logAtLevel(slog.LevelInfo, msg)
}

// Infof level messages pass through normally.
func (log *impl) Infof(format string, a ...interface{}) {
	log.Info(fmt.Sprintf(format, a...))
}

// Debug level messages pass through normally.
func (log *impl) Debug(msg string) {
	log.logAtLevel(slog.LevelDebug, msg)
}

// Debugf level messages pass through normally.
func (log *impl) Debugf(format string, a ...interface{}) {
	log.Debug(fmt.Sprintf(format, a...))
}

// AuditInfo sends an INFO-severity message that is prefixed with the
// audit tag, for special handling at the upstream system logger.
func (log *impl) AuditInfo(msg string) {
	log.auditAtLevel(slog.LevelInfo, msg)
}

// AuditInfof sends an INFO-severity message that is prefixed with the
// audit tag, for special handling at the upstream system logger.
func (log *impl) AuditInfof(format string, a ...interface{}) {
	log.AuditInfo(fmt.Sprintf(format, a...))
}

// AuditObject sends an INFO-severity JSON-serialized object message that is prefixed
// with the audit tag, for special handling at the upstream system logger.
func (log *impl) AuditObject(msg string, obj interface{}) {
	jsonObj, err := json.Marshal(obj)
	if err != nil {
		log.auditAtLevel(slog.LevelError, fmt.Sprintf("Object for msg %q could not be serialized to JSON. Raw: %+v", msg, obj))
		return
	}

	log.auditAtLevel(slog.LevelInfo, fmt.Sprintf("%s JSON=%s", msg, jsonObj))
}

// AuditErr can format an error for auditing; it does so at ERR level.
func (log *impl) AuditErr(msg string) {
	log.auditAtLevel(slog.LevelError, msg)
}

// AuditErrf can format an error for auditing; it does so at ERR level.
func (log *impl) AuditErrf(format string, a ...interface{}) {
	log.AuditErr(fmt.Sprintf(format, a...))
}
