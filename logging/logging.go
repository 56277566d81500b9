package logging

import (
	"context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"time"
)

// noPublishKey is the field key that marks loggers whose entries must not be
// published.
const noPublishKey = "no_publish"

// publishBufferSize is the buffer size of the channel that publishing cores
// forward entries to. When full, entries are dropped.
const publishBufferSize = 256

// NoPublish is a zap.Field that excludes entries of the logger from publishing.
// This is needed for loggers that are used while publishing log entries in
// order to avoid publishing loops.
var NoPublish = zap.Bool(noPublishKey, true)

// LogEntry is a log entry that is forwarded for publishing.
type LogEntry struct {
	// Time is the timestamp the entry was logged.
	Time time.Time
	// Message is the entry message.
	Message string
	// Level is the log level of the entry.
	Level zapcore.Level
	// LoggerName is the name of the logger that logged the entry.
	LoggerName string
	// Fields holds all encoded fields including the ones of the logger.
	Fields map[string]interface{}
}

// publishCore is a zapcore.Core that forwards all entries to a channel.
type publishCore struct {
	zapcore.LevelEnabler
	// lifetime is the context that, when done, stops forwarding.
	lifetime context.Context
	// fields are the accumulated fields from With calls.
	fields []zapcore.Field
	// omit is set when one of the fields is NoPublish.
	omit bool
	// forward is where entries are sent to.
	forward chan<- LogEntry
}

// NewPublishCore creates a zapcore.Core that forwards entries with at least
// debug level to the returned channel until the given context.Context is done.
// Entries of loggers with the NoPublish field are omitted.
func NewPublishCore(ctx context.Context) (zapcore.Core, <-chan LogEntry) {
	forward := make(chan LogEntry, publishBufferSize)
	return &publishCore{
		LevelEnabler: zapcore.DebugLevel,
		lifetime:     ctx,
		forward:      forward,
	}, forward
}

func (c *publishCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &publishCore{
		LevelEnabler: c.LevelEnabler,
		lifetime:     c.lifetime,
		fields:       make([]zapcore.Field, 0, len(c.fields)+len(fields)),
		omit:         c.omit || hasNoPublishField(fields),
		forward:      c.forward,
	}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *publishCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.omit || !c.Enabled(entry.Level) {
		return checked
	}
	return checked.AddCore(entry, c)
}

func (c *publishCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if hasNoPublishField(fields) {
		return nil
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range c.fields {
		field.AddTo(enc)
	}
	for _, field := range fields {
		field.AddTo(enc)
	}
	logEntry := LogEntry{
		Time:       entry.Time,
		Message:    entry.Message,
		Level:      entry.Level,
		LoggerName: entry.LoggerName,
		Fields:     enc.Fields,
	}
	if c.lifetime.Err() != nil {
		return nil
	}
	// Drop the entry if nobody keeps up.
	select {
	case c.forward <- logEntry:
	default:
	}
	return nil
}

func (c *publishCore) Sync() error {
	return nil
}

// hasNoPublishField checks whether the given fields contain NoPublish.
func hasNoPublishField(fields []zapcore.Field) bool {
	for _, field := range fields {
		if field.Key == noPublishKey && field.Type == zapcore.BoolType && field.Integer == 1 {
			return true
		}
	}
	return false
}
