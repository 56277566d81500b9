package logpublishsvc

import (
	"context"
	"github.com/lefinal/vrcafe-server/event"
	"github.com/lefinal/vrcafe-server/logging"
	"github.com/lefinal/vrcafe-server/portal"
	"github.com/lefinal/vrcafe-server/service"
	"go.uber.org/zap"
	"time"
)

// topicLogNext is the topic to publish log entries to.
const topicLogNext portal.Topic = "vrcafe/log/next"

// publishDebounceDelay is the delay to wait for collecting log entries. This
// avoids publishing on every single log call.
const publishDebounceDelay = 100 * time.Millisecond

// maxBatchSize limits the entries published after one debounce.
const maxBatchSize = 64

// logPublishService publishes log entries from logEntriesIn to the portal.
type logPublishService struct {
	logger *zap.Logger
	portal portal.Portal
	// logEntriesIn is the channel to read log entries to publish from.
	logEntriesIn <-chan logging.LogEntry
}

// New creates a new log publish service that can be run. The given
// logging.LogEntry channel is the channel log entries will be read from. The
// given portal.Portal must not log to a publishing core without
// logging.NoPublish as this would result in an endless loop.
func New(logger *zap.Logger, portal portal.Portal, logEntriesIn <-chan logging.LogEntry) service.Service {
	return &logPublishService{
		logger:       logger,
		portal:       portal,
		logEntriesIn: logEntriesIn,
	}
}

// Run the service until the given context.Context is done or the entry channel
// is closed.
func (s *logPublishService) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case entry, more := <-s.logEntriesIn:
			if !more {
				return nil
			}
			batch := s.collectBatch(ctx, entry)
			for _, e := range batch {
				s.portal.Publish(ctx, topicLogNext, logEntryEvent(e))
			}
		}
	}
}

// collectBatch waits publishDebounceDelay and then collects all entries that
// are available without blocking up to maxBatchSize.
func (s *logPublishService) collectBatch(ctx context.Context, first logging.LogEntry) []logging.LogEntry {
	batch := []logging.LogEntry{first}
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(publishDebounceDelay):
	}
	for len(batch) < maxBatchSize {
		select {
		case entry, more := <-s.logEntriesIn:
			if !more {
				return batch
			}
			batch = append(batch, entry)
		default:
			return batch
		}
	}
	if len(batch) == maxBatchSize {
		s.logger.Debug("log entry batch full", zap.Int("batch_size", maxBatchSize))
	}
	return batch
}

// logEntryEvent converts the logging.LogEntry to its event representation.
func logEntryEvent(entry logging.LogEntry) event.LogEntryEvent {
	return event.LogEntryEvent{
		Time:       entry.Time,
		Message:    entry.Message,
		Level:      entry.Level.String(),
		LoggerName: entry.LoggerName,
		Fields:     entry.Fields,
	}
}
