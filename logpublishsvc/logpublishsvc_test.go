package logpublishsvc

import (
	"context"
	"github.com/lefinal/vrcafe-server/event"
	"github.com/lefinal/vrcafe-server/logging"
	"github.com/lefinal/vrcafe-server/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"testing"
	"time"
)

const timeout = 3 * time.Second

func TestNew(t *testing.T) {
	logger := zap.New(zapcore.NewNopCore())
	portalStub := &portal.Stub{}
	logEntriesIn := make(<-chan logging.LogEntry)
	s := New(logger, portalStub, logEntriesIn).(*logPublishService)
	require.NotNil(t, s, "should create")
	assert.Equal(t, logger, s.logger, "should set correct logger")
	assert.Equal(t, portalStub, s.portal, "should set correct portal")
	assert.Equal(t, logEntriesIn, s.logEntriesIn, "should set correct log entries in channel")
}

// logPublishServiceSuite tests logPublishService.Run.
type logPublishServiceSuite struct {
	suite.Suite
	portalStub   *portal.Stub
	logEntriesIn chan logging.LogEntry
	service      *logPublishService
}

func (suite *logPublishServiceSuite) SetupTest() {
	suite.portalStub = &portal.Stub{}
	suite.logEntriesIn = make(chan logging.LogEntry, 2*maxBatchSize)
	suite.service = New(zap.New(zapcore.NewNopCore()), suite.portalStub, suite.logEntriesIn).(*logPublishService)
}

func (suite *logPublishServiceSuite) TestStopsWhenChannelClosed() {
	close(suite.logEntriesIn)
	timeout, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	suite.NoError(suite.service.Run(timeout), "should not fail")
	suite.NoError(timeout.Err(), "should not time out")
}

func (suite *logPublishServiceSuite) TestPublishesInOrder() {
	timeout, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	now := time.Now()
	published := make(chan event.LogEntryEvent, 3)
	suite.portalStub.On("Publish", mock.Anything, topicLogNext, mock.Anything).Run(func(args mock.Arguments) {
		published <- args.Get(2).(event.LogEntryEvent)
	}).Times(3)
	defer suite.portalStub.AssertExpectations(suite.T())
	for _, msg := range []string{"first", "second", "third"} {
		suite.logEntriesIn <- logging.LogEntry{
			Time:       now,
			Message:    msg,
			Level:      zapcore.WarnLevel,
			LoggerName: "games",
			Fields:     map[string]interface{}{"code": "ABC123"},
		}
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		suite.NoError(suite.service.Run(timeout))
	}()
	for _, want := range []string{"first", "second", "third"} {
		select {
		case <-timeout.Done():
			suite.FailNow("timeout", "should publish within timeout")
		case got := <-published:
			suite.Equal(event.LogEntryEvent{
				Time:       now,
				Message:    want,
				Level:      "warn",
				LoggerName: "games",
				Fields:     map[string]interface{}{"code": "ABC123"},
			}, got)
		}
	}
	cancel()
	<-done
}

func TestLogPublishService(t *testing.T) {
	suite.Run(t, new(logPublishServiceSuite))
}

func TestLogPublishService_collectBatchLimit(t *testing.T) {
	logEntriesIn := make(chan logging.LogEntry, 2*maxBatchSize)
	s := New(zap.New(zapcore.NewNopCore()), &portal.Stub{}, logEntriesIn).(*logPublishService)
	for i := 0; i < 2*maxBatchSize; i++ {
		logEntriesIn <- logging.LogEntry{Message: "spam"}
	}
	batch := s.collectBatch(context.Background(), <-logEntriesIn)
	assert.Len(t, batch, maxBatchSize, "should limit batch size")
	assert.Len(t, logEntriesIn, maxBatchSize-1, "should leave remaining entries")
}
