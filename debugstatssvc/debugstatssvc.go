package debugstatssvc

import (
	"context"
	"fmt"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/service"
	"go.uber.org/zap"
	"runtime"
	"sort"
	"strings"
	"time"
)

type Config struct {
	// IsEnabled describes whether periodic debug stats logging is desired.
	IsEnabled bool
	// Interval in which to log debug stats.
	Interval time.Duration
}

// Store provides lobby statistics.
type Store interface {
	// GameCountByStatus counts all games grouped by their status.
	GameCountByStatus(ctx context.Context) (map[string]int, error)
}

// SessionCounter provides the number of connected wizard sessions.
type SessionCounter interface {
	ClientCount() int
}

type debugStatsService struct {
	logger   *zap.Logger
	config   Config
	store    Store
	sessions SessionCounter
}

// NewService creates the service.Service that logs system and lobby stats
// periodically.
func NewService(logger *zap.Logger, config Config, store Store, sessions SessionCounter) service.Service {
	return &debugStatsService{
		logger:   logger,
		config:   config,
		store:    store,
		sessions: sessions,
	}
}

func (s *debugStatsService) Run(ctx context.Context) error {
	if !s.config.IsEnabled {
		return nil
	}
	s.logger.Debug(fmt.Sprintf("logging system state every %gs", s.config.Interval.Seconds()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.config.Interval):
			s.logger.Debug(s.report(ctx))
		}
	}
}

// formatGameCounts formats the given counts sorted by status.
func formatGameCounts(counts map[string]int) string {
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	var sb strings.Builder
	for _, status := range statuses {
		sb.WriteString(fmt.Sprintf("%14s: %d\n", status, counts[status]))
	}
	return sb.String()
}

// report creates the debug report with current system state like memory stats
// and current stack as well as lobby stats.
func (s *debugStatsService) report(ctx context.Context) string {
	// Num CPU.
	numCPU := runtime.NumCPU()
	// Num goroutines.
	numGoroutine := runtime.NumGoroutine()
	// Memory usage.
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryUsageMB := memStats.Sys / 1000 / 1000
	// Get current stack.
	buf := make([]byte, 1<<16)
	stackSize := runtime.Stack(buf, true)
	// Lobby stats.
	gameCounts := "unavailable\n"
	counts, err := s.store.GameCountByStatus(ctx)
	if err != nil {
		errors.Log(s.logger, errors.Wrap(err, "game count by status", nil))
	} else {
		gameCounts = formatGameCounts(counts)
	}
	return fmt.Sprintf(`
----------BEGIN OF DEBUG SYSTEM STATS-----------
       Num CPU: %d
Num goroutines: %d
 Memory in use: %dMB
Wizard clients: %d

----------BEGIN OF GAMES----------
%s----------END OF GAMES------------
----------BEGIN OF STACK----------
%s
----------END OF STACK------------
----------END OF DEBUG SYSTEM STATS-------------
`, numCPU, numGoroutine, memoryUsageMB, s.sessions.ClientCount(), gameCounts, string(buf[0:stackSize]))
}
