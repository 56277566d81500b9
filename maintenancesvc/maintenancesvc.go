// Package maintenancesvc runs scheduled housekeeping like expiring stale
// bookings and purging abandoned lobbies.
package maintenancesvc

import (
	"context"
	"fmt"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/games"
	"github.com/lefinal/vrcafe-server/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"time"
)

// Config for the maintenance service.
type Config struct {
	// BookingExpirySchedule is the cron schedule for expiring stale bookings.
	BookingExpirySchedule string
	// LobbyPurgeSchedule is the cron schedule for purging abandoned lobbies.
	LobbyPurgeSchedule string
	// LobbyMaxAge is the age after which waiting lobbies are purged.
	LobbyMaxAge time.Duration
}

// ValidateSchedule checks whether the given cron schedule can be parsed. Both
// standard five-field expressions and descriptors like @hourly are accepted.
func ValidateSchedule(schedule string) error {
	_, err := cron.ParseStandard(schedule)
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return nil
}

// BookingExpirer expires pending bookings whose start passed.
type BookingExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// LobbyStore allows deleting abandoned lobbies.
type LobbyStore interface {
	// DeleteGamesByStatusBefore deletes all games with the given status that were
	// created before the given time.
	DeleteGamesByStatusBefore(ctx context.Context, status string, before time.Time) (int, error)
}

type maintenanceService struct {
	logger   *zap.Logger
	config   Config
	bookings BookingExpirer
	lobbies  LobbyStore
	now      func() time.Time
}

// NewService creates a new service.Service that runs the housekeeping jobs
// according to the schedules in the given Config.
func NewService(logger *zap.Logger, config Config, bookings BookingExpirer, lobbies LobbyStore) service.Service {
	return &maintenanceService{
		logger:   logger,
		config:   config,
		bookings: bookings,
		lobbies:  lobbies,
		now:      time.Now,
	}
}

// Run the scheduler until the given context is done. Running jobs are awaited
// before returning.
func (s *maintenanceService) Run(ctx context.Context) error {
	c := cron.New(cron.WithLogger(cronLogger{logger: s.logger}))
	_, err := c.AddFunc(s.config.BookingExpirySchedule, func() { s.expireBookings(ctx) })
	if err != nil {
		return errors.NewInternalErrorFromErr(err, "add booking expiry job",
			errors.Details{"schedule": s.config.BookingExpirySchedule})
	}
	_, err = c.AddFunc(s.config.LobbyPurgeSchedule, func() { s.purgeLobbies(ctx) })
	if err != nil {
		return errors.NewInternalErrorFromErr(err, "add lobby purge job",
			errors.Details{"schedule": s.config.LobbyPurgeSchedule})
	}
	c.Start()
	s.logger.Debug("maintenance jobs scheduled",
		zap.String("booking_expiry_schedule", s.config.BookingExpirySchedule),
		zap.String("lobby_purge_schedule", s.config.LobbyPurgeSchedule))
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// expireBookings marks stale pending bookings as expired.
func (s *maintenanceService) expireBookings(ctx context.Context) {
	n, err := s.bookings.ExpireStale(ctx)
	if err != nil {
		errors.Log(s.logger, errors.Wrap(err, "expire stale bookings", nil))
		return
	}
	if n > 0 {
		s.logger.Info("expired stale bookings", zap.Int("bookings_expired", n))
	}
}

// purgeLobbies deletes waiting lobbies older than Config.LobbyMaxAge.
func (s *maintenanceService) purgeLobbies(ctx context.Context) {
	before := s.now().Add(-s.config.LobbyMaxAge)
	n, err := s.lobbies.DeleteGamesByStatusBefore(ctx, string(games.GameStatusWaiting), before)
	if err != nil {
		errors.Log(s.logger, errors.Wrap(err, "delete abandoned lobbies", errors.Details{"before": before}))
		return
	}
	if n > 0 {
		s.logger.Info("purged abandoned lobbies", zap.Int("lobbies_deleted", n))
	}
}

// cronLogger implements cron.Logger using zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
