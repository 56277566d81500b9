package booking

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/games"
	"github.com/lefinal/vrcafe-server/identity"
	"github.com/lefinal/vrcafe-server/profile"
	"github.com/lefinal/vrcafe-server/store"
	"go.uber.org/zap"
	"strings"
	"time"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04"
)

// Limits for booking requests.
const (
	firstSlotHour  = 10
	lastSlotHour   = 20
	MinDuration    = 1
	MaxDuration    = 4
	MinPlayerCount = 1
	MaxPlayerCount = 4
)

// Status of a booking.
type Status string

const (
	// StatusPending is used for new bookings.
	StatusPending Status = "pending"
	// StatusExpired is used for pending bookings whose start passed.
	StatusExpired Status = "expired"
)

// TimeSlots returns all bookable start times in ascending order.
func TimeSlots() []string {
	slots := make([]string, 0, lastSlotHour-firstSlotHour+1)
	for hour := firstSlotHour; hour <= lastSlotHour; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
	}
	return slots
}

// validSlot checks whether the given time is one of TimeSlots.
func validSlot(slot string) bool {
	for _, s := range TimeSlots() {
		if s == slot {
			return true
		}
	}
	return false
}

// TotalAmount calculates the price for the given mode, duration in hours and
// player count.
func TotalAmount(mode games.GameMode, duration int, playerCount int) int {
	return mode.HourlyRate() * duration * playerCount
}

// Request is a booking request.
type Request struct {
	// Date in the format 2006-01-02.
	Date string `json:"date"`
	// Time is the start slot in the format 15:04.
	Time string `json:"time"`
	// Duration in hours.
	Duration    int            `json:"duration"`
	PlayerCount int            `json:"player_count"`
	GameMode    games.GameMode `json:"game_mode"`
}

// invalidBooking creates a validation error for booking requests.
func invalidBooking(message string, details errors.Details) error {
	return errors.NewBadRequestErr(message, errors.KindInvalidBooking, details)
}

// Validate the request and return the start time in the given location. The
// date must not be before the day of now.
func (req Request) Validate(now time.Time, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dateFormat, strings.TrimSpace(req.Date), loc)
	if err != nil {
		return time.Time{}, invalidBooking("invalid date", errors.Details{"date": req.Date})
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if day.Before(today) {
		return time.Time{}, invalidBooking("date must not be in the past", errors.Details{"date": req.Date})
	}
	if !validSlot(req.Time) {
		return time.Time{}, invalidBooking(fmt.Sprintf("time must be one of %s", strings.Join(TimeSlots(), ", ")),
			errors.Details{"time": req.Time})
	}
	if req.Duration < MinDuration || req.Duration > MaxDuration {
		return time.Time{}, invalidBooking(fmt.Sprintf("duration must be between %d and %d hours", MinDuration, MaxDuration),
			errors.Details{"duration": req.Duration})
	}
	if req.PlayerCount < MinPlayerCount || req.PlayerCount > MaxPlayerCount {
		return time.Time{}, invalidBooking(fmt.Sprintf("player count must be between %d and %d", MinPlayerCount, MaxPlayerCount),
			errors.Details{"player_count": req.PlayerCount})
	}
	if _, err := games.ParseGameMode(string(req.GameMode)); err != nil {
		return time.Time{}, err
	}
	slot, _ := time.Parse(timeFormat, req.Time)
	return time.Date(day.Year(), day.Month(), day.Day(), slot.Hour(), slot.Minute(), 0, 0, loc), nil
}

// Booking is a booked session.
type Booking struct {
	ID          uuid.UUID      `json:"id"`
	UserID      string         `json:"user_id"`
	UserName    string         `json:"user_name"`
	PhoneNumber string         `json:"phone_number"`
	Date        string         `json:"date"`
	Time        string         `json:"time"`
	StartsAt    time.Time      `json:"starts_at"`
	Duration    int            `json:"duration"`
	PlayerCount int            `json:"player_count"`
	GameMode    games.GameMode `json:"game_mode"`
	TotalAmount int            `json:"total_amount"`
	// GameCode is the code to present at the café.
	GameCode  string    `json:"game_code"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence needed by Office.
type Store interface {
	CreateBooking(ctx context.Context, booking store.Booking) error
	BookingsByUser(ctx context.Context, userID string) ([]store.Booking, error)
	// UpdateBookingStatusStartedBefore sets the status of all bookings with status
	// from to the status to, if they started before the given time.
	UpdateBookingStatusStartedBefore(ctx context.Context, from string, to string, before time.Time) (int, error)
}

// ProfileChecker provides the profile of users that must be complete.
type ProfileChecker interface {
	RequireComplete(ctx context.Context, userID string) (profile.Profile, error)
}

// Office handles bookings.
type Office struct {
	logger   *zap.Logger
	store    Store
	profiles ProfileChecker
	location *time.Location
	now      func() time.Time
}

// NewOffice creates a new Office. Dates and time slots are interpreted in the
// given location.
func NewOffice(logger *zap.Logger, store Store, profiles ProfileChecker, location *time.Location) *Office {
	return &Office{
		logger:   logger,
		store:    store,
		profiles: profiles,
		location: location,
		now:      time.Now,
	}
}

// Book the session for the given identity. The user's profile must be
// complete.
func (o *Office) Book(ctx context.Context, ident identity.Identity, req Request) (Booking, error) {
	p, err := o.profiles.RequireComplete(ctx, ident.UserID)
	if err != nil {
		return Booking{}, errors.Wrap(err, "require complete profile", nil)
	}
	now := o.now()
	startsAt, err := req.Validate(now, o.location)
	if err != nil {
		return Booking{}, err
	}
	code, err := games.GenerateCode()
	if err != nil {
		return Booking{}, errors.NewInternalErrorFromErr(err, "generate game code", nil)
	}
	phoneNumber := p.PhoneNumber
	if phoneNumber == "" {
		phoneNumber = ident.PhoneNumber
	}
	booking := Booking{
		ID:          uuid.New(),
		UserID:      ident.UserID,
		UserName:    p.Name,
		PhoneNumber: phoneNumber,
		Date:        strings.TrimSpace(req.Date),
		Time:        req.Time,
		StartsAt:    startsAt,
		Duration:    req.Duration,
		PlayerCount: req.PlayerCount,
		GameMode:    req.GameMode,
		TotalAmount: TotalAmount(req.GameMode, req.Duration, req.PlayerCount),
		GameCode:    code,
		Status:      StatusPending,
		CreatedAt:   now,
	}
	err = o.store.CreateBooking(ctx, store.Booking{
		ID:          booking.ID,
		UserID:      booking.UserID,
		UserName:    booking.UserName,
		PhoneNumber: booking.PhoneNumber,
		Date:        booking.Date,
		Time:        booking.Time,
		StartsAt:    booking.StartsAt,
		Duration:    booking.Duration,
		PlayerCount: booking.PlayerCount,
		GameMode:    string(booking.GameMode),
		TotalAmount: booking.TotalAmount,
		GameCode:    booking.GameCode,
		Status:      string(booking.Status),
		CreatedAt:   booking.CreatedAt,
	})
	if err != nil {
		return Booking{}, errors.NewPersistenceError(err, "create booking")
	}
	o.logger.Info("session booked",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", booking.UserID),
		zap.Time("starts_at", booking.StartsAt),
		zap.Int("total_amount", booking.TotalAmount))
	return booking, nil
}

// BookingsForUser returns all bookings of the user with the given id, newest
// first.
func (o *Office) BookingsForUser(ctx context.Context, userID string) ([]Booking, error) {
	stored, err := o.store.BookingsByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewLookupTransportError(err, "bookings by user")
	}
	bookings := make([]Booking, 0, len(stored))
	for _, b := range stored {
		bookings = append(bookings, Booking{
			ID:          b.ID,
			UserID:      b.UserID,
			UserName:    b.UserName,
			PhoneNumber: b.PhoneNumber,
			Date:        b.Date,
			Time:        b.Time,
			StartsAt:    b.StartsAt,
			Duration:    b.Duration,
			PlayerCount: b.PlayerCount,
			GameMode:    games.GameMode(b.GameMode),
			TotalAmount: b.TotalAmount,
			GameCode:    b.GameCode,
			Status:      Status(b.Status),
			CreatedAt:   b.CreatedAt,
		})
	}
	return bookings, nil
}

// ExpireStale marks all pending bookings whose start passed as expired. It
// returns the number of expired bookings.
func (o *Office) ExpireStale(ctx context.Context) (int, error) {
	n, err := o.store.UpdateBookingStatusStartedBefore(ctx, string(StatusPending), string(StatusExpired), o.now())
	if err != nil {
		return 0, errors.NewPersistenceError(err, "expire pending bookings")
	}
	return n, nil
}
