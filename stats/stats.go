package stats

import (
	"context"
	"fmt"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/store"
	"go.uber.org/zap"
	"math"
	"strings"
	"time"
)

// DefaultLeaderboardLimit is the number of entries in a leaderboard.
const DefaultLeaderboardLimit = 10

// PlayerStats are the accumulated statistics of a user.
type PlayerStats struct {
	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Wins    int `json:"wins"`
	Matches int `json:"matches"`
	Score   int `json:"score"`
}

// KDRatio returns kills per death rounded to two decimals. Without deaths, the
// kills are returned.
func (s PlayerStats) KDRatio() float64 {
	if s.Deaths == 0 {
		return float64(s.Kills)
	}
	return math.Round(float64(s.Kills)/float64(s.Deaths)*100) / 100
}

// WinRate returns the percentage of won matches rounded to one decimal. Without
// matches, 0 is returned.
func (s PlayerStats) WinRate() float64 {
	if s.Matches == 0 {
		return 0
	}
	return math.Round(float64(s.Wins)/float64(s.Matches)*1000) / 10
}

// Category is a leaderboard category.
type Category string

const (
	// CategoryOverall ranks all players.
	CategoryOverall Category = "overall"
	// CategorySchool ranks players with a school.
	CategorySchool Category = "school"
	// CategoryCollege ranks players with a college.
	CategoryCollege Category = "college"
	// CategoryArea ranks players with a pincode.
	CategoryArea Category = "area"
)

// ParseCategory parses the given leaderboard category. Case does not matter.
func ParseCategory(s string) (Category, error) {
	category := Category(strings.ToLower(strings.TrimSpace(s)))
	switch category {
	case CategoryOverall, CategorySchool, CategoryCollege, CategoryArea:
		return category, nil
	}
	return "", errors.Error{
		Code:    errors.ErrBadRequest,
		Kind:    errors.KindUnknownLeaderboard,
		Message: fmt.Sprintf("unknown leaderboard category: %s", s),
		Details: errors.Details{"category": s},
	}
}

// groupColumn returns the profile column the category groups by.
func (c Category) groupColumn() string {
	switch c {
	case CategorySchool:
		return "school"
	case CategoryCollege:
		return "college"
	case CategoryArea:
		return "pincode"
	}
	return ""
}

// LeaderboardEntry is one ranked player.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	// Group is the school, college or pincode depending on the category. Empty for
	// the overall leaderboard.
	Group   string `json:"group,omitempty"`
	Kills   int    `json:"kills"`
	Matches int    `json:"matches"`
	Wins    int    `json:"wins"`
	Score   int    `json:"score"`
}

// MatchResult is the result of one user in a played match.
type MatchResult struct {
	UserID string
	Kills  int
	Deaths int
	Won    bool
	Score  int
}

// Store is the persistence needed by Board.
type Store interface {
	PlayerStatsByUser(ctx context.Context, userID string) (store.PlayerStats, error)
	RecordMatchResults(ctx context.Context, results []store.MatchResult, at time.Time) error
	Leaderboard(ctx context.Context, groupColumn string, limit int) ([]store.LeaderboardEntry, error)
}

// Board provides player statistics and leaderboards.
type Board struct {
	logger *zap.Logger
	store  Store
	now    func() time.Time
}

// NewBoard creates a new Board.
func NewBoard(logger *zap.Logger, store Store) *Board {
	return &Board{
		logger: logger,
		store:  store,
		now:    time.Now,
	}
}

// PlayerStats returns the statistics of the user with the given id. Users that
// did not play yet have empty statistics.
func (b *Board) PlayerStats(ctx context.Context, userID string) (PlayerStats, error) {
	s, err := b.store.PlayerStatsByUser(ctx, userID)
	if err != nil {
		if e, _ := errors.Cast(err); e.Code == errors.ErrNotFound {
			return PlayerStats{}, nil
		}
		return PlayerStats{}, errors.NewLookupTransportError(err, "player stats by user")
	}
	return PlayerStats{
		Kills:   s.Kills,
		Deaths:  s.Deaths,
		Wins:    s.Wins,
		Matches: s.Matches,
		Score:   s.Score,
	}, nil
}

// Leaderboard returns the top players for the given category.
func (b *Board) Leaderboard(ctx context.Context, category Category, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	stored, err := b.store.Leaderboard(ctx, category.groupColumn(), limit)
	if err != nil {
		return nil, errors.NewLookupTransportError(err, "leaderboard")
	}
	entries := make([]LeaderboardEntry, 0, len(stored))
	for i, entry := range stored {
		entries = append(entries, LeaderboardEntry{
			Rank:    i + 1,
			UserID:  entry.UserID,
			Name:    entry.Name,
			Group:   entry.Group.String,
			Kills:   entry.Kills,
			Matches: entry.Matches,
			Wins:    entry.Wins,
			Score:   entry.Score,
		})
	}
	return entries, nil
}

// RecordMatchResults adds the given results to the player statistics. Results
// without user id belong to guests and are skipped.
func (b *Board) RecordMatchResults(ctx context.Context, results []MatchResult) error {
	toStore := make([]store.MatchResult, 0, len(results))
	for _, result := range results {
		if result.UserID == "" {
			continue
		}
		toStore = append(toStore, store.MatchResult{
			UserID: result.UserID,
			Kills:  result.Kills,
			Deaths: result.Deaths,
			Won:    result.Won,
			Score:  result.Score,
		})
	}
	if len(toStore) == 0 {
		return nil
	}
	err := b.store.RecordMatchResults(ctx, toStore, b.now())
	if err != nil {
		return errors.NewPersistenceError(err, "record match results")
	}
	b.logger.Debug("recorded match results", zap.Int("results", len(toStore)))
	return nil
}
