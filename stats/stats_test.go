package stats

import (
	"context"
	"github.com/gobuffalo/nulls"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"testing"
	"time"
)

func TestPlayerStats_KDRatio(t *testing.T) {
	tests := []struct {
		name   string
		stats  PlayerStats
		expect float64
	}{
		{name: "no deaths", stats: PlayerStats{Kills: 12}, expect: 12},
		{name: "nothing", stats: PlayerStats{}, expect: 0},
		{name: "even", stats: PlayerStats{Kills: 10, Deaths: 5}, expect: 2},
		{name: "rounded", stats: PlayerStats{Kills: 10, Deaths: 3}, expect: 3.33},
		{name: "rounded up", stats: PlayerStats{Kills: 2, Deaths: 3}, expect: 0.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.stats.KDRatio())
		})
	}
}

func TestPlayerStats_WinRate(t *testing.T) {
	tests := []struct {
		name   string
		stats  PlayerStats
		expect float64
	}{
		{name: "no matches", stats: PlayerStats{}, expect: 0},
		{name: "all", stats: PlayerStats{Wins: 4, Matches: 4}, expect: 100},
		{name: "rounded", stats: PlayerStats{Wins: 38, Matches: 45}, expect: 84.4},
		{name: "third", stats: PlayerStats{Wins: 1, Matches: 3}, expect: 33.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.stats.WinRate())
		})
	}
}

func TestParseCategory(t *testing.T) {
	for _, s := range []string{"overall", "School", " college ", "AREA"} {
		_, err := ParseCategory(s)
		assert.NoError(t, err, "should parse %q", s)
	}
	_, err := ParseCategory("clan")
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindUnknownLeaderboard))
	assert.Equal(t, "pincode", CategoryArea.groupColumn())
	assert.Equal(t, "", CategoryOverall.groupColumn())
}

// storeStub mocks Store.
type storeStub struct {
	mock.Mock
}

func (s *storeStub) PlayerStatsByUser(ctx context.Context, userID string) (store.PlayerStats, error) {
	args := s.Called(ctx, userID)
	return args.Get(0).(store.PlayerStats), args.Error(1)
}

func (s *storeStub) RecordMatchResults(ctx context.Context, results []store.MatchResult, at time.Time) error {
	return s.Called(ctx, results, at).Error(0)
}

func (s *storeStub) Leaderboard(ctx context.Context, groupColumn string, limit int) ([]store.LeaderboardEntry, error) {
	args := s.Called(ctx, groupColumn, limit)
	return args.Get(0).([]store.LeaderboardEntry), args.Error(1)
}

// boardSuite tests Board.
type boardSuite struct {
	suite.Suite
	store *storeStub
	board *Board
	now   time.Time
}

func (suite *boardSuite) SetupTest() {
	suite.store = &storeStub{}
	suite.board = NewBoard(zap.New(zapcore.NewNopCore()), suite.store)
	suite.now = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	suite.board.now = func() time.Time { return suite.now }
}

func (suite *boardSuite) TestPlayerStatsNotPlayed() {
	suite.store.On("PlayerStatsByUser", mock.Anything, "u-1").
		Return(store.PlayerStats{}, errors.NewResourceNotFoundError("not found", nil)).Once()

	s, err := suite.board.PlayerStats(context.Background(), "u-1")
	suite.Require().NoError(err)
	suite.Equal(PlayerStats{}, s)
}

func (suite *boardSuite) TestPlayerStatsOK() {
	suite.store.On("PlayerStatsByUser", mock.Anything, "u-1").
		Return(store.PlayerStats{UserID: "u-1", Kills: 1250, Deaths: 500, Wins: 38, Matches: 45, Score: 2400}, nil).Once()

	s, err := suite.board.PlayerStats(context.Background(), "u-1")
	suite.Require().NoError(err)
	suite.Equal(PlayerStats{Kills: 1250, Deaths: 500, Wins: 38, Matches: 45, Score: 2400}, s)
	suite.Equal(2.5, s.KDRatio())
}

func (suite *boardSuite) TestPlayerStatsFail() {
	suite.store.On("PlayerStatsByUser", mock.Anything, "u-1").
		Return(store.PlayerStats{}, errors.NewInternalError("sad life", nil)).Once()

	_, err := suite.board.PlayerStats(context.Background(), "u-1")
	suite.Require().Error(err)
	suite.True(errors.Retryable(err))
}

func (suite *boardSuite) TestLeaderboard() {
	suite.store.On("Leaderboard", mock.Anything, "school", DefaultLeaderboardLimit).Return([]store.LeaderboardEntry{
		{UserID: "u-1", Name: "StudentAce", Group: nulls.NewString("Delhi Public School"), Kills: 850, Score: 1600},
		{UserID: "u-2", Name: "SchoolChamp", Group: nulls.NewString("Ryan International"), Kills: 780, Score: 1450},
	}, nil).Once()
	defer suite.store.AssertExpectations(suite.T())

	entries, err := suite.board.Leaderboard(context.Background(), CategorySchool, 0)
	suite.Require().NoError(err)
	suite.Equal([]LeaderboardEntry{
		{Rank: 1, UserID: "u-1", Name: "StudentAce", Group: "Delhi Public School", Kills: 850, Score: 1600},
		{Rank: 2, UserID: "u-2", Name: "SchoolChamp", Group: "Ryan International", Kills: 780, Score: 1450},
	}, entries)
}

func (suite *boardSuite) TestRecordMatchResultsSkipsGuests() {
	suite.store.On("RecordMatchResults", mock.Anything, []store.MatchResult{
		{UserID: "u-1", Kills: 5, Deaths: 2, Won: true, Score: 120},
	}, suite.now).Return(nil).Once()
	defer suite.store.AssertExpectations(suite.T())

	err := suite.board.RecordMatchResults(context.Background(), []MatchResult{
		{UserID: "u-1", Kills: 5, Deaths: 2, Won: true, Score: 120},
		{Kills: 1, Deaths: 3, Score: 10},
	})
	suite.NoError(err)
}

func (suite *boardSuite) TestRecordMatchResultsOnlyGuests() {
	err := suite.board.RecordMatchResults(context.Background(), []MatchResult{{Kills: 1}})
	suite.NoError(err)
	suite.store.AssertNotCalled(suite.T(), "RecordMatchResults", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *boardSuite) TestRecordMatchResultsFail() {
	suite.store.On("RecordMatchResults", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.NewInternalError("sad life", nil)).Once()

	err := suite.board.RecordMatchResults(context.Background(), []MatchResult{{UserID: "u-1"}})
	suite.Require().Error(err)
	suite.True(errors.HasKind(err, errors.KindPersistenceFailure))
}

func TestBoard(t *testing.T) {
	suite.Run(t, new(boardSuite))
}
