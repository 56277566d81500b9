package web_server

import (
	"context"
	"encoding/json"
	"github.com/gobuffalo/nulls"
	"github.com/lefinal/vrcafe-server/booking"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/event"
	"github.com/lefinal/vrcafe-server/games"
	"github.com/lefinal/vrcafe-server/identity"
	"github.com/lefinal/vrcafe-server/profile"
	"github.com/lefinal/vrcafe-server/stats"
	"github.com/lefinal/vrcafe-server/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const validToken = "valid-token"

// verifierStub mocks TokenVerifier.
type verifierStub struct {
	mock.Mock
}

func (s *verifierStub) Verify(token string) (identity.Identity, error) {
	args := s.Called(token)
	return args.Get(0).(identity.Identity), args.Error(1)
}

// lookupStub mocks GameLookup.
type lookupStub struct {
	mock.Mock
}

func (s *lookupStub) Lookup(ctx context.Context, code string) (games.GameRecord, error) {
	args := s.Called(ctx, code)
	return args.Get(0).(games.GameRecord), args.Error(1)
}

func (s *lookupStub) Config(ctx context.Context, code string) (games.CompiledConfig, error) {
	args := s.Called(ctx, code)
	return args.Get(0).(games.CompiledConfig), args.Error(1)
}

// lobbiesStub mocks LobbyRegistry.
type lobbiesStub struct {
	mock.Mock
}

func (s *lobbiesStub) OpenLobby(ctx context.Context, captain games.Captain, req games.OpenLobbyRequest) (games.GameRecord, error) {
	args := s.Called(ctx, captain, req)
	return args.Get(0).(games.GameRecord), args.Error(1)
}

func (s *lobbiesStub) OpenLobbies(ctx context.Context) ([]games.GameRecord, error) {
	args := s.Called(ctx)
	return args.Get(0).([]games.GameRecord), args.Error(1)
}

// profilesStub mocks ProfileOffice.
type profilesStub struct {
	mock.Mock
}

func (s *profilesStub) Profile(ctx context.Context, userID string) (profile.Profile, error) {
	args := s.Called(ctx, userID)
	return args.Get(0).(profile.Profile), args.Error(1)
}

func (s *profilesStub) UpdateProfile(ctx context.Context, userID string, update profile.Update) (profile.Profile, error) {
	args := s.Called(ctx, userID, update)
	return args.Get(0).(profile.Profile), args.Error(1)
}

func (s *profilesStub) RequireComplete(ctx context.Context, userID string) (profile.Profile, error) {
	args := s.Called(ctx, userID)
	return args.Get(0).(profile.Profile), args.Error(1)
}

// bookingsStub mocks BookingOffice.
type bookingsStub struct {
	mock.Mock
}

func (s *bookingsStub) Book(ctx context.Context, ident identity.Identity, req booking.Request) (booking.Booking, error) {
	args := s.Called(ctx, ident, req)
	return args.Get(0).(booking.Booking), args.Error(1)
}

func (s *bookingsStub) BookingsForUser(ctx context.Context, userID string) ([]booking.Booking, error) {
	args := s.Called(ctx, userID)
	return args.Get(0).([]booking.Booking), args.Error(1)
}

// statsStub mocks StatsBoard.
type statsStub struct {
	mock.Mock
}

func (s *statsStub) PlayerStats(ctx context.Context, userID string) (stats.PlayerStats, error) {
	args := s.Called(ctx, userID)
	return args.Get(0).(stats.PlayerStats), args.Error(1)
}

func (s *statsStub) Leaderboard(ctx context.Context, category stats.Category, limit int) ([]stats.LeaderboardEntry, error) {
	args := s.Called(ctx, category, limit)
	return args.Get(0).([]stats.LeaderboardEntry), args.Error(1)
}

// webServerSuite tests the routes of WebServer.
type webServerSuite struct {
	suite.Suite
	verifier *verifierStub
	lookup   *lookupStub
	lobbies  *lobbiesStub
	profiles *profilesStub
	bookings *bookingsStub
	stats    *statsStub
	ident    identity.Identity
	handler  http.Handler
}

func (suite *webServerSuite) SetupTest() {
	suite.verifier = &verifierStub{}
	suite.lookup = &lookupStub{}
	suite.lobbies = &lobbiesStub{}
	suite.profiles = &profilesStub{}
	suite.bookings = &bookingsStub{}
	suite.stats = &statsStub{}
	suite.ident = identity.Identity{UserID: "a1b2c3d4e5f6", Name: "Ana", PhoneNumber: "+911234567890"}
	suite.verifier.On("Verify", validToken).Return(suite.ident, nil).Maybe()
	suite.verifier.On("Verify", mock.Anything).Return(identity.Identity{}, errors.Error{
		Code:    errors.ErrBadRequest,
		Kind:    errors.KindInvalidToken,
		Message: "invalid token, please sign in again",
	}).Maybe()
	logger := zap.New(zapcore.NewNopCore())
	server, err := NewWebServer(logger, Config{ServeAddr: DefaultServeAddr}, Dependencies{
		Verifier:  suite.verifier,
		Lookup:    suite.lookup,
		Lobbies:   suite.lobbies,
		Profiles:  suite.profiles,
		Bookings:  suite.bookings,
		Stats:     suite.stats,
		WizardHub: ws.NewHub(logger, nil),
	})
	suite.Require().NoError(err)
	suite.handler = server.Handler()
}

// do performs the request and returns the recorder.
func (suite *webServerSuite) do(method string, target string, body string, authenticated bool) *httptest.ResponseRecorder {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, bodyReader)
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+validToken)
	}
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)
	return rec
}

// errorPayload parses the error response.
func (suite *webServerSuite) errorPayload(rec *httptest.ResponseRecorder) event.ErrorEventPayload {
	var payload event.ErrorEventPayload
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func (suite *webServerSuite) TestCatalog() {
	rec := suite.do(http.MethodGet, "/api/v1/catalog", "", false)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var catalog games.Catalog
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &catalog))
	suite.Len(catalog.Modes, len(games.GameModes))
	suite.Len(catalog.Maps, len(games.Maps))
	suite.Contains(rec.Header().Get("Cache-Control"), "no-cache")
}

func (suite *webServerSuite) TestUnknownRoute() {
	rec := suite.do(http.MethodGet, "/api/v1/teleport", "", false)
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *webServerSuite) TestGameByCodeOK() {
	record := games.GameRecord{Code: "ABC123", Name: "Friday Night", Status: games.GameStatusReady}
	suite.lookup.On("Lookup", mock.Anything, "abc123").Return(record, nil).Once()
	defer suite.lookup.AssertExpectations(suite.T())
	rec := suite.do(http.MethodGet, "/api/v1/games/abc123", "", false)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var got games.GameRecord
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	suite.Equal("ABC123", got.Code)
	suite.Equal("Friday Night", got.Name)
}

func (suite *webServerSuite) TestGameByCodeErrors() {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   errors.Kind
	}{
		{
			name:       "not found",
			err:        errors.Error{Code: errors.ErrNotFound, Kind: errors.KindGameNotFound, Message: "game not found"},
			wantStatus: http.StatusNotFound,
			wantKind:   errors.KindGameNotFound,
		},
		{
			name:       "not ready",
			err:        errors.Error{Code: errors.ErrNotReady, Kind: errors.KindGameNotReady, Message: "game is not ready"},
			wantStatus: http.StatusConflict,
			wantKind:   errors.KindGameNotReady,
		},
		{
			name:       "transport",
			err:        errors.NewLookupTransportError(errors.NewInternalError("conn refused", nil), "game by code"),
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   errors.KindLookupTransport,
		},
		{
			name:       "internal",
			err:        errors.NewInternalError("sad life", nil),
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.SetupTest()
			suite.lookup.On("Lookup", mock.Anything, "XYZ789").Return(games.GameRecord{}, tt.err).Once()
			rec := suite.do(http.MethodGet, "/api/v1/games/XYZ789", "", false)
			suite.Equal(tt.wantStatus, rec.Code)
			suite.Equal(string(tt.wantKind), suite.errorPayload(rec).Kind)
		})
	}
}

func (suite *webServerSuite) TestGameConfigDownload() {
	config := games.CompiledConfig{
		Mode:         0,
		GameModeKey:  games.GameModeFreeForAll,
		Map:          games.MapDustPalace,
		MaxPlayers:   8,
		TotalPlayers: 2,
		Players:      []games.CompiledPlayer{{Name: "Alice"}, {Name: "Bob"}},
		Teams:        []games.CompiledTeam{},
	}
	suite.lookup.On("Config", mock.Anything, "ABC123").Return(config, nil).Once()
	defer suite.lookup.AssertExpectations(suite.T())
	rec := suite.do(http.MethodGet, "/api/v1/games/abc123/config", "", false)
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Equal(`attachment; filename="game-config-ABC123.json"`, rec.Header().Get("Content-Disposition"))
	want, err := config.MarshalIndentJSON()
	suite.Require().NoError(err)
	suite.Equal(string(want), rec.Body.String())
}

func (suite *webServerSuite) TestOpenLobbies() {
	suite.lobbies.On("OpenLobbies", mock.Anything).Return([]games.GameRecord{{Code: "LOB001"}}, nil).Once()
	defer suite.lobbies.AssertExpectations(suite.T())
	rec := suite.do(http.MethodGet, "/api/v1/lobbies", "", false)
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), "LOB001")
}

func (suite *webServerSuite) TestOpenLobbyUnauthenticated() {
	rec := suite.do(http.MethodPost, "/api/v1/lobbies", `{"name":"Quick"}`, false)
	suite.Equal(http.StatusUnauthorized, rec.Code)
	suite.lobbies.AssertNotCalled(suite.T(), "OpenLobby", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *webServerSuite) TestOpenLobbyProfileIncomplete() {
	suite.profiles.On("RequireComplete", mock.Anything, suite.ident.UserID).Return(profile.Profile{}, errors.Error{
		Code:    errors.ErrBadRequest,
		Kind:    errors.KindProfileIncomplete,
		Message: "please complete your profile first",
	}).Once()
	rec := suite.do(http.MethodPost, "/api/v1/lobbies",
		`{"name":"Quick","mode":"squads","map":"cyber_city","max_players":8}`, true)
	suite.Equal(http.StatusBadRequest, rec.Code)
	payload := suite.errorPayload(rec)
	suite.Equal(string(errors.KindProfileIncomplete), payload.Kind)
	suite.Equal("please complete your profile first", payload.Message)
	suite.lobbies.AssertNotCalled(suite.T(), "OpenLobby", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *webServerSuite) TestOpenLobbyOK() {
	suite.profiles.On("RequireComplete", mock.Anything, suite.ident.UserID).
		Return(profile.Profile{UserID: suite.ident.UserID, Name: "Ana Captain"}, nil).Once()
	req := games.OpenLobbyRequest{Name: "Quick", Mode: games.GameModeSquads, Map: games.MapCyberCity, MaxPlayers: 8}
	suite.lobbies.On("OpenLobby", mock.Anything, games.Captain{ID: suite.ident.UserID, Name: "Ana Captain"}, req).
		Return(games.GameRecord{Code: "LOB001", Status: games.GameStatusWaiting}, nil).Once()
	defer suite.lobbies.AssertExpectations(suite.T())
	rec := suite.do(http.MethodPost, "/api/v1/lobbies",
		`{"name":"Quick","mode":"squads","map":"cyber_city","max_players":8}`, true)
	suite.Equal(http.StatusCreated, rec.Code)
}

func (suite *webServerSuite) TestGetProfile() {
	suite.profiles.On("Profile", mock.Anything, suite.ident.UserID).Return(profile.Profile{
		UserID:          suite.ident.UserID,
		Name:            "Ana",
		Age:             nulls.NewInt(24),
		Gender:          nulls.NewString("female"),
		AcceptedTerms:   true,
		AcceptedPrivacy: true,
	}, nil).Once()
	rec := suite.do(http.MethodGet, "/api/v1/profile", "", true)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var got map[string]interface{}
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	suite.Equal(true, got["complete"])
	suite.Equal("A1B2C3D4", got["referral_code"])
	suite.Equal("+911234567890", got["phone_number"], "should fall back to phone number from identity")
}

func (suite *webServerSuite) TestGetProfileInvalidToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)
	suite.Equal(http.StatusUnauthorized, rec.Code)
	suite.Equal(string(errors.KindInvalidToken), suite.errorPayload(rec).Kind)
}

func (suite *webServerSuite) TestUpdateProfileInvalidBody() {
	rec := suite.do(http.MethodPut, "/api/v1/profile", `{"name":`, true)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal(string(errors.KindDecodeJSON), suite.errorPayload(rec).Kind)
	suite.profiles.AssertNotCalled(suite.T(), "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *webServerSuite) TestUpdateProfileOK() {
	suite.profiles.On("UpdateProfile", mock.Anything, suite.ident.UserID, profile.Update{
		Name: "Ana",
		Age:  nulls.NewInt(30),
	}).Return(profile.Profile{UserID: suite.ident.UserID, Name: "Ana", Age: nulls.NewInt(30)}, nil).Once()
	defer suite.profiles.AssertExpectations(suite.T())
	rec := suite.do(http.MethodPut, "/api/v1/profile", `{"name":"Ana","age":30}`, true)
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), `"complete":false`)
}

func (suite *webServerSuite) TestBookingSlots() {
	rec := suite.do(http.MethodGet, "/api/v1/bookings/slots", "", false)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var slots []string
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &slots))
	suite.Equal(booking.TimeSlots(), slots)
}

func (suite *webServerSuite) TestBookOK() {
	req := booking.Request{Date: "2030-01-02", Time: "14:00", Duration: 2, PlayerCount: 3, GameMode: games.GameModeSquads}
	suite.bookings.On("Book", mock.Anything, suite.ident, req).Return(booking.Booking{GameCode: "BOOK01"}, nil).Once()
	defer suite.bookings.AssertExpectations(suite.T())
	rec := suite.do(http.MethodPost, "/api/v1/bookings",
		`{"date":"2030-01-02","time":"14:00","duration":2,"player_count":3,"game_mode":"squads"}`, true)
	suite.Equal(http.StatusCreated, rec.Code)
	suite.Contains(rec.Body.String(), "BOOK01")
}

func (suite *webServerSuite) TestGetBookings() {
	suite.bookings.On("BookingsForUser", mock.Anything, suite.ident.UserID).
		Return([]booking.Booking{{GameCode: "BOOK01"}, {GameCode: "BOOK02"}}, nil).Once()
	rec := suite.do(http.MethodGet, "/api/v1/bookings", "", true)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var got []booking.Booking
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	suite.Len(got, 2)
}

func (suite *webServerSuite) TestMyStats() {
	suite.stats.On("PlayerStats", mock.Anything, suite.ident.UserID).
		Return(stats.PlayerStats{Kills: 10, Deaths: 4, Wins: 1, Matches: 3}, nil).Once()
	rec := suite.do(http.MethodGet, "/api/v1/stats/me", "", true)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var got map[string]interface{}
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	suite.Equal(2.5, got["kd_ratio"])
	suite.Equal(33.3, got["win_rate"])
	suite.Equal(float64(10), got["kills"])
}

func (suite *webServerSuite) TestLeaderboard() {
	suite.stats.On("Leaderboard", mock.Anything, stats.CategorySchool, stats.DefaultLeaderboardLimit).
		Return([]stats.LeaderboardEntry{{Rank: 1, Name: "Ana"}}, nil).Once()
	defer suite.stats.AssertExpectations(suite.T())
	rec := suite.do(http.MethodGet, "/api/v1/leaderboard/School", "", false)
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *webServerSuite) TestLeaderboardLimit() {
	suite.stats.On("Leaderboard", mock.Anything, stats.CategoryOverall, 3).
		Return([]stats.LeaderboardEntry{}, nil).Once()
	defer suite.stats.AssertExpectations(suite.T())
	rec := suite.do(http.MethodGet, "/api/v1/leaderboard/overall?limit=3", "", false)
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *webServerSuite) TestLeaderboardInvalid() {
	rec := suite.do(http.MethodGet, "/api/v1/leaderboard/galaxy", "", false)
	suite.Equal(http.StatusBadRequest, rec.Code)
	rec = suite.do(http.MethodGet, "/api/v1/leaderboard/overall?limit=0", "", false)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.stats.AssertNotCalled(suite.T(), "Leaderboard", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *webServerSuite) TestWizardWSUnauthenticated() {
	rec := suite.do(http.MethodGet, "/ws", "", false)
	suite.Equal(http.StatusUnauthorized, rec.Code)
}

func (suite *webServerSuite) TestWizardWSProfileIncomplete() {
	suite.profiles.On("RequireComplete", mock.Anything, suite.ident.UserID).Return(profile.Profile{}, errors.Error{
		Code:    errors.ErrBadRequest,
		Kind:    errors.KindProfileIncomplete,
		Message: "please complete your profile first",
	}).Once()
	rec := suite.do(http.MethodGet, "/ws?token="+validToken, "", false)
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal(string(errors.KindProfileIncomplete), suite.errorPayload(rec).Kind)
}

func TestWebServer(t *testing.T) {
	suite.Run(t, new(webServerSuite))
}

func TestNewWebServerWithoutAddr(t *testing.T) {
	_, err := NewWebServer(zap.New(zapcore.NewNopCore()), Config{}, Dependencies{})
	assert.Error(t, err)
}

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "bad request", err: errors.NewBadRequestErr("meow", errors.KindBlankName, nil), want: http.StatusBadRequest},
		{name: "protocol violation", err: errors.Error{Code: errors.ErrProtocolViolation}, want: http.StatusBadRequest},
		{name: "missing token", err: errors.Error{Code: errors.ErrBadRequest, Kind: errors.KindMissingToken}, want: http.StatusUnauthorized},
		{name: "not found", err: errors.Error{Code: errors.ErrNotFound}, want: http.StatusNotFound},
		{name: "not ready", err: errors.Error{Code: errors.ErrNotReady}, want: http.StatusConflict},
		{name: "communication", err: errors.NewPersistenceError(errors.NewInternalError("x", nil), "y"), want: http.StatusServiceUnavailable},
		{name: "unknown", err: io.EOF, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, httpStatusFromError(tt.err))
		})
	}
}
