package games

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/event"
	"github.com/lefinal/vrcafe-server/portal"
	"github.com/lefinal/vrcafe-server/store"
	"go.uber.org/zap"
	"strings"
	"time"
)

// TopicGameReady is where ready games are announced.
const TopicGameReady portal.Topic = "vrcafe/games/ready"

// maxCodeAttempts is the number of codes to try when registering a game before
// giving up because of duplicates.
const maxCodeAttempts = 5

// maxOpenLobbies is the maximum number of lobbies returned by
// Registry.OpenLobbies.
const maxOpenLobbies = 50

// RegistryStore is the persistence needed by Registry.
type RegistryStore interface {
	// CreateGame inserts the given game. If the code is already taken, an error
	// with errors.KindDuplicateCode is returned.
	CreateGame(ctx context.Context, game store.Game) error
	// GamesByStatus retrieves the newest games with the given status.
	GamesByStatus(ctx context.Context, status string, limit int) ([]store.Game, error)
}

// RegistryOption configures a Registry.
type RegistryOption func(r *Registry)

// WithCodeGenerator sets the function that generates game codes.
func WithCodeGenerator(generate func() (string, error)) RegistryOption {
	return func(r *Registry) {
		r.generateCode = generate
	}
}

// Registry stores new games under unique codes.
type Registry struct {
	logger       *zap.Logger
	store        RegistryStore
	portal       portal.Portal
	generateCode func() (string, error)
	now          func() time.Time
}

// NewRegistry creates a new Registry. Ready games are announced via the given
// portal.Portal.
func NewRegistry(logger *zap.Logger, store RegistryStore, portal portal.Portal, opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:       logger,
		store:        store,
		portal:       portal,
		generateCode: GenerateCode,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// createWithUniqueCode stores the record under a newly generated code. If the
// code is already taken, a new one is generated up to maxCodeAttempts times.
// Failures are returned as errors.KindPersistenceFailure.
func (r *Registry) createWithUniqueCode(ctx context.Context, record GameRecord) (GameRecord, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := r.generateCode()
		if err != nil {
			return GameRecord{}, errors.NewInternalErrorFromErr(err, "generate code", nil)
		}
		record.Code = code
		game, err := storeGameFromRecord(record)
		if err != nil {
			return GameRecord{}, errors.Wrap(err, "game from record", nil)
		}
		err = r.store.CreateGame(ctx, game)
		if err == nil {
			return record, nil
		}
		if errors.HasKind(err, errors.KindDuplicateCode) {
			r.logger.Debug("generated duplicate game code",
				zap.String("game_code", code),
				zap.Int("attempt", attempt))
			continue
		}
		return GameRecord{}, errors.NewPersistenceError(err, "create game")
	}
	return GameRecord{}, errors.NewPersistenceError(errors.Error{
		Code:    errors.ErrInternal,
		Kind:    errors.KindDuplicateCode,
		Message: fmt.Sprintf("no unique game code found after %d attempts", maxCodeAttempts),
	}, "create game")
}

// RegisterReadyGame stores the compiled game with status ready and announces it
// on TopicGameReady.
func (r *Registry) RegisterReadyGame(ctx context.Context, game NewReadyGame) (GameRecord, error) {
	players := make([]RecordPlayer, 0, len(game.Config.Players))
	for _, p := range game.Config.Players {
		players = append(players, RecordPlayer{
			Name:   p.Name,
			TeamID: p.TeamID,
		})
	}
	config := game.Config
	record, err := r.createWithUniqueCode(ctx, GameRecord{
		ID:           uuid.New(),
		Name:         game.Name,
		Mode:         game.Mode,
		Map:          game.Map,
		MaxPlayers:   game.MaxPlayers,
		TotalPlayers: len(players),
		Captain:      game.Captain.Name,
		CaptainID:    game.Captain.ID,
		Players:      players,
		Config:       &config,
		Status:       GameStatusReady,
		CreatedAt:    game.CreatedAt,
	})
	if err != nil {
		return GameRecord{}, err
	}
	r.logger.Info("game ready",
		zap.String("game_code", record.Code),
		zap.String("captain_id", record.CaptainID),
		zap.Int("total_players", record.TotalPlayers))
	configRaw, err := config.MarshalIndentJSON()
	if err != nil {
		errors.Log(r.logger, errors.NewInternalErrorFromErr(err, "marshal config for announcement", nil))
		return record, nil
	}
	r.portal.Publish(ctx, TopicGameReady, event.GameReadyEvent{
		Code:      record.Code,
		Name:      record.Name,
		CreatedAt: record.CreatedAt,
		Config:    json.RawMessage(configRaw),
	})
	return record, nil
}

// OpenLobbyRequest is a request for opening a quick lobby.
type OpenLobbyRequest struct {
	Name       string   `json:"name"`
	Mode       GameMode `json:"mode"`
	Map        MapID    `json:"map"`
	MaxPlayers int      `json:"max_players"`
}

// Validate the request.
func (req OpenLobbyRequest) Validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.NewValidationError(errors.KindBlankName, "game name must not be empty")
	}
	if _, err := ParseGameMode(string(req.Mode)); err != nil {
		return err
	}
	if _, err := ParseMapID(string(req.Map)); err != nil {
		return err
	}
	if req.MaxPlayers < MinPlayers || req.MaxPlayers > MaxPlayersLimit {
		return errors.NewValidationError(errors.KindInvalidMaxPlayers,
			fmt.Sprintf("max players must be between %d and %d", MinPlayers, MaxPlayersLimit))
	}
	return nil
}

// OpenLobby creates a quick lobby with status waiting and the captain as only
// player. Looking up its code yields a not-ready error as there is no config.
func (r *Registry) OpenLobby(ctx context.Context, captain Captain, req OpenLobbyRequest) (GameRecord, error) {
	err := req.Validate()
	if err != nil {
		return GameRecord{}, err
	}
	record, err := r.createWithUniqueCode(ctx, GameRecord{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Mode:         req.Mode,
		Map:          req.Map,
		MaxPlayers:   req.MaxPlayers,
		TotalPlayers: 1,
		Captain:      captain.Name,
		CaptainID:    captain.ID,
		Players: []RecordPlayer{
			{Name: captain.Name, UserID: captain.ID},
		},
		Status:    GameStatusWaiting,
		CreatedAt: r.now(),
	})
	if err != nil {
		return GameRecord{}, err
	}
	r.logger.Debug("lobby opened", zap.String("game_code", record.Code))
	return record, nil
}

// OpenLobbies returns the newest waiting lobbies.
func (r *Registry) OpenLobbies(ctx context.Context) ([]GameRecord, error) {
	games, err := r.store.GamesByStatus(ctx, string(GameStatusWaiting), maxOpenLobbies)
	if err != nil {
		return nil, errors.NewLookupTransportError(err, "games by status")
	}
	records := make([]GameRecord, 0, len(games))
	for _, game := range games {
		record, err := recordFromStoreGame(game)
		if err != nil {
			return nil, errors.Wrap(err, "record from store game", nil)
		}
		records = append(records, record)
	}
	return records, nil
}
