package games

import (
	"encoding/json"
	"github.com/gobuffalo/nulls"
	"github.com/google/uuid"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/store"
	"time"
)

// GameStatus is the status of a stored game.
type GameStatus string

const (
	// GameStatusReady is used for games whose config was compiled and that can be
	// looked up.
	GameStatusReady GameStatus = "ready"
	// GameStatusWaiting is used for quick lobbies that wait for players.
	GameStatusWaiting GameStatus = "waiting"
)

// RecordPlayer is a player entry of a GameRecord.
type RecordPlayer struct {
	Name   string `json:"name"`
	TeamID int    `json:"teamid"`
	// UserID is set for players that joined with their account.
	UserID string `json:"uid,omitempty"`
}

// GameRecord is a stored game as returned by lookups.
type GameRecord struct {
	ID           uuid.UUID      `json:"id"`
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	Mode         GameMode       `json:"mode"`
	Map          MapID          `json:"map"`
	MaxPlayers   int            `json:"maxPlayers"`
	TotalPlayers int            `json:"totalPlayers"`
	Captain      string         `json:"captain"`
	CaptainID    string         `json:"captainId"`
	Players      []RecordPlayer `json:"players"`
	// Config is the compiled config. It is only set for ready games.
	Config    *CompiledConfig `json:"config,omitempty"`
	Status    GameStatus      `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

// storeGameFromRecord converts the GameRecord to a store.Game.
func storeGameFromRecord(record GameRecord) (store.Game, error) {
	playersRaw, err := json.Marshal(record.Players)
	if err != nil {
		return store.Game{}, errors.NewInternalErrorFromErr(err, "marshal players", nil)
	}
	game := store.Game{
		ID:           record.ID,
		Code:         record.Code,
		Name:         record.Name,
		Mode:         string(record.Mode),
		Map:          string(record.Map),
		MaxPlayers:   record.MaxPlayers,
		TotalPlayers: record.TotalPlayers,
		CaptainID:    record.CaptainID,
		Players:      playersRaw,
		Status:       string(record.Status),
		CreatedAt:    record.CreatedAt,
	}
	if record.Captain != "" {
		game.Captain = nulls.NewString(record.Captain)
	}
	if record.Config != nil {
		game.Config, err = json.Marshal(record.Config)
		if err != nil {
			return store.Game{}, errors.NewInternalErrorFromErr(err, "marshal config", nil)
		}
	}
	return game, nil
}

// recordFromStoreGame converts the store.Game to a GameRecord.
func recordFromStoreGame(game store.Game) (GameRecord, error) {
	record := GameRecord{
		ID:           game.ID,
		Code:         game.Code,
		Name:         game.Name,
		Mode:         GameMode(game.Mode),
		Map:          MapID(game.Map),
		MaxPlayers:   game.MaxPlayers,
		TotalPlayers: game.TotalPlayers,
		Captain:      game.Captain.String,
		CaptainID:    game.CaptainID,
		Players:      make([]RecordPlayer, 0),
		Status:       GameStatus(game.Status),
		CreatedAt:    game.CreatedAt,
	}
	if len(game.Players) > 0 {
		err := json.Unmarshal(game.Players, &record.Players)
		if err != nil {
			return GameRecord{}, errors.Error{
				Code:    errors.ErrInternal,
				Kind:    errors.KindDecodeJSON,
				Err:     err,
				Message: "unmarshal stored players",
				Details: errors.Details{"game_code": game.Code},
			}
		}
	}
	if game.Config != nil {
		var config CompiledConfig
		err := json.Unmarshal(game.Config, &config)
		if err != nil {
			return GameRecord{}, errors.Error{
				Code:    errors.ErrInternal,
				Kind:    errors.KindDecodeJSON,
				Err:     err,
				Message: "unmarshal stored config",
				Details: errors.Details{"game_code": game.Code},
			}
		}
		record.Config = &config
	}
	return record, nil
}
