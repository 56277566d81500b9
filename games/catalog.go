package games

import (
	"fmt"
	"github.com/lefinal/vrcafe-server/errors"
)

// Player limits for lobbies.
const (
	// MinPlayers is the minimum roster size for advancing to review.
	MinPlayers = 2
	// MaxPlayersLimit is the upper bound for the max players setting.
	MaxPlayersLimit = 16
	// DefaultMaxPlayers is the max players setting for new wizard sessions.
	DefaultMaxPlayers = 8
)

// GameMode is the key of a game mode from the catalog.
type GameMode string

// All available game modes.
const (
	GameModeFreeForAll     GameMode = "free-for-all"
	GameModeTeamDeathmatch GameMode = "team-deathmatch"
	GameModeBattleRoyale   GameMode = "battle-royale"
	GameModeSurvival       GameMode = "survival"
	GameModeSquads         GameMode = "squads"
)

// DefaultGameMode is the mode that new wizard sessions start with.
const DefaultGameMode = GameModeFreeForAll

// GameModes lists all game modes in catalog order.
var GameModes = []GameMode{
	GameModeFreeForAll,
	GameModeTeamDeathmatch,
	GameModeBattleRoyale,
	GameModeSurvival,
	GameModeSquads,
}

// ParseGameMode returns the GameMode for the given key. Unknown keys result in
// an errors.ErrBadRequest error with errors.KindUnknownGameMode.
func ParseGameMode(key string) (GameMode, error) {
	mode := GameMode(key)
	if !mode.Valid() {
		return "", errors.Error{
			Code:    errors.ErrBadRequest,
			Kind:    errors.KindUnknownGameMode,
			Message: fmt.Sprintf("unknown game mode: %s", key),
			Details: errors.Details{"game_mode": key},
		}
	}
	return mode, nil
}

// Valid checks whether the GameMode is part of the catalog.
func (mode GameMode) Valid() bool {
	switch mode {
	case GameModeFreeForAll, GameModeTeamDeathmatch, GameModeBattleRoyale, GameModeSurvival, GameModeSquads:
		return true
	}
	return false
}

// Label is the human-readable name of the GameMode.
func (mode GameMode) Label() string {
	switch mode {
	case GameModeFreeForAll:
		return "Free-for-All"
	case GameModeTeamDeathmatch:
		return "Team Deathmatch"
	case GameModeBattleRoyale:
		return "Battle Royale"
	case GameModeSurvival:
		return "Survival Mode"
	case GameModeSquads:
		return "Squads"
	}
	return string(mode)
}

// TeamCount is the number of teams for the GameMode. Zero means free-for-all
// without any team validation.
func (mode GameMode) TeamCount() int {
	switch mode {
	case GameModeTeamDeathmatch:
		return 2
	case GameModeSquads:
		return 4
	case GameModeFreeForAll, GameModeBattleRoyale, GameModeSurvival:
		return 0
	}
	return 0
}

// HourlyRate is the price per player and hour when booking a session in the
// GameMode.
func (mode GameMode) HourlyRate() int {
	switch mode {
	case GameModeFreeForAll:
		return 300
	case GameModeTeamDeathmatch:
		return 350
	case GameModeBattleRoyale:
		return 400
	case GameModeSurvival:
		return 320
	case GameModeSquads:
		return 380
	}
	return 0
}

// MarshalText marshals the GameMode as its key.
func (mode GameMode) MarshalText() ([]byte, error) {
	return []byte(mode), nil
}

// UnmarshalText parses the key and rejects unknown game modes.
func (mode *GameMode) UnmarshalText(text []byte) error {
	parsed, err := ParseGameMode(string(text))
	if err != nil {
		return err
	}
	*mode = parsed
	return nil
}

// MapID identifies a map from the catalog.
type MapID string

// All available maps.
const (
	MapDustPalace    MapID = "dust_palace"
	MapCyberCity     MapID = "cyber_city"
	MapSpaceStation  MapID = "space_station"
	MapJungleWarfare MapID = "jungle_warfare"
)

// DefaultMap is the map that new wizard sessions start with.
const DefaultMap = MapDustPalace

// Maps lists all maps in catalog order.
var Maps = []MapID{
	MapDustPalace,
	MapCyberCity,
	MapSpaceStation,
	MapJungleWarfare,
}

// ParseMapID returns the MapID for the given id. Unknown ones result in an
// errors.ErrBadRequest error with errors.KindUnknownMap.
func ParseMapID(id string) (MapID, error) {
	mapID := MapID(id)
	if !mapID.Valid() {
		return "", errors.Error{
			Code:    errors.ErrBadRequest,
			Kind:    errors.KindUnknownMap,
			Message: fmt.Sprintf("unknown map: %s", id),
			Details: errors.Details{"map": id},
		}
	}
	return mapID, nil
}

// Valid checks whether the MapID is part of the catalog.
func (id MapID) Valid() bool {
	switch id {
	case MapDustPalace, MapCyberCity, MapSpaceStation, MapJungleWarfare:
		return true
	}
	return false
}

// Label is the human-readable map name.
func (id MapID) Label() string {
	switch id {
	case MapDustPalace:
		return "Dust Palace"
	case MapCyberCity:
		return "Cyber City"
	case MapSpaceStation:
		return "Space Station"
	case MapJungleWarfare:
		return "Jungle Warfare"
	}
	return string(id)
}

// MarshalText marshals the MapID as is.
func (id MapID) MarshalText() ([]byte, error) {
	return []byte(id), nil
}

// UnmarshalText parses the id and rejects unknown maps.
func (id *MapID) UnmarshalText(text []byte) error {
	parsed, err := ParseMapID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// CatalogMode is the public representation of a GameMode.
type CatalogMode struct {
	Key        GameMode `json:"key"`
	Label      string   `json:"label"`
	TeamCount  int      `json:"team_count"`
	HourlyRate int      `json:"hourly_rate"`
}

// CatalogMap is the public representation of a MapID.
type CatalogMap struct {
	ID    MapID  `json:"id"`
	Label string `json:"label"`
}

// Catalog holds everything a client needs for displaying game options.
type Catalog struct {
	Modes             []CatalogMode `json:"modes"`
	Maps              []CatalogMap  `json:"maps"`
	DefaultMode       GameMode      `json:"default_mode"`
	DefaultMap        MapID         `json:"default_map"`
	MinPlayers        int           `json:"min_players"`
	MaxPlayersLimit   int           `json:"max_players_limit"`
	DefaultMaxPlayers int           `json:"default_max_players"`
}

// NewCatalog creates the Catalog with all modes and maps.
func NewCatalog() Catalog {
	c := Catalog{
		Modes:             make([]CatalogMode, 0, len(GameModes)),
		Maps:              make([]CatalogMap, 0, len(Maps)),
		DefaultMode:       DefaultGameMode,
		DefaultMap:        DefaultMap,
		MinPlayers:        MinPlayers,
		MaxPlayersLimit:   MaxPlayersLimit,
		DefaultMaxPlayers: DefaultMaxPlayers,
	}
	for _, mode := range GameModes {
		c.Modes = append(c.Modes, CatalogMode{
			Key:        mode,
			Label:      mode.Label(),
			TeamCount:  mode.TeamCount(),
			HourlyRate: mode.HourlyRate(),
		})
	}
	for _, id := range Maps {
		c.Maps = append(c.Maps, CatalogMap{
			ID:    id,
			Label: id.Label(),
		})
	}
	return c
}
