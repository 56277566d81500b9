package games

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// createdAtFormat is the format of CompiledSettings.CreatedAt. It matches
// ISO-8601 with millisecond precision in UTC.
const createdAtFormat = "2006-01-02T15:04:05.000Z"

// CompiledPlayer is a player entry in CompiledConfig.
type CompiledPlayer struct {
	Name string `json:"name"`
	// TeamID is the assigned team. It is 0 for free-for-all modes.
	TeamID int `json:"teamid"`
}

// CompiledTeam is a team entry in CompiledConfig.
type CompiledTeam struct {
	ID int `json:"id"`
	// Players are the member names in roster order.
	Players []string `json:"players"`
}

// CompiledSettings is the metadata part of CompiledConfig.
type CompiledSettings struct {
	GameName    string `json:"gameName"`
	CreatedAt   string `json:"createdAt"`
	CaptainName string `json:"captainName"`
	CaptainID   string `json:"captainId"`
}

// CompiledConfig is the game config that is handed to the VR engine. Its JSON
// representation is the interchange format for operators, so field names and
// order must not change.
type CompiledConfig struct {
	// Mode is the team count of the game mode. 0 means free-for-all.
	Mode         int              `json:"mode"`
	GameModeKey  GameMode         `json:"gameModeKey"`
	Map          MapID            `json:"map"`
	MaxPlayers   int              `json:"maxPlayers"`
	TotalPlayers int              `json:"totalPlayers"`
	Players      []CompiledPlayer `json:"players"`
	// Teams holds one entry per team in index order. It is empty for
	// free-for-all.
	Teams    []CompiledTeam   `json:"teams"`
	Settings CompiledSettings `json:"settings"`
}

// Compile creates the CompiledConfig for the given WizardState. The result only
// depends on the state and the given time.
func Compile(state WizardState, now time.Time) CompiledConfig {
	teamCount := state.Mode.TeamCount()
	players := state.Roster.Players()
	config := CompiledConfig{
		Mode:         teamCount,
		GameModeKey:  state.Mode,
		Map:          state.Map,
		MaxPlayers:   state.MaxPlayers,
		TotalPlayers: len(players),
		Players:      make([]CompiledPlayer, 0, len(players)),
		Teams:        make([]CompiledTeam, 0, teamCount),
		Settings: CompiledSettings{
			GameName:    state.GameName,
			CreatedAt:   now.UTC().Format(createdAtFormat),
			CaptainName: state.Captain.Name,
			CaptainID:   state.Captain.ID,
		},
	}
	for _, p := range players {
		teamID := 0
		if teamCount > 0 {
			teamID, _ = state.Roster.Team(p.ID)
		}
		config.Players = append(config.Players, CompiledPlayer{
			Name:   p.Name,
			TeamID: teamID,
		})
	}
	for team := 0; team < teamCount; team++ {
		members := state.Roster.TeamMembers(team)
		compiledTeam := CompiledTeam{
			ID:      team,
			Players: make([]string, 0, len(members)),
		}
		for _, member := range members {
			compiledTeam.Players = append(compiledTeam.Players, member.Name)
		}
		config.Teams = append(config.Teams, compiledTeam)
	}
	return config
}

// MarshalIndentJSON marshals the config in its interchange format: UTF-8 JSON
// with 2-space indentation and without trailing newline.
func (config CompiledConfig) MarshalIndentJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(config); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ExportFileName is the file name for downloading the config of the game with
// the given code.
func ExportFileName(code string) string {
	return fmt.Sprintf("game-config-%s.json", NormalizeCode(code))
}
