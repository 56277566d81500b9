package games

import (
	"encoding/json"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseGameMode(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		expect    GameMode
		teamCount int
		expectErr bool
	}{
		{name: "free-for-all", key: "free-for-all", expect: GameModeFreeForAll, teamCount: 0},
		{name: "team deathmatch", key: "team-deathmatch", expect: GameModeTeamDeathmatch, teamCount: 2},
		{name: "battle royale", key: "battle-royale", expect: GameModeBattleRoyale, teamCount: 0},
		{name: "survival", key: "survival", expect: GameModeSurvival, teamCount: 0},
		{name: "squads", key: "squads", expect: GameModeSquads, teamCount: 4},
		{name: "unknown", key: "deathmatch", expectErr: true},
		{name: "empty", key: "", expectErr: true},
		{name: "case matters", key: "Squads", expectErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGameMode(tt.key)
			if tt.expectErr {
				require.Error(t, err, "should fail")
				assert.True(t, errors.HasKind(err, errors.KindUnknownGameMode), "should have correct kind")
				assert.True(t, errors.BlameUser(err), "should blame user")
				return
			}
			require.NoError(t, err, "should not fail")
			assert.Equal(t, tt.expect, got)
			assert.Equal(t, tt.teamCount, got.TeamCount(), "should have correct team count")
		})
	}
}

func TestGameModesComplete(t *testing.T) {
	for _, mode := range GameModes {
		assert.True(t, mode.Valid(), "mode %s should be valid", mode)
		assert.NotEqual(t, string(mode), mode.Label(), "mode %s should have label", mode)
		assert.Positive(t, mode.HourlyRate(), "mode %s should have hourly rate", mode)
	}
	assert.True(t, DefaultGameMode.Valid())
	assert.True(t, DefaultMap.Valid())
}

func TestParseMapID(t *testing.T) {
	for _, id := range Maps {
		got, err := ParseMapID(string(id))
		require.NoError(t, err, "map %s should be valid", id)
		assert.Equal(t, id, got)
		assert.NotEqual(t, string(id), id.Label(), "map %s should have label", id)
	}
	_, err := ParseMapID("moon_base")
	require.Error(t, err, "should fail for unknown map")
	assert.True(t, errors.HasKind(err, errors.KindUnknownMap), "should have correct kind")
}

func TestGameModeJSON(t *testing.T) {
	var v struct {
		Mode GameMode `json:"mode"`
		Map  MapID    `json:"map"`
	}
	err := json.Unmarshal([]byte(`{"mode":"squads","map":"cyber_city"}`), &v)
	require.NoError(t, err, "should not fail")
	assert.Equal(t, GameModeSquads, v.Mode)
	assert.Equal(t, MapCyberCity, v.Map)
	raw, err := json.Marshal(v)
	require.NoError(t, err, "should not fail")
	assert.JSONEq(t, `{"mode":"squads","map":"cyber_city"}`, string(raw))
	err = json.Unmarshal([]byte(`{"mode":"capture-the-flag"}`), &v)
	assert.Error(t, err, "should reject unknown mode")
	err = json.Unmarshal([]byte(`{"map":"moon_base"}`), &v)
	assert.Error(t, err, "should reject unknown map")
}

func TestNewCatalog(t *testing.T) {
	c := NewCatalog()
	require.Len(t, c.Modes, len(GameModes))
	require.Len(t, c.Maps, len(Maps))
	assert.Equal(t, CatalogMode{
		Key:        GameModeTeamDeathmatch,
		Label:      "Team Deathmatch",
		TeamCount:  2,
		HourlyRate: 350,
	}, c.Modes[1])
	assert.Equal(t, CatalogMap{ID: MapDustPalace, Label: "Dust Palace"}, c.Maps[0])
	assert.Equal(t, MinPlayers, c.MinPlayers)
	assert.Equal(t, MaxPlayersLimit, c.MaxPlayersLimit)
	assert.Equal(t, DefaultMaxPlayers, c.DefaultMaxPlayers)
}
