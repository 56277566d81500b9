package games

import (
	"fmt"
	"github.com/google/uuid"
	"github.com/lefinal/vrcafe-server/errors"
	"strings"
)

// PlayerID is the locally unique id of a Player in a Roster.
type PlayerID string

// Player is a player in the roster.
type Player struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}

// Shuffler shuffles n elements using the given swap function. *rand.Rand
// satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Roster is an ordered list of players along with their team assignments.
// Every player has exactly one assignment which defaults to team 0.
//
// A Roster is not safe for concurrent use.
type Roster struct {
	players []Player
	teams   map[PlayerID]int
}

// NewRoster creates an empty Roster.
func NewRoster() *Roster {
	return &Roster{
		teams: make(map[PlayerID]int),
	}
}

// AddPlayer appends a player with the given name to the roster and assigns it
// to team 0. The name is trimmed. Blank names and a full roster are rejected.
func (r *Roster) AddPlayer(name string, maxPlayers int) (Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, errors.NewValidationError(errors.KindBlankName, "player name must not be empty")
	}
	if len(r.players) >= maxPlayers {
		return Player{}, errors.NewValidationError(errors.KindRosterFull,
			fmt.Sprintf("maximum of %d players reached", maxPlayers))
	}
	p := Player{
		ID:   PlayerID(uuid.New().String()),
		Name: name,
	}
	r.players = append(r.players, p)
	r.teams[p.ID] = 0
	return p, nil
}

// RemovePlayer removes the player with the given id. It reports whether a
// player was removed. Removing an unknown player is not an error.
func (r *Roster) RemovePlayer(id PlayerID) bool {
	for i, p := range r.players {
		if p.ID != id {
			continue
		}
		r.players = append(r.players[:i:i], r.players[i+1:]...)
		delete(r.teams, id)
		return true
	}
	return false
}

// AssignTeam assigns the player with the given id to the team. The team must
// be in [0, teamCount). On error, nothing is changed.
func (r *Roster) AssignTeam(id PlayerID, team int, teamCount int) error {
	if _, ok := r.teams[id]; !ok {
		return errors.Error{
			Code:    errors.ErrBadRequest,
			Kind:    errors.KindUnknownPlayer,
			Message: "unknown player",
			Details: errors.Details{"player_id": id},
		}
	}
	if team < 0 || team >= teamCount {
		return errors.Error{
			Code:    errors.ErrBadRequest,
			Kind:    errors.KindTeamOutOfRange,
			Message: fmt.Sprintf("team %d is not available for the selected game mode", team+1),
			Details: errors.Details{"team": team, "team_count": teamCount},
		}
	}
	r.teams[id] = team
	return nil
}

// AutoAssignTeams shuffles the players using the given Shuffler and assigns
// them round-robin to the teams. Team sizes therefore differ by at most one.
// Previous assignments are discarded. This is a no-op for free-for-all.
func (r *Roster) AutoAssignTeams(teamCount int, shuffler Shuffler) {
	if teamCount <= 0 {
		return
	}
	order := make([]PlayerID, len(r.players))
	for i, p := range r.players {
		order[i] = p.ID
	}
	shuffler.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	for i, id := range order {
		r.teams[id] = i % teamCount
	}
}

// ClampAssignments resets assignments that are not in [0, teamCount) to team
// 0. This is needed after the game mode changed.
func (r *Roster) ClampAssignments(teamCount int) {
	for id, team := range r.teams {
		if team < 0 || team >= teamCount {
			r.teams[id] = 0
		}
	}
}

// TeamMembers returns the players assigned to the given team in roster order.
func (r *Roster) TeamMembers(team int) []Player {
	members := make([]Player, 0)
	for _, p := range r.players {
		if r.teams[p.ID] == team {
			members = append(members, p)
		}
	}
	return members
}

// EmptyTeams returns all teams in [0, teamCount) without any members.
func (r *Roster) EmptyTeams(teamCount int) []int {
	sizes := make([]int, teamCount)
	for _, p := range r.players {
		if team := r.teams[p.ID]; team >= 0 && team < teamCount {
			sizes[team]++
		}
	}
	empty := make([]int, 0)
	for team, size := range sizes {
		if size == 0 {
			empty = append(empty, team)
		}
	}
	return empty
}

// Players returns a copy of all players in roster order.
func (r *Roster) Players() []Player {
	players := make([]Player, len(r.players))
	copy(players, r.players)
	return players
}

// Team returns the team of the player with the given id.
func (r *Roster) Team(id PlayerID) (int, bool) {
	team, ok := r.teams[id]
	return team, ok
}

// Len returns the number of players.
func (r *Roster) Len() int {
	return len(r.players)
}

// Clone creates a deep copy of the Roster.
func (r *Roster) Clone() *Roster {
	clone := &Roster{
		players: r.Players(),
		teams:   make(map[PlayerID]int, len(r.teams)),
	}
	for id, team := range r.teams {
		clone.teams[id] = team
	}
	return clone
}
