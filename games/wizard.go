package games

import (
	"context"
	"fmt"
	petname "github.com/dustinkirkland/golang-petname"
	"github.com/lefinal/vrcafe-server/errors"
	"go.uber.org/atomic"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Step is a step in the lobby wizard.
type Step string

const (
	// StepCreate is where game name, mode, map and max players are chosen.
	StepCreate Step = "create"
	// StepSetup is where players are added and assigned to teams.
	StepSetup Step = "setup"
	// StepReview is where the captain confirms the game before submitting.
	StepReview Step = "review"
	// StepCreated is the terminal step after the game was registered.
	StepCreated Step = "created"
)

// Captain is the user that runs the wizard.
type Captain struct {
	// ID is the user id at the identity provider.
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WizardState is the plain data of a wizard session that is used for
// compiling.
type WizardState struct {
	GameName   string
	Mode       GameMode
	Map        MapID
	MaxPlayers int
	Roster     *Roster
	Captain    Captain
}

// NewReadyGame holds everything needed for registering a game whose setup was
// completed.
type NewReadyGame struct {
	Name       string
	Mode       GameMode
	Map        MapID
	MaxPlayers int
	Captain    Captain
	CreatedAt  time.Time
	Config     CompiledConfig
}

// Registrar persists ready games. Registry implements it.
type Registrar interface {
	// RegisterReadyGame stores the game under a new code and returns the stored
	// record.
	RegisterReadyGame(ctx context.Context, game NewReadyGame) (GameRecord, error)
}

// WizardOption configures a Wizard.
type WizardOption func(w *Wizard)

// WithShuffler sets the Shuffler that is used for auto-assigning teams.
func WithShuffler(shuffler Shuffler) WizardOption {
	return func(w *Wizard) {
		w.shuffler = shuffler
	}
}

// WithClock sets the function used for retrieving the current time when
// compiling.
func WithClock(now func() time.Time) WizardOption {
	return func(w *Wizard) {
		w.now = now
	}
}

// WithNameSuggester sets the function that suggests game names for new
// sessions.
func WithNameSuggester(suggest func() string) WizardOption {
	return func(w *Wizard) {
		w.suggestName = suggest
	}
}

// suggestPetName suggests a name like "Lobby happy-otter".
func suggestPetName() string {
	return fmt.Sprintf("Lobby %s", petname.Generate(2, "-"))
}

// Wizard is one lobby wizard session of a captain. It walks through the steps
// create, setup, review and created. Only submitting has side effects.
type Wizard struct {
	captain     Captain
	shuffler    Shuffler
	now         func() time.Time
	suggestName func() string
	// submitting is set while a submission is in flight.
	submitting atomic.Bool
	// m locks all following fields.
	m             sync.Mutex
	step          Step
	gameName      string
	suggestedName string
	mode          GameMode
	mapID         MapID
	maxPlayers    int
	roster        *Roster
	// created is set when the step is StepCreated.
	created *GameRecord
}

// NewWizard creates a new Wizard for the given Captain in StepCreate.
func NewWizard(captain Captain, opts ...WizardOption) *Wizard {
	w := &Wizard{
		captain:     captain,
		shuffler:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
		suggestName: suggestPetName,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.reset()
	return w
}

// reset clears the session. The mutex must be held.
func (w *Wizard) reset() {
	w.step = StepCreate
	w.gameName = ""
	w.suggestedName = w.suggestName()
	w.mode = DefaultGameMode
	w.mapID = DefaultMap
	w.maxPlayers = DefaultMaxPlayers
	w.roster = NewRoster()
	w.created = nil
}

// stepViolation creates the error for an action not allowed in the current
// step.
func stepViolation(action string, step Step) error {
	return errors.Error{
		Code:    errors.ErrBadRequest,
		Kind:    errors.KindWizardStepViolation,
		Message: fmt.Sprintf("%s is not allowed in step %s", action, step),
		Details: errors.Details{"action": action, "step": step},
	}
}

// requireStep returns an error if the current step is not the wanted one. The
// mutex must be held.
func (w *Wizard) requireStep(action string, wanted Step) error {
	if w.step != wanted {
		return stepViolation(action, w.step)
	}
	return nil
}

// submissionInFlight creates the error for rejected actions while submitting.
func submissionInFlight() error {
	return errors.NewValidationError(errors.KindSubmissionInFlight, "game is currently being submitted")
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.m.Lock()
	defer w.m.Unlock()
	return w.step
}

// SetGameName sets the game name. The name is trimmed.
func (w *Wizard) SetGameName(name string) error {
	w.m.Lock()
	defer w.m.Unlock()
	if err := w.requireStep("setting game name", StepCreate); err != nil {
		return err
	}
	w.gameName = strings.TrimSpace(name)
	return nil
}

// SelectMode selects the game mode. Team assignments that are out of range for
// the new mode fall back to team 0.
func (w *Wizard) SelectMode(mode GameMode) error {
	if !mode.Valid() {
		_, err := ParseGameMode(string(mode))
		return err
	}
	w.m.Lock()
	defer w.m.Unlock()
	if err := w.requireStep("selecting game mode", StepCreate); err != nil {
		return err
	}
	w.mode = mode
	w.roster.ClampAssignments(mode.TeamCount())
	return nil
}

// SelectMap selects the map.
func (w *Wizard) SelectMap(id MapID) error {
	if !id.Valid() {
		_, err := ParseMapID(string(id))
		return err
	}
	w.m.Lock()
	defer w.m.Unlock()
	if err := w.requireStep("selecting map", StepCreate); err != nil {
		return err
	}
	w.mapID = id
	return nil
}

// SetMaxPlayers sets the max player count. It must be in [MinPlayers,
// MaxPlayersLimit] and must not be below the current roster size.
func (w *Wizard) SetMaxPlayers(n int) error {
	w.m.Lock()
	defer w.m.Unlock()
	if err := w.requireStep("setting max players", StepCreate); err != nil {
		return err
	}
	if n < MinPlayers || n > MaxPlayersLimit {
		return errors.NewValidationError(errors.KindInvalidMaxPlayers,
			fmt.Sprintf("max players must be between %d and %d", MinPlayers, MaxPlayersLimit))
	}
	if n < w.roster.Len() {
		return errors.NewValidationError(errors.KindInvalidMaxPlayers,
			fmt.Sprintf("max players must not be below the current player count of %d", w.roster.Len()))
	}
	w.maxPlayers = n
	return nil
}

// AddPlayer adds a player with the given name to the roster.
func (w *Wizard) AddPlayer(name string) (Player, error) {
	w.m.Lock()
	defer w.m.Unlock()
	if err := w.requireStep("adding players", StepSetup); err != nil {
		return Player{}, err
	}
	return w.roster.AddPlayer(name, w.maxPlayers)
}

// RemovePlayer removes the player with the given id from the roster. Unknown
// ids are ignored.
func (w *Wizard) RemovePlayer(id PlayerID) error {
	w.m.Lock()
	defer w.m.Unlock()
	if err := w.requireStep("removing players", StepSetup); err != nil {
		return err
	}
	w.roster.RemovePlayer(id)
	return nil
}

// AssignTeam assigns the player to the given team of the selected mode.
func (w *Wizard) AssignTeam(id PlayerID, team int) error {
	w.m.Lock()
	defer w.m.Unlock()
	if err := w.requireStep("assigning teams", StepSetup); err != nil {
		return err
	}
	return w.roster.AssignTeam(id, team, w.mode.TeamCount())
}

// AutoAssignTeams randomly distributes all players among the teams of the
// selected mode.
func (w *Wizard) AutoAssignTeams() error {
	w.m.Lock()
	defer w.m.Unlock()
	if err := w.requireStep("assigning teams", StepSetup); err != nil {
		return err
	}
	w.roster.AutoAssignTeams(w.mode.TeamCount(), w.shuffler)
	return nil
}

// Next advances to the next step if the guard of the current step is
// satisfied. Submitting is done via Submit.
func (w *Wizard) Next() error {
	w.m.Lock()
	defer w.m.Unlock()
	switch w.step {
	case StepCreate:
		if w.gameName == "" {
			return errors.NewValidationError(errors.KindBlankName, "game name must not be empty")
		}
		w.step = StepSetup
		return nil
	case StepSetup:
		if err := w.validateSetup(); err != nil {
			return err
		}
		w.step = StepReview
		return nil
	}
	return stepViolation("advancing", w.step)
}

// validateSetup checks the roster size and that no team is empty. The mutex
// must be held.
func (w *Wizard) validateSetup() error {
	if w.roster.Len() < MinPlayers {
		return errors.NewValidationError(errors.KindRosterTooSmall,
			fmt.Sprintf("at least %d players are required", MinPlayers))
	}
	emptyTeams := w.roster.EmptyTeams(w.mode.TeamCount())
	if len(emptyTeams) > 0 {
		return errors.Error{
			Code:    errors.ErrBadRequest,
			Kind:    errors.KindEmptyTeam,
			Message: fmt.Sprintf("team %d has no players", emptyTeams[0]+1),
			Details: errors.Details{"empty_teams": emptyTeams},
		}
	}
	return nil
}

// Back goes back one step from setup or review.
func (w *Wizard) Back() error {
	if w.submitting.Load() {
		return submissionInFlight()
	}
	w.m.Lock()
	defer w.m.Unlock()
	switch w.step {
	case StepSetup:
		w.step = StepCreate
		return nil
	case StepReview:
		w.step = StepSetup
		return nil
	}
	return stepViolation("going back", w.step)
}

// Restart discards the session and starts over in StepCreate.
func (w *Wizard) Restart() error {
	if w.submitting.Load() {
		return submissionInFlight()
	}
	w.m.Lock()
	defer w.m.Unlock()
	w.reset()
	return nil
}

// State returns a copy of the current WizardState.
func (w *Wizard) State() WizardState {
	w.m.Lock()
	defer w.m.Unlock()
	return w.stateLocked()
}

// stateLocked returns a copy of the current state. The mutex must be held.
func (w *Wizard) stateLocked() WizardState {
	return WizardState{
		GameName:   w.gameName,
		Mode:       w.mode,
		Map:        w.mapID,
		MaxPlayers: w.maxPlayers,
		Roster:     w.roster.Clone(),
		Captain:    w.captain,
	}
}

// Submit compiles the session and registers it using the given Registrar. Only
// if registering succeeds, the wizard advances to StepCreated. Otherwise, the
// session stays untouched in StepReview and submitting can be retried.
func (w *Wizard) Submit(ctx context.Context, registrar Registrar) (GameRecord, error) {
	if !w.submitting.CompareAndSwap(false, true) {
		return GameRecord{}, submissionInFlight()
	}
	defer w.submitting.Store(false)
	w.m.Lock()
	if err := w.requireStep("submitting", StepReview); err != nil {
		w.m.Unlock()
		return GameRecord{}, err
	}
	state := w.stateLocked()
	w.m.Unlock()
	now := w.now()
	record, err := registrar.RegisterReadyGame(ctx, NewReadyGame{
		Name:       state.GameName,
		Mode:       state.Mode,
		Map:        state.Map,
		MaxPlayers: state.MaxPlayers,
		Captain:    state.Captain,
		CreatedAt:  now,
		Config:     Compile(state, now),
	})
	if err != nil {
		return GameRecord{}, errors.Wrap(err, "register ready game", nil)
	}
	w.m.Lock()
	defer w.m.Unlock()
	w.step = StepCreated
	w.created = &record
	return record, nil
}

// SnapshotPlayer is a player in WizardSnapshot.
type SnapshotPlayer struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
	Team int      `json:"team"`
}

// SnapshotTeam is a team with its members in WizardSnapshot.
type SnapshotTeam struct {
	Index   int      `json:"index"`
	Members []Player `json:"members"`
}

// WizardSnapshot is a serializable view of a Wizard.
type WizardSnapshot struct {
	Step          Step             `json:"step"`
	GameName      string           `json:"game_name"`
	SuggestedName string           `json:"suggested_name"`
	Mode          GameMode         `json:"mode"`
	Map           MapID            `json:"map"`
	MaxPlayers    int              `json:"max_players"`
	TeamCount     int              `json:"team_count"`
	Players       []SnapshotPlayer `json:"players"`
	Teams         []SnapshotTeam   `json:"teams"`
	Submitting    bool             `json:"submitting"`
	Created       *GameRecord      `json:"created,omitempty"`
}

// Snapshot creates a WizardSnapshot of the current session.
func (w *Wizard) Snapshot() WizardSnapshot {
	w.m.Lock()
	defer w.m.Unlock()
	teamCount := w.mode.TeamCount()
	snapshot := WizardSnapshot{
		Step:          w.step,
		GameName:      w.gameName,
		SuggestedName: w.suggestedName,
		Mode:          w.mode,
		Map:           w.mapID,
		MaxPlayers:    w.maxPlayers,
		TeamCount:     teamCount,
		Players:       make([]SnapshotPlayer, 0, w.roster.Len()),
		Teams:         make([]SnapshotTeam, 0, teamCount),
		Submitting:    w.submitting.Load(),
		Created:       w.created,
	}
	for _, p := range w.roster.Players() {
		team, _ := w.roster.Team(p.ID)
		snapshot.Players = append(snapshot.Players, SnapshotPlayer{
			ID:   p.ID,
			Name: p.Name,
			Team: team,
		})
	}
	for team := 0; team < teamCount; team++ {
		snapshot.Teams = append(snapshot.Teams, SnapshotTeam{
			Index:   team,
			Members: w.roster.TeamMembers(team),
		})
	}
	return snapshot
}
