package ws

import (
	"encoding/json"
	"github.com/lefinal/vrcafe-server/games"
)

// MessageType is the type of MessageContainer.
type MessageType string

// Inbound message types.
const (
	MessageTypeSetGameName     MessageType = "set-game-name"
	MessageTypeSelectMode      MessageType = "select-mode"
	MessageTypeSelectMap       MessageType = "select-map"
	MessageTypeSetMaxPlayers   MessageType = "set-max-players"
	MessageTypeNext            MessageType = "next"
	MessageTypeBack            MessageType = "back"
	MessageTypeAddPlayer       MessageType = "add-player"
	MessageTypeRemovePlayer    MessageType = "remove-player"
	MessageTypeAssignTeam      MessageType = "assign-team"
	MessageTypeAutoAssignTeams MessageType = "auto-assign-teams"
	MessageTypeSubmit          MessageType = "submit"
	MessageTypeRestart         MessageType = "restart"
)

// Outbound message types.
const (
	// MessageTypeWizardState carries the games.WizardSnapshot after each handled
	// message.
	MessageTypeWizardState MessageType = "wizard-state"
	// MessageTypeError carries an event.ErrorEventPayload.
	MessageTypeError MessageType = "error"
	// MessageTypeGameCreated carries GameCreatedMessage.
	MessageTypeGameCreated MessageType = "game-created"
)

// MessageContainer is a container for all messages that are sent and received.
type MessageContainer struct {
	// MessageType is the type of the message.
	MessageType MessageType `json:"message_type"`
	// Content is the actual message content.
	Content json.RawMessage `json:"content,omitempty"`
}

// SetGameNameMessage is the content for MessageTypeSetGameName.
type SetGameNameMessage struct {
	Name string `json:"name"`
}

// SelectModeMessage is the content for MessageTypeSelectMode.
type SelectModeMessage struct {
	Mode games.GameMode `json:"mode"`
}

// SelectMapMessage is the content for MessageTypeSelectMap.
type SelectMapMessage struct {
	Map games.MapID `json:"map"`
}

// SetMaxPlayersMessage is the content for MessageTypeSetMaxPlayers.
type SetMaxPlayersMessage struct {
	MaxPlayers int `json:"max_players"`
}

// AddPlayerMessage is the content for MessageTypeAddPlayer.
type AddPlayerMessage struct {
	Name string `json:"name"`
}

// RemovePlayerMessage is the content for MessageTypeRemovePlayer.
type RemovePlayerMessage struct {
	PlayerID games.PlayerID `json:"player_id"`
}

// AssignTeamMessage is the content for MessageTypeAssignTeam.
type AssignTeamMessage struct {
	PlayerID games.PlayerID `json:"player_id"`
	// Team is the zero-based team index.
	Team int `json:"team"`
}

// GameCreatedMessage is sent after the wizard was submitted successfully.
type GameCreatedMessage struct {
	Code   string           `json:"code"`
	Record games.GameRecord `json:"record"`
	// ConfigFileName is the file name for exporting the compiled config.
	ConfigFileName string `json:"config_file_name"`
}
