package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/event"
	"github.com/lefinal/vrcafe-server/games"
	"go.uber.org/zap"
)

// WizardSessions is a ClientListener that runs one games.Wizard per connected
// client. The wizard lives as long as the connection.
type WizardSessions struct {
	logger        *zap.Logger
	registrar     games.Registrar
	wizardOptions []games.WizardOption
}

// NewWizardSessions creates a new WizardSessions that submits games to the
// given games.Registrar.
func NewWizardSessions(logger *zap.Logger, registrar games.Registrar, wizardOptions ...games.WizardOption) *WizardSessions {
	return &WizardSessions{
		logger:        logger,
		registrar:     registrar,
		wizardOptions: wizardOptions,
	}
}

// AcceptClient creates the wizard for the client and handles its messages
// sequentially until the connection is closed.
func (sessions *WizardSessions) AcceptClient(ctx context.Context, client *Client) {
	defer close(client.Send)
	logger := client.logger
	session := newWizardSession(logger, games.NewWizard(client.Captain, sessions.wizardOptions...), sessions.registrar,
		func(message []byte) {
			select {
			case client.Send <- message:
			default:
				logger.Warn("dropping outgoing message because of full send buffer")
			}
		})
	session.sendState()
	for {
		select {
		case <-ctx.Done():
			return
		case message, more := <-client.Receive:
			if !more {
				return
			}
			session.handleMessage(ctx, message)
		}
	}
}

// SayGoodbyeToClient logs that the session of the client ends.
func (sessions *WizardSessions) SayGoodbyeToClient(client *Client) {
	client.logger.Debug("wizard session discarded")
}

// wizardSession translates messages to operations on a games.Wizard.
type wizardSession struct {
	logger    *zap.Logger
	wizard    *games.Wizard
	registrar games.Registrar
	// send writes the given raw message to the client.
	send func(message []byte)
}

func newWizardSession(logger *zap.Logger, wizard *games.Wizard, registrar games.Registrar, send func(message []byte)) *wizardSession {
	return &wizardSession{
		logger:    logger,
		wizard:    wizard,
		registrar: registrar,
		send:      send,
	}
}

// sendMessage marshals the content and sends it with the given type.
func (s *wizardSession) sendMessage(messageType MessageType, content interface{}) {
	contentRaw, err := json.Marshal(content)
	if err != nil {
		errors.Log(s.logger, errors.NewInternalErrorFromErr(err, "marshal message content",
			errors.Details{"message_type": messageType}))
		return
	}
	raw, err := json.Marshal(MessageContainer{
		MessageType: messageType,
		Content:     contentRaw,
	})
	if err != nil {
		errors.Log(s.logger, errors.NewInternalErrorFromErr(err, "marshal message container",
			errors.Details{"message_type": messageType}))
		return
	}
	s.send(raw)
}

// sendState sends the current wizard snapshot.
func (s *wizardSession) sendState() {
	s.sendMessage(MessageTypeWizardState, s.wizard.Snapshot())
}

// sendError logs the given error and sends it to the client.
func (s *wizardSession) sendError(err error) {
	errors.Log(s.logger, err)
	s.sendMessage(MessageTypeError, event.ErrorEventPayloadFromError(err))
}

// handleMessage handles the given raw message and responds with the new wizard
// state. Failed operations are responded to with an error message before the
// state.
func (s *wizardSession) handleMessage(ctx context.Context, raw []byte) {
	var container MessageContainer
	err := json.Unmarshal(raw, &container)
	if err != nil {
		s.sendError(errors.Error{
			Code:    errors.ErrProtocolViolation,
			Kind:    errors.KindDecodeJSON,
			Err:     err,
			Message: "parse message container",
			Details: errors.Details{"message": string(raw)},
		})
		return
	}
	err = s.handle(ctx, container)
	if err != nil {
		s.sendError(err)
	}
	s.sendState()
}

// decodeContent parses the content of the given MessageContainer.
func decodeContent[T any](container MessageContainer) (T, error) {
	var content T
	if len(container.Content) == 0 {
		return content, errors.Error{
			Code:    errors.ErrProtocolViolation,
			Kind:    errors.KindDecodeJSON,
			Message: fmt.Sprintf("missing content for message type %s", container.MessageType),
		}
	}
	err := json.Unmarshal(container.Content, &content)
	if err != nil {
		return content, errors.Error{
			Code:    errors.ErrProtocolViolation,
			Kind:    errors.KindDecodeJSON,
			Err:     err,
			Message: fmt.Sprintf("parse content for message type %s", container.MessageType),
			Details: errors.Details{"content": string(container.Content)},
		}
	}
	return content, nil
}

// handle the given message.
func (s *wizardSession) handle(ctx context.Context, container MessageContainer) error {
	switch container.MessageType {
	case MessageTypeSetGameName:
		m, err := decodeContent[SetGameNameMessage](container)
		if err != nil {
			return err
		}
		return s.wizard.SetGameName(m.Name)
	case MessageTypeSelectMode:
		m, err := decodeContent[SelectModeMessage](container)
		if err != nil {
			return err
		}
		return s.wizard.SelectMode(m.Mode)
	case MessageTypeSelectMap:
		m, err := decodeContent[SelectMapMessage](container)
		if err != nil {
			return err
		}
		return s.wizard.SelectMap(m.Map)
	case MessageTypeSetMaxPlayers:
		m, err := decodeContent[SetMaxPlayersMessage](container)
		if err != nil {
			return err
		}
		return s.wizard.SetMaxPlayers(m.MaxPlayers)
	case MessageTypeNext:
		return s.wizard.Next()
	case MessageTypeBack:
		return s.wizard.Back()
	case MessageTypeAddPlayer:
		m, err := decodeContent[AddPlayerMessage](container)
		if err != nil {
			return err
		}
		_, err = s.wizard.AddPlayer(m.Name)
		return err
	case MessageTypeRemovePlayer:
		m, err := decodeContent[RemovePlayerMessage](container)
		if err != nil {
			return err
		}
		return s.wizard.RemovePlayer(m.PlayerID)
	case MessageTypeAssignTeam:
		m, err := decodeContent[AssignTeamMessage](container)
		if err != nil {
			return err
		}
		return s.wizard.AssignTeam(m.PlayerID, m.Team)
	case MessageTypeAutoAssignTeams:
		return s.wizard.AutoAssignTeams()
	case MessageTypeSubmit:
		record, err := s.wizard.Submit(ctx, s.registrar)
		if err != nil {
			return err
		}
		s.sendMessage(MessageTypeGameCreated, GameCreatedMessage{
			Code:           record.Code,
			Record:         record,
			ConfigFileName: games.ExportFileName(record.Code),
		})
		return nil
	case MessageTypeRestart:
		return s.wizard.Restart()
	}
	return errors.NewForbiddenMessageError(string(container.MessageType), container.Content)
}
