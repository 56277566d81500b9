// Provide basic event functionality.

package event

import (
	"github.com/eclipse/paho.golang/paho"
	"github.com/lefinal/vrcafe-server/errors"
	"time"
)

// Event is a received MQTT message with its parsed payload.
type Event[T any] struct {
	Publish *paho.Publish
	Payload T
}

// ErrorEventPayload is used for errors that need to be sent to clients.
type ErrorEventPayload struct {
	// Code is the error code from errors.Error.
	Code string `json:"code"`
	// Kind is the error kind from errors.Error.
	Kind string `json:"kind"`
	// Err is the error from errors.Error.
	Err string `json:"err"`
	// Message is the message from errors.Error.
	Message string `json:"message"`
	// Details are error details from errors.Error.
	Details map[string]interface{} `json:"details"`
	// Retryable describes whether the failed operation may succeed when retried.
	Retryable bool `json:"retryable"`
}

// ErrorEventPayloadFromError creates an ErrorEventPayload from the given error.
// Internals of errors that are not caused by the user are hidden.
func ErrorEventPayloadFromError(err error) ErrorEventPayload {
	e, _ := errors.Cast(err)
	if errors.Retryable(err) {
		return ErrorEventPayload{
			Code:      string(e.Code),
			Kind:      string(e.Kind),
			Message:   "temporary failure, please try again",
			Retryable: true,
		}
	}
	if !errors.BlameUser(err) {
		return ErrorEventPayload{
			Code:    string(e.Code),
			Message: "internal server error",
		}
	}
	return ErrorEventPayload{
		Code:    string(e.Code),
		Kind:    string(e.Kind),
		Err:     e.Error(),
		Message: e.Message,
		Details: e.Details,
	}
}

// LogEntryEvent carries one published log entry.
type LogEntryEvent struct {
	Time       time.Time              `json:"time"`
	Message    string                 `json:"message"`
	Level      string                 `json:"level"`
	LoggerName string                 `json:"logger_name"`
	Fields     map[string]interface{} `json:"fields"`
}
