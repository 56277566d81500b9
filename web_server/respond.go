package web_server

import (
	"encoding/json"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/event"
	"go.uber.org/zap"
	"net/http"
)

// httpStatusFromError maps the error code of the given error to an HTTP
// status.
func httpStatusFromError(err error) int {
	e, _ := errors.Cast(err)
	switch e.Kind {
	case errors.KindMissingToken, errors.KindInvalidToken:
		return http.StatusUnauthorized
	}
	switch e.Code {
	case errors.ErrBadRequest, errors.ErrProtocolViolation:
		return http.StatusBadRequest
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrNotReady:
		return http.StatusConflict
	case errors.ErrCommunication:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondJSON writes the given payload as JSON with the given status.
func (server *WebServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		server.respondError(w, errors.NewInternalErrorFromErr(err, "marshal response", nil))
		return
	}
	server.respondRaw(w, status, "application/json", raw)
}

// respondRaw writes the given body with the content type and status.
func (server *WebServer) respondRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, err := w.Write(body)
	if err != nil {
		server.logger.Debug("write response failed", zap.Error(err))
	}
}

// respondError logs the given error and responds with the mapped status and
// an event.ErrorEventPayload.
func (server *WebServer) respondError(w http.ResponseWriter, err error) {
	errors.Log(server.logger, err)
	raw, marshalErr := json.Marshal(event.ErrorEventPayloadFromError(err))
	if marshalErr != nil {
		errors.Log(server.logger, errors.NewInternalErrorFromErr(marshalErr, "marshal error response", nil))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	server.respondRaw(w, httpStatusFromError(err), "application/json", raw)
}

// decodeBody decodes the JSON request body into the given target.
func decodeBody(r *http.Request, target interface{}) error {
	err := json.NewDecoder(r.Body).Decode(target)
	if err != nil {
		return errors.Error{
			Code:    errors.ErrBadRequest,
			Kind:    errors.KindDecodeJSON,
			Err:     err,
			Message: "invalid request body",
		}
	}
	return nil
}
