package errors

import (
	"encoding/json"
	"fmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Details holds additional error details that can be viewed and logged.
type Details map[string]interface{}

// Error is the general error type for appearing errors in the lobby server.
type Error struct {
	// Code is the error code.
	Code Code
	// Kind is an optional, more specific error kind.
	Kind Kind
	// Err is the original error that occurred.
	Err error
	// Message is the manually created message that can be used in order to trace
	// the error. For user-blamed errors it is shown to the user.
	Message string
	// Details holds any error details.
	Details Details
}

func (e Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the original error.
func (e Error) Unwrap() error {
	return e.Err
}

// Cast casts the given error to Error. If the given one is not of type Error, an
// unknown one with error code ErrUnexpected is created and false returned.
func Cast(err error) (Error, bool) {
	switch e := err.(type) {
	case Error:
		return e, true
	case *Error:
		if e != nil {
			return *e, true
		}
	}
	e := Error{
		Code:    ErrUnexpected,
		Kind:    KindUnexpected,
		Err:     err,
		Message: "unknown operation",
		Details: make(Details),
	}
	return e, false
}

// Wrap wraps the given error with the given message.
func Wrap(err error, message string, details Details) error {
	e, ok := Cast(err)
	// Check whether to append to message or replace.
	var errMsg string
	if ok {
		errMsg = fmt.Sprintf("%s: %s", message, e.Message)
	} else {
		errMsg = message
	}
	// Add details.
	if details != nil && e.Details == nil {
		e.Details = make(Details)
	}
	for k, v := range details {
		// Check if detail with same key already set.
		if originalV, ok := e.Details[k]; ok {
			// Add prefix to original key. Original value will be overwritten after this
			// block.
			e.Details[fmt.Sprintf("_%s", k)] = originalV
		}
		e.Details[k] = v
	}
	return Error{
		Code:    e.Code,
		Kind:    e.Kind,
		Err:     e.Err,
		Message: errMsg,
		Details: e.Details,
	}
}

// FromErr creates an Error with the given details.
func FromErr(message string, code Code, err error, details Details) error {
	return Error{
		Code:    code,
		Err:     err,
		Message: message,
		Details: details,
	}
}

// detailsAsJSON encodes the Details of the given Error as JSON string.
func detailsAsJSON(logger *zap.Logger, err error) []byte {
	e, _ := Cast(err)
	if e.Details == nil {
		return nil
	}
	b, err := json.Marshal(e.Details)
	if err != nil {
		if logger != nil {
			Log(logger, Error{
				Code:    ErrInternal,
				Kind:    KindEncodeJSON,
				Message: "marshal error details",
				Err:     err,
				Details: Details{"to_marshal": fmt.Sprintf("%+v", e.Details)},
			})
		}
		return nil
	}
	return b
}

// Log logs the given error with its details. User-blamed errors are logged as
// warnings. If the error is ErrFatal, the error will be logged as fatal.
func Log(logger *zap.Logger, err error) {
	e, _ := Cast(err)
	fields := Details{
		"err_code": string(e.Code),
		"err_kind": string(e.Kind),
	}
	// Add each details entry as separate field for better readability.
	for k, v := range e.Details {
		fields[fmt.Sprintf("err_details_v_%s", k)] = fmt.Sprintf("%+v", v)
	}
	if e.Err != nil {
		fields["err_orig"] = e.Err.Error()
	}
	// Convert to zap fields.
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		switch vTyped := v.(type) {
		case int64:
			zapFields = append(zapFields, zap.Field{Key: k, Type: zapcore.Int64Type, Integer: vTyped})
		case string:
			zapFields = append(zapFields, zap.Field{Key: k, Type: zapcore.StringType, String: vTyped})
		default:
			zapFields = append(zapFields, zap.Field{Key: k, Type: zapcore.ReflectType, Interface: vTyped})
		}
	}
	logger = logger.With(zapFields...)
	switch {
	case e.Code == ErrFatal:
		logger.Fatal(e.Error())
	case BlameUser(e):
		logger.Warn(e.Error())
	default:
		logger.Error(e.Error())
	}
}

// Prettify returns a detailed error string with error details.
func Prettify(err error) string {
	e, _ := Cast(err)
	return fmt.Sprintf("Code: %s\nKind: %s\nOriginal Error: %+v\nMessage: %s\nDetails: %s\n",
		e.Code, e.Kind, e.Err, e.Message, detailsAsJSON(nil, e))
}

// BlameUser checks if the given error is ErrBadRequest, ErrProtocolViolation,
// ErrNotFound or ErrNotReady.
func BlameUser(err error) bool {
	e, ok := Cast(err)
	if !ok {
		// Unexpected.
		return false
	}
	switch e.Code {
	case ErrBadRequest,
		ErrProtocolViolation,
		ErrNotFound,
		ErrNotReady:
		return true
	}
	return false
}

// Retryable checks if the given error originates from communication with an
// external collaborator like the database, so the same operation may succeed
// when invoked again.
func Retryable(err error) bool {
	e, ok := Cast(err)
	if !ok {
		return false
	}
	return e.Code == ErrCommunication
}

// HasKind checks whether the given error is an Error with the given Kind.
func HasKind(err error, kind Kind) bool {
	e, ok := Cast(err)
	return ok && e.Kind == kind
}
