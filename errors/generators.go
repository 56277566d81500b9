package errors

import (
	"encoding/json"
	"fmt"
)

//goland:noinspection SpellCheckingInspection

// NewResourceNotFoundError returns a new ErrNotFound error with kind
// KindResourceNotFound and the given message.
func NewResourceNotFoundError(message string, details Details) error {
	return Error{
		Code:    ErrNotFound,
		Kind:    KindResourceNotFound,
		Message: message,
		Details: details,
	}
}

// NewBadRequestErr returns a new ErrBadRequest error with the given kind.
func NewBadRequestErr(message string, kind Kind, details Details) error {
	return Error{
		Code:    ErrBadRequest,
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// NewValidationError is an ErrBadRequest error used for rejected user input. The
// message is meant to be shown to the user and should name the unmet condition.
func NewValidationError(kind Kind, message string) error {
	return Error{
		Code:    ErrBadRequest,
		Kind:    kind,
		Message: message,
	}
}

// NewInternalError returns a new ErrInternal error with the given message.
func NewInternalError(message string, details Details) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindUnexpected,
		Message: message,
		Details: details,
	}
}

// NewInternalErrorFromErr returns a new ErrInternal error with the given
// original error and message.
func NewInternalErrorFromErr(err error, message string, details Details) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindUnexpected,
		Err:     err,
		Message: message,
		Details: details,
	}
}

// NewQueryToSQLError returns an ErrInternal error for failed query building.
func NewQueryToSQLError(err error, details Details) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindDB,
		Err:     err,
		Message: "query to sql",
		Details: details,
	}
}

// NewExecQueryError returns an ErrInternal error for a failed query execution.
// The query is added to the details.
func NewExecQueryError(err error, message string, query string) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindDB,
		Err:     err,
		Message: message,
		Details: Details{"query": query},
	}
}

// NewScanDBRowError returns an ErrInternal error for failed row scanning.
func NewScanDBRowError(err error, message string, query string) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindDB,
		Err:     err,
		Message: message,
		Details: Details{"query": query},
	}
}

// NewDBTxBeginError returns an ErrInternal error for a transaction that could
// not be started.
func NewDBTxBeginError(err error) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindDB,
		Err:     err,
		Message: "begin tx",
	}
}

// NewDBTxCommitError returns an ErrInternal error for a transaction that could
// not be committed.
func NewDBTxCommitError(err error) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindDB,
		Err:     err,
		Message: "commit tx",
	}
}

// NewPersistenceError wraps a failed write to the store as retryable
// ErrCommunication error with kind KindPersistenceFailure.
func NewPersistenceError(err error, message string) error {
	e, _ := Cast(err)
	return Error{
		Code:    ErrCommunication,
		Kind:    KindPersistenceFailure,
		Err:     err,
		Message: message,
		Details: e.Details,
	}
}

// NewLookupTransportError wraps a failed read from the store during a lookup as
// retryable ErrCommunication error with kind KindLookupTransport.
func NewLookupTransportError(err error, message string) error {
	e, _ := Cast(err)
	return Error{
		Code:    ErrCommunication,
		Kind:    KindLookupTransport,
		Err:     err,
		Message: message,
		Details: e.Details,
	}
}

// NewForbiddenMessageError creates a new ErrProtocolViolation error with kind
// KindForbiddenMessage.
func NewForbiddenMessageError(messageType string, content json.RawMessage) error {
	return Error{
		Code:    ErrProtocolViolation,
		Kind:    KindForbiddenMessage,
		Message: fmt.Sprintf("forbidden message type: %s", messageType),
		Details: Details{
			"message_type": messageType,
			"content":      string(content),
		},
	}
}
