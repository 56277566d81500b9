package event

import (
	nativeerrors "errors"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestErrorEventPayloadFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorEventPayload
	}{
		{
			name: "user blamed",
			err:  errors.NewValidationError(errors.KindEmptyTeam, "team 2 has no players"),
			want: ErrorEventPayload{
				Code:    string(errors.ErrBadRequest),
				Kind:    string(errors.KindEmptyTeam),
				Err:     "team 2 has no players",
				Message: "team 2 has no players",
			},
		},
		{
			name: "not ready",
			err: errors.Error{
				Code:    errors.ErrNotReady,
				Kind:    errors.KindGameNotReady,
				Message: "game is not ready yet",
			},
			want: ErrorEventPayload{
				Code:    string(errors.ErrNotReady),
				Kind:    string(errors.KindGameNotReady),
				Err:     "game is not ready yet",
				Message: "game is not ready yet",
			},
		},
		{
			name: "retryable",
			err:  errors.NewPersistenceError(nativeerrors.New("connection reset"), "create game"),
			want: ErrorEventPayload{
				Code:      string(errors.ErrCommunication),
				Kind:      string(errors.KindPersistenceFailure),
				Message:   "temporary failure, please try again",
				Retryable: true,
			},
		},
		{
			name: "internal",
			err:  errors.NewInternalError("sad life", errors.Details{"secret": "value"}),
			want: ErrorEventPayload{
				Code:    string(errors.ErrInternal),
				Message: "internal server error",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorEventPayloadFromError(tt.err))
		})
	}
}
