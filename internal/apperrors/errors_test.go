package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", NewValidation("batchId", "is required"), KindValidation},
		{"conflict", &ConflictError{BatchID: "B1"}, KindConflict},
		{"not found", &NotFoundError{BatchID: "B1"}, KindNotFound},
		{"mint", &MintError{Reason: "node down"}, KindMint},
		{"persistence", &PersistenceError{BatchID: "B1", Err: errors.New("db down")}, KindPersistence},
		{"wrapped", fmt.Errorf("request failed: %w", &ConflictError{BatchID: "B1"}), KindConflict},
		{"unclassified", errors.New("something else"), Kind("")},
		{"nil", nil, Kind("")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestErrorsUnwrapToTheirCause(t *testing.T) {
	cause := errors.New("connection refused")

	mintErr := &MintError{Reason: cause.Error(), Err: cause}
	assert.ErrorIs(t, mintErr, cause)

	persistErr := &PersistenceError{BatchID: "B1", Err: cause}
	assert.ErrorIs(t, persistErr, cause)
}

func TestErrorMessagesNameTheSubject(t *testing.T) {
	assert.Contains(t, NewValidation("quantity", "must be a positive integer").Error(), "quantity")
	assert.Contains(t, (&ConflictError{BatchID: "B1"}).Error(), "B1")
	assert.Contains(t, (&NotFoundError{BatchID: "B2"}).Error(), "B2")
}
