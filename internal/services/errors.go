package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus = errors.New("status must be not-started, in-progress or completed")
	ErrInvalidNote   = errors.New("invalid note")
	ErrInvalidLink   = errors.New("link must be an absolute http or https url")
)

// PartialCascadeError reports a storage object that could not be released
// after its note and progress rows were deleted. It is informational: the
// catalog delete has already committed.
type PartialCascadeError struct {
	NoteID      uuid.UUID
	StoragePath string
	Err         error
}

func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("note %s deleted but storage object %q was not released: %v", e.NoteID, e.StoragePath, e.Err)
}

func (e *PartialCascadeError) Unwrap() error {
	return e.Err
}
