package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound marks a lookup miss. Callers substitute a default where
	// one exists.
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable wraps every backend failure that is not a miss.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// classify maps a gorm error onto the store taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
