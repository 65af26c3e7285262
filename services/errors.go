package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDuration     = errors.New("invalid game duration")
	ErrGameAlreadyOpen     = errors.New("a game is already open")
	ErrNoGameOpen          = errors.New("no game is open")
	ErrDuplicateSubmission = errors.New("submission already processed")
	ErrNoValidMove         = errors.New("game has no valid move to continue from")
	ErrFileRejected        = errors.New("file rejected")
	ErrOtherChannel        = errors.New("file was not shared to the game channel")
)

// DurationError describes a rejected game length.
type DurationError struct {
	Input     string
	NotNumber bool
}

func (e *DurationError) Error() string {
	if e.NotNumber {
		return fmt.Sprintf("game duration %q is not a number", e.Input)
	}
	return fmt.Sprintf("game duration %s is outside %d-%d hours", e.Input, MinLimitHours, MaxLimitHours)
}

func (e *DurationError) Is(target error) bool {
	return target == ErrInvalidDuration
}

// StorageError wraps any failure reading or writing the shared store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
