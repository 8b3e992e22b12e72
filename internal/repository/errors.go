package repository

import "errors"

// Sentinel errors shared by every store implementation.
var (
	ErrCardNotFound        = errors.New("review card not found")
	ErrCardVersionConflict = errors.New("review card was modified by another process")
	ErrSessionNotFound     = errors.New("review session not found")
	ErrLockNotAcquired     = errors.New("card lock not acquired")
)
