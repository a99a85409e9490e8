package repositories

import "errors"

var (
	// ErrNotFound indicates the requested scene, thumbnail, or audio
	// artifact does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would duplicate or, for
	// scenes, overlap an existing record.
	ErrConflict = errors.New("record conflict")
)
