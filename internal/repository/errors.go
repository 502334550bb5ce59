package repository

import (
	"errors"

	"beatleader-bot/internal/storage"
)

var (
	// ErrNotFound is reported when the requested entity does not exist.
	ErrNotFound = storage.ErrNotFound

	// ErrProfileNotVerified is reported by Link when the guild requires a
	// verified profile and the upstream profile does not list the chat user.
	ErrProfileNotVerified = errors.New("upstream profile is not verified")

	// ErrNotLinked is reported when an unlink targets a guild the user was
	// never linked to.
	ErrNotLinked = errors.New("user is not linked")
)
