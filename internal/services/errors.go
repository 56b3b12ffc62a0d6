package services

import "errors"

var (
	// ErrEmailTaken is returned when registering with an email that is
	// already in use (compared case-insensitively).
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password, so a caller cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTaskNotFound is returned when a request-scoped task lookup misses.
	// This is a normal outcome, surfaced to clients as 404.
	ErrTaskNotFound = errors.New("task not found")

	// ErrBrokenUserReference is returned when a task references a user that
	// no longer exists. That is referential corruption, not a lookup miss;
	// it must surface as an internal error, never as 404.
	ErrBrokenUserReference = errors.New("task references a missing user")
)
