package service

import "errors"

var (
	ErrUserAlreadyExist = errors.New("user already exist")
	ErrUserNotFound     = errors.New("user not found")

	// ErrSessionNotFoundOrExpired covers never-existed, expired and revoked
	// sessions alike so callers cannot probe which session tokens exist.
	ErrSessionNotFoundOrExpired = errors.New("session not found or expired")

	// ErrSessionNotFound is for operations that address a session which must
	// exist, like rebinding an access token after refresh.
	ErrSessionNotFound = errors.New("session not found")
)
