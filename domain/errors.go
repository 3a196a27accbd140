package domain

import "errors"

var (
	UnexpectedDatabaseError = errors.New("database-error")
	ErrUserNotFound         = errors.New("user-not-found")
	ErrBeatmapNotFound      = errors.New("beatmap-not-found")
	ErrSnapshotNotFound     = errors.New("snapshot-not-found")
)

var (
	TokenError               = errors.New("token-error")
	ErrInvalidSigningMethod  = errors.New("invalid-signing-method")
	ErrExpiredToken          = errors.New("expired-token")
	ErrInvalidTokenSignature = errors.New("invalid-token-signature")
	ErrCorruptedToken        = errors.New("corrupted-token")
)
