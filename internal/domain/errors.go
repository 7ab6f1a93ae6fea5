package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the backend is unreachable. Recurring
	// loops log it and retry on their next scheduled tick.
	ErrServerOffline = errors.New("conversion backend is unreachable")

	// ErrProtocol indicates the backend answered but with a non-success
	// payload or an unparseable body.
	ErrProtocol = errors.New("backend returned a non-success response")

	// ErrMedia indicates playback failed inside the media subsystem.
	ErrMedia = errors.New("media playback failed")

	// ErrInvalidURL indicates a submission was rejected before any network
	// call was made.
	ErrInvalidURL = errors.New("not a valid video URL")
)
