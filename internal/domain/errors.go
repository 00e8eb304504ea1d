package domain

import "errors"

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrJobNotFound        = errors.New("etl job not found")
	// ErrInvalidTransition is returned for a ledger update that would move a
	// status backwards or change a terminal entry.
	ErrInvalidTransition = errors.New("invalid etl job status transition")
)
