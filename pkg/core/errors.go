package core

import "errors"

// Common errors.
var (
	ErrEmptyID       = errors.New("document ID cannot be empty")
	ErrNotConfigured = errors.New("publisher is not configured (endpoint, username and password are required)")
	ErrNoCategories  = errors.New("at least one category is required")
	ErrNotWatchable  = errors.New("repository does not support watching")
)
