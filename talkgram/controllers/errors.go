package controllers

import "errors"

// Product-level conditions the routes translate into distinct responses.
var (
	ErrInsufficientCredit = errors.New("insufficient credits to start a conversation")
	ErrNoActiveChat       = errors.New("no active conversation")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrMissingUID         = errors.New("uid is required")
)
