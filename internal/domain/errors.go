package domain

import "errors"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyConversation    = errors.New("conversation has no turns")
	ErrEmptyQuery           = errors.New("query is empty")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrExternalSearch       = errors.New("external precedent search failed")
	ErrIndexUnavailable     = errors.New("vector index not available")
)
