// Package entity defines the entities and errors shared by the client layers.
// It includes the Link struct returned by the remote service, the credential and
// session types owned by the client, and the error kinds every flow reports.
package entity

import "errors"

var (
	// ErrUnauthorized is returned when the remote service rejects the attached credentials (401/403).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation is returned when the request input is malformed (400).
	ErrValidation = errors.New("validation error")
	// ErrConflict is returned when the request collides with existing state, e.g. a taken short code (409).
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = errors.New("not found")
	// ErrServiceUnavailable is returned for network failures and 5xx responses.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrClipboard is returned when text cannot be copied to the local clipboard.
	ErrClipboard = errors.New("clipboard error")
	// ErrBusy is returned when a control is triggered while its previous request is still outstanding.
	ErrBusy = errors.New("request already in progress")
	// ErrNotConfirmed is returned when the user declines a destructive action.
	ErrNotConfirmed = errors.New("action not confirmed")
)
