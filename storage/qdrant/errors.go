package qdrant

import "errors"

var (
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected qdrant status")

	// ErrNotReady is returned when a collection does not become ready in time.
	ErrNotReady = errors.New("collection not ready")
)
