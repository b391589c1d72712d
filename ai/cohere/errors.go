package cohere

import "errors"

var (
	// ErrUnexpectedStatus is returned when the rerank endpoint answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected rerank status")

	// ErrResultOutOfRange is returned when a result points outside the submitted documents.
	ErrResultOutOfRange = errors.New("rerank result index out of range")
)
