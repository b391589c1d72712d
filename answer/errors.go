package answer

import "errors"

var (
	// ErrEmptyQuestion is returned when the question is empty or whitespace.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrInvalidCitation is returned by the reject policy when an answer cites
	// a source that does not exist.
	ErrInvalidCitation = errors.New("answer cites a nonexistent source")

	// ErrUnknownCitationPolicy is returned for an unrecognized policy name.
	ErrUnknownCitationPolicy = errors.New("unknown citation policy")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidTopN is returned when top n is not positive.
	ErrInvalidTopN = errors.New("top n must be positive")
)
