package openai

import "errors"

// ErrNoChoices is returned when the chat model responds without any choice.
var ErrNoChoices = errors.New("model returned no choices")
