// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"strings"
)

var (
	// ErrMissingSettings is matched by every *MissingSettingsError.
	ErrMissingSettings = errors.New("missing required settings")

	// ErrUnknownIndexType indicates an index.type other than badger or qdrant.
	ErrUnknownIndexType = errors.New("unknown index type")

	// ErrInvalidValue indicates a setting outside its allowed range.
	ErrInvalidValue = errors.New("invalid setting")
)

// MissingSettingsError lists every required setting that has no value.
// Environment-sourced settings are named by their variable.
type MissingSettingsError struct {
	Settings []string
}

func (e *MissingSettingsError) Error() string {
	return ErrMissingSettings.Error() + ": " + strings.Join(e.Settings, ", ")
}

// Is reports whether target is ErrMissingSettings.
func (e *MissingSettingsError) Is(target error) bool {
	return target == ErrMissingSettings
}
