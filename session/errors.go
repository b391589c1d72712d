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


package session

import "errors"

var (
	// ErrNothingIndexed is returned by Ask while the session is Empty.
	ErrNothingIndexed = errors.New("nothing has been indexed yet")

	// ErrIngesterRequired indicates a nil ingester.
	ErrIngesterRequired = errors.New("ingester is required")

	// ErrAnswererRequired indicates a nil answerer.
	ErrAnswererRequired = errors.New("answerer is required")
)
