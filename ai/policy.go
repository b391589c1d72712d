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


package ai

import (
	"context"
	"log/slog"
	"time"
)

// CallPolicy bounds calls to external services.
type CallPolicy struct {
	// Timeout limits each attempt. Zero means no per-attempt timeout.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts, must be > 0.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt; it doubles after each retry.
	BaseDelay time.Duration
}

// DefaultCallPolicy returns a policy with a 30 second timeout and a single attempt.
func DefaultCallPolicy() CallPolicy {
	return CallPolicy{
		Timeout:     30 * time.Second,
		MaxAttempts: 1,
		BaseDelay:   time.Second,
	}
}

// Validate checks that the policy allows at least one attempt.
func (p CallPolicy) Validate() error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	return nil
}

// Do runs operation until it succeeds or the attempts are exhausted.
// Each attempt receives a context bounded by Timeout.
// Returns the error from the last attempt if all attempts fail.
func (p CallPolicy) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = p.attempt(ctx, operation)
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		// Don't sleep after the last attempt
		if attempt == p.MaxAttempts {
			break
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", p.MaxAttempts, "error", lastErr)

		// Exponential backoff: BaseDelay * 2^(attempt-1)
		delay := p.BaseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

func (p CallPolicy) attempt(ctx context.Context, operation func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return operation(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return operation(attemptCtx)
}
