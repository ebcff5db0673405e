// Copyright (C) 2025 foldset.io. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package retry

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/foldset-io/foldset/internal/log"
)

// Do will run fn with retry mechanism.
// Options control the retry times and backoff intervals.
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	c := newDefaultConfig()
	for _, opt := range opts {
		opt(c)
	}

	var lastErr error
	for i := uint(0); i < c.attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRecoverable(err) {
			if errors.IsAny(err, context.Canceled, context.DeadlineExceeded) && lastErr != nil {
				return lastErr
			}
			return err
		}
		lastErr = err
		if i%4 == 0 {
			log.Warn("retry func failed", zap.Uint("retried", i), zap.Error(err))
		}

		select {
		case <-time.After(c.sleep):
		case <-ctx.Done():
			return errors.CombineErrors(ctx.Err(), lastErr)
		}

		c.sleep *= 2
		if c.sleep > c.maxSleepTime {
			c.sleep = c.maxSleepTime
		}
	}
	return lastErr
}

type unrecoverableError struct {
	error
}

func (e unrecoverableError) Unwrap() error {
	return e.error
}

// Unrecoverable wraps an error so Do returns it immediately instead of
// retrying.
func Unrecoverable(err error) error {
	return unrecoverableError{err}
}

// IsRecoverable reports whether the error can be retried.
func IsRecoverable(err error) bool {
	return !errors.HasType(err, unrecoverableError{})
}
