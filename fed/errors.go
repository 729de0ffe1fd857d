/*
Copyright 2025, 2026 Dima Krasner

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package fed

import "errors"

var (
	ErrBlockedDomain      = errors.New("domain is blocked")
	ErrInvalidScheme      = errors.New("invalid scheme")
	ErrInvalidHost        = errors.New("invalid host")
	ErrFragmentID         = errors.New("cannot resolve a fragment ID")
	ErrCycle              = errors.New("resolution cycle detected")
	ErrRecursionLimit     = errors.New("recursion limit exceeded")
	ErrMissingContext     = errors.New("no ActivityStreams context")
	ErrMissingID          = errors.New("object has no ID")
	ErrAuthorityMismatch  = errors.New("object ID belongs to another authority")
	ErrUnhandledLocalType = errors.New("unhandled local object type")
	ErrNotCollection      = errors.New("not a collection")
	ErrRemoteGone         = errors.New("remote object is gone")
	ErrInvalidContentType = errors.New("invalid content type")
)

// Failures are permanent unless wrapped by [Retryable]: a queue worker must
// not re-attempt a permanent failure, it will fail the same way every time.
type retryableError struct {
	err error
}

func (e retryableError) Error() string {
	return e.err.Error()
}

func (e retryableError) Unwrap() error {
	return e.err
}

// Retryable marks an error as transient.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return retryableError{err}
}

// IsRetryable determines whether an error is transient and the operation
// may be re-attempted later.
func IsRetryable(err error) bool {
	var r retryableError
	return errors.As(err, &r)
}
