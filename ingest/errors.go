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

package ingest

import (
	"errors"
	"fmt"
)

// Rejection codes, stable so operators can aggregate failures by kind
// across deployments.
const (
	CodeInvalidNote      = "invalid_note"
	CodeInvalidQuestion  = "invalid_question"
	CodeActorSuspended   = "actor_suspended"
	CodeProhibitedWords  = "prohibited_words"
	CodeQuoteUnavailable = "quote_unavailable"
)

// Error is a permanent ingestion failure carrying a stable rejection code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func reject(code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// RejectionCode returns the rejection code buried in err, or "".
func RejectionCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
