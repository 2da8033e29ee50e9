// Copyright 2023 The chuhe.io Authors
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

// Package remote classifies failures of outbound calls to the execution
// service, the dag scheduler and the task queue broker. Timeout and Protocol
// failures are transient and safe to retry on the next reconcile cycle;
// Rejected means the remote refused the request and retrying without operator
// intervention will not help.
package remote

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

type Kind string

const (
	KindTimeout  Kind = "Timeout"
	KindProtocol Kind = "ProtocolError"
	KindRejected Kind = "RemoteRejected"
	KindUnknown  Kind = "Unknown"
)

type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d", e.Op, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps a transport-level error or a non-2xx response into an
// *Error. A nil err together with a 2xx status returns nil.
func Classify(op string, statusCode int, err error) error {
	if err != nil {
		var nerr net.Error
		switch {
		case errors.As(err, &nerr) && nerr.Timeout():
			return &Error{Kind: KindTimeout, Op: op, Err: err}
		case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.EPIPE):
			return &Error{Kind: KindProtocol, Op: op, Err: err}
		default:
			return &Error{Kind: KindUnknown, Op: op, Err: err}
		}
	}
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}
	return &Error{Kind: KindRejected, Op: op, StatusCode: statusCode}
}

// IsRetryable reports whether err is a transient communication failure.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindTimeout || e.Kind == KindProtocol
	}
	return false
}

func IsRejected(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRejected
}
