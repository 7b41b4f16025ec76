// Copyright 2026 The Capisuite Authors.
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

package connection

import "fmt"

// ProtocolError is spec §7's "Protocol error" kind: a message received in
// a state with no defined transition. The reader task logs and continues
// (spec §4.2); it never panics the process.
type ProtocolError struct {
	PLCI    uint32
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("connection %d: protocol error: %s", e.PLCI, e.Message)
}

// ExternalError is spec §7's "External error" kind: caller-side misuse,
// such as an invalid file path, an unsupported service, an empty called
// number, reject cause 0, or a missing observer.
type ExternalError struct {
	Reason string
}

func (e *ExternalError) Error() string {
	return "connection: " + e.Reason
}

// ConnectionGoneError is spec §7's "Connection-gone" kind: a wrong-state
// error raised only when an operation is issued against a connection
// whose state no longer permits it. The state is checked at operation
// entry only; this is never raised mid-operation.
type ConnectionGoneError struct {
	Op    string
	State string
}

func (e *ConnectionGoneError) Error() string {
	return fmt.Sprintf("connection: %s not valid in state %s", e.Op, e.State)
}

func wrongState(op string, state fmt.Stringer) error {
	return &ConnectionGoneError{Op: op, State: state.String()}
}
