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

// Package callmodule implements the blocking, one-task-per-call handlers
// spec §4.4 names: Accept, Reject/Disconnect, Switch-to-fax,
// Audio-send/receive, Fax-send/receive, Outgoing, and Read-DTMF. Each
// module binds an observer to a connection, runs its execute loop to
// completion, and detaches; callers submit that execute loop to an
// internal/workerpool.Pool rather than spawning a bare goroutine (spec §5).
package callmodule

import (
	"context"
	"sync"
	"time"

	"github.com/larsimmisch/capisuite/internal/observer"
)

// pollInterval is the wall-clock poll period spec §5 describes for
// modules waiting on observer events ("a simple deadline-exceeded check
// on a 100ms wall-clock poll"). A var, not a const, so tests can shrink
// it.
var pollInterval = 100 * time.Millisecond

// events is the observer implementation every call module installs on
// its connection. It records occurrence counts rather than closing
// channels, because some modules (Switch-to-fax) wait on the same event
// kind more than once during a single execute loop.
type events struct {
	observer.NopObserver

	mu               sync.Mutex
	alertingN        int
	connectedN       int
	disconnPhysicalN int
	disconnLogicalN  int
	transmissionN    int
	dtmfDigits       string
	lastDataInLen    int
}

func newEvents() *events {
	return &events{}
}

func (e *events) Alerting() {
	e.mu.Lock()
	e.alertingN++
	e.mu.Unlock()
}

func (e *events) Connected() {
	e.mu.Lock()
	e.connectedN++
	e.mu.Unlock()
}

func (e *events) DisconnectedPhysical() {
	e.mu.Lock()
	e.disconnPhysicalN++
	e.mu.Unlock()
}

func (e *events) DisconnectedLogical() {
	e.mu.Lock()
	e.disconnLogicalN++
	e.mu.Unlock()
}

func (e *events) TransmissionComplete() {
	e.mu.Lock()
	e.transmissionN++
	e.mu.Unlock()
}

func (e *events) DTMFArrived(digits string) {
	e.mu.Lock()
	e.dtmfDigits += digits
	e.mu.Unlock()
}

func (e *events) DataIn(data []byte) {
	e.mu.Lock()
	e.lastDataInLen = len(data)
	e.mu.Unlock()
}

func (e *events) dtmfCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.dtmfDigits)
}

// waitResult identifies which of a set of awaited conditions fired
// first, so a module's execute loop can branch without re-deriving
// state from the recorder.
type waitResult int

const (
	waitTimeout waitResult = iota
	waitCancelled
	waitAlerting
	waitConnected
	waitDisconnectedPhysical
	waitDisconnectedLogical
	waitTransmissionComplete
	waitDTMF
)

// waitFor polls for one of the given snapshot predicates to hold,
// applying an optional deadline (zero means "no timeout") and ctx
// cancellation, per spec §5's poll-based suspension model. snapshot
// predicates are evaluated under the event recorder's lock.
func (e *events) waitFor(ctx context.Context, deadline time.Time, want map[waitResult]func() bool) waitResult {
	for {
		e.mu.Lock()
		for kind, pred := range want {
			if pred() {
				e.mu.Unlock()
				return kind
			}
		}
		e.mu.Unlock()

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return waitTimeout
		}
		select {
		case <-ctx.Done():
			return waitCancelled
		case <-time.After(pollInterval):
		}
	}
}
