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

// Package observer defines the external boundary hooks spec §2/§4.5
// publishes to call modules and the scripting runtime: a per-call
// observer for asynchronous events, and the "new incoming call
// completely identified" application callback.
package observer

// Observer receives the asynchronous events a Connection's reader-task
// side fires. Implementations must not block; long-running work belongs
// on the caller's own task, woken by these callbacks (spec §5).
//
// The reader task guarantees callbacks for one connection never overlap
// each other, though they may overlap with callbacks for a different
// connection (spec §5).
type Observer interface {
	// Alerting fires when the far end (outgoing) or the local driver
	// (incoming) signals ringing.
	Alerting()

	// Connected fires when the NCCI reaches the active state.
	Connected()

	// DisconnectedPhysical fires exactly once, when the PLCI reaches the
	// terminal state.
	DisconnectedPhysical()

	// DisconnectedLogical fires when the NCCI returns to idle after
	// having been up.
	DisconnectedLogical()

	// DataIn fires for every DATA_B3_IND payload, after it has been
	// appended to any installed receive sink.
	DataIn(data []byte)

	// DTMFArrived fires with the newly-appended digit substring each
	// time a FACILITY_IND carries the DTMF selector.
	DTMFArrived(digits string)

	// TransmissionComplete fires once the send window has drained after
	// the source file was exhausted.
	TransmissionComplete()
}

// NopObserver implements Observer with no-op methods, useful as an
// embeddable base for call modules that only care about a subset of
// events.
type NopObserver struct{}

func (NopObserver) Alerting()              {}
func (NopObserver) Connected()             {}
func (NopObserver) DisconnectedPhysical()  {}
func (NopObserver) DisconnectedLogical()   {}
func (NopObserver) DataIn(data []byte)     {}
func (NopObserver) DTMFArrived(digit string) {}
func (NopObserver) TransmissionComplete()  {}

// IncomingCallHandler is the application boundary hook fired once an
// incoming call's callee number is completely identified (immediately in
// non-DDI mode, or once DDI accumulation completes), per spec §4.2.
type IncomingCallHandler func(conn Connection)

// Connection is the minimal surface call_waiting publishes to the
// application boundary; internal/connection.Connection satisfies it. It
// is declared here, rather than imported from internal/connection, so
// this package has no dependency on the connection engine (spec §9:
// "do not embed any specific scripting-language details in the core",
// kept symmetric by not letting the boundary package depend downward
// either).
type Connection interface {
	SetObserver(Observer)
	CallingNumber() string
	CalledNumber() string
}
