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

// PLCIState is the physical-link state machine, spec §4.3 (names reflect
// CAPI 2.0 §7.2).
type PLCIState uint8

const (
	PLCIIdle PLCIState = iota
	PLCIReqPending
	PLCIOutAlerting
	PLCIIncoming
	PLCIInAlerting
	PLCIActive
	PLCIDisconnecting
	PLCITerminal
)

func (s PLCIState) String() string {
	switch s {
	case PLCIIdle:
		return "idle"
	case PLCIReqPending:
		return "req_pending"
	case PLCIOutAlerting:
		return "out_alerting"
	case PLCIIncoming:
		return "incoming"
	case PLCIInAlerting:
		return "in_alerting"
	case PLCIActive:
		return "active"
	case PLCIDisconnecting:
		return "disconnecting"
	case PLCITerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// NCCIState is the logical-channel state machine, spec §4.3.
type NCCIState uint8

const (
	NCCIIdle NCCIState = iota
	NCCIReqPending
	NCCIAccepting
	NCCIActivePending
	NCCIActive
	NCCIDisconnecting
)

func (s NCCIState) String() string {
	switch s {
	case NCCIIdle:
		return "idle"
	case NCCIReqPending:
		return "req_pending"
	case NCCIAccepting:
		return "accepting"
	case NCCIActivePending:
		return "active_pending"
	case NCCIActive:
		return "active"
	case NCCIDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}
