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

package controller

// connKey is the sum-type key spec §9 calls for: "Key = Plci(id) |
// PendingReq(msg_num)". While an outgoing call is pending, before
// CONNECT_CONF returns the driver-assigned PLCI, the connection is
// indexed by a synthesized pseudo-id derived from the message sequence
// number, so CONNECT_CONF can be routed back without a separate pending-
// requests table (spec §3 invariant, §9 design note).
type connKey struct {
	pending bool
	plci    uint32
	msgNum  uint16
}

func plciKey(plci uint32) connKey {
	return connKey{plci: plci}
}

func pendingKey(msgNum uint16) connKey {
	return connKey{pending: true, msgNum: msgNum}
}
