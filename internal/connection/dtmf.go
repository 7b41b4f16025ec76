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

import "sync"

// defaultDTMFDurationTenthMs is the default tone/gap duration spec §4.3
// names for enable_dtmf: "40 tenths-of-ms".
const defaultDTMFDurationTenthMs uint16 = 40

// dtmfBuffer is the accumulated DTMF digit buffer (spec §3: "ordered
// sequence of characters from 0-9A-D*#XY"). Written only by the reader
// task on FACILITY_IND; read non-destructively by call tasks (spec §5).
type dtmfBuffer struct {
	mu      sync.Mutex
	digits  []byte
	enabled bool
}

// append adds digits received on one FACILITY_IND and returns the newly
// appended substring, for the observer dtmf_arrived callback.
func (b *dtmfBuffer) append(digits string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.digits = append(b.digits, digits...)
	return digits
}

// read returns the full accumulated buffer without clearing it.
func (b *dtmfBuffer) read() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.digits)
}

// clear empties the buffer (spec §4.3 clear_dtmf).
func (b *dtmfBuffer) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.digits = b.digits[:0]
}

// count reports the current digit count, used by Read-DTMF's entry-count
// capture (spec §4.4).
func (b *dtmfBuffer) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.digits)
}

// setEnabled records whether FACILITY_REQ(enable) is outstanding. Per
// spec §8, enable_dtmf followed by disable_dtmf must leave no queued
// FACILITY state; this flag exists purely so a caller can assert that
// invariant in tests, not to gate behaviour.
func (b *dtmfBuffer) setEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

func (b *dtmfBuffer) isEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}
