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

import "strings"

// ddiAccumulator reconstructs the real callee number on point-to-point
// controllers, where CONNECT_IND's called-party number is ignored and the
// digits instead arrive across a sequence of INFO_IND messages (spec
// §4.2, §4.3). Completion publishes call_waiting exactly once.
type ddiAccumulator struct {
	baseLength int
	length     int
	stop       []string

	digits    strings.Builder
	published bool
}

func newDDIAccumulator(baseLength, length int, stopNumbers []string) *ddiAccumulator {
	return &ddiAccumulator{
		baseLength: baseLength,
		length:     length,
		stop:       stopNumbers,
	}
}

// enabled reports whether DDI mode applies at all, per spec §4.2:
// "when the controller is configured with ddi_length > 0".
func (a *ddiAccumulator) enabled() bool {
	return a.length > 0
}

// append records one INFO_IND's called-party-number digits and reports
// whether the accumulation has just completed (false on every call after
// the first completion, per the "exactly once" requirement of spec §8).
func (a *ddiAccumulator) append(digits string) (complete bool) {
	if a.published {
		return false
	}
	a.digits.WriteString(digits)
	d := a.digits.String()

	if len(d) == a.length {
		a.published = true
		return true
	}
	for _, stop := range a.stop {
		if strings.HasSuffix(d, stop) {
			a.published = true
			return true
		}
	}
	return false
}

// callee returns the reconstructed number: the configured base prefix
// followed by the accumulated digits.
func (a *ddiAccumulator) callee(basePrefix string) string {
	return basePrefix + a.digits.String()
}
