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

import "github.com/larsimmisch/capisuite/internal/capi"

// FormatNumber renders a decoded party number per spec §4.3: an
// international number (plan byte high nibble 0x1) is prefixed with "+",
// a national number (0x2) is prefixed with "0", and an empty digit
// string is rendered as "-" regardless of plan.
func FormatNumber(planByte byte, digits []byte) string {
	if len(digits) == 0 {
		return "-"
	}
	switch planByte >> 4 {
	case 0x1:
		return "+" + string(digits)
	case 0x2:
		return "0" + string(digits)
	default:
		return string(digits)
	}
}

// ParseCalledNumber decodes a CAPI called-party-number structure and
// formats it in one step.
func ParseCalledNumber(raw []byte) (string, error) {
	plan, digits, err := capi.DecodePartyNumber(raw, false)
	if err != nil {
		return "", err
	}
	return FormatNumber(plan, digits), nil
}

// ParseCallingNumber decodes a CAPI calling-party-number structure and
// formats it in one step.
func ParseCallingNumber(raw []byte) (string, error) {
	plan, digits, err := capi.DecodePartyNumber(raw, true)
	if err != nil {
		return "", err
	}
	return FormatNumber(plan, digits), nil
}
