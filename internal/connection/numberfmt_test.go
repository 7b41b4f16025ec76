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

import (
	"testing"

	"github.com/larsimmisch/capisuite/internal/capi"
	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "-", FormatNumber(capi.PlanInternational, nil))
	assert.Equal(t, "+4930123456", FormatNumber(capi.PlanInternational, []byte("4930123456")))
	assert.Equal(t, "0111", FormatNumber(capi.PlanNational, []byte("111")))
	assert.Equal(t, "123", FormatNumber(capi.PlanUnknown, []byte("123")))
}

func TestParseCalledCallingNumberRoundTrip(t *testing.T) {
	raw := capi.EncodePartyNumber(capi.PlanNational, []byte("111"), false)
	s, err := ParseCalledNumber(raw)
	assert.NoError(t, err)
	assert.Equal(t, "0111", s)

	raw = capi.EncodePartyNumber(capi.PlanInternational, []byte("4930123456"), true)
	s, err = ParseCallingNumber(raw)
	assert.NoError(t, err)
	assert.Equal(t, "+4930123456", s)
}

func TestParseCalledNumberEmpty(t *testing.T) {
	s, err := ParseCalledNumber(nil)
	assert.NoError(t, err)
	assert.Equal(t, "-", s)
}
