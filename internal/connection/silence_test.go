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

	"github.com/stretchr/testify/assert"
)

// quietestByte finds the raw A-law byte with the lowest decoded
// magnitude, so tests can exercise silence detection without hardcoding
// a specific wire value.
func quietestByte() byte {
	var best byte
	for b := 1; b < 256; b++ {
		if alawMagnitude[b] < alawMagnitude[best] {
			best = byte(b)
		}
	}
	return best
}

func TestSilenceDetectorExceedsAfterLimit(t *testing.T) {
	d := newSilenceDetector(1) // limitBytes = 8000
	quiet := quietestByte()
	silence := make([]byte, 4000)
	for i := range silence {
		silence[i] = quiet
	}

	assert.False(t, d.observe(silence))
	assert.False(t, d.observe(silence))
	assert.True(t, d.observe(silence))
}

func TestSilenceDetectorResetsOnLoudPayload(t *testing.T) {
	d := newSilenceDetector(1)
	quiet := quietestByte()
	silence := make([]byte, 7000)
	for i := range silence {
		silence[i] = quiet
	}
	loud := make([]byte, 10)
	for i := range loud {
		loud[i] = 0xFF
	}

	assert.False(t, d.observe(silence))
	assert.False(t, d.observe(loud))
	assert.Equal(t, 0, d.silentBytes)
}

func TestTruncateLength(t *testing.T) {
	assert.Equal(t, 10000, truncateLength(10000, 5000))
	assert.Equal(t, 9000, truncateLength(10000, 9000))
	assert.Equal(t, 0, truncateLength(500, 10000))
}
