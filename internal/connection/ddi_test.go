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

func TestDDIAccumulatorCompletesOnLength(t *testing.T) {
	a := newDDIAccumulator(7, 3, []string{"11"})
	assert.True(t, a.enabled())

	assert.False(t, a.append("1"))
	assert.False(t, a.append("2"))
	assert.True(t, a.append("3"))
	assert.Equal(t, "123", a.callee(""))
}

func TestDDIAccumulatorCompletesOnStopNumber(t *testing.T) {
	a := newDDIAccumulator(7, 3, []string{"11"})
	assert.True(t, a.append("11"))
	assert.Equal(t, "11", a.callee(""))
}

func TestDDIAccumulatorPublishesExactlyOnce(t *testing.T) {
	a := newDDIAccumulator(7, 3, nil)
	assert.True(t, a.append("123"))
	assert.False(t, a.append("4"))
}

func TestDDIDisabledWhenLengthZero(t *testing.T) {
	a := newDDIAccumulator(0, 0, nil)
	assert.False(t, a.enabled())
}
