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

package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStaticWorkerPool_Success(t *testing.T) {
	tests := []struct {
		name    string
		workers uint32
	}{
		{"one_worker", 1},
		{"many_workers", 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pool, err := NewStaticWorkerPool(tc.workers)

			assert.NoError(t, err)
			assert.NotNil(t, pool)
			pool.Stop()
		})
	}
}

func TestNewStaticWorkerPool_Failure(t *testing.T) {
	pool, err := NewStaticWorkerPool(0)

	assert.Error(t, err)
	assert.Nil(t, pool)
	pool.Stop() // Safe even on a nil pool.
}

func TestSubmitRunsOnWorker(t *testing.T) {
	pool, err := NewStaticWorkerPool(2)
	assert.NoError(t, err)
	defer pool.Stop()

	var n int32
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		pool.Submit(func() {
			atomic.AddInt32(&n, 1)
			wg.Done()
		})
	}
	wg.Wait()
	assert.EqualValues(t, 5, atomic.LoadInt32(&n))
}

func TestTrySubmitReportsBackpressure(t *testing.T) {
	pool, err := NewStaticWorkerPool(1)
	assert.NoError(t, err)
	defer pool.Stop()

	block := make(chan struct{})
	assert.True(t, pool.TrySubmit(func() { <-block }))

	// The single worker is now blocked; a second TrySubmit must not wait.
	deadline := time.After(time.Second)
	ok := false
	select {
	case <-deadline:
	default:
		ok = pool.TrySubmit(func() {})
	}
	assert.False(t, ok)
	close(block)
}
