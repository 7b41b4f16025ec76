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

// Package workerpool bounds the number of concurrently running call-module
// and idle-timer tasks (spec §5: "parallel call tasks... each incoming call
// runs its user-defined handler on its own task"). Tasks still block freely
// on I/O and observer completions; the pool only bounds how many such tasks
// run at once, rather than fanning out unbounded goroutines per call.
package workerpool

import (
	"errors"
	"sync"
)

// Pool is a fixed-size pool of long-lived goroutines draining a shared task
// queue.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

// NewStaticWorkerPool starts a pool of the given worker count, each pulling
// closures off a shared, unbuffered task channel.
func NewStaticWorkerPool(workers uint32) (*Pool, error) {
	if workers == 0 {
		return nil, errors.New("workerpool: worker count must be greater than zero")
	}

	p := &Pool{tasks: make(chan func())}
	p.wg.Add(int(workers))
	for i := uint32(0); i < workers; i++ {
		go p.run()
	}
	return p, nil
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit enqueues a task, blocking until a worker is free to accept it.
// Submitting after Stop panics by closed-channel send, matching the normal
// Go idiom for "don't use a pool after tearing it down".
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// TrySubmit enqueues a task without blocking, reporting false if every
// worker is currently busy.
func (p *Pool) TrySubmit(task func()) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Stop closes the task queue and waits for every worker to drain it. Safe
// to call more than once.
func (p *Pool) Stop() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
