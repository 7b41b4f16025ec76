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

// Package capitest provides an in-memory capi.Driver fake for tests of
// the controller and connection engine, standing in for a real CAPI 2.0
// stack the way an httptest.Server stands in for a real HTTP backend.
package capitest

import (
	"context"
	"sync"

	"github.com/larsimmisch/capisuite/internal/capi"
)

// FakeDriver is a capi.Driver that delivers queued messages and records
// everything PutMessage sends, so tests can assert on the outbound
// message sequence and inject inbound messages synchronously.
type FakeDriver struct {
	mu       sync.Mutex
	cond     *sync.Cond
	inbound  []*capi.Message
	outbound []*capi.Message
	released bool
	profiles map[uint16]capi.Profile
}

// NewFakeDriver returns a ready-to-use fake driver.
func NewFakeDriver() *FakeDriver {
	d := &FakeDriver{profiles: make(map[uint16]capi.Profile)}
	d.cond = sync.NewCond(&d.mu)
	return d
}

func (d *FakeDriver) IsInstalled() bool { return true }

func (d *FakeDriver) Register(maxConns, maxBlocks, maxBlockLen uint32) (uint16, error) {
	return 1, nil
}

func (d *FakeDriver) Release(applID uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
	d.cond.Broadcast()
	return nil
}

// WaitForMessage blocks until Inject has queued a message, the context is
// cancelled, or Release has been called.
func (d *FakeDriver) WaitForMessage(ctx context.Context, applID uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.inbound) == 0 && !d.released && ctx.Err() == nil {
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				d.mu.Lock()
				d.cond.Broadcast()
				d.mu.Unlock()
			case <-done:
			}
		}()
		d.cond.Wait()
		close(done)
	}
	return ctx.Err()
}

func (d *FakeDriver) GetMessage(applID uint16) (*capi.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.inbound) == 0 {
		return nil, capi.ErrQueueEmpty
	}
	msg := d.inbound[0]
	d.inbound = d.inbound[1:]
	return msg, nil
}

func (d *FakeDriver) PutMessage(applID uint16, msg *capi.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outbound = append(d.outbound, msg)
	return nil
}

func (d *FakeDriver) GetProfile(applID uint16, controller uint16) (capi.Profile, error) {
	if p, ok := d.profiles[controller]; ok {
		return p, nil
	}
	return capi.Profile{
		Transparent:   true,
		FaxG3:         true,
		FaxG3Extended: true,
		DTMF:          true,
		BChannelCount: 2,
	}, nil
}

// SetProfile overrides the profile reported for a given controller (0 for
// the general, all-controllers profile).
func (d *FakeDriver) SetProfile(controller uint16, p capi.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[controller] = p
}

// Inject queues an inbound message as if the driver had received it from
// the network, waking any blocked WaitForMessage call.
func (d *FakeDriver) Inject(msg *capi.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inbound = append(d.inbound, msg)
	d.cond.Broadcast()
}

// Outbound returns a snapshot of every message sent via PutMessage so
// far, in order.
func (d *FakeDriver) Outbound() []*capi.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*capi.Message, len(d.outbound))
	copy(out, d.outbound)
	return out
}

// LastOutbound returns the most recently sent message, or nil.
func (d *FakeDriver) LastOutbound() *capi.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.outbound) == 0 {
		return nil
	}
	return d.outbound[len(d.outbound)-1]
}
