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

package capi

import "context"

// NullDriver is a Driver that reports no CAPI stack installed. It exists
// so cmd/capisuited always has a concrete Driver to construct a
// Controller against, on any host, without a cgo dependency on a capi20
// binding. A production deployment wires a real Driver (talking to
// capi20 through cgo or a kernel device) in its place; tests use
// capitest.FakeDriver.
type NullDriver struct{}

func (NullDriver) IsInstalled() bool { return false }

func (NullDriver) Register(maxConns, maxBlocks, maxBlockLen uint32) (uint16, error) {
	return 0, NewDriverError("register", 0x1008)
}

func (NullDriver) Release(applID uint16) error { return nil }

func (NullDriver) WaitForMessage(ctx context.Context, applID uint16) error {
	<-ctx.Done()
	return ctx.Err()
}

func (NullDriver) GetMessage(applID uint16) (*Message, error) {
	return nil, ErrQueueEmpty
}

func (NullDriver) PutMessage(applID uint16, msg *Message) error {
	return NewDriverError("put_message", 0x1008)
}

func (NullDriver) GetProfile(applID uint16, controller uint16) (Profile, error) {
	return Profile{}, NewDriverError("get_profile", 0x1008)
}
