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

// Driver is the adapter around the CAPI 2.0 primitives (spec §4.1). A
// real implementation talks to capi20 via cgo or a kernel device; tests
// and the controller code in this module talk to this interface so the
// driver can be faked.
type Driver interface {
	// IsInstalled reports whether a CAPI driver is present on this host.
	IsInstalled() bool

	// Register registers the application and returns its ApplID.
	Register(maxConns, maxBlocks, maxBlockLen uint32) (applID uint16, err error)

	// Release unregisters the application.
	Release(applID uint16) error

	// WaitForMessage blocks until a message is available for applID or
	// the application is released, per spec §4.1.
	WaitForMessage(ctx context.Context, applID uint16) error

	// GetMessage retrieves one pending message. It returns ErrQueueEmpty
	// if nothing is available right now rather than an error.
	GetMessage(applID uint16) (*Message, error)

	// PutMessage sends a message (a _REQ or _RESP) to the driver.
	PutMessage(applID uint16, msg *Message) error

	// GetProfile reads the controller profile. controller 0 means "the
	// general application-wide profile" (number of controllers, etc.);
	// controller > 0 means a specific controller's capability vector.
	GetProfile(applID uint16, controller uint16) (Profile, error)
}

// ControllerCount extracts the number of installed controllers from the
// general (controller 0) profile response, per CAPI 2.0 conventions.
func ControllerCount(raw []byte) uint16 {
	if len(raw) < 2 {
		return 0
	}
	return uint16(raw[0]) | uint16(raw[1])<<8
}
