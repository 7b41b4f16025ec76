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

// Package cfgerr carries the ConfigurationError kind from spec §7: fatal,
// startup-only failures distinct from the per-call error kinds in
// internal/capi and internal/connection.
package cfgerr

import "fmt"

// ConfigurationError wraps a fatal startup configuration failure: a
// non-numeric value where a number was required, or an unreadable
// configuration file.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for %q: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// New wraps err as a ConfigurationError attributed to key.
func New(key string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigurationError{Key: key, Err: err}
}
