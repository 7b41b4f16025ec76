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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsimmisch/capisuite/cfg"
	"github.com/larsimmisch/capisuite/internal/capi"
	"github.com/larsimmisch/capisuite/internal/capi/capitest"
	"github.com/larsimmisch/capisuite/internal/controller"
)

func TestApplyListenMaskWiresVoiceAndFax(t *testing.T) {
	driver := capitest.NewFakeDriver()
	ctrl := controller.New(driver, controller.DDIConfig{}, nil)
	require.NoError(t, ctrl.Register(4, 4, 2048))

	err := applyListenMask(ctrl, cfg.ControllerConfig{ID: 1, Services: []string{"voice", "fax_g3"}})
	require.NoError(t, err)

	var sawVoice, sawFax bool
	for _, msg := range driver.Outbound() {
		if msg.Command != capi.CmdListen {
			continue
		}
		switch msg.ListenCIPMask {
		case capi.CIPMaskVoice:
			sawVoice = true
		case capi.CIPMaskVoice | capi.CIPMaskFaxG3:
			sawFax = true
		}
	}
	assert.True(t, sawVoice)
	assert.True(t, sawFax)
}

func TestApplyListenMaskRejectsUnknownService(t *testing.T) {
	driver := capitest.NewFakeDriver()
	ctrl := controller.New(driver, controller.DDIConfig{}, nil)
	require.NoError(t, ctrl.Register(4, 4, 2048))

	err := applyListenMask(ctrl, cfg.ControllerConfig{ID: 1, Services: []string{"teletype"}})
	assert.Error(t, err)
}

func TestDecodeConfigSucceedsOnEmptyConfig(t *testing.T) {
	var c cfg.Config
	require.NoError(t, decodeConfig(&c))
	assert.Empty(t, c.DDIStopNumbers)
}
