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

package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsimmisch/capisuite/internal/capi"
	"github.com/larsimmisch/capisuite/internal/capi/capitest"
	"github.com/larsimmisch/capisuite/internal/observer"
)

type waitingRecorder struct {
	mu    sync.Mutex
	calls []observer.Connection
}

func (r *waitingRecorder) handle(conn observer.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, conn)
}

func (r *waitingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *waitingRecorder) last() observer.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func newRegisteredController(t *testing.T, ddi DDIConfig) (*Controller, *capitest.FakeDriver, *waitingRecorder) {
	t.Helper()
	driver := capitest.NewFakeDriver()
	rec := &waitingRecorder{}
	c := New(driver, ddi, rec.handle)
	require.NoError(t, c.Register(4, 4, 2048))
	return c, driver, rec
}

func runDispatchLoop(t *testing.T, c *Controller, driver *capitest.FakeDriver) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		_ = driver.Release(0)
		<-done
	}
}

func TestRegisterReadsControllerCount(t *testing.T) {
	c, _, _ := newRegisteredController(t, DDIConfig{})
	assert.Equal(t, uint16(0), c.ControllerCount())
}

func TestRegisterTwiceFails(t *testing.T) {
	c, _, _ := newRegisteredController(t, DDIConfig{})
	assert.ErrorIs(t, c.Register(4, 4, 2048), errAlreadyRegistered)
}

func TestListenVoiceRefusedWithoutProfileSupport(t *testing.T) {
	driver := capitest.NewFakeDriver()
	driver.SetProfile(1, capi.Profile{Transparent: false})
	c := New(driver, DDIConfig{}, nil)
	require.NoError(t, c.Register(4, 4, 2048))

	err := c.ListenVoice(1)
	assert.Error(t, err)
	assert.Nil(t, driver.LastOutbound())
}

func TestListenVoiceSendsListenReq(t *testing.T) {
	c, driver, _ := newRegisteredController(t, DDIConfig{})
	require.NoError(t, c.ListenVoice(1))

	msg := driver.LastOutbound()
	require.NotNil(t, msg)
	assert.Equal(t, capi.CmdListen, msg.Command)
	assert.Equal(t, capi.SubReq, msg.SubCommand)
	assert.Equal(t, capi.CIPMaskVoice, msg.ListenCIPMask)
}

func TestListenSetsDDIInfoMaskWhenConfigured(t *testing.T) {
	c, driver, _ := newRegisteredController(t, DDIConfig{Length: 3, BaseLength: 7, StopNumbers: []string{"11"}})
	require.NoError(t, c.ListenVoice(1))

	msg := driver.LastOutbound()
	require.NotNil(t, msg)
	assert.Equal(t, capi.InfoMaskDDI, msg.ListenInfoMask&capi.InfoMaskDDI)
}

func TestConnectIndWithoutDDIPublishesImmediately(t *testing.T) {
	c, driver, rec := newRegisteredController(t, DDIConfig{})
	stop := runDispatchLoop(t, c, driver)
	defer stop()

	driver.Inject(&capi.Message{
		Command:       capi.CmdConnect,
		SubCommand:    capi.SubInd,
		Ctrl:          0x101,
		CIP:           capi.CIPMaskVoice,
		CalledNumber:  capi.EncodePartyNumber(capi.PlanUnknown, []byte("555"), false),
		CallingNumber: capi.EncodePartyNumber(capi.PlanUnknown, []byte("123"), true),
	})

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "555", rec.last().CalledNumber())
	assert.Equal(t, "123", rec.last().CallingNumber())
}

func TestConnectIndWithDDIDelaysUntilDigitsAccumulate(t *testing.T) {
	c, driver, rec := newRegisteredController(t, DDIConfig{Length: 3, BaseLength: 7, StopNumbers: []string{"11"}})
	stop := runDispatchLoop(t, c, driver)
	defer stop()

	driver.Inject(&capi.Message{
		Command:      capi.CmdConnect,
		SubCommand:   capi.SubInd,
		Ctrl:         0x201,
		CIP:          capi.CIPMaskVoice,
		CalledNumber: capi.EncodePartyNumber(capi.PlanUnknown, []byte("999999"), false),
	})

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, ok := c.conns[plciKey(0x201)]
		return ok
	}, time.Second, time.Millisecond)
	assert.Equal(t, 0, rec.count())

	for _, d := range []string{"1", "2"} {
		driver.Inject(&capi.Message{
			Command:      capi.CmdInfo,
			SubCommand:   capi.SubInd,
			Ctrl:         0x201,
			Info:         capi.InfoCalledPartyNumber,
			CalledNumber: capi.EncodePartyNumber(capi.PlanUnknown, []byte(d), false),
		})
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, rec.count())

	driver.Inject(&capi.Message{
		Command:      capi.CmdInfo,
		SubCommand:   capi.SubInd,
		Ctrl:         0x201,
		Info:         capi.InfoCalledPartyNumber,
		CalledNumber: capi.EncodePartyNumber(capi.PlanUnknown, []byte("3"), false),
	})

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "123", rec.last().CalledNumber())
}

func TestConnectConfRekeysToRealPLCI(t *testing.T) {
	c, driver, _ := newRegisteredController(t, DDIConfig{})
	stop := runDispatchLoop(t, c, driver)
	defer stop()

	conn, err := c.Dial(1, "voice", "555", "123", nil)
	require.NoError(t, err)

	var req *capi.Message
	require.Eventually(t, func() bool {
		req = driver.LastOutbound()
		return req != nil && req.Command == capi.CmdConnect
	}, time.Second, time.Millisecond)

	driver.Inject(&capi.Message{
		Command:    capi.CmdConnect,
		SubCommand: capi.SubConf,
		Ctrl:       0x301,
		MsgNum:     req.MsgNum,
		Info:       0,
	})

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, ok := c.conns[plciKey(0x301)]
		return ok
	}, time.Second, time.Millisecond)

	c.mu.Lock()
	_, stillPending := c.conns[pendingKey(req.MsgNum)]
	c.mu.Unlock()
	assert.False(t, stillPending)
	assert.Equal(t, uint32(0x301), conn.PLCI)
}

func TestRunStopsOnFailedListenConf(t *testing.T) {
	c, driver, _ := newRegisteredController(t, DDIConfig{})

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	driver.Inject(&capi.Message{
		Command:    capi.CmdListen,
		SubCommand: capi.SubConf,
		Ctrl:       0x01,
		Info:       0x1008,
	})

	select {
	case err := <-done:
		var drvErr *capi.DriverError
		assert.ErrorAs(t, err, &drvErr)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after a failed LISTEN_CONF")
	}

	// No further message handling: the reader loop has already returned.
	driver.Inject(&capi.Message{
		Command:      capi.CmdConnect,
		SubCommand:   capi.SubInd,
		Ctrl:         0x101,
		CIP:          capi.CIPMaskVoice,
		CalledNumber: capi.EncodePartyNumber(capi.PlanUnknown, []byte("555"), false),
	})
	time.Sleep(20 * time.Millisecond)
}

func TestUnknownPLCIIsProtocolError(t *testing.T) {
	c, driver, _ := newRegisteredController(t, DDIConfig{})
	stop := runDispatchLoop(t, c, driver)
	defer stop()

	driver.Inject(&capi.Message{
		Command:    capi.CmdDisconnect,
		SubCommand: capi.SubInd,
		Ctrl:       0xdead,
		Info:       capi.CauseISDNBase,
	})

	time.Sleep(20 * time.Millisecond)
	// No crash, no outbound response sent for the unknown PLCI.
	for _, msg := range driver.Outbound() {
		assert.NotEqual(t, uint32(0xdead), msg.Ctrl)
	}
}
