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

package callmodule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsimmisch/capisuite/internal/capi"
	"github.com/larsimmisch/capisuite/internal/connection"
)

func init() {
	pollInterval = 2 * time.Millisecond
}

type fakeSender struct {
	mu  sync.Mutex
	num uint16
}

func (f *fakeSender) Send(msg *capi.Message) error { return nil }

func (f *fakeSender) NextMsgNum() uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.num++
	return f.num
}

func newIncomingConnection() *connection.Connection {
	c := connection.New(1, "voice", false, &fakeSender{})
	return c
}

func TestAcceptWaitsForConnected(t *testing.T) {
	conn := newIncomingConnection()
	setPLCIIncoming(conn)

	done := make(chan error, 1)
	go func() { done <- Accept(context.Background(), conn, nil) }()

	time.Sleep(10 * time.Millisecond)
	conn.OnConnectActiveInd()
	conn.OnConnectB3Ind(conn.PLCI)
	conn.OnConnectB3RespSent()
	conn.OnConnectB3ActiveInd()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Accept did not return after Connected fired")
	}
}

func TestAcceptFailsImmediatelyWhenAlreadyTerminal(t *testing.T) {
	conn := newIncomingConnection()
	conn.OnDisconnectInd(capi.CauseISDNBase)

	err := Accept(context.Background(), conn, nil)
	var gone *connection.ConnectionGoneError
	assert.ErrorAs(t, err, &gone)
}

func TestRejectOrDisconnectRejectsWhenIncoming(t *testing.T) {
	conn := newIncomingConnection()
	setPLCIIncoming(conn)

	done := make(chan struct{})
	go func() {
		RejectOrDisconnect(context.Background(), conn, capi.CauseTemporaryFailure, connection.DisconnectAll)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, connection.PLCIDisconnecting, conn.PLCIState())
	conn.OnDisconnectInd(capi.CauseISDNBase)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RejectOrDisconnect did not return after DisconnectedPhysical fired")
	}
}

func TestRejectOrDisconnectToleratesAlreadyGone(t *testing.T) {
	conn := newIncomingConnection()
	conn.OnDisconnectInd(capi.CauseISDNBase)

	done := make(chan struct{})
	go func() {
		RejectOrDisconnect(context.Background(), conn, capi.CauseTemporaryFailure, connection.DisconnectAll)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RejectOrDisconnect blocked on an already-terminal connection")
	}
}

type fakeDialer struct {
	conn *connection.Connection
}

func (d *fakeDialer) Dial(controllerID uint16, service, calledNumber, callingNumber string, bprotocol *capi.BProtocolConfig) (*connection.Connection, error) {
	return d.conn, nil
}

func TestOutgoingSucceedsAfterAlertingThenConnected(t *testing.T) {
	conn := connection.New(1, "voice", true, &fakeSender{})
	conn.MarkOutRequested()
	d := &fakeDialer{conn: conn}

	type out struct {
		outcome OutgoingOutcome
		err     error
	}
	done := make(chan out, 1)
	go func() {
		_, outcome, err := Outgoing(context.Background(), d, 1, "voice", "555", "123", nil, 500*time.Millisecond)
		done <- out{outcome, err}
	}()

	time.Sleep(10 * time.Millisecond)
	conn.OnConnectConfOK()
	conn.OnAlertingInfo()
	time.Sleep(10 * time.Millisecond)
	conn.OnConnectActiveInd()
	conn.OnConnectB3ConfOK(conn.PLCI)
	conn.OnConnectB3ActiveInd()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, OutgoingSuccess, r.outcome)
	case <-time.After(time.Second):
		t.Fatal("Outgoing did not resolve")
	}
}

func TestOutgoingTimesOutAfterAlerting(t *testing.T) {
	conn := connection.New(1, "voice", true, &fakeSender{})
	conn.MarkOutRequested()
	d := &fakeDialer{conn: conn}

	done := make(chan OutgoingOutcome, 1)
	go func() {
		_, outcome, _ := Outgoing(context.Background(), d, 1, "voice", "555", "123", nil, 20*time.Millisecond)
		done <- outcome
	}()

	time.Sleep(5 * time.Millisecond)
	conn.OnConnectConfOK()
	conn.OnAlertingInfo()

	select {
	case outcome := <-done:
		assert.Equal(t, OutgoingTimeoutExceeded, outcome)
	case <-time.After(time.Second):
		t.Fatal("Outgoing did not time out")
	}
}

func TestReadDTMFStopsAtMaxDigits(t *testing.T) {
	conn := newIncomingConnection()

	done := make(chan ReadDTMFResult, 1)
	go func() {
		done <- ReadDTMF(context.Background(), conn, 1, 3, time.Second)
	}()

	time.Sleep(5 * time.Millisecond)
	conn.OnFacilityDTMFInd(append([]byte{1}, []byte("1")...))
	conn.OnFacilityDTMFInd(append([]byte{1}, []byte("2")...))
	conn.OnFacilityDTMFInd(append([]byte{1}, []byte("3")...))

	select {
	case r := <-done:
		assert.True(t, r.ReachedMax)
		assert.Equal(t, "123", r.Digits)
	case <-time.After(time.Second):
		t.Fatal("ReadDTMF did not stop at max digits")
	}
}

func TestReadDTMFStopsOnIdleAfterMinDigits(t *testing.T) {
	conn := newIncomingConnection()

	done := make(chan ReadDTMFResult, 1)
	go func() {
		done <- ReadDTMF(context.Background(), conn, 1, 5, 15*time.Millisecond)
	}()

	time.Sleep(5 * time.Millisecond)
	conn.OnFacilityDTMFInd(append([]byte{1}, []byte("7")...))

	select {
	case r := <-done:
		assert.False(t, r.ReachedMax)
		assert.Equal(t, "7", r.Digits)
	case <-time.After(time.Second):
		t.Fatal("ReadDTMF did not stop on idle timeout")
	}
}

func setPLCIIncoming(conn *connection.Connection) {
	conn.SetIdentity(conn.PLCI, conn.NCCI, 7)
	conn.MarkIncoming()
}
