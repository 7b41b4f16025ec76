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
	"io"
	"time"

	"github.com/larsimmisch/capisuite/internal/capi"
	"github.com/larsimmisch/capisuite/internal/connection"
)

// dialer is the subset of *controller.Controller the Outgoing module
// needs; declared here rather than imported so this package does not
// depend on internal/controller (spec §9's scripting-boundary layering
// applies equally to the call-module boundary: modules depend down on
// connections, never sideways on the controller singleton).
type dialer interface {
	Dial(controllerID uint16, service, calledNumber, callingNumber string, bprotocol *capi.BProtocolConfig) (*connection.Connection, error)
}

// Accept answers an incoming call and waits for the B channel to come up
// (spec §4.4: "calls connection.accept(...), awaits observer
// connected"). Per the module-wide rule, a connection already terminal
// before Accept begins is an immediate failure.
func Accept(ctx context.Context, conn *connection.Connection, bprotocol *capi.BProtocolConfig) error {
	if conn.PLCIState() == connection.PLCITerminal {
		return &connection.ConnectionGoneError{Op: "accept", State: conn.PLCIState().String()}
	}

	e := newEvents()
	conn.SetObserver(e)

	if err := conn.Accept(bprotocol); err != nil {
		return err
	}

	e.waitFor(ctx, time.Time{}, map[waitResult]func() bool{
		waitConnected: func() bool { return e.connectedN > 0 },
		waitCancelled: func() bool { return ctx.Err() != nil },
	})
	return nil
}

// RejectOrDisconnect tears a call down, choosing reject(cause) if the
// call has not yet been answered or disconnect(mode) once it has, and
// tolerates a connection that is already gone (spec §4.4).
func RejectOrDisconnect(ctx context.Context, conn *connection.Connection, rejectCause uint16, mode connection.DisconnectMode) {
	e := newEvents()
	conn.SetObserver(e)

	switch conn.PLCIState() {
	case connection.PLCITerminal:
		return
	case connection.PLCIIncoming:
		_ = conn.Reject(rejectCause)
	default:
		_ = conn.Disconnect(mode)
	}

	e.waitFor(ctx, time.Time{}, map[waitResult]func() bool{
		waitDisconnectedPhysical: func() bool { return e.disconnPhysicalN > 0 },
		waitCancelled:            func() bool { return ctx.Err() != nil },
	})
}

// SwitchToFax tears down the logical (B3) channel, renegotiates the B
// protocol to fax-G3, and waits for the channel to come back up (spec
// §4.4).
func SwitchToFax(ctx context.Context, conn *connection.Connection, bprotocol *capi.BProtocolConfig) error {
	e := newEvents()
	conn.SetObserver(e)

	if err := conn.Disconnect(connection.DisconnectLogicalOnly); err != nil {
		return err
	}
	e.waitFor(ctx, time.Time{}, map[waitResult]func() bool{
		waitDisconnectedLogical: func() bool { return e.disconnLogicalN > 0 },
		waitCancelled:           func() bool { return ctx.Err() != nil },
	})

	if err := conn.ChangeProtocol(bprotocol); err != nil {
		return err
	}
	e.waitFor(ctx, time.Time{}, map[waitResult]func() bool{
		waitConnected: func() bool { return e.connectedN > 0 },
		waitCancelled: func() bool { return ctx.Err() != nil },
	})
	return nil
}

// AudioSendResult reports how Audio-send/Fax-send ended.
type AudioSendResult struct {
	ElapsedSeconds float64
	AbortedByDTMF  bool
}

// AudioSend streams src as the B-channel send source, stopping on
// completion, on incoming DTMF (if abortOnDTMF), or on disconnect (spec
// §4.4). If DTMF is already pending when called and abortOnDTMF is set,
// it returns immediately without ever starting the transfer.
func AudioSend(ctx context.Context, conn *connection.Connection, src io.ReadCloser, abortOnDTMF bool) (AudioSendResult, error) {
	e := newEvents()
	conn.SetObserver(e)

	if abortOnDTMF && conn.DTMFCount() > 0 {
		return AudioSendResult{AbortedByDTMF: true}, nil
	}

	start := time.Now()
	_, err := conn.StartSendFile(src)
	if err != nil {
		return AudioSendResult{}, err
	}

	want := map[waitResult]func() bool{
		waitTransmissionComplete: func() bool { return e.transmissionN > 0 },
		waitDisconnectedPhysical: func() bool { return e.disconnPhysicalN > 0 },
		waitDisconnectedLogical:  func() bool { return e.disconnLogicalN > 0 },
		waitCancelled:            func() bool { return ctx.Err() != nil },
	}
	if abortOnDTMF {
		want[waitDTMF] = func() bool { return e.dtmfCount() > 0 }
	}
	result := e.waitFor(ctx, time.Time{}, want)
	conn.StopSendFile()

	return AudioSendResult{
		ElapsedSeconds: time.Since(start).Seconds(),
		AbortedByDTMF:  result == waitDTMF,
	}, nil
}

// AudioReceiveResult reports how Audio-receive ended.
type AudioReceiveResult struct {
	RecordedBytes int
	AbortedByDTMF bool
}

// AudioReceive records the B channel to sink until silence exceeds
// silenceLimitSeconds, totalTimeout elapses, DTMF arrives (if
// abortOnDTMF), or the call disconnects, then reports as RecordedBytes
// the length StopReceiveFile returns (trailing silence beyond one second
// deducted; the sink itself is not cut) (spec §4.3, §4.4).
func AudioReceive(ctx context.Context, conn *connection.Connection, sink io.Writer, closeFn func() error, lenFn func() int, silenceLimitSeconds int, totalTimeout time.Duration, abortOnDTMF bool) (AudioReceiveResult, error) {
	e := newEvents()
	conn.SetObserver(e)

	if abortOnDTMF && conn.DTMFCount() > 0 {
		return AudioReceiveResult{AbortedByDTMF: true}, nil
	}

	if err := conn.StartReceiveFile(sink, closeFn, lenFn, silenceLimitSeconds); err != nil {
		return AudioReceiveResult{}, err
	}

	var deadline time.Time
	if totalTimeout > 0 {
		deadline = time.Now().Add(totalTimeout)
	}
	want := map[waitResult]func() bool{
		waitDisconnectedPhysical: func() bool { return e.disconnPhysicalN > 0 },
		waitDisconnectedLogical:  func() bool { return e.disconnLogicalN > 0 },
		waitCancelled:            func() bool { return ctx.Err() != nil },
	}
	if abortOnDTMF {
		want[waitDTMF] = func() bool { return e.dtmfCount() > 0 }
	}
	// Silence-exceeded termination is driven by the reader task calling
	// StopReceiveFile once OnDataB3Ind reports silenceExceeded; the
	// module only needs to notice the sink has been detached, which the
	// physical/logical disconnect waits above already cover for the
	// common case of silence ending the call. A dedicated poll on
	// receive-still-installed covers silence timeout without a hangup.
	want[waitTimeout] = func() bool { return !conn.ReceivingActive() }

	result := e.waitFor(ctx, deadline, want)
	n, err := conn.StopReceiveFile()
	return AudioReceiveResult{RecordedBytes: n, AbortedByDTMF: result == waitDTMF}, err
}

// FaxSend streams src as a fax-G3 B3 payload and waits for the
// transmission to complete (spec §4.4).
func FaxSend(ctx context.Context, conn *connection.Connection, src io.ReadCloser) error {
	e := newEvents()
	conn.SetObserver(e)

	if _, err := conn.StartSendFile(src); err != nil {
		return err
	}
	e.waitFor(ctx, time.Time{}, map[waitResult]func() bool{
		waitTransmissionComplete: func() bool { return e.transmissionN > 0 },
		waitCancelled:            func() bool { return ctx.Err() != nil },
	})
	conn.StopSendFile()
	return nil
}

// FaxReceive records a fax-G3 B3 payload to sink until the logical
// channel drops (spec §4.4).
func FaxReceive(ctx context.Context, conn *connection.Connection, sink io.Writer, closeFn func() error, lenFn func() int) (int, error) {
	e := newEvents()
	conn.SetObserver(e)

	if err := conn.StartReceiveFile(sink, closeFn, lenFn, 0); err != nil {
		return 0, err
	}
	e.waitFor(ctx, time.Time{}, map[waitResult]func() bool{
		waitDisconnectedLogical: func() bool { return e.disconnLogicalN > 0 },
		waitCancelled:           func() bool { return ctx.Err() != nil },
	})
	return conn.StopReceiveFile()
}

// OutgoingOutcome is the resolution of an Outgoing call attempt.
type OutgoingOutcome int

const (
	OutgoingSuccess OutgoingOutcome = iota
	OutgoingTimeoutExceeded
	OutgoingFailedWithCause
	OutgoingFailedNoCause
)

// Outgoing places a call and resolves once it is answered, rejected, or
// times out. It waits without a deadline until the far end alerts (spec
// §4.4: "wait without timeout until observer alerting fires"), then arms
// alertTimeout for the remainder of the attempt.
func Outgoing(ctx context.Context, d dialer, controllerID uint16, service, calledNumber, callingNumber string, bprotocol *capi.BProtocolConfig, alertTimeout time.Duration) (*connection.Connection, OutgoingOutcome, error) {
	conn, err := d.Dial(controllerID, service, calledNumber, callingNumber, bprotocol)
	if err != nil {
		return nil, OutgoingFailedNoCause, err
	}

	e := newEvents()
	conn.SetObserver(e)

	alerted := e.waitFor(ctx, time.Time{}, map[waitResult]func() bool{
		waitAlerting:             func() bool { return e.alertingN > 0 },
		waitConnected:            func() bool { return e.connectedN > 0 },
		waitDisconnectedPhysical: func() bool { return e.disconnPhysicalN > 0 },
		waitCancelled:            func() bool { return ctx.Err() != nil },
	})

	switch alerted {
	case waitDisconnectedPhysical:
		if conn.LastCauseLayer3() != 0 {
			return conn, OutgoingFailedWithCause, nil
		}
		return conn, OutgoingFailedNoCause, nil
	case waitConnected:
		return conn, OutgoingSuccess, nil
	case waitCancelled:
		return conn, OutgoingFailedNoCause, ctx.Err()
	}

	var deadline time.Time
	if alertTimeout > 0 {
		deadline = time.Now().Add(alertTimeout)
	}
	result := e.waitFor(ctx, deadline, map[waitResult]func() bool{
		waitConnected:            func() bool { return e.connectedN > 0 },
		waitDisconnectedPhysical: func() bool { return e.disconnPhysicalN > 0 },
		waitCancelled:            func() bool { return ctx.Err() != nil },
	})

	switch result {
	case waitConnected:
		return conn, OutgoingSuccess, nil
	case waitDisconnectedPhysical:
		if conn.LastCauseLayer3() != 0 {
			return conn, OutgoingFailedWithCause, nil
		}
		return conn, OutgoingFailedNoCause, nil
	case waitTimeout:
		return conn, OutgoingTimeoutExceeded, nil
	default:
		return conn, OutgoingFailedNoCause, ctx.Err()
	}
}

// ReadDTMFResult is the digit string Read-DTMF accumulated and why it
// stopped collecting.
type ReadDTMFResult struct {
	Digits       string
	ReachedMax   bool
	Disconnected bool
}

// ReadDTMF waits for DTMF digits to accumulate, re-arming a per-digit
// idle timeout on every received digit, stopping at maxDigits or once
// minDigits has been reached and the idle timeout has elapsed (spec
// §4.4). It measures only digits received after it starts: the digit
// count on entry is captured so digits already queued before this call
// do not themselves satisfy minDigits/maxDigits.
func ReadDTMF(ctx context.Context, conn *connection.Connection, minDigits, maxDigits int, idleTimeout time.Duration) ReadDTMFResult {
	startCount := conn.DTMFCount()
	e := newEvents()
	conn.SetObserver(e)

	received := func() int { return conn.DTMFCount() - startCount }

	var deadline time.Time
	if idleTimeout > 0 {
		deadline = time.Now().Add(idleTimeout)
	}
	lastSeen := 0

	for {
		result := e.waitFor(ctx, deadline, map[waitResult]func() bool{
			waitDTMF:                 func() bool { return received() > lastSeen },
			waitDisconnectedPhysical: func() bool { return e.disconnPhysicalN > 0 },
			waitDisconnectedLogical:  func() bool { return e.disconnLogicalN > 0 },
			waitCancelled:            func() bool { return ctx.Err() != nil },
		})

		switch result {
		case waitDTMF:
			lastSeen = received()
			if lastSeen >= maxDigits {
				return ReadDTMFResult{Digits: conn.ReadDTMF(), ReachedMax: true}
			}
			if idleTimeout > 0 {
				deadline = time.Now().Add(idleTimeout)
			}
		case waitDisconnectedPhysical, waitDisconnectedLogical:
			return ReadDTMFResult{Digits: conn.ReadDTMF(), Disconnected: true}
		case waitTimeout:
			if lastSeen >= minDigits {
				return ReadDTMFResult{Digits: conn.ReadDTMF()}
			}
			// Idle timeout fired before min_digits: keep waiting with no
			// deadline for at least one more digit, per spec §4.4 ("both
			// min_digits reached AND idle timeout elapsed").
			deadline = time.Time{}
		case waitCancelled:
			return ReadDTMFResult{Digits: conn.ReadDTMF()}
		}
	}
}
