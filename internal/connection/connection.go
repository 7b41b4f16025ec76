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

// Package connection implements the PLCI/NCCI connection engine: the
// coupled state machines, send window, receive pipeline, DTMF and fax
// handling, and DDI accumulation for one logical ISDN call (spec §3,
// §4.3).
package connection

import (
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/larsimmisch/capisuite/internal/capi"
	"github.com/larsimmisch/capisuite/internal/logger"
	"github.com/larsimmisch/capisuite/internal/observer"
)

// DisconnectMode selects which half of a connection disconnect tears
// down, per spec §4.3's disconnect(mode) operation.
type DisconnectMode uint8

const (
	DisconnectAll DisconnectMode = iota
	DisconnectPhysicalOnly
	DisconnectLogicalOnly
)

// sender is the narrow slice of the driver a Connection needs to emit
// CAPI requests; internal/controller supplies the concrete
// implementation so this package never imports internal/controller
// (spec §9: connections never reach back into the controller's map).
type sender interface {
	Send(msg *capi.Message) error
	NextMsgNum() uint16
}

// Connection is one logical ISDN call: the coupled PLCI/NCCI state
// machines, the send window, the receive sink, the DTMF buffer, the fax
// metadata, and the DDI accumulator (spec §3).
type Connection struct {
	mu sync.Mutex

	// Generation is a per-allocation stamp (SPEC_FULL §3, §9), set once
	// by New. No code in this module compares it against a captured
	// value, so a stale reference is not detected through it.
	Generation uuid.UUID

	ControllerID uint16
	PLCI         uint32
	NCCI         uint32

	Service string // "voice" | "fax_g3" | "other"

	callingNumber string
	calledNumber  string

	plciState PLCIState
	ncciState NCCIState

	weInitiated bool

	// connectIndMsgNum is the CAPI message sequence number of the
	// original CONNECT_IND, needed to build the delayed CONNECT_RESP
	// (spec §3).
	connectIndMsgNum uint16

	causeLayer3 uint16
	causeB3     uint16

	// negotiatedB3 is the raw B1/B2/B3 protocol/config last sent on this
	// connection, kept so a second change_protocol call can detect a
	// no-op without re-deriving configuration from Service (SPEC_FULL
	// §3 supplement, grounded on original_source connection.h).
	negotiatedB3 *capi.BProtocolConfig

	dtmf dtmfBuffer
	fax  *FaxInfo

	send    sendWindow
	silence *silenceDetector

	receiveSink   io.Writer
	receiveClose  func() error
	receiveLenFn  func() int

	ddi *ddiAccumulator

	// suppressPhysicalDisconnect is set for the logical-only teardown
	// variant, so the next DISCONNECT_B3_IND does not chain into a
	// physical DISCONNECT_REQ; OnDisconnectB3Ind consumes it (spec §3, §9
	// Open Question — resolution recorded in DESIGN.md).
	suppressPhysicalDisconnect bool

	obs observer.Observer

	sender sender
}

// New constructs an idle Connection for an as-yet-unallocated call. The
// caller (the controller's reader task) fills in PLCI/NCCI once the
// driver assigns them.
func New(controllerID uint16, service string, weInitiated bool, snd sender) *Connection {
	return &Connection{
		Generation:   uuid.New(),
		ControllerID: controllerID,
		Service:      service,
		weInitiated:  weInitiated,
		plciState:    PLCIIdle,
		ncciState:    NCCIIdle,
		sender:       snd,
	}
}

// SetObserver installs the single observer reference for this
// connection, satisfying observer.Connection.
func (c *Connection) SetObserver(o observer.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs = o
}

func (c *Connection) observer() observer.Observer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.obs
}

// CallingNumber returns the caller's formatted number.
func (c *Connection) CallingNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callingNumber
}

// CalledNumber returns the callee's formatted number (the DDI-accumulated
// value, once complete, on point-to-point controllers).
func (c *Connection) CalledNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calledNumber
}

// PLCIState returns the current physical-link state.
func (c *Connection) PLCIState() PLCIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plciState
}

// NCCIState returns the current logical-channel state.
func (c *Connection) NCCIState() NCCIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ncciState
}

// setPLCIState transitions the PLCI state machine, logging the
// transition at DEBUG (SPEC_FULL §4.3 supplement: "the primary
// operator-facing diagnostic for why didn't my call proceed").
func (c *Connection) setPLCIState(next PLCIState, trigger string) {
	c.mu.Lock()
	prev := c.plciState
	c.plciState = next
	c.mu.Unlock()
	logger.Debugf("plci %d: %s -> %s on %s", c.PLCI, prev, next, trigger)
}

func (c *Connection) setNCCIState(next NCCIState, trigger string) {
	c.mu.Lock()
	prev := c.ncciState
	c.ncciState = next
	c.mu.Unlock()
	logger.Debugf("ncci %d: %s -> %s on %s", c.NCCI, prev, next, trigger)
}

// accept answers an incoming call: CONNECT_RESP(accept) then, once the
// NCCI comes up, transitions on to alerting->active. Valid only from
// PLCIIncoming/PLCIInAlerting (spec §4.3's state table row "incoming").
func (c *Connection) Accept(bprotocol *capi.BProtocolConfig) error {
	c.mu.Lock()
	state := c.plciState
	if state != PLCIIncoming && state != PLCIInAlerting {
		c.mu.Unlock()
		return wrongState("accept", state)
	}
	msgNum := c.connectIndMsgNum
	c.negotiatedB3 = bprotocol
	c.mu.Unlock()

	err := c.sender.Send(&capi.Message{
		Command:    capi.CmdConnect,
		SubCommand: capi.SubResp,
		Ctrl:       c.PLCI,
		MsgNum:     msgNum,
		Info:       0, // accept
		BProtocol:  bprotocol,
	})
	if err != nil {
		return err
	}
	c.setPLCIState(PLCIInAlerting, "accept")
	return nil
}

// Reject declines an incoming call with the given CAPI reject cause.
// Cause 0 is invalid per spec §8 ("reject cause 0 is ExternalError").
func (c *Connection) Reject(cause uint16) error {
	if cause == 0 {
		return &ExternalError{Reason: "reject cause must not be 0"}
	}

	c.mu.Lock()
	state := c.plciState
	if state != PLCIIncoming && state != PLCIInAlerting {
		c.mu.Unlock()
		return wrongState("reject", state)
	}
	msgNum := c.connectIndMsgNum
	c.mu.Unlock()

	err := c.sender.Send(&capi.Message{
		Command:    capi.CmdConnect,
		SubCommand: capi.SubResp,
		Ctrl:       c.PLCI,
		MsgNum:     msgNum,
		Info:       cause,
	})
	if err != nil {
		return err
	}
	c.setPLCIState(PLCIDisconnecting, "reject")
	return nil
}

// Alert issues ALERT_REQ for an incoming call still in the pre-accept
// phase, per spec §4.3.
func (c *Connection) Alert() error {
	c.mu.Lock()
	state := c.plciState
	if state != PLCIIncoming {
		c.mu.Unlock()
		return wrongState("alert", state)
	}
	c.mu.Unlock()

	return c.sender.Send(&capi.Message{
		Command:    capi.CmdAlert,
		SubCommand: capi.SubReq,
		Ctrl:       c.PLCI,
		MsgNum:     c.sender.NextMsgNum(),
	})
}

// ChangeProtocol issues SELECT_B_PROTOCOL_REQ to live-switch the B
// channel (e.g. voice to fax-G3), a no-op if bprotocol matches the
// currently negotiated configuration (SPEC_FULL §3 supplement).
func (c *Connection) ChangeProtocol(bprotocol *capi.BProtocolConfig) error {
	c.mu.Lock()
	state := c.plciState
	if state != PLCIActive {
		c.mu.Unlock()
		return wrongState("change_protocol", state)
	}
	if c.negotiatedB3 != nil && sameBProtocol(c.negotiatedB3, bprotocol) {
		c.mu.Unlock()
		return nil
	}
	c.negotiatedB3 = bprotocol
	c.mu.Unlock()

	return c.sender.Send(&capi.Message{
		Command:    capi.CmdSelectBProtocol,
		SubCommand: capi.SubReq,
		Ctrl:       c.PLCI,
		MsgNum:     c.sender.NextMsgNum(),
		BProtocol:  bprotocol,
	})
}

func sameBProtocol(a, b *capi.BProtocolConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.B1Protocol == b.B1Protocol &&
		a.B2Protocol == b.B2Protocol &&
		a.B3Protocol == b.B3Protocol &&
		string(a.B3Config) == string(b.B3Config)
}

// StartSendFile begins streaming src over DATA_B3, priming the send
// window and returning a channel that closes once transmission
// completes. Valid only once the NCCI is active.
func (c *Connection) StartSendFile(src io.ReadCloser) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.ncciState != NCCIActive {
		state := c.ncciState
		c.mu.Unlock()
		return nil, wrongState("start_send_file", state)
	}
	ncci := c.NCCI
	c.mu.Unlock()

	done, err := c.send.start(src, func(handle int, data []byte) {
		_ = c.sender.Send(&capi.Message{
			Command:    capi.CmdDataB3,
			SubCommand: capi.SubReq,
			Ctrl:       ncci,
			MsgNum:     c.sender.NextMsgNum(),
			Data:       data,
			DataHandle: uint16(handle),
		})
	}, func() {
		if o := c.observer(); o != nil {
			o.TransmissionComplete()
		}
	})
	return done, err
}

// StopSendFile clears the send source and blocks until the window
// drains (spec §4.3).
func (c *Connection) StopSendFile() {
	c.send.stop()
}

// OnDataB3Conf advances the send window on a DATA_B3_CONF, called by the
// controller's reader task.
func (c *Connection) OnDataB3Conf(handle int) error {
	return c.send.confirm(handle)
}

// StartReceiveFile installs sink as the receive target and arms silence
// detection at the given limit (0 disables silence-based termination).
func (c *Connection) StartReceiveFile(sink io.Writer, closeFn func() error, lenFn func() int, silenceLimitSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ncciState != NCCIActive {
		return wrongState("start_receive_file", c.ncciState)
	}
	c.receiveSink = sink
	c.receiveClose = closeFn
	c.receiveLenFn = lenFn
	c.silence = newSilenceDetector(silenceLimitSeconds)
	return nil
}

// ReceivingActive reports whether a receive sink is currently installed,
// letting a call module detect that the reader task auto-stopped
// recording (silence-exceeded) without waiting on a disconnect.
func (c *Connection) ReceivingActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receiveSink != nil
}

// LastCauseLayer3 returns the most recent DISCONNECT_IND cause, or 0 if
// none has arrived yet.
func (c *Connection) LastCauseLayer3() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.causeLayer3
}

// StopReceiveFile detaches and closes the receive sink and returns the
// recorded length less the trailing silence beyond one second that
// silence detection counted. The sink's contents are not cut; only the
// returned length reflects the truncation. With no sink installed (for
// instance after the reader task has already stopped it) it returns 0.
func (c *Connection) StopReceiveFile() (int, error) {
	c.mu.Lock()
	sink := c.receiveSink
	closeFn := c.receiveClose
	lenFn := c.receiveLenFn
	var silentBytes int
	if c.silence != nil {
		silentBytes = c.silence.silentBytes
	}
	c.receiveSink = nil
	c.receiveClose = nil
	c.receiveLenFn = nil
	c.silence = nil
	c.mu.Unlock()

	_ = sink
	final := 0
	if lenFn != nil {
		final = truncateLength(lenFn(), silentBytes)
	}
	if closeFn != nil {
		if err := closeFn(); err != nil {
			return final, err
		}
	}
	return final, nil
}

// OnDataB3Ind runs the receive pipeline: append to the sink, run silence
// detection, fire observer data_in, reporting whether silence just
// exceeded the configured limit (spec §4.3).
func (c *Connection) OnDataB3Ind(data []byte) (silenceExceeded bool) {
	c.mu.Lock()
	sink := c.receiveSink
	sd := c.silence
	c.mu.Unlock()

	if sink != nil {
		_, _ = sink.Write(data)
	}
	if o := c.observer(); o != nil {
		o.DataIn(data)
	}
	if sd != nil {
		silenceExceeded = sd.observe(data)
	}
	return silenceExceeded
}

// EnableDTMF issues FACILITY_REQ(enable) with the default durations.
func (c *Connection) EnableDTMF() error {
	c.dtmf.setEnabled(true)
	return c.sender.Send(&capi.Message{
		Command:          capi.CmdFacility,
		SubCommand:       capi.SubReq,
		Ctrl:             c.PLCI,
		MsgNum:           c.sender.NextMsgNum(),
		FacilitySelector: capi.FacilitySelectorDTMF,
		FacilityData:     capi.FacilityDTMFRequest(true, defaultDTMFDurationTenthMs, defaultDTMFDurationTenthMs),
	})
}

// DisableDTMF issues FACILITY_REQ(disable), leaving no queued FACILITY
// state (spec §8).
func (c *Connection) DisableDTMF() error {
	c.dtmf.setEnabled(false)
	return c.sender.Send(&capi.Message{
		Command:          capi.CmdFacility,
		SubCommand:       capi.SubReq,
		Ctrl:             c.PLCI,
		MsgNum:           c.sender.NextMsgNum(),
		FacilitySelector: capi.FacilitySelectorDTMF,
		FacilityData:     capi.FacilityDTMFRequest(false, defaultDTMFDurationTenthMs, defaultDTMFDurationTenthMs),
	})
}

// ReadDTMF returns the accumulated buffer without clearing it.
func (c *Connection) ReadDTMF() string { return c.dtmf.read() }

// ClearDTMF empties the DTMF buffer.
func (c *Connection) ClearDTMF() { c.dtmf.clear() }

// DTMFCount reports the current digit count (used by Read-DTMF's
// entry-count capture, spec §4.4).
func (c *Connection) DTMFCount() int { return c.dtmf.count() }

// OnFacilityDTMFInd appends newly arrived digits and fires dtmf_arrived.
func (c *Connection) OnFacilityDTMFInd(raw []byte) {
	digits := capi.DecodeDTMFFacilityIndication(raw)
	if digits == "" {
		return
	}
	appended := c.dtmf.append(digits)
	if o := c.observer(); o != nil {
		o.DTMFArrived(appended)
	}
}

// FaxInfo returns the currently recorded fax metadata, or nil if none has
// been negotiated yet.
func (c *Connection) FaxInfo() *FaxInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fax == nil {
		return nil
	}
	cp := *c.fax
	return &cp
}

// OnFaxNCPI parses NCPI for a fax connection. Called at both
// CONNECT_B3_ACTIVE_IND and DISCONNECT_B3_IND, intentionally, per
// SPEC_FULL §9's preserved "read NCPI in both places" behaviour (see
// DESIGN.md for the resolved Open Question): the far end may not report
// final page count and station id until DISCONNECT_B3_IND, so the second
// read overwrites the first with more complete data.
func (c *Connection) OnFaxNCPI(raw []byte) error {
	n, err := capi.DecodeFaxNCPI(raw)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	info := faxInfoFromNCPI(n)
	c.mu.Lock()
	c.fax = &info
	c.mu.Unlock()
	return nil
}

// SetIdentity records the driver-assigned PLCI/NCCI and the CONNECT_IND
// message number needed to build the delayed CONNECT_RESP (spec §3). It
// is called once by the controller when the identity becomes known:
// immediately for an incoming call, or after CONNECT_CONF for an
// outgoing one.
func (c *Connection) SetIdentity(plci, ncci uint32, connectIndMsgNum uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PLCI = plci
	c.NCCI = ncci
	c.connectIndMsgNum = connectIndMsgNum
}

// WeInitiated reports whether this connection was placed by the
// application (true) or arrived as an incoming call (false).
func (c *Connection) WeInitiated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weInitiated
}

// MarkIncoming transitions an incoming call's PLCI to the waiting state
// once CONNECT_IND has been recorded (spec §4.3 state table row
// "incoming").
func (c *Connection) MarkIncoming() {
	c.setPLCIState(PLCIIncoming, "connect_ind")
}

// MarkOutRequested transitions an outgoing call's PLCI to req_pending
// immediately after CONNECT_REQ is sent.
func (c *Connection) MarkOutRequested() {
	c.setPLCIState(PLCIReqPending, "connect_req")
}

// OnConnectConfOK transitions req_pending -> out_alerting on a
// successful CONNECT_CONF (spec §4.3 state table).
func (c *Connection) OnConnectConfOK() {
	c.setPLCIState(PLCIOutAlerting, "connect_conf")
}

// OnAlertingInfo fires the observer alerting callback for an outgoing
// call's INFO_IND(ALERTING), without a state transition (spec §4.3 state
// table: "fires observer alerting, stays").
func (c *Connection) OnAlertingInfo() {
	if o := c.observer(); o != nil {
		o.Alerting()
	}
}

// OnConnectActiveInd transitions the PLCI to active. For an
// application-initiated call it also reports that CONNECT_B3_REQ must
// now be emitted and the NCCI moved to req_pending, per spec §4.3's
// "out_alerting: CONNECT_ACTIVE_IND -> active (+ emit CONNECT_B3_REQ;
// NCCI -> req_pending)". An incoming call's B3 channel instead arrives
// as its own CONNECT_B3_IND and needs no action here.
func (c *Connection) OnConnectActiveInd() (emitConnectB3Req bool) {
	c.setPLCIState(PLCIActive, "connect_active_ind")
	if c.WeInitiated() {
		c.setNCCIState(NCCIReqPending, "connect_active_ind")
		return true
	}
	return false
}

// OnConnectB3Ind offers an incoming B3 channel; the NCCI moves to
// accepting until the controller sends CONNECT_B3_RESP (spec §4.3).
func (c *Connection) OnConnectB3Ind(ncci uint32) {
	c.mu.Lock()
	c.NCCI = ncci
	c.mu.Unlock()
	c.setNCCIState(NCCIAccepting, "connect_b3_ind")
}

// OnConnectB3RespSent transitions accepting -> active_pending once
// CONNECT_B3_RESP has been emitted for an incoming B3 offer.
func (c *Connection) OnConnectB3RespSent() {
	c.setNCCIState(NCCIActivePending, "connect_b3_resp")
}

// OnConnectB3ConfOK transitions req_pending -> active_pending on a
// successful CONNECT_B3_CONF for an outgoing B3 channel.
func (c *Connection) OnConnectB3ConfOK(ncci uint32) {
	c.mu.Lock()
	c.NCCI = ncci
	c.mu.Unlock()
	c.setNCCIState(NCCIActivePending, "connect_b3_conf")
}

// OnConnectB3ActiveInd transitions the NCCI to active and fires observer
// connected (spec §4.3 state table).
func (c *Connection) OnConnectB3ActiveInd() {
	c.setNCCIState(NCCIActive, "connect_b3_active_ind")
	if o := c.observer(); o != nil {
		o.Connected()
	}
}

// EnableDDI arms the DDI accumulator for a point-to-point controller,
// called once at Connection creation when ddi_length > 0 (spec §4.2).
func (c *Connection) EnableDDI(baseLength, length int, stopNumbers []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ddi = newDDIAccumulator(baseLength, length, stopNumbers)
}

// OnInfoCalledPartyNumber handles an INFO_IND carrying the
// called-party-number information element: in DDI mode it feeds the
// accumulator and reports completion so the controller can publish
// call_waiting exactly once; outside DDI mode it is a no-op (spec §4.2).
func (c *Connection) OnInfoCalledPartyNumber(digits string, basePrefix string) (callee string, complete bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ddi == nil || !c.ddi.enabled() {
		return "", false
	}
	if c.ddi.append(digits) {
		c.calledNumber = c.ddi.callee(basePrefix)
		return c.calledNumber, true
	}
	return "", false
}

// SetNumbers records the caller/callee numbers captured at CONNECT_IND
// time (spec §3). In DDI mode calledNumber is left empty here and filled
// in later by OnInfoCalledPartyNumber.
func (c *Connection) SetNumbers(calling, called string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callingNumber = calling
	c.calledNumber = called
}

// Disconnect tears down the call per mode (spec §4.3): DisconnectAll
// tears down the NCCI first (DISCONNECT_B3_REQ) if up, then relies on
// the automatic chain to physical teardown once DISCONNECT_B3_IND
// arrives (see OnDisconnectB3Ind); DisconnectLogicalOnly issues only
// DISCONNECT_B3_REQ and sets suppressPhysicalDisconnect so that chain
// does not fire; DisconnectPhysicalOnly issues DISCONNECT_REQ
// immediately, letting the NCCI auto-drop with a protocol error (spec
// §4.3: "acceptable for error paths").
func (c *Connection) Disconnect(mode DisconnectMode) error {
	c.mu.Lock()
	plciState := c.plciState
	ncciState := c.ncciState
	c.mu.Unlock()

	if plciState == PLCITerminal {
		return wrongState("disconnect", plciState)
	}

	switch mode {
	case DisconnectLogicalOnly:
		c.mu.Lock()
		c.suppressPhysicalDisconnect = true
		c.mu.Unlock()
		if ncciState == NCCIActive {
			if err := c.sendDisconnectB3(); err != nil {
				return err
			}
			c.setNCCIState(NCCIDisconnecting, "disconnect_logical_only")
		}
		return nil

	case DisconnectPhysicalOnly:
		if err := c.sendDisconnect(); err != nil {
			return err
		}
		c.setPLCIState(PLCIDisconnecting, "disconnect_physical_only")
		return nil

	default: // DisconnectAll
		if ncciState == NCCIActive {
			if err := c.sendDisconnectB3(); err != nil {
				return err
			}
			c.setNCCIState(NCCIDisconnecting, "disconnect")
			return nil
		}
		if err := c.sendDisconnect(); err != nil {
			return err
		}
		c.setPLCIState(PLCIDisconnecting, "disconnect")
		return nil
	}
}

func (c *Connection) sendDisconnectB3() error {
	return c.sender.Send(&capi.Message{
		Command:    capi.CmdDisconnectB3,
		SubCommand: capi.SubReq,
		Ctrl:       c.NCCI,
		MsgNum:     c.sender.NextMsgNum(),
	})
}

func (c *Connection) sendDisconnect() error {
	return c.sender.Send(&capi.Message{
		Command:    capi.CmdDisconnect,
		SubCommand: capi.SubReq,
		Ctrl:       c.PLCI,
		MsgNum:     c.sender.NextMsgNum(),
	})
}

// OnDisconnectB3Ind handles DISCONNECT_B3_IND: resets the send window
// (no further DATA_B3_CONF will arrive for dropped buffers, spec §8),
// records the B3 cause, fires observer disconnected_logical, and then
// chains into a physical DISCONNECT_REQ unless suppressPhysicalDisconnect
// was set by a prior logical-only disconnect (spec §4.3's state table:
// "chain to PLCI disconnect unless suppress_physical_disconnect"). The
// flag is consumed here and reset to false whether or not it gated the
// chain, so it only ever suppresses the one DISCONNECT_B3_IND it was
// armed for — a later Disconnect(DisconnectAll) on the same connection
// (e.g. after a switch_to_fax's logical-only renegotiation) still tears
// down the PLCI normally.
func (c *Connection) OnDisconnectB3Ind(cause uint16) {
	c.send.reset()
	c.mu.Lock()
	c.causeB3 = cause
	suppress := c.suppressPhysicalDisconnect
	c.suppressPhysicalDisconnect = false
	c.mu.Unlock()

	c.setNCCIState(NCCIIdle, "disconnect_b3_ind")
	if o := c.observer(); o != nil {
		o.DisconnectedLogical()
	}

	if suppress {
		return
	}
	if err := c.sendDisconnect(); err != nil {
		logger.Warnf("plci %d: chained disconnect after disconnect_b3_ind failed: %v", c.PLCI, err)
		return
	}
	c.setPLCIState(PLCIDisconnecting, "disconnect_b3_ind_chain")
}

// OnDisconnectInd handles DISCONNECT_IND: records the layer-3 cause,
// transitions the PLCI to terminal, and fires observer
// disconnected_physical exactly once.
func (c *Connection) OnDisconnectInd(cause uint16) {
	c.mu.Lock()
	c.causeLayer3 = cause
	c.mu.Unlock()

	c.setPLCIState(PLCITerminal, "disconnect_ind")
	if o := c.observer(); o != nil {
		o.DisconnectedPhysical()
	}
}
