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
	"github.com/larsimmisch/capisuite/internal/capi"
	"github.com/larsimmisch/capisuite/internal/connection"
	"github.com/larsimmisch/capisuite/internal/logger"
	"github.com/larsimmisch/capisuite/internal/metrics"
)

// dispatch classifies one decoded message and routes it, per spec §4.2's
// five-step reader task algorithm. It never panics the process: an
// unknown PLCI (outside CONNECT_IND) is logged as a protocol error and
// the loop continues. A non-nil return means the caller must stop the
// reader loop entirely (spec §4.2 step 5: a failed LISTEN_CONF means no
// further messages will arrive).
func (c *Controller) dispatch(msg *capi.Message) error {
	switch {
	case msg.Command == capi.CmdConnect && msg.SubCommand == capi.SubInd:
		c.onConnectInd(msg)
		return nil

	case msg.Command == capi.CmdConnect && msg.SubCommand == capi.SubConf:
		c.onConnectConf(msg)
		return nil

	case msg.Command == capi.CmdListen && msg.SubCommand == capi.SubConf:
		return c.onListenConf(msg)
	}

	conn := c.lookup(msg)
	if conn == nil {
		c.protocolError(msg.PLCI(), msg.Command.String()+"_"+msg.SubCommand.String())
		return nil
	}

	switch {
	case msg.Command == capi.CmdConnectActive && msg.SubCommand == capi.SubInd:
		_ = c.Send(&capi.Message{Command: capi.CmdConnectActive, SubCommand: capi.SubResp, Ctrl: msg.PLCI(), MsgNum: msg.MsgNum})
		if conn.OnConnectActiveInd() {
			ncci := msg.PLCI()
			_ = c.Send(&capi.Message{Command: capi.CmdConnectB3, SubCommand: capi.SubReq, Ctrl: ncci, MsgNum: c.NextMsgNum()})
		}

	case msg.Command == capi.CmdConnectB3 && msg.SubCommand == capi.SubInd:
		conn.OnConnectB3Ind(msg.Ctrl)
		_ = c.Send(&capi.Message{Command: capi.CmdConnectB3, SubCommand: capi.SubResp, Ctrl: msg.Ctrl, MsgNum: msg.MsgNum, Info: 0})
		conn.OnConnectB3RespSent()

	case msg.Command == capi.CmdConnectB3 && msg.SubCommand == capi.SubConf:
		if msg.Info == 0 {
			conn.OnConnectB3ConfOK(msg.Ctrl)
		}

	case msg.Command == capi.CmdConnectB3Active && msg.SubCommand == capi.SubInd:
		_ = conn.OnFaxNCPI(msg.NCPI)
		conn.OnConnectB3ActiveInd()
		_ = c.Send(&capi.Message{Command: capi.CmdConnectB3Active, SubCommand: capi.SubResp, Ctrl: msg.Ctrl, MsgNum: msg.MsgNum})

	case msg.Command == capi.CmdDataB3 && msg.SubCommand == capi.SubInd:
		exceeded := conn.OnDataB3Ind(msg.Data)
		_ = c.Send(&capi.Message{Command: capi.CmdDataB3, SubCommand: capi.SubResp, Ctrl: msg.Ctrl, MsgNum: msg.MsgNum, DataHandle: msg.DataHandle})
		if exceeded {
			_, _ = conn.StopReceiveFile()
		}

	case msg.Command == capi.CmdDataB3 && msg.SubCommand == capi.SubConf:
		if err := conn.OnDataB3Conf(int(msg.DataHandle)); err != nil {
			logger.Warnf("controller: %v", err)
		}

	case msg.Command == capi.CmdDisconnectB3 && msg.SubCommand == capi.SubInd:
		conn.OnFaxNCPI(msg.NCPI) //nolint:errcheck // preserved "read NCPI in both places" quirk, best-effort
		conn.OnDisconnectB3Ind(msg.Info)

	case msg.Command == capi.CmdDisconnect && msg.SubCommand == capi.SubInd:
		conn.OnDisconnectInd(msg.Info)
		_ = c.Send(&capi.Message{Command: capi.CmdDisconnect, SubCommand: capi.SubResp, Ctrl: msg.PLCI(), MsgNum: msg.MsgNum})
		c.forget(plciKey(msg.PLCI()))

	case msg.Command == capi.CmdFacility && msg.SubCommand == capi.SubInd && msg.FacilitySelector == capi.FacilitySelectorDTMF:
		conn.OnFacilityDTMFInd(msg.FacilityData)
		_ = c.Send(&capi.Message{Command: capi.CmdFacility, SubCommand: capi.SubResp, Ctrl: msg.PLCI(), MsgNum: msg.MsgNum, FacilitySelector: msg.FacilitySelector})

	case msg.Command == capi.CmdInfo && msg.SubCommand == capi.SubInd:
		c.onInfoInd(conn, msg)

	default:
		logger.Tracef("controller: unhandled %s_%s for plci %d", msg.Command, msg.SubCommand, msg.PLCI())
	}
	return nil
}

// onConnectInd handles step 3 of spec §4.2: create a Connection, record
// caller/callee, and, in DDI mode, delay call_waiting until the callee
// is fully accumulated.
func (c *Controller) onConnectInd(msg *capi.Message) {
	controllerID := uint16(msg.Controller())
	conn := connection.New(controllerID, serviceForCIP(msg.CIP), false, c)

	if c.ddi.Length > 0 {
		// In point-to-point (DDI) mode the called-party number on
		// CONNECT_IND itself is ignored; the real callee is reconstructed
		// from the INFO_IND digit sequence that follows (spec §3).
		conn.SetNumbers(numberOrDash(msg.CallingNumber, true), "")
		conn.EnableDDI(c.ddi.BaseLength, c.ddi.Length, c.ddi.StopNumbers)
	} else {
		conn.SetNumbers(numberOrDash(msg.CallingNumber, true), numberOrDash(msg.CalledNumber, false))
	}

	c.store(plciKey(msg.PLCI()), conn)
	conn.SetIdentity(msg.PLCI(), msg.PLCI(), msg.MsgNum)
	conn.MarkIncoming()

	metrics.ActiveConnections.Inc()

	if c.ddi.Length == 0 {
		c.publish(conn)
	}
}

// onConnectConf rewrites the pending pseudo-id index to the real
// driver-assigned PLCI (spec §3 invariant).
func (c *Controller) onConnectConf(msg *capi.Message) {
	c.mu.Lock()
	conn, ok := c.conns[pendingKey(msg.MsgNum)]
	c.mu.Unlock()
	if !ok {
		c.protocolError(msg.PLCI(), "CONNECT_CONF")
		return
	}
	if msg.Info != 0 {
		conn.OnDisconnectInd(msg.Info)
		c.forget(pendingKey(msg.MsgNum))
		return
	}

	conn.SetIdentity(msg.PLCI(), 0, msg.MsgNum)
	c.rekey(pendingKey(msg.MsgNum), plciKey(msg.PLCI()))
	conn.OnConnectConfOK()
}

// onListenConf reports a failed LISTEN_CONF. Per spec §4.2 step 5, a
// non-zero info code here means no further messages will arrive for this
// application, so the error it returns must stop the reader loop
// (original behaviour: capi.cpp's listen_conf throws on this condition).
func (c *Controller) onListenConf(msg *capi.Message) error {
	if msg.Info == 0 {
		return nil
	}
	logger.Errorf("controller: LISTEN_CONF failed on controller %d: info 0x%04x", msg.PLCI(), msg.Info)
	return capi.NewDriverError("listen_conf", msg.Info)
}

// onInfoInd dispatches ALERTING and called-party-number info elements to
// the connection's specialised handlers (spec §4.2 step 4).
func (c *Controller) onInfoInd(conn *connection.Connection, msg *capi.Message) {
	switch msg.Info {
	case capi.InfoAlerting:
		conn.OnAlertingInfo()
	case capi.InfoCalledPartyNumber:
		_, digits, err := capi.DecodePartyNumber(msg.CalledNumber, false)
		if err != nil {
			logger.Warnf("controller: malformed called-party-number info element: %v", err)
			return
		}
		callee, complete := conn.OnInfoCalledPartyNumber(string(digits), c.ddi.BasePrefix)
		if complete {
			_ = callee
			c.publish(conn)
		}
	}
	_ = c.Send(&capi.Message{Command: capi.CmdInfo, SubCommand: capi.SubResp, Ctrl: msg.PLCI(), MsgNum: msg.MsgNum})
}

func (c *Controller) publish(conn *connection.Connection) {
	if c.callWaiting != nil {
		c.callWaiting(conn)
	}
}

func serviceForCIP(cip uint32) string {
	switch {
	case cip&capi.CIPMaskFaxG3 == capi.CIPMaskFaxG3:
		return "fax_g3"
	case cip&capi.CIPMaskVoice == capi.CIPMaskVoice:
		return "voice"
	default:
		return "other"
	}
}

func numberOrDash(raw []byte, calling bool) string {
	plan, digits, err := capi.DecodePartyNumber(raw, calling)
	if err != nil {
		return "-"
	}
	return connection.FormatNumber(plan, digits)
}
