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

// Package controller owns the process-wide CAPI registration, the single
// reader task that pumps driver messages into per-connection state
// machines, and the PLCI/pseudo-id indexed connection map (spec §4.2).
package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/larsimmisch/capisuite/internal/capi"
	"github.com/larsimmisch/capisuite/internal/connection"
	"github.com/larsimmisch/capisuite/internal/logger"
	"github.com/larsimmisch/capisuite/internal/metrics"
	"github.com/larsimmisch/capisuite/internal/observer"
)

// DDIConfig carries the point-to-point accumulation parameters spec §3
// attaches to the driver controller.
type DDIConfig struct {
	Length      int
	BaseLength  int
	StopNumbers []string
	BasePrefix  string
}

// Controller is the one-per-process driver controller (spec §3, §4.2).
// Constructed explicitly and passed by handle to every subsystem, rather
// than kept as global state (spec §9: "abstract this as an explicit
// owned controller... duplicate registration is a construction-time
// failure").
type Controller struct {
	driver capi.Driver
	applID uint16

	ddi DDIConfig

	mu          sync.Mutex
	msgNum      uint16
	listenMasks map[uint16]listenState
	profiles    map[uint16]capi.Profile
	conns       map[connKey]*connection.Connection

	callWaiting observer.IncomingCallHandler

	registered bool
}

type listenState struct {
	infoMask uint32
	cipMask  uint32
}

var errAlreadyRegistered = fmt.Errorf("controller: already registered")

// New constructs an unregistered Controller. Calling Register twice is a
// construction-time failure (spec §9).
func New(driver capi.Driver, ddi DDIConfig, callWaiting observer.IncomingCallHandler) *Controller {
	return &Controller{
		driver:      driver,
		ddi:         ddi,
		listenMasks: make(map[uint16]listenState),
		profiles:    make(map[uint16]capi.Profile),
		conns:       make(map[connKey]*connection.Connection),
		callWaiting: callWaiting,
	}
}

// Register registers the application with the driver and reads the
// general (controller 0) profile to learn the controller count (spec
// §4.1, §4.2).
func (c *Controller) Register(maxConns, maxBlocks, maxBlockLen uint32) error {
	c.mu.Lock()
	if c.registered {
		c.mu.Unlock()
		return errAlreadyRegistered
	}
	c.mu.Unlock()

	if !c.driver.IsInstalled() {
		return capi.NewDriverError("is_installed", 0x1008)
	}

	applID, err := c.driver.Register(maxConns, maxBlocks, maxBlockLen)
	if err != nil {
		return err
	}

	general, err := c.driver.GetProfile(applID, 0)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.applID = applID
	c.registered = true
	c.profiles[0] = general
	c.mu.Unlock()

	logger.Infof("registered application %d, %d controllers", applID, capi.ControllerCount(general.Raw))
	return nil
}

// ControllerCount reports the number of installed controllers, read at
// Register time (SPEC_FULL §4.2 supplement).
func (c *Controller) ControllerCount() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return capi.ControllerCount(c.profiles[0].Raw)
}

// Profile returns the cached capability vector for one controller,
// reading it from the driver on first access (spec §3, §4.2).
func (c *Controller) Profile(controllerID uint16) (capi.Profile, error) {
	c.mu.Lock()
	p, ok := c.profiles[controllerID]
	applID := c.applID
	c.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := c.driver.GetProfile(applID, controllerID)
	if err != nil {
		return capi.Profile{}, err
	}
	c.mu.Lock()
	c.profiles[controllerID] = p
	c.mu.Unlock()
	return p, nil
}

// ListenVoice ORs the voice CIP mask into controllerID's saved listen
// mask and reissues LISTEN_REQ, refusing if the profile lacks transparent
// capability (spec §4.2).
func (c *Controller) ListenVoice(controllerID uint16) error {
	return c.listen(controllerID, capi.CIPMaskVoice, "voice")
}

// ListenFax ORs the fax-G3 CIP mask into controllerID's saved listen mask
// and reissues LISTEN_REQ, refusing if the profile lacks fax-G3
// capability (spec §4.2).
func (c *Controller) ListenFax(controllerID uint16) error {
	return c.listen(controllerID, capi.CIPMaskFaxG3, "fax_g3")
}

func (c *Controller) listen(controllerID uint16, cipBits uint32, service string) error {
	profile, err := c.Profile(controllerID)
	if err != nil {
		return err
	}
	if !profile.SupportsService(service) {
		return &connection.ExternalError{Reason: fmt.Sprintf("controller %d does not support %s", controllerID, service)}
	}

	c.mu.Lock()
	state := c.listenMasks[controllerID]
	state.cipMask |= cipBits
	if c.ddi.Length > 0 {
		state.infoMask |= capi.InfoMaskDDI
	}
	c.listenMasks[controllerID] = state
	applID := c.applID
	c.mu.Unlock()

	return c.driver.PutMessage(applID, &capi.Message{
		Command:        capi.CmdListen,
		SubCommand:     capi.SubReq,
		Ctrl:           uint32(controllerID),
		MsgNum:         c.NextMsgNum(),
		ListenInfoMask: state.infoMask,
		ListenCIPMask:  state.cipMask,
	})
}

// NextMsgNum returns the next CAPI message sequence number, satisfying
// the sender interface internal/connection requires.
func (c *Controller) NextMsgNum() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgNum++
	return c.msgNum
}

// Send emits one CAPI request, satisfying the sender interface
// internal/connection requires.
func (c *Controller) Send(msg *capi.Message) error {
	c.mu.Lock()
	applID := c.applID
	c.mu.Unlock()
	return c.driver.PutMessage(applID, msg)
}

// lookup resolves an inbound message's routing key to a live connection,
// per spec §4.2 step 2: "for CONNECT_CONF, by the pseudo-id derived from
// message number".
func (c *Controller) lookup(msg *capi.Message) *connection.Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.Command == capi.CmdConnect && msg.SubCommand == capi.SubConf {
		if conn, ok := c.conns[pendingKey(msg.MsgNum)]; ok {
			return conn
		}
		return nil
	}
	return c.conns[plciKey(msg.PLCI())]
}

func (c *Controller) store(key connKey, conn *connection.Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[key] = conn
}

func (c *Controller) rekey(old, new connKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[old]; ok {
		delete(c.conns, old)
		c.conns[new] = conn
	}
}

func (c *Controller) forget(key connKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, key)
}

// Dial places an outgoing call, registering the new Connection under a
// pseudo-PLCI key derived from the CONNECT_REQ's message number so
// CONNECT_CONF can be routed back (spec §3 invariant, §9).
func (c *Controller) Dial(controllerID uint16, service, calledNumber, callingNumber string, bprotocol *capi.BProtocolConfig) (*connection.Connection, error) {
	conn := connection.New(controllerID, service, true, c)
	conn.SetNumbers(callingNumber, calledNumber)

	msgNum := c.NextMsgNum()
	c.store(pendingKey(msgNum), conn)

	err := c.driver.PutMessage(c.applID, &capi.Message{
		Command:       capi.CmdConnect,
		SubCommand:    capi.SubReq,
		Ctrl:          uint32(controllerID),
		MsgNum:        msgNum,
		CalledNumber:  capi.EncodePartyNumber(capi.PlanUnknown, []byte(calledNumber), false),
		CallingNumber: capi.EncodePartyNumber(capi.PlanUnknown, []byte(callingNumber), true),
		BProtocol:     bprotocol,
	})
	if err != nil {
		c.forget(pendingKey(msgNum))
		return nil, err
	}
	conn.MarkOutRequested()
	return conn, nil
}

// Run executes the single reader task until ctx is cancelled (spec §4.2:
// "a single blocking loop calling wait_for_message, then get_message").
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := c.driver.WaitForMessage(ctx, c.applID); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		for {
			msg, err := c.driver.GetMessage(c.applID)
			if err == capi.ErrQueueEmpty {
				break
			}
			if err != nil {
				logger.Errorf("controller: get_message failed: %v", err)
				break
			}
			if err := c.dispatch(msg); err != nil {
				return err
			}
		}
	}
}

func (c *Controller) protocolError(plci uint32, what string) {
	metrics.ProtocolErrors.Inc()
	logger.Warnf("controller: protocol error: %s for unknown plci %d", what, plci)
}
