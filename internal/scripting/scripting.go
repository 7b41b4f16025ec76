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

// Package scripting is the boundary spec §9 draws between the CAPI
// protocol core and a per-call or idle-timer scripting runtime: "the
// core publishes (a) a blocking call-module API, (b) an observer
// interface, (c) a thread-creation callback. Do not embed any specific
// scripting-language details in the core." Nothing in this package
// knows about any particular scripting language; it only wires
// call-module execution onto a bounded worker pool for whatever runtime
// is plugged in at cmd/ level.
package scripting

import (
	"context"
	"io"
	"time"

	"github.com/larsimmisch/capisuite/internal/callmodule"
	"github.com/larsimmisch/capisuite/internal/capi"
	"github.com/larsimmisch/capisuite/internal/connection"
	"github.com/larsimmisch/capisuite/internal/observer"
	"github.com/larsimmisch/capisuite/internal/workerpool"
)

// Dialer places outgoing calls and reports controller capability;
// satisfied structurally by *controller.Controller.
type Dialer interface {
	Dial(controllerID uint16, service, calledNumber, callingNumber string, bprotocol *capi.BProtocolConfig) (*connection.Connection, error)
	Profile(controllerID uint16) (capi.Profile, error)
}

// CallModuleAPI is the blocking call-handling surface spec §9 calls for:
// every operation a per-call script needs, implemented by
// internal/callmodule on top of one connection. Each method blocks the
// calling task until its operation resolves; callers run it on a task
// obtained from a Runtime's thread-creation callback, never on the
// driver reader task.
type CallModuleAPI interface {
	Accept(ctx context.Context, conn *connection.Connection, bprotocol *capi.BProtocolConfig) error
	RejectOrDisconnect(ctx context.Context, conn *connection.Connection, rejectCause uint16, mode connection.DisconnectMode)
	SwitchToFax(ctx context.Context, conn *connection.Connection, bprotocol *capi.BProtocolConfig) error
	AudioSend(ctx context.Context, conn *connection.Connection, src AudioSource, abortOnDTMF bool) (callmodule.AudioSendResult, error)
	AudioReceive(ctx context.Context, conn *connection.Connection, sink AudioSink, silenceLimitSeconds int, totalTimeout time.Duration, abortOnDTMF bool) (callmodule.AudioReceiveResult, error)
	FaxSend(ctx context.Context, conn *connection.Connection, src AudioSource) error
	FaxReceive(ctx context.Context, conn *connection.Connection, sink AudioSink) (int, error)
	Outgoing(ctx context.Context, controllerID uint16, service, calledNumber, callingNumber string, bprotocol *capi.BProtocolConfig, alertTimeout time.Duration) (*connection.Connection, callmodule.OutgoingOutcome, error)
	ReadDTMF(ctx context.Context, conn *connection.Connection, minDigits, maxDigits int, idleTimeout time.Duration) callmodule.ReadDTMFResult
	// BuildBProtocol resolves controllerID's capability vector and builds
	// the B1/B2/B3 selection for service, refusing with an ExternalError
	// when the controller cannot provide it (spec §4.3). Scripts call
	// this instead of assembling a capi.BProtocolConfig by hand, so a
	// controller's actual capabilities always gate what a script can ask
	// for.
	BuildBProtocol(controllerID uint16, service string, highRes bool, stationID, headline string) (*capi.BProtocolConfig, error)
}

// AudioSource is the B-channel send source a script hands to
// AudioSend/FaxSend: a readable byte stream it owns the lifecycle of.
type AudioSource = io.ReadCloser

// AudioSink bundles the write/close/length-query trio StartReceiveFile
// needs, so a script only has to produce one value instead of three
// separate closures.
type AudioSink interface {
	io.Writer
	Close() error
	Len() int
}

// api is the concrete CallModuleAPI, parameterised only by a Dialer so it
// never imports internal/controller directly (spec §9's layering applies
// symmetrically: the controller must not know about scripts, and scripts
// must not reach past this facade into the controller).
type api struct {
	dial Dialer
}

// NewCallModuleAPI builds the blocking call-module facade a scripting
// runtime binds against.
func NewCallModuleAPI(dial Dialer) CallModuleAPI {
	return &api{dial: dial}
}

func (a *api) Accept(ctx context.Context, conn *connection.Connection, bprotocol *capi.BProtocolConfig) error {
	return callmodule.Accept(ctx, conn, bprotocol)
}

func (a *api) RejectOrDisconnect(ctx context.Context, conn *connection.Connection, rejectCause uint16, mode connection.DisconnectMode) {
	callmodule.RejectOrDisconnect(ctx, conn, rejectCause, mode)
}

func (a *api) SwitchToFax(ctx context.Context, conn *connection.Connection, bprotocol *capi.BProtocolConfig) error {
	return callmodule.SwitchToFax(ctx, conn, bprotocol)
}

func (a *api) AudioSend(ctx context.Context, conn *connection.Connection, src AudioSource, abortOnDTMF bool) (callmodule.AudioSendResult, error) {
	return callmodule.AudioSend(ctx, conn, src, abortOnDTMF)
}

func (a *api) AudioReceive(ctx context.Context, conn *connection.Connection, sink AudioSink, silenceLimitSeconds int, totalTimeout time.Duration, abortOnDTMF bool) (callmodule.AudioReceiveResult, error) {
	return callmodule.AudioReceive(ctx, conn, sink, sink.Close, sink.Len, silenceLimitSeconds, totalTimeout, abortOnDTMF)
}

func (a *api) FaxSend(ctx context.Context, conn *connection.Connection, src AudioSource) error {
	return callmodule.FaxSend(ctx, conn, src)
}

func (a *api) FaxReceive(ctx context.Context, conn *connection.Connection, sink AudioSink) (int, error) {
	return callmodule.FaxReceive(ctx, conn, sink, sink.Close, sink.Len)
}

func (a *api) Outgoing(ctx context.Context, controllerID uint16, service, calledNumber, callingNumber string, bprotocol *capi.BProtocolConfig, alertTimeout time.Duration) (*connection.Connection, callmodule.OutgoingOutcome, error) {
	return callmodule.Outgoing(ctx, a.dial, controllerID, service, calledNumber, callingNumber, bprotocol, alertTimeout)
}

func (a *api) ReadDTMF(ctx context.Context, conn *connection.Connection, minDigits, maxDigits int, idleTimeout time.Duration) callmodule.ReadDTMFResult {
	return callmodule.ReadDTMF(ctx, conn, minDigits, maxDigits, idleTimeout)
}

func (a *api) BuildBProtocol(controllerID uint16, service string, highRes bool, stationID, headline string) (*capi.BProtocolConfig, error) {
	profile, err := a.dial.Profile(controllerID)
	if err != nil {
		return nil, err
	}
	transcode := func(s string) string { return s }
	if profile.TranscodesHeadlines() {
		transcode = connection.TranscodeISO88591ToCP437
	}
	return connection.BuildBProtocol(service, profile, highRes, stationID, headline, transcode)
}

// ThreadFunc is one script-side task: a per-call handler or the
// idle-timer handler. It receives the context the Runtime cancels on
// shutdown.
type ThreadFunc func(ctx context.Context)

// ThreadCreator is spec §9's "thread-creation callback": the one hook a
// scripting runtime needs to run its per-call and idle-timer handlers
// without the core ever spawning a bare goroutine on the runtime's
// behalf. Backed by internal/workerpool so the number of concurrently
// running scripts stays bounded (spec §5).
type ThreadCreator func(fn ThreadFunc)

// Runtime binds a worker pool to the thread-creation callback shape
// scripting runtimes expect, and owns the cancellation context every
// spawned task is handed (spec §5's "process-wide finish request...
// stop the reader and the idle task cooperatively").
type Runtime struct {
	pool   *workerpool.Pool
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRuntime starts a bounded worker pool for script tasks.
func NewRuntime(workers uint32) (*Runtime, error) {
	pool, err := workerpool.NewStaticWorkerPool(workers)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{pool: pool, ctx: ctx, cancel: cancel}, nil
}

// Spawn submits fn to the worker pool, implementing ThreadCreator.
func (r *Runtime) Spawn(fn ThreadFunc) {
	r.pool.Submit(func() { fn(r.ctx) })
}

// IncomingCallHandler adapts a ThreadCreator into the
// observer.IncomingCallHandler the controller's call_waiting hook
// expects: each newly-identified incoming call gets its own script task.
func IncomingCallHandler(spawn ThreadCreator, onCall func(ctx context.Context, conn observer.Connection)) observer.IncomingCallHandler {
	return func(conn observer.Connection) {
		spawn(func(ctx context.Context) { onCall(ctx, conn) })
	}
}

// Stop cancels every running script task's context and drains the pool.
func (r *Runtime) Stop() {
	r.cancel()
	r.pool.Stop()
}
