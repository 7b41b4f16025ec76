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
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/larsimmisch/capisuite/cfg"
	"github.com/larsimmisch/capisuite/internal/capi"
	"github.com/larsimmisch/capisuite/internal/controller"
	"github.com/larsimmisch/capisuite/internal/daemon"
	"github.com/larsimmisch/capisuite/internal/logger"
	"github.com/larsimmisch/capisuite/internal/metrics"
	"github.com/larsimmisch/capisuite/internal/observer"
	"github.com/larsimmisch/capisuite/internal/scripting"
)

// Registration sizing mirrors the send-window shape internal/connection
// builds per connection (7 blocks of 2048 bytes), scaled up for a modest
// number of simultaneously active calls.
const (
	registerMaxConns    = 32
	registerMaxBlocks   = 7
	registerMaxBlockLen = 2048

	scriptWorkers = 16
)

// runServe is rootCmd's RunE body once flags/config have been resolved.
// It forks into the background unless c.Foreground or it is already the
// forked child (spec.md §1: "a thin collaborator" wraps the core with
// exactly this two-step protocol), then runs the reader loop until
// SIGINT.
func runServe(c *cfg.Config) error {
	if !c.Foreground && !daemon.InBackground() {
		return daemon.Fork(os.Args[1:], nil)
	}

	if err := logger.InitFileSinks(c.LogFile, c.ErrorLogFile, c.LogLevel); err != nil {
		daemon.SignalFailure(err)
		return err
	}
	metrics.MustRegister(nil)

	rt, err := scripting.NewRuntime(scriptWorkers)
	if err != nil {
		daemon.SignalFailure(err)
		return fmt.Errorf("starting script runtime: %w", err)
	}
	defer rt.Stop()

	var callModuleAPI scripting.CallModuleAPI
	handler := scripting.IncomingCallHandler(rt.Spawn, func(ctx context.Context, conn observer.Connection) {
		onIncomingCall(ctx, conn, callModuleAPI, c.IncomingScriptPath)
	})

	ddi := controller.DDIConfig{
		Length:      c.DDILength,
		BaseLength:  c.DDIBaseLength,
		StopNumbers: c.DDIStopNumbers,
	}
	ctrl := controller.New(capi.NullDriver{}, ddi, handler)
	callModuleAPI = scripting.NewCallModuleAPI(ctrl)

	if err := ctrl.Register(registerMaxConns, registerMaxBlocks, registerMaxBlockLen); err != nil {
		daemon.SignalFailure(err)
		return fmt.Errorf("registering with CAPI driver: %w", err)
	}

	for _, cc := range c.Controllers {
		if err := applyListenMask(ctrl, cc); err != nil {
			daemon.SignalFailure(err)
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if c.IdleScriptIntervalSeconds > 0 && c.IdleScriptPath != "" {
		go runIdleTimer(ctx, rt, c.IdleScriptPath, time.Duration(c.IdleScriptIntervalSeconds)*time.Second)
	}

	logger.Infof("capisuited: registered, listening on %d controller(s)", len(c.Controllers))
	daemon.SignalSuccess()

	return ctrl.Run(ctx)
}

func applyListenMask(ctrl *controller.Controller, cc cfg.ControllerConfig) error {
	controllerID := uint16(cc.ID)
	for _, service := range cc.Services {
		switch strings.ToLower(service) {
		case "voice":
			if err := ctrl.ListenVoice(controllerID); err != nil {
				return fmt.Errorf("controller %d: listen voice: %w", cc.ID, err)
			}
		case "fax_g3", "fax":
			if err := ctrl.ListenFax(controllerID); err != nil {
				return fmt.Errorf("controller %d: listen fax: %w", cc.ID, err)
			}
		default:
			return fmt.Errorf("controller %d: unknown service %q", cc.ID, service)
		}
	}
	return nil
}

// onIncomingCall is the call_waiting boundary hook (spec.md §4.2, §9):
// it fires once an incoming call's callee number is fully identified.
// Running the actual user script is out of scope (spec.md §1's explicit
// non-goal); this logs the handoff point a real scripting runtime plugs
// into via callModuleAPI.
func onIncomingCall(ctx context.Context, conn observer.Connection, api scripting.CallModuleAPI, scriptPath string) {
	logger.Infof("incoming call from %q to %q: handing off to %q", conn.CallingNumber(), conn.CalledNumber(), scriptPath)
	_ = api
}

// runIdleTimer fires the idle-timer handoff on its own task every
// interval, stopping cooperatively when ctx is cancelled (spec.md §5:
// "the idle-script termination request stop[s]... the idle task
// cooperatively at well-defined polling points").
func runIdleTimer(ctx context.Context, rt *scripting.Runtime, scriptPath string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.Spawn(func(taskCtx context.Context) {
				logger.Infof("idle timer: handing off to %q", scriptPath)
			})
		}
	}
}
