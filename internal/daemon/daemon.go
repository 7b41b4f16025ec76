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

// Package daemon is the "forking daemon wrapper" spec §1 calls a thin,
// out-of-core collaborator. It re-execs the capisuited binary in the
// background with --foreground set, then waits for the child to signal
// success or failure before the parent process exits, the same two-step
// protocol the teacher uses around github.com/jacobsa/daemonize.
package daemon

import (
	"fmt"
	"os"

	"github.com/jacobsa/daemonize"
	"github.com/kardianos/osext"

	"github.com/larsimmisch/capisuite/internal/logger"
)

// InBackgroundEnvVar is set in the child's environment so it (and anything
// it execs) can tell it is running detached from a controlling terminal.
const InBackgroundEnvVar = "CAPISUITE_IN_BACKGROUND"

// Fork re-execs the current binary with --foreground placed before args,
// waits for it to report its startup outcome, and returns that outcome
// to the original (parent) process.
func Fork(args []string, extraEnv []string) error {
	path, err := osext.Executable()
	if err != nil {
		return fmt.Errorf("osext.Executable: %w", err)
	}

	childArgs := append([]string{"--foreground"}, args...)
	env := append([]string{fmt.Sprintf("PATH=%s", os.Getenv("PATH")), InBackgroundEnvVar + "=true"}, extraEnv...)

	if err := daemonize.Run(path, childArgs, env, os.Stdout); err != nil {
		return fmt.Errorf("daemonize.Run: %w", err)
	}
	logger.Infof("capisuited started in background")
	return nil
}

// SignalSuccess tells the parent process (if any, i.e. this is the daemon
// child) that startup completed; outside a forked child this is a no-op.
func SignalSuccess() {
	if err := daemonize.SignalOutcome(nil); err != nil {
		logger.Errorf("failed to signal startup success to parent process: %v", err)
	}
}

// SignalFailure tells the parent process that startup failed with err.
func SignalFailure(err error) {
	if err2 := daemonize.SignalOutcome(err); err2 != nil {
		logger.Errorf("failed to signal startup failure to parent process: %v", err2)
	}
}

// InBackground reports whether this process is the forked daemon child.
func InBackground() bool {
	return os.Getenv(InBackgroundEnvVar) == "true"
}
