// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError ends the process with Code and no further message. Commands
// return it after printing their own report, for example when some of
// the requested assets failed to load.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode is the hook main looks for before printing "error:".
func (e *ExitError) ExitCode() int {
	return e.Code
}
