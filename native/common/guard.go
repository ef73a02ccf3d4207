package common

import (
	"errors"
	"strings"
)

// ErrModulePaused is returned when a settlement operation is attempted while
// its module is administratively paused.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named module is currently paused. The node
// builds one from configuration; a nil view pauses nothing.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call with ErrModulePaused when the module is paused.
// Every state-mutating engine entry point consults it first.
func Guard(view PauseView, module string) error {
	module = strings.TrimSpace(module)
	if view == nil || module == "" {
		return nil
	}
	if view.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
