// SPDX-License-Identifier: MIT
//go:build headless

package render

import (
	"context"
	"errors"

	"waveform/internal/transport"
)

// WindowAvailable reports whether this build can open a window.
const WindowAvailable = false

// RunWindow is unavailable in headless builds.
func RunWindow(context.Context, Visualizer, transport.Transport, int, string) error {
	return errors.New("render: window backend compiled out (headless build); run with --headless")
}
