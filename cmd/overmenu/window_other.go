//go:build !linux

package main

import (
	"log/slog"

	"github.com/1broseidon/overmenu/internal/lifecycle"
	"github.com/1broseidon/overmenu/internal/platform"
)

func windowFactory(platform.Backend, *slog.Logger) lifecycle.WindowFactory {
	return lifecycle.NewHeadlessWindow
}

func startEventLoop(platform.Backend) {}
