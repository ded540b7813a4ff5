package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/overmenu/internal/config"
	"github.com/1broseidon/overmenu/internal/hotkeys"
	"github.com/1broseidon/overmenu/internal/instance"
	"github.com/1broseidon/overmenu/internal/ipc"
	"github.com/1broseidon/overmenu/internal/lifecycle"
	"github.com/1broseidon/overmenu/internal/logging"
	"github.com/1broseidon/overmenu/internal/platform"
	"github.com/1broseidon/overmenu/internal/runtimepath"
)

func runInstance(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	menu := fs.String("menu", "", "Menu to open once started")
	centered := fs.Bool("centered", false, "Open the menu at the centre of the work area")
	configPath := fs.String("config", "", "Config file path (default: ~/.config/overmenu/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: overmenu run [--menu NAME] [--centered] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start overmenu in the foreground. When an instance is already running it is")
		fmt.Fprintln(os.Stderr, "focused instead, and --menu/--centered are forwarded to it.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	lockPath, err := runtimepath.LockPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	lock, err := instance.Acquire(lockPath)
	if errors.Is(err, instance.ErrLockUnavailable) {
		return forwardToRunning(*menu, *centered, instance.OwnerPID(lockPath))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	path := *configPath
	if path == "" {
		if path, err = config.DefaultConfigPath(); err != nil {
			lock.Release()
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		lock.Release()
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config

	logs, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		lock.Release()
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer logs.Close()
	logger := logs.Logger
	logger.Info("configuration loaded", "path", path, "files", len(res.Files), "backend", cfg.Backend)

	backend := platform.Select(platform.DetectEnv(), platform.Options{
		Override:      cfg.Backend,
		NativeLibrary: cfg.NativeLibrary,
		ProbeTimeout:  cfg.ProbeTimeout(),
		Logger:        logger,
	})

	ctrl := lifecycle.NewController(lifecycle.Config{
		Backend:   backend,
		NewWindow: windowFactory(backend, logger),
		Lock:      lock,
		Settings:  cfg.Settings(),
		Logger:    logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctrl.Start(ctx); err != nil {
		backend.Close()
		lock.Release()
		logger.Error("failed to start", "error", err)
		return 1
	}

	rendererSocket, err := runtimepath.RendererSocketPath()
	if err != nil {
		logger.Error("failed to resolve renderer socket", "error", err)
		ctrl.Quit()
		ctrl.Run(ctx)
		return 1
	}
	rendererServer := ipc.NewServer(rendererSocket, ctrl, logger)
	if err := rendererServer.Start(); err != nil {
		logger.Error("failed to start renderer channel", "error", err)
		ctrl.Quit()
		ctrl.Run(ctx)
		return 1
	}
	defer rendererServer.Stop()
	ctrl.SetRenderer(rendererServer)

	controlSocket, err := runtimepath.SocketPath()
	if err == nil {
		controlServer := instance.NewServer(controlSocket, ctrl, rendererServer, logger)
		if err = controlServer.Start(); err == nil {
			defer controlServer.Stop()
		}
	}
	if err != nil {
		logger.Warn("control socket unavailable, second instances cannot reach this one", "error", err)
	}

	showMenu := func() { ctrl.ShowMenu(lifecycle.ShowRequest{}) }
	hotkeyHandler, err := hotkeys.NewHandler(backend, logger)
	switch {
	case err != nil && cfg.Hotkey != "":
		logger.Warn("hotkey ignored", "hotkey", cfg.Hotkey, "error", err)
	case err == nil:
		if err := hotkeyHandler.Register(cfg.Hotkey, showMenu); err != nil {
			logger.Warn("failed to register hotkey", "error", err)
		} else if cfg.Hotkey != "" {
			logger.Info("hotkey registered", "hotkey", cfg.Hotkey)
		}
	}

	applyConfig := func(newCfg *config.Config) {
		ctrl.UpdateSettings(newCfg.Settings())
		if hotkeyHandler != nil {
			if err := hotkeyHandler.Register(newCfg.Hotkey, showMenu); err != nil {
				logger.Warn("failed to register hotkey", "error", err)
			}
		}
	}
	if err := config.Watch(ctx, path, logger, applyConfig); err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	}

	if extraEnv, err := readRendererEnvFile(cfg.RendererEnvFile, path); err != nil {
		logger.Warn("renderer not started", "error", err)
	} else if _, err := startRenderer(ctx, cfg.RendererCommand, extraEnv, rendererSocket, logger); err != nil {
		logger.Warn("renderer not started", "error", err)
	}

	startEventLoop(backend)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading config")
					reloaded, err := config.LoadFromPath(path)
					if err != nil {
						logger.Warn("config reload failed", "error", err)
						continue
					}
					applyConfig(reloaded.Config)
					continue
				}
				logger.Info("shutting down", "signal", sig.String())
				ctrl.Quit()
				return
			case <-ctrl.Done():
				return
			}
		}
	}()

	if *menu != "" || *centered {
		ctrl.ShowMenu(lifecycle.ShowRequest{Menu: *menu, Centered: *centered})
	}

	logger.Info("overmenu started", "pid", os.Getpid(), "renderer_socket", rendererSocket)
	if err := ctrl.Run(ctx); err != nil {
		logger.Error("controller stopped", "error", err)
		return 1
	}
	return 0
}

// forwardToRunning hands this invocation's request to the instance that
// holds the lock.
func forwardToRunning(menu string, centered bool, pid int) int {
	client, err := controlClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if menu != "" || centered {
		err = client.ShowMenu(menu, centered)
	} else {
		err = client.Focus()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "overmenu is already running (pid %d) but did not respond: %v\n", pid, err)
		return 1
	}
	return 0
}
