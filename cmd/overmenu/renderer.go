package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	rendererSocketEnv = "OVERMENU_IPC_SOCKET"
	rendererStopWait  = 2 * time.Second
)

// rendererEnv returns base plus extra, with the renderer socket variable
// set last. extra cannot override the socket.
func rendererEnv(base []string, extra map[string]string, socket string) []string {
	prefix := rendererSocketEnv + "="
	env := make([]string, 0, len(base)+len(extra)+1)
	for _, kv := range base {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		if k, _, ok := strings.Cut(kv, "="); ok {
			if _, overridden := extra[k]; overridden {
				continue
			}
		}
		env = append(env, kv)
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		if k != rendererSocketEnv {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return append(env, prefix+socket)
}

// readRendererEnvFile loads a dotenv file. Relative paths are taken from
// the config file's directory.
func readRendererEnvFile(path, configPath string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(configPath), path)
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read renderer env file: %w", err)
	}
	return vars, nil
}

// startRenderer launches the renderer process. It is interrupted when ctx
// ends and killed if it has not exited after rendererStopWait.
func startRenderer(ctx context.Context, argv []string, extraEnv map[string]string, socket string, logger *slog.Logger) (*exec.Cmd, error) {
	if len(argv) == 0 {
		return nil, nil
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = rendererEnv(os.Environ(), extraEnv, socket)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = rendererStopWait

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start renderer %q: %w", argv[0], err)
	}
	logger.Info("renderer started", "command", argv[0], "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("renderer exited", "error", err)
			return
		}
		logger.Info("renderer exited")
	}()
	return cmd, nil
}
