package platform

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// commandRunner runs an external helper and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// hostCommand prefixes flatpak-spawn when running sandboxed so the helper
// executes on the host, where the compositor socket lives.
func hostCommand(env Env, name string, args ...string) (string, []string) {
	if !env.Flatpak() {
		return name, args
	}
	return "flatpak-spawn", append([]string{"--host", name}, args...)
}

func newHostRunner(env Env) commandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		bin, argv := hostCommand(env, name, args...)
		cmd := exec.CommandContext(ctx, bin, argv...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
			}
			return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
		}
		return out, nil
	}
}
