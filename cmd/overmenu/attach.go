package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/1broseidon/overmenu/internal/ipc"
	"github.com/1broseidon/overmenu/internal/lifecycle"
	"github.com/1broseidon/overmenu/internal/runtimepath"
	"github.com/1broseidon/overmenu/internal/tui"
)

type attachAction int

const (
	actionNone attachAction = iota
	actionSelect
	actionShortcut
	actionHide
	actionDevTools
	actionQuit
)

// lineAction maps one line of piped input.
func lineAction(line string) attachAction {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return actionSelect
	case "s", "shortcut":
		return actionShortcut
	case "h", "hide", "esc":
		return actionHide
	case "d", "devtools":
		return actionDevTools
	case "q", "quit":
		return actionQuit
	default:
		return actionNone
	}
}

func readActions(r io.Reader, out chan<- attachAction) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if a := lineAction(scanner.Text()); a != actionNone {
			out <- a
		}
	}
}

func sendAction(c *ipc.Client, a attachAction) error {
	switch a {
	case actionSelect:
		return c.ItemSelected()
	case actionShortcut:
		return c.SimulateShortcut()
	case actionHide:
		return c.HideWindow(0)
	case actionDevTools:
		return c.ShowDevTools()
	}
	return nil
}

func runAttach(args []string) int {
	fs := flag.NewFlagSet("attach", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Renderer socket path (default: $OVERMENU_IPC_SOCKET or the runtime dir)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: overmenu attach [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Attach a terminal renderer to the running instance. On a terminal a")
		fmt.Fprintln(os.Stderr, "full-screen monitor shows show-menu events; with piped stdin each line is")
		fmt.Fprintln(os.Stderr, "a command (empty, s, hide, d, q) and events are printed one per line.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keys:")
		fmt.Fprintln(os.Stderr, "  Enter   item-selected")
		fmt.Fprintln(os.Stderr, "  s       simulate-shortcut")
		fmt.Fprintln(os.Stderr, "  Esc, h  hide-window")
		fmt.Fprintln(os.Stderr, "  d       show-dev-tools")
		fmt.Fprintln(os.Stderr, "  q       detach")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	path := *socket
	if path == "" {
		path = os.Getenv(rendererSocketEnv)
	}
	if path == "" {
		p, err := runtimepath.RendererSocketPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		path = p
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := ipc.Dial(ctx, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Close()

	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return attachInteractive(ctx, client, path)
	}
	return attachLines(ctx, client, path)
}

// attachInteractive runs the full-screen monitor.
func attachInteractive(ctx context.Context, client *ipc.Client, path string) int {
	monitor := tui.New(client, path)
	client.OnShowMenu(monitor.ShowMenu)

	go func() {
		err := client.Run(ctx)
		if ctx.Err() != nil {
			monitor.Quit()
			return
		}
		monitor.Disconnected(err)
	}()

	if err := monitor.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// attachLines drives the channel from piped stdin, one command per line.
func attachLines(ctx context.Context, client *ipc.Client, path string) int {
	client.OnShowMenu(func(p lifecycle.Presentation) {
		fmt.Println(tui.Describe(p))
	})
	fmt.Printf("attached to %s\n", path)

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(ctx) }()

	actions := make(chan attachAction)
	go readActions(os.Stdin, actions)

	for {
		select {
		case err := <-runErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "disconnected: %v\n", err)
				return 1
			}
			fmt.Println("disconnected")
			return 0
		case a, ok := <-actions:
			if !ok || a == actionQuit {
				return 0
			}
			if err := sendAction(client, a); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
	}
}
