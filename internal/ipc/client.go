package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/1broseidon/overmenu/internal/lifecycle"
)

const dialTimeout = 5 * time.Second

// Client is the renderer end of the channel. It can only send the fixed
// set of renderer requests.
type Client struct {
	conn    net.Conn
	writeMu sync.Mutex

	onShowMenu func(lifecycle.Presentation)
	closeOnce  sync.Once
}

// Dial connects to the renderer socket.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to overmenu: %w (is it running?)", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) send(ch Channel, payload any) error {
	data, err := encode(ch, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(dialTimeout))
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send %s: %w", ch, err)
	}
	return nil
}

// HideWindow asks for the window to be hidden after delay.
func (c *Client) HideWindow(delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	return c.send(ChannelHideWindow, delay.Milliseconds())
}

// ItemSelected reports that the user picked a menu item.
func (c *Client) ItemSelected() error {
	return c.send(ChannelItemSelected, nil)
}

// SimulateShortcut asks for the configured shortcut to be pressed.
func (c *Client) SimulateShortcut() error {
	return c.send(ChannelSimulateShortcut, nil)
}

// ShowDevTools asks for the debug view.
func (c *Client) ShowDevTools() error {
	return c.send(ChannelShowDevTools, nil)
}

// Log forwards a diagnostic line to the privileged side's log.
func (c *Client) Log(msg string) error {
	return c.send(ChannelLog, truncate(msg, MaxLogBytes))
}

// OnShowMenu sets the show-menu callback. Set it before Run.
func (c *Client) OnShowMenu(fn func(lifecycle.Presentation)) {
	c.onShowMenu = fn
}

// Run reads server messages until the connection closes or ctx ends.
// Frames that fail validation are skipped.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	reader := bufio.NewReader(c.conn)
	for {
		line, err := readFrame(reader)
		if errors.Is(err, ErrMalformedPayload) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("renderer connection: %w", err)
		}
		if len(line) == 0 {
			continue
		}
		msg, err := decode(line, ToRenderer)
		if err != nil {
			continue
		}
		var p lifecycle.Presentation
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			continue
		}
		if c.onShowMenu != nil {
			c.onShowMenu(p)
		}
	}
}

// Close disconnects.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.conn.Close() })
	return err
}
