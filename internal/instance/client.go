package instance

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client sends control requests to the running instance.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the control socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to overmenu: %w (is it running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(append(reqData, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("overmenu error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) command(cmd CommandType, payload any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	_, err := c.sendRequest(req)
	return err
}

// Focus asks the running instance to raise its window.
func (c *Client) Focus() error {
	return c.command(CommandFocus, nil)
}

// ShowMenu asks the running instance to open a menu.
func (c *Client) ShowMenu(menu string, centered bool) error {
	return c.command(CommandShowMenu, ShowMenuPayload{Menu: menu, Centered: centered})
}

// Hide asks the running instance to hide its menu after delay.
func (c *Client) Hide(delay time.Duration) error {
	return c.command(CommandHide, HidePayload{DelayMillis: delay.Milliseconds()})
}

// Quit asks the running instance to exit.
func (c *Client) Quit() error {
	return c.command(CommandQuit, nil)
}

// GetStatus retrieves the running instance's status.
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}
	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// Ping checks whether an instance is answering.
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
