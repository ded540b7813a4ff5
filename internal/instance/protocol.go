package instance

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/overmenu/internal/lifecycle"
)

// CommandType represents control socket commands.
type CommandType string

const (
	CommandFocus     CommandType = "FOCUS"
	CommandShowMenu  CommandType = "SHOW_MENU"
	CommandHide      CommandType = "HIDE"
	CommandGetStatus CommandType = "GET_STATUS"
	CommandQuit      CommandType = "QUIT"
)

// Request represents a control request from a CLI or second instance.
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents a control response.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ShowMenuPayload is the payload for SHOW_MENU.
type ShowMenuPayload struct {
	Menu     string `json:"menu,omitempty"`
	Centered bool   `json:"centered,omitempty"`
}

// HidePayload is the payload for HIDE.
type HidePayload struct {
	DelayMillis int64 `json:"delay_ms,omitempty"`
}

// StatusData is returned by GET_STATUS.
type StatusData struct {
	PID             int                `json:"pid"`
	UptimeSeconds   int64              `json:"uptime_seconds"`
	RendererClients int                `json:"renderer_clients"`
	DroppedMessages int64              `json:"dropped_messages"`
	Controller      lifecycle.Snapshot `json:"controller"`
}

// NewOKResponse creates a successful response with optional data.
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}
	return &Response{Status: "OK", Data: dataBytes}, nil
}

// NewErrorResponse creates an error response with a message.
func NewErrorResponse(errMsg string) *Response {
	return &Response{Status: "ERROR", Error: errMsg}
}

// ParseRequest parses a request from JSON bytes.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
