package mcp

import "github.com/1broseidon/overmenu/internal/lifecycle"

// ShowMenuInput is the input for the show_menu tool.
type ShowMenuInput struct {
	Menu     string `json:"menu,omitempty" jsonschema:"Name of the menu to open (default: the renderer's default menu)"`
	Centered bool   `json:"centered,omitempty" jsonschema:"When true, open the menu at the centre of the work area instead of at the pointer"`
}

// ShowMenuOutput is the output for the show_menu tool.
type ShowMenuOutput struct {
	Requested bool   `json:"requested"`
	Menu      string `json:"menu,omitempty"`
}

// HideMenuInput is the input for the hide_menu tool.
type HideMenuInput struct {
	DelayMS int `json:"delay_ms,omitempty" jsonschema:"Delay in milliseconds before the window is hidden (default: 0, max: 10000)"`
}

// HideMenuOutput is the output for the hide_menu tool.
type HideMenuOutput struct {
	Requested bool `json:"requested"`
	DelayMS   int  `json:"delay_ms"`
}

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	PID             int                `json:"pid"`
	UptimeSeconds   int64              `json:"uptime_seconds"`
	RendererClients int                `json:"renderer_clients"`
	DroppedMessages int64              `json:"dropped_messages"`
	Controller      lifecycle.Snapshot `json:"controller"`
}
