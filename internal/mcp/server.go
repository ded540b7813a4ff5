package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/overmenu/internal/instance"
)

const (
	ServerName    = "overmenu"
	ServerVersion = "0.1.0"

	maxHideDelayMS = 10000
)

// Control is the subset of the control client the tools use.
type Control interface {
	ShowMenu(menu string, centered bool) error
	Hide(delay time.Duration) error
	GetStatus() (*instance.StatusData, error)
}

// Server exposes the running instance to MCP clients.
type Server struct {
	mcpServer *mcpsdk.Server
	control   Control
}

// NewServer creates an MCP server that forwards to control.
func NewServer(control Control) *Server {
	s := &Server{control: control}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "show_menu",
		Description: "Open the overmenu pie menu. By default it appears at the mouse pointer; pass centered to open it in the middle of the screen. The running overmenu instance must be started first.",
	}, s.handleShowMenu)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hide_menu",
		Description: "Hide the overmenu window, optionally after a delay in milliseconds.",
	}, s.handleHideMenu)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the running overmenu instance: window state, active backend and its capabilities, last menu position, and renderer connections.",
	}, s.handleGetStatus)
}

func (s *Server) handleShowMenu(_ context.Context, _ *mcpsdk.CallToolRequest, args ShowMenuInput) (*mcpsdk.CallToolResult, ShowMenuOutput, error) {
	if err := s.control.ShowMenu(args.Menu, args.Centered); err != nil {
		return nil, ShowMenuOutput{}, fmt.Errorf("show_menu: %w", err)
	}
	return nil, ShowMenuOutput{Requested: true, Menu: args.Menu}, nil
}

func (s *Server) handleHideMenu(_ context.Context, _ *mcpsdk.CallToolRequest, args HideMenuInput) (*mcpsdk.CallToolResult, HideMenuOutput, error) {
	if args.DelayMS < 0 || args.DelayMS > maxHideDelayMS {
		return nil, HideMenuOutput{}, fmt.Errorf("hide_menu: delay_ms must be between 0 and %d", maxHideDelayMS)
	}
	if err := s.control.Hide(time.Duration(args.DelayMS) * time.Millisecond); err != nil {
		return nil, HideMenuOutput{}, fmt.Errorf("hide_menu: %w", err)
	}
	return nil, HideMenuOutput{Requested: true, DelayMS: args.DelayMS}, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.control.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, fmt.Errorf("get_status: %w", err)
	}
	return nil, GetStatusOutput{
		PID:             status.PID,
		UptimeSeconds:   status.UptimeSeconds,
		RendererClients: status.RendererClients,
		DroppedMessages: status.DroppedMessages,
		Controller:      status.Controller,
	}, nil
}
