package instance

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/overmenu/internal/ipc"
	"github.com/1broseidon/overmenu/internal/lifecycle"
)

// Controller is what the control socket drives.
type Controller interface {
	Focus()
	ShowMenu(req lifecycle.ShowRequest)
	HideWindow(delay time.Duration)
	Quit()
	Snapshot() lifecycle.Snapshot
}

// RendererStats reports on the renderer channel for GET_STATUS.
type RendererStats interface {
	Clients() int
	Dropped() int64
}

// Server answers control requests on a unix socket.
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         Controller
	stats        RendererStats
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a control server. stats may be nil.
func NewServer(socketPath string, ctrl Controller, stats RendererStats, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		stats:      stats,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// Start begins listening. The caller must hold the instance lock, which
// makes removing a leftover socket safe.
func (s *Server) Start() error {
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create control socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("control socket listening", "path", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			shuttingDown := s.shuttingDown
			s.shutdownMu.Unlock()
			if shuttingDown || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("control accept error", "error", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("control read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}
	s.send(conn, s.handleCommand(req))
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal control response", "error", err)
		return
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		s.logger.Debug("failed to send control response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("control command", "command", req.Command)
	switch req.Command {
	case CommandFocus:
		s.ctrl.Focus()
	case CommandShowMenu:
		var p ShowMenuPayload
		if len(req.Payload) > 0 {
			if err := json.Unmarshal(req.Payload, &p); err != nil {
				return NewErrorResponse(fmt.Sprintf("Invalid show payload: %v", err))
			}
		}
		s.ctrl.ShowMenu(lifecycle.ShowRequest{Menu: p.Menu, Centered: p.Centered})
	case CommandHide:
		var p HidePayload
		if len(req.Payload) > 0 {
			if err := json.Unmarshal(req.Payload, &p); err != nil {
				return NewErrorResponse(fmt.Sprintf("Invalid hide payload: %v", err))
			}
		}
		if p.DelayMillis < 0 {
			return NewErrorResponse("delay_ms must not be negative")
		}
		delay := ipc.MaxHideDelay
		if p.DelayMillis < int64(ipc.MaxHideDelay/time.Millisecond) {
			delay = time.Duration(p.DelayMillis) * time.Millisecond
		}
		s.ctrl.HideWindow(delay)
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandQuit:
		s.ctrl.Quit()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Controller:    s.ctrl.Snapshot(),
	}
	if s.stats != nil {
		status.RendererClients = s.stats.Clients()
		status.DroppedMessages = s.stats.Dropped()
	}
	resp, err := NewOKResponse(status)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// Stop closes the listener and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
