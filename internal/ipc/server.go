package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/overmenu/internal/lifecycle"
)

const outboxSize = 16

// Handler receives validated renderer requests. Calls for one connection
// arrive in the order they were sent.
type Handler interface {
	HideWindow(delay time.Duration)
	ItemSelected()
	SimulateShortcut()
	ShowDevTools()
	RendererLog(msg string)
}

// Server is the privileged end of the renderer channel.
type Server struct {
	socketPath string
	handler    Handler
	logger     *slog.Logger
	listener   net.Listener

	mu           sync.Mutex
	conns        map[*serverConn]struct{}
	shuttingDown bool

	dropped atomic.Int64
	wg      sync.WaitGroup
}

type serverConn struct {
	conn      net.Conn
	out       chan []byte
	closeOnce sync.Once
}

func (c *serverConn) close() {
	c.closeOnce.Do(func() {
		close(c.out)
		c.conn.Close()
	})
}

// NewServer creates a server that dispatches to handler.
func NewServer(socketPath string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger,
		conns:      make(map[*serverConn]struct{}),
	}
}

// SocketPath returns the listening path.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for renderer connections.
func (s *Server) Start() error {
	// Remove a stale socket left by a crashed instance; the instance lock
	// guarantees nobody else owns it.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create renderer socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("renderer socket listening", "path", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			shuttingDown := s.shuttingDown
			s.mu.Unlock()
			if shuttingDown || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("renderer accept error", "error", err)
			continue
		}

		sc := &serverConn{conn: conn, out: make(chan []byte, outboxSize)}
		s.mu.Lock()
		if s.shuttingDown {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[sc] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(2)
		go s.writeLoop(sc)
		go s.readLoop(sc)
	}
}

func (s *Server) readLoop(sc *serverConn) {
	defer s.wg.Done()
	defer s.detach(sc)

	s.logger.Debug("renderer connected")
	reader := bufio.NewReader(sc.conn)
	for {
		line, err := readFrame(reader)
		if errors.Is(err, ErrMalformedPayload) {
			s.dropped.Add(1)
			s.logger.Warn("dropping renderer message", "error", err)
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("renderer read error", "error", err)
			}
			break
		}
		if len(line) == 0 {
			continue
		}
		if err := s.dispatch(line); err != nil {
			s.dropped.Add(1)
			s.logger.Warn("dropping renderer message", "error", err)
		}
	}
	s.logger.Debug("renderer disconnected")
}

func (s *Server) writeLoop(sc *serverConn) {
	defer s.wg.Done()
	for data := range sc.out {
		if _, err := sc.conn.Write(data); err != nil {
			s.logger.Debug("renderer write failed", "error", err)
			s.detach(sc)
			return
		}
	}
}

func (s *Server) detach(sc *serverConn) {
	s.mu.Lock()
	delete(s.conns, sc)
	s.mu.Unlock()
	sc.close()
}

func (s *Server) dispatch(line []byte) error {
	msg, err := decode(line, ToMain)
	if err != nil {
		return err
	}

	switch msg.Channel {
	case ChannelHideWindow:
		delay, err := ParseHideDelay(msg.Payload)
		if err != nil {
			return err
		}
		s.handler.HideWindow(delay)
	case ChannelItemSelected:
		if err := ParseEmpty(msg.Payload); err != nil {
			return err
		}
		s.handler.ItemSelected()
	case ChannelSimulateShortcut:
		if err := ParseEmpty(msg.Payload); err != nil {
			return err
		}
		s.handler.SimulateShortcut()
	case ChannelShowDevTools:
		if err := ParseEmpty(msg.Payload); err != nil {
			return err
		}
		s.handler.ShowDevTools()
	case ChannelLog:
		text, err := ParseLog(msg.Payload)
		if err != nil {
			return err
		}
		s.handler.RendererLog(text)
	default:
		return fmt.Errorf("%w: unhandled channel %q", ErrMalformedPayload, msg.Channel)
	}
	return nil
}

// ShowMenu broadcasts show-menu to every attached renderer. It never blocks;
// a renderer whose queue is full misses the event.
func (s *Server) ShowMenu(p lifecycle.Presentation) error {
	data, err := encode(ChannelShowMenu, p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		s.logger.Info("show-menu with no renderer attached")
		return nil
	}
	for sc := range s.conns {
		select {
		case sc.out <- data:
		default:
			s.logger.Warn("renderer queue full, skipping show-menu")
		}
	}
	return nil
}

// Dropped returns how many inbound messages failed validation.
func (s *Server) Dropped() int64 {
	return s.dropped.Load()
}

// Clients returns the number of attached renderers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Stop closes the listener and every connection, then removes the socket.
func (s *Server) Stop() {
	s.mu.Lock()
	s.shuttingDown = true
	conns := make([]*serverConn, 0, len(s.conns))
	for sc := range s.conns {
		conns = append(conns, sc)
	}
	s.conns = make(map[*serverConn]struct{})
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	for _, sc := range conns {
		sc.close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
