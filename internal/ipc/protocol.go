package ipc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// Version is the only accepted message version.
const Version = 1

const (
	// MaxHideDelay caps hide-window delays.
	MaxHideDelay = 10 * time.Second
	// MaxLogBytes caps renderer log messages.
	MaxLogBytes = 4096
	// maxLineBytes bounds one encoded message.
	maxLineBytes = 64 * 1024
)

// ErrMalformedPayload is returned for any message that fails validation.
var ErrMalformedPayload = errors.New("malformed ipc payload")

// Channel names one message kind.
type Channel string

const (
	ChannelShowMenu         Channel = "show-menu"
	ChannelHideWindow       Channel = "hide-window"
	ChannelItemSelected     Channel = "item-selected"
	ChannelSimulateShortcut Channel = "simulate-shortcut"
	ChannelShowDevTools     Channel = "show-dev-tools"
	ChannelLog              Channel = "log"
)

// Direction says which side may send on a channel.
type Direction int

const (
	// ToRenderer channels are sent by the privileged side only.
	ToRenderer Direction = iota
	// ToMain channels are sent by the renderer.
	ToMain
)

var channels = map[Channel]Direction{
	ChannelShowMenu:         ToRenderer,
	ChannelHideWindow:       ToMain,
	ChannelItemSelected:     ToMain,
	ChannelSimulateShortcut: ToMain,
	ChannelShowDevTools:     ToMain,
	ChannelLog:              ToMain,
}

// Message is one newline-delimited frame on the socket.
type Message struct {
	V       int             `json:"v"`
	Channel Channel         `json:"channel"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func encode(ch Channel, payload any) ([]byte, error) {
	msg := Message{V: Version, Channel: ch}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", ch, err)
		}
		msg.Payload = raw
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", ch, err)
	}
	return append(data, '\n'), nil
}

// decode parses one frame and checks version, channel and direction.
func decode(line []byte, want Direction) (Message, error) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if msg.V != Version {
		return Message{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedPayload, msg.V)
	}
	dir, ok := channels[msg.Channel]
	if !ok {
		return Message{}, fmt.Errorf("%w: unknown channel %q", ErrMalformedPayload, msg.Channel)
	}
	if dir != want {
		return Message{}, fmt.Errorf("%w: channel %q not accepted in this direction", ErrMalformedPayload, msg.Channel)
	}
	return msg, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// ParseHideDelay validates a hide-window payload: a non-negative number of
// milliseconds. A missing payload means no delay.
func ParseHideDelay(raw json.RawMessage) (time.Duration, error) {
	if isNull(raw) {
		return 0, nil
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return 0, fmt.Errorf("%w: hide-window delay must be a number: %v", ErrMalformedPayload, err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("%w: hide-window delay must not be negative", ErrMalformedPayload)
	}
	if ms >= float64(MaxHideDelay/time.Millisecond) {
		return MaxHideDelay, nil
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// ParseEmpty validates the payload of channels that carry none.
func ParseEmpty(raw json.RawMessage) error {
	if !isNull(raw) {
		return fmt.Errorf("%w: unexpected payload", ErrMalformedPayload)
	}
	return nil
}

// ParseLog validates a log payload and truncates it to MaxLogBytes.
func ParseLog(raw json.RawMessage) (string, error) {
	var msg string
	if isNull(raw) {
		return "", fmt.Errorf("%w: log payload missing", ErrMalformedPayload)
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", fmt.Errorf("%w: log payload must be a string: %v", ErrMalformedPayload, err)
	}
	return truncate(msg, MaxLogBytes), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// readFrame returns the next newline-terminated frame without the line
// ending. A frame longer than maxLineBytes is consumed up to its newline and
// reported as ErrMalformedPayload, leaving r at the start of the next frame.
func readFrame(r *bufio.Reader) ([]byte, error) {
	var (
		line    []byte
		tooLong bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(line) > maxLineBytes+1 {
				tooLong = true
				line = nil
			}
		}
		switch {
		case err == nil:
			line = bytes.TrimSuffix(bytes.TrimSuffix(line, []byte("\n")), []byte("\r"))
			if tooLong || len(line) > maxLineBytes {
				return nil, fmt.Errorf("%w: message exceeds %d bytes", ErrMalformedPayload, maxLineBytes)
			}
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(line) > 0 && !tooLong && len(line) <= maxLineBytes:
			// Unterminated last frame.
			return bytes.TrimSuffix(line, []byte("\r")), nil
		default:
			return nil, err
		}
	}
}
