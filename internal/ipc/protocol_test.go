package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestParseHideDelay(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"null", 0, false},
		{"0", 0, false},
		{"300", 300 * time.Millisecond, false},
		{"12.5", 12500 * time.Microsecond, false},
		{"999999", MaxHideDelay, false},
		{"-1", 0, true},
		{`"soon"`, 0, true},
		{`{"delay":3}`, 0, true},
		{"true", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHideDelay(json.RawMessage(tt.raw))
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("ParseHideDelay(%q) error = %v, want ErrMalformedPayload", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseHideDelay(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseHideDelay(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	for _, ok := range []string{"", "null", " null "} {
		if err := ParseEmpty(json.RawMessage(ok)); err != nil {
			t.Fatalf("ParseEmpty(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"1", `"x"`, "{}", "[]"} {
		if err := ParseEmpty(json.RawMessage(bad)); !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("ParseEmpty(%q) error = %v", bad, err)
		}
	}
}

func TestParseLog(t *testing.T) {
	got, err := ParseLog(json.RawMessage(`"hello"`))
	if err != nil || got != "hello" {
		t.Fatalf("ParseLog = %q, %v", got, err)
	}

	long, _ := json.Marshal(strings.Repeat("é", MaxLogBytes))
	got, err = ParseLog(long)
	if err != nil {
		t.Fatalf("ParseLog(long): %v", err)
	}
	if len(got) > MaxLogBytes || !strings.HasPrefix(strings.Repeat("é", MaxLogBytes), got) {
		t.Fatalf("truncated log has %d bytes or split a rune", len(got))
	}

	for _, bad := range []string{"", "null", "42", `{"msg":"x"}`} {
		if _, err := ParseLog(json.RawMessage(bad)); !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("ParseLog(%q) error = %v", bad, err)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		line    string
		dir     Direction
		wantErr bool
	}{
		{`{"v":1,"channel":"hide-window","payload":5}`, ToMain, false},
		{`{"v":1,"channel":"show-menu","payload":{}}`, ToRenderer, false},
		{`{"v":1,"channel":"show-menu","payload":{}}`, ToMain, true},
		{`{"v":1,"channel":"hide-window"}`, ToRenderer, true},
		{`{"v":2,"channel":"log","payload":"x"}`, ToMain, true},
		{`{"channel":"log","payload":"x"}`, ToMain, true},
		{`{"v":1,"channel":"exec","payload":"rm -rf /"}`, ToMain, true},
		{`not json`, ToMain, true},
	}
	for _, tt := range tests {
		_, err := decode([]byte(tt.line), tt.dir)
		if tt.wantErr != (err != nil) {
			t.Fatalf("decode(%s) error = %v, wantErr %v", tt.line, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("decode(%s) error %v does not wrap ErrMalformedPayload", tt.line, err)
		}
	}
}

func TestEncode(t *testing.T) {
	data, err := encode(ChannelItemSelected, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := string(data); got != "{\"v\":1,\"channel\":\"item-selected\"}\n" {
		t.Fatalf("encode = %q", got)
	}
}

func TestReadFrame(t *testing.T) {
	long := strings.Repeat("a", maxLineBytes+10)
	input := "first\r\n" + long + "\n\nsecond\n" + strings.Repeat("b", maxLineBytes) + "\nlast"
	r := bufio.NewReaderSize(strings.NewReader(input), 16)

	want := []struct {
		frame     string
		malformed bool
	}{
		{frame: "first"},
		{malformed: true},
		{frame: ""},
		{frame: "second"},
		{frame: strings.Repeat("b", maxLineBytes)},
		{frame: "last"},
	}
	for i, w := range want {
		got, err := readFrame(r)
		if w.malformed {
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("frame %d: err = %v, want ErrMalformedPayload", i, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if string(got) != w.frame {
			t.Fatalf("frame %d = %.20q (len %d), want %.20q", i, got, len(got), w.frame)
		}
	}
	if _, err := readFrame(r); !errors.Is(err, io.EOF) {
		t.Fatalf("after last frame err = %v, want EOF", err)
	}
}
