package main

import (
	"flag"
	"io"
	"strings"
	"testing"
)

func newQuietFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

func TestLineAction(t *testing.T) {
	tests := map[string]attachAction{
		"":         actionSelect,
		"s":        actionShortcut,
		" Hide ":   actionHide,
		"esc":      actionHide,
		"devtools": actionDevTools,
		"q":        actionQuit,
		"what":     actionNone,
	}
	for in, want := range tests {
		if got := lineAction(in); got != want {
			t.Fatalf("lineAction(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestReadActions(t *testing.T) {
	out := make(chan attachAction, 8)
	readActions(strings.NewReader("s\n\nbogus\nq\n"), out)

	var got []attachAction
	for a := range out {
		got = append(got, a)
	}
	want := []attachAction{actionShortcut, actionSelect, actionQuit}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParseNoArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"ok", nil, -1},
		{"help", []string{"-h"}, 0},
		{"positional", []string{"extra"}, 2},
		{"bad flag", []string{"--nope"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newQuietFlagSet("test")
			if got := parseNoArgs(fs, tt.args); got != tt.want {
				t.Fatalf("parseNoArgs(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}
