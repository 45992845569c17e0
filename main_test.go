package main

import (
	"testing"

	socket "github.com/mitchellvdhut/quizzap/transport/websocket"
)

func TestCommandTree(t *testing.T) {
	got := []string{
		hostCommand().Name,
		joinCommand().Name,
		quizzesCommand().Name,
		mcpCommand().Name,
	}
	want := []string{"host", "join", "quizzes", "mcp"}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("Expected command %q, got %q", name, got[i])
		}
	}
}

func TestQuizzesSubcommands(t *testing.T) {
	sub := map[string]bool{}
	for _, cmd := range quizzesCommand().Commands {
		sub[cmd.Name] = true
	}
	for _, want := range []string{"list", "create", "delete"} {
		if !sub[want] {
			t.Errorf("Missing quizzes subcommand %q", want)
		}
	}
}

func TestReportNeverStopsTheLoop(t *testing.T) {
	cases := []struct {
		name string
		res  socket.Result
		err  error
	}{
		{"success", socket.Result{OK: true, Message: "success"}, nil},
		{"rejected", socket.Result{OK: false, Message: "quiz has no more questions"}, nil},
		{"timeout", socket.Result{OK: false, Message: "timed out"}, socket.ErrAwaitTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stop, err := report(tc.res, tc.err)
			if stop {
				t.Error("report should not stop the loop")
			}
			if err != nil {
				t.Errorf("report should swallow the error, got %v", err)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}
