package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"serve", "mcp", "ports", "probe", "ping", "send"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRootCmd_Version(t *testing.T) {
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(buf.String(), "photorig") {
		t.Errorf("version output should name the binary, got %q", buf.String())
	}
}

func TestSendCmd_RejectsUnknownKind(t *testing.T) {
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"send", "frobnicate", "--port", "/dev/null"})

	err := root.Execute()
	if err == nil {
		t.Fatal("expected an error for an unknown command kind")
	}
	if !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("error should name the bad kind, got %v", err)
	}
}

func TestSendCmd_RejectsBadPayload(t *testing.T) {
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"send", "ping", "--port", "/dev/null", "--data", "{not json"})

	err := root.Execute()
	if err == nil {
		t.Fatal("expected an error for malformed --data")
	}
	if !strings.Contains(err.Error(), "--data") {
		t.Errorf("error should mention --data, got %v", err)
	}
}
