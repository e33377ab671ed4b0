package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vovakirdan/wiregate/internal/auth"
)

func TestHashPasswordCommand(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
	}{
		{name: "argument", args: []string{"hash-password", "hunter22"}},
		{name: "stdin", args: []string{"hash-password"}, stdin: "hunter22\n"},
		{name: "stdin without newline", args: []string{"hash-password"}, stdin: "hunter22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetArgs(tt.args)
			cmd.SetIn(strings.NewReader(tt.stdin))
			cmd.SetOut(&out)

			if err := cmd.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}
			hash := strings.TrimSpace(out.String())
			if err := auth.ComparePassword(hash, "hunter22"); err != nil {
				t.Fatalf("hash does not match password: %v", err)
			}
		})
	}
}

func TestHashPasswordCommandRejectsEmpty(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"hash-password"})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for empty input")
	}
}
