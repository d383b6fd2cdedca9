package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	if err := app.ExecuteWithArgs(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "zantara 0.1.0") {
		t.Errorf("unexpected version output: %q", stdout.String())
	}
}

func TestServeCommand_RequiresProviders(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	// Default config carries no providers, so bootstrap must refuse to
	// start rather than serve a gateway that can never answer.
	err := app.ExecuteWithArgs(context.Background(), []string{"serve"})
	if err == nil {
		t.Fatal("expected serve to fail without providers")
	}
	if !strings.Contains(err.Error(), "provider") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	app := New().WithOutput(&bytes.Buffer{}, &bytes.Buffer{})
	if err := app.ExecuteWithArgs(context.Background(), []string{"frobnicate"}); err == nil {
		t.Fatal("expected unknown command error")
	}
}
