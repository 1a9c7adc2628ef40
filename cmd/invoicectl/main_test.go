package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "invoices.db"))
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "factures"))
	t.Setenv("REDIS_ADDR", "")

	var out bytes.Buffer
	app := newCLI()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	err := app.RunContext(context.Background(), append([]string{"invoicectl", "--env-file", filepath.Join(dir, "none.env")}, args...))
	return out.String(), err
}

func TestListEmpty(t *testing.T) {
	out, err := runCLI(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasPrefix(out, "NUMBER") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewNeedsConfirmation(t *testing.T) {
	_, err := runCLI(t, "--lang", "en", "new")
	if err == nil || !strings.Contains(err.Error(), "confirmation required") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	out, err := runCLI(t, "--lang", "en", "new", "--yes")
	if err != nil || !strings.Contains(out, "New invoice 000002 created") {
		t.Fatalf("new: %q %v", out, err)
	}
}

func TestDownloadIncompleteDraft(t *testing.T) {
	_, err := runCLI(t, "--lang", "en", "download")
	if err == nil || !strings.Contains(err.Error(), "At least one product is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTestConnectionUnknownChannel(t *testing.T) {
	_, err := runCLI(t, "--lang", "en", "test-connection", "--channel", "fax")
	if err == nil || !strings.Contains(err.Error(), "Unknown delivery channel: fax") {
		t.Fatalf("expected unknown channel, got %v", err)
	}
}
