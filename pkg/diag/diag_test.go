package diag_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mikesamuel/comehere/pkg/diag"
)

func TestConsoleRoutesErrorsAndWarningsToErr(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &diag.Console{Out: &out, Err: &errOut}

	c.Error("bad thing: %d", 1)
	c.Warn("heads up: %s", "careful")
	c.Info("fyi")
	c.Log("log line")

	if !strings.Contains(errOut.String(), "error: bad thing: 1") {
		t.Fatalf("expected error message on Err, got %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "warning: heads up: careful") {
		t.Fatalf("expected warning message on Err, got %q", errOut.String())
	}
	if !strings.Contains(out.String(), "fyi") || !strings.Contains(out.String(), "log line") {
		t.Fatalf("expected info/log messages on Out, got %q", out.String())
	}
}

func TestRecordingBuffersEveryChannel(t *testing.T) {
	r := &diag.Recording{}
	r.Error("e %d", 1)
	r.Warn("w %d", 2)
	r.Info("i %d", 3)
	r.Log("l %d", 4)

	if len(r.Errors) != 1 || r.Errors[0] != "e 1" {
		t.Fatalf("Errors unexpected: %#v", r.Errors)
	}
	if len(r.Warns) != 1 || r.Warns[0] != "w 2" {
		t.Fatalf("Warns unexpected: %#v", r.Warns)
	}
	if len(r.Infos) != 1 || r.Infos[0] != "i 3" {
		t.Fatalf("Infos unexpected: %#v", r.Infos)
	}
	if len(r.Logs) != 1 || r.Logs[0] != "l 4" {
		t.Fatalf("Logs unexpected: %#v", r.Logs)
	}
}
