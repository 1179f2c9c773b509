package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRecordOrderAndCounts(t *testing.T) {
	e := New()
	e.Warnf(CodeVersionTooLow, "toolkit %s too old for %s", "7.0", "sm_60")
	e.Errorf(CodeNoDeviceLibrary, "cannot find device support library for %s", "sm_60")
	e.Errorf(CodeNoDeviceLibrary, "cannot find device support library for %s", "gfx900")

	recs := e.Records()
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[0].Severity != SeverityWarning || recs[0].Code != CodeVersionTooLow {
		t.Fatalf("first record = %+v", recs[0])
	}
	if !strings.Contains(recs[1].Message, "sm_60") {
		t.Fatalf("second record message = %q", recs[1].Message)
	}
	if e.ErrorCount() != 2 {
		t.Fatalf("error count = %d, want 2", e.ErrorCount())
	}
	if e.CountCode(CodeNoDeviceLibrary) != 2 {
		t.Fatalf("code count = %d, want 2", e.CountCode(CodeNoDeviceLibrary))
	}
	if e.CountCode(CodeNoInstallation) != 0 {
		t.Fatalf("unrelated code count = %d, want 0", e.CountCode(CodeNoInstallation))
	}
}

func TestRecordsAreCopied(t *testing.T) {
	e := New()
	e.Warnf(CodeUnsupportedArch, "unsupported device architecture: %s", "sm_99")
	recs := e.Records()
	recs[0].Message = "mutated"
	if e.Records()[0].Message == "mutated" {
		t.Fatal("Records must return a copy")
	}
}

func TestLoggerMirroring(t *testing.T) {
	var buf bytes.Buffer
	e := New()
	e.SetLogger(zerolog.New(&buf))
	e.Errorf(CodeNoInstallation, "cannot find device toolkit installation")

	out := buf.String()
	if !strings.Contains(out, `"level":"error"`) {
		t.Fatalf("log output missing level: %s", out)
	}
	if !strings.Contains(out, string(CodeNoInstallation)) {
		t.Fatalf("log output missing code: %s", out)
	}
}
