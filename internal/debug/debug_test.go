package debug

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() { os.Stderr = oldStderr }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestLogfRespectsEnabled(t *testing.T) {
	oldEnabled := enabled
	oldVerbose := verboseMode
	defer func() {
		enabled = oldEnabled
		verboseMode = oldVerbose
	}()

	enabled = false
	verboseMode = false
	if out := captureStderr(t, func() { Logf("opening %s backend\n", "memory") }); out != "" {
		t.Errorf("Logf() wrote %q while disabled", out)
	}

	enabled = true
	out := captureStderr(t, func() { Logf("opening %s backend\n", "memory") })
	if out != "opening memory backend\n" {
		t.Errorf("Logf() output = %q", out)
	}
}

func TestVerboseFlagEnables(t *testing.T) {
	oldEnabled := enabled
	oldVerbose := verboseMode
	defer func() {
		enabled = oldEnabled
		verboseMode = oldVerbose
	}()

	enabled = false
	verboseMode = false
	if Enabled() {
		t.Error("Enabled() should be false with no env and no flag")
	}

	SetVerbose(true)
	if !Enabled() {
		t.Error("Enabled() should be true after SetVerbose(true)")
	}
}

func TestQuietSuppressesNormalOutput(t *testing.T) {
	oldQuiet := quietMode
	oldStdout := os.Stdout
	defer func() {
		quietMode = oldQuiet
		os.Stdout = oldStdout
	}()

	quietMode = true
	r, w, _ := os.Pipe()
	os.Stdout = w
	PrintNormal("Created case group %s\n", "cg-1")
	PrintlnNormal("done")
	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)

	if buf.Len() != 0 {
		t.Errorf("quiet mode wrote %q", buf.String())
	}
	if !IsQuiet() {
		t.Error("IsQuiet() should be true")
	}
}

func TestLogEventWritesPipeDelimitedEntry(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".caseflow"), 0755); err != nil {
		t.Fatal(err)
	}
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	t.Setenv("CASEFLOW_ACTOR", "pm-1")
	t.Setenv("CASEFLOW_SESSION_ID", "sess-42")

	LogEvent("CASE_APPROVED", "cg-1", "approved by pm-1")

	data, err := os.ReadFile(filepath.Join(dir, ".caseflow", "events.log"))
	if err != nil {
		t.Fatalf("events.log not written: %v", err)
	}
	line := strings.TrimSpace(string(data))
	fields := strings.Split(line, "|")
	if len(fields) != 6 {
		t.Fatalf("expected 6 pipe-delimited fields, got %d: %q", len(fields), line)
	}
	if fields[1] != "CASE_APPROVED" || fields[2] != "cg-1" || fields[3] != "pm-1" || fields[4] != "sess-42" {
		t.Errorf("unexpected event entry: %q", line)
	}
}

func TestLogEventOutsideProjectIsSilent(t *testing.T) {
	dir := t.TempDir()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	// No .caseflow directory anywhere above the temp dir root
	LogEvent("CASE_SUBMITTED", "cg-2", "should not panic or write")

	if _, err := os.Stat(filepath.Join(dir, ".caseflow")); !os.IsNotExist(err) {
		t.Error("LogEvent should not create .caseflow outside a project")
	}
}
