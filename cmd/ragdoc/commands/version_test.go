// ABOUTME: Tests for version command
// ABOUTME: Verifies version info display and SetVersion functionality

package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd_Output(t *testing.T) {
	original := versionInfo
	defer func() { versionInfo = original }()

	SetVersion("1.2.3", "abc123", "2026-01-31")

	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	outputStr := output.String()
	for _, expected := range []string{"ragdoc 1.2.3", "Commit: abc123", "Built:  2026-01-31", "Go:     go"} {
		if !strings.Contains(outputStr, expected) {
			t.Errorf("Output should contain %q, got:\n%s", expected, outputStr)
		}
	}
}

func TestSetVersion(t *testing.T) {
	original := versionInfo
	defer func() { versionInfo = original }()

	SetVersion("v2.0.0", "deadbeef", "2026-10-01")
	if versionInfo.Version != "v2.0.0" || versionInfo.Commit != "deadbeef" || versionInfo.Date != "2026-10-01" {
		t.Errorf("versionInfo = %+v", versionInfo)
	}
}

func TestVersionCmd_JSON(t *testing.T) {
	original := versionInfo
	defer func() { versionInfo = original }()
	SetVersion("1.2.3", "abc123", "2026-01-31")

	out, err := run(t, "--format", "json", "version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, expected := range []string{`"version": "1.2.3"`, `"commit": "abc123"`, `"built": "2026-01-31"`} {
		if !strings.Contains(out, expected) {
			t.Errorf("JSON output should contain %s, got:\n%s", expected, out)
		}
	}
}
