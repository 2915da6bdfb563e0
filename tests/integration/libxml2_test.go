// libxml2 tool integration tests (xmllint).
// These tests require libxml2-utils to be installed.
package integration

import (
	"os/exec"
	"strings"
	"testing"
)

// TestXMLLintAvailable checks if xmllint is installed.
func TestXMLLintAvailable(t *testing.T) {
	if !HasTool(ToolXMLLint) {
		t.Skip("xmllint not installed")
	}

	cmd := exec.Command("xmllint", "--version")
	output, _ := cmd.CombinedOutput() // May output to stderr

	if !strings.Contains(string(output), "xmllint") && !strings.Contains(string(output), "libxml") {
		t.Errorf("unexpected xmllint output: %s", output)
	}

	t.Logf("xmllint version info: %s", strings.Split(string(output), "\n")[0])
}

// TestXMLLintValidateExport checks the chant export fixture is
// well-formed XML.
func TestXMLLintValidateExport(t *testing.T) {
	RequireTool(t, ToolXMLLint)

	tempDir := t.TempDir()
	exportPath := writePipelineExport(t, tempDir, "export.xml", []byte(pipelineExport))

	cmd := exec.Command("xmllint", "--noout", exportPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Errorf("valid export failed validation: %v\nOutput: %s", err, output)
	}

	// A truncated export must fail
	badPath := writePipelineExport(t, tempDir, "truncated.xml", []byte("<chants><chant></chants>"))
	cmd = exec.Command("xmllint", "--noout", badPath)
	if err := cmd.Run(); err == nil {
		t.Error("truncated export passed validation")
	} else {
		t.Log("correctly detected truncated export")
	}
}

// TestXMLLintXPathChantCount counts chant elements the same way the
// importer does.
func TestXMLLintXPathChantCount(t *testing.T) {
	RequireTool(t, ToolXMLLint)

	tempDir := t.TempDir()
	exportPath := writePipelineExport(t, tempDir, "export.xml", []byte(pipelineExport))

	cmd := exec.Command("xmllint", "--xpath", "count(//chant)", exportPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("xpath query failed: %v\nOutput: %s", err, output)
	}

	if strings.TrimSpace(string(output)) != "4" {
		t.Errorf("chant count = %s, want 4", strings.TrimSpace(string(output)))
	}
}
