// SQLite tool integration tests.
// These tests require the sqlite3 CLI to be installed.
package integration

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chantworks/cantilena/core/align"
	"github.com/chantworks/cantilena/internal/corpus"
)

// buildCorpusDB imports the pipeline fixture into a fresh database and
// returns its path, with the store already closed.
func buildCorpusDB(t *testing.T, dir string, runAlign bool) string {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(dir, "corpus.db")

	store, err := corpus.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	exportPath := writePipelineExport(t, dir, "export.xml", []byte(pipelineExport))
	if _, err := store.Import(ctx, exportPath); err != nil {
		store.Close()
		t.Fatalf("failed to import export: %v", err)
	}
	if runAlign {
		if _, err := store.AlignAll(ctx, align.Options{}); err != nil {
			store.Close()
			t.Fatalf("failed to align corpus: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
	return dbPath
}

// TestSQLite3Available checks if sqlite3 is installed.
func TestSQLite3Available(t *testing.T) {
	if !HasTool(ToolSQLite3) {
		t.Skip("sqlite3 not installed")
	}

	output, err := RunTool(t, ToolSQLite3, "--version")
	if err != nil {
		t.Fatalf("sqlite3 --version failed: %v", err)
	}

	if !strings.Contains(output, "3.") {
		t.Errorf("unexpected sqlite3 output: %s", output)
	}

	t.Logf("sqlite3 version: %s", strings.TrimSpace(output))
}

// TestSQLite3CorpusSchema dumps the corpus schema with the sqlite3 CLI.
func TestSQLite3CorpusSchema(t *testing.T) {
	RequireTool(t, ToolSQLite3)

	dbPath := buildCorpusDB(t, t.TempDir(), false)

	cmd := exec.Command("sqlite3", dbPath, ".schema")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("schema dump failed: %v\nOutput: %s", err, output)
	}

	schema := string(output)
	if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS chants") {
		t.Error("chants table not found in schema")
	}
	if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS runs") {
		t.Error("runs table not found in schema")
	}
	if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS results") {
		t.Error("results table not found in schema")
	}
	if !strings.Contains(schema, "CREATE INDEX") {
		t.Error("index not found in schema")
	}

	t.Log("successfully dumped schema")
}

// TestSQLite3CorpusQuery queries stored chants with the sqlite3 CLI.
func TestSQLite3CorpusQuery(t *testing.T) {
	RequireTool(t, ToolSQLite3)

	dbPath := buildCorpusDB(t, t.TempDir(), false)

	cmd := exec.Command("sqlite3", dbPath, "SELECT incipit FROM chants ORDER BY id;")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("query failed: %v\nOutput: %s", err, output)
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "Sanctus sanctus") {
		t.Errorf("expected incipit not found: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Kyrie") {
		t.Errorf("expected incipit not found: %s", outputStr)
	}

	t.Log("successfully queried chants")
}

// TestSQLite3RunResults checks recorded alignment results from outside
// the process that wrote them.
func TestSQLite3RunResults(t *testing.T) {
	RequireTool(t, ToolSQLite3)

	dbPath := buildCorpusDB(t, t.TempDir(), true)

	cmd := exec.Command("sqlite3", dbPath, "SELECT count(*) FROM results;")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("results query failed: %v\nOutput: %s", err, output)
	}
	if strings.TrimSpace(string(output)) != "4" {
		t.Errorf("results count = %s, want 4", strings.TrimSpace(string(output)))
	}

	cmd = exec.Command("sqlite3", dbPath, "SELECT review_count, error_count FROM runs;")
	output, err = cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("runs query failed: %v\nOutput: %s", err, output)
	}
	if strings.TrimSpace(string(output)) != "2|1" {
		t.Errorf("run counts = %s, want 2|1", strings.TrimSpace(string(output)))
	}

	t.Log("successfully checked run results")
}

// TestSQLite3ExportCSV exports chants to CSV with the sqlite3 CLI.
func TestSQLite3ExportCSV(t *testing.T) {
	RequireTool(t, ToolSQLite3)

	dbPath := buildCorpusDB(t, t.TempDir(), false)

	cmd := exec.Command("sqlite3", "-header", "-csv", dbPath, "SELECT cantus_id, incipit, volpiano FROM chants ORDER BY id;")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("CSV export failed: %v\nOutput: %s", err, output)
	}

	csv := string(output)
	if !strings.Contains(csv, "cantus_id,incipit,volpiano") {
		t.Error("CSV header not found")
	}
	if !strings.Contains(csv, "100100") {
		t.Error("cantus ID not found in CSV")
	}
	if !strings.Contains(csv, "1---g--h---j--k---3") {
		t.Error("volpiano not found in CSV")
	}

	t.Logf("successfully exported to CSV (%d bytes)", len(output))
}
