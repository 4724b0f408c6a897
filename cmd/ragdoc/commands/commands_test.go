// ABOUTME: End-to-end tests for the document commands against an offline SQLite index
// ABOUTME: Runs upload, list, generate, chunk, status, eval, and delete through the root command

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/ragdoc/internal/models"
)

// offlineEnv points every command at the offline providers and a temp index
func offlineEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RAGDOC_CONFIG", "")
	t.Setenv("LLM_PROVIDER", "offline")
	t.Setenv("EMBEDDING_PROVIDER", "offline")
	t.Setenv("EMBEDDING_DIMENSION", "512")
	t.Setenv("INDEX_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "index.db"))
	t.Setenv("TOKENIZER", "words")
	t.Setenv("CHUNK_SIZE", "40")
	t.Setenv("CHUNK_OVERLAP", "5")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDocumentLifecycle(t *testing.T) {
	dir := offlineEnv(t)
	remote := writeFile(t, dir, "remote.txt", "Remote work requires manager approval. Employees may work remotely two days per week.")
	finance := writeFile(t, dir, "finance.txt", "Quarterly revenue grew in Europe.")

	out, err := run(t, "--format", "json", "upload", remote, finance)
	if err != nil {
		t.Fatalf("upload: %v\n%s", err, out)
	}
	var summary models.UploadSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("upload output is not JSON: %v\n%s", err, out)
	}
	if summary.SuccessfulUploads != 2 {
		t.Fatalf("SuccessfulUploads = %d, files: %+v", summary.SuccessfulUploads, summary.Files)
	}

	// a second upload of the same file is rejected
	out, err = run(t, "upload", remote)
	if err == nil {
		t.Error("duplicate upload should fail")
	}
	if !strings.Contains(out, "already exists") {
		t.Errorf("duplicate output should explain the failure, got:\n%s", out)
	}

	out, err = run(t, "--format", "json", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var list models.DocumentList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out)
	}
	if list.TotalDocuments != 2 {
		t.Fatalf("TotalDocuments = %d, want 2", list.TotalDocuments)
	}

	out, err = run(t, "--format", "json", "generate", "--type", "faq", "--filename", "remote", "remote work manager approval")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	var result models.GenerationResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("generate output is not JSON: %v\n%s", err, out)
	}
	if len(result.Sources) != 1 || result.Sources[0].Filename != "remote.txt" {
		t.Errorf("sources = %+v, want only remote.txt", result.Sources)
	}
	if !strings.Contains(result.GeneratedContent, "manager approval") {
		t.Errorf("generated content = %q", result.GeneratedContent)
	}

	out, err = run(t, "generate", "remote work manager approval")
	if err != nil {
		t.Fatalf("generate table: %v", err)
	}
	for _, want := range []string{"Sources:", "remote.txt", "high"} {
		if !strings.Contains(out, want) {
			t.Errorf("generate output should contain %q, got:\n%s", want, out)
		}
	}

	var financeID string
	for _, d := range list.Documents {
		if d.Filename == "finance.txt" {
			financeID = d.DocumentID
		}
	}
	out, err = run(t, "delete", financeID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Deleted document "+financeID) {
		t.Errorf("delete output = %q", out)
	}
	if _, err := run(t, "delete", financeID); err == nil {
		t.Error("deleting twice should fail")
	}

	out, err = run(t, "list")
	if err != nil {
		t.Fatalf("list table: %v", err)
	}
	if strings.Contains(out, "finance.txt") || !strings.Contains(out, "remote.txt") {
		t.Errorf("list after delete:\n%s", out)
	}
}

func TestGenerate_Validation(t *testing.T) {
	offlineEnv(t)

	if _, err := run(t, "generate", "--type", "poem", "write something about the docs"); err == nil {
		t.Error("unknown generation type should fail")
	}
	if _, err := run(t, "generate", "short"); err == nil {
		t.Error("query under ten characters should fail")
	}

	out, err := run(t, "--format", "json", "generate", "anything at all from an empty index")
	if err != nil {
		t.Fatalf("generate on empty index: %v", err)
	}
	var result models.GenerationResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Sources) != 0 || result.Warning == nil {
		t.Errorf("expected no sources with a warning, got %+v", result)
	}
}

func TestGenerate_OutputFile(t *testing.T) {
	dir := offlineEnv(t)
	doc := writeFile(t, dir, "guide.txt", "Backups run nightly at two in the morning.")
	if _, err := run(t, "upload", doc); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(dir, "out.md")
	if _, err := run(t, "--quiet", "generate", "--output", target, "when do backups run nightly"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Backups run nightly") {
		t.Errorf("output file = %q", data)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	offlineEnv(t)
	if _, err := run(t, "upload", "/does/not/exist.txt"); err == nil {
		t.Error("missing file should fail")
	}
}

func TestChunkCmd(t *testing.T) {
	dir := offlineEnv(t)
	doc := writeFile(t, dir, "notes.txt", strings.Repeat("This sentence has exactly six words. ", 20))

	out, err := run(t, "--format", "json", "chunk", "--size", "20", "--overlap", "6", doc)
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	var preview models.ChunkPreview
	if err := json.Unmarshal([]byte(out), &preview); err != nil {
		t.Fatalf("chunk output is not JSON: %v\n%s", err, out)
	}
	if preview.ChunkSize != 20 || preview.ChunkOverlap != 6 {
		t.Errorf("preview sizes = %d/%d", preview.ChunkSize, preview.ChunkOverlap)
	}
	if preview.Sentences != 20 || len(preview.Chunks) < 2 {
		t.Errorf("preview = %d sentences, %d chunks", preview.Sentences, len(preview.Chunks))
	}

	out, err = run(t, "chunk", doc)
	if err != nil {
		t.Fatalf("chunk table: %v", err)
	}
	if !strings.Contains(out, "CHUNK") || !strings.Contains(out, "notes.txt") {
		t.Errorf("chunk table output:\n%s", out)
	}

	if _, err := run(t, "chunk", writeFile(t, dir, "image.png", "x")); err == nil {
		t.Error("unsupported type should fail")
	}
}

func TestStatusCmd(t *testing.T) {
	dir := offlineEnv(t)
	if _, err := run(t, "upload", writeFile(t, dir, "a.txt", "Alpha beta gamma.")); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--format", "json", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var st models.IndexStatus
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatal(err)
	}
	if st.Status != "healthy" || st.IndexBackend != "sqlite" || st.TotalDocuments != 1 || st.TotalChunks != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestEvalCmd(t *testing.T) {
	dir := offlineEnv(t)
	suite := writeFile(t, dir, "suite.yaml", `
name: offline
documents:
  - filename: remote.txt
    text: Remote work requires manager approval for employees.
cases:
  - id: remote
    query: remote work approval policy for employees
    ground_truth:
      expected_in_response: [manager approval]
      expected_sources: [remote.txt]
`)
	report := filepath.Join(dir, "results.json")

	out, err := run(t, "eval", "--output", report, suite)
	if err != nil {
		t.Fatalf("eval: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Passed: 1") {
		t.Errorf("eval output:\n%s", out)
	}
	if _, err := os.Stat(report); err != nil {
		t.Errorf("report not written: %v", err)
	}

	failing := writeFile(t, dir, "failing.yaml", `
cases:
  - id: missing
    query: remote work approval policy for employees
    ground_truth:
      expected_in_response: [unicorn]
`)
	if _, err := run(t, "eval", failing); err == nil {
		t.Error("a failing case should fail the command")
	}
}
