package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/calmren/atelier/internal/errors"
)

func TestWriteConstitutionCreatesAppDir(t *testing.T) {
	dir := t.TempDir()
	if err := writeConstitution(dir, "# Constitution\n"); err != nil {
		t.Fatalf("writeConstitution: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, ".atelier", "constitution.md"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "# Constitution\n" {
		t.Fatalf("content = %q", content)
	}
}

func TestProbeContextFiles(t *testing.T) {
	dir := t.TempDir()
	ctxDir := filepath.Join(dir, ".atelier", "context")
	if err := os.MkdirAll(ctxDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ctxDir, "product.md"), []byte("# Product"), 0o644); err != nil {
		t.Fatal(err)
	}

	files := probeContextFiles(dir)
	if len(files) != 4 {
		t.Fatalf("len(files) = %d, want 4", len(files))
	}
	byName := map[string]bool{}
	for _, f := range files {
		byName[f.Name] = f.Exists
	}
	if !byName["product.md"] {
		t.Error("product.md should exist")
	}
	if byName["tech-stack.md"] {
		t.Error("tech-stack.md should not exist")
	}
}

func TestSyncContextFilesCopiesExisting(t *testing.T) {
	mainDir := t.TempDir()
	dir := t.TempDir()
	srcCtx := filepath.Join(mainDir, ".atelier", "context")
	if err := os.MkdirAll(srcCtx, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcCtx, "tech-stack.md"), []byte("Go 1.25"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := syncContextFiles(mainDir, dir); err != nil {
		t.Fatalf("syncContextFiles: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, ".atelier", "context", "tech-stack.md"))
	if err != nil {
		t.Fatalf("read copied file: %v", err)
	}
	if string(content) != "Go 1.25" {
		t.Fatalf("content = %q", content)
	}
	// Absent documents are skipped, not created.
	if _, err := os.Stat(filepath.Join(dir, ".atelier", "context", "product.md")); !os.IsNotExist(err) {
		t.Error("product.md should not have been created")
	}
}

func TestArchiveChangeDir(t *testing.T) {
	dir := t.TempDir()
	changeDir := filepath.Join(dir, ".atelier", "changes", "add-auth")
	if err := os.MkdirAll(changeDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(changeDir, "proposal.md"), []byte("# Proposal"), 0o644); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := archiveChangeDir(dir, "add-auth", now); err != nil {
		t.Fatalf("archiveChangeDir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".atelier", "archive", "add-auth", "proposal.md")); err != nil {
		t.Fatalf("archived proposal missing: %v", err)
	}
	if _, err := os.Stat(changeDir); !os.IsNotExist(err) {
		t.Error("source change dir should be gone")
	}
}

func TestArchiveChangeDirCollisionGetsSuffix(t *testing.T) {
	dir := t.TempDir()
	changeDir := filepath.Join(dir, ".atelier", "changes", "add-auth")
	if err := os.MkdirAll(changeDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ".atelier", "archive", "add-auth"), 0o755); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := archiveChangeDir(dir, "add-auth", now); err != nil {
		t.Fatalf("archiveChangeDir: %v", err)
	}
	suffixed := filepath.Join(dir, ".atelier", "archive", "add-auth-20260304050607")
	if _, err := os.Stat(suffixed); err != nil {
		t.Fatalf("suffixed archive dir missing: %v", err)
	}
}

func TestArchiveChangeDirMissingSource(t *testing.T) {
	err := archiveChangeDir(t.TempDir(), "nope", time.Now())
	if errors.CodeOf(err) != errors.CodeFileNotFound {
		t.Fatalf("code = %v, want FILE_NOT_FOUND", errors.CodeOf(err))
	}
}

func TestCopyEnvFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	for name, content := range map[string]string{
		".env":       "A=1",
		".env.local": "B=2",
		"main.go":    "package main",
	} {
		if err := os.WriteFile(filepath.Join(src, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	copied, err := copyEnvFiles(src, dst, []string{".env", ".env.*"})
	if err != nil {
		t.Fatalf("copyEnvFiles: %v", err)
	}
	if len(copied) != 2 {
		t.Fatalf("copied = %v, want 2 entries", copied)
	}
	content, err := os.ReadFile(filepath.Join(dst, ".env.local"))
	if err != nil {
		t.Fatalf("read copied file: %v", err)
	}
	if string(content) != "B=2" {
		t.Fatalf("content = %q", content)
	}
	if _, err := os.Stat(filepath.Join(dst, "main.go")); !os.IsNotExist(err) {
		t.Error("main.go should not have been copied")
	}
}

func TestWriteAgentRules(t *testing.T) {
	path, err := writeAgentRules("proj/../123", "be careful")
	if err != nil {
		t.Fatalf("writeAgentRules: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	if got, want := filepath.Base(path), "atelier-agent-rules-proj----123.txt"; got != want {
		t.Fatalf("file name = %q, want %q", got, want)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rules: %v", err)
	}
	if string(content) != "be careful" {
		t.Fatalf("content = %q", content)
	}

	// Empty rules remove the file.
	if _, err := writeAgentRules("proj/../123", ""); err != nil {
		t.Fatalf("remove rules: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("rules file should be gone")
	}
}
