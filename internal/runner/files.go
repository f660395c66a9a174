package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/scopedfile"
)

// Worktree-relative layout of the app's own files.
const (
	dotDir           = ".atelier"
	constitutionPath = dotDir + "/constitution.md"
	claudeMdPath     = "CLAUDE.md"
	contextDir       = dotDir + "/context"
	changesDir       = dotDir + "/changes"
	archiveDir       = dotDir + "/archive"
)

// contextFileNames are the living-context documents, probed in this order.
var contextFileNames = []string{
	"product.md",
	"tech-stack.md",
	"system-architecture.md",
	"recent-changes.md",
}

func writeConstitution(dir, content string) error {
	p, err := scopedfile.Resolve(dir, constitutionPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.NewResourceError(errors.CodeIOFailed, "create app directory", err).
			WithPath(filepath.Dir(p))
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return errors.NewResourceError(errors.CodeIOFailed, "write constitution", err).
			WithPath(p)
	}
	return nil
}

func probeContextFiles(dir string) []action.ContextFile {
	files := make([]action.ContextFile, 0, len(contextFileNames))
	for _, name := range contextFileNames {
		rel := contextDir + "/" + name
		exists, err := scopedfile.Exists(dir, rel)
		if err != nil {
			exists = false
		}
		files = append(files, action.ContextFile{
			Name:   name,
			Path:   rel,
			Exists: exists,
		})
	}
	return files
}

// syncContextFiles copies the context documents that exist in the main
// worktree over this worktree's copies.
func syncContextFiles(mainDir, dir string) error {
	dst, err := scopedfile.Resolve(dir, contextDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return errors.NewResourceError(errors.CodeIOFailed, "create context directory", err).
			WithPath(dst)
	}
	for _, name := range contextFileNames {
		content, err := scopedfile.Read(mainDir, contextDir+"/"+name)
		if err != nil {
			if errors.CodeOf(err) == errors.CodeFileNotFound {
				continue
			}
			return err
		}
		if err := os.WriteFile(filepath.Join(dst, name), []byte(content), 0o644); err != nil {
			return errors.NewResourceError(errors.CodeIOFailed, "write context file", err).
				WithPath(filepath.Join(dst, name))
		}
	}
	return nil
}

// archiveChangeDir moves the change's directory under the archive. When the
// archive already holds a directory of that name the move gets a timestamp
// suffix instead of clobbering it.
func archiveChangeDir(dir, name string, now time.Time) error {
	src, err := scopedfile.Resolve(dir, changesDir+"/"+name)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(src); statErr != nil {
		return errors.NewResourceError(errors.CodeFileNotFound, "change directory missing", statErr).
			WithPath(src)
	}
	archive, err := scopedfile.Resolve(dir, archiveDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(archive, 0o755); err != nil {
		return errors.NewResourceError(errors.CodeIOFailed, "create archive directory", err).
			WithPath(archive)
	}
	dst := filepath.Join(archive, name)
	if _, statErr := os.Stat(dst); statErr == nil {
		dst = filepath.Join(archive, name+"-"+now.UTC().Format("20060102150405"))
	}
	if err := os.Rename(src, dst); err != nil {
		return errors.NewResourceError(errors.CodeIOFailed, "archive change", err).
			WithPath(src)
	}
	return nil
}

// copyEnvFiles copies files matching the glob patterns from srcDir into
// dstDir, preserving relative paths. Returns the relative paths copied.
func copyEnvFiles(srcDir, dstDir string, patterns []string) ([]string, error) {
	copied := []string{}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(srcDir, pattern))
		if err != nil {
			return copied, errors.NewValidationError("bad env pattern " + pattern)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			rel, err := filepath.Rel(srcDir, m)
			if err != nil {
				continue
			}
			content, err := os.ReadFile(m)
			if err != nil {
				return copied, errors.NewResourceError(errors.CodeIOFailed, "read env file", err).
					WithPath(m)
			}
			target := filepath.Join(dstDir, rel)
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return copied, errors.NewResourceError(errors.CodeIOFailed, "create env directory", err).
					WithPath(filepath.Dir(target))
			}
			if err := os.WriteFile(target, content, info.Mode().Perm()); err != nil {
				return copied, errors.NewResourceError(errors.CodeIOFailed, "write env file", err).
					WithPath(target)
			}
			copied = append(copied, rel)
		}
	}
	return copied, nil
}

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// agentRulesPath is where the active rules prompt is materialized for agent
// sessions. Lives in the OS temp dir, keyed by project so concurrent
// projects do not clobber each other.
func agentRulesPath(projectID string) string {
	safe := unsafeIDChars.ReplaceAllString(projectID, "-")
	return filepath.Join(os.TempDir(), fmt.Sprintf("atelier-agent-rules-%s.txt", safe))
}

func writeAgentRules(projectID, rules string) (string, error) {
	p := agentRulesPath(projectID)
	if rules == "" {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return "", errors.NewResourceError(errors.CodeIOFailed, "remove rules file", err).
				WithPath(p)
		}
		return p, nil
	}
	if err := os.WriteFile(p, []byte(rules), 0o600); err != nil {
		return "", errors.NewResourceError(errors.CodeIOFailed, "write rules file", err).
			WithPath(p)
	}
	return p, nil
}
