// Package scopedfile reads files on behalf of untrusted callers. Every read
// carries a scope root; a resolved path escaping the root fails with a
// SECURITY_VIOLATION code before any I/O happens. Reads are further bounded
// by a size cap and a UTF-8 requirement, since everything returned here ends
// up inside the state tree and on the wire as JSON text.
package scopedfile

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/calmren/atelier/internal/errors"
)

// MaxFileSize caps a single scoped read.
const MaxFileSize = 10 << 20 // 10 MiB

// Resolve normalizes path against root and verifies it stays inside. The
// returned path is absolute with symlinks resolved. Containment is checked
// twice: lexically, so a ../ escape fails without touching the filesystem,
// and again after symlink resolution, so a link inside the scope pointing
// out of it cannot smuggle reads past the root.
func Resolve(root, path string) (string, error) {
	if root == "" {
		return "", errors.NewValidationError("scope root is required").WithField("root")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.NewResourceError(errors.CodeIOFailed, "resolve scope root", err).WithPath(root)
	}

	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, target)
	}
	target = filepath.Clean(target)

	if !within(absRoot, target) {
		return "", errors.NewResourceError(errors.CodeSecurityViolation,
			"path escapes its scope", nil).WithPath(path)
	}

	realRoot, err := resolveSymlinks(absRoot)
	if err != nil {
		return "", errors.NewResourceError(errors.CodeIOFailed, "resolve scope root", err).WithPath(root)
	}
	realTarget, err := resolveSymlinks(target)
	if err != nil {
		return "", errors.NewResourceError(errors.CodeIOFailed, "resolve path", err).WithPath(path)
	}
	if !within(realRoot, realTarget) {
		return "", errors.NewResourceError(errors.CodeSecurityViolation,
			"path escapes its scope", nil).WithPath(path)
	}
	return realTarget, nil
}

// resolveSymlinks follows symlinks in path. Trailing components that do not
// exist yet are kept as-is, resolved against their deepest existing
// ancestor, so a missing file still reports FILE_NOT_FOUND instead of an
// I/O error here.
func resolveSymlinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}
	resolvedParent, err := resolveSymlinks(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

// Read returns the UTF-8 contents of path, which must resolve inside root.
func Read(root, path string) (string, error) {
	resolved, err := Resolve(root, path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", statError(resolved, err)
	}
	if info.IsDir() {
		return "", errors.NewResourceError(errors.CodeIOFailed, "path is a directory", nil).WithPath(resolved)
	}
	if info.Size() > MaxFileSize {
		return "", errors.NewResourceError(errors.CodeFileTooLarge,
			"file exceeds the scoped read limit", nil).WithPath(resolved)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", statError(resolved, err)
	}
	if !utf8.Valid(data) {
		return "", errors.NewResourceError(errors.CodeNotUTF8,
			"file is not valid UTF-8", nil).WithPath(resolved)
	}
	return string(data), nil
}

// Exists reports whether path resolves inside root and names a regular file.
func Exists(root, path string) (bool, error) {
	resolved, err := Resolve(root, path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, statError(resolved, err)
	}
	return !info.IsDir(), nil
}

// Entry is one directory listing row.
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// ListDir lists the directory at path within root, directories first is the
// caller's concern; entries come back in readdir order.
func ListDir(root, path string) ([]Entry, error) {
	resolved, err := Resolve(root, path)
	if err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(resolved)
	if err != nil {
		return nil, statError(resolved, err)
	}
	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		e := Entry{Name: d.Name(), IsDir: d.IsDir()}
		if info, err := d.Info(); err == nil {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func statError(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return errors.NewResourceError(errors.CodeFileNotFound, "file not found", err).WithPath(path)
	case os.IsPermission(err):
		return errors.NewResourceError(errors.CodePermissionDenied, "permission denied", err).WithPath(path)
	default:
		return errors.NewResourceError(errors.CodeIOFailed, "read file", err).WithPath(path)
	}
}

func within(root, target string) bool {
	if target == root {
		return true
	}
	return strings.HasPrefix(target, root+string(filepath.Separator))
}
