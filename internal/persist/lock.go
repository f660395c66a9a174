package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/logging"
)

const lockFileName = "atelier.lock"

// ErrDataDirLocked means another live process owns the data directory.
var ErrDataDirLocked = errors.New("data directory is locked by another process")

// lockInfo is the on-disk lock record. The PID drives staleness detection:
// a lock whose process is gone is removed, not honored.
type lockInfo struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	AcquiredAt time.Time `json:"acquired_at"`
}

type processLock struct {
	path   string
	info   lockInfo
	logger *logging.Logger
}

func acquireLock(dataDir string, logger *logging.Logger) (*processLock, error) {
	path := filepath.Join(dataDir, lockFileName)

	if existing, err := readLock(path); err == nil {
		if isProcessAlive(existing.PID) {
			return nil, fmt.Errorf("%w: held by PID %d on %s", ErrDataDirLocked, existing.PID, existing.Hostname)
		}
		logger.Warn("removing stale lock", "path", path, "pid", existing.PID)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "remove stale lock")
		}
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	info := lockInfo{
		PID:        os.Getpid(),
		Hostname:   hostname,
		AcquiredAt: time.Now(),
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal lock info")
	}

	// O_EXCL closes the race against a concurrent starter.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			if existing, rerr := readLock(path); rerr == nil {
				return nil, fmt.Errorf("%w: held by PID %d on %s", ErrDataDirLocked, existing.PID, existing.Hostname)
			}
			return nil, ErrDataDirLocked
		}
		return nil, errors.Wrap(err, "create lock file")
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(path)
		return nil, errors.Wrap(err, "write lock file")
	}

	return &processLock{path: path, info: info, logger: logger}, nil
}

func (l *processLock) release() error {
	existing, err := readLock(l.path)
	if err != nil {
		return nil
	}
	if existing.PID != l.info.PID {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove lock file")
	}
	return nil
}

func readLock(path string) (*lockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// isProcessAlive probes the PID with signal 0.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return err == syscall.EPERM
}
