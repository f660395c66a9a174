// Package persist is the durable layer under the store. It writes a small
// subset of the state tree to a data directory: the recent-projects list,
// global settings, and one config file per project (agent rules, env config,
// custom constitution presets, active view). Live session state such as chat
// history, running tasks, and terminal sessions does not survive a restart.
//
// Writes are debounced and coalesced: the store hands over every committed
// tree, and the persister flushes the newest one after a quiet interval, or
// immediately on Flush and Close. All writes go through a temp-file rename
// so a crash never leaves a half-written file behind.
package persist

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/logging"
	"github.com/calmren/atelier/internal/state"
)

const (
	// EnvDataDir overrides the data directory, mainly for test isolation.
	EnvDataDir = "ATELIER_DATA_DIR"

	recentFileName  = "recent-projects.json"
	projectsDirName = "projects"

	// DefaultDebounce is the quiet interval before a coalesced save.
	DefaultDebounce = 500 * time.Millisecond

	formatVersion = 1
)

// DataDir resolves the data directory: the environment override when set,
// otherwise an "atelier" directory under the user config dir.
func DataDir() (string, error) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(base, "atelier"), nil
}

// recentFile is the on-disk shape of the global durable state.
type recentFile struct {
	Version  int                   `json:"version"`
	Recent   []state.RecentProject `json:"recent_projects"`
	Settings state.GlobalSettings  `json:"settings"`
}

// ProjectConfig is the durable per-project subset, keyed by project path so
// it survives the fresh project ids minted on every open.
type ProjectConfig struct {
	Version          int                        `json:"version"`
	Path             string                     `json:"path"`
	Name             string                     `json:"name"`
	ActiveView       string                     `json:"active_view,omitempty"`
	AgentRules       state.AgentRulesConfig     `json:"agent_rules"`
	Env              state.EnvConfig            `json:"env"`
	Presets          []state.ConstitutionPreset `json:"constitution_presets,omitempty"`
	SelectedPresetID string                     `json:"selected_preset_id,omitempty"`
}

// Persister owns all writes to the data directory. Exactly one process may
// hold it at a time; Open fails while another live process has the lock.
type Persister struct {
	dataDir  string
	logger   *logging.Logger
	lock     *processLock
	debounce time.Duration

	mu      sync.Mutex
	pending *state.AppState
	timer   *time.Timer
	closed  bool
	saving  sync.WaitGroup
}

// Open acquires the data directory and its process lock. A debounce of zero
// uses the default.
func Open(dataDir string, debounce time.Duration, logger *logging.Logger) (*Persister, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := os.MkdirAll(filepath.Join(dataDir, projectsDirName), 0o755); err != nil {
		return nil, errors.NewResourceError(errors.CodeIOFailed, "create data dir", err).WithPath(dataDir)
	}
	lock, err := acquireLock(dataDir, logger)
	if err != nil {
		return nil, err
	}
	return &Persister{
		dataDir:  dataDir,
		logger:   logger.WithComponent("persist"),
		lock:     lock,
		debounce: debounce,
	}, nil
}

// Load reconstructs the startup state from disk. A missing file yields a
// fresh tree; a corrupt file is set aside and logged, never fatal.
func (p *Persister) Load() *state.AppState {
	st := state.NewAppState()
	path := filepath.Join(p.dataDir, recentFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			p.logger.Warn("failed to read recent projects", "path", path, "error", err)
		}
		return st
	}
	var rf recentFile
	if err := json.Unmarshal(data, &rf); err != nil {
		p.quarantine(path, err)
		return st
	}
	if rf.Recent != nil {
		st.RecentProjects = rf.Recent
	}
	if rf.Settings.Theme != "" {
		st.Settings = rf.Settings
	}
	return st
}

// ProjectConfigFor loads the durable config for the project at path.
func (p *Persister) ProjectConfigFor(path string) (ProjectConfig, bool) {
	file := p.projectFile(path)
	data, err := os.ReadFile(file)
	if err != nil {
		if !os.IsNotExist(err) {
			p.logger.Warn("failed to read project config", "path", file, "error", err)
		}
		return ProjectConfig{}, false
	}
	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		p.quarantine(file, err)
		return ProjectConfig{}, false
	}
	return cfg, true
}

// Request schedules a coalesced save of st. The tree must be treated as
// read-only; the store hands over committed trees it will never touch again.
func (p *Persister) Request(st *state.AppState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.pending = st
	if p.timer == nil {
		p.timer = time.AfterFunc(p.debounce, p.fire)
	} else {
		p.timer.Reset(p.debounce)
	}
}

// Flush writes any pending tree immediately.
func (p *Persister) Flush() error {
	p.mu.Lock()
	st := p.pending
	p.pending = nil
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()
	if st == nil {
		return nil
	}
	return p.save(st)
}

// Close flushes and releases the process lock.
func (p *Persister) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
	}
	st := p.pending
	p.pending = nil
	p.mu.Unlock()

	p.saving.Wait()
	var err error
	if st != nil {
		err = p.save(st)
	}
	if lerr := p.lock.release(); lerr != nil && err == nil {
		err = lerr
	}
	return err
}

func (p *Persister) fire() {
	p.mu.Lock()
	st := p.pending
	p.pending = nil
	closed := p.closed
	if !closed && st != nil {
		p.saving.Add(1)
	}
	p.mu.Unlock()
	if closed || st == nil {
		return
	}
	defer p.saving.Done()
	if err := p.save(st); err != nil {
		p.logger.Error("save failed", "error", err)
	}
}

func (p *Persister) save(st *state.AppState) error {
	rf := recentFile{
		Version:  formatVersion,
		Recent:   st.RecentProjects,
		Settings: st.Settings,
	}
	if err := p.writeJSON(filepath.Join(p.dataDir, recentFileName), rf); err != nil {
		return err
	}
	for _, proj := range st.Projects {
		if err := p.writeJSON(p.projectFile(proj.Path), projectConfigOf(proj)); err != nil {
			return err
		}
	}
	return nil
}

// projectConfigOf extracts the durable subset. Built-in profiles and presets
// come from the embedded catalogue on every start, so only customs persist.
func projectConfigOf(proj *state.Project) ProjectConfig {
	cfg := ProjectConfig{
		Version:    formatVersion,
		Path:       proj.Path,
		Name:       proj.Name,
		ActiveView: proj.ActiveView,
		AgentRules: state.AgentRulesConfig{
			Enabled:           proj.AgentRules.Enabled,
			Prompt:            proj.AgentRules.Prompt,
			SelectedProfileID: proj.AgentRules.SelectedProfileID,
		},
		Env: state.EnvConfig{
			TrackedPatterns: proj.Env.TrackedPatterns,
			AutoCopy:        proj.Env.AutoCopy,
		},
	}
	for _, prof := range proj.AgentRules.Profiles {
		if !prof.IsBuiltin {
			cfg.AgentRules.Profiles = append(cfg.AgentRules.Profiles, prof)
		}
	}
	if main := proj.MainWorktree(); main != nil {
		for _, preset := range main.Tasks.Constitution.Presets {
			if !preset.IsBuiltin {
				cfg.Presets = append(cfg.Presets, preset)
			}
		}
		cfg.SelectedPresetID = main.Tasks.Constitution.SelectedPresetID
	}
	return cfg
}

func (p *Persister) projectFile(path string) string {
	sum := sha256.Sum256([]byte(path))
	return filepath.Join(p.dataDir, projectsDirName, hex.EncodeToString(sum[:8])+".json")
}

func (p *Persister) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal durable state")
	}
	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return errors.NewResourceError(errors.CodeIOFailed, "write durable state", err).WithPath(path)
	}
	return nil
}

// quarantine moves a corrupt file aside so the next save starts clean.
func (p *Persister) quarantine(path string, cause error) {
	backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if err := os.Rename(path, backup); err != nil {
		p.logger.Error("failed to set aside corrupt file", "path", path, "error", err)
		return
	}
	p.logger.Warn("corrupt durable file set aside", "path", path, "backup", backup, "error", cause)
}

// atomicWriteFile writes via a temp file in the same directory plus rename,
// so readers never observe a partial file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			os.Remove(tmpPath)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	ok = true
	return nil
}
