// Package config implements persisted system state: the system
// identity, authentication policy, and per-printer configuration that
// must survive a restart. State is serialized as YAML and written
// atomically (temp file + rename) so a crash mid-write never leaves a
// partially-written config file behind.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rusq/osenv/v2"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is written to every saved document and checked on
// load so future releases can detect and migrate older formats.
const CurrentVersion = 1

// defaultConfigDir is used when IPPD_CONFIG_DIR is unset.
var defaultConfigDir = osenv.Value("IPPD_CONFIG_DIR", filepath.Join(os.Getenv("HOME"), ".config", "ippd"))

// DefaultPath returns the config file path used when none is given
// explicitly on the command line.
func DefaultPath() string {
	return filepath.Join(defaultConfigDir, "config.yaml")
}

// AuthPolicy mirrors session.Policy's persisted fields; it is decoded
// from disk and handed to session.New at startup.
type AuthPolicy struct {
	Mode         string `yaml:"mode"`
	Realm        string `yaml:"realm,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
	SessionKey   string `yaml:"session_key,omitempty"`
}

// PrinterConfig is the persisted configuration for a single printer:
// the pieces that survive a restart, as distinct from the runtime
// model.Printer state (job queues, current printer-state, and so on)
// which is rebuilt from this at startup.
type PrinterConfig struct {
	Name         string            `yaml:"name"`
	MakeModel    string            `yaml:"make_model"`
	Info         string            `yaml:"info,omitempty"`
	DeviceURI    string            `yaml:"device_uri"`
	Driver       string            `yaml:"driver"`
	ReadyMedia   []string          `yaml:"ready_media,omitempty"`
	Defaults     map[string]string `yaml:"defaults,omitempty"`
	MaxJobs      int               `yaml:"max_jobs,omitempty"`
	MaxActiveJob int               `yaml:"max_active_jobs,omitempty"`
}

// State is the top-level persisted document.
type State struct {
	Version         int             `yaml:"version"`
	SystemName      string          `yaml:"system_name"`
	Contact         string          `yaml:"contact,omitempty"`
	Location        string          `yaml:"location,omitempty"`
	Organization    string          `yaml:"organization,omitempty"`
	DefaultPrinter  string          `yaml:"default_printer,omitempty"`
	Auth            AuthPolicy      `yaml:"auth"`
	Printers        []PrinterConfig `yaml:"printers,omitempty"`
	RetainedJobDays int             `yaml:"retained_job_days,omitempty"`
}

// New returns an empty document tagged with CurrentVersion.
func New() *State {
	return &State{Version: CurrentVersion}
}

// Load reads and decodes path. A missing file is not an error; it
// returns a fresh State so first-run startup can proceed without a
// pre-existing config.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if st.Version > CurrentVersion {
		return nil, fmt.Errorf("config: %s was written by a newer version (document version %d, supported %d)", path, st.Version, CurrentVersion)
	}
	if st.Version == 0 {
		st.Version = CurrentVersion
	}
	return &st, nil
}

// Save atomically replaces path with st's YAML encoding: it writes to
// a temp file in the same directory, then renames over the
// destination, so a concurrent reader or a crash mid-write never sees
// a truncated file.
func Save(path string, st *State) error {
	if st.Version == 0 {
		st.Version = CurrentVersion
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("config: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("config: rename into place: %w", err)
	}
	return nil
}

// Printer looks up a printer's persisted configuration by name.
func (st *State) Printer(name string) (PrinterConfig, bool) {
	for _, p := range st.Printers {
		if p.Name == name {
			return p, true
		}
	}
	return PrinterConfig{}, false
}

// SetPrinter replaces or appends pc in st.Printers, keyed by name.
func (st *State) SetPrinter(pc PrinterConfig) {
	for i, p := range st.Printers {
		if p.Name == pc.Name {
			st.Printers[i] = pc
			return
		}
	}
	st.Printers = append(st.Printers, pc)
}

// RemovePrinter deletes a printer's persisted configuration by name.
func (st *State) RemovePrinter(name string) {
	for i, p := range st.Printers {
		if p.Name == name {
			st.Printers = append(st.Printers[:i], st.Printers[i+1:]...)
			return
		}
	}
}
