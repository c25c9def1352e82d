package editline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Config is the YAML configuration file format. All sections are optional.
//
//	profile: vi
//	variables:
//	  history-file: ~/.editline_history
//	  bell-style: none
//	options:
//	  CASE_INSENSITIVE: true
//	bindings:
//	  - {keymap: emacs, key: "Control-x,Control-l", widget: clear-screen}
//	  - {keymap: emacs, key: Meta-h, macro: "help\r"}
type Config struct {
	// Profile selects the main keymap: "emacs" or "vi".
	Profile   string                 `yaml:"profile"`
	Variables map[string]interface{} `yaml:"variables"`
	Options   map[string]bool        `yaml:"options"`
	Bindings  []BindingConfig        `yaml:"bindings"`
}

// BindingConfig is one key binding entry. Exactly one of Widget and Macro
// must be set.
type BindingConfig struct {
	Keymap string `yaml:"keymap"`
	Key    string `yaml:"key"`
	Widget string `yaml:"widget"`
	Macro  string `yaml:"macro"`
}

// configPaths returns the candidate configuration file paths in order of
// priority.
func configPaths() []string {
	homeDir, _ := os.UserHomeDir()
	return []string{
		filepath.Join(homeDir, ".editlinerc.yaml"),
		filepath.Join(homeDir, ".config", "editline", "config.yaml"),
	}
}

// LoadConfig loads the first config file found at the default paths. A
// missing file is not an error.
func (r *Reader) LoadConfig() error {
	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			return r.loadConfigFile(path)
		}
	}
	return nil
}

func (r *Reader) loadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return r.ApplyConfig(&cfg)
}

// ApplyConfig applies a parsed configuration to the Reader.
func (r *Reader) ApplyConfig(cfg *Config) error {
	switch cfg.Profile {
	case "":
	case "emacs":
		if err := r.SetKeyMap(KeymapEmacs); err != nil {
			return err
		}
	case "vi", "viins":
		if err := r.SetKeyMap(KeymapViIns); err != nil {
			return err
		}
	default:
		return fmt.Errorf("editline: unknown profile %q", cfg.Profile)
	}
	for name, value := range cfg.Variables {
		r.SetVariable(name, value)
	}
	for name, on := range cfg.Options {
		r.SetFlag(Flag(name), on)
	}
	for _, b := range cfg.Bindings {
		keymap := b.Keymap
		if keymap == "" {
			keymap = r.mainKeymap
		}
		var err error
		if b.Macro != "" {
			err = r.BindMacro(keymap, b.Key, b.Macro)
		} else {
			err = r.BindKey(keymap, b.Key, b.Widget)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveConfig writes a configuration to path, creating parent directories as
// needed.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
