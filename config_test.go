package editline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyConfig(t *testing.T) {
	r, _, _ := newTestReader(40, 10)

	err := r.ApplyConfig(&Config{
		Profile: "vi",
		Variables: map[string]interface{}{
			VarBellStyle:   BellNone,
			VarHistorySize: 100,
		},
		Options: map[string]bool{
			string(FlagCaseInsensitive): true,
			string(FlagAutoMenu):        false,
		},
		Bindings: []BindingConfig{
			{Keymap: "emacs", Key: "Control-x,Control-l", Widget: "clear-screen"},
			{Keymap: "emacs", Key: "Meta-h", Macro: "help\r"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, KeymapViIns, r.mainKeymap)
	require.Equal(t, BellNone, r.varString(VarBellStyle))
	require.Equal(t, 100, r.varInt(VarHistorySize))
	require.True(t, r.Flag(FlagCaseInsensitive))
	require.False(t, r.Flag(FlagAutoMenu))

	b, ok := r.keymaps[KeymapEmacs].lookup("\x18\x0c")
	require.True(t, ok)
	require.Equal(t, "clear-screen", b.widget)

	b, ok = r.keymaps[KeymapEmacs].lookup("\x1bh")
	require.True(t, ok)
	require.Equal(t, bindMacro, b.kind)
	require.Equal(t, "help\r", b.macro)
}

func TestApplyConfigRejectsUnknown(t *testing.T) {
	r, _, _ := newTestReader(40, 10)
	require.Error(t, r.ApplyConfig(&Config{Profile: "nano"}))
	require.Error(t, r.ApplyConfig(&Config{Bindings: []BindingConfig{
		{Keymap: "emacs", Key: "Control-a", Widget: "no-such-widget"},
	}}))
}

func TestConfigFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := &Config{
		Profile:   "emacs",
		Variables: map[string]interface{}{VarListMax: 50},
		Options:   map[string]bool{string(FlagListPacked): true},
	}
	require.NoError(t, SaveConfig(path, cfg))

	r, _, _ := newTestReader(40, 10)
	require.NoError(t, r.loadConfigFile(path))
	require.Equal(t, 50, r.varInt(VarListMax))
	require.True(t, r.Flag(FlagListPacked))
}

func TestConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profile: vi
variables:
  bell-style: none
options:
  CASE_INSENSITIVE: true
bindings:
  - keymap: viins
    key: Control-l
    widget: clear-screen
`), 0644))

	r, _, _ := newTestReader(40, 10)
	require.NoError(t, r.loadConfigFile(path))
	require.Equal(t, KeymapViIns, r.mainKeymap)
	require.Equal(t, BellNone, r.varString(VarBellStyle))

	b, ok := r.keymaps[KeymapViIns].lookup("\x0c")
	require.True(t, ok)
	require.Equal(t, "clear-screen", b.widget)
}

func TestWithConfigFileOption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variables:\n  tab-width: 8\n"), 0644))

	grid := newScreenGrid(40, 10)
	term := newFakeTerm(grid, 40, 10)
	r := New(WithTerminal(term), WithSize(40, 10), WithConfigFile(path))
	require.Equal(t, 8, r.varInt(VarTabWidth))
}
