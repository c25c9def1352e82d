package editline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKeySpec(t *testing.T) {
	cases := map[string][]string{
		"a":                   {"a"},
		"Control-a":           {"\x01"},
		"Control-Space":       {"\x00"},
		"Control-_":           {"\x1f"},
		"Control-?":           {"\x7f"},
		"Meta-b":              {"\x1bb"},
		"Meta-Control-h":      {"\x1b\x08"},
		"Control-x,Control-u": {"\x18\x15"},
		"Tab":                 {"\t"},
		"Enter":               {"\r"},
		"Backspace":           {"\x7f"},
		"Shift-Tab":           {"\x1b[Z"},
		"Up":                  {"\x1b[A", "\x1bOA"},
		"Delete":              {"\x1b[3~"},
		"Control-Left":        {"\x1b[1;5D", "\x1bOd"},
		"Meta-Right":          {"\x1b[1;3C", "\x1b[1;9C"},
		"i,w":                 {"iw"},
		"Meta--":              {"\x1b-"},
	}
	for spec, want := range cases {
		got, err := parseKeySpec(spec)
		require.NoErrorf(t, err, "%q", spec)
		require.Equalf(t, want, got, "%q", spec)
	}

	for _, spec := range []string{"", "Control-", "abc", "Control-Control-a"} {
		_, err := parseKeySpec(spec)
		require.Errorf(t, err, "%q", spec)
	}
}

func TestKeyMapBindLookup(t *testing.T) {
	m := newKeyMap("test", true)
	m.bind("\x01", widgetBinding("beginning-of-line"))
	m.bind("\x1bb", widgetBinding("backward-word"))
	m.bind("\x18\x15", widgetBinding("undo"))

	b, ok := m.lookup("\x01")
	require.True(t, ok)
	require.Equal(t, "beginning-of-line", b.widget)

	_, ok = m.lookup("\x18")
	require.False(t, ok)
	b, ok = m.lookup("\x18\x15")
	require.True(t, ok)
	require.Equal(t, "undo", b.widget)

	m.unbind("\x01")
	_, ok = m.lookup("\x01")
	require.False(t, ok)
}

func TestBuiltinKeymaps(t *testing.T) {
	maps := newKeymaps()
	for _, name := range []string{
		KeymapEmacs, KeymapViIns, KeymapViCmd, KeymapViOpp, KeymapVisual,
		KeymapIsearch, KeymapMenuSelect,
	} {
		require.Containsf(t, maps, name, "keymap %s", name)
	}

	b, ok := maps[KeymapEmacs].lookup("\x01")
	require.True(t, ok)
	require.Equal(t, "beginning-of-line", b.widget)

	b, ok = maps[KeymapEmacs].lookup("\x1b[A")
	require.True(t, ok)
	require.Equal(t, "up-line-or-history", b.widget)

	b, ok = maps[KeymapViCmd].lookup("d")
	require.True(t, ok)
	require.Equal(t, "vi-delete", b.widget)

	b, ok = maps[KeymapViOpp].lookup("iw")
	require.True(t, ok)
	require.Equal(t, "select-in-word", b.widget)
}

func TestBindKeyValidation(t *testing.T) {
	r, _, _ := newTestReader(40, 10)
	require.Error(t, r.BindKey("no-such-keymap", "Control-a", "beginning-of-line"))
	require.Error(t, r.BindKey(KeymapEmacs, "Control-a", "no-such-widget"))
	require.NoError(t, r.BindKey(KeymapEmacs, "Control-x,Control-l", "clear-screen"))

	b, ok := r.keymaps[KeymapEmacs].lookup("\x18\x0c")
	require.True(t, ok)
	require.Equal(t, "clear-screen", b.widget)

	require.Error(t, r.SetKeyMap("vicmd"))
	require.NoError(t, r.SetKeyMap("viins"))
}

// decodeAll decodes every pending key against a keymap, returning the widget
// trace. Identical input must yield an identical trace.
func decodeAll(t *testing.T, km *keyMap, input string) []string {
	term := newFakeTerm(&discard{}, 80, 24)
	term.feed(input)
	var d inputDecoder
	d.init(term, 0)

	var trace []string
	for {
		ev, err := d.Next(km)
		if err != nil {
			break
		}
		trace = append(trace, ev.b.widget)
	}
	return trace
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestDecoderLongestMatch(t *testing.T) {
	maps := newKeymaps()
	km := maps[KeymapEmacs]

	require.Equal(t, []string{"self-insert", "self-insert"},
		decodeAll(t, km, "ab"))
	require.Equal(t, []string{"beginning-of-line", "self-insert"},
		decodeAll(t, km, "\x01x"))
	require.Equal(t, []string{"up-line-or-history", "up-line-or-history"},
		decodeAll(t, km, "\x1b[A\x1bOA"))
	require.Equal(t, []string{"backward-word"}, decodeAll(t, km, "\x1bb"))
	require.Equal(t, []string{"undo"}, decodeAll(t, km, "\x18\x15"))
}

func TestDecoderAmbiguousTimeout(t *testing.T) {
	km := newKeyMap("test", true)
	km.bind("a", widgetBinding("beginning-of-line"))
	km.bind("ab", widgetBinding("end-of-line"))

	// With the continuation available the longer binding wins.
	require.Equal(t, []string{"end-of-line"}, decodeAll(t, km, "ab"))
	// Without it, the deadline expires and the short match is emitted; the
	// residue is decoded afterwards.
	require.Equal(t, []string{"beginning-of-line"}, decodeAll(t, km, "a"))
	require.Equal(t, []string{"end-of-line", "beginning-of-line"},
		decodeAll(t, km, "aba"))
	require.Equal(t, []string{"beginning-of-line", "self-insert"},
		decodeAll(t, km, "ax"))
}

func TestDecoderDeterministicTrace(t *testing.T) {
	maps := newKeymaps()
	km := maps[KeymapEmacs]
	input := "hi\x01\x1bf\x1b[A\x05x"
	first := decodeAll(t, km, input)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, decodeAll(t, km, input))
	}
}

func TestDecoderUnknownSequence(t *testing.T) {
	maps := newKeymaps()
	km := maps[KeymapEmacs]
	// An unrecognized escape sequence is skipped to its terminator, not
	// inserted.
	require.Equal(t, []string{"undefined-key", "self-insert"},
		decodeAll(t, km, "\x1b[1;7Gx"))
}

func TestDecoderMacroPushback(t *testing.T) {
	maps := newKeymaps()
	km := maps[KeymapEmacs]

	term := newFakeTerm(&discard{}, 80, 24)
	var d inputDecoder
	d.init(term, 0)
	d.Push([]byte("hi\x01"))

	var trace []string
	for d.buffered() {
		ev, err := d.Next(km)
		require.NoError(t, err)
		trace = append(trace, ev.b.widget)
	}
	require.Equal(t, []string{"self-insert", "self-insert", "beginning-of-line"}, trace)
}

func TestDecoderReadUntil(t *testing.T) {
	term := newFakeTerm(&discard{}, 80, 24)
	term.feed("pasted text\x1b[201~rest")
	var d inputDecoder
	d.init(term, 0)

	payload, err := d.ReadUntil("\x1b[201~")
	require.NoError(t, err)
	require.Equal(t, "pasted text", string(payload))

	r, err := d.ReadRune()
	require.NoError(t, err)
	require.Equal(t, 'r', r)
}
