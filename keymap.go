package editline

import (
	"fmt"
	"strings"
)

// Built-in keymap names.
const (
	KeymapEmacs      = "emacs"
	KeymapViIns      = "viins"
	KeymapViCmd      = "vicmd"
	KeymapVisual     = "visual"
	KeymapViOpp      = "viopp"
	KeymapIsearch    = "isearch"
	KeymapMenuSelect = "menuselect"
)

type bindingKind int

const (
	bindNone bindingKind = iota
	// bindWidget binds a key sequence to a named widget.
	bindWidget
	// bindMacro binds a key sequence to a byte expansion replayed as input.
	bindMacro
	// bindRef binds a key sequence to the binding at seq in another keymap.
	bindRef
)

type binding struct {
	kind   bindingKind
	widget string
	macro  string
	keymap string
	seq    string
}

func widgetBinding(name string) binding {
	return binding{kind: bindWidget, widget: name}
}

// keyNode is a node in a keymap's prefix tree. A node may simultaneously
// carry a binding and have children; such a binding is ambiguous and is
// resolved by the decoder's timeout.
type keyNode struct {
	children []*keyNode
	key      byte
	bound    bool
	b        binding
}

func (n *keyNode) findChild(b byte) *keyNode {
	for _, child := range n.children {
		if child.key == b {
			return child
		}
	}
	return nil
}

// keyMap maps byte sequences to bindings. selfInsert controls what happens to
// input that matches no binding: insert the decoded character, or report
// undefined-key.
type keyMap struct {
	name       string
	root       keyNode
	selfInsert bool
}

func newKeyMap(name string, selfInsert bool) *keyMap {
	return &keyMap{name: name, selfInsert: selfInsert}
}

func (m *keyMap) bind(seq string, b binding) {
	node := &m.root
	for i := 0; i < len(seq); i++ {
		child := node.findChild(seq[i])
		if child == nil {
			child = &keyNode{key: seq[i]}
			node.children = append(node.children, child)
		}
		node = child
	}
	node.bound = true
	node.b = b
}

func (m *keyMap) unbind(seq string) {
	node := &m.root
	for i := 0; i < len(seq); i++ {
		node = node.findChild(seq[i])
		if node == nil {
			return
		}
	}
	node.bound = false
	node.b = binding{}
}

// lookup returns the binding for an exact sequence.
func (m *keyMap) lookup(seq string) (binding, bool) {
	node := &m.root
	for i := 0; i < len(seq); i++ {
		node = node.findChild(seq[i])
		if node == nil {
			return binding{}, false
		}
	}
	return node.b, node.bound
}

// namedKeySeqs maps key names usable in bind tables to the input sequences
// terminals send for them. Multiple sequences mean the key is bound under
// each variant.
var namedKeySeqs = map[string][]string{
	"backspace": {"\x7f"},
	"delete":    {"\x1b[3~"},
	"down":      {"\x1b[B", "\x1bOB"},
	"end":       {"\x1b[F", "\x1bOF", "\x1b[4~", "\x1b[8~"},
	"enter":     {"\r"},
	"escape":    {"\x1b"},
	"home":      {"\x1b[H", "\x1bOH", "\x1b[1~", "\x1b[7~"},
	"left":      {"\x1b[D", "\x1bOD"},
	"page-down": {"\x1b[6~"},
	"page-up":   {"\x1b[5~"},
	"right":     {"\x1b[C", "\x1bOC"},
	"shift-tab": {"\x1b[Z"},
	"space":     {" "},
	"tab":       {"\t"},
	"up":        {"\x1b[A", "\x1bOA"},
}

// Modified cursor keys use the xterm "1;<mod>" encoding: 5 is control, 3 and
// 9 are meta.
var modifiedKeySeqs = map[string][]string{
	"Control-left":  {"\x1b[1;5D", "\x1bOd"},
	"Control-right": {"\x1b[1;5C", "\x1bOc"},
	"Control-up":    {"\x1b[1;5A", "\x1bOa"},
	"Control-down":  {"\x1b[1;5B", "\x1bOb"},
	"Meta-left":     {"\x1b[1;3D", "\x1b[1;9D"},
	"Meta-right":    {"\x1b[1;3C", "\x1b[1;9C"},
	"Meta-up":       {"\x1b[1;3A", "\x1b[1;9A"},
	"Meta-down":     {"\x1b[1;3B", "\x1b[1;9B"},
}

// parseKeySpec translates a key spec such as "Control-a", "Meta-b", "Up", or
// "Control-x,Control-u" into the byte sequences to bind. Commas separate the
// keys of a multi-key sequence.
func parseKeySpec(spec string) ([]string, error) {
	if seqs, ok := modifiedKeySeqs[spec]; ok {
		return seqs, nil
	}

	seqs := []string{""}
	for _, part := range strings.Split(spec, ",") {
		const (
			controlPrefix = "Control-"
			metaPrefix    = "Meta-"
		)
		var control, meta bool
		for {
			if strings.HasPrefix(part, controlPrefix) && len(part) > len(controlPrefix) {
				if control {
					return nil, fmt.Errorf("invalid key: %q", spec)
				}
				control = true
				part = part[len(controlPrefix):]
				continue
			}
			if strings.HasPrefix(part, metaPrefix) && len(part) > len(metaPrefix) {
				if meta {
					return nil, fmt.Errorf("invalid key: %q", spec)
				}
				meta = true
				part = part[len(metaPrefix):]
				continue
			}
			break
		}

		var variants []string
		if named, ok := namedKeySeqs[strings.ToLower(part)]; ok && len(part) > 1 {
			variants = named
		} else {
			runes := []rune(part)
			if len(runes) != 1 {
				return nil, fmt.Errorf("invalid key: %q", spec)
			}
			variants = []string{string(runes[0])}
		}

		var expanded []string
		for _, v := range variants {
			if control {
				if len(v) != 1 {
					return nil, fmt.Errorf("invalid key: %q", spec)
				}
				c := v[0]
				switch {
				case c >= 'a' && c <= 'z':
					v = string(c - 0x60)
				case c >= '@' && c <= '_':
					v = string(c - 0x40)
				case c == ' ':
					v = "\x00"
				case c == '?':
					v = "\x7f"
				default:
					return nil, fmt.Errorf("invalid key: %q", spec)
				}
			}
			if meta {
				v = "\x1b" + v
			}
			expanded = append(expanded, v)
		}

		var next []string
		for _, prefix := range seqs {
			for _, v := range expanded {
				next = append(next, prefix+v)
			}
		}
		seqs = next
	}
	return seqs, nil
}

// parseBindTable populates a keymap from a table of "bind <keyspec> <widget>"
// lines. Widget names are validated against the widget registry.
func parseBindTable(m *keyMap, table string) error {
	for _, line := range strings.Split(table, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 3 || parts[0] != "bind" {
			return fmt.Errorf("invalid binding: [%s]", line)
		}
		if _, ok := lookupWidget(parts[2]); !ok {
			return fmt.Errorf("unknown widget: %s", parts[2])
		}
		seqs, err := parseKeySpec(parts[1])
		if err != nil {
			return err
		}
		for _, seq := range seqs {
			m.bind(seq, widgetBinding(parts[2]))
		}
	}
	return nil
}

const emacsBindings = `
bind Control-Space   set-mark-command
bind Control-a       beginning-of-line
bind Control-b       backward-char
bind Control-c       send-break
bind Control-d       delete-char
bind Control-e       end-of-line
bind Control-f       forward-char
bind Control-g       abort
bind Control-h       backward-delete-char
bind Tab             expand-or-complete
bind Control-j       accept-line
bind Control-k       kill-line
bind Control-l       clear-screen
bind Enter           accept-line
bind Control-n       down-line-or-history
bind Control-p       up-line-or-history
bind Control-q       quoted-insert
bind Control-r       history-incremental-search-backward
bind Control-s       history-incremental-search-forward
bind Control-t       transpose-chars
bind Control-u       backward-kill-line
bind Control-v       quoted-insert
bind Control-w       backward-kill-word
bind Control-y       yank
bind Control-]       character-search
bind Control-_       undo
bind Backspace       backward-delete-char
bind Delete          delete-char
bind Up              up-line-or-history
bind Down            down-line-or-history
bind Left            backward-char
bind Right           forward-char
bind Home            beginning-of-line
bind End             end-of-line
bind Control-Left    backward-word
bind Control-Right   forward-word
bind Control-x,Control-u undo
bind Control-x,Control-r redo
bind Control-x,Control-x exchange-point-and-mark
bind Meta-Backspace  backward-kill-word
bind Meta-Control-h  backward-kill-word
bind Meta-Enter      self-insert-unmeta
bind Meta-Left       backward-word
bind Meta-Right      forward-word
bind Meta-Control-]  character-search-backward
bind Meta-Space      set-mark-command
bind Meta--          neg-argument
bind Meta-0          digit-argument
bind Meta-1          digit-argument
bind Meta-2          digit-argument
bind Meta-3          digit-argument
bind Meta-4          digit-argument
bind Meta-5          digit-argument
bind Meta-6          digit-argument
bind Meta-7          digit-argument
bind Meta-8          digit-argument
bind Meta-9          digit-argument
bind Meta-<          beginning-of-history
bind Meta->          end-of-history
bind Meta-b          backward-word
bind Meta-c          capitalize-word
bind Meta-d          kill-word
bind Meta-f          forward-word
bind Meta-l          down-case-word
bind Meta-n          history-search-forward
bind Meta-p          history-search-backward
bind Meta-t          transpose-words
bind Meta-u          up-case-word
bind Meta-w          copy-region-as-kill
bind Meta-y          yank-pop
bind Shift-Tab       reverse-menu-complete
`

const viInsBindings = `
bind Escape          vi-cmd-mode
bind Control-c       send-break
bind Control-d       delete-char
bind Control-g       abort
bind Control-h       backward-delete-char
bind Tab             expand-or-complete
bind Enter           accept-line
bind Control-j       accept-line
bind Control-r       history-incremental-search-backward
bind Control-s       history-incremental-search-forward
bind Control-u       backward-kill-line
bind Control-v       quoted-insert
bind Control-w       backward-kill-word
bind Control-y       yank
bind Backspace       backward-delete-char
bind Delete          delete-char
bind Up              up-line-or-history
bind Down            down-line-or-history
bind Left            backward-char
bind Right           forward-char
bind Home            beginning-of-line
bind End             end-of-line
`

const viCmdBindings = `
bind Control-c       send-break
bind Control-d       delete-char
bind Control-g       abort
bind Enter           accept-line
bind Control-j       accept-line
bind Control-l       clear-screen
bind Control-r       redo
bind Space           forward-char
bind "               vi-set-buffer
bind $               end-of-line
bind 0               vi-digit-or-beginning-of-line
bind 1               digit-argument
bind 2               digit-argument
bind 3               digit-argument
bind 4               digit-argument
bind 5               digit-argument
bind 6               digit-argument
bind 7               digit-argument
bind 8               digit-argument
bind 9               digit-argument
bind ;               vi-repeat-find
bind ,               vi-rev-repeat-find
bind A               vi-add-eol
bind C               vi-change-eol
bind D               vi-kill-eol
bind F               vi-find-prev-char
bind G               vi-fetch-history
bind I               vi-insert-bol
bind N               vi-rev-repeat-search
bind P               vi-put-before
bind R               vi-replace
bind S               vi-change-whole-line
bind T               vi-find-prev-char-skip
bind X               vi-backward-delete-char
bind Y               vi-yank-whole-line
bind ^               vi-first-non-blank
bind a               vi-add-next
bind b               vi-backward-word
bind c               vi-change
bind d               vi-delete
bind e               vi-forward-word-end
bind f               vi-find-next-char
bind h               vi-backward-char
bind i               vi-insert
bind j               down-line-or-history
bind k               up-line-or-history
bind l               vi-forward-char
bind n               vi-repeat-search
bind p               vi-put-after
bind r               vi-replace-chars
bind s               vi-substitute
bind t               vi-find-next-char-skip
bind u               undo
bind v               visual-mode
bind V               visual-line-mode
bind w               vi-forward-word
bind x               vi-delete-char
bind y               vi-yank
bind |               vi-goto-column
bind ~               vi-swap-case
bind .               vi-repeat-change
bind /               vi-history-search-backward
bind ?               vi-history-search-forward
bind Up              up-line-or-history
bind Down            down-line-or-history
bind Left            vi-backward-char
bind Right           vi-forward-char
bind Backspace       vi-backward-char
`

const viOppBindings = `
bind $               end-of-line
bind 0               vi-digit-or-beginning-of-line
bind 1               digit-argument
bind 2               digit-argument
bind 3               digit-argument
bind 4               digit-argument
bind 5               digit-argument
bind 6               digit-argument
bind 7               digit-argument
bind 8               digit-argument
bind 9               digit-argument
bind ^               vi-first-non-blank
bind b               vi-backward-word
bind e               vi-forward-word-end
bind f               vi-find-next-char
bind F               vi-find-prev-char
bind h               vi-backward-char
bind j               down-line
bind k               up-line
bind l               vi-forward-char
bind t               vi-find-next-char-skip
bind T               vi-find-prev-char-skip
bind w               vi-forward-word
bind Escape          vi-cmd-mode
bind Control-g       abort
bind i,w             select-in-word
bind a,w             select-a-word
bind i,'             select-quoted
bind a,'             select-quoted
bind i,"             select-quoted
bind a,"             select-quoted
bind i,(             select-bracketed
bind i,)             select-bracketed
bind i,[             select-bracketed
bind i,]             select-bracketed
bind i,{             select-bracketed
bind i,}             select-bracketed
bind i,<             select-bracketed
bind i,>             select-bracketed
bind i,b             select-bracketed
bind a,(             select-bracketed
bind a,)             select-bracketed
bind a,[             select-bracketed
bind a,]             select-bracketed
bind a,{             select-bracketed
bind a,}             select-bracketed
bind a,<             select-bracketed
bind a,>             select-bracketed
bind a,b             select-bracketed
`

const visualBindings = `
bind Escape          deactivate-region
bind Control-c       send-break
bind Control-g       deactivate-region
bind $               end-of-line
bind 0               vi-digit-or-beginning-of-line
bind ^               vi-first-non-blank
bind b               vi-backward-word
bind d               kill-region
bind e               vi-forward-word-end
bind f               vi-find-next-char
bind F               vi-find-prev-char
bind h               vi-backward-char
bind j               down-line
bind k               up-line
bind l               vi-forward-char
bind o               exchange-point-and-mark
bind p               vi-put-replace-region
bind w               vi-forward-word
bind x               kill-region
bind y               copy-region-as-kill
bind c               vi-change-region
bind ~               vi-swap-case
`

const isearchBindings = `
bind Control-r       history-incremental-search-backward
bind Control-s       history-incremental-search-forward
bind Control-g       abort
bind Control-c       send-break
bind Control-h       backward-delete-char
bind Backspace       backward-delete-char
bind Enter           accept-line
`

const menuSelectBindings = `
bind Tab             menu-complete
bind Shift-Tab       reverse-menu-complete
bind Control-n       menu-complete
bind Control-p       reverse-menu-complete
bind Down            menu-complete
bind Up              reverse-menu-complete
bind Control-g       abort
bind Control-c       send-break
bind Enter           accept-menu
`

// newKeymaps builds the built-in keymaps. It panics on a malformed built-in
// table since that is a bug in this package, not in the caller.
func newKeymaps() map[string]*keyMap {
	maps := map[string]*keyMap{
		KeymapEmacs:      newKeyMap(KeymapEmacs, true),
		KeymapViIns:      newKeyMap(KeymapViIns, true),
		KeymapViCmd:      newKeyMap(KeymapViCmd, false),
		KeymapViOpp:      newKeyMap(KeymapViOpp, false),
		KeymapVisual:     newKeyMap(KeymapVisual, false),
		KeymapIsearch:    newKeyMap(KeymapIsearch, true),
		KeymapMenuSelect: newKeyMap(KeymapMenuSelect, true),
	}
	tables := map[string]string{
		KeymapEmacs:      emacsBindings,
		KeymapViIns:      viInsBindings,
		KeymapViCmd:      viCmdBindings,
		KeymapViOpp:      viOppBindings,
		KeymapVisual:     visualBindings,
		KeymapIsearch:    isearchBindings,
		KeymapMenuSelect: menuSelectBindings,
	}
	for name, table := range tables {
		if err := parseBindTable(maps[name], table); err != nil {
			panic(err)
		}
	}
	// Bracketed paste is recognized in every insert-capable keymap.
	for _, name := range []string{KeymapEmacs, KeymapViIns} {
		maps[name].bind("\x1b[200~", widgetBinding("bracketed-paste"))
	}
	return maps
}

// BindKey binds a key sequence in the named keymap to a widget.
func (r *Reader) BindKey(keymap, spec, widget string) error {
	m, ok := r.keymaps[keymap]
	if !ok {
		return fmt.Errorf("editline: unknown keymap %q", keymap)
	}
	if _, ok := lookupWidget(widget); !ok {
		return fmt.Errorf("editline: unknown widget %q", widget)
	}
	seqs, err := parseKeySpec(spec)
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		m.bind(seq, widgetBinding(widget))
	}
	return nil
}

// BindMacro binds a key sequence in the named keymap to a macro expansion
// that is replayed as input when the sequence is typed.
func (r *Reader) BindMacro(keymap, spec, expansion string) error {
	m, ok := r.keymaps[keymap]
	if !ok {
		return fmt.Errorf("editline: unknown keymap %q", keymap)
	}
	seqs, err := parseKeySpec(spec)
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		m.bind(seq, binding{kind: bindMacro, macro: expansion})
	}
	return nil
}

// BindReference binds a key sequence in the named keymap to whatever binding
// the target keymap holds for the target sequence at dispatch time.
func (r *Reader) BindReference(keymap, spec, targetKeymap, targetSpec string) error {
	m, ok := r.keymaps[keymap]
	if !ok {
		return fmt.Errorf("editline: unknown keymap %q", keymap)
	}
	if _, ok := r.keymaps[targetKeymap]; !ok {
		return fmt.Errorf("editline: unknown keymap %q", targetKeymap)
	}
	seqs, err := parseKeySpec(spec)
	if err != nil {
		return err
	}
	targets, err := parseKeySpec(targetSpec)
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		m.bind(seq, binding{kind: bindRef, keymap: targetKeymap, seq: targets[0]})
	}
	return nil
}

// UnbindKey removes a binding from the named keymap.
func (r *Reader) UnbindKey(keymap, spec string) error {
	m, ok := r.keymaps[keymap]
	if !ok {
		return fmt.Errorf("editline: unknown keymap %q", keymap)
	}
	seqs, err := parseKeySpec(spec)
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		m.unbind(seq)
	}
	return nil
}

// SetKeyMap selects the main keymap used in the editing state. Valid names
// are "emacs" and "viins".
func (r *Reader) SetKeyMap(name string) error {
	switch name {
	case KeymapEmacs, KeymapViIns:
		r.mainKeymap = name
		return nil
	}
	return fmt.Errorf("editline: invalid main keymap %q", name)
}
