package editline

import "os"

// Option defines the interface for Reader construction options.
type Option interface {
	apply(r *Reader)
}

type optionFunc func(r *Reader)

func (f optionFunc) apply(r *Reader) { f(r) }

// WithTerminal configures the Terminal the Reader runs on.
func WithTerminal(t Terminal) Option {
	return optionFunc(func(r *Reader) { r.term = t })
}

// WithTTY configures a Reader on a specific tty instead of stdin/stdout.
func WithTTY(tty *os.File) Option {
	return optionFunc(func(r *Reader) { r.term = NewTerminal(tty, tty) })
}

// WithSize configures the initial width and height. Typically the terminal
// size is queried automatically; this option is primarily useful for tests
// in conjunction with WithTerminal.
func WithSize(width, height int) Option {
	return optionFunc(func(r *Reader) {
		r.initWidth, r.initHeight = width, height
	})
}

// WithParser configures the Parser collaborator.
func WithParser(p Parser) Option {
	return optionFunc(func(r *Reader) {
		if p != nil {
			r.parser = p
		}
	})
}

// WithCompleter appends a completion source.
func WithCompleter(c Completer) Option {
	return optionFunc(func(r *Reader) {
		if c != nil {
			r.completers = append(r.completers, c)
		}
	})
}

// WithHighlighter configures the Highlighter collaborator.
func WithHighlighter(h Highlighter) Option {
	return optionFunc(func(r *Reader) { r.highlighter = h })
}

// WithExpander configures the Expander collaborator.
func WithExpander(e Expander) Option {
	return optionFunc(func(r *Reader) { r.expander = e })
}

// WithKeyMap selects the main keymap, "emacs" or "viins".
func WithKeyMap(name string) Option {
	return optionFunc(func(r *Reader) { _ = r.SetKeyMap(name) })
}

// WithVariable presets a string-keyed variable.
func WithVariable(name string, value interface{}) Option {
	return optionFunc(func(r *Reader) { r.vars[name] = value })
}

// WithFlag presets a boolean option flag.
func WithFlag(f Flag, on bool) Option {
	return optionFunc(func(r *Reader) { r.flags[f] = on })
}

// WithHistoryFile configures the history persistence path.
func WithHistoryFile(path string) Option {
	return optionFunc(func(r *Reader) { r.vars[VarHistoryFile] = path })
}

// WithConfigFile loads variables, flags, bindings, and the keybinding
// profile from a YAML config file once the Reader is constructed.
func WithConfigFile(path string) Option {
	return optionFunc(func(r *Reader) { r.configPath = path })
}
