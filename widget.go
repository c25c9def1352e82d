package editline

import (
	"errors"
	"strings"
	"unicode"
)

// A widgetFunc is a named editing operation. It mutates the session and
// reports success; failure rings the bell according to bell-style.
type widgetFunc func(r *Reader) bool

// lookupWidget resolves a widget name against the built-in tables.
func lookupWidget(name string) (widgetFunc, bool) {
	if fn, ok := baseWidgets[name]; ok {
		return fn, true
	}
	if fn, ok := viWidgets[name]; ok {
		return fn, true
	}
	return nil, false
}

// killWidgetNames and yankWidgetNames name the widgets that participate in kill
// accumulation and yank-pop chains; any other widget seals the kill ring.
var killWidgetNames = map[string]bool{
	"kill-word": true, "backward-kill-word": true, "kill-line": true,
	"backward-kill-line": true, "kill-whole-line": true, "kill-region": true,
	"vi-delete": true, "vi-delete-char": true, "vi-backward-delete-char": true,
	"vi-kill-eol": true, "vi-change": true, "vi-change-eol": true,
	"vi-change-whole-line": true, "vi-substitute": true, "vi-change-region": true,
}

var yankWidgetNames = map[string]bool{
	"yank": true, "yank-pop": true,
}

// argWidgetNames name the widgets that build up the numeric argument; any
// other widget consumes and clears it.
var argWidgetNames = map[string]bool{
	"digit-argument": true, "universal-argument": true, "neg-argument": true,
	"vi-set-buffer": true, "vi-digit-or-beginning-of-line": true,
}

// takeArg returns the pending numeric argument, defaulting to 1, capped at
// max-repeat-count, and negated by neg-argument.
func (r *Reader) takeArg() int {
	n := 1
	if r.argSet {
		n = r.argVal
		if n == 0 {
			n = 1
		}
	}
	if maxr := r.varInt(VarMaxRepeatCount); maxr > 0 && n > maxr {
		n = maxr
	}
	if r.argNeg {
		n = -n
	}
	r.argSet = false
	r.argVal = 0
	r.argNeg = false
	return n
}

// isWordChar reports whether ch is part of a word: alphanumerics plus the
// WORDCHARS variable.
func (r *Reader) isWordChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) ||
		strings.ContainsRune(r.varString(VarWordChars), ch)
}

// nextWordEnd returns the position after the end of the word at or after
// pos.
func (r *Reader) nextWordEnd(pos int) int {
	text := r.buf.Text()
	for pos < len(text) && !r.isWordChar(text[pos]) {
		pos++
	}
	for pos < len(text) && r.isWordChar(text[pos]) {
		pos++
	}
	return pos
}

// prevWordStart returns the position of the start of the word at or before
// pos.
func (r *Reader) prevWordStart(pos int) int {
	text := r.buf.Text()
	for pos > 0 && !r.isWordChar(text[pos-1]) {
		pos--
	}
	for pos > 0 && r.isWordChar(text[pos-1]) {
		pos--
	}
	return pos
}

// lineStart and lineEnd return the bounds of the logical line containing
// pos, excluding the newline.
func (r *Reader) lineStart(pos int) int {
	text := r.buf.Text()
	for pos > 0 && text[pos-1] != '\n' {
		pos--
	}
	return pos
}

func (r *Reader) lineEnd(pos int) int {
	text := r.buf.Text()
	for pos < len(text) && text[pos] != '\n' {
		pos++
	}
	return pos
}

// setBufferText replaces the whole buffer as one undo unit, placing the
// cursor at the end. Used by history navigation.
func (r *Reader) setBufferText(text string) {
	r.buf.EditAtomically(func() {
		r.buf.text = append(r.buf.text[:0], []rune(text)...)
		r.buf.cursor = len(r.buf.text)
	})
	r.buf.cursor = r.buf.Len()
}

// historyMoveTo switches the buffer to history position i, stashing the
// in-progress line when leaving it. Position Len() restores the stash.
func (r *Reader) historyMoveTo(i int) {
	h := &r.history
	h.startBrowse(r.buf.String())
	h.index = i
	r.setBufferText(h.textAt(i))
}

var baseWidgets = map[string]widgetFunc{
	// Motion.
	"forward-char": func(r *Reader) bool {
		return moveChar(r, r.takeArg())
	},
	"backward-char": func(r *Reader) bool {
		return moveChar(r, -r.takeArg())
	},
	"forward-word": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			r.buf.MoveTo(r.nextWordEnd(r.buf.cursor))
		}
		return true
	},
	"backward-word": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			r.buf.MoveTo(r.prevWordStart(r.buf.cursor))
		}
		return true
	},
	"beginning-of-line": func(r *Reader) bool {
		r.takeArg()
		r.buf.MoveTo(r.lineStart(r.buf.cursor))
		return true
	},
	"end-of-line": func(r *Reader) bool {
		r.takeArg()
		r.buf.MoveTo(r.lineEnd(r.buf.cursor))
		return true
	},
	"beginning-of-line-hist": func(r *Reader) bool {
		r.takeArg()
		r.buf.MoveTo(0)
		return true
	},
	"end-of-line-hist": func(r *Reader) bool {
		r.takeArg()
		r.buf.MoveTo(r.buf.Len())
		return true
	},
	"up-line": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			if !moveVertical(r, -1) {
				return false
			}
		}
		return true
	},
	"down-line": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			if !moveVertical(r, +1) {
				return false
			}
		}
		return true
	},
	"up-line-or-history": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			if moveVertical(r, -1) {
				continue
			}
			if !upHistory(r) {
				return r.historyFailed()
			}
		}
		return true
	},
	"down-line-or-history": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			if moveVertical(r, +1) {
				continue
			}
			if !downHistory(r) {
				return r.historyFailed()
			}
		}
		return true
	},
	"character-search": func(r *Reader) bool {
		return characterSearch(r, +1)
	},
	"character-search-backward": func(r *Reader) bool {
		return characterSearch(r, -1)
	},

	// Mutation.
	"self-insert": func(r *Reader) bool {
		ch := r.lastKeyCh
		if !isPrintable(ch) {
			return false
		}
		r.maybeRemoveSuffix(ch)
		n := r.takeArg()
		if n < 1 {
			n = 1
		}
		text := make([]rune, n)
		for i := range text {
			text[i] = ch
		}
		r.buf.Insert(text)
		return true
	},
	"self-insert-unmeta": func(r *Reader) bool {
		r.takeArg()
		seq := r.lastKeySeq
		if len(seq) == 0 {
			return false
		}
		ch := rune(seq[len(seq)-1])
		if ch == '\r' {
			ch = '\n'
		}
		if !isPrintable(ch) {
			return false
		}
		r.buf.Insert([]rune{ch})
		return true
	},
	"backward-delete-char": func(r *Reader) bool {
		n := r.takeArg()
		if r.buf.cursor == 0 || n == 0 {
			return false
		}
		if n < 0 {
			return deleteChars(r, -n)
		}
		start := r.buf.cursor - n
		if start < 0 {
			start = 0
		}
		r.buf.Cut(start, r.buf.cursor)
		return true
	},
	"delete-char": func(r *Reader) bool {
		if r.buf.Len() == 0 {
			// Delete on an empty buffer signals end of input.
			r.state = stEOF
			return true
		}
		n := r.takeArg()
		if n < 0 {
			start := r.buf.cursor + n
			if start < 0 {
				start = 0
			}
			r.buf.Cut(start, r.buf.cursor)
			return true
		}
		return deleteChars(r, n)
	},
	"quoted-insert": func(r *Reader) bool {
		r.takeArg()
		ch, err := r.decoder.ReadRune()
		if err != nil {
			r.readErr = err
			return false
		}
		r.buf.Insert([]rune{ch})
		return true
	},
	"overwrite-mode": func(r *Reader) bool {
		r.takeArg()
		r.buf.overwrite = !r.buf.overwrite
		return true
	},
	"bracketed-paste": func(r *Reader) bool {
		r.takeArg()
		payload, err := r.decoder.ReadUntil("\x1b[201~")
		if err != nil {
			r.readErr = err
			return false
		}
		text := strings.ReplaceAll(string(payload), "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
		r.buf.SplitUndo()
		start := r.buf.cursor
		r.buf.Insert([]rune(text))
		r.buf.SplitUndo()
		r.buf.mark = start
		r.buf.region = RegionPaste
		return true
	},
	"kill-word": func(r *Reader) bool {
		n := r.takeArg()
		if n < 0 {
			return backwardKillWord(r, -n)
		}
		pos := r.buf.cursor
		for ; n > 0; n-- {
			pos = r.nextWordEnd(pos)
		}
		if e := r.buf.Cut(r.buf.cursor, pos); len(e) > 0 {
			r.killText(string(e), false)
			return true
		}
		return false
	},
	"backward-kill-word": func(r *Reader) bool {
		n := r.takeArg()
		if n < 0 {
			n = -n
		}
		return backwardKillWord(r, n)
	},
	"kill-line": func(r *Reader) bool {
		n := r.takeArg()
		if n < 0 {
			return backwardKillLine(r)
		}
		end := r.lineEnd(r.buf.cursor)
		if end == r.buf.cursor && end < r.buf.Len() {
			// At the end of a line the newline itself is killed.
			end++
		}
		if e := r.buf.Cut(r.buf.cursor, end); len(e) > 0 {
			r.killText(string(e), false)
			return true
		}
		return false
	},
	"backward-kill-line": func(r *Reader) bool {
		r.takeArg()
		return backwardKillLine(r)
	},
	"kill-whole-line": func(r *Reader) bool {
		r.takeArg()
		start := r.lineStart(r.buf.cursor)
		end := r.lineEnd(r.buf.cursor)
		if end < r.buf.Len() {
			end++
		}
		if e := r.buf.Cut(start, end); len(e) > 0 {
			r.killText(string(e), false)
			return true
		}
		return false
	},
	"transpose-chars": func(r *Reader) bool {
		r.takeArg()
		b := &r.buf
		if b.Len() < 2 {
			return false
		}
		pos := b.cursor
		if pos == 0 {
			pos = 1
		}
		if pos >= b.Len() {
			pos = b.Len() - 1
		}
		b.EditAtomically(func() {
			b.text[pos-1], b.text[pos] = b.text[pos], b.text[pos-1]
			b.cursor = pos + 1
		})
		b.cursor = pos + 1
		return true
	},
	"transpose-words": func(r *Reader) bool {
		r.takeArg()
		b := &r.buf
		nextEnd := r.nextWordEnd(b.cursor)
		nextStart := r.prevWordStart(nextEnd)
		prevStart := r.prevWordStart(nextStart)
		prevEnd := r.nextWordEnd(prevStart)
		if prevStart == nextStart || prevEnd > nextStart {
			return false
		}
		next := b.Substring(nextStart, nextEnd)
		mid := b.Substring(prevEnd, nextStart)
		prev := b.Substring(prevStart, prevEnd)
		b.EditAtomically(func() {
			b.Replace(prevStart, nextEnd, []rune(next+mid+prev))
		})
		b.cursor = prevStart + len([]rune(next+mid+prev))
		return true
	},
	"capitalize-word": func(r *Reader) bool {
		return caseWord(r, func(w []rune) {
			for i, c := range w {
				if i == 0 {
					w[i] = unicode.ToUpper(c)
				} else {
					w[i] = unicode.ToLower(c)
				}
			}
		})
	},
	"up-case-word": func(r *Reader) bool {
		return caseWord(r, func(w []rune) {
			for i, c := range w {
				w[i] = unicode.ToUpper(c)
			}
		})
	},
	"down-case-word": func(r *Reader) bool {
		return caseWord(r, func(w []rune) {
			for i, c := range w {
				w[i] = unicode.ToLower(c)
			}
		})
	},

	// History.
	"up-history": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			if !upHistory(r) {
				return r.historyFailed()
			}
		}
		return true
	},
	"down-history": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			if !downHistory(r) {
				return r.historyFailed()
			}
		}
		return true
	},
	"beginning-of-history": func(r *Reader) bool {
		r.takeArg()
		if r.history.Len() == 0 {
			return r.historyFailed()
		}
		r.historyMoveTo(0)
		return true
	},
	"end-of-history": func(r *Reader) bool {
		r.takeArg()
		r.historyMoveTo(r.history.Len())
		return true
	},
	"history-search-backward": func(r *Reader) bool {
		r.takeArg()
		prefix := string(r.buf.Text()[:r.buf.cursor])
		i := r.history.SearchBackward(prefix, r.history.index, true)
		if i < 0 {
			return r.historyFailed()
		}
		cursor := r.buf.cursor
		r.historyMoveTo(i)
		r.buf.MoveTo(cursor)
		return true
	},
	"history-search-forward": func(r *Reader) bool {
		r.takeArg()
		prefix := string(r.buf.Text()[:r.buf.cursor])
		i := r.history.SearchForward(prefix, r.history.index, true)
		if i < 0 {
			return r.historyFailed()
		}
		cursor := r.buf.cursor
		r.historyMoveTo(i)
		r.buf.MoveTo(cursor)
		return true
	},
	"history-incremental-search-backward": func(r *Reader) bool {
		r.takeArg()
		r.enterSearch(-1, false)
		return true
	},
	"history-incremental-search-forward": func(r *Reader) bool {
		r.takeArg()
		r.enterSearch(+1, false)
		return true
	},
	"history-incremental-pattern-search-backward": func(r *Reader) bool {
		r.takeArg()
		r.enterSearch(-1, true)
		return true
	},
	"history-incremental-pattern-search-forward": func(r *Reader) bool {
		r.takeArg()
		r.enterSearch(+1, true)
		return true
	},
	"accept-search": func(r *Reader) bool {
		return r.searchAccept()
	},

	// Mark and kill ring.
	"set-mark-command": func(r *Reader) bool {
		r.takeArg()
		r.buf.SetMark()
		r.buf.region = RegionChar
		return true
	},
	"exchange-point-and-mark": func(r *Reader) bool {
		r.takeArg()
		return r.buf.SwapPointAndMark()
	},
	"deactivate-region": func(r *Reader) bool {
		r.takeArg()
		r.buf.ClearMark()
		if r.state == stViVisual {
			r.state = stViCmd
		}
		return true
	},
	"kill-region": func(r *Reader) bool {
		r.takeArg()
		start, end, ok := r.regionSpan()
		if !ok {
			return false
		}
		e := r.buf.Cut(start, end)
		r.buf.ClearMark()
		if len(e) > 0 {
			r.killText(string(e), false)
		}
		if r.state == stViVisual {
			r.state = stViCmd
		}
		return true
	},
	"copy-region-as-kill": func(r *Reader) bool {
		r.takeArg()
		start, end, ok := r.regionSpan()
		if !ok {
			return false
		}
		text := r.buf.Substring(start, end)
		r.buf.ClearMark()
		if len(text) > 0 {
			r.killText(text, false)
			// A copy must not merge with a subsequent kill.
			r.killRing.killing = false
		}
		if r.state == stViVisual {
			r.buf.MoveTo(start)
			r.state = stViCmd
		}
		return true
	},
	"yank": func(r *Reader) bool {
		r.takeArg()
		text := r.killRing.Yank()
		if len(text) == 0 {
			return false
		}
		r.yankStart = r.buf.cursor
		r.buf.Insert(text)
		r.yankEnd = r.buf.cursor
		return true
	},
	"yank-pop": func(r *Reader) bool {
		r.takeArg()
		if !r.killRing.yanking {
			return false
		}
		r.buf.Cut(r.yankStart, r.yankEnd)
		r.killRing.Rotate()
		text := r.killRing.Yank()
		r.yankStart = r.buf.cursor
		r.buf.Insert(text)
		r.yankEnd = r.buf.cursor
		return true
	},

	// Completion.
	"complete-word": func(r *Reader) bool {
		r.takeArg()
		return r.completeWord(false)
	},
	"expand-or-complete": func(r *Reader) bool {
		r.takeArg()
		if r.Flag(FlagInsertTab) && blankBeforeCursor(r) {
			r.buf.Insert([]rune{'\t'})
			return true
		}
		if r.expander != nil {
			line := r.buf.String()
			if expanded := r.expander.ExpandVar(line); expanded != line {
				r.setBufferText(expanded)
				return true
			}
		}
		return r.completeWord(false)
	},
	"menu-complete": func(r *Reader) bool {
		r.takeArg()
		if r.comp.menu {
			return r.menuCycle(+1)
		}
		return r.completeWord(true)
	},
	"menu-expand-or-complete": func(r *Reader) bool {
		r.takeArg()
		if r.comp.menu {
			return r.menuCycle(+1)
		}
		if r.expander != nil {
			line := r.buf.String()
			if expanded := r.expander.ExpandVar(line); expanded != line {
				r.setBufferText(expanded)
				return true
			}
		}
		return r.completeWord(true)
	},
	"reverse-menu-complete": func(r *Reader) bool {
		r.takeArg()
		if r.comp.menu {
			return r.menuCycle(-1)
		}
		if !r.completeWord(true) {
			return false
		}
		if r.comp.menu {
			return r.menuCycle(-1)
		}
		return true
	},
	"menu-select": func(r *Reader) bool {
		r.takeArg()
		if r.comp.menu {
			return r.menuCycle(+1)
		}
		return r.completeWord(true)
	},
	"list-choices": func(r *Reader) bool {
		r.takeArg()
		return r.listChoices()
	},
	"accept-menu": func(r *Reader) bool {
		r.takeArg()
		return r.menuAccept()
	},

	// Undo and arguments.
	"undo": func(r *Reader) bool {
		ok := true
		for n := r.takeArg(); n > 0 && ok; n-- {
			ok = r.buf.Undo()
		}
		return ok
	},
	"redo": func(r *Reader) bool {
		ok := true
		for n := r.takeArg(); n > 0 && ok; n-- {
			ok = r.buf.Redo()
		}
		return ok
	},
	"split-undo": func(r *Reader) bool {
		r.takeArg()
		r.buf.SplitUndo()
		return true
	},
	"digit-argument": func(r *Reader) bool {
		seq := r.lastKeySeq
		if len(seq) == 0 {
			return false
		}
		d := seq[len(seq)-1]
		if d < '0' || d > '9' {
			return false
		}
		r.argVal = r.argVal*10 + int(d-'0')
		r.argSet = true
		return true
	},
	"universal-argument": func(r *Reader) bool {
		if !r.argSet {
			r.argVal = 4
		} else {
			r.argVal *= 4
		}
		r.argSet = true
		return true
	},
	"neg-argument": func(r *Reader) bool {
		r.argNeg = !r.argNeg
		r.argSet = true
		return true
	},

	// Session control.
	"accept-line": func(r *Reader) bool {
		r.takeArg()
		return acceptLine(r)
	},
	"abort": func(r *Reader) bool {
		r.takeArg()
		switch {
		case r.state == stSearching:
			return r.searchAbort()
		case r.comp.menu:
			return r.menuAbort()
		case r.comp.listRows != nil:
			r.comp.listRows = nil
			return true
		}
		return false
	},
	"send-break": func(r *Reader) bool {
		r.takeArg()
		r.state = stAborted
		return true
	},
	"clear-screen": func(r *Reader) bool {
		r.takeArg()
		r.display.Refresh()
		return true
	},
	"redraw-line": func(r *Reader) bool {
		r.takeArg()
		r.display.dirty = true
		return true
	},
	"redisplay": func(r *Reader) bool {
		r.takeArg()
		return true
	},
	"beep": func(r *Reader) bool {
		r.takeArg()
		return false
	},
	"undefined-key": func(r *Reader) bool {
		r.takeArg()
		return false
	},
}

func moveChar(r *Reader, n int) bool {
	r.buf.MoveTo(r.buf.cursor + n)
	return true
}

func deleteChars(r *Reader, n int) bool {
	if r.buf.cursor >= r.buf.Len() {
		return false
	}
	r.buf.DeleteAt(r.buf.cursor, n)
	return true
}

func backwardKillWord(r *Reader, n int) bool {
	pos := r.buf.cursor
	for ; n > 0; n-- {
		pos = r.prevWordStart(pos)
	}
	if e := r.buf.Cut(pos, r.buf.cursor); len(e) > 0 {
		r.killText(string(e), true)
		return true
	}
	return false
}

func backwardKillLine(r *Reader) bool {
	start := r.lineStart(r.buf.cursor)
	if e := r.buf.Cut(start, r.buf.cursor); len(e) > 0 {
		r.killText(string(e), true)
		return true
	}
	return false
}

func caseWord(r *Reader, transform func([]rune)) bool {
	b := &r.buf
	end := r.nextWordEnd(b.cursor)
	if end == b.cursor {
		return false
	}
	word := b.Copy(b.cursor, end)
	transform(word)
	b.Replace(b.cursor, end, word)
	return true
}

func blankBeforeCursor(r *Reader) bool {
	for _, c := range r.buf.Text()[:r.buf.cursor] {
		if c != ' ' && c != '\t' && c != '\n' {
			return false
		}
	}
	return true
}

// moveVertical moves the cursor one logical line up or down, keeping the
// column when possible. It reports false at the buffer's edge.
func moveVertical(r *Reader, dir int) bool {
	b := &r.buf
	start := r.lineStart(b.cursor)
	col := b.cursor - start
	if dir < 0 {
		if start == 0 {
			return false
		}
		prevStart := r.lineStart(start - 1)
		prevLen := start - 1 - prevStart
		if col > prevLen {
			col = prevLen
		}
		b.MoveTo(prevStart + col)
		return true
	}
	end := r.lineEnd(b.cursor)
	if end >= b.Len() {
		return false
	}
	nextStart := end + 1
	nextLen := r.lineEnd(nextStart) - nextStart
	if col > nextLen {
		col = nextLen
	}
	b.MoveTo(nextStart + col)
	return true
}

func upHistory(r *Reader) bool {
	if r.history.index == 0 || r.history.Len() == 0 {
		return false
	}
	r.historyMoveTo(r.history.index - 1)
	return true
}

func downHistory(r *Reader) bool {
	if r.history.index >= r.history.Len() {
		return false
	}
	r.historyMoveTo(r.history.index + 1)
	return true
}

// historyFailed is the result of a failed history move: false when
// HISTORY_BEEP is set, so the caller rings the bell, and true otherwise, so
// the failure stays silent.
func (r *Reader) historyFailed() bool {
	return !r.Flag(FlagHistoryBeep)
}

func characterSearch(r *Reader, dir int) bool {
	n := r.takeArg()
	if n < 0 {
		n, dir = -n, -dir
	}
	ch, err := r.decoder.ReadRune()
	if err != nil {
		r.readErr = err
		return false
	}
	text := r.buf.Text()
	pos := r.buf.cursor
	for ; n > 0; n-- {
		found := -1
		if dir > 0 {
			for i := pos + 1; i < len(text); i++ {
				if text[i] == ch {
					found = i
					break
				}
			}
		} else {
			for i := pos - 1; i >= 0; i-- {
				if text[i] == ch {
					found = i
					break
				}
			}
		}
		if found < 0 {
			return false
		}
		pos = found
	}
	r.buf.MoveTo(pos)
	return true
}

// regionSpan returns the active region as a half-open span. In visual line
// mode the span covers whole lines.
func (r *Reader) regionSpan() (int, int, bool) {
	mark := r.buf.Mark()
	if mark < 0 {
		return 0, 0, false
	}
	start, end := mark, r.buf.cursor
	if start > end {
		start, end = end, start
	}
	if r.buf.region == RegionLine {
		start = r.lineStart(start)
		end = r.lineEnd(end)
		if end < r.buf.Len() {
			end++
		}
	} else if r.state == stViVisual && end < r.buf.Len() {
		// Character-wise visual regions include the cell under the cursor.
		end++
	}
	return start, end, true
}

// killText pushes killed text into the vi register when one is pending,
// otherwise into the kill ring, prepending for backward kills.
func (r *Reader) killText(text string, backward bool) {
	if r.vi.register != 0 {
		r.registers[r.vi.register] = text
		r.vi.register = 0
		return
	}
	if backward {
		r.killRing.Prepend(text)
	} else {
		r.killRing.Append(text)
	}
}

func acceptLine(r *Reader) bool {
	r.maybeRemoveSuffix('\n')
	line := r.buf.String()
	if r.parser != nil {
		if _, err := r.parser.Parse(line, r.buf.cursor, ParseAcceptLine); err != nil {
			var eofErr *EOFError
			if errors.As(err, &eofErr) {
				r.secondaryMissing = eofErr.Missing
				r.buf.Insert([]rune{'\n'})
				return true
			}
		}
	}
	r.state = stAccepted
	return true
}

func isPrintable(key rune) bool {
	if key == zeroWidthJoiner {
		return false
	}
	isInSurrogateArea := key >= 0xd800 && key <= 0xdbff
	return key == '\n' || key == '\t' || key >= 32 && !isInSurrogateArea
}
