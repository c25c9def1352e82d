package editline

import "unicode"

// viState carries the modal editing state: the pending operator while in
// operator-pending mode, the named register selected by vi-set-buffer, the
// last character find for ; and , and the recorded key sequence replayed by
// vi-repeat-change.
type viState struct {
	op      string
	opChar  byte
	opCount int

	register rune

	span    [2]int
	spanSet bool

	findCh     rune
	findWidget string

	recording  bool
	rec        []byte
	lastChange []byte
}

// viInclusiveMotions are the motions whose target character is part of an
// operator's span.
var viInclusiveMotions = map[string]bool{
	"vi-find-next-char":      true,
	"vi-find-next-char-skip": true,
	"vi-forward-word-end":    true,
	"vi-repeat-find":         true,
	"vi-rev-repeat-find":     true,
}

// viChangeStarters are the vicmd widgets that modify the buffer and are
// therefore recorded for vi-repeat-change.
var viChangeStarters = map[string]bool{
	"vi-delete": true, "vi-change": true, "vi-yank": false,
	"vi-delete-char": true, "vi-backward-delete-char": true,
	"vi-replace-chars": true, "vi-replace": true, "vi-substitute": true,
	"vi-change-whole-line": true, "vi-change-eol": true, "vi-kill-eol": true,
	"vi-put-after": true, "vi-put-before": true, "vi-swap-case": true,
	"vi-insert": true, "vi-insert-bol": true, "vi-add-next": true,
	"vi-add-eol": true,
}

func isViWordChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// viForwardWord implements the vi "w" motion: words are runs of word
// characters or runs of other non-blank characters.
func (r *Reader) viForwardWord(pos int) int {
	text := r.buf.Text()
	if pos >= len(text) {
		return pos
	}
	switch {
	case isViWordChar(text[pos]):
		for pos < len(text) && isViWordChar(text[pos]) {
			pos++
		}
	case !unicode.IsSpace(text[pos]):
		for pos < len(text) && !isViWordChar(text[pos]) && !unicode.IsSpace(text[pos]) {
			pos++
		}
	}
	for pos < len(text) && unicode.IsSpace(text[pos]) {
		pos++
	}
	return pos
}

func (r *Reader) viBackwardWord(pos int) int {
	text := r.buf.Text()
	for pos > 0 && unicode.IsSpace(text[pos-1]) {
		pos--
	}
	if pos == 0 {
		return 0
	}
	if isViWordChar(text[pos-1]) {
		for pos > 0 && isViWordChar(text[pos-1]) {
			pos--
		}
	} else {
		for pos > 0 && !isViWordChar(text[pos-1]) && !unicode.IsSpace(text[pos-1]) {
			pos--
		}
	}
	return pos
}

func (r *Reader) viForwardWordEnd(pos int) int {
	text := r.buf.Text()
	pos++
	for pos < len(text) && unicode.IsSpace(text[pos]) {
		pos++
	}
	if pos >= len(text) {
		return len(text) - 1
	}
	if isViWordChar(text[pos]) {
		for pos+1 < len(text) && isViWordChar(text[pos+1]) {
			pos++
		}
	} else {
		for pos+1 < len(text) && !isViWordChar(text[pos+1]) && !unicode.IsSpace(text[pos+1]) {
			pos++
		}
	}
	return pos
}

// viKill replaces the cut buffer (the pending register, or a fresh kill ring
// entry) rather than accumulating the way Emacs kills do.
func (r *Reader) viKill(text string) {
	r.killRing.killing = false
	r.killText(text, false)
	r.killRing.killing = false
}

// putText returns the text a vi put inserts: the pending register if one was
// named, the newest kill otherwise.
func (r *Reader) putText() string {
	if r.vi.register != 0 {
		text := r.registers[r.vi.register]
		r.vi.register = 0
		return text
	}
	if len(r.killRing.entries) == 0 {
		return ""
	}
	return r.killRing.entries[len(r.killRing.entries)-1]
}

// enterViInsert switches to insert mode (the viins main keymap).
func (r *Reader) enterViInsert() {
	r.mainKeymap = KeymapViIns
	r.state = stEditing
	r.buf.SplitUndo()
}

// startViOperator enters operator-pending mode.
func (r *Reader) startViOperator(op string, opChar byte) bool {
	r.vi.op = op
	r.vi.opChar = opChar
	r.vi.opCount = 1
	if r.argSet {
		r.vi.opCount = r.takeArg()
	}
	r.vi.spanSet = false
	r.state = stViOpp
	return true
}

// cancelViOperator abandons a pending operator.
func (r *Reader) cancelViOperator() {
	r.vi.op = ""
	r.vi.spanSet = false
	if r.state == stViOpp {
		r.state = stViCmd
	}
}

// applyViOperator applies the pending operator to the span [start, end).
func (r *Reader) applyViOperator(start, end int) {
	if start > end {
		start, end = end, start
	}
	op := r.vi.op
	r.vi.op = ""
	r.state = stViCmd
	switch op {
	case "delete":
		if e := r.buf.Cut(start, end); len(e) > 0 {
			r.viKill(string(e))
		}
	case "change":
		if e := r.buf.Cut(start, end); len(e) > 0 {
			r.viKill(string(e))
		}
		r.enterViInsert()
	case "yank":
		text := r.buf.Substring(start, end)
		if len(text) > 0 {
			r.viKill(text)
		}
		r.buf.MoveTo(start)
	}
}

// viWholeLineSpan returns the span of count whole lines starting at the
// cursor's line, including trailing newlines.
func (r *Reader) viWholeLineSpan(count int) (int, int) {
	start := r.lineStart(r.buf.cursor)
	end := r.buf.cursor
	for ; count > 0; count-- {
		end = r.lineEnd(end)
		if end < r.buf.Len() && count > 1 {
			end++
		}
	}
	if end < r.buf.Len() {
		end++
	}
	return start, end
}

func viFindChar(r *Reader, widget string, ch rune, count int) bool {
	text := r.buf.Text()
	pos := r.buf.cursor
	lineEnd := r.lineEnd(pos)
	lineStart := r.lineStart(pos)

	for ; count > 0; count-- {
		found := -1
		switch widget {
		case "vi-find-next-char", "vi-find-next-char-skip":
			for i := pos + 1; i < lineEnd; i++ {
				if text[i] == ch {
					found = i
					break
				}
			}
		case "vi-find-prev-char", "vi-find-prev-char-skip":
			for i := pos - 1; i >= lineStart; i-- {
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
	switch widget {
	case "vi-find-next-char-skip":
		pos--
	case "vi-find-prev-char-skip":
		pos++
	}
	r.buf.MoveTo(pos)
	return true
}

var viWidgets = map[string]widgetFunc{
	// Mode switches.
	"vi-cmd-mode": func(r *Reader) bool {
		r.takeArg()
		if r.state == stViOpp {
			r.cancelViOperator()
			return true
		}
		r.mainKeymap = KeymapViIns
		r.state = stViCmd
		r.buf.SplitUndo()
		if r.buf.overwrite {
			r.buf.overwrite = false
		}
		if r.buf.cursor > r.lineStart(r.buf.cursor) {
			r.buf.MoveTo(r.buf.cursor - 1)
		}
		return true
	},
	"vi-insert": func(r *Reader) bool {
		r.takeArg()
		r.enterViInsert()
		return true
	},
	"vi-insert-bol": func(r *Reader) bool {
		r.takeArg()
		r.buf.MoveTo(r.lineStart(r.buf.cursor))
		viFirstNonBlank(r)
		r.enterViInsert()
		return true
	},
	"vi-add-next": func(r *Reader) bool {
		r.takeArg()
		if r.buf.cursor < r.lineEnd(r.buf.cursor) {
			r.buf.MoveTo(r.buf.cursor + 1)
		}
		r.enterViInsert()
		return true
	},
	"vi-add-eol": func(r *Reader) bool {
		r.takeArg()
		r.buf.MoveTo(r.lineEnd(r.buf.cursor))
		r.enterViInsert()
		return true
	},
	"visual-mode": func(r *Reader) bool {
		r.takeArg()
		r.buf.SetMark()
		r.buf.region = RegionChar
		r.state = stViVisual
		return true
	},
	"visual-line-mode": func(r *Reader) bool {
		r.takeArg()
		r.buf.SetMark()
		r.buf.region = RegionLine
		r.state = stViVisual
		return true
	},

	// Motion.
	"vi-backward-char": func(r *Reader) bool {
		start := r.lineStart(r.buf.cursor)
		for n := r.takeArg(); n > 0; n-- {
			if r.buf.cursor <= start {
				return false
			}
			r.buf.MoveTo(r.buf.cursor - 1)
		}
		return true
	},
	"vi-forward-char": func(r *Reader) bool {
		end := r.lineEnd(r.buf.cursor)
		for n := r.takeArg(); n > 0; n-- {
			if r.buf.cursor >= end {
				return false
			}
			r.buf.MoveTo(r.buf.cursor + 1)
		}
		return true
	},
	"vi-first-non-blank": func(r *Reader) bool {
		r.takeArg()
		return viFirstNonBlank(r)
	},
	"vi-digit-or-beginning-of-line": func(r *Reader) bool {
		if r.argSet {
			r.argVal = r.argVal * 10
			return true
		}
		r.buf.MoveTo(r.lineStart(r.buf.cursor))
		return true
	},
	"vi-goto-column": func(r *Reader) bool {
		n := r.takeArg()
		if n < 1 {
			n = 1
		}
		start := r.lineStart(r.buf.cursor)
		end := r.lineEnd(r.buf.cursor)
		pos := start + n - 1
		if pos > end {
			pos = end
		}
		r.buf.MoveTo(pos)
		return true
	},
	"vi-forward-word": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			r.buf.MoveTo(r.viForwardWord(r.buf.cursor))
		}
		return true
	},
	"vi-backward-word": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			r.buf.MoveTo(r.viBackwardWord(r.buf.cursor))
		}
		return true
	},
	"vi-forward-word-end": func(r *Reader) bool {
		for n := r.takeArg(); n > 0; n-- {
			r.buf.MoveTo(r.viForwardWordEnd(r.buf.cursor))
		}
		return true
	},
	"vi-find-next-char": func(r *Reader) bool {
		return viFindWidget(r, "vi-find-next-char")
	},
	"vi-find-prev-char": func(r *Reader) bool {
		return viFindWidget(r, "vi-find-prev-char")
	},
	"vi-find-next-char-skip": func(r *Reader) bool {
		return viFindWidget(r, "vi-find-next-char-skip")
	},
	"vi-find-prev-char-skip": func(r *Reader) bool {
		return viFindWidget(r, "vi-find-prev-char-skip")
	},
	"vi-repeat-find": func(r *Reader) bool {
		n := r.takeArg()
		if r.vi.findWidget == "" {
			return false
		}
		return viFindChar(r, r.vi.findWidget, r.vi.findCh, n)
	},
	"vi-rev-repeat-find": func(r *Reader) bool {
		n := r.takeArg()
		rev := map[string]string{
			"vi-find-next-char":      "vi-find-prev-char",
			"vi-find-prev-char":      "vi-find-next-char",
			"vi-find-next-char-skip": "vi-find-prev-char-skip",
			"vi-find-prev-char-skip": "vi-find-next-char-skip",
		}[r.vi.findWidget]
		if rev == "" {
			return false
		}
		return viFindChar(r, rev, r.vi.findCh, n)
	},

	// Operators.
	"vi-delete": func(r *Reader) bool {
		if r.state == stViVisual {
			if fn, ok := baseWidgets["kill-region"]; ok {
				return fn(r)
			}
		}
		return r.startViOperator("delete", 'd')
	},
	"vi-change": func(r *Reader) bool {
		return r.startViOperator("change", 'c')
	},
	"vi-yank": func(r *Reader) bool {
		return r.startViOperator("yank", 'y')
	},

	// Simple mutations.
	"vi-delete-char": func(r *Reader) bool {
		n := r.takeArg()
		end := r.buf.cursor + n
		if le := r.lineEnd(r.buf.cursor); end > le {
			end = le
		}
		if end == r.buf.cursor {
			return false
		}
		r.viKill(string(r.buf.Cut(r.buf.cursor, end)))
		return true
	},
	"vi-backward-delete-char": func(r *Reader) bool {
		n := r.takeArg()
		start := r.buf.cursor - n
		if ls := r.lineStart(r.buf.cursor); start < ls {
			start = ls
		}
		if start == r.buf.cursor {
			return false
		}
		r.viKill(string(r.buf.Cut(start, r.buf.cursor)))
		return true
	},
	"vi-replace-chars": func(r *Reader) bool {
		n := r.takeArg()
		ch, err := r.decoder.ReadRune()
		if err != nil {
			r.readErr = err
			return false
		}
		end := r.buf.cursor + n
		if le := r.lineEnd(r.buf.cursor); end > le {
			return false
		}
		text := make([]rune, n)
		for i := range text {
			text[i] = ch
		}
		r.buf.Replace(r.buf.cursor, end, text)
		r.buf.MoveTo(r.buf.cursor - 1)
		return true
	},
	"vi-replace": func(r *Reader) bool {
		r.takeArg()
		r.buf.overwrite = true
		r.enterViInsert()
		return true
	},
	"vi-substitute": func(r *Reader) bool {
		n := r.takeArg()
		end := r.buf.cursor + n
		if le := r.lineEnd(r.buf.cursor); end > le {
			end = le
		}
		if e := r.buf.Cut(r.buf.cursor, end); len(e) > 0 {
			r.viKill(string(e))
		}
		r.enterViInsert()
		return true
	},
	"vi-change-whole-line": func(r *Reader) bool {
		r.takeArg()
		start := r.lineStart(r.buf.cursor)
		end := r.lineEnd(r.buf.cursor)
		if e := r.buf.Cut(start, end); len(e) > 0 {
			r.viKill(string(e))
		}
		r.enterViInsert()
		return true
	},
	"vi-change-eol": func(r *Reader) bool {
		r.takeArg()
		end := r.lineEnd(r.buf.cursor)
		if e := r.buf.Cut(r.buf.cursor, end); len(e) > 0 {
			r.viKill(string(e))
		}
		r.enterViInsert()
		return true
	},
	"vi-kill-eol": func(r *Reader) bool {
		r.takeArg()
		end := r.lineEnd(r.buf.cursor)
		if end == r.buf.cursor {
			return false
		}
		r.viKill(string(r.buf.Cut(r.buf.cursor, end)))
		return true
	},
	"vi-yank-whole-line": func(r *Reader) bool {
		n := r.takeArg()
		start, end := r.viWholeLineSpan(n)
		text := r.buf.Substring(start, end)
		if len(text) == 0 {
			return false
		}
		r.viKill(text)
		return true
	},
	"vi-put-after": func(r *Reader) bool {
		n := r.takeArg()
		text := r.putText()
		if text == "" {
			return false
		}
		pos := r.buf.cursor
		if pos < r.lineEnd(pos) {
			pos++
		}
		r.buf.MoveTo(pos)
		for ; n > 0; n-- {
			r.buf.Insert([]rune(text))
		}
		r.buf.MoveTo(r.buf.cursor - 1)
		return true
	},
	"vi-put-before": func(r *Reader) bool {
		n := r.takeArg()
		text := r.putText()
		if text == "" {
			return false
		}
		for ; n > 0; n-- {
			r.buf.Insert([]rune(text))
		}
		r.buf.MoveTo(r.buf.cursor - 1)
		return true
	},
	"vi-put-replace-region": func(r *Reader) bool {
		r.takeArg()
		text := r.putText()
		start, end, ok := r.regionSpan()
		if !ok || text == "" {
			return false
		}
		r.buf.Replace(start, end, []rune(text))
		r.buf.ClearMark()
		r.state = stViCmd
		return true
	},
	"vi-swap-case": func(r *Reader) bool {
		n := r.takeArg()
		b := &r.buf
		if r.state == stViVisual {
			start, end, ok := r.regionSpan()
			if !ok {
				return false
			}
			word := b.Copy(start, end)
			swapCase(word)
			b.Replace(start, end, word)
			b.ClearMark()
			b.MoveTo(start)
			r.state = stViCmd
			return true
		}
		end := b.cursor + n
		if le := r.lineEnd(b.cursor); end > le {
			end = le
		}
		if end == b.cursor {
			return false
		}
		word := b.Copy(b.cursor, end)
		swapCase(word)
		b.Replace(b.cursor, end, word)
		return true
	},
	"vi-change-region": func(r *Reader) bool {
		r.takeArg()
		start, end, ok := r.regionSpan()
		if !ok {
			return false
		}
		if e := r.buf.Cut(start, end); len(e) > 0 {
			r.viKill(string(e))
		}
		r.buf.ClearMark()
		r.enterViInsert()
		return true
	},

	// Registers and repeat.
	"vi-set-buffer": func(r *Reader) bool {
		ch, err := r.decoder.ReadRune()
		if err != nil {
			r.readErr = err
			return false
		}
		r.vi.register = ch
		return true
	},
	"vi-repeat-change": func(r *Reader) bool {
		r.takeArg()
		if len(r.vi.lastChange) == 0 {
			return false
		}
		r.decoder.Push(r.vi.lastChange)
		return true
	},

	// History.
	"vi-fetch-history": func(r *Reader) bool {
		if r.argSet {
			n := r.takeArg()
			if n < 1 || n > r.history.Len() {
				return r.historyFailed()
			}
			r.historyMoveTo(n - 1)
			return true
		}
		r.historyMoveTo(r.history.Len())
		return true
	},
	"vi-history-search-backward": func(r *Reader) bool {
		r.takeArg()
		r.enterSearch(-1, false)
		return true
	},
	"vi-history-search-forward": func(r *Reader) bool {
		r.takeArg()
		r.enterSearch(+1, false)
		return true
	},
	"vi-repeat-search": func(r *Reader) bool {
		r.takeArg()
		return viRepeatSearch(r, r.search.dir)
	},
	"vi-rev-repeat-search": func(r *Reader) bool {
		r.takeArg()
		return viRepeatSearch(r, -r.search.dir)
	},

	// Text objects (operator-pending and visual modes).
	"select-in-word": func(r *Reader) bool {
		r.takeArg()
		return selectWord(r, false)
	},
	"select-a-word": func(r *Reader) bool {
		r.takeArg()
		return selectWord(r, true)
	},
	"select-quoted": func(r *Reader) bool {
		r.takeArg()
		return selectQuoted(r)
	},
	"select-bracketed": func(r *Reader) bool {
		r.takeArg()
		return selectBracketed(r)
	},
}

func viFirstNonBlank(r *Reader) bool {
	pos := r.lineStart(r.buf.cursor)
	end := r.lineEnd(pos)
	text := r.buf.Text()
	for pos < end && (text[pos] == ' ' || text[pos] == '\t') {
		pos++
	}
	r.buf.MoveTo(pos)
	return true
}

func viFindWidget(r *Reader, widget string) bool {
	n := r.takeArg()
	ch, err := r.decoder.ReadRune()
	if err != nil {
		r.readErr = err
		return false
	}
	r.vi.findCh = ch
	r.vi.findWidget = widget
	return viFindChar(r, widget, ch, n)
}

func viRepeatSearch(r *Reader, dir int) bool {
	pattern := string(r.search.matchedPattern)
	if pattern == "" {
		return false
	}
	var i int
	if dir >= 0 {
		i = r.history.SearchForward(pattern, r.history.index, false)
	} else {
		i = r.history.SearchBackward(pattern, r.history.index, false)
	}
	if i < 0 {
		return r.historyFailed()
	}
	r.historyMoveTo(i)
	return true
}

func swapCase(word []rune) {
	for i, c := range word {
		switch {
		case unicode.IsUpper(c):
			word[i] = unicode.ToLower(c)
		case unicode.IsLower(c):
			word[i] = unicode.ToUpper(c)
		}
	}
}

// selectWord computes the span of the word under the cursor; around mode
// extends over the following blanks (or the preceding ones when the word is
// last on the line).
func selectWord(r *Reader, around bool) bool {
	text := r.buf.Text()
	pos := r.buf.cursor
	if pos >= len(text) {
		return false
	}
	var member func(rune) bool
	switch {
	case isViWordChar(text[pos]):
		member = isViWordChar
	case unicode.IsSpace(text[pos]):
		member = unicode.IsSpace
	default:
		member = func(ch rune) bool {
			return !isViWordChar(ch) && !unicode.IsSpace(ch) && ch != '\n'
		}
	}
	start, end := pos, pos+1
	for start > 0 && text[start-1] != '\n' && member(text[start-1]) {
		start--
	}
	for end < len(text) && text[end] != '\n' && member(text[end]) {
		end++
	}
	if around {
		tail := end
		for tail < len(text) && (text[tail] == ' ' || text[tail] == '\t') {
			tail++
		}
		if tail == end {
			for start > 0 && (text[start-1] == ' ' || text[start-1] == '\t') {
				start--
			}
		}
		end = tail
	}
	r.vi.span = [2]int{start, end}
	r.vi.spanSet = true
	return true
}

// selectQuoted computes the span delimited by the quote character that ended
// the key sequence ("i'" picks the inside, "a'" includes the quotes).
func selectQuoted(r *Reader) bool {
	seq := r.lastKeySeq
	if len(seq) < 2 {
		return false
	}
	around := seq[0] == 'a'
	quote := rune(seq[len(seq)-1])

	text := r.buf.Text()
	pos := r.buf.cursor
	ls, le := r.lineStart(pos), r.lineEnd(pos)

	// Pair up the quotes on the line in order and pick the pair containing
	// the cursor, or failing that the first pair after it, or failing both
	// the last pair on the line.
	var quotes []int
	for i := ls; i < le; i++ {
		if text[i] == quote {
			quotes = append(quotes, i)
		}
	}
	open, closing := -1, -1
	for i := 0; i+1 < len(quotes); i += 2 {
		if quotes[i+1] >= pos || i+2 >= len(quotes) {
			open, closing = quotes[i], quotes[i+1]
			break
		}
	}
	if open == -1 {
		return false
	}
	if around {
		r.vi.span = [2]int{open, closing + 1}
	} else {
		r.vi.span = [2]int{open + 1, closing}
	}
	r.vi.spanSet = true
	return true
}

var bracketPairs = map[rune][2]rune{
	'(': {'(', ')'}, ')': {'(', ')'}, 'b': {'(', ')'},
	'[': {'[', ']'}, ']': {'[', ']'},
	'{': {'{', '}'}, '}': {'{', '}'},
	'<': {'<', '>'}, '>': {'<', '>'},
}

// selectBracketed computes the span enclosed by the matching bracket pair
// around the cursor, honoring nesting.
func selectBracketed(r *Reader) bool {
	seq := r.lastKeySeq
	if len(seq) < 2 {
		return false
	}
	around := seq[0] == 'a'
	pair, ok := bracketPairs[rune(seq[len(seq)-1])]
	if !ok {
		return false
	}
	open, closing := pair[0], pair[1]

	text := r.buf.Text()
	pos := r.buf.cursor

	depth := 0
	openPos := -1
	for i := pos; i >= 0; i-- {
		if i < len(text) {
			switch text[i] {
			case closing:
				if i != pos {
					depth++
				}
			case open:
				if depth == 0 {
					openPos = i
				} else {
					depth--
				}
			}
		}
		if openPos >= 0 {
			break
		}
	}
	if openPos < 0 {
		return false
	}
	depth = 0
	closePos := -1
	for i := openPos + 1; i < len(text); i++ {
		switch text[i] {
		case open:
			depth++
		case closing:
			if depth == 0 {
				closePos = i
			} else {
				depth--
			}
		}
		if closePos >= 0 {
			break
		}
	}
	if closePos < 0 {
		return false
	}
	if around {
		r.vi.span = [2]int{openPos, closePos + 1}
	} else {
		r.vi.span = [2]int{openPos + 1, closePos}
	}
	r.vi.spanSet = true
	return true
}
