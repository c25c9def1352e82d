package editline

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// OthersGroupName is the heading candidates without a group are listed
// under when grouping is enabled.
const OthersGroupName = "others"

const groupStyle = AttrBold

// completionState tracks an in-progress completion: the survivors of the
// matcher chain, the span of the buffer being rewritten, the rendered
// candidate list, and the menu selection.
type completionState struct {
	cands []Candidate
	// wordStart and wordLen delimit the buffer span the completion rewrites.
	wordStart int
	wordLen   int
	origWord  string
	index     int
	menu      bool
	listRows  []aRow
	// suffix is a completion-appended suffix eligible for automatic removal
	// by the next key.
	suffix string
}

func (c *completionState) reset() {
	*c = completionState{index: -1}
}

// gatherCandidates runs the parser and completers and normalizes the result:
// ANSI is stripped from displays and duplicates by (value, group, key) are
// elided.
func (r *Reader) gatherCandidates() (*ParsedLine, []Candidate, bool) {
	pl, err := r.parser.Parse(r.buf.String(), r.buf.cursor, ParseComplete)
	if err != nil {
		return nil, nil, false
	}
	var cands []Candidate
	for _, c := range r.completers {
		c.Complete(r, pl, &cands)
	}
	seen := make(map[string]struct{}, len(cands))
	out := cands[:0]
	for _, c := range cands {
		c.Display = stripANSI(c.Display)
		key := c.Value + "\x00" + c.Group + "\x00" + c.Key
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return pl, out, true
}

// completionWord returns the pattern to match candidates against and the
// buffer span the accepted candidate replaces. With COMPLETE_IN_WORD the
// pattern stops at the cursor and only the prefix is replaced; otherwise the
// whole word is used.
func (r *Reader) completionWord(pl *ParsedLine) (pattern string, start, length int) {
	word := []rune(pl.Word())
	wc := pl.WordCursor
	if wc > len(word) {
		wc = len(word)
	}
	start = r.buf.cursor - wc
	if r.Flag(FlagCompleteInWord) {
		return string(word[:wc]), start, wc
	}
	return string(word), start, len(word)
}

// matchCandidates applies the matcher chain: exact prefix, case-insensitive
// prefix, camelCase, and finally the typo matcher. The first matcher with
// survivors wins.
func (r *Reader) matchCandidates(pattern string, cands []Candidate) []Candidate {
	if pattern == "" {
		if !r.Flag(FlagEmptyWordOptions) {
			return nil
		}
		return cands
	}

	type matcher func(pattern, value string) bool
	matchers := []matcher{
		strings.HasPrefix,
		func(p, v string) bool {
			if !r.Flag(FlagCaseInsensitive) {
				return false
			}
			return strings.HasPrefix(strings.ToLower(v), strings.ToLower(p))
		},
		camelMatch,
	}
	if r.Flag(FlagCompleteMatcherTypo) {
		errors := r.varInt(VarErrors)
		matchers = append(matchers, func(p, v string) bool {
			return typoMatch(p, v, errors)
		})
	}

	for _, m := range matchers {
		var out []Candidate
		for _, c := range cands {
			if m(pattern, c.Value) {
				out = append(out, c)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// camelMatch reports whether pattern matches value camel-case style: "fB"
// matches "fooBar", "cAC" matches "createAccessControl".
func camelMatch(pattern, value string) bool {
	pr := []rune(pattern)
	vr := []rune(value)
	if len(pr) == 0 || len(vr) == 0 || pr[0] != vr[0] {
		return false
	}
	vi := 1
	for pi := 1; pi < len(pr); pi++ {
		p := pr[pi]
		if unicode.IsUpper(p) {
			// Scan to the next hump.
			for vi < len(vr) && vr[vi] != p {
				vi++
			}
			if vi == len(vr) {
				return false
			}
			vi++
			continue
		}
		if vi < len(vr) && vr[vi] == p {
			vi++
			continue
		}
		return false
	}
	return true
}

// typoMatch reports whether value is within maxErrors edits of pattern.
// Short patterns are excluded so a single mistyped character does not match
// everything.
func typoMatch(pattern, value string, maxErrors int) bool {
	if len([]rune(pattern)) <= maxErrors {
		return false
	}
	return editDistance(pattern, value) <= maxErrors
}

func editDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	prev := make([]int, len(br)+1)
	cur := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		cur[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			cur[j] = min(min(cur[j-1]+1, prev[j]+1), prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(br)]
}

func commonPrefix(cands []Candidate) string {
	if len(cands) == 0 {
		return ""
	}
	prefix := cands[0].Value
	for _, c := range cands[1:] {
		v := c.Value
		i := 0
		for i < len(prefix) && i < len(v) && prefix[i] == v[i] {
			i++
		}
		prefix = prefix[:i]
		if prefix == "" {
			break
		}
	}
	return prefix
}

// groupCandidates orders candidates for display: grouped candidates cluster
// under their group heading, ungrouped ones under OthersGroupName, each
// group sorted by value. Without grouping the whole set is sorted flat.
func (r *Reader) groupCandidates(cands []Candidate) []Candidate {
	sorted := append([]Candidate(nil), cands...)
	if !r.Flag(FlagAutoGroup) && !r.Flag(FlagGroup) {
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })
		return sorted
	}
	groups := make(map[string][]Candidate)
	var order []string
	for _, c := range sorted {
		g := c.Group
		if g == "" {
			g = OthersGroupName
		}
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], c)
	}
	out := sorted[:0]
	for _, g := range order {
		cs := groups[g]
		sort.SliceStable(cs, func(i, j int) bool { return cs[i].Value < cs[j].Value })
		out = append(out, cs...)
	}
	return out
}

// completeWord is the complete-word / expand-or-complete engine entry.
// menuRequested forces the menu sub-loop (menu-complete and friends).
func (r *Reader) completeWord(menuRequested bool) bool {
	repeat := isCompletionWidget(r.lastWidget)
	pl, cands, ok := r.gatherCandidates()
	if !ok {
		return false
	}
	pattern, start, length := r.completionWord(pl)
	survivors := r.matchCandidates(pattern, cands)
	if len(survivors) == 0 {
		return false
	}
	survivors = r.groupCandidates(survivors)

	r.comp.reset()
	r.comp.cands = survivors
	r.comp.wordStart = start
	r.comp.wordLen = length
	r.comp.origWord = r.buf.Substring(start, start+length)

	if len(survivors) == 1 {
		r.acceptCandidate(survivors[0])
		return true
	}

	if menuRequested {
		return r.enterMenu()
	}

	if prefix := commonPrefix(survivors); len(prefix) > len(pattern) {
		r.replaceWord(prefix)
		return true
	}

	if repeat {
		if r.Flag(FlagAutoMenu) {
			return r.enterMenu()
		}
		if r.Flag(FlagAutoList) {
			return r.showList(-1)
		}
		return false
	}
	if r.Flag(FlagAutoList) && !r.Flag(FlagAutoMenu) {
		return r.showList(-1)
	}
	return false
}

// listChoices renders the candidate list without modifying the buffer.
func (r *Reader) listChoices() bool {
	pl, cands, ok := r.gatherCandidates()
	if !ok {
		return false
	}
	pattern, start, length := r.completionWord(pl)
	survivors := r.matchCandidates(pattern, cands)
	if len(survivors) == 0 {
		return false
	}
	r.comp.reset()
	r.comp.cands = r.groupCandidates(survivors)
	r.comp.wordStart = start
	r.comp.wordLen = length
	r.comp.origWord = r.buf.Substring(start, start+length)
	return r.showList(-1)
}

func isCompletionWidget(name string) bool {
	switch name {
	case "complete-word", "expand-or-complete", "menu-complete",
		"menu-expand-or-complete", "reverse-menu-complete", "menu-select",
		"list-choices":
		return true
	}
	return false
}

// replaceWord rewrites the completion span with text, tracking the new span
// length for subsequent cycles.
func (r *Reader) replaceWord(text string) {
	r.buf.Replace(r.comp.wordStart, r.comp.wordStart+r.comp.wordLen, []rune(text))
	r.comp.wordLen = len([]rune(text))
}

// acceptCandidate inserts a candidate and applies the suffix policy.
func (r *Reader) acceptCandidate(c Candidate) {
	text := c.Value
	switch {
	case c.Suffix != "":
		if r.Flag(FlagAutoParamSlash) {
			text += c.Suffix
			if r.Flag(FlagAutoRemoveSlash) {
				r.comp.suffix = c.Suffix
			}
		}
	case c.Complete:
		text += " "
	}
	r.replaceWord(text)
	r.comp.listRows = nil
	r.comp.menu = false
}

// maybeRemoveSuffix removes a completion-appended suffix if the key about to
// be inserted makes it redundant.
func (r *Reader) maybeRemoveSuffix(next rune) {
	if r.comp.suffix == "" {
		return
	}
	remove := r.varString(VarRemoveSuffixChars)
	if strings.ContainsRune(remove, next) {
		n := len([]rune(r.comp.suffix))
		r.buf.DeleteAt(r.buf.cursor-n, n)
		r.comp.wordLen -= n
	}
	r.comp.suffix = ""
}

// enterMenu starts the menu sub-loop with the first candidate inserted and
// highlighted.
func (r *Reader) enterMenu() bool {
	r.comp.menu = true
	r.comp.index = 0
	r.state = stMenuing
	r.acceptCandidateKeepMenu(r.comp.cands[0])
	r.showList(0)
	return true
}

func (r *Reader) acceptCandidateKeepMenu(c Candidate) {
	r.replaceWord(c.Value)
}

// menuCycle advances the menu selection by delta, wrapping around.
func (r *Reader) menuCycle(delta int) bool {
	if !r.comp.menu || len(r.comp.cands) == 0 {
		return false
	}
	n := len(r.comp.cands)
	r.comp.index = ((r.comp.index+delta)%n + n) % n
	r.acceptCandidateKeepMenu(r.comp.cands[r.comp.index])
	r.showList(r.comp.index)
	return true
}

// menuAccept keeps the current pick and leaves the menu.
func (r *Reader) menuAccept() bool {
	if !r.comp.menu {
		return false
	}
	c := r.comp.cands[r.comp.index]
	r.acceptCandidate(c)
	r.exitMenu()
	return true
}

// menuAbort restores the original word and leaves the menu.
func (r *Reader) menuAbort() bool {
	if !r.comp.menu {
		return false
	}
	r.replaceWord(r.comp.origWord)
	r.exitMenu()
	return true
}

func (r *Reader) exitMenu() {
	r.comp.menu = false
	r.comp.listRows = nil
	r.state = stEditing
}

// showList renders the candidate list (optionally with a highlighted
// selection) into rows displayed below the buffer. Lists larger than
// list-max require interactive confirmation first.
func (r *Reader) showList(selected int) bool {
	cands := r.comp.cands
	if selected >= 0 {
		// Menu selection caps the rendered list separately; past the cap the
		// menu still cycles, just without the list.
		if max := r.varInt(VarMenuListMax); max > 0 && len(cands) > max {
			r.comp.listRows = nil
			return true
		}
	}
	listMax := r.varInt(VarListMax)
	if selected < 0 && listMax > 0 && len(cands) > listMax {
		ok, err := r.confirmList(len(cands))
		if err != nil || !ok {
			r.comp.listRows = nil
			return ok
		}
	}
	r.comp.listRows = r.buildListRows(cands, selected)
	return true
}

// confirmList asks before displaying a large candidate list.
func (r *Reader) confirmList(n int) (bool, error) {
	q := Plain("Display all " + strconv.Itoa(n) + " possibilities? (y or n)")
	r.comp.listRows = []aRow{cellsOf(q, 0, 1)}
	r.redisplay(true)
	for {
		ch, err := r.decoder.ReadRune()
		if err != nil {
			return false, err
		}
		switch ch {
		case 'y', 'Y', ' ':
			return true, nil
		case 'n', 'N', 0x07, 0x1b, 'q':
			return false, nil
		}
	}
}

// buildListRows lays candidates out in columns sized from the terminal
// width. Group headings get their own rows. LIST_ROWS_FIRST fills row-major
// instead of column-major; LIST_PACKED sizes each column independently.
func (r *Reader) buildListRows(cands []Candidate, selected int) []aRow {
	width := r.display.width
	grouping := r.Flag(FlagAutoGroup) || r.Flag(FlagGroup)

	var rows []aRow
	appendGroup := func(name string, cs []Candidate, base int) {
		if grouping && name != "" {
			rows = append(rows, cellsOf(styled(name, groupStyle), 0, 1))
		}
		rows = append(rows, r.layoutGrid(cs, width, selected-base)...)
	}

	if !grouping {
		appendGroup("", cands, 0)
		return rows
	}
	start := 0
	for i := 1; i <= len(cands); i++ {
		if i == len(cands) || groupName(cands[i]) != groupName(cands[start]) {
			appendGroup(groupName(cands[start]), cands[start:i], start)
			start = i
		}
	}
	return rows
}

func groupName(c Candidate) string {
	if c.Group == "" {
		return OthersGroupName
	}
	return c.Group
}

func styled(s, attr string) AttributedString {
	var a AttributedString
	a.Append(s, attr)
	return a
}

// layoutGrid arranges candidates into columns. selected indexes into cs; a
// negative value means no highlight.
func (r *Reader) layoutGrid(cs []Candidate, width int, selected int) []aRow {
	const gutter = 2

	labels := make([]AttributedString, len(cs))
	widths := make([]int, len(cs))
	maxw := 1
	for i, c := range cs {
		var a AttributedString
		attr := ""
		if i == selected {
			attr = AttrReverse
		}
		a.Append(c.displayText(), attr)
		if c.Descr != "" {
			a.Append(" "+c.Descr, attr+AttrDim)
		}
		labels[i] = a
		widths[i] = promptWidth(a)
		if widths[i] > maxw {
			maxw = widths[i]
		}
	}

	cols := (width + gutter) / (maxw + gutter)
	if cols < 1 {
		cols = 1
	}
	if cols > len(cs) {
		cols = len(cs)
	}
	nrows := (len(cs) + cols - 1) / cols

	packed := r.Flag(FlagListPacked)
	rowsFirst := r.Flag(FlagListRowsFirst)

	index := func(row, col int) int {
		if rowsFirst {
			return row*cols + col
		}
		return col*nrows + row
	}

	colWidth := func(col int) int {
		if !packed {
			return maxw
		}
		w := 1
		for row := 0; row < nrows; row++ {
			if i := index(row, col); i < len(cs) && widths[i] > w {
				w = widths[i]
			}
		}
		return w
	}

	out := make([]aRow, 0, nrows)
	for row := 0; row < nrows; row++ {
		var line AttributedString
		for col := 0; col < cols; col++ {
			i := index(row, col)
			if i >= len(cs) {
				continue
			}
			line.text = append(line.text, labels[i].text...)
			line.attrs = append(line.attrs, labels[i].attrs...)
			if col < cols-1 {
				for pad := widths[i]; pad < colWidth(col)+gutter; pad++ {
					line.Append(" ", "")
				}
			}
		}
		out = append(out, cellsOf(line, 0, 1))
	}
	return out
}
