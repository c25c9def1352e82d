package editline

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// historyEntry is one accepted line. Entries are ordered by monotonically
// increasing index; the timestamp is zero when timestamps are disabled.
type historyEntry struct {
	index uint64
	time  time.Time
	text  string
}

// history is an append-only store of accepted lines with optional file
// persistence. The in-memory store is capped at maxSize and the file at
// maxFileSize, independently. The navigation cursor (index, pending) is used
// by the history widgets: index == len(entries) denotes the in-progress line,
// whose text is stashed in pending while browsing.
type history struct {
	path string
	file *os.File

	entries   []historyEntry
	nextIndex uint64

	maxSize      int
	maxFileSize  int
	ignore       []string
	ignoreSpace  bool
	ignoreDups   bool
	reduceBlanks bool
	incremental  bool
	timestamped  bool

	index   int
	pending string
}

func (h *history) configure(r *Reader) {
	h.path = r.varString(VarHistoryFile)
	h.maxSize = r.varInt(VarHistorySize)
	h.maxFileSize = r.varInt(VarHistoryFileSize)
	h.ignore = nil
	if pats := r.varString(VarHistoryIgnore); pats != "" {
		h.ignore = strings.Split(pats, ":")
	}
	h.ignoreSpace = r.Flag(FlagHistoryIgnoreSpace)
	h.ignoreDups = r.Flag(FlagHistoryIgnoreDups)
	h.reduceBlanks = r.Flag(FlagHistoryReduceBlanks)
	h.incremental = r.Flag(FlagHistoryIncremental)
	h.timestamped = r.Flag(FlagHistoryTimestamped)
	h.index = len(h.entries)
}

// Len returns the number of stored entries.
func (h *history) Len() int {
	return len(h.entries)
}

// Get returns the text of entry i.
func (h *history) Get(i int) string {
	if i < 0 || i >= len(h.entries) {
		return ""
	}
	return h.entries[i].text
}

// Load reads the history file and appends its entries, deduplicating
// consecutive duplicates when configured. Missing files are not an error.
func (h *history) Load() error {
	if h.path == "" {
		return nil
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0600)
	if err != nil {
		return err
	}

	var ts time.Time
	var physical []string
	flush := func() {
		if len(physical) == 0 {
			return
		}
		text := decodeHistoryText(strings.Join(physical, "\n"))
		physical = physical[:0]
		if h.ignoreDups && len(h.entries) > 0 && h.entries[len(h.entries)-1].text == text {
			return
		}
		h.entries = append(h.entries, historyEntry{index: h.nextIndex, time: ts, text: text})
		h.nextIndex++
		ts = time.Time{}
	}

	cont := false
	for s := bufio.NewScanner(f); s.Scan(); {
		line := s.Text()
		if !cont {
			if millis, ok := parseTimestampLine(line); ok {
				ts = millis
				continue
			}
		}
		physical = append(physical, line)
		cont = hasOpenEscape(line)
		if !cont {
			flush()
		}
	}
	flush()

	h.trim()
	h.index = len(h.entries)
	h.file = f
	return nil
}

// Close flushes pending writes and closes the history file. With incremental
// writes disabled, Close performs the deferred rewrite.
func (h *history) Close() error {
	var err error
	if !h.incremental && h.path != "" {
		err = h.Save()
	}
	if h.file != nil {
		if cerr := h.file.Close(); err == nil {
			err = cerr
		}
		h.file = nil
	}
	return err
}

// Add appends an accepted line, honoring the ignore rules. It reports
// whether the line was stored. The navigation cursor is reset.
func (h *history) Add(text string) bool {
	defer func() { h.index = len(h.entries); h.pending = "" }()

	if h.maxSize == 0 {
		debugPrintf("history: disabled\n")
		return false
	}
	if text == "" {
		return false
	}
	if h.ignoreSpace && (text[0] == ' ' || text[0] == '\t') {
		debugPrintf("history: ignore leading space\n")
		return false
	}
	for _, pat := range h.ignore {
		if ok, _ := path.Match(pat, text); ok {
			debugPrintf("history: ignore pattern %q\n", pat)
			return false
		}
	}
	if h.ignoreDups && len(h.entries) > 0 &&
		h.compareForm(h.entries[len(h.entries)-1].text) == h.compareForm(text) {
		debugPrintf("history: elide duplicate\n")
		return false
	}

	e := historyEntry{index: h.nextIndex, text: text}
	h.nextIndex++
	if h.timestamped {
		e.time = time.Now()
	}
	h.entries = append(h.entries, e)
	h.trim()

	if h.incremental && h.file != nil {
		if _, err := h.file.WriteString(encodeHistoryEntry(e, h.timestamped)); err != nil {
			// Drop this record only; the in-memory entry stands.
			debugPrintf("history: incremental write failed: %v\n", err)
		}
	}
	return true
}

// Save rewrites the history file atomically. A failed rewrite leaves the
// previous file intact.
func (h *history) Save() error {
	if h.path == "" {
		return nil
	}
	entries := h.entries
	if h.maxFileSize > 0 && len(entries) > h.maxFileSize {
		entries = entries[len(entries)-h.maxFileSize:]
	}

	dir := filepath.Dir(h.path)
	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for i := range entries {
		if _, err := w.WriteString(encodeHistoryEntry(entries[i], h.timestamped)); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if h.file != nil {
		h.file.Close()
		h.file = nil
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path, os.O_RDWR|os.O_APPEND, 0600)
	if err == nil {
		h.file = f
	}
	return err
}

func (h *history) trim() {
	if h.maxSize > 0 && len(h.entries) > h.maxSize {
		h.entries = append(h.entries[:0], h.entries[len(h.entries)-h.maxSize:]...)
	}
}

func (h *history) compareForm(text string) string {
	if !h.reduceBlanks {
		return text
	}
	return strings.Join(strings.Fields(text), " ")
}

// startBrowse stashes the in-progress line before history navigation moves
// off it.
func (h *history) startBrowse(current string) {
	if h.index == len(h.entries) {
		h.pending = current
	}
}

// textAt returns the text at navigation position i, where i == Len() is the
// stashed in-progress line.
func (h *history) textAt(i int) string {
	if i == len(h.entries) {
		return h.pending
	}
	return h.Get(i)
}

// SearchBackward returns the largest entry index < from whose text contains
// pattern (or starts with it when prefix is set), or -1.
func (h *history) SearchBackward(pattern string, from int, prefix bool) int {
	for i := min(from, len(h.entries)) - 1; i >= 0; i-- {
		if h.matches(i, pattern, prefix) {
			return i
		}
	}
	return -1
}

// SearchForward returns the smallest entry index > from whose text contains
// pattern (or starts with it when prefix is set), or -1.
func (h *history) SearchForward(pattern string, from int, prefix bool) int {
	for i := from + 1; i < len(h.entries); i++ {
		if h.matches(i, pattern, prefix) {
			return i
		}
	}
	return -1
}

func (h *history) matches(i int, pattern string, prefix bool) bool {
	if prefix {
		return strings.HasPrefix(h.entries[i].text, pattern)
	}
	return strings.Contains(h.entries[i].text, pattern)
}

// SearchBackwardRegex and SearchForwardRegex are the pattern-search variants
// used by history-incremental-pattern-search.
func (h *history) SearchBackwardRegex(re *regexp.Regexp, from int) int {
	for i := min(from, len(h.entries)) - 1; i >= 0; i-- {
		if re.MatchString(h.entries[i].text) {
			return i
		}
	}
	return -1
}

func (h *history) SearchForwardRegex(re *regexp.Regexp, from int) int {
	for i := from + 1; i < len(h.entries); i++ {
		if re.MatchString(h.entries[i].text) {
			return i
		}
	}
	return -1
}

// zero overwrites entry texts with NUL runes and empties the store. Used
// when a masked line may have leaked into the store.
func (h *history) zero() {
	for i := range h.entries {
		h.entries[i].text = strings.Repeat("\x00", len(h.entries[i].text))
	}
	h.entries = h.entries[:0]
	h.pending = ""
	h.index = 0
}

func (h *history) String() string {
	var buf strings.Builder
	buf.WriteString("[")
	for i := range h.entries {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(h.entries[i].text)
	}
	buf.WriteString("]")
	return buf.String()
}

// encodeHistoryEntry renders one entry in the on-disk format: an optional
// "#<unix-millis>" line followed by the text with backslashes doubled and
// embedded newlines escaped as backslash-newline.
func encodeHistoryEntry(e historyEntry, timestamped bool) string {
	var buf strings.Builder
	if timestamped {
		ts := e.time
		if ts.IsZero() {
			ts = time.Unix(0, 0)
		}
		fmt.Fprintf(&buf, "#%d\n", ts.UnixMilli())
	}
	text := strings.ReplaceAll(e.text, `\`, `\\`)
	text = strings.ReplaceAll(text, "\n", "\\\n")
	buf.WriteString(text)
	buf.WriteString("\n")
	return buf.String()
}

func decodeHistoryText(s string) string {
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			buf.WriteByte(s[i])
			continue
		}
		buf.WriteByte(s[i])
	}
	return buf.String()
}

// hasOpenEscape reports whether a physical line ends with an unescaped
// backslash, meaning the logical entry continues on the next line.
func hasOpenEscape(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func parseTimestampLine(line string) (time.Time, bool) {
	if len(line) < 2 || line[0] != '#' {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(line[1:], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
