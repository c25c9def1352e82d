package editline

import (
	"io"
	"strings"
	"sync/atomic"
	"time"
)

type sessionState int

const (
	stEditing sessionState = iota
	stSearching
	stMenuing
	stViCmd
	stViVisual
	stViOpp
	stAccepted
	stAborted
	stEOF
)

// Reader is an edit session factory: it owns the buffer, kill ring, history,
// keymaps, and display, and reads lines interactively from its Terminal. A
// Reader supports one read at a time; PrintAbove is the only method safe to
// call concurrently with a read.
type Reader struct {
	term        Terminal
	parser      Parser
	completers  []Completer
	highlighter Highlighter
	expander    Expander
	masking     MaskingCallback

	keymaps    map[string]*keyMap
	mainKeymap string

	vars  map[string]interface{}
	flags map[Flag]bool

	buf      buffer
	killRing killRing
	history  history
	display  display
	status   *Status
	decoder  inputDecoder

	state     sessionState
	search    searchState
	comp      completionState
	vi        viState
	registers map[rune]string

	argVal int
	argNeg bool
	argSet bool

	lastWidget string
	lastKeySeq []byte
	lastKeyCh  rune

	yankStart int
	yankEnd   int
	// readErr records an I/O failure raised inside a widget; it aborts the
	// read loop.
	readErr error

	prompt           string
	rightPrompt      string
	secondaryMissing string
	masked           bool

	histLoaded bool
	reading    int32
	resized    int32

	// initWidth/initHeight and configPath are set by options and consumed at
	// the end of New.
	initWidth  int
	initHeight int
	configPath string
}

// New creates a Reader using the supplied options. Without options the
// Reader uses a Terminal on os.Stdin and os.Stdout, the whitespace parser,
// and the emacs keymap.
func New(options ...Option) *Reader {
	r := &Reader{
		parser:     whitespaceParser{},
		keymaps:    newKeymaps(),
		mainKeymap: KeymapEmacs,
		vars:       make(map[string]interface{}),
		flags:      make(map[Flag]bool),
		registers:  make(map[rune]string),
	}
	for _, opt := range options {
		opt.apply(r)
	}
	if r.term == nil {
		r.term = NewTerminal(nil, nil)
	}
	r.display.init(r.term)
	r.status = newStatus(&r.display)
	if r.initWidth != 0 {
		r.display.setSize(r.initWidth, r.initHeight)
		r.status.resize(r.initWidth, r.initHeight)
	}
	if r.configPath != "" {
		if err := r.loadConfigFile(r.configPath); err != nil {
			debugPrintf("config: %v\n", err)
		}
	}
	r.history.configure(r)
	return r
}

// Close releases the Reader's resources, flushing the history file when
// incremental writes are off.
func (r *Reader) Close() error {
	r.status.Close()
	return r.history.Close()
}

// Status returns the terminal's status region.
func (r *Reader) Status() *Status {
	return r.status
}

// AddHistory adds a line to history, subject to the ignore rules.
func (r *Reader) AddHistory(line string) bool {
	return r.history.Add(line)
}

// PrintAbove prints text above the prompt of an in-progress read. It may be
// called from any goroutine; the text is queued and drawn between widget
// steps.
func (r *Reader) PrintAbove(text string) {
	if r.display.above == nil {
		r.display.above = make(chan string, printAboveQueueSize)
	}
	r.display.EnqueueAbove(text)
}

// ReadConfig carries the per-read parameters of ReadLineConfig.
type ReadConfig struct {
	Prompt      string
	RightPrompt string
	// Masking controls echo and history persistence; see MaskingCallback.
	Masking MaskingCallback
	// Initial seeds the buffer before editing begins.
	Initial string
}

// ReadLine reads a line of input using prompt. It returns ErrInterrupt when
// the input is aborted and io.EOF at end of input.
func (r *Reader) ReadLine(prompt string) (string, error) {
	return r.ReadLineConfig(ReadConfig{Prompt: prompt})
}

// ReadLineMasked reads a line echoing mask instead of the typed characters.
// A zero mask echoes nothing. The line is never added to history.
func (r *Reader) ReadLineMasked(prompt string, mask rune) (string, error) {
	return r.ReadLineConfig(ReadConfig{Prompt: prompt, Masking: maskAll{mask}})
}

// ReadLineConfig reads a line of input with explicit parameters.
func (r *Reader) ReadLineConfig(cfg ReadConfig) (string, error) {
	if !atomic.CompareAndSwapInt32(&r.reading, 0, 1) {
		return "", ErrAlreadyReading
	}
	defer atomic.StoreInt32(&r.reading, 0)

	restore, err := r.term.Raw()
	if err != nil {
		return "", err
	}
	defer func() { _ = restore() }()

	r.term.NotifyResize(func() { atomic.StoreInt32(&r.resized, 1) })
	defer r.term.NotifyResize(nil)

	r.resetSession(cfg)
	if !r.histLoaded && r.varString(VarHistoryFile) != "" {
		if err := r.history.Load(); err != nil {
			debugPrintf("history: load failed: %v\n", err)
		}
		r.histLoaded = true
		r.history.configure(r)
	}
	r.updateSize()
	r.redisplay(true)

	for {
		if r.display.drainAbove() {
			r.redisplay(true)
		}
		ev, err := r.decoder.Next(r.currentKeymap())
		if err != nil {
			r.finishLine(false)
			return "", err
		}
		debugPrintf(" input: %q -> %s\n", ev.seq, ev.b.widget)
		r.dispatch(ev)
		if r.readErr != nil {
			r.finishLine(false)
			return "", r.readErr
		}
		switch r.state {
		case stAccepted:
			return r.finishAccept()
		case stAborted:
			r.finishLine(true)
			r.zeroOut()
			return "", ErrInterrupt
		case stEOF:
			r.finishLine(true)
			r.zeroOut()
			return "", io.EOF
		}
		r.redisplay(true)
	}
}

func (r *Reader) resetSession(cfg ReadConfig) {
	r.prompt = cfg.Prompt
	r.rightPrompt = cfg.RightPrompt
	r.masking = cfg.Masking
	r.masked = cfg.Masking != nil
	r.secondaryMissing = ""

	r.buf.init()
	r.buf.setUndoDisabled(r.Flag(FlagDisableUndo))
	if cfg.Initial != "" {
		r.buf.Insert([]rune(cfg.Initial))
		r.buf.SplitUndo()
	}
	r.comp.reset()
	r.search = searchState{}
	r.vi = viState{}
	r.killRing.Seal()
	r.history.configure(r)
	r.state = stEditing
	r.argVal, r.argNeg, r.argSet = 0, false, false
	r.lastWidget = ""
	r.readErr = nil
	r.decoder.init(r.term, time.Duration(r.varInt(VarAmbiguousBinding))*time.Millisecond)
}

func (r *Reader) currentKeymap() *keyMap {
	switch r.state {
	case stViCmd:
		return r.keymaps[KeymapViCmd]
	case stViOpp:
		return r.keymaps[KeymapViOpp]
	case stViVisual:
		return r.keymaps[KeymapVisual]
	case stSearching:
		return r.keymaps[KeymapIsearch]
	case stMenuing:
		return r.keymaps[KeymapMenuSelect]
	}
	return r.keymaps[r.mainKeymap]
}

func (r *Reader) beep() {
	r.display.Beep(r.varString(VarBellStyle))
}

// dispatch resolves a key event to a widget and runs it, routing through the
// active sub-loop (search, menu, operator-pending) when one is in progress.
func (r *Reader) dispatch(ev keyEvent) {
	b := ev.b
	for i := 0; b.kind == bindRef; i++ {
		if i == 8 {
			b = widgetBinding(widgetUndefinedKey)
			break
		}
		m := r.keymaps[b.keymap]
		if m == nil {
			b = widgetBinding(widgetUndefinedKey)
			break
		}
		nb, ok := m.lookup(b.seq)
		if !ok {
			b = widgetBinding(widgetUndefinedKey)
			break
		}
		b = nb
	}
	if b.kind == bindMacro {
		r.decoder.Push([]byte(b.macro))
		return
	}

	name := b.widget
	r.lastKeySeq = ev.seq
	r.lastKeyCh = ev.ch

	wasRecording := r.vi.recording
	if wasRecording {
		r.vi.rec = append(r.vi.rec, ev.seq...)
	}
	if !wasRecording && (r.state == stViCmd || r.state == stViVisual) &&
		viChangeStarters[name] {
		r.vi.recording = true
		r.vi.rec = append(r.vi.rec[:0], ev.seq...)
	}

	switch r.state {
	case stSearching:
		r.dispatchSearch(name, ev)
	case stMenuing:
		r.dispatchMenu(name, ev)
	case stViOpp:
		r.dispatchViOpp(name, ev)
	default:
		r.runWidget(name)
	}

	if r.vi.recording {
		switch r.state {
		case stEditing, stViOpp, stViVisual:
			// The change is still in progress.
		default:
			r.vi.lastChange = append(r.vi.lastChange[:0], r.vi.rec...)
			r.vi.recording = false
		}
	}
}

// runWidget executes a widget by name, maintaining the kill/yank chains, the
// numeric argument, and completion cleanup.
func (r *Reader) runWidget(name string) {
	fn, ok := lookupWidget(name)
	if !ok {
		debugPrintf("widget: unknown %q\n", name)
		r.beep()
		return
	}

	if !killWidgetNames[name] {
		r.killRing.killing = false
		if !yankWidgetNames[name] {
			r.killRing.yanking = false
		}
	}

	// Consecutive self-inserts form a single undo unit; any other widget
	// starts a new one.
	if name != widgetSelfInsert || r.lastWidget != widgetSelfInsert {
		r.buf.SplitUndo()
	}

	if ok := fn(r); !ok {
		r.beep()
	}
	if !argWidgetNames[name] {
		r.argVal, r.argNeg, r.argSet = 0, false, false
	}
	if !isCompletionWidget(name) && !r.comp.menu && name != "abort" {
		r.comp.listRows = nil
	}
	if name != "self-insert" && !isCompletionWidget(name) {
		r.comp.suffix = ""
	}
	r.lastWidget = name
}

// dispatchSearch reinterprets keys while incremental search is active. Keys
// with no meaning inside the search accept it and are replayed against the
// main keymap.
func (r *Reader) dispatchSearch(name string, ev keyEvent) {
	switch name {
	case "history-incremental-search-backward", "vi-history-search-backward":
		r.enterSearch(-1, r.search.regex)
	case "history-incremental-search-forward", "vi-history-search-forward":
		r.enterSearch(+1, r.search.regex)
	case "history-incremental-pattern-search-backward":
		r.enterSearch(-1, true)
	case "history-incremental-pattern-search-forward":
		r.enterSearch(+1, true)
	case "backward-delete-char":
		if !r.searchTruncate() {
			r.beep()
		}
	case "abort":
		r.searchAbort()
	case "send-break":
		r.state = stAborted
	case "accept-search":
		r.searchAccept()
	case "accept-line":
		// Accepting the search with enter also accepts the line.
		r.searchAccept()
		r.runWidget(name)
	case widgetSelfInsert:
		if r.searchTerminator(ev.ch) {
			r.searchAccept()
		} else {
			r.searchAppend(ev.ch)
		}
	default:
		r.searchAccept()
		r.decoder.Push(ev.seq)
	}
	r.lastWidget = name
}

// dispatchMenu reinterprets keys while menu selection is active: cycle keys
// move the highlight, printable keys accept the pick and are replayed.
func (r *Reader) dispatchMenu(name string, ev keyEvent) {
	switch name {
	case widgetSelfInsert, widgetUndefinedKey:
		r.menuAccept()
		r.decoder.Push(ev.seq)
		r.lastWidget = name
	default:
		r.runWidget(name)
	}
}

// dispatchViOpp handles the motion, text object, or doubled operator key
// that completes a pending vi operator.
func (r *Reader) dispatchViOpp(name string, ev keyEvent) {
	switch name {
	case "abort", "vi-cmd-mode":
		r.cancelViOperator()
		r.lastWidget = name
		return
	case "send-break":
		r.state = stAborted
		return
	case "digit-argument":
		r.runWidget(name)
		return
	case widgetUndefinedKey:
		if len(ev.seq) == 1 && ev.seq[0] == r.vi.opChar {
			// A doubled operator key targets whole lines.
			n := 1
			if r.argSet {
				n = r.takeArg()
			}
			start, end := r.viWholeLineSpan(r.vi.opCount * n)
			r.applyViOperator(start, end)
			r.lastWidget = name
			return
		}
		r.cancelViOperator()
		r.beep()
		return
	}
	if name == "vi-digit-or-beginning-of-line" && r.argSet {
		r.runWidget(name)
		return
	}

	// "cw" behaves like "ce".
	if r.vi.op == "change" && name == "vi-forward-word" {
		name = "vi-forward-word-end"
	}

	fn, ok := lookupWidget(name)
	if !ok {
		r.cancelViOperator()
		r.beep()
		return
	}
	if r.vi.opCount > 1 {
		if r.argSet {
			r.argVal *= r.vi.opCount
		} else {
			r.argVal = r.vi.opCount
			r.argSet = true
		}
	}
	start := r.buf.cursor
	r.vi.spanSet = false
	if ok := fn(r); !ok {
		r.cancelViOperator()
		r.beep()
		r.lastWidget = name
		return
	}
	if r.vi.spanSet {
		r.applyViOperator(r.vi.span[0], r.vi.span[1])
		r.lastWidget = name
		return
	}
	end := r.buf.cursor
	if viInclusiveMotions[name] && end >= start {
		end++
	}
	r.applyViOperator(start, end)
	r.lastWidget = name
}

// updateSize queries the terminal size and propagates it.
func (r *Reader) updateSize() {
	w, h, err := r.term.Size()
	if err != nil {
		return
	}
	r.display.setSize(w, h)
	r.status.resize(w, h)
}

func (r *Reader) checkResize() {
	if atomic.SwapInt32(&r.resized, 0) != 0 {
		r.updateSize()
	}
}

// redisplay reconciles the screen with the session state.
func (r *Reader) redisplay(flush bool) {
	r.checkResize()
	f := r.renderFrame()
	r.display.Update(f.rows, f.curRow, f.curCol, flush)
}

// renderFrame builds the desired screen frame: expanded prompts, the
// (masked, highlighted) buffer wrapped to the terminal width, and any search
// status or completion list rows below it.
func (r *Reader) renderFrame() frame {
	width := r.display.width
	tabw := r.varInt(VarTabWidth)

	prompt0 := expandPrompt(r.prompt, r.varInt(VarLineOffset)+1, "", 0)
	firstWidth := promptWidth(prompt0)

	text := r.buf.String()
	cursor := r.buf.cursor
	if r.masking != nil {
		text = r.masking.Display(text)
		if n := len([]rune(text)); cursor > n {
			cursor = n
		}
	}

	var hl AttributedString
	if r.highlighter != nil && r.masking == nil &&
		len([]rune(text)) <= r.varInt(VarFeaturesMaxBufferSize) {
		hl = r.highlighter.Highlight(text)
	} else {
		hl = Plain(text)
	}

	secondary := r.varString(VarSecondaryPromptPattern)

	var lines [][]aCell
	curLine, curCell := 0, 0

	var cells []aCell
	var promptA AttributedString
	lineNo := 0
	startLine := func() {
		if lineNo == 0 {
			promptA = prompt0
		} else {
			promptA = expandPrompt(secondary, r.varInt(VarLineOffset)+lineNo+1,
				r.secondaryMissing, firstWidth)
		}
		cells = cellsOf(promptA, 0, tabw)
	}
	endLine := func() {
		lines = append(lines, cells)
		lineNo++
	}

	startLine()
	col := promptWidth(promptA)
	for i, ch := range hl.text {
		if i == cursor {
			curLine, curCell = lineNo, len(cells)
		}
		if ch == '\n' {
			endLine()
			startLine()
			col = promptWidth(promptA)
			continue
		}
		if ch == '\t' {
			n := 1
			if tabw > 0 {
				n = tabw - col%tabw
			}
			for j := 0; j < n; j++ {
				cells = append(cells, aCell{r: ' ', width: 1, attr: hl.attrs[i]})
			}
			col += n
			continue
		}
		w := cellWidth(ch)
		cells = append(cells, aCell{r: ch, width: int8(w), attr: hl.attrs[i]})
		col += w
	}
	if cursor >= len(hl.text) {
		curLine, curCell = lineNo, len(cells)
	}
	endLine()

	f := wrapCells(lines, curLine, curCell, width, r.Flag(FlagDelayLineWrap))

	// The right prompt renders on the first row when there is room for it.
	if r.rightPrompt != "" && len(f.rows) > 0 {
		rp := expandPrompt(r.rightPrompt, r.varInt(VarLineOffset)+1, "", 0)
		rpw := promptWidth(rp)
		used := f.rows[0].visibleWidth()
		if used+rpw+1 < width {
			row := f.rows[0]
			for pad := used; pad < width-rpw-1; pad++ {
				row = append(row, aCell{r: ' ', width: 1})
			}
			row = append(row, cellsOf(rp, 0, tabw)...)
			f.rows[0] = row
		}
	}

	if r.state == stSearching {
		f.rows = append(f.rows, cellsOf(r.searchSuffix(), 0, tabw))
	}
	f.rows = append(f.rows, r.comp.listRows...)
	return f
}

// finishAccept completes a successful read: the line is expanded, recorded
// in history, and the terminal is left on a fresh line.
func (r *Reader) finishAccept() (string, error) {
	line := r.buf.String()
	if r.expander != nil {
		line = r.expander.ExpandHistory(line)
	}

	histText := line
	record := true
	if r.masking != nil {
		histText, record = r.masking.History(line)
		record = record && histText != ""
	}
	if record {
		r.history.Add(histText)
	}

	r.finishLine(true)
	r.zeroOut()
	return line, nil
}

// finishLine clears the sub-loop decorations and leaves the cursor after the
// input (or erases it under ERASE_LINE_ON_FINISH).
func (r *Reader) finishLine(render bool) {
	r.comp.listRows = nil
	r.comp.menu = false
	if render {
		if r.state == stSearching {
			r.state = stEditing
		}
		saved := r.state
		r.state = stEditing
		r.buf.MoveTo(r.buf.Len())
		if r.Flag(FlagEraseLineOnFinish) {
			r.display.EraseFrame()
		} else {
			f := r.renderFrame()
			r.display.Update(f.rows, f.curRow, f.curCol, false)
			r.display.Finish()
		}
		r.state = saved
	}
	r.display.Flush()
}

// zeroOut scrubs buffers that may hold sensitive input once a masked read
// ends. The history never receives masked lines, so the edit buffer, the
// kill ring and the vi registers are scrubbed.
func (r *Reader) zeroOut() {
	if !r.masked {
		return
	}
	r.buf.zero()
	r.killRing.zero()
	for k := range r.registers {
		r.registers[k] = strings.Repeat("\x00", len(r.registers[k]))
		delete(r.registers, k)
	}
}
