package editline

import (
	"bytes"
	"strconv"
)

const printAboveQueueSize = 32

// display reconciles the terminal with a desired frame of attributed rows. It
// keeps the previously rendered rows and emits the minimal escape sequences
// to transform one into the other: per-row common prefix/suffix trimming,
// erase-line-to-right for shrinking rows, and relative cursor movement. Row
// and column coordinates are relative to the top-left of the edit area.
type display struct {
	term   Terminal
	out    bytes.Buffer
	width  int
	height int

	oldRows []aRow
	row     int
	col     int
	// renderedRows is the number of rows the edit area has ever occupied in
	// this frame; moving into fresh rows uses newlines so the terminal
	// scrolls when the area reaches the bottom.
	renderedRows int
	// staleRows counts rows below the frame that may hold foreign content
	// (after printAbove or a resize) and must be erased.
	staleRows int
	dirty     bool

	saveDepth int

	above chan string
}

func (d *display) init(term Terminal) {
	d.term = term
	d.width = 80
	d.height = 24
	d.oldRows = nil
	d.row, d.col = 0, 0
	d.renderedRows = 1
	d.staleRows = 0
	d.dirty = false
	d.saveDepth = 0
	if d.above == nil {
		d.above = make(chan string, printAboveQueueSize)
	}
}

func (d *display) setSize(w, h int) {
	if w <= 0 {
		w = 1
	}
	if w == d.width && h == d.height {
		return
	}
	d.width, d.height = w, h
	// The terminal may have rewrapped or truncated our rows; repaint.
	d.dirty = true
}

// Flush writes the buffered drawing commands to the terminal and clears the
// buffer. A failed write marks the display dirty so the next update repaints
// from scratch.
func (d *display) Flush() {
	if d.out.Len() == 0 {
		return
	}
	debugPrintf("output: %q\n", d.out.Bytes())
	if _, err := d.term.Write(d.out.Bytes()); err != nil {
		debugPrintf("output: write failed: %v\n", err)
		d.dirty = true
	}
	d.out.Reset()
}

// Update transforms the screen from the previously rendered rows to newRows
// and places the cursor at (tRow, tCol). Identical input emits nothing.
func (d *display) Update(newRows []aRow, tRow, tCol int, flush bool) {
	if d.dirty {
		d.eraseArea()
		d.oldRows = nil
		d.dirty = false
	}

	erase := len(d.oldRows)
	stale := d.staleRows
	if stale > erase {
		erase = stale
	}
	d.staleRows = 0

	for i := 0; i < len(newRows) || i < erase; i++ {
		var oldR, newR aRow
		if i < len(d.oldRows) {
			oldR = d.oldRows[i]
		}
		if i < len(newRows) {
			newR = newRows[i]
		}
		// Rows with possible foreign content are rewritten and erased even
		// when the new row looks unchanged.
		force := i < stale && i >= len(d.oldRows)
		if !force && oldR.equal(newR) {
			continue
		}
		d.updateRow(i, oldR, newR, force)
	}

	d.oldRows = make([]aRow, len(newRows))
	copy(d.oldRows, newRows)
	d.moveCursorTo(tRow, tCol)
	if flush {
		d.Flush()
	}
}

// updateRow rewrites the differing middle of a single row.
func (d *display) updateRow(i int, oldR, newR aRow, force bool) {
	p := 0
	for p < len(oldR) && p < len(newR) && oldR[p] == newR[p] {
		p++
	}

	// A common suffix is only usable when the row widths match, otherwise the
	// suffix sits at different columns in the old and new row.
	s := 0
	if oldR.visibleWidth() == newR.visibleWidth() {
		for s < len(oldR)-p && s < len(newR)-p &&
			oldR[len(oldR)-1-s] == newR[len(newR)-1-s] {
			s++
		}
	}

	startCol := colOf(newR[:p])
	d.moveCursorTo(i, startCol)
	d.writeCells(newR[p : len(newR)-s])

	oldW := oldR.visibleWidth()
	newW := newR.visibleWidth()
	if (s == 0 && oldW > newW) || force {
		d.eraseLineToRight()
	}
}

// writeCells emits cells at the current position, tracking attribute state
// and the cursor column.
func (d *display) writeCells(cells []aCell) {
	var attr string
	for _, c := range cells {
		if c.attr != attr {
			d.out.WriteString(AttrReset)
			d.out.WriteString(c.attr)
			attr = c.attr
		}
		d.out.WriteRune(c.r)
		d.col += int(c.width)
	}
	if attr != "" {
		d.out.WriteString(AttrReset)
	}
	if d.col >= d.width {
		// The cursor is in the terminal's pending-wrap state; normalize so
		// relative movement stays exact.
		d.out.WriteString("\r")
		d.col = 0
	}
}

func (d *display) moveCursorTo(r, c int) {
	const csi = "\x1b["

	if r < d.row {
		up := d.row - r
		d.out.WriteString(csi)
		if up > 1 {
			d.out.WriteString(strconv.Itoa(up))
		}
		d.out.WriteString("A")
		d.row = r
	} else if r > d.row {
		// Down movement uses newlines so fresh rows scroll the screen when
		// the edit area reaches the bottom.
		for ; d.row < r; d.row++ {
			d.out.WriteString("\n")
		}
	}
	if r+1 > d.renderedRows {
		d.renderedRows = r + 1
	}

	if c == d.col {
		return
	}
	if c == 0 {
		d.out.WriteString("\r")
	} else if c < d.col {
		left := d.col - c
		d.out.WriteString(csi)
		if left > 1 {
			d.out.WriteString(strconv.Itoa(left))
		}
		d.out.WriteString("D")
	} else {
		right := c - d.col
		d.out.WriteString(csi)
		if right > 1 {
			d.out.WriteString(strconv.Itoa(right))
		}
		d.out.WriteString("C")
	}
	d.col = c
}

func (d *display) eraseLineToRight() {
	d.out.WriteString("\x1b[K")
}

// eraseArea erases every row the edit area occupies and homes the cursor to
// the area's top-left.
func (d *display) eraseArea() {
	n := len(d.oldRows)
	if d.staleRows > n {
		n = d.staleRows
	}
	for i := 0; i < n; i++ {
		d.moveCursorTo(i, 0)
		d.eraseLineToRight()
	}
	d.moveCursorTo(0, 0)
}

// Refresh erases the whole screen and forces the next update to repaint.
func (d *display) Refresh() {
	d.out.WriteString("\x1b[H\x1b[2J")
	d.row, d.col = 0, 0
	d.renderedRows = 1
	d.oldRows = nil
	d.staleRows = 0
}

// Finish moves the cursor past the rendered frame and emits a newline,
// leaving the terminal ready for normal output.
func (d *display) Finish() {
	if last := len(d.oldRows) - 1; last >= 0 {
		d.moveCursorTo(last, colOf(d.oldRows[last]))
	}
	d.out.WriteString("\r\n")
	d.row, d.col = 0, 0
	d.renderedRows = 1
	d.oldRows = nil
}

// EraseFrame erases the rendered frame entirely, homing to the area top.
// Used by ERASE_LINE_ON_FINISH.
func (d *display) EraseFrame() {
	d.eraseArea()
	d.oldRows = nil
}

// saveCursor and restoreCursor wrap terminal cursor save/restore with a
// depth counter; only the outermost pair emits escapes, since terminals do
// not reliably nest DECSC/DECRC.
func (d *display) saveCursor() {
	if d.saveDepth == 0 {
		d.out.WriteString("\x1b7")
	}
	d.saveDepth++
}

func (d *display) restoreCursor() {
	if d.saveDepth == 0 {
		return
	}
	d.saveDepth--
	if d.saveDepth == 0 {
		d.out.WriteString("\x1b8")
	}
}

// EnqueueAbove queues text to be printed above the prompt. Safe to call from
// any goroutine; the queue is drained between widget steps by the read loop.
func (d *display) EnqueueAbove(text string) {
	d.above <- text
}

// drainAbove prints any queued messages above the edit area. It returns true
// if anything was printed, in which case the caller must re-render the frame.
func (d *display) drainAbove() bool {
	printed := false
	for {
		select {
		case text := <-d.above:
			d.printAbove(text)
			printed = true
		default:
			return printed
		}
	}
}

// printAbove writes text where the edit area currently starts and shifts the
// area down below it.
func (d *display) printAbove(text string) {
	prevRows := len(d.oldRows)
	if d.renderedRows > prevRows {
		prevRows = d.renderedRows
	}
	d.moveCursorTo(0, 0)
	for len(text) > 0 && text[len(text)-1] == '\n' {
		text = text[:len(text)-1]
	}
	for _, line := range bytes.Split([]byte(text), []byte{'\n'}) {
		d.out.Write(line)
		d.eraseLineToRight()
		d.out.WriteString("\r\n")
	}
	// The edit area now starts at the current physical row; rebase
	// coordinates and schedule the old frame rows for erasure.
	d.row, d.col = 0, 0
	d.renderedRows = 1
	d.oldRows = nil
	d.staleRows = prevRows
}

// Beep emits the bell according to style.
func (d *display) Beep(style string) {
	switch style {
	case BellNone:
	case BellVisible:
		d.out.WriteString("\x1b[?5h\x1b[?5l")
	default:
		d.out.WriteString("\a")
	}
}
