package editline

import "strconv"

type statusState int

const (
	statusClosed statusState = iota
	statusHidden
	statusShown
	statusSuspended
)

const statusMaxRows = 1000

// Status reserves the bottom rows of the terminal for persistent lines (a
// mode indicator, transfer progress, and the like) by shrinking the scroll
// region. The edit area and ordinary output scroll above it. Lines are
// truncated with an ellipsis or padded with spaces to the full terminal
// width so shrinking updates always erase what they replace.
type Status struct {
	d    *display
	rows int
	cols int

	state  statusState
	border bool
	lines  []AttributedString
	// wanted holds the lines most recently requested while suspended; they
	// are replayed by Restore.
	wanted []AttributedString
	// prevReserved is the number of rows (including the border) the region
	// occupied after the last draw; erase rows are computed from it locally.
	prevReserved int
	supported    bool
}

func newStatus(d *display) *Status {
	return &Status{d: d, supported: true}
}

// SetBorder toggles a separator row above the status lines.
func (s *Status) SetBorder(on bool) {
	s.border = on
}

// Update replaces the status lines. An empty update erases the region and
// releases the reserved rows.
func (s *Status) Update(lines []AttributedString) {
	if s.state == statusSuspended {
		s.wanted = append([]AttributedString(nil), lines...)
		return
	}
	s.lines = append(s.lines[:0], lines...)
	s.redraw()
}

// Hide erases the status region and releases the reserved rows while
// remembering the lines. The erase is issued against the lines captured
// before the hidden flag flips so it cannot observe its own state change.
func (s *Status) Hide() {
	if s.state != statusShown {
		s.state = statusHidden
		return
	}
	s.erase()
	s.state = statusHidden
	s.d.Flush()
}

// Show redraws the region after a Hide.
func (s *Status) Show() {
	if s.state != statusHidden {
		return
	}
	s.state = statusClosed
	s.redraw()
}

// Suspend freezes the region: updates are recorded but not drawn, and the
// scroll region is restored so full-screen programs can run.
func (s *Status) Suspend() {
	if s.state == statusSuspended {
		return
	}
	if s.state == statusShown {
		s.erase()
		s.d.Flush()
	}
	s.wanted = append([]AttributedString(nil), s.lines...)
	s.state = statusSuspended
}

// Restore replays the lines recorded while suspended.
func (s *Status) Restore() {
	if s.state != statusSuspended {
		return
	}
	s.state = statusClosed
	s.lines = append(s.lines[:0], s.wanted...)
	s.redraw()
}

// Close erases the region, restores the full scroll region, and forgets the
// lines.
func (s *Status) Close() {
	if s.state == statusShown {
		s.erase()
		s.d.Flush()
	}
	s.lines = nil
	s.wanted = nil
	s.state = statusClosed
}

// resize re-validates the terminal size and relays the region out. A
// degenerate size disables the status region entirely.
func (s *Status) resize(cols, rows int) {
	s.cols, s.rows = cols, rows
	if rows <= 0 || rows >= statusMaxRows || cols <= 0 {
		s.supported = false
		s.prevReserved = 0
		return
	}
	s.supported = true
	if s.state == statusShown {
		// Layout changed under us; the previously reserved rows are gone.
		s.prevReserved = 0
		s.redraw()
	}
}

func (s *Status) reserved() int {
	n := len(s.lines)
	if n > 0 && s.border {
		n++
	}
	return n
}

func (s *Status) redraw() {
	if !s.supported || s.rows <= 0 {
		return
	}
	k := s.reserved()
	if k == 0 {
		s.erase()
		s.d.Flush()
		return
	}
	if k > s.rows-1 {
		k = s.rows - 1
	}

	d := s.d
	d.saveCursor()
	s.setScrollRegion(s.rows - k)

	top := s.rows - k // 0-based first reserved row
	row := top
	if s.border && k > len(s.lines) {
		s.drawLine(row, borderLine(s.cols))
		row++
	}
	for i := 0; i < len(s.lines) && row < s.rows; i, row = i+1, row+1 {
		s.drawLine(row, s.lines[i])
	}
	// Erase rows the region no longer occupies.
	for prev := s.rows - s.prevReserved; prev < top; prev++ {
		s.cursorAddress(prev, 0)
		d.eraseLineToRight()
	}
	s.prevReserved = k
	d.restoreCursor()
	s.state = statusShown
	d.Flush()
}

// erase clears every row the region occupied and restores the full scroll
// region. The rows to clear come from the locally tracked reserved count,
// never from state that a concurrent update could have replaced.
func (s *Status) erase() {
	if !s.supported || s.prevReserved == 0 {
		s.prevReserved = 0
		return
	}
	d := s.d
	d.saveCursor()
	for row := s.rows - s.prevReserved; row < s.rows; row++ {
		s.cursorAddress(row, 0)
		d.eraseLineToRight()
	}
	s.setScrollRegion(s.rows)
	s.prevReserved = 0
	d.restoreCursor()
}

// setScrollRegion reserves rows [bottom, s.rows) by limiting scrolling to
// the rows above. bottom == s.rows restores the full region.
func (s *Status) setScrollRegion(bottom int) {
	d := s.d
	d.out.WriteString("\x1b[1;")
	d.out.WriteString(strconv.Itoa(bottom))
	d.out.WriteString("r")
}

func (s *Status) cursorAddress(row, col int) {
	d := s.d
	d.out.WriteString("\x1b[")
	d.out.WriteString(strconv.Itoa(row + 1))
	d.out.WriteString(";")
	d.out.WriteString(strconv.Itoa(col + 1))
	d.out.WriteString("H")
}

// drawLine writes one status line at the given row, truncated with an
// ellipsis if it overflows and padded with spaces otherwise.
func (s *Status) drawLine(row int, line AttributedString) {
	s.cursorAddress(row, 0)
	d := s.d
	var attr string
	col := 0
	for i, r := range line.text {
		w := cellWidth(r)
		if col+w > s.cols-1 && i < len(line.text)-1 {
			if attr != "" {
				d.out.WriteString(AttrReset)
				attr = ""
			}
			d.out.WriteRune('…')
			col++
			break
		}
		if line.attrs[i] != attr {
			d.out.WriteString(AttrReset)
			d.out.WriteString(line.attrs[i])
			attr = line.attrs[i]
		}
		d.out.WriteRune(r)
		col += w
	}
	if attr != "" {
		d.out.WriteString(AttrReset)
	}
	for ; col < s.cols; col++ {
		d.out.WriteRune(' ')
	}
}

func borderLine(cols int) AttributedString {
	var a AttributedString
	for i := 0; i < cols; i++ {
		a.Append("─", "")
	}
	return a
}
