package editline

import (
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/width"
)

const zeroWidthJoiner = '\u200d'

// aCell is an indivisible unit on the screen: one rune, its column width, and
// the attribute it renders with.
type aCell struct {
	r     rune
	width int8
	attr  string
}

// aRow is a single terminal row of cells.
type aRow []aCell

func (r aRow) equal(o aRow) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

func (r aRow) visibleWidth() int {
	var w int
	for i := range r {
		w += int(r[i].width)
	}
	return w
}

func isZeroWidth(r rune) bool {
	switch {
	case r == zeroWidthJoiner:
		return true
	case r >= 0xfe00 && r <= 0xfe0f: // variation selectors
		return true
	case r >= 0xe0100 && r <= 0xe01ef: // ideographic variation selectors
		return true
	}
	return false
}

// cellWidth returns the number of terminal columns occupied by r: 0 for
// combining and joining characters, 2 for East-Asian wide characters, 1
// otherwise. The go-runewidth tables are authoritative; the x/text width
// classes catch fullwidth forms runewidth classifies as ambiguous.
func cellWidth(r rune) int {
	if isZeroWidth(r) {
		return 0
	}
	w := runewidth.RuneWidth(r)
	if w == 1 {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianFullwidth, width.EastAsianWide:
			return 2
		}
	}
	return w
}

// cellsOf converts an AttributedString into cells, expanding tabs to the next
// tab stop. startCol is the logical column the string begins at.
func cellsOf(a AttributedString, startCol, tabWidth int) []aCell {
	if tabWidth <= 0 {
		tabWidth = 1
	}
	cells := make([]aCell, 0, len(a.text))
	col := startCol
	for i, r := range a.text {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			for j := 0; j < n; j++ {
				cells = append(cells, aCell{r: ' ', width: 1, attr: a.attrs[i]})
			}
			col += n
			continue
		}
		w := cellWidth(r)
		cells = append(cells, aCell{r: r, width: int8(w), attr: a.attrs[i]})
		col += w
	}
	return cells
}

// frame is a fully wrapped screen frame: the rows to display and the cell
// coordinates of the cursor.
type frame struct {
	rows   []aRow
	curRow int
	curCol int
}

// wrapCells lays out logical lines into terminal rows of the given width,
// tracking where the cell at index (curLine, curCell) lands. With delayWrap
// set the model assumes the terminal delays wrapping until the next character
// is written, so a line of exactly N*width cells occupies N rows; without it
// the terminal wraps eagerly and such a line occupies N+1 rows, the last one
// empty.
func wrapCells(lines [][]aCell, curLine, curCell, width int, delayWrap bool) frame {
	if width <= 0 {
		width = 1
	}
	f := frame{rows: []aRow{nil}}
	setCursor := func() {
		f.curRow = len(f.rows) - 1
		f.curCol = colOf(f.rows[len(f.rows)-1])
	}

	for li, line := range lines {
		if li > 0 {
			f.rows = append(f.rows, nil)
		}
		col := 0
		for ci, c := range line {
			if li == curLine && ci == curCell {
				setCursor()
			}
			w := int(c.width)
			if col+w > width {
				f.rows = append(f.rows, nil)
				col = 0
				if li == curLine && ci == curCell {
					setCursor()
				}
			}
			row := len(f.rows) - 1
			f.rows[row] = append(f.rows[row], c)
			col += w
			if col >= width && !delayWrap {
				f.rows = append(f.rows, nil)
				col = 0
			}
		}
		if li == curLine && curCell >= len(line) {
			setCursor()
		}
	}
	return f
}

func colOf(row aRow) int {
	var w int
	for i := range row {
		w += int(row[i].width)
	}
	return w
}
