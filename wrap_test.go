package editline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

func TestCellWidth(t *testing.T) {
	require.Equal(t, 1, cellWidth('a'))
	require.Equal(t, 1, cellWidth(' '))
	require.Equal(t, 2, cellWidth('日'))
	require.Equal(t, 2, cellWidth('語'))
	require.Equal(t, 0, cellWidth('\u0301')) // combining acute
	require.Equal(t, 0, cellWidth(zeroWidthJoiner))
	require.Equal(t, 0, cellWidth('\ufe0f')) // variation selector
}

func TestWrapDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/wrap", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "wrap":
			var width int
			td.ScanArgs(t, "width", &width)
			delay := td.HasArg("delay")

			var lines [][]aCell
			parts := strings.Split(strings.TrimSuffix(td.Input, "\n"), "\n")
			for _, part := range parts {
				lines = append(lines, cellsOf(Plain(part), 0, 4))
			}
			curLine := len(lines) - 1
			curCell := len(lines[curLine])
			f := wrapCells(lines, curLine, curCell, width, delay)

			var buf strings.Builder
			fmt.Fprintf(&buf, "rows=%d cursor=(%d,%d)\n", len(f.rows), f.curRow, f.curCol)
			for _, row := range f.rows {
				var sb strings.Builder
				for _, c := range row {
					sb.WriteRune(c.r)
				}
				fmt.Fprintf(&buf, "%q\n", sb.String())
			}
			return buf.String()
		}
		return ""
	})
}

// TestWrapRowCount checks the wrap model against the terminal row formula:
// a line of visible width k occupies ceil(k/W) rows, plus a trailing empty
// row when eager wrapping lands exactly on a multiple of W.
func TestWrapRowCount(t *testing.T) {
	for _, w := range []int{1, 2, 3, 5, 8, 40, 80} {
		for k := 1; k <= 3*w+1; k++ {
			line := cellsOf(Plain(strings.Repeat("a", k)), 0, 4)

			want := (k + w - 1) / w
			f := wrapCells([][]aCell{line}, 0, k, w, true)
			require.Equalf(t, want, len(f.rows), "delay width=%d k=%d", w, k)

			if k%w == 0 {
				want++
			}
			f = wrapCells([][]aCell{line}, 0, k, w, false)
			require.Equalf(t, want, len(f.rows), "eager width=%d k=%d", w, k)
		}
	}
}

func TestWrapCursorFollowsWrap(t *testing.T) {
	line := cellsOf(Plain("abcdefghij"), 0, 4)

	// Cursor in the middle of the second row.
	f := wrapCells([][]aCell{line}, 0, 7, 5, true)
	require.Equal(t, 1, f.curRow)
	require.Equal(t, 2, f.curCol)

	// Cursor at the eager-wrap boundary lands on the fresh empty row.
	f = wrapCells([][]aCell{line}, 0, 10, 5, false)
	require.Equal(t, 2, f.curRow)
	require.Equal(t, 0, f.curCol)

	// With delayed wrap the cursor stays at the end of the full row.
	f = wrapCells([][]aCell{line}, 0, 10, 5, true)
	require.Equal(t, 1, f.curRow)
	require.Equal(t, 5, f.curCol)
}

func TestWrapWideChars(t *testing.T) {
	line := cellsOf(Plain("日本語"), 0, 4)
	f := wrapCells([][]aCell{line}, 0, 3, 4, false)
	require.Equal(t, 2, len(f.rows))
	require.Equal(t, 2, len(f.rows[0]))
	require.Equal(t, 1, len(f.rows[1]))
	require.Equal(t, 1, f.curRow)
	require.Equal(t, 2, f.curCol)

	// A wide character never straddles the right edge.
	f = wrapCells([][]aCell{line}, 0, 3, 3, false)
	require.Equal(t, 3, len(f.rows))
}

func TestWrapZeroWidthAttachesToBase(t *testing.T) {
	line := cellsOf(Plain("éx"), 0, 4)
	f := wrapCells([][]aCell{line}, 0, 3, 10, true)
	require.Equal(t, 1, len(f.rows))
	require.Equal(t, 2, f.rows[0].visibleWidth())
	require.Equal(t, 0, f.curRow)
	require.Equal(t, 2, f.curCol)
}

func TestCellsOfTabs(t *testing.T) {
	cells := cellsOf(Plain("a\tb"), 0, 4)
	// The tab expands to the next tab stop: a + 3 spaces + b.
	require.Equal(t, 5, len(cells))
	require.Equal(t, 'a', cells[0].r)
	require.Equal(t, ' ', cells[1].r)
	require.Equal(t, 'b', cells[4].r)

	cells = cellsOf(Plain("\t"), 2, 4)
	require.Equal(t, 2, len(cells))
}
