package editline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func rowOf(s string) aRow {
	return cellsOf(Plain(s), 0, 4)
}

func TestDisplayIdempotent(t *testing.T) {
	var out bytes.Buffer
	term := newFakeTerm(&out, 40, 10)
	var d display
	d.init(term)
	d.setSize(40, 10)

	rows := []aRow{rowOf("> hello")}
	d.Update(rows, 0, 7, true)
	require.NotZero(t, out.Len())

	// A second update with identical rows and cursor emits nothing.
	n := out.Len()
	d.Update(rows, 0, 7, true)
	require.Equal(t, n, out.Len())

	// Moving only the cursor emits only movement.
	d.Update(rows, 0, 2, true)
	require.Greater(t, out.Len(), n)
}

func TestDisplayDiffRewritesMiddle(t *testing.T) {
	grid := newScreenGrid(40, 10)
	term := newFakeTerm(grid, 40, 10)
	var d display
	d.init(term)
	d.setSize(40, 10)

	d.Update([]aRow{rowOf("> hello")}, 0, 7, true)
	require.Equal(t, "> hello", grid.row(0))

	d.Update([]aRow{rowOf("> help!")}, 0, 7, true)
	require.Equal(t, "> help!", grid.row(0))

	// Shrinking a row erases the leftover tail.
	d.Update([]aRow{rowOf("> he")}, 0, 4, true)
	require.Equal(t, "> he", grid.row(0))
}

func TestDisplayMultiRow(t *testing.T) {
	grid := newScreenGrid(40, 10)
	term := newFakeTerm(grid, 40, 10)
	var d display
	d.init(term)
	d.setSize(40, 10)

	d.Update([]aRow{rowOf("line one"), rowOf("line two")}, 1, 3, true)
	require.Equal(t, "line one", grid.row(0))
	require.Equal(t, "line two", grid.row(1))

	// Dropping a row erases it.
	d.Update([]aRow{rowOf("line one")}, 0, 3, true)
	require.Equal(t, "line one", grid.row(0))
	require.Equal(t, "", grid.row(1))
}

func TestDisplayPrintAbove(t *testing.T) {
	grid := newScreenGrid(40, 10)
	term := newFakeTerm(grid, 40, 10)
	var d display
	d.init(term)
	d.setSize(40, 10)

	frame := []aRow{rowOf("> typing")}
	d.Update(frame, 0, 8, true)

	d.EnqueueAbove("job finished")
	require.True(t, d.drainAbove())
	d.Update(frame, 0, 8, true)

	require.Equal(t, "job finished", grid.row(0))
	require.Equal(t, "> typing", grid.row(1))
}

func TestDisplayRefresh(t *testing.T) {
	grid := newScreenGrid(40, 10)
	term := newFakeTerm(grid, 40, 10)
	var d display
	d.init(term)
	d.setSize(40, 10)

	d.Update([]aRow{rowOf("> abc")}, 0, 5, true)
	grid.fill(0, 3, 10, 1, '#')

	d.Refresh()
	d.Update([]aRow{rowOf("> abc")}, 0, 5, true)
	require.Equal(t, "> abc", grid.row(0))
	require.Equal(t, "", grid.row(3))
}

func TestDisplayAttributes(t *testing.T) {
	var out bytes.Buffer
	term := newFakeTerm(&out, 40, 10)
	var d display
	d.init(term)
	d.setSize(40, 10)

	var a AttributedString
	a.Append("ok", FgGreen)
	d.Update([]aRow{cellsOf(a, 0, 4)}, 0, 2, true)
	require.Contains(t, out.String(), FgGreen)
	require.Contains(t, out.String(), AttrReset)
}

func TestDisplaySaveCursorDepth(t *testing.T) {
	var out bytes.Buffer
	term := newFakeTerm(&out, 40, 10)
	var d display
	d.init(term)

	d.saveCursor()
	d.saveCursor()
	d.restoreCursor()
	require.NotContains(t, out.String()+d.out.String(), "\x1b8")
	d.restoreCursor()
	d.Flush()
	require.Equal(t, 1, bytes.Count(out.Bytes(), []byte("\x1b7")))
	require.Equal(t, 1, bytes.Count(out.Bytes(), []byte("\x1b8")))
}
