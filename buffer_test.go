package editline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferBasicOps(t *testing.T) {
	var b buffer
	b.init()

	b.Insert([]rune("hello world"))
	require.Equal(t, "hello world", b.String())
	require.Equal(t, 11, b.cursor)

	b.MoveTo(5)
	require.Equal(t, 5, b.cursor)

	b.Insert([]rune(","))
	require.Equal(t, "hello, world", b.String())
	require.Equal(t, 6, b.cursor)

	del := b.DeleteAt(5, 1)
	require.Equal(t, ",", string(del))
	require.Equal(t, "hello world", b.String())
	require.Equal(t, 5, b.cursor)

	require.Equal(t, "world", b.Substring(6, 11))
	b.Replace(6, 11, []rune("there"))
	require.Equal(t, "hello there", b.String())
	require.Equal(t, 11, b.cursor)
}

func TestBufferClamping(t *testing.T) {
	var b buffer
	b.init()
	b.Insert([]rune("abc"))

	b.MoveTo(-5)
	require.Equal(t, 0, b.cursor)
	b.MoveTo(100)
	require.Equal(t, 3, b.cursor)

	require.Equal(t, "abc", string(b.Copy(-2, 99)))
	require.Nil(t, b.DeleteAt(5, 3))
	require.Equal(t, "abc", b.String())
}

func TestBufferMark(t *testing.T) {
	var b buffer
	b.init()
	require.Equal(t, -1, b.Mark())
	require.False(t, b.SwapPointAndMark())

	b.Insert([]rune("hello"))
	b.MoveTo(2)
	b.SetMark()
	b.MoveTo(5)
	require.Equal(t, 2, b.Mark())
	require.True(t, b.SwapPointAndMark())
	require.Equal(t, 2, b.cursor)
	require.Equal(t, 5, b.Mark())

	// Insertions before the mark shift it.
	b.MoveTo(0)
	b.Insert([]rune("xx"))
	require.Equal(t, 7, b.Mark())

	// Deletions spanning the mark pull it to the deletion point.
	b.DeleteAt(5, 4)
	require.Equal(t, 5, b.Mark())
}

func TestBufferUndoRedo(t *testing.T) {
	var b buffer
	b.init()

	b.Insert([]rune("hello"))
	b.SplitUndo()
	b.Insert([]rune(" world"))
	b.SplitUndo()
	b.DeleteAt(0, 6)
	require.Equal(t, "world", b.String())

	require.True(t, b.Undo())
	require.Equal(t, "hello world", b.String())
	require.True(t, b.Undo())
	require.Equal(t, "hello", b.String())
	require.True(t, b.Undo())
	require.Equal(t, "", b.String())
	require.False(t, b.Undo())

	require.True(t, b.Redo())
	require.Equal(t, "hello", b.String())
	require.Equal(t, 5, b.cursor)
	require.True(t, b.Redo())
	require.Equal(t, "hello world", b.String())
	require.True(t, b.Redo())
	require.Equal(t, "world", b.String())
	require.False(t, b.Redo())
}

func TestBufferUndoRedoRestoresCursor(t *testing.T) {
	var b buffer
	b.init()
	b.Insert([]rune("hello world"))
	b.SplitUndo()
	b.MoveTo(6)
	b.DeleteAt(6, 5)
	require.Equal(t, "hello ", b.String())

	require.True(t, b.Undo())
	require.Equal(t, "hello world", b.String())
	require.Equal(t, 11, b.cursor)

	require.True(t, b.Redo())
	require.Equal(t, "hello ", b.String())
	require.Equal(t, 6, b.cursor)
}

func TestBufferUndoTruncatesRedoTail(t *testing.T) {
	var b buffer
	b.init()
	b.Insert([]rune("abc"))
	b.SplitUndo()
	b.Insert([]rune("def"))

	require.True(t, b.Undo())
	require.Equal(t, "abc", b.String())

	// A new edit invalidates the redo tail.
	b.Insert([]rune("xyz"))
	require.False(t, b.Redo())
	require.Equal(t, "abcxyz", b.String())
}

func TestBufferUndoDisabled(t *testing.T) {
	var b buffer
	b.init()
	b.setUndoDisabled(true)

	b.Insert([]rune("secret"))
	b.DeleteAt(0, 3)
	require.Empty(t, b.undo)
	require.False(t, b.Undo())
}

func TestBufferEditAtomically(t *testing.T) {
	var b buffer
	b.init()
	b.Insert([]rune("abcdef"))
	b.SplitUndo()

	b.EditAtomically(func() {
		b.MoveTo(0)
		b.DeleteAt(0, 2)
		b.Insert([]rune("xy"))
		b.DeleteAt(4, 2)
	})
	require.Equal(t, "xycd", b.String())

	// The whole atomic edit reverts as a single unit.
	require.True(t, b.Undo())
	require.Equal(t, "abcdef", b.String())
	require.True(t, b.Redo())
	require.Equal(t, "xycd", b.String())
}

func TestBufferOverwrite(t *testing.T) {
	var b buffer
	b.init()
	b.Insert([]rune("hello"))
	b.MoveTo(0)
	b.overwrite = true
	b.Insert([]rune("HE"))
	require.Equal(t, "HEllo", b.String())
	require.Equal(t, 2, b.cursor)

	// Overwrite extends the buffer past the end of line.
	b.MoveTo(5)
	b.Insert([]rune("!!"))
	require.Equal(t, "HEllo!!", b.String())
}

func TestBufferZero(t *testing.T) {
	var b buffer
	b.init()
	b.Insert([]rune("s3cret"))
	b.zero()
	require.Equal(t, "", b.String())
	require.Empty(t, b.undo)
}
