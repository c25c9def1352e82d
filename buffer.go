package editline

// RegionType classifies the active region between cursor and mark.
type RegionType int

const (
	// RegionNone means no region is active.
	RegionNone RegionType = iota
	// RegionChar is a character-wise region.
	RegionChar
	// RegionLine is a line-wise region.
	RegionLine
	// RegionPaste marks text inserted by a bracketed paste.
	RegionPaste
)

// bufOp is a single reversible buffer mutation. Inserted and deleted text is
// recorded at pos; split marks the start of a logical undo unit.
type bufOp struct {
	pos   int
	ins   []rune
	del   []rune
	split bool
}

// buffer holds the input text being edited along with the cursor, the mark,
// and a linear undo log. All indices are rune offsets clamped to
// [0, Len()]; out-of-range arguments are clamped rather than panicking.
type buffer struct {
	text      []rune
	cursor    int
	mark      int
	region    RegionType
	overwrite bool

	undo     []bufOp
	undoIdx  int
	undoOff  bool
	noRecord bool
	// pendingSplit forces the next recorded op to start a new undo unit.
	pendingSplit bool
}

func (b *buffer) init() {
	b.text = b.text[:0]
	b.cursor = 0
	b.mark = -1
	b.region = RegionNone
	b.overwrite = false
	b.undo = b.undo[:0]
	b.undoIdx = 0
	b.pendingSplit = false
}

// Len returns the length of the buffer in runes.
func (b *buffer) Len() int {
	return len(b.text)
}

// Text returns the buffer contents. The returned slice aliases the buffer's
// storage and must not be modified.
func (b *buffer) Text() []rune {
	return b.text
}

// String returns the buffer contents as a string.
func (b *buffer) String() string {
	return string(b.text)
}

func (b *buffer) clamp(i int) int {
	if i < 0 {
		debugPrintf("buffer: clamping index %d to 0\n", i)
		return 0
	}
	if i > len(b.text) {
		debugPrintf("buffer: clamping index %d to %d\n", i, len(b.text))
		return len(b.text)
	}
	return i
}

// MoveTo moves the cursor to pos.
func (b *buffer) MoveTo(pos int) {
	b.cursor = b.clamp(pos)
}

// Insert inserts text at the cursor, leaving the cursor after the inserted
// text. In overwrite mode the inserted text replaces existing characters up
// to the end of the current line.
func (b *buffer) Insert(text []rune) {
	if len(text) == 0 {
		return
	}
	if b.overwrite {
		end := b.cursor
		for i := 0; i < len(text) && end < len(b.text) && b.text[end] != '\n' && text[i] != '\n'; i++ {
			end++
		}
		b.Replace(b.cursor, end, text)
		return
	}
	b.record(bufOp{pos: b.cursor, ins: append([]rune(nil), text...)})
	b.text = append(b.text, text...)
	copy(b.text[b.cursor+len(text):], b.text[b.cursor:len(b.text)-len(text)])
	copy(b.text[b.cursor:], text)
	b.adjustMark(b.cursor, len(text))
	b.cursor += len(text)
}

// DeleteAt deletes n runes starting at pos and returns the deleted text. The
// cursor is adjusted to account for the deletion.
func (b *buffer) DeleteAt(pos, n int) []rune {
	pos = b.clamp(pos)
	end := b.clamp(pos + n)
	if pos >= end {
		return nil
	}
	del := append([]rune(nil), b.text[pos:end]...)
	b.record(bufOp{pos: pos, del: del})
	b.text = append(b.text[:pos], b.text[end:]...)
	b.adjustMark(pos, pos-end)
	if b.cursor > end {
		b.cursor -= end - pos
	} else if b.cursor > pos {
		b.cursor = pos
	}
	return del
}

// Cut deletes the range [start, end) and returns the deleted text.
func (b *buffer) Cut(start, end int) []rune {
	if start > end {
		start, end = end, start
	}
	return b.DeleteAt(start, end-start)
}

// Copy returns a copy of the range [start, end).
func (b *buffer) Copy(start, end int) []rune {
	if start > end {
		start, end = end, start
	}
	start = b.clamp(start)
	end = b.clamp(end)
	return append([]rune(nil), b.text[start:end]...)
}

// Substring returns the range [start, end) as a string.
func (b *buffer) Substring(start, end int) string {
	return string(b.Copy(start, end))
}

// Replace replaces the range [start, end) with text, leaving the cursor after
// the replacement.
func (b *buffer) Replace(start, end int, text []rune) {
	if start > end {
		start, end = end, start
	}
	start = b.clamp(start)
	end = b.clamp(end)
	del := append([]rune(nil), b.text[start:end]...)
	ins := append([]rune(nil), text...)
	b.record(bufOp{pos: start, ins: ins, del: del})

	tail := append([]rune(nil), b.text[end:]...)
	b.text = append(b.text[:start], ins...)
	b.text = append(b.text, tail...)
	b.adjustMark(start, len(ins)-(end-start))
	b.cursor = start + len(ins)
}

// SetMark sets the mark at the cursor position.
func (b *buffer) SetMark() {
	b.mark = b.cursor
}

// Mark returns the mark, or -1 if the mark is unset.
func (b *buffer) Mark() int {
	return b.mark
}

// ClearMark unsets the mark and clears the region.
func (b *buffer) ClearMark() {
	b.mark = -1
	b.region = RegionNone
}

// SwapPointAndMark exchanges the cursor and the mark. It reports false if the
// mark is unset.
func (b *buffer) SwapPointAndMark() bool {
	if b.mark < 0 {
		return false
	}
	b.mark = b.clamp(b.mark)
	b.cursor, b.mark = b.mark, b.cursor
	return true
}

func (b *buffer) adjustMark(pos, delta int) {
	if b.mark < 0 {
		return
	}
	if delta > 0 {
		if b.mark >= pos {
			b.mark += delta
		}
	} else if b.mark > pos {
		b.mark += delta
		if b.mark < pos {
			b.mark = pos
		}
	}
}

// EditAtomically runs f with undo recording suspended and records the net
// effect as a single undo unit.
func (b *buffer) EditAtomically(f func()) {
	if b.noRecord || b.undoOff {
		f()
		return
	}
	before := append([]rune(nil), b.text...)
	b.noRecord = true
	f()
	b.noRecord = false
	after := b.text
	// Record a whole-buffer replacement trimmed to the differing middle.
	p := 0
	for p < len(before) && p < len(after) && before[p] == after[p] {
		p++
	}
	sb, sa := len(before), len(after)
	for sb > p && sa > p && before[sb-1] == after[sa-1] {
		sb--
		sa--
	}
	if p == sb && p == sa {
		return
	}
	b.record(bufOp{
		pos:   p,
		ins:   append([]rune(nil), after[p:sa]...),
		del:   append([]rune(nil), before[p:sb]...),
		split: true,
	})
	b.pendingSplit = true
}

// SplitUndo marks a boundary in the undo log. The next recorded mutation
// starts a new undo unit.
func (b *buffer) SplitUndo() {
	b.pendingSplit = true
}

func (b *buffer) record(op bufOp) {
	if b.undoOff || b.noRecord {
		return
	}
	// A new edit invalidates the redo tail.
	b.undo = b.undo[:b.undoIdx]
	if b.pendingSplit || len(b.undo) == 0 {
		op.split = true
		b.pendingSplit = false
	}
	b.undo = append(b.undo, op)
	b.undoIdx = len(b.undo)
}

// Undo reverts the most recent undo unit. It reports false if there is
// nothing to undo.
func (b *buffer) Undo() bool {
	if b.undoIdx == 0 {
		return false
	}
	for b.undoIdx > 0 {
		b.undoIdx--
		op := &b.undo[b.undoIdx]
		b.revert(op)
		if op.split {
			break
		}
	}
	b.pendingSplit = true
	return true
}

// Redo reapplies the most recently undone unit. It reports false if there is
// nothing to redo.
func (b *buffer) Redo() bool {
	if b.undoIdx >= len(b.undo) {
		return false
	}
	for b.undoIdx < len(b.undo) {
		op := &b.undo[b.undoIdx]
		b.apply(op)
		b.undoIdx++
		if b.undoIdx < len(b.undo) && b.undo[b.undoIdx].split {
			break
		}
	}
	b.pendingSplit = true
	return true
}

func (b *buffer) apply(op *bufOp) {
	if len(op.del) > 0 {
		end := op.pos + len(op.del)
		b.text = append(b.text[:op.pos], b.text[end:]...)
	}
	if len(op.ins) > 0 {
		tail := append([]rune(nil), b.text[op.pos:]...)
		b.text = append(b.text[:op.pos], op.ins...)
		b.text = append(b.text, tail...)
	}
	b.cursor = b.clamp(op.pos + len(op.ins))
	if b.mark >= 0 {
		b.mark = b.clamp(b.mark)
	}
}

func (b *buffer) revert(op *bufOp) {
	if len(op.ins) > 0 {
		end := op.pos + len(op.ins)
		b.text = append(b.text[:op.pos], b.text[end:]...)
	}
	if len(op.del) > 0 {
		tail := append([]rune(nil), b.text[op.pos:]...)
		b.text = append(b.text[:op.pos], op.del...)
		b.text = append(b.text, tail...)
		b.cursor = b.clamp(op.pos + len(op.del))
	} else {
		b.cursor = b.clamp(op.pos)
	}
	if b.mark >= 0 {
		b.mark = b.clamp(b.mark)
	}
}

// setUndoDisabled toggles undo recording. Disabling clears the log so a
// disabled buffer holds no history at all.
func (b *buffer) setUndoDisabled(off bool) {
	b.undoOff = off
	if off {
		b.undo = b.undo[:0]
		b.undoIdx = 0
	}
}

// zero overwrites the buffer text and the undo log with NUL runes. Used
// before release when the buffer held sensitive input.
func (b *buffer) zero() {
	for i := range b.text {
		b.text[i] = 0
	}
	for i := range b.undo {
		for j := range b.undo[i].ins {
			b.undo[i].ins[j] = 0
		}
		for j := range b.undo[i].del {
			b.undo[i].del[j] = 0
		}
	}
	b.init()
}
