package editline

import "strings"

const killRingMax = 10

// killRing implements a fixed size kill ring. When a widget is described as
// killing text, the deleted text is saved for future retrieval. Consecutive
// kills accumulate in a single entry which can be yanked all at once. Widgets
// which do not kill text separate the entries on the ring.
type killRing struct {
	entries []string
	killing bool
	yanking bool
}

// Append appends text to the current kill ring entry. If the previous widget
// was not a kill widget then a new entry is created, discarding the oldest
// entry if the max kill ring size has been reached.
func (r *killRing) Append(e string) {
	r.maybeBeginKill()
	head := len(r.entries) - 1
	r.entries[head] += e
}

// Prepend prepends text to the current kill ring entry. If the previous
// widget was not a kill widget then a new entry is created, discarding the
// oldest entry if the max kill ring size has been reached.
func (r *killRing) Prepend(e string) {
	r.maybeBeginKill()
	head := len(r.entries) - 1
	r.entries[head] = e + r.entries[head]
}

// Yank returns the current kill ring entry, or nil if the ring is empty.
func (r *killRing) Yank() []rune {
	if len(r.entries) == 0 {
		return nil
	}
	r.yanking = true
	return []rune(r.entries[len(r.entries)-1])
}

// Rotate rotates the ring so that the current entry becomes the oldest and
// the next newest entry becomes current. Used by yank-pop.
func (r *killRing) Rotate() {
	if len(r.entries) == 0 {
		return
	}
	last := r.entries[len(r.entries)-1]
	copy(r.entries[1:], r.entries)
	r.entries[0] = last
}

// Seal ends any in-progress kill accumulation or yank sequence. Called when a
// widget that is neither a kill nor a yank runs.
func (r *killRing) Seal() {
	r.killing = false
	r.yanking = false
}

func (r *killRing) String() string {
	var buf strings.Builder
	buf.WriteString("[")
	for i := range r.entries {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(r.entries[len(r.entries)-i-1])
	}
	buf.WriteString("]")
	return buf.String()
}

// zero overwrites the ring contents with NUL runes and empties it.
func (r *killRing) zero() {
	for i := range r.entries {
		r.entries[i] = strings.Repeat("\x00", len(r.entries[i]))
	}
	r.entries = r.entries[:0]
	r.killing = false
	r.yanking = false
}

func (r *killRing) maybeBeginKill() {
	if r.killing {
		return
	}
	r.killing = true

	if r.entries == nil {
		r.entries = make([]string, 0, killRingMax)
	}
	if len(r.entries) < cap(r.entries) {
		r.entries = append(r.entries, "")
	} else {
		copy(r.entries, r.entries[1:])
		r.entries[len(r.entries)-1] = ""
	}
}
