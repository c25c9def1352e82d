package editline

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// searchState is the incremental history search sub-loop. While active,
// printable keys extend the pattern, Control-R and Control-S move between
// matches, Control-G aborts restoring the pre-search buffer, and any other
// key accepts the search at the matched entry and is then executed normally.
type searchState struct {
	dir     int
	regex   bool
	pattern []rune

	savedText   string
	savedCursor int
	savedIndex  int

	// matchIndex is the search cursor, independent of the history's
	// navigation pointer until the search is accepted.
	matchIndex int
	matched    bool
	// matchedPattern is the last pattern that had a match; an abort of a
	// failing search falls back to it instead of cancelling.
	matchedPattern []rune
}

// enterSearch starts (or redirects) the incremental search sub-loop.
func (r *Reader) enterSearch(dir int, regex bool) {
	if r.state == stSearching {
		r.search.dir = dir
		r.searchAdvance()
		return
	}
	r.search = searchState{
		dir:         dir,
		regex:       regex,
		savedText:   r.buf.String(),
		savedCursor: r.buf.cursor,
		savedIndex:  r.history.index,
		matchIndex:  r.history.index,
	}
	r.state = stSearching
}

// searchAdvance moves to the next match in the current direction.
func (r *Reader) searchAdvance() {
	r.updateSearch(true)
}

// searchAppend extends the pattern with a key.
func (r *Reader) searchAppend(ch rune) {
	if !isPrintable(ch) || ch == '\n' {
		return
	}
	r.search.pattern = append(r.search.pattern, ch)
	r.updateSearch(false)
}

// searchTruncate trims the last rune from the pattern.
func (r *Reader) searchTruncate() bool {
	s := &r.search
	if len(s.pattern) == 0 {
		return false
	}
	s.pattern = s.pattern[:len(s.pattern)-1]
	r.updateSearch(false)
	return true
}

// searchAbort leaves the search. A failing search first falls back to the
// last matching pattern; a matching one restores the pre-search buffer.
func (r *Reader) searchAbort() bool {
	s := &r.search
	if len(s.pattern) > 0 && !s.matched && len(s.matchedPattern) > 0 {
		s.pattern = append(s.pattern[:0], s.matchedPattern...)
		r.updateSearch(false)
		return true
	}
	r.history.index = s.savedIndex
	r.setBufferText(s.savedText)
	r.buf.MoveTo(s.savedCursor)
	r.state = stEditing
	return true
}

// searchAccept exits the search at the matched entry, leaving the cursor on
// the first match.
func (r *Reader) searchAccept() bool {
	if r.state != stSearching {
		return false
	}
	r.state = stEditing
	return true
}

// updateSearch recomputes the match. With advance set the search moves off
// the current entry first; otherwise the current entry is retried with the
// new pattern.
func (r *Reader) updateSearch(advance bool) {
	s := &r.search
	s.matched = false
	if len(s.pattern) == 0 {
		return
	}

	pattern := string(s.pattern)
	var re *regexp.Regexp
	if s.regex {
		var err error
		if re, err = regexp.Compile(pattern); err != nil {
			return
		}
	}

	from := s.matchIndex
	var i int
	switch {
	case s.regex && s.dir < 0:
		if !advance {
			from++
		}
		i = r.history.SearchBackwardRegex(re, from)
	case s.regex:
		if advance {
			i = r.history.SearchForwardRegex(re, from)
		} else if from < r.history.Len() && re.MatchString(r.history.Get(from)) {
			i = from
		} else {
			i = r.history.SearchForwardRegex(re, from)
		}
	case s.dir < 0:
		if !advance {
			from++
		}
		i = r.history.SearchBackward(pattern, from, false)
	default:
		if advance {
			i = r.history.SearchForward(pattern, from, false)
		} else if from < r.history.Len() && strings.Contains(r.history.Get(from), pattern) {
			i = from
		} else {
			i = r.history.SearchForward(pattern, from, false)
		}
	}
	if i < 0 {
		return
	}

	s.matchIndex = i
	s.matched = true
	s.matchedPattern = append(s.matchedPattern[:0], s.pattern...)

	entry := r.history.Get(i)
	r.history.startBrowse(r.buf.String())
	r.history.index = i
	r.setBufferText(entry)

	pos := 0
	if s.regex {
		if loc := re.FindStringIndex(entry); loc != nil {
			pos = utf8.RuneCountInString(entry[:loc[0]])
		}
	} else if j := strings.Index(entry, pattern); j >= 0 {
		pos = utf8.RuneCountInString(entry[:j])
	}
	r.buf.MoveTo(pos)
}

// searchSuffix renders the search status line shown under the buffer.
func (r *Reader) searchSuffix() AttributedString {
	s := &r.search
	dir := "fwd"
	if s.dir < 0 {
		dir = "bck"
	}
	kind := "i-search"
	if s.regex {
		kind = "pattern-search"
	}
	marker := ":"
	if len(s.pattern) > 0 && !s.matched {
		marker = "?"
	}
	var a AttributedString
	a.Append(dir+"-"+kind+marker+" `"+string(s.pattern)+"'", "")
	return a
}

// searchTerminator reports whether ch merely accepts the search rather than
// being re-executed after it.
func (r *Reader) searchTerminator(ch rune) bool {
	return strings.ContainsRune(r.varString(VarSearchTerminators), ch)
}
