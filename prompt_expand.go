package editline

import (
	"strconv"
	"strings"
)

// expandPrompt resolves the % directives of a prompt template:
//
//	%N    line number (line-offset plus the 1-based line index)
//	%M    token reported missing by the parser on the last accept attempt
//	%nPc  pad the line with character c until it is n columns wide
//	%Pc   pad the line with character c to the width of the initial prompt
//	%%    a literal %
//	%{…%} zero-width region: emitted verbatim, occupies no columns
//
// firstWidth is the visible width of the initial prompt, used by %P to align
// continuation prompts. Zero-width regions become part of the attribute state
// of the following text so the wrap model never counts them.
func expandPrompt(pattern string, lineNo int, missing string, firstWidth int) AttributedString {
	var out AttributedString
	var attr string
	col := 0

	appendText := func(s string) {
		for _, r := range s {
			out.text = append(out.text, r)
			out.attrs = append(out.attrs, attr)
			col += cellWidth(r)
		}
	}
	pad := func(target int, c rune) {
		for col < target {
			appendText(string(c))
		}
	}

	rs := []rune(pattern)
	for i := 0; i < len(rs); i++ {
		if rs[i] != '%' || i+1 >= len(rs) {
			appendText(string(rs[i]))
			continue
		}
		i++
		switch rs[i] {
		case '%':
			appendText("%")
		case 'N':
			appendText(strconv.Itoa(lineNo))
		case 'M':
			appendText(missing)
		case 'P':
			if i+1 < len(rs) {
				i++
				pad(firstWidth, rs[i])
			}
		case '{':
			// Zero-width region: everything up to %} joins the attribute
			// state and is emitted without advancing the column.
			var zw strings.Builder
			for i++; i < len(rs); i++ {
				if rs[i] == '%' && i+1 < len(rs) && rs[i+1] == '}' {
					i++
					break
				}
				zw.WriteRune(rs[i])
			}
			attr += zw.String()
		default:
			// %nPc padding with an explicit width.
			j := i
			for j < len(rs) && rs[j] >= '0' && rs[j] <= '9' {
				j++
			}
			if j > i && j < len(rs) && rs[j] == 'P' && j+1 < len(rs) {
				n, _ := strconv.Atoi(string(rs[i:j]))
				pad(n, rs[j+1])
				i = j + 1
				continue
			}
			// An unrecognized directive is kept literally.
			appendText("%" + string(rs[i]))
		}
	}
	return out
}

// promptWidth returns the visible column width of an expanded prompt line.
func promptWidth(a AttributedString) int {
	var w int
	for _, r := range a.text {
		w += cellWidth(r)
	}
	return w
}

// expandPromptLines expands a template that may span multiple lines,
// returning one AttributedString per template line. The line counter
// increments across template lines.
func expandPromptLines(pattern string, baseLine int, missing string, firstWidth int) []AttributedString {
	parts := strings.Split(pattern, "\n")
	lines := make([]AttributedString, len(parts))
	for i, part := range parts {
		lines[i] = expandPrompt(part, baseLine+i, missing, firstWidth)
	}
	return lines
}
