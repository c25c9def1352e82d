// Command demo is an interactive demonstration of the editline package:
// multi-line SQL-ish input terminated by a trailing semicolon, keyword
// completion with a menu, history with incremental search, vi and emacs
// keymaps, and an optional status line (-status).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/editline/editline"
)

func init() {
	sort.Strings(sqlKeywords)
}

// semiParser treats input as complete only when it ends with a semicolon,
// requesting a continuation line otherwise.
type semiParser struct{}

func (semiParser) Parse(line string, cursor int, ctx editline.ParseContext) (*editline.ParsedLine, error) {
	if ctx == editline.ParseAcceptLine && !strings.HasSuffix(strings.TrimSpace(line), ";") {
		return nil, &editline.EOFError{Missing: ";"}
	}
	pl := &editline.ParsedLine{Line: line, Cursor: cursor, WordIndex: -1}
	runes := []rune(line)
	start := -1
	flush := func(end int) {
		if start == -1 {
			return
		}
		if cursor >= start && cursor <= end {
			pl.WordIndex = len(pl.Words)
			pl.WordCursor = cursor - start
		}
		pl.Words = append(pl.Words, string(runes[start:end]))
		start = -1
	}
	for i, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == ';' || r == ',' || r == '(' || r == ')' {
			flush(i)
		} else if start == -1 {
			start = i
		}
	}
	flush(len(runes))
	if pl.WordIndex == -1 {
		pl.WordIndex = len(pl.Words)
		pl.Words = append(pl.Words, "")
	}
	return pl, nil
}

// keywordCompleter completes SQL keywords case-insensitively, grouping them
// under a single heading.
type keywordCompleter struct{}

func (keywordCompleter) Complete(r *editline.Reader, line *editline.ParsedLine, out *[]editline.Candidate) {
	word := strings.ToUpper(line.Word())
	i := sort.SearchStrings(sqlKeywords, word)
	for ; i < len(sqlKeywords); i++ {
		if !strings.HasPrefix(sqlKeywords[i], word) {
			break
		}
		*out = append(*out, editline.Candidate{
			Value:    sqlKeywords[i],
			Group:    "keywords",
			Complete: true,
		})
	}
}

// keywordHighlighter renders known keywords in bold.
type keywordHighlighter struct{}

func (keywordHighlighter) Highlight(line string) editline.AttributedString {
	var out editline.AttributedString
	rest := line
	for len(rest) > 0 {
		i := strings.IndexAny(rest, " \t\n();,")
		var word, sep string
		if i < 0 {
			word, rest = rest, ""
		} else {
			word, sep, rest = rest[:i], rest[i:i+1], rest[i+1:]
		}
		j := sort.SearchStrings(sqlKeywords, strings.ToUpper(word))
		if j < len(sqlKeywords) && sqlKeywords[j] == strings.ToUpper(word) {
			out.Append(word, editline.AttrBold)
		} else {
			out.Append(word, "")
		}
		out.Append(sep, "")
	}
	return out
}

func main() {
	vi := flag.Bool("vi", false, "start in vi editing mode")
	status := flag.Bool("status", false, "show a status line below the prompt")
	histFile := flag.String("history", "", "history file path")
	flag.Parse()

	fmt.Printf(`# editline demo
# - multi-line input terminated by a trailing semicolon
# - standard navigation and editing commands, emacs and vi modes
# - history browsing and incremental search (Control-R)
# - kill ring, undo, completion menu (Tab)
`)

	opts := []editline.Option{
		editline.WithParser(semiParser{}),
		editline.WithCompleter(keywordCompleter{}),
		editline.WithHighlighter(keywordHighlighter{}),
		editline.WithFlag(editline.FlagCaseInsensitive, true),
		editline.WithVariable(editline.VarSecondaryPromptPattern, "%M%P."),
	}
	if *vi {
		opts = append(opts, editline.WithKeyMap("viins"))
	}
	if *histFile != "" {
		opts = append(opts, editline.WithHistoryFile(*histFile))
	}

	r := editline.New(opts...)
	defer r.Close()

	if *status {
		var line editline.AttributedString
		line.Append(" demo: semicolon-terminated statements ", editline.AttrReverse)
		r.Status().Update([]editline.AttributedString{line})
	}

	for {
		line, err := r.ReadLine("demo> ")
		if err != nil {
			if errors.Is(err, editline.ErrInterrupt) {
				fmt.Println("^C")
				continue
			}
			if errors.Is(err, io.EOF) {
				return
			}
			log.Fatal(err)
		}
		fmt.Printf("read: %q\n", line)
	}
}

// NB: a subset of the SQL92 keyword list.
var sqlKeywords = []string{
	"ALL", "ALTER", "AND", "ANY", "AS", "ASC", "BEGIN", "BETWEEN", "BY",
	"CASCADE", "CASE", "CHECK", "COLUMN", "COMMIT", "CONSTRAINT", "CREATE",
	"CROSS", "CURRENT", "CURSOR", "DATABASE", "DEFAULT", "DELETE", "DESC",
	"DISTINCT", "DROP", "ELSE", "END", "EXCEPT", "EXISTS", "EXPLAIN",
	"FALSE", "FETCH", "FOREIGN", "FROM", "FULL", "GRANT", "GROUP", "HAVING",
	"IN", "INDEX", "INNER", "INSERT", "INTERSECT", "INTO", "IS", "JOIN",
	"KEY", "LEFT", "LIKE", "LIMIT", "NATURAL", "NOT", "NULL", "OFFSET",
	"ON", "OR", "ORDER", "OUTER", "PRIMARY", "REFERENCES", "RENAME",
	"RESTRICT", "REVOKE", "RIGHT", "ROLLBACK", "SELECT", "SET", "SHOW",
	"TABLE", "THEN", "TRANSACTION", "TRUE", "TRUNCATE", "UNION", "UNIQUE",
	"UPDATE", "USING", "VALUES", "VIEW", "WHEN", "WHERE", "WITH",
}
