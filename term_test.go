package editline

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// fakeTerm is an in-memory Terminal whose input is a byte queue. An empty
// queue reads as EOF; timeouts expire immediately, which makes decoding
// deterministic in tests.
type fakeTerm struct {
	in     bytes.Buffer
	out    io.Writer
	width  int
	height int
}

func newFakeTerm(out io.Writer, w, h int) *fakeTerm {
	return &fakeTerm{out: out, width: w, height: h}
}

func (t *fakeTerm) feed(s string) {
	t.in.WriteString(s)
}

func (t *fakeTerm) Read(p []byte) (int, error) {
	if t.in.Len() == 0 {
		return 0, io.EOF
	}
	return t.in.Read(p)
}

func (t *fakeTerm) ReadTimeout(p []byte, _ time.Duration) (int, error) {
	if t.in.Len() == 0 {
		return 0, nil
	}
	return t.in.Read(p)
}

func (t *fakeTerm) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

func (t *fakeTerm) Size() (int, int, error) {
	return t.width, t.height, nil
}

func (t *fakeTerm) Raw() (func() error, error) {
	return func() error { return nil }, nil
}

func (t *fakeTerm) NotifyResize(func()) {}
func (t *fakeTerm) Pause(bool) error    { return nil }
func (t *fakeTerm) Resume() error       { return nil }

// screenGrid interprets the escape sequences the display emits and reflects
// them onto a cell grid, so tests can assert on what a terminal would show.
type screenGrid struct {
	contents []rune
	width    int
	height   int
	cursorX  int
	cursorY  int
	savedX   int
	savedY   int
}

var seqRE = regexp.MustCompile(`^\x1b\[([0-9;]*)([A-Za-z])`)

func newScreenGrid(w, h int) *screenGrid {
	return &screenGrid{
		contents: make([]rune, w*h),
		width:    w,
		height:   h,
	}
}

func (g *screenGrid) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		if p[0] == 0x1b && len(p) >= 2 && (p[1] == '7' || p[1] == '8') {
			if p[1] == '7' {
				g.savedX, g.savedY = g.cursorX, g.cursorY
			} else {
				g.cursorX, g.cursorY = g.savedX, g.savedY
			}
			p = p[2:]
			continue
		}
		if m := seqRE.FindSubmatch(p); m != nil {
			var args []int
			for _, s := range strings.Split(string(m[1]), ";") {
				v, _ := strconv.Atoi(s)
				args = append(args, v)
			}
			arg := func(i, def int) int {
				if i < len(args) && args[i] != 0 {
					return args[i]
				}
				return def
			}
			switch m[2][0] {
			case 'A':
				g.moveTo(g.cursorX, g.cursorY-arg(0, 1))
			case 'B':
				g.moveTo(g.cursorX, g.cursorY+arg(0, 1))
			case 'C':
				g.moveTo(g.cursorX+arg(0, 1), g.cursorY)
			case 'D':
				g.moveTo(g.cursorX-arg(0, 1), g.cursorY)
			case 'H':
				g.moveTo(arg(1, 1)-1, arg(0, 1)-1)
			case 'J':
				g.eraseScreen(arg(0, 0))
			case 'K':
				g.eraseLine(arg(0, 0))
			case 'm', 'r', 'h', 'l':
				// Attributes, scroll region, and mode toggles are not
				// reflected in the grid.
			default:
				return -1, fmt.Errorf("unknown CSI command: %q", m[2][0])
			}
			p = p[len(m[0]):]
			continue
		}
		r, l := utf8.DecodeRune(p)
		if r == utf8.RuneError {
			return -1, fmt.Errorf("unable to decode utf8: [% x]", p)
		}
		g.put(r)
		p = p[l:]
	}
	return n, nil
}

// row returns the contents of row y with trailing blanks trimmed.
func (g *screenGrid) row(y int) string {
	var buf strings.Builder
	for x := 0; x < g.width; x++ {
		r := g.contents[g.position(x, y)]
		if r == 0 {
			r = ' '
		}
		buf.WriteRune(r)
	}
	return strings.TrimRight(buf.String(), " ")
}

func (g *screenGrid) String() string {
	var buf strings.Builder
	for y := 0; y < g.height; y++ {
		buf.WriteString(g.row(y))
		buf.WriteString("\n")
	}
	return buf.String()
}

func (g *screenGrid) moveTo(x, y int) {
	if x < 0 {
		x = 0
	} else if x > g.width {
		x = g.width
	}
	if y < 0 {
		y = 0
	} else if y > g.height {
		y = g.height
	}
	g.cursorX = x
	g.cursorY = y
}

func (g *screenGrid) eraseScreen(n int) {
	switch n {
	case 0:
		g.fill(g.cursorX, g.cursorY, g.width-g.cursorX, 1, 0)
		g.fill(0, g.cursorY+1, g.width, g.height-(g.cursorY+1), 0)
	case 1:
		g.fill(0, 0, g.width, g.cursorY, 0)
		g.fill(0, g.cursorY, g.cursorX, 1, 0)
	case 2:
		g.moveTo(0, 0)
		g.fill(0, 0, g.width, g.height, 0)
	}
}

func (g *screenGrid) eraseLine(n int) {
	switch n {
	case 0:
		g.fill(g.cursorX, g.cursorY, g.width-g.cursorX, 1, 0)
	case 1:
		g.fill(0, g.cursorY, g.cursorX, 1, 0)
	case 2:
		g.fill(0, g.cursorY, g.width, 1, 0)
	}
}

func (g *screenGrid) scroll() {
	for i := 1; i < g.height; i++ {
		copy(g.line(i-1), g.line(i))
	}
	g.fill(0, g.height-1, g.width, 1, 0)
}

func (g *screenGrid) position(x, y int) int {
	return x + y*g.width
}

func (g *screenGrid) put(r rune) {
	switch r {
	case '\a':
	case '\r':
		g.moveTo(0, g.cursorY)
	case '\n':
		if g.cursorY+1 < g.height {
			g.cursorY++
			return
		}
		g.scroll()
	default:
		switch cellWidth(r) {
		case 0:
		case 1:
			g.contents[g.position(g.cursorX, g.cursorY)] = r
			if g.cursorX+1 < g.width {
				g.cursorX++
			}
		case 2:
			if g.cursorX+2 >= g.width {
				g.cursorX = 0
				g.scroll()
			}
			pos := g.position(g.cursorX, g.cursorY)
			g.contents[pos] = r
			g.contents[pos+1] = 0
			g.cursorX += 2
		}
	}
}

func (g *screenGrid) line(y int) []rune {
	return g.contents[y*g.width : (y+1)*g.width]
}

func (g *screenGrid) fill(x, y, width, height int, r rune) {
	for i := 0; i < height; i++ {
		for j := 0; j < width; j++ {
			g.contents[g.position(x+j, y+i)] = r
		}
	}
}

// newTestReader wires a Reader to a fake terminal backed by a screen grid.
func newTestReader(w, h int, options ...Option) (*Reader, *fakeTerm, *screenGrid) {
	grid := newScreenGrid(w, h)
	term := newFakeTerm(grid, w, h)
	opts := append([]Option{WithTerminal(term), WithSize(w, h)}, options...)
	return New(opts...), term, grid
}
