package editline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

func TestExpandPromptDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/prompt", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "expand":
			line := 1
			if td.HasArg("line") {
				td.ScanArgs(t, "line", &line)
			}
			var missing string
			if td.HasArg("missing") {
				td.ScanArgs(t, "missing", &missing)
			}
			var width int
			if td.HasArg("width") {
				td.ScanArgs(t, "width", &width)
			}
			pattern := strings.TrimSuffix(td.Input, "\n")
			a := expandPrompt(pattern, line, missing, width)
			return fmt.Sprintf("%q width=%d\n", a.String(), promptWidth(a))
		}
		return ""
	})
}

func TestExpandPromptZeroWidthAttrs(t *testing.T) {
	a := expandPrompt("%{"+AttrBold+"%}x> ", 1, "", 0)
	require.Equal(t, "x> ", a.String())
	require.Equal(t, 3, promptWidth(a))
	// The zero-width content becomes the attribute of the following text.
	require.Equal(t, AttrBold, a.attrs[0])
}

func TestExpandPromptLines(t *testing.T) {
	lines := expandPromptLines("%N>\n%N>", 1, "", 0)
	require.Len(t, lines, 2)
	require.Equal(t, "1>", lines[0].String())
	require.Equal(t, "2>", lines[1].String())
}

func TestExpandPromptPadClamps(t *testing.T) {
	// Padding never removes text that is already wider than the target.
	a := expandPrompt("abcdef%P-", 1, "", 3)
	require.Equal(t, "abcdef", a.String())
}

func TestParseANSI(t *testing.T) {
	a := parseANSI("plain")
	require.Equal(t, "plain", a.String())
	require.Equal(t, "", a.attrs[0])

	a = parseANSI(AttrBold + "bold" + AttrReset + "x")
	require.Equal(t, "boldx", a.String())
	require.Equal(t, AttrBold, a.attrs[0])
	require.Equal(t, "", a.attrs[4])

	require.Equal(t, "hi", stripANSI("\x1b[92mhi\x1b[0m"))
	require.Equal(t, "hi", stripANSI("hi"))
}
