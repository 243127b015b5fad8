package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const glyphHeight = 5

// Block glyphs for the wall clock, five rows each.
var glyphs = map[rune][glyphHeight]string{
	'0': {"███", "█ █", "█ █", "█ █", "███"},
	'1': {" ██", "  █", "  █", "  █", "  █"},
	'2': {"███", "  █", "███", "█  ", "███"},
	'3': {"███", "  █", "███", "  █", "███"},
	'4': {"█ █", "█ █", "███", "  █", "  █"},
	'5': {"███", "█  ", "███", "  █", "███"},
	'6': {"███", "█  ", "███", "█ █", "███"},
	'7': {"███", "  █", "  █", "  █", "  █"},
	'8': {"███", "█ █", "███", "█ █", "███"},
	'9': {"███", "█ █", "███", "  █", "███"},
	':': {" ", "█", " ", "█", " "},
}

// bigText renders digits and colons as block glyphs. Other characters
// render as a blank column.
func bigText(s string) string {
	var rows [glyphHeight]strings.Builder
	for i, r := range s {
		g, ok := glyphs[r]
		if !ok {
			g = [glyphHeight]string{" ", " ", " ", " ", " "}
		}
		for row := 0; row < glyphHeight; row++ {
			if i > 0 {
				rows[row].WriteByte(' ')
			}
			rows[row].WriteString(g[row])
		}
	}
	lines := make([]string, glyphHeight)
	for row := range rows {
		lines[row] = rows[row].String()
	}
	return strings.Join(lines, "\n")
}

// bigTextWidth is the display width of bigText(s).
func bigTextWidth(s string) int {
	first := strings.SplitN(bigText(s), "\n", 2)[0]
	return runewidth.StringWidth(first)
}
