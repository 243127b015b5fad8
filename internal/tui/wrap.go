package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText breaks s into lines no wider than width display cells, at
// spaces where possible. Words wider than a line are split.
func wrapText(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, word := range words {
		for runewidth.StringWidth(word) > width {
			if lineWidth > 0 {
				lines = append(lines, line.String())
				line.Reset()
				lineWidth = 0
			}
			head, tail := splitAtWidth(word, width)
			lines = append(lines, head)
			word = tail
		}
		wordWidth := runewidth.StringWidth(word)
		if wordWidth == 0 {
			continue
		}
		switch {
		case lineWidth == 0:
			line.WriteString(word)
			lineWidth = wordWidth
		case lineWidth+1+wordWidth <= width:
			line.WriteByte(' ')
			line.WriteString(word)
			lineWidth += 1 + wordWidth
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
			lineWidth = wordWidth
		}
	}
	if lineWidth > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func splitAtWidth(word string, width int) (head, tail string) {
	w := 0
	for i, r := range word {
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			if i == 0 {
				// A single rune wider than the line still has to go somewhere.
				size := len(string(r))
				return word[:size], word[size:]
			}
			return word[:i], word[i:]
		}
		w += rw
	}
	return word, ""
}
