package captions

import (
	"strings"
	"unicode/utf8"
)

// glyphWidthRatio approximates the advance of a bold sans glyph relative to its font size
const glyphWidthRatio = 0.6

// MaxCharsPerLine estimates how many characters fit across safeWidth pixels
func MaxCharsPerLine(safeWidth, fontSize int) int {
	if fontSize <= 0 {
		return safeWidth
	}
	n := int(float64(safeWidth) / (float64(fontSize) * glyphWidthRatio))
	if n < 1 {
		return 1
	}
	return n
}

// Wrap breaks text into lines of at most maxChars runes. Words are never
// clipped: a word longer than a line is split across lines instead.
func Wrap(text string, maxChars int) []string {
	if maxChars < 1 {
		maxChars = 1
	}

	var lines []string
	var line strings.Builder
	lineLen := 0

	flush := func() {
		if lineLen > 0 {
			lines = append(lines, line.String())
			line.Reset()
			lineLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > maxChars {
			flush()
			runes := []rune(word)
			lines = append(lines, string(runes[:maxChars]))
			word = string(runes[maxChars:])
		}
		n := utf8.RuneCountInString(word)
		if n == 0 {
			continue
		}
		if lineLen > 0 && lineLen+1+n > maxChars {
			flush()
		}
		if lineLen > 0 {
			line.WriteByte(' ')
			lineLen++
		}
		line.WriteString(word)
		lineLen += n
	}
	flush()
	return lines
}
