package artwork

import (
	"strings"
	"unicode/utf8"
)

// StripANSI removes SGR escape sequences from s.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}

// VisibleWidth returns the number of runes left once escape sequences are removed.
func VisibleWidth(s string) int {
	return utf8.RuneCountInString(StripANSI(s))
}

// WrapText wraps text at word boundaries to lines of at most width runes. Widths below 10
// fall back to 40.
func WrapText(text string, width int) []string {
	if width < 10 {
		width = 40
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var result []string
	var current string
	for _, word := range words {
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			result = append(result, current)
			current = word
		}
	}
	if current != "" {
		result = append(result, current)
	}
	return result
}

// SideBySide lays art out on the left and info on the right, separated by spacing columns,
// with a two column left margin.
func SideBySide(art string, info []string, spacing int) string {
	artLines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if art == "" {
		artLines = nil
	}
	artWidth := 0
	for _, line := range artLines {
		artWidth = max(artWidth, VisibleWidth(line))
	}
	infoCol := artWidth + spacing

	var b strings.Builder
	for i := 0; i < max(len(artLines), len(info)); i++ {
		b.WriteString("  ")
		if i < len(artLines) {
			b.WriteString(artLines[i])
			b.WriteString(strings.Repeat(" ", infoCol-VisibleWidth(artLines[i])))
		} else {
			b.WriteString(strings.Repeat(" ", infoCol))
		}
		if i < len(info) {
			b.WriteString(info[i])
		}
		b.WriteString("\n")
	}
	return b.String()
}
