package track

import (
	"strconv"
	"strings"
	"unicode"
)

// Page is one unit of subtitle display text produced by SplitPages.
type Page struct {
	Text           string
	DurationMillis int // negative on the final page: "suggested minimum"
}

// SplitPages implements the text-pagination rule of spec §4.5: split at
// "\r\n"; prepend ".." to continuations; append "..." to every page
// before a break whose last character is not whitespace or punctuation;
// per-page display time = char_count × textCharMillis with a minimum of
// minPageMillis. The final page's duration is stored negative.
func SplitPages(text string, textCharMillis, minPageMillis int) []Page {
	if text == "" {
		return []Page{{Text: "", DurationMillis: -minPageMillis}}
	}
	parts := strings.Split(text, "\r\n")
	pages := make([]Page, len(parts))
	for i, raw := range parts {
		duration := len(raw) * textCharMillis
		if duration < minPageMillis {
			duration = minPageMillis
		}

		display := raw
		if i > 0 {
			display = ".." + display
		}
		if n := len(raw); n > 0 && i < len(parts)-1 {
			last := rune(raw[n-1])
			if !unicode.IsSpace(last) && !unicode.IsPunct(last) {
				display += "..."
			}
		}
		pages[i] = Page{Text: display, DurationMillis: duration}
	}
	pages[len(pages)-1].DurationMillis = -pages[len(pages)-1].DurationMillis
	return pages
}

// ParseTimestamps parses comma/CR/LF-separated unsigned integers,
// skipping zeros (spec §4.5). When present, explicit timestamps replace
// the computed per-page durations.
func ParseTimestamps(s string) []int {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\r' || r == '\n'
	})
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil || v == 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}
