package chunker

import "unicode"

// A sentence ends at terminal punctuation, optionally followed by closing
// quotes or brackets, when the next rune is whitespace or end of text. This
// keeps decimal numbers ("3.14") intact; abbreviations ("Dr. Smith") do split,
// which is an accepted tradeoff of the deterministic scanner.
func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '）', '」':
		return true
	}
	return false
}

func splitSentences(runes []rune) []unit {
	var units []unit
	n := len(runes)
	i := 0
	for i < n {
		for i < n && unicode.IsSpace(runes[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		end := n
		for j := i; j < n; j++ {
			if !isTerminal(runes[j]) {
				continue
			}
			k := j + 1
			for k < n && isClosing(runes[k]) {
				k++
			}
			if k >= n || unicode.IsSpace(runes[k]) {
				end = k
				break
			}
		}
		units = append(units, unit{start: start, end: end})
		i = end
	}
	return units
}

// splitParagraphs cuts on blank lines (a newline followed by only horizontal
// whitespace and another newline). Trailing whitespace is trimmed from each
// paragraph so offsets stay tight around the visible text.
func splitParagraphs(runes []rune) []unit {
	var units []unit
	n := len(runes)
	i := 0
	for i < n {
		for i < n && unicode.IsSpace(runes[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		end := n
		for j := i; j < n; j++ {
			if runes[j] != '\n' {
				continue
			}
			k := j + 1
			for k < n && (runes[k] == ' ' || runes[k] == '\t' || runes[k] == '\r') {
				k++
			}
			if k >= n || runes[k] == '\n' {
				end = j
				break
			}
		}
		for end > start && unicode.IsSpace(runes[end-1]) {
			end--
		}
		units = append(units, unit{start: start, end: end})
		i = end
	}
	return units
}
