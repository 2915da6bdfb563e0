package chanttext

import "strings"

// SplitSections splits chant text at its sectioning markers and returns
// the trimmed sections in reading order. Markers are barlines "|",
// missing-music groups "{...}", bracketed incipit groups "[...]" and
// "~" incipits. Each marker becomes its own section, except that
// adjacent "{...}" groups merge into one section and a "~" incipit
// runs to the next barline or missing-music group so bracketed
// material inside it stays attached.
func SplitSections(text string) []string {
	var sections []string
	flush := func(chunk string) {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			sections = append(sections, chunk)
		}
	}
	start := 0
	i := 0
	for i < len(text) {
		switch text[i] {
		case '|':
			flush(text[start:i])
			sections = append(sections, "|")
			i++
			start = i
		case '{':
			end := closingBrace(text, i)
			if end < 0 {
				// Unmatched brace: leave it to word handling.
				i++
				continue
			}
			flush(text[start:i])
			for {
				j := end + 1
				for j < len(text) && text[j] == ' ' {
					j++
				}
				if j >= len(text) || text[j] != '{' {
					break
				}
				next := closingBrace(text, j)
				if next < 0 {
					break
				}
				end = next
			}
			sections = append(sections, text[i:end+1])
			i = end + 1
			start = i
		case '[':
			end := strings.IndexByte(text[i:], ']')
			if end < 0 {
				i++
				continue
			}
			flush(text[start:i])
			sections = append(sections, text[i:i+end+1])
			i += end + 1
			start = i
		case '~':
			flush(text[start:i])
			j := i + 1
			for j < len(text) && text[j] != '|' && text[j] != '{' {
				j++
			}
			flush(text[i:j])
			i = j
			start = i
		default:
			i++
		}
	}
	flush(text[start:])
	return sections
}

func closingBrace(text string, open int) int {
	end := strings.IndexByte(text[open:], '}')
	if end < 0 {
		return -1
	}
	return open + end
}
