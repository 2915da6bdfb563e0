// Package volpiano splits volpiano melody strings into sections, words
// and syllables, and adjusts their spacing for rendering. Volpiano is
// the ASCII melody encoding used by Cantus Database: notes are letters,
// "1" is the opening clef, "3" and "4" are barlines, a stretch of
// hyphens between two "6" characters marks missing music, "7" is a
// system break, and runs of two or three hyphens separate syllables
// and words.
package volpiano

import (
	"regexp"
	"strings"

	"github.com/chantworks/cantilena/core/errors"
)

// invalidCharRE matches anything outside the volpiano alphabet. The
// clef "1" is deliberately absent: it is only valid at the start of a
// string and is handled by Prepare.
var invalidCharRE = regexp.MustCompile(`[^\-9abcdefghijklmnopqrsyz)ABCDEFGHIJKLMNOPQRSYZ3467]`)

// startingMaterialRE matches everything up to and including the first
// clef and its trailing spacing.
var startingMaterialRE = regexp.MustCompile(`^.*?1-*`)

// sectionRE matches the volpiano sectioning markers: barlines and
// missing-music stretches, each with any attached break markers and
// spacing.
var sectionRE = regexp.MustCompile(`[34][-7]*|6[-7]*6[-7]*`)

// wordRE and syllableRE split on runs of three and two hyphens, with
// the separators kept on the preceding word or syllable.
var (
	wordRE     = regexp.MustCompile(`.*?-{3,}|.+$`)
	syllableRE = regexp.MustCompile(`.*?-{2,}|.+$`)
)

// Section is a stretch of melody between volpiano sectioning markers,
// split into words and syllables. Marker sections (barlines and
// missing music) hold the marker string as their only word.
type Section struct {
	Words [][]string `json:"words"`
}

func (s Section) first() byte {
	if len(s.Words) == 0 || len(s.Words[0]) == 0 || s.Words[0][0] == "" {
		return 0
	}
	return s.Words[0][0][0]
}

// IsBarline reports whether the section is a barline marker.
func (s Section) IsBarline() bool {
	b := s.first()
	return b == '3' || b == '4'
}

// IsMissingMusic reports whether the section is a missing-music marker.
func (s Section) IsMissingMusic() bool {
	return s.first() == '6'
}

// Flatten joins every syllable of the section back together.
func (s Section) Flatten() string {
	var b strings.Builder
	for _, word := range s.Words {
		for _, syl := range word {
			b.WriteString(syl)
		}
	}
	return b.String()
}

// Prepare strips the opening clef, any material preceding it and any
// invalid characters from a raw volpiano string. The returned flag
// reports whether the clef was misencoded or characters were removed.
func Prepare(raw string) (string, bool) {
	flag := !strings.HasPrefix(raw, "1---") || strings.HasPrefix(raw, "1----")
	stripped := startingMaterialRE.ReplaceAllString(raw, "")
	cleaned := invalidCharRE.ReplaceAllString(stripped, "")
	if len(cleaned) != len(stripped) {
		flag = true
	}
	return cleaned, flag
}

// Syllabify splits a prepared volpiano string into sections, words and
// syllables. The returned flag reports spacing problems: missing-music
// sections not encoded "6------6---", interior barlines not encoded
// "3---" or "4---", or words whose final syllable does not end with
// exactly three hyphens. Break markers entered immediately after a
// barline or the closing "6" are tolerated.
func Syllabify(volpiano string) ([]Section, bool) {
	raw := splitSectionStrings(volpiano)
	sections := make([]Section, 0, len(raw))
	badSpacing := false
	for i, sec := range raw {
		switch sec[0] {
		case '6':
			if !missingMusicSpaced(sec) {
				badSpacing = true
			}
			sections = append(sections, Section{Words: [][]string{{sec}}})
			continue
		case '3', '4':
			// The final barline legitimately has no trailing spacing.
			if i != len(raw)-1 && !barlineSpaced(sec) {
				badSpacing = true
			}
			sections = append(sections, Section{Words: [][]string{{sec}}})
			continue
		}
		words := wordRE.FindAllString(sec, -1)
		secWords := make([][]string, 0, len(words))
		for _, word := range words {
			syls := syllableRE.FindAllString(word, -1)
			if len(syls) == 0 || !wordFinalSpaced(syls[len(syls)-1]) {
				badSpacing = true
			}
			secWords = append(secWords, syls)
		}
		sections = append(sections, Section{Words: secWords})
	}
	return sections, badSpacing
}

// splitSectionStrings splits on the sectioning markers, keeping the
// markers themselves as their own elements.
func splitSectionStrings(volpiano string) []string {
	var parts []string
	last := 0
	for _, m := range sectionRE.FindAllStringIndex(volpiano, -1) {
		if m[0] > last {
			parts = append(parts, volpiano[last:m[0]])
		}
		parts = append(parts, volpiano[m[0]:m[1]])
		last = m[1]
	}
	if last < len(volpiano) {
		parts = append(parts, volpiano[last:])
	}
	return parts
}

func missingMusicSpaced(sec string) bool {
	if !strings.HasSuffix(sec, "---") {
		return false
	}
	if len(sec) < 8 || sec[1:8] != "------6" {
		return false
	}
	return len(strings.ReplaceAll(sec, "7", "")) == 11
}

func barlineSpaced(sec string) bool {
	return strings.HasSuffix(sec, "---") && len(strings.ReplaceAll(sec, "7", "")) == 4
}

func wordFinalSpaced(syl string) bool {
	return strings.HasSuffix(syl, "---") && len(syl) >= 4 && syl[len(syl)-4] != '-'
}

// EnsureWordSpacing makes a volpiano word end with the three-hyphen
// word separator. Words already ending in a separator pass through
// unchanged.
func EnsureWordSpacing(volpiano string) string {
	if strings.HasSuffix(volpiano, "---") {
		return volpiano
	}
	return strings.TrimRight(volpiano, "-") + "---"
}

// AdjustSyllableSpacing pads a volpiano syllable with hyphens until it
// is at least textLen characters long, so the rendered staff has no
// gaps under the text. Word-final syllables also get the word
// separator enforced.
func AdjustSyllableSpacing(syllable string, textLen int, endOfWord bool) string {
	if n := textLen - len(syllable); n > 0 {
		syllable += strings.Repeat("-", n)
	}
	if endOfWord {
		syllable = EnsureWordSpacing(syllable)
	}
	return syllable
}

// ResizeMissingMusic rewrites a missing-music section so the blank
// staff spans the accompanying text: text up to ten characters keeps
// the conventional "6------6" stretch, longer text gets one filler
// column per character. Break markers after the closing "6" carry
// over.
func ResizeMissingMusic(volpiano string, textLen int) (string, error) {
	if volpiano == "" || volpiano[0] != '6' {
		return "", errors.NewValidation("volpiano", "not a missing-music section")
	}
	term := volpiano[strings.LastIndexByte(volpiano, '6')+1:]
	spaced := "6------6"
	if textLen > 10 {
		spaced = "6" + strings.Repeat("-", textLen) + "6"
	}
	return EnsureWordSpacing(spaced + term), nil
}
