// Package latin syllabifies Latin words using the phonological conventions
// of chant texts as entered in Cantus Database. The rules assume no specific
// spelling standard; they are tuned for the mix of standard and non-standard
// spellings found in chant transcriptions.
package latin

import (
	"fmt"
	"strings"

	"github.com/chantworks/cantilena/core/errors"
)

// Syllabify returns the syllable boundary offsets of word. Each offset marks
// the letter that begins a new syllable: "podatus" yields [2 4] (po-da-tus).
// One-syllable words yield no offsets. Case is ignored. Fails if word
// contains anything outside the ASCII alphabet.
func Syllabify(word string) ([]int, error) {
	if err := checkLatin(word); err != nil {
		return nil, err
	}
	return syllabify(strings.ToLower(word)), nil
}

// SyllabifyString returns word with a hyphen inserted at every syllable
// boundary, preserving the original casing.
func SyllabifyString(word string) (string, error) {
	bounds, err := Syllabify(word)
	if err != nil {
		return "", err
	}
	return strings.Join(Split(word, bounds), ""), nil
}

// Split cuts word at the given boundary offsets, as produced by Syllabify.
// Every syllable except the last carries a trailing hyphen.
func Split(word string, bounds []int) []string {
	if len(bounds) == 0 {
		return []string{word}
	}
	syls := make([]string, 0, len(bounds)+1)
	prev := 0
	for _, b := range bounds {
		syls = append(syls, word[prev:b]+"-")
		prev = b
	}
	return append(syls, word[prev:])
}

func checkLatin(word string) error {
	for i := 0; i < len(word); i++ {
		c := word[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return &errors.ValidationError{
				Field:   "word",
				Value:   word,
				Message: fmt.Sprintf("%q contains non-alphabetic characters", word),
			}
		}
	}
	return nil
}

// syllabify finds boundary offsets in a lowercase word. Each syllable has
// exactly one vowel or diphthong, so vowel positions anchor the search; the
// default boundary after each non-final vowel group is then shifted by the
// consonant run that follows it.
func syllabify(word string) []int {
	if len(word) <= 1 {
		return nil
	}
	var bounds []int
	stem := word
	prefix := wordPrefix(word)
	if prefix != "" {
		bounds = append(bounds, len(prefix))
		stem = word[len(prefix):]
	}
	vows := vowelPositions(stem)
	if len(vows) == 1 {
		return bounds
	}
	for k := 0; k+1 < len(vows); k++ {
		v1, v2 := vows[k], vows[k+1]
		if v2-1 == v1 {
			if pair := stem[v1 : v2+1]; pair == "ae" || pair == "oe" || pair == "au" {
				// Diphthong: one nucleus, no boundary between the vowels.
				continue
			}
		}
		bound := v1 + 1 + boundaryShift(stem[v1+1:v2])
		bounds = append(bounds, len(prefix)+bound)
	}
	return bounds
}

// wordPrefix returns the prefix to split off, or "" when none applies.
func wordPrefix(word string) string {
	for _, p := range prefixes {
		if len(word) > len(p) && strings.HasPrefix(word, p) && contains(vowels, word[len(p)]) {
			return p
		}
	}
	return ""
}

// vowelPositions returns the offsets of syllabic vowels in stem. Long "i"
// written "j" counts as "i"; semivowels are rewritten first so the scan
// skips them.
func vowelPositions(stem string) []int {
	repl := replaceSemivowels(strings.ReplaceAll(stem, "j", "i"))
	var pos []int
	for i := 0; i < len(repl); i++ {
		if contains(vowels, repl[i]) {
			pos = append(pos, i)
		}
	}
	return pos
}

// replaceSemivowels rewrites "i"/"y" serving as semivowels to "j", semivowel
// "u" to "w", and consonantal "u" to "v". Replacements are visible to the
// rules for later letters; the final letter is never reclassified.
func replaceSemivowels(word string) string {
	if len(word) <= 1 {
		return word
	}
	buf := make([]byte, 0, len(word))
	switch first := word[0]; {
	case first == 'y' && contains(vowelsAEIOU, word[1]):
		buf = append(buf, 'j')
	case first == 'i' && contains(vowelsAEOU, word[1]):
		buf = append(buf, 'j')
	case first == 'i' && word[1] == 'h':
		if len(word) == 2 {
			// Word-initial "i" before a bare final "h" is unclassifiable.
			return word
		}
		if contains(vowelsAEO, word[2]) {
			buf = append(buf, 'j')
		} else {
			buf = append(buf, first)
		}
	case first == 'u' && contains(vowels, word[1]):
		buf = append(buf, 'v')
	default:
		buf = append(buf, first)
	}
	for i := 1; i < len(word); i++ {
		c := word[i]
		if !contains("iuy", c) || i == len(word)-1 {
			buf = append(buf, c)
			continue
		}
		prev := buf[i-1]
		next := word[i+1]
		if c == 'u' {
			switch {
			case (prev == 'q' || prev == 'g') && contains(vowels, next):
				buf = append(buf, 'w')
			case contains(vowels, prev) && contains(vowels, next):
				buf = append(buf, 'v')
			default:
				buf = append(buf, 'u')
			}
			continue
		}
		// c is "i" or "y".
		prevPair := string(buf[:i])
		if i >= 2 {
			prevPair = string(buf[i-2 : i])
		}
		if (contains(vowelsAEOU, prev) && contains(vowelsAEOU, next)) ||
			(prev == 'h' && !consonantGroups[prevPair] && contains(vowelsEOU, next)) {
			buf = append(buf, 'j')
		} else {
			buf = append(buf, 'i')
		}
	}
	return string(buf)
}

// boundaryShift returns how many letters of the consonant run between two
// vowel groups attach to the first group. Zero keeps the default boundary
// directly after the first group.
func boundaryShift(run string) int {
	n := len(run)
	if n == 0 {
		// Hiatus: adjacent vowel groups split directly.
		return 0
	}
	if run[0] == 'x' {
		// "x" is a double consonant "ks" and closes the first syllable.
		return 1
	}
	if n == 1 {
		return 0
	}
	shift := 0
	if run[0] == 'm' || run[0] == 'n' {
		// A leading nasal closes the first syllable; the rest of the run is
		// evaluated on its own.
		shift = 1
		run = run[1:]
		n--
		if n == 1 {
			return shift
		}
	}
	if n == 2 {
		if !consonantGroups[run] {
			shift++
		}
		return shift
	}
	switch {
	case run == "str":
		// "str" opens the second syllable whole.
	case consonantGroups[run[1:]]:
		shift++
	case consonantGroups[run[:2]]:
	default:
		shift++
	}
	return shift
}
