package latin

import "strings"

// Consonant groups are sequences of consonants treated as a single consonant
// when placing syllable boundaries: they open the following syllable whole.
var consonantGroups = map[string]bool{
	"ch": true,
	"ph": true,
	"th": true,
	"rh": true,
	"gn": true,
	"qu": true,
	"gu": true,
	"sc": true,
	"pl": true,
	"pr": true,
	"bl": true,
	"br": true,
	"tr": true,
	"dr": true,
	"cl": true,
	"cr": true,
	"fl": true,
	"fr": true,
	"gl": true,
	"gr": true,
	"st": true,
}

// Prefixes are split from the stem before vowel analysis. A prefix only
// splits when the letter after it is a vowel and the word is more than the
// prefix itself. No word matches two prefixes with a vowel after each, so
// iteration order does not matter.
var prefixes = []string{"ab", "ob", "ad", "per", "sub", "in", "con"}

// Vowel subsets consulted by the classification rules.
const (
	vowels      = "aeiouy"
	vowelsAEOU  = "aeou"
	vowelsAEIOU = "aeiou"
	vowelsAEO   = "aeo"
	vowelsEOU   = "eou"
)

func contains(set string, c byte) bool {
	return strings.IndexByte(set, c) >= 0
}
