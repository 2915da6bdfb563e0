// Package align pairs the syllabified text of a chant with its
// volpiano melody. Alignment is recovery oriented: count mismatches
// between text and melody at the section, word or syllable level are
// padded locally so the rest of the chant stays aligned, and a single
// call-scoped flag reports that the encoding deserves review.
package align

import (
	"github.com/chantworks/cantilena/core/chanttext"
	"github.com/chantworks/cantilena/core/errors"
	"github.com/chantworks/cantilena/core/volpiano"
)

// Pair is one aligned column: a text syllable or verbatim unit and the
// volpiano rendered beneath it.
type Pair struct {
	Text     string `json:"text"`
	Volpiano string `json:"volpiano"`
}

// Result is a full chant alignment.
type Result struct {
	Pairs []Pair `json:"pairs"`
	// NeedsReview reports that recovery padding, character cleaning or
	// spacing repair was applied somewhere in the chant.
	NeedsReview bool `json:"needs_review"`
}

// Options control how the chant text is interpreted.
type Options struct {
	// Presyllabified treats hyphens in the text as given syllable
	// boundaries instead of running the Latin rules.
	Presyllabified bool
	// Exceptions replaces the built-in syllabification exceptions when
	// non-nil.
	Exceptions chanttext.Exceptions
}

// Align syllabifies chant text and aligns it against a raw volpiano
// string. Text with invalid characters is retried in cleaning mode and
// flagged; text that still fails to syllabify returns an error.
func Align(chantText, rawVolpiano string, opts Options) (Result, error) {
	textOpts := chanttext.Options{
		Presyllabified: opts.Presyllabified,
		Exceptions:     opts.Exceptions,
	}
	needsReview := false
	sections, err := chanttext.Syllabify(chantText, textOpts)
	if err != nil {
		if !errors.Is(err, errors.ErrInvalidInput) {
			return Result{}, err
		}
		textOpts.Clean = true
		sections, err = chanttext.Syllabify(chantText, textOpts)
		if err != nil {
			return Result{}, err
		}
		needsReview = true
	}
	res := AlignSections(sections, rawVolpiano)
	res.NeedsReview = res.NeedsReview || needsReview
	return res, nil
}

// AlignSections aligns already-syllabified text sections against a raw
// volpiano string.
func AlignSections(textSections []chanttext.Section, rawVolpiano string) Result {
	var res Result
	prepared, charsRemoved := volpiano.Prepare(rawVolpiano)
	if charsRemoved {
		res.NeedsReview = true
	}
	// With no melody at all the text is aligned over blank staff.
	if prepared == "" {
		prepared = "-"
	}
	finalBar := prepared[len(prepared)-1:]
	if finalBar == "3" || finalBar == "4" {
		prepared = prepared[:len(prepared)-1]
	} else {
		finalBar = "3"
		res.NeedsReview = true
	}
	melodySections, badSpacing := volpiano.Syllabify(prepared)
	if badSpacing {
		res.NeedsReview = true
	}
	if len(textSections) != len(melodySections) {
		textSections, melodySections = padSections(textSections, melodySections)
		res.NeedsReview = true
	}
	pairs := []Pair{{Text: "", Volpiano: "1---"}}
	for i := range textSections {
		sectionPairs, misaligned := alignSection(textSections[i], melodySections[i])
		pairs = append(pairs, sectionPairs...)
		if misaligned {
			res.NeedsReview = true
		}
	}
	res.Pairs = append(pairs, Pair{Text: "", Volpiano: finalBar})
	return res
}

// padSections evens out the section counts by pairing every extra
// section of the longer side with an empty counterpart, mirroring
// barlines so they still render.
func padSections(text []chanttext.Section, melody []volpiano.Section) ([]chanttext.Section, []volpiano.Section) {
	for len(melody) < len(text) {
		if text[len(melody)].IsBarline() {
			melody = append(melody, volpiano.Section{Words: [][]string{{"3---"}}})
		} else {
			melody = append(melody, volpiano.Section{Words: [][]string{{""}}})
		}
	}
	for len(text) < len(melody) {
		var sec chanttext.Section
		if melody[len(text)].IsBarline() {
			sec = chanttext.Section{Units: []chanttext.Unit{
				{Kind: chanttext.UnitVerbatim, Syllables: []string{"|"}},
			}}
		} else {
			sec = chanttext.Section{
				Units:       []chanttext.Unit{{Kind: chanttext.UnitWord, Syllables: []string{""}}},
				Syllabified: true,
			}
		}
		text = append(text, sec)
	}
	return text, melody
}

// alignSection aligns one paired text and melody section. Verbatim
// text is aligned against the whole flattened melody section, with
// missing music resized to span the text. Word sections align word by
// word and syllable by syllable.
func alignSection(text chanttext.Section, melody volpiano.Section) ([]Pair, bool) {
	if !text.Syllabified {
		verbatim := text.Units[0].Text()
		flat := melody.Flatten()
		if melody.IsMissingMusic() {
			if resized, err := volpiano.ResizeMissingMusic(flat, len(verbatim)); err == nil {
				return []Pair{{Text: verbatim, Volpiano: resized}}, false
			}
		}
		adjusted := volpiano.AdjustSyllableSpacing(flat, len(verbatim), true)
		return []Pair{{Text: verbatim, Volpiano: adjusted}}, false
	}
	textWords := make([][]string, len(text.Units))
	for i, u := range text.Units {
		textWords[i] = u.Syllables
	}
	words, padded := zipPad(textWords, melody.Words, []string{""}, []string{"---"})
	misaligned := padded
	var pairs []Pair
	for _, w := range words {
		wordPairs, wordPadded := alignWord(w.text, w.melody)
		pairs = append(pairs, wordPairs...)
		// Padding against a missing-text marker is the one expected
		// mismatch; anything else is a misencoding.
		if wordPadded && !(len(w.text) == 1 && w.text[0] == "#") {
			misaligned = true
		}
	}
	return pairs, misaligned
}

// alignWord zips a word's text syllables against its melody syllables,
// padding the shorter side, and fixes up melody spacing under each
// syllable.
func alignWord(textSyls, melodySyls []string) ([]Pair, bool) {
	zipped, padded := zipPad(textSyls, melodySyls, "", "---")
	pairs := make([]Pair, len(zipped))
	for i, z := range zipped {
		endOfWord := i == len(zipped)-1
		pairs[i] = Pair{
			Text:     z.text,
			Volpiano: volpiano.AdjustSyllableSpacing(z.melody, len(z.text), endOfWord),
		}
	}
	return pairs, padded
}

type zipped[T any] struct {
	text   T
	melody T
}

// zipPad pairs two slices positionally, filling the shorter side with
// its pad value. The flag reports whether any padding was needed.
func zipPad[T any](text, melody []T, padText, padMelody T) ([]zipped[T], bool) {
	n := len(text)
	if len(melody) > n {
		n = len(melody)
	}
	out := make([]zipped[T], n)
	for i := 0; i < n; i++ {
		z := zipped[T]{text: padText, melody: padMelody}
		if i < len(text) {
			z.text = text[i]
		}
		if i < len(melody) {
			z.melody = melody[i]
		}
		out[i] = z
	}
	return out, len(text) != len(melody)
}
