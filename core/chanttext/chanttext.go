// Package chanttext syllabifies Cantus Database chant text. It splits a
// full text into sections at barlines and missing-music markers, breaks
// each section into words, and syllabifies every word that is plain
// Latin, leaving incipits, missing-text markers and missing-music groups
// verbatim for alignment.
package chanttext

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/chantworks/cantilena/core/errors"
	"github.com/chantworks/cantilena/core/latin"
)

// UnitKind distinguishes syllabified words from verbatim units.
type UnitKind uint8

const (
	// UnitWord is a Latin word split into syllables.
	UnitWord UnitKind = iota
	// UnitVerbatim is carried through alignment untouched: the
	// missing-text marker "#", missing-music groups "{...}", incipits
	// and barlines.
	UnitVerbatim
)

func (k UnitKind) String() string {
	switch k {
	case UnitWord:
		return "word"
	case UnitVerbatim:
		return "verbatim"
	default:
		return fmt.Sprintf("UnitKind(%d)", uint8(k))
	}
}

// MarshalJSON renders the kind as its string name.
func (k UnitKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Unit is one alignable stretch of text: a word split into syllables,
// each non-final syllable keeping its trailing hyphen, or a single
// verbatim string.
type Unit struct {
	Kind      UnitKind `json:"kind"`
	Syllables []string `json:"syllables"`
}

// Text joins the unit back into a single string.
func (u Unit) Text() string {
	return strings.Join(u.Syllables, "")
}

// Section is a stretch of chant text between sectioning markers.
type Section struct {
	Units []Unit `json:"units"`
	// Syllabified reports whether the section holds word units, as
	// opposed to a lone barline or verbatim material.
	Syllabified bool `json:"syllabified"`
}

// IsBarline reports whether the section is a lone "|" separator.
func (s Section) IsBarline() bool {
	return len(s.Units) == 1 && s.Units[0].Text() == "|"
}

// Flatten joins the section's units back into a single string with the
// syllable hyphens kept in place.
func (s Section) Flatten() string {
	words := make([]string, 0, len(s.Units))
	for _, u := range s.Units {
		words = append(words, u.Text())
	}
	return strings.Join(words, " ")
}

// Options control how Syllabify treats its input.
type Options struct {
	// Clean strips invalid characters instead of rejecting the text.
	Clean bool
	// Presyllabified splits words at the hyphens already present in
	// the text instead of applying the Latin syllabification rules.
	Presyllabified bool
	// Exceptions replaces the built-in exception table when non-nil.
	Exceptions Exceptions
}

// invalidCharRE matches anything outside the chant text alphabet:
// letters, the structural markers # ~ { } [ ] |, hyphens and spaces.
var invalidCharRE = regexp.MustCompile(`[^a-zA-Z#~{}\[\]|\- ]`)

// Syllabify splits chant text into sections and syllabifies each word.
// Barlines, missing-music groups, incipits and missing-text markers
// come through as verbatim units.
func Syllabify(text string, opts Options) ([]Section, error) {
	if opts.Clean {
		text = invalidCharRE.ReplaceAllString(text, "")
	} else if bad := invalidCharRE.FindString(text); bad != "" {
		return nil, &errors.ValidationError{
			Field:   "text",
			Value:   text,
			Message: fmt.Sprintf("invalid character %q in chant text", bad),
		}
	}
	exc := opts.Exceptions
	if exc == nil {
		exc = builtinExceptions
	}
	raw := SplitSections(text)
	sections := make([]Section, 0, len(raw))
	for _, sec := range raw {
		built, err := buildSection(sec, opts, exc)
		if err != nil {
			return nil, err
		}
		sections = append(sections, built)
	}
	return sections, nil
}

// Flatten returns the unit strings of sections in reading order.
func Flatten(sections []Section) []string {
	var units []string
	for _, s := range sections {
		for _, u := range s.Units {
			units = append(units, u.Text())
		}
	}
	return units
}

// Stringify joins sections back into a single display string with the
// syllable hyphens kept in place.
func Stringify(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, s.Flatten())
	}
	return strings.Join(parts, " ")
}

func buildSection(text string, opts Options, exc Exceptions) (Section, error) {
	if text == "|" || text[0] == '{' || text[0] == '~' || text[0] == '[' {
		unit := Unit{Kind: UnitVerbatim, Syllables: []string{text}}
		return Section{Units: []Unit{unit}}, nil
	}
	words := strings.Fields(text)
	units := make([]Unit, 0, len(words))
	for _, word := range words {
		unit, err := syllabifyWord(word, opts, exc)
		if err != nil {
			return Section{}, err
		}
		units = append(units, unit)
	}
	return Section{Units: units, Syllabified: true}, nil
}

func syllabifyWord(word string, opts Options, exc Exceptions) (Unit, error) {
	if word == "#" {
		return Unit{Kind: UnitVerbatim, Syllables: []string{word}}, nil
	}
	if syls, ok := exc.Lookup(word); ok {
		return Unit{Kind: UnitWord, Syllables: append([]string(nil), syls...)}, nil
	}
	// A single leading or trailing hyphen marks a partial word whose
	// other half is in a neighboring chant.
	core, hyphenStart := strings.CutPrefix(word, "-")
	core, hyphenEnd := strings.CutSuffix(core, "-")
	var syls []string
	if opts.Presyllabified {
		syls = hyphenate(strings.Split(core, "-"))
	} else {
		bounds, err := latin.Syllabify(core)
		if err != nil {
			return Unit{}, errors.Wrapf(err, "failed to syllabify word %q", word)
		}
		syls = latin.Split(core, bounds)
	}
	if hyphenStart {
		syls[0] = "-" + syls[0]
	}
	if hyphenEnd {
		syls[len(syls)-1] += "-"
	}
	return Unit{Kind: UnitWord, Syllables: syls}, nil
}

// hyphenate re-adds the joining hyphen to every non-final syllable.
func hyphenate(parts []string) []string {
	for i := 0; i < len(parts)-1; i++ {
		parts[i] += "-"
	}
	return parts
}
