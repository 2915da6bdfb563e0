package chanttext

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chantworks/cantilena/core/errors"
)

// Exceptions maps lowercase words to hand-checked syllable splits that
// override the rule-based syllabifier. Lookup matches the word as it
// appears in the text, so capitalized forms fall through to the rules.
type Exceptions map[string][]string

// builtinExceptions covers words the rule engine gets wrong, mostly
// Hebrew names and the "euouae" differentia.
var builtinExceptions = Exceptions{
	"euouae":     {"e-", "u-", "o-", "u-", "a-", "e"},
	"israel":     {"is-", "ra-", "el"},
	"israelitis": {"is-", "ra-", "e-", "li-", "tis"},
	"michael":    {"mi-", "cha-", "el"},
}

// DefaultExceptions returns a copy of the built-in table that callers
// can extend.
func DefaultExceptions() Exceptions {
	exc := make(Exceptions, len(builtinExceptions))
	for word, syls := range builtinExceptions {
		exc[word] = append([]string(nil), syls...)
	}
	return exc
}

// Lookup returns the syllable split for word, if the table has one.
func (e Exceptions) Lookup(word string) ([]string, bool) {
	syls, ok := e[word]
	return syls, ok
}

// Set adds or replaces an entry. The word is normalized to lower case
// and the hyphenated form ("is-ra-el") is split into syllables.
func (e Exceptions) Set(word, hyphenated string) {
	e[strings.ToLower(word)] = hyphenate(strings.Split(hyphenated, "-"))
}

// LoadExceptionsFile reads a YAML mapping of words to hyphenated
// syllable splits and overlays it on the built-in table:
//
//	euouae: e-u-o-u-a-e
//	hierusalem: hie-ru-sa-lem
func LoadExceptionsFile(path string) (Exceptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	var entries map[string]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, &errors.ParseError{
			Format:  "yaml",
			Path:    path,
			Message: "malformed exceptions file",
			Err:     err,
		}
	}
	exc := DefaultExceptions()
	for word, hyphenated := range entries {
		exc.Set(word, hyphenated)
	}
	return exc, nil
}
