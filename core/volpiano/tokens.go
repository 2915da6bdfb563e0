package volpiano

import (
	"encoding/json"
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/chantworks/cantilena/core/errors"
)

// TokenKind classifies a volpiano character run.
type TokenKind uint8

const (
	TokenClef TokenKind = iota
	TokenNote
	TokenLiquescent
	TokenBarline
	TokenGap
	TokenBreak
	TokenSpacer
)

func (k TokenKind) String() string {
	switch k {
	case TokenClef:
		return "clef"
	case TokenNote:
		return "note"
	case TokenLiquescent:
		return "liquescent"
	case TokenBarline:
		return "barline"
	case TokenGap:
		return "gap"
	case TokenBreak:
		return "break"
	case TokenSpacer:
		return "spacer"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

// MarshalJSON renders the kind as its string name.
func (k TokenKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Token is one lexed element of a volpiano string.
type Token struct {
	Kind  TokenKind `json:"kind"`
	Value string    `json:"value"`
}

// volpianoLexer tokenizes the volpiano alphabet. Lowercase letters are
// plain notes, uppercase their liquescent forms.
var volpianoLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Clef", Pattern: `1`},
	{Name: "Barline", Pattern: `[34]`},
	{Name: "Gap", Pattern: `6`},
	{Name: "Break", Pattern: `7`},
	{Name: "Liquescent", Pattern: `[A-SYZ]`},
	{Name: "Note", Pattern: `[9a-syz)]`},
	{Name: "Spacer", Pattern: `-+`},
})

//nolint:govet // participle grammar tags are not standard struct tags
type tokenGrammar struct {
	Tokens []tokenAlt `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type tokenAlt struct {
	Clef       *string `  @Clef`
	Barline    *string `| @Barline`
	Gap        *string `| @Gap`
	Break      *string `| @Break`
	Liquescent *string `| @Liquescent`
	Note       *string `| @Note`
	Spacer     *string `| @Spacer`
}

var volpianoParser = participle.MustBuild[tokenGrammar](
	participle.Lexer(volpianoLexer),
)

// Tokenize lexes a volpiano string into its elements. Characters
// outside the volpiano alphabet produce a parse error.
func Tokenize(volpiano string) ([]Token, error) {
	parsed, err := volpianoParser.ParseString("", volpiano)
	if err != nil {
		return nil, &errors.ParseError{
			Format:  "volpiano",
			Message: fmt.Sprintf("invalid volpiano string %q", volpiano),
			Err:     err,
		}
	}
	tokens := make([]Token, 0, len(parsed.Tokens))
	for _, alt := range parsed.Tokens {
		switch {
		case alt.Clef != nil:
			tokens = append(tokens, Token{Kind: TokenClef, Value: *alt.Clef})
		case alt.Barline != nil:
			tokens = append(tokens, Token{Kind: TokenBarline, Value: *alt.Barline})
		case alt.Gap != nil:
			tokens = append(tokens, Token{Kind: TokenGap, Value: *alt.Gap})
		case alt.Break != nil:
			tokens = append(tokens, Token{Kind: TokenBreak, Value: *alt.Break})
		case alt.Liquescent != nil:
			tokens = append(tokens, Token{Kind: TokenLiquescent, Value: *alt.Liquescent})
		case alt.Note != nil:
			tokens = append(tokens, Token{Kind: TokenNote, Value: *alt.Note})
		case alt.Spacer != nil:
			tokens = append(tokens, Token{Kind: TokenSpacer, Value: *alt.Spacer})
		}
	}
	return tokens, nil
}

// Summary counts the musical content of a volpiano string.
type Summary struct {
	Notes       int `json:"notes"`
	Liquescents int `json:"liquescents"`
	Barlines    int `json:"barlines"`
	Gaps        int `json:"gaps"`
	Breaks      int `json:"breaks"`
}

// Summarize tokenizes a volpiano string and tallies its notes, barlines,
// missing-music markers and breaks.
func Summarize(volpiano string) (Summary, error) {
	tokens, err := Tokenize(volpiano)
	if err != nil {
		return Summary{}, err
	}
	var sum Summary
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenNote:
			sum.Notes++
		case TokenLiquescent:
			sum.Liquescents++
		case TokenBarline:
			sum.Barlines++
		case TokenGap:
			sum.Gaps++
		case TokenBreak:
			sum.Breaks++
		}
	}
	return sum, nil
}
