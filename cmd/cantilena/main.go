// Command cantilena is the CLI tool for chant text and melody alignment.
// It provides commands for syllabifying Latin, aligning text against
// volpiano melodies, and managing a chant corpus.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/chantworks/cantilena/core/align"
	"github.com/chantworks/cantilena/core/chanttext"
	"github.com/chantworks/cantilena/core/errors"
	"github.com/chantworks/cantilena/core/latin"
	"github.com/chantworks/cantilena/core/volpiano"
	"github.com/chantworks/cantilena/internal/corpus"
	"github.com/chantworks/cantilena/internal/logging"
	"github.com/chantworks/cantilena/internal/preview"
	"github.com/chantworks/cantilena/internal/sqlite"
)

// version is injected at build time via -ldflags "-X main.version=...".
var version = "dev"

// CLI defines the command-line interface structure.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error"`
	LogFormat string `name:"log-format" help:"Log output format (text, json)" default:"text" enum:"text,json"`

	// Command groups (noun-first organization)
	Syllabify SyllabifyGroup `cmd:"" help:"Latin syllabification (word, text)"`
	Align     AlignCmd       `cmd:"" help:"Align chant text against a volpiano melody"`
	Volpiano  VolpianoGroup  `cmd:"" help:"Volpiano encoding diagnostics"`
	Corpus    CorpusGroup    `cmd:"" help:"Chant corpus management (init, import, list, align)"`
	Preview   PreviewCmd     `cmd:"" help:"Start live alignment preview server"`
	Version   VersionCmd     `cmd:"" help:"Print version information"`
}

// SyllabifyGroup contains syllabification operations.
type SyllabifyGroup struct {
	Word SyllabifyWordCmd `cmd:"" help:"Syllabify a single Latin word"`
	Text SyllabifyTextCmd `cmd:"" help:"Syllabify a full chant text"`
}

// VolpianoGroup contains volpiano inspection operations.
type VolpianoGroup struct {
	Check VolpianoCheckCmd `cmd:"" help:"Tokenize a volpiano string and report diagnostics"`
}

// CorpusGroup contains corpus database operations.
type CorpusGroup struct {
	Init   CorpusInitCmd   `cmd:"" help:"Create an empty corpus database"`
	Import CorpusImportCmd `cmd:"" help:"Import a chant XML export into the corpus"`
	List   CorpusListCmd   `cmd:"" help:"List stored chants"`
	Align  CorpusAlignCmd  `cmd:"" help:"Align every stored chant and record the results"`
}

// SyllabifyWordCmd syllabifies one Latin word.
type SyllabifyWordCmd struct {
	Word   string `arg:"" required:"" help:"Latin word to syllabify"`
	String bool   `help:"Print the hyphenated form instead of boundary positions"`
	JSON   bool   `help:"Output as JSON"`
}

func (c *SyllabifyWordCmd) Run() error {
	bounds, err := latin.Syllabify(c.Word)
	if err != nil {
		return err
	}
	syllables := latin.Split(c.Word, bounds)

	if c.JSON {
		return printJSON(map[string]any{
			"word":       c.Word,
			"boundaries": bounds,
			"syllables":  syllables,
		})
	}
	if c.String {
		fmt.Println(strings.Join(syllables, "-"))
		return nil
	}
	positions := make([]string, len(bounds))
	for i, b := range bounds {
		positions[i] = strconv.Itoa(b)
	}
	fmt.Println(strings.Join(positions, " "))
	return nil
}

// SyllabifyTextCmd syllabifies a full chant text, honoring its
// sectioning and non-syllabification markers.
type SyllabifyTextCmd struct {
	Text           string `arg:"" required:"" help:"Chant text to syllabify"`
	Presyllabified bool   `help:"Split at hyphens already present instead of applying Latin rules"`
	Clean          bool   `help:"Strip invalid characters instead of rejecting the text"`
	Exceptions     string `help:"YAML file of word exceptions replacing the built-in table" type:"existingfile"`
	JSON           bool   `help:"Output the full section structure as JSON"`
	Flatten        bool   `help:"Print one syllable per line"`
}

func (c *SyllabifyTextCmd) Run() error {
	opts := chanttext.Options{
		Clean:          c.Clean,
		Presyllabified: c.Presyllabified,
	}
	if c.Exceptions != "" {
		exc, err := chanttext.LoadExceptionsFile(c.Exceptions)
		if err != nil {
			return err
		}
		opts.Exceptions = exc
	}

	sections, err := chanttext.Syllabify(c.Text, opts)
	if err != nil {
		return err
	}

	if c.JSON {
		return printJSON(sections)
	}
	if c.Flatten {
		for _, syl := range chanttext.Flatten(sections) {
			fmt.Println(syl)
		}
		return nil
	}
	fmt.Println(chanttext.Stringify(sections))
	return nil
}

// AlignCmd aligns chant text against a volpiano melody.
type AlignCmd struct {
	Text           string `required:"" help:"Chant text, or @FILE to read it from a file"`
	Volpiano       string `required:"" help:"Volpiano melody, or @FILE to read it from a file"`
	Presyllabified bool   `help:"Split at hyphens already present in the text"`
	Exceptions     string `help:"YAML file of word exceptions replacing the built-in table" type:"existingfile"`
	Format         string `help:"Output format (table, tsv, json)" default:"table" enum:"table,tsv,json"`
	Strict         bool   `help:"Exit non-zero when the alignment needs review"`
}

func (c *AlignCmd) Run() error {
	text, err := readValue(c.Text)
	if err != nil {
		return err
	}
	melody, err := readValue(c.Volpiano)
	if err != nil {
		return err
	}

	opts := align.Options{Presyllabified: c.Presyllabified}
	if c.Exceptions != "" {
		exc, err := chanttext.LoadExceptionsFile(c.Exceptions)
		if err != nil {
			return err
		}
		opts.Exceptions = exc
	}

	result, err := align.Align(text, melody, opts)
	if err != nil {
		return err
	}

	switch c.Format {
	case "json":
		if err := printJSON(result); err != nil {
			return err
		}
	case "tsv":
		for _, p := range result.Pairs {
			fmt.Printf("%s\t%s\n", p.Text, p.Volpiano)
		}
	default:
		printAlignmentTable(result.Pairs)
	}

	if result.NeedsReview {
		fmt.Fprintln(os.Stderr, "alignment needs review: melody was padded or cleaned")
		if c.Strict {
			return fmt.Errorf("alignment needs review")
		}
	}
	return nil
}

// printAlignmentTable prints aligned pairs as two rows, melody above
// text, with columns padded to a shared width.
func printAlignmentTable(pairs []align.Pair) {
	var melody, text strings.Builder
	for i, p := range pairs {
		if i > 0 {
			melody.WriteString("  ")
			text.WriteString("  ")
		}
		width := len(p.Text)
		if len(p.Volpiano) > width {
			width = len(p.Volpiano)
		}
		fmt.Fprintf(&melody, "%-*s", width, p.Volpiano)
		fmt.Fprintf(&text, "%-*s", width, p.Text)
	}
	fmt.Println(strings.TrimRight(melody.String(), " "))
	fmt.Println(strings.TrimRight(text.String(), " "))
}

// VolpianoCheckCmd reports token counts and spacing diagnostics for a
// volpiano string.
type VolpianoCheckCmd struct {
	Volpiano string `arg:"" required:"" help:"Volpiano string to check"`
	JSON     bool   `help:"Output as JSON"`
}

func (c *VolpianoCheckCmd) Run() error {
	summary, err := volpiano.Summarize(c.Volpiano)
	if err != nil {
		return err
	}
	prepared, irregular := volpiano.Prepare(c.Volpiano)
	respaced := volpiano.EnsureWordSpacing(prepared)

	if c.JSON {
		return printJSON(map[string]any{
			"summary":          summary,
			"prepared":         prepared,
			"header_irregular": irregular,
			"spacing_repaired": respaced != prepared,
		})
	}

	fmt.Printf("Volpiano: %s\n", c.Volpiano)
	fmt.Printf("  Notes: %d (%d liquescent)\n", summary.Notes, summary.Liquescents)
	fmt.Printf("  Barlines: %d\n", summary.Barlines)
	fmt.Printf("  Missing music: %d\n", summary.Gaps)
	fmt.Printf("  Breaks: %d\n", summary.Breaks)
	if irregular {
		fmt.Println("  Header: irregular (alignment will flag this chant for review)")
	} else {
		fmt.Println("  Header: ok")
	}
	if respaced != prepared {
		fmt.Println("  Spacing: word boundaries need padding to ---")
	} else {
		fmt.Println("  Spacing: ok")
	}
	return nil
}

// CorpusInitCmd creates an empty corpus database.
type CorpusInitCmd struct {
	DB string `help:"Path to the corpus database" default:"cantilena.db" type:"path"`
}

func (c *CorpusInitCmd) Run() error {
	store, err := corpus.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Printf("Initialized corpus database: %s\n", c.DB)
	fmt.Printf("  SQLite driver: %s\n", sqlite.DriverType())
	return nil
}

// CorpusImportCmd imports a chant XML export into the corpus.
type CorpusImportCmd struct {
	Path string `arg:"" required:"" help:"Chant XML export (.xml, .xml.gz or .xml.xz)" type:"existingfile"`
	DB   string `help:"Path to the corpus database" default:"cantilena.db" type:"path"`
}

func (c *CorpusImportCmd) Run() error {
	store, err := corpus.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Import(context.Background(), c.Path)
	if err != nil {
		return err
	}

	fmt.Printf("Imported: %s\n", c.Path)
	fmt.Printf("  New chants: %d\n", stats.Imported)
	fmt.Printf("  Skipped duplicates: %d\n", stats.Skipped)
	return nil
}

// CorpusListCmd lists the chants stored in the corpus.
type CorpusListCmd struct {
	DB   string `help:"Path to the corpus database" default:"cantilena.db" type:"existingfile"`
	JSON bool   `help:"Output as JSON"`
}

func (c *CorpusListCmd) Run() error {
	store, err := corpus.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	chants, err := store.Chants(context.Background())
	if err != nil {
		return err
	}

	if c.JSON {
		return printJSON(chants)
	}
	if len(chants) == 0 {
		fmt.Println("No chants stored")
		return nil
	}
	fmt.Printf("Chants: %d\n", len(chants))
	for _, ch := range chants {
		cantusID := ch.CantusID
		if cantusID == "" {
			cantusID = "-"
		}
		fmt.Printf("  %d\t%s\t%s\n", ch.ID, cantusID, chantLabel(ch))
	}
	return nil
}

// chantLabel returns a short human-readable label for a chant.
func chantLabel(ch corpus.Chant) string {
	if ch.Incipit != "" {
		return ch.Incipit
	}
	words := strings.Fields(ch.FullText)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}

// CorpusAlignCmd aligns every stored chant and records the run.
type CorpusAlignCmd struct {
	DB             string `help:"Path to the corpus database" default:"cantilena.db" type:"existingfile"`
	Presyllabified bool   `help:"Split at hyphens already present in chant texts"`
	Exceptions     string `help:"YAML file of word exceptions replacing the built-in table" type:"existingfile"`
	JSON           bool   `help:"Output the run summary as JSON"`
}

func (c *CorpusAlignCmd) Run() error {
	store, err := corpus.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := align.Options{Presyllabified: c.Presyllabified}
	if c.Exceptions != "" {
		exc, err := chanttext.LoadExceptionsFile(c.Exceptions)
		if err != nil {
			return err
		}
		opts.Exceptions = exc
	}

	summary, err := store.AlignAll(context.Background(), opts)
	if err != nil {
		return err
	}

	if c.JSON {
		return printJSON(summary)
	}
	fmt.Printf("Run: %s\n", summary.RunID)
	fmt.Printf("  Chants: %d\n", summary.Total)
	fmt.Printf("  Needs review: %d\n", summary.Reviewed)
	fmt.Printf("  Errors: %d\n", summary.Errors)
	fmt.Printf("  Duration: %dms\n", summary.DurationMS)
	if len(summary.Flagged) > 0 {
		fmt.Println("Flagged:")
		for _, fl := range summary.Flagged {
			status := "needs review"
			if fl.Error != "" {
				status = fl.Error
			}
			fmt.Printf("  %d\t%s\t%s\n", fl.ChantID, flaggedLabel(fl), status)
		}
	}
	return nil
}

// flaggedLabel returns a short identifier for a flagged chant.
func flaggedLabel(fl corpus.FlaggedChant) string {
	if fl.Incipit != "" {
		return fl.Incipit
	}
	if fl.CantusID != "" {
		return fl.CantusID
	}
	return "-"
}

// PreviewCmd starts the live alignment preview server.
type PreviewCmd struct {
	Text           string `required:"" help:"Chant text file" type:"existingfile"`
	Volpiano       string `required:"" help:"Volpiano melody file" type:"existingfile"`
	Addr           string `help:"Listen address" default:"localhost:8421"`
	Watch          bool   `help:"Push updates to the browser when the input files change"`
	Presyllabified bool   `help:"Split at hyphens already present in the text"`
	Exceptions     string `help:"YAML file of word exceptions replacing the built-in table" type:"existingfile"`
}

func (c *PreviewCmd) Run() error {
	opts := align.Options{Presyllabified: c.Presyllabified}
	if c.Exceptions != "" {
		exc, err := chanttext.LoadExceptionsFile(c.Exceptions)
		if err != nil {
			return err
		}
		opts.Exceptions = exc
	}

	cfg := preview.Config{
		Addr:         c.Addr,
		TextPath:     c.Text,
		VolpianoPath: c.Volpiano,
		Watch:        c.Watch,
		Options:      opts,
	}

	fmt.Printf("Starting preview server on http://%s\n", c.Addr)
	return preview.Start(cfg)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("cantilena version %s\n", version)
	fmt.Printf("  SQLite driver: %s\n", sqlite.DriverType())
	return nil
}

// readValue returns the flag value as-is, or the trimmed contents of
// the file it names when the value starts with '@'.
func readValue(v string) (string, error) {
	if !strings.HasPrefix(v, "@") {
		return v, nil
	}
	path := strings.TrimPrefix(v, "@")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIO("read", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("cantilena"),
		kong.Description("Chant text and melody alignment toolkit"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
