package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/tsawler/quire/config"
	"github.com/tsawler/quire/convert"
)

// ErrUsage marks invalid command-line input.
var ErrUsage = errors.New("usage error")

// cliFlags holds every command-line option.
type cliFlags struct {
	output      string
	config      string
	workers     int
	verbose     bool
	quiet       bool
	stats       bool
	verify      bool
	version     bool
	help        bool
	preserveWS  bool
	noImages    bool
	noHeader    bool
	title       string
	author      string
	subject     string
	classifier  string
	navigation  string
	noHighlight bool
	codeStyle   string
	tags        []string

	// set records which flags appeared on the command line so they
	// override the config file only when given
	set map[string]bool
}

// newFlagSet builds the flag set bound to f.
func newFlagSet(f *cliFlags, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("quire", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.SortFlags = false

	fs.StringVarP(&f.output, "output", "o", "", "output file (one input) or directory (several inputs)")
	fs.StringVarP(&f.config, "config", "c", "", "YAML config file")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel conversions (0 = GOMAXPROCS)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "development logging to stderr")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVar(&f.stats, "stats", false, "print content statistics per file")
	fs.BoolVar(&f.verify, "verify", false, "re-open each written file and check its paragraphs")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.BoolVarP(&f.help, "help", "h", false, "show help")

	fs.BoolVar(&f.preserveWS, "preserve-whitespace", false, "keep source whitespace")
	fs.BoolVar(&f.noImages, "no-images", false, "skip images entirely")
	fs.BoolVar(&f.noHeader, "no-header-row", false, "do not treat first table rows as headers")
	fs.StringVar(&f.title, "title", "", "document title (default: source <title>)")
	fs.StringVar(&f.author, "author", "", "document author")
	fs.StringVar(&f.subject, "subject", "", "document subject")
	fs.StringVar(&f.classifier, "classifier", config.ClassifierAuto, "tag classifier: auto, html, heuristic")
	fs.StringVar(&f.navigation, "strip-navigation", "none", "navigation filtering: none, explicit, standard, aggressive")
	fs.BoolVar(&f.noHighlight, "no-highlight", false, "do not colour code blocks")
	fs.StringVar(&f.codeStyle, "code-style", convert.DefaultCodeStyle, "chroma style for code blocks")
	fs.StringArrayVar(&f.tags, "tag", nil, "custom tag role as tag=role (repeatable)")
	return fs
}

// parseFlags parses args (without the program name) and returns the flags
// and positional inputs.
func parseFlags(args []string, out io.Writer) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := newFlagSet(f, out)
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if f.workers < 0 {
		return nil, nil, fmt.Errorf("%w: --workers must not be negative", ErrUsage)
	}
	if f.verbose && f.quiet {
		return nil, nil, fmt.Errorf("%w: --verbose and --quiet are mutually exclusive", ErrUsage)
	}
	return f, fs.Args(), nil
}

// options loads the config file (or defaults) and applies flags given on
// the command line over it.
func (f *cliFlags) options() (convert.Options, error) {
	cfg := config.Default()
	if f.config != "" {
		loaded, err := config.Load(f.config)
		if err != nil {
			return convert.Options{}, err
		}
		cfg = loaded
	}

	if f.set["preserve-whitespace"] {
		cfg.PreserveWhitespace = f.preserveWS
	}
	if f.set["no-images"] {
		cfg.IncludeImages = !f.noImages
	}
	if f.set["no-header-row"] {
		cfg.HeaderRow = !f.noHeader
	}
	if f.set["title"] {
		cfg.Metadata.Title = f.title
	}
	if f.set["author"] {
		cfg.Metadata.Author = f.author
	}
	if f.set["subject"] {
		cfg.Metadata.Subject = f.subject
	}
	if f.set["classifier"] {
		cfg.Classifier = f.classifier
	}
	if f.set["strip-navigation"] {
		cfg.Navigation = f.navigation
	}
	if f.set["no-highlight"] {
		cfg.Highlight.Enabled = !f.noHighlight
	}
	if f.set["code-style"] {
		cfg.Highlight.Style = f.codeStyle
	}
	for _, t := range f.tags {
		tag, role, ok := strings.Cut(t, "=")
		if !ok || strings.TrimSpace(tag) == "" {
			return convert.Options{}, fmt.Errorf("%w: --tag %q (want tag=role)", ErrUsage, t)
		}
		if cfg.Tags == nil {
			cfg.Tags = make(map[string]string)
		}
		cfg.Tags[strings.TrimSpace(tag)] = strings.TrimSpace(role)
	}

	return cfg.Options()
}

const usageHeader = `quire converts HTML, XML, Markdown and EPUB files to Word (.docx).

Usage:
  quire [flags] <input>...

Flags:
`

func printUsage(w io.Writer) {
	fmt.Fprint(w, usageHeader)
	newFlagSet(&cliFlags{}, w).PrintDefaults()
}
