// Command opusread extracts sentence pairs from OPUS parallel corpora.
// It provides commands for reading alignments, annotating sentence
// documents with detected languages, and checking produced files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/opusread/core/langid"
	"github.com/FocuswithJustin/opusread/core/sqlite"
	"github.com/FocuswithJustin/opusread/core/xml"
	"github.com/FocuswithJustin/opusread/internal/annotate"
	"github.com/FocuswithJustin/opusread/internal/archive"
	"github.com/FocuswithJustin/opusread/internal/config"
	"github.com/FocuswithJustin/opusread/internal/logging"
	"github.com/FocuswithJustin/opusread/internal/pipeline"
)

const version = "0.4.0"

// CLI defines the command-line interface for opusread.
var CLI struct {
	Read     ReadCmd     `cmd:"" default:"withargs" help:"Read sentence pairs from an alignment file"`
	Annotate AnnotateCmd `cmd:"" help:"Add detected-language attributes to a sentence archive"`
	Check    CheckCmd    `cmd:"" help:"Check a produced TMX or links file"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// LogFlags are shared by all commands that log.
type LogFlags struct {
	Verbose   bool   `short:"v" help:"Log progress at debug level"`
	LogFormat string `name:"log-format" help:"Log format: text or json"`
}

func (f LogFlags) setup(cfg config.Config) {
	level := logging.ParseLevel(cfg.LogLevel)
	if f.Verbose {
		level = logging.LevelDebug
	}
	format := logging.FormatText
	if cfg.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

// ReadCmd extracts pairs.
type ReadCmd struct {
	LogFlags

	Config string `name:"config" help:"YAML configuration file" type:"path"`

	Directory     string `short:"d" help:"Corpus name"`
	Source        string `short:"s" help:"Source language"`
	Target        string `short:"t" help:"Target language"`
	Release       string `short:"r" help:"Corpus release (default latest)"`
	Preprocess    string `short:"p" help:"Preprocessing: xml, raw or parsed"`
	RootDirectory string `name:"root-directory" help:"Root directory of installed corpora"`
	DownloadDir   string `name:"download-dir" help:"Directory checked first for corpus archives"`
	AlignmentFile string `name:"alignment-file" help:"Alignment file to read instead of the corpus default"`
	SourceZip     string `name:"source-zip" help:"Source sentence archive"`
	TargetZip     string `name:"target-zip" help:"Target sentence archive"`

	Maximum               int    `short:"m" help:"Maximum number of pairs to write (-1 for all)"`
	SrcRange              string `name:"src-range" help:"Number of source sentences per link, e.g. 1 or 1-2"`
	TgtRange              string `name:"tgt-range" help:"Number of target sentences per link"`
	Attribute             string `short:"a" help:"Link attribute to threshold on"`
	Threshold             string `name:"threshold" help:"Minimum value of the link attribute"`
	LeaveNonAlignmentsOut bool   `name:"leave-non-alignments-out" help:"Skip links without sentences on one side"`
	Include               string `short:"n" help:"Only read documents whose source name matches this pattern"`
	Exclude               string `short:"N" help:"Skip documents whose source name matches this pattern"`
	SkipMalformed         bool   `name:"skip-malformed" help:"Skip pairs whose sentence document is malformed"`

	SrcCLD2   string `name:"src-cld2" help:"Source language filter for the first slot, e.g. en:0.9"`
	TrgCLD2   string `name:"trg-cld2" help:"Target language filter for the first slot"`
	SrcLangid string `name:"src-langid" help:"Source language filter for the second slot"`
	TrgLangid string `name:"trg-langid" help:"Target language filter for the second slot"`
	Classify  string `name:"classify" help:"Classifier backends for sentences without language attributes, e.g. whatlanggo,lingua"`

	Write               []string `short:"w" help:"Output file(s); two files in moses mode"`
	WriteMode           string   `name:"write-mode" help:"Output mode: normal, moses, tmx or links"`
	MosesDelimiter      string   `name:"moses-delimiter" help:"Delimiter of one-file moses output"`
	PrintAnnotations    bool     `name:"print-annotations" help:"Append word annotations (reads parsed archives)"`
	SourceAnnotations   []string `name:"source-annotations" help:"Source word attributes to print, or all_attrs"`
	TargetAnnotations   []string `name:"target-annotations" help:"Target word attributes to print, or all_attrs"`
	AnnotationDelimiter string   `name:"annotation-delimiter" help:"Delimiter between a word and its annotations"`
	WriteIDs            string   `name:"write-ids" help:"Write document names and sentence ids to this file (.db for SQLite)"`
	IDAttribute         string   `name:"id-attribute" help:"Link attribute recorded in the id log"`
}

// Flags returns the values set on the command line.
func (c *ReadCmd) Flags() config.Config {
	return config.Config{
		Directory:             c.Directory,
		Source:                c.Source,
		Target:                c.Target,
		Release:               c.Release,
		Preprocess:            c.Preprocess,
		RootDirectory:         c.RootDirectory,
		DownloadDir:           c.DownloadDir,
		AlignmentFile:         c.AlignmentFile,
		SourceZip:             c.SourceZip,
		TargetZip:             c.TargetZip,
		Maximum:               c.Maximum,
		SourceRange:           c.SrcRange,
		TargetRange:           c.TgtRange,
		Attribute:             c.Attribute,
		Threshold:             c.Threshold,
		LeaveNonAlignmentsOut: c.LeaveNonAlignmentsOut,
		Include:               c.Include,
		Exclude:               c.Exclude,
		SkipMalformed:         c.SkipMalformed,
		SourceCLD2:            c.SrcCLD2,
		TargetCLD2:            c.TrgCLD2,
		SourceLangid:          c.SrcLangid,
		TargetLangid:          c.TrgLangid,
		Classify:              c.Classify,
		Write:                 c.Write,
		WriteMode:             c.WriteMode,
		MosesDelimiter:        unescape(c.MosesDelimiter),
		PrintAnnotations:      c.PrintAnnotations,
		SourceAnnotations:     c.SourceAnnotations,
		TargetAnnotations:     c.TargetAnnotations,
		AnnotationDelimiter:   c.AnnotationDelimiter,
		WriteIDs:              c.WriteIDs,
		IDAttribute:           c.IDAttribute,
		LogFormat:             c.LogFormat,
	}
}

// unescape lets shells pass a tab delimiter as \t.
func unescape(s string) string {
	return strings.NewReplacer(`\t`, "\t", `\n`, "\n").Replace(s)
}

// Resolve merges the config file, if any, with the command-line flags.
func (c *ReadCmd) Resolve() (config.Config, error) {
	cfg := config.DefaultConfig()
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	cfg.Apply(c.Flags())
	return cfg, nil
}

func (c *ReadCmd) Run() error {
	cfg, err := c.Resolve()
	if err != nil {
		return err
	}
	c.setup(cfg)
	return read(context.Background(), cfg, os.Stdout)
}

func read(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	classifiers, err := langid.ParseClassifiers(cfg.Classify)
	if err != nil {
		return err
	}
	reader, err := pipeline.New(cfg, pipeline.Deps{
		Classifiers: classifiers,
		Console:     stdout,
	})
	if err != nil {
		return err
	}
	sum, err := reader.Run(ctx)
	if err != nil {
		return err
	}
	logging.Debug("extraction summary",
		"pairs", sum.Pairs, "groups", sum.Groups, "skipped", sum.Skipped, "rejected", sum.Rejected)
	return nil
}

// AnnotateCmd writes a language-annotated copy of a sentence archive.
type AnnotateCmd struct {
	LogFlags

	Source      string `arg:"" help:"Sentence archive (zip, tar.gz, tar.xz, tar.zst or directory)" type:"path"`
	Destination string `arg:"" help:"Annotated archive to create" type:"path"`
	Classify    string `name:"classify" default:"whatlanggo,lingua" help:"Classifier backends for the two attribute slots"`
}

func (c *AnnotateCmd) Run() error {
	cfg := config.DefaultConfig()
	if c.LogFormat != "" {
		cfg.LogFormat = c.LogFormat
	}
	c.setup(cfg)

	classifiers, err := langid.ParseClassifiers(c.Classify)
	if err != nil {
		return err
	}
	stats, err := annotate.Annotator{Classifiers: classifiers}.AnnotateArchive(c.Source, c.Destination)
	if err != nil {
		return err
	}
	fmt.Printf("Annotated %d sentences in %d documents (%d other members copied)\n",
		stats.Sentences, stats.Documents, stats.Copied)
	return nil
}

// CheckCmd validates a produced TMX or links file.
type CheckCmd struct {
	Path string `arg:"" help:"TMX or links file (optionally .gz, .xz or .zst)" type:"existingfile"`
}

func (c *CheckCmd) Run() error {
	return check(c.Path, os.Stdout)
}

func check(path string, w io.Writer) error {
	rc, err := archive.OpenFile(path)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	res := xml.Validate(data)
	if !res.Valid {
		for _, e := range res.Errors {
			fmt.Fprintf(w, "%s: %s\n", path, e)
		}
		return fmt.Errorf("%s is not well formed", path)
	}

	units, err := xml.Count(data, "//tu")
	if err != nil {
		return err
	}
	links, err := xml.Count(data, "//link")
	if err != nil {
		return err
	}
	switch {
	case units > 0:
		fmt.Fprintf(w, "%s: TMX, %d translation units\n", path, units)
	case links > 0:
		fmt.Fprintf(w, "%s: links, %d links\n", path, links)
	default:
		fmt.Fprintf(w, "%s: well formed, no pairs\n", path)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Printf("opusread version %s\n", version)
	fmt.Printf("  sqlite driver: %s (%s)\n", info.DriverName, info.DriverType)
	fmt.Printf("  classifiers:   %s\n", strings.Join(langid.Backends(), ", "))
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("opusread"),
		kong.Description("Read sentence pairs from OPUS parallel corpora"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
