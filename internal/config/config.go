// Package config holds the settings of an extraction run.
//
// Settings come from DefaultConfig, optionally overlaid by a YAML file
// (Load) and then by command-line flags (Apply).
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/opusread/core/errors"
)

// Write modes.
const (
	ModeNormal = "normal"
	ModeMoses  = "moses"
	ModeTMX    = "tmx"
	ModeLinks  = "links"
)

// Modes lists the accepted write modes.
var Modes = []string{ModeNormal, ModeMoses, ModeTMX, ModeLinks}

// Preprocessings lists the accepted corpus preprocessing names.
var Preprocessings = []string{"xml", "raw", "parsed"}

// Config is the complete configuration of a run.
type Config struct {
	// Corpus selection.
	Directory     string `yaml:"directory"`
	Source        string `yaml:"source"`
	Target        string `yaml:"target"`
	Release       string `yaml:"release"`
	Preprocess    string `yaml:"preprocess"`
	RootDirectory string `yaml:"root_directory"`
	DownloadDir   string `yaml:"download_dir"`
	AlignmentFile string `yaml:"alignment_file"`
	SourceZip     string `yaml:"source_zip"`
	TargetZip     string `yaml:"target_zip"`

	// Selection.
	Maximum               int    `yaml:"maximum"`
	SourceRange           string `yaml:"src_range"`
	TargetRange           string `yaml:"tgt_range"`
	Attribute             string `yaml:"attribute"`
	Threshold             string `yaml:"threshold"`
	LeaveNonAlignmentsOut bool   `yaml:"leave_non_alignments_out"`
	Include               string `yaml:"include"`
	Exclude               string `yaml:"exclude"`
	SkipMalformed         bool   `yaml:"skip_malformed"`

	// Language identification.
	SourceCLD2   string `yaml:"src_cld2"`
	TargetCLD2   string `yaml:"trg_cld2"`
	SourceLangid string `yaml:"src_langid"`
	TargetLangid string `yaml:"trg_langid"`
	Classify     string `yaml:"classify"`

	// Output.
	Write               []string `yaml:"write"`
	WriteMode           string   `yaml:"write_mode"`
	MosesDelimiter      string   `yaml:"moses_delimiter"`
	PrintAnnotations    bool     `yaml:"print_annotations"`
	SourceAnnotations   []string `yaml:"source_annotations"`
	TargetAnnotations   []string `yaml:"target_annotations"`
	AnnotationDelimiter string   `yaml:"annotation_delimiter"`
	WriteIDs            string   `yaml:"write_ids"`
	IDAttribute         string   `yaml:"id_attribute"`

	// Logging.
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Release:             "latest",
		Preprocess:          "xml",
		RootDirectory:       "/projappl/nlpl/data/OPUS",
		DownloadDir:         ".",
		Maximum:             -1,
		SourceRange:         "all",
		TargetRange:         "all",
		WriteMode:           ModeNormal,
		MosesDelimiter:      "\t",
		SourceAnnotations:   []string{"pos", "lem"},
		TargetAnnotations:   []string{"pos", "lem"},
		AnnotationDelimiter: "|",
		LogLevel:            "warn",
		LogFormat:           "text",
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.NewNotFound("config file", path)
		}
		return cfg, errors.NewIO("read", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &errors.ParseError{Format: "yaml", Path: path, Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// Apply overlays the non-zero fields of o onto c. Boolean fields are only
// ever switched on.
func (c *Config) Apply(o Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&c.Directory, o.Directory)
	setString(&c.Source, o.Source)
	setString(&c.Target, o.Target)
	setString(&c.Release, o.Release)
	setString(&c.Preprocess, o.Preprocess)
	setString(&c.RootDirectory, o.RootDirectory)
	setString(&c.DownloadDir, o.DownloadDir)
	setString(&c.AlignmentFile, o.AlignmentFile)
	setString(&c.SourceZip, o.SourceZip)
	setString(&c.TargetZip, o.TargetZip)
	setString(&c.SourceRange, o.SourceRange)
	setString(&c.TargetRange, o.TargetRange)
	setString(&c.Attribute, o.Attribute)
	setString(&c.Threshold, o.Threshold)
	setString(&c.Include, o.Include)
	setString(&c.Exclude, o.Exclude)
	setString(&c.SourceCLD2, o.SourceCLD2)
	setString(&c.TargetCLD2, o.TargetCLD2)
	setString(&c.SourceLangid, o.SourceLangid)
	setString(&c.TargetLangid, o.TargetLangid)
	setString(&c.Classify, o.Classify)
	setString(&c.WriteMode, o.WriteMode)
	setString(&c.MosesDelimiter, o.MosesDelimiter)
	setString(&c.AnnotationDelimiter, o.AnnotationDelimiter)
	setString(&c.WriteIDs, o.WriteIDs)
	setString(&c.IDAttribute, o.IDAttribute)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.LogFormat, o.LogFormat)

	if o.Maximum != 0 {
		c.Maximum = o.Maximum
	}
	if len(o.Write) > 0 {
		c.Write = o.Write
	}
	if len(o.SourceAnnotations) > 0 {
		c.SourceAnnotations = o.SourceAnnotations
	}
	if len(o.TargetAnnotations) > 0 {
		c.TargetAnnotations = o.TargetAnnotations
	}
	c.LeaveNonAlignmentsOut = c.LeaveNonAlignmentsOut || o.LeaveNonAlignmentsOut
	c.SkipMalformed = c.SkipMalformed || o.SkipMalformed
	c.PrintAnnotations = c.PrintAnnotations || o.PrintAnnotations
}

// Validate checks the structural consistency of the configuration. Value
// syntax (ranges, thresholds, filters, patterns) is checked when the
// pipeline is built.
func (c Config) Validate() error {
	if c.Source == "" {
		return errors.NewValidation("source", "", "source language is required")
	}
	if c.Target == "" {
		return errors.NewValidation("target", "", "target language is required")
	}
	if c.Source == c.Target {
		return errors.NewValidation("target", c.Target, "source and target languages must differ")
	}
	if c.Directory == "" && c.AlignmentFile == "" {
		return errors.NewValidation("directory", "", "a corpus directory or an alignment file is required")
	}
	if !contains(Modes, c.WriteMode) {
		return errors.NewValidation("write_mode", c.WriteMode,
			fmt.Sprintf("must be one of %s", strings.Join(Modes, ", ")))
	}
	if !contains(Preprocessings, c.Preprocess) {
		return errors.NewValidation("preprocess", c.Preprocess,
			fmt.Sprintf("must be one of %s", strings.Join(Preprocessings, ", ")))
	}
	switch {
	case len(c.Write) > 2:
		return errors.NewValidation("write", strings.Join(c.Write, " "), "at most two output paths")
	case len(c.Write) == 2 && c.WriteMode != ModeMoses:
		return errors.NewValidation("write", strings.Join(c.Write, " "),
			"two output paths are only supported in moses mode")
	case len(c.Write) == 2 && c.Write[0] == c.Write[1]:
		return errors.NewValidation("write", c.Write[0], "output paths must differ")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
