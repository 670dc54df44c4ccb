// Package pipeline drives an extraction run: it streams link groups from
// an alignment file, resolves the referenced sentences and writes the
// surviving pairs in the configured output mode.
//
// Languages are processed in alphabetical order. When the requested
// direction is the reverse, every emitted pair is swapped back so outputs
// always follow the requested direction.
package pipeline

import (
	"context"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/FocuswithJustin/opusread/core/alignment"
	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/langid"
	"github.com/FocuswithJustin/opusread/core/sentences"
	"github.com/FocuswithJustin/opusread/internal/archive"
	"github.com/FocuswithJustin/opusread/internal/config"
	"github.com/FocuswithJustin/opusread/internal/logging"
	"github.com/FocuswithJustin/opusread/internal/output"
)

// Deps are the collaborators of a run.
type Deps struct {
	// Corpus serves the alignment file and sentence documents, keyed by the
	// requested direction: Source is the archive of cfg.Source. When nil,
	// Run opens the archives of the configuration and closes them after.
	Corpus archive.Corpus
	// Classifiers label sentences that carry no language attributes.
	Classifiers langid.Classifiers
	// Console receives output when no write path is configured.
	// Defaults to os.Stdout.
	Console io.Writer
}

// Summary reports the outcome of a run.
type Summary struct {
	Pairs    int
	Groups   int
	Skipped  int
	Rejected int
	// Digests maps every written output path to its BLAKE3 digest.
	Digests map[string]string
}

// Reader is a configured extraction run.
type Reader struct {
	cfg  config.Config
	mode output.Mode

	switched      bool
	alignmentPath string
	corpus        archive.Corpus
	console       io.Writer

	filters   alignment.Chain
	langCheck langid.Check
	sentOpts  [2]sentences.Options
	include   *regexp.Regexp
	exclude   *regexp.Regexp
}

// New validates cfg and prepares a run. No file is opened.
func New(cfg config.Config, deps Deps) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := output.ParseMode(cfg.WriteMode)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		cfg:           cfg,
		mode:          mode,
		switched:      Switched(cfg.Source, cfg.Target),
		alignmentPath: AlignmentPath(cfg),
		corpus:        deps.Corpus,
		console:       deps.Console,
	}
	if r.console == nil {
		r.console = os.Stdout
	}

	srcRange, trgRange := cfg.SourceRange, cfg.TargetRange
	srcAnnot, trgAnnot := cfg.SourceAnnotations, cfg.TargetAnnotations
	if r.switched {
		srcRange, trgRange = trgRange, srcRange
		srcAnnot, trgAnnot = trgAnnot, srcAnnot
	}

	r.filters, err = alignment.BuildFilters(alignment.FilterConfig{
		SourceRange:           srcRange,
		TargetRange:           trgRange,
		Attribute:             cfg.Attribute,
		Threshold:             cfg.Threshold,
		LeaveNonAlignmentsOut: cfg.LeaveNonAlignmentsOut,
	})
	if err != nil {
		return nil, asConfigError("filter", err)
	}

	if r.langCheck, err = buildLangCheck(cfg, deps.Classifiers); err != nil {
		return nil, err
	}
	if r.switched {
		r.langCheck = r.langCheck.Swapped()
	}

	textMode := sentences.ModeFor(cfg.Preprocess)
	if cfg.PrintAnnotations {
		textMode = sentences.Tokenized
	}
	for i, annot := range [][]string{srcAnnot, trgAnnot} {
		r.sentOpts[i] = sentences.Options{
			Mode:            textMode,
			Annotations:     cfg.PrintAnnotations,
			AnnotationAttrs: annot,
			Delimiter:       cfg.AnnotationDelimiter,
		}
	}

	if r.include, err = compile("include", cfg.Include); err != nil {
		return nil, err
	}
	if r.exclude, err = compile("exclude", cfg.Exclude); err != nil {
		return nil, err
	}
	return r, nil
}

// Switched reports whether source and target are processed in reverse
// order.
func Switched(source, target string) bool {
	return source > target
}

// Preprocess returns the preprocessing whose archives a run reads.
// Annotated output needs the parsed archives.
func Preprocess(cfg config.Config) string {
	if cfg.PrintAnnotations {
		return "parsed"
	}
	return cfg.Preprocess
}

// Layout returns the corpus layout of cfg.
func Layout(cfg config.Config) archive.Layout {
	return archive.Layout{
		Root:        cfg.RootDirectory,
		DownloadDir: cfg.DownloadDir,
		Corpus:      cfg.Directory,
		Release:     cfg.Release,
		Preprocess:  Preprocess(cfg),
		Source:      cfg.Source,
		Target:      cfg.Target,
	}
}

// AlignmentPath returns the configured alignment file or the conventional
// one of the corpus.
func AlignmentPath(cfg config.Config) string {
	if cfg.AlignmentFile != "" {
		return cfg.AlignmentFile
	}
	return archive.Locate(Layout(cfg)).Alignment
}

// OpenCorpus opens the sentence archives of cfg, keyed by the requested
// direction. Runs that never read sentences get a corpus without archives.
func OpenCorpus(cfg config.Config) (*archive.Archives, error) {
	prefix := archive.Prefix(cfg.Directory, Preprocess(cfg))
	if !readsSentences(cfg) {
		return archive.NewCorpus(nil, nil, prefix), nil
	}
	paths := archive.Locate(Layout(cfg))
	if cfg.SourceZip != "" {
		paths.SourceArchive = cfg.SourceZip
	}
	if cfg.TargetZip != "" {
		paths.TargetArchive = cfg.TargetZip
	}
	src, err := archive.OpenStore(paths.SourceArchive)
	if err != nil {
		return nil, err
	}
	trg, err := archive.OpenStore(paths.TargetArchive)
	if err != nil {
		src.Close()
		return nil, err
	}
	return archive.NewCorpus(src, trg, prefix), nil
}

func readsSentences(cfg config.Config) bool {
	if cfg.WriteMode != config.ModeLinks {
		return true
	}
	for _, spec := range []string{cfg.SourceCLD2, cfg.TargetCLD2, cfg.SourceLangid, cfg.TargetLangid} {
		if spec != "" {
			return true
		}
	}
	return false
}

func buildLangCheck(cfg config.Config, classifiers langid.Classifiers) (langid.Check, error) {
	check := langid.Check{Classifiers: classifiers}
	specs := []struct {
		dst  **langid.Filter
		name string
		spec string
	}{
		{&check.Source[0], "src_cld2", cfg.SourceCLD2},
		{&check.Source[1], "src_langid", cfg.SourceLangid},
		{&check.Target[0], "trg_cld2", cfg.TargetCLD2},
		{&check.Target[1], "trg_langid", cfg.TargetLangid},
	}
	for _, s := range specs {
		f, err := langid.ParseFilter(s.spec)
		if err != nil {
			return check, asConfigError(s.name, err)
		}
		*s.dst = f
	}
	return check, nil
}

func compile(field, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.NewValidation(field, pattern, err.Error())
	}
	return re, nil
}

// asConfigError turns a value syntax error into a ValidationError.
func asConfigError(field string, err error) error {
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return &errors.ValidationError{Field: field, Message: err.Error(), Err: err}
}

// requestedSource returns the group's document in the caller's source
// language.
func (r *Reader) requestedSource(g *alignment.Group) string {
	if r.switched {
		return g.TargetDoc
	}
	return g.SourceDoc
}

// skipDocument reports whether a group is excluded by document name.
func (r *Reader) skipDocument(sourceDoc string) bool {
	if r.include != nil && !r.include.MatchString(sourceDoc) {
		return true
	}
	return r.exclude != nil && r.exclude.MatchString(sourceDoc)
}

// needsSentences reports whether groups require sentence indexes.
func (r *Reader) needsSentences() bool {
	return r.mode.NeedsSentences() || r.langCheck.Active()
}

// Run executes the extraction. Output handles are closed and closing
// framing is written on every exit path.
func (r *Reader) Run(ctx context.Context) (sum Summary, err error) {
	start := time.Now()
	if logging.GetRunID(ctx) == "" {
		ctx = logging.WithRunID(ctx, logging.NewRunID())
	}
	sum.Digests = make(map[string]string)

	corpus := r.corpus
	if corpus == nil {
		archives, err := OpenCorpus(r.cfg)
		if err != nil {
			return sum, err
		}
		defer archives.Close()
		corpus = archives
	}
	if r.switched {
		corpus = archive.Swap(corpus)
	}

	alignmentFile, err := corpus.OpenAlignment(r.alignmentPath)
	if err != nil {
		return sum, err
	}
	defer alignmentFile.Close()

	sinks, err := r.openSinks()
	if err != nil {
		return sum, err
	}
	defer func() {
		for _, s := range sinks {
			cerr := s.Close()
			if output.IsBrokenPipe(cerr) {
				cerr = nil
			}
			if cerr != nil && err == nil {
				err = cerr
			}
			if s.Path() != "" {
				sum.Digests[s.Path()] = s.Digest()
				logging.OutputWritten(ctx, s.Path(), s.Digest())
			}
		}
		if output.IsBrokenPipe(err) {
			err = nil
		}
		logging.RunFinished(ctx, sum.Pairs, sum.Groups, sum.Skipped, time.Since(start))
	}()

	var idLog output.IDLog
	if r.cfg.WriteIDs != "" {
		if idLog, err = output.OpenIDLog(r.cfg.WriteIDs, r.cfg.IDAttribute); err != nil {
			return sum, err
		}
		defer func() {
			if cerr := idLog.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}

	writers := make([]io.Writer, len(sinks))
	for i, s := range sinks {
		writers[i] = s
	}
	formatter, err := output.NewFormatter(r.mode, writers, output.FormatOptions{
		SourceLang:     r.cfg.Source,
		TargetLang:     r.cfg.Target,
		MosesDelimiter: r.cfg.MosesDelimiter,
	})
	if err != nil {
		return sum, err
	}

	if err := formatter.Header(); err != nil {
		return sum, err
	}
	runErr := r.extract(ctx, corpus, alignment.NewNamedStream(r.alignmentPath, alignmentFile, r.filters...), formatter, idLog, &sum)
	if err := formatter.Footer(); err != nil && runErr == nil {
		runErr = err
	}
	return sum, runErr
}

func (r *Reader) openSinks() ([]*output.Sink, error) {
	paths := r.cfg.Write
	if len(paths) == 0 {
		paths = []string{""}
	}
	sinks := make([]*output.Sink, 0, len(paths))
	for _, path := range paths {
		s, err := output.OpenSink(path, r.console)
		if err != nil {
			for _, opened := range sinks {
				opened.Close()
			}
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// extract runs the group loop until the stream ends or the cap is reached.
func (r *Reader) extract(ctx context.Context, corpus archive.Corpus, stream *alignment.Stream, f output.Formatter, idLog output.IDLog, sum *Summary) error {
	for {
		g, err := stream.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		sum.Groups++
		sum.Rejected += g.Rejected

		if doc := r.requestedSource(g); r.skipDocument(doc) {
			logging.DebugContext(ctx, "document excluded", "source_doc", doc)
			continue
		}

		var indexes [2]*sentences.Index
		if r.needsSentences() {
			indexes, err = r.buildIndexes(corpus, g)
			if err != nil {
				if !r.recoverable(err) {
					return err
				}
				sum.Skipped++
				logging.DocumentSkipped(ctx, g.SourceDoc, g.TargetDoc, err)
				continue
			}
		}

		stop, err := r.writeGroup(g, indexes, f, idLog, sum)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// recoverable reports whether a per-document error skips the pair.
func (r *Reader) recoverable(err error) bool {
	if errors.IsNotFound(err) {
		return true
	}
	return r.cfg.SkipMalformed && errors.IsParse(err)
}

func (r *Reader) buildIndexes(corpus archive.Corpus, g *alignment.Group) ([2]*sentences.Index, error) {
	var indexes [2]*sentences.Index
	docs := [2]string{g.SourceDoc, g.TargetDoc}
	ids := [2]alignment.IDSet{g.SourceIDs, g.TargetIDs}

	for side, doc := range docs {
		rc, err := corpus.OpenSentences(doc, archive.Side(side))
		if err != nil {
			return indexes, err
		}
		ix, err := sentences.BuildNamed(doc, rc, ids[side], r.sentOpts[side])
		rc.Close()
		if err != nil {
			return indexes, err
		}
		indexes[side] = ix
	}
	return indexes, nil
}

func (r *Reader) writeGroup(g *alignment.Group, indexes [2]*sentences.Index, f output.Formatter, idLog output.IDLog, sum *Summary) (stop bool, err error) {
	sourceDoc, targetDoc := g.SourceDoc, g.TargetDoc
	if r.switched {
		sourceDoc, targetDoc = targetDoc, sourceDoc
	}
	if err := f.BeginDocument(sourceDoc, targetDoc); err != nil {
		return false, err
	}

	for _, link := range g.Links {
		p := output.Pair{SourceDoc: g.SourceDoc, TargetDoc: g.TargetDoc, Link: link}
		if indexes[0] != nil {
			p.Source = indexes[0].Read(link.SourceIDs)
			p.Target = indexes[1].Read(link.TargetIDs)
			if r.langCheck.Active() && r.langCheck.Reject(p.Source, p.Target) {
				sum.Rejected++
				continue
			}
		}
		if r.switched {
			p = p.Swapped()
		}
		if err := f.WritePair(p); err != nil {
			return false, err
		}
		if idLog != nil {
			if err := idLog.Record(p); err != nil {
				return false, err
			}
		}
		sum.Pairs++
		if r.cfg.Maximum > 0 && sum.Pairs >= r.cfg.Maximum {
			stop = true
			break
		}
	}
	return stop, f.EndDocument()
}
