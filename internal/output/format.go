package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/opusread/core/encoding"
	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/sentences"
)

// Formatter writes the framing and pairs of one output mode. Calls follow
// Header, then per document BeginDocument, WritePair*, EndDocument, then
// Footer.
type Formatter interface {
	Header() error
	BeginDocument(sourceDoc, targetDoc string) error
	WritePair(p Pair) error
	EndDocument() error
	Footer() error
}

// FormatOptions configures a Formatter.
type FormatOptions struct {
	// SourceLang and TargetLang label TMX variants.
	SourceLang string
	TargetLang string
	// MosesDelimiter separates the sides of a one-file Moses line.
	MosesDelimiter string
}

const rule = "================================"

// NewFormatter returns the formatter of mode writing to targets. Only Moses
// accepts two targets, one per side.
func NewFormatter(mode Mode, targets []io.Writer, opts FormatOptions) (Formatter, error) {
	if len(targets) == 0 || len(targets) > mode.MaxTargets() {
		return nil, errors.NewValidation("write", fmt.Sprint(len(targets), " targets"),
			fmt.Sprintf("%s mode writes to at most %d output(s)", mode, mode.MaxTargets()))
	}
	switch mode {
	case ModeNormal:
		return &normalFormatter{w: targets[0]}, nil
	case ModeMoses:
		if opts.MosesDelimiter == "" {
			opts.MosesDelimiter = "\t"
		}
		f := &mosesFormatter{src: targets[0], delimiter: opts.MosesDelimiter}
		if len(targets) == 2 {
			f.trg = targets[1]
		}
		return f, nil
	case ModeTMX:
		return &tmxFormatter{w: targets[0], src: opts.SourceLang, trg: opts.TargetLang}, nil
	case ModeLinks:
		return &linksFormatter{w: targets[0]}, nil
	default:
		return nil, errors.NewUnsupported("write mode", mode.String())
	}
}

type normalFormatter struct {
	w io.Writer
}

func (f *normalFormatter) Header() error { return nil }

func (f *normalFormatter) BeginDocument(sourceDoc, targetDoc string) error {
	_, err := fmt.Fprintf(f.w, "\n# %s\n# %s\n", sourceDoc, targetDoc)
	return err
}

func (f *normalFormatter) WritePair(p Pair) error {
	var b strings.Builder
	b.WriteString("\n" + rule)
	writeLabeled(&b, "src", p.Source)
	writeLabeled(&b, "trg", p.Target)
	_, err := io.WriteString(f.w, b.String())
	return err
}

func writeLabeled(b *strings.Builder, label string, ss []sentences.Sentence) {
	for _, s := range ss {
		fmt.Fprintf(b, "\n(%s)=\"%s\">%s", label, s.ID, s.Text)
	}
}

func (f *normalFormatter) EndDocument() error {
	_, err := io.WriteString(f.w, "\n"+rule+"\n")
	return err
}

func (f *normalFormatter) Footer() error { return nil }

type mosesFormatter struct {
	src       io.Writer
	trg       io.Writer // nil for one-file output
	delimiter string
}

func (f *mosesFormatter) Header() error { return nil }

func (f *mosesFormatter) BeginDocument(sourceDoc, targetDoc string) error {
	if f.trg == nil {
		_, err := fmt.Fprintf(f.src, "\n<fromDoc>%s</fromDoc>\n<toDoc>%s</toDoc>\n\n", sourceDoc, targetDoc)
		return err
	}
	if _, err := fmt.Fprintf(f.src, "\n<fromDoc>%s</fromDoc>\n\n", sourceDoc); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f.trg, "\n<toDoc>%s</toDoc>\n\n", targetDoc)
	return err
}

func (f *mosesFormatter) WritePair(p Pair) error {
	src, trg := sentences.Join(p.Source), sentences.Join(p.Target)
	if f.trg == nil {
		_, err := io.WriteString(f.src, src+f.delimiter+trg+"\n")
		return err
	}
	if _, err := io.WriteString(f.src, src+"\n"); err != nil {
		return err
	}
	_, err := io.WriteString(f.trg, trg+"\n")
	return err
}

func (f *mosesFormatter) EndDocument() error { return nil }

func (f *mosesFormatter) Footer() error { return nil }

type tmxFormatter struct {
	w        io.Writer
	src, trg string
}

func (f *tmxFormatter) Header() error {
	_, err := fmt.Fprintf(f.w, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<tmx version=\"1.4.\">\n"+
		"<header srclang=\"%s\"\n\tadminlang=\"en\"\n\tsegtype=\"sentence\"\n\tdatatype=\"PlainText\" />\n\t<body>\n",
		f.src)
	return err
}

func (f *tmxFormatter) BeginDocument(string, string) error { return nil }

func (f *tmxFormatter) WritePair(p Pair) error {
	_, err := fmt.Fprintf(f.w,
		"\t\t<tu>\n\t\t\t<tuv xml:lang=\"%s\"><seg>%s</seg></tuv>\n\t\t\t<tuv xml:lang=\"%s\"><seg>%s</seg></tuv>\n\t\t</tu>\n",
		f.src, encoding.EscapeHTML(sentences.Join(p.Source)),
		f.trg, encoding.EscapeHTML(sentences.Join(p.Target)))
	return err
}

func (f *tmxFormatter) EndDocument() error { return nil }

func (f *tmxFormatter) Footer() error {
	_, err := io.WriteString(f.w, "\t</body>\n</tmx>\n")
	return err
}

type linksFormatter struct {
	w io.Writer
}

func (f *linksFormatter) Header() error {
	_, err := io.WriteString(f.w, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n"+
		"<!DOCTYPE cesAlign PUBLIC \"-//CES//DTD XML cesAlign//EN\" \"\">\n"+
		"<cesAlign version=\"1.0\">\n")
	return err
}

func (f *linksFormatter) BeginDocument(sourceDoc, targetDoc string) error {
	var b strings.Builder
	b.WriteString(` <linkGrp targType="s"`)
	encoding.WriteAttr(&b, "fromDoc", sourceDoc)
	encoding.WriteAttr(&b, "toDoc", targetDoc)
	b.WriteString(">\n")
	_, err := io.WriteString(f.w, b.String())
	return err
}

func (f *linksFormatter) WritePair(p Pair) error {
	var b strings.Builder
	b.WriteString("  <link")
	for _, at := range p.Link.Attrs {
		encoding.WriteAttr(&b, at.Name, at.Value)
	}
	b.WriteString(" />\n")
	_, err := io.WriteString(f.w, b.String())
	return err
}

func (f *linksFormatter) EndDocument() error {
	_, err := io.WriteString(f.w, " </linkGrp>\n")
	return err
}

func (f *linksFormatter) Footer() error {
	_, err := io.WriteString(f.w, "</cesAlign>\n")
	return err
}
