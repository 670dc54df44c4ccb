// Package annotate adds detected-language attributes to the sentences of
// OPUS sentence documents.
package annotate

import (
	"bufio"
	"encoding/xml"
	"io"
	"strings"

	"github.com/FocuswithJustin/opusread/core/encoding"
	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/langid"
	"github.com/FocuswithJustin/opusread/core/sentences"
	"github.com/FocuswithJustin/opusread/core/tagstream"
	"github.com/FocuswithJustin/opusread/internal/archive"
	"github.com/FocuswithJustin/opusread/internal/logging"
)

// Annotator rewrites sentence documents.
type Annotator struct {
	Classifiers langid.Classifiers
}

// Stats counts the work of an annotation run.
type Stats struct {
	Documents int
	Sentences int
	Copied    int
}

// AnnotateDocument copies the sentence document r to w, setting the
// language attributes of every sentence start tag. Other markup passes
// through unchanged apart from self-closing tags, which are expanded.
func (a Annotator) AnnotateDocument(name string, r io.Reader, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var (
		unit    []xml.Token
		depth   int
		count   int
		started xml.StartElement
	)
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			return count, &errors.ParseError{Format: "xml", Path: name, Line: line, Message: err.Error(), Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == sentences.SentenceTag {
				if depth == 0 {
					started = t.Copy()
					unit = unit[:0]
					depth++
					continue
				}
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == sentences.SentenceTag && depth > 0 {
				depth--
				if depth == 0 {
					if err := a.writeUnit(bw, started, unit); err != nil {
						return count, err
					}
					count++
					continue
				}
			}
		}

		if depth > 0 {
			unit = append(unit, xml.CopyToken(tok))
			continue
		}
		if err := writeToken(bw, tok); err != nil {
			return count, err
		}
	}
	if depth > 0 {
		return count, errors.NewParse("xml", name, "document ends inside a sentence")
	}
	return count, bw.Flush()
}

func (a Annotator) writeUnit(w *bufio.Writer, start xml.StartElement, unit []xml.Token) error {
	attrs := make(tagstream.Attributes, 0, len(start.Attr)+4)
	for _, at := range start.Attr {
		attrs = append(attrs, tagstream.Attr{Name: qualified(at.Name), Value: at.Value})
	}
	attrs = a.Classifiers.Annotate(unitText(unit), attrs)

	var b strings.Builder
	b.WriteString("<" + qualified(start.Name))
	for _, at := range attrs {
		encoding.WriteAttr(&b, at.Name, at.Value)
	}
	b.WriteString(">")
	if _, err := w.WriteString(b.String()); err != nil {
		return err
	}
	for _, tok := range unit {
		if err := writeToken(w, tok); err != nil {
			return err
		}
	}
	return writeToken(w, xml.EndElement{Name: start.Name})
}

// unitText is the sentence text as it would be read in tokenized mode.
func unitText(unit []xml.Token) string {
	var parts []string
	for _, tok := range unit {
		if cd, ok := tok.(xml.CharData); ok {
			parts = append(parts, string(cd))
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func writeToken(w *bufio.Writer, tok xml.Token) error {
	var err error
	switch t := tok.(type) {
	case xml.StartElement:
		var b strings.Builder
		b.WriteString("<" + qualified(t.Name))
		for _, at := range t.Attr {
			encoding.WriteAttr(&b, qualified(at.Name), at.Value)
		}
		b.WriteString(">")
		_, err = w.WriteString(b.String())
	case xml.EndElement:
		_, err = w.WriteString("</" + qualified(t.Name) + ">")
	case xml.CharData:
		_, err = w.WriteString(encoding.EscapeXMLText(string(t)))
	case xml.Comment:
		_, err = w.WriteString("<!--" + string(t) + "-->")
	case xml.ProcInst:
		_, err = w.WriteString("<?" + t.Target + " " + string(t.Inst) + "?>")
	case xml.Directive:
		_, err = w.WriteString("<!" + string(t) + ">")
	}
	return err
}

// AnnotateArchive writes a copy of the archive at src to dst with every
// .xml member annotated. The archive kinds of src and dst may differ.
func (a Annotator) AnnotateArchive(src, dst string) (Stats, error) {
	var stats Stats
	store, err := archive.OpenStore(src)
	if err != nil {
		return stats, err
	}
	defer store.Close()

	out, err := archive.CreateArchive(dst)
	if err != nil {
		return stats, err
	}

	err = store.Walk(func(name string, r io.Reader) error {
		w, err := out.Create(name)
		if err != nil {
			return errors.NewIO("create", name, err)
		}
		if !strings.HasSuffix(name, ".xml") {
			stats.Copied++
			_, err := io.Copy(w, r)
			return err
		}
		n, err := a.AnnotateDocument(name, r, w)
		if err != nil {
			return err
		}
		stats.Documents++
		stats.Sentences += n
		logging.Debug("document annotated", "member", name, "sentences", n)
		return nil
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return stats, err
}
