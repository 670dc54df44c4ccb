// Package sentences builds id-indexed sentence lookups from sentence
// documents.
//
// An Index is built for one document and holds only the ids a link group
// actually references, so memory follows the size of the group rather than
// the size of the document.
package sentences

import (
	"io"
	"strings"

	"github.com/FocuswithJustin/opusread/core/tagstream"
)

// Tag names of sentence documents.
const (
	SentenceTag = "s"
	WordTag     = "w"
)

// Mode selects how sentence text is reconstructed.
type Mode int

const (
	// Tokenized joins the word sub-elements of each sentence with single spaces.
	Tokenized Mode = iota
	// Raw takes the character data of the sentence element itself.
	Raw
)

// ModeFor maps a corpus preprocessing name to a Mode.
func ModeFor(preprocess string) Mode {
	if preprocess == "raw" {
		return Raw
	}
	return Tokenized
}

// AllAttributes selects every attribute, sorted by name, for annotation output.
const AllAttributes = "all_attrs"

// Options controls sentence reconstruction.
type Options struct {
	Mode Mode

	// Annotations appends word attributes to every token (tokenized mode).
	Annotations bool
	// AnnotationAttrs lists the attributes to append. Empty or
	// [AllAttributes] appends all attributes sorted by name.
	AnnotationAttrs []string
	// Delimiter separates a token from its annotations. Defaults to "|".
	Delimiter string
}

// IDSet is the set of ids an index is restricted to.
type IDSet interface {
	Contains(id string) bool
	Len() int
}

// Sentence is one reconstructed sentence.
type Sentence struct {
	ID    string
	Text  string
	Attrs tagstream.Attributes
}

// Index maps sentence ids to sentences for one document.
type Index struct {
	sentences map[string]Sentence
}

// Build reads the sentence document r and keeps the sentences whose ids are
// in ids. Reading stops as soon as every requested id has been seen.
func Build(r io.Reader, ids IDSet, opts Options) (*Index, error) {
	return BuildNamed("", r, ids, opts)
}

// BuildNamed is Build with a document name for error messages.
func BuildNamed(name string, r io.Reader, ids IDSet, opts Options) (*Index, error) {
	if opts.Delimiter == "" {
		opts.Delimiter = "|"
	}
	ix := &Index{sentences: make(map[string]Sentence, ids.Len())}
	if ids.Len() == 0 {
		return ix, nil
	}

	units := tagstream.NewGrouper(tagstream.NewNamedParser(name, r), SentenceTag)
	for len(ix.sentences) < ids.Len() {
		unit, err := units.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		closing := unit.Close()
		id := closing.Attrs.Value("id")
		if !ids.Contains(id) {
			continue
		}
		ix.sentences[id] = Sentence{
			ID:    id,
			Text:  sentenceText(unit, opts),
			Attrs: closing.Attrs,
		}
	}
	return ix, nil
}

func sentenceText(unit tagstream.Unit, opts Options) string {
	if opts.Mode == Raw {
		return strings.Join(strings.Fields(unit.Close().Data), " ")
	}
	words := unit.Closed(WordTag)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		token := strings.TrimSpace(w.Data)
		if opts.Annotations {
			token += RenderAnnotations(w.Attrs, opts.AnnotationAttrs, opts.Delimiter)
		}
		tokens = append(tokens, token)
	}
	return strings.Join(tokens, " ")
}

// RenderAnnotations returns the delimiter-prefixed values of the selected
// attributes. With no names, or AllAttributes, every attribute is rendered
// in name order; otherwise the listed names that are present, in list order.
func RenderAnnotations(attrs tagstream.Attributes, names []string, delimiter string) string {
	var b strings.Builder
	if len(names) == 0 || names[0] == AllAttributes {
		for _, at := range attrs.Sorted() {
			b.WriteString(delimiter)
			b.WriteString(at.Value)
		}
		return b.String()
	}
	for _, name := range names {
		if v, ok := attrs.Get(name); ok {
			b.WriteString(delimiter)
			b.WriteString(v)
		}
	}
	return b.String()
}

// Len returns the number of indexed sentences.
func (ix *Index) Len() int {
	return len(ix.sentences)
}

// Get returns the sentence with id. Unknown ids yield an empty sentence
// carrying only the id.
func (ix *Index) Get(id string) (Sentence, bool) {
	s, ok := ix.sentences[id]
	if !ok {
		return Sentence{ID: id}, false
	}
	return s, true
}

// Read resolves ids in order. Unknown ids resolve to empty sentences rather
// than failing. An empty list, or one whose first id is empty, yields nil.
func (ix *Index) Read(ids []string) []Sentence {
	if len(ids) == 0 || ids[0] == "" {
		return nil
	}
	out := make([]Sentence, len(ids))
	for i, id := range ids {
		out[i], _ = ix.Get(id)
	}
	return out
}

// Texts returns the text of each sentence.
func Texts(ss []Sentence) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Text
	}
	return out
}

// Join returns the sentence texts separated by single spaces.
func Join(ss []Sentence) string {
	return strings.Join(Texts(ss), " ")
}
