package archive

import (
	"io"
	"strings"

	"github.com/FocuswithJustin/opusread/core/errors"
)

// Side selects the source or target sentence archive.
type Side int

const (
	Source Side = iota
	Target
)

func (s Side) String() string {
	if s == Target {
		return "target"
	}
	return "source"
}

// Corpus gives access to an alignment file and the sentence documents it
// references.
type Corpus interface {
	OpenAlignment(path string) (io.ReadCloser, error)
	// OpenSentences opens a sentence document by the name used in the
	// alignment file. Absent documents yield a NotFoundError.
	OpenSentences(doc string, side Side) (io.ReadCloser, error)
	// Close releases the archives. It is safe to call more than once.
	Close() error
}

// Archives is a Corpus over one Store per side.
type Archives struct {
	stores [2]Store
	prefix string
	closed bool
}

// NewCorpus returns a Corpus reading source documents from source and
// target documents from target. Members are looked up as named, without a
// trailing .gz, and below prefix (typically "{corpus}/{preprocess}").
func NewCorpus(source, target Store, prefix string) *Archives {
	return &Archives{stores: [2]Store{source, target}, prefix: prefix}
}

// OpenAlignment opens an alignment file from the file system.
func (a *Archives) OpenAlignment(path string) (io.ReadCloser, error) {
	return OpenFile(path)
}

// OpenSentences implements Corpus.
func (a *Archives) OpenSentences(doc string, side Side) (io.ReadCloser, error) {
	if a.closed {
		return nil, errors.NewIO("open", doc, errors.New("corpus is closed"))
	}
	store := a.stores[side]
	if store == nil {
		return nil, errors.NewNotFound(side.String()+" archive", doc)
	}
	for _, name := range memberCandidates(doc, a.prefix) {
		if !store.Has(name) {
			continue
		}
		rc, err := store.Open(name)
		if err != nil {
			return nil, err
		}
		return Decompress(name, rc)
	}
	return nil, &errors.NotFoundError{
		Resource: side.String() + " document",
		ID:       doc,
		Err:      errors.Wrapf(errors.ErrNotFound, "not in %s", store.Path()),
	}
}

// Close closes both stores once.
func (a *Archives) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	var first error
	for i, s := range a.stores {
		if s == nil || (i == 1 && s == a.stores[0]) {
			continue
		}
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Swap returns a Corpus whose sides are exchanged.
func Swap(c Corpus) Corpus {
	if s, ok := c.(swapped); ok {
		return s.Corpus
	}
	return swapped{c}
}

type swapped struct {
	Corpus
}

func (s swapped) OpenSentences(doc string, side Side) (io.ReadCloser, error) {
	return s.Corpus.OpenSentences(doc, 1-side)
}

// Prefix returns the conventional member prefix of a corpus archive.
func Prefix(corpus, preprocess string) string {
	if corpus == "" {
		return ""
	}
	return strings.Join([]string{corpus, preprocess}, "/")
}
