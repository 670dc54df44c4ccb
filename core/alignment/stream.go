package alignment

import (
	"io"

	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/tagstream"
)

// Stream yields filtered link groups from an alignment file in a single
// forward pass.
type Stream struct {
	name    string
	units   *tagstream.Grouper
	filters Filter
	groups  int
}

// NewStream reads groups from r, dropping links rejected by filters.
func NewStream(r io.Reader, filters ...Filter) *Stream {
	return NewNamedStream("", r, filters...)
}

// NewNamedStream is NewStream with a file name for error messages.
func NewNamedStream(name string, r io.Reader, filters ...Filter) *Stream {
	return &Stream{
		name:    name,
		units:   tagstream.NewGrouper(tagstream.NewNamedParser(name, r), GroupTag),
		filters: Chain(filters),
	}
}

// Groups returns the number of groups read so far.
func (s *Stream) Groups() int {
	return s.groups
}

// Next returns the next link group, or io.EOF once the file is exhausted.
// A ParseError leaves the stream failed; the caller decides whether the
// run continues.
func (s *Stream) Next() (*Group, error) {
	grp := newGroup()
	err := s.units.Walk(func(b tagstream.Block) error {
		if !b.Close {
			return nil
		}
		switch b.Name {
		case LinkTag:
			link, err := ParseLink(b.Attrs)
			if err != nil {
				var pe *errors.ParseError
				if errors.As(err, &pe) {
					pe.Path = s.name
				}
				return err
			}
			if s.filters.Reject(link.SourceIDs, link.TargetIDs, link.Attrs) {
				grp.Rejected++
				return nil
			}
			grp.keep(link)
		case GroupTag:
			grp.SourceDoc = b.Attrs.Value("fromDoc")
			grp.TargetDoc = b.Attrs.Value("toDoc")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.groups++
	return grp, nil
}
