// Package alignment reads XCES alignment files one link group at a time.
//
// A link group (linkGrp) pairs one source document with one target document
// and lists links whose xtargets attribute names the aligned sentence ids on
// each side ("s1 s2;t1"). Links are filtered as they are read; only the
// survivors of the current group are kept in memory.
package alignment

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/tagstream"
)

// Tag names of the alignment format.
const (
	GroupTag = "linkGrp"
	LinkTag  = "link"
)

// IDSet is a deduplicating set of sentence ids.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	s.Add(ids...)
	return s
}

// Add inserts ids.
func (s IDSet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids.
func (s IDSet) Len() int {
	return len(s)
}

// Sorted returns the ids in lexical order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Link is one correspondence between source and target sentence ids.
type Link struct {
	Attrs     tagstream.Attributes
	SourceIDs []string
	TargetIDs []string
}

// ParseLink derives the id lists of a link from its xtargets attribute.
func ParseLink(attrs tagstream.Attributes) (Link, error) {
	xt, ok := attrs.Get("xtargets")
	if !ok {
		return Link{}, errors.NewParse("alignment", "", "link without xtargets attribute")
	}
	src, trg, ok := strings.Cut(xt, ";")
	if !ok || strings.Contains(trg, ";") {
		return Link{}, errors.NewParse("alignment", "", "malformed xtargets "+`"`+xt+`"`)
	}
	return Link{
		Attrs:     attrs,
		SourceIDs: strings.Fields(src),
		TargetIDs: strings.Fields(trg),
	}, nil
}

// XTargets returns the xtargets value.
func (l Link) XTargets() string {
	return strings.Join(l.SourceIDs, " ") + ";" + strings.Join(l.TargetIDs, " ")
}

// Swapped returns the link with sides exchanged, xtargets rewritten to match.
func (l Link) Swapped() Link {
	out := Link{SourceIDs: l.TargetIDs, TargetIDs: l.SourceIDs}
	out.Attrs = l.Attrs.With("xtargets", out.XTargets())
	return out
}

// Group is the filtered content of one linkGrp.
type Group struct {
	SourceDoc string
	TargetDoc string
	Links     []Link
	SourceIDs IDSet
	TargetIDs IDSet

	// Rejected counts links dropped by the filter chain.
	Rejected int
}

func newGroup() *Group {
	return &Group{SourceIDs: NewIDSet(), TargetIDs: NewIDSet()}
}

func (g *Group) keep(l Link) {
	g.Links = append(g.Links, l)
	g.SourceIDs.Add(l.SourceIDs...)
	g.TargetIDs.Add(l.TargetIDs...)
}
