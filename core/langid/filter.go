package langid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/sentences"
	"github.com/FocuswithJustin/opusread/core/tagstream"
)

// Filter requires a language code with at least the given confidence.
type Filter struct {
	Code      string
	Threshold float64
}

func (f Filter) String() string {
	return fmt.Sprintf("%s:%g", f.Code, f.Threshold)
}

// Accept reports whether r satisfies the filter.
func (f Filter) Accept(r Result) bool {
	return r.Code == f.Code && r.Confidence >= f.Threshold
}

// filterGrammar is the participle grammar for language filters.
// Examples: "en", "en:0.9", "de 0.5"
//
//nolint:govet // participle grammar tags are not standard struct tags
type filterGrammar struct {
	Code      string   `@Ident`
	Threshold *float64 `( ( ":" | "," )? @Number )?`
}

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[0-9]*\.?[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z_-]*`},
	{Name: "Punct", Pattern: `[:,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var filterParser = participle.MustBuild[filterGrammar](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
)

// ParseFilter parses a language filter. An empty spec yields nil. A missing
// threshold means any confidence is accepted.
func ParseFilter(spec string) (*Filter, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	parsed, err := filterParser.ParseString("", spec)
	if err != nil {
		return nil, &errors.ParseError{Format: "language filter", Message: fmt.Sprintf("%q: %v", spec, err), Err: err}
	}
	f := &Filter{Code: parsed.Code}
	if parsed.Threshold != nil {
		f.Threshold = *parsed.Threshold
	}
	if f.Threshold > 1 {
		return nil, errors.NewParse("language filter", "", fmt.Sprintf("%q: threshold must be within [0, 1]", spec))
	}
	return f, nil
}

// SideFilters holds the filter of each classifier slot for one side.
type SideFilters [2]*Filter

// Check applies language filters to both sides of a link.
//
// Results are read from the sentence attributes of each slot. When an
// attribute is missing and the slot has a classifier, the sentence text is
// classified instead; otherwise the sentence fails the filter.
type Check struct {
	Source      SideFilters
	Target      SideFilters
	Classifiers Classifiers
}

// Active reports whether any filter is set.
func (c Check) Active() bool {
	for slot := range c.Source {
		if c.Source[slot] != nil || c.Target[slot] != nil {
			return true
		}
	}
	return false
}

// Swapped exchanges the source and target filters.
func (c Check) Swapped() Check {
	c.Source, c.Target = c.Target, c.Source
	return c
}

// Reject reports whether any sentence on either side fails a filter.
func (c Check) Reject(src, trg []sentences.Sentence) bool {
	return !c.accept(c.Source, src) || !c.accept(c.Target, trg)
}

func (c Check) accept(filters SideFilters, ss []sentences.Sentence) bool {
	for slot, f := range filters {
		if f == nil {
			continue
		}
		for _, s := range ss {
			if !f.Accept(c.detected(slot, s)) {
				return false
			}
		}
	}
	return true
}

func (c Check) detected(slot int, s sentences.Sentence) Result {
	names := SlotAttrs[slot]
	code, ok := s.Attrs.Get(names.Code)
	if !ok {
		if c.Classifiers[slot] != nil {
			return Classify(c.Classifiers[slot], s.Text)
		}
		return Result{}
	}
	conf, err := strconv.ParseFloat(s.Attrs.Value(names.Confidence), 64)
	if err != nil {
		conf = 0
	}
	return Result{Code: code, Confidence: conf}
}

// Annotate returns attrs with the result of each configured slot set.
// Confidences are rounded to two decimals.
func (c Classifiers) Annotate(text string, attrs tagstream.Attributes) tagstream.Attributes {
	for slot, cl := range c {
		if cl == nil {
			continue
		}
		r := Classify(cl, text)
		names := SlotAttrs[slot]
		attrs = attrs.With(names.Code, r.Code)
		attrs = attrs.With(names.Confidence, strconv.FormatFloat(r.Confidence, 'f', 2, 64))
	}
	return attrs
}
