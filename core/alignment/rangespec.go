package alignment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/opusread/core/errors"
)

// Range is an inclusive bound on the number of ids on one side of a link.
type Range struct {
	All bool
	Min int
	Max int
}

// AllRange accepts any number of ids.
var AllRange = Range{All: true}

// Contains reports whether n ids fall inside the range.
func (r Range) Contains(n int) bool {
	return r.All || (n >= r.Min && n <= r.Max)
}

func (r Range) String() string {
	switch {
	case r.All:
		return "all"
	case r.Min == r.Max:
		return strconv.Itoa(r.Min)
	default:
		return fmt.Sprintf("%d-%d", r.Min, r.Max)
	}
}

// rangeGrammar is the participle grammar for id-count ranges.
// Examples: "all", "1", "0-2"
//
//nolint:govet // participle grammar tags are not standard struct tags
type rangeGrammar struct {
	All  bool `  @"all"`
	Low  *int `| @Int`
	High *int `  ( "-" @Int )?`
}

var rangeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[a-z]+`},
	{Name: "Punct", Pattern: `-`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var rangeParser = participle.MustBuild[rangeGrammar](
	participle.Lexer(rangeLexer),
	participle.Elide("Whitespace"),
)

// ParseRange parses a range spec. An empty spec means "all".
func ParseRange(spec string) (Range, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return AllRange, nil
	}
	parsed, err := rangeParser.ParseString("", spec)
	if err != nil {
		return Range{}, &errors.ParseError{Format: "range", Message: fmt.Sprintf("%q: %v", spec, err), Err: err}
	}
	if parsed.All {
		return AllRange, nil
	}
	r := Range{Min: *parsed.Low, Max: *parsed.Low}
	if parsed.High != nil {
		r.Max = *parsed.High
	}
	if r.Min > r.Max {
		return Range{}, errors.NewParse("range", "", fmt.Sprintf("%q: lower bound exceeds upper bound", spec))
	}
	return r, nil
}
