package alignment

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/tagstream"
)

// Filter flags links that must not be emitted.
type Filter interface {
	Reject(src, trg []string, attrs tagstream.Attributes) bool
}

// Chain rejects a link when any of its filters does.
type Chain []Filter

// Reject implements Filter.
func (c Chain) Reject(src, trg []string, attrs tagstream.Attributes) bool {
	for _, f := range c {
		if f.Reject(src, trg, attrs) {
			return true
		}
	}
	return false
}

// RangeFilter rejects links whose id counts fall outside the ranges,
// checked independently per side.
type RangeFilter struct {
	Source Range
	Target Range
}

// Reject implements Filter.
func (f RangeFilter) Reject(src, trg []string, _ tagstream.Attributes) bool {
	return !f.Source.Contains(len(src)) || !f.Target.Contains(len(trg))
}

// AttributeFilter rejects links lacking the attribute or scoring below
// the threshold.
type AttributeFilter struct {
	Name      string
	Threshold float64
}

// Reject implements Filter.
func (f AttributeFilter) Reject(_, _ []string, attrs tagstream.Attributes) bool {
	raw, ok := attrs.Get(f.Name)
	if !ok {
		return true
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return true
	}
	return score < f.Threshold
}

// NonAlignmentFilter rejects links with no ids on either side.
type NonAlignmentFilter struct{}

// Reject implements Filter.
func (NonAlignmentFilter) Reject(src, trg []string, _ tagstream.Attributes) bool {
	return len(src) == 0 || len(trg) == 0
}

// FilterConfig describes the filters of one run, in alignment-file side
// order.
type FilterConfig struct {
	SourceRange           string
	TargetRange           string
	Attribute             string
	Threshold             string
	LeaveNonAlignmentsOut bool
}

// BuildFilters constructs the filter chain once per run. A range filter is
// added only when at least one side is restricted, an attribute filter only
// when both the attribute and its threshold are given.
func BuildFilters(cfg FilterConfig) (Chain, error) {
	var chain Chain

	src, err := ParseRange(cfg.SourceRange)
	if err != nil {
		return nil, errors.Wrap(err, "source range")
	}
	trg, err := ParseRange(cfg.TargetRange)
	if err != nil {
		return nil, errors.Wrap(err, "target range")
	}
	if !src.All || !trg.All {
		chain = append(chain, RangeFilter{Source: src, Target: trg})
	}

	if cfg.Attribute != "" && cfg.Threshold != "" {
		threshold, err := strconv.ParseFloat(cfg.Threshold, 64)
		if err != nil {
			return nil, errors.NewValidation("threshold", cfg.Threshold, "not a number")
		}
		chain = append(chain, AttributeFilter{Name: cfg.Attribute, Threshold: threshold})
	}

	if cfg.LeaveNonAlignmentsOut {
		chain = append(chain, NonAlignmentFilter{})
	}
	return chain, nil
}
