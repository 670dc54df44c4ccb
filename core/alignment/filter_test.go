package alignment

import (
	"errors"
	"testing"

	apperrors "github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/tagstream"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		spec    string
		want    Range
		wantErr bool
	}{
		{"all", AllRange, false},
		{"", AllRange, false},
		{"1", Range{Min: 1, Max: 1}, false},
		{"0-2", Range{Min: 0, Max: 2}, false},
		{" 1 - 3 ", Range{Min: 1, Max: 3}, false},
		{"3-1", Range{}, true},
		{"1-", Range{}, true},
		{"some", Range{}, true},
		{"-2", Range{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseRange(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRange(%q) should fail", tt.spec)
				}
				if !errors.Is(err, apperrors.ErrInvalidInput) {
					t.Errorf("error should be a ParseError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange(%q) error: %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("ParseRange(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestRangeString(t *testing.T) {
	for spec, want := range map[string]string{"all": "all", "2": "2", "1-3": "1-3"} {
		r, err := ParseRange(spec)
		if err != nil {
			t.Fatal(err)
		}
		if r.String() != want {
			t.Errorf("String() = %q, want %q", r.String(), want)
		}
	}
}

func TestRangeFilterPerSide(t *testing.T) {
	f := RangeFilter{Source: Range{Min: 1, Max: 1}, Target: AllRange}

	tests := []struct {
		name string
		src  []string
		trg  []string
		want bool
	}{
		{"in range", []string{"s1"}, []string{"t1", "t2", "t3"}, false},
		{"source too many", []string{"s1", "s2"}, []string{"t1"}, true},
		{"source empty", nil, []string{"t1"}, true},
		{"target unrestricted", []string{"s1"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Reject(tt.src, tt.trg, nil); got != tt.want {
				t.Errorf("Reject() = %v, want %v", got, tt.want)
			}
		})
	}

	g := RangeFilter{Source: AllRange, Target: Range{Min: 2, Max: 3}}
	if !g.Reject([]string{"s1"}, []string{"t1"}, nil) {
		t.Error("target side below range should be rejected")
	}
	if g.Reject([]string{"s1"}, []string{"t1", "t2"}, nil) {
		t.Error("target side in range should pass")
	}
}

func TestAttributeFilter(t *testing.T) {
	f := AttributeFilter{Name: "certainty", Threshold: 0.5}
	attrs := func(v string) tagstream.Attributes {
		return tagstream.Attributes{{Name: "certainty", Value: v}}
	}

	if f.Reject(nil, nil, attrs("0.5")) {
		t.Error("score equal to threshold should pass")
	}
	if !f.Reject(nil, nil, attrs("0.49")) {
		t.Error("score below threshold should be rejected")
	}
	if !f.Reject(nil, nil, tagstream.Attributes{{Name: "overlap", Value: "1"}}) {
		t.Error("missing attribute should be rejected")
	}
	if !f.Reject(nil, nil, attrs("high")) {
		t.Error("non-numeric score should be rejected")
	}
}

func TestNonAlignmentFilter(t *testing.T) {
	var f NonAlignmentFilter
	if !f.Reject(nil, []string{"t1"}, nil) || !f.Reject([]string{"s1"}, nil, nil) {
		t.Error("empty side should be rejected")
	}
	if f.Reject([]string{"s1"}, []string{"t1"}, nil) {
		t.Error("aligned link should pass")
	}
}

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name    string
		cfg     FilterConfig
		want    int
		wantErr bool
	}{
		{"nothing", FilterConfig{SourceRange: "all", TargetRange: "all"}, 0, false},
		{"attribute without threshold", FilterConfig{Attribute: "certainty"}, 0, false},
		{"range", FilterConfig{SourceRange: "1-2", TargetRange: "all"}, 1, false},
		{"everything", FilterConfig{SourceRange: "1", TargetRange: "1", Attribute: "c", Threshold: "0.1", LeaveNonAlignmentsOut: true}, 3, false},
		{"bad threshold", FilterConfig{Attribute: "c", Threshold: "high"}, 0, true},
		{"bad range", FilterConfig{SourceRange: "x-y"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := BuildFilters(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(chain) != tt.want {
				t.Errorf("len(chain) = %d, want %d", len(chain), tt.want)
			}
		})
	}
}
