package xml

import (
	"errors"
	"testing"

	apperrors "github.com/FocuswithJustin/opusread/core/errors"
)

const tmxDoc = `<?xml version="1.0" encoding="utf-8"?>
<tmx version="1.4.">
<header srclang="en"
	adminlang="en"
	segtype="sentence"
	datatype="PlainText" />
	<body>
		<tu>
			<tuv xml:lang="en"><seg>Hello .</seg></tuv>
			<tuv xml:lang="fi"><seg>Hei .</seg></tuv>
		</tu>
		<tu>
			<tuv xml:lang="en"><seg>A &amp; B</seg></tuv>
			<tuv xml:lang="fi"><seg>A ja B</seg></tuv>
		</tu>
	</body>
</tmx>
`

func TestParseInvalidXML(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"unclosed tag", "<root><element></root>"},
		{"mismatched tags", "<root></other>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.xml))
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("Parse() error = %v, want parse error", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if r := Validate([]byte(tmxDoc)); !r.Valid {
		t.Errorf("TMX document should be valid: %v", r.Errors)
	}

	r := Validate([]byte("<a>\n<b>\n</a>"))
	if r.Valid {
		t.Fatal("mismatched tags should be invalid")
	}
	if len(r.Errors) != 1 || r.Errors[0].Line != 3 {
		t.Errorf("Errors = %+v, want one error on line 3", r.Errors)
	}
}

func TestValidateRejectsUnknownEntities(t *testing.T) {
	r := Validate([]byte(`<a>&custom;</a>`))
	if r.Valid {
		t.Error("undeclared entity should be invalid")
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		expr string
		want int
	}{
		{"//tu", 2},
		{"//tuv", 4},
		{"/tmx/header[@srclang='en']", 1},
		{"//link", 0},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Count([]byte(tmxDoc), tt.expr)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Count(%q) = %d, want %d", tt.expr, got, tt.want)
			}
		})
	}

	if _, err := Count([]byte(tmxDoc), "//[bad"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("bad xpath error = %v", err)
	}
}

func TestDocumentNavigation(t *testing.T) {
	doc, err := Parse([]byte(tmxDoc))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Root().Name() != "tmx" {
		t.Errorf("Root() = %q", doc.Root().Name())
	}

	seg, err := doc.XPathFirst("//tu[2]/tuv[1]/seg")
	if err != nil || seg == nil {
		t.Fatalf("XPathFirst() = %v, %v", seg, err)
	}
	if seg.Text() != "A & B" {
		t.Errorf("Text() = %q", seg.Text())
	}

	tus, _ := doc.XPath("//tu")
	if tuvs := tus[0].Children(); len(tuvs) != 2 {
		t.Errorf("tuv children = %d, want 2", len(tuvs))
	}
	header, _ := doc.XPathFirst("/tmx/header")
	if header.Attr("segtype") != "sentence" {
		t.Errorf("segtype = %q", header.Attr("segtype"))
	}

	none, err := doc.XPathFirst("//link")
	if err != nil || none != nil {
		t.Errorf("XPathFirst() on no match = %v, %v", none, err)
	}
}
