package output

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/klauspost/pgzip"

	"github.com/FocuswithJustin/opusread/core/alignment"
	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/sentences"
	"github.com/FocuswithJustin/opusread/core/sqlite"
	"github.com/FocuswithJustin/opusread/core/tagstream"
	"github.com/FocuswithJustin/opusread/core/xml"
)

func testPair(t *testing.T) Pair {
	t.Helper()
	link, err := alignment.ParseLink(tagstream.Attributes{
		{Name: "id", Value: "l1"},
		{Name: "xtargets", Value: "s1 s2;t1"},
		{Name: "certainty", Value: "0.9"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return Pair{
		SourceDoc: "en/1.xml.gz",
		TargetDoc: "fr/1.xml.gz",
		Link:      link,
		Source:    []sentences.Sentence{{ID: "s1", Text: "Hello ."}, {ID: "s2", Text: "World ."}},
		Target:    []sentences.Sentence{{ID: "t1", Text: "Bonjour ."}},
	}
}

// render drives f through one document holding pairs.
func render(t *testing.T, f Formatter, pairs ...Pair) {
	t.Helper()
	steps := []func() error{f.Header, func() error { return f.BeginDocument(pairs[0].SourceDoc, pairs[0].TargetDoc) }}
	for _, p := range pairs {
		p := p
		steps = append(steps, func() error { return f.WritePair(p) })
	}
	steps = append(steps, f.EndDocument, f.Footer)
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("formatter step failed: %v", err)
		}
	}
}

func TestParseMode(t *testing.T) {
	for i, name := range []string{"normal", "moses", "tmx", "links"} {
		m, err := ParseMode(name)
		if err != nil || m != Mode(i) || m.String() != name {
			t.Errorf("ParseMode(%q) = %v, %v", name, m, err)
		}
	}
	if _, err := ParseMode("csv"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("ParseMode(csv) error = %v", err)
	}
	if ModeLinks.NeedsSentences() || !ModeTMX.NeedsSentences() {
		t.Error("NeedsSentences() wrong")
	}
}

func TestNormalFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(ModeNormal, []io.Writer{&buf}, FormatOptions{})
	if err != nil {
		t.Fatal(err)
	}
	render(t, f, testPair(t))

	want := "\n# en/1.xml.gz\n# fr/1.xml.gz\n" +
		"\n================================" +
		"\n(src)=\"s1\">Hello ." +
		"\n(src)=\"s2\">World ." +
		"\n(trg)=\"t1\">Bonjour ." +
		"\n================================\n"
	if buf.String() != want {
		t.Errorf("output = %q\nwant %q", buf.String(), want)
	}
}

func TestMosesOneFile(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(ModeMoses, []io.Writer{&buf}, FormatOptions{})
	if err != nil {
		t.Fatal(err)
	}
	render(t, f, testPair(t))

	want := "\n<fromDoc>en/1.xml.gz</fromDoc>\n<toDoc>fr/1.xml.gz</toDoc>\n\n" +
		"Hello . World .\tBonjour .\n"
	if buf.String() != want {
		t.Errorf("output = %q\nwant %q", buf.String(), want)
	}
}

func TestMosesTwoFilesAndDelimiter(t *testing.T) {
	var src, trg bytes.Buffer
	f, err := NewFormatter(ModeMoses, []io.Writer{&src, &trg}, FormatOptions{MosesDelimiter: " ||| "})
	if err != nil {
		t.Fatal(err)
	}
	render(t, f, testPair(t))

	if want := "\n<fromDoc>en/1.xml.gz</fromDoc>\n\nHello . World .\n"; src.String() != want {
		t.Errorf("source file = %q, want %q", src.String(), want)
	}
	if want := "\n<toDoc>fr/1.xml.gz</toDoc>\n\nBonjour .\n"; trg.String() != want {
		t.Errorf("target file = %q, want %q", trg.String(), want)
	}

	var one bytes.Buffer
	f, _ = NewFormatter(ModeMoses, []io.Writer{&one}, FormatOptions{MosesDelimiter: " ||| "})
	if err := f.WritePair(testPair(t)); err != nil {
		t.Fatal(err)
	}
	if one.String() != "Hello . World . ||| Bonjour .\n" {
		t.Errorf("custom delimiter = %q", one.String())
	}
}

func TestTMXFormatter(t *testing.T) {
	p := testPair(t)
	p.Target = []sentences.Sentence{{ID: "t1", Text: `"Tom & Jerry" <b>`}}

	var buf bytes.Buffer
	f, err := NewFormatter(ModeTMX, []io.Writer{&buf}, FormatOptions{SourceLang: "en", TargetLang: "fr"})
	if err != nil {
		t.Fatal(err)
	}
	render(t, f, p)

	out := buf.String()
	wantHeader := "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<tmx version=\"1.4.\">\n<header srclang=\"en\"\n\tadminlang=\"en\"\n\tsegtype=\"sentence\"\n\tdatatype=\"PlainText\" />\n\t<body>\n"
	if !strings.HasPrefix(out, wantHeader) {
		t.Errorf("header = %q", out)
	}
	wantTU := "\t\t<tu>\n\t\t\t<tuv xml:lang=\"en\"><seg>Hello . World .</seg></tuv>\n" +
		"\t\t\t<tuv xml:lang=\"fr\"><seg>&quot;Tom &amp; Jerry&quot; &lt;b&gt;</seg></tuv>\n\t\t</tu>\n"
	if !strings.Contains(out, wantTU) {
		t.Errorf("tu = %q", out)
	}
	if !strings.HasSuffix(out, "\t</body>\n</tmx>\n") {
		t.Errorf("footer = %q", out)
	}

	if r := xml.Validate(buf.Bytes()); !r.Valid {
		t.Fatalf("TMX output is not well-formed: %v", r.Errors)
	}
	if n, err := xml.Count(buf.Bytes(), "//tu"); err != nil || n != 1 {
		t.Errorf("tu count = %d, %v", n, err)
	}
}

func TestLinksFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(ModeLinks, []io.Writer{&buf}, FormatOptions{})
	if err != nil {
		t.Fatal(err)
	}
	render(t, f, testPair(t))

	want := "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n" +
		"<!DOCTYPE cesAlign PUBLIC \"-//CES//DTD XML cesAlign//EN\" \"\">\n" +
		"<cesAlign version=\"1.0\">\n" +
		" <linkGrp targType=\"s\" fromDoc=\"en/1.xml.gz\" toDoc=\"fr/1.xml.gz\">\n" +
		"  <link id=\"l1\" xtargets=\"s1 s2;t1\" certainty=\"0.9\" />\n" +
		" </linkGrp>\n" +
		"</cesAlign>\n"
	if buf.String() != want {
		t.Errorf("output = %q\nwant %q", buf.String(), want)
	}
	if n, err := xml.Count(buf.Bytes(), "//link"); err != nil || n != 1 {
		t.Errorf("link count = %d, %v", n, err)
	}
}

func TestNewFormatterTargets(t *testing.T) {
	two := []io.Writer{io.Discard, io.Discard}
	for _, mode := range []Mode{ModeNormal, ModeTMX, ModeLinks} {
		if _, err := NewFormatter(mode, two, FormatOptions{}); !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("%s with two targets: error = %v", mode, err)
		}
	}
	if _, err := NewFormatter(ModeMoses, nil, FormatOptions{}); err == nil {
		t.Error("no targets should be rejected")
	}
}

func TestPairSwapped(t *testing.T) {
	p := testPair(t).Swapped()
	if p.SourceDoc != "fr/1.xml.gz" || p.TargetDoc != "en/1.xml.gz" {
		t.Errorf("docs = %s, %s", p.SourceDoc, p.TargetDoc)
	}
	if len(p.Source) != 1 || p.Source[0].ID != "t1" || len(p.Target) != 2 {
		t.Errorf("sentences not swapped: %+v", p)
	}
	if p.Link.Attrs.Value("xtargets") != "t1;s1 s2" {
		t.Errorf("xtargets = %q", p.Link.Attrs.Value("xtargets"))
	}
	if p.Link.Attrs.Value("certainty") != "0.9" || p.Link.Attrs.Names()[0] != "id" {
		t.Error("other attributes should be kept in order")
	}
	back := p.Swapped()
	if back.Link.Attrs.Value("xtargets") != "s1 s2;t1" || back.SourceDoc != "en/1.xml.gz" {
		t.Error("swapping twice should restore the pair")
	}
}

func TestSinkGzipAndDigest(t *testing.T) {
	dir := t.TempDir()
	const content = "Hello .\tBonjour .\n"

	digests := make([]string, 0, 2)
	for _, name := range []string{"a.txt.gz", "b.txt"} {
		path := filepath.Join(dir, name)
		s, err := OpenSink(path, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.WriteString(content); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close() error: %v", err)
		}
		digests = append(digests, s.Digest())
	}
	if digests[0] == "" || digests[0] != digests[1] {
		t.Errorf("digests of equal content differ: %v", digests)
	}

	f, err := os.Open(filepath.Join(dir, "a.txt.gz"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zr, err := pgzip.NewReader(f)
	if err != nil {
		t.Fatalf("output is not gzip: %v", err)
	}
	data, _ := io.ReadAll(zr)
	if string(data) != content {
		t.Errorf("decompressed = %q", data)
	}
}

func TestSinkConsole(t *testing.T) {
	var console bytes.Buffer
	s, err := OpenSink("", &console)
	if err != nil {
		t.Fatal(err)
	}
	s.WriteString("pair\n")
	if console.Len() != 0 {
		t.Error("console output should be buffered until flush")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if console.String() != "pair\n" || s.Digest() != "" || s.Path() != "" {
		t.Errorf("console sink: %q digest=%q", console.String(), s.Digest())
	}
}

func TestIsBrokenPipe(t *testing.T) {
	if !IsBrokenPipe(errors.Wrap(syscall.EPIPE, "write")) || !IsBrokenPipe(io.ErrClosedPipe) {
		t.Error("pipe errors should be detected")
	}
	if IsBrokenPipe(nil) || IsBrokenPipe(io.EOF) {
		t.Error("other errors are not broken pipes")
	}
}

func TestTextIDLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	log, err := OpenIDLog(path, "certainty")
	if err != nil {
		t.Fatal(err)
	}
	p := testPair(t)
	if err := log.Record(p); err != nil {
		t.Fatal(err)
	}
	p.Link.Attrs = tagstream.Attributes{{Name: "xtargets", Value: "s1 s2;t1"}}
	if err := log.Record(p); err != nil {
		t.Fatal(err)
	}
	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "en/1.xml.gz\tfr/1.xml.gz\ts1 s2\tt1\t0.9\n" +
		"en/1.xml.gz\tfr/1.xml.gz\ts1 s2\tt1\tnone\n"
	if string(data) != want {
		t.Errorf("id-log = %q\nwant %q", data, want)
	}
}

func TestSQLiteIDLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.db")
	if !IsDatabase(path) || IsDatabase("ids.txt") {
		t.Fatal("IsDatabase() wrong")
	}
	log, err := OpenIDLog(path, "certainty")
	if err != nil {
		t.Fatalf("OpenIDLog() error: %v", err)
	}
	p := testPair(t)
	if err := log.Record(p); err != nil {
		t.Fatal(err)
	}
	if err := log.Record(p.Swapped()); err != nil {
		t.Fatal(err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	db, err := sqlite.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT source_doc, source_ids, target_ids, value FROM pairs ORDER BY id`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	var got []string
	for rows.Next() {
		var doc, src, trg, value string
		if err := rows.Scan(&doc, &src, &trg, &value); err != nil {
			t.Fatal(err)
		}
		got = append(got, strings.Join([]string{doc, src, trg, value}, "|"))
	}
	want := []string{"en/1.xml.gz|s1 s2|t1|0.9", "fr/1.xml.gz|t1|s1 s2|0.9"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("rows = %v, want %v", got, want)
	}
}
