package archive

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/opusread/core/errors"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// OpenFile opens a possibly compressed file. Gzip, xz and zstd are
// recognised by their magic numbers, so an uncompressed file named *.gz
// still opens.
func OpenFile(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "file", ID: path, Err: err}
		}
		return nil, errors.NewIO("open", path, err)
	}
	rc, err := Decompress(path, fh)
	if err != nil {
		fh.Close()
		return nil, err
	}
	return rc, nil
}

// Decompress wraps rc in a decompressor chosen by the leading bytes of the
// stream. Closing the result closes rc.
func Decompress(name string, rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	sig, _ := br.Peek(len(xzMagic))

	switch {
	case bytes.HasPrefix(sig, gzipMagic):
		gr, err := pgzip.NewReader(br)
		if err != nil {
			return nil, &errors.ParseError{Format: "gzip", Path: name, Message: err.Error(), Err: err}
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, rc}}, nil
	case bytes.HasPrefix(sig, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, &errors.ParseError{Format: "xz", Path: name, Message: err.Error(), Err: err}
		}
		return &multiReadCloser{Reader: xr, closers: []io.Closer{rc}}, nil
	case bytes.HasPrefix(sig, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, &errors.ParseError{Format: "zstd", Path: name, Message: err.Error(), Err: err}
		}
		return &multiReadCloser{Reader: zr, closers: []io.Closer{zstdCloser{zr}, rc}}, nil
	default:
		return &multiReadCloser{Reader: br, closers: []io.Closer{rc}}, nil
	}
}

// memberCandidates lists the member names a document may be stored under:
// the name as given and without a .gz suffix, each optionally below prefix.
func memberCandidates(doc, prefix string) []string {
	names := []string{doc}
	if trimmed := strings.TrimSuffix(doc, ".gz"); trimmed != doc {
		names = append(names, trimmed)
	}
	if prefix == "" {
		return names
	}
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	out := make([]string, 0, 2*len(names))
	for _, n := range names {
		out = append(out, prefix+n)
	}
	return append(out, names...)
}

// zstdCloser adapts zstd.Decoder, whose Close returns nothing.
type zstdCloser struct {
	d *zstd.Decoder
}

func (c zstdCloser) Close() error {
	c.d.Close()
	return nil
}
