// Package archive provides access to corpus files: alignment files,
// sentence-document archives (zip, tar.gz, tar.xz, tar.zst or plain directories)
// and the default paths of an installed corpus.
package archive

import (
	"archive/tar"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/opusread/core/errors"
)

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	file         *os.File
	decompressor io.Closer
}

// IsTar reports whether path names a compressed tar archive.
func IsTar(path string) bool {
	return strings.HasSuffix(path, ".tar.gz") ||
		strings.HasSuffix(path, ".tgz") ||
		strings.HasSuffix(path, ".tar.xz") ||
		strings.HasSuffix(path, ".tar.zst")
}

// NewReader creates a new archive reader for the given path.
// It handles .tar.gz, .tgz, .tar.xz and .tar.zst compression.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	var reader io.Reader
	var decompressor io.Closer

	switch {
	case strings.HasSuffix(path, ".tar.xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &errors.ParseError{Format: "xz", Path: path, Message: err.Error(), Err: err}
		}
		reader = xzr
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		gzr, err := pgzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &errors.ParseError{Format: "gzip", Path: path, Message: err.Error(), Err: err}
		}
		reader = gzr
		decompressor = gzr
	case strings.HasSuffix(path, ".tar.zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &errors.ParseError{Format: "zstd", Path: path, Message: err.Error(), Err: err}
		}
		reader = zr
		decompressor = zstdCloser{zr}
	default:
		f.Close()
		return nil, errors.NewUnsupported("archive format", path)
	}

	return &Reader{
		Reader:       tar.NewReader(reader),
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the archive reader and any underlying decompressors.
func (r *Reader) Close() error {
	var first error
	if r.decompressor != nil {
		first = r.decompressor.Close()
	}
	if err := r.file.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through the regular files of the archive, calling the
// visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read tar header")
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateTar opens an archive and iterates through its entries.
func IterateTar(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// ReadFile reads the member called name from the archive at archivePath.
func ReadFile(archivePath, name string) ([]byte, error) {
	var content []byte
	found := false
	err := IterateTar(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		if strings.TrimPrefix(header.Name, "./") != name {
			return false, nil
		}
		found = true
		var err error
		content, err = io.ReadAll(r)
		return true, err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFound("archive member", name)
	}
	return content, nil
}
