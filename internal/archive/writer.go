package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/internal/validation"
)

// Writer creates an archive member by member. Members are written in the
// order Create is called.
type Writer interface {
	// Create starts a new member; the previous member is finished.
	Create(name string) (io.Writer, error)
	Close() error
}

// CreateArchive creates an archive of the kind its path names: .zip,
// .tar.gz/.tgz, .tar.xz, .tar.zst, or otherwise a directory. Parent directories are
// created.
func CreateArchive(path string) (Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewIO("mkdir", filepath.Dir(path), err)
	}
	switch {
	case strings.HasSuffix(path, ".zip"):
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.NewIO("create", path, err)
		}
		return &zipWriter{file: f, zw: zip.NewWriter(f)}, nil
	case IsTar(path):
		return createTar(path)
	default:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, errors.NewIO("mkdir", path, err)
		}
		return &dirWriter{root: path}, nil
	}
}

type zipWriter struct {
	file *os.File
	zw   *zip.Writer
}

func (w *zipWriter) Create(name string) (io.Writer, error) {
	return w.zw.Create(name)
}

func (w *zipWriter) Close() error {
	err := w.zw.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// tarWriter buffers each member since tar headers carry the size up front.
type tarWriter struct {
	file       *os.File
	compressor io.WriteCloser
	tw         *tar.Writer
	name       string
	buf        bytes.Buffer
	modTime    time.Time
}

func createTar(path string) (*tarWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.NewIO("create", path, err)
	}
	var compressor io.WriteCloser
	switch {
	case strings.HasSuffix(path, ".tar.xz"):
		compressor, err = xz.NewWriter(f)
	case strings.HasSuffix(path, ".tar.zst"):
		compressor, err = zstd.NewWriter(f)
	default:
		compressor = pgzip.NewWriter(f)
	}
	if err != nil {
		f.Close()
		return nil, errors.NewIO("create", path, err)
	}
	return &tarWriter{
		file:       f,
		compressor: compressor,
		tw:         tar.NewWriter(compressor),
		modTime:    time.Now(),
	}, nil
}

func (w *tarWriter) flush() error {
	if w.name == "" {
		return nil
	}
	header := &tar.Header{
		Name:     w.name,
		Mode:     0o644,
		Size:     int64(w.buf.Len()),
		ModTime:  w.modTime,
		Typeflag: tar.TypeReg,
	}
	if err := w.tw.WriteHeader(header); err != nil {
		return err
	}
	if _, err := w.tw.Write(w.buf.Bytes()); err != nil {
		return err
	}
	w.name = ""
	w.buf.Reset()
	return nil
}

func (w *tarWriter) Create(name string) (io.Writer, error) {
	if err := w.flush(); err != nil {
		return nil, err
	}
	w.name = name
	return &w.buf, nil
}

func (w *tarWriter) Close() error {
	errs := []error{w.flush(), w.tw.Close(), w.compressor.Close(), w.file.Close()}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

type dirWriter struct {
	root string
	file *os.File
}

func (w *dirWriter) Create(name string) (io.Writer, error) {
	if err := w.closeFile(); err != nil {
		return nil, err
	}
	path, err := validation.SanitizeMember(w.root, name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewIO("mkdir", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.NewIO("create", path, err)
	}
	w.file = f
	return f, nil
}

func (w *dirWriter) closeFile() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *dirWriter) Close() error {
	return w.closeFile()
}
