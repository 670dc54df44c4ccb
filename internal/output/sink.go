package output

import (
	"bufio"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/opusread/core/errors"
)

// Sink is a buffered output destination. File sinks are compressed by
// suffix (.gz, .zst) and hash the uncompressed bytes with BLAKE3.
type Sink struct {
	path    string
	w       *bufio.Writer
	hash    *blake3.Hasher
	closers []io.Closer
	closed  bool
}

// OpenSink opens path for writing. An empty path writes to console, which
// is flushed but never closed.
func OpenSink(path string, console io.Writer) (*Sink, error) {
	if path == "" {
		return &Sink{w: bufio.NewWriter(console)}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.NewIO("create", path, err)
	}

	var dst io.Writer = f
	closers := []io.Closer{f}
	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := pgzip.NewWriter(f)
		dst = zw
		closers = []io.Closer{zw, f}
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, errors.NewIO("create", path, err)
		}
		dst = zw
		closers = []io.Closer{zw, f}
	}

	h := blake3.New()
	return &Sink{
		path:    path,
		w:       bufio.NewWriter(io.MultiWriter(dst, h)),
		hash:    h,
		closers: closers,
	}, nil
}

// Path returns the file path, or "" for the console.
func (s *Sink) Path() string {
	return s.path
}

func (s *Sink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// WriteString writes str.
func (s *Sink) WriteString(str string) (int, error) {
	return s.w.WriteString(str)
}

// Flush writes buffered data through.
func (s *Sink) Flush() error {
	return s.w.Flush()
}

// Digest returns the hex BLAKE3 digest of everything written, or "" for
// the console.
func (s *Sink) Digest() string {
	if s.hash == nil {
		return ""
	}
	return hex.EncodeToString(s.hash.Sum(nil))
}

// Close flushes the sink and closes the file. It is safe to call more
// than once.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.w.Flush()
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = errors.NewIO("close", s.path, cerr)
		}
	}
	return err
}

// IsBrokenPipe reports whether an error is a broken pipe / closed pipe.
// Downstream consumers such as `head` close early.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}
