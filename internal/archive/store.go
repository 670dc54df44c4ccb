package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/internal/validation"
)

// Store is a collection of named byte members.
type Store interface {
	// Path returns the location the store was opened from.
	Path() string
	// Has reports whether a member called name exists.
	Has(name string) bool
	// Open opens a member. Absent members yield a NotFoundError.
	Open(name string) (io.ReadCloser, error)
	// Walk visits every member in storage order.
	Walk(visit func(name string, r io.Reader) error) error
	Close() error
}

// OpenStore opens a zip archive, a compressed tar archive or a directory.
func OpenStore(path string) (Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "archive", ID: path, Err: err}
		}
		return nil, errors.NewIO("stat", path, err)
	}
	switch {
	case info.IsDir():
		return &dirStore{root: path}, nil
	case IsTar(path):
		return openTarStore(path)
	default:
		return openZipStore(path)
	}
}

type zipStore struct {
	path    string
	rc      *zip.ReadCloser
	members map[string]*zip.File
}

func openZipStore(path string) (*zipStore, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, &errors.ParseError{Format: "zip", Path: path, Message: err.Error(), Err: err}
	}
	members := make(map[string]*zip.File, len(rc.File))
	for _, f := range rc.File {
		members[f.Name] = f
	}
	return &zipStore{path: path, rc: rc, members: members}, nil
}

func (z *zipStore) Path() string { return z.path }

func (z *zipStore) Has(name string) bool {
	_, ok := z.members[name]
	return ok
}

func (z *zipStore) Open(name string) (io.ReadCloser, error) {
	f, ok := z.members[name]
	if !ok {
		return nil, errors.NewNotFound("archive member", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.NewIO("open", z.path+":"+name, err)
	}
	return rc, nil
}

func (z *zipStore) Walk(visit func(name string, r io.Reader) error) error {
	for _, f := range z.rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return errors.NewIO("open", z.path+":"+f.Name, err)
		}
		err = visit(f.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (z *zipStore) Close() error {
	return z.rc.Close()
}

// tarStore indexes member positions once. Compressed tar streams cannot
// seek, so Open keeps a forward cursor and only restarts from the top when a
// member lies behind it. Documents requested in storage order cost a single
// pass over the archive.
type tarStore struct {
	path    string
	members map[string]int

	mu       sync.Mutex
	cursor   *Reader
	next     int
	restarts int
}

func openTarStore(path string) (*tarStore, error) {
	members := make(map[string]int)
	pos := 0
	err := IterateTar(path, func(header *tar.Header, _ io.Reader) (bool, error) {
		members[strings.TrimPrefix(header.Name, "./")] = pos
		pos++
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return &tarStore{path: path, members: members}, nil
}

func (t *tarStore) Path() string { return t.path }

func (t *tarStore) Has(name string) bool {
	_, ok := t.members[name]
	return ok
}

func (t *tarStore) Open(name string) (io.ReadCloser, error) {
	pos, ok := t.members[name]
	if !ok {
		return nil, errors.NewNotFound("archive member", name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cursor == nil || pos < t.next {
		if err := t.rewind(); err != nil {
			return nil, err
		}
	}
	for {
		header, err := t.cursor.Next()
		if err == io.EOF {
			return nil, errors.NewNotFound("archive member", name)
		}
		if err != nil {
			return nil, errors.Wrap(err, "read tar header")
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		current := t.next
		t.next++
		if current != pos {
			continue
		}
		data, err := io.ReadAll(t.cursor)
		if err != nil {
			return nil, errors.NewIO("read", t.path+":"+name, err)
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func (t *tarStore) rewind() error {
	if t.cursor != nil {
		t.cursor.Close()
		t.cursor = nil
	}
	r, err := NewReader(t.path)
	if err != nil {
		return err
	}
	t.cursor = r
	t.next = 0
	t.restarts++
	return nil
}

func (t *tarStore) Walk(visit func(name string, r io.Reader) error) error {
	return IterateTar(t.path, func(header *tar.Header, r io.Reader) (bool, error) {
		return false, visit(strings.TrimPrefix(header.Name, "./"), r)
	})
}

func (t *tarStore) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cursor == nil {
		return nil
	}
	err := t.cursor.Close()
	t.cursor = nil
	return err
}

type dirStore struct {
	root string
}

func (d *dirStore) Path() string { return d.root }

func (d *dirStore) Has(name string) bool {
	path, err := validation.SanitizeMember(d.root, name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (d *dirStore) Open(name string) (io.ReadCloser, error) {
	path, err := validation.SanitizeMember(d.root, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "archive member", ID: name, Err: err}
		}
		return nil, errors.NewIO("open", path, err)
	}
	return f, nil
}

func (d *dirStore) Walk(visit func(name string, r io.Reader) error) error {
	return filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return errors.NewIO("open", path, err)
		}
		defer f.Close()
		return visit(filepath.ToSlash(rel), f)
	})
}

func (d *dirStore) Close() error { return nil }
