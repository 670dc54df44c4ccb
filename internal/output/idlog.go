package output

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/opusread/core/errors"
	"github.com/FocuswithJustin/opusread/core/sqlite"
)

// MissingValue is written to the text id-log when a link lacks the
// requested attribute.
const MissingValue = "none"

// IDLog records the documents and ids of every emitted pair.
type IDLog interface {
	Record(p Pair) error
	Close() error
}

// IsDatabase reports whether path names a SQLite id-log.
func IsDatabase(path string) bool {
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// OpenIDLog opens the id-log at path. Database paths get a SQLite table
// "pairs"; anything else gets tab-separated lines. attribute names the link
// attribute recorded in the last column.
func OpenIDLog(path, attribute string) (IDLog, error) {
	if IsDatabase(path) {
		return openSQLiteIDLog(path, attribute)
	}
	sink, err := OpenSink(path, io.Discard)
	if err != nil {
		return nil, err
	}
	return &textIDLog{sink: sink, attribute: attribute}, nil
}

type textIDLog struct {
	sink      *Sink
	attribute string
}

func (l *textIDLog) Record(p Pair) error {
	value, ok := p.Link.Attrs.Get(l.attribute)
	if !ok || l.attribute == "" {
		value = MissingValue
	}
	_, err := fmt.Fprintf(l.sink, "%s\t%s\t%s\t%s\t%s\n",
		p.SourceDoc, p.TargetDoc,
		strings.Join(p.Link.SourceIDs, " "), strings.Join(p.Link.TargetIDs, " "),
		value)
	return err
}

func (l *textIDLog) Close() error {
	return l.sink.Close()
}

const createPairs = `CREATE TABLE IF NOT EXISTS pairs (
	id         INTEGER PRIMARY KEY,
	source_doc TEXT NOT NULL,
	target_doc TEXT NOT NULL,
	source_ids TEXT NOT NULL,
	target_ids TEXT NOT NULL,
	value      TEXT
)`

// sqliteIDLog writes all rows in one transaction committed on Close.
type sqliteIDLog struct {
	path      string
	db        *sql.DB
	tx        *sql.Tx
	insert    *sql.Stmt
	attribute string
	closed    bool
}

func openSQLiteIDLog(path, attribute string) (*sqliteIDLog, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*sqliteIDLog, error) {
		db.Close()
		return nil, errors.NewIO("prepare id-log", path, err)
	}
	if _, err := db.Exec(createPairs); err != nil {
		return fail(err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fail(err)
	}
	insert, err := tx.Prepare(`INSERT INTO pairs (source_doc, target_doc, source_ids, target_ids, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fail(err)
	}
	return &sqliteIDLog{path: path, db: db, tx: tx, insert: insert, attribute: attribute}, nil
}

func (l *sqliteIDLog) Record(p Pair) error {
	var value sql.NullString
	if v, ok := p.Link.Attrs.Get(l.attribute); ok && l.attribute != "" {
		value = sql.NullString{String: v, Valid: true}
	}
	_, err := l.insert.Exec(p.SourceDoc, p.TargetDoc,
		strings.Join(p.Link.SourceIDs, " "), strings.Join(p.Link.TargetIDs, " "), value)
	if err != nil {
		return errors.NewIO("write id-log", l.path, err)
	}
	return nil
}

func (l *sqliteIDLog) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.insert.Close()
	err := l.tx.Commit()
	if cerr := l.db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.NewIO("close id-log", l.path, err)
	}
	return nil
}
