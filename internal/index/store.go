// Package index builds the on-disk query artifacts: a SQLite store holding
// every record plus a gram posting table for approximate name search.
//
// Builds are atomic. The store is written under a temporary name in a single
// transaction and renamed over the target only after commit, so a crashed or
// failed build can never leave a readable half-index behind.
package index

import (
	"database/sql"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/apictx-dev/apictx/internal/symbol"
)

// StoreFile is the store's file name inside an output directory.
const StoreFile = "index.sqlite3"

const storeSchema = `
CREATE TABLE symbols (
	id         INTEGER PRIMARY KEY,
	fqn        TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	visibility TEXT NOT NULL,
	data       TEXT NOT NULL
);

CREATE TABLE grams (
	gram TEXT NOT NULL,
	id   INTEGER NOT NULL REFERENCES symbols(id),
	PRIMARY KEY (gram, id)
) WITHOUT ROWID;

CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// BuildStore writes the queryable store for records to path. Metadata
// key/value pairs land in the meta table alongside the gram length, which the
// query side reads back so both sides always segment names identically.
//
// Records must already be validated and sorted by FQN; symbol ids follow that
// order.
func BuildStore(path string, records []symbol.Record, gramLength int, meta map[string]string) (err error) {
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "clear stale temp store")
	}

	db, err := sql.Open("sqlite3", tmp)
	if err != nil {
		return errors.Wrap(err, "open temp store")
	}
	defer func() {
		closeErr := db.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrap(closeErr, "close store")
		}
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if _, err := db.Exec(storeSchema); err != nil {
		return errors.Wrap(err, "create store schema")
	}

	if err := populate(db, records, gramLength, meta); err != nil {
		return err
	}

	if err := db.Close(); err != nil {
		return errors.Wrap(err, "flush store")
	}
	// Rename only after a clean close so readers never observe a partial
	// database. sql.DB.Close is idempotent, the deferred close is a no-op.
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "publish store")
	}
	return nil
}

func populate(db *sql.DB, records []symbol.Record, gramLength int, meta map[string]string) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin store transaction")
	}
	defer tx.Rollback()

	insertSymbol, err := tx.Prepare(`INSERT INTO symbols (id, fqn, name, kind, visibility, data) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare symbol insert")
	}
	defer insertSymbol.Close()

	insertGram, err := tx.Prepare(`INSERT INTO grams (gram, id) VALUES (?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare gram insert")
	}
	defer insertGram.Close()

	for i, rec := range records {
		id := i + 1
		data, err := symbol.EncodeJSONL([]symbol.Record{rec})
		if err != nil {
			return errors.Wrapf(err, "encode record %s", rec.FQN)
		}
		if _, err := insertSymbol.Exec(id, rec.FQN, rec.Name, string(rec.Kind), string(rec.Visibility), string(data)); err != nil {
			return errors.Wrapf(err, "insert symbol %s", rec.FQN)
		}
		for _, gram := range Grams(rec.Name, gramLength) {
			if _, err := insertGram.Exec(gram, id); err != nil {
				return errors.Wrapf(err, "insert gram %q for %s", gram, rec.FQN)
			}
		}
	}

	insertMeta, err := tx.Prepare(`INSERT INTO meta (key, value) VALUES (?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare meta insert")
	}
	defer insertMeta.Close()

	if _, err := insertMeta.Exec("gram_length", strconv.Itoa(gramLength)); err != nil {
		return errors.Wrap(err, "insert gram length")
	}
	for key, value := range meta {
		if key == "gram_length" {
			continue
		}
		if _, err := insertMeta.Exec(key, value); err != nil {
			return errors.Wrapf(err, "insert meta %q", key)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit store transaction")
	}
	return nil
}
