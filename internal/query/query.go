// Package query serves lookups against a finalized store. It never writes;
// stores are replaced wholesale by the next extraction run.
package query

import (
	"database/sql"
	"encoding/json"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/apictx-dev/apictx/internal/index"
	"github.com/apictx-dev/apictx/internal/symbol"
)

// ErrNotFound reports an exact lookup whose FQN is absent from the store.
var ErrNotFound = errors.New("symbol not found")

// DefaultLimit caps approximate result lists unless the caller overrides it.
const DefaultLimit = 10

// Match is one approximate search hit. Score counts the grams the query
// shares with the symbol name.
type Match struct {
	Record symbol.Record `json:"record"`
	Score  int           `json:"score"`
}

// Filter narrows approximate search results. Zero values match everything.
type Filter struct {
	Kind       symbol.Kind
	Visibility symbol.Visibility
}

// Engine answers exact and approximate lookups from one store file.
type Engine struct {
	db         *sql.DB
	gramLength int
}

// Open attaches to the store at path read-only. The gram length recorded at
// build time is loaded so query-side segmentation matches the index.
func Open(path string) (*Engine, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	var raw string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'gram_length'`).Scan(&raw); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "read store gram length")
	}
	gramLength, err := strconv.Atoi(raw)
	if err != nil || gramLength < 1 {
		db.Close()
		return nil, errors.Newf("store has invalid gram length %q", raw)
	}
	return &Engine{db: db, gramLength: gramLength}, nil
}

// Close releases the store handle.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Meta returns one metadata value recorded at build time, "" when absent.
func (e *Engine) Meta(key string) (string, error) {
	var value string
	err := e.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "read meta %q", key)
	}
	return value, nil
}

// Exact returns the record stored under fqn, or ErrNotFound.
func (e *Engine) Exact(fqn string) (symbol.Record, error) {
	var data string
	err := e.db.QueryRow(`SELECT data FROM symbols WHERE fqn = ?`, fqn).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return symbol.Record{}, errors.Wrapf(ErrNotFound, "%s", fqn)
	}
	if err != nil {
		return symbol.Record{}, errors.Wrapf(err, "look up %s", fqn)
	}
	return decodeRecord(data)
}

// Approx ranks symbols by the number of grams their name shares with the
// query. Ties break on ascending FQN so results are stable across runs.
// Queries shorter than the store's gram length share no grams with anything
// and return an empty list.
func (e *Engine) Approx(q string, limit int, filter Filter) ([]Match, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	grams := index.Grams(q, e.gramLength)
	if len(grams) == 0 {
		return nil, nil
	}

	builder := sq.Select("s.data", "COUNT(*) AS score").
		From("grams g").
		Join("symbols s ON s.id = g.id").
		Where(sq.Eq{"g.gram": grams}).
		GroupBy("s.id").
		OrderBy("score DESC", "s.fqn ASC").
		Limit(uint64(limit))
	if filter.Kind != "" {
		builder = builder.Where(sq.Eq{"s.kind": string(filter.Kind)})
	}
	if filter.Visibility != "" {
		builder = builder.Where(sq.Eq{"s.visibility": string(filter.Visibility)})
	}

	sqlText, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build approx query")
	}
	rows, err := e.db.Query(sqlText, args...)
	if err != nil {
		return nil, errors.Wrap(err, "run approx query")
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var data string
		var score int
		if err := rows.Scan(&data, &score); err != nil {
			return nil, errors.Wrap(err, "scan approx row")
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Record: rec, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate approx rows")
	}
	return matches, nil
}

func decodeRecord(data string) (symbol.Record, error) {
	var rec symbol.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return symbol.Record{}, errors.Wrap(err, "decode stored record")
	}
	return rec, nil
}
