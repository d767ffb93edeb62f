package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/sparqlsyntax/internal/algebra"
	"github.com/roach88/sparqlsyntax/internal/encoding"
)

// ErrNotFound is returned by Get when no entry matches.
var ErrNotFound = errors.New("catalog entry not found")

// Entry is one compiled query.
type Entry struct {
	ID          string `json:"id"`
	Fingerprint string `json:"fingerprint"`
	Form        string `json:"form"`
	Source      string `json:"source"`
	Algebra     string `json:"algebra"`
	Document    string `json:"document"`
	Seq         int64  `json:"seq"`
}

// Add stores q, compiled from source, unless a query with the same
// fingerprint is already present. It returns the stored entry and
// whether this call created it.
func (c *Catalog) Add(ctx context.Context, source string, q *algebra.Query) (Entry, bool, error) {
	fp, err := encoding.Fingerprint(q)
	if err != nil {
		return Entry{}, false, fmt.Errorf("add query: %w", err)
	}
	doc, err := encoding.MarshalCanonical(encoding.QueryDocument(q))
	if err != nil {
		return Entry{}, false, fmt.Errorf("add query: %w", err)
	}

	res, err := c.db.ExecContext(ctx, `
		INSERT INTO queries (id, fingerprint, form, source, algebra, document, seq)
		SELECT ?, ?, ?, ?, ?, ?, COALESCE(MAX(seq), 0) + 1 FROM queries WHERE true
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		uuid.Must(uuid.NewV7()).String(),
		fp,
		algebra.FormName(q.Form),
		source,
		algebra.FormatQuery(q),
		string(doc),
	)
	if err != nil {
		return Entry{}, false, fmt.Errorf("add query: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Entry{}, false, fmt.Errorf("add query: %w", err)
	}

	e, err := c.Get(ctx, fp)
	if err != nil {
		return Entry{}, false, err
	}
	return e, n == 1, nil
}

// Get returns the entry whose ID or fingerprint is key.
func (c *Catalog) Get(ctx context.Context, key string) (Entry, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, fingerprint, form, source, algebra, document, seq
		FROM queries
		WHERE id = ? OR fingerprint = ?
	`, key, key)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %q: %w", key, err)
	}
	return e, nil
}

// List returns every entry in insertion order. It returns an empty
// slice, not nil, when the catalog is empty.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, fingerprint, form, source, algebra, document, seq
		FROM queries
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list queries: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queries: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	err := s.Scan(&e.ID, &e.Fingerprint, &e.Form, &e.Source, &e.Algebra, &e.Document, &e.Seq)
	return e, err
}
