package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kailas-cloud/kbase/internal/db"
	"github.com/kailas-cloud/kbase/internal/domain"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
)

// Source implements usecase/record.Repository and usecase/search.Source over PostgreSQL.
type Source struct {
	db *DB
}

// NewSource creates a Source.
func NewSource(conn *DB) *Source {
	return &Source{db: conn}
}

// Upsert creates or replaces a record. Returns true if created.
func (s *Source) Upsert(ctx context.Context, collectionName string, rec domrec.Record) (bool, error) {
	fieldsJSON, err := json.Marshal(nonNilMap(rec.Fields()))
	if err != nil {
		return false, fmt.Errorf("marshal fields: %w", err)
	}

	query := `
		INSERT INTO ` + quote(s.db.table) + ` (collection, id, fields, revision)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE SET
			fields = EXCLUDED.fields,
			revision = EXCLUDED.revision,
			updated_at = now()
		RETURNING (xmax = 0) AS inserted
	`
	var inserted bool
	err = s.db.QueryRowContext(ctx, query, collectionName, rec.ID(), fieldsJSON, rec.Revision()).Scan(&inserted)
	if err != nil {
		return false, &db.Error{Op: db.OpInsert, Err: err}
	}
	return inserted, nil
}

// UpsertMany writes records in one transaction.
func (s *Source) UpsertMany(ctx context.Context, collectionName string, recs []domrec.Record) error {
	if len(recs) == 0 {
		return nil
	}
	query := `
		INSERT INTO ` + quote(s.db.table) + ` (collection, id, fields, revision)
		SELECT $1, r.id, r.fields::jsonb, r.revision
		FROM unnest($2::text[], $3::text[], $4::int[]) AS r(id, fields, revision)
		ON CONFLICT (collection, id) DO UPDATE SET
			fields = EXCLUDED.fields,
			revision = EXCLUDED.revision,
			updated_at = now()
	`
	ids := make([]string, len(recs))
	docs := make([]string, len(recs))
	revs := make([]int64, len(recs))
	for i, rec := range recs {
		b, err := json.Marshal(nonNilMap(rec.Fields()))
		if err != nil {
			return fmt.Errorf("marshal fields %s: %w", rec.ID(), err)
		}
		ids[i], docs[i], revs[i] = rec.ID(), string(b), int64(rec.Revision())
	}
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, collectionName, pq.Array(ids), pq.Array(docs), pq.Array(revs)); err != nil {
			return &db.Error{Op: db.OpInsert, Err: err}
		}
		return nil
	})
}

// Get returns a record by ID.
func (s *Source) Get(ctx context.Context, collectionName, id string) (domrec.Record, error) {
	query := `SELECT id, fields, revision FROM ` + quote(s.db.table) + ` WHERE collection = $1 AND id = $2`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, collectionName, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domrec.Record{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domrec.Record{}, &db.Error{Op: db.OpSelect, Err: err}
	}
	return rec, nil
}

// Delete removes a record.
func (s *Source) Delete(ctx context.Context, collectionName, id string) error {
	query := `DELETE FROM ` + quote(s.db.table) + ` WHERE collection = $1 AND id = $2`
	res, err := s.db.ExecContext(ctx, query, collectionName, id)
	if err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// Purge removes every record of a collection.
func (s *Source) Purge(ctx context.Context, collectionName string) error {
	query := `DELETE FROM ` + quote(s.db.table) + ` WHERE collection = $1`
	if _, err := s.db.ExecContext(ctx, query, collectionName); err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	return nil
}

// Fetch runs plan as a single SELECT.
func (s *Source) Fetch(ctx context.Context, col domcol.Collection, plan request.Plan) ([]domrec.Record, error) {
	if plan.Where.IsNone() {
		return []domrec.Record{}, nil
	}
	query, args := selectQuery(s.db.table, col, plan)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	out := []domrec.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return out, nil
}

// Count returns the number of records matching where.
func (s *Source) Count(ctx context.Context, col domcol.Collection, where filter.Predicate) (int, error) {
	if where.IsNone() {
		return 0, nil
	}
	query, args := countQuery(s.db.table, col.Name(), where)
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpSelect, Err: err}
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domrec.Record, error) {
	var id string
	var fieldsJSON []byte
	var revision int
	if err := row.Scan(&id, &fieldsJSON, &revision); err != nil {
		return domrec.Record{}, err
	}
	fields, err := decodeFields(fieldsJSON)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("record %s: %w", id, err)
	}
	return domrec.Reconstruct(id, fields, revision), nil
}

func decodeFields(b []byte) (map[string]string, error) {
	fields := map[string]string{}
	if len(b) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func quote(table string) string {
	return pq.QuoteIdentifier(table)
}
