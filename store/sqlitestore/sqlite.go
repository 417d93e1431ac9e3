// Package sqlitestore is a concrete store.Backend over sqlite, used by the
// demonstration program and by the facet package's own tests. It stands in
// for a transactional composite-key KV store with atomic multi-item writes
// and per-item conditional predicates, emulated here with a single sqlite
// transaction per write, following the begin/exec/commit shape of
// applib/database.Database and the check-then-insert duplicate-detection
// idiom of nexushub/events/db.go.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tomyedwab/facetstore/ferrors"
	"github.com/tomyedwab/facetstore/record"
)

// Backend is a store.Backend backed by a *sqlx.DB. The zero value is not
// usable; build one with Open or New.
type Backend struct {
	db *sqlx.DB
}

// Open connects to a sqlite database at dataSourceName and ensures the
// facet_records table exists.
func Open(dataSourceName string) (*Backend, error) {
	db, err := sqlx.Connect("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: connect: %w", err)
	}
	return New(db)
}

// New wraps an already-connected *sqlx.DB and ensures the facet_records
// table exists.
func New(db *sqlx.DB) (*Backend, error) {
	if _, err := db.Exec(facetRecordsSchema); err != nil {
		return nil, fmt.Errorf("sqlitestore: init schema: %w", err)
	}
	return &Backend{db: db}, nil
}

// DB exposes the underlying connection, mainly for tests and for callers
// that want to provision additional tables alongside facet_records.
func (b *Backend) DB() *sqlx.DB {
	return b.db
}

type sqlRow struct {
	ID    string `db:"id"`
	Rng   string `db:"rng"`
	Facet string `db:"facet"`
	Typ   string `db:"typ"`
	Seq   int64  `db:"seq"`
	Ts    int64  `db:"ts"`
	Date  string `db:"date"`
	Itm   []byte `db:"itm"`
}

func (r sqlRow) toRecord() record.Record {
	return record.Record{
		PartitionKey: r.ID,
		SortKey:      r.Rng,
		Facet:        r.Facet,
		Type:         r.Typ,
		Sequence:     r.Seq,
		TimestampMs:  r.Ts,
		Date:         r.Date,
		Payload:      r.Itm,
	}
}

func fromRecord(r record.Record) sqlRow {
	return sqlRow{
		ID:    r.PartitionKey,
		Rng:   r.SortKey,
		Facet: r.Facet,
		Typ:   r.Type,
		Seq:   r.Sequence,
		Ts:    r.TimestampMs,
		Date:  r.Date,
		Itm:   r.Payload,
	}
}

// GetState implements store.Backend.
func (b *Backend) GetState(ctx context.Context, partitionKey string) (*record.Record, error) {
	var row sqlRow
	err := b.db.GetContext(ctx, &row, getStateSql, partitionKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: GetState: %w", err)
	}
	r := row.toRecord()
	return &r, nil
}

// GetRecords implements store.Backend.
func (b *Backend) GetRecords(ctx context.Context, partitionKey string) ([]record.Record, error) {
	var rows []sqlRow
	if err := b.db.SelectContext(ctx, &rows, getRecordsSql, partitionKey); err != nil {
		return nil, fmt.Errorf("sqlitestore: GetRecords: %w", err)
	}
	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord())
	}
	return out, nil
}

// PutTransaction implements store.Backend. All rows commit together or not
// at all: the state row's conditional predicate and every inbound/outbound
// row's not-already-exists predicate are checked inside one sqlite
// transaction before any row is written.
func (b *Backend) PutTransaction(ctx context.Context, state record.Record, previousSeq int64, inbound, outbound []record.Record) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore: begin: %w", err)
	}
	defer tx.Rollback()

	var existingSeq sql.NullInt64
	err = tx.GetContext(ctx, &existingSeq, getStateSeqForUpdateSql, state.PartitionKey)
	switch {
	case err == sql.ErrNoRows:
		// Fresh entity: attribute_not_exists(_id) side of the predicate
		// holds trivially.
	case err != nil:
		return fmt.Errorf("sqlitestore: read state for conditional check: %w", err)
	case existingSeq.Int64 != previousSeq:
		return &ferrors.ConcurrencyError{Facet: state.Facet, ID: idFromPartitionKey(state.PartitionKey), PreviousSeq: previousSeq}
	}

	for _, r := range append(append([]record.Record{}, inbound...), outbound...) {
		var exists int
		checkErr := tx.GetContext(ctx, &exists, rowExistsSql, r.PartitionKey, r.SortKey)
		if checkErr == nil {
			return &ferrors.ConcurrencyError{Facet: r.Facet, ID: idFromPartitionKey(r.PartitionKey), PreviousSeq: previousSeq}
		}
		if checkErr != sql.ErrNoRows {
			return fmt.Errorf("sqlitestore: read row for conditional check: %w", checkErr)
		}
	}

	sr := fromRecord(state)
	if _, err := tx.ExecContext(ctx, upsertStateSql, sr.ID, sr.Facet, sr.Typ, sr.Seq, sr.Ts, sr.Date, sr.Itm); err != nil {
		return fmt.Errorf("sqlitestore: write state row: %w", err)
	}

	for _, r := range inbound {
		ir := fromRecord(r)
		if _, err := tx.ExecContext(ctx, insertRowSql, ir.ID, ir.Rng, ir.Facet, ir.Typ, ir.Seq, ir.Ts, ir.Date, ir.Itm); err != nil {
			return fmt.Errorf("sqlitestore: write inbound row %s: %w", ir.Rng, err)
		}
	}
	for _, r := range outbound {
		or := fromRecord(r)
		if _, err := tx.ExecContext(ctx, insertRowSql, or.ID, or.Rng, or.Facet, or.Typ, or.Seq, or.Ts, or.Date, or.Itm); err != nil {
			return fmt.Errorf("sqlitestore: write outbound row %s: %w", or.Rng, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitestore: commit: %w", err)
	}
	return nil
}

func idFromPartitionKey(partitionKey string) string {
	for i := 0; i < len(partitionKey); i++ {
		if partitionKey[i] == '/' {
			return partitionKey[i+1:]
		}
	}
	return partitionKey
}
