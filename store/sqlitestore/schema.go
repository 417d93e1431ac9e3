package sqlitestore

// facetRecordsSchema holds every facet's state, inbound and outbound rows
// in one table, keyed by the same (partition, sort) composite key a
// DynamoDB-style backend exposes. Mirrors the constants-as-SQL idiom of
// nexushub/events/db.go's eventSchema.
const facetRecordsSchema = `
CREATE TABLE IF NOT EXISTS facet_records (
	id   TEXT    NOT NULL,
	rng  TEXT    NOT NULL,
	facet TEXT   NOT NULL,
	typ  TEXT    NOT NULL,
	seq  INTEGER NOT NULL,
	ts   INTEGER NOT NULL,
	date TEXT    NOT NULL,
	itm  BLOB    NOT NULL,
	PRIMARY KEY (id, rng)
);
`

const getStateSql = `
SELECT id, rng, facet, typ, seq, ts, date, itm FROM facet_records
WHERE id = $1 AND rng = 'STATE';
`

const getRecordsSql = `
SELECT id, rng, facet, typ, seq, ts, date, itm FROM facet_records
WHERE id = $1;
`

const getStateSeqForUpdateSql = `
SELECT seq FROM facet_records WHERE id = $1 AND rng = 'STATE';
`

const rowExistsSql = `
SELECT 1 FROM facet_records WHERE id = $1 AND rng = $2;
`

const upsertStateSql = `
INSERT INTO facet_records (id, rng, facet, typ, seq, ts, date, itm)
VALUES ($1, 'STATE', $2, $3, $4, $5, $6, $7)
ON CONFLICT (id, rng) DO UPDATE SET
	facet = excluded.facet,
	typ   = excluded.typ,
	seq   = excluded.seq,
	ts    = excluded.ts,
	date  = excluded.date,
	itm   = excluded.itm;
`

const insertRowSql = `
INSERT INTO facet_records (id, rng, facet, typ, seq, ts, date, itm)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
