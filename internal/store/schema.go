package store

import "fmt"

// eventsTable is the durable row store. The monotonic AUTOINCREMENT id
// satisfies invariant (3): ids never reused even across delete/vacuum.
const eventsTable = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	content TEXT NOT NULL,
	application TEXT NOT NULL DEFAULT '',
	window_title TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
CREATE INDEX IF NOT EXISTS idx_events_application ON events(application);
`

// eventsFTSTable is an external-content FTS5 shadow over events.content,
// kept in sync inside the same transaction as the events insert.
const eventsFTSTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS events_fts USING fts5(
	content,
	content='events',
	content_rowid='id'
);
`

// eventsFTSTriggers keep events_fts consistent on delete/update of events,
// mirroring the corpus's external-content-FTS5 maintenance pattern. Inserts
// are performed explicitly inside InsertBatch's transaction rather than via
// trigger, so the batch writer controls ordering.
const eventsFTSTriggers = `
CREATE TRIGGER IF NOT EXISTS events_ad AFTER DELETE ON events BEGIN
	INSERT INTO events_fts(events_fts, rowid, content) VALUES('delete', old.id, old.content);
END;
CREATE TRIGGER IF NOT EXISTS events_au AFTER UPDATE ON events BEGIN
	INSERT INTO events_fts(events_fts, rowid, content) VALUES('delete', old.id, old.content);
	INSERT INTO events_fts(rowid, content) VALUES (new.id, new.content);
END;
`

func vecIndexDDL(dim int) string {
	return fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS events_vec USING vec0(event_id INTEGER PRIMARY KEY, embedding float[%d])", dim)
}

const vecProbeDDL = "CREATE VIRTUAL TABLE IF NOT EXISTS vec_probe USING vec0(embedding float[4])"
