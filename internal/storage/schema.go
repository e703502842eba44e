package storage

const schema = `
-- The 'capsules' table stores each learnable capsule and its current
-- spaced-repetition state. Content (concepts, flashcards, quiz questions)
-- is kept as a JSON blob; the fingerprint identifies the content across
-- re-imports.
CREATE TABLE IF NOT EXISTS capsules (
    id TEXT PRIMARY KEY,
    fingerprint TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    review_stage INTEGER NOT NULL DEFAULT 0,
    last_reviewed DATETIME,
    source_id INTEGER,
    created_at DATETIME NOT NULL,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- The 'reviews' table is the append-only review history per capsule.
-- Insertion order is chronological order.
CREATE TABLE IF NOT EXISTS reviews (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    capsule_id TEXT NOT NULL,
    reviewed_at DATETIME NOT NULL,
    kind TEXT NOT NULL,
    score REAL NOT NULL,

    FOREIGN KEY(capsule_id) REFERENCES capsules(id)
);

-- The 'sources' table tracks deck origins, either a local directory or a
-- git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);

-- The 'plans' table stores study plans as their verbatim JSON payload.
CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at DATETIME NOT NULL
);
`
