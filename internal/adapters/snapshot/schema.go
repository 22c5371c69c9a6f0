package snapshot

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS snapshot_meta (
  id TEXT PRIMARY KEY,
  reference_year INTEGER NOT NULL,
  swimmer_count INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS swimmers (
  ordinal INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  anchor_age INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS swim_times (
  name TEXT NOT NULL,
  event TEXT NOT NULL,
  age INTEGER NOT NULL,
  seconds REAL NOT NULL,
  PRIMARY KEY (name, event, age)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
  id TEXT PRIMARY KEY,
  reference_year INTEGER NOT NULL,
  swimmer_count INTEGER NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS swimmers (
  ordinal INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  anchor_age INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS swim_times (
  name TEXT NOT NULL,
  event TEXT NOT NULL,
  age INTEGER NOT NULL,
  seconds DOUBLE PRECISION NOT NULL,
  PRIMARY KEY (name, event, age)
);
`
