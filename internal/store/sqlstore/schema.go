package sqlstore

// schema creates the record tables. Dates and money are stored as TEXT so
// SQLite never coerces them (money keeps its exact decimal text).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cells (
		id            INTEGER PRIMARY KEY,
		department_id INTEGER NOT NULL REFERENCES departments (id),
		cell_number   INTEGER NOT NULL,
		has_window    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS prisoners (
		id                 INTEGER PRIMARY KEY,
		full_name          TEXT NOT NULL,
		nickname           TEXT,
		age                INTEGER NOT NULL,
		incarceration_date TEXT NOT NULL,
		release_date       TEXT,
		bail               TEXT,
		cell_id            INTEGER REFERENCES cells (id)
	)`,
	`CREATE TABLE IF NOT EXISTS mails (
		id          INTEGER PRIMARY KEY,
		prisoner_id INTEGER NOT NULL REFERENCES prisoners (id),
		description TEXT NOT NULL,
		sender      TEXT NOT NULL,
		address     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS officers (
		id            INTEGER PRIMARY KEY,
		full_name     TEXT NOT NULL,
		salary        TEXT NOT NULL,
		position      TEXT NOT NULL,
		weapon        TEXT NOT NULL,
		department_id INTEGER NOT NULL REFERENCES departments (id)
	)`,
	`CREATE TABLE IF NOT EXISTS officers_prisoners (
		officer_id  INTEGER NOT NULL REFERENCES officers (id),
		prisoner_id INTEGER NOT NULL REFERENCES prisoners (id),
		PRIMARY KEY (officer_id, prisoner_id)
	)`,
}
