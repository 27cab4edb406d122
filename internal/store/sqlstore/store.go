// Package sqlstore implements the record store on database/sql. It is opened
// on the pure Go SQLite driver in production and driven by sqlmock in tests.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/JonMunkholm/softjail/internal/core"
)

// DB wraps a *sql.DB. Commits are serialized because SQLite has a single writer.
type DB struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the SQLite database at path with foreign
// keys enforced, and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		path = "softjail.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db := New(sqlDB)
	if err := db.EnsureSchema(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// New wraps an open *sql.DB. The schema is not applied.
func New(db *sql.DB) *DB {
	return &DB{db: db}
}

// EnsureSchema creates missing tables.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Session returns a new unit of work.
func (d *DB) Session() core.Store {
	return &Session{d: d}
}

// Session stages records until SaveChanges.
type Session struct {
	d           *DB
	departments []core.Department
	prisoners   []core.Prisoner
	officers    []core.Officer
}

var _ core.Store = (*Session)(nil)

// AddDepartments stages departments with their cells.
func (s *Session) AddDepartments(_ context.Context, departments []core.Department) error {
	s.departments = append(s.departments, departments...)
	return nil
}

// AddPrisoners stages prisoners with their mails.
func (s *Session) AddPrisoners(_ context.Context, prisoners []core.Prisoner) error {
	s.prisoners = append(s.prisoners, prisoners...)
	return nil
}

// AddOfficers stages officers with their prisoner links.
func (s *Session) AddOfficers(_ context.Context, officers []core.Officer) error {
	s.officers = append(s.officers, officers...)
	return nil
}

// SaveChanges inserts every staged record in one transaction.
func (s *Session) SaveChanges(ctx context.Context) (retErr error) {
	defer func() {
		s.departments, s.prisoners, s.officers = nil, nil, nil
	}()
	if len(s.departments) == 0 && len(s.prisoners) == 0 && len(s.officers) == 0 {
		return nil
	}

	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	tx, err := s.d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", mapError(err))
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, dept := range s.departments {
		deptID, err := insert(ctx, tx, `INSERT INTO departments (name) VALUES (?)`, dept.Name)
		if err != nil {
			return fmt.Errorf("insert department %q: %w", dept.Name, err)
		}
		for _, c := range dept.Cells {
			if _, err := insert(ctx, tx,
				`INSERT INTO cells (department_id, cell_number, has_window) VALUES (?, ?, ?)`,
				deptID, c.CellNumber, c.HasWindow,
			); err != nil {
				return fmt.Errorf("insert cell %d: %w", c.CellNumber, err)
			}
		}
	}

	for _, p := range s.prisoners {
		prisonerID, err := insert(ctx, tx,
			`INSERT INTO prisoners (full_name, nickname, age, incarceration_date, release_date, bail, cell_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.FullName, nullString(p.Nickname), p.Age, core.FormatDate(p.IncarcerationDate),
			nullDate(p), nullMoney(p.Bail), nullInt64(p.CellID),
		)
		if err != nil {
			return fmt.Errorf("insert prisoner %q: %w", p.FullName, err)
		}
		for _, m := range p.Mails {
			if _, err := insert(ctx, tx,
				`INSERT INTO mails (prisoner_id, description, sender, address) VALUES (?, ?, ?, ?)`,
				prisonerID, m.Description, m.Sender, m.Address,
			); err != nil {
				return fmt.Errorf("insert mail: %w", err)
			}
		}
	}

	for _, o := range s.officers {
		officerID, err := insert(ctx, tx,
			`INSERT INTO officers (full_name, salary, position, weapon, department_id) VALUES (?, ?, ?, ?, ?)`,
			o.FullName, core.MoneyText(o.Salary), string(o.Position), string(o.Weapon), o.DepartmentID,
		)
		if err != nil {
			return fmt.Errorf("insert officer %q: %w", o.FullName, err)
		}
		for _, l := range o.Prisoners {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO officers_prisoners (officer_id, prisoner_id) VALUES (?, ?)`,
				officerID, l.PrisonerID,
			); err != nil {
				return fmt.Errorf("link officer %q to prisoner %d: %w", o.FullName, l.PrisonerID, mapError(err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", mapError(err))
	}
	return nil
}

func insert(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

const (
	selectPrisoners = `SELECT p.id, p.full_name, p.nickname, p.age, p.incarceration_date, p.release_date, p.bail, p.cell_id,
		c.department_id, c.cell_number, c.has_window
	FROM prisoners p
	LEFT JOIN cells c ON c.id = p.cell_id
	ORDER BY p.id`

	selectMails = `SELECT id, prisoner_id, description, sender, address FROM mails ORDER BY id`

	selectOfficerLinks = `SELECT op.prisoner_id, o.id, o.full_name, o.salary, o.position, o.weapon, o.department_id, d.name
	FROM officers_prisoners op
	JOIN officers o ON o.id = op.officer_id
	JOIN departments d ON d.id = o.department_id
	ORDER BY op.prisoner_id, o.id`
)

// Prisoners loads committed prisoners with cell, mails and officers.
func (s *Session) Prisoners(ctx context.Context) ([]core.Prisoner, error) {
	db := s.d.db

	rows, err := db.QueryContext(ctx, selectPrisoners)
	if err != nil {
		return nil, fmt.Errorf("select prisoners: %w", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	var prisoners []core.Prisoner
	index := make(map[int64]int)
	for rows.Next() {
		var (
			p                     core.Prisoner
			nickname, release     sql.NullString
			bail                  sql.NullString
			incarcerated          string
			cellID, deptID, cellN sql.NullInt64
			hasWindow             sql.NullBool
		)
		if err := rows.Scan(&p.ID, &p.FullName, &nickname, &p.Age, &incarcerated, &release, &bail, &cellID,
			&deptID, &cellN, &hasWindow); err != nil {
			return nil, fmt.Errorf("scan prisoner: %w", err)
		}
		if err := decodePrisoner(&p, nickname, incarcerated, release, bail); err != nil {
			return nil, err
		}
		if cellID.Valid {
			id := cellID.Int64
			p.CellID = &id
			if cellN.Valid {
				p.Cell = &core.Cell{ID: id, DepartmentID: deptID.Int64, CellNumber: int(cellN.Int64), HasWindow: hasWindow.Bool}
			}
		}
		index[p.ID] = len(prisoners)
		prisoners = append(prisoners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prisoners: %w", err)
	}

	mailRows, err := db.QueryContext(ctx, selectMails)
	if err != nil {
		return nil, fmt.Errorf("select mails: %w", mapError(err))
	}
	defer func() { _ = mailRows.Close() }()
	for mailRows.Next() {
		var m core.Mail
		if err := mailRows.Scan(&m.ID, &m.PrisonerID, &m.Description, &m.Sender, &m.Address); err != nil {
			return nil, fmt.Errorf("scan mail: %w", err)
		}
		if i, ok := index[m.PrisonerID]; ok {
			prisoners[i].Mails = append(prisoners[i].Mails, m)
		}
	}
	if err := mailRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mails: %w", err)
	}

	linkRows, err := db.QueryContext(ctx, selectOfficerLinks)
	if err != nil {
		return nil, fmt.Errorf("select officers: %w", mapError(err))
	}
	defer func() { _ = linkRows.Close() }()
	for linkRows.Next() {
		var (
			prisonerID     int64
			o              core.Officer
			salary         string
			position       string
			weapon         string
			departmentName string
		)
		if err := linkRows.Scan(&prisonerID, &o.ID, &o.FullName, &salary, &position, &weapon, &o.DepartmentID, &departmentName); err != nil {
			return nil, fmt.Errorf("scan officer: %w", err)
		}
		if o.Salary, err = core.ParseMoney(salary); err != nil {
			return nil, fmt.Errorf("officer %d salary: %w", o.ID, err)
		}
		o.Position, o.Weapon = core.Position(position), core.Weapon(weapon)
		o.Department = &core.Department{ID: o.DepartmentID, Name: departmentName}
		if i, ok := index[prisonerID]; ok {
			prisoners[i].Officers = append(prisoners[i].Officers, o)
		}
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate officers: %w", err)
	}

	return prisoners, nil
}

func decodePrisoner(p *core.Prisoner, nickname sql.NullString, incarcerated string, release, bail sql.NullString) error {
	var err error
	if nickname.Valid {
		n := nickname.String
		p.Nickname = &n
	}
	if p.IncarcerationDate, err = parseStoredDate(incarcerated); err != nil {
		return fmt.Errorf("prisoner %d incarceration date: %w", p.ID, err)
	}
	if release.Valid {
		t, err := parseStoredDate(release.String)
		if err != nil {
			return fmt.Errorf("prisoner %d release date: %w", p.ID, err)
		}
		p.ReleaseDate = &t
	}
	if bail.Valid {
		if p.Bail, err = core.ParseMoney(bail.String); err != nil {
			return fmt.Errorf("prisoner %d bail: %w", p.ID, err)
		}
	}
	return nil
}

// mapError attaches core sentinels to SQLite constraint failures.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", core.ErrForeignKey, err)
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return fmt.Errorf("%w: %v", core.ErrDuplicateKey, err)
	case errors.Is(err, sql.ErrConnDone), strings.Contains(msg, "database is locked"), strings.Contains(msg, "unable to open database"):
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return err
}
