// Package pgstore implements the record store on PostgreSQL through a pgx pool.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/softjail/internal/core"
)

// PostgreSQL error codes mapped to core sentinels.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cells (
		id            BIGSERIAL PRIMARY KEY,
		department_id BIGINT NOT NULL REFERENCES departments (id),
		cell_number   INTEGER NOT NULL,
		has_window    BOOLEAN NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS prisoners (
		id                 BIGSERIAL PRIMARY KEY,
		full_name          TEXT NOT NULL,
		nickname           TEXT,
		age                INTEGER NOT NULL,
		incarceration_date DATE NOT NULL,
		release_date       DATE,
		bail               NUMERIC,
		cell_id            BIGINT REFERENCES cells (id)
	)`,
	`CREATE TABLE IF NOT EXISTS mails (
		id          BIGSERIAL PRIMARY KEY,
		prisoner_id BIGINT NOT NULL REFERENCES prisoners (id),
		description TEXT NOT NULL,
		sender      TEXT NOT NULL,
		address     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS officers (
		id            BIGSERIAL PRIMARY KEY,
		full_name     TEXT NOT NULL,
		salary        NUMERIC NOT NULL,
		position      TEXT NOT NULL,
		weapon        TEXT NOT NULL,
		department_id BIGINT NOT NULL REFERENCES departments (id)
	)`,
	`CREATE TABLE IF NOT EXISTS officers_prisoners (
		officer_id  BIGINT NOT NULL REFERENCES officers (id),
		prisoner_id BIGINT NOT NULL REFERENCES prisoners (id),
		PRIMARY KEY (officer_id, prisoner_id)
	)`,
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DB wraps a pgx pool.
type DB struct {
	pool *pgxpool.Pool
}

// Open connects a pool, verifies it and applies the schema.
func Open(ctx context.Context, cfg PoolConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	db := &DB{pool: pool}
	if err := db.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates missing tables.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Ping checks the pool.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the pool.
func (d *DB) Close() error {
	d.pool.Close()
	return nil
}

// Session returns a new unit of work.
func (d *DB) Session() core.Store {
	return &Session{pool: d.pool}
}

// Session stages records until SaveChanges.
type Session struct {
	pool        *pgxpool.Pool
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

// SaveChanges inserts every staged record in one transaction. Parent rows
// are inserted one by one for their ids; child rows go out as one batch.
func (s *Session) SaveChanges(ctx context.Context) error {
	defer func() {
		s.departments, s.prisoners, s.officers = nil, nil, nil
	}()
	if len(s.departments) == 0 && len(s.prisoners) == 0 && len(s.officers) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		children := &pgx.Batch{}

		for _, dept := range s.departments {
			var id int64
			if err := tx.QueryRow(ctx, `INSERT INTO departments (name) VALUES ($1) RETURNING id`, dept.Name).Scan(&id); err != nil {
				return fmt.Errorf("insert department %q: %w", dept.Name, err)
			}
			for _, c := range dept.Cells {
				children.Queue(`INSERT INTO cells (department_id, cell_number, has_window) VALUES ($1, $2, $3)`,
					id, c.CellNumber, c.HasWindow)
			}
		}
		// Cells must exist before prisoners reference them.
		if err := sendBatch(ctx, tx, children); err != nil {
			return fmt.Errorf("insert cells: %w", err)
		}

		children = &pgx.Batch{}
		for _, p := range s.prisoners {
			var id int64
			var release pgtype.Date
			if p.ReleaseDate != nil {
				release = pgtype.Date{Time: *p.ReleaseDate, Valid: true}
			}
			if err := tx.QueryRow(ctx,
				`INSERT INTO prisoners (full_name, nickname, age, incarceration_date, release_date, bail, cell_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
				p.FullName, p.Nickname, p.Age, pgtype.Date{Time: p.IncarcerationDate, Valid: true},
				release, p.Bail, p.CellID,
			).Scan(&id); err != nil {
				return fmt.Errorf("insert prisoner %q: %w", p.FullName, err)
			}
			for _, m := range p.Mails {
				children.Queue(`INSERT INTO mails (prisoner_id, description, sender, address) VALUES ($1, $2, $3, $4)`,
					id, m.Description, m.Sender, m.Address)
			}
		}

		for _, o := range s.officers {
			var id int64
			if err := tx.QueryRow(ctx,
				`INSERT INTO officers (full_name, salary, position, weapon, department_id)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				o.FullName, o.Salary, string(o.Position), string(o.Weapon), o.DepartmentID,
			).Scan(&id); err != nil {
				return fmt.Errorf("insert officer %q: %w", o.FullName, err)
			}
			for _, l := range o.Prisoners {
				children.Queue(`INSERT INTO officers_prisoners (officer_id, prisoner_id) VALUES ($1, $2)`,
					id, l.PrisonerID)
			}
		}
		if err := sendBatch(ctx, tx, children); err != nil {
			return fmt.Errorf("insert mails and links: %w", err)
		}
		return nil
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, b *pgx.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, b).Close()
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
	rows, err := s.pool.Query(ctx, selectPrisoners)
	if err != nil {
		return nil, mapError(fmt.Errorf("select prisoners: %w", err))
	}
	var prisoners []core.Prisoner
	index := make(map[int64]int)
	for rows.Next() {
		var (
			p            core.Prisoner
			incarcerated pgtype.Date
			release      pgtype.Date
			deptID       *int64
			cellNumber   *int32
			hasWindow    *bool
		)
		if err := rows.Scan(&p.ID, &p.FullName, &p.Nickname, &p.Age, &incarcerated, &release, &p.Bail, &p.CellID,
			&deptID, &cellNumber, &hasWindow); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan prisoner: %w", err)
		}
		p.IncarcerationDate = incarcerated.Time
		if release.Valid {
			t := release.Time
			p.ReleaseDate = &t
		}
		if p.CellID != nil && cellNumber != nil {
			p.Cell = &core.Cell{ID: *p.CellID, DepartmentID: *deptID, CellNumber: int(*cellNumber), HasWindow: *hasWindow}
		}
		index[p.ID] = len(prisoners)
		prisoners = append(prisoners, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prisoners: %w", err)
	}

	mails, err := s.pool.Query(ctx, selectMails)
	if err != nil {
		return nil, mapError(fmt.Errorf("select mails: %w", err))
	}
	all, err := pgx.CollectRows(mails, func(row pgx.CollectableRow) (core.Mail, error) {
		var m core.Mail
		err := row.Scan(&m.ID, &m.PrisonerID, &m.Description, &m.Sender, &m.Address)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan mails: %w", err)
	}
	for _, m := range all {
		if i, ok := index[m.PrisonerID]; ok {
			prisoners[i].Mails = append(prisoners[i].Mails, m)
		}
	}

	links, err := s.pool.Query(ctx, selectOfficerLinks)
	if err != nil {
		return nil, mapError(fmt.Errorf("select officers: %w", err))
	}
	defer links.Close()
	for links.Next() {
		var (
			prisonerID       int64
			o                core.Officer
			position, weapon string
			departmentName   string
		)
		if err := links.Scan(&prisonerID, &o.ID, &o.FullName, &o.Salary, &position, &weapon, &o.DepartmentID, &departmentName); err != nil {
			return nil, fmt.Errorf("scan officer: %w", err)
		}
		o.Position, o.Weapon = core.Position(position), core.Weapon(weapon)
		o.Department = &core.Department{ID: o.DepartmentID, Name: departmentName}
		if i, ok := index[prisonerID]; ok {
			prisoners[i].Officers = append(prisoners[i].Officers, o)
		}
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("iterate officers: %w", err)
	}
	return prisoners, nil
}

// mapError attaches core sentinels to PostgreSQL constraint failures.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %v", core.ErrForeignKey, err)
		case codeUniqueViolation:
			return fmt.Errorf("%w: %v", core.ErrDuplicateKey, err)
		}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return err
}
