// Package memory implements the record store in process memory. It is the
// default store for tests and for the CLI's dry runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/JonMunkholm/softjail/internal/core"
)

// DB holds committed records. Use Session to stage and commit changes.
type DB struct {
	mu sync.RWMutex

	departments []core.Department // Cells left empty; see cells
	cells       []core.Cell
	prisoners   []core.Prisoner // Mails left empty; see mails
	mails       []core.Mail
	officers    []core.Officer // Prisoners left empty; see links
	links       []core.OfficerPrisoner

	// Last id issued per entity. Ids start at 1.
	lastDepartment, lastCell, lastPrisoner, lastMail, lastOfficer int64
}

// New returns an empty database.
func New() *DB {
	return &DB{}
}

// Session returns a new unit of work over db.
func (db *DB) Session() core.Store {
	return &Session{db: db}
}

// Ping always succeeds.
func (db *DB) Ping(context.Context) error { return nil }

// Close is a no-op; committed records stay readable.
func (db *DB) Close() error { return nil }

// Session stages records until SaveChanges. A Session is not safe for
// concurrent use; the DB it commits to is.
type Session struct {
	db          *DB
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

// SaveChanges commits every staged record or none of them. Staged records
// are discarded either way.
func (s *Session) SaveChanges(ctx context.Context) error {
	defer func() {
		s.departments, s.prisoners, s.officers = nil, nil, nil
	}()
	if err := ctx.Err(); err != nil {
		return err
	}

	db := s.db
	db.mu.Lock()
	defer db.mu.Unlock()

	// Work on a copy so a failed check leaves db untouched.
	next := db.snapshot()
	cellIDs := make(map[int64]struct{}, len(next.cells))
	for _, c := range next.cells {
		cellIDs[c.ID] = struct{}{}
	}
	departmentIDs := make(map[int64]struct{}, len(next.departments))
	for _, d := range next.departments {
		departmentIDs[d.ID] = struct{}{}
	}
	prisonerIDs := make(map[int64]struct{}, len(next.prisoners))
	for _, p := range next.prisoners {
		prisonerIDs[p.ID] = struct{}{}
	}
	type linkKey struct{ officer, prisoner int64 }
	linkSet := make(map[linkKey]struct{}, len(next.links))
	for _, l := range next.links {
		linkSet[linkKey{l.OfficerID, l.PrisonerID}] = struct{}{}
	}

	for _, d := range s.departments {
		next.lastDepartment++
		dept := core.Department{ID: next.lastDepartment, Name: d.Name}
		next.departments = append(next.departments, dept)
		departmentIDs[dept.ID] = struct{}{}
		for _, c := range d.Cells {
			next.lastCell++
			c.ID = next.lastCell
			c.DepartmentID = dept.ID
			next.cells = append(next.cells, c)
			cellIDs[c.ID] = struct{}{}
		}
	}

	for _, p := range s.prisoners {
		if p.CellID != nil {
			if _, ok := cellIDs[*p.CellID]; !ok {
				return fmt.Errorf("prisoner %q references cell %d: %w", p.FullName, *p.CellID, core.ErrForeignKey)
			}
		}
		next.lastPrisoner++
		mails := p.Mails
		p.ID = next.lastPrisoner
		p.CellID = clonePtr(p.CellID)
		p.Nickname = clonePtr(p.Nickname)
		p.ReleaseDate = clonePtr(p.ReleaseDate)
		p.Mails, p.Cell, p.Officers = nil, nil, nil
		next.prisoners = append(next.prisoners, p)
		prisonerIDs[p.ID] = struct{}{}
		for _, m := range mails {
			next.lastMail++
			m.ID = next.lastMail
			m.PrisonerID = p.ID
			next.mails = append(next.mails, m)
		}
	}

	for _, o := range s.officers {
		if _, ok := departmentIDs[o.DepartmentID]; !ok {
			return fmt.Errorf("officer %q references department %d: %w", o.FullName, o.DepartmentID, core.ErrForeignKey)
		}
		next.lastOfficer++
		links := o.Prisoners
		o.ID = next.lastOfficer
		o.Prisoners, o.Department = nil, nil
		next.officers = append(next.officers, o)
		for _, l := range links {
			if _, ok := prisonerIDs[l.PrisonerID]; !ok {
				return fmt.Errorf("officer %q references prisoner %d: %w", o.FullName, l.PrisonerID, core.ErrForeignKey)
			}
			key := linkKey{o.ID, l.PrisonerID}
			if _, dup := linkSet[key]; dup {
				return fmt.Errorf("officer %q links prisoner %d twice: %w", o.FullName, l.PrisonerID, core.ErrDuplicateKey)
			}
			linkSet[key] = struct{}{}
			next.links = append(next.links, core.OfficerPrisoner{OfficerID: o.ID, PrisonerID: l.PrisonerID})
		}
	}

	db.restore(next)
	return nil
}

// Prisoners returns committed prisoners ordered by id, with cell, mails,
// officers and officer departments populated.
func (s *Session) Prisoners(ctx context.Context) ([]core.Prisoner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db := s.db
	db.mu.RLock()
	defer db.mu.RUnlock()

	cells := make(map[int64]core.Cell, len(db.cells))
	for _, c := range db.cells {
		cells[c.ID] = c
	}
	departments := make(map[int64]core.Department, len(db.departments))
	for _, d := range db.departments {
		departments[d.ID] = d
	}
	officers := make(map[int64]core.Officer, len(db.officers))
	for _, o := range db.officers {
		officers[o.ID] = o
	}

	out := make([]core.Prisoner, 0, len(db.prisoners))
	index := make(map[int64]int, len(db.prisoners))
	for _, p := range db.prisoners {
		p.CellID = clonePtr(p.CellID)
		p.Nickname = clonePtr(p.Nickname)
		p.ReleaseDate = clonePtr(p.ReleaseDate)
		if p.CellID != nil {
			if c, ok := cells[*p.CellID]; ok {
				p.Cell = &c
			}
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	for _, m := range db.mails {
		if i, ok := index[m.PrisonerID]; ok {
			out[i].Mails = append(out[i].Mails, m)
		}
	}
	for _, l := range db.links {
		i, ok := index[l.PrisonerID]
		if !ok {
			continue
		}
		o := officers[l.OfficerID]
		if d, ok := departments[o.DepartmentID]; ok {
			o.Department = &d
		}
		out[i].Officers = append(out[i].Officers, o)
	}
	return out, nil
}

// snapshot copies the committed state. Callers hold db.mu.
func (db *DB) snapshot() *DB {
	return &DB{
		departments:    slices.Clone(db.departments),
		cells:          slices.Clone(db.cells),
		prisoners:      slices.Clone(db.prisoners),
		mails:          slices.Clone(db.mails),
		officers:       slices.Clone(db.officers),
		links:          slices.Clone(db.links),
		lastDepartment: db.lastDepartment,
		lastCell:       db.lastCell,
		lastPrisoner:   db.lastPrisoner,
		lastMail:       db.lastMail,
		lastOfficer:    db.lastOfficer,
	}
}

// restore replaces the committed state with next. Callers hold db.mu.
func (db *DB) restore(next *DB) {
	db.departments, db.cells = next.departments, next.cells
	db.prisoners, db.mails = next.prisoners, next.mails
	db.officers, db.links = next.officers, next.links
	db.lastDepartment, db.lastCell = next.lastDepartment, next.lastCell
	db.lastPrisoner, db.lastMail = next.lastPrisoner, next.lastMail
	db.lastOfficer = next.lastOfficer
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
