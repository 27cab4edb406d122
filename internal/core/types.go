// Package core provides the business logic for jail record import and export.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"context"
	"time"
)

// Department groups cells. A department is only ever persisted together with
// at least one cell.
type Department struct {
	ID    int64
	Name  string
	Cells []Cell
}

// Cell belongs to exactly one department.
type Cell struct {
	ID           int64
	DepartmentID int64
	CellNumber   int
	HasWindow    bool
}

// Prisoner is the aggregate root for mails. Cell and Officers are populated
// only on records read back from a Store.
type Prisoner struct {
	ID                int64
	FullName          string
	Nickname          *string
	Age               int
	IncarcerationDate time.Time
	ReleaseDate       *time.Time
	Bail              Money // Valid=false when no bail was set
	CellID            *int64
	Mails             []Mail

	Cell     *Cell
	Officers []Officer
}

// Mail is owned by exactly one prisoner.
type Mail struct {
	ID          int64
	PrisonerID  int64
	Description string
	Sender      string
	Address     string
}

// Officer guards prisoners through OfficerPrisoner join records. Department
// is populated only on records read back from a Store.
type Officer struct {
	ID           int64
	FullName     string
	Salary       Money
	Position     Position
	Weapon       Weapon
	DepartmentID int64
	Prisoners    []OfficerPrisoner

	Department *Department
}

// OfficerPrisoner links one officer to one prisoner.
type OfficerPrisoner struct {
	OfficerID  int64
	PrisonerID int64
}

// Store is a unit of work over the record store.
//
// Add* calls only stage records; nothing is visible to readers until
// SaveChanges commits every staged record atomically. Prisoners returns
// committed prisoners with Cell, Mails and Officers (including each
// officer's Department) populated, ordered by ID.
type Store interface {
	AddDepartments(ctx context.Context, departments []Department) error
	AddPrisoners(ctx context.Context, prisoners []Prisoner) error
	AddOfficers(ctx context.Context, officers []Officer) error
	Prisoners(ctx context.Context) ([]Prisoner, error)
	SaveChanges(ctx context.Context) error
}

// SessionFactory hands out independent units of work so staged records from
// concurrent callers never mix.
type SessionFactory interface {
	Session() Store
}

// PayloadFormat is the wire format an import kind accepts.
type PayloadFormat string

const (
	FormatJSON PayloadFormat = "json"
	FormatXML  PayloadFormat = "xml"
)

// Report is the outcome of one import call: one line per top-level input
// record, in input order.
type Report struct {
	Lines    []string
	Accepted int
	Rejected int
}

// ImportResult contains the final result of a service-level import.
type ImportResult struct {
	RunID    string        `json:"runId"`
	Kind     string        `json:"kind"`
	Report   string        `json:"report"`
	Accepted int           `json:"accepted"`
	Rejected int           `json:"rejected"`
	Duration time.Duration `json:"durationNs"`
}

// ImportRun describes an archived import.
type ImportRun struct {
	RunID      string    `json:"runId"`
	Kind       string    `json:"kind"`
	ReportKey  string    `json:"reportKey"`
	ReportSize int64     `json:"reportSize"`
	CreatedAt  time.Time `json:"createdAt"`
}
