package core

// import.go implements the three record importers.
//
// Each importer decodes the whole payload first; a payload that does not
// decode aborts the call before anything is validated. Records are then
// validated in input order, every top-level record yields exactly one report
// line, and all accepted records are handed to the store in a single batch
// followed by one commit.

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"
)

// InvalidDataLine is the report line for any rejected record.
const InvalidDataLine = "Invalid Data"

// String joins the report lines with trailing whitespace trimmed.
func (r Report) String() string {
	return strings.TrimRightFunc(strings.Join(r.Lines, "\n"), unicode.IsSpace)
}

func (r *Report) accept(line string) {
	r.Lines = append(r.Lines, line)
	r.Accepted++
}

func (r *Report) reject(ctx context.Context, kind string, index int, reason string) {
	r.Lines = append(r.Lines, InvalidDataLine)
	r.Rejected++
	slog.DebugContext(ctx, "record rejected", "kind", kind, "index", index, "reason", reason)
}

// decodeJSONArray decodes a top-level JSON array. A null document is
// malformed, an empty array is not.
func decodeJSONArray[T any](payload string) ([]T, error) {
	var items []T
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: expected an array, got null", ErrMalformedPayload)
	}
	return items, nil
}

// decodeXMLDocument decodes a single root element into v. Only whitespace,
// comments and processing instructions may follow the root.
func decodeXMLDocument(payload string, v any) error {
	dec := xml.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) != 0 {
				return fmt.Errorf("%w: text after root element", ErrMalformedPayload)
			}
		default:
			return fmt.Errorf("%w: content after root element", ErrMalformedPayload)
		}
	}
}

// ImportDepartmentsCells imports a JSON array of departments with their cells
// and returns the report text.
func ImportDepartmentsCells(ctx context.Context, store Store, payload string) (string, error) {
	r, err := importDepartments(ctx, store, payload)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// ImportPrisonersMails imports a JSON array of prisoners with their mails
// and returns the report text.
func ImportPrisonersMails(ctx context.Context, store Store, payload string) (string, error) {
	r, err := importPrisoners(ctx, store, payload)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// ImportOfficersPrisoners imports an Officers XML document and returns the
// report text.
func ImportOfficersPrisoners(ctx context.Context, store Store, payload string) (string, error) {
	r, err := importOfficers(ctx, store, payload)
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

func importDepartments(ctx context.Context, store Store, payload string) (Report, error) {
	inputs, err := decodeJSONArray[DepartmentInput](payload)
	if err != nil {
		return Report{}, err
	}

	var report Report
	accepted := make([]Department, 0, len(inputs))

	for i, in := range inputs {
		if res := ValidateDepartment(in); !res.Valid {
			report.reject(ctx, "department", i, res.Error())
			continue
		}

		dept := Department{Name: *in.Name, Cells: make([]Cell, 0, len(in.Cells))}
		reason := ""
		for j, c := range in.Cells {
			// The first bad cell abandons the department and its valid cells.
			if res := ValidateCell(c); !res.Valid {
				reason = fmt.Sprintf("cell %d: %s", j, res.Error())
				break
			}
			dept.Cells = append(dept.Cells, Cell{CellNumber: *c.CellNumber, HasWindow: *c.HasWindow})
		}
		if reason == "" && len(dept.Cells) == 0 {
			reason = "Cells: at least one cell is required"
		}
		if reason != "" {
			report.reject(ctx, "department", i, reason)
			continue
		}

		accepted = append(accepted, dept)
		report.accept(fmt.Sprintf("Imported %s with %d cells", dept.Name, len(dept.Cells)))
	}

	if err := store.AddDepartments(ctx, accepted); err != nil {
		return Report{}, fmt.Errorf("add departments: %w", err)
	}
	if err := store.SaveChanges(ctx); err != nil {
		return Report{}, fmt.Errorf("save changes: %w", err)
	}
	return report, nil
}

func importPrisoners(ctx context.Context, store Store, payload string) (Report, error) {
	inputs, err := decodeJSONArray[PrisonerInput](payload)
	if err != nil {
		return Report{}, err
	}

	var report Report
	accepted := make([]Prisoner, 0, len(inputs))

	for i, in := range inputs {
		if res := ValidatePrisoner(in); !res.Valid {
			report.reject(ctx, "prisoner", i, res.Error())
			continue
		}

		incarcerated, err := ParseDate(*in.IncarcerationDate)
		if err != nil {
			report.reject(ctx, "prisoner", i, err.Error())
			continue
		}

		p := Prisoner{
			FullName:          *in.FullName,
			Nickname:          in.Nickname,
			Age:               *in.Age,
			IncarcerationDate: incarcerated,
			CellID:            in.CellID,
		}
		if in.ReleaseDate != nil && *in.ReleaseDate != "" {
			released, err := ParseDate(*in.ReleaseDate)
			if err != nil {
				report.reject(ctx, "prisoner", i, err.Error())
				continue
			}
			p.ReleaseDate = &released
		}
		if in.Bail != nil {
			// Already checked by ValidatePrisoner.
			p.Bail, _ = ParseMoney(in.Bail.String())
		}

		// Invalid mails are skipped but taint the prisoner; valid ones keep
		// accumulating until the loop ends.
		tainted := false
		var reasons []string
		for j, m := range in.Mails {
			if res := ValidateMail(m); !res.Valid {
				tainted = true
				reasons = append(reasons, fmt.Sprintf("mail %d: %s", j, res.Error()))
				continue
			}
			p.Mails = append(p.Mails, Mail{
				Description: *m.Description,
				Sender:      *m.Sender,
				Address:     *m.Address,
			})
		}
		if tainted {
			report.reject(ctx, "prisoner", i, strings.Join(reasons, "; "))
			continue
		}

		accepted = append(accepted, p)
		report.accept(fmt.Sprintf("Imported %s %d years old", p.FullName, p.Age))
	}

	if err := store.AddPrisoners(ctx, accepted); err != nil {
		return Report{}, fmt.Errorf("add prisoners: %w", err)
	}
	if err := store.SaveChanges(ctx); err != nil {
		return Report{}, fmt.Errorf("save changes: %w", err)
	}
	return report, nil
}

func importOfficers(ctx context.Context, store Store, payload string) (Report, error) {
	var doc officersDocument
	if err := decodeXMLDocument(payload, &doc); err != nil {
		return Report{}, err
	}

	var report Report
	accepted := make([]Officer, 0, len(doc.Officers))

	for i, in := range doc.Officers {
		if res := ValidateOfficer(in); !res.Valid {
			report.reject(ctx, "officer", i, res.Error())
			continue
		}

		position, ok := ParsePosition(in.Position)
		if !ok {
			report.reject(ctx, "officer", i, fmt.Sprintf("Position: unknown value %q", in.Position))
			continue
		}
		weapon, ok := ParseWeapon(in.Weapon)
		if !ok {
			report.reject(ctx, "officer", i, fmt.Sprintf("Weapon: unknown value %q", in.Weapon))
			continue
		}

		// Already checked by ValidateOfficer.
		salary, _ := ParseMoney(*in.Money)

		o := Officer{
			FullName:     in.Name,
			Salary:       salary,
			Position:     position,
			Weapon:       weapon,
			DepartmentID: *in.DepartmentID,
			Prisoners:    make([]OfficerPrisoner, 0, len(in.Prisoners)),
		}
		for _, ref := range in.Prisoners {
			o.Prisoners = append(o.Prisoners, OfficerPrisoner{PrisonerID: ref.ID})
		}

		accepted = append(accepted, o)
		report.accept(fmt.Sprintf("Imported %s (%d prisoners)", o.FullName, len(o.Prisoners)))
	}

	if err := store.AddOfficers(ctx, accepted); err != nil {
		return Report{}, fmt.Errorf("add officers: %w", err)
	}
	if err := store.SaveChanges(ctx); err != nil {
		return Report{}, fmt.Errorf("save changes: %w", err)
	}
	return report, nil
}
