package core

// export.go implements the prisoner exports.
//
// Both exports read every committed prisoner, filter in memory, project into
// the export shape and order by name then id using byte-wise comparison.

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// ExportPrisonersByCells renders the prisoners whose id is in ids as
// 2-space indented JSON. No match renders as "[]".
func ExportPrisonersByCells(ctx context.Context, store Store, ids []int64) (string, error) {
	out, err := prisonersByCells(ctx, store, ids)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode prisoners: %w", err)
	}
	return string(data), nil
}

// ExportPrisonersInbox renders the prisoners named in the comma-separated
// names list, with every mail description reversed, as an XML document.
// Names are matched exactly as split; surrounding spaces are significant.
func ExportPrisonersInbox(ctx context.Context, store Store, names string) (string, error) {
	prisoners, err := store.Prisoners(ctx)
	if err != nil {
		return "", fmt.Errorf("load prisoners: %w", err)
	}

	wanted := make(map[string]struct{})
	for _, n := range strings.Split(names, ",") {
		wanted[n] = struct{}{}
	}

	doc := prisonersInboxDocument{Prisoners: []PrisonerInboxOut{}}
	for _, p := range prisoners {
		if _, ok := wanted[p.FullName]; !ok {
			continue
		}
		out := PrisonerInboxOut{
			ID:                p.ID,
			Name:              p.FullName,
			IncarcerationDate: FormatDate(p.IncarcerationDate),
			EncryptedMessages: EncryptedMessages{Messages: make([]MessageOut, 0, len(p.Mails))},
		}
		for _, m := range p.Mails {
			out.EncryptedMessages.Messages = append(out.EncryptedMessages.Messages, MessageOut{
				Description: Reverse(m.Description),
			})
		}
		doc.Prisoners = append(doc.Prisoners, out)
	}

	slices.SortStableFunc(doc.Prisoners, func(a, b PrisonerInboxOut) int {
		return compareNameID(a.Name, a.ID, b.Name, b.ID)
	})

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode inbox: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode inbox: %w", err)
	}
	return strings.TrimRightFunc(buf.String(), unicode.IsSpace), nil
}

// prisonersByCells builds the by-id projection shared by the JSON and
// spreadsheet exports.
func prisonersByCells(ctx context.Context, store Store, ids []int64) ([]PrisonerByCellsOut, error) {
	prisoners, err := store.Prisoners(ctx)
	if err != nil {
		return nil, fmt.Errorf("load prisoners: %w", err)
	}

	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	result := make([]PrisonerByCellsOut, 0, len(ids))
	for _, p := range prisoners {
		if _, ok := wanted[p.ID]; !ok {
			continue
		}

		out := PrisonerByCellsOut{
			ID:       p.ID,
			Name:     p.FullName,
			Officers: make([]OfficerOut, 0, len(p.Officers)),
		}
		if p.Cell != nil {
			n := p.Cell.CellNumber
			out.CellNumber = &n
		}

		officers := slices.Clone(p.Officers)
		slices.SortStableFunc(officers, func(a, b Officer) int {
			return strings.Compare(a.FullName, b.FullName)
		})

		salaries := make([]Money, 0, len(officers))
		for _, o := range officers {
			dept := ""
			if o.Department != nil {
				dept = o.Department.Name
			}
			out.Officers = append(out.Officers, OfficerOut{OfficerName: o.FullName, Department: dept})
			salaries = append(salaries, o.Salary)
		}
		out.TotalOfficerSalary = json.Number(FormatMoney(SumMoney(salaries...)))

		result = append(result, out)
	}

	slices.SortStableFunc(result, func(a, b PrisonerByCellsOut) int {
		return compareNameID(a.Name, a.ID, b.Name, b.ID)
	})
	return result, nil
}

func compareNameID(aName string, aID int64, bName string, bID int64) int {
	if c := strings.Compare(aName, bName); c != 0 {
		return c
	}
	switch {
	case aID < bID:
		return -1
	case aID > bID:
		return 1
	}
	return 0
}

// Reverse returns s with its code points in reverse order.
func Reverse(s string) string {
	r := []rune(s)
	slices.Reverse(r)
	return string(r)
}

// ParseIDs parses a comma-separated list of prisoner ids. Blank entries are
// ignored.
func ParseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an id", ErrInvalidFilter, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
