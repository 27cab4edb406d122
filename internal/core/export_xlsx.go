package core

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const prisonersSheet = "Prisoners"

// prisonersXLSXHeader is the header row of the spreadsheet export.
var prisonersXLSXHeader = []string{
	"Id",
	"Name",
	"Cell Number",
	"Officer Name",
	"Department",
	"Total Officer Salary",
}

// ExportPrisonersByCellsXLSX renders the same projection as
// ExportPrisonersByCells as a spreadsheet with one row per prisoner and
// officer pair. Prisoners without officers get a single row.
func ExportPrisonersByCellsXLSX(ctx context.Context, store Store, ids []int64) ([]byte, error) {
	prisoners, err := prisonersByCells(ctx, store, ids)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(prisonersSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetSheetRow(prisonersSheet, "A1", &prisonersXLSXHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(prisonersSheet, "A1", "F1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	row := 2
	for _, p := range prisoners {
		var cellNumber any
		if p.CellNumber != nil {
			cellNumber = *p.CellNumber
		}

		officers := p.Officers
		if len(officers) == 0 {
			officers = []OfficerOut{{}}
		}
		for _, o := range officers {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
			values := []any{p.ID, p.Name, cellNumber, o.OfficerName, o.Department, string(p.TotalOfficerSalary)}
			if err := f.SetSheetRow(prisonersSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
