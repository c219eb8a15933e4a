// Package xlsx exports seasons to Excel workbooks.
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/neomorfeo/cropseason/internal/domain"
)

// SheetName is the worksheet holding the exported seasons.
const SheetName = "Seasons"

var header = []any{
	"ID", "Season", "Plot", "Crop", "Variety", "Status",
	"Start", "Planned harvest", "End",
	"Initial plants", "Current plants", "Expected yield (kg)", "Actual yield (kg)",
	"Notes", "Updated",
}

// Write renders seasons as a single-sheet workbook, one row per season
// under a frozen header row.
func Write(w io.Writer, seasons []domain.Season) error {
	f, err := build(seasons)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook to path.
func WriteFile(path string, seasons []domain.Season) error {
	f, err := build(seasons)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func build(seasons []domain.Season) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	for i, s := range seasons {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := seasonRow(s)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing season %d: %w", s.ID, err)
		}
	}

	if err := decorate(f, len(seasons)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func decorate(f *excelize.File, rows int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 16); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}
	if err := f.AutoFilter(SheetName, fmt.Sprintf("A1:%s%d", lastCol, rows+1), nil); err != nil {
		return fmt.Errorf("adding filter: %w", err)
	}
	return nil
}

func seasonRow(s domain.Season) []any {
	return []any{
		s.ID,
		s.SeasonName,
		s.PlotID,
		s.CropID,
		optional(s.VarietyID),
		string(s.Status),
		s.StartDate.Format(domain.DateLayout),
		date(s.PlannedHarvestDate),
		date(s.EndDate),
		s.InitialPlantCount,
		optional(s.CurrentPlantCount),
		optional(s.ExpectedYieldKg),
		optional(s.ActualYieldKg),
		s.Notes,
		s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// optional leaves the cell empty for unset values.
func optional[T int | int64 | float64](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func date(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(domain.DateLayout)
}
