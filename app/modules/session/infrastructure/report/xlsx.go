package sessionreport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	scoresSheet = "Scores"
	radlciSheet = "Radlci"
)

// RenderXLSX writes s as a workbook with a Scores sheet and, for tarok, a
// Radlci sheet holding each player's radlc ledger.
func RenderXLSX(w io.Writer, s Sheet) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), scoresSheet); err != nil {
		return fmt.Errorf("failed to name scores sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	header := []interface{}{"Round"}
	for _, name := range s.Players {
		header = append(header, name)
	}
	if err := setRow(f, scoresSheet, 1, header); err != nil {
		return err
	}

	for i, row := range s.Rows {
		cells := []interface{}{i + 1}
		for _, c := range row {
			cells = append(cells, cellValue(c))
		}
		if err := setRow(f, scoresSheet, i+2, cells); err != nil {
			return err
		}
	}

	totalRow := len(s.Rows) + 2
	totals := []interface{}{"Total"}
	for _, c := range s.Totals {
		totals = append(totals, cellValue(c))
	}
	if err := setRow(f, scoresSheet, totalRow, totals); err != nil {
		return err
	}
	if err := f.SetRowStyle(scoresSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetRowStyle(scoresSheet, totalRow, totalRow, bold); err != nil {
		return fmt.Errorf("failed to style totals: %w", err)
	}

	if s.Resources != nil {
		if _, err := f.NewSheet(radlciSheet); err != nil {
			return fmt.Errorf("failed to create radlci sheet: %w", err)
		}
		if err := setRow(f, radlciSheet, 1, header[1:]); err != nil {
			return err
		}
		depth := 0
		for _, tokens := range s.Resources {
			depth = max(depth, len(tokens))
		}
		for slot := 0; slot < depth; slot++ {
			cells := make([]interface{}, len(s.Resources))
			for i, tokens := range s.Resources {
				if slot < len(tokens) {
					cells[i] = tokens[slot].String()
				}
			}
			if err := setRow(f, radlciSheet, slot+2, cells); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func cellValue(c Cell) interface{} {
	if c.Value == nil {
		return nil
	}
	return *c.Value
}
