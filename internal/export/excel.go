// Package export renders game standings as an xlsx workbook for the
// /excel admin command.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/horv1tz/prompt-battle-tgbot/internal/game"
)

const (
	sheetBest = "Best per user"
	sheetAll  = "All attempts"
)

// ResultsWorkbook builds a two-sheet workbook: best result per user, then
// every attempt. Rows arrive pre-ordered from the aggregator.
func ResultsWorkbook(g game.Game, best, all []game.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetBest)
	if _, err := f.NewSheet(sheetAll); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	if err := writeResults(f, sheetBest, g, best); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeResults(f, sheetAll, g, all); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeResults(f *excelize.File, sheet string, g game.Game, results []game.Result) error {
	header := []interface{}{"User ID", "Name", "Guess", "Score", "Submitted at"}
	if err := writeRow(f, sheet, 1, []interface{}{"Game", g.ID, "Prompt", g.Prompt}); err != nil {
		return err
	}
	if err := writeRow(f, sheet, 2, header); err != nil {
		return err
	}
	for i, r := range results {
		row := []interface{}{
			r.UserID,
			r.DisplayName,
			r.Text,
			r.Score,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writeRow(f, sheet, i+3, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}
