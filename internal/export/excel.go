package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/woonstadrotterdam/sqlgate/internal/db"
)

const sheetName = "Results"

// WriteXLSX writes a captured result set to an xlsx workbook, headers bold
// on the first row, NULL cells left empty.
func WriteXLSX(path string, rs *db.ResultSet) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	for i, col := range rs.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for r, row := range rs.Rows {
		for c, scalar := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := setScalar(f, cell, scalar); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving workbook: %w", err)
	}
	return nil
}

func setScalar(f *excelize.File, cell string, s db.Scalar) error {
	switch s.Kind {
	case db.KindNull:
		return nil
	case db.KindBool:
		return f.SetCellBool(sheetName, cell, s.Bool)
	case db.KindInt:
		return f.SetCellInt(sheetName, cell, s.Int)
	case db.KindFloat:
		return f.SetCellFloat(sheetName, cell, s.Float, -1, 64)
	default:
		return f.SetCellValue(sheetName, cell, s.Str)
	}
}
