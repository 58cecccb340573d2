package export

import (
	"encoding/csv"
	"os"

	"github.com/woonstadrotterdam/sqlgate/internal/db"
)

// WriteCSV writes a captured result set to a CSV file. NULL cells become
// empty fields.
func WriteCSV(path string, rs *db.ResultSet) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(rs.Columns); err != nil {
		return err
	}

	record := make([]string, len(rs.Columns))
	for _, row := range rs.Rows {
		for i, scalar := range row {
			if scalar.IsNull() {
				record[i] = ""
			} else {
				record[i] = scalar.String()
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
