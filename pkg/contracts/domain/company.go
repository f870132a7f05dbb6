package domain

// Column names of the per-company history tables. The merge utility that
// produces the input files emits exactly this set; names are case- and
// spelling-exact.
const (
	ColCompanyName  = "CompanyName"
	ColSeries       = "Series"
	ColOpen         = "OPEN"
	ColHigh         = "HIGH"
	ColLow          = "LOW"
	ColClose        = "CLOSE"
	ColLast         = "LAST"
	ColPrevClose    = "PREVCLOSE"
	ColTotTrdQty    = "TOTTRDQTY"
	ColTotTrdVal    = "TOTTRDVAL"
	ColTimestamp    = "TIMESTAMP"
	ColTotalTrades  = "TOTALTRADES"
	ColISIN         = "ISIN"
	ColCurrentPrice = "CurrentPrice"
	ColS3           = "S3"
	ColS2           = "S2"
	ColS1           = "S1"
	ColPivot        = "Pivot"
	ColR1           = "R1"
	ColR2           = "R2"
	ColR3           = "R3"

	// ColMA5 is derived during preprocessing, never present in raw input.
	ColMA5 = "MA_5"
)

// RequiredColumns returns the 21 columns a company table must carry.
// A table missing any of them is rejected wholesale.
func RequiredColumns() []string {
	return []string{
		ColCompanyName, ColSeries, ColOpen, ColHigh, ColLow, ColClose,
		ColLast, ColPrevClose, ColTotTrdQty, ColTotTrdVal, ColTimestamp,
		ColTotalTrades, ColISIN, ColCurrentPrice, ColS3, ColS2, ColS1,
		ColPivot, ColR1, ColR2, ColR3,
	}
}

// CompanyDataset holds one company's raw history table as loaded from disk,
// rows in ingestion order (assumed chronological).
type CompanyDataset struct {
	CompanyName string     `json:"company_name"`
	SourcePath  string     `json:"source_path"`
	Header      []string   `json:"header"`
	Rows        [][]string `json:"rows"`
}

// RowCount returns the number of data rows in the dataset.
func (d *CompanyDataset) RowCount() int {
	return len(d.Rows)
}

// ColumnIndex returns the position of the named column in the header,
// or -1 when absent.
func (d *CompanyDataset) ColumnIndex(name string) int {
	for i, col := range d.Header {
		if col == name {
			return i
		}
	}
	return -1
}

// Column returns the named column's raw cell values in row order.
// Rows shorter than the header yield empty cells.
func (d *CompanyDataset) Column(name string) []string {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values
}
