package preprocess

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"stockai/pkg/contracts/domain"
)

// Frame is one company's feature table: a fixed set of named numeric
// columns of equal length, rows in ingestion order. Missing values are
// represented as NaN.
type Frame struct {
	Company string
	Columns []string
	data    map[string][]float64
}

// NewFrame creates an empty frame for a company.
func NewFrame(company string) *Frame {
	return &Frame{
		Company: company,
		data:    make(map[string][]float64),
	}
}

// SetColumn stores a column, registering its name on first write.
func (f *Frame) SetColumn(name string, values []float64) {
	if _, exists := f.data[name]; !exists {
		f.Columns = append(f.Columns, name)
	}
	f.data[name] = values
}

// Column returns the named column, or nil when absent.
func (f *Frame) Column(name string) []float64 {
	return f.data[name]
}

// NumRows returns the row count of the frame.
func (f *Frame) NumRows() int {
	for _, values := range f.data {
		return len(values)
	}
	return 0
}

// Last returns the final value of the named column. The second return is
// false for an empty or absent column.
func (f *Frame) Last(name string) (float64, bool) {
	values := f.data[name]
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

// rawColumn is an intermediate parse of one table column.
type rawColumn struct {
	name        string
	values      []float64 // NaN where missing or non-numeric
	categorical bool
	raw         []string
}

// parseColumns converts the dataset's required columns into numeric and
// categorical intermediates, in the canonical column order. A column is
// categorical when any populated cell fails to parse as a number.
func parseColumns(ds *domain.CompanyDataset) ([]rawColumn, error) {
	columns := make([]rawColumn, 0, len(domain.RequiredColumns()))
	for _, name := range domain.RequiredColumns() {
		raw := ds.Column(name)
		if raw == nil {
			return nil, fmt.Errorf("column %s not present", name)
		}

		col := rawColumn{name: name, raw: raw, values: make([]float64, len(raw))}
		for i, cell := range raw {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				col.values[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
			if err != nil {
				col.categorical = true
				break
			}
			col.values[i] = v
		}
		columns = append(columns, col)
	}
	return columns, nil
}
