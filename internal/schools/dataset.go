package schools

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Columns names the two dataset columns the pipeline reads.
type Columns struct {
	Region  string
	Revenue string
}

// DefaultColumns matches the school finance survey export.
var DefaultColumns = Columns{Region: "STATE", Revenue: "TOTALREV"}

// Dataset is the loaded school records table. Filtering replaces the
// underlying frame; the source file is never written back.
type Dataset struct {
	df      dataframe.DataFrame
	columns Columns
}

// ReadDataset parses CSV from r. Column types are inferred by gota; no other
// validation happens here.
func ReadDataset(r io.Reader, cols Columns) (*Dataset, error) {
	df := dataframe.ReadCSV(r)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", df.Err)
	}
	return &Dataset{df: df, columns: cols}, nil
}

// NewDataset wraps an existing frame.
func NewDataset(df dataframe.DataFrame, cols Columns) (*Dataset, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	return &Dataset{df: df, columns: cols}, nil
}

// Frame returns the current frame.
func (d *Dataset) Frame() dataframe.DataFrame { return d.df }

// Columns returns the region and revenue column names.
func (d *Dataset) Columns() Columns { return d.columns }

// Nrow returns the number of rows.
func (d *Dataset) Nrow() int { return d.df.Nrow() }

// Names returns the column names.
func (d *Dataset) Names() []string { return d.df.Names() }

// HasColumn reports whether name is a column of the dataset.
func (d *Dataset) HasColumn(name string) bool {
	for _, n := range d.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func (d *Dataset) requireColumn(name string) error {
	if !d.HasColumn(name) {
		return fmt.Errorf("column %q not found (have %s)", name, strings.Join(d.df.Names(), ", "))
	}
	return nil
}

// FilterRegions keeps only rows whose region is one of regions. An empty list
// keeps nothing.
func (d *Dataset) FilterRegions(regions []string) error {
	if err := d.requireColumn(d.columns.Region); err != nil {
		return err
	}
	filtered := d.df.Filter(dataframe.F{
		Colname:    d.columns.Region,
		Comparator: series.In,
		Comparando: append([]string(nil), regions...),
	})
	if filtered.Err != nil {
		return fmt.Errorf("failed to filter on %s: %w", d.columns.Region, filtered.Err)
	}
	d.df = filtered
	return nil
}

// DistinctRegions returns the sorted set of non-empty region values.
func (d *Dataset) DistinctRegions() ([]string, error) {
	if err := d.requireColumn(d.columns.Region); err != nil {
		return nil, err
	}
	col := d.df.Col(d.columns.Region)
	seen := make(map[string]struct{})
	for i := 0; i < col.Len(); i++ {
		el := col.Elem(i)
		if el.IsNA() {
			continue
		}
		if v := el.String(); strings.TrimSpace(v) != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out, nil
}

// groupable returns the frame restricted to rows with a usable region value,
// after checking both columns exist.
func (d *Dataset) groupable() (dataframe.DataFrame, error) {
	if err := d.requireColumn(d.columns.Region); err != nil {
		return dataframe.DataFrame{}, err
	}
	if err := d.requireColumn(d.columns.Revenue); err != nil {
		return dataframe.DataFrame{}, err
	}

	col := d.df.Col(d.columns.Region)
	keep := make([]int, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		el := col.Elem(i)
		if el.IsNA() || strings.TrimSpace(el.String()) == "" {
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == col.Len() {
		return d.df, nil
	}
	sub := d.df.Subset(keep)
	if sub.Err != nil {
		return dataframe.DataFrame{}, sub.Err
	}
	return sub, nil
}

// records returns (region, revenue) pairs for every groupable row.
func (d *Dataset) records() ([]string, []float64, error) {
	df, err := d.groupable()
	if err != nil {
		return nil, nil, err
	}
	if df.Nrow() == 0 {
		return nil, nil, nil
	}
	return df.Col(d.columns.Region).Records(), df.Col(d.columns.Revenue).Float(), nil
}
