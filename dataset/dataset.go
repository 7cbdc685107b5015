// Package dataset provides the time-indexed column store that models fit
// against.
//
// A Dataset is a set of named float64 columns sharing one strictly
// ascending time index. Columns are append-only; values are copied on the
// way in and on the way out, so callers can never alias internal storage.
// Missing observations are represented as NaN and handled downstream by
// the regression layer.
//
// Window produces a cheap sub-range view for date-restricted fitting; the
// view shares backing arrays with its parent but has independent column
// bookkeeping, so deriving new columns on either side leaves the other
// untouched.
package dataset

import (
	"fmt"
	"sort"
	"time"

	"github.com/arloliu/mixfit/errs"
)

// Dataset is a collection of named float64 columns over a shared, strictly
// ascending time index.
type Dataset struct {
	index   []time.Time
	columns map[string][]float64
	names   []string
}

// New creates an empty Dataset over the given time index.
//
// The index is copied. It must be non-empty and strictly ascending;
// duplicate timestamps are rejected.
//
// Parameters:
//   - index: observation timestamps, one per row
//
// Returns:
//   - *Dataset: empty dataset ready for AddColumn
//   - error: errs.ErrEmptyIndex or errs.ErrUnsortedIndex
func New(index []time.Time) (*Dataset, error) {
	if len(index) == 0 {
		return nil, errs.ErrEmptyIndex
	}
	for i := 1; i < len(index); i++ {
		if !index[i-1].Before(index[i]) {
			return nil, fmt.Errorf("%w: index[%d] (%s) >= index[%d] (%s)",
				errs.ErrUnsortedIndex, i-1, index[i-1].Format(time.DateOnly), i, index[i].Format(time.DateOnly))
		}
	}

	return &Dataset{
		index:   append([]time.Time(nil), index...),
		columns: make(map[string][]float64),
	}, nil
}

// AddColumn adds a named column. The values slice is copied and must match
// the index length. Adding an existing name fails; use SetColumn to
// overwrite.
func (d *Dataset) AddColumn(name string, values []float64) error {
	if name == "" {
		return errs.ErrEmptyColumnName
	}
	if _, ok := d.columns[name]; ok {
		return fmt.Errorf("%w: %q", errs.ErrDuplicateColumn, name)
	}

	return d.setColumn(name, values)
}

// SetColumn adds a named column, replacing any existing column of the same
// name. Derived-variable creation uses this so regenerating a column with
// new parameters is not an error.
func (d *Dataset) SetColumn(name string, values []float64) error {
	if name == "" {
		return errs.ErrEmptyColumnName
	}

	return d.setColumn(name, values)
}

func (d *Dataset) setColumn(name string, values []float64) error {
	if len(values) != len(d.index) {
		return fmt.Errorf("%w: column %q has %d values, index has %d rows",
			errs.ErrLengthMismatch, name, len(values), len(d.index))
	}
	if _, ok := d.columns[name]; !ok {
		d.names = append(d.names, name)
	}
	d.columns[name] = append([]float64(nil), values...)

	return nil
}

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) ([]float64, error) {
	values, ok := d.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrColumnNotFound, name)
	}

	return append([]float64(nil), values...), nil
}

// Has reports whether the named column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Columns returns the column names in insertion order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.names...)
}

// Index returns a copy of the time index.
func (d *Dataset) Index() []time.Time {
	return append([]time.Time(nil), d.index...)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.index)
}

// Range returns the first and last timestamps of the index.
func (d *Dataset) Range() (start, end time.Time) {
	return d.index[0], d.index[len(d.index)-1]
}

// Window returns a view restricted to rows with start <= t <= end. A zero
// start or end leaves that side unbounded. The view shares backing arrays
// with the parent, which is safe because columns are never mutated in
// place; columns added later to either dataset are invisible to the other.
//
// Returns errs.ErrEmptyWindow when no rows fall inside the range.
func (d *Dataset) Window(start, end time.Time) (*Dataset, error) {
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(d.index), func(i int) bool {
			return !d.index[i].Before(start)
		})
	}
	hi := len(d.index)
	if !end.IsZero() {
		hi = sort.Search(len(d.index), func(i int) bool {
			return d.index[i].After(end)
		})
	}
	if lo >= hi {
		return nil, fmt.Errorf("%w: [%s, %s]", errs.ErrEmptyWindow,
			formatBound(start), formatBound(end))
	}

	w := &Dataset{
		index:   d.index[lo:hi],
		columns: make(map[string][]float64, len(d.columns)),
		names:   append([]string(nil), d.names...),
	}
	for name, values := range d.columns {
		w.columns[name] = values[lo:hi]
	}

	return w, nil
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "unbounded"
	}

	return t.Format(time.DateOnly)
}
