package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/internal/options"
)

type csvConfig struct {
	dateColumn string
	dateFormat string
}

// CSVOption configures CSV parsing.
type CSVOption = options.Option[*csvConfig]

// WithDateColumn selects the header name holding the time index. By default
// the first column is used.
func WithDateColumn(name string) CSVOption {
	return options.NoError(func(cfg *csvConfig) {
		cfg.dateColumn = name
	})
}

// WithDateFormat sets the time.Parse layout for the date column.
// The default layout is "2006-01-02".
func WithDateFormat(layout string) CSVOption {
	return options.NoError(func(cfg *csvConfig) {
		cfg.dateFormat = layout
	})
}

// FromCSV reads a headed CSV stream into a Dataset. One column carries the
// time index (first column unless WithDateColumn says otherwise); every
// other column becomes a float64 data column. Empty cells become NaN so
// ragged business series survive loading; any other unparsable cell is an
// error.
func FromCSV(r io.Reader, opts ...CSVOption) (*Dataset, error) {
	cfg := &csvConfig{dateFormat: time.DateOnly}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errs.ErrEmptyIndex
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	dateIdx, err := findDateColumn(header, cfg.dateColumn)
	if err != nil {
		return nil, err
	}

	var (
		index   []time.Time
		columns = make([][]float64, len(header))
	)
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}

		ts, err := time.Parse(cfg.dateFormat, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("parse date at row %d: %w", row, err)
		}
		index = append(index, ts)

		for col, cell := range record {
			if col == dateIdx {
				continue
			}
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("parse %q at row %d column %q: %w", cell, row, header[col], err)
			}
			columns[col] = append(columns[col], v)
		}
	}

	ds, err := New(index)
	if err != nil {
		return nil, err
	}
	for col, name := range header {
		if col == dateIdx {
			continue
		}
		if err := ds.AddColumn(strings.TrimSpace(name), columns[col]); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// FromCSVFile reads a CSV file into a Dataset. See FromCSV.
func FromCSVFile(path string, opts ...CSVOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	return FromCSV(f, opts...)
}

func findDateColumn(header []string, want string) (int, error) {
	if want == "" {
		return 0, nil
	}
	for i, name := range header {
		if strings.TrimSpace(name) == want {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: date column %q", errs.ErrColumnNotFound, want)
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), nil
	}

	return strconv.ParseFloat(cell, 64)
}
