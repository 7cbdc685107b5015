// Package mixfit builds, refits, and dissects linear marketing-mix models
// over dated observations.
//
// A model owns a target column and an ordered set of transformed feature
// columns drawn from a shared dataset. Every change to the feature set
// refits the model immediately and rolls back on failure, so a model is
// never observed in a half-mutated state and a fitted summary is always
// one call away. Around that core the module provides saturation-curve
// grid search, candidate screening diagnostics, contribution
// decomposition that re-sums exactly to the prediction, and compressed
// binary snapshots of model state.
//
// # Core Features
//
//   - Immediate refit on every feature change, with rollback on failure
//   - Transform vocabulary: adstock carryover, ICP and ADBUG saturation
//     curves, lags, leads, date splits, products, weighted composites
//   - Parallel curve-parameter grid search ranked by |t| statistic
//   - Contribution decomposition with per-row conservation
//   - Candidate screening: correlations, solo and full fits, VIF
//   - Fixed-coefficient overrides honored by every refit
//   - Snapshots framed with xxHash64 digests and pluggable compression
//
// # Basic Usage
//
// Loading data and fitting a model:
//
//	import "github.com/arloliu/mixfit"
//
//	// Weekly observations, oldest first.
//	ds, _ := mixfit.NewDataset(weeks)
//	_ = ds.AddColumn("Sales", sales)
//	_ = ds.AddColumn("TV", tv)
//	_ = ds.AddColumn("Promo", promo)
//
//	// Every feature change refits in place.
//	m, _ := mixfit.NewModel("q3-mix", "Sales", ds)
//	_ = m.AddFeatures([]string{"TV", "Promo"})
//	fmt.Printf("R²=%.3f\n", m.Summary().RSquared)
//
// Carrying spend forward and searching saturation curves:
//
//	// Materialize TV with 50% weekly carryover, then rank ICP curve
//	// candidates for the carried column by |t| statistic.
//	carried, _ := m.CreateAdstockVariable("TV", 0.5) // "TV_adstock_50"
//	results, _ := mixfit.ScanICP(ctx, m, carried)
//
//	// Refit on the winning curve.
//	name, _ := m.CreateCurveVariable(carried, results[0].Transform)
//	_ = m.RemoveFeature("TV")
//	_ = m.AddFeature(name)
//
// Decomposing the fit and snapshotting model state:
//
//	table, _ := mixfit.Decompose(m)
//	media, _ := table.Column("Media")
//
//	raw, _ := mixfit.SaveModel(m)
//	restored, _ := mixfit.LoadModel(raw, ds)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the dataset,
// model, search, decomp, diag, and snapshot packages, simplifying the
// most common use cases. For fine-grained control (custom scan grids,
// hand-written contribution groups, screening previews, snapshot codec
// selection), use those packages directly.
package mixfit

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/arloliu/mixfit/dataset"
	"github.com/arloliu/mixfit/decomp"
	"github.com/arloliu/mixfit/diag"
	"github.com/arloliu/mixfit/model"
	"github.com/arloliu/mixfit/search"
	"github.com/arloliu/mixfit/snapshot"
)

// Engine configuration used by the convenience scan helpers.
var defaultScanOptions = []search.Option{
	search.WithWorkers(runtime.GOMAXPROCS(0)),
}

// NewDataset creates an empty dataset over a time index.
//
// The index must be non-empty, strictly increasing, and free of
// duplicates; every column added later must match its length. Cell values
// may be NaN, which marks an observation as missing for that column.
//
// Parameters:
//   - index: Observation timestamps, oldest first
//
// Returns:
//   - *dataset.Dataset: The created dataset.
//   - error: An error if the index is empty or unsorted.
//
// Example:
//
//	weeks := make([]time.Time, 52)
//	for i := range weeks {
//	    weeks[i] = start.AddDate(0, 0, 7*i)
//	}
//	ds, err := mixfit.NewDataset(weeks)
func NewDataset(index []time.Time) (*dataset.Dataset, error) {
	return dataset.New(index)
}

// DatasetFromCSV reads a headed CSV stream into a dataset.
//
// One column carries the time index (the first column unless
// dataset.WithDateColumn says otherwise); every other column becomes a
// float64 data column. Empty cells load as NaN so ragged business series
// survive, while any other unparsable cell is an error.
//
// Parameters:
//   - r: The CSV stream, header row first
//   - opts: Optional configuration functions (see dataset.CSVOption)
//
// Returns:
//   - *dataset.Dataset: The loaded dataset.
//   - error: An error if the stream is empty or malformed.
//
// Available options:
//   - dataset.WithDateColumn("Week")
//   - dataset.WithDateFormat("02/01/2006")
//
// Example:
//
//	ds, err := mixfit.DatasetFromCSV(resp.Body,
//	    dataset.WithDateColumn("Week"),
//	)
func DatasetFromCSV(r io.Reader, opts ...dataset.CSVOption) (*dataset.Dataset, error) {
	return dataset.FromCSV(r, opts...)
}

// DatasetFromCSVFile reads a CSV file into a dataset. See DatasetFromCSV.
//
// Example:
//
//	ds, err := mixfit.DatasetFromCSVFile("sales.csv")
func DatasetFromCSVFile(path string, opts ...dataset.CSVOption) (*dataset.Dataset, error) {
	return dataset.FromCSVFile(path, opts...)
}

// NewModel creates a model for a target column and fits the intercept-only
// baseline.
//
// The model holds a reference to the dataset rather than a copy, so
// derived columns (adstock, curves, splits, products) materialize into the
// shared dataset and stay visible to other models built over it. Features
// are added afterwards with AddFeature or AddFeatures; each addition
// refits immediately.
//
// Parameters:
//   - name: Model name, used in logs and snapshots
//   - target: The dataset column the model explains
//   - data: The shared dataset
//   - opts: Optional configuration functions (see model.Option)
//
// Returns:
//   - *model.Model: The created model, fitted to the intercept-only baseline.
//   - error: An error if the target column is missing or the baseline fit fails.
//
// Available options:
//   - model.WithLogger(logger)
//   - model.WithResolver(resolver)
//
// Example:
//
//	m, err := mixfit.NewModel("q3-mix", "Sales", ds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := m.AddFeature("TV"); err != nil {
//	    log.Fatal(err)
//	}
func NewModel(name, target string, data *dataset.Dataset, opts ...model.Option) (*model.Model, error) {
	return model.New(name, target, data, opts...)
}

// NewSearchEngine creates a curve-scan engine with custom options.
//
// Use this when you need a non-default worker count or scan logging;
// otherwise the ScanICP and ScanADBUG helpers cover the common case with
// the standard grids.
//
// Parameters:
//   - opts: Optional configuration functions (see search.Option)
//
// Returns:
//   - *search.Engine: The created engine.
//   - error: An error if the configuration is invalid.
//
// Available options:
//   - search.WithWorkers(n)
//   - search.WithLogger(logger)
//
// Example:
//
//	engine, err := mixfit.NewSearchEngine(search.WithWorkers(4))
//	results, err := engine.Scan(ctx, m, "TV", search.ICPGrid())
func NewSearchEngine(opts ...search.Option) (*search.Engine, error) {
	return search.New(opts...)
}

// ScanICP evaluates the standard ICP curve grid for one variable.
//
// Every (alpha, beta, gamma) combination in search.ICPGrid becomes a
// candidate column fitted on top of the model's current features. Gamma
// candidates derive from the variable's own distribution. The model is
// read once up front and never mutated, and candidates evaluate in
// parallel across GOMAXPROCS workers.
//
// Results come back ordered by |t| statistic descending, so results[0] is
// the strongest candidate. Candidates whose fit fails are dropped, not
// fatal; an empty slice means nothing survived.
//
// Parameters:
//   - ctx: Cancels the scan between candidates
//   - m: The fitted model to scan against
//   - variable: The dataset column to curve
//
// Returns:
//   - []search.Result: Surviving candidates, strongest first.
//   - error: An error if the variable is unknown or the base fit is unusable.
//
// Example:
//
//	results, err := mixfit.ScanICP(ctx, m, "TV")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	name, _ := m.CreateCurveVariable("TV", results[0].Transform)
//	_ = m.AddFeature(name)
func ScanICP(ctx context.Context, m *model.Model, variable string) ([]search.Result, error) {
	engine, err := search.New(defaultScanOptions...)
	if err != nil {
		return nil, err
	}

	return engine.Scan(ctx, m, variable, search.ICPGrid())
}

// ScanADBUG evaluates the standard ADBUG curve grid for one variable.
//
// Similar to ScanICP but over search.ADBUGGrid, whose curves saturate
// from a floor rather than switching at an inflection point. Use both
// scans on the same variable to compare curve families.
//
// Example:
//
//	icp, _ := mixfit.ScanICP(ctx, m, "TV")
//	adbug, _ := mixfit.ScanADBUG(ctx, m, "TV")
func ScanADBUG(ctx context.Context, m *model.Model, variable string) ([]search.Result, error) {
	engine, err := search.New(defaultScanOptions...)
	if err != nil {
		return nil, err
	}

	return engine.Scan(ctx, m, variable, search.ADBUGGrid())
}

// NewDecomposer creates a contribution decomposer with custom options.
//
// Use this when you want reconciliation logging or plan to pass
// hand-written group maps; otherwise the Decompose helper covers the
// common case with name-inferred default groups.
//
// Parameters:
//   - opts: Optional configuration functions (see decomp.Option)
//
// Returns:
//   - *decomp.Decomposer: The created decomposer.
//   - error: An error if the configuration is invalid.
//
// Example:
//
//	d, err := mixfit.NewDecomposer(decomp.WithLogger(logger))
//	table, err := d.Decompose(m, groups)
func NewDecomposer(opts ...decomp.Option) (*decomp.Decomposer, error) {
	return decomp.New(opts...)
}

// Decompose attributes the model's prediction to contribution groups
// inferred from variable names.
//
// The intercept lands in Base, media-like names in Media, promotion-like
// names in Promotions, and so on per decomp.DefaultGroup; anything
// unrecognized aggregates into Other. The returned table carries Actual,
// Predicted, and one column per group in sorted order, and the group
// columns sum to Predicted at every timestamp.
//
// For custom group maps or baseline adjustments, build a
// decomp.Decomposer and call Decompose with an explicit decomp.Groups.
//
// Parameters:
//   - m: The fitted model to decompose
//
// Returns:
//   - *decomp.Table: The time-indexed contribution table.
//   - error: An error if the model's fit is unusable.
//
// Example:
//
//	table, err := mixfit.Decompose(m)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	media, ok := table.Column("Media")
func Decompose(m *model.Model) (*decomp.Table, error) {
	d, err := decomp.New()
	if err != nil {
		return nil, err
	}

	return d.Decompose(m, nil)
}

// NewScreener creates a candidate screener.
//
// A screener reports how a candidate variable behaves against a fitted
// model without mutating it: correlation with the target and with the
// current residuals, solo and full-fit statistics, R² increase, variance
// inflation, and impact at the candidate's mean. Screeners also preview
// hypothetical feature additions and removals.
//
// Parameters:
//   - opts: Optional configuration functions (see diag.Option)
//
// Returns:
//   - *diag.Screener: The created screener.
//   - error: An error if the configuration is invalid.
//
// Example:
//
//	s, err := mixfit.NewScreener()
//	report, err := s.Screen(m, "Competitor", 0.3)
//	fmt.Printf("VIF=%.2f ΔR²=%.4f\n", report.VIF, report.RSquaredIncrease)
func NewScreener(opts ...diag.Option) (*diag.Screener, error) {
	return diag.New(opts...)
}

// SaveModel serializes a model's state to a framed binary snapshot.
//
// The snapshot carries the model's recipe, not its data: feature names
// and transforms, weighted-composite definitions, the date window, fixed
// coefficients, and the fit statistics at save time. The payload is
// compressed (Zstd unless snapshot.WithCodec says otherwise) and framed
// with a header holding a magic number, format version, codec id, and an
// xxHash64 digest of the compressed payload.
//
// Parameters:
//   - m: The model to snapshot
//   - opts: Optional configuration functions (see snapshot.Option)
//
// Returns:
//   - []byte: The framed snapshot.
//   - error: An error if the state cannot be encoded.
//
// Available options:
//   - snapshot.WithCodec(compress.TypeNone|TypeZstd|TypeS2|TypeLZ4)
//   - snapshot.WithLogger(logger)
//
// Example:
//
//	raw, err := mixfit.SaveModel(m)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = os.WriteFile("q3-mix.snap", raw, 0o644)
func SaveModel(m *model.Model, opts ...snapshot.Option) ([]byte, error) {
	return snapshot.Save(m, opts...)
}

// LoadModel rebuilds a model from a snapshot over a caller-supplied
// dataset.
//
// The header is validated (magic, version, digest) and the codec is read
// from it, so no codec option is needed. The dataset must carry the
// target and every saved feature's source column; weighted composites are
// rebuilt from their recipes, other derived columns must already exist.
// After replaying the recipe the model refits on the supplied data, and a
// drifted R² relative to the saved fit logs a warning rather than
// failing.
//
// Parameters:
//   - data: The framed snapshot bytes
//   - ds: The dataset to rebuild over
//   - opts: Optional configuration functions (see snapshot.Option)
//
// Returns:
//   - *model.Model: The rebuilt, refitted model.
//   - error: An error if the frame is invalid or the dataset is missing columns.
//
// Example:
//
//	raw, err := os.ReadFile("q3-mix.snap")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := mixfit.LoadModel(raw, ds)
func LoadModel(data []byte, ds *dataset.Dataset, opts ...snapshot.Option) (*model.Model, error) {
	return snapshot.Load(data, ds, opts...)
}
