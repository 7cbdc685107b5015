package model

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/transform"
)

// AddFeature appends a feature and refits. An optional single transform
// overrides the resolver default; with none given the resolver is
// consulted, falling back to no transform.
//
// Validation failures reject the call before any mutation; a refit failure
// (singular design, too few rows) rolls the model back to its previous
// fit and returns the error.
func (m *Model) AddFeature(name string, tr ...transform.Transform) error {
	resolved, err := m.resolveTransform(name, tr)
	if err != nil {
		return err
	}
	if err := m.validateNewFeature(name, resolved); err != nil {
		return err
	}

	saved := m.snapshotState()
	m.features = append(m.features, name)
	m.transforms[name] = resolved
	if err := m.refit(); err != nil {
		m.restoreState(saved)
		m.logger.Warn("add feature failed, keeping previous fit",
			zap.String("model", m.name), zap.String("feature", name), zap.Error(err))

		return err
	}

	return nil
}

// AddFeatures appends several features with their resolver-default
// transforms as one atomic operation: either all features join the model,
// or none do.
func (m *Model) AddFeatures(names []string) error {
	if len(names) == 0 {
		return nil
	}

	resolved := make([]transform.Transform, len(names))
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q listed twice", errs.ErrDuplicateFeature, name)
		}
		seen[name] = struct{}{}

		tr, err := m.resolveTransform(name, nil)
		if err != nil {
			return err
		}
		if err := m.validateNewFeature(name, tr); err != nil {
			return err
		}
		resolved[i] = tr
	}

	saved := m.snapshotState()
	for i, name := range names {
		m.features = append(m.features, name)
		m.transforms[name] = resolved[i]
	}
	if err := m.refit(); err != nil {
		m.restoreState(saved)
		m.logger.Warn("batch add failed, keeping previous fit",
			zap.String("model", m.name), zap.Strings("features", names), zap.Error(err))

		return err
	}

	return nil
}

func (m *Model) validateNewFeature(name string, tr transform.Transform) error {
	if name == "" {
		return errs.ErrEmptyColumnName
	}
	if name == m.target {
		return fmt.Errorf("%w: %q", errs.ErrTargetAsFeature, name)
	}
	if m.HasFeature(name) {
		return fmt.Errorf("%w: %q", errs.ErrDuplicateFeature, name)
	}
	if !m.data.Has(name) {
		return fmt.Errorf("%w: %q", errs.ErrColumnNotFound, name)
	}
	if err := tr.Validate(); err != nil {
		return err
	}
	if tr.Kind == transform.KindProduct && !m.data.Has(tr.Operand) {
		return fmt.Errorf("%w: product operand %q", errs.ErrColumnNotFound, tr.Operand)
	}

	return nil
}

// RemoveFeature drops a feature, its transform, and any fixed coefficient
// on it, then refits. Removing the last feature resets the model to the
// intercept-only baseline, clearing all fixed coefficients.
func (m *Model) RemoveFeature(name string) error {
	return m.RemoveFeatures([]string{name})
}

// RemoveFeatures drops several features atomically. Every name must be a
// current feature.
func (m *Model) RemoveFeatures(names []string) error {
	if len(names) == 0 {
		return nil
	}
	for _, name := range names {
		if !m.HasFeature(name) {
			return fmt.Errorf("%w: %q", errs.ErrFeatureNotFound, name)
		}
	}

	saved := m.snapshotState()
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[name] = struct{}{}
	}
	kept := m.features[:0:0]
	for _, f := range m.features {
		if _, gone := drop[f]; !gone {
			kept = append(kept, f)
		}
	}
	m.features = kept
	for name := range drop {
		delete(m.transforms, name)
		delete(m.fixed, name)
	}
	if len(m.features) == 0 {
		// Removing the last feature is equivalent to Initialize.
		m.fixed = make(map[string]float64)
	}
	if err := m.refit(); err != nil {
		m.restoreState(saved)
		m.logger.Warn("remove failed, keeping previous fit",
			zap.String("model", m.name), zap.Strings("features", names), zap.Error(err))

		return err
	}

	return nil
}

// SetTransform replaces a feature's transform and refits, rolling back on
// failure.
func (m *Model) SetTransform(feature string, tr transform.Transform) error {
	if !m.HasFeature(feature) {
		return fmt.Errorf("%w: %q", errs.ErrFeatureNotFound, feature)
	}
	if err := tr.Validate(); err != nil {
		return err
	}
	if tr.Kind == transform.KindProduct && !m.data.Has(tr.Operand) {
		return fmt.Errorf("%w: product operand %q", errs.ErrColumnNotFound, tr.Operand)
	}

	saved := m.snapshotState()
	m.transforms[feature] = tr
	if err := m.refit(); err != nil {
		m.restoreState(saved)
		return err
	}

	return nil
}

// SetDateWindow restricts fitting to rows with start <= t <= end (zero
// times leave a side unbounded) and refits. Every transform is recomputed
// from the window's statistics, so means, target normalization, and date
// splits all follow the window. Setting both bounds to zero restores the
// full range.
func (m *Model) SetDateWindow(start, end time.Time) error {
	// Reject impossible windows before mutating.
	if _, err := m.data.Window(start, end); err != nil {
		return err
	}

	saved := m.snapshotState()
	m.windowStart = start
	m.windowEnd = end
	if err := m.refit(); err != nil {
		m.restoreState(saved)
		m.logger.Warn("window change failed, keeping previous fit",
			zap.String("model", m.name), zap.Error(err))

		return err
	}

	return nil
}

// ClearDateWindow restores fitting over the full dataset range.
func (m *Model) ClearDateWindow() error {
	return m.SetDateWindow(time.Time{}, time.Time{})
}
