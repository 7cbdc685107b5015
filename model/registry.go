package model

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/arloliu/mixfit/dataset"
	"github.com/arloliu/mixfit/errs"
)

// Registry holds named models so sessions can switch between candidate
// specifications of the same target. The registry itself is safe for
// concurrent use; individual models are not, and callers must not mutate
// one model from several goroutines.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// NewRegistry returns an empty model registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Create builds a model via New and registers it under its name.
func (r *Registry) Create(name, target string, data *dataset.Dataset, opts ...Option) (*Model, error) {
	m, err := New(name, target, data, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Put(m); err != nil {
		return nil, err
	}

	return m, nil
}

// Put registers an existing model, rejecting duplicate names.
func (r *Registry) Put(m *Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[m.Name()]; ok {
		return fmt.Errorf("%w: %q", errs.ErrDuplicateModel, m.Name())
	}
	r.models[m.Name()] = m
	m.logger.Debug("model registered", zap.String("model", m.Name()))

	return nil
}

// Get returns the model registered under name.
func (r *Registry) Get(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrModelNotFound, name)
	}

	return m, nil
}

// Remove drops the model registered under name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[name]; !ok {
		return fmt.Errorf("%w: %q", errs.ErrModelNotFound, name)
	}
	delete(r.models, name)

	return nil
}

// Names returns the registered model names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.models)
}
