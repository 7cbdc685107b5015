package model

import "github.com/arloliu/mixfit/transform"

// TransformResolver supplies the default transform for a variable when
// AddFeature is called without an explicit one. Returning false means
// the variable has no default and joins the model untransformed.
type TransformResolver interface {
	DefaultTransform(variable string) (transform.Transform, bool)
}

// MapResolver resolves defaults from a plain variable-to-transform map.
type MapResolver map[string]transform.Transform

func (r MapResolver) DefaultTransform(variable string) (transform.Transform, bool) {
	tr, ok := r[variable]
	return tr, ok
}

var _ TransformResolver = MapResolver(nil)
