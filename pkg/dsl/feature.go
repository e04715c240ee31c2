package dsl

import (
	"reflect"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/registry"
)

const (
	// FuncFeature is the remote constructor of features.
	FuncFeature = "Feature"

	// ArgGeometry and ArgMetadata are the arguments of FuncFeature.
	ArgGeometry = "geometry"
	ArgMetadata = "metadata"

	// KeySystemIndex is the reserved metadata key receiving a GeoJSON feature id.
	KeySystemIndex = "system:index"
)

// sourceKind tags the shapes accepted as the first argument of NewFeature.
type sourceKind int

const (
	sourceNull sourceKind = iota
	sourceNode
	sourceVariable
	sourceGeoJSONFeature
	sourceGeoJSONGeometry
)

// featureSource is the tagged variant produced by classifyFeature.
type featureSource struct {
	kind    sourceKind
	node    *domain.Node
	geoJSON *domain.Args
}

// Feature creates a feature without properties. See NewFeature.
func Feature(geometry any) (*domain.Node, error) {
	return NewFeature(geometry, nil)
}

// NewFeature creates a feature from one of:
//   - nil, for a feature without geometry;
//   - a *domain.Node computing a geometry (or a feature, returned as-is when properties is nil);
//   - a VariableRef or variable node, which stays a bare variable when properties is nil;
//   - a GeoJSON Feature mapping, whose properties become the metadata and whose id is
//     stored under KeySystemIndex;
//   - a GeoJSON geometry mapping.
//
// properties may be nil, a mapping or a node computing one. A nil properties value,
// including a typed nil map, is kept as nil and is distinct from an empty mapping.
func NewFeature(geometry any, properties any) (*domain.Node, error) {
	src, err := classifyFeature(geometry)
	if err != nil {
		return nil, err
	}
	properties, err = normalizeProperties(properties)
	if err != nil {
		return nil, err
	}

	switch src.kind {
	case sourceVariable, sourceNode:
		if properties == nil && (src.kind == sourceVariable || src.node.FuncName() == FuncFeature) {
			return src.node, nil
		}
		return invokeFeature(src.node, properties), nil
	case sourceGeoJSONFeature:
		if properties != nil {
			return nil, domain.NewGraphError(domain.ErrMalformedValue, []string{ArgMetadata},
				"properties cannot be given alongside a GeoJSON Feature")
		}
		geom, meta, err := normalizeGeoJSONFeature(src.geoJSON)
		if err != nil {
			return nil, err
		}
		return invokeFeature(geom, meta), nil
	case sourceGeoJSONGeometry:
		geom, err := GeometryFromGeoJSON(src.geoJSON)
		if err != nil {
			return nil, err
		}
		return invokeFeature(geom, properties), nil
	}
	return invokeFeature(nil, properties), nil
}

func invokeFeature(geometry any, metadata any) *domain.Node {
	if geometry == (*domain.Node)(nil) {
		geometry = nil
	}
	return registry.Function(FuncFeature).Invoke(domain.NewArgs().
		Set(ArgGeometry, geometry).
		Set(ArgMetadata, metadata))
}

func classifyFeature(v any) (featureSource, error) {
	switch t := v.(type) {
	case nil:
		return featureSource{kind: sourceNull}, nil
	case domain.VariableRef:
		return featureSource{kind: sourceVariable, node: domain.VariableNode(t.Name)}, nil
	case *domain.Node:
		if t == nil {
			return featureSource{kind: sourceNull}, nil
		}
		if t.IsVariable() {
			return featureSource{kind: sourceVariable, node: t}, nil
		}
		return featureSource{kind: sourceNode, node: t}, nil
	}

	m, ok := domain.Mapping(v)
	if !ok {
		return featureSource{}, domain.NewGraphError(domain.ErrMalformedValue, []string{ArgGeometry},
			"cannot build a feature from %T", v)
	}
	if typ, _ := m.Get("type"); typ == FuncFeature {
		return featureSource{kind: sourceGeoJSONFeature, geoJSON: m}, nil
	}
	return featureSource{kind: sourceGeoJSONGeometry, geoJSON: m}, nil
}

// normalizeProperties rejects non-mapping properties and collapses typed nils
// (map[string]any(nil), (*domain.Args)(nil), (*domain.Node)(nil)) to nil.
func normalizeProperties(v any) (any, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case *domain.Node:
		if p == nil {
			return nil, nil
		}
		return p, nil
	case *domain.Args:
		if p == nil {
			return nil, nil
		}
		return p, nil
	}
	if _, ok := domain.Mapping(v); ok {
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Map && rv.IsNil() {
			return nil, nil
		}
		return v, nil
	}
	return nil, domain.NewGraphError(domain.ErrMalformedValue, []string{ArgMetadata},
		"properties must be a mapping or a node, got %T", v)
}

// normalizeGeoJSONFeature converts {type: Feature, id, geometry, properties} into the
// canonical geometry and metadata arguments.
func normalizeGeoJSONFeature(m *domain.Args) (*domain.Node, *domain.Args, error) {
	var geom *domain.Node
	if raw, _ := m.Get("geometry"); raw != nil {
		g, err := GeometryFromGeoJSON(raw)
		if err != nil {
			return nil, nil, err
		}
		geom = g
	}

	metadata := domain.NewArgs()
	if raw, _ := m.Get("properties"); raw != nil {
		props, ok := domain.Mapping(raw)
		if !ok {
			return nil, nil, domain.NewGraphError(domain.ErrMalformedValue, []string{"properties"},
				"GeoJSON properties must be a mapping, got %T", raw)
		}
		metadata = props.Clone()
	}

	if id, _ := m.Get("id"); id != nil {
		// Collisions are rejected whatever the existing value is, computed nodes included.
		if metadata.Has(KeySystemIndex) {
			return nil, nil, domain.NewGraphError(domain.ErrReservedKeyCollision, []string{"properties", KeySystemIndex},
				"GeoJSON properties already define %q", KeySystemIndex)
		}
		metadata.Set(KeySystemIndex, id)
	}
	return geom, metadata, nil
}
