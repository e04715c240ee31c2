package dsl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/registry"
)

// GeometryPrefix is the namespace of the remote geometry constructors.
const GeometryPrefix = "GeometryConstructors."

// ErrComputedGeometry is returned when a local GeoJSON form is requested for a geometry
// that only exists as a deferred computation.
var ErrComputedGeometry = errors.New("geometry is computed")

// GeometryTypes lists the GeoJSON geometry types with a remote constructor.
var GeometryTypes = []string{
	"Point",
	"MultiPoint",
	"LineString",
	"MultiLineString",
	"LinearRing",
	"Polygon",
	"MultiPolygon",
}

// Point creates a point geometry.
func Point(x, y float64) *domain.Node {
	return registry.Function(GeometryPrefix + "Point").
		Invoke(domain.NewArgs().Set("coordinates", []any{x, y}))
}

// Geometry creates a geometry of the given GeoJSON type from nested coordinate arrays.
// Coordinates of any Go numeric kind are normalized to float64.
func Geometry(geoType string, coordinates any) (*domain.Node, error) {
	if !isGeometryType(geoType) {
		return nil, domain.NewGraphError(domain.ErrMalformedValue, []string{"type"}, "unsupported geometry type %q", geoType)
	}
	coords, err := normalizeCoordinates(coordinates, []string{"coordinates"})
	if err != nil {
		return nil, err
	}
	return registry.Function(GeometryPrefix + geoType).
		Invoke(domain.NewArgs().Set("coordinates", coords)), nil
}

// GeometryFromGeoJSON creates a geometry from a GeoJSON geometry mapping
// ({"type": "Point", "coordinates": [1, 2]}).
func GeometryFromGeoJSON(v any) (*domain.Node, error) {
	m, ok := domain.Mapping(v)
	if !ok {
		return nil, domain.NewGraphError(domain.ErrMalformedValue, nil, "GeoJSON geometry must be a mapping, got %T", v)
	}
	geoType, _ := m.Get("type")
	name, ok := geoType.(string)
	if !ok {
		return nil, domain.NewGraphError(domain.ErrMalformedValue, []string{"type"}, "GeoJSON geometry has no type")
	}
	coords, ok := m.Get("coordinates")
	if !ok {
		return nil, domain.NewGraphError(domain.ErrMalformedValue, []string{"coordinates"}, "GeoJSON %s has no coordinates", name)
	}
	return Geometry(name, coords)
}

// ToGeoJSON returns the GeoJSON form of a geometry constructed locally.
// Geometries produced by remote computations have no local form.
func ToGeoJSON(n *domain.Node) (map[string]any, error) {
	if !IsGeometry(n) {
		return nil, fmt.Errorf("%w: %s is not a geometry constructor", ErrComputedGeometry, n)
	}
	coords, ok := n.Arg("coordinates")
	if !ok || domain.ContainsGraph(coords) {
		return nil, fmt.Errorf("%w: %s has no literal coordinates", ErrComputedGeometry, n)
	}
	return map[string]any{
		"type":        strings.TrimPrefix(n.FuncName(), GeometryPrefix),
		"coordinates": coords,
	}, nil
}

// IsGeometry reports whether n invokes one of the geometry constructors.
func IsGeometry(n *domain.Node) bool {
	return n != nil && strings.HasPrefix(n.FuncName(), GeometryPrefix)
}

func isGeometryType(name string) bool {
	for _, t := range GeometryTypes {
		if t == name {
			return true
		}
	}
	return false
}

func normalizeCoordinates(v any, path []string) (any, error) {
	if f, ok := domain.AsNumber(v); ok {
		return f, nil
	}
	seq, ok := domain.Sequence(v)
	if !ok {
		return nil, domain.NewGraphError(domain.ErrMalformedValue, path, "coordinate must be a number or an array, got %T", v)
	}
	out := make([]any, len(seq))
	for i, e := range seq {
		c, err := normalizeCoordinates(e, append(path, fmt.Sprint(i)))
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
