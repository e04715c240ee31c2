package dsl

import (
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/registry"
)

const (
	FuncCollection = "Collection"
	FuncDraw       = "Collection.draw"
	FuncMap        = "Collection.map"
)

// FeatureCollection creates a collection from features.
func FeatureCollection(features ...*domain.Node) *domain.Node {
	list := make([]any, len(features))
	for i, f := range features {
		list[i] = f
	}
	return registry.Function(FuncCollection).
		Invoke(domain.NewArgs().Set("features", list))
}

// Draw rasterizes a collection. Visualization params follow the collection
// argument in sorted order.
func Draw(collection *domain.Node, params map[string]any) *domain.Node {
	args := domain.NewArgs().Set("collection", collection)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args.Set(k, params[k])
	}
	return registry.Function(FuncDraw).Invoke(args)
}

// Map applies fn to every element of a collection on the server. fn runs once,
// right now, against a placeholder standing for the element.
func Map(collection *domain.Node, fn func(element domain.VariableRef) (any, error)) (*domain.Node, error) {
	algo, err := domain.AutoLambda(1, func(vars ...domain.VariableRef) (any, error) {
		return fn(vars[0])
	})
	if err != nil {
		return nil, err
	}
	return registry.Function(FuncMap).Invoke(domain.NewArgs().
		Set("collection", collection).
		Set("baseAlgorithm", algo)), nil
}

// IsCollection reports whether n produces a collection.
func IsCollection(n *domain.Node) bool {
	name := n.FuncName()
	return name == FuncCollection || (strings.HasPrefix(name, FuncCollection+".") && name != FuncDraw)
}

// IsFeature reports whether n produces a single feature. Variables are assumed to.
func IsFeature(n *domain.Node) bool {
	return n.IsVariable() || n.FuncName() == FuncFeature
}

// RenderImage returns the node to request a map for. Features and collections are
// drawn with params folded into the draw call; anything else is returned as-is
// together with params, which then travel with the request.
func RenderImage(n *domain.Node, params map[string]any) (*domain.Node, map[string]any) {
	switch {
	case IsFeature(n):
		return Draw(FeatureCollection(n), params), nil
	case IsCollection(n):
		return Draw(n, params), nil
	}
	return n, params
}
