/*
Package dsl provides the domain constructors layered on top of the graph core:
geometries, features and feature collections.

Every constructor returns a *domain.Node built by invoking a FunctionRef from the
process-wide registry. Inputs that may arrive in several shapes (a prebuilt node, a
variable, a GeoJSON mapping) go through an explicit normalization step first, so graph
construction only ever sees the canonical {function, arguments} form.

Example usage:

	point := dsl.Point(1, 2)
	feature, err := dsl.NewFeature(point, map[string]any{"name": "origin"})
	if err != nil {
		log.Fatal(err)
	}
	image := dsl.Draw(dsl.FeatureCollection(feature), map[string]any{"color": "ABCDEF"})
*/
package dsl
