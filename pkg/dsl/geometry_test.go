package dsl_test

import (
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoint(t *testing.T) {
	p := dsl.Point(1, 2)
	assert.Equal(t, "GeometryConstructors.Point", p.FuncName())
	assert.True(t, dsl.IsGeometry(p))

	coords, ok := p.Arg("coordinates")
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.0}, coords)
}

func TestGeometry_NormalizesNumericKinds(t *testing.T) {
	poly, err := dsl.Geometry("Polygon", [][][]int{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
	require.NoError(t, err)

	coords, _ := poly.Arg("coordinates")
	assert.Equal(t, []any{[]any{
		[]any{0.0, 0.0}, []any{1.0, 0.0}, []any{1.0, 1.0}, []any{0.0, 0.0},
	}}, coords)
}

func TestGeometry_Rejects(t *testing.T) {
	_, err := dsl.Geometry("Circle", []any{1, 2})
	assert.ErrorIs(t, err, domain.ErrMalformedValue)

	_, err = dsl.Geometry("LineString", []any{[]any{0, "x"}})
	require.ErrorIs(t, err, domain.ErrMalformedValue)
	var gerr *domain.GraphError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, []string{"coordinates", "0", "1"}, gerr.Path)

	_, err = dsl.GeometryFromGeoJSON(map[string]any{"coordinates": []any{1, 2}})
	assert.ErrorIs(t, err, domain.ErrMalformedValue)

	_, err = dsl.GeometryFromGeoJSON(map[string]any{"type": "Point"})
	assert.ErrorIs(t, err, domain.ErrMalformedValue)
}

func TestGeoJSON_RoundTrip(t *testing.T) {
	for _, typ := range dsl.GeometryTypes {
		t.Run(typ, func(t *testing.T) {
			in := map[string]any{"type": typ, "coordinates": []any{[]any{1.0, 2.0}}}
			g, err := dsl.GeometryFromGeoJSON(in)
			require.NoError(t, err)

			out, err := dsl.ToGeoJSON(g)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestToGeoJSON_ComputedGeometry(t *testing.T) {
	buffered := domain.NewFunctionRef("Geometry.buffer").Invoke(domain.NewArgs().Set("geometry", dsl.Point(0, 0)))
	_, err := dsl.ToGeoJSON(buffered)
	assert.ErrorIs(t, err, dsl.ErrComputedGeometry)

	withNode := domain.NewFunctionRef(dsl.GeometryPrefix + "Point").
		Invoke(domain.NewArgs().Set("coordinates", []any{domain.Variable("x"), 1}))
	_, err = dsl.ToGeoJSON(withNode)
	assert.ErrorIs(t, err, dsl.ErrComputedGeometry)
}
