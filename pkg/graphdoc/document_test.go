package graphdoc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
	"github.com/aretw0/lattice/pkg/encoder"
	"github.com/aretw0/lattice/pkg/graphdoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redPoints = `
version: 1
name: red-points
params:
  color: FF0000
vars:
  pt:
    $call: GeometryConstructors.Point
    args:
      coordinates: [1, 2]
root:
  $call: Collection
  args:
    features:
      - $call: Feature
        args: {geometry: {$ref: pt}, metadata: null}
      - $call: Feature
        args: {geometry: {$ref: pt}, metadata: {label: b}}
`

func TestParse_Document(t *testing.T) {
	doc, err := graphdoc.Parse([]byte(redPoints))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "red-points", doc.Name)
	assert.Equal(t, map[string]any{"color": "FF0000"}, doc.Params)

	root, ok := doc.Root.(*domain.Node)
	require.True(t, ok)
	assert.True(t, dsl.IsCollection(root))

	features, _ := root.Arg("features")
	list := features.([]any)
	require.Len(t, list, 2)
	g1, _ := list[0].(*domain.Node).Arg(dsl.ArgGeometry)
	g2, _ := list[1].(*domain.Node).Arg(dsl.ArgGeometry)
	assert.Same(t, g1, g2, "$ref yields one shared node")
	assert.Same(t, doc.Vars["pt"], g1)
	assert.True(t, domain.Equal(dsl.Point(1, 2), g1))
}

func TestParse_SharedVarIsHoisted(t *testing.T) {
	doc, err := graphdoc.Parse([]byte(redPoints))
	require.NoError(t, err)

	data, err := encoder.Serialize(doc.Root)
	require.NoError(t, err)
	sum, err := encoder.Summarize(data)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.References)
	assert.Equal(t, 4, sum.Invocations, "the point is emitted once")
}

func TestParse_KeepsArgumentOrder(t *testing.T) {
	doc, err := graphdoc.Parse([]byte(`
root:
  $call: F
  args: {zeta: 1, alpha: 2, mid: {b: 1, a: 2}}
`))
	require.NoError(t, err)

	data, err := encoder.Serialize(doc.Root)
	require.NoError(t, err)
	assert.Equal(t,
		`{"function":"F","arguments":{"zeta":{"constantValue":1},"alpha":{"constantValue":2},"mid":{"constantValue":{"b":1,"a":2}}}}`,
		string(data))
}

func TestParse_LambdaVarAndConst(t *testing.T) {
	doc, err := graphdoc.Parse([]byte(`
root:
  $call: Collection.map
  args:
    collection: {$var: input}
    baseAlgorithm:
      $lambda:
        params: [f]
        body:
          $call: Feature.buffer
          args: {feature: {$var: f}, distance: {$const: 10}}
`))
	require.NoError(t, err)

	data, err := encoder.Serialize(doc.Root)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"function": "Collection.map",
		"arguments": {
			"collection": {"type": "ArgumentRef", "value": "input"},
			"baseAlgorithm": {
				"type": "Function",
				"argumentNames": ["f"],
				"body": {
					"function": "Feature.buffer",
					"arguments": {
						"feature": {"type": "ArgumentRef", "value": "f"},
						"distance": {"constantValue": 10}
					}
				}
			}
		}
	}`, string(data))
}

func TestParse_AnchorsShareIdentity(t *testing.T) {
	doc, err := graphdoc.Parse([]byte(`
root:
  $call: F
  args:
    a: &g {$call: G}
    b: *g
`))
	require.NoError(t, err)

	root := doc.Root.(*domain.Node)
	a, _ := root.Arg("a")
	b, _ := root.Arg("b")
	assert.Same(t, a, b)
}

func TestParse_JSON(t *testing.T) {
	doc, err := graphdoc.Parse([]byte(`{"root": {"$call": "F", "args": {"x": [1, 2]}}}`))
	require.NoError(t, err)
	assert.Equal(t, "F", doc.Root.(*domain.Node).FuncName())
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]struct {
		doc  string
		kind error
	}{
		"no root":         {"name: x\n", domain.ErrMalformedValue},
		"not a mapping":   {"- 1\n", domain.ErrMalformedValue},
		"undefined ref":   {"root: {$ref: nope}\n", domain.ErrMalformedValue},
		"cyclic vars":     {"vars:\n  a: {$call: F, args: {x: {$ref: b}}}\n  b: {$ref: a}\nroot: {$ref: a}\n", domain.ErrCyclicGraph},
		"two forms":       {"root: {$ref: a, $var: b}\n", domain.ErrMalformedValue},
		"unknown form":    {"root: {$eval: x}\n", domain.ErrMalformedValue},
		"stray call key":  {"root: {$call: F, extra: 1}\n", domain.ErrMalformedValue},
		"bad header":      {"version: many\nroot: 1\n", domain.ErrMalformedValue},
		"lambda no body":  {"root: {$lambda: {params: [x]}}\n", domain.ErrMalformedValue},
		"duplicate param": {"root: {$lambda: {params: [x, x], body: 1}}\n", domain.ErrMalformedValue},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := graphdoc.Parse([]byte(tc.doc))
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestParse_ErrorCarriesPath(t *testing.T) {
	_, err := graphdoc.Parse([]byte("root:\n  $call: F\n  args:\n    x: {$ref: missing}\n"))
	var gerr *domain.GraphError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, []string{"vars", "missing"}, gerr.Path)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(redPoints), 0o644))

	doc, err := graphdoc.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "red-points", doc.Name)

	_, err = graphdoc.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
