package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke_PreservesNameAndOrder(t *testing.T) {
	x := domain.Constant(1)
	fn := domain.NewFunctionRef("F")
	n := fn.Invoke(domain.NewArgs().Set("b", x).Set("a", "y"))

	assert.Equal(t, "F", n.FuncName())
	assert.Equal(t, domain.KindInvocation, n.Kind())
	assert.Equal(t, []string{"b", "a"}, n.Args().Keys())

	got, ok := n.Arg("b")
	require.True(t, ok)
	assert.Same(t, x, got, "arguments are stored as-is, not cloned")
}

func TestInvoke_ShallowCopiesArguments(t *testing.T) {
	args := domain.NewArgs().Set("a", 1)
	n := domain.NewFunctionRef("F").Invoke(args)

	// Mutating the caller's mapping must not leak into the node.
	args.Set("b", 2)
	assert.Equal(t, 1, n.Args().Len())

	// Neither must mutating the copy returned by Args().
	n.Args().Set("c", 3)
	assert.False(t, n.Args().Has("c"))
}

func TestCall_Pairs(t *testing.T) {
	n, err := domain.NewFunctionRef("G").Call("x", 1, "y", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, n.Args().Keys())
	assert.True(t, n.Args().Has("y"))

	_, err = domain.NewFunctionRef("G").Call("x")
	assert.ErrorIs(t, err, domain.ErrMalformedValue)

	_, err = domain.NewFunctionRef("G").Call(1, 2)
	assert.ErrorIs(t, err, domain.ErrMalformedValue)
}

func TestEqual(t *testing.T) {
	fn := domain.NewFunctionRef("F")
	a := fn.Invoke(domain.NewArgs().Set("a", 1).Set("b", map[string]any{"k": []any{1, 2}}))
	b := fn.Invoke(domain.NewArgs().Set("b", map[string]any{"k": []float64{1, 2}}).Set("a", 1.0))

	assert.True(t, a.Equal(b), "argument order and numeric kind do not matter")
	assert.NotSame(t, a, b)

	other := domain.NewFunctionRef("G").Invoke(a.Args())
	assert.False(t, a.Equal(other), "function names differ")

	nilMeta := fn.Invoke(domain.NewArgs().Set("metadata", nil))
	emptyMeta := fn.Invoke(domain.NewArgs().Set("metadata", map[string]any{}))
	assert.False(t, nilMeta.Equal(emptyMeta), "nil metadata is distinct from an empty mapping")

	assert.True(t, domain.Equal(domain.Variable("x"), domain.Variable("x")))
	assert.False(t, domain.Equal(domain.Variable("x"), "x"))
	assert.True(t, domain.VariableNode("v").Equal(domain.VariableNode("v")))
	assert.True(t, domain.Constant("c").Equal(domain.Constant("c")))
	assert.False(t, domain.Constant("c").Equal(domain.VariableNode("c")))
}

func TestArgsFromMap_SortsKeys(t *testing.T) {
	a := domain.ArgsFromMap(map[string]any{"z": 1, "a": 2, "m": 3})
	assert.Equal(t, []string{"a", "m", "z"}, a.Keys())

	var nilArgs *domain.Args
	assert.Equal(t, 0, nilArgs.Len())
	assert.Empty(t, nilArgs.Keys())
}

func TestFromHostFunction_InvokesOnce(t *testing.T) {
	calls := 0
	fn := domain.NewFunctionRef("Feature.setGeometry")

	l, err := domain.FromHostFunction([]string{"feature"}, func(vars ...domain.VariableRef) (any, error) {
		calls++
		require.Len(t, vars, 1)
		return fn.Invoke(domain.NewArgs().Set("feature", vars[0])), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"feature"}, l.Params())

	body, ok := l.Body().(*domain.Node)
	require.True(t, ok)
	v, _ := body.Arg("feature")
	assert.Equal(t, domain.Variable("feature"), v)
	assert.Empty(t, l.FreeVariables())
}

func TestFromHostFunction_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := domain.FromHostFunction([]string{"x"}, func(vars ...domain.VariableRef) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNewLambda_RejectsBadParams(t *testing.T) {
	_, err := domain.NewLambda([]string{"a", "a"}, nil)
	assert.ErrorIs(t, err, domain.ErrMalformedValue)

	_, err = domain.NewLambda([]string{""}, nil)
	assert.ErrorIs(t, err, domain.ErrMalformedValue)
}

func TestLambda_FreeVariables(t *testing.T) {
	fn := domain.NewFunctionRef("F")
	inner, err := domain.NewLambda([]string{"y"}, fn.Invoke(domain.NewArgs().
		Set("a", domain.Variable("x")).
		Set("b", domain.Variable("y"))))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, inner.FreeVariables())

	outer, err := domain.NewLambda([]string{"x"}, fn.Invoke(domain.NewArgs().
		Set("f", inner).
		Set("z", domain.VariableNode("z"))))
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, outer.FreeVariables())
}

func TestAutoLambda_NamesByDepth(t *testing.T) {
	fn := domain.NewFunctionRef("Collection.map")

	single, err := domain.AutoLambda(1, func(vars ...domain.VariableRef) (any, error) {
		return fn.Invoke(domain.NewArgs().Set("x", vars[0])), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"_MAPPING_VAR_0_0"}, single.Params())
	assert.Empty(t, single.FreeVariables())

	var inner *domain.LambdaRef
	outer, err := domain.AutoLambda(1, func(outerVars ...domain.VariableRef) (any, error) {
		var err error
		inner, err = domain.AutoLambda(1, func(innerVars ...domain.VariableRef) (any, error) {
			return fn.Invoke(domain.NewArgs().Set("a", outerVars[0]).Set("b", innerVars[0])), nil
		})
		if err != nil {
			return nil, err
		}
		return fn.Invoke(domain.NewArgs().Set("baseAlgorithm", inner)), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"_MAPPING_VAR_1_0"}, outer.Params())
	assert.Equal(t, []string{"_MAPPING_VAR_0_0"}, inner.Params())
	assert.Empty(t, outer.FreeVariables(), "the captured outer placeholder must be renamed inside the nested body")

	// The nested function inside the rewritten body references the outer parameter.
	body := outer.Body().(*domain.Node)
	nested, _ := body.Arg("baseAlgorithm")
	nestedBody := nested.(*domain.LambdaRef).Body().(*domain.Node)
	a, _ := nestedBody.Arg("a")
	assert.Equal(t, domain.Variable("_MAPPING_VAR_1_0"), a)
}

func TestAutoLambda_KeepsUntouchedNodes(t *testing.T) {
	shared := domain.NewFunctionRef("Image").Invoke(domain.NewArgs().Set("id", "srtm"))
	l, err := domain.AutoLambda(1, func(vars ...domain.VariableRef) (any, error) {
		return domain.NewFunctionRef("F").Invoke(domain.NewArgs().Set("img", shared).Set("x", vars[0])), nil
	})
	require.NoError(t, err)

	img, _ := l.Body().(*domain.Node).Arg("img")
	assert.Same(t, shared, img)
}

func TestGraphError(t *testing.T) {
	err := domain.NewGraphError(domain.ErrUnboundVariable, []string{"arguments", "x"}, "variable %q", "foo")
	assert.ErrorIs(t, err, domain.ErrUnboundVariable)
	assert.Equal(t, `unbound variable at arguments.x: variable "foo"`, err.Error())
}
