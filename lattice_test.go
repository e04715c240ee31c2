package lattice_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/dsl"
	"github.com/aretw0/lattice/pkg/encoder"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, tr ports.Transport, opts ...lattice.Option) *lattice.Client {
	t.Helper()
	c, err := lattice.New(append([]lattice.Option{lattice.WithTransport(tr)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresTransport(t *testing.T) {
	_, err := lattice.New()
	assert.ErrorIs(t, err, lattice.ErrNoTransport)
}

func TestGetMapID_DrawsFeature(t *testing.T) {
	fake := memory.NewTransport()
	client := newClient(t, fake)

	feature, err := dsl.NewFeature(dsl.Point(1, 2), map[string]any{"foo": 1})
	require.NoError(t, err)

	m, err := client.GetMapID(context.Background(), feature, map[string]any{"color": "ABCDEF"})
	require.NoError(t, err)
	assert.Equal(t, "fakeMapId", m.MapID)
	assert.Equal(t, memory.FakeToken, m.Token)

	want := dsl.Draw(dsl.FeatureCollection(feature), map[string]any{"color": "ABCDEF"})
	assert.Equal(t, dsl.FuncDraw, m.Image.FuncName())
	assert.True(t, m.Image.Equal(want))

	requests := fake.Requests()
	require.Len(t, requests, 1, "exactly one transport call")
	assert.Equal(t, ports.OpMapID, requests[0].Op)
	assert.Nil(t, requests[0].Params, "params are folded into the draw call")

	wantPayload, err := encoder.Serialize(want)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantPayload), string(requests[0].Payload))
}

func TestGetMapID_DrawsCollection(t *testing.T) {
	fake := memory.NewTransport()
	client := newClient(t, fake)

	f1, err := dsl.Feature(dsl.Point(0, 0))
	require.NoError(t, err)
	collection := dsl.FeatureCollection(f1)

	m, err := client.GetMapID(context.Background(), collection, nil)
	require.NoError(t, err)

	collArg, _ := m.Image.Arg("collection")
	assert.Same(t, collection, collArg)
}

func TestGetMapID_OtherNodesCarryParams(t *testing.T) {
	fake := memory.NewTransport()
	client := newClient(t, fake)

	image := domain.NewFunctionRef("Image.load").Invoke(domain.NewArgs().Set("id", "srtm"))
	m, err := client.GetMapID(context.Background(), image, map[string]any{"min": 0, "max": 3000})
	require.NoError(t, err)

	assert.Same(t, image, m.Image)
	assert.Equal(t, map[string]any{"min": 0, "max": 3000}, fake.Last().Params)
}

func TestGetMapID_PassesIDThroughUnchanged(t *testing.T) {
	fake := memory.NewTransport(memory.WithResponse(ports.OpMapID, &ports.Response{ID: "  odd/ID?  "}))
	client := newClient(t, fake)

	m, err := client.GetMapID(context.Background(), dsl.FeatureCollection(), nil)
	require.NoError(t, err)
	assert.Equal(t, "  odd/ID?  ", m.MapID)
}

func TestGetMapID_VariableFeature(t *testing.T) {
	fake := memory.NewTransport()
	client := newClient(t, fake)

	feature, err := dsl.Feature(domain.Variable("f"))
	require.NoError(t, err)

	_, err = client.GetMapID(context.Background(), feature, nil)
	require.NoError(t, err, "free variables are bound by the service")
	assert.True(t, strings.Contains(string(fake.Last().Payload), `"ArgumentRef"`))

	strict := newClient(t, memory.NewTransport(), lattice.WithEncoder(encoder.New(encoder.WithStrictVariables())))
	_, err = strict.GetMapID(context.Background(), feature, nil)
	assert.ErrorIs(t, err, domain.ErrUnboundVariable)
}

func TestGetMapID_Errors(t *testing.T) {
	boom := errors.New("boom")
	fake := memory.NewTransport(memory.WithError(boom))
	client := newClient(t, fake)

	_, err := client.GetMapID(context.Background(), dsl.FeatureCollection(), nil)
	assert.ErrorIs(t, err, boom)

	_, err = client.GetMapID(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrMalformedValue)

	cyclic := map[string]any{}
	node := domain.NewFunctionRef("F").Invoke(domain.NewArgs().Set("m", cyclic))
	cyclic["self"] = node
	_, err = newClient(t, memory.NewTransport()).GetMapID(context.Background(), node, nil)
	assert.ErrorIs(t, err, domain.ErrCyclicGraph)
}

func TestGetInfo(t *testing.T) {
	fake := memory.NewTransport(memory.WithResponse(ports.OpValue, &ports.Response{Result: []byte(`{"area":12.5}`)}))
	client := newClient(t, fake)

	area := domain.NewFunctionRef("Geometry.area").Invoke(domain.NewArgs().Set("geometry", dsl.Point(1, 2)))
	result, err := client.GetInfo(context.Background(), area)
	require.NoError(t, err)
	assert.JSONEq(t, `{"area":12.5}`, string(result))
	assert.Equal(t, ports.OpValue, fake.Last().Op)
}

func TestSerialize(t *testing.T) {
	client := newClient(t, memory.NewTransport())
	data, err := client.Serialize(domain.Variable("foo"))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"ArgumentRef","value":"foo"}`, string(data))
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(lattice.Version))
}
