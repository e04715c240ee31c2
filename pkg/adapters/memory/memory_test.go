package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/ports"
	contract "github.com/aretw0/lattice/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Contract(t *testing.T) {
	ports.RunCacheContract(t, NewCache())
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewCache()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(context.Background(), "k", &ports.Response{ID: "a"}, time.Second))
	_, err := c.Get(context.Background(), "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = c.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
}

func TestMemoryCache_CopiesOnReadAndWrite(t *testing.T) {
	c := NewCache()
	resp := &ports.Response{ID: "a", Result: []byte(`[1]`)}
	require.NoError(t, c.Set(context.Background(), "k", resp, 0))
	resp.Result[1] = '2'

	got, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got.Result))
}

func TestMemoryTransport_Contract(t *testing.T) {
	contract.TransportContractTest(t, NewTransport())
}

func TestMemoryTransport_RecordsRequests(t *testing.T) {
	tr := NewTransport()
	payload := []byte(`{"constantValue":1}`)
	params := map[string]any{"color": "ABCDEF"}

	resp, err := tr.Send(context.Background(), &ports.Request{Op: ports.OpMapID, Payload: payload, Params: params})
	require.NoError(t, err)
	assert.Equal(t, FakeMapID, resp.ID)
	assert.Equal(t, FakeToken, resp.Token)

	params["color"] = "000000"
	last := tr.Last()
	require.NotNil(t, last)
	assert.Equal(t, "ABCDEF", last.Params["color"], "recorded params are a snapshot")
	assert.Len(t, tr.Requests(), 1)

	tr.Reset()
	assert.Nil(t, tr.Last())
}

func TestMemoryTransport_Options(t *testing.T) {
	tr := NewTransport(WithResponse(ports.OpValue, &ports.Response{Result: []byte(`42`)}))
	resp, err := tr.Send(context.Background(), &ports.Request{Op: ports.OpValue})
	require.NoError(t, err)
	assert.Equal(t, `42`, string(resp.Result))

	boom := errors.New("boom")
	failing := NewTransport(WithError(boom))
	_, err = failing.Send(context.Background(), &ports.Request{Op: ports.OpMapID})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, failing.Requests(), 1, "failed requests are recorded too")
}
