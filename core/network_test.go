package core_test

import (
	"errors"
	"testing"

	"provider-dashboard/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworksLookup(t *testing.T) {
	n := core.NewNetworks(nil)

	info, err := n.Lookup("testnet", "")
	require.NoError(t, err)
	assert.Equal(t, "wss://rpc.rococo.frequency.xyz", info.Endpoint)
	assert.Equal(t, core.TestnetGenesisHash, info.GenesisHash)

	info, err = n.Lookup("Rococo", "")
	require.NoError(t, err)
	assert.Equal(t, core.Testnet, info.Name)

	info, err = n.Lookup("Other", "wss://testing.some.node")
	require.NoError(t, err)
	assert.Equal(t, core.Custom, info.Name)
	assert.Equal(t, "wss://testing.some.node", info.Endpoint)

	_, err = n.Lookup(core.Custom, "")
	assert.Error(t, err)

	_, err = n.Lookup(core.Custom, "https://not.a.ws.node")
	assert.Error(t, err)

	_, err = n.Lookup("moonbase", "")
	assert.True(t, errors.Is(err, core.ErrUnknownNetwork))
}

func TestNetworksOverride(t *testing.T) {
	n := core.NewNetworks([]core.NetworkInfo{
		{Name: "localhost", Endpoint: "ws://127.0.0.1:9955"},
		{Name: "paseo", Endpoint: "wss://paseo.example"},
	})
	list := n.List()
	require.Len(t, list, 5)
	assert.Equal(t, "ws://127.0.0.1:9955", list[2].Endpoint)
	assert.Equal(t, "PASEO", list[3].Name)
	assert.Equal(t, core.Custom, list[4].Name)
}

func TestIsLocalhost(t *testing.T) {
	assert.True(t, core.IsLocalhost("ws://localhost:9944"))
	assert.True(t, core.IsLocalhost("ws://127.0.0.1:9944"))
	assert.True(t, core.IsLocalhost("ws://[::1]:9944"))
	assert.False(t, core.IsLocalhost("wss://rpc.rococo.frequency.xyz"))
	assert.False(t, core.IsLocalhost("::not a url"))
}
