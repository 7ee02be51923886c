package core_test

import (
	"sync"
	"testing"
	"time"

	"provider-dashboard/core"

	"github.com/stretchr/testify/assert"
)

func TestStoreSubscribe(t *testing.T) {
	s := core.NewStore()
	s.SetConnected(false)

	var seen []bool
	unsubscribe := s.Subscribe(func(st core.State) {
		seen = append(seen, st.Connected)
	})

	s.SetConnected(true)
	s.SetConnected(false)
	unsubscribe()
	s.SetConnected(true)

	assert.Equal(t, []bool{false, true, false}, seen)
	assert.True(t, s.Get().Connected)

	// a second call is harmless
	unsubscribe()
}

func TestStoreUpdatesDeliveredInOrder(t *testing.T) {
	s := core.NewStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []uint64
	s.Subscribe(func(st core.State) {
		mu.Lock()
		seen = append(seen, st.BlockNumber)
		mu.Unlock()
		if st.BlockNumber == 1 {
			close(entered)
			<-release
		}
	})

	first := make(chan struct{})
	go func() {
		s.SetBlock(1, 0)
		close(first)
	}()
	<-entered

	second := make(chan struct{})
	go func() {
		s.SetBlock(2, 0)
		close(second)
	}()

	select {
	case <-second:
		t.Fatal("block 2 delivered while block 1 was still being delivered")
	case <-time.After(50 * time.Millisecond):
	}
	// readers are not held up by a slow subscriber
	assert.Equal(t, uint64(1), s.Get().BlockNumber)

	close(release)
	<-first
	<-second

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{0, 1, 2}, seen)
	assert.Equal(t, s.Get().BlockNumber, seen[len(seen)-1])
}

func TestStoreSigningAddressResetsMsa(t *testing.T) {
	s := core.NewStore()
	s.SetSigningAddress("alice")
	s.SetMsaInfo(core.MsaInfo{MsaId: 3, IsProvider: true, ProviderName: "Bobbay"})

	s.SetSigningAddress("alice")
	assert.Equal(t, uint64(3), s.Get().Msa.MsaId)

	s.SetSigningAddress("bob")
	assert.Equal(t, core.MsaInfo{}, s.Get().Msa)
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := core.NewStore()
	s.Update(func(st *core.State) {
		st.ValidAccounts = []core.Account{{Address: "a", Name: "alice"}}
	})

	st := s.Get()
	st.ValidAccounts[0].Name = "mallory"
	assert.Equal(t, "alice", s.Get().ValidAccounts[0].Name)
	assert.True(t, s.Get().HasAccount("a"))
	assert.False(t, s.Get().HasAccount("b"))
}

func TestStoreResetKeepsNetwork(t *testing.T) {
	s := core.NewStore()
	s.Update(func(st *core.State) {
		st.Network = core.NetworkInfo{Name: core.Localhost}
		st.Connected = true
		st.BlockNumber = 1021
		st.EpochNumber = 122
		st.Token = "UNIT"
	})
	s.Reset()

	st := s.Get()
	assert.False(t, st.Connected)
	assert.Equal(t, uint64(0), st.BlockNumber)
	assert.Equal(t, "", st.Token)
	assert.Equal(t, core.Localhost, st.Network.Name)
}

func TestActionFormText(t *testing.T) {
	var a core.ActionForm
	assert.NoError(t, a.UnmarshalText([]byte("stake")))
	assert.Equal(t, core.StakeForm, a)
	assert.Equal(t, "Stake", a.String())
	assert.Error(t, a.UnmarshalText([]byte("transfer")))
}
