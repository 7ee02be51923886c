// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package frequency

import (
	"errors"
	"testing"
	"time"

	"provider-dashboard/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerPoll(t *testing.T) {
	fc := newFakeClient()
	conn := testConnection(t, fc, 0)
	store := core.NewStore()
	stop := make(chan int)
	defer close(stop)

	l := NewListener("test", conn, store, testLogger(), stop, nil)
	require.NoError(t, l.poll())
	st := store.Get()
	assert.Equal(t, uint64(1000), st.BlockNumber)
	assert.Equal(t, uint64(59), st.EpochNumber)

	fc.mu.Lock()
	fc.block = 1001
	fc.epoch = 60
	fc.mu.Unlock()
	require.NoError(t, l.poll())
	st = store.Get()
	assert.Equal(t, uint64(1001), st.BlockNumber)
	assert.Equal(t, uint64(60), st.EpochNumber)
}

func TestListenerFailsAfterRetries(t *testing.T) {
	oneBlock, retryInterval, retryLimit := OneBlockTime, BlockRetryInterval, BlockRetryLimit
	OneBlockTime, BlockRetryInterval, BlockRetryLimit = 5*time.Millisecond, time.Millisecond, 2
	defer func() {
		OneBlockTime, BlockRetryInterval, BlockRetryLimit = oneBlock, retryInterval, retryLimit
	}()

	fc := newFakeClient()
	conn := testConnection(t, fc, 0)
	stop := make(chan int)
	defer close(stop)

	failed := make(chan error, 1)
	l := NewListener("test", conn, core.NewStore(), testLogger(), stop, func(err error) { failed <- err })
	require.NoError(t, l.start())

	fc.mu.Lock()
	fc.blockErr = errors.New("connection reset")
	fc.mu.Unlock()

	select {
	case err := <-failed:
		assert.Contains(t, err.Error(), "retries exceeded")
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not give up")
	}
}

func TestListenerStartFailsFast(t *testing.T) {
	fc := newFakeClient()
	fc.blockErr = errors.New("connection refused")
	conn := testConnection(t, fc, 0)
	stop := make(chan int)
	defer close(stop)

	l := NewListener("test", conn, core.NewStore(), testLogger(), stop, nil)
	assert.Error(t, l.start())
}
