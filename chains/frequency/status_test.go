// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package frequency_test

import (
	"testing"

	"provider-dashboard/chains/frequency"
	"provider-dashboard/core"
	"provider-dashboard/models/submodel"

	"github.com/ChainSafe/log15"
	"github.com/stafiprotocol/go-substrate-rpc-client/types"
	"github.com/stretchr/testify/assert"
)

func parse(t *testing.T, result frequency.TxResult) ([]string, []core.Reason, bool) {
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())

	var statuses []string
	var reasons []core.Reason
	done := frequency.ParseChainEvent(logger, result, func(reason core.Reason, status string) {
		reasons = append(reasons, reason)
		statuses = append(statuses, status)
	})
	return statuses, reasons, done
}

func TestParseChainEventInvalid(t *testing.T) {
	statuses, reasons, done := parse(t, frequency.TxResult{Status: types.ExtrinsicStatus{IsInvalid: true}})
	assert.True(t, done)
	assert.Equal(t, []string{"Invalid transaction"}, statuses)
	assert.Equal(t, []core.Reason{core.TxInvalid}, reasons)
}

func TestParseChainEventInBlock(t *testing.T) {
	hash := types.NewHash(make([]byte, 32))
	statuses, _, done := parse(t, frequency.TxResult{Status: types.ExtrinsicStatus{IsInBlock: true, AsInBlock: hash}})
	assert.False(t, done)
	assert.Equal(t, []string{"Transaction is included in blockHash " + hash.Hex()}, statuses)
}

func TestParseChainEventFinalized(t *testing.T) {
	hash := types.NewHash(make([]byte, 32))
	result := frequency.TxResult{
		Status: types.ExtrinsicStatus{IsFinalized: true, AsFinalized: hash},
		Events: []*submodel.ChainEvent{
			{ModuleId: "Balances", EventId: "Withdraw"},
			{ModuleId: "Msa", EventId: "MsaCreated"},
			{ModuleId: "System", EventId: "ExtrinsicSuccess"},
		},
	}
	statuses, reasons, done := parse(t, result)
	assert.True(t, done)
	assert.Equal(t, []string{
		"Transaction is finalized in block hash " + hash.Hex(),
		"Transaction succeeded",
	}, statuses)
	assert.Equal(t, []core.Reason{core.TxFinalized, core.TxSucceeded}, reasons)

	result.Events = []*submodel.ChainEvent{{ModuleId: "System", EventId: "ExtrinsicFailed"}}
	statuses, reasons, _ = parse(t, result)
	assert.Equal(t, "Transaction failed. See chain explorer for details.", statuses[1])
	assert.Equal(t, core.TxFailed, reasons[1])
}

func TestParseChainEventPoolStates(t *testing.T) {
	cases := []struct {
		status   types.ExtrinsicStatus
		name     string
		terminal bool
	}{
		{types.ExtrinsicStatus{IsFuture: true}, "Future", false},
		{types.ExtrinsicStatus{IsReady: true}, "Ready", false},
		{types.ExtrinsicStatus{IsBroadcast: true}, "Broadcast", false},
		{types.ExtrinsicStatus{IsRetracted: true}, "Retracted", false},
		{types.ExtrinsicStatus{IsFinalityTimeout: true}, "FinalityTimeout", true},
		{types.ExtrinsicStatus{IsUsurped: true}, "Usurped", true},
		{types.ExtrinsicStatus{IsDropped: true}, "Dropped", true},
	}
	for _, c := range cases {
		statuses, reasons, done := parse(t, frequency.TxResult{Status: c.status})
		assert.Equal(t, []string{c.name}, statuses)
		assert.Equal(t, []core.Reason{core.TxStatus}, reasons)
		assert.Equal(t, c.terminal, done, c.name)
	}
}

func TestParseChainEventRecovers(t *testing.T) {
	hash := types.NewHash(make([]byte, 32))
	result := frequency.TxResult{
		Status: types.ExtrinsicStatus{IsFinalized: true, AsFinalized: hash},
		Events: []*submodel.ChainEvent{nil},
	}
	statuses, reasons, done := parse(t, result)
	assert.True(t, done)
	assert.Contains(t, statuses[len(statuses)-1], "Error: ")
	assert.Equal(t, core.TxError, reasons[len(reasons)-1])
}
