// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package substrate_test

import (
	"testing"

	"provider-dashboard/shared/substrate"

	scale "github.com/itering/scale.go"
	scaleTypes "github.com/itering/scale.go/types"
	"github.com/itering/scale.go/utiles"
	"github.com/stafiprotocol/go-substrate-rpc-client/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three System.Events records of a substrate node:
// ExtrinsicSuccess applying extrinsic 1, ExtrinsicSuccess applying extrinsic 2
// and ExtrinsicSuccess during finalization.
const eventsRaw = "0x0c" +
	"00" + "01000000" + "0000" + "10270000" + "00" + "00" + "00" +
	"00" + "02000000" + "0000" + "20270000" + "00" + "01" + "00" +
	"01" + "0000" + "30270000" + "02" + "00" + "00"

func substrateMetadata(t *testing.T) *scaleTypes.MetadataStruct {
	m := scale.MetadataDecoder{}
	m.Init(utiles.HexToBytes(types.ExamplaryMetadataV13SubstrateString))
	require.NoError(t, m.Process())
	return &m.Metadata
}

func TestDecodeEvents(t *testing.T) {
	evts, err := substrate.DecodeEvents(substrateMetadata(t), 0, utiles.HexToBytes(eventsRaw))
	require.NoError(t, err)
	require.Len(t, evts, 3)

	for _, evt := range evts {
		assert.Equal(t, "System", evt.ModuleId)
		assert.Equal(t, "ExtrinsicSuccess", evt.EventId)
		assert.Len(t, evt.Params, 1)
	}
	assert.Equal(t, 0, evts[0].Phase)
	assert.Equal(t, 1, evts[0].ExtrinsicIdx)
	assert.Equal(t, 2, evts[1].ExtrinsicIdx)
	assert.Equal(t, 1, evts[2].Phase)

	got := substrate.EventsOfExtrinsic(evts, 2)
	require.Len(t, got, 1)
	assert.Equal(t, evts[1], got[0])
	assert.Empty(t, substrate.EventsOfExtrinsic(evts, 0))
}

func TestDecodeEventsMalformed(t *testing.T) {
	meta := substrateMetadata(t)

	// event index ffff is not in the metadata
	_, err := substrate.DecodeEvents(meta, 0, utiles.HexToBytes("0x04"+"00"+"01000000"+"ffff"))
	assert.Error(t, err)

	// truncated record
	_, err = substrate.DecodeEvents(meta, 0, utiles.HexToBytes("0x08"+"00"+"01000000"+"0000"))
	assert.Error(t, err)

	evts, err := substrate.DecodeEvents(meta, 0, utiles.HexToBytes("0x00"))
	require.NoError(t, err)
	assert.Empty(t, evts)
}
