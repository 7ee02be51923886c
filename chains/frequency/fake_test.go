// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package frequency

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math/big"
	"sync"

	"provider-dashboard/config"
	"provider-dashboard/core"
	"provider-dashboard/models/submodel"
	"provider-dashboard/shared/substrate"

	"github.com/ChainSafe/log15"
	"github.com/itering/substrate-api-rpc/rpc"
	"github.com/stafiprotocol/go-substrate-rpc-client/signature"
	"github.com/stafiprotocol/go-substrate-rpc-client/types"
)

const fakeExtrinsic = "0x2d0284d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

var testBlockHash = types.NewHash([]byte{
	0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
	0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
})

type fakeClient struct {
	mu        sync.Mutex
	genesis   types.Hash
	block     uint64
	epoch     uint32
	msaIds    map[string]uint64
	providers map[uint64]string
	ledger    map[uint64]submodel.CapacityDetails
	props     *substrate.ChainProperties
	statuses  []types.ExtrinsicStatus
	events    []*submodel.ChainEvent
	calls     []string
	args      [][]interface{}
	blockErr  error
	onCall    func(method string)
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		block:     1000,
		epoch:     59,
		msaIds:    make(map[string]uint64),
		providers: make(map[uint64]string),
		ledger:    make(map[uint64]submodel.CapacityDetails),
		props:     &substrate.ChainProperties{SS58Format: 90, TokenDecimals: 8, TokenSymbol: "UNIT"},
		statuses: []types.ExtrinsicStatus{
			{IsReady: true},
			{IsInBlock: true, AsInBlock: testBlockHash},
			{IsFinalized: true, AsFinalized: testBlockHash},
		},
		events: []*submodel.ChainEvent{
			{ModuleId: "ParachainSystem", EventId: "ValidationFunctionStored", Phase: 0, ExtrinsicIdx: 0},
			{ModuleId: config.SystemModuleId, EventId: config.ExtrinsicSuccessEventId, Phase: 0, ExtrinsicIdx: 1},
		},
	}
}

func (f *fakeClient) setMsa(pub []byte, msaId uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msaIds[hex.EncodeToString(pub)] = msaId
}

func (f *fakeClient) GenesisHash() types.Hash { return f.genesis }

func (f *fakeClient) GetLatestBlockNumber() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.block, f.blockErr
}

func (f *fakeClient) GetFinalizedBlockNumber() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.block - 2, f.blockErr
}

func (f *fakeClient) GetBlockHash(blockNum uint64) (types.Hash, error) {
	return testBlockHash, nil
}

func (f *fakeClient) GetBlockExtrinsics(blockHash types.Hash) ([]string, error) {
	return []string{"0x280403000b", fakeExtrinsic}, nil
}

func (f *fakeClient) GetEvents(blockHash types.Hash) ([]*submodel.ChainEvent, error) {
	return f.events, nil
}

func (f *fakeClient) QueryStorage(prefix, method string, arg1, arg2 []byte, result interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch method {
	case config.StoragePublicKeyToMsaId:
		id, ok := f.msaIds[hex.EncodeToString(arg1)]
		if !ok {
			return false, nil
		}
		*result.(*types.U64) = types.NewU64(id)
		return true, nil
	case config.StorageProviderToRegistryEntry:
		name, ok := f.providers[binary.LittleEndian.Uint64(arg1)]
		if !ok {
			return false, nil
		}
		result.(*submodel.ProviderRegistryEntry).ProviderName = types.NewBytes([]byte(name))
		return true, nil
	case config.StorageCapacityLedger:
		d, ok := f.ledger[binary.LittleEndian.Uint64(arg1)]
		if !ok {
			return false, nil
		}
		*result.(*submodel.CapacityDetails) = d
		return true, nil
	case config.StorageCurrentEpoch:
		*result.(*types.U32) = types.NewU32(f.epoch)
		return true, nil
	}
	return false, errors.New("unexpected storage " + prefix + "." + method)
}

func (f *fakeClient) FreeBalance(who []byte) (types.U128, error) {
	return types.NewU128(*big.NewInt(1500000000)), nil
}

func (f *fakeClient) ChainProperties() (*substrate.ChainProperties, error) {
	if f.props == nil {
		return nil, errors.New("method not found")
	}
	return f.props, nil
}

func (f *fakeClient) NewUnsignedExtrinsic(callMethod string, args ...interface{}) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, callMethod)
	f.args = append(f.args, args)
	if f.onCall != nil {
		f.onCall(callMethod)
	}
	return callMethod, nil
}

func (f *fakeClient) SignExtrinsic(ext interface{}, key *signature.KeyringPair) (string, error) {
	return fakeExtrinsic, nil
}

func (f *fakeClient) PaymentQueryInfo(extHex string) (*rpc.PaymentQueryInfo, error) {
	return nil, errors.New("payment_queryInfo unavailable")
}

func (f *fakeClient) WatchExtrinsic(ctx context.Context, extHex string, onStatus func(types.ExtrinsicStatus) bool) error {
	for _, s := range f.statuses {
		if onStatus(s) {
			return nil
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeClient) Close() {}

func (f *fakeClient) lastCall() (string, []interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return "", nil
	}
	return f.calls[len(f.calls)-1], f.args[len(f.args)-1]
}

func testLogger() log15.Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())
	return l
}

func fakeChainInit(fc *fakeClient) chainInitializer {
	return func(cfg *core.ChainConfig, store *core.Store, logger log15.Logger, fail func(error)) (*Chain, error) {
		conn, err := newConnection(cfg, fc, logger)
		if err != nil {
			return nil, err
		}
		keys := substrate.NewDevKeyring()
		stop := make(chan int)
		l := NewListener(cfg.Name, conn, store, logger, stop, fail)
		return &Chain{cfg: cfg, conn: conn, keys: keys, listener: l, stop: stop}, nil
	}
}

type recorder struct {
	mu       sync.Mutex
	reasons  []core.Reason
	statuses []string
}

func (r *recorder) cb(reason core.Reason, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
	r.statuses = append(r.statuses, status)
}
