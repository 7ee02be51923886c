// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package substrate

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"provider-dashboard/config"

	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/huandu/xstrings"
	"github.com/itering/substrate-api-rpc/rpc"
	gsrpc "github.com/stafiprotocol/go-substrate-rpc-client"
	"github.com/stafiprotocol/go-substrate-rpc-client/signature"
	"github.com/stafiprotocol/go-substrate-rpc-client/types"
	"golang.org/x/crypto/blake2b"
)

type GsrpcClient struct {
	endpoint    string
	addressType string
	api         *gsrpc.SubstrateAPI
	genesisHash types.Hash
	log         log15.Logger

	metaLock    sync.RWMutex
	meta        *types.Metadata
	metaVersion uint32

	scaleLock sync.Mutex
	scaleMeta *scaleMetadata
}

// accountInfo mirrors frame_system::AccountInfo with pallet_balances::AccountData.
type accountInfo struct {
	Nonce       types.U32
	Consumers   types.U32
	Providers   types.U32
	Sufficients types.U32
	Free        types.U128
	Reserved    types.U128
	Frozen      types.U128
	Flags       types.U128
}

func NewGsrpcClient(endpoint, addressType string, log log15.Logger) (*GsrpcClient, error) {
	log.Info("Connecting to substrate chain with Gsrpc", "endpoint", endpoint)

	if addressType != AddressTypeAccountId && addressType != AddressTypeMultiAddress {
		return nil, fmt.Errorf("addressType not supported: %s", addressType)
	}

	api, err := gsrpc.NewSubstrateAPI(endpoint)
	if err != nil {
		return nil, err
	}

	genesisHash, err := api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		return nil, err
	}

	gc := &GsrpcClient{
		endpoint:    endpoint,
		addressType: addressType,
		api:         api,
		genesisHash: genesisHash,
		log:         log,
	}

	if _, err := gc.GetLatestMetadata(); err != nil {
		return nil, err
	}
	return gc, nil
}

func (gc *GsrpcClient) Endpoint() string {
	return gc.endpoint
}

func (gc *GsrpcClient) GenesisHash() types.Hash {
	return gc.genesisHash
}

// GetLatestMetadata returns the cached metadata, refetching it after a runtime upgrade.
func (gc *GsrpcClient) GetLatestMetadata() (*types.Metadata, error) {
	rv, err := gc.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return nil, err
	}
	version := uint32(rv.SpecVersion)

	gc.metaLock.RLock()
	if gc.meta != nil && gc.metaVersion == version {
		meta := gc.meta
		gc.metaLock.RUnlock()
		return meta, nil
	}
	gc.metaLock.RUnlock()

	meta, err := gc.api.RPC.State.GetMetadataLatest()
	if err != nil {
		return nil, err
	}

	gc.metaLock.Lock()
	defer gc.metaLock.Unlock()
	if gc.metaVersion != 0 && gc.metaVersion != version {
		gc.log.Info("runtime upgraded, metadata refreshed", "from", gc.metaVersion, "to", version)
	}
	gc.meta = meta
	gc.metaVersion = version
	return meta, nil
}

func (gc *GsrpcClient) GetLatestBlockNumber() (uint64, error) {
	head, err := gc.api.RPC.Chain.GetHeaderLatest()
	if err != nil {
		return 0, err
	}
	return uint64(head.Number), nil
}

func (gc *GsrpcClient) GetFinalizedBlockNumber() (uint64, error) {
	hash, err := gc.api.RPC.Chain.GetFinalizedHead()
	if err != nil {
		return 0, err
	}
	head, err := gc.api.RPC.Chain.GetHeader(hash)
	if err != nil {
		return 0, err
	}
	return uint64(head.Number), nil
}

func (gc *GsrpcClient) GetBlockHash(blockNum uint64) (types.Hash, error) {
	return gc.api.RPC.Chain.GetBlockHash(blockNum)
}

type rawSignedBlock struct {
	Block struct {
		Extrinsics []string `json:"extrinsics"`
	} `json:"block"`
}

// GetBlockExtrinsics returns the hex encoded extrinsics of a block in order.
func (gc *GsrpcClient) GetBlockExtrinsics(blockHash types.Hash) ([]string, error) {
	var sb rawSignedBlock
	if err := gc.api.Client.Call(&sb, "chain_getBlock", blockHash.Hex()); err != nil {
		return nil, err
	}
	return sb.Block.Extrinsics, nil
}

// QueryStorage performs a storage lookup. Arguments may be nil, result must be a pointer.
func (gc *GsrpcClient) QueryStorage(prefix, method string, arg1, arg2 []byte, result interface{}) (bool, error) {
	meta, err := gc.GetLatestMetadata()
	if err != nil {
		return false, err
	}

	key, err := types.CreateStorageKey(meta, prefix, method, arg1, arg2)
	if err != nil {
		return false, err
	}
	return gc.api.RPC.State.GetStorageLatest(key, result)
}

func (gc *GsrpcClient) account(who []byte) (*accountInfo, error) {
	ac := new(accountInfo)
	exist, err := gc.QueryStorage(config.SystemModuleId, config.StorageAccount, who, nil, ac)
	if err != nil {
		return nil, err
	}
	if !exist {
		return &accountInfo{}, nil
	}
	return ac, nil
}

func (gc *GsrpcClient) FreeBalance(who []byte) (types.U128, error) {
	ac, err := gc.account(who)
	if err != nil {
		return types.U128{}, err
	}
	if ac.Free.Int == nil {
		return types.NewU128(*big.NewInt(0)), nil
	}
	return ac.Free, nil
}

func (gc *GsrpcClient) Nonce(who []byte) (uint32, error) {
	ac, err := gc.account(who)
	if err != nil {
		return 0, err
	}
	return uint32(ac.Nonce), nil
}

// ChainProperties reads system_properties.
func (gc *GsrpcClient) ChainProperties() (*ChainProperties, error) {
	var raw map[string]json.RawMessage
	if err := gc.api.Client.Call(&raw, "system_properties"); err != nil {
		return nil, err
	}
	return parseChainProperties(raw)
}

// parseChainProperties accepts decimals and symbol either as a scalar or as a
// list, as some chains report several tokens. The first entry is used.
func parseChainProperties(raw map[string]json.RawMessage) (*ChainProperties, error) {
	props := &ChainProperties{}
	if v, ok := raw["ss58Format"]; ok {
		if err := json.Unmarshal(v, &props.SS58Format); err != nil {
			return nil, fmt.Errorf("ss58Format: %w", err)
		}
	}
	if v, ok := raw["tokenDecimals"]; ok {
		var list []uint32
		if err := json.Unmarshal(v, &list); err == nil {
			if len(list) > 0 {
				props.TokenDecimals = list[0]
			}
		} else if err := json.Unmarshal(v, &props.TokenDecimals); err != nil {
			return nil, fmt.Errorf("tokenDecimals: %w", err)
		}
	}
	if v, ok := raw["tokenSymbol"]; ok {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			if len(list) > 0 {
				props.TokenSymbol = list[0]
			}
		} else if err := json.Unmarshal(v, &props.TokenSymbol); err != nil {
			return nil, fmt.Errorf("tokenSymbol: %w", err)
		}
	}
	return props, nil
}

type ChainProperties struct {
	SS58Format    uint16
	TokenDecimals uint32
	TokenSymbol   string
}

// CallName turns "msa.createProvider" into the metadata form "Msa.create_provider".
func CallName(method string) string {
	parts := strings.SplitN(method, ".", 2)
	if len(parts) != 2 {
		return method
	}
	return xstrings.FirstRuneToUpper(parts[0]) + "." + xstrings.ToSnakeCase(parts[1])
}

func (gc *GsrpcClient) NewUnsignedExtrinsic(callMethod string, args ...interface{}) (interface{}, error) {
	meta, err := gc.GetLatestMetadata()
	if err != nil {
		return nil, err
	}

	method := CallName(callMethod)
	gc.log.Debug("NewUnsignedExtrinsic", "method", method)
	call, err := types.NewCall(meta, method, args...)
	if err != nil {
		return nil, fmt.Errorf("new call %s: %w", method, err)
	}

	switch gc.addressType {
	case AddressTypeAccountId:
		ext := types.NewExtrinsic(call)
		return &ext, nil
	case AddressTypeMultiAddress:
		ext := types.NewExtrinsicMulti(call)
		return &ext, nil
	default:
		return nil, fmt.Errorf("addressType not supported: %s", gc.addressType)
	}
}

type signableExtrinsic interface {
	Sign(signer signature.KeyringPair, o types.SignatureOptions) error
}

// SignExtrinsic signs ext with key at the account's next nonce and returns it hex encoded.
func (gc *GsrpcClient) SignExtrinsic(ext interface{}, key *signature.KeyringPair) (string, error) {
	if key == nil {
		return "", ErrNoKey
	}
	xt, ok := ext.(signableExtrinsic)
	if !ok {
		return "", fmt.Errorf("extrinsic type %T not supported", ext)
	}

	if err := subkeyAvailable(); err != nil {
		return "", err
	}

	rv, err := gc.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return "", err
	}
	nonce, err := gc.Nonce(key.PublicKey)
	if err != nil {
		return "", err
	}

	if err := xt.Sign(*key, signatureOptions(gc.genesisHash, rv, nonce)); err != nil {
		return "", err
	}
	return types.EncodeToHexString(ext)
}

// signatureOptions builds immortal era options, so the checkpoint block is genesis.
func signatureOptions(genesisHash types.Hash, rv *types.RuntimeVersion, nonce uint32) types.SignatureOptions {
	return types.SignatureOptions{
		BlockHash:          genesisHash,
		Era:                types.ExtrinsicEra{IsMortalEra: false},
		GenesisHash:        genesisHash,
		Nonce:              types.NewUCompactFromUInt(uint64(nonce)),
		SpecVersion:        rv.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: rv.TransactionVersion,
	}
}

// ExtrinsicHash is the blake2b-256 hash chain explorers index extrinsics by.
func ExtrinsicHash(extHex string) (string, error) {
	bz, err := hexutil.Decode(extHex)
	if err != nil {
		return "", err
	}
	h := blake2b.Sum256(bz)
	return hexutil.Encode(h[:]), nil
}

func (gc *GsrpcClient) PaymentQueryInfo(extHex string) (*rpc.PaymentQueryInfo, error) {
	info := new(rpc.PaymentQueryInfo)
	if err := gc.api.Client.Call(info, "payment_queryInfo", extHex); err != nil {
		return nil, err
	}
	return info, nil
}

// WatchExtrinsic submits a signed extrinsic and hands every status update to
// onStatus until it returns true, ctx ends or the subscription fails.
func (gc *GsrpcClient) WatchExtrinsic(ctx context.Context, extHex string, onStatus func(types.ExtrinsicStatus) bool) error {
	c := make(chan types.ExtrinsicStatus)
	sub, err := gc.api.Client.Subscribe(ctx, "author", "submitAndWatchExtrinsic", "unwatchExtrinsic", "extrinsicUpdate", c, extHex)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	return watchStatus(ctx, c, sub.Err(), onStatus)
}

func watchStatus(ctx context.Context, c <-chan types.ExtrinsicStatus, errs <-chan error, onStatus func(types.ExtrinsicStatus) bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			if err == nil {
				err = errSubscriptionClosed
			}
			return err
		case status, ok := <-c:
			if !ok {
				return errSubscriptionClosed
			}
			if onStatus(status) {
				return nil
			}
		}
	}
}

func (gc *GsrpcClient) Close() {
	gc.log.Debug("closing substrate client", "endpoint", gc.endpoint)
	if closer, ok := gc.api.Client.(interface{ Close() }); ok {
		closer.Close()
	}
}
