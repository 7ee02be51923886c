// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package frequency

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"provider-dashboard/config"
	"provider-dashboard/core"
	"provider-dashboard/models/submodel"
	"provider-dashboard/shared/substrate"
	"provider-dashboard/utils"

	"github.com/ChainSafe/log15"
	"github.com/itering/substrate-api-rpc/rpc"
	"github.com/stafiprotocol/go-substrate-rpc-client/signature"
	"github.com/stafiprotocol/go-substrate-rpc-client/types"
)

var (
	ErrNotExist      = errors.New("not exist in storage")
	ErrGenesisHash   = errors.New("genesis hash mismatch")
	DefaultTxTimeout = 2 * time.Minute
)

// chainClient is the part of substrate.GsrpcClient a Connection needs.
type chainClient interface {
	GenesisHash() types.Hash
	GetLatestBlockNumber() (uint64, error)
	GetFinalizedBlockNumber() (uint64, error)
	GetBlockHash(blockNum uint64) (types.Hash, error)
	GetBlockExtrinsics(blockHash types.Hash) ([]string, error)
	GetEvents(blockHash types.Hash) ([]*submodel.ChainEvent, error)
	QueryStorage(prefix, method string, arg1, arg2 []byte, result interface{}) (bool, error)
	FreeBalance(who []byte) (types.U128, error)
	ChainProperties() (*substrate.ChainProperties, error)
	NewUnsignedExtrinsic(callMethod string, args ...interface{}) (interface{}, error)
	SignExtrinsic(ext interface{}, key *signature.KeyringPair) (string, error)
	PaymentQueryInfo(extHex string) (*rpc.PaymentQueryInfo, error)
	WatchExtrinsic(ctx context.Context, extHex string, onStatus func(types.ExtrinsicStatus) bool) error
	Close()
}

type Connection struct {
	url       string
	sc        chainClient
	props     submodel.ChainProperties
	txTimeout time.Duration
	log       log15.Logger
}

func NewConnection(cfg *core.ChainConfig, log log15.Logger) (*Connection, error) {
	log.Info("NewConnection", "Endpoint", cfg.Endpoint, "typesPath", cfg.TypesPath)

	if err := substrate.LoadTypes(cfg.TypesPath); err != nil {
		return nil, fmt.Errorf("load types %s: %w", cfg.TypesPath, err)
	}

	sc, err := substrate.NewGsrpcClient(cfg.Endpoint, substrate.AddressTypeMultiAddress, log)
	if err != nil {
		return nil, err
	}

	conn, err := newConnection(cfg, sc, log)
	if err != nil {
		sc.Close()
		return nil, err
	}
	return conn, nil
}

func newConnection(cfg *core.ChainConfig, sc chainClient, log log15.Logger) (*Connection, error) {
	if cfg.GenesisHash != "" && sc.GenesisHash().Hex() != cfg.GenesisHash {
		return nil, fmt.Errorf("%w: %s expects %s, node reports %s", ErrGenesisHash, cfg.Name, cfg.GenesisHash, sc.GenesisHash().Hex())
	}

	props := submodel.ChainProperties{
		SS58Format:    utils.FrequencySS58Format,
		TokenDecimals: utils.DefaultDecimals,
	}
	p, err := sc.ChainProperties()
	if err != nil {
		log.Warn("system_properties unavailable, using defaults", "err", err)
	} else {
		if p.SS58Format != 0 {
			props.SS58Format = p.SS58Format
		}
		if p.TokenDecimals != 0 {
			props.TokenDecimals = p.TokenDecimals
		}
		props.TokenSymbol = p.TokenSymbol
	}

	timeout := cfg.TxTimeout
	if timeout <= 0 {
		timeout = DefaultTxTimeout
	}

	return &Connection{
		url:       cfg.Endpoint,
		sc:        sc,
		props:     props,
		txTimeout: timeout,
		log:       log,
	}, nil
}

func (c *Connection) Properties() submodel.ChainProperties {
	return c.props
}

func (c *Connection) Address(pub []byte) string {
	addr, err := utils.EncodeAddress(pub, c.props.SS58Format)
	if err != nil {
		return ""
	}
	return addr
}

func (c *Connection) GetBlockNumber() (uint64, error) {
	if c == nil || c.sc == nil {
		return 0, nil
	}
	return c.sc.GetLatestBlockNumber()
}

// GetFinalizedBlock returns number and hash of the last finalized block.
func (c *Connection) GetFinalizedBlock() (uint64, string, error) {
	blk, err := c.sc.GetFinalizedBlockNumber()
	if err != nil {
		return 0, "", err
	}
	hash, err := c.sc.GetBlockHash(blk)
	if err != nil {
		return 0, "", err
	}
	return blk, hash.Hex(), nil
}

func (c *Connection) GetEpoch() (uint64, error) {
	if c == nil || c.sc == nil {
		return 0, nil
	}
	var epoch types.U32
	_, err := c.QueryStorage(config.CapacityModuleId, config.StorageCurrentEpoch, nil, nil, &epoch)
	if err != nil {
		return 0, err
	}
	return uint64(epoch), nil
}

// QueryStorage performs a storage lookup. Arguments may be nil, result must be a pointer.
func (c *Connection) QueryStorage(prefix, method string, arg1, arg2 []byte, result interface{}) (bool, error) {
	return c.sc.QueryStorage(prefix, method, arg1, arg2, result)
}

// GetMsaId returns 0 when the key belongs to no msa.
func (c *Connection) GetMsaId(pub []byte) (uint64, error) {
	var msaId types.U64
	exists, err := c.QueryStorage(config.MsaModuleId, config.StoragePublicKeyToMsaId, pub, nil, &msaId)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return uint64(msaId), nil
}

func (c *Connection) GetProvider(msaId uint64) (*submodel.ProviderRegistryEntry, error) {
	key, err := types.EncodeToBytes(types.NewU64(msaId))
	if err != nil {
		return nil, err
	}
	entry := new(submodel.ProviderRegistryEntry)
	exists, err := c.QueryStorage(config.MsaModuleId, config.StorageProviderToRegistryEntry, key, nil, entry)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotExist
	}
	return entry, nil
}

func (c *Connection) GetMsaInfo(pub []byte) (core.MsaInfo, error) {
	info := core.MsaInfo{}
	msaId, err := c.GetMsaId(pub)
	if err != nil {
		return info, err
	}
	info.MsaId = msaId
	if msaId == 0 {
		return info, nil
	}

	entry, err := c.GetProvider(msaId)
	switch {
	case err == nil:
		info.IsProvider = true
		info.ProviderName = string(entry.ProviderName)
	case errors.Is(err, ErrNotExist):
	default:
		return info, err
	}
	return info, nil
}

// GetCapacity reads the capacity ledger; an absent entry reads as zeros.
func (c *Connection) GetCapacity(msaId uint64) (*submodel.Capacity, error) {
	key, err := types.EncodeToBytes(types.NewU64(msaId))
	if err != nil {
		return nil, err
	}
	details := submodel.CapacityDetailsDefault()
	exists, err := c.QueryStorage(config.CapacityModuleId, config.StorageCapacityLedger, key, nil, &details)
	if err != nil {
		return nil, err
	}
	if !exists {
		details = submodel.CapacityDetailsDefault()
	}
	return details.ToCapacity(msaId), nil
}

func (c *Connection) FreeBalance(pub []byte) (*big.Int, error) {
	b, err := c.sc.FreeBalance(pub)
	if err != nil {
		return nil, err
	}
	if b.Int == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(b.Int), nil
}

func (c *Connection) Close() {
	c.sc.Close()
}
