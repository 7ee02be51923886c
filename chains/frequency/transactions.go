// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package frequency

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"provider-dashboard/config"
	"provider-dashboard/core"
	"provider-dashboard/models/submodel"
	"provider-dashboard/shared/substrate"

	"github.com/stafiprotocol/go-substrate-rpc-client/signature"
	"github.com/stafiprotocol/go-substrate-rpc-client/types"
)

var ErrEmptyProviderName = errors.New("provider name is empty")

// SubmitCreateMsa creates a new msa controlled by the signing key.
func (c *Connection) SubmitCreateMsa(ctx context.Context, signingKey *signature.KeyringPair, cb TxnStatusCallback) error {
	ext, err := c.sc.NewUnsignedExtrinsic(config.MethodCreateMsa)
	if err != nil {
		return err
	}
	return c.submitExtrinsic(ctx, ext, signingKey, cb)
}

// SubmitCreateProvider registers the signing key's msa as a provider. It
// returns false without submitting when there is no connection.
func (c *Connection) SubmitCreateProvider(ctx context.Context, signingKey *signature.KeyringPair, providerName string, cb TxnStatusCallback) (bool, error) {
	if c == nil || c.sc == nil {
		return false, nil
	}
	if providerName == "" {
		return false, ErrEmptyProviderName
	}
	ext, err := c.sc.NewUnsignedExtrinsic(config.MethodCreateProvider, types.NewBytes([]byte(providerName)))
	if err != nil {
		return false, err
	}
	return true, c.submitExtrinsic(ctx, ext, signingKey, cb)
}

// NewAddKeyPayload builds the payload for adding newKey to msaId, valid for
// AddKeyExpirationBlocks after blockNumber.
func NewAddKeyPayload(msaId, blockNumber uint64, newKey []byte) submodel.AddKeyData {
	return submodel.NewAddKeyData(msaId, uint32(blockNumber+config.AddKeyExpirationBlocks), newKey)
}

// SignAddKeyPayload returns the Sr25519 proof of key over the encoded payload.
func SignAddKeyPayload(key *signature.KeyringPair, payload submodel.AddKeyData) (types.MultiSignature, error) {
	bz, err := types.EncodeToBytes(payload)
	if err != nil {
		return types.MultiSignature{}, err
	}
	sig, err := substrate.SignRaw(key, bz)
	if err != nil {
		return types.MultiSignature{}, err
	}
	return submodel.Sr25519Proof(sig), nil
}

// SubmitAddControlKey creates the add-key payload, has both the msa owner and
// the new key sign it, then submits the extrinsic signed by the owner.
func (c *Connection) SubmitAddControlKey(ctx context.Context, newKey, signingKey *signature.KeyringPair, providerId uint64, cb TxnStatusCallback) error {
	if newKey == nil || signingKey == nil {
		return substrate.ErrNoKey
	}
	blockNumber, err := c.GetBlockNumber()
	if err != nil {
		return err
	}

	payload := NewAddKeyPayload(providerId, blockNumber, newKey.PublicKey)
	ownerKeyProof, err := SignAddKeyPayload(signingKey, payload)
	if err != nil {
		return fmt.Errorf("owner key signature: %w", err)
	}
	newKeyProof, err := SignAddKeyPayload(newKey, payload)
	if err != nil {
		return fmt.Errorf("new key signature: %w", err)
	}

	ext, err := c.sc.NewUnsignedExtrinsic(config.MethodAddPublicKeyToMsa,
		types.NewAccountID(signingKey.PublicKey), ownerKeyProof, newKeyProof, payload)
	if err != nil {
		return err
	}
	return c.submitExtrinsic(ctx, ext, signingKey, cb)
}

// SubmitStake stakes amount planck to the provider.
func (c *Connection) SubmitStake(ctx context.Context, signingKey *signature.KeyringPair, providerId uint64, amount *big.Int, cb TxnStatusCallback) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("stake amount must be positive")
	}
	ext, err := c.sc.NewUnsignedExtrinsic(config.MethodStake, types.NewU64(providerId), types.NewU128(*amount))
	if err != nil {
		return err
	}
	return c.submitExtrinsic(ctx, ext, signingKey, cb)
}

// submitExtrinsic signs and submits ext, reporting every status through cb.
// Failures end up as a status, the returned error only tells the caller the
// submission did not run to a final status.
func (c *Connection) submitExtrinsic(ctx context.Context, ext interface{}, key *signature.KeyringPair, cb TxnStatusCallback) error {
	cb(core.TxSubmitting, StatusSubmitting)

	extHex, err := c.sc.SignExtrinsic(ext, key)
	if err != nil {
		showExtrinsicStatus(c.log, core.TxError, fmt.Sprintf("Unexpected problem: %s", err), cb)
		return err
	}
	if hash, err := substrate.ExtrinsicHash(extHex); err == nil {
		c.log.Info("submitting extrinsic", "hash", hash, "signer", c.Address(key.PublicKey))
	}
	if info, err := c.sc.PaymentQueryInfo(extHex); err == nil {
		c.log.Debug("fee estimate", "partialFee", info.PartialFee, "class", info.Class)
	}

	ctx, cancel := context.WithTimeout(ctx, c.txTimeout)
	defer cancel()

	err = c.sc.WatchExtrinsic(ctx, extHex, func(status types.ExtrinsicStatus) bool {
		result := TxResult{Status: status}
		if status.IsFinalized {
			evts, err := c.extrinsicEvents(status.AsFinalized, extHex)
			if err != nil {
				c.log.Warn("events of finalized extrinsic unavailable", "block", status.AsFinalized.Hex(), "err", err)
			}
			result.Events = evts
		}
		return ParseChainEvent(c.log, result, cb)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		showExtrinsicStatus(c.log, core.TxError, StatusTimeout, cb)
	default:
		showExtrinsicStatus(c.log, core.TxError, fmt.Sprintf("Unexpected problem: %s", err), cb)
	}
	return err
}

// extrinsicEvents finds extHex in the block and returns the events it emitted.
func (c *Connection) extrinsicEvents(blockHash types.Hash, extHex string) ([]*submodel.ChainEvent, error) {
	exts, err := c.sc.GetBlockExtrinsics(blockHash)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, e := range exts {
		if e == extHex {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("extrinsic not found in block %s", blockHash.Hex())
	}

	evts, err := c.sc.GetEvents(blockHash)
	if err != nil {
		return nil, err
	}
	return substrate.EventsOfExtrinsic(evts, idx), nil
}
