package submodel

import (
	"math/big"

	scale "github.com/itering/scale.go"
	"github.com/stafiprotocol/go-substrate-rpc-client/types"
)

// AddKeyData is the payload both keys sign when a key joins an msa.
type AddKeyData struct {
	MsaId        types.U64
	Expiration   types.U32
	NewPublicKey types.AccountID
}

func NewAddKeyData(msaId uint64, expiration uint32, newPublicKey []byte) AddKeyData {
	return AddKeyData{
		MsaId:        types.NewU64(msaId),
		Expiration:   types.NewU32(expiration),
		NewPublicKey: types.NewAccountID(newPublicKey),
	}
}

// Sr25519Proof wraps a signature as the Sr25519 variant of MultiSignature.
func Sr25519Proof(sig []byte) types.MultiSignature {
	return types.MultiSignature{IsSr25519: true, AsSr25519: types.NewSignature(sig)}
}

type ProviderRegistryEntry struct {
	ProviderName types.Bytes
}

type CapacityDetails struct {
	RemainingCapacity    types.U128
	TotalTokensStaked    types.U128
	TotalCapacityIssued  types.U128
	LastReplenishedEpoch types.U32
}

// CapacityDetailsDefault is what an absent ledger entry reads as.
func CapacityDetailsDefault() CapacityDetails {
	return CapacityDetails{
		RemainingCapacity:   types.NewU128(*big.NewInt(0)),
		TotalTokensStaked:   types.NewU128(*big.NewInt(0)),
		TotalCapacityIssued: types.NewU128(*big.NewInt(0)),
	}
}

type Capacity struct {
	MsaId                uint64   `json:"msaId"`
	RemainingCapacity    *big.Int `json:"remainingCapacity"`
	TotalTokensStaked    *big.Int `json:"totalTokensStaked"`
	TotalCapacityIssued  *big.Int `json:"totalCapacityIssued"`
	LastReplenishedEpoch uint32   `json:"lastReplenishedEpoch"`
}

func (c CapacityDetails) ToCapacity(msaId uint64) *Capacity {
	return &Capacity{
		MsaId:                msaId,
		RemainingCapacity:    u128Int(c.RemainingCapacity),
		TotalTokensStaked:    u128Int(c.TotalTokensStaked),
		TotalCapacityIssued:  u128Int(c.TotalCapacityIssued),
		LastReplenishedEpoch: uint32(c.LastReplenishedEpoch),
	}
}

func u128Int(v types.U128) *big.Int {
	if v.Int == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v.Int)
}

type ChainProperties struct {
	SS58Format    uint16 `json:"ss58Format"`
	TokenDecimals uint32 `json:"tokenDecimals"`
	TokenSymbol   string `json:"tokenSymbol"`
}

type ChainEvent struct {
	ModuleId     string             `json:"module_id" `
	EventId      string             `json:"event_id" `
	Phase        int                `json:"phase"`
	ExtrinsicIdx int                `json:"extrinsic_idx"`
	Params       []scale.EventParam `json:"params"`
}
