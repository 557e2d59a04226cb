package svm

import (
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

const (
	// GatewayStateSize is the Borsh size of GatewayState.
	GatewayStateSize = 1 + EthAddressSize + 32 + 8 + 1
	// BurnLogSize is the size of a burn log account.
	BurnLogSize = 8 + 1 + MaxRecipientSize
	// MaxRegisteredGateways is the capacity of the gateway registry.
	MaxRegisteredGateways = 32
)

// GatewayState is the gateway program's state account.
type GatewayState struct {
	IsInitialized      bool
	Authority          [EthAddressSize]byte
	SelectorHash       SelectorHash
	BurnCount          uint64
	UnderlyingDecimals uint8
}

// DecodeGatewayState decodes a gateway state account.
func DecodeGatewayState(data []byte) (GatewayState, error) {
	if len(data) < GatewayStateSize {
		return GatewayState{}, gwerrors.NewSizeMismatchError("gateway state", GatewayStateSize, len(data))
	}
	var state GatewayState
	if err := bin.NewBorshDecoder(data).Decode(&state); err != nil {
		return GatewayState{}, gwerrors.NewChainError(gwerrors.ErrCodeEncoding, "", "failed to decode gateway state", err)
	}
	return state, nil
}

// BurnLog is the record written by a gateway burn.
type BurnLog struct {
	Amount    uint64
	Recipient []byte
}

// DecodeBurnLog decodes a burn log account.
func DecodeBurnLog(data []byte) (BurnLog, error) {
	if len(data) < BurnLogSize {
		return BurnLog{}, gwerrors.NewSizeMismatchError("burn log", BurnLogSize, len(data))
	}
	n := int(data[8])
	if n > MaxRecipientSize {
		return BurnLog{}, gwerrors.NewEncodingError("burn log recipient length out of range").WithContext("length", n)
	}
	recipient := make([]byte, n)
	copy(recipient, data[9:9+n])
	return BurnLog{
		Amount:    binary.LittleEndian.Uint64(data[0:8]),
		Recipient: recipient,
	}, nil
}

// GatewayRegistry is the registry program's index of selector hashes to
// gateway program ids.
type GatewayRegistry struct {
	IsInitialized bool
	Owner         solana.PublicKey
	Count         uint64
	Selectors     [MaxRegisteredGateways][32]byte
	Gateways      [MaxRegisteredGateways]solana.PublicKey
}

// DecodeGatewayRegistry decodes a registry state account.
func DecodeGatewayRegistry(data []byte) (GatewayRegistry, error) {
	var reg GatewayRegistry
	if err := bin.NewBorshDecoder(data).Decode(&reg); err != nil {
		return GatewayRegistry{}, gwerrors.NewChainError(gwerrors.ErrCodeEncoding, "", "failed to decode gateway registry", err)
	}
	if reg.Count > MaxRegisteredGateways {
		return GatewayRegistry{}, gwerrors.NewEncodingError("gateway registry count out of range").WithContext("count", reg.Count)
	}
	return reg, nil
}

// Entries returns the registered (selector hash, gateway) pairs.
func (r GatewayRegistry) Entries() map[SelectorHash]solana.PublicKey {
	out := make(map[SelectorHash]solana.PublicKey, r.Count)
	for i := uint64(0); i < r.Count; i++ {
		out[SelectorHash(r.Selectors[i])] = r.Gateways[i]
	}
	return out
}

// Lookup returns the gateway registered for hash.
func (r GatewayRegistry) Lookup(hash SelectorHash) (solana.PublicKey, bool) {
	for i := uint64(0); i < r.Count; i++ {
		if SelectorHash(r.Selectors[i]) == hash {
			return r.Gateways[i], true
		}
	}
	return solana.PublicKey{}, false
}
