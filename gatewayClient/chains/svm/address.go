package svm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

const (
	// MaxSeeds is the runtime limit on seeds per derivation, bump included.
	MaxSeeds = 16
	// MaxSeedLength is the runtime limit on the length of a single seed.
	MaxSeedLength = 32
	// AddressSize is the width of a Solana public key.
	AddressSize = 32
)

var (
	gatewayStateSeed  = []byte("GatewayState")
	registryStateSeed = []byte("GatewayRegistryState")
)

// ProgramAddress is a program-derived address together with the bump seed
// that pushed it off the ed25519 curve.
type ProgramAddress struct {
	Address solana.PublicKey
	Bump    uint8
}

// Derive finds the program address for seeds under programID. The bump is
// searched from 255 down and appended as a final one-byte seed; the first
// off-curve candidate wins, so the result is a pure function of the inputs.
func Derive(programID solana.PublicKey, seeds ...[]byte) (ProgramAddress, error) {
	if len(seeds) > MaxSeeds-1 {
		return ProgramAddress{}, gwerrors.NewChainError(gwerrors.ErrCodeSizeMismatch, "",
			"too many seeds for program address", nil).WithContext("seeds", len(seeds))
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return ProgramAddress{}, gwerrors.NewChainError(gwerrors.ErrCodeSizeMismatch, "",
				"seed exceeds maximum length", nil).
				WithContext("index", i).
				WithContext("length", len(seed))
		}
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		address, err := solana.CreateProgramAddress(withBump, programID)
		if err != nil {
			// on-curve candidate
			continue
		}
		return ProgramAddress{Address: address, Bump: uint8(bump)}, nil
	}
	return ProgramAddress{}, gwerrors.NewDerivationExhaustedError(programID.String())
}

// Deriver derives the named accounts of one gateway deployment.
type Deriver struct {
	programs ProgramConfig
}

// NewDeriver returns a Deriver bound to the given program identities.
func NewDeriver(programs ProgramConfig) *Deriver {
	return &Deriver{programs: programs}
}

// Programs returns the program identities the deriver is bound to.
func (d *Deriver) Programs() ProgramConfig {
	return d.programs
}

// GatewayState derives the account holding the gateway's state. Seeds: ["GatewayState"]
func (d *Deriver) GatewayState() (ProgramAddress, error) {
	return Derive(d.programs.Gateway, gatewayStateSeed)
}

// TokenMint derives the wrapped token mint for a selector. Seeds: [selector_hash]
func (d *Deriver) TokenMint(selectorHash SelectorHash) (ProgramAddress, error) {
	return Derive(d.programs.Gateway, selectorHash[:])
}

// MintAuthority derives the authority allowed to mint tokenMint. Seeds: [token_mint]
func (d *Deriver) MintAuthority(tokenMint solana.PublicKey) (ProgramAddress, error) {
	return Derive(d.programs.Gateway, tokenMint.Bytes())
}

// MintLog derives the per-message mint log. Seeds: [keccak256(mint_message)]
//
// One log account exists per distinct message, so a signed mint can only be
// executed once.
func (d *Deriver) MintLog(digest [32]byte) (ProgramAddress, error) {
	return Derive(d.programs.Gateway, digest[:])
}

// BurnLog derives the burn log for an already-sequenced burn count.
// Seeds: [burn_count as little-endian u64]
func (d *Deriver) BurnLog(count uint64) (ProgramAddress, error) {
	return Derive(d.programs.Gateway, LogSeed(count))
}

// RegistryState derives the gateway registry account under the registry program.
// Seeds: ["GatewayRegistryState"]
func (d *Deriver) RegistryState() (ProgramAddress, error) {
	return Derive(d.programs.Registry, registryStateSeed)
}

// LogSeed encodes a burn count as the burn log seed. It never adjusts count.
func LogSeed(count uint64) []byte {
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, count)
	return seed
}

// AddressEncodeDecoder converts between raw 32-byte addresses and base58 text.
type AddressEncodeDecoder struct{}

// NewAddressEncodeDecoder constructs an AddressEncodeDecoder.
func NewAddressEncodeDecoder() AddressEncodeDecoder {
	return AddressEncodeDecoder{}
}

// EncodeAddress encodes a raw address to base58.
func (AddressEncodeDecoder) EncodeAddress(raw []byte) (string, error) {
	if len(raw) != AddressSize {
		return "", gwerrors.NewSizeMismatchError("address", AddressSize, len(raw))
	}
	return base58.Encode(raw), nil
}

// DecodeAddress decodes a base58 address to its raw bytes.
func (AddressEncodeDecoder) DecodeAddress(encoded string) ([]byte, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, gwerrors.NewChainError(gwerrors.ErrCodeEncoding, "", "invalid base58 address", err)
	}
	if len(raw) != AddressSize {
		return nil, gwerrors.NewSizeMismatchError("address", AddressSize, len(raw))
	}
	return raw, nil
}
