// Package svm builds and submits gateway bridge transactions on Solana: program
// address derivation, the signed mint message, the secp256k1 verification
// instruction, and the ordered instruction bundles that tie them together.
package svm

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Secp256k1ProgramID is the native program that verifies ECDSA signatures
// against 20-byte Ethereum-style addresses.
var Secp256k1ProgramID = solana.MustPublicKeyFromBase58("KeccakSecp256k11111111111111111111111111111")

// ProgramConfig holds the program identities of one bridge deployment. It is
// built once at startup and passed to every derivation.
type ProgramConfig struct {
	Gateway  solana.PublicKey
	Registry solana.PublicKey
}

// NewProgramConfig parses base58 program ids into a ProgramConfig.
func NewProgramConfig(gateway, registry string) (ProgramConfig, error) {
	gw, err := solana.PublicKeyFromBase58(gateway)
	if err != nil {
		return ProgramConfig{}, fmt.Errorf("invalid gateway program id: %w", err)
	}
	reg, err := solana.PublicKeyFromBase58(registry)
	if err != nil {
		return ProgramConfig{}, fmt.Errorf("invalid registry program id: %w", err)
	}
	if gw.IsZero() {
		return ProgramConfig{}, fmt.Errorf("gateway program id is required")
	}
	return ProgramConfig{Gateway: gw, Registry: reg}, nil
}
