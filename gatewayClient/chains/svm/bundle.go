package svm

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

// Bundle slots. The verification instruction's offsets point at
// VerificationSlot, so a mint bundle is only valid in exactly this order.
const (
	DomainSlot       = 0
	VerificationSlot = 1
)

// MintBundle is the ordered pair [gateway mint, signature verification].
// Its fields are unexported and it can only be built by NewMintBundle.
type MintBundle struct {
	mint         *MintInstruction
	verification *VerificationInstruction
}

// NewMintBundle pairs a mint with its verification instruction after checking
// that every instruction index in the verification offsets names the slot
// the bundle will place it in.
func NewMintBundle(mint *MintInstruction, verification *VerificationInstruction) (*MintBundle, error) {
	if mint == nil || verification == nil {
		return nil, gwerrors.NewValidationError("mint bundle requires both instructions")
	}
	for _, idx := range verification.Offsets().InstructionIndexes() {
		if int(idx) != VerificationSlot {
			return nil, gwerrors.NewValidationError("verification offsets reference the wrong instruction").
				WithContext("index", idx).
				WithContext("want", VerificationSlot)
		}
	}
	return &MintBundle{mint: mint, verification: verification}, nil
}

// Instructions returns the bundle in submission order.
func (b *MintBundle) Instructions() []solana.Instruction {
	ixs := make([]solana.Instruction, 2)
	ixs[DomainSlot] = b.mint
	ixs[VerificationSlot] = b.verification
	return ixs
}

// Transaction assembles an unsigned transaction paying from payer.
func (b *MintBundle) Transaction(blockhash solana.Hash, payer solana.PublicKey) (*solana.Transaction, error) {
	return newBundleTransaction(b.Instructions(), blockhash, payer)
}

// BurnBundle is the ordered pair [SPL BurnChecked, gateway burn]. Its fields
// are unexported and it can only be built by NewBurnBundle.
type BurnBundle struct {
	tokenBurn *token.Instruction
	burn      *BurnInstruction
}

// NewBurnBundle pairs the token burn with the gateway burn-log instruction.
func NewBurnBundle(tokenBurn *token.Instruction, burn *BurnInstruction) (*BurnBundle, error) {
	if tokenBurn == nil || burn == nil {
		return nil, gwerrors.NewValidationError("burn bundle requires both instructions")
	}
	if tokenBurn.TypeID.Uint8() != token.Instruction_BurnChecked {
		return nil, gwerrors.NewValidationError("burn bundle requires a BurnChecked token instruction").
			WithContext("type_id", tokenBurn.TypeID.Uint8())
	}
	return &BurnBundle{tokenBurn: tokenBurn, burn: burn}, nil
}

// Instructions returns the bundle in submission order.
func (b *BurnBundle) Instructions() []solana.Instruction {
	return []solana.Instruction{b.tokenBurn, b.burn}
}

// Transaction assembles an unsigned transaction paying from payer.
func (b *BurnBundle) Transaction(blockhash solana.Hash, payer solana.PublicKey) (*solana.Transaction, error) {
	return newBundleTransaction(b.Instructions(), blockhash, payer)
}

// CheckMintOrder reports whether ixs is a correctly ordered mint bundle: the
// slot named by the verification offsets must hold the verification
// instruction and the slot before it the gateway mint.
func CheckMintOrder(ixs []solana.Instruction, gatewayProgram solana.PublicKey) error {
	if len(ixs) != 2 {
		return gwerrors.NewValidationError("mint bundle must hold exactly two instructions").
			WithContext("count", len(ixs))
	}
	if !ixs[DomainSlot].ProgramID().Equals(gatewayProgram) {
		return gwerrors.NewValidationError("slot 0 is not the gateway mint instruction")
	}
	if !ixs[VerificationSlot].ProgramID().Equals(Secp256k1ProgramID) {
		return gwerrors.NewValidationError("slot 1 is not the verification instruction")
	}

	data, err := ixs[VerificationSlot].Data()
	if err != nil {
		return gwerrors.NewEncodingError("unreadable verification instruction data")
	}
	parsed, err := ParseVerificationPayload(data)
	if err != nil {
		return err
	}
	for _, idx := range parsed.Offsets().InstructionIndexes() {
		if int(idx) != VerificationSlot {
			return gwerrors.NewValidationError("verification offsets reference the wrong instruction").
				WithContext("index", idx)
		}
	}
	return nil
}

func newBundleTransaction(ixs []solana.Instruction, blockhash solana.Hash, payer solana.PublicKey) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, gwerrors.NewEncodingError("failed to assemble transaction").WithContext("cause", err.Error())
	}
	return tx, nil
}
