package svm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

// Gateway instruction variant tags.
const (
	InstructionInitialize uint8 = iota
	InstructionMint
	InstructionBurn
)

// MaxRecipientSize bounds the foreign-chain recipient of a burn.
const MaxRecipientSize = 32

// InitializeInstruction sets up a gateway's state and token mint.
type InitializeInstruction struct {
	*solana.GenericInstruction
}

// MintInstruction is the gateway's domain mint instruction. It only succeeds
// when the verification instruction sits in slot 1 of the same transaction.
type MintInstruction struct {
	*solana.GenericInstruction
}

// BurnInstruction records a burn in the gateway's burn log.
type BurnInstruction struct {
	*solana.GenericInstruction
}

// InitializeAccounts are the accounts read or written by Initialize.
type InitializeAccounts struct {
	Payer        solana.PublicKey
	GatewayState solana.PublicKey
	TokenMint    solana.PublicKey
}

// MintAccounts are the accounts read or written by Mint.
type MintAccounts struct {
	Payer         solana.PublicKey
	GatewayState  solana.PublicKey
	TokenMint     solana.PublicKey
	Destination   solana.PublicKey
	MintLog       solana.PublicKey
	MintAuthority solana.PublicKey
}

// BurnAccounts are the accounts read or written by Burn.
type BurnAccounts struct {
	Payer        solana.PublicKey
	Source       solana.PublicKey
	GatewayState solana.PublicKey
	TokenMint    solana.PublicKey
	BurnLog      solana.PublicKey
}

// NewInitializeInstruction encodes tag 0 followed by the authority address
// and selector hash.
func NewInitializeInstruction(programID solana.PublicKey, accounts InitializeAccounts, authority [EthAddressSize]byte, selectorHash SelectorHash) *InitializeInstruction {
	data := make([]byte, 0, 1+EthAddressSize+len(selectorHash))
	data = append(data, InstructionInitialize)
	data = append(data, authority[:]...)
	data = append(data, selectorHash[:]...)

	metas := []*solana.AccountMeta{
		solana.Meta(accounts.Payer).SIGNER().WRITE(),
		solana.Meta(accounts.GatewayState).WRITE(),
		solana.Meta(accounts.TokenMint).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarRentPubkey),
	}
	return &InitializeInstruction{solana.NewInstruction(programID, metas, data)}
}

// NewMintInstruction encodes the argument-free mint variant.
func NewMintInstruction(programID solana.PublicKey, accounts MintAccounts) *MintInstruction {
	metas := []*solana.AccountMeta{
		solana.Meta(accounts.Payer).SIGNER().WRITE(),
		solana.Meta(accounts.GatewayState),
		solana.Meta(accounts.TokenMint).WRITE(),
		solana.Meta(accounts.Destination).WRITE(),
		solana.Meta(accounts.MintLog).WRITE(),
		solana.Meta(accounts.MintAuthority),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarInstructionsPubkey),
		solana.Meta(solana.SysVarRentPubkey),
	}
	return &MintInstruction{solana.NewInstruction(programID, metas, []byte{InstructionMint})}
}

// NewBurnInstruction encodes tag 2 followed by the recipient as a
// length-prefixed byte vector.
func NewBurnInstruction(programID solana.PublicKey, accounts BurnAccounts, recipient []byte) (*BurnInstruction, error) {
	if len(recipient) == 0 {
		return nil, gwerrors.NewValidationError("burn recipient is empty")
	}
	if len(recipient) > MaxRecipientSize {
		return nil, gwerrors.NewSizeMismatchError("burn recipient", MaxRecipientSize, len(recipient))
	}

	data := make([]byte, 1+4+len(recipient))
	data[0] = InstructionBurn
	binary.LittleEndian.PutUint32(data[1:5], uint32(len(recipient)))
	copy(data[5:], recipient)

	metas := []*solana.AccountMeta{
		solana.Meta(accounts.Payer).SIGNER().WRITE(),
		solana.Meta(accounts.Source).WRITE(),
		solana.Meta(accounts.GatewayState).WRITE(),
		solana.Meta(accounts.TokenMint).WRITE(),
		solana.Meta(accounts.BurnLog).WRITE(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarInstructionsPubkey),
		solana.Meta(solana.SysVarRentPubkey),
	}
	return &BurnInstruction{solana.NewInstruction(programID, metas, data)}, nil
}

// NewTokenBurnInstruction builds the SPL BurnChecked that destroys the
// wrapped tokens ahead of the gateway burn.
func NewTokenBurnInstruction(amount uint64, decimals uint8, source, mint, owner solana.PublicKey) (*token.Instruction, error) {
	ix, err := token.NewBurnCheckedInstruction(amount, decimals, source, mint, owner, nil).ValidateAndBuild()
	if err != nil {
		return nil, gwerrors.NewValidationError("invalid token burn").WithContext("cause", err.Error())
	}
	return ix, nil
}
