package svm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

const (
	// EthAddressSize is the width of the authority's Ethereum-style address.
	EthAddressSize = 20
	// SignatureOffsetsSize is the serialized size of SignatureOffsets.
	SignatureOffsetsSize = 11
	// SignatureSize is r || s || v.
	SignatureSize = 32 + 32 + 1

	// VerificationInstructionIndex is the slot every offset in the
	// verification instruction points at. It is the slot MintBundle places
	// the verification instruction in; a bundle with extra leading
	// instructions would need to compute it instead.
	VerificationInstructionIndex uint8 = 1

	// mintSignatureTag marks the record as a mint signature for the gateway
	// program, which decodes it from the same instruction data.
	mintSignatureTag byte = 0

	secpDataStart       = 1 + SignatureOffsetsSize
	secpRecordSize      = 1 + EthAddressSize + SignatureSize + MintMessageSize
	ethAddressOffset    = secpDataStart + 1
	signatureOffset     = ethAddressOffset + EthAddressSize
	messageDataOffset   = signatureOffset + SignatureSize
	VerificationDataLen = secpDataStart + secpRecordSize
)

// SignatureOffsets tells the secp256k1 program where, and in which
// instruction of the transaction, to find the signature, the expected
// signer address and the signed message.
type SignatureOffsets struct {
	SignatureOffset            uint16
	SignatureInstructionIndex  uint8
	EthAddressOffset           uint16
	EthAddressInstructionIndex uint8
	MessageDataOffset          uint16
	MessageDataSize            uint16
	MessageInstructionIndex    uint8
}

// encode writes o in the runtime's little-endian layout.
func (o SignatureOffsets) encode(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:2], o.SignatureOffset)
	dst[2] = o.SignatureInstructionIndex
	binary.LittleEndian.PutUint16(dst[3:5], o.EthAddressOffset)
	dst[5] = o.EthAddressInstructionIndex
	binary.LittleEndian.PutUint16(dst[6:8], o.MessageDataOffset)
	binary.LittleEndian.PutUint16(dst[8:10], o.MessageDataSize)
	dst[10] = o.MessageInstructionIndex
}

func decodeSignatureOffsets(src []byte) SignatureOffsets {
	return SignatureOffsets{
		SignatureOffset:            binary.LittleEndian.Uint16(src[0:2]),
		SignatureInstructionIndex:  src[2],
		EthAddressOffset:           binary.LittleEndian.Uint16(src[3:5]),
		EthAddressInstructionIndex: src[5],
		MessageDataOffset:          binary.LittleEndian.Uint16(src[6:8]),
		MessageDataSize:            binary.LittleEndian.Uint16(src[8:10]),
		MessageInstructionIndex:    src[10],
	}
}

// InstructionIndexes returns the three instruction index fields.
func (o SignatureOffsets) InstructionIndexes() []uint8 {
	return []uint8{o.SignatureInstructionIndex, o.EthAddressInstructionIndex, o.MessageInstructionIndex}
}

// NormalizeRecoveryID maps the conventional v in {27,28} to the raw
// recovery bit {0,1} the secp256k1 program expects.
func NormalizeRecoveryID(v byte) (byte, error) {
	if v != 27 && v != 28 {
		return 0, gwerrors.NewInvalidRecoveryIDError(v)
	}
	return v - 27, nil
}

// VerificationInstruction is a secp256k1 program instruction carrying one
// mint signature. It implements solana.Instruction.
type VerificationInstruction struct {
	data    []byte
	offsets SignatureOffsets
}

var _ solana.Instruction = (*VerificationInstruction)(nil)

// BuildVerificationPayload lays out the secp256k1 instruction data:
//
//	[0]      signature count (1)
//	[1:12]   SignatureOffsets
//	[12]     record tag
//	[13:33]  authority address
//	[33:65]  r
//	[65:97]  s
//	[97]     v (0 or 1)
//	[98:234] mint message
//
// sigV must be the conventional 27 or 28. message and ethAddress must have
// their exact protocol widths; nothing is padded or truncated.
func BuildVerificationPayload(sigR, sigS [32]byte, sigV byte, message, ethAddress []byte) ([]byte, error) {
	if len(message) != MintMessageSize {
		return nil, gwerrors.NewSizeMismatchError("message", MintMessageSize, len(message))
	}
	if len(ethAddress) != EthAddressSize {
		return nil, gwerrors.NewSizeMismatchError("eth address", EthAddressSize, len(ethAddress))
	}
	v, err := NormalizeRecoveryID(sigV)
	if err != nil {
		return nil, err
	}

	data := make([]byte, VerificationDataLen)
	data[0] = 1
	SignatureOffsets{
		SignatureOffset:            signatureOffset,
		SignatureInstructionIndex:  VerificationInstructionIndex,
		EthAddressOffset:           ethAddressOffset,
		EthAddressInstructionIndex: VerificationInstructionIndex,
		MessageDataOffset:          messageDataOffset,
		MessageDataSize:            MintMessageSize,
		MessageInstructionIndex:    VerificationInstructionIndex,
	}.encode(data[1:secpDataStart])

	data[secpDataStart] = mintSignatureTag
	copy(data[ethAddressOffset:signatureOffset], ethAddress)
	copy(data[signatureOffset:signatureOffset+32], sigR[:])
	copy(data[signatureOffset+32:signatureOffset+64], sigS[:])
	data[signatureOffset+64] = v
	copy(data[messageDataOffset:], message)
	return data, nil
}

// NewVerificationInstruction builds the verification instruction for a mint
// signature. See BuildVerificationPayload for the layout and preconditions.
func NewVerificationInstruction(sigR, sigS [32]byte, sigV byte, message, ethAddress []byte) (*VerificationInstruction, error) {
	data, err := BuildVerificationPayload(sigR, sigS, sigV, message, ethAddress)
	if err != nil {
		return nil, err
	}
	return ParseVerificationPayload(data)
}

// ParseVerificationPayload checks a single-signature payload and exposes its
// offsets. Every offset must lie inside the payload.
func ParseVerificationPayload(data []byte) (*VerificationInstruction, error) {
	if len(data) < ethAddressOffset {
		return nil, gwerrors.NewSizeMismatchError("verification payload header", ethAddressOffset, len(data))
	}
	if data[0] != 1 {
		return nil, gwerrors.NewValidationError("verification payload must carry exactly one signature").
			WithContext("count", data[0])
	}

	if data[secpDataStart] != mintSignatureTag {
		return nil, gwerrors.NewValidationError("verification record is not a mint signature").
			WithContext("tag", data[secpDataStart])
	}

	offsets := decodeSignatureOffsets(data[1:secpDataStart])
	bounds := []struct {
		field string
		start int
		size  int
	}{
		{"eth address", int(offsets.EthAddressOffset), EthAddressSize},
		{"signature", int(offsets.SignatureOffset), SignatureSize},
		{"message", int(offsets.MessageDataOffset), int(offsets.MessageDataSize)},
	}
	for _, b := range bounds {
		if b.start < secpDataStart || b.start+b.size > len(data) {
			return nil, gwerrors.NewValidationError(b.field+" offset out of range").
				WithContext("offset", b.start).
				WithContext("size", b.size).
				WithContext("payload", len(data))
		}
	}

	out := make([]byte, len(data))
	copy(out, data)
	return &VerificationInstruction{data: out, offsets: offsets}, nil
}

// Offsets returns the decoded offsets record.
func (vi *VerificationInstruction) Offsets() SignatureOffsets {
	return vi.offsets
}

// EthAddress returns the authority address the runtime will check against.
func (vi *VerificationInstruction) EthAddress() []byte {
	start := int(vi.offsets.EthAddressOffset)
	return vi.data[start : start+EthAddressSize]
}

// Signature returns r || s || v as embedded (v already normalized).
func (vi *VerificationInstruction) Signature() []byte {
	start := int(vi.offsets.SignatureOffset)
	return vi.data[start : start+SignatureSize]
}

// Message returns the signed mint message.
func (vi *VerificationInstruction) Message() []byte {
	start := int(vi.offsets.MessageDataOffset)
	return vi.data[start : start+int(vi.offsets.MessageDataSize)]
}

// ProgramID implements solana.Instruction.
func (vi *VerificationInstruction) ProgramID() solana.PublicKey {
	return Secp256k1ProgramID
}

// Accounts implements solana.Instruction. The secp256k1 program reads no accounts.
func (vi *VerificationInstruction) Accounts() []*solana.AccountMeta {
	return []*solana.AccountMeta{}
}

// Data implements solana.Instruction.
func (vi *VerificationInstruction) Data() ([]byte, error) {
	out := make([]byte, len(vi.data))
	copy(out, vi.data)
	return out, nil
}
