package svm

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

// MintMessageSize is the encoded size of a MintMessage.
const MintMessageSize = 32 + 8 + 32 + 32 + 32

// Field offsets within an encoded MintMessage.
const (
	mintPHashOffset        = 0
	mintAmountOffset       = 32
	mintSelectorHashOffset = 40
	mintToOffset           = 72
	mintNHashOffset        = 104
)

// MintMessage is the authorization the validator network signs for a mint.
// The encoding is fixed: p_hash | amount (big-endian u64) | selector_hash | to | n_hash.
type MintMessage struct {
	PHash        [32]byte
	Amount       uint64
	SelectorHash SelectorHash
	To           [32]byte
	NHash        [32]byte
}

// EncodeMintMessage encodes the mint authorization fields into their
// 136-byte signed form.
func EncodeMintMessage(amount uint64, selectorHash SelectorHash, to, pHash, nHash [32]byte) []byte {
	return MintMessage{
		PHash:        pHash,
		Amount:       amount,
		SelectorHash: selectorHash,
		To:           to,
		NHash:        nHash,
	}.Encode()
}

// Encode returns the 136-byte signed form of m.
func (m MintMessage) Encode() []byte {
	buf := make([]byte, MintMessageSize)
	copy(buf[mintPHashOffset:mintAmountOffset], m.PHash[:])
	binary.BigEndian.PutUint64(buf[mintAmountOffset:mintSelectorHashOffset], m.Amount)
	copy(buf[mintSelectorHashOffset:mintToOffset], m.SelectorHash[:])
	copy(buf[mintToOffset:mintNHashOffset], m.To[:])
	copy(buf[mintNHashOffset:MintMessageSize], m.NHash[:])
	return buf
}

// Digest is the keccak256 of the encoded message: the value the authority
// signs and the seed of the mint log account.
func (m MintMessage) Digest() [32]byte {
	return MessageDigest(m.Encode())
}

// MessageDigest hashes an already encoded mint message.
func MessageDigest(encoded []byte) [32]byte {
	var d [32]byte
	copy(d[:], crypto.Keccak256(encoded))
	return d
}

// DecodeMintMessage is the exact inverse of MintMessage.Encode.
func DecodeMintMessage(data []byte) (MintMessage, error) {
	if len(data) != MintMessageSize {
		return MintMessage{}, gwerrors.NewSizeMismatchError("mint message", MintMessageSize, len(data))
	}

	var m MintMessage
	copy(m.PHash[:], data[mintPHashOffset:mintAmountOffset])
	m.Amount = binary.BigEndian.Uint64(data[mintAmountOffset:mintSelectorHashOffset])
	copy(m.SelectorHash[:], data[mintSelectorHashOffset:mintToOffset])
	copy(m.To[:], data[mintToOffset:mintNHashOffset])
	copy(m.NHash[:], data[mintNHashOffset:MintMessageSize])
	return m, nil
}
