package svm

import (
	"encoding/hex"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/crypto"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

// SelectorHash is keccak256 of an asset selector such as "BTC/toSolana".
type SelectorHash [32]byte

// HashSelector hashes the UTF-8 bytes of selector with no domain prefix.
func HashSelector(selector string) (SelectorHash, error) {
	if selector == "" {
		return SelectorHash{}, gwerrors.NewEncodingError("selector is empty")
	}
	if !utf8.ValidString(selector) {
		return SelectorHash{}, gwerrors.NewEncodingError("selector is not valid UTF-8")
	}

	var h SelectorHash
	copy(h[:], crypto.Keccak256([]byte(selector)))
	return h, nil
}

// Bytes returns a copy of the hash as a slice.
func (h SelectorHash) Bytes() []byte {
	out := make([]byte, len(h))
	copy(out, h[:])
	return out
}

func (h SelectorHash) String() string {
	return hex.EncodeToString(h[:])
}
