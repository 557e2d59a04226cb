package svm

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

// Signature is a recoverable ECDSA signature with the conventional v of 27 or 28.
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// AuthoritySigner produces the mint authorization signature. Implementations
// sign digest directly; no prefix is applied.
type AuthoritySigner interface {
	Address() common.Address
	SignDigest(ctx context.Context, digest [32]byte) (Signature, error)
}

// LocalAuthority signs with an in-process secp256k1 key. It is meant for
// devnets and tests; production authorities sign remotely.
type LocalAuthority struct {
	key *ecdsa.PrivateKey
}

var _ AuthoritySigner = (*LocalAuthority)(nil)

// NewLocalAuthority parses a hex secp256k1 private key, with or without 0x.
func NewLocalAuthority(hexKey string) (*LocalAuthority, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(hexKey))
	if err != nil {
		return nil, gwerrors.NewChainError(gwerrors.ErrCodeEncoding, "", "invalid authority key", err)
	}
	return &LocalAuthority{key: key}, nil
}

// NewLocalAuthorityFromKey wraps an existing key.
func NewLocalAuthorityFromKey(key *ecdsa.PrivateKey) *LocalAuthority {
	return &LocalAuthority{key: key}
}

// Address returns the 20-byte address of the authority key.
func (a *LocalAuthority) Address() common.Address {
	return crypto.PubkeyToAddress(a.key.PublicKey)
}

// SignDigest signs digest and shifts the recovery id to 27/28.
func (a *LocalAuthority) SignDigest(_ context.Context, digest [32]byte) (Signature, error) {
	sig, err := crypto.Sign(digest[:], a.key)
	if err != nil {
		return Signature{}, gwerrors.NewUpstreamError("sign digest", err)
	}
	return signatureFromBytes(sig)
}

// RecoverAuthority returns the address that produced sig over digest.
func RecoverAuthority(digest [32]byte, sig Signature) (common.Address, error) {
	v, err := NormalizeRecoveryID(sig.V)
	if err != nil {
		return common.Address{}, err
	}
	raw := make([]byte, 65)
	copy(raw[0:32], sig.R[:])
	copy(raw[32:64], sig.S[:])
	raw[64] = v

	pub, err := crypto.SigToPub(digest[:], raw)
	if err != nil {
		return common.Address{}, gwerrors.NewChainError(gwerrors.ErrCodeEncoding, "", "signature recovery failed", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyAuthority checks that sig over digest was produced by authority.
func VerifyAuthority(digest [32]byte, sig Signature, authority common.Address) error {
	got, err := RecoverAuthority(digest, sig)
	if err != nil {
		return err
	}
	if !bytes.Equal(got.Bytes(), authority.Bytes()) {
		return gwerrors.NewValidationError("signature does not match authority").
			WithContext("want", authority.Hex()).
			WithContext("got", got.Hex())
	}
	return nil
}

// LoadFeePayer reads a solana-keygen JSON keypair file.
func LoadFeePayer(path string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee payer keypair %s: %w", path, err)
	}
	return key, nil
}

func signatureFromBytes(sig []byte) (Signature, error) {
	if len(sig) != 65 {
		return Signature{}, gwerrors.NewSizeMismatchError("signature", 65, len(sig))
	}
	var out Signature
	copy(out.R[:], sig[0:32])
	copy(out.S[:], sig[32:64])
	out.V = sig[64] + 27
	return out, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
