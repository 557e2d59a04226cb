package svm

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

// buildGatewayStateData lays out a gateway state account:
// is_initialized(1) + authority(20) + selector_hash(32) + burn_count(u64 LE) + decimals(1)
func buildGatewayStateData(authority [EthAddressSize]byte, selector SelectorHash, burnCount uint64, decimals uint8) []byte {
	data := make([]byte, 0, GatewayStateSize)
	data = append(data, 1)
	data = append(data, authority[:]...)
	data = append(data, selector[:]...)
	data = binary.LittleEndian.AppendUint64(data, burnCount)
	data = append(data, decimals)
	return data
}

// buildBurnLogData lays out a burn log account: amount(u64 LE) + len(1) + recipient(32)
func buildBurnLogData(amount uint64, recipient []byte) []byte {
	data := make([]byte, BurnLogSize)
	binary.LittleEndian.PutUint64(data[0:8], amount)
	data[8] = byte(len(recipient))
	copy(data[9:], recipient)
	return data
}

// buildRegistryData lays out the registry account with the given entries.
func buildRegistryData(owner solana.PublicKey, selectors []SelectorHash, gateways []solana.PublicKey) []byte {
	data := make([]byte, 0, 1+32+8+2*MaxRegisteredGateways*32)
	data = append(data, 1)
	data = append(data, owner[:]...)
	data = binary.LittleEndian.AppendUint64(data, uint64(len(selectors)))
	for i := 0; i < MaxRegisteredGateways; i++ {
		var s [32]byte
		if i < len(selectors) {
			s = selectors[i]
		}
		data = append(data, s[:]...)
	}
	for i := 0; i < MaxRegisteredGateways; i++ {
		var g solana.PublicKey
		if i < len(gateways) {
			g = gateways[i]
		}
		data = append(data, g[:]...)
	}
	return data
}

func TestDecodeGatewayState(t *testing.T) {
	var authority [EthAddressSize]byte
	copy(authority[:], newTestAuthority(t).Address().Bytes())
	selector := mustSelectorHash(t, "BTC/toSolana")

	data := buildGatewayStateData(authority, selector, 5, 8)
	require.Len(t, data, GatewayStateSize)

	state, err := DecodeGatewayState(data)
	require.NoError(t, err)
	assert.True(t, state.IsInitialized)
	assert.Equal(t, authority, state.Authority)
	assert.Equal(t, selector, state.SelectorHash)
	assert.Equal(t, uint64(5), state.BurnCount)
	assert.Equal(t, uint8(8), state.UnderlyingDecimals)

	_, err = DecodeGatewayState(data[:GatewayStateSize-1])
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeSizeMismatch))
}

func TestDecodeBurnLog(t *testing.T) {
	recipient := []byte("bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq")[:32]

	log, err := DecodeBurnLog(buildBurnLogData(250000, recipient))
	require.NoError(t, err)
	assert.Equal(t, uint64(250000), log.Amount)
	assert.Equal(t, recipient, log.Recipient)

	_, err = DecodeBurnLog(make([]byte, BurnLogSize-1))
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeSizeMismatch))

	bad := buildBurnLogData(1, nil)
	bad[8] = MaxRecipientSize + 1
	_, err = DecodeBurnLog(bad)
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeEncoding))
}

func TestDecodeGatewayRegistry(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	btc := mustSelectorHash(t, "BTC/toSolana")
	zec := mustSelectorHash(t, "ZEC/toSolana")
	btcGateway := solana.MustPublicKeyFromBase58(testGatewayProgram)
	zecGateway := solana.NewWallet().PublicKey()

	reg, err := DecodeGatewayRegistry(buildRegistryData(owner, []SelectorHash{btc, zec}, []solana.PublicKey{btcGateway, zecGateway}))
	require.NoError(t, err)
	assert.True(t, reg.IsInitialized)
	assert.Equal(t, owner, reg.Owner)
	assert.Equal(t, uint64(2), reg.Count)

	assert.Equal(t, map[SelectorHash]solana.PublicKey{btc: btcGateway, zec: zecGateway}, reg.Entries())

	gw, ok := reg.Lookup(zec)
	assert.True(t, ok)
	assert.Equal(t, zecGateway, gw)

	_, ok = reg.Lookup(mustSelectorHash(t, "ETH/toSolana"))
	assert.False(t, ok)

	_, err = DecodeGatewayRegistry([]byte{1, 2, 3})
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeEncoding))
}
