package svm

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

type fakeRPC struct {
	accounts  map[solana.PublicKey][]byte
	sent      []*solana.Transaction
	sendErr   error
	hashErr   error
	blockhash solana.Hash
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		accounts:  make(map[solana.PublicKey][]byte),
		blockhash: solana.MustHashFromBase58(testBlockhash),
	}
}

func (f *fakeRPC) GetRecentBlockhash(context.Context) (solana.Hash, error) {
	return f.blockhash, f.hashErr
}

func (f *fakeRPC) GetAccountData(_ context.Context, account solana.PublicKey) ([]byte, error) {
	data, ok := f.accounts[account]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return data, nil
}

func (f *fakeRPC) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], nil
}

type fakeJournal struct {
	begun     []Submission
	completed map[uint]string
	failed    map[uint]error
	refuse    error
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{completed: map[uint]string{}, failed: map[uint]error{}}
}

func (j *fakeJournal) Begin(_ context.Context, s Submission) (uint, error) {
	if j.refuse != nil {
		return 0, j.refuse
	}
	j.begun = append(j.begun, s)
	return uint(len(j.begun)), nil
}

func (j *fakeJournal) Complete(_ context.Context, id uint, signature string, sendErr error) error {
	if sendErr != nil {
		j.failed[id] = sendErr
		return nil
	}
	j.completed[id] = signature
	return nil
}

type failingSigner struct{ addr common.Address }

func (s failingSigner) Address() common.Address { return s.addr }

func (s failingSigner) SignDigest(context.Context, [32]byte) (Signature, error) {
	return Signature{}, errors.New("hsm unavailable")
}

// impostorSigner signs with one key but claims another address.
type impostorSigner struct {
	*LocalAuthority
	claimed common.Address
}

func (s impostorSigner) Address() common.Address { return s.claimed }

func newTestClient(t *testing.T) (*Client, *fakeRPC) {
	t.Helper()
	programs, err := NewProgramConfig(testGatewayProgram, testRegistryProgram)
	require.NoError(t, err)
	rpc := newFakeRPC()
	payer := solana.NewWallet().PrivateKey
	return NewClient(rpc, programs, payer, 9, zerolog.Nop()), rpc
}

func putGatewayState(t *testing.T, c *Client, rpc *fakeRPC, burnCount uint64) {
	t.Helper()
	addr, err := c.Deriver().GatewayState()
	require.NoError(t, err)
	var authority [EthAddressSize]byte
	copy(authority[:], newTestAuthority(t).Address().Bytes())
	rpc.accounts[addr.Address] = buildGatewayStateData(authority, mustSelectorHash(t, "BTC/toSolana"), burnCount, 8)
}

func TestClientBuildMint(t *testing.T) {
	c, _ := newTestClient(t)
	authority := newTestAuthority(t)
	req := MintRequest{Selector: "BTC/toSolana", Amount: 100000000, NHash: fill32(0x07)}

	bundle, msg, err := c.BuildMint(context.Background(), req, authority)
	require.NoError(t, err)

	ata, err := c.TokenAccount("BTC/toSolana")
	require.NoError(t, err)
	assert.Equal(t, [32]byte(ata), msg.To)
	assert.Equal(t, req.Amount, msg.Amount)
	assert.Equal(t, mustSelectorHash(t, "BTC/toSolana"), msg.SelectorHash)

	ixs := bundle.Instructions()
	require.NoError(t, CheckMintOrder(ixs, c.Deriver().Programs().Gateway))

	verification := ixs[VerificationSlot].(*VerificationInstruction)
	assert.Equal(t, msg.Encode(), verification.Message())
	assert.Equal(t, authority.Address().Bytes(), verification.EthAddress())

	mintLog, err := c.Deriver().MintLog(msg.Digest())
	require.NoError(t, err)
	assert.Equal(t, mintLog.Address, ixs[DomainSlot].Accounts()[4].PublicKey)
	assert.Equal(t, ata, ixs[DomainSlot].Accounts()[3].PublicKey)
}

func TestClientBuildMintSignerFailures(t *testing.T) {
	c, rpc := newTestClient(t)
	req := MintRequest{Selector: "BTC/toSolana", Amount: 1}

	_, _, err := c.BuildMint(context.Background(), req, failingSigner{})
	require.Error(t, err)
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeUpstream))
	assert.EqualError(t, errors.Unwrap(err), "hsm unavailable")

	impostor := impostorSigner{LocalAuthority: newTestAuthority(t), claimed: common.HexToAddress("0x01")}
	_, _, err = c.BuildMint(context.Background(), req, impostor)
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeValidation))

	_, _, err = c.BuildMint(context.Background(), MintRequest{Amount: 1}, newTestAuthority(t))
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeEncoding))

	assert.Empty(t, rpc.sent)
}

func TestClientMint(t *testing.T) {
	c, rpc := newTestClient(t)
	journal := newFakeJournal()
	c.WithJournal(journal)

	sig, err := c.Mint(context.Background(), MintRequest{Selector: "BTC/toSolana", Amount: 42}, newTestAuthority(t))
	require.NoError(t, err)
	require.Len(t, rpc.sent, 1)

	tx := rpc.sent[0]
	assert.Equal(t, sig, tx.Signatures[0])
	assert.Equal(t, c.Payer(), tx.Message.AccountKeys[0])
	require.Len(t, tx.Message.Instructions, 2)
	assert.NoError(t, tx.VerifySignatures())

	require.Len(t, journal.begun, 1)
	assert.Equal(t, KindMint, journal.begun[0].Kind)
	assert.Equal(t, uint64(42), journal.begun[0].Amount)
	assert.Equal(t, testGatewayProgram, journal.begun[0].Gateway)
	assert.Equal(t, sig.String(), journal.completed[1])
}

func TestClientMintSendFailure(t *testing.T) {
	c, rpc := newTestClient(t)
	journal := newFakeJournal()
	c.WithJournal(journal)
	rpc.sendErr = errors.New("Transaction simulation failed: custom program error: 0x1")

	_, err := c.Mint(context.Background(), MintRequest{Selector: "BTC/toSolana", Amount: 42}, newTestAuthority(t))
	require.Error(t, err)
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeUpstream))
	assert.False(t, gwerrors.IsRetryable(err))
	assert.Contains(t, journal.failed, uint(1))
}

func TestClientJournalRefusal(t *testing.T) {
	c, rpc := newTestClient(t)
	journal := newFakeJournal()
	journal.refuse = gwerrors.NewDatabaseError("burn already recorded", nil)
	c.WithJournal(journal)
	putGatewayState(t, c, rpc, 0)

	record, err := c.PrepareBurn(context.Background())
	require.NoError(t, err)
	_, err = c.Burn(context.Background(), "BTC/toSolana", record, 10, []byte("recipient"))
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeDatabase))
	assert.Empty(t, rpc.sent)
}

func TestClientBurnFlow(t *testing.T) {
	c, rpc := newTestClient(t)
	putGatewayState(t, c, rpc, 5)
	ctx := context.Background()

	next, err := c.NextBurnCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), next)

	record, err := c.PrepareBurn(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, record.Count)
	assert.Equal(t, "4fXwAUb4ZDnALJpGk5EX1z4SpxWXzqeBPbaPyF118jej", record.LogAddress.String())

	_, err = c.Burn(ctx, "BTC/toSolana", record, 2500, []byte("tb1qrecipient"))
	require.NoError(t, err)
	require.Len(t, rpc.sent, 1)

	tx := rpc.sent[0]
	require.Len(t, tx.Message.Instructions, 2)
	first, err := tx.Message.Program(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	second, err := tx.Message.Program(tx.Message.Instructions[1].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, solana.TokenProgramID, first)
	assert.Equal(t, c.Deriver().Programs().Gateway, second)

	burnAccounts, err := tx.Message.Instructions[1].ResolveInstructionAccounts(&tx.Message)
	require.NoError(t, err)
	assert.Equal(t, record.LogAddress, burnAccounts[4].PublicKey)
}

func TestClientBuildBurnRejectsMismatchedRecord(t *testing.T) {
	c, _ := newTestClient(t)
	record, err := c.sequencer.Record(6)
	require.NoError(t, err)

	record.Count = 7
	_, err = c.BuildBurn("BTC/toSolana", record, 1, []byte("r"))
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeValidation))
}

func TestClientBurnLog(t *testing.T) {
	c, rpc := newTestClient(t)
	addr, err := c.Deriver().BurnLog(3)
	require.NoError(t, err)
	rpc.accounts[addr.Address] = buildBurnLogData(777, []byte("recipient"))

	log, err := c.BurnLog(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(777), log.Amount)
	assert.Equal(t, []byte("recipient"), log.Recipient)

	_, err = c.BurnLog(context.Background(), 4)
	require.Error(t, err)
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeUpstream))
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestClientGateways(t *testing.T) {
	c, rpc := newTestClient(t)
	btc := mustSelectorHash(t, "BTC/toSolana")
	gw := c.Deriver().Programs().Gateway

	addr, err := c.Deriver().RegistryState()
	require.NoError(t, err)
	rpc.accounts[addr.Address] = buildRegistryData(solana.NewWallet().PublicKey(), []SelectorHash{btc}, []solana.PublicKey{gw})

	all, err := c.Gateways(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[SelectorHash]solana.PublicKey{btc: gw}, all)

	got, err := c.GatewayBySelectorHash(context.Background(), btc)
	require.NoError(t, err)
	assert.Equal(t, gw, got)

	_, err = c.GatewayBySelectorHash(context.Background(), mustSelectorHash(t, "ZEC/toSolana"))
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeValidation))
}

func TestClientInitialize(t *testing.T) {
	c, rpc := newTestClient(t)
	ctx := context.Background()

	_, err := c.Initialize(ctx, newTestAuthority(t).Address(), "BTC/toSolana")
	require.NoError(t, err)
	_, err = c.InitializeAccount(ctx, "BTC/toSolana")
	require.NoError(t, err)
	require.Len(t, rpc.sent, 2)

	initData := rpc.sent[0].Message.Instructions[0].Data
	assert.Equal(t, InstructionInitialize, initData[0])

	rpc.hashErr = errors.New("connection refused")
	_, err = c.Initialize(ctx, newTestAuthority(t).Address(), "BTC/toSolana")
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeUpstream))
	assert.Len(t, rpc.sent, 2)
}

func TestClientTokenAccountKeepsDerivationCause(t *testing.T) {
	c, _ := newTestClient(t)

	cause := errors.New("unable to find a valid program address")
	orig := findAssociatedTokenAddress
	findAssociatedTokenAddress = func(solana.PublicKey, solana.PublicKey) (solana.PublicKey, uint8, error) {
		return solana.PublicKey{}, 0, cause
	}
	t.Cleanup(func() { findAssociatedTokenAddress = orig })

	_, err := c.TokenAccount("BTC/toSolana")
	require.Error(t, err)
	assert.True(t, gwerrors.IsChainError(err, gwerrors.ErrCodeDerivationExhausted))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), cause.Error())
}
