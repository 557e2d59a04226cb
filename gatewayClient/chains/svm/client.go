package svm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/rs/zerolog"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

// ChainRPC is the ledger access the Client needs.
type ChainRPC interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Submission kinds recorded in a Journal.
const (
	KindInitialize        = "initialize"
	KindInitializeAccount = "init_account"
	KindMint              = "mint"
	KindBurn              = "burn"
)

// Submission describes a transaction about to be sent.
type Submission struct {
	Kind      string
	Gateway   string
	Selector  string
	Amount    uint64
	BurnCount uint64
	Recipient string
	Digest    string
}

// Journal records submissions locally. Begin is called before sending and
// may refuse the submission; Complete records its outcome.
type Journal interface {
	Begin(ctx context.Context, s Submission) (uint, error)
	Complete(ctx context.Context, id uint, signature string, sendErr error) error
}

// MintRequest carries the fields of a mint authorization besides the
// destination, which is always the payer's token account.
type MintRequest struct {
	Selector string
	Amount   uint64
	PHash    [32]byte
	NHash    [32]byte
}

// Client builds, signs and submits gateway transactions for one deployment.
// Burns must not be prepared concurrently for the same gateway; see
// BurnSequencer.
type Client struct {
	rpc       ChainRPC
	deriver   *Deriver
	sequencer *BurnSequencer
	payer     solana.PrivateKey
	decimals  uint8
	journal   Journal
	logger    zerolog.Logger
}

// NewClient returns a Client paying fees from payer.
func NewClient(rpc ChainRPC, programs ProgramConfig, payer solana.PrivateKey, decimals uint8, logger zerolog.Logger) *Client {
	deriver := NewDeriver(programs)
	return &Client{
		rpc:       rpc,
		deriver:   deriver,
		sequencer: NewBurnSequencer(deriver),
		payer:     payer,
		decimals:  decimals,
		logger: logger.With().
			Str("component", "svm_gateway_client").
			Str("gateway", programs.Gateway.String()).
			Logger(),
	}
}

// WithJournal makes the client record every submission in j.
func (c *Client) WithJournal(j Journal) *Client {
	c.journal = j
	return c
}

// Deriver returns the client's address deriver.
func (c *Client) Deriver() *Deriver {
	return c.deriver
}

// Payer returns the fee payer's address.
func (c *Client) Payer() solana.PublicKey {
	return c.payer.PublicKey()
}

// TokenAccount returns the payer's associated token account for selector's mint.
func (c *Client) TokenAccount(selector string) (solana.PublicKey, error) {
	_, mint, err := c.tokenMint(selector)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return c.associatedAccount(mint)
}

// Initialize creates the gateway state and token mint for selector.
func (c *Client) Initialize(ctx context.Context, authority common.Address, selector string) (solana.Signature, error) {
	hash, mint, err := c.tokenMint(selector)
	if err != nil {
		return solana.Signature{}, err
	}
	state, err := c.deriver.GatewayState()
	if err != nil {
		return solana.Signature{}, err
	}

	var auth [EthAddressSize]byte
	copy(auth[:], authority.Bytes())
	ix := NewInitializeInstruction(c.deriver.Programs().Gateway, InitializeAccounts{
		Payer:        c.Payer(),
		GatewayState: state.Address,
		TokenMint:    mint,
	}, auth, hash)

	return c.submit(ctx, []solana.Instruction{ix}, Submission{Kind: KindInitialize, Selector: selector})
}

// InitializeAccount creates the payer's associated token account for selector.
func (c *Client) InitializeAccount(ctx context.Context, selector string) (solana.Signature, error) {
	_, mint, err := c.tokenMint(selector)
	if err != nil {
		return solana.Signature{}, err
	}
	ix, err := associatedtokenaccount.NewCreateInstruction(c.Payer(), c.Payer(), mint).ValidateAndBuild()
	if err != nil {
		return solana.Signature{}, gwerrors.NewValidationError("invalid associated token account instruction").
			WithContext("cause", err.Error())
	}
	return c.submit(ctx, []solana.Instruction{ix}, Submission{Kind: KindInitializeAccount, Selector: selector})
}

// BuildMint assembles the mint bundle for req without touching the network
// beyond asking signer for the authorization. The signature is checked
// against signer's address before anything is assembled.
func (c *Client) BuildMint(ctx context.Context, req MintRequest, signer AuthoritySigner) (*MintBundle, MintMessage, error) {
	hash, mint, err := c.tokenMint(req.Selector)
	if err != nil {
		return nil, MintMessage{}, err
	}
	destination, err := c.associatedAccount(mint)
	if err != nil {
		return nil, MintMessage{}, err
	}

	msg := MintMessage{
		PHash:        req.PHash,
		Amount:       req.Amount,
		SelectorHash: hash,
		To:           [32]byte(destination),
		NHash:        req.NHash,
	}
	encoded := msg.Encode()
	digest := MessageDigest(encoded)

	sig, err := signer.SignDigest(ctx, digest)
	if err != nil {
		if gwerrors.IsChainError(err, gwerrors.ErrCodeUpstream) {
			return nil, MintMessage{}, err
		}
		return nil, MintMessage{}, gwerrors.NewUpstreamError("sign mint message", err)
	}
	authority := signer.Address()
	if err := VerifyAuthority(digest, sig, authority); err != nil {
		return nil, MintMessage{}, err
	}

	verification, err := NewVerificationInstruction(sig.R, sig.S, sig.V, encoded, authority.Bytes())
	if err != nil {
		return nil, MintMessage{}, err
	}

	state, err := c.deriver.GatewayState()
	if err != nil {
		return nil, MintMessage{}, err
	}
	mintLog, err := c.deriver.MintLog(digest)
	if err != nil {
		return nil, MintMessage{}, err
	}
	mintAuthority, err := c.deriver.MintAuthority(mint)
	if err != nil {
		return nil, MintMessage{}, err
	}

	mintIx := NewMintInstruction(c.deriver.Programs().Gateway, MintAccounts{
		Payer:         c.Payer(),
		GatewayState:  state.Address,
		TokenMint:     mint,
		Destination:   destination,
		MintLog:       mintLog.Address,
		MintAuthority: mintAuthority.Address,
	})

	bundle, err := NewMintBundle(mintIx, verification)
	if err != nil {
		return nil, MintMessage{}, err
	}
	return bundle, msg, nil
}

// Mint authorizes and submits a mint of req.Amount to the payer.
func (c *Client) Mint(ctx context.Context, req MintRequest, signer AuthoritySigner) (solana.Signature, error) {
	bundle, msg, err := c.BuildMint(ctx, req, signer)
	if err != nil {
		return solana.Signature{}, err
	}
	digest := msg.Digest()
	return c.submit(ctx, bundle.Instructions(), Submission{
		Kind:     KindMint,
		Selector: req.Selector,
		Amount:   req.Amount,
		Digest:   fmt.Sprintf("%x", digest[:]),
	})
}

// GatewayState fetches and decodes the gateway state account.
func (c *Client) GatewayState(ctx context.Context) (GatewayState, error) {
	addr, err := c.deriver.GatewayState()
	if err != nil {
		return GatewayState{}, err
	}
	data, err := c.fetch(ctx, "get gateway state", addr.Address)
	if err != nil {
		return GatewayState{}, err
	}
	return DecodeGatewayState(data)
}

// NextBurnCount returns the count the next burn will use. The value is
// already incremented and must be passed to Burn as is.
func (c *Client) NextBurnCount(ctx context.Context) (uint64, error) {
	state, err := c.GatewayState(ctx)
	if err != nil {
		return 0, err
	}
	return NextBurnCount(state)
}

// PrepareBurn reads the gateway state and returns the record for the next burn.
func (c *Client) PrepareBurn(ctx context.Context) (BurnRecord, error) {
	state, err := c.GatewayState(ctx)
	if err != nil {
		return BurnRecord{}, err
	}
	return c.sequencer.Next(state)
}

// BuildBurn assembles the burn bundle for an already sequenced record.
func (c *Client) BuildBurn(selector string, record BurnRecord, amount uint64, recipient []byte) (*BurnBundle, error) {
	_, mint, err := c.tokenMint(selector)
	if err != nil {
		return nil, err
	}
	source, err := c.associatedAccount(mint)
	if err != nil {
		return nil, err
	}
	state, err := c.deriver.GatewayState()
	if err != nil {
		return nil, err
	}
	expected, err := c.sequencer.Record(record.Count)
	if err != nil {
		return nil, err
	}
	if !expected.LogAddress.Equals(record.LogAddress) {
		return nil, gwerrors.NewValidationError("burn log address does not match burn count").
			WithContext("count", record.Count)
	}

	tokenBurn, err := NewTokenBurnInstruction(amount, c.decimals, source, mint, c.Payer())
	if err != nil {
		return nil, err
	}
	burn, err := NewBurnInstruction(c.deriver.Programs().Gateway, BurnAccounts{
		Payer:        c.Payer(),
		Source:       source,
		GatewayState: state.Address,
		TokenMint:    mint,
		BurnLog:      record.LogAddress,
	}, recipient)
	if err != nil {
		return nil, err
	}
	return NewBurnBundle(tokenBurn, burn)
}

// Burn submits a burn of amount towards recipient on the foreign chain,
// claiming the burn log of record.
func (c *Client) Burn(ctx context.Context, selector string, record BurnRecord, amount uint64, recipient []byte) (solana.Signature, error) {
	bundle, err := c.BuildBurn(selector, record, amount, recipient)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.submit(ctx, bundle.Instructions(), Submission{
		Kind:      KindBurn,
		Selector:  selector,
		Amount:    amount,
		BurnCount: record.Count,
		Recipient: fmt.Sprintf("%x", recipient),
	})
}

// BurnLog fetches the burn log written for count.
func (c *Client) BurnLog(ctx context.Context, count uint64) (BurnLog, error) {
	addr, err := c.deriver.BurnLog(count)
	if err != nil {
		return BurnLog{}, err
	}
	data, err := c.fetch(ctx, "get burn log", addr.Address)
	if err != nil {
		return BurnLog{}, err
	}
	return DecodeBurnLog(data)
}

// Gateways returns every gateway in the registry by selector hash.
func (c *Client) Gateways(ctx context.Context) (map[SelectorHash]solana.PublicKey, error) {
	reg, err := c.registry(ctx)
	if err != nil {
		return nil, err
	}
	return reg.Entries(), nil
}

// GatewayBySelectorHash returns the gateway registered for hash.
func (c *Client) GatewayBySelectorHash(ctx context.Context, hash SelectorHash) (solana.PublicKey, error) {
	reg, err := c.registry(ctx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	gw, ok := reg.Lookup(hash)
	if !ok {
		return solana.PublicKey{}, gwerrors.NewValidationError("no gateway registered for selector").
			WithContext("selector_hash", hash.String())
	}
	return gw, nil
}

func (c *Client) registry(ctx context.Context) (GatewayRegistry, error) {
	addr, err := c.deriver.RegistryState()
	if err != nil {
		return GatewayRegistry{}, err
	}
	data, err := c.fetch(ctx, "get gateway registry", addr.Address)
	if err != nil {
		return GatewayRegistry{}, err
	}
	return DecodeGatewayRegistry(data)
}

func (c *Client) fetch(ctx context.Context, op string, account solana.PublicKey) ([]byte, error) {
	data, err := c.rpc.GetAccountData(ctx, account)
	if err != nil {
		return nil, gwerrors.NewUpstreamError(op, err).WithContext("account", account.String())
	}
	return data, nil
}

func (c *Client) tokenMint(selector string) (SelectorHash, solana.PublicKey, error) {
	hash, err := HashSelector(selector)
	if err != nil {
		return SelectorHash{}, solana.PublicKey{}, err
	}
	mint, err := c.deriver.TokenMint(hash)
	if err != nil {
		return SelectorHash{}, solana.PublicKey{}, err
	}
	return hash, mint.Address, nil
}

// findAssociatedTokenAddress is swapped in tests.
var findAssociatedTokenAddress = solana.FindAssociatedTokenAddress

func (c *Client) associatedAccount(mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := findAssociatedTokenAddress(c.Payer(), mint)
	if err != nil {
		derr := gwerrors.NewDerivationExhaustedError(solana.SPLAssociatedTokenAccountProgramID.String())
		derr.Cause = err
		return solana.PublicKey{}, derr
	}
	return ata, nil
}

// submit signs ixs as one transaction and sends it. Nothing is sent if any
// step before SendTransaction fails.
func (c *Client) submit(ctx context.Context, ixs []solana.Instruction, s Submission) (solana.Signature, error) {
	s.Gateway = c.deriver.Programs().Gateway.String()

	blockhash, err := c.rpc.GetRecentBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, gwerrors.NewUpstreamError("get recent blockhash", err)
	}
	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(c.Payer()))
	if err != nil {
		return solana.Signature{}, gwerrors.NewEncodingError("failed to assemble transaction").WithContext("cause", err.Error())
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.Payer()) {
			return &c.payer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, gwerrors.NewEncodingError("failed to sign transaction").WithContext("cause", err.Error())
	}

	var journalID uint
	if c.journal != nil {
		journalID, err = c.journal.Begin(ctx, s)
		if err != nil {
			return solana.Signature{}, err
		}
	}

	sig, sendErr := c.rpc.SendTransaction(ctx, tx)
	if c.journal != nil {
		if err := c.journal.Complete(ctx, journalID, sig.String(), sendErr); err != nil {
			c.logger.Warn().Err(err).Uint("journal_id", journalID).Msg("failed to record submission outcome")
		}
	}
	if sendErr != nil {
		c.logger.Warn().Err(sendErr).Str("kind", s.Kind).Msg("transaction rejected")
		return solana.Signature{}, gwerrors.NewUpstreamError("send transaction", sendErr)
	}

	c.logger.Info().
		Str("kind", s.Kind).
		Str("selector", s.Selector).
		Uint64("amount", s.Amount).
		Str("signature", sig.String()).
		Msg("transaction submitted")
	return sig, nil
}
