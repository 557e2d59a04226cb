package svm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

// ErrAccountNotFound is returned by GetAccountData for accounts that do not exist.
var ErrAccountNotFound = errors.New("account not found")

// RPCClient is a failover pool of Solana JSON-RPC endpoints.
type RPCClient struct {
	clients []*rpc.Client
	index   uint64
	mu      sync.RWMutex
	retry   *gwerrors.RetryConfig
	logger  zerolog.Logger
}

// NewRPCClient connects to every healthy endpoint in rpcURLs. When
// expectedGenesisHash is set, endpoints whose genesis hash does not start
// with it are skipped.
func NewRPCClient(ctx context.Context, rpcURLs []string, expectedGenesisHash string, retry *gwerrors.RetryConfig, logger zerolog.Logger) (*RPCClient, error) {
	if len(rpcURLs) == 0 {
		return nil, gwerrors.NewConfigError("no RPC URLs provided")
	}

	log := logger.With().Str("component", "svm_rpc_client").Logger()
	clients := make([]*rpc.Client, 0, len(rpcURLs))

	for _, url := range rpcURLs {
		client := rpc.New(url)

		health, err := client.GetHealth(ctx)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to connect to RPC endpoint, skipping")
			continue
		}
		if health != "ok" {
			log.Warn().Str("url", url).Str("health", health).Msg("node is not healthy, skipping")
			continue
		}

		if expectedGenesisHash != "" {
			genesisHash, err := client.GetGenesisHash(ctx)
			if err != nil {
				log.Warn().Err(err).Str("url", url).Msg("failed to fetch genesis hash, skipping")
				continue
			}
			if !strings.HasPrefix(genesisHash.String(), expectedGenesisHash) {
				log.Warn().
					Str("url", url).
					Str("expected_genesis_hash", expectedGenesisHash).
					Str("actual_genesis_hash", genesisHash.String()).
					Msg("genesis hash mismatch, skipping")
				continue
			}
		}

		clients = append(clients, client)
		log.Info().Str("url", url).Msg("connected to RPC endpoint")
	}

	if len(clients) == 0 {
		return nil, gwerrors.NewRPCError("solana", "failed to connect to any valid RPC endpoints", nil)
	}

	return &RPCClient{clients: clients, retry: retry, logger: log}, nil
}

// executeWithFailover runs fn against each endpoint in round-robin order until
// one succeeds. ErrAccountNotFound is an answer, not an endpoint failure.
func (rc *RPCClient) executeWithFailover(ctx context.Context, operation string, fn func(*rpc.Client) error) error {
	rc.mu.RLock()
	clients := rc.clients
	rc.mu.RUnlock()

	if len(clients) == 0 {
		return gwerrors.NewRPCError("solana", fmt.Sprintf("no RPC clients available for %s", operation), nil)
	}

	var lastErr error
	for attempt := 0; attempt < len(clients); attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		index := atomic.AddUint64(&rc.index, 1) - 1
		client := clients[index%uint64(len(clients))]

		err := fn(client)
		if err == nil || gwerrors.Is(err, ErrAccountNotFound) {
			return err
		}
		lastErr = err

		rc.logger.Warn().
			Str("operation", operation).
			Int("attempt", attempt+1).
			Err(err).
			Msg("operation failed, trying next endpoint")
	}

	return gwerrors.NewRPCError("solana",
		fmt.Sprintf("operation %s failed after trying %d endpoints", operation, len(clients)), lastErr)
}

// read retries an idempotent read across the pool.
func (rc *RPCClient) read(ctx context.Context, operation string, fn func(*rpc.Client) error) error {
	return gwerrors.RetryWithConfig(ctx, func() error {
		return rc.executeWithFailover(ctx, operation, fn)
	}, rc.retry)
}

// GetRecentBlockhash returns a finalized blockhash for transaction building.
func (rc *RPCClient) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	var blockhash solana.Hash
	err := rc.read(ctx, "get_latest_blockhash", func(client *rpc.Client) error {
		resp, innerErr := client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if innerErr != nil {
			return innerErr
		}
		blockhash = resp.Value.Blockhash
		return nil
	})
	return blockhash, err
}

// GetAccountData returns the raw data of account at confirmed commitment.
func (rc *RPCClient) GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	var data []byte
	err := rc.read(ctx, "get_account_info", func(client *rpc.Client) error {
		resp, innerErr := client.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: rpc.CommitmentConfirmed,
		})
		if gwerrors.Is(innerErr, rpc.ErrNotFound) || (innerErr == nil && (resp == nil || resp.Value == nil)) {
			return ErrAccountNotFound
		}
		if innerErr != nil {
			return innerErr
		}
		data = resp.Value.Data.GetBinary()
		return nil
	})
	return data, err
}

// SendTransaction submits a signed transaction once, with preflight checks.
// Submission is never retried: a resend after an ambiguous failure could
// land twice.
func (rc *RPCClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, gwerrors.NewValidationError("transaction has no signatures")
	}

	rc.mu.RLock()
	clients := rc.clients
	rc.mu.RUnlock()
	if len(clients) == 0 {
		return solana.Signature{}, gwerrors.NewRPCError("solana", "no RPC clients available for send_transaction", nil)
	}

	index := atomic.AddUint64(&rc.index, 1) - 1
	client := clients[index%uint64(len(clients))]

	sig, err := client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, gwerrors.NewRPCError("solana", "send_transaction failed", err)
	}
	rc.logger.Info().Str("signature", sig.String()).Msg("transaction submitted")
	return sig, nil
}

// IsHealthy reports whether any endpoint answers within timeout.
func (rc *RPCClient) IsHealthy(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return rc.executeWithFailover(ctx, "get_slot", func(client *rpc.Client) error {
		_, err := client.GetSlot(ctx, rpc.CommitmentFinalized)
		return err
	}) == nil
}

// Close drops all endpoints.
func (rc *RPCClient) Close() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.clients = nil
}
