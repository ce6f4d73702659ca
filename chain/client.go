package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/rs/zerolog"
)

// Client wraps the Solana JSON-RPC endpoint the service talks to. The
// websocket connection is optional; when absent, confirmation falls back to
// signature-status polling.
type Client struct {
	http    *rpc.Client
	ws      *ws.Client
	network string // mainnet, devnet, testnet
	log     zerolog.Logger
}

type Config struct {
	RPCURL  string
	WSURL   string
	Network string
}

func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.Network == "" {
		cfg.Network = "mainnet"
	}
	c := &Client{
		http:    rpc.New(cfg.RPCURL),
		network: cfg.Network,
		log:     log,
	}
	if cfg.WSURL != "" {
		wss, err := ws.Connect(ctx, cfg.WSURL)
		if err != nil {
			return nil, fmt.Errorf("ws connect: %w", err)
		}
		c.ws = wss
	}
	return c, nil
}

func (c *Client) Close() {
	if c.ws != nil {
		c.ws.Close()
	}
}

func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.http.GetHealth(ctx)
	return err
}

func (c *Client) Network() string { return c.network }

// ExplorerURL returns the block-explorer link for a transaction signature.
func (c *Client) ExplorerURL(signature string) string {
	baseURL := "https://explorer.solana.com/tx/"
	switch c.network {
	case "devnet":
		return baseURL + signature + "?cluster=devnet"
	case "testnet":
		return baseURL + signature + "?cluster=testnet"
	default:
		return baseURL + signature
	}
}

// ExplorerAddressURL returns the block-explorer link for an account address.
func (c *Client) ExplorerAddressURL(address string) string {
	baseURL := "https://explorer.solana.com/address/"
	switch c.network {
	case "devnet":
		return baseURL + address + "?cluster=devnet"
	case "testnet":
		return baseURL + address + "?cluster=testnet"
	default:
		return baseURL + address
	}
}

func (c *Client) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.http.GetBalance(ctx, account, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return out.Value, nil
}

func (c *Client) MinimumRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	lamports, err := c.http.GetMinimumBalanceForRentExemption(ctx, dataSize, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("get rent exemption: %w", err)
	}
	return lamports, nil
}

func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.http.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get blockhash: %w", err)
	}
	return recent.Value.Blockhash, nil
}

// FeeForMessage asks the cluster what the given transaction would cost.
// Informational only; callers must not gate submission on it.
func (c *Client) FeeForMessage(ctx context.Context, tx *solana.Transaction) (uint64, error) {
	msgBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("marshal message: %w", err)
	}
	out, err := c.http.GetFeeForMessage(ctx, base64.StdEncoding.EncodeToString(msgBytes), rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("get fee for message: %w", err)
	}
	if out.Value == nil {
		return 0, fmt.Errorf("fee not available for message")
	}
	return *out.Value, nil
}

func (c *Client) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.http.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

// Confirm polls signature statuses until the transaction is confirmed or
// finalized, the transaction itself fails, or the timeout elapses. A zero
// timeout means poll until ctx is done.
func (c *Client) Confirm(ctx context.Context, sig solana.Signature, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		status, err := c.http.GetSignatureStatuses(ctx, true, sig)
		if err == nil && status != nil && len(status.Value) > 0 && status.Value[0] != nil {
			txStatus := status.Value[0]
			if txStatus.Err != nil {
				return fmt.Errorf("transaction failed: %v", txStatus.Err)
			}
			if txStatus.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				txStatus.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for confirmation of %s", sig)
		case <-ticker.C:
		}
	}
}

// TxStatus is the condensed signature status surfaced over the HTTP API.
type TxStatus struct {
	Signature   string  `json:"signature"`
	Status      string  `json:"status"` // pending, confirmed, finalized, failed
	Error       *string `json:"error,omitempty"`
	ExplorerURL string  `json:"explorer_url"`
}

func (c *Client) SignatureStatus(ctx context.Context, signature string) (*TxStatus, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	out, err := c.http.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("get signature status: %w", err)
	}

	result := &TxStatus{
		Signature:   signature,
		Status:      "pending",
		ExplorerURL: c.ExplorerURL(signature),
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return result, nil
	}

	txStatus := out.Value[0]
	switch {
	case txStatus.Err != nil:
		errMsg := fmt.Sprintf("%v", txStatus.Err)
		result.Status = "failed"
		result.Error = &errMsg
	case txStatus.ConfirmationStatus == rpc.ConfirmationStatusFinalized:
		result.Status = "finalized"
	case txStatus.ConfirmationStatus == rpc.ConfirmationStatusConfirmed:
		result.Status = "confirmed"
	}
	return result, nil
}
