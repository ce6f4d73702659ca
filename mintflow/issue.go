package mintflow

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/dchesque/SolanaBuilder-sub000/mintprogram"
)

// IssueToken runs the token issuance step: one transaction that creates the
// mint account, initializes it, creates the owner's holding account and
// mints the initial supply into it. The mint keypair is generated locally
// and never leaves the process; only its public key and signature go out.
func (w *Workflow) IssueToken(ctx context.Context, req IssuanceRequest) error {
	if err := w.requireStep(StepFeeConfirmed); err != nil {
		return w.fail(err)
	}

	// Checked again here even though the form pre-validates: nothing may be
	// built, let alone submitted, for an oversized symbol.
	req.Normalize()
	if err := req.Validate(); err != nil {
		return w.fail(err.(*StepError))
	}

	w.transition(StepMinting, fmt.Sprintf("Creating token %s (%s)", req.Name, req.Symbol))

	payer := w.signer.PublicKey()
	mint := solana.NewWallet()

	rent, err := w.ledger.MinimumRentExemption(ctx, mintprogram.MintAccountSize)
	if err != nil {
		return w.fail(stepErr(classify(err), "could not fetch rent-exemption minimum", err))
	}

	instructions, _, err := mintprogram.BuildIssuanceInstructions(
		payer, mint.PublicKey(), rent, req.BaseUnits())
	if err != nil {
		return w.fail(stepErr(KindFatal, "could not build issuance instructions", err))
	}

	sig, err := w.submitWithRetry(ctx, func(blockhash solana.Hash) (*solana.Transaction, error) {
		tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer))
		if err != nil {
			return nil, err
		}
		// The create-account instruction requires the new mint's own
		// signature, so the fresh keypair signs before the user's wallet.
		if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
			if mint.PublicKey().Equals(key) {
				return &mint.PrivateKey
			}
			return nil
		}); err != nil {
			return nil, err
		}
		return tx, w.signer.SignTransaction(ctx, tx)
	})
	if err != nil {
		return w.fail(stepErr(classify(err), mintprogram.ParseRPCError(err), err))
	}

	token := &CreatedToken{
		MintAddress: mint.PublicKey().String(),
		Name:        req.Name,
		Symbol:      req.Symbol,
		Supply:      req.Supply,
		Decimals:    mintprogram.TokenDecimals,
		Signature:   sig.String(),
		ExplorerURL: w.ledger.ExplorerURL(sig.String()),
	}

	if err := w.ledger.Confirm(ctx, sig, issuanceConfirmTimeout); err != nil {
		if !mintprogram.IsConfirmationTimeout(err) {
			return w.fail(stepErr(classify(err), mintprogram.ParseRPCError(err), err))
		}
		// The submission likely landed; treat the token as provisionally
		// created rather than losing an irreversible side effect.
		w.state.CreatedToken = token
		w.sink.Append("info", "token issuance confirmation timed out",
			fmt.Sprintf("mint=%s sig=%s", token.MintAddress, sig))
		w.transition(StepMintConfirmed,
			"Confirmation timeout: the token was likely created, continuing provisionally")
		return nil
	}

	w.state.CreatedToken = token
	w.sink.Append("success", "token created",
		fmt.Sprintf("mint=%s supply=%d sig=%s", token.MintAddress, token.Supply, sig))
	w.transition(StepMintConfirmed, fmt.Sprintf("Token %s created", token.MintAddress))
	return nil
}

// submitWithRetry builds, signs and sends a transaction, retrying transient
// failures with a fresh blockhash up to the retry policy's bound.
func (w *Workflow) submitWithRetry(
	ctx context.Context,
	build func(blockhash solana.Hash) (*solana.Transaction, error),
) (solana.Signature, error) {
	attempts := w.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return solana.Signature{}, ctx.Err()
			case <-time.After(w.retry.Backoff):
			}
		}

		blockhash, err := w.ledger.LatestBlockhash(ctx)
		if err != nil {
			lastErr = err
			if mintprogram.IsTransient(err) {
				continue
			}
			return solana.Signature{}, err
		}

		tx, err := build(blockhash)
		if err != nil {
			return solana.Signature{}, err
		}

		sig, err := w.ledger.Send(ctx, tx)
		if err == nil {
			return sig, nil
		}
		lastErr = err
		if !mintprogram.IsTransient(err) {
			return solana.Signature{}, err
		}
		w.log.Warn().Int("attempt", attempt).Err(err).Msg("transient submission failure")
	}
	return solana.Signature{}, lastErr
}
