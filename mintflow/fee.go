package mintflow

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/dchesque/SolanaBuilder-sub000/mintprogram"
	"github.com/dchesque/SolanaBuilder-sub000/wallet"
)

// PayFee runs the fee payment step: a single value transfer from the
// connected account to the service wallet. The user is asked to approve the
// submission through the Confirmer before the wallet signature is requested.
func (w *Workflow) PayFee(ctx context.Context) error {
	if err := w.requireStep(StepAwaitingFee); err != nil {
		return w.fail(err)
	}

	// Precondition checks, ordered: config, connected account, balance.
	if err := w.feeCfg.Validate(); err != nil {
		return w.fail(err.(*StepError))
	}
	serviceWallet, err := solana.PublicKeyFromBase58(w.feeCfg.ServiceWallet)
	if err != nil {
		return w.fail(stepErr(KindConfig, "service wallet address is invalid", err))
	}
	if w.signer == nil {
		return w.fail(stepErr(KindPrecondition, "no wallet connected", nil))
	}
	payer := w.signer.PublicKey()

	feeLamports := w.feeCfg.FeeLamports()
	balance, err := w.ledger.Balance(ctx, payer)
	if err != nil {
		return w.fail(stepErr(classify(err), "could not fetch wallet balance", err))
	}
	if balance < feeLamports {
		return w.fail(stepErr(KindPrecondition, fmt.Sprintf(
			"insufficient balance: need %d lamports, have %d", feeLamports, balance), nil))
	}

	if !w.confirmer.Confirm(fmt.Sprintf(
		"Pay service fee of %.9f SOL to %s?", w.feeCfg.FeeSOL, w.feeCfg.ServiceWallet)) {
		return w.fail(stepErr(KindRejected, "fee payment was not approved", wallet.ErrRejected))
	}

	blockhash, err := w.ledger.LatestBlockhash(ctx)
	if err != nil {
		return w.fail(stepErr(classify(err), "could not fetch latest blockhash", err))
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			mintprogram.NewFeeTransferInstruction(payer, serviceWallet, feeLamports),
		},
		blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return w.fail(stepErr(KindFatal, "could not build fee transaction", err))
	}

	if err := w.signer.SignTransaction(ctx, tx); err != nil {
		return w.fail(stepErr(classify(err), "fee signature was rejected", err))
	}

	sig, err := w.ledger.Send(ctx, tx)
	if err != nil {
		return w.fail(stepErr(classify(err), mintprogram.ParseRPCError(err), err))
	}

	// Library-default confirmation window; a fee transfer that cannot be
	// confirmed is fatal to the step.
	if err := w.ledger.Confirm(ctx, sig, 0); err != nil {
		return w.fail(stepErr(classify(err), "fee transfer was not confirmed", err))
	}

	w.sink.Append("success", "service fee collected",
		fmt.Sprintf("payer=%s lamports=%d sig=%s", payer, feeLamports, sig))
	w.transition(StepFeeConfirmed, "Service fee confirmed")
	return nil
}
