package mintflow

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/dchesque/SolanaBuilder-sub000/mintprogram"
)

// AttachMetadata runs the metadata attachment step: it creates the on-chain
// metadata record carrying the token's name and symbol. The uri is left
// empty here; the separate update flow uploads the off-chain JSON and sets
// it afterwards.
func (w *Workflow) AttachMetadata(ctx context.Context) error {
	if err := w.requireStep(StepMintConfirmed); err != nil {
		return w.fail(err)
	}
	token := w.state.CreatedToken
	if token == nil {
		return w.fail(stepErr(KindPrecondition, "no created token to attach metadata to", nil))
	}

	w.transition(StepAttachingMetadata, fmt.Sprintf("Attaching metadata to %s", token.MintAddress))

	mint, err := solana.PublicKeyFromBase58(token.MintAddress)
	if err != nil {
		return w.fail(stepErr(KindFatal, "created token has an invalid mint address", err))
	}
	metadata, _, err := mintprogram.DeriveMetadataAddress(mint)
	if err != nil {
		return w.fail(stepErr(KindFatal, "could not derive metadata address", err))
	}

	payer := w.signer.PublicKey()
	data := mintprogram.MetadataData{
		Name:                 token.Name,
		Symbol:               token.Symbol,
		URI:                  "",
		SellerFeeBasisPoints: 0,
	}

	instruction := mintprogram.NewCreateMetadataV3Instruction(
		metadata, mint, payer, payer, payer, data)

	// Rent and network fee are fetched purely for display before submission;
	// neither gates the step.
	var rentLamports uint64
	if rent, err := w.ledger.MinimumRentExemption(ctx,
		mintprogram.EstimateMetadataLen(data.Name, data.Symbol, data.URI)); err == nil {
		rentLamports = rent
		w.state.Message = fmt.Sprintf(
			"Attaching metadata (rent %d lamports)", rent)
	}

	sig, err := w.submitWithRetry(ctx, func(blockhash solana.Hash) (*solana.Transaction, error) {
		tx, err := solana.NewTransaction(
			[]solana.Instruction{instruction}, blockhash, solana.TransactionPayer(payer))
		if err != nil {
			return nil, err
		}
		if fee, err := w.ledger.FeeForMessage(ctx, tx); err == nil {
			w.state.Message = fmt.Sprintf(
				"Attaching metadata (rent %d lamports, network fee %d lamports)", rentLamports, fee)
		}
		return tx, w.signer.SignTransaction(ctx, tx)
	})
	if err != nil {
		if classify(err) == KindConflict {
			// A retried or duplicate attachment: the record is already on
			// chain, which is what the user wanted.
			w.sink.Append("info", "metadata already exists",
				fmt.Sprintf("mint=%s", token.MintAddress))
			w.transition(StepComplete, "Metadata already exists for this token")
			return nil
		}
		return w.fail(stepErr(classify(err), mintprogram.ParseRPCError(err), err))
	}

	if err := w.ledger.Confirm(ctx, sig, 0); err != nil {
		if classify(err) == KindConflict {
			w.transition(StepComplete, "Metadata already exists for this token")
			return nil
		}
		return w.fail(stepErr(classify(err), "metadata transaction was not confirmed", err))
	}

	w.sink.Append("success", "metadata attached",
		fmt.Sprintf("mint=%s metadata=%s sig=%s", token.MintAddress, metadata, sig))
	w.transition(StepComplete, fmt.Sprintf("Token %s is ready", token.Symbol))
	return nil
}
