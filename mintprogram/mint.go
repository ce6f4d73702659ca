package mintprogram

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// MintAccountSize is the fixed on-chain size of an SPL mint account,
// used to compute its rent-exemption minimum.
const MintAccountSize = token.MINT_SIZE

// BuildIssuanceInstructions assembles the four instructions of the token
// issuance transaction, in strict order:
//  1. create the mint account funded at the rent-exempt minimum
//  2. initialize it as a fungible mint with the owner as mint authority
//  3. create the owner's associated token account for the new mint
//  4. mint the initial quantity into that account
//
// The mint account must co-sign the resulting transaction because
// instruction (1) creates it.
func BuildIssuanceInstructions(
	owner solana.PublicKey,
	mint solana.PublicKey,
	rentLamports uint64,
	amount uint64,
) ([]solana.Instruction, solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("derive associated token account: %w", err)
	}

	instructions := []solana.Instruction{
		system.NewCreateAccountInstruction(
			rentLamports,
			MintAccountSize,
			token.ProgramID,
			owner,
			mint,
		).Build(),
		token.NewInitializeMintInstruction(
			TokenDecimals,
			owner,
			owner,
			mint,
			solana.SysVarRentPubkey,
		).Build(),
		associatedtokenaccount.NewCreateInstruction(
			owner,
			owner,
			mint,
		).Build(),
		token.NewMintToInstruction(
			amount,
			mint,
			ata,
			owner,
			[]solana.PublicKey{},
		).Build(),
	}

	return instructions, ata, nil
}

// NewFeeTransferInstruction builds the single value-transfer instruction of
// the fee payment step.
func NewFeeTransferInstruction(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, to).Build()
}
