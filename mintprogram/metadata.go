package mintprogram

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MetadataData is the on-chain DataV2 payload. Creators, collection and uses
// are always empty for tokens issued here.
type MetadataData struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
}

// DeriveMetadataAddress derives the deterministic metadata-record address for
// a mint: PDA of ["metadata", program id, mint] under the metadata program.
func DeriveMetadataAddress(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(
		[][]byte{
			SeedMetadata,
			TokenMetadataProgramID.Bytes(),
			mint.Bytes(),
		},
		TokenMetadataProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive metadata PDA: %w", err)
	}
	return pda, bump, nil
}

// appendString - borsh string: u32 LE length prefix + raw bytes
func appendString(data []byte, s string) []byte {
	lenBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(lenBytes, uint32(len(s)))
	data = append(data, lenBytes...)
	return append(data, []byte(s)...)
}

// appendDataV2 serializes DataV2 with empty creators/collection/uses options.
func appendDataV2(data []byte, d MetadataData) []byte {
	data = appendString(data, d.Name)
	data = appendString(data, d.Symbol)
	data = appendString(data, d.URI)

	sfbp := make([]byte, 2)
	binary.LittleEndian.PutUint16(sfbp, d.SellerFeeBasisPoints)
	data = append(data, sfbp...)

	data = append(data, 0) // creators: Option::None
	data = append(data, 0) // collection: Option::None
	data = append(data, 0) // uses: Option::None
	return data
}

// NewCreateMetadataV3Instruction builds the CreateMetadataAccountV3
// instruction associating name/symbol/uri with a mint. The record is created
// mutable so the update flow can attach a richer URI later.
func NewCreateMetadataV3Instruction(
	metadata solana.PublicKey,
	mint solana.PublicKey,
	mintAuthority solana.PublicKey,
	payer solana.PublicKey,
	updateAuthority solana.PublicKey,
	d MetadataData,
) solana.Instruction {
	instructionData := []byte{InstructionCreateMetadataAccountV3}
	instructionData = appendDataV2(instructionData, d)
	instructionData = append(instructionData, 1) // is_mutable: true
	instructionData = append(instructionData, 0) // collection_details: Option::None

	return solana.NewInstruction(
		TokenMetadataProgramID,
		solana.AccountMetaSlice{
			solana.Meta(metadata).WRITE(),
			solana.Meta(mint),
			solana.Meta(mintAuthority).SIGNER(),
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(updateAuthority).SIGNER(),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(solana.SysVarRentPubkey),
		},
		instructionData,
	)
}

// NewUpdateMetadataV2Instruction builds the UpdateMetadataAccountV2
// instruction replacing the record's DataV2. Update authority, primary-sale
// flag and mutability are left untouched.
func NewUpdateMetadataV2Instruction(
	metadata solana.PublicKey,
	updateAuthority solana.PublicKey,
	d MetadataData,
) solana.Instruction {
	instructionData := []byte{InstructionUpdateMetadataAccountV2}
	instructionData = append(instructionData, 1) // data: Option::Some
	instructionData = appendDataV2(instructionData, d)
	instructionData = append(instructionData, 0) // new_update_authority: Option::None
	instructionData = append(instructionData, 0) // primary_sale_happened: Option::None
	instructionData = append(instructionData, 0) // is_mutable: Option::None

	return solana.NewInstruction(
		TokenMetadataProgramID,
		solana.AccountMetaSlice{
			solana.Meta(metadata).WRITE(),
			solana.Meta(updateAuthority).SIGNER(),
		},
		instructionData,
	)
}
