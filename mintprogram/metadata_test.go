package mintprogram

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMetadataAddressIsDeterministic(t *testing.T) {
	mint := solana.NewWallet().PublicKey()

	a, bumpA, err := DeriveMetadataAddress(mint)
	require.NoError(t, err)
	b, bumpB, err := DeriveMetadataAddress(mint)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, bumpA, bumpB)

	other, _, err := DeriveMetadataAddress(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestCreateMetadataV3InstructionLayout(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	metadata, _, err := DeriveMetadataAddress(mint)
	require.NoError(t, err)

	ix := NewCreateMetadataV3Instruction(metadata, mint, authority, authority, authority,
		MetadataData{Name: "Test", Symbol: "TST", URI: ""})

	assert.Equal(t, TokenMetadataProgramID, ix.ProgramID())

	accounts := ix.Accounts()
	require.Len(t, accounts, 7)
	assert.Equal(t, metadata, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsWritable)
	assert.Equal(t, mint, accounts[1].PublicKey)
	assert.True(t, accounts[2].IsSigner, "mint authority signs")
	assert.True(t, accounts[3].IsSigner, "payer signs")
	assert.True(t, accounts[3].IsWritable)
	assert.Equal(t, solana.SystemProgramID, accounts[5].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)

	// discriminator, then borsh DataV2: name, symbol, uri with u32 length
	// prefixes, u16 seller fee, three empty options, is_mutable, empty
	// collection details.
	assert.Equal(t, InstructionCreateMetadataAccountV3, data[0])
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(data[1:5]))
	assert.Equal(t, "Test", string(data[5:9]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[9:13]))
	assert.Equal(t, "TST", string(data[13:16]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[16:20]), "uri is empty")
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(data[20:22]), "seller fee is zero")
	assert.Equal(t, []byte{0, 0, 0}, data[22:25], "creators, collection, uses are None")
	assert.Equal(t, byte(1), data[25], "record is mutable")
	assert.Equal(t, byte(0), data[26], "no collection details")
	assert.Len(t, data, 27)
}

func TestUpdateMetadataV2InstructionLayout(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	metadata, _, err := DeriveMetadataAddress(mint)
	require.NoError(t, err)

	ix := NewUpdateMetadataV2Instruction(metadata, authority,
		MetadataData{Name: "Test", Symbol: "TST", URI: "https://example.com/t.json"})

	accounts := ix.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, metadata, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsWritable)
	assert.Equal(t, authority, accounts[1].PublicKey)
	assert.True(t, accounts[1].IsSigner)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, InstructionUpdateMetadataAccountV2, data[0])
	assert.Equal(t, byte(1), data[1], "data option is Some")
	// Trailing options: new authority, primary sale, mutability all None.
	assert.Equal(t, []byte{0, 0, 0}, data[len(data)-3:])
}

func TestEstimateMetadataLen(t *testing.T) {
	empty := EstimateMetadataLen("", "", "")
	withStrings := EstimateMetadataLen("Test", "TST", "")

	assert.Equal(t, empty+7, withStrings, "grows by the string byte lengths")
	assert.Greater(t, empty, uint64(70), "fixed fields dominate the base size")
}

func TestBuildIssuanceInstructionsOrder(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	instructions, ata, err := BuildIssuanceInstructions(owner, mint, 1_461_600, 1000_000_000_000)
	require.NoError(t, err)
	require.Len(t, instructions, 4)

	expectedATA, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, expectedATA, ata)

	assert.Equal(t, solana.SystemProgramID, instructions[0].ProgramID())
	assert.Equal(t, solana.TokenProgramID, instructions[1].ProgramID())
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, instructions[2].ProgramID())
	assert.Equal(t, solana.TokenProgramID, instructions[3].ProgramID())

	// CreateAccount carries the rent lamports and the fixed mint size.
	createData, err := instructions[0].Data()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(createData[0:4]), "system create-account index")
	assert.Equal(t, uint64(1_461_600), binary.LittleEndian.Uint64(createData[4:12]))
	assert.Equal(t, uint64(MintAccountSize), binary.LittleEndian.Uint64(createData[12:20]))

	// InitializeMint fixes decimals at 9.
	initData, err := instructions[1].Data()
	require.NoError(t, err)
	assert.Equal(t, byte(0), initData[0], "initialize-mint opcode")
	assert.Equal(t, TokenDecimals, initData[1])

	// MintTo carries the exact base-unit amount.
	mintToData, err := instructions[3].Data()
	require.NoError(t, err)
	assert.Equal(t, byte(7), mintToData[0], "mint-to opcode")
	assert.Equal(t, uint64(1000_000_000_000), binary.LittleEndian.Uint64(mintToData[1:9]))
}
