package mintprogram

import "github.com/gagliardetto/solana-go"

// Metaplex Token Metadata program
var (
	TokenMetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	SeedMetadata = []byte("metadata")
)

// Instruction discriminators (single-byte, from the token-metadata IDL)
const (
	InstructionCreateMetadataAccountV3 uint8 = 33
	InstructionUpdateMetadataAccountV2 uint8 = 15
)

// TokenDecimals is fixed for every token issued through this service.
// On-chain quantity = supply * 10^TokenDecimals.
const TokenDecimals uint8 = 9

// metadataBaseLen is the fixed portion of a metadata account: key, update
// authority, mint, seller fee, mutability flag and the option tags for
// creators, primary sale, edition nonce, token standard, collection, uses,
// collection details and programmable config. Variable-length name, symbol
// and uri are added on top with their u32 length prefixes.
const metadataBaseLen = 1 + 32 + 32 + 2 + 1 + 1 + 1 + 1 + 1 + 1 + 1 + 1

// EstimateMetadataLen returns the byte size used for rent-exemption budgeting
// of a metadata account holding the given strings.
func EstimateMetadataLen(name, symbol, uri string) uint64 {
	return uint64(metadataBaseLen + 4 + len(name) + 4 + len(symbol) + 4 + len(uri))
}
