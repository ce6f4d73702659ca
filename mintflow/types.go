package mintflow

import (
	"fmt"
	"math"
	"strings"

	"github.com/dchesque/SolanaBuilder-sub000/mintprogram"
)

// Step is the workflow position. Each step function is gated on it.
type Step int

const (
	StepAwaitingFee Step = iota
	StepFeeConfirmed
	StepMinting
	StepMintConfirmed
	StepAttachingMetadata
	StepComplete
	StepFailed
)

func (s Step) String() string {
	switch s {
	case StepAwaitingFee:
		return "awaiting_fee"
	case StepFeeConfirmed:
		return "fee_confirmed"
	case StepMinting:
		return "minting"
	case StepMintConfirmed:
		return "mint_confirmed"
	case StepAttachingMetadata:
		return "attaching_metadata"
	case StepComplete:
		return "complete"
	case StepFailed:
		return "failed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Terminal reports whether the workflow can only be restarted from here.
func (s Step) Terminal() bool {
	return s == StepComplete || s == StepFailed
}

const (
	// MinSupply is the floor a requested supply is coerced up to.
	MinSupply = 1000
	// MaxSupply keeps supply * 10^9 inside uint64 range.
	MaxSupply = math.MaxUint64 / baseUnitsPerToken

	maxNameLen   = 32
	maxSymbolLen = 6

	baseUnitsPerToken = 1_000_000_000 // 10^9, decimals fixed at 9
)

// IssuanceRequest is the user-supplied intent behind a token issuance.
type IssuanceRequest struct {
	Name   string
	Symbol string
	Supply uint64
}

// Normalize uppercases the symbol, trims whitespace and coerces supplies
// below the minimum up to it.
func (r *IssuanceRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if r.Supply < MinSupply {
		r.Supply = MinSupply
	}
}

// Validate checks the request after Normalize. Violations are precondition
// errors: nothing has been submitted yet and the caller may correct and
// retry.
func (r *IssuanceRequest) Validate() error {
	if r.Name == "" || len(r.Name) > maxNameLen {
		return &StepError{Kind: KindPrecondition, Detail: fmt.Sprintf("name must be 1-%d characters", maxNameLen)}
	}
	if r.Symbol == "" || len(r.Symbol) > maxSymbolLen {
		return &StepError{Kind: KindPrecondition, Detail: fmt.Sprintf("symbol must be 1-%d characters", maxSymbolLen)}
	}
	if r.Supply > MaxSupply {
		return &StepError{Kind: KindPrecondition, Detail: fmt.Sprintf("supply must not exceed %d", uint64(MaxSupply))}
	}
	return nil
}

// BaseUnits returns the on-chain quantity: supply * 10^9, exactly.
func (r *IssuanceRequest) BaseUnits() uint64 {
	return r.Supply * baseUnitsPerToken
}

// CreatedToken is set once the issuance transaction lands (or is treated as
// provisionally landed) and is immutable for the rest of the workflow.
type CreatedToken struct {
	MintAddress string `json:"mint_address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Supply      uint64 `json:"supply"`
	Decimals    uint8  `json:"decimals"`
	Signature   string `json:"signature,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
}

// ServiceFeeConfig is read-only after load. Both fields must be valid or the
// workflow refuses to start.
type ServiceFeeConfig struct {
	ServiceWallet string
	FeeSOL        float64
}

func (c ServiceFeeConfig) Validate() error {
	if strings.TrimSpace(c.ServiceWallet) == "" {
		return &StepError{Kind: KindConfig, Detail: "service wallet address is not configured"}
	}
	if math.IsNaN(c.FeeSOL) || c.FeeSOL <= 0 {
		return &StepError{Kind: KindConfig, Detail: "service fee amount is not configured"}
	}
	return nil
}

// FeeLamports converts the configured fee to the ledger's base unit.
func (c ServiceFeeConfig) FeeLamports() uint64 {
	return uint64(math.Round(c.FeeSOL * baseUnitsPerToken))
}

// State is a snapshot of the workflow, safe to hand to the presentation
// layer.
type State struct {
	Step         Step          `json:"step"`
	CreatedToken *CreatedToken `json:"created_token,omitempty"`
	Message      string        `json:"message"`
}

// TokenDecimals re-exported for callers that only import mintflow.
const TokenDecimals = mintprogram.TokenDecimals
