package server

import "github.com/dchesque/SolanaBuilder-sub000/store"

type adminAuthRequest struct {
	Wallet    string `json:"wallet" validate:"required"`
	Signature string `json:"signature,omitempty"`
}

type adminAuthResponse struct {
	Success   bool   `json:"success"`
	Challenge string `json:"challenge,omitempty"`
	Token     string `json:"token,omitempty"`
	Message   string `json:"message,omitempty"`
}

type adminStatsRequest struct {
	Wallet string `json:"wallet" validate:"required"`
	Token  string `json:"token" validate:"required"`
}

type adminStatsResponse struct {
	Success bool                `json:"success"`
	Stats   store.StatsSnapshot `json:"stats"`
}

type adminLogsRequest struct {
	Wallet string `json:"wallet" validate:"required"`
	Token  string `json:"token" validate:"required"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Type   string `json:"type,omitempty" validate:"omitempty,oneof=success error info"`
}

type adminLogsResponse struct {
	Success    bool          `json:"success"`
	Logs       []store.Entry `json:"logs"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}

type createTokenRequest struct {
	Owner  string `json:"owner" validate:"required"`
	Name   string `json:"name" validate:"required,max=32"`
	Symbol string `json:"symbol" validate:"required,max=6"`
	Supply uint64 `json:"supply" validate:"required"`
}

type createTokenResponse struct {
	Success     bool   `json:"success"`
	RequestID   string `json:"request_id"`
	MintAddress string `json:"mint_address"`
	UnsignedTx  string `json:"unsigned_tx"` // base64, pre-signed by the mint keypair
	FeeLamports uint64 `json:"fee_lamports"`
	ExpiresAt   int64  `json:"expires_at"` // blockhash validity window
	Message     string `json:"message,omitempty"`
}

type submitRequest struct {
	RequestID         string `json:"request_id" validate:"required"`
	SignedTransaction string `json:"signed_transaction" validate:"required"`
}

type submitResponse struct {
	Success     bool   `json:"success"`
	Signature   string `json:"signature,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
	Provisional bool   `json:"provisional,omitempty"`
	Message     string `json:"message,omitempty"`
}

type updateMetadataRequest struct {
	Owner       string `json:"owner" validate:"required"`
	Mint        string `json:"mint" validate:"required"`
	Name        string `json:"name" validate:"required,max=32"`
	Symbol      string `json:"symbol" validate:"required,max=6"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Website     string `json:"website,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`
}

type updateMetadataResponse struct {
	Success    bool   `json:"success"`
	RequestID  string `json:"request_id"`
	UnsignedTx string `json:"unsigned_tx"`
	URI        string `json:"uri,omitempty"`
	Message    string `json:"message,omitempty"`
}

type tokenHistoryResponse struct {
	Success bool                `json:"success"`
	Tokens  []store.TokenRecord `json:"tokens"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
