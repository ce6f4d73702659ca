package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/dchesque/SolanaBuilder-sub000/metastore"
	"github.com/dchesque/SolanaBuilder-sub000/mintflow"
	"github.com/dchesque/SolanaBuilder-sub000/mintprogram"
	"github.com/dchesque/SolanaBuilder-sub000/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.chain != nil {
		if err := s.chain.HealthCheck(r.Context()); err != nil {
			s.respondError(w, fmt.Sprintf("rpc unhealthy: %v", err), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleAdminAuth implements the signed-challenge handshake. A request
// without a signature receives a fresh challenge; a request with one is
// verified against the wallet's public key. The wallet must also be the
// configured admin address.
func (s *Server) handleAdminAuth(w http.ResponseWriter, r *http.Request) {
	var req adminAuthRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Wallet != s.cfg.AdminWallet {
		s.respondJSON(w, adminAuthResponse{Success: false, Message: "not an admin wallet"}, http.StatusForbidden)
		return
	}

	if req.Signature == "" {
		challenge, err := s.verifier.Issue(req.Wallet)
		if err != nil {
			s.respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.respondJSON(w, adminAuthResponse{Success: true, Challenge: challenge}, http.StatusOK)
		return
	}

	ok, err := s.verifier.Verify(req.Wallet, req.Signature)
	if err != nil || !ok {
		msg := "signature verification failed"
		if err != nil {
			msg = err.Error()
		}
		s.logs.Append(store.KindError, "admin auth rejected", msg)
		s.respondJSON(w, adminAuthResponse{Success: false, Message: msg}, http.StatusForbidden)
		return
	}

	token := uuid.NewString()
	s.addSession(token)
	s.logs.Append(store.KindInfo, "admin authenticated", req.Wallet)
	s.respondJSON(w, adminAuthResponse{Success: true, Token: token}, http.StatusOK)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	var req adminStatsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.authorized(req.Token) {
		s.respondError(w, "invalid or expired session", http.StatusUnauthorized)
		return
	}
	s.respondJSON(w, adminStatsResponse{Success: true, Stats: s.stats.Snapshot()}, http.StatusOK)
}

func (s *Server) handleAdminLogs(w http.ResponseWriter, r *http.Request) {
	var req adminLogsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.authorized(req.Token) {
		s.respondError(w, "invalid or expired session", http.StatusUnauthorized)
		return
	}
	page := s.logs.Query(store.Filter{Kind: req.Type, Page: req.Page, Limit: req.Limit})
	s.respondJSON(w, adminLogsResponse{
		Success:    true,
		Logs:       page.Entries,
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: page.TotalPages,
	}, http.StatusOK)
}

// handleCreateToken builds the unsigned issuance transaction for a browser
// wallet: the service-fee transfer followed by the four mint instructions.
// The mint keypair is generated here and its signature applied before
// serialization; the private key is discarded.
func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if !s.decode(w, r, &req) {
		return
	}

	owner, err := solana.PublicKeyFromBase58(req.Owner)
	if err != nil {
		s.respondError(w, fmt.Sprintf("invalid owner address: %v", err), http.StatusBadRequest)
		return
	}

	issuance := mintflow.IssuanceRequest{Name: req.Name, Symbol: req.Symbol, Supply: req.Supply}
	issuance.Normalize()
	if err := issuance.Validate(); err != nil {
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	serviceWallet, err := solana.PublicKeyFromBase58(s.cfg.FeeConfig.ServiceWallet)
	if err != nil {
		s.respondError(w, fmt.Sprintf("service wallet misconfigured: %v", err), http.StatusInternalServerError)
		return
	}
	feeLamports := s.cfg.FeeConfig.FeeLamports()

	ctx := r.Context()
	mint := solana.NewWallet()

	rent, err := s.chain.MinimumRentExemption(ctx, mintprogram.MintAccountSize)
	if err != nil {
		s.respondError(w, mintprogram.ParseRPCError(err), http.StatusBadGateway)
		return
	}
	instructions, _, err := mintprogram.BuildIssuanceInstructions(
		owner, mint.PublicKey(), rent, issuance.BaseUnits())
	if err != nil {
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// The service fee rides in the same transaction the owner signs, so the
	// collected total on submit counts only fees that transferred.
	instructions = append(
		[]solana.Instruction{mintprogram.NewFeeTransferInstruction(owner, serviceWallet, feeLamports)},
		instructions...)
	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		s.respondError(w, mintprogram.ParseRPCError(err), http.StatusBadGateway)
		return
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(owner))
	if err != nil {
		s.respondError(w, fmt.Sprintf("failed to create transaction: %v", err), http.StatusInternalServerError)
		return
	}
	if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if mint.PublicKey().Equals(key) {
			return &mint.PrivateKey
		}
		return nil
	}); err != nil {
		s.respondError(w, fmt.Sprintf("failed to sign with mint key: %v", err), http.StatusInternalServerError)
		return
	}

	txBytes, err := tx.MarshalBinary()
	if err != nil {
		s.respondError(w, fmt.Sprintf("failed to serialize transaction: %v", err), http.StatusInternalServerError)
		return
	}

	requestID := uuid.NewString()
	s.addPending(requestID, pendingTx{
		kind:        "create",
		owner:       req.Owner,
		mintAddress: mint.PublicKey().String(),
		name:        issuance.Name,
		symbol:      issuance.Symbol,
		supply:      issuance.Supply,
	})

	s.respondJSON(w, createTokenResponse{
		Success:     true,
		RequestID:   requestID,
		MintAddress: mint.PublicKey().String(),
		UnsignedTx:  base64.StdEncoding.EncodeToString(txBytes),
		FeeLamports: feeLamports,
		ExpiresAt:   time.Now().Add(pendingTTL).Unix(),
		Message:     "Sign on the client and submit to /create-token/submit",
	}, http.StatusOK)
}

func (s *Server) handleSubmitToken(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !s.decode(w, r, &req) {
		return
	}
	pending, ok := s.takePending(req.RequestID)
	if !ok || pending.kind != "create" {
		s.respondError(w, "unknown or expired request id", http.StatusBadRequest)
		return
	}

	sig, provisional, err := s.submitSigned(r.Context(), req.SignedTransaction)
	if err != nil {
		s.logs.Append(store.KindError, "token creation failed", err.Error())
		s.respondJSON(w, submitResponse{Success: false, Message: mintprogram.ParseRPCError(err)}, http.StatusBadGateway)
		return
	}

	feeLamports := s.cfg.FeeConfig.FeeLamports()
	s.stats.TokenCreated(feeLamports)
	s.logs.Append(store.KindSuccess, "token created",
		fmt.Sprintf("mint=%s symbol=%s supply=%d sig=%s", pending.mintAddress, pending.symbol, pending.supply, sig))
	if s.history != nil {
		if err := s.history.Record(&store.TokenRecord{
			MintAddress: pending.mintAddress,
			Owner:       pending.owner,
			Name:        pending.name,
			Symbol:      pending.symbol,
			Supply:      pending.supply,
			Decimals:    mintprogram.TokenDecimals,
			Signature:   sig,
			FeeLamports: feeLamports,
		}); err != nil {
			s.log.Error().Err(err).Msg("failed to record token history")
		}
	}

	msg := "Token created successfully"
	if provisional {
		msg = "Confirmation timed out; the token was likely created"
	}
	s.respondJSON(w, submitResponse{
		Success:     true,
		Signature:   sig,
		ExplorerURL: s.chain.ExplorerURL(sig),
		Provisional: provisional,
		Message:     msg,
	}, http.StatusOK)
}

// handleUpdateMetadata builds the unsigned metadata-update transaction. When
// rich fields are present the off-chain JSON is uploaded first and the
// resulting uri goes into the on-chain record.
func (s *Server) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var req updateMetadataRequest
	if !s.decode(w, r, &req) {
		return
	}

	owner, err := solana.PublicKeyFromBase58(req.Owner)
	if err != nil {
		s.respondError(w, fmt.Sprintf("invalid owner address: %v", err), http.StatusBadRequest)
		return
	}
	mint, err := solana.PublicKeyFromBase58(req.Mint)
	if err != nil {
		s.respondError(w, fmt.Sprintf("invalid mint address: %v", err), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	uri := ""
	if s.uploader != nil && (req.Description != "" || req.Image != "" || req.Website != "" || req.Twitter != "" || req.Telegram != "") {
		uri, err = s.uploader.Upload(ctx, metastore.TokenDocument{
			Name:        req.Name,
			Symbol:      req.Symbol,
			Description: req.Description,
			Image:       req.Image,
			Website:     req.Website,
			Twitter:     req.Twitter,
			Telegram:    req.Telegram,
		})
		if err != nil {
			s.respondError(w, fmt.Sprintf("metadata upload failed: %v", err), http.StatusBadGateway)
			return
		}
	}

	metadata, _, err := mintprogram.DeriveMetadataAddress(mint)
	if err != nil {
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	instruction := mintprogram.NewUpdateMetadataV2Instruction(metadata, owner, mintprogram.MetadataData{
		Name:   req.Name,
		Symbol: req.Symbol,
		URI:    uri,
	})

	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		s.respondError(w, mintprogram.ParseRPCError(err), http.StatusBadGateway)
		return
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction}, blockhash, solana.TransactionPayer(owner))
	if err != nil {
		s.respondError(w, fmt.Sprintf("failed to create transaction: %v", err), http.StatusInternalServerError)
		return
	}
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		s.respondError(w, fmt.Sprintf("failed to serialize transaction: %v", err), http.StatusInternalServerError)
		return
	}

	requestID := uuid.NewString()
	s.addPending(requestID, pendingTx{kind: "update", mintAddress: req.Mint, name: req.Name, symbol: req.Symbol})

	s.respondJSON(w, updateMetadataResponse{
		Success:    true,
		RequestID:  requestID,
		UnsignedTx: base64.StdEncoding.EncodeToString(txBytes),
		URI:        uri,
		Message:    "Sign on the client and submit to /update-metadata/submit",
	}, http.StatusOK)
}

func (s *Server) handleSubmitMetadata(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !s.decode(w, r, &req) {
		return
	}
	pending, ok := s.takePending(req.RequestID)
	if !ok || pending.kind != "update" {
		s.respondError(w, "unknown or expired request id", http.StatusBadRequest)
		return
	}

	sig, provisional, err := s.submitSigned(r.Context(), req.SignedTransaction)
	if err != nil {
		if mintprogram.IsAlreadyExists(err) {
			s.logs.Append(store.KindInfo, "metadata already exists", pending.mintAddress)
			s.respondJSON(w, submitResponse{Success: true, Message: "Metadata already exists for this token"}, http.StatusOK)
			return
		}
		s.logs.Append(store.KindError, "metadata update failed", err.Error())
		s.respondJSON(w, submitResponse{Success: false, Message: mintprogram.ParseRPCError(err)}, http.StatusBadGateway)
		return
	}

	s.stats.MetadataUpdated()
	s.logs.Append(store.KindSuccess, "metadata updated",
		fmt.Sprintf("mint=%s sig=%s", pending.mintAddress, sig))

	s.respondJSON(w, submitResponse{
		Success:     true,
		Signature:   sig,
		ExplorerURL: s.chain.ExplorerURL(sig),
		Provisional: provisional,
		Message:     "Metadata updated",
	}, http.StatusOK)
}

// submitSigned decodes a base64 signed transaction, submits it and waits for
// confirmation. A confirmation timeout is reported as provisional success.
func (s *Server) submitSigned(ctx context.Context, signedTxB64 string) (string, bool, error) {
	txBytes, err := base64.StdEncoding.DecodeString(signedTxB64)
	if err != nil {
		return "", false, fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(txBytes))
	if err != nil {
		return "", false, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	if len(tx.Signatures) == 0 {
		return "", false, fmt.Errorf("transaction is not signed")
	}

	sig, err := s.chain.Send(ctx, tx)
	if err != nil {
		return "", false, err
	}
	if err := s.chain.Confirm(ctx, sig, 30*time.Second); err != nil {
		if mintprogram.IsConfirmationTimeout(err) {
			return sig.String(), true, nil
		}
		return "", false, err
	}
	return sig.String(), false, nil
}

// handleTokenHistory lists the tokens an owner issued through this service,
// newest first.
func (s *Server) handleTokenHistory(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		s.respondError(w, "owner parameter required", http.StatusBadRequest)
		return
	}
	if s.history == nil {
		s.respondError(w, "token history is not enabled", http.StatusServiceUnavailable)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.history.Recent(owner, limit)
	if err != nil {
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, tokenHistoryResponse{Success: true, Tokens: records}, http.StatusOK)
}

func (s *Server) handleTxStatus(w http.ResponseWriter, r *http.Request) {
	signature := r.URL.Query().Get("signature")
	if signature == "" {
		s.respondError(w, "signature parameter required", http.StatusBadRequest)
		return
	}
	result, err := s.chain.SignatureStatus(r.Context(), signature)
	if err != nil {
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.respondJSON(w, result, http.StatusOK)
}

// handleRPCPassthrough forwards the raw JSON-RPC body to the configured
// endpoint and streams the response back.
func (s *Server) handleRPCPassthrough(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.respondError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.cfg.RPCURL, bytes.NewReader(body))
	if err != nil {
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	upstream.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(upstream)
	if err != nil {
		s.respondError(w, fmt.Sprintf("rpc endpoint unreachable: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
