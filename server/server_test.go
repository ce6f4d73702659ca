package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dchesque/SolanaBuilder-sub000/chain"
	"github.com/dchesque/SolanaBuilder-sub000/mintflow"
	"github.com/dchesque/SolanaBuilder-sub000/store"
	"github.com/dchesque/SolanaBuilder-sub000/wallet"
)

func newTestServer(t *testing.T, adminWallet, rpcURL string) (*Server, *store.Ring) {
	t.Helper()
	logs := store.NewRing(store.DefaultLogCapacity)
	srv := New(
		Config{
			AdminWallet: adminWallet,
			RPCURL:      rpcURL,
			FeeConfig: mintflow.ServiceFeeConfig{
				ServiceWallet: solana.NewWallet().PublicKey().String(),
				FeeSOL:        0.001,
			},
		},
		nil, // chain client not needed for these endpoints
		logs,
		store.NewStats(),
		nil,
		nil,
		wallet.NewChallengeVerifier(time.Minute),
		zerolog.Nop(),
	)
	return srv, logs
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "admin", "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAuthFlow(t *testing.T) {
	admin := solana.NewWallet()
	srv, _ := newTestServer(t, admin.PublicKey().String(), "")
	router := srv.Router()

	// Step 1: request a challenge.
	rec := postJSON(t, router, "/admin/auth", adminAuthRequest{Wallet: admin.PublicKey().String()})
	require.Equal(t, http.StatusOK, rec.Code)
	var challengeResp adminAuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&challengeResp))
	require.True(t, challengeResp.Success)
	require.NotEmpty(t, challengeResp.Challenge)

	// Step 2: sign it and authenticate.
	sig := wallet.SignChallenge(admin.PrivateKey, challengeResp.Challenge)
	rec = postJSON(t, router, "/admin/auth", adminAuthRequest{
		Wallet:    admin.PublicKey().String(),
		Signature: sig,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var authResp adminAuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&authResp))
	require.True(t, authResp.Success)
	require.NotEmpty(t, authResp.Token)

	// Step 3: the session token opens the stats and logs endpoints.
	rec = postJSON(t, router, "/admin/stats", adminStatsRequest{
		Wallet: admin.PublicKey().String(),
		Token:  authResp.Token,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var statsResp adminStatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&statsResp))
	assert.True(t, statsResp.Success)
}

func TestAdminAuthRejectsUnknownWallet(t *testing.T) {
	admin := solana.NewWallet()
	srv, _ := newTestServer(t, admin.PublicKey().String(), "")

	rec := postJSON(t, srv.Router(), "/admin/auth", adminAuthRequest{
		Wallet: solana.NewWallet().PublicKey().String(),
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminAuthRejectsBadSignature(t *testing.T) {
	admin := solana.NewWallet()
	impostor := solana.NewWallet()
	srv, _ := newTestServer(t, admin.PublicKey().String(), "")
	router := srv.Router()

	rec := postJSON(t, router, "/admin/auth", adminAuthRequest{Wallet: admin.PublicKey().String()})
	var challengeResp adminAuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&challengeResp))

	sig := wallet.SignChallenge(impostor.PrivateKey, challengeResp.Challenge)
	rec = postJSON(t, router, "/admin/auth", adminAuthRequest{
		Wallet:    admin.PublicKey().String(),
		Signature: sig,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminEndpointsRequireSession(t *testing.T) {
	srv, _ := newTestServer(t, "admin", "")
	router := srv.Router()

	rec := postJSON(t, router, "/admin/stats", adminStatsRequest{Wallet: "admin", Token: "bogus"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, router, "/admin/logs", adminLogsRequest{Wallet: "admin", Token: "bogus", Page: 1, Limit: 10})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLogsPagingAndFilter(t *testing.T) {
	admin := solana.NewWallet()
	srv, logs := newTestServer(t, admin.PublicKey().String(), "")
	router := srv.Router()

	for i := 0; i < 25; i++ {
		kind := store.KindInfo
		if i%5 == 0 {
			kind = store.KindError
		}
		logs.Append(kind, "event", "")
	}

	// Authenticate.
	rec := postJSON(t, router, "/admin/auth", adminAuthRequest{Wallet: admin.PublicKey().String()})
	var challengeResp adminAuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&challengeResp))
	sig := wallet.SignChallenge(admin.PrivateKey, challengeResp.Challenge)
	rec = postJSON(t, router, "/admin/auth", adminAuthRequest{Wallet: admin.PublicKey().String(), Signature: sig})
	var authResp adminAuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&authResp))

	rec = postJSON(t, router, "/admin/logs", adminLogsRequest{
		Wallet: admin.PublicKey().String(),
		Token:  authResp.Token,
		Page:   1,
		Limit:  10,
		Type:   store.KindError,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var logsResp adminLogsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&logsResp))
	assert.True(t, logsResp.Success)
	assert.Equal(t, 5, logsResp.Total)
	assert.Len(t, logsResp.Logs, 5)
	for _, e := range logsResp.Logs {
		assert.Equal(t, store.KindError, e.Kind)
	}
}

func TestRPCPassthrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"getHealth"}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"ok"}`))
	}))
	defer upstream.Close()

	srv, _ := newTestServer(t, "admin", upstream.URL)
	rec := postJSON(t, srv.Router(), "/rpc", map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "getHealth",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":"ok"}`, rec.Body.String())
}

func TestCreateTokenValidation(t *testing.T) {
	srv, _ := newTestServer(t, "admin", "")
	router := srv.Router()

	// Missing fields are rejected before any chain interaction.
	rec := postJSON(t, router, "/create-token", map[string]any{"owner": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Oversized symbol is rejected by validation.
	rec = postJSON(t, router, "/create-token", createTokenRequest{
		Owner: solana.NewWallet().PublicKey().String(), Name: "Test", Symbol: "TOOLONG", Supply: 1000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Invalid owner address is rejected.
	rec = postJSON(t, router, "/create-token", createTokenRequest{
		Owner: "not-a-pubkey", Name: "Test", Symbol: "TST", Supply: 1000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// fakeRPC answers the two RPC calls the create-token handler makes.
func fakeRPC(t *testing.T) *httptest.Server {
	t.Helper()
	blockhash := solana.Hash(solana.NewWallet().PublicKey())
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any    `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc request: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "getMinimumBalanceForRentExemption":
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID, "result": 1_461_600,
			})
		case "getLatestBlockhash":
			json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID,
				"result": map[string]any{
					"context": map[string]any{"slot": 1},
					"value": map[string]any{
						"blockhash":            blockhash.String(),
						"lastValidBlockHeight": 100,
					},
				},
			})
		default:
			t.Errorf("unexpected rpc method %q", req.Method)
		}
	}))
}

func TestCreateTokenIncludesServiceFee(t *testing.T) {
	upstream := fakeRPC(t)
	defer upstream.Close()

	chainClient, err := chain.New(context.Background(),
		chain.Config{RPCURL: upstream.URL, Network: "devnet"}, zerolog.Nop())
	require.NoError(t, err)

	serviceWallet := solana.NewWallet().PublicKey()
	srv := New(
		Config{
			AdminWallet: "admin",
			RPCURL:      upstream.URL,
			FeeConfig: mintflow.ServiceFeeConfig{
				ServiceWallet: serviceWallet.String(),
				FeeSOL:        0.001,
			},
		},
		chainClient,
		store.NewRing(10),
		store.NewStats(),
		nil,
		nil,
		wallet.NewChallengeVerifier(time.Minute),
		zerolog.Nop(),
	)

	owner := solana.NewWallet().PublicKey()
	rec := postJSON(t, srv.Router(), "/create-token", createTokenRequest{
		Owner: owner.String(), Name: "Test", Symbol: "TST", Supply: 1000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp createTokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Success)
	assert.Equal(t, uint64(1_000_000), resp.FeeLamports)

	raw, err := base64.StdEncoding.DecodeString(resp.UnsignedTx)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)

	// Fee transfer leads, then the four issuance instructions.
	require.Len(t, tx.Message.Instructions, 5)
	first := tx.Message.Instructions[0]

	program, err := tx.Message.Program(first.ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, solana.SystemProgramID, program)

	data := []byte(first.Data)
	require.Len(t, data, 12)
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(data[4:12]),
		"the quoted fee is the transferred amount")

	dest, err := tx.Message.Account(first.Accounts[1])
	require.NoError(t, err)
	assert.Equal(t, serviceWallet, dest, "fee goes to the service wallet")

	require.Len(t, tx.Signatures, 2, "mint keypair pre-signs; the owner slot awaits the wallet")
}

func TestTokenHistoryParams(t *testing.T) {
	srv, _ := newTestServer(t, "admin", "")
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/tokens", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "owner is required")

	req = httptest.NewRequest(http.MethodGet, "/tokens?owner=abc", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "history store is not configured")
}

func TestSubmitUnknownRequestID(t *testing.T) {
	srv, _ := newTestServer(t, "admin", "")
	rec := postJSON(t, srv.Router(), "/create-token/submit", submitRequest{
		RequestID:         "nope",
		SignedTransaction: "AAAA",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
