package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dchesque/SolanaBuilder-sub000/chain"
	"github.com/dchesque/SolanaBuilder-sub000/metastore"
	"github.com/dchesque/SolanaBuilder-sub000/mintflow"
	"github.com/dchesque/SolanaBuilder-sub000/store"
)

// Config is the server's slice of the service configuration.
type Config struct {
	AdminWallet string
	RPCURL      string
	FeeConfig   mintflow.ServiceFeeConfig
}

// Server holds the HTTP surface: admin API, two-phase token issuance and
// metadata update for browser wallets, and the raw RPC passthrough.
type Server struct {
	cfg      Config
	chain    *chain.Client
	logs     store.LogStore
	stats    *store.Stats
	history  *store.History
	uploader metastore.Uploader
	verifier challengeVerifier
	validate *validator.Validate
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]time.Time    // admin token -> expiry
	pending  map[string]pendingTx    // request id -> in-flight unsigned tx
}

// challengeVerifier is what the admin auth flow needs from wallet.
type challengeVerifier interface {
	Issue(walletAddress string) (string, error)
	Verify(walletAddress, signature string) (bool, error)
}

type pendingTx struct {
	kind        string // "create" or "update"
	owner       string
	mintAddress string
	name        string
	symbol      string
	supply      uint64
	expires     time.Time
}

const (
	sessionTTL = 30 * time.Minute
	pendingTTL = 60 * time.Second // blockhash validity window
)

func New(
	cfg Config,
	chainClient *chain.Client,
	logs store.LogStore,
	stats *store.Stats,
	history *store.History,
	uploader metastore.Uploader,
	verifier challengeVerifier,
	log zerolog.Logger,
) *Server {
	return &Server{
		cfg:      cfg,
		chain:    chainClient,
		logs:     logs,
		stats:    stats,
		history:  history,
		uploader: uploader,
		verifier: verifier,
		validate: validator.New(),
		log:      log,
		sessions: make(map[string]time.Time),
		pending:  make(map[string]pendingTx),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", s.handleHealth)

	r.Post("/admin/auth", s.handleAdminAuth)
	r.Post("/admin/stats", s.handleAdminStats)
	r.Post("/admin/logs", s.handleAdminLogs)

	r.Post("/create-token", s.handleCreateToken)
	r.Post("/create-token/submit", s.handleSubmitToken)
	r.Post("/update-metadata", s.handleUpdateMetadata)
	r.Post("/update-metadata/submit", s.handleSubmitMetadata)

	r.Get("/tx-status", s.handleTxStatus)
	r.Get("/tokens", s.handleTokenHistory)
	r.Post("/rpc", s.handleRPCPassthrough)

	return r
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, message string, status int) {
	s.respondJSON(w, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}, status)
}

func (s *Server) authorized(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.sessions, token)
		return false
	}
	return true
}

func (s *Server) addSession(token string) {
	s.mu.Lock()
	s.sessions[token] = time.Now().Add(sessionTTL)
	s.mu.Unlock()
}

func (s *Server) addPending(id string, p pendingTx) {
	p.expires = time.Now().Add(pendingTTL)
	s.mu.Lock()
	s.pending[id] = p
	s.mu.Unlock()
}

func (s *Server) takePending(id string) (pendingTx, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return pendingTx{}, false
	}
	delete(s.pending, id)
	if time.Now().After(p.expires) {
		return pendingTx{}, false
	}
	return p, true
}
