package store

import "sync"

// Stats aggregates service-wide usage counters. Fee revenue is tracked in
// lamports to avoid float accumulation error.
type Stats struct {
	mu                   sync.Mutex
	tokensCreated        uint64
	metadataUpdates      uint64
	feeLamportsCollected uint64
}

// StatsSnapshot is the wire shape returned by the admin API.
type StatsSnapshot struct {
	TokensCreated        uint64  `json:"tokens_created"`
	MetadataUpdates      uint64  `json:"metadata_updates"`
	ServiceFeesCollected float64 `json:"service_fees_collected"` // in SOL
}

func NewStats() *Stats { return &Stats{} }

func (s *Stats) TokenCreated(feeLamports uint64) {
	s.mu.Lock()
	s.tokensCreated++
	s.feeLamportsCollected += feeLamports
	s.mu.Unlock()
}

func (s *Stats) MetadataUpdated() {
	s.mu.Lock()
	s.metadataUpdates++
	s.mu.Unlock()
}

const lamportsPerSOL = 1_000_000_000

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		TokensCreated:        s.tokensCreated,
		MetadataUpdates:      s.metadataUpdates,
		ServiceFeesCollected: float64(s.feeLamportsCollected) / lamportsPerSOL,
	}
}
