package memory

import (
	"sort"

	"github.com/google/uuid"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
)

// Read-only views for tests and the dev backend's health output.

func (s *Store) Chains() []model.Chain {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Chain, 0, len(s.chains))
	for _, c := range s.chains {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

func (s *Store) Tokens(chainRef uuid.UUID) []model.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Token
	for _, t := range s.tokens {
		if t.ChainRef == chainRef {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (s *Store) FeeCollectors(chainRef uuid.UUID) []model.FeeCollector {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.FeeCollector
	for _, f := range s.collectors {
		if f.ChainRef == chainRef {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (s *Store) UserByAddress(address string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usersByAddr[address]
	if !ok {
		return nil
	}
	u := *s.users[id]
	return &u
}

func (s *Store) Supports() []model.Support {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Support, 0, len(s.supports))
	for _, sup := range s.supports {
		out = append(out, *sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// TopSupport returns the kind leaderboard row for a pair, or nil.
func (s *Store) TopSupport(kind model.LeaderboardKind, streamerID, viewerID uuid.UUID) *model.TopSupport {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.boards[kind][pairKey{streamerID, viewerID}]
	if !ok {
		return nil
	}
	out := *ts
	return &out
}

// SoftDeleteChain stands in for the CRUD layer that owns chain removal.
func (s *Store) SoftDeleteChain(chainID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.chainsByExtID[chainID]
	if !ok {
		return false
	}
	now := s.now()
	s.chains[id].DeletedAt = timePtr(now)
	return true
}

// SoftDeleteUser stands in for the CRUD layer that owns user removal.
func (s *Store) SoftDeleteUser(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usersByAddr[address]
	if !ok {
		return false
	}
	s.users[id].DeletedAt = timePtr(s.now())
	return true
}
