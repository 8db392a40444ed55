package memory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
	"github.com/oyen-dev/streamfund-backend/internal/store"
)

type chainRepo struct{ s *Store }

func (r chainRepo) FindByChainID(_ context.Context, chainID int64) (*model.Chain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.chainsByExtID[chainID]
	if !ok {
		return nil, nil
	}
	c := *r.s.chains[id]
	return &c, nil
}

func (r chainRepo) Create(_ context.Context, c *model.Chain) (*model.Chain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.chainsByExtID[c.ChainID]; ok {
		existing := *r.s.chains[id]
		return &existing, nil
	}
	now := r.s.now()
	row := &model.Chain{
		ID:        uuid.New(),
		ChainID:   c.ChainID,
		Name:      c.Name,
		Explorer:  c.Explorer,
		Image:     c.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.chains[row.ID] = row
	r.s.chainsByExtID[row.ChainID] = row.ID
	out := *row
	return &out, nil
}

func (r chainRepo) Restore(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.chains[id]; ok {
		c.DeletedAt = nil
		c.UpdatedAt = r.s.now()
	}
	return nil
}

func (r chainRepo) UpdateMetadata(_ context.Context, c *model.Chain) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.chains[c.ID]
	if !ok {
		return nil
	}
	if row.Name != c.Name || row.Explorer != c.Explorer || row.Image != c.Image {
		row.Name, row.Explorer, row.Image = c.Name, c.Explorer, c.Image
		row.UpdatedAt = r.s.now()
	}
	return nil
}

type tokenRepo struct{ s *Store }

// Must be called with mu held.
func (r tokenRepo) find(chainRef uuid.UUID, address string) *model.Token {
	for _, t := range r.s.tokens {
		if t.ChainRef == chainRef && t.Address == address {
			return t
		}
	}
	return nil
}

func (r tokenRepo) FindByAddress(_ context.Context, chainRef uuid.UUID, address string) (*model.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.find(chainRef, address)
	if t == nil {
		return nil, nil
	}
	out := *t
	return &out, nil
}

func (r tokenRepo) Create(_ context.Context, t *model.Token) (*model.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.chains[t.ChainRef]; !ok {
		return nil, fmt.Errorf("create token %s: chain %s does not exist", t.Address, t.ChainRef)
	}
	if existing := r.find(t.ChainRef, t.Address); existing != nil {
		out := *existing
		return &out, nil
	}
	now := r.s.now()
	row := *t
	row.ID = uuid.New()
	row.CreatedAt, row.UpdatedAt, row.DeletedAt = now, now, nil
	r.s.tokens[row.ID] = &row
	out := row
	return &out, nil
}

func (r tokenRepo) Restore(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tokens[id]; ok {
		t.DeletedAt = nil
		t.UpdatedAt = r.s.now()
	}
	return nil
}

func (r tokenRepo) Refresh(_ context.Context, t *model.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row, ok := r.s.tokens[t.ID]
	if !ok {
		return fmt.Errorf("refresh token %s: not found", t.ID)
	}
	row.Name, row.Symbol, row.Decimals = t.Name, t.Symbol, t.Decimals
	row.PriceOracleID, row.ImageURI = t.PriceOracleID, t.ImageURI
	row.DeletedAt = nil
	row.UpdatedAt = r.s.now()
	return nil
}

func (r tokenRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tokens[id]; ok && t.DeletedAt == nil {
		now := r.s.now()
		t.DeletedAt = timePtr(now)
		t.UpdatedAt = now
	}
	return nil
}

type feeCollectorRepo struct{ s *Store }

// Must be called with mu held.
func (r feeCollectorRepo) find(chainRef uuid.UUID, match func(*model.FeeCollector) bool) *model.FeeCollector {
	for _, f := range r.s.collectors {
		if f.ChainRef == chainRef && match(f) {
			return f
		}
	}
	return nil
}

func (r feeCollectorRepo) FindByAddress(_ context.Context, chainRef uuid.UUID, address string) (*model.FeeCollector, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := r.find(chainRef, func(f *model.FeeCollector) bool { return f.Address == address })
	if f == nil {
		return nil, nil
	}
	out := *f
	return &out, nil
}

func (r feeCollectorRepo) FindActive(_ context.Context, chainRef uuid.UUID) (*model.FeeCollector, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := r.find(chainRef, (*model.FeeCollector).IsActive)
	if f == nil {
		return nil, nil
	}
	out := *f
	return &out, nil
}

func (r feeCollectorRepo) CreateTx(_ context.Context, tx *sql.Tx, chainRef uuid.UUID, address string) (*model.FeeCollector, error) {
	var out model.FeeCollector
	err := r.s.inTx(tx, func() (func(), error) {
		if existing := r.find(chainRef, func(f *model.FeeCollector) bool { return f.Address == address }); existing != nil {
			out = *existing
			return nil, nil
		}
		if active := r.find(chainRef, (*model.FeeCollector).IsActive); active != nil {
			return nil, fmt.Errorf("create fee collector %s: chain already has active collector %s", address, active.Address)
		}
		now := r.s.now()
		row := &model.FeeCollector{ID: uuid.New(), ChainRef: chainRef, Address: address, CreatedAt: now, UpdatedAt: now}
		r.s.collectors[row.ID] = row
		out = *row
		return func() { delete(r.s.collectors, row.ID) }, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r feeCollectorRepo) RestoreTx(_ context.Context, tx *sql.Tx, id uuid.UUID) error {
	return r.s.inTx(tx, func() (func(), error) {
		f, ok := r.s.collectors[id]
		if !ok || f.DeletedAt == nil {
			return nil, nil
		}
		if active := r.find(f.ChainRef, (*model.FeeCollector).IsActive); active != nil {
			return nil, fmt.Errorf("restore fee collector %s: chain already has active collector %s", f.Address, active.Address)
		}
		prev := *f
		f.DeletedAt = nil
		f.UpdatedAt = r.s.now()
		return func() { *f = prev }, nil
	})
}

func (r feeCollectorRepo) SoftDeleteTx(_ context.Context, tx *sql.Tx, id uuid.UUID) error {
	return r.s.inTx(tx, func() (func(), error) {
		f, ok := r.s.collectors[id]
		if !ok || f.DeletedAt != nil {
			return nil, nil
		}
		prev := *f
		now := r.s.now()
		f.DeletedAt = timePtr(now)
		f.UpdatedAt = now
		return func() { *f = prev }, nil
	})
}

func (r feeCollectorRepo) SoftDeleteActiveExceptTx(_ context.Context, tx *sql.Tx, chainRef, keepID uuid.UUID) (int64, error) {
	var n int64
	err := r.s.inTx(tx, func() (func(), error) {
		var undo []func()
		now := r.s.now()
		for _, f := range r.s.collectors {
			if f.ChainRef != chainRef || f.ID == keepID || f.DeletedAt != nil {
				continue
			}
			prev, row := *f, f
			f.DeletedAt = timePtr(now)
			f.UpdatedAt = now
			undo = append(undo, func() { *row = prev })
			n++
		}
		if len(undo) == 0 {
			return nil, nil
		}
		return func() {
			for _, u := range undo {
				u()
			}
		}, nil
	})
	return n, err
}

func (r feeCollectorRepo) IncrementTotalTx(_ context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) error {
	return r.s.inTx(tx, func() (func(), error) {
		f, ok := r.s.collectors[id]
		if !ok {
			return nil, fmt.Errorf("increment fee collector %s: not found", id)
		}
		prev := *f
		f.UsdTotal = f.UsdTotal.Add(delta)
		f.UpdatedAt = r.s.now()
		return func() { *f = prev }, nil
	})
}

type userRepo struct{ s *Store }

func (r userRepo) Ensure(_ context.Context, address string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.usersByAddr[address]; ok {
		out := *r.s.users[id]
		return &out, nil
	}
	now := r.s.now()
	u := &model.User{ID: uuid.New(), Address: address, CreatedAt: now, UpdatedAt: now}
	r.s.users[u.ID] = u
	r.s.usersByAddr[address] = u.ID
	out := *u
	return &out, nil
}

func (r userRepo) increment(tx *sql.Tx, id uuid.UUID, apply func(*model.User)) error {
	return r.s.inTx(tx, func() (func(), error) {
		u, ok := r.s.users[id]
		if !ok {
			return nil, fmt.Errorf("increment user %s: not found", id)
		}
		prev := *u
		apply(u)
		u.UpdatedAt = r.s.now()
		return func() { *u = prev }, nil
	})
}

func (r userRepo) IncrementGivenTx(_ context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) error {
	return r.increment(tx, id, func(u *model.User) { u.UsdTotalGiven = u.UsdTotalGiven.Add(delta) })
}

func (r userRepo) IncrementReceivedTx(_ context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) error {
	return r.increment(tx, id, func(u *model.User) { u.UsdTotalReceived = u.UsdTotalReceived.Add(delta) })
}

type topSupportRepo struct {
	s    *Store
	kind model.LeaderboardKind
}

func (r topSupportRepo) Kind() model.LeaderboardKind {
	return r.kind
}

func (r topSupportRepo) Ensure(_ context.Context, streamerID, viewerID uuid.UUID) (*model.TopSupport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	board := r.s.boards[r.kind]
	key := pairKey{streamerID, viewerID}
	if ts, ok := board[key]; ok {
		out := *ts
		return &out, nil
	}
	now := r.s.now()
	ts := &model.TopSupport{
		ID: uuid.New(), Kind: r.kind, StreamerID: streamerID, ViewerID: viewerID,
		CreatedAt: now, UpdatedAt: now,
	}
	board[key] = ts
	out := *ts
	return &out, nil
}

func (r topSupportRepo) IncrementTx(_ context.Context, tx *sql.Tx, id uuid.UUID, value decimal.Decimal) error {
	return r.s.inTx(tx, func() (func(), error) {
		for _, ts := range r.s.boards[r.kind] {
			if ts.ID != id {
				continue
			}
			prev := *ts
			ts.Value = ts.Value.Add(value)
			ts.Count++
			ts.UpdatedAt = r.s.now()
			return func() { *ts = prev }, nil
		}
		return nil, fmt.Errorf("increment %s %s: not found", r.kind, id)
	})
}

type supportRepo struct{ s *Store }

func (r supportRepo) InsertTx(_ context.Context, tx *sql.Tx, sup *model.Support) (bool, error) {
	inserted := false
	err := r.s.inTx(tx, func() (func(), error) {
		key := eventKey{sup.SourceChainID, sup.TxHash, sup.LogIndex}
		if _, ok := r.s.supports[key]; ok {
			return nil, nil
		}
		row := *sup
		row.ID = uuid.New()
		row.CreatedAt = r.s.now()
		r.s.supports[key] = &row
		sup.ID, sup.CreatedAt = row.ID, row.CreatedAt
		inserted = true
		return func() { delete(r.s.supports, key) }, nil
	})
	return inserted, err
}

func (r supportRepo) FindByEventKey(_ context.Context, chainID int64, txHash string, logIndex uint) (*model.Support, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sup, ok := r.s.supports[eventKey{chainID, txHash, logIndex}]
	if !ok {
		return nil, nil
	}
	out := *sup
	return &out, nil
}

var (
	_ store.ChainRepository        = chainRepo{}
	_ store.TokenRepository        = tokenRepo{}
	_ store.FeeCollectorRepository = feeCollectorRepo{}
	_ store.UserRepository         = userRepo{}
	_ store.TopSupportRepository   = topSupportRepo{}
	_ store.SupportRepository      = supportRepo{}
)
