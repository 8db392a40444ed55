package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oyen-dev/streamfund-backend/internal/domain/model"
	"github.com/oyen-dev/streamfund-backend/internal/store"
)

type pairKey struct {
	streamer uuid.UUID
	viewer   uuid.UUID
}

type eventKey struct {
	chainID  int64
	txHash   string
	logIndex uint
}

// Store is an in-process ledger with the same contract as the postgres
// repositories. Writers are serialised: one transaction is open at a time
// and its changes are visible immediately, undone on rollback.
type Store struct {
	db    *sql.DB
	txSem chan struct{}
	nowFn func() time.Time

	mu            sync.Mutex
	current       *memTx
	currentSQL    *sql.Tx
	chains        map[uuid.UUID]*model.Chain
	chainsByExtID map[int64]uuid.UUID
	tokens        map[uuid.UUID]*model.Token
	collectors    map[uuid.UUID]*model.FeeCollector
	users         map[uuid.UUID]*model.User
	usersByAddr   map[string]uuid.UUID
	boards        map[model.LeaderboardKind]map[pairKey]*model.TopSupport
	supports      map[eventKey]*model.Support
}

func New() *Store {
	return &Store{
		db:            sql.OpenDB(connector{}),
		txSem:         make(chan struct{}, 1),
		nowFn:         func() time.Time { return time.Now().UTC() },
		chains:        make(map[uuid.UUID]*model.Chain),
		chainsByExtID: make(map[int64]uuid.UUID),
		tokens:        make(map[uuid.UUID]*model.Token),
		collectors:    make(map[uuid.UUID]*model.FeeCollector),
		users:         make(map[uuid.UUID]*model.User),
		usersByAddr:   make(map[string]uuid.UUID),
		boards: map[model.LeaderboardKind]map[pairKey]*model.TopSupport{
			model.LeaderboardTopSupport:   make(map[pairKey]*model.TopSupport),
			model.LeaderboardTopSupporter: make(map[pairKey]*model.TopSupport),
		},
		supports: make(map[eventKey]*model.Support),
	}
}

// Repos exposes the store through the ledger repository interfaces.
func (s *Store) Repos() *store.Repos {
	return &store.Repos{
		DB:           s,
		Chain:        chainRepo{s},
		Token:        tokenRepo{s},
		FeeCollector: feeCollectorRepo{s},
		User:         userRepo{s},
		TopSupport:   topSupportRepo{s, model.LeaderboardTopSupport},
		TopSupporter: topSupportRepo{s, model.LeaderboardTopSupporter},
		Support:      supportRepo{s},
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// BeginTx blocks until no other transaction is open or ctx is done.
func (s *Store) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	select {
	case s.txSem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	mt := &memTx{store: s}
	tx, err := s.db.BeginTx(context.WithValue(ctx, txKey{}, mt), opts)
	if err != nil {
		<-s.txSem
		return nil, fmt.Errorf("begin memory tx: %w", err)
	}

	s.mu.Lock()
	s.current = mt
	s.currentSQL = tx
	s.mu.Unlock()
	return tx, nil
}

func (s *Store) finish(t *memTx, rollback bool) {
	s.mu.Lock()
	if rollback {
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
	}
	t.undo = nil
	if s.current == t {
		s.current = nil
		s.currentSQL = nil
	}
	s.mu.Unlock()
	<-s.txSem
}

// inTx runs fn under the data lock on behalf of tx. fn returns the undo
// step for its change, or nil when it changed nothing.
func (s *Store) inTx(tx *sql.Tx, fn func() (func(), error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx == nil || tx != s.currentSQL {
		return fmt.Errorf("memory ledger: transaction is not open")
	}
	undo, err := fn()
	if err != nil {
		return err
	}
	if undo != nil {
		s.current.undo = append(s.current.undo, undo)
	}
	return nil
}

func (s *Store) now() time.Time {
	return s.nowFn()
}

func timePtr(t time.Time) *time.Time {
	return &t
}

var _ store.TxBeginner = (*Store)(nil)
